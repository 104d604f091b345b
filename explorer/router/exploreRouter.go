package apirouterv1

import (
	"github.com/gorilla/mux"
	controllerv1 "github.com/podlake/explorer/explorer/controller"
	"github.com/podlake/explorer/explorer/service"
)

func RouteExplorer(app *mux.Router, svc *service.ExplorerService) {
	ctrl := &controllerv1.ExploreController{Service: svc}
	app.HandleFunc("/api/v1/explore", ctrl.Explore).Methods("GET")
	app.HandleFunc("/api/v1/explore.csv", ctrl.ExploreCSV).Methods("GET")
}

func RouteSchema(app *mux.Router, svc *service.ExplorerService) {
	ctrl := &controllerv1.SchemaController{Registry: svc.Registry, Service: svc}
	app.HandleFunc("/api/v1/schema", ctrl.Schema).Methods("GET")
	app.HandleFunc("/api/v1/lists/{name}", ctrl.List).Methods("GET")
}
