package controllerv1

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/podlake/explorer/explorer/schema"
	"github.com/podlake/explorer/explorer/service"
	"golang.org/x/exp/slices"
)

type SchemaController struct {
	Registry *schema.Registry
	Service  *service.ExplorerService
}

type dimensionResponse struct {
	Name        string               `json:"name"`
	Key         string               `json:"key"`
	Label       string               `json:"label"`
	Type        schema.DimensionType `json:"type"`
	PermitNulls bool                 `json:"permit_nulls"`
	Unsafe      bool                 `json:"unsafe"`
}

type metricResponse struct {
	Name     string               `json:"name"`
	Label    string               `json:"label"`
	Variable *schema.VariableSpec `json:"variable,omitempty"`
}

func (s *SchemaController) Schema(w http.ResponseWriter, r *http.Request) {
	defer tamePanic(w, r)
	res := struct {
		Dimensions []dimensionResponse `json:"dimensions"`
		Metrics    []metricResponse    `json:"metrics"`
		Lists      []string            `json:"lists"`
	}{}
	for _, name := range s.Registry.DimensionNames() {
		d, _ := s.Registry.Dimension(name)
		res.Dimensions = append(res.Dimensions, dimensionResponse{
			Name:        d.Name,
			Key:         d.QueryKey(),
			Label:       d.Label,
			Type:        d.Type,
			PermitNulls: d.PermitNulls,
			Unsafe:      d.Unsafe,
		})
	}
	for _, name := range s.Registry.MetricNames() {
		m, _ := s.Registry.Metric(name)
		res.Metrics = append(res.Metrics, metricResponse{Name: m.Name, Label: m.Label, Variable: m.Variable})
	}
	for name := range s.Registry.Lists {
		res.Lists = append(res.Lists, name)
	}
	slices.Sort(res.Lists)
	writeJSON(http.StatusOK, res, w)
}

func (s *SchemaController) List(w http.ResponseWriter, r *http.Request) {
	defer tamePanic(w, r)
	ctx, err := RunPreRequestPlugins(r)
	if err != nil {
		writeError(err, w)
		return
	}
	res, err := s.Service.Lists(ctx, mux.Vars(r)["name"])
	if err != nil {
		writeError(err, w)
		return
	}
	writeJSON(http.StatusOK, res, w)
}
