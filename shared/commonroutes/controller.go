package commonroutes

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/podlake/explorer/explorer/utils/logger"
	"github.com/podlake/explorer/explorer/watchdog"
)

// Version and Branch are set at build time with -ldflags -X.
var (
	Version = "dev"
	Branch  = "main"
)

func Ready(w http.ResponseWriter, r *http.Request) {
	err := watchdog.Check()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		logger.Error(err.Error())
		w.Write([]byte("Internal Server Error"))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func BuildInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	jsoniter.ConfigFastest.NewEncoder(w).Encode(map[string]string{
		"version": Version,
		"branch":  Branch,
	})
}
