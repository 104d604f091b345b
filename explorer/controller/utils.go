package controllerv1

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"

	jsoniter "github.com/json-iterator/go"
	"github.com/podlake/explorer/explorer/plugins"
	custom_errors "github.com/podlake/explorer/explorer/utils/errors"
	"github.com/podlake/explorer/explorer/utils/logger"
)

func tamePanic(w http.ResponseWriter, r *http.Request) {
	if err := recover(); err != nil {
		logger.Error("panic:", err, " stack:", string(debug.Stack()))
		logger.Error("query: ", r.URL.String())
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
	}
}

func RunPreRequestPlugins(r *http.Request) (context.Context, error) {
	ctx := r.Context()
	for _, plugin := range plugins.GetPreRequestPlugins() {
		_ctx, err := plugin(ctx, r)
		if err == nil {
			ctx = _ctx
			continue
		}
		if errors.Is(err, plugins.ErrPluginNotApplicable) {
			continue
		}
		return nil, err
	}
	return ctx, nil
}

// writeError answers with the code carried by err, 500 otherwise.
func writeError(err error, w http.ResponseWriter) {
	code := custom_errors.Code(err)
	if code >= http.StatusInternalServerError {
		logger.Error(err)
	}
	json := jsoniter.ConfigFastest
	stream := json.BorrowStream(nil)
	defer json.ReturnStream(stream)

	stream.WriteObjectStart()
	stream.WriteObjectField("status")
	stream.WriteString("error")
	stream.WriteMore()
	stream.WriteObjectField("error")
	stream.WriteString(err.Error())
	stream.WriteObjectEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(stream.Buffer())
}

func writeJSON(code int, body any, w http.ResponseWriter) {
	res, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(body)
	if err != nil {
		writeError(err, w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(res)
}
