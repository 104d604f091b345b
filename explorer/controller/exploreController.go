package controllerv1

import (
	"net/http"

	"github.com/podlake/explorer/explorer/composition"
	"github.com/podlake/explorer/explorer/plugins"
	"github.com/podlake/explorer/explorer/results"
	"github.com/podlake/explorer/explorer/service"
	"github.com/valyala/bytebufferpool"
)

type ExploreController struct {
	Service *service.ExplorerService
}

type comparisonResponse struct {
	Period composition.Period `json:"period"`
	Step   int                `json:"step"`
	SQL    string             `json:"sql"`
	Rows   []results.Row      `json:"rows"`
}

type exploreResponse struct {
	Valid         bool                 `json:"valid"`
	Lens          composition.Lens     `json:"lens"`
	Params        string               `json:"params"`
	Errors        composition.Errors   `json:"errors"`
	Warnings      composition.Errors   `json:"warnings"`
	SQL           string               `json:"sql,omitempty"`
	Bytes         uint64               `json:"bytes"`
	Rows          []results.Row        `json:"rows"`
	Granularities []string             `json:"granularities,omitempty"`
	Windows       []int64              `json:"windows,omitempty"`
	Comparisons   []comparisonResponse `json:"comparisons,omitempty"`
}

func (e *ExploreController) compose(w http.ResponseWriter, r *http.Request) (*composition.Composition, *service.ExploreResult, bool) {
	ctx, err := RunPreRequestPlugins(r)
	if err != nil {
		writeError(err, w)
		return nil, nil, false
	}
	c := e.Service.Compose(r.URL.Query(), plugins.GetAuthorization(ctx))
	if !c.Valid() {
		writeJSON(http.StatusBadRequest, newExploreResponse(c, nil), w)
		return nil, nil, false
	}
	res, err := e.Service.Explore(ctx, c)
	if err != nil {
		writeError(err, w)
		return nil, nil, false
	}
	return c, res, true
}

func (e *ExploreController) Explore(w http.ResponseWriter, r *http.Request) {
	defer tamePanic(w, r)
	c, res, ok := e.compose(w, r)
	if !ok {
		return
	}
	writeJSON(http.StatusOK, newExploreResponse(c, res), w)
}

func (e *ExploreController) ExploreCSV(w http.ResponseWriter, r *http.Request) {
	defer tamePanic(w, r)
	_, res, ok := e.compose(w, r)
	if !ok {
		return
	}
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if err := res.Set.WriteCSV(buf); err != nil {
		writeError(err, w)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="explore.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func newExploreResponse(c *composition.Composition, res *service.ExploreResult) *exploreResponse {
	out := &exploreResponse{
		Valid:    c.Valid(),
		Lens:     c.Lens(),
		Params:   c.Params().Encode(),
		Errors:   c.Errors(),
		Warnings: c.Warnings(),
	}
	if res == nil || res.Set == nil {
		return out
	}
	out.Bytes = res.BytesProcessed()
	out.Rows = res.Set.Rows()
	if len(res.Statements) > 0 {
		out.SQL = res.Statements[0].SQL
	}
	switch set := res.Set.(type) {
	case *results.TimeSeries:
		out.Granularities = set.Granularities()
		idx := 1
		for _, cmp := range c.Comparisons() {
			for step := 1; step <= cmp.Steps(); step++ {
				sub := set.Comparison(cmp, step)
				if sub == nil {
					continue
				}
				item := comparisonResponse{Period: cmp.Period, Step: step, Rows: sub.Rows()}
				if idx < len(res.Statements) {
					item.SQL = res.Statements[idx].SQL
				}
				idx++
				out.Comparisons = append(out.Comparisons, item)
			}
		}
	case *results.Cume:
		out.Windows = set.Windows()
	}
	return out
}
