package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/storemap/internal/camera"
	"github.com/sells-group/storemap/internal/derive"
	"github.com/sells-group/storemap/internal/filter"
	"github.com/sells-group/storemap/internal/geodata"
	"github.com/sells-group/storemap/internal/health"
	"github.com/sells-group/storemap/internal/interact"
)

type legendResponse struct {
	Entries    []health.LegendEntry `json:"entries"`
	Expression []any                `json:"expression"`
}

func (s *Server) handleLegend(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, legendResponse{
		Entries:    health.Legend(),
		Expression: health.StepExpression("health"),
	})
}

type optionsResponse struct {
	Division  geodata.Division  `json:"division"`
	Divisions []string          `json:"divisions"`
	DCOptions []string          `json:"dc_options"`
	Periods   []interact.Period `json:"periods"`
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	st := filter.Normalize(s.options.For, r.URL.Query().Get("division"), "", false)
	divisions := []string{string(geodata.DivisionAll)}
	for _, d := range geodata.Divisions {
		divisions = append(divisions, string(d))
	}
	writeJSON(w, http.StatusOK, optionsResponse{
		Division:  st.Division,
		Divisions: divisions,
		DCOptions: s.options.For(st.Division),
		Periods:   interact.Periods,
	})
}

type viewResponse struct {
	Filter        filter.State               `json:"filter"`
	DCOptions     []string                   `json:"dc_options"`
	VisibleStores int                        `json:"visible_stores"`
	VisibleDCs    int                        `json:"visible_dcs"`
	Bands         map[health.Band]int        `json:"bands"`
	Camera        camera.Command             `json:"camera"`
	Stores        *geojson.FeatureCollection `json:"stores"`
	DCs           *geojson.FeatureCollection `json:"dcs"`
}

// handleView derives a view for query-string filters. Raw values go through
// the same normalization as the live map selectors, so an unknown DC or
// division yields the corrected state rather than an error.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	onlyAssigned, _ := strconv.ParseBool(q.Get("only_assigned"))
	st := filter.Normalize(s.options.For, q.Get("division"), q.Get("dc"), onlyAssigned)

	key := s.ds.Fingerprint() + "|" + st.Key()
	data, hit, err := s.views.Get(r.Context(), key, func() ([]byte, error) {
		return json.Marshal(s.buildView(st))
	})
	if err != nil {
		zap.L().Error("server: build view failed", zap.String("key", key), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "view unavailable")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if hit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	_, _ = w.Write(data)
}

func (s *Server) buildView(st filter.State) viewResponse {
	v := derive.Derive(s.ds, st)
	return viewResponse{
		Filter:        v.State,
		DCOptions:     v.DCOptions,
		VisibleStores: len(v.Stores),
		VisibleDCs:    len(v.DCs),
		Bands:         v.Bands,
		Camera:        camera.NewDirector(s.camera).Frame(s.ds, v),
		Stores:        v.StoresCollection(),
		DCs:           v.DCsCollection(),
	}
}

type storeResponse struct {
	Store   geodata.Store               `json:"store"`
	Lon     float64                     `json:"lon"`
	Lat     float64                     `json:"lat"`
	Band    health.Band                 `json:"band"`
	DC      *geodata.DistributionCenter `json:"dc,omitempty"`
	Period  interact.Period             `json:"period"`
	Tooltip interact.Tooltip            `json:"tooltip"`
}

// handleStore receives navigation intents. It answers with the store
// record so the host application has something to render.
func (s *Server) handleStore(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	st, ok := s.ds.Store(id)
	if !ok {
		writeError(w, http.StatusNotFound, "store not found")
		return
	}

	period := interact.DefaultPeriod
	if raw := r.URL.Query().Get("period"); raw != "" {
		p, err := interact.ParsePeriod(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		period = p
	}

	resp := storeResponse{
		Store:   st,
		Lon:     st.Location.Lon(),
		Lat:     st.Location.Lat(),
		Band:    health.BandOf(st.Health),
		Period:  period,
		Tooltip: interact.StoreTooltip(st),
	}
	if dc, ok := s.ds.DC(st.DCID); ok {
		resp.DC = &dc
	}
	writeJSON(w, http.StatusOK, resp)
}
