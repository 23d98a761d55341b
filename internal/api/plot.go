package api

import (
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"venuetour/internal/geo"
)

// plotRoute renders an HTML preview of the route: stops labelled in
// visit order plus the geometry path on lon/lat axes.
func (s *Server) plotRoute(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	route, ok := s.loadReadable(w, r, id)
	if !ok {
		return
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Route " + route.ID,
			Width:     "900px",
			Height:    "700px",
		}),
		charts.WithTitleOpts(opts.Title{Title: route.Name}),
		charts.WithXAxisOpts(opts.XAxis{Name: "lon", Type: "value", Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "lat", Type: "value", Scale: opts.Bool(true)}),
	)

	stops := make([]opts.ScatterData, len(route.Stops))
	for i, st := range route.Stops {
		stops[i] = opts.ScatterData{
			Name:       st.Name,
			Value:      []any{st.Lon, st.Lat},
			SymbolSize: 14,
		}
	}
	scatter.AddSeries("stops", stops,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}"}),
	)

	if path := geo.DecodePolyline(route.Geometry); len(path) > 1 {
		pts := make([]opts.ScatterData, len(path))
		for i, p := range path {
			pts[i] = opts.ScatterData{Value: []any{p.Lon, p.Lat}, SymbolSize: 4}
		}
		scatter.AddSeries("path", pts)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = scatter.Render(w)
}
