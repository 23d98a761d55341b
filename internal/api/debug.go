package api

import (
	"encoding/json"
	"net/http"
	"time"

	"venuetour/internal/buildinfo"
)

// DebugJSON exposes build metadata, planner counters, and redacted
// config on /debug/info.
func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	info := map[string]any{
		"build":   buildinfo.Info(),
		"time":    time.Now().UTC().Format(time.RFC3339),
		"planner": s.Planner.Snapshot(),
		"config": map[string]any{
			"port":              s.Cfg.Port,
			"travelSpeedKmh":    s.Cfg.TravelSpeedKmh,
			"plannerWorkers":    s.Cfg.PlannerWorkers,
			"twoOptIterations":  s.Cfg.TwoOptIterations,
			"rateRps":           s.Cfg.RateRPS,
			"rateBurst":         s.Cfg.RateBurst,
			"hasDatabaseUrl":    s.Cfg.DatabaseURL != "",
			"hasRedisUrl":       s.Cfg.RedisURL != "",
			"hasDirectionsUrl":  s.Cfg.DirectionsURL != "",
		},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(info)
}
