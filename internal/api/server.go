// Package api implements the HTTP surface of the venue tour service.
package api

import (
	"net/http"
	"strings"
	"time"

	"venuetour/internal/catalog"
	"venuetour/internal/config"
	"venuetour/internal/editor"
	"venuetour/internal/geometry"
	"venuetour/internal/planner"
	"venuetour/internal/store"
)

type Server struct {
	Cfg     config.Config
	Store   store.Store
	Catalog catalog.Catalog
	Planner *planner.Planner
	Encoder *geometry.Encoder
	Editor  *editor.Editor
	Broker  EventBroker

	limiter *clientLimiter
}

// NewServer wires the service from config. Postgres and Redis are
// optional; without them the server runs fully in process.
func NewServer(cfg config.Config) (*Server, error) {
	var s store.Store
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		s = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		// Run migrations (dev helper)
		_ = sp.MigrateDir("db/migrations")
		s = sp
	}

	var cat catalog.Catalog
	if cfg.RedisURL != "" {
		rc, err := catalog.NewRedis(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		cat = rc
	} else {
		cat = catalog.NewMemory()
	}

	var broker EventBroker
	if cfg.RedisURL != "" {
		if rb, err := NewRedisBroker(cfg.RedisURL); err == nil {
			broker = rb
		} else {
			broker = NewBroker()
		}
	} else {
		broker = NewBroker()
	}

	var directions geometry.Directions
	if cfg.DirectionsURL != "" {
		directions = geometry.NewOSRM(cfg.DirectionsURL, time.Duration(cfg.DirectionsTimeoutSec)*time.Second)
	}

	p := planner.New(cat, cfg.TravelSpeedKmh)
	p.Workers = cfg.PlannerWorkers
	p.TwoOptIterations = cfg.TwoOptIterations

	return &Server{
		Cfg:     cfg,
		Store:   s,
		Catalog: cat,
		Planner: p,
		Encoder: geometry.NewEncoder(directions, time.Duration(cfg.DirectionsTimeoutSec)*time.Second),
		Editor:  editor.New(cat, cfg.TravelSpeedKmh, cfg.DefaultMaxTourHours, cfg.DefaultVenueMinutes, cfg.DefaultMaxVenues),
		Broker:  broker,
		limiter: newClientLimiter(cfg.RateRPS, cfg.RateBurst),
	}, nil
}

// userID identifies the caller. Sessions are an external collaborator;
// the header contract stands in for them.
func (s *Server) userID(r *http.Request) string {
	u := r.Header.Get("X-User-Id")
	if u == "" {
		u = "u_demo"
	}
	return u
}
