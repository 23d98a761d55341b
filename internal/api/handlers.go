package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"venuetour/internal/catalog"
	"venuetour/internal/geo"
	"venuetour/internal/metrics"
	"venuetour/internal/model"
	"venuetour/internal/planner"
	"venuetour/internal/store"
)

// GenerateHandler handles POST /v1/routes/generate.
func (s *Server) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user := s.userID(r)
	if !s.limiter.allow(user) {
		writeProblem(w, http.StatusTooManyRequests, "Rate limited", "too many generation requests", r.URL.Path)
		return
	}
	var opts model.RouteOptions
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}

	route, err := s.Planner.Generate(r.Context(), user, opts)
	if err != nil {
		metrics.Generations.WithLabelValues(outcomeLabel(err)).Inc()
		s.writeDomainError(w, r, err)
		return
	}
	metrics.Generations.WithLabelValues("ok").Inc()
	metrics.VenuesPerRoute.Observe(float64(len(route.Stops)))

	s.encodeGeometry(r, route)
	if err := s.Store.Save(r.Context(), *route); err != nil {
		writeProblem(w, http.StatusInternalServerError, "Save failed", err.Error(), r.URL.Path)
		return
	}

	content, err := s.contentFor(r, *route)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeContent(w, content)
}

// RoutesIndexHandler handles POST /v1/routes (save) and GET /v1/routes
// (listings).
func (s *Server) RoutesIndexHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.saveRoute(w, r)
	case http.MethodGet:
		s.listRoutes(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) saveRoute(w http.ResponseWriter, r *http.Request) {
	user := s.userID(r)
	var req model.SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validateSaveRequest(&req); err != nil {
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid save request", err.Error(), r.URL.Path)
		return
	}

	stops, err := s.Editor.Assign(r.Context(), req.VenuesInRoute, s.Editor.Now(),
		time.Duration(s.Cfg.DefaultMaxTourHours*float64(time.Hour)),
		time.Duration(s.Cfg.DefaultVenueMinutes)*time.Minute)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	now := time.Now().UTC()
	route := model.Route{
		ID:        uuid.NewString(),
		Name:      req.Name,
		OwnerID:   user,
		Stops:     stops,
		Geometry:  req.RouteGeometry,
		State:     model.StateSaved,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if route.Geometry == "" {
		s.encodeGeometry(r, &route)
	}
	if err := s.Store.Save(r.Context(), route); err != nil {
		writeProblem(w, http.StatusInternalServerError, "Save failed", err.Error(), r.URL.Path)
		return
	}
	s.Broker.Publish(route.ID, Event{Type: "route.saved", Data: map[string]any{
		"routeId": route.ID, "name": route.Name, "ownerId": route.OwnerID,
	}})

	content, err := s.contentFor(r, route)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, model.RouteResponse{Content: &content})
}

func (s *Server) listRoutes(w http.ResponseWriter, r *http.Request) {
	user := s.userID(r)
	q := r.URL.Query()
	var (
		routes []model.Route
		err    error
	)
	switch {
	case q.Get("sharedWith") == "me":
		routes, err = s.Store.ListSharedWith(r.Context(), user)
	case q.Get("owner") == "me", q.Get("owner") == "":
		routes, err = s.Store.ListOwned(r.Context(), user)
	default:
		writeProblem(w, http.StatusBadRequest, "Invalid filter", "owner and sharedWith only accept \"me\"", r.URL.Path)
		return
	}
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"routes": routes})
}

// RouteByIDHandler dispatches /v1/routes/{id} and its sub-resources:
// reorder, venues, share, events/stream, events/ws, plot.
func (s *Server) RouteByIDHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/routes/")
	if rest == r.URL.Path || rest == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing id", r.URL.Path)
		return
	}
	parts := strings.Split(rest, "/")
	id := parts[0]

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			s.getRoute(w, r, id)
		case http.MethodDelete:
			s.deleteRoute(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	switch parts[1] {
	case "reorder":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s.reorderRoute(w, r, id)
	case "venues":
		switch {
		case r.Method == http.MethodPost && len(parts) == 2:
			s.insertVenue(w, r, id)
		case r.Method == http.MethodDelete && len(parts) == 3:
			s.removeVenue(w, r, id, parts[2])
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case "share":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s.shareRoute(w, r, id)
	case "events":
		if len(parts) == 3 && parts[2] == "stream" {
			s.streamEvents(w, r, id)
			return
		}
		if len(parts) == 3 && parts[2] == "ws" {
			s.EventsWSHandler(w, r, id)
			return
		}
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
	case "plot":
		s.plotRoute(w, r, id)
	default:
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
	}
}

func (s *Server) getRoute(w http.ResponseWriter, r *http.Request, id string) {
	route, ok := s.loadReadable(w, r, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, route)
}

func (s *Server) deleteRoute(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := s.loadOwned(w, r, id); !ok {
		return
	}
	if err := s.Store.Delete(r.Context(), id); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) reorderRoute(w http.ResponseWriter, r *http.Request, id string) {
	route, ok := s.loadOwned(w, r, id)
	if !ok {
		return
	}
	var req model.EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	stops, err := s.Editor.Reorder(r.Context(), &route, req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.persistEdit(w, r, route, stops)
}

func (s *Server) insertVenue(w http.ResponseWriter, r *http.Request, id string) {
	route, ok := s.loadOwned(w, r, id)
	if !ok {
		return
	}
	var req model.InsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	stops, err := s.Editor.Insert(r.Context(), &route, req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.persistEdit(w, r, route, stops)
}

func (s *Server) removeVenue(w http.ResponseWriter, r *http.Request, id, venueID string) {
	route, ok := s.loadOwned(w, r, id)
	if !ok {
		return
	}
	stops, err := s.Editor.Remove(r.Context(), &route, venueID, model.EditRequest{})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.persistEdit(w, r, route, stops)
}

// persistEdit swaps in the new stops, refreshes geometry, bumps the
// version, and answers with the generation-shaped content.
func (s *Server) persistEdit(w http.ResponseWriter, r *http.Request, route model.Route, stops []model.Stop) {
	route.Stops = stops
	s.encodeGeometry(r, &route)
	route.Version++
	route.UpdatedAt = time.Now().UTC()
	if err := s.Store.Update(r.Context(), route); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.Broker.Publish(route.ID, Event{Type: "route.edited", Data: map[string]any{
		"routeId": route.ID, "version": route.Version, "venueIds": route.VenueIDs(),
	}})
	content, err := s.contentFor(r, route)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeContent(w, content)
}

func (s *Server) shareRoute(w http.ResponseWriter, r *http.Request, id string) {
	route, ok := s.loadOwned(w, r, id)
	if !ok {
		return
	}
	var req model.ShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validateShareRequest(&req); err != nil {
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid share request", err.Error(), r.URL.Path)
		return
	}
	if _, err := s.Store.Share(r.Context(), route.ID, req.RecipientID); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.Broker.Publish(route.ID, Event{Type: "route.shared", Data: map[string]any{
		"routeId": route.ID, "recipientId": req.RecipientID,
	}})
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// streamEvents serves the SSE feed of route lifecycle events with
// periodic heartbeats.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := s.loadReadable(w, r, id); !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, "Streaming unsupported", "", r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.Broker.Subscribe(id)
	defer s.Broker.Unsubscribe(id, ch)

	heartbeat := func() {
		fmt.Fprintf(w, "event: heartbeat\n")
		fmt.Fprintf(w, "data: {\"routeId\":\"%s\",\"ts\":\"%s\"}\n\n", id, time.Now().Format(time.RFC3339))
		flusher.Flush()
	}
	heartbeat()

	notify := r.Context().Done()
	for {
		select {
		case <-notify:
			return
		case evt := <-ch:
			b, _ := json.Marshal(evt.Data)
			fmt.Fprintf(w, "event: %s\n", evt.Type)
			fmt.Fprintf(w, "data: %s\n\n", string(b))
			flusher.Flush()
		case <-time.After(15 * time.Second):
			heartbeat()
		}
	}
}

// VenuesHandler handles PUT /v1/venues (catalog upsert) and
// GET /v1/venues/{id}.
func (s *Server) VenuesHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPut:
		var v model.Venue
		if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if err := validateVenue(&v); err != nil {
			writeProblem(w, http.StatusUnprocessableEntity, "Invalid venue", err.Error(), r.URL.Path)
			return
		}
		if err := s.Catalog.Upsert(r.Context(), v); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	case http.MethodGet:
		id := strings.TrimPrefix(r.URL.Path, "/v1/venues/")
		if id == "" || id == r.URL.Path {
			writeProblem(w, http.StatusNotFound, "Not Found", "missing id", r.URL.Path)
			return
		}
		venues, err := s.Catalog.ByIDs(r.Context(), []string{id})
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		if len(venues) == 0 {
			writeProblem(w, http.StatusNotFound, "Venue not found", id, r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, venues[0])
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Ping(r.Context()); err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Store unavailable", err.Error(), r.URL.Path)
		return
	}
	if err := s.Catalog.Ping(r.Context()); err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Catalog unavailable", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// --- helpers ----------------------------------------------------------------

// loadOwned fetches the route and requires the caller to be its owner.
func (s *Server) loadOwned(w http.ResponseWriter, r *http.Request, id string) (model.Route, bool) {
	route, err := s.Store.Get(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return model.Route{}, false
	}
	if route.OwnerID != s.userID(r) {
		writeProblem(w, http.StatusForbidden, "Forbidden", "not the route owner", r.URL.Path)
		return model.Route{}, false
	}
	return route, true
}

// loadReadable fetches the route for the owner or a share recipient.
func (s *Server) loadReadable(w http.ResponseWriter, r *http.Request, id string) (model.Route, bool) {
	route, err := s.Store.Get(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return model.Route{}, false
	}
	user := s.userID(r)
	if route.OwnerID == user {
		return route, true
	}
	for _, u := range route.SharedWith {
		if u == user {
			return route, true
		}
	}
	writeProblem(w, http.StatusForbidden, "Forbidden", "route not shared with you", r.URL.Path)
	return model.Route{}, false
}

// encodeGeometry refreshes the route polyline from its stops, counting
// straight-line fallbacks.
func (s *Server) encodeGeometry(r *http.Request, route *model.Route) {
	pts := make([]geo.Point, len(route.Stops))
	for i, st := range route.Stops {
		pts[i] = geo.Point{Lon: st.Lon, Lat: st.Lat}
	}
	var fallbacks int
	route.Geometry, fallbacks = s.Encoder.Encode(r.Context(), pts)
	if fallbacks > 0 {
		metrics.DirectionsFallbacks.Add(float64(fallbacks))
	}
}

// contentFor builds the response payload, enriching stop snapshots with
// catalog category/rating.
func (s *Server) contentFor(r *http.Request, route model.Route) (model.RouteContent, error) {
	venues, err := s.Catalog.ByIDs(r.Context(), route.VenueIDs())
	if err != nil {
		return model.RouteContent{}, err
	}
	byID := map[string]model.Venue{}
	for _, v := range venues {
		byID[v.ID] = v
	}
	summaries := make([]model.VenueSummary, len(route.Stops))
	for i, st := range route.Stops {
		v := byID[st.VenueID]
		summaries[i] = model.VenueSummary{
			ID:             st.VenueID,
			Name:           st.Name,
			Category:       v.Category,
			Rating:         v.Rating,
			Lat:            st.Lat,
			Lon:            st.Lon,
			PlannedArrival: st.ETA.Format(time.RFC3339),
		}
	}
	return model.RouteContent{
		RouteID:       route.ID,
		VenuesInRoute: summaries,
		RouteGeometry: route.Geometry,
	}, nil
}

// writeDomainError maps domain failures onto the wire: result-level
// failures land in the errors array with HTTP 200, everything else
// becomes a problem response.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *planner.ValidationError
	switch {
	case errors.As(err, &verr):
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid request", verr.Msg, r.URL.Path)
	case errors.Is(err, catalog.ErrUnavailable):
		writeProblem(w, http.StatusServiceUnavailable, "Catalog unavailable", err.Error(), r.URL.Path)
	case errors.Is(err, store.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Route not found", "", r.URL.Path)
	default:
		if msg, ok := planner.ResultMessage(err); ok {
			writeResultErrors(w, msg)
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Internal error", err.Error(), r.URL.Path)
	}
}

func outcomeLabel(err error) string {
	var verr *planner.ValidationError
	var insuff *planner.InsufficientVenuesError
	var window *planner.InfeasibleWindowError
	var long *planner.TourTooLongError
	switch {
	case errors.As(err, &verr):
		return "validation"
	case errors.Is(err, planner.ErrNoCandidates):
		return "no_candidates"
	case errors.As(err, &insuff):
		return "insufficient_venues"
	case errors.As(err, &window):
		return "infeasible_window"
	case errors.As(err, &long):
		return "tour_too_long"
	default:
		return "error"
	}
}
