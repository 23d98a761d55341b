package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"venuetour/internal/config"
	"venuetour/internal/geo"
	"venuetour/internal/model"
	"venuetour/internal/schedule"
)

var testStart = time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)

func testConfig() config.Config {
	return config.Config{
		Port:                 "0",
		TravelSpeedKmh:       18,
		DefaultMaxTourHours:  8,
		DefaultVenueMinutes:  30,
		DefaultMaxVenues:     10,
		PlannerWorkers:       4,
		TwoOptIterations:     4,
		DirectionsTimeoutSec: 1,
		RateRPS:              100,
		RateBurst:            100,
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(testConfig())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	s.Planner.Now = func() time.Time { return testStart }
	s.Editor.Now = func() time.Time { return testStart }
	return s
}

func seedVenue(t *testing.T, s *Server, id string, dLon float64, tags ...string) {
	t.Helper()
	v := model.Venue{
		ID:       id,
		Name:     "venue " + id,
		Location: geo.Point{Lon: -73.567 + dLon, Lat: 45.5017},
		Category: "bar",
		Tags:     tags,
		Rating:   4.2,
		Hours:    schedule.AllDay(),
	}
	if err := s.Catalog.Upsert(context.Background(), v); err != nil {
		t.Fatalf("seed venue %s: %v", id, err)
	}
}

func generateBody(criteriaTags ...string) []byte {
	criteria := []map[string]any{}
	for _, tag := range criteriaTags {
		criteria = append(criteria, map[string]any{"tag": tag})
	}
	b, _ := json.Marshal(map[string]any{
		"startTime":     testStart.Format(time.RFC3339),
		"maxTourTime":   6,
		"anchor":        map[string]any{"searchCenter": []float64{-73.567, 45.5017}},
		"radius":        5000,
		"minVenues":     1,
		"maxVenues":     5,
		"timeAtVenue":   30,
		"venueCriteria": criteria,
	})
	return b
}

func doJSON(t *testing.T, h http.HandlerFunc, method, path string, body []byte, user string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if user != "" {
		req.Header.Set("X-User-Id", user)
	}
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) model.RouteResponse {
	t.Helper()
	var resp model.RouteResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rr.Body.String())
	}
	return resp
}

func TestHealthReady(t *testing.T) {
	s := newTestServer(t)
	rr := doJSON(t, s.HealthHandler, http.MethodGet, "/healthz", nil, "")
	if rr.Code != 200 {
		t.Fatalf("health: got %d", rr.Code)
	}
	rr = doJSON(t, s.ReadyHandler, http.MethodGet, "/readyz", nil, "")
	if rr.Code != 200 {
		t.Fatalf("ready: got %d", rr.Code)
	}
}

func TestGenerateSuccess(t *testing.T) {
	s := newTestServer(t)
	seedVenue(t, s, "j1", 0.002, "jazz")
	seedVenue(t, s, "j2", 0.006, "jazz")
	seedVenue(t, s, "pub", 0.001, "pub")

	rr := doJSON(t, s.GenerateHandler, http.MethodPost, "/v1/routes/generate", generateBody("jazz"), "alice")
	if rr.Code != 200 {
		t.Fatalf("generate: got %d (%s)", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if len(resp.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", resp.Errors)
	}
	if resp.Content == nil || len(resp.Content.VenuesInRoute) != 2 {
		t.Fatalf("expected 2 venues, got %+v", resp.Content)
	}
	if resp.Content.VenuesInRoute[0].ID != "j1" {
		t.Fatalf("expected nearest venue first, got %s", resp.Content.VenuesInRoute[0].ID)
	}
	if resp.Content.RouteGeometry == "" {
		t.Fatalf("expected geometry")
	}
	if resp.Content.RouteID == "" {
		t.Fatalf("expected route id")
	}

	// Generated draft is retrievable by its owner.
	rr2 := doJSON(t, s.RouteByIDHandler, http.MethodGet, "/v1/routes/"+resp.Content.RouteID, nil, "alice")
	if rr2.Code != 200 {
		t.Fatalf("get draft: got %d", rr2.Code)
	}
	var route model.Route
	if err := json.Unmarshal(rr2.Body.Bytes(), &route); err != nil {
		t.Fatalf("decode route: %v", err)
	}
	if route.State != model.StateDraft {
		t.Fatalf("want draft, got %s", route.State)
	}
}

func TestGenerateResultErrors(t *testing.T) {
	s := newTestServer(t)
	seedVenue(t, s, "pub", 0.001, "pub")

	rr := doJSON(t, s.GenerateHandler, http.MethodPost, "/v1/routes/generate", generateBody("opera"), "alice")
	if rr.Code != 200 {
		t.Fatalf("result errors should be 200, got %d", rr.Code)
	}
	resp := decodeResponse(t, rr)
	if len(resp.Errors) != 1 || resp.Content != nil {
		t.Fatalf("want exactly one error and no content, got %+v", resp)
	}
	if !strings.Contains(resp.Errors[0], "no venues") {
		t.Fatalf("unexpected message: %s", resp.Errors[0])
	}
}

func TestGenerateBadRequests(t *testing.T) {
	s := newTestServer(t)

	rr := doJSON(t, s.GenerateHandler, http.MethodPost, "/v1/routes/generate", []byte("{nope"), "alice")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad json: got %d", rr.Code)
	}

	// Structurally valid but semantically empty options.
	rr = doJSON(t, s.GenerateHandler, http.MethodPost, "/v1/routes/generate", []byte(`{}`), "alice")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid options: got %d (%s)", rr.Code, rr.Body.String())
	}
}

func TestGenerateRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateRPS = 0.001
	cfg.RateBurst = 1
	s, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	s.Planner.Now = func() time.Time { return testStart }
	seedVenue(t, s, "j1", 0.002, "jazz")

	if rr := doJSON(t, s.GenerateHandler, http.MethodPost, "/v1/routes/generate", generateBody("jazz"), "alice"); rr.Code != 200 {
		t.Fatalf("first call: got %d", rr.Code)
	}
	if rr := doJSON(t, s.GenerateHandler, http.MethodPost, "/v1/routes/generate", generateBody("jazz"), "alice"); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second call should be limited, got %d", rr.Code)
	}
	// A different caller has its own bucket.
	if rr := doJSON(t, s.GenerateHandler, http.MethodPost, "/v1/routes/generate", generateBody("jazz"), "bob"); rr.Code != 200 {
		t.Fatalf("other caller: got %d", rr.Code)
	}
}

func TestSaveListGetDelete(t *testing.T) {
	s := newTestServer(t)
	seedVenue(t, s, "a", 0.001)
	seedVenue(t, s, "b", 0.003)

	body, _ := json.Marshal(model.SaveRequest{Name: "friday tour", VenuesInRoute: []string{"a", "b"}})
	rr := doJSON(t, s.RoutesIndexHandler, http.MethodPost, "/v1/routes", body, "alice")
	if rr.Code != http.StatusCreated {
		t.Fatalf("save: got %d (%s)", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	id := resp.Content.RouteID

	rr = doJSON(t, s.RoutesIndexHandler, http.MethodGet, "/v1/routes?owner=me", nil, "alice")
	if rr.Code != 200 {
		t.Fatalf("list: got %d", rr.Code)
	}
	var listing struct {
		Routes []model.Route `json:"routes"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(listing.Routes) != 1 || listing.Routes[0].ID != id {
		t.Fatalf("unexpected listing: %+v", listing.Routes)
	}
	if listing.Routes[0].State != model.StateSaved {
		t.Fatalf("want saved, got %s", listing.Routes[0].State)
	}

	// Strangers cannot read it.
	rr = doJSON(t, s.RouteByIDHandler, http.MethodGet, "/v1/routes/"+id, nil, "mallory")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("stranger get: got %d", rr.Code)
	}

	// Only the owner can delete.
	rr = doJSON(t, s.RouteByIDHandler, http.MethodDelete, "/v1/routes/"+id, nil, "mallory")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("stranger delete: got %d", rr.Code)
	}
	rr = doJSON(t, s.RouteByIDHandler, http.MethodDelete, "/v1/routes/"+id, nil, "alice")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete: got %d", rr.Code)
	}
	rr = doJSON(t, s.RouteByIDHandler, http.MethodGet, "/v1/routes/"+id, nil, "alice")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("get deleted: got %d", rr.Code)
	}
}

func TestEditFlow(t *testing.T) {
	s := newTestServer(t)
	seedVenue(t, s, "a", 0.001)
	seedVenue(t, s, "b", 0.003)
	seedVenue(t, s, "c", 0.005)

	body, _ := json.Marshal(model.SaveRequest{Name: "editable", VenuesInRoute: []string{"a", "b"}})
	rr := doJSON(t, s.RoutesIndexHandler, http.MethodPost, "/v1/routes", body, "alice")
	if rr.Code != http.StatusCreated {
		t.Fatalf("save: got %d", rr.Code)
	}
	id := decodeResponse(t, rr).Content.RouteID

	// Reorder.
	body, _ = json.Marshal(model.EditRequest{VenueIDs: []string{"b", "a"}})
	rr = doJSON(t, s.RouteByIDHandler, http.MethodPost, "/v1/routes/"+id+"/reorder", body, "alice")
	if rr.Code != 200 {
		t.Fatalf("reorder: got %d (%s)", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp.Content.VenuesInRoute[0].ID != "b" {
		t.Fatalf("reorder did not apply: %+v", resp.Content.VenuesInRoute)
	}

	// Non-permutation is a 422.
	body, _ = json.Marshal(model.EditRequest{VenueIDs: []string{"a"}})
	rr = doJSON(t, s.RouteByIDHandler, http.MethodPost, "/v1/routes/"+id+"/reorder", body, "alice")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad reorder: got %d", rr.Code)
	}

	// Insert.
	body, _ = json.Marshal(model.InsertRequest{VenueID: "c"})
	rr = doJSON(t, s.RouteByIDHandler, http.MethodPost, "/v1/routes/"+id+"/venues", body, "alice")
	if rr.Code != 200 {
		t.Fatalf("insert: got %d (%s)", rr.Code, rr.Body.String())
	}
	resp = decodeResponse(t, rr)
	if len(resp.Content.VenuesInRoute) != 3 || resp.Content.VenuesInRoute[2].ID != "c" {
		t.Fatalf("insert did not append: %+v", resp.Content.VenuesInRoute)
	}

	// Remove.
	rr = doJSON(t, s.RouteByIDHandler, http.MethodDelete, "/v1/routes/"+id+"/venues/a", nil, "alice")
	if rr.Code != 200 {
		t.Fatalf("remove: got %d (%s)", rr.Code, rr.Body.String())
	}
	resp = decodeResponse(t, rr)
	if len(resp.Content.VenuesInRoute) != 2 {
		t.Fatalf("remove did not apply: %+v", resp.Content.VenuesInRoute)
	}

	// Version climbed with each edit.
	rr = doJSON(t, s.RouteByIDHandler, http.MethodGet, "/v1/routes/"+id, nil, "alice")
	var route model.Route
	if err := json.Unmarshal(rr.Body.Bytes(), &route); err != nil {
		t.Fatalf("decode route: %v", err)
	}
	if route.Version != 4 {
		t.Fatalf("want version 4 after three edits, got %d", route.Version)
	}
}

func TestReorderCycleRestoresGeometry(t *testing.T) {
	s := newTestServer(t)
	seedVenue(t, s, "v1", 0.001)
	seedVenue(t, s, "v2", 0.003)
	seedVenue(t, s, "v3", 0.005)

	body, _ := json.Marshal(model.SaveRequest{Name: "cycle", VenuesInRoute: []string{"v1", "v2", "v3"}})
	rr := doJSON(t, s.RoutesIndexHandler, http.MethodPost, "/v1/routes", body, "alice")
	if rr.Code != http.StatusCreated {
		t.Fatalf("save: got %d (%s)", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	id := resp.Content.RouteID
	original := resp.Content.RouteGeometry
	if original == "" {
		t.Fatal("saved route has no geometry")
	}

	reorder := func(order []string) model.RouteResponse {
		b, _ := json.Marshal(model.EditRequest{VenueIDs: order})
		rr := doJSON(t, s.RouteByIDHandler, http.MethodPost, "/v1/routes/"+id+"/reorder", b, "alice")
		if rr.Code != 200 {
			t.Fatalf("reorder %v: got %d (%s)", order, rr.Code, rr.Body.String())
		}
		return decodeResponse(t, rr)
	}

	if got := reorder([]string{"v3", "v1", "v2"}).Content.RouteGeometry; got == original {
		t.Fatal("shuffled order should change the geometry")
	}
	if got := reorder([]string{"v1", "v2", "v3"}).Content.RouteGeometry; got != original {
		t.Fatalf("cycle did not restore geometry:\n got %q\nwant %q", got, original)
	}
}

func TestShareGrantsRead(t *testing.T) {
	s := newTestServer(t)
	seedVenue(t, s, "a", 0.001)

	body, _ := json.Marshal(model.SaveRequest{Name: "shared", VenuesInRoute: []string{"a"}})
	rr := doJSON(t, s.RoutesIndexHandler, http.MethodPost, "/v1/routes", body, "alice")
	id := decodeResponse(t, rr).Content.RouteID

	body, _ = json.Marshal(model.ShareRequest{RecipientID: "bob"})
	rr = doJSON(t, s.RouteByIDHandler, http.MethodPost, "/v1/routes/"+id+"/share", body, "alice")
	if rr.Code != 200 {
		t.Fatalf("share: got %d (%s)", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, s.RouteByIDHandler, http.MethodGet, "/v1/routes/"+id, nil, "bob")
	if rr.Code != 200 {
		t.Fatalf("recipient get: got %d", rr.Code)
	}
	rr = doJSON(t, s.RoutesIndexHandler, http.MethodGet, "/v1/routes?sharedWith=me", nil, "bob")
	if rr.Code != 200 {
		t.Fatalf("sharedWith listing: got %d", rr.Code)
	}
	var listing struct {
		Routes []model.Route `json:"routes"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(listing.Routes) != 1 {
		t.Fatalf("recipient should see one route, got %d", len(listing.Routes))
	}

	// Recipients cannot edit.
	body, _ = json.Marshal(model.EditRequest{VenueIDs: []string{"a"}})
	rr = doJSON(t, s.RouteByIDHandler, http.MethodPost, "/v1/routes/"+id+"/reorder", body, "bob")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("recipient reorder: got %d", rr.Code)
	}
}

func TestVenuesUpsertAndGet(t *testing.T) {
	s := newTestServer(t)
	v := model.Venue{
		ID:       "v1",
		Name:     "corner cafe",
		Location: geo.Point{Lon: -73.56, Lat: 45.5},
		Rating:   4.5,
		Hours:    schedule.Daily(9*60, 17*60),
	}
	b, _ := json.Marshal(v)
	rr := doJSON(t, s.VenuesHandler, http.MethodPut, "/v1/venues", b, "")
	if rr.Code != 200 {
		t.Fatalf("upsert: got %d (%s)", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, s.VenuesHandler, http.MethodGet, "/v1/venues/v1", nil, "")
	if rr.Code != 200 {
		t.Fatalf("get venue: got %d", rr.Code)
	}
	var got model.Venue
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode venue: %v", err)
	}
	if got.Name != "corner cafe" {
		t.Fatalf("unexpected venue: %+v", got)
	}

	rr = doJSON(t, s.VenuesHandler, http.MethodGet, "/v1/venues/ghost", nil, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing venue: got %d", rr.Code)
	}

	// Malformed hours are rejected.
	v.Hours[1] = &schedule.Interval{OpenMin: 600, CloseMin: 300}
	b, _ = json.Marshal(v)
	rr = doJSON(t, s.VenuesHandler, http.MethodPut, "/v1/venues", b, "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad hours: got %d", rr.Code)
	}
}
