// Package main runs a demo WebSocket client for route events: it seeds a
// venue, saves a one-stop route, subscribes to its event feed, then
// triggers an edit and prints what arrives.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	post := func(path string, body []byte) *http.Response {
		req, _ := http.NewRequest(http.MethodPost, base+path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-User-Id", "u_demo")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			log.Fatal(err)
		}
		return resp
	}

	// Seed a venue
	venue := []byte(`{"id":"demo-cafe","name":"Demo Cafe","location":{"lon":-73.567,"lat":45.5017},
		"rating":4.5,"hours":[{"openMin":0,"closeMin":1440},{"openMin":0,"closeMin":1440},{"openMin":0,"closeMin":1440},
		{"openMin":0,"closeMin":1440},{"openMin":0,"closeMin":1440},{"openMin":0,"closeMin":1440},{"openMin":0,"closeMin":1440}]}`)
	req, _ := http.NewRequest(http.MethodPut, base+"/v1/venues", bytes.NewReader(venue))
	req.Header.Set("Content-Type", "application/json")
	if _, err := http.DefaultClient.Do(req); err != nil {
		log.Fatal(err)
	}

	// Save a route
	resp := post("/v1/routes", []byte(`{"name":"demo","venuesInRoute":["demo-cafe"]}`))
	defer func() { _ = resp.Body.Close() }()
	var saved struct {
		Content struct {
			RouteID string `json:"routeId"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&saved); err != nil {
		log.Fatal(err)
	}
	if saved.Content.RouteID == "" {
		log.Fatal("no route id returned")
	}
	routeID := saved.Content.RouteID
	log.Printf("Route ID: %s", routeID)

	// Connect WS
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/routes/" + routeID + "/events/ws"}
	hdr := http.Header{}
	hdr.Set("X-User-Id", "u_demo")
	c, _, err := websocket.DefaultDialer.Dial(u.String(), hdr)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var evt struct {
				Type string         `json:"type"`
				Data map[string]any `json:"data"`
			}
			if err := c.ReadJSON(&evt); err != nil {
				log.Printf("read: %v", err)
				return
			}
			log.Printf("WS <- %s: %v", evt.Type, evt.Data)
		}
	}()

	// Trigger a route event via reorder
	time.Sleep(500 * time.Millisecond)
	r2 := post("/v1/routes/"+routeID+"/reorder", []byte(`{"venueIds":["demo-cafe"]}`))
	_ = r2.Body.Close()

	// Wait briefly to receive a few messages
	select {
	case <-time.After(2 * time.Second):
	case <-done:
	}
}
