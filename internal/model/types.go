// Package model holds the domain types shared across the engine: venues,
// route options, built routes, and the API request/response payloads.
package model

import (
	"time"

	"venuetour/internal/geo"
	"venuetour/internal/schedule"
)

// Venue is a read-only catalog record. The engine never mutates venues;
// routes reference them by id and keep coordinate/name snapshots.
type Venue struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Location geo.Point     `json:"location"`
	Category string        `json:"category,omitempty"`
	Tags     []string      `json:"tags,omitempty"`
	Menu     []MenuItem    `json:"menu,omitempty"`
	Rating   float64       `json:"rating,omitempty"`
	Hours    schedule.Week `json:"hours"`
}

// HasTag reports whether the venue carries the tag.
func (v Venue) HasTag(tag string) bool {
	for _, t := range v.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

type MenuItem struct {
	Name       string `json:"name"`
	PriceCents int    `json:"priceCents"`
	Category   string `json:"category,omitempty"`
	Special    bool   `json:"special,omitempty"`
}

// Criterion is one independent venue filter. Exactly one field is set.
type Criterion struct {
	Tag       string             `json:"tag,omitempty"`
	MenuItem  *MenuItemCriterion `json:"menuItem,omitempty"`
	MinRating *float64           `json:"minRating,omitempty"`
}

// MenuItemCriterion matches venues offering an item with the given
// properties. Zero-valued fields are wildcards; set fields must all hold
// for a single item.
type MenuItemCriterion struct {
	Name          string `json:"name,omitempty"`
	MaxPriceCents int    `json:"maxPrice,omitempty"`
	Special       *bool  `json:"isSpecial,omitempty"`
	Category      string `json:"kind,omitempty"`
}

// Anchor selects where the search radius and route ordering originate:
// an explicit point, or the centroid of a required-venue set. The two
// modes are mutually exclusive.
type Anchor struct {
	SearchCenter     *[2]float64 `json:"searchCenter,omitempty"` // [lon, lat]
	RequiredVenueIDs []string    `json:"requiredVenueIds,omitempty"`
}

// RouteOptions are the constraints a generation request runs under.
type RouteOptions struct {
	StartTime    *time.Time  `json:"startTime,omitempty"` // defaults to now
	MaxTourHours float64     `json:"maxTourTime"`
	Anchor       Anchor      `json:"anchor"`
	RadiusM      float64     `json:"radius"`
	MinVenues    int         `json:"minVenues"`
	MaxVenues    int         `json:"maxVenues"`
	VenueMinutes int         `json:"timeAtVenue"`
	Criteria     []Criterion `json:"venueCriteria,omitempty"`
}

// Route lifecycle states.
const (
	StateDraft = "draft"
	StateSaved = "saved"
)

// Stop is one position in a built route: a venue snapshot plus its
// assigned visit instant.
type Stop struct {
	VenueID string    `json:"venueId"`
	Name    string    `json:"name"`
	Lat     float64   `json:"lat"`
	Lon     float64   `json:"lon"`
	ETA     time.Time `json:"eta"`
}

// Route owns its ordered stop list and geometry. Draft routes exist only
// inside a generation response; Saved routes are persisted and edited in
// place under the same identity.
type Route struct {
	ID         string    `json:"id,omitempty"`
	Name       string    `json:"name,omitempty"`
	OwnerID    string    `json:"ownerId,omitempty"`
	Stops      []Stop    `json:"stops"`
	Geometry   string    `json:"routeGeometry"`
	State      string    `json:"state"`
	SharedWith []string  `json:"sharedWith,omitempty"`
	Version    int       `json:"version,omitempty"`
	CreatedAt  time.Time `json:"createdAt,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt,omitempty"`
}

// VenueIDs returns the ordered venue ids of the route's stops.
func (r Route) VenueIDs() []string {
	out := make([]string, len(r.Stops))
	for i, s := range r.Stops {
		out[i] = s.VenueID
	}
	return out
}

// --- API payloads -----------------------------------------------------------

// VenueSummary is the per-stop view returned in route responses.
type VenueSummary struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Category       string  `json:"category,omitempty"`
	Rating         float64 `json:"rating,omitempty"`
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	PlannedArrival string  `json:"plannedArrival"`
}

// RouteContent is the success half of a route response.
type RouteContent struct {
	RouteID       string         `json:"routeId,omitempty"`
	VenuesInRoute []VenueSummary `json:"venuesInRoute"`
	RouteGeometry string         `json:"routeGeometry"`
}

// RouteResponse carries exactly one of Errors or Content.
type RouteResponse struct {
	Errors  []string      `json:"errors,omitempty"`
	Content *RouteContent `json:"content,omitempty"`
}

// EditRequest re-orders an existing route. Optional fields override the
// defaults used for visit-time assignment (start now, configured dwell).
type EditRequest struct {
	VenueIDs     []string   `json:"venueIds"`
	StartTime    *time.Time `json:"startTime,omitempty"`
	MaxTourHours float64    `json:"maxTourTime,omitempty"`
	VenueMinutes int        `json:"timeAtVenue,omitempty"`
}

// InsertRequest adds a venue to an existing route.
type InsertRequest struct {
	VenueID      string     `json:"venueId"`
	StartTime    *time.Time `json:"startTime,omitempty"`
	MaxTourHours float64    `json:"maxTourTime,omitempty"`
	VenueMinutes int        `json:"timeAtVenue,omitempty"`
}

// SaveRequest persists a draft route.
type SaveRequest struct {
	Name          string   `json:"name"`
	VenuesInRoute []string `json:"venuesInRoute"`
	RouteGeometry string   `json:"routeGeometry"`
}

// ShareRequest grants a recipient read access to a saved route.
type ShareRequest struct {
	RecipientID string `json:"recipientId"`
}
