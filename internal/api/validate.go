package api

import (
	"fmt"

	"venuetour/internal/model"
)

// Request-shape checks the handlers run before handing work to the
// domain layers. Semantic validation (anchor, budgets, criteria shape)
// lives in the planner.

func validateSaveRequest(req *model.SaveRequest) error {
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(req.VenuesInRoute) == 0 {
		return fmt.Errorf("venuesInRoute must not be empty")
	}
	seen := map[string]struct{}{}
	for _, id := range req.VenuesInRoute {
		if id == "" {
			return fmt.Errorf("venuesInRoute contains an empty id")
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("venuesInRoute contains %s twice", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func validateShareRequest(req *model.ShareRequest) error {
	if req.RecipientID == "" {
		return fmt.Errorf("recipientId is required")
	}
	return nil
}

func validateVenue(v *model.Venue) error {
	if v.ID == "" {
		return fmt.Errorf("id is required")
	}
	if v.Name == "" {
		return fmt.Errorf("name is required")
	}
	if v.Location.Lat < -90 || v.Location.Lat > 90 || v.Location.Lon < -180 || v.Location.Lon > 180 {
		return fmt.Errorf("location out of range: lon %v lat %v", v.Location.Lon, v.Location.Lat)
	}
	if v.Rating < 0 || v.Rating > 5 {
		return fmt.Errorf("rating must be within [0,5]")
	}
	if err := v.Hours.Validate(); err != nil {
		return fmt.Errorf("hours: %w", err)
	}
	return nil
}
