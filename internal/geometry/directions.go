package geometry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"venuetour/internal/geo"
)

// OSRM asks an OSRM-compatible routing server for leg paths. The route
// endpoint returns its overview geometry as an encoded polyline, which
// decodes straight into leg points.
type OSRM struct {
	baseURL string
	profile string
	client  *http.Client
}

func NewOSRM(baseURL string, timeout time.Duration) *OSRM {
	return &OSRM{
		baseURL: baseURL,
		profile: "foot",
		client:  &http.Client{Timeout: timeout},
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Geometry string `json:"geometry"`
	} `json:"routes"`
}

func (o *OSRM) Leg(ctx context.Context, from, to geo.Point) ([]geo.Point, error) {
	url := fmt.Sprintf("%s/route/v1/%s/%f,%f;%f,%f?overview=full&geometries=polyline",
		o.baseURL, o.profile, from.Lon, from.Lat, to.Lon, to.Lat)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directions: status %d", resp.StatusCode)
	}
	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		return nil, fmt.Errorf("directions: no route (%s)", body.Code)
	}
	pts := geo.DecodePolyline(body.Routes[0].Geometry)
	if len(pts) < 2 {
		return nil, fmt.Errorf("directions: degenerate geometry")
	}
	return pts, nil
}
