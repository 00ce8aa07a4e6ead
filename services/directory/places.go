package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"callpilot/models"
	"callpilot/utils"
)

// PlacesDirectory discovers real providers through the Google Places API.
// Results carry no openings, so availability still comes from negotiation
// with the provider.
type PlacesDirectory struct {
	apiKey     string
	maxResults int
	baseURL    string
}

// NewPlacesDirectory returns a directory backed by Google Places.
func NewPlacesDirectory(apiKey string) *PlacesDirectory {
	return &PlacesDirectory{
		apiKey:     apiKey,
		maxResults: 10,
		baseURL:    "https://maps.googleapis.com",
	}
}

type geocodeResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

type nearbySearchResponse struct {
	Results []struct {
		PlaceID  string  `json:"place_id"`
		Name     string  `json:"name"`
		Vicinity string  `json:"vicinity"`
		Rating   float64 `json:"rating"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

type placeDetailsResponse struct {
	Result struct {
		Name             string  `json:"name"`
		FormattedAddress string  `json:"formatted_address"`
		Rating           float64 `json:"rating"`
		FormattedPhone   string  `json:"formatted_phone_number"`
		Website          string  `json:"website"`
	} `json:"result"`
}

// Search geocodes the user location, then runs a nearby search for health
// places matching the specialty keyword. Distances are computed from the
// geocoded center.
func (d *PlacesDirectory) Search(ctx context.Context, specialty string, radiusKm float64, location string) ([]models.Provider, error) {
	if d.apiKey == "" {
		return nil, fmt.Errorf("missing Google API key for places directory")
	}

	geocodeURL := fmt.Sprintf(
		"%s/maps/api/geocode/json?address=%s&key=%s",
		d.baseURL, url.QueryEscape(location), d.apiKey,
	)
	var geo geocodeResponse
	if err := d.getJSON(ctx, geocodeURL, &geo); err != nil {
		return nil, fmt.Errorf("geocoding request failed: %w", err)
	}
	if len(geo.Results) == 0 {
		utils.GetLogger().Warn("PlacesDirectory: could not geocode location", zap.String("location", location))
		return []models.Provider{}, nil
	}
	center := geo.Results[0].Geometry.Location

	nearbyURL := fmt.Sprintf(
		"%s/maps/api/place/nearbysearch/json?location=%f,%f&radius=%d&keyword=%s&type=health&key=%s",
		d.baseURL, center.Lat, center.Lng, int(radiusKm*1000), url.QueryEscape(specialty), d.apiKey,
	)
	var nearby nearbySearchResponse
	if err := d.getJSON(ctx, nearbyURL, &nearby); err != nil {
		return nil, fmt.Errorf("places search failed: %w", err)
	}

	results := nearby.Results
	if len(results) > d.maxResults {
		results = results[:d.maxResults]
	}

	providers := make([]models.Provider, 0, len(results))
	for _, place := range results {
		provider := models.Provider{
			ID:         place.PlaceID,
			Name:       place.Name,
			Specialty:  specialty,
			Rating:     place.Rating,
			DistanceKm: haversine(center.Lat, center.Lng, place.Geometry.Location.Lat, place.Geometry.Location.Lng),
			Address:    place.Vicinity,
		}

		// Details carry the fields nearby search omits.
		details, err := d.placeDetails(ctx, place.PlaceID)
		if err != nil {
			utils.GetLogger().Warn("PlacesDirectory: details lookup failed",
				zap.String("placeID", place.PlaceID), zap.Error(err))
		} else {
			if details.Result.FormattedAddress != "" {
				provider.Address = details.Result.FormattedAddress
			}
			provider.Phone = details.Result.FormattedPhone
			provider.Website = details.Result.Website
		}

		providers = append(providers, provider)
	}
	return providers, nil
}

// GetByID resolves a provider through the place details endpoint. Distance is
// unknown without a search center and stays zero.
func (d *PlacesDirectory) GetByID(ctx context.Context, id string) (*models.Provider, error) {
	if d.apiKey == "" {
		return nil, fmt.Errorf("missing Google API key for places directory")
	}
	details, err := d.placeDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	if details.Result.Name == "" {
		return nil, nil
	}
	return &models.Provider{
		ID:      id,
		Name:    details.Result.Name,
		Rating:  details.Result.Rating,
		Address: details.Result.FormattedAddress,
		Phone:   details.Result.FormattedPhone,
		Website: details.Result.Website,
	}, nil
}

func (d *PlacesDirectory) placeDetails(ctx context.Context, placeID string) (*placeDetailsResponse, error) {
	detailsURL := fmt.Sprintf(
		"%s/maps/api/place/details/json?place_id=%s&fields=%s&key=%s",
		d.baseURL, url.QueryEscape(placeID),
		url.QueryEscape("name,formatted_address,rating,formatted_phone_number,website"),
		d.apiKey,
	)
	var details placeDetailsResponse
	if err := d.getJSON(ctx, detailsURL, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

func (d *PlacesDirectory) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371
	dLat := (lat2 - lat1) * (math.Pi / 180)
	dLon := (lon2 - lon1) * (math.Pi / 180)
	lat1Rad := lat1 * (math.Pi / 180)
	lat2Rad := lat2 * (math.Pi / 180)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
