package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Brosquire/nodemaster/config"
	"github.com/Brosquire/nodemaster/errs"
	"github.com/Brosquire/nodemaster/models"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Geocoder resolves a free-text address into a structured location.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (models.Location, error)
}

// HTTPGeocoder calls a MapQuest-style geocoding endpoint. Results are
// cached in-process so repeated lookups of the same address (seeding,
// zipcode radius searches) do not hit the provider again.
type HTTPGeocoder struct {
	baseURL string
	apiKey  string
	client  *http.Client
	cache   *cache.Cache
	logger  zerolog.Logger
}

func NewHTTPGeocoder(cfg *config.Config) *HTTPGeocoder {
	return &HTTPGeocoder{
		baseURL: cfg.GeocoderBaseURL,
		apiKey:  cfg.GeocoderAPIKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   cache.New(24*time.Hour, time.Hour),
		logger:  log.With().Str("service", "geocoder").Logger(),
	}
}

// geocodeResponse mirrors the provider's response shape.
type geocodeResponse struct {
	Results []struct {
		Locations []struct {
			Street     string `json:"street"`
			City       string `json:"adminArea5"`
			State      string `json:"adminArea3"`
			Country    string `json:"adminArea1"`
			PostalCode string `json:"postalCode"`
			LatLng     struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"latLng"`
		} `json:"locations"`
	} `json:"results"`
}

// Geocode resolves address through the provider. A provider failure or an
// empty result set is returned as an upstream error; callers treat it as a
// failure of the operation that needed the location.
func (g *HTTPGeocoder) Geocode(ctx context.Context, address string) (models.Location, error) {
	if cached, ok := g.cache.Get(address); ok {
		return cached.(models.Location), nil
	}

	endpoint := fmt.Sprintf("%s/address?key=%s&location=%s&maxResults=1",
		g.baseURL, url.QueryEscape(g.apiKey), url.QueryEscape(address))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.Location{}, errs.NewUpstreamError("geocoder", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Error().Err(err).Msg("geocoding request failed")
		return models.Location{}, errs.NewUpstreamError("geocoder", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.logger.Error().Int("status", resp.StatusCode).Msg("geocoder returned non-200 status")
		return models.Location{}, errs.NewUpstreamError("geocoder", fmt.Errorf("status %d", resp.StatusCode))
	}

	var payload geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.Location{}, errs.NewUpstreamError("geocoder", err)
	}
	if len(payload.Results) == 0 || len(payload.Results[0].Locations) == 0 {
		return models.Location{}, errs.NewUpstreamError("geocoder", fmt.Errorf("no results for address"))
	}

	loc := payload.Results[0].Locations[0]
	location := models.Location{
		Type:             "Point",
		Lng:              loc.LatLng.Lng,
		Lat:              loc.LatLng.Lat,
		FormattedAddress: address,
		Street:           loc.Street,
		City:             loc.City,
		State:            loc.State,
		Zipcode:          loc.PostalCode,
		Country:          loc.Country,
	}

	g.cache.SetDefault(address, location)
	return location, nil
}
