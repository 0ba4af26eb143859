package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brosquire/nodemaster/config"
	"github.com/Brosquire/nodemaster/errs"
)

const geocodePayload = `{
	"results": [{
		"locations": [{
			"street": "233 Bay State Rd",
			"adminArea5": "Boston",
			"adminArea3": "MA",
			"adminArea1": "US",
			"postalCode": "02215",
			"latLng": {"lat": 42.3496, "lng": -71.1003}
		}]
	}]
}`

func newGeocoderAgainst(srv *httptest.Server) *HTTPGeocoder {
	return NewHTTPGeocoder(&config.Config{
		GeocoderBaseURL: srv.URL,
		GeocoderAPIKey:  "test-key",
	})
}

func TestHTTPGeocoder_Geocode(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "233 Bay State Rd Boston MA 02215", r.URL.Query().Get("location"))
		w.Write([]byte(geocodePayload))
	}))
	defer srv.Close()

	geo := newGeocoderAgainst(srv)
	loc, err := geo.Geocode(context.Background(), "233 Bay State Rd Boston MA 02215")
	require.NoError(t, err)

	assert.Equal(t, "Point", loc.Type)
	assert.Equal(t, 42.3496, loc.Lat)
	assert.Equal(t, -71.1003, loc.Lng)
	assert.Equal(t, "Boston", loc.City)
	assert.Equal(t, "MA", loc.State)
	assert.Equal(t, "02215", loc.Zipcode)
	assert.Equal(t, "US", loc.Country)

	// a repeated lookup is served from cache
	_, err = geo.Geocode(context.Background(), "233 Bay State Rd Boston MA 02215")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestHTTPGeocoder_EmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	_, err := newGeocoderAgainst(srv).Geocode(context.Background(), "nowhere")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrUpstream))
}

func TestHTTPGeocoder_ProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newGeocoderAgainst(srv).Geocode(context.Background(), "anywhere")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrUpstream))

	var apiErr *errs.ApiErr
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
}
