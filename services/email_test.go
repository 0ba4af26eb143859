package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brosquire/nodemaster/config"
	"github.com/Brosquire/nodemaster/errs"
)

func TestResendMailer_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body resendEmailRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "noreply@devcamper.io", body.From)
		assert.Equal(t, []string{"john@gmail.com"}, body.To)
		assert.Equal(t, "Password reset token", body.Subject)

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	mailer := NewResendMailer(&config.Config{
		EmailBaseURL: srv.URL,
		EmailAPIKey:  "test-key",
		FromEmail:    "noreply@devcamper.io",
	})

	err := mailer.Send(context.Background(), "john@gmail.com", "Password reset token", "hello")
	require.NoError(t, err)
}

func TestResendMailer_ProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	mailer := NewResendMailer(&config.Config{EmailBaseURL: srv.URL})
	err := mailer.Send(context.Background(), "john@gmail.com", "s", "t")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrUpstream))
}
