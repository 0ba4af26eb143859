package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Brosquire/nodemaster/config"
	"github.com/Brosquire/nodemaster/errs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Mailer delivers transactional email (password reset links).
type Mailer interface {
	Send(ctx context.Context, to, subject, text string) error
}

// ResendMailer sends email through the Resend HTTP API.
type ResendMailer struct {
	baseURL string
	apiKey  string
	from    string
	client  *http.Client
	logger  zerolog.Logger
}

func NewResendMailer(cfg *config.Config) *ResendMailer {
	return &ResendMailer{
		baseURL: cfg.EmailBaseURL,
		apiKey:  cfg.EmailAPIKey,
		from:    cfg.FromEmail,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  log.With().Str("service", "mailer").Logger(),
	}
}

type resendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

func (m *ResendMailer) Send(ctx context.Context, to, subject, text string) error {
	payload := resendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		Text:    text,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errs.NewUpstreamError("email", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return errs.NewUpstreamError("email", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		m.logger.Error().Err(err).Msg("email request failed")
		return errs.NewUpstreamError("email", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		m.logger.Error().Int("status", resp.StatusCode).Msg("email provider returned non-2xx status")
		return errs.NewUpstreamError("email", fmt.Errorf("status %d", resp.StatusCode))
	}

	m.logger.Info().Str("to", to).Str("subject", subject).Msg("email sent")
	return nil
}
