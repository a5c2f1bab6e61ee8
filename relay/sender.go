package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	goerrors "github.com/goliatone/go-errors"
	auth "github.com/terraworkdynamics/skenterprises"
)

const (
	defaultTemplate = "payment_confirmation"
	defaultTimeout  = 30 * time.Second

	maxResponseBody = 64 << 10
)

// Config holds the vendor API coordinates. Endpoint and Token come
// from the deployment environment.
type Config struct {
	Endpoint       string
	Token          string
	Template       string
	DefaultCountry string
	Timeout        time.Duration
	HTTPClient     *http.Client
}

func (c Config) template() string {
	if c.Template == "" {
		return defaultTemplate
	}
	return c.Template
}

func (c Config) region() string {
	if c.DefaultCountry == "" {
		return DefaultRegion
	}
	return c.DefaultCountry
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	timeout := c.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// Receipt is the vendor's acknowledgment for one sent message.
type Receipt struct {
	MessageID string `json:"message_id"`
}

// Sender delivers payment confirmations through the vendor API.
type Sender struct {
	config Config
	http   *http.Client
	logger auth.Logger
	now    func() time.Time
}

// SenderOption configures a Sender.
type SenderOption func(*Sender)

// WithLogger sets the logger used for delivery diagnostics.
func WithLogger(logger auth.Logger) SenderOption {
	return func(s *Sender) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithNowFunc overrides the clock used to stamp template dates.
func WithNowFunc(now func() time.Time) SenderOption {
	return func(s *Sender) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSender builds a Sender for the given vendor configuration.
func NewSender(config Config, opts ...SenderOption) *Sender {
	s := &Sender{
		config: config,
		http:   config.httpClient(),
		logger: auth.NewDefaultLogger(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type templateComponent struct {
	Type       string              `json:"type"`
	Parameters []templateParameter `json:"parameters"`
}

type templateParameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type sendRequest struct {
	To         string              `json:"to"`
	Template   string              `json:"template"`
	Language   string              `json:"language"`
	Components []templateComponent `json:"components"`
}

type sendResponse struct {
	MessageID string `json:"message_id"`
	ID        string `json:"id"`
	Error     string `json:"error"`
	Message   string `json:"message"`
}

// Send validates, normalizes and delivers one payment confirmation.
func (s *Sender) Send(ctx context.Context, msg Message) (*Receipt, error) {
	if err := msg.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid relay message").
			WithCode(goerrors.CodeBadRequest)
	}

	phone, err := NormalizePhone(msg.Phone, s.config.region())
	if err != nil {
		return nil, err
	}

	stamp := s.now()
	payload := sendRequest{
		To:       phone,
		Template: s.config.template(),
		Language: "en",
		Components: []templateComponent{{
			Type: "body",
			Parameters: []templateParameter{
				{Type: "text", Text: msg.CustomerName},
				{Type: "text", Text: FormatAmount(msg.Amount)},
				{Type: "text", Text: msg.PaymentMethod},
				{Type: "text", Text: stamp.Format("02-01-2006")},
			},
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "encode relay request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "build relay request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.Token)

	res, err := s.http.Do(req)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "relay request failed")
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBody))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "read relay response")
	}

	parsed := sendResponse{}
	if len(raw) > 0 {
		// Tolerate non JSON vendor responses, the status code decides.
		_ = json.Unmarshal(raw, &parsed)
	}

	if res.StatusCode != http.StatusOK {
		message := parsed.Error
		if message == "" {
			message = parsed.Message
		}
		if message == "" {
			message = fmt.Sprintf("relay rejected message with status %d", res.StatusCode)
		}
		s.logger.Warn("relay delivery failed for %s: %s", phone, message)
		return nil, goerrors.New(message, goerrors.CategoryOperation).
			WithCode(goerrors.CodeInternal).
			WithMetadata(map[string]any{"status_code": res.StatusCode})
	}

	id := parsed.MessageID
	if id == "" {
		id = parsed.ID
	}
	if id == "" {
		id = "sent"
	}

	s.logger.Debug("relay delivered message %s to %s", id, phone)

	return &Receipt{MessageID: id}, nil
}
