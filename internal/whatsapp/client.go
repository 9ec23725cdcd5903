package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"climas_backend/platform/config"
	"climas_backend/platform/logger"

	"github.com/sony/gobreaker"
)

// ErrUnavailable is returned while the circuit to the gateway is open.
var ErrUnavailable = errors.New("whatsapp gateway unavailable")

// PhoneNormalizer formats numbers to E.164.
type PhoneNormalizer interface {
	E164(input string) (string, error)
}

// Client sends text messages through a GOWA gateway.
type Client struct {
	baseURL  string
	username string
	password string
	phones   PhoneNormalizer
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
	log      *logger.Logger
}

type gowaRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// NewClient returns nil when no gateway is configured; a nil client drops messages.
func NewClient(cfg config.WhatsAppConfig, phones PhoneNormalizer, log *logger.Logger) *Client {
	if !cfg.IsWhatsAppEnabled() {
		return nil
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.GetWhatsAppURL(), "/"),
		username: cfg.GetWhatsAppUsername(),
		password: cfg.GetWhatsAppPassword(),
		phones:   phones,
		http:     &http.Client{Timeout: 10 * time.Second},
		breaker:  newBreaker("whatsapp"),
		log:      log,
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
}

func (c *Client) SendMessage(ctx context.Context, phoneNumber string, message string) error {
	if c == nil {
		return nil
	}

	normalized, err := c.phones.E164(phoneNumber)
	if err != nil {
		return fmt.Errorf("whatsapp recipient %q: %w", phoneNumber, err)
	}
	if normalized == "" {
		return errors.New("whatsapp recipient is empty")
	}
	normalized = strings.TrimPrefix(normalized, "+")

	_, err = c.breaker.Execute(func() (any, error) {
		return nil, c.post(ctx, gowaRequest{Phone: normalized, Message: message})
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err != nil {
		return err
	}

	c.log.WithContext(ctx).Info("whatsapp sent via gowa", "phone", normalized)
	return nil
}

func (c *Client) post(ctx context.Context, payload gowaRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	url := fmt.Sprintf("%s/send/message", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("whatsapp service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return nil
}
