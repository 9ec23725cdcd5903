package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"climas_backend/platform/logger"
	"climas_backend/platform/phone"
)

type gatewayConfig struct {
	url string
}

func (g gatewayConfig) GetWhatsAppURL() string      { return g.url }
func (g gatewayConfig) GetWhatsAppUsername() string { return "climas" }
func (g gatewayConfig) GetWhatsAppPassword() string { return "secret" }
func (g gatewayConfig) IsWhatsAppEnabled() bool     { return g.url != "" }

func TestSendMessagePostsNormalizedNumber(t *testing.T) {
	var got gowaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/send/message" {
			t.Errorf("path = %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "climas" || pass != "secret" {
			t.Errorf("basic auth = %s/%s", user, pass)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(gatewayConfig{url: srv.URL + "/"}, phone.NewNormalizer("MX"), logger.Discard())
	if err := c.SendMessage(context.Background(), "55 1234 5678", "Hola"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if got.Phone != "525512345678" || got.Message != "Hola" {
		t.Fatalf("payload = %+v", got)
	}
}

func TestSendMessageOpensCircuitAfterFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "device offline", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(gatewayConfig{url: srv.URL}, phone.NewNormalizer("MX"), logger.Discard())
	for i := 0; i < 3; i++ {
		if err := c.SendMessage(context.Background(), "+525512345678", "x"); err == nil {
			t.Fatal("expected gateway error")
		}
	}
	err := c.SendMessage(context.Background(), "+525512345678", "x")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("gateway called %d times", calls.Load())
	}
}

func TestSendMessageRejectsInvalidNumber(t *testing.T) {
	c := NewClient(gatewayConfig{url: "http://127.0.0.1:1"}, phone.NewNormalizer("MX"), logger.Discard())
	if err := c.SendMessage(context.Background(), "123", "x"); !errors.Is(err, phone.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestNilClientDropsMessages(t *testing.T) {
	c := NewClient(gatewayConfig{}, phone.NewNormalizer("MX"), logger.Discard())
	if c != nil {
		t.Fatal("expected nil client without a gateway url")
	}
	if err := c.SendMessage(context.Background(), "+525512345678", "x"); err != nil {
		t.Fatal(err)
	}
}
