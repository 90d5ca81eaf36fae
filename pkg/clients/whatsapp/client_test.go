package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sumalatex/suma/internal/config"
	"github.com/sumalatex/suma/internal/domain/models"
)

func testConfig(baseURL string) config.WhatsAppConfig {
	return config.WhatsAppConfig{BaseURL: baseURL + "/", APIVersion: "v20.0", AccessToken: "secret", PhoneNumberID: "12345"}
}

func TestSendText(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v20.0/12345/messages" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("Unexpected authorization %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("Failed to decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"messaging_product":"whatsapp","messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), nil)

	id, err := client.SendText(context.Background(), models.OutboundMessageRequest{To: "+66 81-234-5678", Message: " สรุปประจำวัน "})
	if err != nil {
		t.Fatalf("Expected message to be sent, got %v", err)
	}
	if id != "wamid.1" {
		t.Errorf("Expected message id wamid.1, got %q", id)
	}
	if body["to"] != "66812345678" || body["type"] != "text" || body["recipient_type"] != "individual" {
		t.Errorf("Unexpected payload %v", body)
	}
	text, _ := body["text"].(map[string]any)
	if text["body"] != "สรุปประจำวัน" {
		t.Errorf("Expected trimmed body, got %v", text["body"])
	}
}

func TestSendText_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Invalid parameter","code":100,"fbtrace_id":"AbC"}}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), nil)

	_, err := client.SendText(context.Background(), models.OutboundMessageRequest{To: "66812345678", Message: "hi"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Code != 100 || apiErr.TraceID != "AbC" {
		t.Errorf("Unexpected error details %+v", apiErr)
	}
	if !strings.Contains(err.Error(), "code=100") || !strings.Contains(err.Error(), "Invalid parameter") {
		t.Errorf("Expected Meta error details in message, got %v", err)
	}
}

func TestSendText_InvalidMessage(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), nil)

	tests := []struct {
		name string
		msg  models.OutboundMessageRequest
	}{
		{"no recipient", models.OutboundMessageRequest{Message: "hi"}},
		{"recipient with letters", models.OutboundMessageRequest{To: "owner", Message: "hi"}},
		{"plus sign inside number", models.OutboundMessageRequest{To: "66+81", Message: "hi"}},
		{"blank body", models.OutboundMessageRequest{To: "66812345678", Message: "  "}},
		{"body too long", models.OutboundMessageRequest{To: "66812345678", Message: strings.Repeat("ก", MaxBodyLength+1)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := client.SendText(context.Background(), tc.msg); !errors.Is(err, ErrInvalidMessage) {
				t.Errorf("Expected ErrInvalidMessage, got %v", err)
			}
		})
	}
	if calls != 0 {
		t.Errorf("Expected no requests for invalid messages, got %d", calls)
	}
}
