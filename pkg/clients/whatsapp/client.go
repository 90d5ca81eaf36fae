package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/sumalatex/suma/internal/config"
	"github.com/sumalatex/suma/internal/domain/models"
)

// MaxBodyLength is the Cloud API limit for a text body, in characters.
const MaxBodyLength = 4096

// ErrInvalidMessage is returned before any request is made when a message cannot be sent.
var ErrInvalidMessage = errors.New("invalid whatsapp message")

// Sender delivers text messages.
type Sender interface {
	SendText(ctx context.Context, msg models.OutboundMessageRequest) (string, error)
}

// APIError is a rejection reported by the Cloud API. Code is Meta's error code when
// the body carries one, otherwise the HTTP status.
type APIError struct {
	Status  int
	Code    int
	Message string
	TraceID string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp api error: code=%d, message=%s", e.Code, e.Message)
}

// CloudClient sends messages from one business phone number.
type CloudClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient builds a client for the configured phone number.
func NewClient(cfg config.WhatsAppConfig, logger *zap.Logger) *CloudClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	restyClient := resty.New().
		SetBaseURL(fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(cfg.BaseURL, "/"), cfg.APIVersion, cfg.PhoneNumberID)).
		SetAuthToken(cfg.AccessToken).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	return &CloudClient{httpClient: restyClient, logger: logger}
}

type textBody struct {
	Body       string `json:"body"`
	PreviewURL bool   `json:"preview_url"`
}

type textMessage struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type errorEnvelope struct {
	Error struct {
		Message   string `json:"message"`
		Code      int    `json:"code"`
		FBTraceID string `json:"fbtrace_id"`
	} `json:"error"`
}

// SendText sends msg and returns the message id assigned by Meta.
func (c *CloudClient) SendText(ctx context.Context, msg models.OutboundMessageRequest) (string, error) {
	to := normalizeRecipient(msg.To)
	if to == "" {
		return "", fmt.Errorf("%w: recipient %q is not a phone number", ErrInvalidMessage, msg.To)
	}
	body := strings.TrimSpace(msg.Message)
	if body == "" {
		return "", fmt.Errorf("%w: empty body", ErrInvalidMessage)
	}
	if n := utf8.RuneCountInString(body); n > MaxBodyLength {
		return "", fmt.Errorf("%w: body has %d characters, limit is %d", ErrInvalidMessage, n, MaxBodyLength)
	}

	result := new(sendResponse)
	envelope := new(errorEnvelope)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(textMessage{
			MessagingProduct: "whatsapp",
			RecipientType:    "individual",
			To:               to,
			Type:             "text",
			Text:             textBody{Body: body, PreviewURL: msg.PreviewURL},
		}).
		SetResult(result).
		SetError(envelope).
		Post("/messages")
	if err != nil {
		return "", fmt.Errorf("send whatsapp message: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		apiErr := &APIError{
			Status:  resp.StatusCode(),
			Code:    resp.StatusCode(),
			Message: envelope.Error.Message,
			TraceID: envelope.Error.FBTraceID,
		}
		if envelope.Error.Code != 0 {
			apiErr.Code = envelope.Error.Code
		}
		c.logger.Warn("whatsapp rejected message", zap.Int("status", apiErr.Status), zap.String("fbtrace_id", apiErr.TraceID))
		return "", apiErr
	}

	if len(result.Messages) == 0 {
		return "", nil
	}
	return result.Messages[0].ID, nil
}

// normalizeRecipient keeps the digits of an international number, dropping a leading
// plus sign and the spaces or dashes people type. Anything else makes it invalid.
func normalizeRecipient(value string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(value) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0, r == ' ', r == '-':
		default:
			return ""
		}
	}
	return b.String()
}
