package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sumalatex/suma/internal/domain/models"
	client "github.com/sumalatex/suma/pkg/clients/whatsapp"
)

// ErrNoRecipient indicates the owner number is not configured.
var ErrNoRecipient = errors.New("no whatsapp recipient configured")

// MessagingService delivers messages to the shop owner.
type MessagingService interface {
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
	NotifyOwner(ctx context.Context, message string) error
}

// MetaWhatsAppService implements MessagingService on the WhatsApp Cloud API.
type MetaWhatsAppService struct {
	client  client.Sender
	ownerID string
	timeout time.Duration
	logger  *zap.Logger
}

// NewMetaWhatsAppService wires the messaging service for the given owner number.
func NewMetaWhatsAppService(c client.Sender, ownerID string, logger *zap.Logger) *MetaWhatsAppService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetaWhatsAppService{client: c, ownerID: ownerID, timeout: 10 * time.Second, logger: logger}
}

// SendOutbound sends a text message to an explicit recipient.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	id, err := s.client.SendText(ctxWithTimeout, req)
	if err != nil {
		return fmt.Errorf("send outbound to %s: %w", req.To, err)
	}

	s.logger.Debug("message accepted", zap.String("message_id", id))
	return nil
}

// NotifyOwner sends message to the configured owner number.
func (s *MetaWhatsAppService) NotifyOwner(ctx context.Context, message string) error {
	if s.ownerID == "" {
		return ErrNoRecipient
	}
	return s.SendOutbound(ctx, models.OutboundMessageRequest{To: s.ownerID, Message: message})
}
