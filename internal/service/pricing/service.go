package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BuyingPriceKey is the single key under which the last used purchase price is kept.
const BuyingPriceKey = "buyingPrice"

// ErrKeyNotFound is returned by a Store when the key has never been written.
var ErrKeyNotFound = errors.New("key not found")

// ErrInvalidPrice indicates a negative or zero price was offered as the new default.
var ErrInvalidPrice = errors.New("buying price must be positive")

// Store is a string key-value store with last-writer-wins semantics.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Service exposes the sticky purchase price carried across bill-entry sessions.
type Service struct {
	store    Store
	fallback decimal.Decimal
	logger   *zap.Logger
}

// NewService wires a pricing service. fallback is returned while nothing valid is stored.
func NewService(store Store, fallback decimal.Decimal, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, fallback: fallback, logger: logger}
}

// LastPrice returns the last remembered buying price, or the fallback.
func (s *Service) LastPrice(ctx context.Context) decimal.Decimal {
	raw, err := s.store.Get(ctx, BuyingPriceKey)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			s.logger.Warn("read buying price failed, using fallback", zap.Error(err))
		}
		return s.fallback
	}

	price, err := decimal.NewFromString(raw)
	if err != nil || !price.IsPositive() {
		s.logger.Warn("stored buying price unusable, using fallback", zap.String("value", raw))
		return s.fallback
	}
	return price
}

// Remember stores price as the new default.
func (s *Service) Remember(ctx context.Context, price decimal.Decimal) error {
	if !price.IsPositive() {
		return ErrInvalidPrice
	}
	if err := s.store.Set(ctx, BuyingPriceKey, price.String()); err != nil {
		return fmt.Errorf("store buying price: %w", err)
	}
	s.logger.Debug("buying price remembered", zap.String("price", price.String()))
	return nil
}
