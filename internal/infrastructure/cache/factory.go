package cache

import (
	"context"
	"fmt"

	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/erp/purchasing/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewIdempotencyStore builds the payment key store selected by
// purchasing.idempotency_backend. A redis backend that cannot be reached is
// an error; silently falling back would let two instances accept the same
// payment.
func NewIdempotencyStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (shared.IdempotencyStore, error) {
	switch cfg.Purchasing.IdempotencyBackend {
	case "redis":
		store, err := NewRedisIdempotencyStore(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		logger.Info("Using Redis idempotency store", zap.String("addr", cfg.Redis.Addr()))
		return store, nil
	case "memory", "":
		logger.Info("Using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(), nil
	default:
		return nil, fmt.Errorf("unknown idempotency backend %q", cfg.Purchasing.IdempotencyBackend)
	}
}
