// Package store persists normalized weather lookups and lists them back.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/fakhrymubarak/weather-history-api/internal/config"
	"github.com/fakhrymubarak/weather-history-api/internal/model"
	"github.com/fakhrymubarak/weather-history-api/internal/redis"
	"go.uber.org/zap"
)

var (
	// ErrStore wraps every persistence failure returned by a HistoryStore.
	ErrStore = errors.New("history store error")
	// ErrUnknownDriver is returned by Open for an unsupported store.driver.
	ErrUnknownDriver = errors.New("unknown store driver")
)

// Order selects the id ordering used by ListAll.
type Order int

const (
	OrderIDDesc Order = iota
	OrderIDAsc
)

func (o Order) String() string {
	if o == OrderIDAsc {
		return "id asc"
	}
	return "id desc"
}

// HistoryStore is an append-only log of weather records. Implementations
// assign a unique, monotonically increasing id on Insert and must be safe for
// concurrent use.
type HistoryStore interface {
	Insert(ctx context.Context, record *model.WeatherRecord) (uint, error)
	ListAll(ctx context.Context, order Order) ([]model.WeatherRecord, error)
	Close() error
}

// Open builds the HistoryStore selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig, logger *zap.SugaredLogger) (HistoryStore, error) {
	var (
		st  *GormStore
		err error
	)
	switch cfg.Driver {
	case "", "sqlite":
		st, err = OpenSQLite(cfg.DSN, logger)
	case "mysql":
		st, err = OpenMySQL(cfg.DSN, logger)
	case "redis":
		client, err := redis.NewClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStore, err)
		}
		return NewRedisStore(client), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}
