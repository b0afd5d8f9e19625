package store

import (
	"context"
	"fmt"
	"time"

	"github.com/fakhrymubarak/weather-history-api/internal/model"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// GormStore keeps history in a SQL table through gorm.
type GormStore struct {
	db *gorm.DB
}

// OpenSQLite opens (and migrates) a SQLite database file. SQLite allows a
// single writer, so the pool is limited to one connection.
func OpenSQLite(dsn string, logger *zap.SugaredLogger) (*GormStore, error) {
	s, err := openGorm(sqlite.Open(dsn), logger)
	if err != nil {
		return nil, err
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	sqlDB.SetMaxOpenConns(1)
	return s, nil
}

// OpenMySQL opens (and migrates) a MySQL database.
func OpenMySQL(dsn string, logger *zap.SugaredLogger) (*GormStore, error) {
	return openGorm(mysql.Open(dsn), logger)
}

func openGorm(dialector gorm.Dialector, logger *zap.SugaredLogger) (*GormStore, error) {
	db, err := gorm.Open(dialector, &gorm.Config{Logger: newGormLogger(logger)})
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s database: %v", ErrStore, dialector.Name(), err)
	}
	if err := db.AutoMigrate(&model.WeatherRecord{}); err != nil {
		return nil, fmt.Errorf("%w: migrating %s database: %v", ErrStore, dialector.Name(), err)
	}
	return &GormStore{db: db}, nil
}

// newGormLogger routes gorm's warnings (slow queries, errors) through zap.
func newGormLogger(logger *zap.SugaredLogger) gormlogger.Interface {
	if logger == nil {
		return gormlogger.Discard
	}
	return gormlogger.New(
		zap.NewStdLog(logger.Desugar().Named("gorm")),
		gormlogger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)
}

func (s *GormStore) Insert(ctx context.Context, record *model.WeatherRecord) (uint, error) {
	row := *record
	row.ID = 0
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("%w: inserting record: %v", ErrStore, err)
	}
	record.ID = row.ID
	record.CreatedAt = row.CreatedAt
	return row.ID, nil
}

func (s *GormStore) ListAll(ctx context.Context, order Order) ([]model.WeatherRecord, error) {
	records := make([]model.WeatherRecord, 0)
	if err := s.db.WithContext(ctx).Order(order.String()).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("%w: listing records: %v", ErrStore, err)
	}
	return records, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
