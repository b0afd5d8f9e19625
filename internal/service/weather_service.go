package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fakhrymubarak/weather-history-api/internal/metrics"
	"github.com/fakhrymubarak/weather-history-api/internal/model"
	"github.com/fakhrymubarak/weather-history-api/internal/repository"
	"github.com/fakhrymubarak/weather-history-api/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/fakhrymubarak/weather-history-api/internal/service"

// WeatherServiceInterface is the contract the HTTP handlers depend on.
type WeatherServiceInterface interface {
	FetchWeather(ctx context.Context, city string) (*model.WeatherRecord, error)
	ListHistory(ctx context.Context) ([]model.WeatherRecord, error)
}

// WeatherService fetches weather from the upstream API and records every
// successful lookup in the history store.
type WeatherService struct {
	WeatherRepo repository.WeatherRepository
	History     store.HistoryStore

	metrics *metrics.Metrics
	logger  *zap.SugaredLogger
	tracer  trace.Tracer
}

type Option func(*WeatherService)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *WeatherService) { s.metrics = m }
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *WeatherService) { s.logger = l }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *WeatherService) { s.tracer = t }
}

func NewWeatherService(repo repository.WeatherRepository, history store.HistoryStore, opts ...Option) *WeatherService {
	s := &WeatherService{
		WeatherRepo: repo,
		History:     history,
		logger:      zap.NewNop().Sugar(),
		tracer:      otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchWeather looks up the current weather for city, normalizes it and
// persists it. The record is only returned once it has been stored.
func (s *WeatherService) FetchWeather(ctx context.Context, city string) (*model.WeatherRecord, error) {
	ctx, span := s.tracer.Start(ctx, "WeatherService.FetchWeather",
		trace.WithAttributes(attribute.String("weather.city", city)))
	defer span.End()

	raw, err := s.fetchUpstream(ctx, city)
	if err != nil {
		if errors.Is(err, repository.ErrLocationNotFound) {
			s.logger.Infow("City not found upstream", "city", city)
			s.metrics.ObserveLookup(metrics.OutcomeNotFound)
			span.SetStatus(codes.Error, "city not found")
			return nil, &CityNotFoundError{City: city}
		}
		if errors.Is(err, repository.ErrInvalidPayload) {
			s.logger.Errorw("Upstream returned an undecodable weather payload", "city", city, "error", err)
			s.metrics.ObserveLookup(metrics.OutcomeValidationError)
			recordSpanError(span, err)
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		s.logger.Errorw("Failed to fetch weather from upstream", "city", city, "error", err)
		s.metrics.ObserveLookup(metrics.OutcomeUpstreamError)
		recordSpanError(span, err)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	record, err := Normalize(raw)
	if err != nil {
		s.logger.Errorw("Failed to normalize upstream weather payload", "city", city, "error", err)
		s.metrics.ObserveLookup(metrics.OutcomeValidationError)
		recordSpanError(span, err)
		return nil, err
	}

	if err := s.insert(ctx, &record); err != nil {
		s.logger.Errorw("Failed to persist weather record", "city", city, "error", err)
		s.metrics.ObserveLookup(metrics.OutcomeStoreError)
		recordSpanError(span, err)
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	s.logger.Debugw("Weather lookup stored", "city", city, "id", record.ID)
	s.metrics.ObserveLookup(metrics.OutcomeSuccess)
	span.SetAttributes(attribute.Int64("weather.record_id", int64(record.ID)))
	return &record, nil
}

// ListHistory returns every stored record, newest first.
func (s *WeatherService) ListHistory(ctx context.Context) ([]model.WeatherRecord, error) {
	ctx, span := s.tracer.Start(ctx, "WeatherService.ListHistory")
	defer span.End()

	records, err := s.History.ListAll(ctx, store.OrderIDDesc)
	if err != nil {
		s.logger.Errorw("Failed to list weather history", "error", err)
		s.metrics.ObserveHistory(metrics.OutcomeStoreError)
		recordSpanError(span, err)
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	if records == nil {
		records = []model.WeatherRecord{}
	}

	s.metrics.ObserveHistory(metrics.OutcomeSuccess)
	span.SetAttributes(attribute.Int("weather.history_size", len(records)))
	return records, nil
}

func (s *WeatherService) fetchUpstream(ctx context.Context, city string) (*model.OpenWeatherMapResponse, error) {
	ctx, span := s.tracer.Start(ctx, "openweathermap.FetchCurrent", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	start := time.Now()
	raw, err := s.WeatherRepo.FetchCurrent(ctx, city)
	s.metrics.ObserveUpstream(time.Since(start), err)
	return raw, err
}

func (s *WeatherService) insert(ctx context.Context, record *model.WeatherRecord) error {
	ctx, span := s.tracer.Start(ctx, "HistoryStore.Insert")
	defer span.End()

	_, err := s.History.Insert(ctx, record)
	return err
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
