package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/fakhrymubarak/weather-history-api/internal/metrics"
	"github.com/fakhrymubarak/weather-history-api/internal/model"
	"github.com/fakhrymubarak/weather-history-api/internal/repository"
	"github.com/fakhrymubarak/weather-history-api/internal/store"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const biguacuPayload = `{"name":"Biguaçu","main":{"temp":24.5,"humidity":88},"weather":[{"description":"céu limpo"}]}`

// Mock repository for testing
type mockWeatherRepository struct {
	t        *testing.T
	err      error
	body     string
	mu       sync.Mutex
	lastCity string
}

func (m *mockWeatherRepository) FetchCurrent(ctx context.Context, city string) (*model.OpenWeatherMapResponse, error) {
	m.mu.Lock()
	m.lastCity = city
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return rawFrom(m.t, m.body), nil
}

var _ repository.WeatherRepository = (*mockWeatherRepository)(nil)

// memoryHistory is an in-memory HistoryStore used to observe inserts.
type memoryHistory struct {
	mu        sync.Mutex
	records   []model.WeatherRecord
	nextID    uint
	insertErr error
	listErr   error
}

func (m *memoryHistory) Insert(ctx context.Context, r *model.WeatherRecord) (uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	m.nextID++
	r.ID = m.nextID
	m.records = append(m.records, *r)
	return r.ID, nil
}

func (m *memoryHistory) ListAll(ctx context.Context, order store.Order) ([]model.WeatherRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]model.WeatherRecord, 0, len(m.records))
	if order == store.OrderIDAsc {
		return append(out, m.records...), nil
	}
	for i := len(m.records) - 1; i >= 0; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

func (m *memoryHistory) Close() error { return nil }

func (m *memoryHistory) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

var _ store.HistoryStore = (*memoryHistory)(nil)

func TestWeatherService_FetchWeather_Success(t *testing.T) {
	repo := &mockWeatherRepository{t: t, body: biguacuPayload}
	history := &memoryHistory{}
	m := metrics.New()
	svc := NewWeatherService(repo, history, WithMetrics(m))

	record, err := svc.FetchWeather(context.Background(), "Biguacu")
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, "Biguacu", repo.lastCity)
	assert.Equal(t, "Biguaçu", record.City)
	assert.InDelta(t, 24.5, record.Temperature, 0.0001)
	assert.Equal(t, "céu limpo", record.Description)
	assert.Equal(t, 88, record.Humidity)
	assert.Equal(t, uint(1), record.ID)
	assert.Equal(t, 1, history.count())

	assert.Equal(t, 1, testutil.CollectAndCount(m.Registry(), "weather_lookups_total"))
}

func TestWeatherService_FetchWeather_VisibleAsNewestHistoryEntry(t *testing.T) {
	repo := &mockWeatherRepository{t: t}
	history := &memoryHistory{}
	svc := NewWeatherService(repo, history)
	ctx := context.Background()

	for _, body := range []string{
		`{"name":"Lages","main":{"temp":12,"humidity":70},"weather":[{"description":"nublado"}]}`,
		biguacuPayload,
	} {
		repo.body = body
		record, err := svc.FetchWeather(ctx, "any")
		require.NoError(t, err)

		records, err := svc.ListHistory(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, records)
		assert.Equal(t, record.ID, records[0].ID)
		assert.Equal(t, record.City, records[0].City)
	}
}

func TestWeatherService_FetchWeather_Errors(t *testing.T) {
	tests := []struct {
		name      string
		repoErr   error
		body      string
		insertErr error
		check     func(t *testing.T, err error)
	}{
		{
			name:    "city not found",
			repoErr: repository.ErrLocationNotFound,
			check: func(t *testing.T, err error) {
				var notFound *CityNotFoundError
				require.True(t, errors.As(err, &notFound), "expected CityNotFoundError, got %T", err)
				assert.Equal(t, "Atlantis", notFound.City)
				assert.Contains(t, err.Error(), "Atlantis")
			},
		},
		{
			name:    "upstream failure",
			repoErr: repository.ErrExternalAPI,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrUpstream)
			},
		},
		{
			name:    "circuit open",
			repoErr: repository.ErrCircuitOpen,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrUpstream)
			},
		},
		{
			name:    "undecodable payload",
			repoErr: repository.ErrInvalidPayload,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrValidation)
				assert.NotErrorIs(t, err, ErrUpstream)
			},
		},
		{
			name: "malformed payload",
			body: `{"name":"Atlantis","main":{"temp":20,"humidity":50},"weather":[]}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrValidation)
			},
		},
		{
			name:      "store unavailable",
			body:      biguacuPayload,
			insertErr: store.ErrStore,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrStore)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockWeatherRepository{t: t, err: tt.repoErr, body: tt.body}
			history := &memoryHistory{insertErr: tt.insertErr}
			svc := NewWeatherService(repo, history)

			record, err := svc.FetchWeather(context.Background(), "Atlantis")
			require.Error(t, err)
			assert.Nil(t, record, "no data may be returned on failure")
			tt.check(t, err)
			assert.Zero(t, history.count(), "failed lookups must not be stored")
		})
	}
}

func TestWeatherService_FetchWeather_OutcomeLabels(t *testing.T) {
	tests := []struct {
		name    string
		repoErr error
		body    string
		outcome string
	}{
		{"success", nil, biguacuPayload, metrics.OutcomeSuccess},
		{"not found", repository.ErrLocationNotFound, "", metrics.OutcomeNotFound},
		{"upstream failure", repository.ErrExternalAPI, "", metrics.OutcomeUpstreamError},
		{"undecodable payload", repository.ErrInvalidPayload, "", metrics.OutcomeValidationError},
		{"missing conditions", nil, `{"name":"X","main":{"temp":1,"humidity":1},"weather":[]}`, metrics.OutcomeValidationError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.New()
			repo := &mockWeatherRepository{t: t, err: tt.repoErr, body: tt.body}
			svc := NewWeatherService(repo, &memoryHistory{}, WithMetrics(m))

			_, _ = svc.FetchWeather(context.Background(), "Atlantis")

			expected := fmt.Sprintf(`
# HELP weather_lookups_total Weather lookups by outcome.
# TYPE weather_lookups_total counter
weather_lookups_total{outcome=%q} 1
`, tt.outcome)
			assert.NoError(t, testutil.CollectAndCompare(m.Registry(), strings.NewReader(expected), "weather_lookups_total"))
		})
	}
}

func TestWeatherService_ListHistory_Empty(t *testing.T) {
	svc := NewWeatherService(&mockWeatherRepository{t: t}, &memoryHistory{})

	records, err := svc.ListHistory(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestWeatherService_ListHistory_StoreError(t *testing.T) {
	svc := NewWeatherService(&mockWeatherRepository{t: t}, &memoryHistory{listErr: errors.New("disk I/O error")})

	records, err := svc.ListHistory(context.Background())
	assert.Nil(t, records)
	assert.ErrorIs(t, err, ErrStore)
}

func TestWeatherService_Tracing(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	svc := NewWeatherService(&mockWeatherRepository{t: t, body: biguacuPayload}, &memoryHistory{},
		WithTracer(tp.Tracer("test")))

	_, err := svc.FetchWeather(context.Background(), "Biguacu")
	require.NoError(t, err)

	names := make([]string, 0)
	for _, s := range sr.Ended() {
		names = append(names, s.Name())
	}
	assert.ElementsMatch(t, []string{
		"WeatherService.FetchWeather",
		"openweathermap.FetchCurrent",
		"HistoryStore.Insert",
	}, names)
}

func TestWeatherService_ConcurrentFetches(t *testing.T) {
	history := &memoryHistory{}
	svc := NewWeatherService(&mockWeatherRepository{t: t, body: biguacuPayload}, history)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.FetchWeather(context.Background(), "Biguacu")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, history.count())
}
