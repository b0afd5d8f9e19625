package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/fakhrymubarak/weather-history-api/internal/config"
	"github.com/fakhrymubarak/weather-history-api/internal/model"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Custom error types
var (
	ErrLocationNotFound = errors.New("location not found")
	ErrAPIKeyMissing    = errors.New("API key missing")
	ErrExternalAPI      = errors.New("external API error")
	ErrInvalidPayload   = errors.New("invalid upstream payload")
	ErrCircuitOpen      = errors.New("upstream circuit open")
	ErrEmptyCity        = errors.New("city must not be empty")
)

// maxBodyBytes bounds how much of an upstream body is decoded.
const maxBodyBytes = 1 << 20

// WeatherRepository fetches current conditions from the upstream weather API.
type WeatherRepository interface {
	FetchCurrent(ctx context.Context, city string) (*model.OpenWeatherMapResponse, error)
}

// weatherRepository implements WeatherRepository against OpenWeatherMap.
type weatherRepository struct {
	cfg        config.OpenWeatherMapConfig
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	cache      *gocache.Cache
	logger     *zap.SugaredLogger
}

// fetchResult carries outcomes that are not upstream failures through the
// circuit breaker: a 404, or a call abandoned because the caller's context
// ended.
type fetchResult struct {
	payload   *model.OpenWeatherMapResponse
	notFound  bool
	abandoned error
}

// NewWeatherRepository creates a new upstream client. The optional httpClient
// replaces the default client built with the configured timeout.
func NewWeatherRepository(cfg *config.Config, logger *zap.SugaredLogger, httpClient ...*http.Client) WeatherRepository {
	client := &http.Client{Timeout: cfg.OpenWeatherMap.Timeout}
	if len(httpClient) > 0 && httpClient[0] != nil {
		client = httpClient[0]
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	r := &weatherRepository{
		cfg:        cfg.OpenWeatherMap,
		httpClient: client,
		logger:     logger,
	}

	if cfg.Breaker.ConsecutiveFailures > 0 {
		threshold := cfg.Breaker.ConsecutiveFailures
		r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "openweathermap",
			MaxRequests: cfg.Breaker.MaxRequests,
			Interval:    cfg.Breaker.Interval,
			Timeout:     cfg.Breaker.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warnw("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			},
		})
	}

	if cfg.Cache.TTL > 0 {
		r.cache = gocache.New(cfg.Cache.TTL, 2*cfg.Cache.TTL)
	}

	return r
}

// FetchCurrent retrieves the raw current-weather payload for a city.
func (r *weatherRepository) FetchCurrent(ctx context.Context, city string) (*model.OpenWeatherMapResponse, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, ErrEmptyCity
	}
	if r.cfg.APIKey == "" {
		return nil, ErrAPIKeyMissing
	}

	if cached, ok := r.getFromCache(city); ok {
		return cached, nil
	}

	var (
		res fetchResult
		err error
	)
	if r.breaker != nil {
		var out interface{}
		out, err = r.breaker.Execute(func() (interface{}, error) {
			return r.fetchFromExternalAPI(ctx, city)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		if err == nil {
			res = out.(fetchResult)
		}
	} else {
		res, err = r.fetchFromExternalAPI(ctx, city)
	}
	if err != nil {
		return nil, err
	}
	if res.abandoned != nil {
		return nil, fmt.Errorf("%w: %w", ErrExternalAPI, res.abandoned)
	}
	if res.notFound {
		return nil, ErrLocationNotFound
	}

	r.cacheWeather(city, res.payload)
	return res.payload, nil
}

// fetchFromExternalAPI performs a single upstream call. Every error it returns
// counts as a circuit breaker failure, so a cancelled or expired caller context
// is reported through fetchResult instead. The client's own timeout still
// fails here.
func (r *weatherRepository) fetchFromExternalAPI(ctx context.Context, city string) (fetchResult, error) {
	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", r.cfg.APIKey)
	params.Set("units", r.cfg.Units)
	params.Set("lang", r.cfg.Lang)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.APIURL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return fetchResult{}, fmt.Errorf("%w: building request: %v", ErrExternalAPI, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fetchResult{abandoned: ctxErr}, nil
		}
		return fetchResult{}, fmt.Errorf("%w: %v", ErrExternalAPI, redactURLError(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return fetchResult{notFound: true}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return fetchResult{}, fmt.Errorf("%w: status %d", ErrExternalAPI, resp.StatusCode)
	}

	var data model.OpenWeatherMapResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&data); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fetchResult{abandoned: ctxErr}, nil
		}
		return fetchResult{}, fmt.Errorf("%w: %v", ErrInvalidPayload, redactURLError(err))
	}
	return fetchResult{payload: &data}, nil
}

// redactURLError strips the request URL, which carries the API key, from
// transport errors.
func redactURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

func cacheKey(city string) string {
	return "weather:" + strings.ToLower(city)
}

func (r *weatherRepository) getFromCache(city string) (*model.OpenWeatherMapResponse, bool) {
	if r.cache == nil {
		return nil, false
	}
	v, ok := r.cache.Get(cacheKey(city))
	if !ok {
		return nil, false
	}
	payload, ok := v.(*model.OpenWeatherMapResponse)
	return payload, ok
}

func (r *weatherRepository) cacheWeather(city string, payload *model.OpenWeatherMapResponse) {
	if r.cache == nil {
		return
	}
	r.cache.Set(cacheKey(city), payload, gocache.DefaultExpiration)
}

// breakerState reports the circuit state, used by tests and diagnostics.
func (r *weatherRepository) breakerState() gobreaker.State {
	if r.breaker == nil {
		return gobreaker.StateClosed
	}
	return r.breaker.State()
}
