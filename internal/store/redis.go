package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fakhrymubarak/weather-history-api/internal/model"
	redisv9 "github.com/redis/go-redis/v9"
)

const (
	historyKey  = "weather:history"
	sequenceKey = "weather:history:seq"
)

// insertScript allocates the next id and adds the member scored by it in one
// atomic step, so readers never see an id before its predecessors and a failed
// insert leaves no gap. ARGV[1] is the record JSON without its id.
var insertScript = redisv9.NewScript(`
local id = redis.call('INCR', KEYS[2])
local member = '{"id":' .. id .. ',' .. string.sub(ARGV[1], 2)
redis.call('ZADD', KEYS[1], id, member)
return id
`)

// RedisStore keeps history in a sorted set scored by id.
type RedisStore struct {
	client *redisv9.Client
}

// redisRecord is the JSON member stored in the sorted set.
type redisRecord struct {
	ID          uint      `json:"id,omitempty"`
	City        string    `json:"city"`
	Temperature float64   `json:"temperature"`
	Description string    `json:"description"`
	Humidity    int       `json:"humidity"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewRedisStore(client *redisv9.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Insert(ctx context.Context, record *model.WeatherRecord) (uint, error) {
	createdAt := time.Now().UTC()
	body, err := json.Marshal(redisRecord{
		City:        record.City,
		Temperature: record.Temperature,
		Description: record.Description,
		Humidity:    record.Humidity,
		CreatedAt:   createdAt,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: encoding record: %v", ErrStore, err)
	}

	id, err := insertScript.Run(ctx, s.client, []string{historyKey, sequenceKey}, string(body)).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: inserting record: %v", ErrStore, err)
	}

	record.ID = uint(id)
	record.CreatedAt = createdAt
	return uint(id), nil
}

func (s *RedisStore) ListAll(ctx context.Context, order Order) ([]model.WeatherRecord, error) {
	var (
		members []string
		err     error
	)
	if order == OrderIDAsc {
		members, err = s.client.ZRange(ctx, historyKey, 0, -1).Result()
	} else {
		members, err = s.client.ZRevRange(ctx, historyKey, 0, -1).Result()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: listing records: %v", ErrStore, err)
	}

	records := make([]model.WeatherRecord, 0, len(members))
	for _, m := range members {
		var r redisRecord
		if err := json.Unmarshal([]byte(m), &r); err != nil {
			return nil, fmt.Errorf("%w: decoding record: %v", ErrStore, err)
		}
		records = append(records, model.WeatherRecord{
			ID:          r.ID,
			City:        r.City,
			Temperature: r.Temperature,
			Description: r.Description,
			Humidity:    r.Humidity,
			CreatedAt:   r.CreatedAt,
		})
	}
	return records, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
