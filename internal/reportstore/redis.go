package reportstore

import (
	"context"
	"errors"

	"plot-digitizer/internal/report"
	perrors "plot-digitizer/pkg/errors"

	"github.com/redis/go-redis/v9"
)

// RedisConfig selects the server and key namespace.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisStore keeps each report under <prefix><id> and indexes them in a
// sorted set <prefix>index scored by creation time.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, perrors.Wrap(perrors.ErrCodeInternal, err, "connect to redis at %s", cfg.Addr)
	}
	return NewRedisStoreWithClient(client, cfg.Prefix), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(id string) string { return s.prefix + id }
func (s *RedisStore) indexKey() string     { return s.prefix + "index" }

func (s *RedisStore) Put(ctx context.Context, r *report.Report) error {
	if err := validID(r.ID); err != nil {
		return err
	}
	data, err := encode(r)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.key(r.ID), data, 0)
		p.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(r.Created.UnixNano()), Member: r.ID})
		return nil
	})
	if err != nil {
		return perrors.Wrap(perrors.ErrCodeInternal, err, "store report %s", r.ID)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*report.Report, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, perrors.New(perrors.ErrCodeNotFound, "report %s not found", id)
	}
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeLoadFailed, err, "fetch report %s", id)
	}
	return decode(id, data)
}

// List drops index entries whose report has disappeared.
func (s *RedisStore) List(ctx context.Context) ([]Summary, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeLoadFailed, err, "list reports")
	}

	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		r, err := s.Get(ctx, id)
		if perrors.Is(err, perrors.ErrCodeNotFound) {
			s.client.ZRem(ctx, s.indexKey(), id)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, summarize(r))
	}
	return out, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
