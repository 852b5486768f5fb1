package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	errx "github.com/shopbot-core/server/internal/core/error"
	"github.com/shopbot-core/server/internal/model"
	logx "github.com/shopbot-core/server/pkg/logger"
)

// DefaultRedisKey is the key the whole document lives under when no explicit
// key is configured.
const DefaultRedisKey = "shopbot:document"

// RedisStore keeps the document marshaled under a single key, with the same
// wholesale load/save semantics as the file backend. Update serialisation is
// process-local, matching the single-process deployment of the bot.
type RedisStore struct {
	rdb redis.Cmdable
	key string
	mu  sync.Mutex
}

func NewRedisStore(rdb redis.Cmdable, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{rdb: rdb, key: key}
}

func (r *RedisStore) Load(ctx context.Context) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

func (r *RedisStore) Save(ctx context.Context, doc *model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.save(ctx, doc)
}

func (r *RedisStore) Update(ctx context.Context, fn func(doc *model.Document) (bool, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load(ctx)
	if err != nil {
		return err
	}
	save, err := fn(doc)
	if err != nil {
		return err
	}
	if !save {
		return nil
	}
	return r.save(ctx, doc)
}

func (r *RedisStore) load(ctx context.Context) (*model.Document, error) {
	b, err := r.rdb.Get(ctx, r.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return model.NewDocument(), nil
		}
		logx.Error().Err(err).Str("key", r.key).Msg("failed to load document from redis")
		return nil, errx.WrapRedis(err)
	}

	doc := &model.Document{}
	if err := json.Unmarshal(b, doc); err != nil {
		logx.Error().Err(err).Str("key", r.key).Msg("stored document is not valid JSON")
		return nil, errx.WrapStore(fmt.Errorf("decode document at %s: %w", r.key, err))
	}
	return doc, nil
}

func (r *RedisStore) save(ctx context.Context, doc *model.Document) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return errx.WrapStore(fmt.Errorf("encode document: %w", err))
	}
	if err := r.rdb.Set(ctx, r.key, b, 0).Err(); err != nil {
		logx.Error().Err(err).Str("key", r.key).Msg("failed to save document to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
