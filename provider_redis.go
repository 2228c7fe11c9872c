package termcache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

const DefaultRedisChunkSize = 100

// RedisStore keeps msgpack encoded term values in redis.
type RedisStore struct {
	client    redis.Cmdable
	prefix    string
	chunkSize int
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{
		client:    client,
		chunkSize: DefaultRedisChunkSize,
	}
}

// WithPrefix namespaces every key, e.g. "terms:".
func (r *RedisStore) WithPrefix(prefix string) *RedisStore {
	r.prefix = prefix

	return r
}

// WithChunkSize limits how many keys go into one MULTI/EXEC transaction.
func (r *RedisStore) WithChunkSize(size int) *RedisStore {
	if size > 0 {
		r.chunkSize = size
	}

	return r
}

func (r *RedisStore) Get(ctx context.Context, key string) (*TermValue, error) {
	bts, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}

		return nil, errors.WithStack(err)
	}

	var item TermValue
	if err = msgpack.Unmarshal(bts, &item); err != nil {
		zerolog.Ctx(ctx).Err(err).Str("key", key).Msg("can not decode cached term, treating as miss")
		return nil, nil
	}

	return &item, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value TermValue, ttl time.Duration) error {
	b, err := msgpack.Marshal(value)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(r.client.Set(ctx, r.prefix+key, b, ttl).Err())
}

// MSet writes values with one SET ... EX per key inside MULTI/EXEC, one
// transaction per chunk, so each key is written together with its TTL.
func (r *RedisStore) MSet(ctx context.Context, values map[string]TermValue, ttl time.Duration) error {
	if len(values) == 0 {
		return nil
	}

	encoded := make(map[string][]byte, len(values))
	keys := make([]string, 0, len(values))

	for k, v := range values {
		b, err := msgpack.Marshal(v)
		if err != nil {
			return errors.Wrapf(err, "can not encode term for key %s", k)
		}

		encoded[k] = b
		keys = append(keys, k)
	}

	for _, chunk := range r.chunkBy(keys, r.chunkSize) {
		_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, k := range chunk {
				pipe.Set(ctx, r.prefix+k, encoded[k], ttl)
			}

			return nil
		})
		if err != nil {
			return errors.WithStack(err)
		}
	}

	return nil
}

func (r *RedisStore) chunkBy(items []string, chunkSize int) (chunks [][]string) {
	for chunkSize < len(items) {
		items, chunks = items[chunkSize:], append(chunks, items[0:chunkSize:chunkSize])
	}

	return append(chunks, items)
}
