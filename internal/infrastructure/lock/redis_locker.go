package lock

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

const (
	defaultPollInterval = 20 * time.Millisecond
	releaseTimeout      = 2 * time.Second
)

// NewRedis crea el cliente y valida la conexión al arrancar.
func NewRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// RedisLocker lock por producto compartido entre instancias: SET NX PX con token propio,
// liberado con un script que solo borra la clave si el token sigue siendo el nuestro.
type RedisLocker struct {
	client *redis.Client
	script *redis.Script
	prefix string
	ttl    time.Duration
	poll   time.Duration
}

// NewRedisLocker construye el locker. ttl acota cuánto sobrevive un lock si el proceso muere.
func NewRedisLocker(client *redis.Client, prefix string, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{
		client: client,
		script: redis.NewScript(releaseScript),
		prefix: prefix,
		ttl:    ttl,
		poll:   defaultPollInterval,
	}
}

// Lock reintenta SET NX hasta obtener la clave o hasta que ctx venza.
func (l *RedisLocker) Lock(ctx context.Context, productID int64) (func(), error) {
	if l == nil || l.client == nil {
		return nil, errors.New("redis lock: cliente no configurado")
	}
	key := l.prefix + strconv.FormatInt(productID, 10)
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, lockError(ctx, productID)
			}
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}

		timer := time.NewTimer(l.poll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, lockError(ctx, productID)
		case <-timer.C:
		}
	}
}

// release usa un contexto propio: el del request puede estar ya cancelado.
func (l *RedisLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	_ = l.script.Run(ctx, l.client, []string{key}, token).Err()
}
