package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/staymate/staymate-bff/internal/logger"
)

const inflightPrefix = "staymate-bff:inflight:"

// Снимает блокировку, только если она всё ещё наша.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// InflightLocker не даёт двум репликам (или двум вкладкам) одновременно
// выполнять одно действие над одним элементом.
// Ключ: staymate-bff:inflight:<page>:<id>
type InflightLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewInflightLocker(client *redis.Client, ttl time.Duration) *InflightLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &InflightLocker{client: client, ttl: ttl}
}

// Acquire реализует viewstate.Locker. TTL страхует от зависших блокировок после падения реплики.
func (l *InflightLocker) Acquire(ctx context.Context, key string) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, inflightPrefix+key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("inflight lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{inflightPrefix + key}, token).Err(); err != nil {
			logger.Log.WithError(err).WithField("key", key).Warn("inflight lock: не удалось снять блокировку")
		}
	}
	return release, true, nil
}
