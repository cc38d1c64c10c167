// Package queue carries order confirmation messages between services.
package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrEmpty is returned by Receive when no message arrived within the wait.
var ErrEmpty = errors.New("queue: empty")

// Queue is a set of named FIFO queues of string payloads.
type Queue interface {
	Publish(ctx context.Context, name, payload string) error
	Receive(ctx context.Context, name string, wait time.Duration) (string, error)
}

// RedisQueue stores each queue as a Redis list: LPUSH to publish, BRPOP to receive.
type RedisQueue struct {
	client *redis.Client
}

func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

// DialRedis connects to addr and pings it.
func DialRedis(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func (q *RedisQueue) Publish(ctx context.Context, name, payload string) error {
	return q.client.LPush(ctx, name, payload).Err()
}

func (q *RedisQueue) Receive(ctx context.Context, name string, wait time.Duration) (string, error) {
	res, err := q.client.BRPop(ctx, wait, name).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrEmpty
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", err
	}
	// BRPOP replies with [key, value].
	return res[1], nil
}

// MemoryQueue is an in-process Queue for development and tests.
type MemoryQueue struct {
	mu     sync.Mutex
	queues map[string][]string
	// notify is closed and replaced on every publish.
	notify chan struct{}
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		queues: make(map[string][]string),
		notify: make(chan struct{}),
	}
}

func (q *MemoryQueue) Publish(ctx context.Context, name, payload string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	q.queues[name] = append(q.queues[name], payload)
	close(q.notify)
	q.notify = make(chan struct{})
	q.mu.Unlock()
	return nil
}

func (q *MemoryQueue) Receive(ctx context.Context, name string, wait time.Duration) (string, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		q.mu.Lock()
		if msgs := q.queues[name]; len(msgs) > 0 {
			payload := msgs[0]
			q.queues[name] = msgs[1:]
			q.mu.Unlock()
			return payload, nil
		}
		notify := q.notify
		q.mu.Unlock()

		select {
		case <-notify:
		case <-timer.C:
			return "", ErrEmpty
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// Len reports the number of pending messages in name.
func (q *MemoryQueue) Len(name string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queues[name])
}
