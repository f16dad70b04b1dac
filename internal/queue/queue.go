// Package queue decouples record mutations from engine writes. Producers
// push compact index tasks onto a Redis list; a worker drains it and talks
// to the engine, so a slow or absent engine never blocks a save.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/stackfield/tracksearch/internal/domain"
)

// Task actions.
const (
	ActionIndex  = "index"
	ActionDelete = "delete"
)

// Task identifies one pending engine write. The record body is not carried;
// the worker reloads it at processing time so stale payloads cannot win.
type Task struct {
	Kind   domain.Kind `json:"kind"`
	ID     int64       `json:"id"`
	Action string      `json:"action"`
}

// Config holds connection parameters for the task queue.
type Config struct {
	Addrs    []string
	Username string
	Password string
	Key      string
}

// Queue is a Redis-list task queue. LPUSH on produce, BRPOP on consume;
// tasks that exhaust their retries land on the <key>:dead list.
type Queue struct {
	client rueidis.Client
	key    string
}

// New connects to Redis and returns the queue.
func New(cfg Config) (*Queue, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("key is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Queue{client: client, key: cfg.Key}, nil
}

// Enqueue appends a task to the queue.
func (q *Queue) Enqueue(ctx context.Context, task Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}

	cmd := q.client.B().Lpush().Key(q.key).Element(string(payload)).Build()
	if err := q.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}
	return nil
}

// Dequeue blocks up to timeout for the next task. Returns (nil, nil) when
// the wait times out with the queue empty.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Task, error) {
	cmd := q.client.B().Brpop().Key(q.key).Timeout(timeout.Seconds()).Build()
	res, err := q.client.Do(ctx, cmd).AsStrSlice()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("dequeue: %w", err)
	}
	// BRPOP replies [key, element].
	if len(res) < 2 {
		return nil, fmt.Errorf("dequeue: unexpected reply of %d elements", len(res))
	}

	var task Task
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		return nil, fmt.Errorf("decode task: %w", err)
	}
	return &task, nil
}

// PushDead parks a task that exhausted its retries for manual inspection.
func (q *Queue) PushDead(ctx context.Context, task Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}

	cmd := q.client.B().Lpush().Key(q.key + ":dead").Element(string(payload)).Build()
	if err := q.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("push dead: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (q *Queue) Ping(ctx context.Context) error {
	cmd := q.client.B().Ping().Build()
	if err := q.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (q *Queue) Close() {
	q.client.Close()
}
