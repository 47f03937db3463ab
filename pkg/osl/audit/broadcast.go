package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/airsstack/airssys/pkg/osl"
)

// Broadcast publishes each record as a JSON payload to a Redis pub-sub
// channel. The channel name is used exactly as configured (default
// "airssys:audit"); separate audit streams can share one Redis instance
// by using distinct channel names or DB numbers.
type Broadcast struct {
	client  *redis.Client
	channel string
}

// BroadcastOptions configures a Broadcast auditor.
type BroadcastOptions struct {
	RedisURL string
	DB       int
	Channel  string
}

// NewBroadcast dials Redis and returns a Broadcast publishing to
// opts.Channel.
func NewBroadcast(ctx context.Context, opts BroadcastOptions) (*Broadcast, error) {
	redisOpts, err := redis.ParseURL(opts.RedisURL)
	if err != nil {
		return nil, osl.NewSystemError("audit.NewBroadcast", "parse_url", err)
	}
	redisOpts.DB = opts.DB

	client := redis.NewClient(redisOpts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, osl.NewSystemError("audit.NewBroadcast", "ping", err)
	}

	channel := opts.Channel
	if channel == "" {
		channel = "airssys:audit"
	}
	return &Broadcast{client: client, channel: channel}, nil
}

func (b *Broadcast) Record(rec osl.AuditRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return osl.NewSystemError("audit.Broadcast.Record", "marshal", err)
	}
	if err := b.client.Publish(context.Background(), b.channel, payload).Err(); err != nil {
		return osl.NewSystemError("audit.Broadcast.Record", "publish", fmt.Errorf("channel %s: %w", b.channel, err))
	}
	return nil
}

func (b *Broadcast) Flush() error { return nil }

// Close releases the underlying Redis client.
func (b *Broadcast) Close() error {
	return b.client.Close()
}
