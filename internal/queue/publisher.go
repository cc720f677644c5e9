package queue

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// Publisher appends feed events to a stream.
type Publisher interface {
	Publish(ctx context.Context, stream string, event FeedEvent) (messageID string, err error)
}

type redisPublisher struct {
	client *redis.Client
	// maxLen caps the stream length approximately; zero leaves it unbounded
	maxLen int64
}

// DefaultStreamMaxLen keeps the feed stream from growing without bound once
// every group has consumed it.
const DefaultStreamMaxLen = 100000

func NewPublisher(client *redis.Client) Publisher {
	return &redisPublisher{client: client, maxLen: DefaultStreamMaxLen}
}

func (p *redisPublisher) Publish(ctx context.Context, stream string, event FeedEvent) (string, error) {
	values, err := event.ToValues()
	if err != nil {
		return "", err
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: values,
	}).Result()
	if err != nil {
		log.Printf("[Publisher] Publish FAILED: stream=%s type=%s err=%v", stream, event.Type, err)
		return "", fmt.Errorf("xadd %s: %w", stream, err)
	}

	log.Printf("[Publisher] Publish OK: stream=%s type=%s msgID=%s", stream, event.Type, id)
	return id, nil
}

// PublishFeedEvent publishes to StreamFeed and only logs failures. Feed events
// are sent after the database commit, so a lost event must not fail the
// request that caused it. A nil publisher is a no-op.
func PublishFeedEvent(ctx context.Context, p Publisher, event FeedEvent) {
	if p == nil {
		return
	}
	if _, err := p.Publish(ctx, StreamFeed, event); err != nil {
		log.Printf("[Publisher] dropped %s event: %v", event.Type, err)
	}
}
