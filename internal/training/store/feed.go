package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const feedChannelPrefix = "trainlog"

func feedChannel(userID, collection string) string {
	return fmt.Sprintf("%s||%s||%s", feedChannelPrefix, userID, collection)
}

// RedisFeed carries collection change announcements between the write
// path and the per-user store adapters over redis pub/sub.
type RedisFeed struct {
	redisClient *redis.Client
}

func NewRedisFeed(redisClient *redis.Client) *RedisFeed {
	return &RedisFeed{
		redisClient: redisClient,
	}
}

func (f *RedisFeed) Publish(ctx context.Context, userID, collection string) error {
	return f.redisClient.Publish(ctx, feedChannel(userID, collection), collection).Err()
}

// Subscribe returns a channel of collection names that changed for the
// user. The channel is closed when ctx is cancelled.
func (f *RedisFeed) Subscribe(ctx context.Context, userID string) (<-chan string, error) {
	pattern := fmt.Sprintf("%s||%s||*", feedChannelPrefix, userID)
	pubsub := f.redisClient.PSubscribe(ctx, pattern)

	// make sure the subscription is live before returning, otherwise
	// a write made right after attach could slip past unseen
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", pattern, err)
	}

	out := make(chan string)
	go func() {
		defer close(out)
		defer func() {
			if err := pubsub.Close(); err != nil {
				log.Errorf("close pubsub for user %s: %s", userID, err)
			}
		}()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				parts := strings.Split(msg.Channel, "||")
				if len(parts) != 3 {
					log.Warnf("unexpected feed channel name: %s", msg.Channel)
					continue
				}
				select {
				case out <- parts[2]:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
