package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

// RedisBroker carries vote events over Redis pub/sub so results streams
// stay live across multiple server instances.
type RedisBroker struct {
	client *redis.Client
}

func NewRedisBroker(uri string) (*RedisBroker, error) {
	options, err := redis.ParseURL(uri)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(options)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &RedisBroker{client: client}, nil
}

func channelFor(electionID int) string {
	return fmt.Sprintf("elections:votes:%d", electionID)
}

func (b *RedisBroker) Publish(ctx context.Context, event VoteEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, channelFor(event.ElectionID), payload).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context, electionID int) (<-chan VoteEvent, func(), error) {
	pubsub := b.client.Subscribe(ctx, channelFor(electionID))

	// Confirm the subscription before handing out the channel.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}

	out := make(chan VoteEvent, 64)

	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var event VoteEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Errorf("realtime: bad vote event payload: %v", err)
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() {
		if err := pubsub.Close(); err != nil {
			log.Errorf("realtime: unsubscribe failed: %v", err)
		}
	}

	return out, cancel, nil
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}
