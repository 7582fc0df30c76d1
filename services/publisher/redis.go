package publisher

import (
	"context"
	"encoding/base64"
	"math/rand/v2"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher implements Publisher using Redis streams
type RedisPublisher struct {
	client          *redis.Client
	ctx             context.Context
	streamPrefix    string
	streamCount     int
	streamMaxLength int
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(ctx context.Context, addr string, db int, streamPrefix string, streamCount int, streamMaxLength int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	if streamCount < 1 {
		streamCount = 1
	}

	return &RedisPublisher{
		client:          client,
		ctx:             ctx,
		streamPrefix:    streamPrefix,
		streamCount:     streamCount,
		streamMaxLength: streamMaxLength,
	}
}

// Ping checks that Redis is reachable
func (p *RedisPublisher) Ping() error {
	return p.client.Ping(p.ctx).Err()
}

// Publish publishes a message to a Redis stream
// The message is base64 encoded before publishing
func (p *RedisPublisher) Publish(key string, message []byte) error {
	encodedMessage := base64.StdEncoding.EncodeToString(message)

	// if streamCount is 10, stream name will be stream:0 ~ stream:9
	stream := p.streamPrefix + ":" + strconv.Itoa(rand.IntN(p.streamCount))

	return p.client.XAdd(p.ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			key: encodedMessage,
		},
	}).Err()
}

// TrimStreams trims all streams to the configured maximum length
func (p *RedisPublisher) TrimStreams() error {
	for i := 0; i < p.streamCount; i++ {
		stream := p.streamPrefix + ":" + strconv.Itoa(i)
		if err := p.client.XTrimMaxLen(p.ctx, stream, int64(p.streamMaxLength)).Err(); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
