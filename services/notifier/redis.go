package notifier

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"sjsage522/listingwatcher/logger"
	apperrors "sjsage522/listingwatcher/pkg/errors"
	"sjsage522/listingwatcher/services/settings"
)

// RedisNotifier hands messages to a messaging gateway through Redis.
//
//	<prefix>:destinations  hash id → display name, written by the gateway
//	<prefix>:pairing       pairing payload while the gateway is not logged in
//	<prefix>:outbox        stream of base64-encoded JSON outbox messages
type RedisNotifier struct {
	client          *redis.Client
	prefix          string
	streamMaxLength int64
	pollInterval    time.Duration

	status  status
	mu      sync.RWMutex
	catalog []settings.Destination
	log     *logger.Logger
}

// OutboxMessage is the payload written to the outbox stream
type OutboxMessage struct {
	ID          string    `json:"id"`
	Destination string    `json:"destination"`
	Text        string    `json:"text"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewRedisNotifier creates a new Redis notifier
func NewRedisNotifier(addr string, db int, prefix string, streamMaxLength int) *RedisNotifier {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisNotifier{
		client:          client,
		prefix:          prefix,
		streamMaxLength: int64(streamMaxLength),
		pollInterval:    5 * time.Second,
		log:             logger.ForNotifier().WithField("notifier", "redis"),
	}
}

func (n *RedisNotifier) destinationsKey() string { return n.prefix + ":destinations" }
func (n *RedisNotifier) pairingKey() string      { return n.prefix + ":pairing" }
func (n *RedisNotifier) outboxKey() string       { return n.prefix + ":outbox" }

// Connect polls Redis until the gateway has published a non-empty catalog
func (n *RedisNotifier) Connect(ctx context.Context) error {
	ticker := time.NewTicker(n.pollInterval)
	defer ticker.Stop()

	for {
		ready, err := n.refreshCatalog(ctx)
		if err != nil {
			n.log.Warn().Err(err).Msg("Gateway not reachable yet")
		}
		if ready {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (n *RedisNotifier) refreshCatalog(ctx context.Context) (bool, error) {
	if err := n.client.Ping(ctx).Err(); err != nil {
		return false, err
	}

	raw, err := n.client.HGetAll(ctx, n.destinationsKey()).Result()
	if err != nil {
		return false, err
	}

	catalog := BuildCatalog(raw)
	if len(catalog) == 0 {
		n.log.Info().Str("key", n.destinationsKey()).Msg("Waiting for the gateway to publish destinations")
		return false, nil
	}

	n.mu.Lock()
	n.catalog = catalog
	n.mu.Unlock()
	n.status.set(Ready)

	n.log.Info().Int("destinations", len(catalog)).Msg("Messaging gateway ready")
	return true, nil
}

// Status returns the lifecycle state
func (n *RedisNotifier) Status() Status {
	return n.status.get()
}

// Destinations returns the catalog captured by Connect
func (n *RedisNotifier) Destinations() []settings.Destination {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Clone(n.catalog)
}

// PairingCode returns the pending pairing payload, or "" when there is none
func (n *RedisNotifier) PairingCode(ctx context.Context) (string, error) {
	code, err := n.client.Get(ctx, n.pairingKey()).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return code, err
}

// Send appends the message to the outbox stream, trimmed to streamMaxLength
func (n *RedisNotifier) Send(ctx context.Context, destinationID string, msg Message) error {
	if n.Status() != Ready {
		return apperrors.NewNotReady("redis")
	}

	payload, err := json.Marshal(OutboxMessage{
		ID:          uuid.NewString(),
		Destination: destinationID,
		Text:        msg.Text,
		ImageURL:    msg.ImageURL,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return apperrors.NewDispatch("redis", "failed to encode outbox message", err)
	}

	args := &redis.XAddArgs{
		Stream: n.outboxKey(),
		Values: map[string]interface{}{
			"b64_message": base64.StdEncoding.EncodeToString(payload),
		},
	}
	if n.streamMaxLength > 0 {
		args.MaxLen = n.streamMaxLength
		args.Approx = true
	}

	if err := n.client.XAdd(ctx, args).Err(); err != nil {
		return apperrors.NewDispatch("redis", "failed to append to "+n.outboxKey(), err)
	}
	return nil
}

// Close closes the Redis connection
func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
