package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/engmung/portfolio-Nat/application/ports"
	"github.com/engmung/portfolio-Nat/domain/events"
)

var _ ports.ChangeNotifier = (*ChangeBus)(nil)

// publisher is the part of the redis client NotifyChange uses
type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
}

// ChangeHandler receives knowledge changes raised by peer instances
type ChangeHandler func(ctx context.Context, change events.KnowledgeChanged)

// ChangeBus fans knowledge.changed notifications out to every instance sharing a
// redis channel. Messages an instance published itself are ignored on receipt.
type ChangeBus struct {
	rdb     *goredis.Client
	pub     publisher
	channel string
	origin  string
	logger  *zap.Logger
}

// Connect parses a redis URL and pings the server
func Connect(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second

	rdb := goredis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// NewChangeBus creates a bus on channel. origin identifies this instance.
func NewChangeBus(rdb *goredis.Client, channel, origin string, logger *zap.Logger) *ChangeBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	bus := &ChangeBus{
		rdb:     rdb,
		channel: channel,
		origin:  origin,
		logger:  logger.With(zap.String("component", "redis_change_bus")),
	}
	if rdb != nil {
		bus.pub = rdb
	}
	return bus
}

// Origin returns the instance id stamped on outgoing changes
func (b *ChangeBus) Origin() string {
	return b.origin
}

// NotifyChange publishes change to the channel
func (b *ChangeBus) NotifyChange(ctx context.Context, change events.KnowledgeChanged) error {
	if b.pub == nil {
		return errors.New("redis change bus not initialized")
	}
	if change.Origin == "" {
		change.Origin = b.origin
	}
	raw, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to encode change: %w", err)
	}
	if err := b.pub.Publish(ctx, b.channel, raw).Err(); err != nil {
		return fmt.Errorf("failed to publish change: %w", err)
	}
	b.logger.Debug("Published knowledge change",
		zap.String("kind", string(change.Kind)),
		zap.String("filename", change.Filename),
	)
	return nil
}

// Run subscribes and forwards peer changes to onChange until ctx is done
func (b *ChangeBus) Run(ctx context.Context, onChange ChangeHandler) error {
	if b.rdb == nil {
		return errors.New("redis change bus not initialized")
	}
	if onChange == nil {
		return errors.New("change handler required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()

	// ensures the subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}
	b.logger.Info("Listening for knowledge changes", zap.String("channel", b.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok || m == nil {
				return nil
			}
			b.handle(ctx, m.Payload, onChange)
		}
	}
}

func (b *ChangeBus) handle(ctx context.Context, payload string, onChange ChangeHandler) {
	var change events.KnowledgeChanged
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		b.logger.Warn("Bad knowledge change payload", zap.Error(err))
		return
	}
	if change.Origin == b.origin {
		return
	}
	b.logger.Info("Received knowledge change from peer",
		zap.String("origin", change.Origin),
		zap.String("kind", string(change.Kind)),
	)
	onChange(ctx, change)
}

// Close closes the underlying client
func (b *ChangeBus) Close() error {
	if b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
