package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const unreadKeyPrefix = "notify:unread:"

// NotificationCounter keeps per-user unread counters in redis, fed by bus
// events. It replaces the source application's process-wide mutable
// notification counter: the instance is created by the composition root and
// attached to a bus it can later detach from.
type NotificationCounter struct {
	rdb *redis.Client
}

func NewNotificationCounter(rdb *redis.Client) *NotificationCounter {
	return &NotificationCounter{rdb: rdb}
}

// Attach subscribes to the events that produce user-visible notifications
// and returns the registration id for Unsubscribe.
func (n *NotificationCounter) Attach(bus *EventBus) int {
	return bus.Subscribe(func(ev Event) {
		n.Increment(ev.UserID)
	}, EventMessageCreated, EventVipGranted)
}

// Increment bumps the unread counter. Best-effort: a redis outage loses a
// badge count, never a message.
func (n *NotificationCounter) Increment(userID uint) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = n.rdb.Incr(ctx, unreadKey(userID)).Err()
}

// Count returns the user's unread counter.
func (n *NotificationCounter) Count(userID uint) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	v, err := n.rdb.Get(ctx, unreadKey(userID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return v, err
}

// Reset clears the counter, typically when the user opens their inbox.
func (n *NotificationCounter) Reset(userID uint) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return n.rdb.Del(ctx, unreadKey(userID)).Err()
}

func unreadKey(userID uint) string {
	return fmt.Sprintf("%s%d", unreadKeyPrefix, userID)
}
