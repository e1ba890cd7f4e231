package graph

import (
	"fmt"
	"log/slog"

	"github.com/roach88/bigflow/internal/ir"
)

// Observer receives the endpoints of every successfully committed edge.
type Observer func(from, to ir.Node)

// Subscription identifies a registered observer for Unsubscribe.
// Zero is never issued.
type Subscription uint64

type subscriber struct {
	id Subscription
	fn Observer
}

// Notifier is a synchronous, in-process broadcast of connection events.
//
// Each Store owns its own Notifier, so independent graphs never share
// subscribers. Delivery is fire-and-forget from the Store's point of view:
// a panicking observer is recovered and logged, the remaining observers still
// run, and the already committed edge is never rolled back.
type Notifier struct {
	next   Subscription
	subs   []subscriber
	logger *slog.Logger
}

func newNotifier(logger *slog.Logger) *Notifier {
	return &Notifier{logger: logger}
}

// Subscribe registers fn and returns a handle for Unsubscribe.
// Observers are called in subscription order.
func (n *Notifier) Subscribe(fn Observer) Subscription {
	n.next++
	n.subs = append(n.subs, subscriber{id: n.next, fn: fn})
	return n.next
}

// Unsubscribe removes the observer registered under s.
// Returns false if s is unknown or was already removed.
func (n *Notifier) Unsubscribe(s Subscription) bool {
	for i, sub := range n.subs {
		if sub.id == s {
			n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
			return true
		}
	}
	return false
}

// publish delivers (from, to) to every observer registered at call time.
// Observers added or removed during delivery take effect on the next publish.
func (n *Notifier) publish(from, to ir.Node) {
	if len(n.subs) == 0 {
		return
	}
	subs := make([]subscriber, len(n.subs))
	copy(subs, n.subs)

	for _, sub := range subs {
		n.deliver(sub, from, to)
	}
}

func (n *Notifier) deliver(sub subscriber, from, to ir.Node) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("connection observer panicked",
				"subscription", uint64(sub.id),
				"from_id", int(from.ID),
				"to_id", int(to.ID),
				"panic", fmt.Sprint(r),
			)
		}
	}()
	sub.fn(from, to)
}
