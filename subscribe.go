package receive

import (
	"github.com/vitwit/receive/metrics"
	"github.com/vitwit/receive/types"
)

// Subscribe returns a channel of controller events and a function that
// ends the subscription. Delivery never blocks the controller: when the
// buffer is full the event is dropped. The channel is closed on
// unsubscribe or Close.
func (c *Controller) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		close(ch)
		return ch, func() {}
	}

	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

func (c *Controller) emitLocked(kind EventKind) {
	c.deliverLocked(c.eventLocked(kind))
}

func (c *Controller) emitNotificationLocked(n types.Notification) {
	ev := c.eventLocked(EventNotification)
	ev.Notification = &n
	c.deliverLocked(ev)
}

func (c *Controller) eventLocked(kind EventKind) Event {
	return Event{
		Kind:      kind,
		SessionID: c.session.id,
		State:     c.session.state,
		Flavor:    c.session.flavor,
		Paid:      c.session.paid,
		LspFee:    c.session.lspFee,
	}
}

func (c *Controller) deliverLocked(ev Event) {
	for _, ch := range c.subs {
		select {
		case ch <- ev:
		default:
			c.metrics.IncCounter(metrics.EventSubscriberDropped, nil)
		}
	}
}
