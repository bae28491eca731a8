// Package bus is the process-wide, per-tick event queue shared by systems.
//
// Enqueue only appends; nothing is delivered until Dispatch runs on the tick
// thread. Delivery is synchronous and FIFO within an event type, types are
// delivered in the order they were first queued, and events queued while a
// dispatch is running wait for the next one. Handlers therefore never recurse
// into each other.
package bus

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrReentrantDispatch = errors.New("dispatch called from within a handler")

type subscription struct {
	bus       *Bus
	id        string
	eventType string
	handler   Handler
	active    bool
	cancel    func()
}

func (s *subscription) ID() string        { return s.id }
func (s *subscription) EventType() string { return s.eventType }

func (s *subscription) IsActive() bool {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	return s.active
}

func (s *subscription) Cancel() error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// Bus queues events per type and delivers them on Dispatch. Enqueue,
// Subscribe and Cancel are safe for concurrent use; Dispatch must only run on
// one goroutine. A subscription cancelled from another goroutine during a
// dispatch stops receiving at the next envelope.
type Bus struct {
	mu          sync.Mutex
	pending     map[string][]*Envelope
	order       []string
	handlers    map[string][]*subscription
	seq         uint64
	dispatching bool
	metrics     Metrics
	observers   map[Observer]struct{}
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{
		pending:   make(map[string][]*Envelope),
		handlers:  make(map[string][]*subscription),
		observers: make(map[Observer]struct{}),
	}
}

// Enqueue appends event to its type queue. It never invokes handlers.
func (b *Bus) Enqueue(event Event) {
	b.mu.Lock()
	etype := event.Type()
	b.seq++
	if _, seen := b.pending[etype]; !seen {
		b.order = append(b.order, etype)
	}
	b.pending[etype] = append(b.pending[etype], &Envelope{Event: event, Seq: b.seq})
	observing := len(b.observers) > 0
	if observing {
		b.metrics.Enqueued++
	}
	observers := b.observersLocked()
	b.mu.Unlock()

	for _, obs := range observers {
		obs.OnEnqueue(etype, event)
	}
}

// Subscribe registers handler for every future event of eventType. Handlers
// of one type run in subscription order.
func (b *Bus) Subscribe(eventType string, handler Handler) (Subscription, error) {
	if handler == nil {
		return nil, errors.New("nil handler")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	s := &subscription{bus: b, id: uuid.NewString(), eventType: eventType, handler: handler, active: true}
	s.cancel = func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.handlers[eventType]
		for i, other := range subs {
			if other == s {
				b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
		s.active = false
	}
	b.handlers[eventType] = append(b.handlers[eventType], s)
	return s, nil
}

// Listen subscribes a typed handler. E must be a value type whose zero value
// reports the routing type.
func Listen[E Event](b *Bus, fn func(event E, env *Envelope) error) Subscription {
	var zero E
	sub, _ := b.Subscribe(zero.Type(), func(env *Envelope) error {
		event, ok := env.Event.(E)
		if !ok {
			return nil
		}
		return fn(event, env)
	})
	return sub
}

// Unsubscribe cancels the given Subscription. It is safe to call with nil.
func (b *Bus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

// Dispatch delivers every event queued before the call and clears the queue.
// Handler errors are joined; delivery continues past failing handlers.
func (b *Bus) Dispatch() error {
	b.mu.Lock()
	if b.dispatching {
		b.mu.Unlock()
		return ErrReentrantDispatch
	}
	b.dispatching = true
	batch, order := b.pending, b.order
	b.pending = make(map[string][]*Envelope, len(batch))
	b.order = nil
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.dispatching = false
		b.mu.Unlock()
	}()

	var all error
	for _, etype := range order {
		envs := batch[etype]
		b.mu.Lock()
		subs := append([]*subscription(nil), b.handlers[etype]...)
		observers := b.observersLocked()
		b.mu.Unlock()

		for _, env := range envs {
			start := time.Now()
			var err error
			delivered := 0
			for _, s := range subs {
				if !b.active(s) {
					continue
				}
				delivered++
				if herr := s.handler(env); herr != nil {
					err = errors.Join(err, herr)
				}
			}
			if err != nil {
				all = errors.Join(all, err)
			}
			if len(observers) > 0 {
				dur := time.Since(start).Microseconds()
				for _, obs := range observers {
					obs.OnDelivered(etype, delivered, err, dur)
				}
				b.mu.Lock()
				b.metrics.Delivered++
				b.metrics.DeliveredHandlers += uint64(delivered)
				if err != nil {
					b.metrics.Errors++
				}
				b.mu.Unlock()
			}
		}
	}
	return all
}

func (b *Bus) active(s *subscription) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return s.active
}

// Discard drops everything still queued. Called at tick boundaries for
// events nobody dispatched.
func (b *Bus) Discard() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, envs := range b.pending {
		n += len(envs)
	}
	b.pending = make(map[string][]*Envelope)
	b.order = nil
	if len(b.observers) > 0 {
		b.metrics.Discarded += uint64(n)
	}
	return n
}

// Pending returns the number of queued events.
func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, envs := range b.pending {
		n += len(envs)
	}
	return n
}

func (b *Bus) AddObserver(obs Observer) {
	b.mu.Lock()
	b.observers[obs] = struct{}{}
	b.mu.Unlock()
}

func (b *Bus) RemoveObserver(obs Observer) {
	b.mu.Lock()
	delete(b.observers, obs)
	b.mu.Unlock()
}

// GetMetrics returns a snapshot of the counters; they only move while an
// observer is registered.
func (b *Bus) GetMetrics() Metrics {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.metrics
	var subs uint64
	for _, list := range b.handlers {
		subs += uint64(len(list))
	}
	m.SubscribersActive = subs
	return m
}

func (b *Bus) observersLocked() []Observer {
	if len(b.observers) == 0 {
		return nil
	}
	out := make([]Observer, 0, len(b.observers))
	for obs := range b.observers {
		out = append(out, obs)
	}
	return out
}
