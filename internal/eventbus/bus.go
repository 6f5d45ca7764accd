package eventbus

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler consumes one envelope. Handlers of different subscribers run concurrently.
type Handler func(Envelope)

// Bus fans out published events to subscribers. Each subscriber has its own mailbox and consumer
// goroutine, so a slow subscriber never blocks publishers or other subscribers.
type Bus struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets a logger for delivery failures.
func WithLogger(l *zap.Logger) Option {
	return func(b *Bus) { b.logger = l }
}

// New creates an empty bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		subs:   make(map[*Subscription]struct{}),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish enqueues ev for every current subscriber and returns immediately.
// After Close, Publish drops the event and returns an envelope with a zero ID.
func (b *Bus) Publish(ev Event) Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return Envelope{Event: ev}
	}
	env := Envelope{ID: uuid.New(), PublishedAt: b.now(), Event: ev}
	for s := range b.subs {
		s.enqueue(env)
	}
	return env
}

// Subscribe registers h under name and starts its consumer goroutine.
// Subscribing to a closed bus returns a subscription that never delivers.
func (b *Bus) Subscribe(name string, h Handler) *Subscription {
	s := &Subscription{
		name:    name,
		bus:     b,
		handler: h,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		s.stopped = true
		close(s.done)
		return s
	}
	b.subs[s] = struct{}{}
	b.mu.Unlock()
	go s.run()
	return s
}

// Subscribers returns the number of active subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close unsubscribes everyone and rejects further publishes.
func (b *Bus) Close() {
	b.mu.Lock()
	b.closed = true
	subs := make([]*Subscription, 0, len(b.subs))
	for s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()
	for _, s := range subs {
		s.Unsubscribe()
	}
}

func (b *Bus) remove(s *Subscription) {
	b.mu.Lock()
	delete(b.subs, s)
	b.mu.Unlock()
}

// Subscription is one registered handler with its mailbox.
type Subscription struct {
	name    string
	bus     *Bus
	handler Handler

	mu      sync.Mutex
	queue   []Envelope
	stopped bool
	wake    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// Name returns the name the subscription was registered with.
func (s *Subscription) Name() string {
	return s.name
}

func (s *Subscription) enqueue(env Envelope) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, env)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription) run() {
	defer close(s.done)
	for {
		s.mu.Lock()
		if s.stopped {
			s.mu.Unlock()
			return
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			<-s.wake
			continue
		}
		env := s.queue[0]
		s.queue[0] = Envelope{}
		s.queue = s.queue[1:]
		s.mu.Unlock()
		s.deliver(env)
	}
}

func (s *Subscription) deliver(env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			s.bus.logger.Error("event handler panicked",
				zap.String("subscriber", s.name),
				zap.String("event", Name(env.Event)),
				zap.String("event_id", env.ID.String()),
				zap.Any("panic", r))
		}
	}()
	s.handler(env)
}

// Unsubscribe stops delivery and waits for an in-flight handler to return.
// Envelopes still queued are dropped. Calling it more than once is safe.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.bus.remove(s)
		s.mu.Lock()
		s.stopped = true
		s.queue = nil
		s.mu.Unlock()
		select {
		case s.wake <- struct{}{}:
		default:
		}
	})
	<-s.done
}
