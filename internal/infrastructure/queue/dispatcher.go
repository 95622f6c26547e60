package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/zyborn/auction-api/internal/api/metrics"
	"github.com/zyborn/auction-api/internal/core/domain"
	"github.com/zyborn/auction-api/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

type subscription struct {
	prefix string
	fn     ports.EventHandler
}

// Dispatcher is the in-process event bus. Events are routed to a fixed set of
// workers by consistent hashing on Event.Key, so subscribers see the events of
// one item (or one user) in publish order.
type Dispatcher struct {
	workers []chan domain.Event
	log     zerolog.Logger

	mu     sync.RWMutex
	subs   map[uint64]subscription
	nextID uint64
}

var _ ports.EventBus = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.Event, numWorkers),
		log:     log,
		subs:    make(map[uint64]subscription),
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Event, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Publish hands the event to the worker responsible for its key. It blocks
// only when that worker's buffer is full, and gives up when ctx is done.
func (d *Dispatcher) Publish(ctx context.Context, event domain.Event) error {
	idx := d.shardIndex(event.Key)
	select {
	case d.workers[idx] <- event:
		metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers fn for every event whose type starts with prefix.
func (d *Dispatcher) Subscribe(prefix string, fn ports.EventHandler) (unsubscribe func()) {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.subs[id] = subscription{prefix: prefix, fn: fn}
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.subs, id)
			d.mu.Unlock()
		})
	}
}

// shardIndex maps a key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) matching(t domain.EventType) []ports.EventHandler {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var fns []ports.EventHandler
	for _, s := range d.subs {
		if strings.HasPrefix(string(t), s.prefix) {
			fns = append(fns, s.fn)
		}
	}
	return fns
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Event) {
	depth := metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			for _, fn := range d.matching(event.Type) {
				d.deliver(ctx, id, fn, event)
			}
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, id int, fn ports.EventHandler, event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().
				Interface("panic", r).
				Str("type", string(event.Type)).
				Str("key", event.Key).
				Int("worker_id", id).
				Msg("event subscriber panicked")
		}
	}()
	fn(ctx, event)
	metrics.EventsDeliveredTotal.WithLabelValues(string(event.Type)).Inc()
}
