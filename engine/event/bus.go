package event

import (
	"sync"

	"github.com/gammazero/deque"
	"github.com/wooyang2018/govchain/common/metrics"
	"github.com/wooyang2018/govchain/contract/base"
	"github.com/wooyang2018/govchain/logger"
)

// AllEvents subscribes to every event name.
const AllEvents = "*"

type SubscriberId int

type HandlerFunc func(*base.Event)

// Bus delivers committed contract events to subscribers by event name.
// Publish delivers synchronously; PublishAsync queues the events and a single
// dispatcher goroutine delivers them in order.
type Bus struct {
	subscribers map[string]map[SubscriberId]HandlerFunc
	lastSubId   SubscriberId
	mu          sync.RWMutex
	log         logger.Logger
	metric      bool

	queue    deque.Deque
	queueMu  sync.Mutex
	notify   chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewBus(log logger.Logger, metric bool) *Bus {
	b := &Bus{
		subscribers: make(map[string]map[SubscriberId]HandlerFunc),
		log:         log,
		metric:      metric,
		notify:      make(chan struct{}, 1),
		stopCh:      make(chan struct{}),
	}
	b.wg.Add(1)
	go b.dispatch()
	return b
}

// SubscribeFunc registers fn for events called name, or every event for AllEvents.
func (b *Bus) SubscribeFunc(name string, fn HandlerFunc) SubscriberId {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastSubId++
	subId := b.lastSubId
	if _, ok := b.subscribers[name]; !ok {
		b.subscribers[name] = make(map[SubscriberId]HandlerFunc)
	}
	b.subscribers[name][subId] = fn
	return subId
}

func (b *Bus) Unsubscribe(name string, subId SubscriberId) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs, ok := b.subscribers[name]; ok {
		delete(subs, subId)
	}
}

// Publish delivers events to subscribers before returning.
func (b *Bus) Publish(evts ...*base.Event) {
	for _, evt := range evts {
		b.deliver(evt)
	}
}

// PublishAsync queues events for the dispatcher goroutine.
func (b *Bus) PublishAsync(evts ...*base.Event) {
	b.queueMu.Lock()
	for _, evt := range evts {
		b.queue.PushBack(evt)
	}
	b.queueMu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// Stop delivers the queued events and stops the dispatcher. It is idempotent.
func (b *Bus) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopCh)
	})
	b.wg.Wait()
}

func (b *Bus) dispatch() {
	defer b.wg.Done()
	for {
		select {
		case <-b.notify:
			b.drain()
		case <-b.stopCh:
			b.drain()
			return
		}
	}
}

func (b *Bus) drain() {
	for {
		b.queueMu.Lock()
		if b.queue.Len() == 0 {
			b.queueMu.Unlock()
			return
		}
		evt := b.queue.PopFront().(*base.Event)
		b.queueMu.Unlock()
		b.deliver(evt)
	}
}

func (b *Bus) deliver(evt *base.Event) {
	if b.metric {
		metrics.EventPublishCounter.WithLabelValues(evt.Name).Inc()
	}

	b.mu.RLock()
	handlers := make([]HandlerFunc, 0)
	for _, name := range []string{evt.Name, AllEvents} {
		for _, fn := range b.subscribers[name] {
			handlers = append(handlers, fn)
		}
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil && b.log != nil {
					b.log.Error("event handler panic", "event", evt.Name, "contract", evt.Contract, "panic", r)
				}
			}()
			fn(evt)
		}()
	}
}
