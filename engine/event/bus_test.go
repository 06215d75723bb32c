package event

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wooyang2018/govchain/contract/base"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPublishSync(t *testing.T) {
	bus := NewBus(nil, false)
	defer bus.Stop()

	var got []string
	bus.SubscribeFunc("Deposit", func(evt *base.Event) {
		got = append(got, "deposit:"+evt.Contract)
	})
	bus.SubscribeFunc(AllEvents, func(evt *base.Event) {
		got = append(got, "all:"+evt.Name)
	})
	id := bus.SubscribeFunc("Withdraw", func(evt *base.Event) {
		got = append(got, "withdraw")
	})
	bus.Unsubscribe("Withdraw", id)

	bus.Publish(&base.Event{Contract: "governor", Name: "Deposit"}, &base.Event{Contract: "governor", Name: "Withdraw"})
	assert.ElementsMatch(t, []string{"deposit:governor", "all:Deposit", "all:Withdraw"}, got)
}

func TestPublishAsyncOrder(t *testing.T) {
	bus := NewBus(nil, false)

	var mu sync.Mutex
	var names []string
	bus.SubscribeFunc(AllEvents, func(evt *base.Event) {
		mu.Lock()
		names = append(names, evt.Name)
		mu.Unlock()
	})
	bus.PublishAsync(&base.Event{Name: "a"}, &base.Event{Name: "b"})
	bus.PublishAsync(&base.Event{Name: "c"})
	bus.Stop()
	bus.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"a", "b", "c"}, names)
}

func TestHandlerPanicIsContained(t *testing.T) {
	bus := NewBus(nil, false)
	defer bus.Stop()

	called := false
	bus.SubscribeFunc("x", func(evt *base.Event) { panic("boom") })
	bus.SubscribeFunc(AllEvents, func(evt *base.Event) { called = true })
	bus.Publish(&base.Event{Name: "x"})
	assert.True(t, called)
}
