package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := New[int](2)
	ch := bus.Subscribe()
	bus.Publish(7)
	assert.Equal(t, 7, <-ch)
	bus.Unsubscribe(ch)
	_, ok := <-ch
	assert.False(t, ok)
}

func TestBusDropsWhenFull(t *testing.T) {
	bus := New[string](1)
	ch := bus.Subscribe()
	bus.Publish("a")
	bus.Publish("b")
	assert.Equal(t, "a", <-ch)
	select {
	case v := <-ch:
		t.Fatalf("unexpected event %q", v)
	default:
	}
}

func TestBusClose(t *testing.T) {
	bus := New[int](0)
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	bus.Close()
	_, ok := <-ch1
	assert.False(t, ok)
	_, ok = <-ch2
	assert.False(t, ok)

	late := bus.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
	assert.NotPanics(t, func() { bus.Unsubscribe(ch1); bus.Publish(1) })
}
