package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscribePublishOrder(t *testing.T) {
	var e Event[int]
	var order []int
	e.Subscribe(func(v int) { order = append(order, v*10+1) })
	e.Subscribe(func(v int) { order = append(order, v*10+2) })

	e.Publish(3)

	assert.Equal(t, []int{31, 32}, order)
}

func TestDroppedHandlerNotInvoked(t *testing.T) {
	var e Event[int]
	calls := 0
	h := e.Subscribe(func(int) { calls++ })
	h.Drop()

	e.Publish(1)

	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, e.Len())
}

func TestHandlerDroppingItselfDuringDispatchIsSafe(t *testing.T) {
	var e Event[int]
	calls := 0
	var h *Handler[int]
	h = e.Subscribe(func(int) {
		calls++
		h.Drop()
	})
	e.Subscribe(func(int) { calls++ })

	e.Publish(1)
	assert.Equal(t, 2, calls)

	e.Publish(1)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 1, e.Len())
}

func TestClearInvalidatesOutstandingHandlers(t *testing.T) {
	var e Event[int]
	calls := 0
	h := e.Subscribe(func(int) { calls++ })

	e.Clear()
	h.Drop() // must be a safe no-op post-clear
	e.Publish(1)

	assert.Equal(t, 0, calls)
}
