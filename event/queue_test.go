package event

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/dockbridge/core"
)

func TestQueueRoundsCapacity(t *testing.T) {
	assert.Equal(t, 64, NewEventQueue(50).Cap())
	assert.Equal(t, 64, NewEventQueue(64).Cap())
	assert.Equal(t, 2, NewEventQueue(0).Cap())
}

func TestQueueFIFO(t *testing.T) {
	q := NewEventQueue(8)
	for i := 1; i <= 5; i++ {
		require.True(t, EmitEntity(q, EventNodeAnchored, core.Entity(i), int64(i)))
	}
	assert.Equal(t, 5, q.Len())

	events := q.Consume()
	require.Len(t, events, 5)
	for i, ev := range events {
		e, ok := EntityOf(ev)
		require.True(t, ok)
		assert.Equal(t, core.Entity(i+1), e)
	}
	assert.Nil(t, q.Consume())
	assert.Zero(t, q.Len())
}

func TestQueueRejectsWhenFull(t *testing.T) {
	q := NewEventQueue(4)
	for i := 0; i < 4; i++ {
		require.True(t, EmitDock(q, EventDockFormed, 1, 2, 0))
	}
	assert.False(t, EmitDock(q, EventDockBroken, 1, 2, 0))
	assert.Equal(t, uint64(1), q.Dropped())

	events := q.Consume()
	require.Len(t, events, 4)
	for _, ev := range events {
		assert.Equal(t, EventDockFormed, ev.Type)
	}

	// Space is available again after consume
	assert.True(t, EmitDock(q, EventDockBroken, 1, 2, 0))
}

func TestQueueConcurrentProducers(t *testing.T) {
	q := NewEventQueue(1024)
	var wg sync.WaitGroup
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				EmitEntity(q, EventNodeAnchored, core.Entity(p*100+i+1), 0)
			}
		}(p)
	}
	wg.Wait()

	seen := make(map[core.Entity]bool)
	for _, ev := range q.Consume() {
		e, _ := EntityOf(ev)
		seen[e] = true
	}
	assert.Len(t, seen, 800)
	assert.Zero(t, q.Dropped())
}

func TestRegistryNames(t *testing.T) {
	et, ok := GetEventType("dockformed")
	require.True(t, ok)
	assert.Equal(t, EventDockFormed, et)
	assert.Equal(t, "NodeAnchored", EventNodeAnchored.String())

	p, ok := NewPayloadStruct(EventDockBroken).(*DockPayload)
	require.True(t, ok)
	assert.Zero(t, p.DockA)
	assert.Nil(t, NewPayloadStruct(EventNone))
}
