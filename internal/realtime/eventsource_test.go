package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(table string, op Op, row string) Event {
	return Event{Table: table, Op: op, Row: json.RawMessage(row)}
}

func TestMemoryEventSource_DispatchByTableAndOp(t *testing.T) {
	src := NewMemoryEventSource()

	var inserts, updates []Event
	_, err := src.Subscribe("invitations", "all", nil,
		func(ev Event) { inserts = append(inserts, ev) },
		func(ev Event) { updates = append(updates, ev) },
	)
	require.NoError(t, err)

	src.Emit(event("invitations", OpInsert, `{"id":"1"}`))
	src.Emit(event("invitations", OpUpdate, `{"id":"1"}`))
	src.Emit(event("other_table", OpInsert, `{"id":"2"}`))

	assert.Len(t, inserts, 1)
	assert.Len(t, updates, 1)
}

func TestMemoryEventSource_FilterGatesDelivery(t *testing.T) {
	src := NewMemoryEventSource()

	type row struct {
		UserID string `json:"user_id"`
	}
	filter := func(ev Event) bool {
		var r row
		if err := json.Unmarshal(ev.Row, &r); err != nil {
			return false
		}
		return r.UserID == "alice"
	}

	var got []Event
	_, err := src.Subscribe("notifications", "user=alice", filter,
		func(ev Event) { got = append(got, ev) }, nil)
	require.NoError(t, err)

	src.Emit(event("notifications", OpInsert, `{"user_id":"alice"}`))
	src.Emit(event("notifications", OpInsert, `{"user_id":"bob"}`))
	src.Emit(event("notifications", OpInsert, `not json`))

	assert.Len(t, got, 1)
}

func TestMemoryEventSource_ResubscribeReplaces(t *testing.T) {
	src := NewMemoryEventSource()

	var first, second int
	_, err := src.Subscribe("invitations", "user=alice", nil,
		func(Event) { first++ }, nil)
	require.NoError(t, err)

	// same (table, filterKey): the newcomer takes over the slot
	_, err = src.Subscribe("invitations", "user=alice", nil,
		func(Event) { second++ }, nil)
	require.NoError(t, err)

	src.Emit(event("invitations", OpInsert, `{}`))
	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
}

func TestMemoryEventSource_DistinctFilterKeysCoexist(t *testing.T) {
	src := NewMemoryEventSource()

	var alice, bob int
	_, err := src.Subscribe("invitations", "user=alice", nil, func(Event) { alice++ }, nil)
	require.NoError(t, err)
	_, err = src.Subscribe("invitations", "user=bob", nil, func(Event) { bob++ }, nil)
	require.NoError(t, err)

	src.Emit(event("invitations", OpInsert, `{}`))
	assert.Equal(t, 1, alice)
	assert.Equal(t, 1, bob)
}

func TestMemoryEventSource_UnsubscribeIsIdempotent(t *testing.T) {
	src := NewMemoryEventSource()

	var calls int
	unsub, err := src.Subscribe("invitations", "all", nil, func(Event) { calls++ }, nil)
	require.NoError(t, err)

	unsub()
	unsub()

	src.Emit(event("invitations", OpInsert, `{}`))
	assert.Equal(t, 0, calls)
}

func TestMemoryEventSource_UnsubscribeAfterReplacementKeepsNewcomer(t *testing.T) {
	src := NewMemoryEventSource()

	unsubOld, err := src.Subscribe("invitations", "user=alice", nil, func(Event) {}, nil)
	require.NoError(t, err)

	var calls int
	_, err = src.Subscribe("invitations", "user=alice", nil, func(Event) { calls++ }, nil)
	require.NoError(t, err)

	// stale handle must not tear down the replacement
	unsubOld()
	src.Emit(event("invitations", OpInsert, `{}`))
	assert.Equal(t, 1, calls)
}

func TestMemoryEventSource_Resync(t *testing.T) {
	src := NewMemoryEventSource()

	var resyncs int
	src.OnResync(func() { resyncs++ })
	src.OnResync(func() { resyncs++ })

	src.Resync()
	assert.Equal(t, 2, resyncs)
}
