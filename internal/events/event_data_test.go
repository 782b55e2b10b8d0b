package events

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStatusData_EventType(t *testing.T) {
	tests := []struct {
		status   string
		expected EventType
	}{
		{"started", RunStarted},
		{"completed", RunCompleted},
		{"failed", RunFailed},
		{"skipped", RunSkipped},
		{"", RunStarted},
	}
	for _, tt := range tests {
		d := &RunStatusData{Status: tt.status}
		assert.Equal(t, tt.expected, d.EventType(), tt.status)
	}
}

func TestStageStatusData_EventType(t *testing.T) {
	assert.Equal(t, StageStarted, (&StageStatusData{Status: "started"}).EventType())
	assert.Equal(t, StageCompleted, (&StageStatusData{Status: "completed"}).EventType())
	assert.Equal(t, StageFailed, (&StageStatusData{Status: "failed"}).EventType())
	assert.Contains(t, AllTypes, StageFailed)

	raw, err := json.Marshal(Event{Type: StageFailed, Module: "pipeline", Data: &StageStatusData{RunID: "r1", Stage: "sample", Status: "failed", Error: "boom"}})
	require.NoError(t, err)

	var out Event
	require.NoError(t, json.Unmarshal(raw, &out))
	data, ok := out.Data.(*StageStatusData)
	require.True(t, ok)
	assert.Equal(t, "boom", data.Error)
}

func TestEvent_JSONRoundTrip(t *testing.T) {
	in := Event{
		Type:   RunFailed,
		Module: "pipeline",
		Data:   &RunStatusData{RunID: "abc", TradeDate: "20221109", Status: "failed", Stage: "sample", Error: "sample exhausted"},
	}

	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"stage":"sample"`)

	var out Event
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, RunFailed, out.Type)
	data, ok := out.Data.(*RunStatusData)
	require.True(t, ok)
	assert.Equal(t, "abc", data.RunID)
	assert.Equal(t, "sample", data.Stage)
}

func TestEvent_UnknownTypeFallsBackToGeneric(t *testing.T) {
	var out Event
	require.NoError(t, json.Unmarshal([]byte(`{"type":"SOMETHING","module":"x","data":{"a":1}}`), &out))

	data, ok := out.Data.(*GenericEventData)
	require.True(t, ok)
	assert.Equal(t, EventType("SOMETHING"), data.EventType())
	assert.Equal(t, float64(1), data.Data["a"])
}

func TestBus_SubscribeEmitUnsubscribe(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var mu sync.Mutex
	var got []*Event
	unsubscribe := bus.Subscribe(StageCompleted, func(e *Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e)
	})

	bus.Emit("pipeline", &StageStatusData{RunID: "r1", Stage: "breadth", Status: "completed"})
	bus.Emit("pipeline", &StageStatusData{RunID: "r1", Stage: "style", Status: "started"})

	require.Len(t, got, 1)
	assert.Equal(t, StageCompleted, got[0].Type)
	assert.Equal(t, "pipeline", got[0].Module)
	assert.False(t, got[0].Timestamp.IsZero())

	unsubscribe()
	bus.Emit("pipeline", &StageStatusData{Stage: "style", Status: "completed"})
	assert.Len(t, got, 1)
}

func TestBus_SubscribeAll(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var types []EventType
	unsubscribe := bus.SubscribeAll(func(e *Event) { types = append(types, e.Type) })

	bus.Emit("scheduler", &JobStatusData{JobName: "daily_report", Status: "started"})
	bus.EmitError("server", errors.New("boom"), nil)

	assert.Equal(t, []EventType{JobStarted, ErrorOccurred}, types)

	unsubscribe()
	bus.Emit("scheduler", &JobStatusData{Status: "completed"})
	assert.Len(t, types, 2)
}
