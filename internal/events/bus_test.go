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

func TestBus_SubscribeAndEmit(t *testing.T) {
	bus := NewBus()

	var got []*Event
	unsubscribe := bus.Subscribe(ItemCompleted, func(e *Event) {
		got = append(got, e)
	})

	bus.Emit("scanning", &ItemCompletedData{RunID: "r", Index: 2, Path: "a.png", EntropyScore: 0.4})
	bus.Emit("scanning", &ItemFailedData{RunID: "r"})

	require.Len(t, got, 1)
	assert.Equal(t, ItemCompleted, got[0].Type)
	assert.Equal(t, "scanning", got[0].Module)
	assert.False(t, got[0].Timestamp.IsZero())
	data, ok := got[0].Data.(*ItemCompletedData)
	require.True(t, ok)
	assert.Equal(t, 2, data.Index)

	unsubscribe()
	unsubscribe()
	bus.Emit("scanning", &ItemCompletedData{})
	assert.Len(t, got, 1)
	assert.Equal(t, 0, bus.Subscribers(ItemCompleted))
}

func TestBus_EmitNil(t *testing.T) {
	bus := NewBus()
	called := false
	bus.Subscribe(ScanStarted, func(*Event) { called = true })

	bus.Emit("x", nil)
	assert.False(t, called)
}

func TestBus_Concurrent(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	count := 0
	bus.Subscribe(ScanCompleted, func(*Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			bus.Emit("scanning", &ScanCompletedData{})
		}()
		go func() {
			defer wg.Done()
			unsub := bus.Subscribe(ScanStarted, func(*Event) {})
			unsub()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, count)
}

func TestEventData_Types(t *testing.T) {
	tests := []struct {
		data EventData
		want EventType
	}{
		{&ScanStartedData{}, ScanStarted},
		{&ItemCompletedData{}, ItemCompleted},
		{&ItemFailedData{}, ItemFailed},
		{&ScanCompletedData{}, ScanCompleted},
		{&BackupCompletedData{}, BackupCompleted},
		{&ErrorEventData{}, ErrorOccurred},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.data.EventType())
		assert.Contains(t, AllTypes, tt.want)
	}
}

func TestEvent_JSON(t *testing.T) {
	bus := NewBus()
	var captured *Event
	bus.Subscribe(ItemFailed, func(e *Event) { captured = e })

	bus.Emit("scanning", &ItemFailedData{RunID: "r", Path: "b.jpg", Stage: "Extracting", Kind: "IOError", Error: "boom"})
	require.NotNil(t, captured)

	raw, err := json.Marshal(captured)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "ITEM_FAILED", decoded["type"])
	data := decoded["data"].(map[string]interface{})
	assert.Equal(t, "Extracting", data["stage"])
}

func TestManager_Emit(t *testing.T) {
	bus := NewBus()
	manager := NewManager(bus, zerolog.New(nil).Level(zerolog.Disabled))
	assert.Same(t, bus, manager.Bus())

	var got *Event
	bus.Subscribe(ErrorOccurred, func(e *Event) { got = e })

	manager.EmitError("backup", errors.New("bucket missing"), map[string]interface{}{"bucket": "b"})
	require.NotNil(t, got)
	assert.Equal(t, "backup", got.Module)
	assert.Equal(t, "bucket missing", got.Data.(*ErrorEventData).Error)

	assert.NotPanics(t, func() {
		NewManager(nil, zerolog.New(nil).Level(zerolog.Disabled)).Emit("x", &ScanStartedData{})
	})
}
