package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/dormwatch/pkg/models"
)

func TestPause(t *testing.T) {
	assert.True(t, pause(context.Background(), time.Millisecond))
	assert.True(t, pause(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	assert.False(t, pause(ctx, time.Minute), "cancel interrupts the wait")
	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, pause(ctx, 0))
}

func TestSelectRooms(t *testing.T) {
	rooms := []models.Room{
		{ID: "R1", Enabled: true},
		{ID: "R2", Enabled: false},
		{ID: "R3", Enabled: true},
	}

	enabled, err := selectRooms(rooms, nil)
	require.NoError(t, err)
	require.Len(t, enabled, 2)
	assert.Equal(t, "R3", enabled[1].ID)

	named, err := selectRooms(rooms, []string{"R2", "R1"})
	require.NoError(t, err)
	require.Len(t, named, 2)
	assert.Equal(t, "R2", named[0].ID, "argument order kept, disabled rooms allowed")

	_, err = selectRooms(rooms, []string{"R9"})
	assert.Error(t, err)
}
