package mcpd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCellEmpty(t *testing.T) {
	cell := newTTLCell[[]string](time.Minute)
	_, ok := cell.get()
	assert.False(t, ok)
}

func TestTTLCellServesFreshValue(t *testing.T) {
	cell := newTTLCell[[]string](time.Minute)
	cell.put([]string{"time"})
	got, ok := cell.get()
	assert.True(t, ok)
	assert.Equal(t, []string{"time"}, got)
}

func TestTTLCellExpires(t *testing.T) {
	cell := newTTLCell[int](time.Millisecond)
	cell.put(7)
	time.Sleep(5 * time.Millisecond)
	_, ok := cell.get()
	assert.False(t, ok)
}

func TestTTLCellInvalidate(t *testing.T) {
	cell := newTTLCell[int](time.Minute)
	cell.put(7)
	cell.invalidate()
	_, ok := cell.get()
	assert.False(t, ok)
}
