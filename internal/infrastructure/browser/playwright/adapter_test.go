package playwright

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRemaining(t *testing.T) {
	_, ok := remaining(context.Background())
	assert.False(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ms, ok := remaining(ctx)
	assert.True(t, ok)
	assert.InDelta(t, 2000, ms, 200)

	expired, cancel2 := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel2()
	ms, ok = remaining(expired)
	assert.True(t, ok)
	assert.Equal(t, float64(1), ms)
}

func TestNewEngine_DefaultsActionTimeout(t *testing.T) {
	e := NewEngine(BrowserConfig{})
	assert.Equal(t, defaultActionTimeout, e.cfg.ActionTimeout)
}
