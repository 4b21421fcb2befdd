package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	_, ok := c.Get(ctx, "vehicle", "vehicle-1-10-{}")
	assert.False(t, ok)

	c.Set(ctx, "vehicle", "vehicle-1-10-{}", []byte(`{"docs":[]}`), 0)

	val, ok := c.Get(ctx, "vehicle", "vehicle-1-10-{}")
	assert.True(t, ok)
	assert.Equal(t, []byte(`{"docs":[]}`), val)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	base := time.Now()
	c.now = func() time.Time { return base }
	c.Set(ctx, "vehicle", "vehicle-1-10-{}", []byte("x"), time.Second)

	c.now = func() time.Time { return base.Add(2 * time.Second) }
	_, ok := c.Get(ctx, "vehicle", "vehicle-1-10-{}")
	assert.False(t, ok)
}

func TestMemoryRemoveModule(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	c.Set(ctx, "vehicle", "vehicle-1-10-{}", []byte("a"), 0)
	c.Set(ctx, "vehicle", "vehicle-2-10-{}", []byte("b"), 0)
	c.Set(ctx, "maintenance", "maintenance-1-10-{}", []byte("c"), 0)

	c.RemoveModule(ctx, "vehicle")

	_, ok := c.Get(ctx, "vehicle", "vehicle-1-10-{}")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "vehicle", "vehicle-2-10-{}")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "maintenance", "maintenance-1-10-{}")
	assert.True(t, ok)
}
