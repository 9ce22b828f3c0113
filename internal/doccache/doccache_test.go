package doccache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGet(t *testing.T) {
	c := New(0, 0)
	c.Put("u1", "hello")

	text, err := c.Get("u1")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	_, err = c.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReplace(t *testing.T) {
	c := New(10, time.Minute)
	c.Put("u1", "first")
	c.Put("u1", "second")
	text, err := c.Get("u1")
	require.NoError(t, err)
	assert.Equal(t, "second", text)
	assert.Equal(t, 1, c.Len())
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(3, time.Minute)
	for i := 0; i < 3; i++ {
		c.Put(fmt.Sprintf("u%d", i), "doc")
	}
	// touch u0 so u1 becomes the oldest
	_, err := c.Get("u0")
	require.NoError(t, err)

	c.Put("u3", "doc")
	assert.Equal(t, 3, c.Len())

	_, err = c.Get("u1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = c.Get("u0")
	assert.NoError(t, err)
}

func TestExpiry(t *testing.T) {
	c := New(10, 20*time.Millisecond)
	c.Put("u1", "doc")
	assert.Eventually(t, func() bool {
		_, err := c.Get("u1")
		return err == ErrNotFound
	}, time.Second, 10*time.Millisecond)
}

func TestDelete(t *testing.T) {
	c := New(10, time.Minute)
	c.Put("u1", "doc")
	c.Delete("u1")
	_, err := c.Get("u1")
	assert.ErrorIs(t, err, ErrNotFound)
}
