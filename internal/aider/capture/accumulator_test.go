package capture

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccumulator_TakeAdvancesCursor(t *testing.T) {
	acc := NewAccumulator()
	acc.Append("hello ")

	delta, all := acc.Take()
	assert.Equal(t, "hello ", delta)
	assert.Equal(t, "hello ", all)
	assert.Equal(t, 6, acc.Cursor())

	acc.Append("world")
	delta, all = acc.Unprocessed()
	assert.Equal(t, "world", delta)
	assert.Equal(t, "hello world", all)
	assert.Equal(t, 6, acc.Cursor(), "Unprocessed must not move the cursor")

	delta, _ = acc.Take()
	assert.Equal(t, "world", delta)

	delta, _ = acc.Take()
	assert.Empty(t, delta)
	assert.Equal(t, acc.Len(), acc.Cursor())
}

func TestAccumulator_Reset(t *testing.T) {
	acc := NewAccumulator()
	acc.Append("stale output")
	acc.Take()

	acc.Reset()

	assert.Equal(t, 0, acc.Len())
	assert.Equal(t, 0, acc.Cursor())
	assert.Empty(t, acc.String())
	select {
	case <-acc.Notify():
		t.Fatal("Reset should drain a pending wakeup")
	default:
	}
}

func TestAccumulator_EmptyAppendIgnored(t *testing.T) {
	acc := NewAccumulator()
	acc.Append("")

	assert.Equal(t, 0, acc.Len())
	select {
	case <-acc.Notify():
		t.Fatal("empty Append should not wake waiters")
	default:
	}
}

func TestAccumulator_NotifyCoalesces(t *testing.T) {
	acc := NewAccumulator()
	for range 5 {
		acc.Append("x")
	}

	select {
	case <-acc.Notify():
	default:
		t.Fatal("expected a wakeup after Append")
	}
	select {
	case <-acc.Notify():
		t.Fatal("wakeups should coalesce into one")
	default:
	}
	assert.Equal(t, "xxxxx", acc.String())
}

func TestAccumulator_ConcurrentAppend(t *testing.T) {
	acc := NewAccumulator()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				acc.Append("ab")
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 8*100*2, acc.Len())
	delta, all := acc.Take()
	assert.Equal(t, all, delta)
}
