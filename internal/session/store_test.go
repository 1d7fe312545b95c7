package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Conceptual-Machines/bidrohi/internal/generator"
	"github.com/Conceptual-Machines/bidrohi/internal/presenter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateReturnsSameSession(t *testing.T) {
	store := NewStore(10, time.Minute)

	a := store.GetOrCreate("abc")
	b := store.GetOrCreate("abc")
	c := store.GetOrCreate("def")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, "abc", a.ID)
	assert.Equal(t, 2, store.Len())
}

func TestSessionsAreIsolated(t *testing.T) {
	store := NewStore(10, time.Minute)

	assert.Empty(t, store.GetOrCreate("one").Text())
	_, ok := store.Get("two")
	assert.False(t, ok)
}

func TestStoreEvictsOldest(t *testing.T) {
	store := NewStore(2, time.Minute)

	store.GetOrCreate("a")
	store.GetOrCreate("b")
	store.GetOrCreate("c")

	_, ok := store.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 2, store.Len())
}

func TestStoreExpiresSessions(t *testing.T) {
	store := NewStore(10, 20*time.Millisecond)
	store.GetOrCreate("a")

	require.Eventually(t, func() bool {
		_, ok := store.Get("a")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestStoreRemove(t *testing.T) {
	store := NewStore(0, 0)
	store.GetOrCreate("a")
	store.Remove("a")

	_, ok := store.Get("a")
	assert.False(t, ok)
}

func TestGetOrCreateConcurrent(t *testing.T) {
	store := NewStore(10, time.Minute)

	var wg sync.WaitGroup
	results := make([]interface{}, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = store.GetOrCreate("shared")
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

type blockingGenerator struct {
	started chan struct{}
	release chan struct{}
}

func (g *blockingGenerator) Generate(_ context.Context, _ generator.GenerationRequest) generator.Result {
	close(g.started)
	<-g.release
	return generator.Result{Text: "বল বীর"}
}

func TestEvictionKeepsActiveSession(t *testing.T) {
	store := NewStore(1, time.Minute)
	gen := &blockingGenerator{started: make(chan struct{}), release: make(chan struct{})}
	p := presenter.NewPresenter(gen, presenter.WithInterval(0))

	sess := store.GetOrCreate("a")
	done := make(chan presenter.Outcome, 1)
	go func() {
		done <- p.Run(context.Background(), sess, presenter.Input{SeedLine: "বল বীর", MaxTokens: 300}, &presenter.Transcript{})
	}()
	<-gen.started
	require.True(t, sess.Active())

	// "b" pushes "a" out of the cache while its cycle is still running
	store.GetOrCreate("b")

	got, ok := store.Get("a")
	require.True(t, ok)
	assert.Same(t, sess, got)

	again := store.GetOrCreate("a")
	assert.Same(t, sess, again)

	second := p.Run(context.Background(), again, presenter.Input{SeedLine: "x"}, &presenter.Transcript{})
	assert.ErrorIs(t, second.Err, presenter.ErrCycleActive)

	close(gen.release)
	outcome := <-done
	require.NoError(t, outcome.Err)
	assert.False(t, sess.Active())
}

func TestEvictionDropsIdleSession(t *testing.T) {
	store := NewStore(1, time.Minute)
	first := store.GetOrCreate("a")
	store.GetOrCreate("b")

	_, ok := store.Get("a")
	assert.False(t, ok)
	assert.NotSame(t, first, store.GetOrCreate("a"))
}
