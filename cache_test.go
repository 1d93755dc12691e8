package stache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/stache/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// fakeFetcher counts calls per URL. When gate is set every call blocks until
// it is closed or ctx ends.
type fakeFetcher struct {
	sync.Mutex
	calls map[string]int
	gate  chan struct{}
	err   error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{calls: make(map[string]int)}
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*Response, error) {
	f.Lock()
	f.calls[url]++
	gate := f.gate
	f.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &Response{Body: "body of " + url, ContentType: "text/plain"}, nil
}

func (f *fakeFetcher) Calls(url string) int {
	f.Lock()
	defer f.Unlock()
	return f.calls[url]
}

func TestRequestCache(t *testing.T) {
	t.Run("sequential", func(t *testing.T) {
		f := newFakeFetcher()
		var started, hits []string
		c := NewRequestCache(f, func(e events.Event) {
			switch e := e.(type) {
			case events.FetchStart:
				started = append(started, e.URL)
			case events.Trace:
				hits = append(hits, e.ID)
			}
		})

		for i := 0; i < 3; i++ {
			resp, err := c.Fetch(context.Background(), "http://a")
			require.NoError(t, err)
			assert.Equal(t, "body of http://a", resp.Body)
		}
		assert.Equal(t, 1, f.Calls("http://a"))
		assert.Equal(t, []string{"http://a"}, started)
		assert.Equal(t, []string{"http://a", "http://a"}, hits)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("concurrent", func(t *testing.T) {
		f := newFakeFetcher()
		f.gate = make(chan struct{})
		c := NewRequestCache(f, nil)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				resp, err := c.Fetch(context.Background(), "http://a")
				assert.NoError(t, err)
				assert.Equal(t, "body of http://a", resp.Body)
			}()
		}
		close(f.gate)
		wg.Wait()
		assert.Equal(t, 1, f.Calls("http://a"))
	})

	t.Run("errors_are_cached", func(t *testing.T) {
		f := newFakeFetcher()
		f.err = newError(ErrTransport, "http://a", "boom")
		c := NewRequestCache(f, nil)

		_, err1 := c.Fetch(context.Background(), "http://a")
		_, err2 := c.Fetch(context.Background(), "http://a")
		assert.ErrorIs(t, err1, ErrTransport)
		assert.Equal(t, err1, err2)
		assert.Equal(t, 1, f.Calls("http://a"))
	})

	t.Run("waiter_context_done", func(t *testing.T) {
		f := newFakeFetcher()
		f.gate = make(chan struct{})
		defer close(f.gate)
		c := NewRequestCache(f, nil)

		go c.Fetch(context.Background(), "http://a")
		require.Eventually(t, func() bool { return f.Calls("http://a") == 1 },
			time.Second, time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.Fetch(ctx, "http://a")
		assert.ErrorIs(t, err, ErrTransport)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("starter_context_done", func(t *testing.T) {
		f := newFakeFetcher()
		f.gate = make(chan struct{})
		c := NewRequestCache(f, nil)

		ctx, cancel := context.WithCancel(context.Background())
		errc := make(chan error, 1)
		go func() {
			_, err := c.Fetch(ctx, "http://a")
			errc <- err
		}()
		require.Eventually(t, func() bool { return f.Calls("http://a") == 1 },
			time.Second, time.Millisecond)

		cancel()
		err := <-errc
		assert.ErrorIs(t, err, ErrTransport)
		assert.ErrorIs(t, err, context.Canceled)

		// the fetch outlives the caller that started it
		close(f.gate)
		resp, err := c.Fetch(context.Background(), "http://a")
		require.NoError(t, err)
		assert.Equal(t, "body of http://a", resp.Body)
		assert.Equal(t, 1, f.Calls("http://a"))
	})
}

func TestRequestCacheDedup(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		urls := rapid.SliceOfN(rapid.IntRange(0, 5), 1, 30).Draw(t, "urls")

		f := newFakeFetcher()
		c := NewRequestCache(f, nil)
		var wg sync.WaitGroup
		for _, u := range urls {
			wg.Add(1)
			go func(u int) {
				defer wg.Done()
				c.Fetch(context.Background(), fmt.Sprintf("http://h/%d", u))
			}(u)
		}
		wg.Wait()

		for _, u := range urls {
			if n := f.Calls(fmt.Sprintf("http://h/%d", u)); n != 1 {
				t.Fatalf("url %d fetched %d times", u, n)
			}
		}
	})
}
