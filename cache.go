package stache

import (
	"context"
	"sync"

	"github.com/hashicorp/stache/events"
)

// RequestCache memoizes remote fetches by URL for the life of a Session.
// Entries are never evicted.
type RequestCache struct {
	sync.Mutex

	fetcher Fetcher
	event   events.EventHandler

	// entries maps a URL to its pending or completed fetch.
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	done chan struct{}
	resp *Response
	err  error
}

// NewRequestCache creates an empty cache in front of the given fetcher.
func NewRequestCache(f Fetcher, eh events.EventHandler) *RequestCache {
	if eh == nil {
		eh = func(events.Event) {}
	}
	return &RequestCache{
		fetcher: f,
		event:   eh,
		entries: make(map[string]*cacheEntry),
	}
}

// Fetch returns the response for url. The first caller registers the entry
// before fetching, so concurrent and later callers share its outcome and the
// fetcher is called at most once per URL.
//
// The fetch is detached from the cancellation of the caller that started it.
// A caller whose ctx ends stops waiting, but the stored outcome is the one the
// fetcher produced.
func (c *RequestCache) Fetch(ctx context.Context, url string) (*Response, error) {
	c.Lock()
	e, ok := c.entries[url]
	if !ok {
		e = &cacheEntry{done: make(chan struct{})}
		c.entries[url] = e
	}
	c.Unlock()

	if ok {
		c.event(events.Trace{ID: url, Message: "request cache hit"})
	} else {
		c.event(events.FetchStart{URL: url})
		go func() {
			defer close(e.done)
			e.resp, e.err = c.fetcher.Fetch(context.WithoutCancel(ctx), url)
		}()
	}

	select {
	case <-e.done:
		return e.resp, e.err
	case <-ctx.Done():
		return nil, newError(ErrTransport, url, "%w", ctx.Err())
	}
}

// Len returns the number of URLs seen.
func (c *RequestCache) Len() int {
	c.Lock()
	defer c.Unlock()
	return len(c.entries)
}
