// Package selection holds the current-component selection read by the
// desktop menu.
package selection

import (
	"context"
	"net/http"
	"sync"
)

// Cell is a single-writer, multi-reader broadcast cell for the currently
// selected component source. Readers either poll Get or Subscribe to receive
// the latest value; slow subscribers only ever see the newest value.
type Cell struct {
	mu          sync.RWMutex
	src         string
	subscribers map[chan string]struct{}
}

// NewCell returns an empty cell.
func NewCell() *Cell {
	return &Cell{subscribers: make(map[chan string]struct{})}
}

// Get returns the current selection, or "" when nothing is selected.
func (c *Cell) Get() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.src
}

// Set replaces the selection and notifies subscribers.
func (c *Cell) Set(src string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.src == src {
		return
	}
	c.src = src
	for ch := range c.subscribers {
		publish(ch, src)
	}
}

// Clear empties the selection.
func (c *Cell) Clear() { c.Set("") }

// Subscribe returns a channel that receives the current value immediately and
// every later change. The channel is closed once ctx is done.
func (c *Cell) Subscribe(ctx context.Context) <-chan string {
	ch := make(chan string, 1)

	c.mu.Lock()
	if c.subscribers == nil {
		c.subscribers = make(map[chan string]struct{})
	}
	c.subscribers[ch] = struct{}{}
	ch <- c.src
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		c.mu.Lock()
		delete(c.subscribers, ch)
		close(ch)
		c.mu.Unlock()
	}()
	return ch
}

// publish delivers v without blocking, replacing an unread older value.
func publish(ch chan string, v string) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

type cellKey struct{}

// WithCell stores c on ctx.
func WithCell(ctx context.Context, c *Cell) context.Context {
	return context.WithValue(ctx, cellKey{}, c)
}

// FromContext returns the request's cell. A request without one gets a fresh
// empty cell so readers never need a nil check.
func FromContext(ctx context.Context) *Cell {
	if c, ok := ctx.Value(cellKey{}).(*Cell); ok && c != nil {
		return c
	}
	return NewCell()
}

// Middleware gives every request its own cell. Handlers that mount a
// component write to it; the layout reads it when rendering the menu.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithCell(r.Context(), NewCell())))
	})
}
