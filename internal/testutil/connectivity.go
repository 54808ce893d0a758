package testutil

import (
	"context"
	"sync"
)

// StubConnectivity is a chordbook.Connectivity whose state the test sets.
type StubConnectivity struct {
	mu     sync.Mutex
	online bool
	checks int
	subs   map[int]func(bool)
	nextID int
}

func NewStubConnectivity(online bool) *StubConnectivity {
	return &StubConnectivity{online: online, subs: make(map[int]func(bool))}
}

func (c *StubConnectivity) CheckNow(context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks++
	return c.online
}

// Checks returns how many times CheckNow was called.
func (c *StubConnectivity) Checks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checks
}

func (c *StubConnectivity) Subscribe(fn func(online bool)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// Set changes the state and, if it differs from the previous one, notifies
// subscribers synchronously.
func (c *StubConnectivity) Set(online bool) {
	c.mu.Lock()
	if c.online == online {
		c.mu.Unlock()
		return
	}
	c.online = online
	fns := make([]func(bool), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(online)
	}
}
