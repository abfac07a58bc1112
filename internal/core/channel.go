package core

import "sync"

// Channel is an open broadcast group. Any registered participant may join
// or leave; there is no moderator. A channel record survives its last
// member leaving so the name stays a stable join target.
type Channel struct {
	Name string

	mu      sync.Mutex
	members map[string]struct{}
}

func newChannel(name string) *Channel {
	return &Channel{
		Name:    name,
		members: make(map[string]struct{}),
	}
}

// Join adds a participant. Returns true if newly added.
func (c *Channel) Join(participant string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.members[participant]; exists {
		return false
	}
	c.members[participant] = struct{}{}
	return true
}

// Leave removes a participant. Returns true if removed.
func (c *Channel) Leave(participant string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.members[participant]; !exists {
		return false
	}
	delete(c.members, participant)
	return true
}

// Members returns a snapshot of member names.
func (c *Channel) Members() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.members))
	for name := range c.members {
		names = append(names, name)
	}
	return names
}

// memberSet returns a copied member set for dispatch snapshots.
func (c *Channel) memberSet() map[string]struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	set := make(map[string]struct{}, len(c.members))
	for name := range c.members {
		set[name] = struct{}{}
	}
	return set
}

// channelTable indexes channels by name, creating records on first join.
type channelTable struct {
	mu       sync.RWMutex
	channels map[string]*Channel
}

func newChannelTable() *channelTable {
	return &channelTable{channels: make(map[string]*Channel)}
}

func (t *channelTable) getOrCreate(name string) *Channel {
	t.mu.RLock()
	ch, ok := t.channels[name]
	t.mu.RUnlock()
	if ok {
		return ch
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if ch, ok := t.channels[name]; ok {
		return ch
	}
	ch = newChannel(name)
	t.channels[name] = ch
	return ch
}

func (t *channelTable) get(name string) (*Channel, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ch, ok := t.channels[name]
	return ch, ok
}
