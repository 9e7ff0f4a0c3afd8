package bot

// recentCache is a fixed-capacity FIFO of recently handled submission
// ids. It is a fast path that saves a durable-store lookup for
// submissions seen earlier in the same process lifetime; the store
// remains the source of truth across restarts.
type recentCache struct {
	ids      []string
	seen     map[string]struct{}
	capacity int
}

func newRecentCache(capacity int) *recentCache {
	return &recentCache{
		seen:     make(map[string]struct{}, capacity),
		capacity: capacity,
	}
}

func (c *recentCache) Contains(id string) bool {
	_, ok := c.seen[id]
	return ok
}

// Add appends id, evicting the oldest entries while over capacity.
// Re-adding a present id is a no-op so FIFO order is preserved.
func (c *recentCache) Add(id string) {
	if c.Contains(id) {
		return
	}

	c.ids = append(c.ids, id)
	c.seen[id] = struct{}{}

	for len(c.ids) > c.capacity {
		delete(c.seen, c.ids[0])
		c.ids = c.ids[1:]
	}
}

func (c *recentCache) Len() int {
	return len(c.ids)
}
