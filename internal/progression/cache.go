package progression

import (
	"sync"

	"github.com/sam-maryland/league-engine-mcp-server/internal/config"
	"github.com/sam-maryland/league-engine-mcp-server/internal/standings"
	"github.com/sirupsen/logrus"
)

// Cache memoizes Qualify for one standings generation. A result computed for an
// older generation is never returned.
type Cache struct {
	mu    sync.Mutex
	value *Qualification
}

// Get returns the qualification for the current standings, computing it when the
// cached value is missing or stale. The boolean reports a cache hit.
func (c *Cache) Get(st *standings.Standings, structure Structure, rules config.Rules, logger *logrus.Logger) (*Qualification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.value != nil && c.value.Generation == st.Generation() {
		return c.value, true
	}

	c.value = Qualify(st, structure, rules, logger)
	return c.value, false
}

// Invalidate drops the cached value
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = nil
}
