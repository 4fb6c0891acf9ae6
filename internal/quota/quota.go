// Package quota counts usage against plan limits.
package quota

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// ProjectCounter counts the projects a user owns
type ProjectCounter interface {
	Count(ctx context.Context, userID string) (int, error)
}

// Meter counts external API calls per user per calendar month (UTC).
// Counts live in memory and expire after the month ends.
type Meter struct {
	mu    sync.Mutex
	cache *cache.Cache
	now   func() time.Time
}

// meterRetention keeps a month's counts slightly past the longest month
const meterRetention = 32 * 24 * time.Hour

// NewMeter creates an empty Meter
func NewMeter() *Meter {
	return &Meter{
		cache: cache.New(meterRetention, time.Hour),
		now:   time.Now,
	}
}

func (m *Meter) key(userID string) string {
	return userID + "|" + m.now().UTC().Format("2006-01")
}

// Used returns the calls userID made this month
func (m *Meter) Used(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.used(m.key(userID))
}

func (m *Meter) used(key string) int {
	if v, ok := m.cache.Get(key); ok {
		return v.(int)
	}
	return 0
}

// Consume increments userID's count if allow(current) is true.
// It returns the count before the call and whether it was consumed.
func (m *Meter) Consume(userID string, allow func(current int) bool) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := m.key(userID)
	current := m.used(key)
	if !allow(current) {
		return current, false
	}
	m.cache.Set(key, current+1, cache.DefaultExpiration)
	return current, true
}

// Reset clears userID's count for this month
func (m *Meter) Reset(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Delete(m.key(userID))
}
