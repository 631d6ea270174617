package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	forbidden       uint64
	totalDurationMs uint64

	gateAllowed uint64
	gateDenied  uint64

	permissionChanges    uint64
	lastPermissionChange int64

	mu              sync.Mutex
	deniedByFeature map[string]uint64
}

func New() *Collector {
	return &Collector{deniedByFeature: map[string]uint64{}}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 403 {
		atomic.AddUint64(&c.forbidden, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// RecordGate counts one feature check made by the access gate.
func (c *Collector) RecordGate(feature string, allowed bool) {
	if allowed {
		atomic.AddUint64(&c.gateAllowed, 1)
		return
	}
	atomic.AddUint64(&c.gateDenied, 1)
	c.mu.Lock()
	c.deniedByFeature[feature]++
	c.mu.Unlock()
}

// RecordPermissionChange counts a committed change seen on the event channel,
// including ones made by other instances.
func (c *Collector) RecordPermissionChange(at time.Time) {
	atomic.AddUint64(&c.permissionChanges, 1)
	atomic.StoreInt64(&c.lastPermissionChange, at.UTC().Unix())
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	forbidden := atomic.LoadUint64(&c.forbidden)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}

	c.mu.Lock()
	keys := make([]string, 0, len(c.deniedByFeature))
	for k := range c.deniedByFeature {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	denied := make(map[string]uint64, len(keys))
	for _, k := range keys {
		denied[k] = c.deniedByFeature[k]
	}
	c.mu.Unlock()

	lastChange := ""
	if ts := atomic.LoadInt64(&c.lastPermissionChange); ts > 0 {
		lastChange = time.Unix(ts, 0).UTC().Format(time.RFC3339)
	}

	return map[string]any{
		"requestsTotal":       total,
		"errorsTotal":         errs,
		"forbiddenTotal":      forbidden,
		"avgDurationMs":       avg,
		"totalDurationMs":     totalMs,
		"gateAllowedTotal":    atomic.LoadUint64(&c.gateAllowed),
		"gateDeniedTotal":     atomic.LoadUint64(&c.gateDenied),
		"gateDeniedByFeature": denied,

		"permissionChangesObserved": atomic.LoadUint64(&c.permissionChanges),
		"lastPermissionChangeAt":    lastChange,
	}
}
