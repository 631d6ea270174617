package metrics

import (
	"testing"
	"time"
)

func TestCollectorSnapshot(t *testing.T) {
	c := New()
	c.Record(200, 10*time.Millisecond)
	c.Record(403, 20*time.Millisecond)
	c.Record(500, 30*time.Millisecond)

	snap := c.Snapshot()
	if snap["requestsTotal"].(uint64) != 3 {
		t.Fatalf("expected 3 requests, got %v", snap["requestsTotal"])
	}
	if snap["errorsTotal"].(uint64) != 1 {
		t.Fatalf("expected 1 error, got %v", snap["errorsTotal"])
	}
	if snap["forbiddenTotal"].(uint64) != 1 {
		t.Fatalf("expected 1 forbidden, got %v", snap["forbiddenTotal"])
	}
	if snap["avgDurationMs"].(float64) != 20 {
		t.Fatalf("expected avg 20ms, got %v", snap["avgDurationMs"])
	}
}

func TestCollectorGateCounters(t *testing.T) {
	c := New()
	c.RecordGate("payroll", false)
	c.RecordGate("payroll", false)
	c.RecordGate("dashboard", true)

	snap := c.Snapshot()
	if snap["gateAllowedTotal"].(uint64) != 1 {
		t.Fatalf("unexpected allowed total %v", snap["gateAllowedTotal"])
	}
	if snap["gateDeniedTotal"].(uint64) != 2 {
		t.Fatalf("unexpected denied total %v", snap["gateDeniedTotal"])
	}
	denied := snap["gateDeniedByFeature"].(map[string]uint64)
	if denied["payroll"] != 2 {
		t.Fatalf("expected 2 payroll denials, got %v", denied)
	}
}

func TestCollectorPermissionChanges(t *testing.T) {
	c := New()
	if snap := c.Snapshot(); snap["lastPermissionChangeAt"] != "" {
		t.Fatalf("expected no change timestamp, got %v", snap["lastPermissionChangeAt"])
	}

	c.RecordPermissionChange(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))
	c.RecordPermissionChange(time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC))

	snap := c.Snapshot()
	if snap["permissionChangesObserved"].(uint64) != 2 {
		t.Fatalf("unexpected change count %v", snap["permissionChangesObserved"])
	}
	if snap["lastPermissionChangeAt"] != "2026-04-01T09:30:00Z" {
		t.Fatalf("unexpected last change %v", snap["lastPermissionChangeAt"])
	}
}
