package pool

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"mercator-hq/ganymede/pkg/quota"
	"mercator-hq/ganymede/pkg/storage"
	"mercator-hq/ganymede/pkg/telemetry/logging"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestPool builds a pool with a controllable clock. Mutating *now
// between calls moves the pool's view of time.
func newTestPool(t *testing.T, keys []string, limit int, now *time.Time) *Pool {
	t.Helper()
	p, err := New(Config{
		Keys:       keys,
		DailyLimit: limit,
		Logger:     testLogger(),
		NowFunc:    func() time.Time { return *now },
	})
	if err != nil {
		t.Fatalf("Failed to create pool: %v", err)
	}
	return p
}

// ============================================================================
// Construction Tests
// ============================================================================

func TestNew_RequiresKeys(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("Expected error for empty key list")
	}
	if _, err := New(Config{Keys: []string{"good", ""}}); err == nil {
		t.Error("Expected error for empty key")
	}
}

func TestNew_DefaultLimit(t *testing.T) {
	now := time.Now()
	p := newTestPool(t, []string{"key-a"}, 0, &now)

	snap := p.StatusSnapshot()
	if snap.Keys[0].Limit != quota.DefaultDailyLimit {
		t.Errorf("Expected default limit %d, got %d", quota.DefaultDailyLimit, snap.Keys[0].Limit)
	}
}

// ============================================================================
// Selection and Rotation Tests
// ============================================================================

func TestCurrent_ReturnsFirstKey(t *testing.T) {
	now := time.Now()
	p := newTestPool(t, []string{"key-a", "key-b"}, 1000, &now)

	cred, ok := p.Current()
	if !ok {
		t.Fatal("Expected a usable credential")
	}
	if cred.Index != 0 || cred.Key != "key-a" {
		t.Errorf("Expected key-a at index 0, got %q at %d", cred.Key, cred.Index)
	}
}

func TestCurrent_SkipsIneligible(t *testing.T) {
	now := time.Now()
	p := newTestPool(t, []string{"key-a", "key-b", "key-c"}, 100, &now)

	// Exhaust key 0 and disable key 1.
	p.ClassifyAndHandle(0, "quotaExceeded", "search.list")
	p.ClassifyAndHandle(1, "API key not valid. Please pass a valid API key.", "search.list")

	cred, ok := p.Current()
	if !ok {
		t.Fatal("Expected key-c to still be usable")
	}
	if cred.Index != 2 {
		t.Errorf("Expected selection to land on index 2, got %d", cred.Index)
	}
}

func TestRotate_VisitsEveryKeyOnce(t *testing.T) {
	now := time.Now()
	keys := []string{"key-a", "key-b", "key-c", "key-d"}
	p := newTestPool(t, keys, 1000, &now)

	seen := map[int]bool{}
	cred, ok := p.Current()
	if !ok {
		t.Fatal("Expected a usable credential")
	}
	seen[cred.Index] = true

	for i := 1; i < len(keys); i++ {
		cred, ok = p.Rotate()
		if !ok {
			t.Fatalf("Rotation %d failed with eligible keys remaining", i)
		}
		if seen[cred.Index] {
			t.Fatalf("Rotation revisited index %d before completing a full cycle", cred.Index)
		}
		seen[cred.Index] = true
	}
	if len(seen) != len(keys) {
		t.Errorf("Expected all %d keys visited, got %d", len(keys), len(seen))
	}

	// One more rotation wraps back to the start.
	cred, ok = p.Rotate()
	if !ok || cred.Index != 0 {
		t.Errorf("Expected wrap-around to index 0, got %d (ok=%v)", cred.Index, ok)
	}
}

func TestRotate_AllIneligible(t *testing.T) {
	now := time.Now()
	p := newTestPool(t, []string{"key-a", "key-b"}, 100, &now)

	p.ClassifyAndHandle(0, "quotaExceeded", "search.list")
	p.ClassifyAndHandle(1, "dailyLimitExceeded", "search.list")

	if _, ok := p.Rotate(); ok {
		t.Error("Expected rotation to fail with every key exhausted")
	}
	if _, ok := p.Current(); ok {
		t.Error("Expected no usable credential with every key exhausted")
	}
}

// ============================================================================
// Accounting Tests
// ============================================================================

func TestRecordCall_ChargesOnSuccess(t *testing.T) {
	now := time.Now()
	p := newTestPool(t, []string{"key-a"}, 1000, &now)

	for i := 0; i < 9; i++ {
		p.RecordCall(0, "search.list", 100, true, "")
	}

	snap := p.StatusSnapshot()
	if snap.Keys[0].Used != 900 {
		t.Errorf("Expected 900 units used, got %d", snap.Keys[0].Used)
	}
	if !snap.Keys[0].IsWarning {
		t.Error("Expected warning at 90% usage")
	}
	if snap.Keys[0].IsExceeded {
		t.Error("Expected key not yet exceeded at 90%")
	}

	p.RecordCall(0, "search.list", 100, true, "")
	snap = p.StatusSnapshot()
	if !snap.Keys[0].IsExceeded {
		t.Error("Expected key exceeded at 100% usage")
	}
	if _, ok := p.Current(); ok {
		t.Error("Expected sole exhausted key to be unusable")
	}
}

func TestRecordCall_FailureNotCharged(t *testing.T) {
	now := time.Now()
	p := newTestPool(t, []string{"key-a"}, 1000, &now)

	p.RecordCall(0, "videos.list", 1, false, "timeout awaiting response")

	snap := p.StatusSnapshot()
	if snap.Keys[0].Used != 0 {
		t.Errorf("Expected failed call to charge nothing, got %d", snap.Keys[0].Used)
	}
	if snap.TotalCallsToday != 1 {
		t.Errorf("Expected failed call in history, got %d records", snap.TotalCallsToday)
	}
}

func TestRecordCall_MasksKeyMaterialInErrorText(t *testing.T) {
	now := time.Now()
	key := "AIzaSyExampleSecretKey123"
	p := newTestPool(t, []string{key}, 1000, &now)

	p.RecordCall(0, "search.list", 0, false,
		"403 Forbidden: request to /search?key="+key+" rejected")

	records := p.Statistics(0)
	if records.FailedCalls != 1 {
		t.Fatalf("Expected 1 failed call recorded, got %d", records.FailedCalls)
	}

	stored := ""
	p.mu.Lock()
	for _, rec := range p.history.Records() {
		stored = rec.ErrorMessage
	}
	p.mu.Unlock()

	if strings.Contains(stored, key) {
		t.Errorf("Expected key material masked in stored error, got %q", stored)
	}
	if !strings.Contains(stored, logging.MaskKey(key)) {
		t.Errorf("Expected masked key form in stored error, got %q", stored)
	}
}

func TestRecordCall_OutOfRangeIgnored(t *testing.T) {
	now := time.Now()
	p := newTestPool(t, []string{"key-a"}, 1000, &now)

	p.RecordCall(-1, "search.list", 100, true, "")
	p.RecordCall(5, "search.list", 100, true, "")

	if snap := p.StatusSnapshot(); snap.TotalCallsToday != 0 {
		t.Errorf("Expected out-of-range records to be dropped, got %d", snap.TotalCallsToday)
	}
}

// ============================================================================
// Error Handling Tests
// ============================================================================

func TestClassifyAndHandle_DailyQuota(t *testing.T) {
	now := time.Now()
	p := newTestPool(t, []string{"key-a", "key-b"}, 1000, &now)

	kind, msg := p.ClassifyAndHandle(0, "quotaExceeded: daily quota exhausted", "search.list")
	if kind != quota.KindDailyQuotaExceeded {
		t.Errorf("Expected daily quota kind, got %v", kind)
	}
	if !strings.Contains(msg, "daily API quota") {
		t.Errorf("Expected a daily quota message, got %q", msg)
	}

	snap := p.StatusSnapshot()
	if snap.Keys[0].Used != snap.Keys[0].Limit {
		t.Errorf("Expected used pinned to limit, got %d/%d", snap.Keys[0].Used, snap.Keys[0].Limit)
	}

	cred, ok := p.Rotate()
	if !ok || cred.Index != 1 {
		t.Errorf("Expected rotation to key 1 after exhaustion, got %d (ok=%v)", cred.Index, ok)
	}
}

func TestClassifyAndHandle_InvalidKeyDisables(t *testing.T) {
	now := time.Now()
	p := newTestPool(t, []string{"key-a", "key-b"}, 1000, &now)

	kind, msg := p.ClassifyAndHandle(0, "403 Forbidden: keyInvalid", "search.list")
	if kind != quota.KindKeyInvalid {
		t.Errorf("Expected invalid key kind, got %v", kind)
	}
	if !strings.Contains(msg, "administrator") {
		t.Errorf("Expected an operator-facing message, got %q", msg)
	}

	snap := p.StatusSnapshot()
	if !snap.Keys[0].Disabled {
		t.Error("Expected key 0 to be disabled")
	}

	// A disabled key stays disabled across the daily reset.
	now = now.Add(48 * time.Hour)
	snap = p.StatusSnapshot()
	if !snap.Keys[0].Disabled {
		t.Error("Expected invalid key to stay disabled after reset")
	}
	if snap.Keys[1].Disabled {
		t.Error("Expected key 1 untouched")
	}
}

func TestClassifyAndHandle_RateLimitNoPenalty(t *testing.T) {
	now := time.Now()
	p := newTestPool(t, []string{"key-a"}, 1000, &now)

	kind, _ := p.ClassifyAndHandle(0, "rateLimitExceeded", "search.list")
	if kind != quota.KindRateLimitExceeded {
		t.Errorf("Expected rate limit kind, got %v", kind)
	}

	snap := p.StatusSnapshot()
	if snap.Keys[0].Used != 0 {
		t.Errorf("Expected no quota charge for rate limit, got %d", snap.Keys[0].Used)
	}
	if snap.Keys[0].Disabled {
		t.Error("Expected key not disabled by rate limit")
	}
	if _, ok := p.Current(); !ok {
		t.Error("Expected key to remain usable after rate limit")
	}
}

// ============================================================================
// Daily Reset Tests
// ============================================================================

func TestExhaustedPoolRecoversAfterReset(t *testing.T) {
	now := time.Now()
	p := newTestPool(t, []string{"key-a", "key-b"}, 100, &now)

	p.ClassifyAndHandle(0, "quotaExceeded", "search.list")
	p.ClassifyAndHandle(1, "quotaExceeded", "search.list")
	if _, ok := p.Current(); ok {
		t.Fatal("Expected pool exhausted")
	}

	reset := p.EarliestReset()
	if !reset.After(now) {
		t.Fatalf("Expected future reset time, got %v", reset)
	}

	now = reset.Add(time.Minute)
	cred, ok := p.Current()
	if !ok {
		t.Fatal("Expected pool usable again after daily reset")
	}
	snap := p.StatusSnapshot()
	if snap.Keys[cred.Index].Used != 0 {
		t.Errorf("Expected fresh ledger after reset, got %d used", snap.Keys[cred.Index].Used)
	}
}

// ============================================================================
// Snapshot and Statistics Tests
// ============================================================================

func TestStatusSnapshot_Fields(t *testing.T) {
	now := time.Now()
	p := newTestPool(t, []string{"key-a", "key-b", "key-c"}, 1000, &now)

	p.RecordCall(0, "search.list", 100, true, "")
	p.RecordCall(1, "videos.list", 1, true, "")

	snap := p.StatusSnapshot()
	if snap.TotalKeys != 3 {
		t.Errorf("Expected 3 keys, got %d", snap.TotalKeys)
	}
	if snap.TotalCallsToday != 2 {
		t.Errorf("Expected 2 calls today, got %d", snap.TotalCallsToday)
	}
	if snap.Keys[0].PercentUsed != 10.0 {
		t.Errorf("Expected 10%% used on key 0, got %v", snap.Keys[0].PercentUsed)
	}
	if snap.CurrentIndex != 0 {
		t.Errorf("Expected current index 0, got %d", snap.CurrentIndex)
	}
}

func TestStatistics_Window(t *testing.T) {
	now := time.Now()
	p := newTestPool(t, []string{"key-a"}, 10000, &now)

	p.RecordCall(0, "search.list", 100, true, "")
	p.RecordCall(0, "search.list", 100, true, "")
	p.RecordCall(0, "videos.list", 1, false, "network unreachable")

	stats := p.Statistics(time.Hour)
	if stats.TotalCalls != 3 {
		t.Errorf("Expected 3 calls, got %d", stats.TotalCalls)
	}
	if stats.SuccessfulCalls != 2 || stats.FailedCalls != 1 {
		t.Errorf("Expected 2 successes and 1 failure, got %d/%d",
			stats.SuccessfulCalls, stats.FailedCalls)
	}
	if stats.TotalCost != 200 {
		t.Errorf("Expected failed calls to add no cost, got %d", stats.TotalCost)
	}
	if stats.Endpoints["search.list"].Calls != 2 {
		t.Errorf("Expected 2 search.list calls, got %d", stats.Endpoints["search.list"].Calls)
	}
}

func TestStatistics_ZeroWindowWithAdvancingClock(t *testing.T) {
	now := time.Now()
	p := newTestPool(t, []string{"key-a"}, 10000, &now)

	p.RecordCall(0, "search.list", 100, true, "")
	now = now.Add(time.Minute)
	p.RecordCall(0, "search.list", 100, true, "")
	now = now.Add(time.Minute)

	stats := p.Statistics(0)
	if stats.TotalCalls != 2 {
		t.Errorf("Expected zero window to cover all retained records, got %d calls", stats.TotalCalls)
	}
}

func TestHistoryRingCap(t *testing.T) {
	now := time.Now()
	p, err := New(Config{
		Keys:        []string{"key-a"},
		DailyLimit:  1000000,
		HistorySize: 10,
		Logger:      testLogger(),
		NowFunc:     func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("Failed to create pool: %v", err)
	}

	for i := 0; i < 25; i++ {
		p.RecordCall(0, "search.list", 1, true, "")
	}

	stats := p.Statistics(0)
	if stats.TotalCalls != 10 {
		t.Errorf("Expected history capped at 10 records, got %d", stats.TotalCalls)
	}
}

// ============================================================================
// Persistence Tests
// ============================================================================

func TestExportRestoreState(t *testing.T) {
	now := time.Now()
	p := newTestPool(t, []string{"key-a", "key-b"}, 1000, &now)

	p.RecordCall(0, "search.list", 300, true, "")
	p.ClassifyAndHandle(1, "keyInvalid", "search.list")
	p.Rotate()

	state := p.ExportState()

	fresh := newTestPool(t, []string{"key-a", "key-b"}, 1000, &now)
	fresh.RestoreState(state)

	snap := fresh.StatusSnapshot()
	if snap.Keys[0].Used != 300 {
		t.Errorf("Expected restored usage 300, got %d", snap.Keys[0].Used)
	}
	if !snap.Keys[1].Disabled {
		t.Error("Expected restored key 1 disabled")
	}
	if snap.Keys[1].LastErrorKind != quota.KindKeyInvalid {
		t.Errorf("Expected restored invalid-key marker, got %v", snap.Keys[1].LastErrorKind)
	}
}

func TestRestoreState_SkipsStaleEntries(t *testing.T) {
	now := time.Now()
	p := newTestPool(t, []string{"key-a"}, 1000, &now)

	stale := &storage.PoolState{
		SavedAt: now.Add(-48 * time.Hour),
		Keys: []storage.KeyState{
			{Index: 0, Used: 900, Limit: 1000, ResetAt: now.Add(-24 * time.Hour)},
		},
	}
	p.RestoreState(stale)

	snap := p.StatusSnapshot()
	if snap.Keys[0].Used != 0 {
		t.Errorf("Expected stale snapshot ignored, got %d used", snap.Keys[0].Used)
	}
}

func TestRestoreState_IgnoresUnknownIndexes(t *testing.T) {
	now := time.Now()
	p := newTestPool(t, []string{"key-a"}, 1000, &now)

	state := &storage.PoolState{
		SavedAt:      now,
		CurrentIndex: 7,
		Keys: []storage.KeyState{
			{Index: 7, Used: 500, Limit: 1000, ResetAt: now.Add(time.Hour)},
		},
	}
	p.RestoreState(state)

	snap := p.StatusSnapshot()
	if snap.CurrentIndex != 0 {
		t.Errorf("Expected selection unchanged for out-of-range index, got %d", snap.CurrentIndex)
	}
}
