package syncer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/hyperengineering/healthcache/internal/codec"
	"github.com/hyperengineering/healthcache/internal/record"
	"github.com/hyperengineering/healthcache/internal/record/recordtest"
	"github.com/hyperengineering/healthcache/internal/registry"
	"github.com/hyperengineering/healthcache/internal/source"
	"github.com/hyperengineering/healthcache/internal/store"
	"github.com/hyperengineering/healthcache/internal/types"
)

const selfOrigin = "com.example.healthcache"

var testNow = time.Unix(1_700_000_000, 0).UTC()

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func newTestEngine(t *testing.T, st store.Store, src source.Source) *Engine {
	t.Helper()
	return New(st, src, codec.New(registry.Default()), Config{
		Origin: selfOrigin,
		Now:    func() time.Time { return testNow },
	})
}

func mustAdd(t *testing.T, src *source.MemorySource, rec record.Record) {
	t.Helper()
	if err := src.Add(rec); err != nil {
		t.Fatalf("Add(%s): %v", rec.Meta().ID, err)
	}
}

func idsOf(t *testing.T, st store.Store, kind record.Kind) []string {
	t.Helper()
	rows, err := st.QueryByKind(context.Background(), kind)
	if err != nil {
		t.Fatalf("QueryByKind(%s): %v", kind, err)
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}

// snapshotRows captures ids and payloads of every kind, in query order.
func snapshotRows(t *testing.T, st store.Store) map[record.Kind][]string {
	t.Helper()
	out := make(map[record.Kind][]string)
	for _, k := range registry.Default().AllKinds() {
		rows, err := st.QueryByKind(context.Background(), k)
		if err != nil {
			t.Fatalf("QueryByKind(%s): %v", k, err)
		}
		for _, r := range rows {
			out[k] = append(out[k], r.ID+"="+string(r.Payload))
		}
	}
	return out
}

func TestSync_EmptyCacheRunsBackfillInSourceOrder(t *testing.T) {
	// Given: an empty cache and three Steps records in the source
	st := newTestStore(t)
	src := source.NewMemorySource(0)
	mustAdd(t, src, recordtest.Steps("a", 100, testNow.Add(-3*time.Hour)))
	mustAdd(t, src, recordtest.Steps("b", 50, testNow.Add(-2*time.Hour)))
	mustAdd(t, src, recordtest.Steps("c", 75, testNow.Add(-time.Hour)))
	e := newTestEngine(t, st, src)
	ctx := context.Background()

	needs, err := e.NeedsFirstSync(ctx)
	if err != nil || !needs {
		t.Fatalf("NeedsFirstSync() = %v, %v; want true, nil", needs, err)
	}

	// When: syncing
	run, err := e.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}

	// Then: a backfill ran and the rows are in source order
	if run.Mode != types.SyncModeBackfill || run.Outcome != types.OutcomeSucceeded {
		t.Errorf("run = %s/%s, want backfill/succeeded", run.Mode, run.Outcome)
	}
	if run.Counts.Written != 3 {
		t.Errorf("written = %d, want 3", run.Counts.Written)
	}
	if got := idsOf(t, st, record.KindSteps); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Steps ids = %v, want [a b c]", got)
	}
	if _, ok, _ := e.Cursor(ctx); !ok {
		t.Error("cursor not persisted after backfill")
	}
	if needs, _ := e.NeedsFirstSync(ctx); needs {
		t.Error("NeedsFirstSync() = true after backfill")
	}
}

func TestBackfill_AllKinds(t *testing.T) {
	st := newTestStore(t)
	src := source.NewMemorySource(0)
	kinds := registry.Default().AllKinds()
	for i, k := range kinds {
		mustAdd(t, src, recordtest.Sample(k, fmt.Sprintf("%s-%d", k, i), testNow.Add(-time.Hour)))
	}
	e := newTestEngine(t, st, src)

	run, err := e.Backfill(context.Background())
	if err != nil {
		t.Fatalf("Backfill: %v", err)
	}
	if run.Counts.Written != int64(len(kinds)) {
		t.Errorf("written = %d, want %d", run.Counts.Written, len(kinds))
	}
	if run.Counts.CodecErrors != 0 {
		t.Errorf("codec errors = %d, want 0", run.Counts.CodecErrors)
	}
	n, _ := st.Count(context.Background())
	if n != int64(len(kinds)) {
		t.Errorf("Count() = %d, want %d", n, len(kinds))
	}
}

func TestBackfill_ExcludesRecordsEndingAfterNow(t *testing.T) {
	st := newTestStore(t)
	src := source.NewMemorySource(0)
	mustAdd(t, src, recordtest.Steps("past", 1, testNow.Add(-time.Minute)))
	mustAdd(t, src, recordtest.Steps("edge", 2, testNow))
	mustAdd(t, src, recordtest.Steps("future", 3, testNow.Add(time.Hour)))
	e := newTestEngine(t, st, src)

	if _, err := e.Backfill(context.Background()); err != nil {
		t.Fatalf("Backfill: %v", err)
	}
	if got := idsOf(t, st, record.KindSteps); !reflect.DeepEqual(got, []string{"past", "edge"}) {
		t.Errorf("Steps ids = %v, want [past edge]", got)
	}
}

func TestBackfill_KindFailureDoesNotAbortOthers(t *testing.T) {
	// Given: the source refuses HeartRate
	st := newTestStore(t)
	src := source.NewMemorySource(0)
	mustAdd(t, src, recordtest.Sample(record.KindHeartRate, "hr", testNow.Add(-time.Hour)))
	mustAdd(t, src, recordtest.Steps("s", 10, testNow.Add(-time.Hour)))
	mustAdd(t, src, recordtest.Sample(record.KindWeight, "w", testNow.Add(-time.Hour)))
	src.FailKind(record.KindHeartRate, source.ErrPermissionDenied)
	e := newTestEngine(t, st, src)

	// When
	run, err := e.Backfill(context.Background())

	// Then: the run is partial, the other kinds are cached, the cursor exists
	if err != nil {
		t.Fatalf("Backfill: %v", err)
	}
	if run.Outcome != types.OutcomePartial {
		t.Errorf("outcome = %s, want partial", run.Outcome)
	}
	if !reflect.DeepEqual(run.FailedKinds, []string{"HeartRate"}) {
		t.Errorf("failed kinds = %v, want [HeartRate]", run.FailedKinds)
	}
	if got := idsOf(t, st, record.KindSteps); len(got) != 1 {
		t.Errorf("Steps rows = %v, want 1", got)
	}
	if got := idsOf(t, st, record.KindWeight); len(got) != 1 {
		t.Errorf("Weight rows = %v, want 1", got)
	}
	if got := idsOf(t, st, record.KindHeartRate); len(got) != 0 {
		t.Errorf("HeartRate rows = %v, want none", got)
	}
	if _, ok, _ := e.Cursor(context.Background()); !ok {
		t.Error("cursor not persisted after partial backfill")
	}
}

func TestBackfill_EveryKindFailing(t *testing.T) {
	st := newTestStore(t)
	src := source.NewMemorySource(0)
	for _, k := range registry.Default().AllKinds() {
		src.FailKind(k, source.ErrUnavailable)
	}
	e := newTestEngine(t, st, src)

	run, err := e.Backfill(context.Background())
	if !errors.Is(err, source.ErrUnavailable) {
		t.Fatalf("Backfill error = %v, want ErrUnavailable", err)
	}
	if run == nil || run.Outcome != types.OutcomeFailed {
		t.Fatalf("run = %+v, want failed run", run)
	}
	if _, ok, _ := e.Cursor(context.Background()); ok {
		t.Error("cursor persisted after failed backfill")
	}
	runs, _ := st.ListSyncRuns(context.Background(), 10)
	if len(runs) != 1 || runs[0].Outcome != types.OutcomeFailed {
		t.Errorf("sync runs = %+v, want one failed run", runs)
	}
}

func TestBackfill_SkipsUndecodableRows(t *testing.T) {
	st := newTestStore(t)
	src := source.NewMemorySource(0)
	mustAdd(t, src, recordtest.Steps("good", 10, testNow.Add(-time.Hour)))
	src.AddRaw(record.KindSteps, source.BulkRecord{ID: "bad", Fields: []byte(`{"count":"many"}`)})
	src.AddRaw(record.KindSteps, source.BulkRecord{ID: "", Fields: []byte(`{"count":1}`)})
	mustAdd(t, src, recordtest.Steps("also-good", 20, testNow.Add(-time.Hour)))
	e := newTestEngine(t, st, src)

	run, err := e.Backfill(context.Background())
	if err != nil {
		t.Fatalf("Backfill: %v", err)
	}
	if run.Counts.CodecErrors != 2 {
		t.Errorf("codec errors = %d, want 2", run.Counts.CodecErrors)
	}
	if got := idsOf(t, st, record.KindSteps); !reflect.DeepEqual(got, []string{"good", "also-good"}) {
		t.Errorf("Steps ids = %v, want [good also-good]", got)
	}
}

type failingStore struct {
	store.Store
	err error
}

func (f *failingStore) PutBatch(ctx context.Context, recs []store.StoredRecord) error {
	return f.err
}

func (f *failingStore) Put(ctx context.Context, rec store.StoredRecord) error {
	return f.err
}

func TestBackfill_StoreFailureAbortsRun(t *testing.T) {
	st := newTestStore(t)
	src := source.NewMemorySource(0)
	mustAdd(t, src, recordtest.Steps("a", 1, testNow.Add(-time.Hour)))
	fs := &failingStore{Store: st, err: fmt.Errorf("%w: disk full", store.ErrStoreIO)}
	e := newTestEngine(t, fs, src)

	run, err := e.Backfill(context.Background())
	if !errors.Is(err, store.ErrStoreIO) {
		t.Fatalf("Backfill error = %v, want ErrStoreIO", err)
	}
	if run.Outcome != types.OutcomeFailed {
		t.Errorf("outcome = %s, want failed", run.Outcome)
	}
	if _, ok, _ := e.Cursor(context.Background()); ok {
		t.Error("cursor persisted after store failure")
	}
}

// backfilled returns an engine over a cache already filled from src.
func backfilled(t *testing.T, src *source.MemorySource) (*Engine, *store.SQLiteStore) {
	t.Helper()
	st := newTestStore(t)
	e := newTestEngine(t, st, src)
	if _, err := e.Sync(context.Background()); err != nil {
		t.Fatalf("initial Sync: %v", err)
	}
	return e, st
}

func TestSync_ReconcilesUpsertsAndDeletes(t *testing.T) {
	// Given: a backfilled cache
	src := source.NewMemorySource(2)
	mustAdd(t, src, recordtest.Steps("a", 100, testNow.Add(-3*time.Hour)))
	mustAdd(t, src, recordtest.Steps("b", 50, testNow.Add(-2*time.Hour)))
	e, st := backfilled(t, src)
	ctx := context.Background()
	before, _, _ := e.Cursor(ctx)

	// When: the source gains, changes and loses records
	mustAdd(t, src, recordtest.Steps("c", 75, testNow.Add(-time.Hour)))
	mustAdd(t, src, recordtest.Steps("b", 55, testNow.Add(-2*time.Hour)))
	src.Remove("a")
	run, err := e.Sync(ctx)

	// Then
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if run.Mode != types.SyncModeReconcile || run.Outcome != types.OutcomeSucceeded {
		t.Errorf("run = %s/%s, want reconcile/succeeded", run.Mode, run.Outcome)
	}
	if run.Counts.Written != 2 || run.Counts.Deleted != 1 {
		t.Errorf("counts = %+v, want 2 written, 1 deleted", run.Counts)
	}
	if got := idsOf(t, st, record.KindSteps); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("Steps ids = %v, want [b c]", got)
	}
	after, _, _ := e.Cursor(ctx)
	if after == before {
		t.Error("cursor did not advance")
	}
	if run.TokenBefore != before || run.TokenAfter != after {
		t.Errorf("run tokens = %q -> %q, want %q -> %q", run.TokenBefore, run.TokenAfter, before, after)
	}
}

func TestReconcile_SkipsSelfOrigin(t *testing.T) {
	src := source.NewMemorySource(0)
	e, st := backfilled(t, src)

	own := recordtest.Steps("mine", 5, testNow.Add(-time.Hour))
	own.Origin = selfOrigin
	mustAdd(t, src, own)
	mustAdd(t, src, recordtest.Steps("theirs", 6, testNow.Add(-time.Hour)))

	run, err := e.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if run.Counts.SkippedSelf != 1 || run.Counts.Written != 1 {
		t.Errorf("counts = %+v, want 1 skipped self, 1 written", run.Counts)
	}
	if got := idsOf(t, st, record.KindSteps); !reflect.DeepEqual(got, []string{"theirs"}) {
		t.Errorf("Steps ids = %v, want [theirs]", got)
	}
}

func TestReconcile_SkipsUnsupportedKinds(t *testing.T) {
	src := source.NewMemorySource(0)
	e, st := backfilled(t, src)

	src.AppendChange(source.Change{
		Operation: source.OperationUpsert,
		Kind:      record.Kind("ExerciseRoute"),
		ID:        "route-1",
		Fields:    []byte(`{}`),
	})

	run, err := e.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if run.Counts.SkippedUnsupported != 1 {
		t.Errorf("skipped unsupported = %d, want 1", run.Counts.SkippedUnsupported)
	}
	if _, err := st.Get(context.Background(), "route-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get(route-1) error = %v, want ErrNotFound", err)
	}
}

func TestReconcile_DeleteOfAbsentIDIsNoop(t *testing.T) {
	src := source.NewMemorySource(0)
	e, _ := backfilled(t, src)

	src.Remove("never-seen")

	run, err := e.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if run.Outcome != types.OutcomeSucceeded {
		t.Errorf("outcome = %s, want succeeded", run.Outcome)
	}
}

func TestReconcile_CodecErrorSkipsRowOnly(t *testing.T) {
	src := source.NewMemorySource(0)
	e, st := backfilled(t, src)

	src.AppendChange(source.Change{
		Operation: source.OperationUpsert,
		Kind:      record.KindSteps,
		ID:        "broken",
		Fields:    []byte(`{"count":`),
	})
	mustAdd(t, src, recordtest.Steps("fine", 1, testNow.Add(-time.Hour)))

	run, err := e.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if run.Counts.CodecErrors != 1 || run.Counts.Written != 1 {
		t.Errorf("counts = %+v, want 1 codec error, 1 written", run.Counts)
	}
	if got := idsOf(t, st, record.KindSteps); !reflect.DeepEqual(got, []string{"fine"}) {
		t.Errorf("Steps ids = %v, want [fine]", got)
	}
}

func TestReconcile_FailureMidLoopKeepsCursor(t *testing.T) {
	// Given: three pending changes paged one at a time
	src := source.NewMemorySource(1)
	e, st := backfilled(t, src)
	ctx := context.Background()
	before, _, _ := e.Cursor(ctx)

	mustAdd(t, src, recordtest.Steps("x", 1, testNow.Add(-3*time.Hour)))
	mustAdd(t, src, recordtest.Steps("y", 2, testNow.Add(-2*time.Hour)))
	mustAdd(t, src, recordtest.Steps("z", 3, testNow.Add(-time.Hour)))

	// When: the second poll fails
	src.FailPolls(1, source.ErrUnavailable)
	_, err := e.Reconcile(ctx)

	// Then: the error surfaces and the cursor has not moved
	if !errors.Is(err, source.ErrUnavailable) {
		t.Fatalf("Reconcile error = %v, want ErrUnavailable", err)
	}
	if got, _, _ := e.Cursor(ctx); got != before {
		t.Errorf("cursor = %q, want unchanged %q", got, before)
	}

	// When: the source recovers and the batch is replayed
	src.FailPolls(0, nil)
	run, err := e.Reconcile(ctx)
	if err != nil {
		t.Fatalf("retry Reconcile: %v", err)
	}

	// Then: every change is applied exactly once
	if run.TokenBefore != before {
		t.Errorf("retry started from %q, want %q", run.TokenBefore, before)
	}
	if got := idsOf(t, st, record.KindSteps); !reflect.DeepEqual(got, []string{"x", "y", "z"}) {
		t.Errorf("Steps ids = %v, want [x y z]", got)
	}
}

func TestReconcile_ReplayLeavesStoreUnchanged(t *testing.T) {
	src := source.NewMemorySource(2)
	mustAdd(t, src, recordtest.Steps("a", 1, testNow.Add(-4*time.Hour)))
	e, st := backfilled(t, src)
	ctx := context.Background()
	before, _, _ := e.Cursor(ctx)

	mustAdd(t, src, recordtest.Steps("b", 2, testNow.Add(-3*time.Hour)))
	mustAdd(t, src, recordtest.Sample(record.KindWeight, "w", testNow.Add(-2*time.Hour)))
	src.Remove("a")
	mustAdd(t, src, recordtest.Steps("a", 9, testNow.Add(-time.Hour)))

	if _, err := e.Reconcile(ctx); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	once := snapshotRows(t, st)

	// Simulate a crash before the cursor was advanced.
	if err := st.SetSyncMeta(ctx, CursorKey(e.Kinds()), before); err != nil {
		t.Fatalf("SetSyncMeta: %v", err)
	}
	if _, err := e.Reconcile(ctx); err != nil {
		t.Fatalf("replayed Reconcile: %v", err)
	}
	twice := snapshotRows(t, st)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("store differs after replay:\n once: %v\ntwice: %v", once, twice)
	}
}

func TestReconcile_WithoutCursor(t *testing.T) {
	e := newTestEngine(t, newTestStore(t), source.NewMemorySource(0))

	_, err := e.Reconcile(context.Background())
	if !errors.Is(err, ErrNoCursor) {
		t.Errorf("Reconcile error = %v, want ErrNoCursor", err)
	}
}

func TestSync_ExpiredCursorFallsBackToBackfill(t *testing.T) {
	src := source.NewMemorySource(0)
	mustAdd(t, src, recordtest.Steps("a", 1, testNow.Add(-time.Hour)))
	e, st := backfilled(t, src)
	ctx := context.Background()
	before, _, _ := e.Cursor(ctx)

	src.ExpireTokens()
	run, err := e.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if run.Mode != types.SyncModeBackfill {
		t.Errorf("mode = %s, want backfill", run.Mode)
	}
	after, ok, _ := e.Cursor(ctx)
	if !ok || after == before {
		t.Errorf("cursor = %q, want a fresh cursor replacing %q", after, before)
	}
	if got := idsOf(t, st, record.KindSteps); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("Steps ids = %v, want [a]", got)
	}
}

func TestSync_RowsWithoutCursorEstablishCursor(t *testing.T) {
	st := newTestStore(t)
	c := codec.New(registry.Default())
	payload, err := c.Encode(recordtest.Steps("local", 1, testNow.Add(-time.Hour)))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := st.Put(context.Background(), store.StoredRecord{ID: "local", Kind: record.KindSteps, Payload: payload}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	e := newTestEngine(t, st, source.NewMemorySource(0))

	run, err := e.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if run.Mode != types.SyncModeCursor || run.TokenAfter == "" {
		t.Errorf("run = %s with token %q, want cursor run with token", run.Mode, run.TokenAfter)
	}
	if _, ok, _ := e.Cursor(context.Background()); !ok {
		t.Error("cursor not persisted")
	}
}

// gateSource tracks how many polls run at once.
type gateSource struct {
	*source.MemorySource
	mu      sync.Mutex
	active  int
	maxSeen int
}

func (g *gateSource) PollChanges(ctx context.Context, token string) (*source.ChangeBatch, error) {
	g.mu.Lock()
	g.active++
	if g.active > g.maxSeen {
		g.maxSeen = g.active
	}
	g.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	g.mu.Lock()
	g.active--
	g.mu.Unlock()
	return g.MemorySource.PollChanges(ctx, token)
}

func TestReconcile_NeverRunsConcurrently(t *testing.T) {
	mem := source.NewMemorySource(1)
	gs := &gateSource{MemorySource: mem}
	st := newTestStore(t)
	e := newTestEngine(t, st, gs)
	ctx := context.Background()
	if _, err := e.Sync(ctx); err != nil {
		t.Fatalf("initial Sync: %v", err)
	}
	for i := 0; i < 5; i++ {
		mustAdd(t, mem, recordtest.Steps(fmt.Sprintf("s%d", i), int64(i), testNow.Add(-time.Hour)))
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = e.Reconcile(ctx)
			} else {
				_, err = e.Sync(ctx)
			}
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("concurrent trigger error: %v", err)
		}
	}
	if gs.maxSeen != 1 {
		t.Errorf("max concurrent polls = %d, want 1", gs.maxSeen)
	}
	if got := idsOf(t, st, record.KindSteps); len(got) != 5 {
		t.Errorf("Steps rows = %v, want 5", got)
	}
	if e.InFlight() {
		t.Error("InFlight() = true after all runs returned")
	}
}

func TestStatus(t *testing.T) {
	src := source.NewMemorySource(0)
	mustAdd(t, src, recordtest.Steps("a", 1, testNow.Add(-time.Hour)))
	mustAdd(t, src, recordtest.Steps("b", 2, testNow.Add(-time.Hour)))
	mustAdd(t, src, recordtest.Sample(record.KindWeight, "w", testNow.Add(-time.Hour)))
	e, _ := backfilled(t, src)

	st, err := e.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.FirstSyncNeeded || !st.HasCursor || st.InFlight {
		t.Errorf("status flags = %+v", st)
	}
	if st.RecordCount != 3 || st.CountsByKind[record.KindSteps] != 2 {
		t.Errorf("counts = %d / %v, want 3 with 2 Steps", st.RecordCount, st.CountsByKind)
	}
	if st.LastRun == nil || st.LastRun.Mode != types.SyncModeBackfill {
		t.Errorf("last run = %+v, want backfill", st.LastRun)
	}

	resp := st.Response()
	if resp.CountsByKind["Weight"] != 1 {
		t.Errorf("response counts = %v, want Weight=1", resp.CountsByKind)
	}
}

func TestCursorKey_IndependentOfOrder(t *testing.T) {
	a := CursorKey([]record.Kind{record.KindSteps, record.KindHeartRate})
	b := CursorKey([]record.Kind{record.KindHeartRate, record.KindSteps})
	c := CursorKey([]record.Kind{record.KindSteps})
	if a != b {
		t.Errorf("CursorKey differs by order: %q vs %q", a, b)
	}
	if a == c {
		t.Error("CursorKey same for different kind sets")
	}
}
