package workspace

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/vivimassa/horizon-sub000/internal/rotation"
)

// ── 测试辅助 ──

var (
	day1   = rotation.MustDate("2024-06-03")
	window = rotation.Window{Start: day1, Days: 3}
)

func key(pid string, d rotation.Date) rotation.OccurrenceKey {
	return rotation.OccurrenceKey{PatternID: pid, Date: d}
}

func testPatterns() []rotation.Pattern {
	mk := func(id, flight, dep, arr string, depT, arrT rotation.Clock) rotation.Pattern {
		return rotation.Pattern{
			ID: id, FlightNumber: flight, DepStation: dep, ArrStation: arr,
			DepTime: depT, ArrTime: arrT, Days: rotation.AllWeek,
			ValidFrom: rotation.MustDate("2024-01-01"), ValidTo: rotation.MustDate("2024-12-31"),
			AircraftType: "A320", Status: rotation.StatusPublished,
			Exclusions: rotation.NewDateSet(),
		}
	}
	return []rotation.Pattern{
		mk("p1", "VN100", "SGN", "HAN", 6*60, 8*60),
		mk("p2", "VN101", "HAN", "SGN", 9*60, 11*60),
	}
}

func testResult(assignments ...rotation.PersistedAssignment) *FetchResult {
	return &FetchResult{
		Patterns:    testPatterns(),
		Assignments: assignments,
		Aircraft: []rotation.Aircraft{
			{Registration: "VN-A101", Type: "A320", Active: true},
			{Registration: "VN-A102", Type: "A320", Active: true},
			{Registration: "VN-A103", Type: "A320", Active: false},
			{Registration: "VN-B201", Type: "B787", Active: true},
		},
		Types: []rotation.AircraftType{
			{Code: "A320", Family: "A32F"},
			{Code: "B787", Family: "B78F"},
		},
	}
}

func persisted(k rotation.OccurrenceKey, reg string) rotation.PersistedAssignment {
	return rotation.PersistedAssignment{Key: k, Registration: reg}
}

// noAuto 不做自动排班，便于断言
var noAuto = rotation.SolverFunc(func(in rotation.SolverInput) rotation.SolverResult {
	return rotation.SolverResult{Overflow: in.Occurrences}
})

// fakeFetcher 按调用顺序依次返回 results
type fakeFetcher struct {
	mu      sync.Mutex
	results []*FetchResult
	errs    []error
	calls   int
}

func (f *fakeFetcher) Fetch(_ context.Context, _ rotation.Window) (*FetchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err != nil {
		return nil, err
	}
	if i < len(f.results) {
		return f.results[i], nil
	}
	return f.results[len(f.results)-1], nil
}

func (f *fakeFetcher) push(r *FetchResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, r)
}

type writeCall struct {
	op   string
	keys []rotation.OccurrenceKey
	reg  string
}

// fakeWriter 记录写入，err 非 nil 时全部拒绝
type fakeWriter struct {
	mu    sync.Mutex
	calls []writeCall
	err   error
}

func (w *fakeWriter) record(c writeCall) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, c)
	return w.err
}

func (w *fakeWriter) Assign(_ context.Context, keys []rotation.OccurrenceKey, reg string) error {
	return w.record(writeCall{op: "assign", keys: keys, reg: reg})
}

func (w *fakeWriter) Unassign(_ context.Context, keys []rotation.OccurrenceKey) error {
	return w.record(writeCall{op: "unassign", keys: keys})
}

func (w *fakeWriter) Swap(_ context.Context, sideA []rotation.OccurrenceKey, regA string, sideB []rotation.OccurrenceKey, regB string) error {
	return w.record(writeCall{op: "swap", keys: append(append([]rotation.OccurrenceKey{}, sideA...), sideB...), reg: regA + "/" + regB})
}

func (w *fakeWriter) ExcludeDate(_ context.Context, patternID string, date rotation.Date) error {
	return w.record(writeCall{op: "exclude", keys: []rotation.OccurrenceKey{key(patternID, date)}})
}

func (w *fakeWriter) count(op string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, c := range w.calls {
		if c.op == op {
			n++
		}
	}
	return n
}

// executor 手动执行异步任务
type executor struct{ queue []func() }

func (e *executor) spawn(f func()) { e.queue = append(e.queue, f) }

// run 执行第 i 个排队任务
func (e *executor) run(t *testing.T, i int) {
	t.Helper()
	if i >= len(e.queue) {
		t.Fatalf("任务队列只有 %d 个任务", len(e.queue))
	}
	f := e.queue[i]
	e.queue = append(e.queue[:i], e.queue[i+1:]...)
	f()
}

func (e *executor) drain() {
	for len(e.queue) > 0 {
		f := e.queue[0]
		e.queue = e.queue[1:]
		f()
	}
}

// manualTimer 手动触发的调度器
type manualTimer struct {
	pending []func()
	delays  []time.Duration
}

func (m *manualTimer) schedule(d time.Duration, f func()) func() bool {
	idx := len(m.pending)
	m.pending = append(m.pending, f)
	m.delays = append(m.delays, d)
	return func() bool {
		if m.pending[idx] == nil {
			return false
		}
		m.pending[idx] = nil
		return true
	}
}

func (m *manualTimer) fire() int {
	n := 0
	for i, f := range m.pending {
		if f != nil {
			m.pending[i] = nil
			f()
			n++
		}
	}
	return n
}

type harness struct {
	ws      *Workspace
	fetcher *fakeFetcher
	writer  *fakeWriter
	exec    *executor
	timer   *manualTimer
}

// newHarness 创建工作区并完成首次加载
func newHarness(t *testing.T, first *FetchResult, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		fetcher: &fakeFetcher{results: []*FetchResult{first}},
		writer:  &fakeWriter{},
		exec:    &executor{},
		timer:   &manualTimer{},
	}
	opts = append([]Option{WithSpawn(h.exec.spawn), WithScheduler(h.timer.schedule)}, opts...)
	h.ws = New(h.fetcher, h.writer, noAuto, opts...)
	if err := h.ws.SetWindow(window); err != nil {
		t.Fatalf("SetWindow 应成功: %v", err)
	}
	h.exec.drain()
	return h
}

func (h *harness) resolution(k rotation.OccurrenceKey) rotation.Resolution {
	r, _ := h.ws.Board().Resolution(k)
	return r
}

func assertResolution(t *testing.T, h *harness, k rotation.OccurrenceKey, reg string, src rotation.Source, pending bool) {
	t.Helper()
	r := h.resolution(k)
	if r.Registration != reg || r.Source != src || r.Pending != pending {
		t.Errorf("%s 期望 (%s, %s, pending=%v)，实际: (%s, %s, pending=%v)",
			k, reg, src, pending, r.Registration, r.Source, r.Pending)
	}
}
