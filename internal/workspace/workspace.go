package workspace

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vivimassa/horizon-sub000/internal/rotation"
	"github.com/vivimassa/horizon-sub000/internal/solver"
	"github.com/vivimassa/horizon-sub000/pkg/metrics"
)

// ── 工作区错误定义 ──

var (
	ErrClosed              = errors.New("工作区已关闭")
	ErrNoWindow            = errors.New("尚未选择可视窗口")
	ErrEmptySelection      = errors.New("未选择任何航班实例")
	ErrUnknownOccurrence   = errors.New("航班实例不在当前窗口中")
	ErrUnknownRegistration = errors.New("注册号不存在")
	ErrInactiveAircraft    = errors.New("机尾已停用")
	ErrIncompatibleType    = errors.New("机尾机型与航班需求机型不兼容")
	ErrSameRegistration    = errors.New("交换双方不能是同一机尾")
	ErrNothingToPaste      = errors.New("源航班没有可复制的注册号")
	ErrMutationRejected    = errors.New("服务端拒绝了本次修改")
)

const (
	DefaultRefetchDelay = 600 * time.Millisecond
	DefaultWriteTimeout = 10 * time.Second
	DefaultFetchTimeout = 15 * time.Second
	maxNotices          = 20
)

// State 抓取周期状态
type State int

const (
	StateIdle State = iota
	StateFetching
)

func (s State) String() string {
	if s == StateFetching {
		return "fetching"
	}
	return "idle"
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// NoticeKind 提示类型
type NoticeKind string

const (
	NoticeFetchFailed      NoticeKind = "fetch-failed"
	NoticeMutationRejected NoticeKind = "mutation-rejected"
)

// Notice 需要展示给用户的可恢复错误
type Notice struct {
	ID      string
	Kind    NoticeKind
	Message string
	Keys    []rotation.OccurrenceKey
	At      time.Time
}

// FetchResult 一次窗口抓取的服务端数据。返回后 Fetcher 不得再修改其内容。
type FetchResult struct {
	Patterns    []rotation.Pattern
	Assignments []rotation.PersistedAssignment
	Aircraft    []rotation.Aircraft
	Types       []rotation.AircraftType
	Settings    Settings
}

// Fetcher 窗口数据读取，必须幂等且无副作用
type Fetcher interface {
	Fetch(ctx context.Context, w rotation.Window) (*FetchResult, error)
}

// Writer 服务端写入，每个调用整体成功或整体失败
type Writer interface {
	Assign(ctx context.Context, keys []rotation.OccurrenceKey, registration string) error
	Unassign(ctx context.Context, keys []rotation.OccurrenceKey) error
	Swap(ctx context.Context, sideA []rotation.OccurrenceKey, regA string, sideB []rotation.OccurrenceKey, regB string) error
	ExcludeDate(ctx context.Context, patternID string, date rotation.Date) error
}

// Scheduler 延迟执行 f，返回的 stop 用于取消
type Scheduler func(d time.Duration, f func()) (stop func() bool)

func timerScheduler(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Option 工作区配置项
type Option func(*Workspace)

func WithID(id string) Option { return func(ws *Workspace) { ws.id = id } }

// WithOwner 记录会话所属用户
func WithOwner(owner string) Option { return func(ws *Workspace) { ws.owner = owner } }

// WithContext 指定父上下文；其中携带的值会传递给全部读写调用
func WithContext(parent context.Context) Option {
	return func(ws *Workspace) {
		if parent != nil {
			ws.parent = parent
		}
	}
}

func WithLogger(l *zap.Logger) Option { return func(ws *Workspace) { ws.logger = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(ws *Workspace) { ws.metrics = m } }

func WithRefetchDelay(d time.Duration) Option {
	return func(ws *Workspace) {
		if d > 0 {
			ws.refetchDelay = d
		}
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(ws *Workspace) {
		if d > 0 {
			ws.writeTimeout = d
		}
	}
}

func WithFetchTimeout(d time.Duration) Option {
	return func(ws *Workspace) {
		if d > 0 {
			ws.fetchTimeout = d
		}
	}
}

// WithMaxWindowDays 窗口天数上限，<=0 不限制
func WithMaxWindowDays(n int) Option { return func(ws *Workspace) { ws.maxWindowDays = n } }

func WithStrategy(s rotation.Strategy) Option { return func(ws *Workspace) { ws.strategy = s } }

// WithScheduler 替换延迟重新抓取的定时器，测试中用于手动触发
func WithScheduler(s Scheduler) Option { return func(ws *Workspace) { ws.schedule = s } }

// WithSpawn 替换异步任务的执行方式，测试中用于控制完成顺序
func WithSpawn(spawn func(func())) Option { return func(ws *Workspace) { ws.spawn = spawn } }

// Workspace 单个会话的乐观对账状态。
// 所有公开方法都是一次离散事件，在锁内串行生效；网络读写在锁外异步进行。
type Workspace struct {
	id           string
	owner        string
	fetcher      Fetcher
	writer       Writer
	solver       rotation.Solver
	logger       *zap.Logger
	metrics      *metrics.Metrics
	refetchDelay time.Duration
	writeTimeout time.Duration
	fetchTimeout time.Duration
	schedule     Scheduler
	spawn        func(func())

	parent context.Context
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	idle     *sync.Cond
	inflight int
	closed   bool

	window        rotation.Window // 用户请求的窗口
	dataWindow    rotation.Window // 已合并数据对应的窗口
	hasWindow     bool
	maxWindowDays int
	state         State
	latest        uint64 // 最近发出的抓取版本
	applied       uint64 // 已合并的抓取版本
	cancelFetch   context.CancelFunc

	data      *FetchResult
	patterns  map[string]*rotation.Pattern
	fleet     *rotation.Fleet
	types     map[string]rotation.AircraftType
	persisted map[rotation.OccurrenceKey]string
	pending   *pendingSet
	overrides map[rotation.OccurrenceKey]string
	strategy  rotation.Strategy

	nextBatch   uint64
	refetchStop func() bool // 非 nil 表示已有延迟抓取在排队
	notices     []Notice
	generation  uint64
	board       *Board
}

// New 创建工作区；solver 为 nil 时使用贪心求解器
func New(fetcher Fetcher, writer Writer, s rotation.Solver, opts ...Option) *Workspace {
	if s == nil {
		s = solver.New()
	}
	ws := &Workspace{
		id:           uuid.New().String(),
		fetcher:      fetcher,
		writer:       writer,
		solver:       s,
		logger:       zap.NewNop(),
		refetchDelay: DefaultRefetchDelay,
		writeTimeout: DefaultWriteTimeout,
		fetchTimeout: DefaultFetchTimeout,
		schedule:     timerScheduler,
		spawn:        func(f func()) { go f() },
		parent:       context.Background(),
		persisted:    make(map[rotation.OccurrenceKey]string),
		pending:      newPendingSet(),
		overrides:    make(map[rotation.OccurrenceKey]string),
		strategy:     rotation.StrategyMinimizeAircraft,
	}
	ws.idle = sync.NewCond(&ws.mu)
	for _, opt := range opts {
		opt(ws)
	}
	ws.ctx, ws.cancel = context.WithCancel(ws.parent)
	ws.logger = ws.logger.With(zap.String("workspace", ws.id))
	return ws
}

func (ws *Workspace) ID() string { return ws.id }

func (ws *Workspace) Owner() string { return ws.owner }

// Closed 工作区是否已关闭
func (ws *Workspace) Closed() bool {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.closed
}

// State 当前抓取状态
func (ws *Workspace) State() State {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.state
}

// ════════════════════════════════════════════════════════════
// 抓取周期
// ════════════════════════════════════════════════════════════

// SetWindow 切换可视窗口并发起抓取，旧窗口的在途抓取全部作废
func (ws *Workspace) SetWindow(w rotation.Window) error {
	if err := w.Validate(ws.maxWindowDays); err != nil {
		return err
	}
	ws.mu.Lock()
	if ws.closed {
		ws.mu.Unlock()
		return ErrClosed
	}
	ws.window, ws.hasWindow = w, true
	task := ws.startFetchLocked()
	ws.touchLocked()
	ws.mu.Unlock()

	ws.run(task)
	return nil
}

// Refresh 重新抓取当前窗口
func (ws *Workspace) Refresh() error {
	ws.mu.Lock()
	if ws.closed {
		ws.mu.Unlock()
		return ErrClosed
	}
	if !ws.hasWindow {
		ws.mu.Unlock()
		return ErrNoWindow
	}
	task := ws.startFetchLocked()
	ws.touchLocked()
	ws.mu.Unlock()

	ws.run(task)
	return nil
}

func (ws *Workspace) startFetchLocked() func() {
	ws.latest++
	version := ws.latest
	if ws.cancelFetch != nil {
		ws.cancelFetch()
	}
	ctx, cancel := context.WithTimeout(ws.ctx, ws.fetchTimeout)
	ws.cancelFetch = cancel
	ws.state = StateFetching
	w := ws.window

	return ws.taskLocked(func() {
		defer cancel()
		started := time.Now()
		res, err := ws.fetcher.Fetch(ctx, w)
		ws.applyFetch(version, w, res, err, time.Since(started))
	})
}

// applyFetch 只合并最新版本的响应，旧版本静默丢弃；失败时保留上次合并的窗口与数据
func (ws *Workspace) applyFetch(version uint64, w rotation.Window, res *FetchResult, err error, took time.Duration) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.closed {
		return
	}
	if version != ws.latest {
		ws.metrics.ObserveFetch("stale", 0)
		ws.logger.Debug("丢弃过期的抓取结果", zap.Uint64("version", version), zap.Uint64("latest", ws.latest))
		return
	}
	ws.cancelFetch = nil
	ws.state = StateIdle
	defer ws.touchLocked()

	if err == nil && res == nil {
		err = errors.New("抓取结果为空")
	}
	if err != nil {
		ws.metrics.ObserveFetch("failed", took)
		ws.addNoticeLocked(NoticeFetchFailed, fmt.Sprintf("加载 %s 失败，显示上次数据: %v", w, err), nil)
		ws.logger.Warn("窗口抓取失败，保留上次数据",
			zap.Uint64("version", version), zap.Stringer("window", w), zap.Error(err))
		return
	}

	ws.mergeLocked(res, w)
	ws.applied = version
	ws.metrics.ObserveFetch("applied", took)
}

// mergeLocked 整体替换已确认记录，再按服务端数据退役已确认的待定操作。
// 只有 w 内的实例能被这次抓取确认。
func (ws *Workspace) mergeLocked(res *FetchResult, w rotation.Window) {
	ws.data = res
	ws.dataWindow = w
	ws.patterns = make(map[string]*rotation.Pattern, len(res.Patterns))
	for i := range res.Patterns {
		ws.patterns[res.Patterns[i].ID] = &res.Patterns[i]
	}
	ws.fleet = rotation.NewFleet(res.Aircraft, res.Types)
	ws.types = ws.fleet.TypeMap()
	ws.persisted = rotation.PersistedIndex(res.Assignments)

	retired := ws.pending.reconcile(ws.persisted, ws.patterns, w)
	ws.logger.Debug("合并抓取结果",
		zap.Stringer("window", w),
		zap.Int("patterns", len(res.Patterns)),
		zap.Int("assignments", len(ws.persisted)),
		zap.Int("retired", retired),
		zap.Int("pending", ws.pending.size()),
	)
}

// scheduleRefetchLocked 写入完成后延迟重新抓取；已有排队时不重复安排，延迟不会被推后
func (ws *Workspace) scheduleRefetchLocked() {
	if ws.refetchStop != nil || !ws.hasWindow || ws.closed {
		return
	}
	ws.refetchStop = ws.schedule(ws.refetchDelay, ws.onRefetchTimer)
}

func (ws *Workspace) onRefetchTimer() {
	ws.mu.Lock()
	ws.refetchStop = nil
	if ws.closed || !ws.hasWindow {
		ws.idle.Broadcast()
		ws.mu.Unlock()
		return
	}
	task := ws.startFetchLocked()
	ws.touchLocked()
	ws.mu.Unlock()

	ws.run(task)
}

// ════════════════════════════════════════════════════════════
// 修改操作：本地立即生效，服务端写入异步进行
// ════════════════════════════════════════════════════════════

// Assign 将实例安排到指定机尾
func (ws *Workspace) Assign(keys []rotation.OccurrenceKey, registration string) error {
	return ws.assign("assign", keys, registration)
}

func (ws *Workspace) assign(op string, keys []rotation.OccurrenceKey, registration string) error {
	keys = uniqueKeys(keys)
	if len(keys) == 0 {
		return ErrEmptySelection
	}
	registration = strings.TrimSpace(registration)
	if registration == "" {
		return ErrUnknownRegistration
	}

	ws.mu.Lock()
	if ws.closed {
		ws.mu.Unlock()
		return ErrClosed
	}
	if err := ws.validateLocked(keys, registration); err != nil {
		ws.mu.Unlock()
		return err
	}
	task := ws.assignLocked(op, keys, registration)
	ws.touchLocked()
	ws.mu.Unlock()

	ws.run(task)
	return nil
}

func (ws *Workspace) assignLocked(op string, keys []rotation.OccurrenceKey, registration string) func() {
	batch := ws.newBatchLocked()
	for _, k := range keys {
		ws.pending.push(k, &pendingOp{batch: batch, kind: opAssign, reg: registration})
		delete(ws.overrides, k)
	}
	return ws.writeTaskLocked(op, batch, keys, func(ctx context.Context) error {
		return ws.writer.Assign(ctx, keys, registration)
	})
}

// Unassign 取消实例的逐日安排
func (ws *Workspace) Unassign(keys []rotation.OccurrenceKey) error {
	keys = uniqueKeys(keys)
	if len(keys) == 0 {
		return ErrEmptySelection
	}

	ws.mu.Lock()
	if ws.closed {
		ws.mu.Unlock()
		return ErrClosed
	}
	if err := ws.validateLocked(keys, ""); err != nil {
		ws.mu.Unlock()
		return err
	}
	batch := ws.newBatchLocked()
	for _, k := range keys {
		ws.pending.push(k, &pendingOp{batch: batch, kind: opUnassign})
		delete(ws.overrides, k)
	}
	task := ws.writeTaskLocked("unassign", batch, keys, func(ctx context.Context) error {
		return ws.writer.Unassign(ctx, keys)
	})
	ws.touchLocked()
	ws.mu.Unlock()

	ws.run(task)
	return nil
}

// Swap sideA（当前在 regA 上）换到 regB，sideB 换到 regA；两侧同批次，失败时一起回滚
func (ws *Workspace) Swap(sideA []rotation.OccurrenceKey, regA string, sideB []rotation.OccurrenceKey, regB string) error {
	sideA, sideB = uniqueKeys(sideA), uniqueKeys(sideB)
	if len(sideA)+len(sideB) == 0 {
		return ErrEmptySelection
	}
	regA, regB = strings.TrimSpace(regA), strings.TrimSpace(regB)
	if regA == "" || regB == "" {
		return ErrUnknownRegistration
	}
	if regA == regB {
		return ErrSameRegistration
	}

	ws.mu.Lock()
	if ws.closed {
		ws.mu.Unlock()
		return ErrClosed
	}
	if err := ws.validateLocked(sideA, regB); err != nil {
		ws.mu.Unlock()
		return err
	}
	if err := ws.validateLocked(sideB, regA); err != nil {
		ws.mu.Unlock()
		return err
	}
	batch := ws.newBatchLocked()
	for _, k := range sideA {
		ws.pending.push(k, &pendingOp{batch: batch, kind: opAssign, reg: regB})
		delete(ws.overrides, k)
	}
	for _, k := range sideB {
		ws.pending.push(k, &pendingOp{batch: batch, kind: opAssign, reg: regA})
		delete(ws.overrides, k)
	}
	all := append(slices.Clone(sideA), sideB...)
	task := ws.writeTaskLocked("swap", batch, all, func(ctx context.Context) error {
		return ws.writer.Swap(ctx, sideA, regA, sideB, regB)
	})
	ws.touchLocked()
	ws.mu.Unlock()

	ws.run(task)
	return nil
}

// Paste 把源实例当前的有效注册号复制到目标实例
func (ws *Workspace) Paste(source rotation.OccurrenceKey, targets []rotation.OccurrenceKey) error {
	targets = slices.DeleteFunc(uniqueKeys(targets), func(k rotation.OccurrenceKey) bool { return k == source })
	if len(targets) == 0 {
		return ErrEmptySelection
	}

	ws.mu.Lock()
	if ws.closed {
		ws.mu.Unlock()
		return ErrClosed
	}
	res, ok := ws.boardLocked().Resolution(source)
	if !ok || !res.Assigned() {
		ws.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNothingToPaste, source)
	}
	if err := ws.validateLocked(targets, res.Registration); err != nil {
		ws.mu.Unlock()
		return err
	}
	task := ws.assignLocked("paste", targets, res.Registration)
	ws.touchLocked()
	ws.mu.Unlock()

	ws.run(task)
	return nil
}

// ExcludeDate 软删除计划在某日的实例
func (ws *Workspace) ExcludeDate(patternID string, date rotation.Date) error {
	key := rotation.OccurrenceKey{PatternID: patternID, Date: date}

	ws.mu.Lock()
	if ws.closed {
		ws.mu.Unlock()
		return ErrClosed
	}
	if err := ws.validateLocked([]rotation.OccurrenceKey{key}, ""); err != nil {
		ws.mu.Unlock()
		return err
	}
	batch := ws.newBatchLocked()
	ws.pending.exclusions[key] = pendingExclusion{batch: batch}
	delete(ws.overrides, key)
	task := ws.writeTaskLocked("exclude", batch, []rotation.OccurrenceKey{key}, func(ctx context.Context) error {
		return ws.writer.ExcludeDate(ctx, patternID, date)
	})
	ws.touchLocked()
	ws.mu.Unlock()

	ws.run(task)
	return nil
}

// writeTaskLocked 写入任务：失败时整批回滚；无论成败都安排一次延迟重新抓取
func (ws *Workspace) writeTaskLocked(op string, batch uint64, keys []rotation.OccurrenceKey, call func(ctx context.Context) error) func() {
	return ws.taskLocked(func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ws.ctx), ws.writeTimeout)
		defer cancel()
		err := call(ctx)

		ws.mu.Lock()
		defer ws.mu.Unlock()
		if ws.closed {
			return
		}
		if err != nil {
			n := ws.pending.rollback(batch)
			ws.metrics.ObserveMutation(op, "rejected")
			ws.metrics.ObserveRollback()
			ws.addNoticeLocked(NoticeMutationRejected, fmt.Sprintf("%v: %v", ErrMutationRejected, err), keys)
			ws.logger.Warn("服务端拒绝修改，已回滚",
				zap.String("op", op), zap.Uint64("batch", batch), zap.Int("rolled_back", n), zap.Error(err))
		} else {
			ws.metrics.ObserveMutation(op, "accepted")
			ws.logger.Debug("修改已写入", zap.String("op", op), zap.Uint64("batch", batch), zap.Int("keys", len(keys)))
		}
		ws.scheduleRefetchLocked()
		ws.touchLocked()
	})
}

// ════════════════════════════════════════════════════════════
// 工作区覆盖（仅本会话可见，不写服务端）
// ════════════════════════════════════════════════════════════

// Place 在工作区内临时指定注册号
func (ws *Workspace) Place(key rotation.OccurrenceKey, registration string) error {
	registration = strings.TrimSpace(registration)
	if registration == "" {
		return ErrUnknownRegistration
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.closed {
		return ErrClosed
	}
	if err := ws.validateLocked([]rotation.OccurrenceKey{key}, registration); err != nil {
		return err
	}
	ws.overrides[key] = registration
	ws.touchLocked()
	return nil
}

// ClearOverride 移除单个覆盖，返回是否存在
func (ws *Workspace) ClearOverride(key rotation.OccurrenceKey) bool {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if _, ok := ws.overrides[key]; !ok {
		return false
	}
	delete(ws.overrides, key)
	ws.touchLocked()
	return true
}

// ResetOverrides 清空全部覆盖，返回清除数量
func (ws *Workspace) ResetOverrides() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	n := len(ws.overrides)
	if n > 0 {
		clear(ws.overrides)
		ws.touchLocked()
	}
	return n
}

// CommitOverrides 将覆盖提交为服务端安排，每个注册号一个批次，返回提交的实例数
func (ws *Workspace) CommitOverrides() (int, error) {
	ws.mu.Lock()
	if ws.closed {
		ws.mu.Unlock()
		return 0, ErrClosed
	}
	byReg := make(map[string][]rotation.OccurrenceKey)
	for k, reg := range ws.overrides {
		byReg[reg] = append(byReg[reg], k)
	}
	regs := make([]string, 0, len(byReg))
	for reg := range byReg {
		regs = append(regs, reg)
	}
	slices.Sort(regs)

	var tasks []func()
	n := 0
	for _, reg := range regs {
		keys := byReg[reg]
		slices.SortFunc(keys, compareKeys)
		tasks = append(tasks, ws.assignLocked("commit", keys, reg))
		n += len(keys)
	}
	if n > 0 {
		ws.touchLocked()
	}
	ws.mu.Unlock()

	ws.run(tasks...)
	return n, nil
}

// SetStrategy 切换自动排班策略，下次读取看板时重新求解
func (ws *Workspace) SetStrategy(s rotation.Strategy) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.strategy == s {
		return
	}
	ws.strategy = s
	ws.touchLocked()
}

// ════════════════════════════════════════════════════════════
// 读取
// ════════════════════════════════════════════════════════════

// Board 返回当前看板快照；状态未变化时返回同一快照
func (ws *Workspace) Board() *Board {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.boardLocked()
}

func (ws *Workspace) boardLocked() *Board {
	if ws.board != nil && ws.board.Generation == ws.generation {
		return ws.board
	}
	started := time.Now()
	var b *Board
	if ws.data == nil {
		b = &Board{Window: ws.window, Strategy: ws.strategy, ComputedAt: started}
	} else {
		// 新窗口的数据合并前，继续展示上次合并的窗口
		adds, deletes := ws.pending.layers()
		b = Compute(Snapshot{
			Window:         ws.dataWindow,
			Patterns:       ws.data.Patterns,
			Aircraft:       ws.data.Aircraft,
			Types:          ws.data.Types,
			Settings:       ws.data.Settings,
			Strategy:       ws.strategy,
			Persisted:      ws.persisted,
			Overrides:      ws.overrides,
			PendingAdds:    adds,
			PendingDeletes: deletes,
			Excluded:       ws.pending.excluded(),
		}, ws.solver)
		ws.metrics.ObserveBoard(time.Since(started), b.ConflictCounts(), b.OverflowCount())
	}
	b.Requested = ws.window
	b.State = ws.state
	b.Version = ws.applied
	b.Generation = ws.generation
	b.Notices = slices.Clone(ws.notices)
	ws.board = b
	return b
}

// Notices 当前提示列表
func (ws *Workspace) Notices() []Notice {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return slices.Clone(ws.notices)
}

// DismissNotice 移除指定提示
func (ws *Workspace) DismissNotice(id string) bool {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	i := slices.IndexFunc(ws.notices, func(n Notice) bool { return n.ID == id })
	if i < 0 {
		return false
	}
	ws.notices = slices.Delete(ws.notices, i, i+1)
	ws.touchLocked()
	return true
}

// ════════════════════════════════════════════════════════════
// 生命周期
// ════════════════════════════════════════════════════════════

// Wait 等待在途读写与排队中的延迟抓取全部完成
func (ws *Workspace) Wait() {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	for ws.inflight > 0 || ws.refetchStop != nil {
		ws.idle.Wait()
	}
}

// Close 取消在途抓取与排队中的延迟抓取；在途写入不取消，但其结果不再生效
func (ws *Workspace) Close() {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.closed {
		return
	}
	ws.closed = true
	ws.cancel()
	if ws.cancelFetch != nil {
		ws.cancelFetch()
		ws.cancelFetch = nil
	}
	if ws.refetchStop != nil {
		ws.refetchStop()
		ws.refetchStop = nil
	}
	ws.state = StateIdle
	ws.idle.Broadcast()
	ws.logger.Debug("工作区已关闭")
}

// ── 内部辅助 ──

// taskLocked 登记一个异步任务，完成后唤醒 Wait
func (ws *Workspace) taskLocked(f func()) func() {
	ws.inflight++
	return func() {
		defer func() {
			ws.mu.Lock()
			ws.inflight--
			ws.idle.Broadcast()
			ws.mu.Unlock()
		}()
		f()
	}
}

func (ws *Workspace) run(tasks ...func()) {
	for _, t := range tasks {
		if t != nil {
			ws.spawn(t)
		}
	}
}

func (ws *Workspace) touchLocked() { ws.generation++ }

func (ws *Workspace) newBatchLocked() uint64 {
	ws.nextBatch++
	return ws.nextBatch
}

func (ws *Workspace) addNoticeLocked(kind NoticeKind, msg string, keys []rotation.OccurrenceKey) {
	ws.notices = append(ws.notices, Notice{
		ID:      uuid.New().String(),
		Kind:    kind,
		Message: msg,
		Keys:    slices.Clone(keys),
		At:      time.Now(),
	})
	if len(ws.notices) > maxNotices {
		ws.notices = slices.Delete(ws.notices, 0, len(ws.notices)-maxNotices)
	}
}

// validateLocked 尚未加载数据时不做校验；registration 为空时只校验实例。
// 实例必须落在已合并数据的窗口内。
func (ws *Workspace) validateLocked(keys []rotation.OccurrenceKey, registration string) error {
	if ws.data == nil {
		return nil
	}
	for _, k := range keys {
		p, ok := ws.patterns[k.PatternID]
		if !ok || !ws.dataWindow.Contains(k.Date) || !p.OperatesOn(k.Date) {
			return fmt.Errorf("%w: %s", ErrUnknownOccurrence, k)
		}
		if _, excluded := ws.pending.exclusions[k]; excluded {
			return fmt.Errorf("%w: %s", ErrUnknownOccurrence, k)
		}
	}
	if registration == "" {
		return nil
	}
	a, ok := ws.fleet.Aircraft(registration)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRegistration, registration)
	}
	if !a.Active {
		return fmt.Errorf("%w: %s", ErrInactiveAircraft, registration)
	}
	for _, k := range keys {
		p := ws.patterns[k.PatternID]
		if !rotation.Compatible(p.AircraftType, a.Type, ws.types, ws.data.Settings.AllowFamilySubstitution) {
			return fmt.Errorf("%w: %s 需要 %s，%s 为 %s", ErrIncompatibleType, k, p.AircraftType, registration, a.Type)
		}
	}
	return nil
}

func uniqueKeys(keys []rotation.OccurrenceKey) []rotation.OccurrenceKey {
	seen := make(map[rotation.OccurrenceKey]struct{}, len(keys))
	out := make([]rotation.OccurrenceKey, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func compareKeys(a, b rotation.OccurrenceKey) int {
	if c := a.Date.Time().Compare(b.Date.Time()); c != 0 {
		return c
	}
	return strings.Compare(a.PatternID, b.PatternID)
}
