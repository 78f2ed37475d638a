package workspace

import (
	"slices"
	"strings"
	"time"

	"github.com/vivimassa/horizon-sub000/internal/rotation"
)

// Settings 影响看板计算的运行规则
type Settings struct {
	AllowFamilySubstitution bool
	StationContinuity       bool
	TightBuffer             time.Duration
	FallbackTAT             time.Duration
}

// Snapshot 一次看板计算的只读输入
type Snapshot struct {
	Window         rotation.Window
	Patterns       []rotation.Pattern
	Aircraft       []rotation.Aircraft
	Types          []rotation.AircraftType
	Settings       Settings
	Strategy       rotation.Strategy
	Persisted      map[rotation.OccurrenceKey]string
	Overrides      map[rotation.OccurrenceKey]string
	PendingAdds    map[rotation.OccurrenceKey]string
	PendingDeletes map[rotation.OccurrenceKey]struct{}
	Excluded       map[rotation.OccurrenceKey]struct{} // 待确认的例外日期，不参与展开
}

// Board 看板快照，生成后不再修改
type Board struct {
	Window      rotation.Window // 数据所属窗口
	Requested   rotation.Window // 最近请求的窗口，抓取完成前可能与 Window 不同
	Strategy    rotation.Strategy
	State       State
	Version     uint64 // 已合并的抓取版本
	Generation  uint64
	Occurrences []rotation.Occurrence
	Resolutions map[rotation.OccurrenceKey]rotation.Resolution
	Conflicts   []rotation.Conflict
	Overflow    []rotation.OverflowGroup
	Aircraft    []rotation.Aircraft
	Notices     []Notice
	Pending     int
	Overrides   int
	ComputedAt  time.Time
}

// Leg 机尾行上的一段
type Leg struct {
	Occurrence rotation.Occurrence
	Resolution rotation.Resolution
}

// Row 看板的一行：一个机尾在窗口内的全部航段
type Row struct {
	Aircraft rotation.Aircraft
	Legs     []Leg
}

// ════════════════════════════════════════════════════════════
// Compute — 看板计算流水线
// ════════════════════════════════════════════════════════════

// Compute 展开 → 首轮解析 → 对未安排实例求解 → 终轮解析 → 冲突检测 → 溢出分组。
// 纯函数，不修改 s 中的任何集合。
func Compute(s Snapshot, solver rotation.Solver) *Board {
	// 阶段1: 展开，过滤待确认的例外日期
	occs := rotation.ExpandSorted(s.Patterns, s.Window)
	if len(s.Excluded) > 0 {
		occs = slices.DeleteFunc(occs, func(o rotation.Occurrence) bool {
			_, ok := s.Excluded[o.Key]
			return ok
		})
	}

	fleet := rotation.NewFleet(s.Aircraft, s.Types)
	tat := rotation.NewTATModel(s.Types, s.Settings.FallbackTAT)
	layers := &rotation.Layers{
		Persisted:      s.Persisted,
		Overrides:      s.Overrides,
		PendingAdds:    s.PendingAdds,
		PendingDeletes: s.PendingDeletes,
	}

	// 阶段2: 首轮解析，已有注册号的实例作为求解器的固定占用
	first := rotation.ResolveAll(occs, layers)
	var fixed []rotation.Placement
	for _, o := range occs {
		if r := first[o.Key]; r.Assigned() {
			fixed = append(fixed, rotation.Placement{Occurrence: o, Registration: r.Registration})
		}
	}

	// 阶段3: 自动排班
	if unassigned := rotation.Unassigned(occs, first); len(unassigned) > 0 && solver != nil {
		out := solver.Solve(rotation.SolverInput{
			Occurrences:             unassigned,
			Aircraft:                s.Aircraft,
			Types:                   fleet.TypeMap(),
			TAT:                     tat,
			Strategy:                s.Strategy,
			AllowFamilySubstitution: s.Settings.AllowFamilySubstitution,
			Fixed:                   fixed,
		})
		layers.Auto = out.Assignments
	}

	// 阶段4: 终轮解析与冲突检测
	final := rotation.ResolveAll(occs, layers)
	detector := &rotation.Detector{
		TAT:               tat,
		StationContinuity: s.Settings.StationContinuity,
		TightBuffer:       s.Settings.TightBuffer,
		TypeOf:            fleet.TypeOf,
	}

	return &Board{
		Window:      s.Window,
		Strategy:    s.Strategy,
		Occurrences: occs,
		Resolutions: final,
		Conflicts:   detector.Detect(occs, final),
		Overflow:    rotation.GroupOverflow(rotation.Unassigned(occs, final)),
		Aircraft:    fleet.Registrations(),
		Pending:     len(s.PendingAdds) + len(s.PendingDeletes) + len(s.Excluded),
		Overrides:   len(s.Overrides),
		ComputedAt:  time.Now(),
	}
}

// Resolution 查询单个实例的解析结果
func (b *Board) Resolution(key rotation.OccurrenceKey) (rotation.Resolution, bool) {
	r, ok := b.Resolutions[key]
	return r, ok
}

// Occurrence 查询单个实例
func (b *Board) Occurrence(key rotation.OccurrenceKey) (rotation.Occurrence, bool) {
	for _, o := range b.Occurrences {
		if o.Key == key {
			return o, true
		}
	}
	return rotation.Occurrence{}, false
}

// Rows 按机尾分组；未知注册号（机队中不存在）单独成行并排在最后
func (b *Board) Rows() []Row {
	index := make(map[string]int, len(b.Aircraft))
	rows := make([]Row, 0, len(b.Aircraft))
	for _, a := range b.Aircraft {
		index[a.Registration] = len(rows)
		rows = append(rows, Row{Aircraft: a})
	}
	var unknown []Row
	for _, o := range b.Occurrences {
		r := b.Resolutions[o.Key]
		if !r.Assigned() {
			continue
		}
		leg := Leg{Occurrence: o, Resolution: r}
		if i, ok := index[r.Registration]; ok {
			rows[i].Legs = append(rows[i].Legs, leg)
			continue
		}
		found := false
		for i := range unknown {
			if unknown[i].Aircraft.Registration == r.Registration {
				unknown[i].Legs = append(unknown[i].Legs, leg)
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, Row{Aircraft: rotation.Aircraft{Registration: r.Registration}, Legs: []Leg{leg}})
		}
	}
	slices.SortFunc(unknown, func(a, b Row) int {
		return strings.Compare(a.Aircraft.Registration, b.Aircraft.Registration)
	})
	return append(rows, unknown...)
}

// ConflictCounts 按类型统计冲突数
func (b *Board) ConflictCounts() map[string]int {
	out := make(map[string]int)
	for _, c := range b.Conflicts {
		out[string(c.Kind)]++
	}
	return out
}

// OverflowCount 溢出实例总数
func (b *Board) OverflowCount() int {
	n := 0
	for _, g := range b.Overflow {
		n += len(g.Occurrences)
	}
	return n
}
