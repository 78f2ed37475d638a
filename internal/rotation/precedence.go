package rotation

import (
	"slices"
	"strings"
)

// Source 有效注册号来源（标签联合）
type Source int

const (
	SourceNone Source = iota
	SourcePersisted
	SourceDefault
	SourceOverride
	SourceAuto
)

var sourceNames = [...]string{"none", "persisted", "default", "override", "auto"}

func (s Source) String() string {
	if s < SourceNone || s > SourceAuto {
		return "unknown"
	}
	return sourceNames[s]
}

// MarshalText JSON 输出名称
func (s Source) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Confirmed 是否为服务端已确认的来源（冲突检测只在已确认安排之间进行）
func (s Source) Confirmed() bool {
	return s == SourcePersisted || s == SourceDefault
}

// PersistedAssignment 服务端已确认的 (pattern, date) → registration
type PersistedAssignment struct {
	Key          OccurrenceKey
	Registration string
}

// Layers 各安排来源；解析期间视为只读快照
type Layers struct {
	Persisted      map[OccurrenceKey]string
	Overrides      map[OccurrenceKey]string
	Auto           map[OccurrenceKey]string
	PendingAdds    map[OccurrenceKey]string
	PendingDeletes map[OccurrenceKey]struct{}
}

// PersistedIndex 由记录列表构建索引，重复键以后者为准
func PersistedIndex(records []PersistedAssignment) map[OccurrenceKey]string {
	idx := make(map[OccurrenceKey]string, len(records))
	for _, r := range records {
		if r.Registration == "" {
			continue
		}
		idx[r.Key] = r.Registration
	}
	return idx
}

// Resolution 单个实例的解析结果
type Resolution struct {
	Key          OccurrenceKey
	Registration string
	Source       Source
	Pending      bool // 本地待确认的写入
}

// Assigned 是否已有有效注册号
func (r Resolution) Assigned() bool { return r.Source != SourceNone }

// ════════════════════════════════════════════════════════════
// Resolve — 优先级合并
// ════════════════════════════════════════════════════════════

// Resolve 按优先级求实例的有效注册号：
//
//	待确认新增 → 已确认记录（待确认删除时屏蔽）→ 计划默认注册号（无逐日记录时）
//	→ 工作区覆盖 → 自动排班 → 无（溢出）
//
// 待确认新增代表用户最近一次意图，在下次对账前不被不一致的服务端数据覆盖。
func Resolve(occ Occurrence, l *Layers) Resolution {
	key := occ.Key
	res := Resolution{Key: key}

	if reg, ok := l.PendingAdds[key]; ok && reg != "" {
		res.Registration, res.Source, res.Pending = reg, SourceOverride, true
		return res
	}

	_, deleting := l.PendingDeletes[key]
	persisted, hasRecord := l.Persisted[key]
	if deleting {
		hasRecord = false
	}
	switch {
	case hasRecord && persisted != "":
		res.Registration, res.Source = persisted, SourcePersisted
	case occ.DefaultRegistration != "":
		res.Registration, res.Source = occ.DefaultRegistration, SourceDefault
	case l.Overrides[key] != "":
		res.Registration, res.Source = l.Overrides[key], SourceOverride
	case l.Auto[key] != "":
		res.Registration, res.Source = l.Auto[key], SourceAuto
	default:
		res.Source = SourceNone
	}
	res.Pending = deleting
	return res
}

// ResolveAll 批量解析
func ResolveAll(occs []Occurrence, l *Layers) map[OccurrenceKey]Resolution {
	out := make(map[OccurrenceKey]Resolution, len(occs))
	for _, o := range occs {
		out[o.Key] = Resolve(o, l)
	}
	return out
}

// ── 溢出分组 ──

// OverflowGroup 同一需求机型下无法安排的实例
type OverflowGroup struct {
	AircraftType string
	Occurrences  []Occurrence
}

// GroupOverflow 按需求机型分组，组按机型编码排序，组内按时间排序
func GroupOverflow(occs []Occurrence) []OverflowGroup {
	byType := make(map[string][]Occurrence)
	for _, o := range occs {
		byType[o.AircraftType] = append(byType[o.AircraftType], o)
	}
	groups := make([]OverflowGroup, 0, len(byType))
	for t, list := range byType {
		SortOccurrences(list)
		groups = append(groups, OverflowGroup{AircraftType: t, Occurrences: list})
	}
	slices.SortFunc(groups, func(a, b OverflowGroup) int {
		return strings.Compare(a.AircraftType, b.AircraftType)
	})
	return groups
}

// Unassigned 筛选解析结果为无的实例，保持输入顺序
func Unassigned(occs []Occurrence, res map[OccurrenceKey]Resolution) []Occurrence {
	var out []Occurrence
	for _, o := range occs {
		if !res[o.Key].Assigned() {
			out = append(out, o)
		}
	}
	return out
}
