package rotation

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// ConflictKind 衔接问题类型
type ConflictKind string

const (
	ConflictOverlap         ConflictKind = "overlap"
	ConflictInsufficientTAT ConflictKind = "insufficient-tat"
	ConflictStationMismatch ConflictKind = "station-mismatch"
	ConflictTight           ConflictKind = "tight" // 仅提示，不属于硬冲突
)

// Conflict 同一机尾同一日相邻两段的衔接问题（派生、不持久化）
type Conflict struct {
	Registration string
	Date         Date
	Kind         ConflictKind
	First        Occurrence
	Second       Occurrence
	Gap          time.Duration
	Required     time.Duration
	Detail       string
}

// IsHard 是否需要人工处理
func (c Conflict) IsHard() bool { return c.Kind != ConflictTight }

// ChainRule 判断两段是否属于同一航线链（同链不做站点衔接校验）
type ChainRule func(a, b Occurrence) bool

// SameRouteChain 默认航线链规则：共享非空航线链编号，且扣除各自日偏移后运营日相同
func SameRouteChain(a, b Occurrence) bool {
	if a.RouteID == "" || a.RouteID != b.RouteID {
		return false
	}
	return a.Key.Date.AddDays(-a.DayOffset) == b.Key.Date.AddDays(-b.DayOffset)
}

// Detector 冲突检测器
type Detector struct {
	TAT               TATModel
	Chain             ChainRule     // nil 时使用 SameRouteChain
	StationContinuity bool          // 是否检测站点不衔接
	TightBuffer       time.Duration // >0 时对余量不足的衔接给出 tight 提示
	TypeOf            func(reg string) string
}

type tailDay struct {
	reg  string
	date Date
}

// ════════════════════════════════════════════════════════════
// Detect — 全量重算冲突
// ════════════════════════════════════════════════════════════

// Detect 对所有机尾逐日检测。每次调用从零计算，不保留增量状态。
// 只有两段都为已确认安排（持久化记录或计划默认注册号）时才参与检测。
func (d *Detector) Detect(occs []Occurrence, res map[OccurrenceKey]Resolution) []Conflict {
	groups := make(map[tailDay][]Occurrence)
	for _, o := range occs {
		r, ok := res[o.Key]
		if !ok || !r.Source.Confirmed() || r.Pending {
			continue
		}
		k := tailDay{reg: r.Registration, date: o.Key.Date}
		groups[k] = append(groups[k], o)
	}

	keys := make([]tailDay, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b tailDay) int {
		if c := strings.Compare(a.reg, b.reg); c != 0 {
			return c
		}
		return a.date.Time().Compare(b.date.Time())
	})

	var out []Conflict
	for _, k := range keys {
		out = append(out, d.DetectSequence(k.reg, k.date, groups[k])...)
	}
	return out
}

// DetectSequence 检测单个机尾单日的航段序列
func (d *Detector) DetectSequence(reg string, date Date, seq []Occurrence) []Conflict {
	if len(seq) < 2 {
		return nil
	}
	ordered := slices.Clone(seq)
	SortOccurrences(ordered)

	typeCode := ""
	if d.TypeOf != nil {
		typeCode = d.TypeOf(reg)
	}

	var out []Conflict
	for i := 0; i+1 < len(ordered); i++ {
		cur, next := ordered[i], ordered[i+1]
		tc := typeCode
		if tc == "" {
			tc = cur.AircraftType
		}
		if c, ok := d.classify(reg, date, tc, cur, next); ok {
			out = append(out, c)
		}
	}
	return out
}

func (d *Detector) chain() ChainRule {
	if d.Chain != nil {
		return d.Chain
	}
	return SameRouteChain
}

func (d *Detector) classify(reg string, date Date, typeCode string, cur, next Occurrence) (Conflict, bool) {
	c := Conflict{Registration: reg, Date: date, First: cur, Second: next}
	gap := next.Departure.Sub(cur.Arrival)
	c.Gap = gap

	if next.Departure.Before(cur.Arrival) {
		c.Kind = ConflictOverlap
		c.Detail = fmt.Sprintf("%s 与 %s 时间重叠: %s 起飞早于 %s 到达",
			cur.FlightNumber, next.FlightNumber, next.Departure.Format("15:04"), cur.Arrival.Format("15:04"))
		return c, true
	}

	if d.StationContinuity && cur.ArrStation != next.DepStation && !d.chain()(cur, next) {
		c.Kind = ConflictStationMismatch
		c.Detail = fmt.Sprintf("%s 到达 %s，%s 从 %s 出发", cur.FlightNumber, cur.ArrStation, next.FlightNumber, next.DepStation)
		return c, true
	}

	required := d.TAT.Required(typeCode, cur, next)
	c.Required = required
	if gap < required {
		c.Kind = ConflictInsufficientTAT
		c.Detail = fmt.Sprintf("%s→%s 过站时间不足: gap=%d < min=%d",
			cur.FlightNumber, next.FlightNumber, int(gap.Minutes()), int(required.Minutes()))
		return c, true
	}

	if d.TightBuffer > 0 && gap < required+d.TightBuffer {
		c.Kind = ConflictTight
		c.Detail = fmt.Sprintf("%s→%s 过站余量偏紧: gap=%d, min=%d",
			cur.FlightNumber, next.FlightNumber, int(gap.Minutes()), int(required.Minutes()))
		return c, true
	}
	return Conflict{}, false
}

// HardConflicts 过滤掉提示类结果
func HardConflicts(cs []Conflict) []Conflict {
	out := make([]Conflict, 0, len(cs))
	for _, c := range cs {
		if c.IsHard() {
			out = append(out, c)
		}
	}
	return out
}
