package rotation

import (
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"
)

// PatternStatus 航班计划生命周期
type PatternStatus string

const (
	StatusWIP       PatternStatus = "wip"
	StatusFinalized PatternStatus = "finalized"
	StatusPublished PatternStatus = "published"
)

// RouteType 航段国内/国际属性，空值表示未知
type RouteType string

const (
	RouteUnknown       RouteType = ""
	RouteDomestic      RouteType = "domestic"
	RouteInternational RouteType = "international"
)

// IsDomestic 未知属性按国内处理（宽松）
func (r RouteType) IsDomestic() bool { return r != RouteInternational }

// Pattern 周期性航班计划（只读）
type Pattern struct {
	ID                  string
	FlightNumber        string
	DepStation          string
	ArrStation          string
	DepTime             Clock
	ArrTime             Clock
	Days                Weekdays
	ValidFrom           Date
	ValidTo             Date
	AircraftType        string
	Status              PatternStatus
	DefaultRegistration string
	Exclusions          DateSet
	RouteType           RouteType
	RouteID             string // 航线链编号，同链航段之间不做站点衔接校验
	DayOffset           int    // 相对航线链首段的运营日偏移
}

// OperatesOn 判断计划在 d 是否执行：有效期内、班期命中、且不在例外日期中
func (p *Pattern) OperatesOn(d Date) bool {
	if d.Before(p.ValidFrom) || d.After(p.ValidTo) {
		return false
	}
	if !p.Days.Has(d.Weekday()) {
		return false
	}
	return !p.Exclusions.Has(d)
}

// OccurrenceKey 航班实例标识 (pattern, date)
type OccurrenceKey struct {
	PatternID string
	Date      Date
}

func (k OccurrenceKey) String() string {
	return k.PatternID + "@" + k.Date.String()
}

// ParseOccurrenceKey 解析 "patternID@YYYY-MM-DD"
func ParseOccurrenceKey(s string) (OccurrenceKey, error) {
	i := strings.LastIndex(s, "@")
	if i <= 0 {
		return OccurrenceKey{}, fmt.Errorf("航班实例标识无效: %q", s)
	}
	d, err := ParseDate(s[i+1:])
	if err != nil {
		return OccurrenceKey{}, err
	}
	return OccurrenceKey{PatternID: s[:i], Date: d}, nil
}

// Occurrence 计划在窗口内的具体日期实例（派生值，不持久化）
type Occurrence struct {
	Key                 OccurrenceKey
	FlightNumber        string
	DepStation          string
	ArrStation          string
	AircraftType        string
	RouteType           RouteType
	RouteID             string
	DayOffset           int
	DefaultRegistration string
	Departure           time.Time
	Arrival             time.Time
	ArrivesNextDay      bool
}

// BlockTime 轮挡时间
func (o Occurrence) BlockTime() time.Duration { return o.Arrival.Sub(o.Departure) }

// Overlaps 两个实例的 [departure, arrival] 区间是否重叠（首尾相接不算重叠）
func (o Occurrence) Overlaps(other Occurrence) bool {
	return o.Departure.Before(other.Arrival) && other.Departure.Before(o.Arrival)
}

// occurrenceOf 构造实例；到达时刻早于起飞时刻视为次日到达
func occurrenceOf(p *Pattern, d Date) Occurrence {
	dep := d.At(p.DepTime)
	arrDate := d
	nextDay := p.ArrTime < p.DepTime
	if nextDay {
		arrDate = d.AddDays(1)
	}
	return Occurrence{
		Key:                 OccurrenceKey{PatternID: p.ID, Date: d},
		FlightNumber:        p.FlightNumber,
		DepStation:          p.DepStation,
		ArrStation:          p.ArrStation,
		AircraftType:        p.AircraftType,
		RouteType:           p.RouteType,
		RouteID:             p.RouteID,
		DayOffset:           p.DayOffset,
		DefaultRegistration: p.DefaultRegistration,
		Departure:           dep,
		Arrival:             arrDate.At(p.ArrTime),
		ArrivesNextDay:      nextDay,
	}
}

// ════════════════════════════════════════════════════════════
// Expand — 计划展开
// ════════════════════════════════════════════════════════════

// Expand 将计划集合展开为窗口内的航班实例序列。
// 序列惰性求值且可重复遍历；相同输入产生相同序列（计划按输入顺序、日期升序）。
func Expand(patterns []Pattern, w Window) iter.Seq[Occurrence] {
	return func(yield func(Occurrence) bool) {
		for i := range patterns {
			p := &patterns[i]
			for d := range w.Dates() {
				if !p.OperatesOn(d) {
					continue
				}
				if !yield(occurrenceOf(p, d)) {
					return
				}
			}
		}
	}
}

// ExpandSorted 展开并按时间排序，便于展示与求解
func ExpandSorted(patterns []Pattern, w Window) []Occurrence {
	occs := slices.Collect(Expand(patterns, w))
	SortOccurrences(occs)
	return occs
}

// SortOccurrences 按起飞时间、航班号、计划 ID 稳定排序
func SortOccurrences(occs []Occurrence) {
	slices.SortStableFunc(occs, compareOccurrence)
}

func compareOccurrence(a, b Occurrence) int {
	if c := a.Departure.Compare(b.Departure); c != 0 {
		return c
	}
	if c := strings.Compare(a.FlightNumber, b.FlightNumber); c != 0 {
		return c
	}
	if c := strings.Compare(a.Key.PatternID, b.Key.PatternID); c != 0 {
		return c
	}
	return a.Key.Date.Time().Compare(b.Key.Date.Time())
}

// IndexOccurrences 按标识建立索引
func IndexOccurrences(occs []Occurrence) map[OccurrenceKey]Occurrence {
	idx := make(map[OccurrenceKey]Occurrence, len(occs))
	for _, o := range occs {
		idx[o.Key] = o
	}
	return idx
}
