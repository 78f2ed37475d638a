package solver

import (
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/vivimassa/horizon-sub000/internal/rotation"
)

// Greedy 按时间顺序逐段贪心安排。
//
// 每段航班在兼容机尾中打分择优，分数越小越优先，同分按注册号排序保证稳定。
//   - minimize-aircraft：优先使用当日已在飞的机尾，并尽量贴紧上一段到达时间
//   - balance-hours：优先当前累计轮挡时间最少的机尾
//
// 站点衔接与机型族替换只影响打分，机型兼容、时间重叠与过站时间是硬约束。
type Greedy struct{}

// New 创建 Greedy 求解器
func New() *Greedy { return &Greedy{} }

var _ rotation.Solver = (*Greedy)(nil)

const (
	penaltyNewTail       = 1_000_000
	penaltySubstitution  = 100_000
	penaltyStationBreak  = 10_000
	penaltyHomeBaseBreak = 1_000
	balanceMinuteWeight  = 1
	packingMinuteWeight  = 1
	maxPackingGapMinutes = 24 * 60
)

type tail struct {
	aircraft rotation.Aircraft
	legs     []rotation.Occurrence // 按起飞时间有序
	block    time.Duration
	used     bool
}

// Solve 实现 rotation.Solver
func (g *Greedy) Solve(in rotation.SolverInput) rotation.SolverResult {
	result := rotation.SolverResult{Assignments: make(map[rotation.OccurrenceKey]string)}

	// 阶段1: 在役机尾，按注册号排序
	tails := make([]*tail, 0, len(in.Aircraft))
	byReg := make(map[string]*tail, len(in.Aircraft))
	for _, a := range in.Aircraft {
		if !a.Active {
			continue
		}
		if _, dup := byReg[a.Registration]; dup {
			continue
		}
		t := &tail{aircraft: a}
		tails = append(tails, t)
		byReg[a.Registration] = t
	}
	sort.Slice(tails, func(i, j int) bool {
		return tails[i].aircraft.Registration < tails[j].aircraft.Registration
	})

	// 阶段2: 载入已占用时段
	for _, p := range in.Fixed {
		t, ok := byReg[p.Registration]
		if !ok {
			continue
		}
		t.insert(p.Occurrence)
		t.used = true
	}

	// 阶段3: 按时间顺序逐段安排
	occs := slices.Clone(in.Occurrences)
	rotation.SortOccurrences(occs)

	for _, occ := range occs {
		best, bestScore := (*tail)(nil), 0
		for _, t := range tails {
			if !rotation.Compatible(occ.AircraftType, t.aircraft.Type, in.Types, in.AllowFamilySubstitution) {
				continue
			}
			if !t.fits(occ, in.TAT) {
				continue
			}
			score := g.score(in, t, occ)
			if best == nil || score < bestScore {
				best, bestScore = t, score
			}
		}
		if best == nil {
			result.Overflow = append(result.Overflow, occ)
			continue
		}
		best.insert(occ)
		best.used = true
		result.Assignments[occ.Key] = best.aircraft.Registration
	}
	return result
}

func (g *Greedy) score(in rotation.SolverInput, t *tail, occ rotation.Occurrence) int {
	score := 0
	if t.aircraft.Type != occ.AircraftType && occ.AircraftType != "" {
		score += penaltySubstitution
	}

	prev, hasPrev := t.previous(occ)
	switch {
	case hasPrev && prev.ArrStation != occ.DepStation:
		score += penaltyStationBreak
	case !hasPrev && t.aircraft.HomeBase != "" && t.aircraft.HomeBase != occ.DepStation:
		score += penaltyHomeBaseBreak
	}

	switch in.Strategy {
	case rotation.StrategyBalanceHours:
		score += int(t.block.Minutes()) * balanceMinuteWeight
	default:
		if !t.used {
			score += penaltyNewTail
		}
		if hasPrev {
			gap := int(occ.Departure.Sub(prev.Arrival).Minutes())
			if gap > maxPackingGapMinutes {
				gap = maxPackingGapMinutes
			}
			score += gap * packingMinuteWeight
		} else {
			score += maxPackingGapMinutes
		}
	}
	return score
}

// fits 不与任何已有航段重叠，且与前后相邻航段满足过站时间
func (t *tail) fits(occ rotation.Occurrence, tat rotation.TATModel) bool {
	for _, leg := range t.legs {
		if leg.Overlaps(occ) {
			return false
		}
	}
	typeCode := t.aircraft.Type
	if prev, ok := t.previous(occ); ok {
		if occ.Departure.Sub(prev.Arrival) < tat.Required(typeCode, prev, occ) {
			return false
		}
	}
	if next, ok := t.next(occ); ok {
		if next.Departure.Sub(occ.Arrival) < tat.Required(typeCode, occ, next) {
			return false
		}
	}
	return true
}

// previous 到达不晚于 occ 起飞的最后一段
func (t *tail) previous(occ rotation.Occurrence) (rotation.Occurrence, bool) {
	var found rotation.Occurrence
	ok := false
	for _, leg := range t.legs {
		if !leg.Arrival.After(occ.Departure) {
			found, ok = leg, true
		}
	}
	return found, ok
}

// next 起飞不早于 occ 到达的第一段
func (t *tail) next(occ rotation.Occurrence) (rotation.Occurrence, bool) {
	for _, leg := range t.legs {
		if !leg.Departure.Before(occ.Arrival) {
			return leg, true
		}
	}
	return rotation.Occurrence{}, false
}

func (t *tail) insert(occ rotation.Occurrence) {
	i := sort.Search(len(t.legs), func(i int) bool {
		c := t.legs[i].Departure.Compare(occ.Departure)
		if c == 0 {
			return strings.Compare(t.legs[i].FlightNumber, occ.FlightNumber) > 0
		}
		return c > 0
	})
	t.legs = slices.Insert(t.legs, i, occ)
	t.block += occ.BlockTime()
}
