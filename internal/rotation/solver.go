package rotation

import (
	"errors"
	"fmt"
)

// Strategy 自动排班策略
type Strategy string

const (
	StrategyMinimizeAircraft Strategy = "minimize-aircraft"
	StrategyBalanceHours     Strategy = "balance-hours"
)

// ParseStrategy 空值使用 minimize-aircraft
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyMinimizeAircraft:
		return StrategyMinimizeAircraft, nil
	case StrategyBalanceHours:
		return StrategyBalanceHours, nil
	}
	return "", fmt.Errorf("未知排班策略: %q", s)
}

// Placement 已被更高优先级来源占用的机尾时段
type Placement struct {
	Occurrence   Occurrence
	Registration string
}

// SolverInput 自动排班输入
type SolverInput struct {
	Occurrences             []Occurrence // 尚未安排的实例
	Aircraft                []Aircraft
	Types                   map[string]AircraftType
	TAT                     TATModel
	Strategy                Strategy
	AllowFamilySubstitution bool
	Fixed                   []Placement
}

// SolverResult 自动排班输出；Overflow 中的实例按其需求机型分组展示
type SolverResult struct {
	Assignments map[OccurrenceKey]string
	Overflow    []Occurrence
}

// Solver 自动排班契约：
//   - 只使用在役机尾，且机型兼容（同机型，或配置允许时同机型族）；
//   - 同一机尾上不产生时间重叠（含 Fixed 占用）；
//   - 对相同输入必须给出相同输出。
//
// 内部算法可替换，不影响优先级解析与冲突检测。
type Solver interface {
	Solve(in SolverInput) SolverResult
}

// SolverFunc 函数适配器
type SolverFunc func(in SolverInput) SolverResult

func (f SolverFunc) Solve(in SolverInput) SolverResult { return f(in) }

var ErrContractViolation = errors.New("自动排班结果违反契约")

// VerifyResult 校验求解结果是否满足契约，供测试与调试使用
func VerifyResult(in SolverInput, out SolverResult) error {
	aircraft := make(map[string]Aircraft, len(in.Aircraft))
	for _, a := range in.Aircraft {
		aircraft[a.Registration] = a
	}
	occs := IndexOccurrences(in.Occurrences)

	placed := make(map[OccurrenceKey]bool, len(out.Assignments)+len(out.Overflow))
	timeline := make(map[string][]Occurrence)
	for _, p := range in.Fixed {
		timeline[p.Registration] = append(timeline[p.Registration], p.Occurrence)
	}

	for key, reg := range out.Assignments {
		occ, ok := occs[key]
		if !ok {
			return fmt.Errorf("%w: 安排了输入之外的实例 %s", ErrContractViolation, key)
		}
		a, ok := aircraft[reg]
		if !ok || !a.Active {
			return fmt.Errorf("%w: %s 使用了不可用机尾 %s", ErrContractViolation, key, reg)
		}
		if !Compatible(occ.AircraftType, a.Type, in.Types, in.AllowFamilySubstitution) {
			return fmt.Errorf("%w: %s 需求机型 %s，机尾 %s 机型 %s", ErrContractViolation, key, occ.AircraftType, reg, a.Type)
		}
		for _, other := range timeline[reg] {
			if occ.Overlaps(other) {
				return fmt.Errorf("%w: %s 与 %s 在 %s 上重叠", ErrContractViolation, key, other.Key, reg)
			}
		}
		timeline[reg] = append(timeline[reg], occ)
		placed[key] = true
	}

	for _, o := range out.Overflow {
		if placed[o.Key] {
			return fmt.Errorf("%w: %s 同时出现在安排与溢出中", ErrContractViolation, o.Key)
		}
		placed[o.Key] = true
	}
	for _, o := range in.Occurrences {
		if !placed[o.Key] {
			return fmt.Errorf("%w: %s 既未安排也未溢出", ErrContractViolation, o.Key)
		}
	}
	return nil
}
