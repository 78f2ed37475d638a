package rotation

import (
	"fmt"
	"time"
)

// DefaultFallbackTAT 系统兜底最短过站时间
const DefaultFallbackTAT = 45 * time.Minute

// Combo 过站方向组合：前段到达国内/国际 × 后段出发国内/国际
type Combo int

const (
	ComboDD Combo = iota // 国内→国内
	ComboDI              // 国内→国际
	ComboID              // 国际→国内
	ComboII              // 国际→国际
)

var comboNames = [...]string{"dd", "di", "id", "ii"}

func (c Combo) String() string {
	if c < ComboDD || c > ComboII {
		return fmt.Sprintf("combo(%d)", int(c))
	}
	return comboNames[c]
}

// ParseCombo 解析 dd/di/id/ii
func ParseCombo(s string) (Combo, error) {
	for i, n := range comboNames {
		if n == s {
			return Combo(i), nil
		}
	}
	return 0, fmt.Errorf("过站方向组合无效: %q", s)
}

// ComboOf 由前段到达属性与后段出发属性求组合
func ComboOf(arrDomestic, depDomestic bool) Combo {
	switch {
	case arrDomestic && depDomestic:
		return ComboDD
	case arrDomestic:
		return ComboDI
	case depDomestic:
		return ComboID
	default:
		return ComboII
	}
}

// ComboBetween 两个相邻实例的过站组合
func ComboBetween(prev, next Occurrence) Combo {
	return ComboOf(prev.RouteType.IsDomestic(), next.RouteType.IsDomestic())
}

// TATCell 单个方向组合的默认值与人工覆盖值（分钟）
type TATCell struct {
	Default  *int `json:"default,omitempty"`
	Override *int `json:"override,omitempty"`
}

// TATMatrix 机型过站时间矩阵
type TATMatrix struct {
	Flat  *int       `json:"flat,omitempty"` // 机型统一默认值
	Cells [4]TATCell `json:"cells"`
}

// Minutes 按 覆盖值 → 组合默认值 → 机型统一默认值 的顺序取值
func (m TATMatrix) Minutes(c Combo) (int, bool) {
	if c < ComboDD || c > ComboII {
		return 0, false
	}
	cell := m.Cells[c]
	switch {
	case cell.Override != nil:
		return *cell.Override, true
	case cell.Default != nil:
		return *cell.Default, true
	case m.Flat != nil:
		return *m.Flat, true
	}
	return 0, false
}

// TATModel 过站时间模型。冲突检测与自动排班共用同一实例，保证判定一致。
type TATModel struct {
	Types    map[string]TATMatrix
	Fallback time.Duration
}

// NewTATModel 由机型列表构建，fallback<=0 时使用系统默认 45 分钟
func NewTATModel(types []AircraftType, fallback time.Duration) TATModel {
	if fallback <= 0 {
		fallback = DefaultFallbackTAT
	}
	m := TATModel{Types: make(map[string]TATMatrix, len(types)), Fallback: fallback}
	for _, t := range types {
		m.Types[t.Code] = t.TAT
	}
	return m
}

// Lookup 查询机型在指定组合下的最短过站时间
func (m TATModel) Lookup(typeCode string, c Combo) time.Duration {
	if matrix, ok := m.Types[typeCode]; ok {
		if mins, ok := matrix.Minutes(c); ok {
			return time.Duration(mins) * time.Minute
		}
	}
	if m.Fallback <= 0 {
		return DefaultFallbackTAT
	}
	return m.Fallback
}

// Required 同一机尾上 prev → next 所需的最短过站时间
func (m TATModel) Required(typeCode string, prev, next Occurrence) time.Duration {
	return m.Lookup(typeCode, ComboBetween(prev, next))
}
