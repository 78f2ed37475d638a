package rotation

import (
	"testing"
	"time"
)

func TestTATMatrix_LookupOrder(t *testing.T) {
	m := TATMatrix{
		Flat: ptr(50),
		Cells: [4]TATCell{
			ComboDD: {Default: ptr(30)},
			ComboDI: {Default: ptr(45), Override: ptr(55)},
		},
	}
	tests := []struct {
		combo Combo
		want  int
	}{
		{ComboDD, 30}, // 组合默认值
		{ComboDI, 55}, // 人工覆盖
		{ComboII, 50}, // 机型统一默认值
	}
	for _, tt := range tests {
		got, ok := m.Minutes(tt.combo)
		if !ok || got != tt.want {
			t.Errorf("%s: 期望 %d，实际: %d (ok=%v)", tt.combo, tt.want, got, ok)
		}
	}

	if _, ok := (TATMatrix{}).Minutes(ComboDD); ok {
		t.Error("空矩阵不应返回取值")
	}
}

func TestTATModel_Fallback(t *testing.T) {
	model := NewTATModel([]AircraftType{{Code: "A320"}}, 0)
	if got := model.Lookup("A320", ComboDD); got != DefaultFallbackTAT {
		t.Errorf("期望兜底 45 分钟，实际: %v", got)
	}
	if got := model.Lookup("B787", ComboII); got != DefaultFallbackTAT {
		t.Errorf("未知机型期望兜底 45 分钟，实际: %v", got)
	}

	custom := NewTATModel(nil, 35*time.Minute)
	if got := custom.Lookup("A320", ComboDD); got != 35*time.Minute {
		t.Errorf("期望配置兜底 35 分钟，实际: %v", got)
	}
}

func TestComboBetween(t *testing.T) {
	dom := Occurrence{RouteType: RouteDomestic}
	intl := Occurrence{RouteType: RouteInternational}
	unknown := Occurrence{}

	tests := []struct {
		prev, next Occurrence
		want       Combo
	}{
		{dom, dom, ComboDD},
		{dom, intl, ComboDI},
		{intl, dom, ComboID},
		{intl, intl, ComboII},
		{unknown, intl, ComboDI}, // 未知按国内
	}
	for _, tt := range tests {
		if got := ComboBetween(tt.prev, tt.next); got != tt.want {
			t.Errorf("期望 %s，实际: %s", tt.want, got)
		}
	}

	if c, err := ParseCombo("id"); err != nil || c != ComboID {
		t.Errorf("ParseCombo(id) 期望 ComboID，实际: %v, %v", c, err)
	}
	if _, err := ParseCombo("xx"); err == nil {
		t.Error("ParseCombo(xx) 应失败")
	}
}
