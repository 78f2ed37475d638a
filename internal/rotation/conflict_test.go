package rotation

import (
	"strings"
	"testing"
	"time"
)

func scenarioTAT() TATModel {
	return NewTATModel([]AircraftType{{
		Code: "A320",
		TAT: TATMatrix{Cells: [4]TATCell{
			ComboDD: {Default: ptr(30)},
			ComboDI: {Default: ptr(45)},
			ComboID: {Default: ptr(40)},
			ComboII: {Default: ptr(60)},
		}},
	}}, 0)
}

func persistedOn(reg string, occs ...Occurrence) map[OccurrenceKey]Resolution {
	res := make(map[OccurrenceKey]Resolution, len(occs))
	for _, o := range occs {
		res[o.Key] = Resolution{Key: o.Key, Registration: reg, Source: SourcePersisted}
	}
	return res
}

func TestDetector_InsufficientTAT(t *testing.T) {
	in := occurrenceOn(t, newPattern(t, "p1", "VN100", "SGN", "HAN", "08:00", "10:00"), "2024-06-03")
	tooSoon := occurrenceOn(t, newPattern(t, "p2", "VN101", "HAN", "SGN", "10:20", "12:20"), "2024-06-03")
	d := &Detector{TAT: scenarioTAT()}

	conflicts := d.Detect([]Occurrence{in, tooSoon}, persistedOn("VN-A100", in, tooSoon))
	if len(conflicts) != 1 {
		t.Fatalf("期望 1 个冲突，实际: %d", len(conflicts))
	}
	c := conflicts[0]
	if c.Kind != ConflictInsufficientTAT {
		t.Errorf("期望 insufficient-tat，实际: %s", c.Kind)
	}
	if !strings.Contains(c.Detail, "gap=20 < min=30") {
		t.Errorf("Detail 期望包含 gap=20 < min=30，实际: %s", c.Detail)
	}
	if c.Gap != 20*time.Minute || c.Required != 30*time.Minute {
		t.Errorf("期望 gap=20m required=30m，实际: %v / %v", c.Gap, c.Required)
	}
}

func TestDetector_EnoughTAT(t *testing.T) {
	in := occurrenceOn(t, newPattern(t, "p1", "VN100", "SGN", "HAN", "08:00", "10:00"), "2024-06-03")
	later := occurrenceOn(t, newPattern(t, "p2", "VN101", "HAN", "SGN", "10:35", "12:35"), "2024-06-03")
	d := &Detector{TAT: scenarioTAT()}

	if conflicts := d.Detect([]Occurrence{in, later}, persistedOn("VN-A100", in, later)); len(conflicts) != 0 {
		t.Errorf("过站充足不应有冲突，实际: %+v", conflicts)
	}
}

func TestDetector_InternationalCombo(t *testing.T) {
	p1 := newPattern(t, "p1", "VN300", "NRT", "SGN", "04:00", "10:00")
	p1.RouteType = RouteInternational
	p2 := newPattern(t, "p2", "VN301", "SGN", "NRT", "10:50", "18:00")
	p2.RouteType = RouteInternational
	in, out := occurrenceOn(t, p1, "2024-06-03"), occurrenceOn(t, p2, "2024-06-03")
	d := &Detector{TAT: scenarioTAT()}

	conflicts := d.Detect([]Occurrence{in, out}, persistedOn("VN-A100", in, out))
	if len(conflicts) != 1 || !strings.Contains(conflicts[0].Detail, "gap=50 < min=60") {
		t.Errorf("国际→国际期望 gap=50 < min=60，实际: %+v", conflicts)
	}
}

func TestDetector_Overlap(t *testing.T) {
	a := occurrenceOn(t, newPattern(t, "p1", "VN100", "SGN", "HAN", "08:00", "10:00"), "2024-06-03")
	b := occurrenceOn(t, newPattern(t, "p2", "VN101", "HAN", "SGN", "09:30", "11:30"), "2024-06-03")
	d := &Detector{TAT: scenarioTAT()}

	conflicts := d.Detect([]Occurrence{b, a}, persistedOn("VN-A100", a, b))
	if len(conflicts) != 1 || conflicts[0].Kind != ConflictOverlap {
		t.Fatalf("期望 1 个 overlap，实际: %+v", conflicts)
	}
	if conflicts[0].First.Key != a.Key {
		t.Error("冲突应按时间顺序给出前后段")
	}
}

func TestDetector_StationMismatchAndRouteChain(t *testing.T) {
	a := occurrenceOn(t, newPattern(t, "p1", "VN100", "SGN", "HAN", "06:00", "08:00"), "2024-06-03")
	b := occurrenceOn(t, newPattern(t, "p2", "VN200", "DAD", "SGN", "10:00", "11:30"), "2024-06-03")
	res := persistedOn("VN-A100", a, b)

	off := &Detector{TAT: scenarioTAT()}
	if got := off.Detect([]Occurrence{a, b}, res); len(got) != 0 {
		t.Errorf("未启用站点衔接检测时不应报冲突，实际: %+v", got)
	}

	on := &Detector{TAT: scenarioTAT(), StationContinuity: true}
	got := on.Detect([]Occurrence{a, b}, res)
	if len(got) != 1 || got[0].Kind != ConflictStationMismatch {
		t.Fatalf("期望 station-mismatch，实际: %+v", got)
	}

	// 同一航线链不做站点校验
	a.RouteID, b.RouteID = "R1", "R1"
	if got := on.Detect([]Occurrence{a, b}, res); len(got) != 0 {
		t.Errorf("同航线链不应报站点冲突，实际: %+v", got)
	}

	// 自定义航线链规则
	never := &Detector{TAT: scenarioTAT(), StationContinuity: true, Chain: func(_, _ Occurrence) bool { return false }}
	if got := never.Detect([]Occurrence{a, b}, res); len(got) != 1 {
		t.Errorf("自定义规则下期望 1 个冲突，实际: %d", len(got))
	}
}

func TestSameRouteChain_DayOffset(t *testing.T) {
	first := Occurrence{Key: OccurrenceKey{PatternID: "p1", Date: MustDate("2024-06-03")}, RouteID: "R1"}
	second := Occurrence{Key: OccurrenceKey{PatternID: "p2", Date: MustDate("2024-06-04")}, RouteID: "R1", DayOffset: 1}
	if !SameRouteChain(first, second) {
		t.Error("扣除日偏移后同运营日应属于同一航线链")
	}
	second.DayOffset = 0
	if SameRouteChain(first, second) {
		t.Error("运营日不同不应属于同一航线链")
	}
	if SameRouteChain(Occurrence{}, Occurrence{}) {
		t.Error("空航线链编号不应匹配")
	}
}

func TestDetector_OnlyConfirmedSources(t *testing.T) {
	a := occurrenceOn(t, newPattern(t, "p1", "VN100", "SGN", "HAN", "08:00", "10:00"), "2024-06-03")
	b := occurrenceOn(t, newPattern(t, "p2", "VN101", "HAN", "SGN", "10:05", "12:00"), "2024-06-03")
	d := &Detector{TAT: scenarioTAT()}

	for _, src := range []Source{SourceOverride, SourceAuto} {
		res := map[OccurrenceKey]Resolution{
			a.Key: {Key: a.Key, Registration: "VN-A100", Source: SourcePersisted},
			b.Key: {Key: b.Key, Registration: "VN-A100", Source: src},
		}
		if got := d.Detect([]Occurrence{a, b}, res); len(got) != 0 {
			t.Errorf("来源 %s 不应参与冲突检测，实际: %+v", src, got)
		}
	}

	pending := map[OccurrenceKey]Resolution{
		a.Key: {Key: a.Key, Registration: "VN-A100", Source: SourcePersisted},
		b.Key: {Key: b.Key, Registration: "VN-A100", Source: SourceDefault, Pending: true},
	}
	if got := d.Detect([]Occurrence{a, b}, pending); len(got) != 0 {
		t.Errorf("待确认安排不应参与冲突检测，实际: %+v", got)
	}

	defaults := map[OccurrenceKey]Resolution{
		a.Key: {Key: a.Key, Registration: "VN-A100", Source: SourceDefault},
		b.Key: {Key: b.Key, Registration: "VN-A100", Source: SourcePersisted},
	}
	if got := d.Detect([]Occurrence{a, b}, defaults); len(got) != 1 {
		t.Errorf("默认注册号与已确认记录之间应检测冲突，实际: %d", len(got))
	}
}

func TestDetector_TightWarning(t *testing.T) {
	a := occurrenceOn(t, newPattern(t, "p1", "VN100", "SGN", "HAN", "08:00", "10:00"), "2024-06-03")
	b := occurrenceOn(t, newPattern(t, "p2", "VN101", "HAN", "SGN", "10:35", "12:35"), "2024-06-03")
	d := &Detector{TAT: scenarioTAT(), TightBuffer: 10 * time.Minute}

	got := d.Detect([]Occurrence{a, b}, persistedOn("VN-A100", a, b))
	if len(got) != 1 || got[0].Kind != ConflictTight || got[0].IsHard() {
		t.Fatalf("期望 1 个非硬性 tight 提示，实际: %+v", got)
	}
	if len(HardConflicts(got)) != 0 {
		t.Error("HardConflicts 应过滤提示")
	}
}

func TestDetector_TypeOfRegistration(t *testing.T) {
	types := []AircraftType{
		{Code: "A320", TAT: TATMatrix{Flat: ptr(30)}},
		{Code: "A321", TAT: TATMatrix{Flat: ptr(50)}},
	}
	a := occurrenceOn(t, newPattern(t, "p1", "VN100", "SGN", "HAN", "08:00", "10:00"), "2024-06-03")
	b := occurrenceOn(t, newPattern(t, "p2", "VN101", "HAN", "SGN", "10:40", "12:40"), "2024-06-03")
	fleet := NewFleet([]Aircraft{{Registration: "VN-A321", Type: "A321", Active: true}}, types)
	d := &Detector{TAT: NewTATModel(types, 0), TypeOf: fleet.TypeOf}

	got := d.Detect([]Occurrence{a, b}, persistedOn("VN-A321", a, b))
	if len(got) != 1 || got[0].Required != 50*time.Minute {
		t.Errorf("应按机尾实际机型取过站时间，实际: %+v", got)
	}
}

func TestDetector_GroupsByRegistrationAndDate(t *testing.T) {
	p1 := newPattern(t, "p1", "VN100", "SGN", "HAN", "08:00", "10:00")
	p2 := newPattern(t, "p2", "VN101", "HAN", "SGN", "10:05", "12:00")
	a, b := occurrenceOn(t, p1, "2024-06-03"), occurrenceOn(t, p2, "2024-06-03")
	c := occurrenceOn(t, p2, "2024-06-04")
	d := &Detector{TAT: scenarioTAT()}

	res := persistedOn("VN-A100", a, c)
	res[b.Key] = Resolution{Key: b.Key, Registration: "VN-A200", Source: SourcePersisted}
	if got := d.Detect([]Occurrence{a, b, c}, res); len(got) != 0 {
		t.Errorf("不同机尾或不同日期不应配对，实际: %+v", got)
	}
}
