package rotation

import "testing"

// ── 测试辅助 ──

func ptr(v int) *int { return &v }

func mustClock(t *testing.T, s string) Clock {
	t.Helper()
	c, err := ParseClock(s)
	if err != nil {
		t.Fatalf("ParseClock(%q) 失败: %v", s, err)
	}
	return c
}

// newPattern 每日执行、有效期覆盖 2024 年全年的计划
func newPattern(t *testing.T, id, flight, dep, arr, depTime, arrTime string) Pattern {
	t.Helper()
	return Pattern{
		ID:           id,
		FlightNumber: flight,
		DepStation:   dep,
		ArrStation:   arr,
		DepTime:      mustClock(t, depTime),
		ArrTime:      mustClock(t, arrTime),
		Days:         AllWeek,
		ValidFrom:    MustDate("2024-01-01"),
		ValidTo:      MustDate("2024-12-31"),
		AircraftType: "A320",
		Status:       StatusPublished,
	}
}

func occurrenceOn(t *testing.T, p Pattern, date string) Occurrence {
	t.Helper()
	d := MustDate(date)
	if !p.OperatesOn(d) {
		t.Fatalf("计划 %s 在 %s 不执行", p.ID, date)
	}
	return occurrenceOf(&p, d)
}
