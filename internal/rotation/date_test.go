package rotation

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-28")
	if err != nil {
		t.Fatalf("ParseDate 应成功: %v", err)
	}
	if got := d.AddDays(1).String(); got != "2024-02-29" {
		t.Errorf("闰年次日期望 2024-02-29，实际: %s", got)
	}
	if got := d.AddDays(2).String(); got != "2024-03-01" {
		t.Errorf("跨月期望 2024-03-01，实际: %s", got)
	}

	if _, err := ParseDate("2024/02/28"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("期望 ErrInvalidDate，实际: %v", err)
	}
}

func TestDate_DaysUntilAndCompare(t *testing.T) {
	a, b := MustDate("2024-06-03"), MustDate("2024-06-17")
	if n := a.DaysUntil(b); n != 14 {
		t.Errorf("期望相差 14 天，实际: %d", n)
	}
	if !a.Before(b) || !b.After(a) {
		t.Error("日期先后比较错误")
	}
	if a.Weekday() != time.Monday {
		t.Errorf("2024-06-03 应为周一，实际: %s", a.Weekday())
	}
}

func TestDate_JSON(t *testing.T) {
	var v struct {
		D Date `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"d":"2024-06-03"}`), &v); err != nil {
		t.Fatalf("反序列化失败: %v", err)
	}
	out, _ := json.Marshal(v)
	if string(out) != `{"d":"2024-06-03"}` {
		t.Errorf("序列化结果不一致: %s", out)
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{"00:00", 0, false},
		{"10:35", 635, false},
		{"23:59:30", 1439, false},
		{"24:00", 0, true},
		{"9", 0, true},
		{"ab:cd", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseClock(%q) err=%v, wantErr=%v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseClock(%q)=%d，期望 %d", tt.in, got, tt.want)
		}
	}
	if s := Clock(635).String(); s != "10:35" {
		t.Errorf("期望 10:35，实际: %s", s)
	}
}

func TestWeekdays(t *testing.T) {
	w, err := ParseWeekdays("1.3.5.7")
	if err != nil {
		t.Fatalf("ParseWeekdays 应成功: %v", err)
	}
	if !slices.Equal(w.Days(), []int{1, 3, 5, 7}) {
		t.Errorf("期望 [1 3 5 7]，实际: %v", w.Days())
	}
	if !w.Has(time.Sunday) || w.Has(time.Tuesday) {
		t.Error("Has 判断错误")
	}
	if w.String() != "1.3.5.7" {
		t.Errorf("期望 1.3.5.7，实际: %s", w.String())
	}
	if WeekdaysOf([]int{1, 3, 5, 7, 9}) != w {
		t.Error("WeekdaysOf 应忽略越界值")
	}
	if AllWeek.String() != "1234567" {
		t.Errorf("AllWeek 期望 1234567，实际: %s", AllWeek.String())
	}

	for _, bad := range []string{"", ".......", "18"} {
		if _, err := ParseWeekdays(bad); !errors.Is(err, ErrInvalidWeekdays) {
			t.Errorf("ParseWeekdays(%q) 期望 ErrInvalidWeekdays，实际: %v", bad, err)
		}
	}
}

func TestWindow(t *testing.T) {
	w := Window{Start: MustDate("2024-06-03"), Days: 3}
	var got []string
	for d := range w.Dates() {
		got = append(got, d.String())
	}
	if !slices.Equal(got, []string{"2024-06-03", "2024-06-04", "2024-06-05"}) {
		t.Errorf("窗口日期错误: %v", got)
	}
	if !w.Contains(MustDate("2024-06-05")) || w.Contains(w.End()) {
		t.Error("窗口应为左闭右开区间")
	}

	if err := w.Validate(2); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("超过上限期望 ErrInvalidWindow，实际: %v", err)
	}
	if err := (Window{Start: w.Start}).Validate(0); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("天数为 0 期望 ErrInvalidWindow，实际: %v", err)
	}
	if err := w.Validate(0); err != nil {
		t.Errorf("合法窗口不应报错: %v", err)
	}
}
