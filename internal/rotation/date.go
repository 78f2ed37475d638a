package rotation

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"
)

// ── 日期与时刻基础类型 ──

var (
	ErrInvalidDate     = errors.New("日期格式无效，应为 YYYY-MM-DD")
	ErrInvalidClock    = errors.New("时刻格式无效，应为 HH:MM")
	ErrInvalidWeekdays = errors.New("班期格式无效")
	ErrInvalidWindow   = errors.New("可视窗口无效")
)

const dateLayout = "2006-01-02"

// Date 民用日期（不含时区），可直接作为 map key 使用
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf 取 t 在其自身时区下的日期部分
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate 解析 YYYY-MM-DD
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

// MustDate 测试与常量场景使用，解析失败直接 panic
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Time 返回该日期 UTC 零点
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// At 返回该日期指定时刻的绝对时间（本地墙钟按 UTC 表示）
func (d Date) At(c Clock) time.Time {
	return d.Time().Add(time.Duration(c) * time.Minute)
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

func (d Date) Weekday() time.Weekday { return d.Time().Weekday() }

func (d Date) Before(o Date) bool { return d.Time().Before(o.Time()) }

func (d Date) After(o Date) bool { return d.Time().After(o.Time()) }

func (d Date) IsZero() bool { return d == Date{} }

// DaysUntil 返回 o 相对 d 的天数差
func (d Date) DaysUntil(o Date) int {
	return int(o.Time().Sub(d.Time()).Hours() / 24)
}

func (d Date) String() string { return d.Time().Format(dateLayout) }

// MarshalText 以 YYYY-MM-DD 序列化，便于 JSON map key
func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Clock 当日零点起的分钟数
type Clock int

// ParseClock 解析 HH:MM（兼容 HH:MM:SS，秒位忽略）
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return Clock(h*60 + m), nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// ── 班期（7 位集合）──

// Weekdays 班期，bit0=周一 … bit6=周日（对应 ISO 1..7）
type Weekdays uint8

// AllWeek 每日执行
const AllWeek Weekdays = 0x7f

func isoDay(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}

// WeekdaysOf 由 ISO 星期序号（1-7）构建班期，越界值忽略
func WeekdaysOf(days []int) Weekdays {
	var w Weekdays
	for _, d := range days {
		if d >= 1 && d <= 7 {
			w |= 1 << (d - 1)
		}
	}
	return w
}

// ParseWeekdays 解析 "1234567" 或 "1.3.5.7" 形式，"." 与空格为占位
func ParseWeekdays(s string) (Weekdays, error) {
	var w Weekdays
	for _, r := range s {
		switch {
		case r >= '1' && r <= '7':
			w |= 1 << (r - '1')
		case r == '.' || r == ' ' || r == '-':
		default:
			return 0, fmt.Errorf("%w: %q", ErrInvalidWeekdays, s)
		}
	}
	if w == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidWeekdays, s)
	}
	return w, nil
}

func (w Weekdays) Has(d time.Weekday) bool {
	return w&(1<<(isoDay(d)-1)) != 0
}

// Days 返回 ISO 星期序号列表
func (w Weekdays) Days() []int {
	days := make([]int, 0, 7)
	for i := 0; i < 7; i++ {
		if w&(1<<i) != 0 {
			days = append(days, i+1)
		}
	}
	return days
}

// String 固定 7 位，例如 "1.3.5.7"
func (w Weekdays) String() string {
	var b strings.Builder
	for i := 0; i < 7; i++ {
		if w&(1<<i) != 0 {
			b.WriteByte(byte('1' + i))
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}

// DateSet 日期集合（例外日期）
type DateSet map[Date]struct{}

func NewDateSet(dates ...Date) DateSet {
	s := make(DateSet, len(dates))
	for _, d := range dates {
		s[d] = struct{}{}
	}
	return s
}

func (s DateSet) Has(d Date) bool {
	_, ok := s[d]
	return ok
}

// ── 可视窗口 ──

// Window 可视日期窗口 [Start, Start+Days)
type Window struct {
	Start Date `json:"start"`
	Days  int  `json:"days"`
}

// End 返回窗口结束日期（不含）
func (w Window) End() Date { return w.Start.AddDays(w.Days) }

func (w Window) Contains(d Date) bool {
	return !d.Before(w.Start) && d.Before(w.End())
}

// Dates 逐日遍历窗口，可重复 range
func (w Window) Dates() iter.Seq[Date] {
	return func(yield func(Date) bool) {
		for i := 0; i < w.Days; i++ {
			if !yield(w.Start.AddDays(i)) {
				return
			}
		}
	}
}

// Validate 校验窗口；maxDays<=0 表示不限制上限
func (w Window) Validate(maxDays int) error {
	if w.Start.IsZero() {
		return fmt.Errorf("%w: 缺少起始日期", ErrInvalidWindow)
	}
	if w.Days < 1 {
		return fmt.Errorf("%w: 天数必须大于 0", ErrInvalidWindow)
	}
	if maxDays > 0 && w.Days > maxDays {
		return fmt.Errorf("%w: 天数不能超过 %d", ErrInvalidWindow, maxDays)
	}
	return nil
}

func (w Window) String() string {
	return fmt.Sprintf("%s+%dd", w.Start, w.Days)
}
