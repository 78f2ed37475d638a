package rotation

import (
	"slices"
	"strings"
)

// Category 机型类别
type Category string

const (
	CategoryWidebody   Category = "widebody"
	CategoryNarrowbody Category = "narrowbody"
	CategoryRegional   Category = "regional"
)

// AircraftType 机型：编码、机型族（用于替换分组）、类别与过站矩阵
type AircraftType struct {
	Code     string
	Family   string
	Category Category
	TAT      TATMatrix
}

// Aircraft 机尾（注册号）
type Aircraft struct {
	Registration string
	Type         string
	Active       bool
	HomeBase     string
}

// Fleet 机队查询索引
type Fleet struct {
	aircraft map[string]Aircraft
	types    map[string]AircraftType
}

// NewFleet 构建机队索引
func NewFleet(aircraft []Aircraft, types []AircraftType) *Fleet {
	f := &Fleet{
		aircraft: make(map[string]Aircraft, len(aircraft)),
		types:    make(map[string]AircraftType, len(types)),
	}
	for _, a := range aircraft {
		f.aircraft[a.Registration] = a
	}
	for _, t := range types {
		f.types[t.Code] = t
	}
	return f
}

// Aircraft 按注册号查询
func (f *Fleet) Aircraft(reg string) (Aircraft, bool) {
	a, ok := f.aircraft[reg]
	return a, ok
}

// Type 按机型编码查询
func (f *Fleet) Type(code string) (AircraftType, bool) {
	t, ok := f.types[code]
	return t, ok
}

// TypeOf 返回注册号对应机型编码，未知注册号返回空
func (f *Fleet) TypeOf(reg string) string {
	return f.aircraft[reg].Type
}

// TypeMap 机型编码 → 机型
func (f *Fleet) TypeMap() map[string]AircraftType {
	out := make(map[string]AircraftType, len(f.types))
	for k, v := range f.types {
		out[k] = v
	}
	return out
}

// Registrations 按注册号排序的机尾列表
func (f *Fleet) Registrations() []Aircraft {
	out := make([]Aircraft, 0, len(f.aircraft))
	for _, a := range f.aircraft {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b Aircraft) int { return strings.Compare(a.Registration, b.Registration) })
	return out
}

// Compatible 判断机尾机型能否执飞需求机型：同机型，或允许替换时同机型族
func Compatible(required, actual string, types map[string]AircraftType, allowFamily bool) bool {
	if required == "" || required == actual {
		return true
	}
	if !allowFamily {
		return false
	}
	rt, ok1 := types[required]
	at, ok2 := types[actual]
	return ok1 && ok2 && rt.Family != "" && rt.Family == at.Family
}
