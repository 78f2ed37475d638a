package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/vivimassa/horizon-sub000/internal/model"
	"github.com/vivimassa/horizon-sub000/internal/repository"
	pkgerrors "github.com/vivimassa/horizon-sub000/pkg/errors"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// ── Mock AircraftRepository ──

type mockAircraftRepo struct {
	types map[string]*model.AircraftType // code → type
	regs  map[string]*model.AircraftRegistration
}

func newMockAircraftRepo() *mockAircraftRepo {
	m := &mockAircraftRepo{
		types: make(map[string]*model.AircraftType),
		regs:  make(map[string]*model.AircraftRegistration),
	}
	m.addType(&model.AircraftType{AircraftTypeID: "t-a320", Code: "A320", Family: "A320", Category: "narrowbody", TATDD: intPtr(40), TATDI: intPtr(60), TATID: intPtr(60), TATII: intPtr(75), VersionedModel: model.VersionedModel{Version: 1}})
	m.addType(&model.AircraftType{AircraftTypeID: "t-a321", Code: "A321", Family: "A320", Category: "narrowbody", TATDefault: intPtr(50), VersionedModel: model.VersionedModel{Version: 1}})
	m.addType(&model.AircraftType{AircraftTypeID: "t-b738", Code: "B738", Family: "B737", Category: "narrowbody", VersionedModel: model.VersionedModel{Version: 1}})
	m.addReg("B-1001", "A320", "active")
	m.addReg("B-1002", "A320", "active")
	m.addReg("B-2001", "A321", "active")
	m.addReg("B-3001", "B738", "maintenance")
	return m
}

func (m *mockAircraftRepo) addType(t *model.AircraftType) { m.types[t.Code] = t }

func (m *mockAircraftRepo) addReg(reg, typeCode, status string) {
	t := m.types[typeCode]
	m.regs[reg] = &model.AircraftRegistration{
		RegistrationID: "r-" + reg,
		Registration:   reg,
		AircraftTypeID: t.AircraftTypeID,
		Status:         status,
		AircraftType:   t,
	}
}

func (m *mockAircraftRepo) ListTypes(_ context.Context) ([]model.AircraftType, error) {
	var result []model.AircraftType
	for _, t := range m.types {
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (m *mockAircraftRepo) GetTypeByCode(_ context.Context, code string) (*model.AircraftType, error) {
	if t, ok := m.types[code]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAircraftRepo) UpdateTypeTAT(_ context.Context, t *model.AircraftType) error {
	cur, ok := m.types[t.Code]
	if !ok || cur.Version != t.Version {
		return pkgerrors.ErrOptimisticLock
	}
	t.Version++
	cp := *t
	m.types[t.Code] = &cp
	return nil
}

func (m *mockAircraftRepo) ListRegistrations(_ context.Context, status string) ([]model.AircraftRegistration, error) {
	var result []model.AircraftRegistration
	for _, r := range m.regs {
		if status != "" && r.Status != status {
			continue
		}
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Registration < result[j].Registration })
	return result, nil
}

func (m *mockAircraftRepo) GetRegistration(_ context.Context, registration string) (*model.AircraftRegistration, error) {
	if r, ok := m.regs[registration]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock StationRepository ──

type mockStationRepo struct {
	mu       sync.Mutex
	stations []model.Station
	calls    int
	err      error
}

func newMockStationRepo() *mockStationRepo {
	return &mockStationRepo{stations: []model.Station{
		{StationID: "s-pek", IATACode: "PEK", CountryCode: "CN"},
		{StationID: "s-sha", IATACode: "SHA", CountryCode: "CN"},
		{StationID: "s-hkg", IATACode: "HKG", CountryCode: "HK"},
	}}
}

func (m *mockStationRepo) List(_ context.Context) ([]model.Station, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return append([]model.Station(nil), m.stations...), nil
}

func (m *mockStationRepo) GetByCode(_ context.Context, code string) (*model.Station, error) {
	for i := range m.stations {
		if m.stations[i].IATACode == code {
			return &m.stations[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock FlightPatternRepository ──

type mockPatternRepo struct {
	patterns map[string]*model.FlightPattern
}

func newMockPatternRepo() *mockPatternRepo {
	m := &mockPatternRepo{patterns: make(map[string]*model.FlightPattern)}
	m.add(&model.FlightPattern{FlightPatternID: "p1", FlightNumber: "MU501", DepStation: "SHA", ArrStation: "PEK", DepTime: "08:00", ArrTime: "10:15", DaysOfOperation: model.IntArray{1, 2, 3, 4, 5, 6, 7}, AircraftTypeCode: "A320", Status: "published"})
	m.add(&model.FlightPattern{FlightPatternID: "p2", FlightNumber: "MU502", DepStation: "PEK", ArrStation: "SHA", DepTime: "11:00", ArrTime: "13:15", DaysOfOperation: model.IntArray{1, 2, 3, 4, 5, 6, 7}, AircraftTypeCode: "A320", Status: "published"})
	m.add(&model.FlightPattern{FlightPatternID: "p3", FlightNumber: "MU721", DepStation: "SHA", ArrStation: "HKG", DepTime: "09:00", ArrTime: "12:00", DaysOfOperation: model.IntArray{1}, AircraftTypeCode: "A320", Status: "finalized"})
	m.add(&model.FlightPattern{FlightPatternID: "p4", FlightNumber: "MU999", DepStation: "SHA", ArrStation: "PEK", DepTime: "20:00", ArrTime: "22:00", DaysOfOperation: model.IntArray{1, 2, 3, 4, 5, 6, 7}, AircraftTypeCode: "A320", Status: "wip"})
	return m
}

func (m *mockPatternRepo) add(p *model.FlightPattern) {
	if p.ValidFrom.IsZero() {
		p.ValidFrom, p.ValidTo = day("2026-01-01"), day("2026-12-31")
	}
	m.patterns[p.FlightPatternID] = p
}

func (m *mockPatternRepo) ListActiveInRange(_ context.Context, from, to time.Time) ([]model.FlightPattern, error) {
	var result []model.FlightPattern
	for _, p := range m.patterns {
		if p.Status == "wip" || p.ValidFrom.After(to) || p.ValidTo.Before(from) {
			continue
		}
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FlightNumber < result[j].FlightNumber })
	return result, nil
}

func (m *mockPatternRepo) GetByID(_ context.Context, id string) (*model.FlightPattern, error) {
	if p, ok := m.patterns[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPatternRepo) ListByIDs(_ context.Context, ids []string) ([]model.FlightPattern, error) {
	var result []model.FlightPattern
	for _, id := range ids {
		if p, ok := m.patterns[id]; ok {
			result = append(result, *p)
		}
	}
	return result, nil
}

// ── Mock FlightAssignmentRepository ──

type mockAssignmentRepo struct {
	mu          sync.Mutex
	assignments map[string]*model.FlightAssignment // "pattern|date" → row
	exclusions  map[string]bool
	batches     []repository.AssignmentBatch
	logs        []model.AssignmentChangeLog
	err         error // 非 nil 时 ApplyBatch 整体失败
}

func newMockAssignmentRepo() *mockAssignmentRepo {
	return &mockAssignmentRepo{
		assignments: make(map[string]*model.FlightAssignment),
		exclusions:  make(map[string]bool),
	}
}

func assignmentKey(patternID string, date time.Time) string {
	return patternID + "|" + date.Format("2006-01-02")
}

func (m *mockAssignmentRepo) seed(patternID, date, reg string) {
	d := day(date)
	m.assignments[assignmentKey(patternID, d)] = &model.FlightAssignment{
		FlightAssignmentID: "a-" + patternID + date,
		FlightPatternID:    patternID,
		FlightDate:         d,
		Registration:       reg,
		Version:            1,
	}
}

func (m *mockAssignmentRepo) ListInRange(_ context.Context, from, to time.Time) ([]model.FlightAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.FlightAssignment
	for _, a := range m.assignments {
		if !a.FlightDate.Before(from) && a.FlightDate.Before(to) {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockAssignmentRepo) ApplyBatch(_ context.Context, batch *repository.AssignmentBatch) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.batches = append(m.batches, *batch)

	applied := 0
	for _, w := range batch.Writes {
		k := assignmentKey(w.FlightPatternID, w.FlightDate)
		cur, exists := m.assignments[k]
		switch {
		case w.Registration == "" && exists:
			delete(m.assignments, k)
		case w.Registration == "":
			continue
		case exists && cur.Registration == w.Registration:
			continue
		default:
			m.assignments[k] = &model.FlightAssignment{FlightPatternID: w.FlightPatternID, FlightDate: w.FlightDate, Registration: w.Registration, Version: 1}
		}
		applied++
		m.logs = append(m.logs, model.AssignmentChangeLog{
			ChangeLogID:     "log-" + k,
			BatchID:         batch.BatchID,
			FlightPatternID: w.FlightPatternID,
			FlightDate:      w.FlightDate,
			ChangeType:      batch.ChangeType,
			NewRegistration: strPtr(w.Registration),
			OperatorID:      batch.OperatorID,
		})
	}
	for _, e := range batch.Exclusions {
		k := assignmentKey(e.FlightPatternID, e.ExcludedDate)
		if m.exclusions[k] {
			continue
		}
		m.exclusions[k] = true
		delete(m.assignments, k)
		applied++
	}
	return applied, nil
}

func (m *mockAssignmentRepo) ListChangeLogs(_ context.Context, filter repository.ChangeLogFilter, offset, limit int) ([]model.AssignmentChangeLog, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []model.AssignmentChangeLog
	for _, l := range m.logs {
		if filter.FlightPatternID != "" && l.FlightPatternID != filter.FlightPatternID {
			continue
		}
		if filter.From != nil && l.FlightDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !l.FlightDate.Before(*filter.To) {
			continue
		}
		matched = append(matched, l)
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *mockAssignmentRepo) batchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

func (m *mockAssignmentRepo) registrationOf(patternID, date string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[assignmentKey(patternID, day(date))]
	if !ok {
		return "", false
	}
	return a.Registration, true
}

// ── Mock RotationRuleRepository ──

type mockRuleRepo struct {
	rules map[string]*model.RotationRule
}

func newMockRuleRepo() *mockRuleRepo {
	m := &mockRuleRepo{rules: make(map[string]*model.RotationRule)}
	for _, r := range []model.RotationRule{
		{RuleID: "rule-sub", RuleCode: model.RuleTypeSubstitution, RuleName: "机型族替换", IsEnabled: false, IsConfigurable: true},
		{RuleID: "rule-station", RuleCode: model.RuleStationContinuity, RuleName: "站点衔接", IsEnabled: true, IsConfigurable: true},
		{RuleID: "rule-tight", RuleCode: model.RuleTightTurnWarning, RuleName: "过站余量提示", IsEnabled: true, IsConfigurable: false},
	} {
		r := r
		r.Version = 1
		m.rules[r.RuleID] = &r
	}
	return m
}

func (m *mockRuleRepo) set(code string, enabled bool) {
	for _, r := range m.rules {
		if r.RuleCode == code {
			r.IsEnabled = enabled
		}
	}
}

func (m *mockRuleRepo) GetByID(_ context.Context, id string) (*model.RotationRule, error) {
	if r, ok := m.rules[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRuleRepo) GetByCode(_ context.Context, code string) (*model.RotationRule, error) {
	for _, r := range m.rules {
		if r.RuleCode == code {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRuleRepo) List(_ context.Context) ([]model.RotationRule, error) {
	var result []model.RotationRule
	for _, r := range m.rules {
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RuleCode < result[j].RuleCode })
	return result, nil
}

func (m *mockRuleRepo) EnabledMap(_ context.Context) (map[string]bool, error) {
	out := make(map[string]bool, len(m.rules))
	for _, r := range m.rules {
		out[r.RuleCode] = r.IsEnabled
	}
	return out, nil
}

func (m *mockRuleRepo) Update(_ context.Context, rule *model.RotationRule) error {
	cur, ok := m.rules[rule.RuleID]
	if !ok || cur.Version != rule.Version {
		return pkgerrors.ErrOptimisticLock
	}
	rule.Version++
	cp := *rule
	m.rules[rule.RuleID] = &cp
	return nil
}

// ── Mock SystemConfigRepository ──

type mockSystemConfigRepo struct {
	cfg *model.SystemConfig
}

func newMockSystemConfigRepo() *mockSystemConfigRepo {
	return &mockSystemConfigRepo{cfg: model.DefaultSystemConfig()}
}

func (m *mockSystemConfigRepo) Get(_ context.Context) (*model.SystemConfig, error) {
	cp := *m.cfg
	return &cp, nil
}

func (m *mockSystemConfigRepo) Update(_ context.Context, cfg *model.SystemConfig) error {
	cp := *cfg
	m.cfg = &cp
	return nil
}

// ── 聚合 ──

type mockRepos struct {
	aircraft    *mockAircraftRepo
	stations    *mockStationRepo
	patterns    *mockPatternRepo
	assignments *mockAssignmentRepo
	rules       *mockRuleRepo
	config      *mockSystemConfigRepo
}

func newMockRepos() (*repository.Repository, *mockRepos) {
	m := &mockRepos{
		aircraft:    newMockAircraftRepo(),
		stations:    newMockStationRepo(),
		patterns:    newMockPatternRepo(),
		assignments: newMockAssignmentRepo(),
		rules:       newMockRuleRepo(),
		config:      newMockSystemConfigRepo(),
	}
	repo := &repository.Repository{
		Aircraft:         m.aircraft,
		Station:          m.stations,
		FlightPattern:    m.patterns,
		FlightAssignment: m.assignments,
		RotationRule:     m.rules,
		SystemConfig:     m.config,
	}
	return repo, m
}
