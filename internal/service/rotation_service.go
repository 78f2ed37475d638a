package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/vivimassa/horizon-sub000/config"
	"github.com/vivimassa/horizon-sub000/internal/dto"
	"github.com/vivimassa/horizon-sub000/internal/model"
	"github.com/vivimassa/horizon-sub000/internal/repository"
	"github.com/vivimassa/horizon-sub000/internal/rotation"
	"github.com/vivimassa/horizon-sub000/internal/workspace"
	"github.com/vivimassa/horizon-sub000/pkg/metrics"
)

// ── 排机模块业务错误 ──

var (
	ErrInvalidOccurrenceKey = errors.New("航班实例标识无效")
	ErrOccurrenceNotFound   = errors.New("航班实例不存在")
	ErrPatternNotFound      = errors.New("航班计划不存在")
	ErrRegistrationNotFound = errors.New("机尾不存在")
	ErrAircraftInactive     = errors.New("机尾不在役")
	ErrTypeIncompatible     = errors.New("机型不兼容")
	ErrSwapOverlap          = errors.New("交换两侧不能包含相同实例或相同机尾")
	ErrInvalidDateParam     = errors.New("日期参数无效")
)

// RotationService 排机业务接口：窗口读取、看板计算、逐日安排写入
type RotationService interface {
	// ResolveWindow 解析窗口参数，days 为空时使用系统默认天数
	ResolveWindow(ctx context.Context, q *dto.WindowQuery) (rotation.Window, error)
	// LoadWindow 并行读取窗口所需的全部服务端数据
	LoadWindow(ctx context.Context, w rotation.Window) (*workspace.FetchResult, error)
	GetWindow(ctx context.Context, q *dto.WindowQuery) (*dto.WindowResponse, error)
	// ComputeBoard 无会话的一次性看板计算
	ComputeBoard(ctx context.Context, w rotation.Window, strategy rotation.Strategy) (*workspace.Board, error)
	GetBoard(ctx context.Context, q *dto.BoardQuery) (*dto.BoardResponse, error)
	// ResolveStrategy 空值使用系统配置中的默认策略
	ResolveStrategy(ctx context.Context, raw string) (rotation.Strategy, error)

	Assign(ctx context.Context, keys []rotation.OccurrenceKey, registration, operatorID string) (*dto.MutationResponse, error)
	Unassign(ctx context.Context, keys []rotation.OccurrenceKey, operatorID string) (*dto.MutationResponse, error)
	Swap(ctx context.Context, sideA []rotation.OccurrenceKey, regA string, sideB []rotation.OccurrenceKey, regB, operatorID string) (*dto.MutationResponse, error)
	ExcludeDate(ctx context.Context, patternID string, date rotation.Date, reason, operatorID string) (*dto.MutationResponse, error)

	ListChangeLogs(ctx context.Context, req *dto.ChangeLogListRequest) ([]dto.ChangeLogResponse, int64, error)
}

type rotationService struct {
	repo     *repository.Repository
	stations StationDirectory
	solver   rotation.Solver
	cfg      *config.WorkspaceConfig
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewRotationService 创建 RotationService 实例
func NewRotationService(
	repo *repository.Repository,
	stations StationDirectory,
	solver rotation.Solver,
	cfg *config.WorkspaceConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) RotationService {
	return &rotationService{
		repo:     repo,
		stations: stations,
		solver:   solver,
		cfg:      cfg,
		metrics:  m,
		logger:   logger,
	}
}

// ────────────────────── ResolveWindow ──────────────────────

func (s *rotationService) ResolveWindow(ctx context.Context, q *dto.WindowQuery) (rotation.Window, error) {
	start, err := rotation.ParseDate(q.Start)
	if err != nil {
		return rotation.Window{}, fmt.Errorf("%w: %v", rotation.ErrInvalidWindow, err)
	}
	sys, err := s.repo.SystemConfig.Get(ctx)
	if err != nil {
		return rotation.Window{}, err
	}
	days := q.Days
	if days == 0 {
		days = sys.DefaultWindowDays
	}
	w := rotation.Window{Start: start, Days: days}
	if err := w.Validate(s.maxWindowDays(sys)); err != nil {
		return rotation.Window{}, err
	}
	return w, nil
}

// 部署配置与系统配置取较小的上限
func (s *rotationService) maxWindowDays(sys *model.SystemConfig) int {
	limit := sys.MaxWindowDays
	if s.cfg != nil && s.cfg.MaxWindowDays > 0 && (limit <= 0 || s.cfg.MaxWindowDays < limit) {
		limit = s.cfg.MaxWindowDays
	}
	return limit
}

// ────────────────────── LoadWindow ──────────────────────

func (s *rotationService) LoadWindow(ctx context.Context, w rotation.Window) (*workspace.FetchResult, error) {
	var (
		patterns    []model.FlightPattern
		assignments []model.FlightAssignment
		regs        []model.AircraftRegistration
		types       []model.AircraftType
		settings    workspace.Settings
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		// 计划有效期按闭区间比较，窗口最后一天为 End-1
		patterns, err = s.repo.FlightPattern.ListActiveInRange(gctx, w.Start.Time(), w.End().AddDays(-1).Time())
		return err
	})
	g.Go(func() error {
		var err error
		assignments, err = s.repo.FlightAssignment.ListInRange(gctx, w.Start.Time(), w.End().Time())
		return err
	})
	g.Go(func() error {
		var err error
		regs, err = s.repo.Aircraft.ListRegistrations(gctx, "")
		return err
	})
	g.Go(func() error {
		var err error
		types, err = s.repo.Aircraft.ListTypes(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		settings, err = s.loadSettings(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("加载窗口数据失败", zap.String("window", w.String()), zap.Error(err))
		return nil, err
	}

	res := &workspace.FetchResult{
		Patterns:    make([]rotation.Pattern, 0, len(patterns)),
		Assignments: make([]rotation.PersistedAssignment, 0, len(assignments)),
		Aircraft:    make([]rotation.Aircraft, 0, len(regs)),
		Types:       make([]rotation.AircraftType, 0, len(types)),
		Settings:    settings,
	}
	for i := range patterns {
		p, err := s.toRotationPattern(ctx, &patterns[i])
		if err != nil {
			// 数据异常的计划跳过，不影响整个窗口
			s.logger.Warn("航班计划数据无效，已跳过",
				zap.String("pattern_id", patterns[i].FlightPatternID),
				zap.Error(err),
			)
			continue
		}
		res.Patterns = append(res.Patterns, p)
	}
	for i := range assignments {
		res.Assignments = append(res.Assignments, toPersistedAssignment(&assignments[i]))
	}
	for i := range regs {
		res.Aircraft = append(res.Aircraft, toRotationAircraft(&regs[i]))
	}
	for i := range types {
		res.Types = append(res.Types, toRotationType(&types[i]))
	}
	return res, nil
}

// loadSettings 规则开关与系统配置；规则表缺少某条规则时使用内置默认
func (s *rotationService) loadSettings(ctx context.Context) (workspace.Settings, error) {
	enabled, err := s.repo.RotationRule.EnabledMap(ctx)
	if err != nil {
		return workspace.Settings{}, err
	}
	sys, err := s.repo.SystemConfig.Get(ctx)
	if err != nil {
		return workspace.Settings{}, err
	}

	ruleOn := func(code string, def bool) bool {
		if v, ok := enabled[code]; ok {
			return v
		}
		return def
	}
	st := workspace.Settings{
		AllowFamilySubstitution: ruleOn(model.RuleTypeSubstitution, false),
		StationContinuity:       ruleOn(model.RuleStationContinuity, true),
		FallbackTAT:             time.Duration(sys.TATFallbackMinutes) * time.Minute,
	}
	if ruleOn(model.RuleTightTurnWarning, true) {
		st.TightBuffer = time.Duration(sys.TightBufferMinutes) * time.Minute
	}
	return st, nil
}

// ────────────────────── GetWindow ──────────────────────

func (s *rotationService) GetWindow(ctx context.Context, q *dto.WindowQuery) (*dto.WindowResponse, error) {
	w, err := s.ResolveWindow(ctx, q)
	if err != nil {
		return nil, err
	}
	res, err := s.LoadWindow(ctx, w)
	if err != nil {
		return nil, err
	}

	resp := &dto.WindowResponse{
		Start:       w.Start.String(),
		Days:        w.Days,
		Patterns:    make([]dto.PatternResponse, 0, len(res.Patterns)),
		Assignments: make([]dto.AssignmentResponse, 0, len(res.Assignments)),
		Aircraft:    make([]dto.RegistrationResponse, 0, len(res.Aircraft)),
	}
	for i := range res.Patterns {
		resp.Patterns = append(resp.Patterns, toPatternResponse(&res.Patterns[i]))
	}
	for _, a := range res.Assignments {
		resp.Assignments = append(resp.Assignments, dto.AssignmentResponse{
			Key:          a.Key.String(),
			PatternID:    a.Key.PatternID,
			Date:         a.Key.Date.String(),
			Registration: a.Registration,
		})
	}
	for _, a := range res.Aircraft {
		status := "inactive"
		if a.Active {
			status = "active"
		}
		resp.Aircraft = append(resp.Aircraft, dto.RegistrationResponse{
			Registration: a.Registration,
			AircraftType: a.Type,
			Status:       status,
			HomeBase:     a.HomeBase,
		})
	}
	return resp, nil
}

// ────────────────────── Board ──────────────────────

func (s *rotationService) ComputeBoard(ctx context.Context, w rotation.Window, strategy rotation.Strategy) (*workspace.Board, error) {
	res, err := s.LoadWindow(ctx, w)
	if err != nil {
		return nil, err
	}
	started := time.Now()
	board := workspace.Compute(workspace.Snapshot{
		Window:    w,
		Patterns:  res.Patterns,
		Aircraft:  res.Aircraft,
		Types:     res.Types,
		Settings:  res.Settings,
		Strategy:  strategy,
		Persisted: rotation.PersistedIndex(res.Assignments),
	}, s.solver)
	s.metrics.ObserveBoard(time.Since(started), board.ConflictCounts(), board.OverflowCount())
	return board, nil
}

func (s *rotationService) GetBoard(ctx context.Context, q *dto.BoardQuery) (*dto.BoardResponse, error) {
	w, err := s.ResolveWindow(ctx, &q.WindowQuery)
	if err != nil {
		return nil, err
	}
	strategy, err := s.ResolveStrategy(ctx, q.Strategy)
	if err != nil {
		return nil, err
	}
	board, err := s.ComputeBoard(ctx, w, strategy)
	if err != nil {
		return nil, err
	}
	return toBoardResponse(board), nil
}

func (s *rotationService) ResolveStrategy(ctx context.Context, raw string) (rotation.Strategy, error) {
	if raw == "" {
		sys, err := s.repo.SystemConfig.Get(ctx)
		if err != nil {
			return "", err
		}
		raw = sys.DefaultStrategy
	}
	return rotation.ParseStrategy(raw)
}

// ────────────────────── Assign ──────────────────────

func (s *rotationService) Assign(ctx context.Context, keys []rotation.OccurrenceKey, registration, operatorID string) (*dto.MutationResponse, error) {
	keys = dedupeKeys(keys)
	patterns, err := s.checkOccurrences(ctx, keys)
	if err != nil {
		return nil, err
	}
	if err := s.checkRegistration(ctx, patterns, keys, registration); err != nil {
		return nil, err
	}

	writes := make([]repository.AssignmentWrite, 0, len(keys))
	for _, k := range keys {
		writes = append(writes, repository.AssignmentWrite{
			FlightPatternID: k.PatternID,
			FlightDate:      k.Date.Time(),
			Registration:    registration,
		})
	}
	return s.apply(ctx, "assign", &repository.AssignmentBatch{
		ChangeType: model.ChangeAssign,
		OperatorID: optionalID(operatorID),
		Writes:     writes,
	})
}

// ────────────────────── Unassign ──────────────────────

// Unassign 删除逐日安排，实例回落到计划默认注册号或自动排班
func (s *rotationService) Unassign(ctx context.Context, keys []rotation.OccurrenceKey, operatorID string) (*dto.MutationResponse, error) {
	keys = dedupeKeys(keys)
	if _, err := s.checkOccurrences(ctx, keys); err != nil {
		return nil, err
	}

	writes := make([]repository.AssignmentWrite, 0, len(keys))
	for _, k := range keys {
		writes = append(writes, repository.AssignmentWrite{
			FlightPatternID: k.PatternID,
			FlightDate:      k.Date.Time(),
		})
	}
	return s.apply(ctx, "unassign", &repository.AssignmentBatch{
		ChangeType: model.ChangeUnassign,
		OperatorID: optionalID(operatorID),
		Writes:     writes,
	})
}

// ────────────────────── Swap ──────────────────────

// Swap sideA 改为 regB，sideB 改为 regA，同一事务内完成
func (s *rotationService) Swap(ctx context.Context, sideA []rotation.OccurrenceKey, regA string, sideB []rotation.OccurrenceKey, regB, operatorID string) (*dto.MutationResponse, error) {
	sideA, sideB = dedupeKeys(sideA), dedupeKeys(sideB)
	if regA == regB {
		return nil, ErrSwapOverlap
	}
	for _, k := range sideA {
		if slices.Contains(sideB, k) {
			return nil, fmt.Errorf("%w: %s", ErrSwapOverlap, k)
		}
	}

	all := append(slices.Clone(sideA), sideB...)
	patterns, err := s.checkOccurrences(ctx, all)
	if err != nil {
		return nil, err
	}
	if err := s.checkRegistration(ctx, patterns, sideA, regB); err != nil {
		return nil, err
	}
	if err := s.checkRegistration(ctx, patterns, sideB, regA); err != nil {
		return nil, err
	}

	writes := make([]repository.AssignmentWrite, 0, len(all))
	for _, k := range sideA {
		writes = append(writes, repository.AssignmentWrite{FlightPatternID: k.PatternID, FlightDate: k.Date.Time(), Registration: regB})
	}
	for _, k := range sideB {
		writes = append(writes, repository.AssignmentWrite{FlightPatternID: k.PatternID, FlightDate: k.Date.Time(), Registration: regA})
	}
	return s.apply(ctx, "swap", &repository.AssignmentBatch{
		ChangeType: model.ChangeSwap,
		OperatorID: optionalID(operatorID),
		Writes:     writes,
		Details: map[string]interface{}{
			"registration_a": regA,
			"registration_b": regB,
			"side_a":         keyStrings(sideA),
			"side_b":         keyStrings(sideB),
		},
	})
}

// ────────────────────── ExcludeDate ──────────────────────

// ExcludeDate 已是例外日期时不重复写入，Applied 为 0
func (s *rotationService) ExcludeDate(ctx context.Context, patternID string, date rotation.Date, reason, operatorID string) (*dto.MutationResponse, error) {
	mp, err := s.repo.FlightPattern.GetByID(ctx, patternID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatternNotFound
		}
		return nil, err
	}
	p, err := s.toRotationPattern(ctx, mp)
	if err != nil {
		return nil, err
	}
	p.Exclusions = nil
	if !p.OperatesOn(date) {
		return nil, fmt.Errorf("%w: %s", ErrOccurrenceNotFound, rotation.OccurrenceKey{PatternID: patternID, Date: date})
	}

	return s.apply(ctx, "exclude", &repository.AssignmentBatch{
		ChangeType: model.ChangeExclude,
		OperatorID: optionalID(operatorID),
		Exclusions: []model.PatternExclusion{{
			FlightPatternID: patternID,
			ExcludedDate:    date.Time(),
			Reason:          reason,
			CreatedBy:       optionalID(operatorID),
		}},
		Details: map[string]interface{}{"reason": reason},
	})
}

// ────────────────────── ListChangeLogs ──────────────────────

func (s *rotationService) ListChangeLogs(ctx context.Context, req *dto.ChangeLogListRequest) ([]dto.ChangeLogResponse, int64, error) {
	filter := repository.ChangeLogFilter{
		FlightPatternID: req.PatternID,
		Registration:    req.Registration,
	}
	if req.From != "" {
		d, err := rotation.ParseDate(req.From)
		if err != nil {
			return nil, 0, ErrInvalidDateParam
		}
		t := d.Time()
		filter.From = &t
	}
	if req.To != "" {
		d, err := rotation.ParseDate(req.To)
		if err != nil {
			return nil, 0, ErrInvalidDateParam
		}
		// to 为闭区间，仓储层按 [from, to) 查询
		t := d.AddDays(1).Time()
		filter.To = &t
	}

	logs, total, err := s.repo.FlightAssignment.ListChangeLogs(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询变更记录失败", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.ChangeLogResponse, 0, len(logs))
	for i := range logs {
		result = append(result, toChangeLogResponse(&logs[i]))
	}
	return result, total, nil
}

// ── 内部辅助方法 ──

func (s *rotationService) apply(ctx context.Context, op string, batch *repository.AssignmentBatch) (*dto.MutationResponse, error) {
	batch.BatchID = uuid.NewString()
	applied, err := s.repo.FlightAssignment.ApplyBatch(ctx, batch)
	if err != nil {
		s.logger.Warn("逐日安排写入失败",
			zap.String("op", op),
			zap.String("batch_id", batch.BatchID),
			zap.Error(err),
		)
		return nil, err
	}
	s.logger.Info("逐日安排写入",
		zap.String("op", op),
		zap.String("batch_id", batch.BatchID),
		zap.Int("writes", len(batch.Writes)+len(batch.Exclusions)),
		zap.Int("applied", applied),
	)
	return &dto.MutationResponse{BatchID: batch.BatchID, Applied: applied}, nil
}

// checkOccurrences 校验每个实例都对应已发布计划的某个执行日
func (s *rotationService) checkOccurrences(ctx context.Context, keys []rotation.OccurrenceKey) (map[string]*rotation.Pattern, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: 未选择航班实例", ErrInvalidOccurrenceKey)
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		if !slices.Contains(ids, k.PatternID) {
			ids = append(ids, k.PatternID)
		}
	}
	rows, err := s.repo.FlightPattern.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	patterns := make(map[string]*rotation.Pattern, len(rows))
	for i := range rows {
		if rows[i].Status == string(rotation.StatusWIP) {
			continue
		}
		p, err := s.toRotationPattern(ctx, &rows[i])
		if err != nil {
			return nil, err
		}
		patterns[p.ID] = &p
	}
	for _, k := range keys {
		p, ok := patterns[k.PatternID]
		if !ok || !p.OperatesOn(k.Date) {
			return nil, fmt.Errorf("%w: %s", ErrOccurrenceNotFound, k)
		}
	}
	return patterns, nil
}

// checkRegistration 机尾存在、在役，且机型与每个实例的需求机型兼容
func (s *rotationService) checkRegistration(ctx context.Context, patterns map[string]*rotation.Pattern, keys []rotation.OccurrenceKey, registration string) error {
	reg, err := s.repo.Aircraft.GetRegistration(ctx, registration)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrRegistrationNotFound, registration)
		}
		return err
	}
	a := toRotationAircraft(reg)
	if !a.Active {
		return fmt.Errorf("%w: %s", ErrAircraftInactive, registration)
	}

	settings, err := s.loadSettings(ctx)
	if err != nil {
		return err
	}
	var types map[string]rotation.AircraftType
	if settings.AllowFamilySubstitution {
		rows, err := s.repo.Aircraft.ListTypes(ctx)
		if err != nil {
			return err
		}
		types = make(map[string]rotation.AircraftType, len(rows))
		for i := range rows {
			types[rows[i].Code] = toRotationType(&rows[i])
		}
	}
	for _, k := range keys {
		p := patterns[k.PatternID]
		if !rotation.Compatible(p.AircraftType, a.Type, types, settings.AllowFamilySubstitution) {
			return fmt.Errorf("%w: %s 需要 %s，%s 为 %s", ErrTypeIncompatible, k, p.AircraftType, registration, a.Type)
		}
	}
	return nil
}

// toRotationPattern 数据库计划 → 领域计划；未标注航段类型时按航站国家推断
func (s *rotationService) toRotationPattern(ctx context.Context, p *model.FlightPattern) (rotation.Pattern, error) {
	dep, err := rotation.ParseClock(p.DepTime)
	if err != nil {
		return rotation.Pattern{}, err
	}
	arr, err := rotation.ParseClock(p.ArrTime)
	if err != nil {
		return rotation.Pattern{}, err
	}

	out := rotation.Pattern{
		ID:           p.FlightPatternID,
		FlightNumber: p.FlightNumber,
		DepStation:   p.DepStation,
		ArrStation:   p.ArrStation,
		DepTime:      dep,
		ArrTime:      arr,
		Days:         rotation.WeekdaysOf(p.DaysOfOperation),
		ValidFrom:    rotation.DateOf(p.ValidFrom),
		ValidTo:      rotation.DateOf(p.ValidTo),
		AircraftType: p.AircraftTypeCode,
		Status:       rotation.PatternStatus(p.Status),
		RouteType:    rotation.RouteType(p.RouteType),
		DayOffset:    p.DayOffset,
	}
	if p.DefaultRegistration != nil {
		out.DefaultRegistration = *p.DefaultRegistration
	}
	if p.RouteID != nil {
		out.RouteID = *p.RouteID
	}
	if out.RouteType == rotation.RouteUnknown && s.stations != nil {
		out.RouteType = s.stations.Classify(ctx, p.DepStation, p.ArrStation)
	}
	if len(p.Exclusions) > 0 {
		out.Exclusions = make(rotation.DateSet, len(p.Exclusions))
		for _, e := range p.Exclusions {
			out.Exclusions[rotation.DateOf(e.ExcludedDate)] = struct{}{}
		}
	}
	return out, nil
}

func toPersistedAssignment(a *model.FlightAssignment) rotation.PersistedAssignment {
	return rotation.PersistedAssignment{
		Key: rotation.OccurrenceKey{
			PatternID: a.FlightPatternID,
			Date:      rotation.DateOf(a.FlightDate),
		},
		Registration: a.Registration,
	}
}

func toPatternResponse(p *rotation.Pattern) dto.PatternResponse {
	resp := dto.PatternResponse{
		ID:                  p.ID,
		FlightNumber:        p.FlightNumber,
		DepStation:          p.DepStation,
		ArrStation:          p.ArrStation,
		DepTime:             p.DepTime.String(),
		ArrTime:             p.ArrTime.String(),
		Days:                p.Days.String(),
		ValidFrom:           p.ValidFrom.String(),
		ValidTo:             p.ValidTo.String(),
		AircraftType:        p.AircraftType,
		Status:              string(p.Status),
		DefaultRegistration: p.DefaultRegistration,
		RouteType:           string(p.RouteType),
	}
	for d := range p.Exclusions {
		resp.Exclusions = append(resp.Exclusions, d.String())
	}
	slices.Sort(resp.Exclusions)
	return resp
}

func toChangeLogResponse(l *model.AssignmentChangeLog) dto.ChangeLogResponse {
	resp := dto.ChangeLogResponse{
		ID:         l.ChangeLogID,
		BatchID:    l.BatchID,
		PatternID:  l.FlightPatternID,
		Date:       rotation.DateOf(l.FlightDate).String(),
		ChangeType: l.ChangeType,
		CreatedAt:  l.CreatedAt.UTC().Format(time.RFC3339),
	}
	if l.OldRegistration != nil {
		resp.OldRegistration = *l.OldRegistration
	}
	if l.NewRegistration != nil {
		resp.NewRegistration = *l.NewRegistration
	}
	if l.OperatorID != nil {
		resp.OperatorID = *l.OperatorID
	}
	return resp
}

// ParseKeys 解析一组 "patternID@YYYY-MM-DD"
func ParseKeys(raw []string) ([]rotation.OccurrenceKey, error) {
	keys := make([]rotation.OccurrenceKey, 0, len(raw))
	for _, r := range raw {
		k, err := rotation.ParseOccurrenceKey(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidOccurrenceKey, r)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func dedupeKeys(keys []rotation.OccurrenceKey) []rotation.OccurrenceKey {
	seen := make(map[rotation.OccurrenceKey]struct{}, len(keys))
	out := make([]rotation.OccurrenceKey, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func keyStrings(keys []rotation.OccurrenceKey) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}

// optionalID uuid 列不接受空串
func optionalID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

// [自证通过] internal/service/rotation_service.go
