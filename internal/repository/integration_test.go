//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vivimassa/horizon-sub000/internal/model"
	"github.com/vivimassa/horizon-sub000/internal/repository"
	pkgerrors "github.com/vivimassa/horizon-sub000/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

// TestMain 默认使用内存 SQLite；设置 TEST_DATABASE_DSN 时连接 PostgreSQL
func TestMain(m *testing.M) {
	var dialector gorm.Dialector
	if dsn := os.Getenv("TEST_DATABASE_DSN"); dsn != "" {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open("file::memory:?cache=shared")
	}

	var err error
	testDB, err = gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}
	if sqlDB, err := testDB.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	err = testDB.AutoMigrate(
		&model.AircraftType{},
		&model.AircraftRegistration{},
		&model.Station{},
		&model.FlightPattern{},
		&model.PatternExclusion{},
		&model.FlightAssignment{},
		&model.AssignmentChangeLog{},
		&model.RotationRule{},
		&model.SystemConfig{},
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "AutoMigrate 失败: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

// setupPattern 创建一条测试计划并返回清理函数
func setupPattern(t *testing.T, status string) (*model.FlightPattern, func()) {
	t.Helper()
	p := &model.FlightPattern{
		FlightNumber:     fmt.Sprintf("VN%d", time.Now().UnixNano()%10000),
		DepStation:       "SGN",
		ArrStation:       "HAN",
		DepTime:          "06:00",
		ArrTime:          "08:10",
		DaysOfOperation:  model.IntArray{1, 2, 3, 4, 5, 6, 7},
		ValidFrom:        date("2024-06-01"),
		ValidTo:          date("2024-06-30"),
		AircraftTypeCode: "A320",
		Status:           status,
	}
	if err := testDB.Create(p).Error; err != nil {
		t.Fatalf("创建计划失败: %v", err)
	}
	return p, func() {
		testDB.Where("flight_pattern_id = ?", p.FlightPatternID).Delete(&model.FlightAssignment{})
		testDB.Where("flight_pattern_id = ?", p.FlightPatternID).Delete(&model.PatternExclusion{})
		testDB.Where("flight_pattern_id = ?", p.FlightPatternID).Delete(&model.AssignmentChangeLog{})
		testDB.Unscoped().Where("flight_pattern_id = ?", p.FlightPatternID).Delete(&model.FlightPattern{})
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Flight patterns
// ═══════════════════════════════════════════════════════════

func TestFlightPattern_ListActiveInRange(t *testing.T) {
	published, cleanup1 := setupPattern(t, "published")
	defer cleanup1()
	_, cleanup2 := setupPattern(t, "wip")
	defer cleanup2()

	ex := &model.PatternExclusion{FlightPatternID: published.FlightPatternID, ExcludedDate: date("2024-06-05")}
	if err := testDB.Create(ex).Error; err != nil {
		t.Fatalf("创建例外日期失败: %v", err)
	}

	repo := repository.NewRepository(testDB)
	list, err := repo.FlightPattern.ListActiveInRange(context.Background(), date("2024-06-03"), date("2024-06-09"))
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(list) != 1 || list[0].FlightPatternID != published.FlightPatternID {
		t.Fatalf("期望只返回已发布计划，实际: %d 条", len(list))
	}
	if len(list[0].Exclusions) != 1 {
		t.Errorf("期望预加载 1 个例外日期，实际: %d", len(list[0].Exclusions))
	}
	if got := []int(list[0].DaysOfOperation); len(got) != 7 {
		t.Errorf("班期应完整读回，实际: %v", got)
	}

	outside, err := repo.FlightPattern.ListActiveInRange(context.Background(), date("2024-07-01"), date("2024-07-07"))
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	for _, p := range outside {
		if p.FlightPatternID == published.FlightPatternID {
			t.Error("有效期外的计划不应返回")
		}
	}
}

// ═══════════════════════════════════════════════════════════
// Test: ApplyBatch
// ═══════════════════════════════════════════════════════════

func TestApplyBatch_AssignReassignUnassign(t *testing.T) {
	p, cleanup := setupPattern(t, "published")
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	d := date("2024-06-03")

	apply := func(reg, change string) int {
		t.Helper()
		n, err := repo.FlightAssignment.ApplyBatch(ctx, &repository.AssignmentBatch{
			BatchID:    uuid.New().String(),
			ChangeType: change,
			Writes:     []repository.AssignmentWrite{{FlightPatternID: p.FlightPatternID, FlightDate: d, Registration: reg}},
			Details:    map[string]interface{}{"source": "integration"},
		})
		if err != nil {
			t.Fatalf("ApplyBatch(%q) 失败: %v", reg, err)
		}
		return n
	}

	if n := apply("VN-A101", model.ChangeAssign); n != 1 {
		t.Errorf("首次安排期望 1 条变更，实际: %d", n)
	}
	if n := apply("VN-A101", model.ChangeAssign); n != 0 {
		t.Errorf("重复安排期望 0 条变更，实际: %d", n)
	}
	if n := apply("VN-A102", model.ChangeAssign); n != 1 {
		t.Errorf("改派期望 1 条变更，实际: %d", n)
	}

	list, err := repo.FlightAssignment.ListInRange(ctx, d, d.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("ListInRange 失败: %v", err)
	}
	if len(list) != 1 || list[0].Registration != "VN-A102" || list[0].Version != 2 {
		t.Fatalf("期望 VN-A102 version=2，实际: %+v", list)
	}

	if n := apply("", model.ChangeUnassign); n != 1 {
		t.Errorf("取消安排期望 1 条变更，实际: %d", n)
	}
	list, _ = repo.FlightAssignment.ListInRange(ctx, d, d.AddDate(0, 0, 1))
	if len(list) != 0 {
		t.Errorf("取消安排后应无记录，实际: %d", len(list))
	}

	logs, total, err := repo.FlightAssignment.ListChangeLogs(ctx, repository.ChangeLogFilter{FlightPatternID: p.FlightPatternID}, 0, 10)
	if err != nil {
		t.Fatalf("ListChangeLogs 失败: %v", err)
	}
	if total != 3 || len(logs) != 3 {
		t.Errorf("期望 3 条变更记录，实际: total=%d len=%d", total, len(logs))
	}

	byReg, _, _ := repo.FlightAssignment.ListChangeLogs(ctx, repository.ChangeLogFilter{FlightPatternID: p.FlightPatternID, Registration: "VN-A101"}, 0, 10)
	if len(byReg) != 2 {
		t.Errorf("VN-A101 相关记录期望 2 条（安排与改派），实际: %d", len(byReg))
	}
}

func TestApplyBatch_RollbackOnFailure(t *testing.T) {
	p, cleanup := setupPattern(t, "published")
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	d := date("2024-06-04")

	// 已取消的上下文使事务无法提交
	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err := repo.FlightAssignment.ApplyBatch(cctx, &repository.AssignmentBatch{
		BatchID:    uuid.New().String(),
		ChangeType: model.ChangeAssign,
		Writes: []repository.AssignmentWrite{
			{FlightPatternID: p.FlightPatternID, FlightDate: d, Registration: "VN-A101"},
			{FlightPatternID: p.FlightPatternID, FlightDate: d.AddDate(0, 0, 1), Registration: "VN-A101"},
		},
	})
	if err == nil {
		t.Fatal("已取消的上下文应导致写入失败")
	}

	list, _ := repo.FlightAssignment.ListInRange(ctx, d, d.AddDate(0, 0, 2))
	if len(list) != 0 {
		t.Errorf("失败的批次不应留下任何记录，实际: %d", len(list))
	}
}

func TestApplyBatch_ExclusionRemovesAssignment(t *testing.T) {
	p, cleanup := setupPattern(t, "published")
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	d := date("2024-06-06")

	if _, err := repo.FlightAssignment.ApplyBatch(ctx, &repository.AssignmentBatch{
		BatchID:    uuid.New().String(),
		ChangeType: model.ChangeAssign,
		Writes:     []repository.AssignmentWrite{{FlightPatternID: p.FlightPatternID, FlightDate: d, Registration: "VN-A101"}},
	}); err != nil {
		t.Fatalf("安排失败: %v", err)
	}

	exclude := func() int {
		n, err := repo.FlightAssignment.ApplyBatch(ctx, &repository.AssignmentBatch{
			BatchID:    uuid.New().String(),
			ChangeType: model.ChangeExclude,
			Exclusions: []model.PatternExclusion{{FlightPatternID: p.FlightPatternID, ExcludedDate: d}},
		})
		if err != nil {
			t.Fatalf("排除日期失败: %v", err)
		}
		return n
	}
	if n := exclude(); n != 1 {
		t.Errorf("首次排除期望 1 条变更，实际: %d", n)
	}
	if n := exclude(); n != 0 {
		t.Errorf("重复排除应幂等，实际: %d", n)
	}

	list, _ := repo.FlightAssignment.ListInRange(ctx, d, d.AddDate(0, 0, 1))
	if len(list) != 0 {
		t.Errorf("被排除实例的安排应被移除，实际: %d", len(list))
	}
	got, err := repo.FlightPattern.GetByID(ctx, p.FlightPatternID)
	if err != nil {
		t.Fatalf("GetByID 失败: %v", err)
	}
	if len(got.Exclusions) != 1 {
		t.Errorf("期望 1 个例外日期，实际: %d", len(got.Exclusions))
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Optimistic Lock
// ═══════════════════════════════════════════════════════════

func TestOptimisticLock_AircraftTypeTAT(t *testing.T) {
	code := fmt.Sprintf("T%d", time.Now().UnixNano()%100000)
	at := &model.AircraftType{Code: code, Family: "A32F"}
	if err := testDB.Create(at).Error; err != nil {
		t.Fatalf("创建机型失败: %v", err)
	}
	defer testDB.Unscoped().Where("aircraft_type_id = ?", at.AircraftTypeID).Delete(&model.AircraftType{})

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	copy1, _ := repo.Aircraft.GetTypeByCode(ctx, code)
	copy2, _ := repo.Aircraft.GetTypeByCode(ctx, code)

	v := 35
	copy1.TATDDOverride = &v
	if err := repo.Aircraft.UpdateTypeTAT(ctx, copy1); err != nil {
		t.Fatalf("第一次更新应成功: %v", err)
	}

	copy2.TATIIOverride = &v
	err := repo.Aircraft.UpdateTypeTAT(ctx, copy2)
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望 ErrOptimisticLock，得到: %v", err)
	}

	got, _ := repo.Aircraft.GetTypeByCode(ctx, code)
	if got.TATDDOverride == nil || *got.TATDDOverride != 35 || got.TATIIOverride != nil {
		t.Errorf("只应保留第一次更新，实际: dd=%v ii=%v", got.TATDDOverride, got.TATIIOverride)
	}
}

func TestOptimisticLock_RotationRule(t *testing.T) {
	rule := &model.RotationRule{RuleCode: "TEST_" + uuid.New().String()[:8], RuleName: "测试规则", IsEnabled: true, IsConfigurable: true}
	if err := testDB.Create(rule).Error; err != nil {
		t.Fatalf("创建规则失败: %v", err)
	}
	defer testDB.Unscoped().Where("rule_id = ?", rule.RuleID).Delete(&model.RotationRule{})

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	copy1, _ := repo.RotationRule.GetByID(ctx, rule.RuleID)
	copy2, _ := repo.RotationRule.GetByID(ctx, rule.RuleID)

	copy1.IsEnabled = false
	if err := repo.RotationRule.Update(ctx, copy1); err != nil {
		t.Fatalf("第一次更新应成功: %v", err)
	}
	if err := repo.RotationRule.Update(ctx, copy2); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望 ErrOptimisticLock，得到: %v", err)
	}

	enabled, err := repo.RotationRule.EnabledMap(ctx)
	if err != nil {
		t.Fatalf("EnabledMap 失败: %v", err)
	}
	if enabled[rule.RuleCode] {
		t.Error("规则应已停用")
	}
}

// ═══════════════════════════════════════════════════════════
// Test: System config
// ═══════════════════════════════════════════════════════════

func TestSystemConfig_DefaultAndUpsert(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	defer testDB.Where("1 = 1").Delete(&model.SystemConfig{})

	cfg, err := repo.SystemConfig.Get(ctx)
	if err != nil {
		t.Fatalf("Get 失败: %v", err)
	}
	if cfg.TATFallbackMinutes != 45 {
		t.Errorf("空表期望默认 45 分钟，实际: %d", cfg.TATFallbackMinutes)
	}

	cfg.TATFallbackMinutes = 50
	if err := repo.SystemConfig.Update(ctx, cfg); err != nil {
		t.Fatalf("首次写入失败: %v", err)
	}
	cfg.TightBufferMinutes = 15
	if err := repo.SystemConfig.Update(ctx, cfg); err != nil {
		t.Fatalf("再次写入失败: %v", err)
	}

	got, _ := repo.SystemConfig.Get(ctx)
	if got.TATFallbackMinutes != 50 || got.TightBufferMinutes != 15 {
		t.Errorf("期望 50/15，实际: %d/%d", got.TATFallbackMinutes, got.TightBufferMinutes)
	}
	var n int64
	testDB.Model(&model.SystemConfig{}).Count(&n)
	if n != 1 {
		t.Errorf("系统配置应保持单行，实际: %d", n)
	}
}
