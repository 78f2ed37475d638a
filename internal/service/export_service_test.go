package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/vivimassa/horizon-sub000/internal/dto"
	"github.com/vivimassa/horizon-sub000/internal/solver"
)

func setupTestExportService() (ExportService, *mockRepos) {
	repo, mocks := newMockRepos()
	logger := zap.NewNop()
	rot := NewRotationService(repo, NewStationDirectory(repo.Station, logger), solver.New(), testWorkspaceConfig(), nil, logger)
	return NewExportService(repo, rot, logger), mocks
}

func TestExportService_ExportBoard(t *testing.T) {
	svc, mocks := setupTestExportService()
	mocks.assignments.seed("p1", "2026-01-05", "B-1001")

	buf, filename, err := svc.ExportBoard(context.Background(), &dto.BoardQuery{WindowQuery: dto.WindowQuery{Start: testStart, Days: 3}})
	if err != nil {
		t.Fatalf("ExportBoard 应成功: %v", err)
	}
	if !strings.HasSuffix(filename, ".xlsx") || !strings.Contains(filename, testStart) {
		t.Errorf("文件名不符合预期: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("生成的文件应可被解析: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	for _, want := range []string{sheetBoard, sheetConflicts, sheetOverflow} {
		found := false
		for _, s := range sheets {
			if s == want {
				found = true
			}
		}
		if !found {
			t.Errorf("缺少 Sheet %s，实际: %v", want, sheets)
		}
	}

	header, _ := f.GetCellValue(sheetBoard, "C1")
	if header != testStart {
		t.Errorf("期望首个日期列为 %s，实际: %q", testStart, header)
	}
	// 机尾按注册号排序，B-1001 位于第 2 行
	reg, _ := f.GetCellValue(sheetBoard, "A2")
	if reg != "B-1001" {
		t.Fatalf("期望第 2 行为 B-1001，实际: %q", reg)
	}
	legs, _ := f.GetCellValue(sheetBoard, "C2")
	if !strings.Contains(legs, "MU501 SHA-PEK 08:00") {
		t.Errorf("期望单元格包含已确认航段，实际: %q", legs)
	}
}

func TestExportService_ExportTailCalendar(t *testing.T) {
	svc, mocks := setupTestExportService()
	mocks.assignments.seed("p1", "2026-01-05", "B-1001")
	ctx := context.Background()
	q := &dto.BoardQuery{WindowQuery: dto.WindowQuery{Start: testStart, Days: 1}}

	buf, filename, err := svc.ExportTailCalendar(ctx, "B-1001", q)
	if err != nil {
		t.Fatalf("ExportTailCalendar 应成功: %v", err)
	}
	if filename != "B-1001_2026-01-05.ics" {
		t.Errorf("文件名不符合预期: %s", filename)
	}

	cal, err := ics.ParseCalendar(buf)
	if err != nil {
		t.Fatalf("生成的日历应可被解析: %v", err)
	}
	var summaries []string
	for _, evt := range cal.Events() {
		if p := evt.GetProperty(ics.ComponentPropertySummary); p != nil {
			summaries = append(summaries, p.Value)
		}
	}
	found := false
	for _, s := range summaries {
		if s == "MU501 SHA-PEK" {
			found = true
		}
	}
	if !found {
		t.Errorf("期望日历包含 MU501 SHA-PEK，实际: %v", summaries)
	}

	if _, _, err := svc.ExportTailCalendar(ctx, "B-9999", q); !errors.Is(err, ErrRegistrationNotFound) {
		t.Errorf("期望 ErrRegistrationNotFound，实际: %v", err)
	}
}
