package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vivimassa/horizon-sub000/internal/model"
	pkgerrors "github.com/vivimassa/horizon-sub000/pkg/errors"
)

// AssignmentWrite 单个实例的写入；Registration 为空表示删除逐日安排
type AssignmentWrite struct {
	FlightPatternID string
	FlightDate      time.Time
	Registration    string
}

// AssignmentBatch 同一事务内执行的一组写入
type AssignmentBatch struct {
	BatchID    string
	ChangeType string
	OperatorID *string
	Writes     []AssignmentWrite
	Exclusions []model.PatternExclusion
	Details    map[string]interface{}
}

// ChangeLogFilter 变更记录查询条件，零值字段不参与过滤
type ChangeLogFilter struct {
	FlightPatternID string
	Registration    string
	From            *time.Time
	To              *time.Time
}

// FlightAssignmentRepository 逐日安排数据访问接口
type FlightAssignmentRepository interface {
	// ListInRange 返回 [from, to) 内的逐日安排
	ListInRange(ctx context.Context, from, to time.Time) ([]model.FlightAssignment, error)
	// ApplyBatch 单事务整体生效：任一写入失败则全部回滚
	ApplyBatch(ctx context.Context, batch *AssignmentBatch) (applied int, err error)
	ListChangeLogs(ctx context.Context, filter ChangeLogFilter, offset, limit int) ([]model.AssignmentChangeLog, int64, error)
}

type flightAssignmentRepo struct {
	db *gorm.DB
}

// NewFlightAssignmentRepo 创建 FlightAssignmentRepository 实例
func NewFlightAssignmentRepo(db *gorm.DB) FlightAssignmentRepository {
	return &flightAssignmentRepo{db: db}
}

func (r *flightAssignmentRepo) ListInRange(ctx context.Context, from, to time.Time) ([]model.FlightAssignment, error) {
	var list []model.FlightAssignment
	err := r.db.WithContext(ctx).
		Where("flight_date >= ? AND flight_date < ?", from, to).
		Order("flight_date ASC, flight_pattern_id ASC").
		Find(&list).Error
	return list, err
}

// ════════════════════════════════════════════════════════════
// ApplyBatch — 事务写入 + 审计
// ════════════════════════════════════════════════════════════

func (r *flightAssignmentRepo) ApplyBatch(ctx context.Context, batch *AssignmentBatch) (int, error) {
	var details datatypes.JSON
	if len(batch.Details) > 0 {
		raw, err := json.Marshal(batch.Details)
		if err != nil {
			return 0, fmt.Errorf("序列化变更详情失败: %w", err)
		}
		details = datatypes.JSON(raw)
	}

	applied := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var logs []model.AssignmentChangeLog
		newLog := func(patternID string, date time.Time, changeType string, oldReg, newReg *string) model.AssignmentChangeLog {
			return model.AssignmentChangeLog{
				BatchID:         batch.BatchID,
				FlightPatternID: patternID,
				FlightDate:      date,
				ChangeType:      changeType,
				OldRegistration: oldReg,
				NewRegistration: newReg,
				OperatorID:      batch.OperatorID,
				Details:         details,
			}
		}

		for _, w := range batch.Writes {
			oldReg, changed, err := applyWrite(tx, w, batch.OperatorID)
			if err != nil {
				return err
			}
			if !changed {
				continue
			}
			applied++
			var newReg *string
			if w.Registration != "" {
				reg := w.Registration
				newReg = &reg
			}
			logs = append(logs, newLog(w.FlightPatternID, w.FlightDate, batch.ChangeType, oldReg, newReg))
		}

		for i := range batch.Exclusions {
			ex := batch.Exclusions[i]
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&ex)
			if res.Error != nil {
				return fmt.Errorf("写入例外日期失败: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				continue
			}
			// 被排除的实例同时移除其逐日安排
			oldReg, _, err := applyWrite(tx, AssignmentWrite{FlightPatternID: ex.FlightPatternID, FlightDate: ex.ExcludedDate}, batch.OperatorID)
			if err != nil {
				return err
			}
			applied++
			logs = append(logs, newLog(ex.FlightPatternID, ex.ExcludedDate, model.ChangeExclude, oldReg, nil))
		}

		if len(logs) > 0 {
			if err := tx.Create(&logs).Error; err != nil {
				return fmt.Errorf("写入变更记录失败: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return applied, nil
}

// lockAssignment 事务内按实例锁定逐日安排行，并发写入同一实例时串行执行
func lockAssignment(tx *gorm.DB, w AssignmentWrite) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("flight_pattern_id = ? AND flight_date = ?", w.FlightPatternID, w.FlightDate)
}

// applyWrite 写入单个实例，返回原注册号与是否发生变化
func applyWrite(tx *gorm.DB, w AssignmentWrite, operator *string) (*string, bool, error) {
	var existing model.FlightAssignment
	err := lockAssignment(tx, w).First(&existing).Error
	found := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	switch {
	case !found && w.Registration == "":
		return nil, false, nil

	case !found:
		rec := model.FlightAssignment{
			FlightPatternID: w.FlightPatternID,
			FlightDate:      w.FlightDate,
			Registration:    w.Registration,
			Version:         1,
		}
		rec.CreatedBy, rec.UpdatedBy = operator, operator
		if err := tx.Create(&rec).Error; err != nil {
			return nil, false, fmt.Errorf("创建逐日安排失败: %w", err)
		}
		return nil, true, nil
	}

	oldReg := existing.Registration
	if w.Registration == oldReg {
		return &oldReg, false, nil
	}

	var result *gorm.DB
	if w.Registration == "" {
		result = tx.Where("flight_assignment_id = ? AND version = ?", existing.FlightAssignmentID, existing.Version).
			Delete(&model.FlightAssignment{})
	} else {
		result = tx.Model(&model.FlightAssignment{}).
			Where("flight_assignment_id = ? AND version = ?", existing.FlightAssignmentID, existing.Version).
			Updates(map[string]interface{}{
				"registration": w.Registration,
				"updated_by":   operator,
				"updated_at":   time.Now(),
				"version":      existing.Version + 1,
			})
	}
	if result.Error != nil {
		return nil, false, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, false, pkgerrors.ErrOptimisticLock
	}
	return &oldReg, true, nil
}

func (r *flightAssignmentRepo) ListChangeLogs(ctx context.Context, filter ChangeLogFilter, offset, limit int) ([]model.AssignmentChangeLog, int64, error) {
	var logs []model.AssignmentChangeLog
	var total int64

	db := r.db.WithContext(ctx).Model(&model.AssignmentChangeLog{})
	if filter.FlightPatternID != "" {
		db = db.Where("flight_pattern_id = ?", filter.FlightPatternID)
	}
	if filter.Registration != "" {
		db = db.Where("old_registration = ? OR new_registration = ?", filter.Registration, filter.Registration)
	}
	if filter.From != nil {
		db = db.Where("flight_date >= ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where("flight_date < ?", *filter.To)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Offset(offset).Limit(limit).
		Order("created_at DESC, change_log_id ASC").
		Find(&logs).Error
	return logs, total, err
}
