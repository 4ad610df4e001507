package repository

import (
	"context"
	"fmt"
	"time"

	"opsportal/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RequestFilter narrows List. Zero values mean "no constraint".
type RequestFilter struct {
	Status      model.Status
	RequesterID *uuid.UUID
	From        *time.Time // submitted_at >= From
	To          *time.Time // submitted_at < To
	Page        int
	Limit       int
}

// Transition is the decision written by TransitionFromPending.
type Transition struct {
	Status     model.Status
	ReviewedAt time.Time
	ReviewedBy uuid.UUID
	AdminNotes string
}

// RequestRepository is the persistence gateway for every request variant.
// Each call is atomic on its own; callers join a wider transaction through
// TransactionManager.
type RequestRepository interface {
	Create(ctx context.Context, req model.Request) error
	FindByID(ctx context.Context, kind model.Kind, id uuid.UUID) (model.Request, error)
	List(ctx context.Context, kind model.Kind, filter RequestFilter) ([]model.Request, int64, error)
	// TransitionFromPending applies t only while the row is still Pending.
	// It reports false when another decision got there first.
	TransitionFromPending(ctx context.Context, kind model.Kind, id uuid.UUID, t Transition) (bool, error)
	Delete(ctx context.Context, kind model.Kind, id uuid.UUID) error
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req model.Request) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *requestRepository) FindByID(ctx context.Context, kind model.Kind, id uuid.UUID) (model.Request, error) {
	req, err := model.New(kind)
	if err != nil {
		return nil, err
	}
	if err := withAssociations(GetDB(ctx, r.db), kind).First(req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return req, nil
}

func (r *requestRepository) List(ctx context.Context, kind model.Kind, filter RequestFilter) ([]model.Request, int64, error) {
	empty, err := model.New(kind)
	if err != nil {
		return nil, 0, err
	}

	db := GetDB(ctx, r.db)
	scope := func(q *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.RequesterID != nil {
			q = q.Where("requester_id = ?", *filter.RequesterID)
		}
		if filter.From != nil {
			q = q.Where("submitted_at >= ?", *filter.From)
		}
		if filter.To != nil {
			q = q.Where("submitted_at < ?", *filter.To)
		}
		return q
	}

	var total int64
	if err := db.Model(empty).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	offset := (filter.Page - 1) * filter.Limit
	q := withAssociations(db, kind).Scopes(scope).Order("submitted_at DESC").Offset(offset).Limit(filter.Limit)

	var rows []model.Request
	switch kind {
	case model.KindPurchase:
		rows, err = findAll[model.PurchaseRequest](q)
	case model.KindCashDemand:
		rows, err = findAll[model.CashDemand](q)
	case model.KindExpense:
		rows, err = findAll[model.ExpenseRecord](q)
	case model.KindRegistration:
		rows, err = findAll[model.EmployeeRegistration](q)
	default:
		err = fmt.Errorf("unsupported request kind %q", kind)
	}
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *requestRepository) TransitionFromPending(ctx context.Context, kind model.Kind, id uuid.UUID, t Transition) (bool, error) {
	target, err := model.New(kind)
	if err != nil {
		return false, err
	}
	// UpdateColumns skips hooks: only the lifecycle columns change here.
	res := GetDB(ctx, r.db).Model(target).
		Where("id = ? AND status = ?", id, model.StatusPending).
		UpdateColumns(map[string]interface{}{
			"status":      t.Status,
			"reviewed_at": t.ReviewedAt,
			"reviewed_by": t.ReviewedBy,
			"admin_notes": t.AdminNotes,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *requestRepository) Delete(ctx context.Context, kind model.Kind, id uuid.UUID) error {
	req, err := r.FindByID(ctx, kind, id)
	if err != nil {
		return err
	}
	// Owned line items go with their record.
	return GetDB(ctx, r.db).Select(clause.Associations).Delete(req).Error
}

func withAssociations(db *gorm.DB, kind model.Kind) *gorm.DB {
	if kind == model.KindExpense {
		return db.Preload("Items", func(q *gorm.DB) *gorm.DB {
			return q.Order("position ASC")
		})
	}
	return db
}

func findAll[T any, P interface {
	*T
	model.Request
}](q *gorm.DB) ([]model.Request, error) {
	var rows []T
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.Request, 0, len(rows))
	for i := range rows {
		out = append(out, P(&rows[i]))
	}
	return out, nil
}
