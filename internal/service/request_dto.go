package service

import (
	"time"

	"opsportal/internal/model"

	"github.com/shopspring/decimal"
)

// --- DTOs ---

// SubmissionInput is the JSON body of a submission for one request kind.
// Client supplied totals are accepted for compatibility and ignored.
type SubmissionInput interface {
	ToModel() (model.Request, error)
}

// NewSubmission returns an empty input to bind the body of a kind into.
func NewSubmission(kind model.Kind) (SubmissionInput, error) {
	switch kind {
	case model.KindPurchase:
		return &CreatePurchaseRequestDTO{}, nil
	case model.KindCashDemand:
		return &CreateCashDemandDTO{}, nil
	case model.KindExpense:
		return &CreateExpenseRecordDTO{}, nil
	case model.KindRegistration:
		return &CreateRegistrationDTO{}, nil
	}
	_, err := model.New(kind)
	return nil, err
}

type CreatePurchaseRequestDTO struct {
	ItemName      string          `json:"item_name" binding:"required"`
	Description   string          `json:"description"`
	Quantity      int             `json:"quantity" binding:"required,gt=0"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalAmount   decimal.Decimal `json:"total_amount"` // ignored
	Supplier      string          `json:"supplier"`
	Justification string          `json:"justification" binding:"required"`
	Urgency       string          `json:"urgency"`
}

func (d *CreatePurchaseRequestDTO) ToModel() (model.Request, error) {
	urgency, err := model.ParseUrgency(d.Urgency)
	if err != nil {
		return nil, err
	}
	return &model.PurchaseRequest{
		RequestHeader: model.RequestHeader{Urgency: urgency},
		ItemName:      d.ItemName,
		Description:   d.Description,
		Quantity:      d.Quantity,
		UnitPrice:     d.UnitPrice,
		Supplier:      d.Supplier,
		Justification: d.Justification,
	}, nil
}

type CreateCashDemandDTO struct {
	DemanderName  string          `json:"demander_name" binding:"required"`
	DemanderID    string          `json:"demander_id" binding:"required"`
	DemandTime    *time.Time      `json:"demand_time"`
	Purpose       string          `json:"purpose" binding:"required"`
	Description   string          `json:"description" binding:"required"`
	Amount        decimal.Decimal `json:"amount"`
	Department    string          `json:"department" binding:"required"`
	PaymentMethod string          `json:"payment_method"`
	Urgency       string          `json:"urgency"`
}

func (d *CreateCashDemandDTO) ToModel() (model.Request, error) {
	urgency, err := model.ParseUrgency(d.Urgency)
	if err != nil {
		return nil, err
	}
	cd := &model.CashDemand{
		RequestHeader: model.RequestHeader{Urgency: urgency},
		DemanderName:  d.DemanderName,
		DemanderCode:  d.DemanderID,
		Purpose:       d.Purpose,
		Description:   d.Description,
		Amount:        d.Amount,
		Department:    d.Department,
		PaymentMethod: d.PaymentMethod,
	}
	if d.DemandTime != nil {
		cd.DemandTime = d.DemandTime.UTC()
	}
	return cd, nil
}

type ExpenseItemDTO struct {
	Description     string          `json:"description" binding:"required"`
	Purpose         string          `json:"purpose"`
	Quantity        int             `json:"quantity" binding:"required,gt=0"`
	Rate            decimal.Decimal `json:"rate"`
	Amount          decimal.Decimal `json:"amount"` // ignored
	VoucherFilename string          `json:"voucher_filename"`
}

type CreateExpenseRecordDTO struct {
	ExpenseID  string           `json:"expense_id" binding:"required"`
	Department string           `json:"department" binding:"required"`
	Urgency    string           `json:"urgency"`
	Items      []ExpenseItemDTO `json:"items" binding:"required,min=1,max=10,dive"`
}

func (d *CreateExpenseRecordDTO) ToModel() (model.Request, error) {
	urgency, err := model.ParseUrgency(d.Urgency)
	if err != nil {
		return nil, err
	}
	rec := &model.ExpenseRecord{
		RequestHeader: model.RequestHeader{Urgency: urgency},
		Code:          d.ExpenseID,
		Department:    d.Department,
		Items:         make([]model.ExpenseLineItem, 0, len(d.Items)),
	}
	for _, it := range d.Items {
		rec.Items = append(rec.Items, model.ExpenseLineItem{
			Description:     it.Description,
			Purpose:         it.Purpose,
			Quantity:        it.Quantity,
			Rate:            it.Rate,
			VoucherFilename: it.VoucherFilename,
		})
	}
	return rec, nil
}

type CreateRegistrationDTO struct {
	FirstName       string           `json:"first_name" binding:"required"`
	LastName        string           `json:"last_name" binding:"required"`
	Email           string           `json:"email" binding:"required,email"`
	Phone           string           `json:"phone"`
	Department      string           `json:"department" binding:"required"`
	Position        string           `json:"position" binding:"required"`
	StartDate       string           `json:"start_date" binding:"required"` // YYYY-MM-DD
	Salary          *decimal.Decimal `json:"salary"`
	EmployeeID      string           `json:"employee_id"`
	IDNumber        string           `json:"id_number"`
	PhotoFilename   string           `json:"photo_filename"`
	IDPhotoFilename string           `json:"id_photo_filename"`
	OtherFiles      []string         `json:"other_files"`
	Urgency         string           `json:"urgency"`
}

func (d *CreateRegistrationDTO) ToModel() (model.Request, error) {
	urgency, err := model.ParseUrgency(d.Urgency)
	if err != nil {
		return nil, err
	}
	start, err := time.Parse("2006-01-02", d.StartDate)
	if err != nil {
		return nil, &model.ValidationError{Field: "start_date", Reason: "must be a date in YYYY-MM-DD format"}
	}
	return &model.EmployeeRegistration{
		RequestHeader:   model.RequestHeader{Urgency: urgency},
		FirstName:       d.FirstName,
		LastName:        d.LastName,
		Email:           d.Email,
		Phone:           d.Phone,
		Department:      d.Department,
		Position:        d.Position,
		StartDate:       start,
		Salary:          d.Salary,
		EmployeeCode:    d.EmployeeID,
		IDNumber:        d.IDNumber,
		PhotoFilename:   d.PhotoFilename,
		IDPhotoFilename: d.IDPhotoFilename,
		OtherFiles:      d.OtherFiles,
	}, nil
}

// DecisionDTO is the body of a decision call. Empty notes may be drafted.
type DecisionDTO struct {
	Decision string `json:"decision" binding:"required"`
	Notes    string `json:"notes"`
}
