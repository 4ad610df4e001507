package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MaxExpenseItems is the number of line items one expense record can carry.
const MaxExpenseItems = 10

// ExpenseRecord groups reimbursable line items under one reference code.
type ExpenseRecord struct {
	RequestHeader

	Code        string            `gorm:"type:varchar(50);uniqueIndex;not null" json:"expense_id"`
	Department  string            `gorm:"type:varchar(100);not null" json:"department"`
	TotalAmount decimal.Decimal   `gorm:"type:decimal(18,4);not null" json:"total_amount"`
	Items       []ExpenseLineItem `gorm:"foreignKey:ExpenseRecordID;constraint:OnDelete:CASCADE" json:"items"`
}

// ExpenseLineItem belongs to exactly one ExpenseRecord. Amount = Quantity × Rate.
type ExpenseLineItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ExpenseRecordID uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	Position        int             `gorm:"not null" json:"position"`
	Description     string          `gorm:"type:varchar(500);not null" json:"description"`
	Purpose         string          `gorm:"type:varchar(300)" json:"purpose"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	Rate            decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"rate"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	VoucherFilename string          `gorm:"type:varchar(255)" json:"voucher_filename,omitempty"`
}

func (*ExpenseRecord) Kind() Kind { return KindExpense }

func (e *ExpenseRecord) Prepare() error {
	if err := required("expense_id", strings.TrimSpace(e.Code)); err != nil {
		return err
	}
	if err := required("department", strings.TrimSpace(e.Department)); err != nil {
		return err
	}
	if len(e.Items) == 0 {
		return &ValidationError{Field: "items", Reason: "at least one line item is required"}
	}
	if len(e.Items) > MaxExpenseItems {
		return &ValidationError{Field: "items", Reason: fmt.Sprintf("at most %d line items are allowed", MaxExpenseItems)}
	}
	for i := range e.Items {
		item := &e.Items[i]
		field := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(item.Description) == "" {
			return &ValidationError{Field: field + ".description", Reason: "is required"}
		}
		if item.Quantity <= 0 {
			return &ValidationError{Field: field + ".quantity", Reason: "must be greater than 0"}
		}
		if item.Rate.IsNegative() {
			return &ValidationError{Field: field + ".rate", Reason: "must not be negative"}
		}
		item.Position = i + 1
		item.Amount = item.amount()
	}
	e.TotalAmount = e.total()
	return nil
}

func (e *ExpenseRecord) total() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range e.Items {
		sum = sum.Add(item.amount())
	}
	return sum
}

// Expense records are not classified.
func (*ExpenseRecord) ClassificationText() string { return "" }

func (e *ExpenseRecord) Summary() Summary {
	return Summary{Subject: "Expense " + e.Code, Amount: e.TotalAmount, Department: e.Department}
}

func (*ExpenseRecord) Contact() Contact { return Contact{} }

func (e *ExpenseRecord) BeforeSave(tx *gorm.DB) error {
	e.TotalAmount = e.total()
	return nil
}

func (i *ExpenseLineItem) amount() decimal.Decimal {
	return i.Rate.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i *ExpenseLineItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// BeforeSave recomputes the amount on every write of a line item.
func (i *ExpenseLineItem) BeforeSave(tx *gorm.DB) error {
	i.Amount = i.amount()
	return nil
}
