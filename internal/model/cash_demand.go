package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultPaymentMethod = "Bank Transfer"

// CashDemand is a request for a cash advance.
type CashDemand struct {
	RequestHeader

	DemanderName  string          `gorm:"type:varchar(200);not null" json:"demander_name"`
	DemanderCode  string          `gorm:"type:varchar(100);not null" json:"demander_id"`
	DemandTime    time.Time       `json:"demand_time"`
	Purpose       string          `gorm:"type:varchar(200);not null" json:"purpose"`
	Description   string          `gorm:"type:text;not null" json:"description"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	Department    string          `gorm:"type:varchar(100);not null" json:"department"`
	PaymentMethod string          `gorm:"type:varchar(50);not null;default:'Bank Transfer'" json:"payment_method"`
}

func (*CashDemand) Kind() Kind { return KindCashDemand }

func (d *CashDemand) Prepare() error {
	for _, f := range []struct{ name, value string }{
		{"demander_name", d.DemanderName},
		{"demander_id", d.DemanderCode},
		{"purpose", d.Purpose},
		{"description", d.Description},
		{"department", d.Department},
	} {
		if err := required(f.name, strings.TrimSpace(f.value)); err != nil {
			return err
		}
	}
	if !d.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: "must be greater than 0"}
	}
	if d.PaymentMethod == "" {
		d.PaymentMethod = DefaultPaymentMethod
	}
	if d.DemandTime.IsZero() {
		d.DemandTime = d.SubmittedAt
	}
	return nil
}

// Cash demands are not classified; the caller-selected urgency stands.
func (*CashDemand) ClassificationText() string { return "" }

func (d *CashDemand) Summary() Summary {
	return Summary{Subject: d.Purpose, Amount: d.Amount, Department: d.Department}
}

func (*CashDemand) Contact() Contact { return Contact{} }
