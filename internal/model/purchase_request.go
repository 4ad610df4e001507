package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchaseRequest asks for goods to be bought. TotalAmount is always
// Quantity × UnitPrice and is never taken from the client.
type PurchaseRequest struct {
	RequestHeader

	ItemName      string          `gorm:"type:varchar(200);not null" json:"item_name"`
	Description   string          `gorm:"type:text" json:"description"`
	Quantity      int             `gorm:"not null" json:"quantity"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_amount"`
	Supplier      string          `gorm:"type:varchar(200)" json:"supplier"`
	Justification string          `gorm:"type:text;not null" json:"justification"`
}

func (*PurchaseRequest) Kind() Kind { return KindPurchase }

func (p *PurchaseRequest) Prepare() error {
	if err := required("item_name", strings.TrimSpace(p.ItemName)); err != nil {
		return err
	}
	if err := required("justification", strings.TrimSpace(p.Justification)); err != nil {
		return err
	}
	if p.Quantity <= 0 {
		return &ValidationError{Field: "quantity", Reason: "must be greater than 0"}
	}
	if p.UnitPrice.IsNegative() {
		return &ValidationError{Field: "unit_price", Reason: "must not be negative"}
	}
	p.TotalAmount = p.total()
	return nil
}

func (p *PurchaseRequest) total() decimal.Decimal {
	return p.UnitPrice.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

func (p *PurchaseRequest) ClassificationText() string {
	return fmt.Sprintf("Description: %s\nJustification: %s", p.Description, p.Justification)
}

func (p *PurchaseRequest) Summary() Summary {
	return Summary{Subject: p.ItemName, Amount: p.TotalAmount}
}

func (*PurchaseRequest) Contact() Contact { return Contact{} }

// BeforeSave keeps the stored total consistent with quantity and price.
func (p *PurchaseRequest) BeforeSave(tx *gorm.DB) error {
	p.TotalAmount = p.total()
	return nil
}
