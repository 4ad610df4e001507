package model

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EmployeeRegistration is submitted from the public onboarding form, so it
// has no requester account; decisions are sent to the registrant's phone.
type EmployeeRegistration struct {
	RequestHeader

	FirstName       string           `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName        string           `gorm:"type:varchar(100);not null" json:"last_name"`
	Email           string           `gorm:"type:varchar(120);uniqueIndex;not null" json:"email"`
	Phone           string           `gorm:"type:varchar(20)" json:"phone"`
	Department      string           `gorm:"type:varchar(100);not null" json:"department"`
	Position        string           `gorm:"type:varchar(100);not null" json:"position"`
	StartDate       time.Time        `gorm:"type:date;not null" json:"start_date"`
	Salary          *decimal.Decimal `gorm:"type:decimal(18,4)" json:"salary"`
	EmployeeCode    string           `gorm:"type:varchar(50)" json:"employee_id"`
	IDNumber        string           `gorm:"type:varchar(50)" json:"id_number"`
	PhotoFilename   string           `gorm:"type:varchar(255)" json:"photo_filename,omitempty"`
	IDPhotoFilename string           `gorm:"type:varchar(255)" json:"id_photo_filename,omitempty"`
	OtherFiles      []string         `gorm:"type:text;serializer:json" json:"other_files,omitempty"`
}

func (*EmployeeRegistration) Kind() Kind { return KindRegistration }

func (r *EmployeeRegistration) Prepare() error {
	for _, f := range []struct{ name, value string }{
		{"first_name", r.FirstName},
		{"last_name", r.LastName},
		{"email", r.Email},
		{"department", r.Department},
		{"position", r.Position},
	} {
		if err := required(f.name, strings.TrimSpace(f.value)); err != nil {
			return err
		}
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return &ValidationError{Field: "email", Reason: "is not a valid address"}
	}
	if r.StartDate.IsZero() {
		return &ValidationError{Field: "start_date", Reason: "is required"}
	}
	if r.Salary != nil && r.Salary.IsNegative() {
		return &ValidationError{Field: "salary", Reason: "must not be negative"}
	}
	return nil
}

func (*EmployeeRegistration) ClassificationText() string { return "" }

func (r *EmployeeRegistration) Summary() Summary {
	s := Summary{
		Subject:    fmt.Sprintf("%s %s, %s", r.FirstName, r.LastName, r.Position),
		Department: r.Department,
	}
	if r.Salary != nil {
		s.Amount = *r.Salary
	}
	return s
}

func (r *EmployeeRegistration) Contact() Contact {
	return Contact{Name: strings.TrimSpace(r.FirstName + " " + r.LastName), Phone: r.Phone}
}
