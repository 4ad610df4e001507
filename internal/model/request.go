package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Kind identifies one of the submittable request variants.
type Kind string

const (
	KindPurchase     Kind = "purchase"
	KindCashDemand   Kind = "demand"
	KindExpense      Kind = "expense"
	KindRegistration Kind = "registration"
)

// Kinds lists every request variant in display order.
var Kinds = []Kind{KindPurchase, KindCashDemand, KindExpense, KindRegistration}

// ParseKind accepts the URL form of a kind ("purchase", "demand", "expense", "registration").
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown request kind %q", s)}
}

// Label is the human readable name used in notifications.
func (k Kind) Label() string {
	switch k {
	case KindPurchase:
		return "Purchase Request"
	case KindCashDemand:
		return "Cash Demand"
	case KindExpense:
		return "Expense Record"
	case KindRegistration:
		return "Employee Registration"
	}
	return string(k)
}

// Status enum
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// IsTerminal reports whether s is a decision outcome.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// ParseDecision accepts "approved"/"rejected" in any case.
func ParseDecision(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approved", "approve":
		return StatusApproved, nil
	case "rejected", "reject":
		return StatusRejected, nil
	}
	return "", &ValidationError{Field: "decision", Reason: "must be Approved or Rejected"}
}

// Urgency enum
type Urgency string

const (
	UrgencyLow      Urgency = "Low"
	UrgencyNormal   Urgency = "Normal"
	UrgencyHigh     Urgency = "High"
	UrgencyCritical Urgency = "Critical"
)

// ParseUrgency is case-insensitive; the empty string maps to Normal.
func ParseUrgency(s string) (Urgency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return UrgencyNormal, nil
	case "low":
		return UrgencyLow, nil
	case "normal":
		return UrgencyNormal, nil
	case "high":
		return UrgencyHigh, nil
	case "critical":
		return UrgencyCritical, nil
	}
	return "", &ValidationError{Field: "urgency", Reason: fmt.Sprintf("unknown urgency %q", s)}
}

// RequestHeader holds the lifecycle fields shared by every request variant.
// It is embedded, so each variant table carries these columns.
type RequestHeader struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RequesterID *uuid.UUID `gorm:"type:uuid;index" json:"requester_id"`
	SubmittedAt time.Time  `gorm:"not null;index" json:"submitted_at"`
	Status      Status     `gorm:"type:varchar(20);not null;default:'Pending';index" json:"status"`
	Urgency     Urgency    `gorm:"type:varchar(20);not null;default:'Normal'" json:"urgency"`
	ReviewedAt  *time.Time `json:"reviewed_at"`
	ReviewedBy  *uuid.UUID `gorm:"type:uuid" json:"reviewed_by"`
	AdminNotes  string     `gorm:"type:text" json:"admin_notes"`
}

// Base exposes the shared header of any variant.
func (h *RequestHeader) Base() *RequestHeader { return h }

func (h *RequestHeader) sealed() {}

// BeforeCreate fills identity and lifecycle defaults for rows inserted outside the service.
func (h *RequestHeader) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	if h.SubmittedAt.IsZero() {
		h.SubmittedAt = time.Now().UTC()
	}
	if h.Status == "" {
		h.Status = StatusPending
	}
	if h.Urgency == "" {
		h.Urgency = UrgencyNormal
	}
	return nil
}

// Contact is someone reachable outside the user table (public registration forms).
type Contact struct {
	Name  string
	Phone string
}

// Summary is the variant-agnostic description used for drafting approval notes.
type Summary struct {
	Subject    string
	Amount     decimal.Decimal
	Department string
}

// Request is the closed set of submittable records. Each variant answers the
// lifecycle questions for itself, so callers never branch on the kind.
type Request interface {
	Kind() Kind
	Base() *RequestHeader

	// Prepare recomputes server-side derived fields and validates the payload.
	Prepare() error
	// ClassificationText returns the text sent to the urgency classifier,
	// or "" when the variant is not classified.
	ClassificationText() string
	Summary() Summary
	// Contact returns the submitter when the request has no requester account.
	Contact() Contact

	sealed()
}

// New returns an empty request of the given kind, ready to be loaded into.
func New(kind Kind) (Request, error) {
	switch kind {
	case KindPurchase:
		return &PurchaseRequest{}, nil
	case KindCashDemand:
		return &CashDemand{}, nil
	case KindExpense:
		return &ExpenseRecord{}, nil
	case KindRegistration:
		return &EmployeeRegistration{}, nil
	}
	return nil, &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown request kind %q", kind)}
}
