package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// Terminal reports whether no further transition is defined from s.
func (s RequestStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

const (
	TypeLoan         = "loan"
	TypeMicrofinance = "microfinance"
	TypeGeneral      = "general"
)

// WelfareRequest is an assistance application. Status starts at pending and
// moves exactly once to approved or rejected. RejectionReason is set only
// while Status is rejected.
type WelfareRequest struct {
	ID              uuid.UUID                          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID          uuid.UUID                          `gorm:"type:uuid;not null;index" json:"user_id"`
	Type            string                             `gorm:"size:32;not null;index" json:"type"`
	Reason          string                             `gorm:"type:text" json:"reason"`
	Amount          *float64                           `gorm:"type:decimal(14,2)" json:"amount,omitempty"`
	Status          RequestStatus                      `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Address         string                             `gorm:"size:500;not null" json:"address"`
	CNICFront       string                             `gorm:"column:cnic_front;size:500" json:"cnic_front,omitempty"`
	CNICBack        string                             `gorm:"column:cnic_back;size:500" json:"cnic_back,omitempty"`
	SupportingDoc   string                             `gorm:"size:500" json:"supporting_doc,omitempty"`
	Details         datatypes.JSONType[RequestDetails] `gorm:"type:jsonb" json:"details"`
	RejectionReason *string                            `gorm:"type:text" json:"rejection_reason,omitempty"`
	ReviewedBy      *uuid.UUID                         `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	CreatedAt       time.Time                          `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time                          `json:"updated_at"`
	User            *User                              `gorm:"foreignKey:UserID" json:"applicant,omitempty"`
}

func (WelfareRequest) TableName() string {
	return "welfare_requests"
}

// RequestDetails is the per-type payload. Exactly one variant is set and it
// matches Kind.
type RequestDetails struct {
	Kind         string               `json:"kind"`
	Loan         *LoanDetails         `json:"loan,omitempty"`
	Microfinance *MicrofinanceDetails `json:"microfinance,omitempty"`
	General      *GeneralDetails      `json:"general,omitempty"`
	Extension    *ExtensionDetails    `json:"extension,omitempty"`
}

type LoanDetails struct {
	MonthlyIncome   *float64 `json:"monthly_income,omitempty"`
	RepaymentMonths int      `json:"repayment_months,omitempty"`
	GuarantorName   string   `json:"guarantor_name,omitempty"`
	GuarantorCNIC   string   `json:"guarantor_cnic,omitempty"`
}

type MicrofinanceDetails struct {
	BusinessName   string   `json:"business_name"`
	BusinessType   string   `json:"business_type,omitempty"`
	BusinessPlan   string   `json:"business_plan,omitempty"`
	MonthlyRevenue *float64 `json:"monthly_revenue,omitempty"`
}

type GeneralDetails struct {
	Category   string `json:"category,omitempty"`
	Dependents int    `json:"dependents,omitempty"`
}

// ExtensionDetails carries the free-form fields of request types that have
// no dedicated variant.
type ExtensionDetails struct {
	Fields map[string]string `json:"fields,omitempty"`
}
