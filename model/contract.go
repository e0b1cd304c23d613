package model

import (
	"time"
)

// Contract statuses. pending -> signed is the only transition; signed is
// terminal.
const (
	ContractPending = "pending"
	ContractSigned  = "signed"
)

// Contract is a per-order signing workflow addressed by an unguessable
// random token. FormData is the snapshot of order/company/billing values the
// share link was minted with; PDFSigned is written exactly once.
type Contract struct {
	ContractID  string     `json:"contract_id" gorm:"column:contract_id;size:64;primaryKey"`
	OrderNumber string     `json:"order_number" gorm:"column:order_number;size:50;not null;index"`
	TemplateID  string     `json:"template_id" gorm:"column:template_id;size:20"`
	Status      string     `json:"status" gorm:"column:status;size:10"`
	FormData    string     `json:"form_data,omitempty" gorm:"column:form_data;type:text"`
	PDFSigned   []byte     `json:"-" gorm:"column:pdf_signed;type:longblob"`
	GeneratedAt time.Time  `json:"generated_at" gorm:"column:generated_at"`
	SignedAt    *time.Time `json:"signed_at,omitempty" gorm:"column:signed_at"`
}

func (Contract) TableName() string { return "contracts" }
