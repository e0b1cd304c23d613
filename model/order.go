package model

import (
	"time"
)

// Order stages. The stage decides which stage-specific fields are relevant
// and which status values are legal.
const (
	StageContract     = "Contract"
	StageDelivery     = "Delivery"
	StageInstallation = "Installation"
	StageCompleted    = "Completed"
)

// Order is one sales order moving through contract, delivery and
// installation. The order number is the stable human-referenced identity.
type Order struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OrderNumber string `json:"order_number" gorm:"column:order_number;size:50;uniqueIndex"`
	CompanyName string `json:"company_name" gorm:"column:company_name;size:200;not null"`
	Stage       string `json:"stage" gorm:"column:stage;size:20"`
	Status      string `json:"status" gorm:"column:status;size:20"`
	Employee    string `json:"employee" gorm:"column:employee;size:100"`

	// Contract stage
	LastContactDate string `json:"last_contact_date,omitempty" gorm:"column:last_contact_date;size:20"`

	// Delivery stage
	TrackingNumber        string `json:"tracking_number,omitempty" gorm:"column:tracking_number;size:100"`
	EstimatedDeliveryDate string `json:"estimated_delivery_date,omitempty" gorm:"column:estimated_delivery_date;size:20"`
	ShippingAddress       string `json:"shipping_address,omitempty" gorm:"column:shipping_address;size:300"`
	DeliverTo             string `json:"deliver_to,omitempty" gorm:"column:deliver_to;size:100"`

	// Installation stage
	InstallationAppointment string `json:"installation_appointment_time,omitempty" gorm:"column:installation_appointment;size:50"`
	InstallationEmployee    string `json:"installation_employee_name,omitempty" gorm:"column:installation_employee;size:100"`
	SiteLocation            string `json:"site_location,omitempty" gorm:"column:site_location;size:300"`
}

func (Order) TableName() string { return "orders" }
