package service

import (
	"context"
	"fmt"

	"github.com/ErikTechForce/TechForcePortal-sub000/model"
	"github.com/ErikTechForce/TechForcePortal-sub000/pkg/logger"
)

// legalStatuses maps each stage to its allowed status values. The first
// entry is the stage default. Fixed, not user-configurable.
var legalStatuses = map[string][]string{
	model.StageContract:     {"Pending", "In Progress", "Approved"},
	model.StageDelivery:     {"Pending", "In Shipment", "Delivered"},
	model.StageInstallation: {"Pending", "Scheduled", "In Progress", "Completed"},
	model.StageCompleted:    {"Completed"},
}

// LegalStatuses returns the allowed status values for a stage. Unknown
// stages get an empty set.
func LegalStatuses(stage string) []string {
	return legalStatuses[stage]
}

// DefaultStatus returns the first legal status for a stage.
func DefaultStatus(stage string) string {
	statuses := legalStatuses[stage]
	if len(statuses) == 0 {
		return ""
	}
	return statuses[0]
}

// ValidStatus reports whether status is legal for stage.
func ValidStatus(stage, status string) bool {
	for _, s := range legalStatuses[stage] {
		if s == status {
			return true
		}
	}
	return false
}

// SetStage moves an order to a new stage. A status that is not legal in the
// new stage is reset to the stage default; this never errors, a stage change
// is expected to carry a status reset.
func SetStage(order *model.Order, newStage string) {
	order.Stage = newStage
	if !ValidStatus(newStage, order.Status) {
		order.Status = DefaultStatus(newStage)
	}
}

// OrderEdits is a partial edit of an order. Nil pointers mean "field not
// submitted"; a pointer to the empty string clears the field.
type OrderEdits struct {
	Stage                   *string `json:"stage"`
	Status                  *string `json:"status"`
	Employee                *string `json:"employee"`
	LastContactDate         *string `json:"last_contact_date"`
	TrackingNumber          *string `json:"tracking_number"`
	EstimatedDeliveryDate   *string `json:"estimated_delivery_date"`
	ShippingAddress         *string `json:"shipping_address"`
	DeliverTo               *string `json:"deliver_to"`
	InstallationAppointment *string `json:"installation_appointment_time"`
	InstallationEmployee    *string `json:"installation_employee_name"`
	SiteLocation            *string `json:"site_location"`
}

// Lifecycle applies order edits, keeps status legal for the current stage
// and writes the activity trail.
type Lifecycle struct {
	store Store
}

func NewLifecycle(store Store) *Lifecycle {
	return &Lifecycle{store: store}
}

// CreateOrder creates an order in Contract stage with the default status and
// writes the creation log entry. Company name is the only required field.
func (l *Lifecycle) CreateOrder(ctx context.Context, orderNumber, companyName, actingUser string) (*model.Order, error) {
	if companyName == "" {
		return nil, fmt.Errorf("company name is required")
	}

	order := &model.Order{
		OrderNumber: orderNumber,
		CompanyName: companyName,
		Stage:       model.StageContract,
		Status:      DefaultStatus(model.StageContract),
	}
	if err := l.store.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	if err := l.append(ctx, orderNumber, fmt.Sprintf("Order created for %s", companyName), actingUser); err != nil {
		return nil, err
	}

	logger.Info(ctx, "order created", "order_number", orderNumber, "company", companyName)
	return order, nil
}

// trackedField is one diffable order field with its log display name.
type trackedField struct {
	name string
	get  func(*model.Order) string
	edit func(*OrderEdits) *string
	set  func(*model.Order, string)
}

// Diff priority order is fixed: stage first, then status, then the rest.
var trackedFields = []trackedField{
	{
		name: "Stage",
		get:  func(o *model.Order) string { return o.Stage },
		edit: func(e *OrderEdits) *string { return e.Stage },
		set:  func(o *model.Order, v string) { SetStage(o, v) },
	},
	{
		name: "Status",
		get:  func(o *model.Order) string { return o.Status },
		edit: func(e *OrderEdits) *string { return e.Status },
		// A status outside the stage's legal set is dropped silently, the
		// same way SetStage normalizes.
		set: func(o *model.Order, v string) {
			if ValidStatus(o.Stage, v) {
				o.Status = v
			}
		},
	},
	{
		name: "Employee",
		get:  func(o *model.Order) string { return o.Employee },
		edit: func(e *OrderEdits) *string { return e.Employee },
		set:  func(o *model.Order, v string) { o.Employee = v },
	},
	{
		name: "Last contact date",
		get:  func(o *model.Order) string { return o.LastContactDate },
		edit: func(e *OrderEdits) *string { return e.LastContactDate },
		set:  func(o *model.Order, v string) { o.LastContactDate = v },
	},
	{
		name: "Tracking number",
		get:  func(o *model.Order) string { return o.TrackingNumber },
		edit: func(e *OrderEdits) *string { return e.TrackingNumber },
		set:  func(o *model.Order, v string) { o.TrackingNumber = v },
	},
	{
		name: "Estimated delivery date",
		get:  func(o *model.Order) string { return o.EstimatedDeliveryDate },
		edit: func(e *OrderEdits) *string { return e.EstimatedDeliveryDate },
		set:  func(o *model.Order, v string) { o.EstimatedDeliveryDate = v },
	},
	{
		name: "Installation appointment",
		get:  func(o *model.Order) string { return o.InstallationAppointment },
		edit: func(e *OrderEdits) *string { return e.InstallationAppointment },
		set:  func(o *model.Order, v string) { o.InstallationAppointment = v },
	},
}

// ApplyEdit diffs the submitted edits against the stored order, logs one
// entry per changed tracked field (or a single generic entry when nothing
// changed), and persists the result as one update.
//
// Untracked fields (shipping address, deliver-to, installation employee,
// site location) are applied without their own log line.
func (l *Lifecycle) ApplyEdit(ctx context.Context, orderNumber string, edits OrderEdits, actingUser string) (*model.Order, error) {
	order, err := l.store.GetOrder(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	var actions []string
	for _, f := range trackedFields {
		submitted := f.edit(&edits)
		if submitted == nil {
			continue
		}
		before := f.get(order)
		f.set(order, *submitted)
		after := f.get(order)
		if after == before {
			continue
		}
		if before == "" {
			actions = append(actions, fmt.Sprintf("%s set to %s", f.name, after))
		} else {
			actions = append(actions, fmt.Sprintf("%s changed from %s to %s", f.name, before, after))
		}
	}

	applyUntracked(order, &edits)

	if err := l.store.UpdateOrder(ctx, order); err != nil {
		return nil, err
	}

	// An edit with no real differences still gets exactly one entry.
	if len(actions) == 0 {
		actions = []string{"Order information updated"}
	}
	for _, action := range actions {
		if err := l.append(ctx, orderNumber, action, actingUser); err != nil {
			return nil, err
		}
	}

	logger.Info(ctx, "order updated", "order_number", orderNumber, "changes", len(actions))
	return order, nil
}

func applyUntracked(order *model.Order, edits *OrderEdits) {
	if edits.ShippingAddress != nil {
		order.ShippingAddress = *edits.ShippingAddress
	}
	if edits.DeliverTo != nil {
		order.DeliverTo = *edits.DeliverTo
	}
	if edits.InstallationEmployee != nil {
		order.InstallationEmployee = *edits.InstallationEmployee
	}
	if edits.SiteLocation != nil {
		order.SiteLocation = *edits.SiteLocation
	}
}

// Append writes one activity entry for an order. An empty user is recorded
// as System.
func (l *Lifecycle) Append(ctx context.Context, orderNumber, action, user string) (*model.ActivityLogEntry, error) {
	if _, err := l.store.GetOrder(ctx, orderNumber); err != nil {
		return nil, err
	}
	entry := &model.ActivityLogEntry{
		OrderNumber: orderNumber,
		Action:      action,
		User:        user,
	}
	if entry.User == "" {
		entry.User = model.SystemUser
	}
	if err := l.store.AppendActivity(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (l *Lifecycle) append(ctx context.Context, orderNumber, action, user string) error {
	_, err := l.Append(ctx, orderNumber, action, user)
	return err
}

// ActivityLog lists an order's log entries, newest first.
func (l *Lifecycle) ActivityLog(ctx context.Context, orderNumber string, limit int) ([]*model.ActivityLogEntry, error) {
	if _, err := l.store.GetOrder(ctx, orderNumber); err != nil {
		return nil, err
	}
	return l.store.ListActivity(ctx, orderNumber, limit)
}
