package service

import (
	"context"
	"testing"

	"github.com/ErikTechForce/TechForcePortal-sub000/model"
)

func strptr(s string) *string { return &s }

func newTestLifecycle(t *testing.T) (*Lifecycle, *MemStore) {
	t.Helper()
	store := NewMemStore()
	return NewLifecycle(store), store
}

func mustCreateOrder(t *testing.T, l *Lifecycle, orderNumber string) *model.Order {
	t.Helper()
	order, err := l.CreateOrder(context.Background(), orderNumber, "Acme Corp", "alice")
	if err != nil {
		t.Fatalf("Failed to create order: %v", err)
	}
	return order
}

func TestLegalStatuses(t *testing.T) {
	tests := []struct {
		stage    string
		expected []string
	}{
		{model.StageContract, []string{"Pending", "In Progress", "Approved"}},
		{model.StageDelivery, []string{"Pending", "In Shipment", "Delivered"}},
		{model.StageInstallation, []string{"Pending", "Scheduled", "In Progress", "Completed"}},
		{model.StageCompleted, []string{"Completed"}},
	}

	for _, tt := range tests {
		statuses := LegalStatuses(tt.stage)
		if len(statuses) != len(tt.expected) {
			t.Fatalf("Stage %s: expected %d statuses, got %d", tt.stage, len(tt.expected), len(statuses))
		}
		for i, s := range tt.expected {
			if statuses[i] != s {
				t.Errorf("Stage %s: expected status[%d]=%s, got %s", tt.stage, i, s, statuses[i])
			}
		}
	}

	if len(LegalStatuses("Bogus")) != 0 {
		t.Error("Expected empty status set for unknown stage")
	}
}

func TestSetStageResetsInvalidStatus(t *testing.T) {
	order := &model.Order{Stage: model.StageDelivery, Status: "In Shipment"}

	SetStage(order, model.StageInstallation)

	if order.Stage != model.StageInstallation {
		t.Errorf("Expected stage Installation, got %s", order.Stage)
	}
	// In Shipment is not legal for Installation, must reset to the default
	if order.Status != "Pending" {
		t.Errorf("Expected status reset to Pending, got %s", order.Status)
	}
}

func TestSetStageKeepsValidStatus(t *testing.T) {
	// Pending is legal in both Contract and Delivery
	order := &model.Order{Stage: model.StageContract, Status: "Pending"}

	SetStage(order, model.StageDelivery)

	if order.Status != "Pending" {
		t.Errorf("Expected status to stay Pending, got %s", order.Status)
	}
}

func TestCreateOrderDefaults(t *testing.T) {
	l, store := newTestLifecycle(t)
	order := mustCreateOrder(t, l, "ORD-001")

	if order.Stage != model.StageContract {
		t.Errorf("Expected stage Contract, got %s", order.Stage)
	}
	if order.Status != "Pending" {
		t.Errorf("Expected status Pending, got %s", order.Status)
	}

	entries, err := store.ListActivity(context.Background(), "ORD-001", 0)
	if err != nil {
		t.Fatalf("Failed to list activity: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 creation entry, got %d", len(entries))
	}
	if entries[0].Action != "Order created for Acme Corp" {
		t.Errorf("Unexpected creation action: %s", entries[0].Action)
	}
	if entries[0].User != "alice" {
		t.Errorf("Expected acting user alice, got %s", entries[0].User)
	}
}

func TestCreateOrderRequiresCompanyName(t *testing.T) {
	l, _ := newTestLifecycle(t)
	if _, err := l.CreateOrder(context.Background(), "ORD-002", "", "alice"); err == nil {
		t.Error("Expected error for missing company name")
	}
}

func TestApplyEditLogsFieldChange(t *testing.T) {
	l, store := newTestLifecycle(t)
	mustCreateOrder(t, l, "ORD-010")

	_, err := l.ApplyEdit(context.Background(), "ORD-010", OrderEdits{
		Employee: strptr("John Smith"),
	}, "alice")
	if err != nil {
		t.Fatalf("ApplyEdit failed: %v", err)
	}

	entries, _ := store.ListActivity(context.Background(), "ORD-010", 0)
	// creation entry + one edit entry
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	// Newest first; a previously-empty field is phrased as "set to"
	if entries[0].Action != "Employee set to John Smith" {
		t.Errorf("Unexpected action: %s", entries[0].Action)
	}
}

func TestApplyEditChangedFromPhrasing(t *testing.T) {
	l, store := newTestLifecycle(t)
	mustCreateOrder(t, l, "ORD-011")

	ctx := context.Background()
	if _, err := l.ApplyEdit(ctx, "ORD-011", OrderEdits{Employee: strptr("John Smith")}, "alice"); err != nil {
		t.Fatalf("ApplyEdit failed: %v", err)
	}
	if _, err := l.ApplyEdit(ctx, "ORD-011", OrderEdits{Employee: strptr("Jane Doe")}, "alice"); err != nil {
		t.Fatalf("ApplyEdit failed: %v", err)
	}

	entries, _ := store.ListActivity(ctx, "ORD-011", 1)
	if entries[0].Action != "Employee changed from John Smith to Jane Doe" {
		t.Errorf("Unexpected action: %s", entries[0].Action)
	}
}

func TestApplyEditEmptyDiff(t *testing.T) {
	l, store := newTestLifecycle(t)
	mustCreateOrder(t, l, "ORD-012")

	// Submit values identical to current state
	_, err := l.ApplyEdit(context.Background(), "ORD-012", OrderEdits{
		Stage:  strptr(model.StageContract),
		Status: strptr("Pending"),
	}, "alice")
	if err != nil {
		t.Fatalf("ApplyEdit failed: %v", err)
	}

	entries, _ := store.ListActivity(context.Background(), "ORD-012", 0)
	if len(entries) != 2 {
		t.Fatalf("Expected exactly one new entry, got %d total", len(entries))
	}
	if entries[0].Action != "Order information updated" {
		t.Errorf("Expected generic entry, got %s", entries[0].Action)
	}
}

func TestApplyEditStageChangeResetsStatus(t *testing.T) {
	l, _ := newTestLifecycle(t)
	mustCreateOrder(t, l, "ORD-013")

	ctx := context.Background()
	order, err := l.ApplyEdit(ctx, "ORD-013", OrderEdits{
		Stage:  strptr(model.StageDelivery),
		Status: strptr("In Shipment"),
	}, "alice")
	if err != nil {
		t.Fatalf("ApplyEdit failed: %v", err)
	}
	if order.Stage != model.StageDelivery || order.Status != "In Shipment" {
		t.Fatalf("Unexpected order state: %s/%s", order.Stage, order.Status)
	}

	// Moving to Installation must force the status back to Pending
	order, err = l.ApplyEdit(ctx, "ORD-013", OrderEdits{
		Stage: strptr(model.StageInstallation),
	}, "alice")
	if err != nil {
		t.Fatalf("ApplyEdit failed: %v", err)
	}
	if order.Status != "Pending" {
		t.Errorf("Expected status reset to Pending, got %s", order.Status)
	}
	if !ValidStatus(order.Stage, order.Status) {
		t.Error("Status must always be legal for the current stage")
	}
}

func TestApplyEditDropsIllegalStatus(t *testing.T) {
	l, _ := newTestLifecycle(t)
	mustCreateOrder(t, l, "ORD-014")

	// Delivered is not a Contract-stage status; the edit is ignored
	order, err := l.ApplyEdit(context.Background(), "ORD-014", OrderEdits{
		Status: strptr("Delivered"),
	}, "alice")
	if err != nil {
		t.Fatalf("ApplyEdit failed: %v", err)
	}
	if order.Status != "Pending" {
		t.Errorf("Expected status unchanged at Pending, got %s", order.Status)
	}
	if !ValidStatus(order.Stage, order.Status) {
		t.Error("Status must always be legal for the current stage")
	}
}

func TestApplyEditMultipleFieldsPriorityOrder(t *testing.T) {
	l, store := newTestLifecycle(t)
	mustCreateOrder(t, l, "ORD-015")

	_, err := l.ApplyEdit(context.Background(), "ORD-015", OrderEdits{
		Stage:          strptr(model.StageDelivery),
		TrackingNumber: strptr("TRK-99"),
		Employee:       strptr("John Smith"),
	}, "alice")
	if err != nil {
		t.Fatalf("ApplyEdit failed: %v", err)
	}

	entries, _ := store.ListActivity(context.Background(), "ORD-015", 0)
	// creation + 3 changes, newest first: the append order is stage,
	// employee, tracking number, so reversed here
	if len(entries) != 4 {
		t.Fatalf("Expected 4 entries, got %d", len(entries))
	}
	expected := []string{
		"Tracking number set to TRK-99",
		"Employee set to John Smith",
		"Stage changed from Contract to Delivery",
	}
	for i, action := range expected {
		if entries[i].Action != action {
			t.Errorf("entry[%d]: expected %q, got %q", i, action, entries[i].Action)
		}
	}
}

func TestApplyEditNotFound(t *testing.T) {
	l, _ := newTestLifecycle(t)
	if _, err := l.ApplyEdit(context.Background(), "NOPE", OrderEdits{}, "alice"); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestAppendDefaultsToSystemUser(t *testing.T) {
	l, _ := newTestLifecycle(t)
	mustCreateOrder(t, l, "ORD-020")

	entry, err := l.Append(context.Background(), "ORD-020", "Invoice confirmation sent", "")
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if entry.User != model.SystemUser {
		t.Errorf("Expected user System, got %s", entry.User)
	}
}

func TestActivityLogLimit(t *testing.T) {
	l, _ := newTestLifecycle(t)
	mustCreateOrder(t, l, "ORD-021")

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := l.Append(ctx, "ORD-021", "entry", "alice"); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	entries, err := l.ActivityLog(ctx, "ORD-021", 3)
	if err != nil {
		t.Fatalf("ActivityLog failed: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("Expected 3 entries with limit, got %d", len(entries))
	}
}
