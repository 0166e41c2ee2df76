package service

import (
	"context"
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/stelaryous/ticketflow/internal/domain"
	"github.com/stelaryous/ticketflow/internal/events"
	"github.com/stelaryous/ticketflow/internal/repository"
	apperrors "github.com/stelaryous/ticketflow/pkg/util"
)

type paymentFixture struct {
	service   *PaymentService
	payments  *fakePaymentRepo
	tickets   *fakeTicketRepo
	catalog   *fakeCatalogRepo
	discounts *fakeDiscountRepo
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	tickets := newFakeTicketRepo()
	payments := newFakePaymentRepo(tickets)
	catalog := newFakeCatalogRepo()
	discounts := newFakeDiscountRepo()

	svc := NewPaymentService(PaymentDependencies{
		PaymentRepo:  payments,
		TicketRepo:   tickets,
		CatalogRepo:  catalog,
		DiscountRepo: discounts,
		Dispatcher:   events.NewInMemoryDispatcher(),
		Logger:       zap.NewNop(),
	})
	return &paymentFixture{service: svc, payments: payments, tickets: tickets, catalog: catalog, discounts: discounts}
}

func (f *paymentFixture) seedTicket(t *testing.T, value float64, discountID *string) *domain.Ticket {
	t.Helper()
	svc := &domain.Service{Name: "logo", DueDays: 5, Value: value, CategoryID: "category-1"}
	if err := f.catalog.CreateService(context.Background(), svc); err != nil {
		t.Fatalf("seed service: %v", err)
	}
	ticket := &domain.Ticket{
		Number:     "TK-pay",
		ServiceID:  svc.ID,
		Client:     "Acme",
		Email:      "a@b.c",
		Status:     domain.TicketStatusFinalized,
		Payment:    domain.PaymentStatusPending,
		DiscountID: discountID,
		CreatedBy:  "owner-1",
	}
	if err := f.tickets.Create(context.Background(), ticket); err != nil {
		t.Fatalf("seed ticket: %v", err)
	}
	return ticket
}

func (f *paymentFixture) seedDiscount(t *testing.T, percentage int) *domain.Discount {
	t.Helper()
	discount := &domain.Discount{Cargo: "designer", Percentage: percentage, Visible: true}
	if err := f.discounts.Create(context.Background(), discount); err != nil {
		t.Fatalf("seed discount: %v", err)
	}
	return discount
}

func TestFinalValue(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		discount *domain.Discount
		want     float64
	}{
		{"no discount", 200, nil, 200},
		{"twenty percent", 200, &domain.Discount{Percentage: 20}, 160},
		{"full discount", 150, &domain.Discount{Percentage: 100}, 0},
		{"zero percent", 99.9, &domain.Discount{Percentage: 0}, 99.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FinalValue(tt.value, tt.discount)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("FinalValue(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestConfirmPaymentAppliesTicketDiscount(t *testing.T) {
	fixture := newPaymentFixture(t)
	discount := fixture.seedDiscount(t, 25)
	ticket := fixture.seedTicket(t, 400, &discount.ID)
	financeiro := operator("f1", domain.RoleFinanceiro)

	payment, err := fixture.service.Confirm(context.Background(), financeiro, ConfirmInput{TicketNumber: ticket.Number})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if payment.FinalValue != 300 {
		t.Fatalf("final value = %v, want 300", payment.FinalValue)
	}
	if payment.OriginalValue != 400 {
		t.Fatalf("original value = %v, want 400", payment.OriginalValue)
	}
	if payment.DiscountApplied != 25 {
		t.Fatalf("discount applied = %d, want 25", payment.DiscountApplied)
	}

	settled, err := fixture.tickets.GetByID(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("reload ticket: %v", err)
	}
	if settled.Payment != domain.PaymentStatusComplete {
		t.Fatalf("ticket payment = %s, want complete", settled.Payment)
	}
}

func TestConfirmPaymentDiscountOverride(t *testing.T) {
	fixture := newPaymentFixture(t)
	original := fixture.seedDiscount(t, 10)
	override := fixture.seedDiscount(t, 50)
	ticket := fixture.seedTicket(t, 100, &original.ID)

	payment, err := fixture.service.Confirm(context.Background(), operator("admin", domain.RoleAdmin), ConfirmInput{
		TicketNumber: ticket.Number,
		DiscountID:   &override.ID,
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if payment.FinalValue != 50 {
		t.Fatalf("final value = %v, want 50", payment.FinalValue)
	}
	if payment.DiscountApplied != 50 {
		t.Fatalf("discount applied = %d, want 50", payment.DiscountApplied)
	}

	settled, err := fixture.tickets.GetByID(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("reload ticket: %v", err)
	}
	if settled.DiscountID == nil || *settled.DiscountID != override.ID {
		t.Fatal("ticket discount not re-referenced to the override")
	}
}

func TestConfirmPaymentValueMismatch(t *testing.T) {
	fixture := newPaymentFixture(t)
	ticket := fixture.seedTicket(t, 100, nil)
	wrong := 42.0

	_, err := fixture.service.Confirm(context.Background(), operator("f1", domain.RoleFinanceiro), ConfirmInput{
		TicketNumber: ticket.Number,
		FinalValue:   &wrong,
	})
	if !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("expected VALIDATION_FAILED, got %v", err)
	}
}

func TestConfirmPaymentIdempotencyGuard(t *testing.T) {
	fixture := newPaymentFixture(t)
	ticket := fixture.seedTicket(t, 100, nil)
	financeiro := operator("f1", domain.RoleFinanceiro)

	if _, err := fixture.service.Confirm(context.Background(), financeiro, ConfirmInput{TicketNumber: ticket.Number}); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	_, err := fixture.service.Confirm(context.Background(), financeiro, ConfirmInput{TicketNumber: ticket.Number})
	if !apperrors.IsCode(err, "CONFLICT") {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestConfirmPaymentRoleGate(t *testing.T) {
	fixture := newPaymentFixture(t)
	ticket := fixture.seedTicket(t, 100, nil)

	_, err := fixture.service.Confirm(context.Background(), operator("u1", domain.RoleUser), ConfirmInput{
		TicketNumber: ticket.Number,
	})
	if !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestConfirmPaymentUnknownTicket(t *testing.T) {
	fixture := newPaymentFixture(t)
	_, err := fixture.service.Confirm(context.Background(), operator("f1", domain.RoleFinanceiro), ConfirmInput{
		TicketNumber: "TK-missing",
	})
	if !apperrors.IsCode(err, "NOT_FOUND") {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestListPendingSettlementComputesFinalValues(t *testing.T) {
	fixture := newPaymentFixture(t)
	thirty := 30
	fixture.tickets.settlementRows = []repository.SettlementRow{
		{TicketNumber: "TK-1", CreatorName: "alice", ServiceValue: 100, DiscountPercent: &thirty},
		{TicketNumber: "TK-2", CreatorName: "bob", ServiceValue: 80},
	}

	items, err := fixture.service.ListPendingSettlement(context.Background(), operator("f1", domain.RoleFinanceiro))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].FinalValue != 70 || items[0].DiscountPercent != 30 {
		t.Fatalf("discounted row = %+v", items[0])
	}
	if items[1].FinalValue != 80 || items[1].DiscountPercent != 0 {
		t.Fatalf("undiscounted row = %+v", items[1])
	}

	if _, err := fixture.service.ListPendingSettlement(context.Background(), operator("u1", domain.RoleUser)); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("expected FORBIDDEN for plain user, got %v", err)
	}
}
