package service

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/stelaryous/ticketflow/internal/domain"
	"github.com/stelaryous/ticketflow/internal/events"
	apperrors "github.com/stelaryous/ticketflow/pkg/util"
)

type ticketServiceFixture struct {
	service   *TicketService
	tickets   *fakeTicketRepo
	catalog   *fakeCatalogRepo
	discounts *fakeDiscountRepo
	store     *fakeObjectStore
}

func newTicketFixture(t *testing.T) *ticketServiceFixture {
	t.Helper()
	tickets := newFakeTicketRepo()
	catalog := newFakeCatalogRepo()
	discounts := newFakeDiscountRepo()
	store := newFakeObjectStore()

	svc := NewTicketService(TicketDependencies{
		TicketRepo:     tickets,
		CatalogRepo:    catalog,
		DiscountRepo:   discounts,
		Store:          store,
		Dispatcher:     events.NewInMemoryDispatcher(),
		Logger:         zap.NewNop(),
		ProofNamespace: "proofs",
	})
	return &ticketServiceFixture{
		service:   svc,
		tickets:   tickets,
		catalog:   catalog,
		discounts: discounts,
		store:     store,
	}
}

func (f *ticketServiceFixture) addService(t *testing.T, dueDays int, value float64) *domain.Service {
	t.Helper()
	svc := &domain.Service{Name: "design", DueDays: dueDays, Value: value, CategoryID: "category-1"}
	if err := f.catalog.CreateService(context.Background(), svc); err != nil {
		t.Fatalf("seed service: %v", err)
	}
	return svc
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func operator(id string, role domain.Role) *domain.User {
	return &domain.User{ID: id, Username: "op-" + id, Role: role, IsActive: true}
}

func TestCreateTicketDerivesEndDate(t *testing.T) {
	fixture := newTicketFixture(t)
	svc := fixture.addService(t, 7, 100)

	ticket, err := fixture.service.Create(context.Background(), operator("u1", domain.RoleUser), TicketCreateInput{
		Number:    "TK-100",
		ServiceID: svc.ID,
		Client:    "Acme",
		Email:     "acme@example.com",
		StartDate: "2026-03-01",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	wantEnd := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	if !ticket.EndDate.Equal(wantEnd) {
		t.Fatalf("end date = %v, want %v", ticket.EndDate, wantEnd)
	}
	if ticket.Status != domain.TicketStatusInProgress {
		t.Fatalf("status = %s, want in_progress", ticket.Status)
	}
	if ticket.Payment != domain.PaymentStatusPending {
		t.Fatalf("payment = %s, want pending", ticket.Payment)
	}
}

func TestCreateTicketDuplicateNumber(t *testing.T) {
	fixture := newTicketFixture(t)
	svc := fixture.addService(t, 3, 50)
	actor := operator("u1", domain.RoleUser)

	input := TicketCreateInput{
		Number:    "TK-1",
		ServiceID: svc.ID,
		Client:    "Acme",
		Email:     "acme@example.com",
		StartDate: "2026-01-10",
	}
	if _, err := fixture.service.Create(context.Background(), actor, input); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := fixture.service.Create(context.Background(), actor, input)
	if !apperrors.IsCode(err, "CONFLICT") {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestCreateTicketUnknownService(t *testing.T) {
	fixture := newTicketFixture(t)
	_, err := fixture.service.Create(context.Background(), operator("u1", domain.RoleUser), TicketCreateInput{
		Number:    "TK-2",
		ServiceID: "missing",
		Client:    "Acme",
		Email:     "acme@example.com",
		StartDate: "2026-01-10",
	})
	if !apperrors.IsCode(err, "NOT_FOUND") {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestCreateTicketInvalidStartDate(t *testing.T) {
	fixture := newTicketFixture(t)
	svc := fixture.addService(t, 3, 50)
	_, err := fixture.service.Create(context.Background(), operator("u1", domain.RoleUser), TicketCreateInput{
		Number:    "TK-3",
		ServiceID: svc.ID,
		Client:    "Acme",
		Email:     "acme@example.com",
		StartDate: "not-a-date",
	})
	if !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("expected VALIDATION_FAILED, got %v", err)
	}
}

func TestCreateTicketStoresProofUnderCreatorKey(t *testing.T) {
	fixture := newTicketFixture(t)
	svc := fixture.addService(t, 3, 50)
	actor := operator("u1", domain.RoleUser)

	ticket, err := fixture.service.Create(context.Background(), actor, TicketCreateInput{
		Number:    "TK-4",
		ServiceID: svc.ID,
		Client:    "Acme",
		Email:     "acme@example.com",
		StartDate: "2026-01-10",
		Proof:     pngBytes(t),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ticket.ProofKey == nil {
		t.Fatal("proof key not set")
	}
	wantKey := "proofs/" + actor.Username + "/TK-4.png"
	if *ticket.ProofKey != wantKey {
		t.Fatalf("proof key = %s, want %s", *ticket.ProofKey, wantKey)
	}
	if _, contentType, err := fixture.store.Get(context.Background(), wantKey); err != nil || contentType != "image/png" {
		t.Fatalf("stored proof type = %s, err = %v", contentType, err)
	}
}

func TestCreateTicketRejectsUnreadableProof(t *testing.T) {
	fixture := newTicketFixture(t)
	svc := fixture.addService(t, 3, 50)
	_, err := fixture.service.Create(context.Background(), operator("u1", domain.RoleUser), TicketCreateInput{
		Number:    "TK-5",
		ServiceID: svc.ID,
		Client:    "Acme",
		Email:     "acme@example.com",
		StartDate: "2026-01-10",
		Proof:     []byte("definitely not an image"),
	})
	if !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("expected VALIDATION_FAILED, got %v", err)
	}
}

func TestUpdateTicketRejectsLegacyStatus(t *testing.T) {
	fixture := newTicketFixture(t)
	svc := fixture.addService(t, 3, 50)
	actor := operator("u1", domain.RoleUser)
	ticket, err := fixture.service.Create(context.Background(), actor, TicketCreateInput{
		Number: "TK-6", ServiceID: svc.ID, Client: "Acme", Email: "a@b.c", StartDate: "2026-01-10",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	legacy := domain.TicketStatus("pendente")
	_, err = fixture.service.Update(context.Background(), actor, ticket.ID, TicketUpdateInput{Status: &legacy})
	if !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("expected VALIDATION_FAILED for legacy status, got %v", err)
	}
}

func TestUpdateTicketPaymentRoleGate(t *testing.T) {
	fixture := newTicketFixture(t)
	svc := fixture.addService(t, 3, 50)
	creator := operator("u1", domain.RoleUser)
	ticket, err := fixture.service.Create(context.Background(), creator, TicketCreateInput{
		Number: "TK-7", ServiceID: svc.ID, Client: "Acme", Email: "a@b.c", StartDate: "2026-01-10",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	complete := domain.PaymentStatusComplete
	_, err = fixture.service.Update(context.Background(), creator, ticket.ID, TicketUpdateInput{Payment: &complete})
	if !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("expected FORBIDDEN for plain user, got %v", err)
	}

	updated, err := fixture.service.Update(context.Background(), operator("f1", domain.RoleFinanceiro), ticket.ID,
		TicketUpdateInput{Payment: &complete})
	if err != nil {
		t.Fatalf("financeiro update: %v", err)
	}
	if updated.Payment != domain.PaymentStatusComplete {
		t.Fatalf("payment = %s, want complete", updated.Payment)
	}
}

func TestUpdateTicketStatusAnyRole(t *testing.T) {
	fixture := newTicketFixture(t)
	svc := fixture.addService(t, 3, 50)
	creator := operator("u1", domain.RoleUser)
	ticket, err := fixture.service.Create(context.Background(), creator, TicketCreateInput{
		Number: "TK-8", ServiceID: svc.ID, Client: "Acme", Email: "a@b.c", StartDate: "2026-01-10",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	finalized := domain.TicketStatusFinalized
	updated, err := fixture.service.Update(context.Background(), creator, ticket.ID, TicketUpdateInput{Status: &finalized})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != domain.TicketStatusFinalized {
		t.Fatalf("status = %s, want finalized", updated.Status)
	}
}

func TestHideTicketCreatorOrAdminOnly(t *testing.T) {
	fixture := newTicketFixture(t)
	svc := fixture.addService(t, 3, 50)
	creator := operator("u1", domain.RoleUser)
	ticket, err := fixture.service.Create(context.Background(), creator, TicketCreateInput{
		Number: "TK-9", ServiceID: svc.ID, Client: "Acme", Email: "a@b.c", StartDate: "2026-01-10",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := fixture.service.Hide(context.Background(), operator("u2", domain.RoleUser), ticket.ID); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("expected FORBIDDEN for stranger, got %v", err)
	}
	if err := fixture.service.Hide(context.Background(), creator, ticket.ID); err != nil {
		t.Fatalf("creator hide: %v", err)
	}

	listed, err := fixture.service.List(context.Background(), creator)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("hidden ticket still listed: %d items", len(listed))
	}

	// hidden tickets stay reachable by id
	got, err := fixture.service.Get(context.Background(), operator("admin", domain.RoleAdmin), ticket.ID)
	if err != nil {
		t.Fatalf("get hidden: %v", err)
	}
	if !got.IsHidden {
		t.Fatal("ticket not marked hidden")
	}
}

func TestListTicketsRoleScoped(t *testing.T) {
	fixture := newTicketFixture(t)
	svc := fixture.addService(t, 3, 50)
	alice := operator("alice", domain.RoleUser)
	bob := operator("bob", domain.RoleUser)

	for i, actor := range []*domain.User{alice, alice, bob} {
		_, err := fixture.service.Create(context.Background(), actor, TicketCreateInput{
			Number:    "TK-1" + string(rune('0'+i)),
			ServiceID: svc.ID,
			Client:    "Acme",
			Email:     "a@b.c",
			StartDate: "2026-01-10",
		})
		if err != nil {
			t.Fatalf("seed ticket: %v", err)
		}
	}

	own, err := fixture.service.List(context.Background(), alice)
	if err != nil {
		t.Fatalf("list as user: %v", err)
	}
	if len(own) != 2 {
		t.Fatalf("user sees %d tickets, want 2", len(own))
	}

	all, err := fixture.service.List(context.Background(), operator("f1", domain.RoleFinanceiro))
	if err != nil {
		t.Fatalf("list as financeiro: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("financeiro sees %d tickets, want 3", len(all))
	}
}

func TestProofAccessControl(t *testing.T) {
	fixture := newTicketFixture(t)
	svc := fixture.addService(t, 3, 50)
	creator := operator("u1", domain.RoleUser)

	ticket, err := fixture.service.Create(context.Background(), creator, TicketCreateInput{
		Number:    "TK-20",
		ServiceID: svc.ID,
		Client:    "Acme",
		Email:     "a@b.c",
		StartDate: "2026-01-10",
		Proof:     pngBytes(t),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	key := *ticket.ProofKey

	if _, _, err := fixture.service.GetProof(context.Background(), creator, key); err != nil {
		t.Fatalf("creator get proof: %v", err)
	}
	if _, _, err := fixture.service.GetProof(context.Background(), operator("admin", domain.RoleAdmin), key); err != nil {
		t.Fatalf("admin get proof: %v", err)
	}
	if _, _, err := fixture.service.GetProof(context.Background(), operator("u2", domain.RoleUser), key); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("expected FORBIDDEN for stranger, got %v", err)
	}

	url, err := fixture.service.ProofURL(context.Background(), creator, key)
	if err != nil || url == "" {
		t.Fatalf("proof url = %q, err = %v", url, err)
	}
}
