package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/stelaryous/ticketflow/internal/domain"
	"github.com/stelaryous/ticketflow/internal/repository"
)

// In-memory repository fakes backing the service tests.

type fakeUserRepo struct {
	users    map[string]*domain.User
	profiles map[string]*domain.Profile
	seq      int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:    make(map[string]*domain.User),
		profiles: make(map[string]*domain.Profile),
	}
}

func (r *fakeUserRepo) nextID(prefix string) string {
	r.seq++
	return fmt.Sprintf("%s-%d", prefix, r.seq)
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	for _, existing := range r.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return fmt.Errorf("duplicate user")
		}
	}
	user.ID = r.nextID("user")
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	for _, user := range r.users {
		if user.Username == username || user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) ListActive(_ context.Context) ([]domain.User, error) {
	var result []domain.User
	for _, user := range r.users {
		if user.IsActive {
			result = append(result, *user)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	return result, nil
}

func (r *fakeUserRepo) Count(_ context.Context) (int, error) {
	return len(r.users), nil
}

func (r *fakeUserRepo) CreateProfile(_ context.Context, profile *domain.Profile) error {
	if _, ok := r.profiles[profile.UserID]; ok {
		return fmt.Errorf("duplicate profile")
	}
	profile.ID = r.nextID("profile")
	profile.CreatedAt = time.Now()
	copied := *profile
	r.profiles[profile.UserID] = &copied
	if user, ok := r.users[profile.UserID]; ok {
		user.ProfileID = &profile.ID
	}
	return nil
}

func (r *fakeUserRepo) GetProfileByUserID(_ context.Context, userID string) (*domain.Profile, error) {
	profile, ok := r.profiles[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *profile
	return &copied, nil
}

type fakeTicketRepo struct {
	tickets        map[string]*domain.Ticket
	settlementRows []repository.SettlementRow
	seq            int
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]*domain.Ticket)}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	for _, existing := range r.tickets {
		if existing.Number == ticket.Number {
			return fmt.Errorf("duplicate ticket number")
		}
	}
	r.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", r.seq)
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *fakeTicketRepo) GetByNumber(_ context.Context, number string) (*domain.Ticket, error) {
	for _, ticket := range r.tickets {
		if ticket.Number == number {
			copied := *ticket
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) GetByProofKey(_ context.Context, key string) (*domain.Ticket, error) {
	for _, ticket := range r.tickets {
		if ticket.ProofKey != nil && *ticket.ProofKey == key {
			copied := *ticket
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) ExistsByNumber(_ context.Context, number string) (bool, error) {
	for _, ticket := range r.tickets {
		if ticket.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func matchesFilter(ticket *domain.Ticket, filter repository.TicketFilter) bool {
	if !filter.IncludeHidden && ticket.IsHidden {
		return false
	}
	if filter.CreatedBy != nil && ticket.CreatedBy != *filter.CreatedBy {
		return false
	}
	if filter.Status != nil && ticket.Status != *filter.Status {
		return false
	}
	if filter.StatusNot != nil && ticket.Status == *filter.StatusNot {
		return false
	}
	if filter.Payment != nil && ticket.Payment != *filter.Payment {
		return false
	}
	if filter.EndBefore != nil && !ticket.EndDate.Before(*filter.EndBefore) {
		return false
	}
	if filter.EndAfter != nil && !ticket.EndDate.After(*filter.EndAfter) {
		return false
	}
	if filter.EndFrom != nil && ticket.EndDate.Before(*filter.EndFrom) {
		return false
	}
	if filter.EndTo != nil && ticket.EndDate.After(*filter.EndTo) {
		return false
	}
	return true
}

func (r *fakeTicketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if matchesFilter(ticket, filter) {
			result = append(result, *ticket)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result, nil
}

func (r *fakeTicketRepo) Count(_ context.Context, filter repository.TicketFilter) (int, error) {
	count := 0
	for _, ticket := range r.tickets {
		if matchesFilter(ticket, filter) {
			count++
		}
	}
	return count, nil
}

func (r *fakeTicketRepo) MonthlyCounts(_ context.Context, createdBy *string) ([12]int, error) {
	var counts [12]int
	for _, ticket := range r.tickets {
		if createdBy != nil && ticket.CreatedBy != *createdBy {
			continue
		}
		counts[int(ticket.CreatedAt.Month())-1]++
	}
	return counts, nil
}

func (r *fakeTicketRepo) CountByCreator(_ context.Context) ([]repository.CreatorCount, error) {
	byCreator := make(map[string]int)
	for _, ticket := range r.tickets {
		byCreator[ticket.CreatedBy]++
	}
	var result []repository.CreatorCount
	for creator, count := range byCreator {
		result = append(result, repository.CreatorCount{Username: creator, Count: count})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Count > result[j].Count })
	return result, nil
}

func (r *fakeTicketRepo) ListPendingSettlement(_ context.Context) ([]repository.SettlementRow, error) {
	return r.settlementRows, nil
}

type fakeCatalogRepo struct {
	categories map[string]*domain.Category
	services   map[string]*domain.Service
	seq        int
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		categories: make(map[string]*domain.Category),
		services:   make(map[string]*domain.Service),
	}
}

func (r *fakeCatalogRepo) CreateCategory(_ context.Context, category *domain.Category) error {
	for _, existing := range r.categories {
		if existing.Name == category.Name {
			return fmt.Errorf("duplicate category")
		}
	}
	r.seq++
	category.ID = fmt.Sprintf("category-%d", r.seq)
	category.CreatedAt = time.Now()
	copied := *category
	r.categories[category.ID] = &copied
	return nil
}

func (r *fakeCatalogRepo) GetCategoryByID(_ context.Context, id string) (*domain.Category, error) {
	category, ok := r.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *category
	return &copied, nil
}

func (r *fakeCatalogRepo) GetCategoryByName(_ context.Context, name string) (*domain.Category, error) {
	for _, category := range r.categories {
		if strings.EqualFold(category.Name, name) {
			copied := *category
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeCatalogRepo) ListCategories(_ context.Context) ([]domain.Category, error) {
	var result []domain.Category
	for _, category := range r.categories {
		result = append(result, *category)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *fakeCatalogRepo) CreateService(_ context.Context, service *domain.Service) error {
	r.seq++
	service.ID = fmt.Sprintf("service-%d", r.seq)
	service.CreatedAt = time.Now()
	copied := *service
	r.services[service.ID] = &copied
	return nil
}

func (r *fakeCatalogRepo) UpdateService(_ context.Context, service *domain.Service) error {
	if _, ok := r.services[service.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *service
	r.services[service.ID] = &copied
	return nil
}

func (r *fakeCatalogRepo) GetServiceByID(_ context.Context, id string) (*domain.Service, error) {
	service, ok := r.services[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *service
	return &copied, nil
}

func (r *fakeCatalogRepo) ListServices(_ context.Context, includeHidden bool) ([]domain.Service, error) {
	var result []domain.Service
	for _, service := range r.services {
		if !includeHidden && service.IsHidden {
			continue
		}
		result = append(result, *service)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

type fakeDiscountRepo struct {
	discounts map[string]*domain.Discount
	seq       int
}

func newFakeDiscountRepo() *fakeDiscountRepo {
	return &fakeDiscountRepo{discounts: make(map[string]*domain.Discount)}
}

func (r *fakeDiscountRepo) Create(_ context.Context, discount *domain.Discount) error {
	r.seq++
	discount.ID = fmt.Sprintf("discount-%d", r.seq)
	discount.CreatedAt = time.Now()
	copied := *discount
	r.discounts[discount.ID] = &copied
	return nil
}

func (r *fakeDiscountRepo) Update(_ context.Context, discount *domain.Discount) error {
	if _, ok := r.discounts[discount.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *discount
	r.discounts[discount.ID] = &copied
	return nil
}

func (r *fakeDiscountRepo) GetByID(_ context.Context, id string) (*domain.Discount, error) {
	discount, ok := r.discounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *discount
	return &copied, nil
}

func (r *fakeDiscountRepo) List(_ context.Context) ([]domain.Discount, error) {
	var result []domain.Discount
	for _, discount := range r.discounts {
		result = append(result, *discount)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Cargo < result[j].Cargo })
	return result, nil
}

type fakeTransferRepo struct {
	transfers map[string]*domain.TransferRequest
	tickets   *fakeTicketRepo
	seq       int
}

func newFakeTransferRepo(tickets *fakeTicketRepo) *fakeTransferRepo {
	return &fakeTransferRepo{
		transfers: make(map[string]*domain.TransferRequest),
		tickets:   tickets,
	}
}

func (r *fakeTransferRepo) Create(_ context.Context, transfer *domain.TransferRequest) error {
	for _, existing := range r.transfers {
		if existing.TicketID == transfer.TicketID && existing.Status == domain.TransferStatusPending {
			return fmt.Errorf("pending transfer exists")
		}
	}
	r.seq++
	transfer.ID = fmt.Sprintf("transfer-%d", r.seq)
	transfer.CreatedAt = time.Now()
	transfer.UpdatedAt = transfer.CreatedAt
	copied := *transfer
	r.transfers[transfer.ID] = &copied
	return nil
}

func (r *fakeTransferRepo) GetByID(_ context.Context, id string) (*domain.TransferRequest, error) {
	transfer, ok := r.transfers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *transfer
	return &copied, nil
}

func (r *fakeTransferRepo) HasPendingForTicket(_ context.Context, ticketID string) (bool, error) {
	for _, transfer := range r.transfers {
		if transfer.TicketID == ticketID && transfer.Status == domain.TransferStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTransferRepo) List(_ context.Context, participantID *string) ([]domain.TransferRequest, error) {
	var result []domain.TransferRequest
	for _, transfer := range r.transfers {
		if participantID != nil {
			involved := transfer.RequestedBy == *participantID ||
				(transfer.TransferTo != nil && *transfer.TransferTo == *participantID)
			if !involved {
				continue
			}
		}
		result = append(result, *transfer)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *fakeTransferRepo) Resolve(ctx context.Context, transfer *domain.TransferRequest) error {
	stored, ok := r.transfers[transfer.ID]
	if !ok || stored.Status != domain.TransferStatusPending {
		return pgx.ErrNoRows
	}
	copied := *transfer
	r.transfers[transfer.ID] = &copied

	if transfer.Status == domain.TransferStatusApproved && transfer.TransferTo != nil {
		if ticket, ok := r.tickets.tickets[transfer.TicketID]; ok {
			ticket.CreatedBy = *transfer.TransferTo
		}
	}
	return nil
}

type fakePaymentRepo struct {
	payments []domain.Payment
	tickets  *fakeTicketRepo
	seq      int
}

func newFakePaymentRepo(tickets *fakeTicketRepo) *fakePaymentRepo {
	return &fakePaymentRepo{tickets: tickets}
}

func (r *fakePaymentRepo) Confirm(_ context.Context, payment *domain.Payment, ticketDiscountID *string) error {
	r.seq++
	payment.ID = fmt.Sprintf("payment-%d", r.seq)
	payment.ConfirmedAt = time.Now()
	r.payments = append(r.payments, *payment)

	if ticket, ok := r.tickets.tickets[payment.TicketID]; ok {
		ticket.Payment = domain.PaymentStatusComplete
		if ticketDiscountID != nil {
			ticket.DiscountID = ticketDiscountID
		}
	}
	return nil
}

func (r *fakePaymentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Payment, error) {
	var result []domain.Payment
	for _, payment := range r.payments {
		if payment.TicketID == ticketID {
			result = append(result, payment)
		}
	}
	return result, nil
}

type fakeObjectStore struct {
	objects map[string][]byte
	types   map[string]string
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (s *fakeObjectStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	s.objects[key] = data
	s.types[key] = contentType
	return nil
}

func (s *fakeObjectStore) Get(_ context.Context, key string) ([]byte, string, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, "", fmt.Errorf("object %s not found", key)
	}
	return data, s.types[key], nil
}

func (s *fakeObjectStore) PresignedURL(_ context.Context, key string) (string, error) {
	if _, ok := s.objects[key]; !ok {
		return "", fmt.Errorf("object %s not found", key)
	}
	return "https://storage.local/" + key, nil
}
