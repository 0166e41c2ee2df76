package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/stelaryous/ticketflow/internal/auth"
	"github.com/stelaryous/ticketflow/internal/domain"
	"github.com/stelaryous/ticketflow/internal/events"
	apperrors "github.com/stelaryous/ticketflow/pkg/util"
)

const testBcryptCost = 4

type userFixture struct {
	service    *UserService
	users      *fakeUserRepo
	dispatcher events.Dispatcher
	captured   []events.Event
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	users := newFakeUserRepo()
	dispatcher := events.NewInMemoryDispatcher()

	fixture := &userFixture{users: users, dispatcher: dispatcher}
	dispatcher.Subscribe(events.EventUserRegistered, func(_ context.Context, event events.Event) error {
		fixture.captured = append(fixture.captured, event)
		return nil
	})

	fixture.service = NewUserService(UserDependencies{
		UserRepo:   users,
		Tokens:     auth.NewTokenManager("test-secret", 60),
		Limiter:    auth.NewLoginLimiter(nil, 5, time.Minute),
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
		BcryptCost: testBcryptCost,
	})
	return fixture
}

func TestRegisterIssuesTemporaryCredential(t *testing.T) {
	fixture := newUserFixture(t)
	admin := operator("a1", domain.RoleAdmin)

	result, err := fixture.service.Register(context.Background(), admin, RegisterInput{
		Username: "newbie",
		Email:    "newbie@example.com",
		Role:     "user",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !result.User.IsTemporaryPassword {
		t.Fatal("new account must carry the temporary flag")
	}
	if result.TemporaryPassword == "" {
		t.Fatal("no provisional password generated")
	}
	if err := auth.ComparePassword(result.User.PasswordHash, result.TemporaryPassword); err != nil {
		t.Fatalf("provisional password does not match hash: %v", err)
	}
	if len(fixture.captured) != 1 {
		t.Fatalf("expected 1 user_registered event, got %d", len(fixture.captured))
	}
	payload, ok := fixture.captured[0].Payload.(events.UserRegisteredPayload)
	if !ok || payload.TemporaryPassword != result.TemporaryPassword {
		t.Fatalf("event payload = %+v", fixture.captured[0].Payload)
	}
}

func TestRegisterGuards(t *testing.T) {
	fixture := newUserFixture(t)
	admin := operator("a1", domain.RoleAdmin)

	if _, err := fixture.service.Register(context.Background(), operator("u1", domain.RoleUser), RegisterInput{
		Username: "x", Email: "x@example.com", Role: "user",
	}); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("expected FORBIDDEN for non-admin, got %v", err)
	}

	if _, err := fixture.service.Register(context.Background(), admin, RegisterInput{
		Username: "x", Email: "x@example.com", Role: "superuser",
	}); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("expected VALIDATION_FAILED for bad role, got %v", err)
	}

	if _, err := fixture.service.Register(context.Background(), admin, RegisterInput{
		Username: "dup", Email: "dup@example.com", Role: "user",
	}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := fixture.service.Register(context.Background(), admin, RegisterInput{
		Username: "dup", Email: "other@example.com", Role: "user",
	}); !apperrors.IsCode(err, "CONFLICT") {
		t.Fatalf("expected CONFLICT for duplicate username, got %v", err)
	}
}

func TestLoginFlow(t *testing.T) {
	fixture := newUserFixture(t)
	admin := operator("a1", domain.RoleAdmin)

	result, err := fixture.service.Register(context.Background(), admin, RegisterInput{
		Username: "worker",
		Email:    "worker@example.com",
		Role:     "financeiro",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	login, err := fixture.service.Login(context.Background(), "worker", result.TemporaryPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.Token == "" {
		t.Fatal("no token issued")
	}
	if !login.IsTemporaryPassword {
		t.Fatal("temporary flag not surfaced")
	}

	if _, err := fixture.service.Login(context.Background(), "worker", "wrong"); !apperrors.IsCode(err, "UNAUTHORIZED") {
		t.Fatalf("expected UNAUTHORIZED for wrong password, got %v", err)
	}
	if _, err := fixture.service.Login(context.Background(), "ghost", "whatever"); !apperrors.IsCode(err, "UNAUTHORIZED") {
		t.Fatalf("expected UNAUTHORIZED for unknown user, got %v", err)
	}
}

func TestLoginRejectsInactive(t *testing.T) {
	fixture := newUserFixture(t)
	admin := operator("a1", domain.RoleAdmin)

	result, err := fixture.service.Register(context.Background(), admin, RegisterInput{
		Username: "leaver", Email: "leaver@example.com", Role: "user",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	result.User.IsActive = false
	if err := fixture.users.Update(context.Background(), result.User); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	if _, err := fixture.service.Login(context.Background(), "leaver", result.TemporaryPassword); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestChangePasswordClearsTemporaryFlag(t *testing.T) {
	fixture := newUserFixture(t)
	admin := operator("a1", domain.RoleAdmin)

	result, err := fixture.service.Register(context.Background(), admin, RegisterInput{
		Username: "rotator", Email: "rotator@example.com", Role: "user",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := fixture.service.ChangePassword(context.Background(), result.User, "wrong", "longenough"); !apperrors.IsCode(err, "UNAUTHORIZED") {
		t.Fatalf("expected UNAUTHORIZED for wrong current password, got %v", err)
	}
	if err := fixture.service.ChangePassword(context.Background(), result.User, result.TemporaryPassword, "short"); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("expected VALIDATION_FAILED for short password, got %v", err)
	}

	if err := fixture.service.ChangePassword(context.Background(), result.User, result.TemporaryPassword, "longenough"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	stored, err := fixture.users.GetByID(context.Background(), result.User.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.IsTemporaryPassword {
		t.Fatal("temporary flag not cleared")
	}
	if _, err := fixture.service.Login(context.Background(), "rotator", "longenough"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestDeactivateGuards(t *testing.T) {
	fixture := newUserFixture(t)
	admin := &domain.User{Username: "boss", Email: "boss@example.com", Role: domain.RoleAdmin, IsActive: true}
	if err := fixture.users.Create(context.Background(), admin); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	if err := fixture.service.Deactivate(context.Background(), admin, admin.ID); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("expected VALIDATION_FAILED for self-deactivation, got %v", err)
	}
	if err := fixture.service.Deactivate(context.Background(), operator("u1", domain.RoleUser), admin.ID); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("expected FORBIDDEN for non-admin, got %v", err)
	}
	if err := fixture.service.Deactivate(context.Background(), admin, "missing"); !apperrors.IsCode(err, "NOT_FOUND") {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestRegisterProfile(t *testing.T) {
	fixture := newUserFixture(t)
	user := &domain.User{Username: "worker", Email: "worker@example.com", Role: domain.RoleUser, IsActive: true}
	if err := fixture.users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	input := ProfileInput{
		FullName:  "Worker Person",
		Nickname:  "worker",
		BirthDate: "1995-04-12",
		PixKey:    "worker@pix",
		Whatsapp:  "+5511999999999",
		Email:     "worker@example.com",
	}
	profile, err := fixture.service.RegisterProfile(context.Background(), user, input)
	if err != nil {
		t.Fatalf("register profile: %v", err)
	}
	if profile.ID == "" {
		t.Fatal("profile id not assigned")
	}
	if user.ProfileID == nil {
		t.Fatal("user not linked to profile")
	}

	if _, err := fixture.service.RegisterProfile(context.Background(), user, input); !apperrors.IsCode(err, "CONFLICT") {
		t.Fatalf("expected CONFLICT on second profile, got %v", err)
	}
}

func TestRegisterProfileValidation(t *testing.T) {
	fixture := newUserFixture(t)
	user := &domain.User{Username: "worker", Email: "worker@example.com", Role: domain.RoleUser, IsActive: true}
	if err := fixture.users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	if _, err := fixture.service.RegisterProfile(context.Background(), user, ProfileInput{
		FullName: "", PixKey: "k", BirthDate: "1995-04-12",
	}); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("expected VALIDATION_FAILED for missing name, got %v", err)
	}
	if _, err := fixture.service.RegisterProfile(context.Background(), user, ProfileInput{
		FullName: "W", PixKey: "k", BirthDate: "not-a-date",
	}); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("expected VALIDATION_FAILED for bad date, got %v", err)
	}
	if _, err := fixture.service.RegisterProfile(context.Background(), user, ProfileInput{
		FullName: "W", PixKey: "k", BirthDate: "2999-01-01",
	}); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("expected VALIDATION_FAILED for future birth date, got %v", err)
	}
}

func TestGetProfileAccess(t *testing.T) {
	fixture := newUserFixture(t)
	owner := &domain.User{Username: "owner", Email: "owner@example.com", Role: domain.RoleUser, IsActive: true}
	if err := fixture.users.Create(context.Background(), owner); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if _, err := fixture.service.RegisterProfile(context.Background(), owner, ProfileInput{
		FullName: "Owner", PixKey: "owner@pix", BirthDate: "1990-01-01",
	}); err != nil {
		t.Fatalf("register profile: %v", err)
	}

	if _, err := fixture.service.GetProfile(context.Background(), owner, ""); err != nil {
		t.Fatalf("own profile: %v", err)
	}
	if _, err := fixture.service.GetProfile(context.Background(), operator("a1", domain.RoleAdmin), owner.ID); err != nil {
		t.Fatalf("admin read: %v", err)
	}
	if _, err := fixture.service.GetProfile(context.Background(), operator("u2", domain.RoleUser), owner.ID); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("expected FORBIDDEN for stranger, got %v", err)
	}
}
