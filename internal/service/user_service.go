package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/stelaryous/ticketflow/internal/auth"
	"github.com/stelaryous/ticketflow/internal/domain"
	"github.com/stelaryous/ticketflow/internal/events"
	"github.com/stelaryous/ticketflow/internal/repository"
	apperrors "github.com/stelaryous/ticketflow/pkg/util"
)

// UserService handles account lifecycle: registration with provisional
// credentials, login, password rotation, deactivation and profiles.
type UserService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	limiter    *auth.LoginLimiter
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// UserDependencies bundles what the user service needs.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	Tokens     *auth.TokenManager
	Limiter    *auth.LoginLimiter
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	BcryptCost int
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{
		users:      deps.UserRepo,
		tokens:     deps.Tokens,
		limiter:    deps.Limiter,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		bcryptCost: deps.BcryptCost,
	}
}

// RegisterInput describes an admin-initiated registration.
type RegisterInput struct {
	Username string
	Email    string
	Role     string
}

// RegisterResult carries the created account and its provisional
// password, which is only surfaced through the notification pipeline.
type RegisterResult struct {
	User              *domain.User
	TemporaryPassword string
}

// Register creates an account with a generated provisional password.
// Admin only. The new account must rotate the password before using
// anything else.
func (s *UserService) Register(ctx context.Context, actor *domain.User, input RegisterInput) (*RegisterResult, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admin required")
	}

	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)
	if username == "" || email == "" {
		return nil, apperrors.NewValidationError("username and email are required", nil)
	}
	role, ok := domain.ParseRole(input.Role)
	if !ok {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": input.Role})
	}

	taken, err := s.users.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if taken {
		return nil, apperrors.NewConflict("username or email already in use", nil)
	}

	tempPassword, err := auth.GenerateTemporaryPassword()
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	hash, err := auth.HashPassword(tempPassword, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Username:            username,
		Email:               email,
		PasswordHash:        hash,
		Role:                role,
		IsTemporaryPassword: true,
		IsActive:            true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.NewConflict("username or email already in use", nil)
		}
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("user registered",
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)),
		zap.String("by", actor.Username))
	s.publishEvent(ctx, actor, events.Event{
		Type: events.EventUserRegistered,
		Payload: events.UserRegisteredPayload{
			UserID:            user.ID,
			Username:          user.Username,
			Email:             user.Email,
			TemporaryPassword: tempPassword,
		},
	})
	return &RegisterResult{User: user, TemporaryPassword: tempPassword}, nil
}

// LoginResult carries the issued token and the flags the client needs
// to route the session.
type LoginResult struct {
	Token               string
	ExpiresAt           time.Time
	User                *domain.User
	IsTemporaryPassword bool
	HasProfile          bool
}

// Login authenticates and issues a JWT. Attempts are rate limited per
// username; the counter resets on success.
func (s *UserService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperrors.NewValidationError("username and password are required", nil)
	}

	allowed, err := s.limiter.Allow(ctx, username)
	if err != nil {
		// throttling store trouble must not lock everyone out
		s.logger.Warn("login limiter unavailable", zap.Error(err))
	}
	if !allowed {
		return nil, apperrors.NewDomainError("RATE_LIMITED", "too many login attempts, try again later",
			http.StatusTooManyRequests, nil)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if !user.IsActive {
		return nil, apperrors.NewForbidden("user inactive")
	}

	token, expiresAt, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.limiter.Reset(ctx, username)
	s.logger.Info("user logged in", zap.String("username", user.Username))
	return &LoginResult{
		Token:               token,
		ExpiresAt:           expiresAt,
		User:                user,
		IsTemporaryPassword: user.IsTemporaryPassword,
		HasProfile:          user.ProfileID != nil,
	}, nil
}

// ChangePassword rotates the caller's password and clears the
// provisional flag. This is the one mutation accounts on a temporary
// password are allowed.
func (s *UserService) ChangePassword(ctx context.Context, actor *domain.User, current, next string) error {
	if len(next) < 6 {
		return apperrors.NewValidationError("new password must have at least 6 characters", nil)
	}
	if err := auth.ComparePassword(actor.PasswordHash, current); err != nil {
		return apperrors.NewUnauthorized("current password is incorrect")
	}

	hash, err := auth.HashPassword(next, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	actor.PasswordHash = hash
	actor.IsTemporaryPassword = false

	if err := s.users.Update(ctx, actor); err != nil {
		return apperrors.MapError(err)
	}
	s.logger.Info("password changed", zap.String("username", actor.Username))
	return nil
}

// Deactivate disables an account. Admin only; self-deactivation is
// rejected so the shop can never lose its last administrator by
// accident.
func (s *UserService) Deactivate(ctx context.Context, actor *domain.User, userID string) error {
	if actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("admin required")
	}
	if actor.ID == userID {
		return apperrors.NewValidationError("cannot deactivate your own account", nil)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"id": userID})
		}
		return apperrors.MapError(err)
	}

	user.IsActive = false
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.MapError(err)
	}
	s.logger.Info("user deactivated", zap.String("username", user.Username), zap.String("by", actor.Username))
	return nil
}

// ListActive returns active accounts, e.g. as transfer targets.
func (s *UserService) ListActive(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.ListActive(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// ProfileInput describes profile completion payload.
type ProfileInput struct {
	FullName  string
	Nickname  string
	BirthDate string
	PixKey    string
	Whatsapp  string
	Email     string
}

// RegisterProfile completes the caller's operator profile. One profile
// per account; a second attempt conflicts.
func (s *UserService) RegisterProfile(ctx context.Context, actor *domain.User, input ProfileInput) (*domain.Profile, error) {
	if actor.ProfileID != nil {
		return nil, apperrors.NewConflict("profile already registered", nil)
	}
	if strings.TrimSpace(input.FullName) == "" || strings.TrimSpace(input.PixKey) == "" {
		return nil, apperrors.NewValidationError("full name and pix key are required", nil)
	}
	birthDate, err := parseDate(input.BirthDate)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid birth date", map[string]any{"birth_date": input.BirthDate})
	}
	if birthDate.After(time.Now()) {
		return nil, apperrors.NewValidationError("birth date cannot be in the future", nil)
	}

	profile := &domain.Profile{
		UserID:    actor.ID,
		FullName:  strings.TrimSpace(input.FullName),
		Nickname:  strings.TrimSpace(input.Nickname),
		BirthDate: birthDate,
		PixKey:    strings.TrimSpace(input.PixKey),
		Whatsapp:  strings.TrimSpace(input.Whatsapp),
		Email:     strings.TrimSpace(input.Email),
	}
	if err := s.users.CreateProfile(ctx, profile); err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.NewConflict("profile already registered", nil)
		}
		return nil, apperrors.MapError(err)
	}
	actor.ProfileID = &profile.ID

	s.logger.Info("profile registered", zap.String("username", actor.Username))
	return profile, nil
}

// GetProfile fetches a profile: your own, or anyone's if admin.
func (s *UserService) GetProfile(ctx context.Context, actor *domain.User, userID string) (*domain.Profile, error) {
	if userID == "" {
		userID = actor.ID
	}
	if userID != actor.ID && actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("access denied")
	}

	profile, err := s.users.GetProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("profile", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	return profile, nil
}

func (s *UserService) publishEvent(ctx context.Context, actor *domain.User, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now()
	event.Actor = events.Actor{UserID: actor.ID, Username: actor.Username, Role: actor.Role}
	_ = s.dispatcher.Publish(ctx, event)
}
