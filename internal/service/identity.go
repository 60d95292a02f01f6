package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/iliyamo/olympic-ticketing/internal/logger"
	"github.com/iliyamo/olympic-ticketing/internal/model"
	"github.com/iliyamo/olympic-ticketing/internal/repository"
	"github.com/iliyamo/olympic-ticketing/internal/utils"
)

// Credentials hashes passwords and issues tokens.
type Credentials interface {
	HashPassword(plain string) (string, error)
	VerifyPassword(hash, plain string) bool
	IssueAccess(userID uint64, role string) (utils.AccessToken, error)
	IssueRefresh() (utils.RefreshToken, error)
}

// JWTCredentials implements Credentials with bcrypt and HS256 JWTs.
type JWTCredentials struct {
	Secret         string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int
}

func (c JWTCredentials) HashPassword(plain string) (string, error) {
	return utils.HashPassword(plain, c.BcryptCost)
}

func (c JWTCredentials) VerifyPassword(hash, plain string) bool {
	return utils.VerifyPassword(hash, plain)
}

func (c JWTCredentials) IssueAccess(userID uint64, role string) (utils.AccessToken, error) {
	return utils.NewAccessToken(c.Secret, userID, role, c.AccessTTLMin)
}

func (c JWTCredentials) IssueRefresh() (utils.RefreshToken, error) {
	return utils.NewRefreshToken(c.RefreshTTLDays)
}

// IdentityService registers users and manages their sessions.
type IdentityService struct {
	users  *repository.UserRepo
	tokens *repository.TokenRepo
	creds  Credentials
	now    func() time.Time
}

func NewIdentityService(users *repository.UserRepo, tokens *repository.TokenRepo, creds Credentials) *IdentityService {
	return &IdentityService{users: users, tokens: tokens, creds: creds, now: time.Now}
}

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// Session is the result of a successful register, login or refresh.
type Session struct {
	User    *model.User
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// Register creates a client account and opens a session for it.
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email := repository.NormalizeEmail(in.Email)
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return nil, &InvalidInputError{Field: "email", Reason: "not a valid address"}
	}
	first, last := strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName)
	if first == "" || last == "" {
		return nil, &InvalidInputError{Field: "name", Reason: "first and last name are required"}
	}
	if err := utils.CheckPasswordPolicy(in.Password); err != nil {
		return nil, &InvalidInputError{Field: "password", Reason: err.Error()}
	}

	hash, err := s.creds.HashPassword(in.Password)
	if err != nil {
		return nil, storage("hash password", err)
	}
	accountKey, err := utils.RandomURLToken(32)
	if err != nil {
		return nil, storage("generate account key", err)
	}
	u := &model.User{
		Email:        email,
		FirstName:    first,
		LastName:     last,
		PasswordHash: hash,
		Role:         model.RoleClient,
		AccountKey:   accountKey,
		IsActive:     true,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, storage("create user", err)
	}
	logger.Infof(ctx, "identity: registered user %d", u.ID)
	return s.open(ctx, u)
}

// Login checks credentials and opens a session.  Unknown email and wrong
// password are indistinguishable to the caller.
func (s *IdentityService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, storage("load user", err)
	}
	if !s.creds.VerifyPassword(u.PasswordHash, password) {
		return nil, ErrUnauthorized
	}
	if !u.IsActive {
		return nil, ErrForbidden
	}
	return s.open(ctx, u)
}

// Refresh exchanges a refresh token for a new pair.  The presented token
// is revoked, so each refresh token works once.
func (s *IdentityService) Refresh(ctx context.Context, raw string) (*Session, error) {
	hash := utils.HashRefreshRaw(strings.TrimSpace(raw))
	userID, err := s.tokens.ValidateRefresh(ctx, hash)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, storage("validate refresh token", err)
	}
	// The conditional revoke is the single-use gate: a concurrent refresh
	// of the same token that already passed validation loses here.
	err = s.tokens.RevokeByHash(ctx, hash)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, storage("revoke refresh token", err)
	}
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, storage("load user", err)
	}
	if !u.IsActive {
		return nil, ErrForbidden
	}
	return s.open(ctx, u)
}

// Logout revokes one refresh token.  Unknown tokens are ignored.
func (s *IdentityService) Logout(ctx context.Context, raw string) error {
	err := s.tokens.RevokeByHash(ctx, utils.HashRefreshRaw(strings.TrimSpace(raw)))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return storage("revoke refresh token", err)
	}
	return nil
}

// LogoutAll revokes every active refresh token of a user.
func (s *IdentityService) LogoutAll(ctx context.Context, userID uint64) error {
	if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
		return storage("revoke refresh tokens", err)
	}
	logger.Infof(ctx, "identity: revoked all sessions of user %d", userID)
	return nil
}

// Me returns the account of an authenticated user.
func (s *IdentityService) Me(ctx context.Context, userID uint64) (*model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("user", userID)
	}
	if err != nil {
		return nil, storage("load user", err)
	}
	return u, nil
}

func (s *IdentityService) open(ctx context.Context, u *model.User) (*Session, error) {
	access, err := s.creds.IssueAccess(u.ID, u.Role)
	if err != nil {
		return nil, storage("issue access token", err)
	}
	refresh, err := s.creds.IssueRefresh()
	if err != nil {
		return nil, storage("issue refresh token", err)
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return nil, storage("store refresh token", err)
	}
	return &Session{User: u, Access: access, Refresh: refresh}, nil
}
