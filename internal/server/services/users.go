// Package services contains server-side business logic: accounts and login,
// job postings, applications and resume uploads.
package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/appli/internal/common"
	"github.com/dmitrijs2005/appli/internal/logging"
	"github.com/dmitrijs2005/appli/internal/server/auth"
	"github.com/dmitrijs2005/appli/internal/server/models"
	"github.com/dmitrijs2005/appli/internal/server/repositories/repomanager"
	"github.com/samber/oops"
)

// LoginResult is a freshly issued access token and the account it belongs to.
type LoginResult struct {
	AccessToken string
	User        *models.User
}

// UserService handles registration, login and account lookup.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	vault       *auth.PasswordVault
	issuer      *auth.TokenIssuer
	logger      logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, vault *auth.PasswordVault, issuer *auth.TokenIssuer, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		vault:       vault,
		issuer:      issuer,
		logger:      logger,
	}
}

// Register creates a regular user account. The role is always user; there
// is no way to request another one here.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	return s.create(ctx, name, email, password, auth.RoleUser)
}

// CreateAdmin creates an admin account. Only the admin CLI calls it.
func (s *UserService) CreateAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	return s.create(ctx, name, email, password, auth.RoleAdmin)
}

func (s *UserService) create(ctx context.Context, name, email, password string, role auth.Role) (*models.User, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	email, err = validateEmail(email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := s.vault.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{Name: name, Email: email, PasswordHash: hash, Role: string(role)}
	user, err = s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, oops.Code("USER_CREATE_FAILED").With("email", email).Wrap(err)
	}

	s.logger.Info(ctx, "user created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Login checks email and password and issues an access token. An unknown
// email and a wrong password both yield common.ErrInvalidCredentials, and
// both pay for one password verification.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.vault.Verify(password, s.vault.DummyCredential())
			return nil, common.ErrInvalidCredentials
		}
		return nil, oops.Code("USER_LOOKUP_FAILED").With("operation", "login").Wrap(err)
	}

	if !s.vault.Verify(password, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	if s.vault.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user, password)
	}

	token, err := s.issuer.Issue(auth.Principal{ID: user.ID, Email: user.Email, Role: auth.Role(user.Role)})
	if err != nil {
		return nil, oops.Code("TOKEN_ISSUE_FAILED").With("user_id", user.ID).Wrap(err)
	}

	return &LoginResult{AccessToken: token, User: user}, nil
}

// rehash upgrades a stored credential to the current work factor. Failures
// are logged and do not affect the login.
func (s *UserService) rehash(ctx context.Context, user *models.User, password string) {
	hash, err := s.vault.Hash(password)
	if err == nil {
		err = s.repomanager.Users(s.db).UpdatePasswordHash(ctx, user.ID, hash)
	}
	if err != nil {
		s.logger.Warn(ctx, "password rehash failed", "user_id", user.ID, "error", err.Error())
		return
	}
	user.PasswordHash = hash
}

// Me returns the account behind p. A principal whose account no longer
// exists is treated as unauthenticated.
func (s *UserService) Me(ctx context.Context, p auth.Principal) (*models.User, error) {
	if !isUUID(p.ID) {
		return nil, common.ErrUnauthenticated
	}
	user, err := s.repomanager.Users(s.db).GetByID(ctx, p.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnauthenticated
		}
		return nil, oops.Code("USER_LOOKUP_FAILED").With("user_id", p.ID).Wrap(err)
	}
	return user, nil
}
