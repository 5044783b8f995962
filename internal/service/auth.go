package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/BiswasSwagatam/Muzik/internal/apperror"
	"github.com/BiswasSwagatam/Muzik/internal/auth"
	"github.com/BiswasSwagatam/Muzik/internal/model"
	"github.com/BiswasSwagatam/Muzik/internal/repository"
)

const localExternalPrefix = "local:"

// AdminPolicy says who gets admin rights.
//
//   - GitHub users whose login is in Logins (case-insensitive).
//   - The local account Username, when PasswordHash is set. It signs in with
//     a password instead of OAuth and exists for bootstrapping.
type AdminPolicy struct {
	Logins       []string
	Username     string
	PasswordHash string
}

func (p AdminPolicy) localEnabled() bool {
	return p.Username != "" && p.PasswordHash != ""
}

// AuthService signs users in and answers admin checks.
//
//	AuthHandler → AuthService → UserRepository
//	                          ↘ TokenService, PasswordService
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	policy    AdminPolicy
	logger    *slog.Logger
}

var _ auth.AdminChecker = (*AuthService)(nil)

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	policy AdminPolicy,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		policy:    policy,
		logger:    logger,
	}
}

// AuthResult bundles the signed-in user and their session token.
type AuthResult struct {
	User  *model.User
	Token string
}

// LoginOrRegisterGitHub syncs the GitHub profile into the users collection
// (insert on first login, refresh afterwards) and issues a token.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	fullName := ghUser.Name
	if fullName == "" {
		fullName = ghUser.Login
	}
	user := &model.User{
		ExternalID: ghUser.ExternalID(),
		Login:      ghUser.Login,
		FullName:   fullName,
		Email:      ghUser.Email,
		ImageURL:   ghUser.AvatarURL,
	}
	err := s.users.Upsert(ctx, user)
	if errors.Is(err, apperror.ErrConflict) {
		// A concurrent first login inserted the same external id; the
		// retry takes the update path.
		err = s.users.Upsert(ctx, user)
	}
	if err != nil {
		return nil, fmt.Errorf("service/auth: upserting user %s: %w", user.ExternalID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", user.Login),
	)
	return s.issue(user)
}

// LoginLocal checks the break-glass admin credentials. Every failure,
// including a disabled local login, reads as the same 401.
func (s *AuthService) LoginLocal(ctx context.Context, username, password string) (*AuthResult, error) {
	invalid := apperror.Unauthorized("invalid username or password")

	if !s.policy.localEnabled() {
		return nil, invalid
	}
	if subtle.ConstantTimeCompare([]byte(username), []byte(s.policy.Username)) != 1 {
		s.passwords.Verify(s.policy.PasswordHash, password) //nolint:errcheck // equalize timing
		return nil, invalid
	}
	if err := s.passwords.Verify(s.policy.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrInvalidPassword) {
			s.logger.Error("admin password hash unusable", slog.String("error", err.Error()))
		}
		return nil, invalid
	}

	user := &model.User{
		ExternalID: localExternalPrefix + username,
		Login:      username,
		FullName:   "Administrator",
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting local admin: %w", err)
	}

	s.logger.Info("local admin signed in", slog.String("userID", user.ID))
	return s.issue(user)
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// IsAdmin applies the AdminPolicy to the stored user. Unknown users are not
// admins.
func (s *AuthService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("service/auth: loading user %s: %w", userID, err)
	}

	if name, ok := strings.CutPrefix(user.ExternalID, localExternalPrefix); ok {
		return s.policy.localEnabled() && name == s.policy.Username, nil
	}
	if strings.HasPrefix(user.ExternalID, "github:") {
		return slices.ContainsFunc(s.policy.Logins, func(login string) bool {
			return strings.EqualFold(login, user.Login)
		}), nil
	}
	return false, nil
}

// GetUserByID is used by /api/auth/me.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}
