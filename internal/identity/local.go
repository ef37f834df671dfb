package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/Kawdoor/aizer/internal/failure"
	"github.com/Kawdoor/aizer/internal/models"
	"github.com/Kawdoor/aizer/internal/store"
	"github.com/Kawdoor/aizer/pkg/logger"
	"github.com/Kawdoor/aizer/pkg/utils"
	"github.com/google/uuid"
)

const minPasswordLength = 8

// LocalProvider keeps users and refresh tokens in the relational store. Access
// tokens are HS256 JWTs; refresh tokens are opaque, stored hashed, and
// single-use. When Directory is set, users unknown locally (or provisioned
// from the directory earlier) sign in against it.
type LocalProvider struct {
	Store      store.Store
	Directory  Directory
	RefreshTTL time.Duration

	broker *Broker
	now    func() time.Time
}

func NewLocalProvider(s store.Store, refreshTTL time.Duration, directory Directory) *LocalProvider {
	if refreshTTL <= 0 {
		refreshTTL = 30 * 24 * time.Hour
	}
	return &LocalProvider{
		Store:      s,
		Directory:  directory,
		RefreshTTL: refreshTTL,
		broker:     NewBroker(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (p *LocalProvider) Events() *Broker {
	return p.broker
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (p *LocalProvider) SignUp(ctx context.Context, reg Registration) (*Session, error) {
	const op = "sign up"

	email := normalizeEmail(reg.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, failure.Validation(op, "invalid email")
	}
	if len(reg.Password) < minPasswordLength {
		return nil, failure.Validation(op, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	displayName := strings.TrimSpace(reg.DisplayName)
	if displayName == "" {
		return nil, failure.Validation(op, "displayName is required")
	}

	existing, err := p.userByEmail(ctx, email)
	if err != nil {
		return nil, wrap(op, err)
	}
	if existing != nil {
		return nil, wrap(op, ErrEmailTaken)
	}

	hash, err := utils.HashPassword(reg.Password)
	if err != nil {
		return nil, wrap(op, err)
	}
	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
		AuthSource:   models.AuthSourceLocal,
	}
	if err := p.Store.Insert(ctx, user); err != nil {
		if failure.Is(err, failure.KindConflict) {
			return nil, wrap(op, ErrEmailTaken)
		}
		return nil, err
	}

	logger.Info("user_registered", map[string]interface{}{
		"user_id": user.ID.String(),
		"email":   user.Email,
	})

	session, err := p.issue(ctx, user)
	if err != nil {
		return nil, wrap(op, err)
	}
	p.broker.Publish(Event{Type: EventSignedIn, UserID: user.ID})
	return session, nil
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	const op = "sign in"

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, failure.Validation(op, "email and password are required")
	}

	user, err := p.userByEmail(ctx, email)
	if err != nil {
		return nil, wrap(op, err)
	}

	switch {
	case user != nil && user.AuthSource == models.AuthSourceLocal:
		if !utils.CheckPassword(password, user.PasswordHash) {
			logger.Warn("login_failed_invalid_password", map[string]interface{}{
				"user_id": user.ID.String(),
				"email":   email,
			})
			return nil, wrap(op, ErrInvalidCredentials)
		}
	case p.Directory != nil:
		profile, err := p.Directory.Authenticate(ctx, email, password)
		if err != nil {
			return nil, wrap(op, err)
		}
		if user, err = p.provision(ctx, profile); err != nil {
			return nil, wrap(op, err)
		}
	default:
		logger.Warn("login_failed_user_not_found", map[string]interface{}{
			"email": email,
		})
		return nil, wrap(op, ErrInvalidCredentials)
	}

	logger.Info("user_login", map[string]interface{}{
		"user_id": user.ID.String(),
		"source":  string(user.AuthSource),
	})

	session, err := p.issue(ctx, user)
	if err != nil {
		return nil, wrap(op, err)
	}
	p.broker.Publish(Event{Type: EventSignedIn, UserID: user.ID})
	return session, nil
}

// provision creates or refreshes the local row for a directory user.
func (p *LocalProvider) provision(ctx context.Context, profile *DirectoryProfile) (*models.User, error) {
	email := normalizeEmail(profile.Email)
	name := strings.TrimSpace(profile.DisplayName)
	if name == "" {
		name = email
	}

	row := &models.User{Email: email, DisplayName: name, AuthSource: models.AuthSourceLDAP}
	if err := p.Store.Upsert(ctx, row, []string{"email"}, []string{"display_name", "auth_source", "updated_at"}); err != nil {
		return nil, err
	}
	user, err := p.userByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnknownUser
	}
	return user, nil
}

func (p *LocalProvider) userByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := p.Store.Get(ctx, &user, []store.Filter{store.Eq("email", email)})
	if failure.Is(err, failure.KindNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (p *LocalProvider) userByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := p.Store.Get(ctx, &user, []store.Filter{store.Eq("id", id)})
	if failure.Is(err, failure.KindNotFound) {
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (p *LocalProvider) issue(ctx context.Context, user *models.User) (*Session, error) {
	access, expiresAt, err := utils.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	refresh, err := newRefreshToken()
	if err != nil {
		return nil, err
	}
	row := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(refresh),
		ExpiresAt: p.now().Add(p.RefreshTTL),
	}
	if err := p.Store.Insert(ctx, row); err != nil {
		return nil, err
	}
	return &Session{AccessToken: access, RefreshToken: refresh, ExpiresAt: expiresAt, User: user}, nil
}

// revoke marks the presented refresh token used. It fails with
// ErrInvalidRefreshToken when the token is unknown, expired, or already used.
func (p *LocalProvider) revoke(ctx context.Context, refreshToken string) (*models.RefreshToken, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}

	var row models.RefreshToken
	err := p.Store.Get(ctx, &row, []store.Filter{store.Eq("token_hash", hashToken(refreshToken))})
	if failure.Is(err, failure.KindNotFound) {
		return nil, ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, err
	}
	if !row.Active(p.now()) {
		return nil, ErrInvalidRefreshToken
	}

	n, err := p.Store.Update(ctx, &models.RefreshToken{}, map[string]interface{}{"revoked_at": p.now()},
		[]store.Filter{store.Eq("id", row.ID), store.Eq("revoked_at", nil)})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrInvalidRefreshToken
	}
	return &row, nil
}

// Refresh exchanges a refresh token for a new session and burns the old one.
func (p *LocalProvider) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	const op = "refresh session"

	row, err := p.revoke(ctx, refreshToken)
	if err != nil {
		return nil, wrap(op, err)
	}
	user, err := p.userByID(ctx, row.UserID)
	if err != nil {
		return nil, wrap(op, err)
	}
	session, err := p.issue(ctx, user)
	if err != nil {
		return nil, wrap(op, err)
	}
	p.broker.Publish(Event{Type: EventTokenRefreshed, UserID: user.ID})
	return session, nil
}

// SignOut revokes refreshToken. Signing out with an unknown or already
// revoked token is not an error.
func (p *LocalProvider) SignOut(ctx context.Context, refreshToken string) error {
	row, err := p.revoke(ctx, refreshToken)
	if errors.Is(err, ErrInvalidRefreshToken) {
		return nil
	}
	if err != nil {
		return wrap("sign out", err)
	}
	p.broker.Publish(Event{Type: EventSignedOut, UserID: row.UserID})
	return nil
}

func (p *LocalProvider) CurrentUser(ctx context.Context, accessToken string) (*models.User, error) {
	const op = "current user"

	claims, err := utils.ValidateToken(accessToken)
	if err != nil {
		return nil, wrap(op, err)
	}
	user, err := p.userByID(ctx, claims.UserID)
	if err != nil {
		return nil, wrap(op, err)
	}
	return user, nil
}

func (p *LocalProvider) UpdateProfile(ctx context.Context, userID uuid.UUID, edit ProfileEdit) (*models.User, error) {
	const op = "update profile"

	updates := map[string]interface{}{}
	if edit.DisplayName != nil {
		name := strings.TrimSpace(*edit.DisplayName)
		if name == "" {
			return nil, failure.Validation(op, "displayName cannot be empty")
		}
		updates["display_name"] = name
	}
	if edit.AccentColor != nil {
		if color := strings.TrimSpace(*edit.AccentColor); color != "" {
			updates["accent_color"] = color
		} else {
			updates["accent_color"] = nil
		}
	}
	if len(updates) == 0 {
		return nil, failure.Validation(op, "no valid fields to update")
	}

	if _, err := p.Store.Update(ctx, &models.User{}, updates, []store.Filter{store.Eq("id", userID)}); err != nil {
		return nil, err
	}
	user, err := p.userByID(ctx, userID)
	if err != nil {
		return nil, wrap(op, err)
	}
	p.broker.Publish(Event{Type: EventUserUpdated, UserID: userID})
	return user, nil
}
