// Package identity authenticates users and manages their sessions. Callers
// see only typed failures: Classify maps every token, credential, and store
// error onto a failure.Kind so nothing upstream inspects error text.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/Kawdoor/aizer/internal/failure"
	"github.com/Kawdoor/aizer/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrEmailTaken          = errors.New("email already registered")
	// ErrUnknownUser means a valid token names a user that no longer exists.
	ErrUnknownUser = errors.New("unknown user")
)

// Session is what a successful sign-in, sign-up, or refresh hands back.
type Session struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresAt    time.Time    `json:"expiresAt"`
	User         *models.User `json:"user"`
}

type Registration struct {
	Email       string
	Password    string
	DisplayName string
}

type ProfileEdit struct {
	DisplayName *string
	AccentColor *string
}

type Provider interface {
	SignUp(ctx context.Context, reg Registration) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, refreshToken string) error
	CurrentUser(ctx context.Context, accessToken string) (*models.User, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, edit ProfileEdit) (*models.User, error)
	Events() *Broker
}

// Classify maps an identity error onto a failure kind.
func Classify(err error) failure.Kind {
	switch {
	case err == nil:
		return failure.KindTransient
	case errors.Is(err, jwt.ErrTokenExpired),
		errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenInvalidClaims),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, ErrInvalidRefreshToken),
		errors.Is(err, ErrUnknownUser):
		return failure.KindAuthExpired
	case errors.Is(err, ErrInvalidCredentials):
		return failure.KindPermission
	case errors.Is(err, ErrEmailTaken):
		return failure.KindConflict
	default:
		return failure.KindOf(err)
	}
}

// wrap classifies err for op. Already typed failures keep their message.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var fe *failure.Error
	if errors.As(err, &fe) {
		return err
	}

	kind := Classify(err)
	message := ""
	switch kind {
	case failure.KindPermission, failure.KindConflict:
		message = err.Error()
	case failure.KindAuthExpired:
		message = failure.ErrSessionExpired.Message
	}
	return &failure.Error{Kind: kind, Op: op, Message: message, Err: err}
}
