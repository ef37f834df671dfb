package identity

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"

	"github.com/Kawdoor/aizer/internal/config"
	"github.com/Kawdoor/aizer/internal/failure"
	"github.com/Kawdoor/aizer/pkg/logger"
	ldap "github.com/go-ldap/ldap/v3"
)

// DirectoryProfile is what an external directory knows about a user.
type DirectoryProfile struct {
	DN          string
	Email       string
	DisplayName string
}

// Directory verifies credentials against an external user directory. It
// returns ErrInvalidCredentials for a rejected login.
type Directory interface {
	Authenticate(ctx context.Context, username, password string) (*DirectoryProfile, error)
}

type LDAPAuthenticator struct {
	Cfg config.LDAPConfig
}

// NewLDAPAuthenticator returns nil when LDAP is disabled, so the result can
// be passed straight to NewLocalProvider.
func NewLDAPAuthenticator(cfg config.LDAPConfig) Directory {
	if !cfg.Enabled || cfg.URL == "" {
		return nil
	}
	return &LDAPAuthenticator{Cfg: cfg}
}

type tlsMode int

const (
	tlsNone tlsMode = iota
	// tlsImplicit is an ldaps:// connection, encrypted from the first byte.
	tlsImplicit
	// tlsStartTLS upgrades a plain ldap:// connection after dialing.
	tlsStartTLS
)

func (a *LDAPAuthenticator) tlsMode() tlsMode {
	if strings.HasPrefix(strings.ToLower(a.Cfg.URL), "ldaps://") {
		return tlsImplicit
	}
	if a.Cfg.StartTLS {
		return tlsStartTLS
	}
	return tlsNone
}

func (a *LDAPAuthenticator) tlsConfig() *tls.Config {
	return &tls.Config{ServerName: hostOf(a.Cfg.URL)}
}

// dialOptions carries the TLS config into DialURL for ldaps:// only.
// StartTLS on an already encrypted connection fails.
func (a *LDAPAuthenticator) dialOptions() []ldap.DialOpt {
	if a.tlsMode() == tlsImplicit {
		return []ldap.DialOpt{ldap.DialWithTLSConfig(a.tlsConfig())}
	}
	return nil
}

func (a *LDAPAuthenticator) dial() (*ldap.Conn, error) {
	l, err := ldap.DialURL(a.Cfg.URL, a.dialOptions()...)
	if err != nil {
		logger.Warn("ldap_dial_failed", map[string]interface{}{
			"url":   a.Cfg.URL,
			"error": err.Error(),
		})
		return nil, failure.Wrap(failure.KindTransient, "ldap dial", err)
	}

	if a.tlsMode() == tlsStartTLS {
		if err := l.StartTLS(a.tlsConfig()); err != nil {
			l.Close()
			return nil, failure.Wrap(failure.KindTransient, "ldap starttls", err)
		}
	}

	if a.Cfg.BindDN != "" && a.Cfg.BindPassword != "" {
		if err := l.Bind(a.Cfg.BindDN, a.Cfg.BindPassword); err != nil {
			l.Close()
			logger.Warn("ldap_bind_failed", map[string]interface{}{
				"bind_dn": a.Cfg.BindDN,
				"error":   err.Error(),
			})
			return nil, failure.Wrap(failure.KindTransient, "ldap service bind", err)
		}
	}
	return l, nil
}

func (a *LDAPAuthenticator) Authenticate(ctx context.Context, username, password string) (*DirectoryProfile, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	l, err := a.dial()
	if err != nil {
		return nil, err
	}
	defer l.Close()

	emailField := a.Cfg.EmailField
	if emailField == "" {
		emailField = "mail"
	}
	nameField := a.Cfg.NameField
	if nameField == "" {
		nameField = "displayName"
	}
	filter := fmt.Sprintf(a.Cfg.UserFilter, ldap.EscapeFilter(username))

	sr, err := l.Search(ldap.NewSearchRequest(
		a.Cfg.SearchBase,
		ldap.ScopeWholeSubtree,
		ldap.DerefAlways,
		0,
		0,
		false,
		filter,
		[]string{"dn", emailField, nameField, "cn"},
		nil,
	))
	if err != nil {
		logger.Warn("ldap_search_failed", map[string]interface{}{
			"filter": filter,
			"error":  err.Error(),
		})
		return nil, failure.Wrap(failure.KindTransient, "ldap search", err)
	}
	if len(sr.Entries) != 1 {
		logger.Warn("ldap_user_not_found", map[string]interface{}{
			"username": username,
			"matches":  len(sr.Entries),
		})
		return nil, ErrInvalidCredentials
	}

	entry := sr.Entries[0]
	if err := l.Bind(entry.DN, password); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, failure.Wrap(failure.KindTransient, "ldap user bind", err)
	}

	profile := &DirectoryProfile{
		DN:          entry.DN,
		Email:       entry.GetAttributeValue(emailField),
		DisplayName: entry.GetAttributeValue(nameField),
	}
	if profile.Email == "" {
		profile.Email = username
	}
	if profile.DisplayName == "" {
		profile.DisplayName = entry.GetAttributeValue("cn")
	}

	logger.Info("ldap_auth_success", map[string]interface{}{
		"user_dn": entry.DN,
		"email":   profile.Email,
	})
	return profile, nil
}

func hostOf(url string) string {
	host := strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(url), "ldaps://"), "ldap://")
	if i := strings.IndexAny(host, ":/"); i >= 0 {
		host = host[:i]
	}
	return host
}

var errLDAPDisabled = errors.New("ldap is not enabled")

// TestConnection binds with the service account and reads the search base.
func (a *LDAPAuthenticator) TestConnection(ctx context.Context) error {
	if a == nil {
		return errLDAPDisabled
	}
	l, err := a.dial()
	if err != nil {
		return err
	}
	defer l.Close()

	_, err = l.Search(ldap.NewSearchRequest(
		a.Cfg.SearchBase,
		ldap.ScopeBaseObject,
		ldap.DerefAlways,
		0,
		0,
		false,
		"(objectClass=*)",
		[]string{"dn"},
		nil,
	))
	if err != nil {
		return failure.Wrap(failure.KindTransient, "ldap test connection", err)
	}
	return nil
}
