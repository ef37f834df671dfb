package identity

import (
	"testing"

	"github.com/Kawdoor/aizer/internal/config"
)

func TestLDAPTLSMode(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.LDAPConfig
		mode     tlsMode
		dialOpts int
	}{
		{"ldaps encrypts at dial", config.LDAPConfig{URL: "ldaps://dir.example.com:636"}, tlsImplicit, 1},
		{"ldaps ignores start tls flag", config.LDAPConfig{URL: "LDAPS://dir.example.com", StartTLS: true}, tlsImplicit, 1},
		{"ldap with start tls", config.LDAPConfig{URL: "ldap://dir.example.com:389", StartTLS: true}, tlsStartTLS, 0},
		{"plain ldap", config.LDAPConfig{URL: "ldap://dir.example.com:389"}, tlsNone, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &LDAPAuthenticator{Cfg: tt.cfg}
			if got := a.tlsMode(); got != tt.mode {
				t.Fatalf("expected mode %d, got %d", tt.mode, got)
			}
			if got := len(a.dialOptions()); got != tt.dialOpts {
				t.Fatalf("expected %d dial options, got %d", tt.dialOpts, got)
			}
		})
	}
}

func TestLDAPTLSServerName(t *testing.T) {
	a := &LDAPAuthenticator{Cfg: config.LDAPConfig{URL: "ldaps://dir.example.com:636/"}}
	if got := a.tlsConfig().ServerName; got != "dir.example.com" {
		t.Fatalf("expected server name dir.example.com, got %q", got)
	}
}

func TestNewLDAPAuthenticatorDisabled(t *testing.T) {
	if d := NewLDAPAuthenticator(config.LDAPConfig{URL: "ldap://dir.example.com"}); d != nil {
		t.Fatalf("expected nil directory when disabled, got %T", d)
	}
	if d := NewLDAPAuthenticator(config.LDAPConfig{Enabled: true, URL: "ldap://dir.example.com"}); d == nil {
		t.Fatal("expected a directory when enabled")
	}
}
