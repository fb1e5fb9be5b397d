package jdbc

import (
	"os"

	"github.com/ajitpratap0/metacat/pkg/config"
	"github.com/ajitpratap0/metacat/pkg/errors"
)

// Credentials is a username/password pair for a relational catalog
type Credentials struct {
	Username string
	Password string
}

// CredentialsProvider supplies the credentials used to open the pool.
// Override modules bind a different provider to swap the credential source.
type CredentialsProvider interface {
	Credentials() (Credentials, error)
}

// StaticCredentials serves the credentials of the connection descriptor
type StaticCredentials struct {
	cfg *config.JDBCConfig
}

// NewStaticCredentials creates a provider reading cfg
func NewStaticCredentials(cfg *config.JDBCConfig) *StaticCredentials {
	return &StaticCredentials{cfg: cfg}
}

// Credentials returns the configured username and password. A descriptor
// without credentials yields an empty pair; the DSN may carry them instead.
func (s *StaticCredentials) Credentials() (Credentials, error) {
	if !s.cfg.HasCredentials() {
		return Credentials{}, nil
	}
	return Credentials{Username: s.cfg.Username, Password: s.cfg.Password}, nil
}

// EnvCredentials reads credentials from environment variables
type EnvCredentials struct {
	UsernameVar string
	PasswordVar string
}

// Credentials looks up both variables. A missing username variable is a
// config error; the password may be empty.
func (e EnvCredentials) Credentials() (Credentials, error) {
	user, ok := os.LookupEnv(e.UsernameVar)
	if !ok || user == "" {
		return Credentials{}, errors.Newf(errors.ErrorTypeConfig, "environment variable %s is not set", e.UsernameVar)
	}
	return Credentials{Username: user, Password: os.Getenv(e.PasswordVar)}, nil
}
