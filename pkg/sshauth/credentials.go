package sshauth

import (
	"github.com/williamokano/sshrun/pkg/config"
)

// Credentials is the effective credential set for one session attempt,
// produced by Resolve. It is derived state: recomputed per attempt and
// never persisted.
type Credentials struct {
	User       string
	Password   string
	Identity   string // private key as file path or raw PEM, empty if none
	Passphrase string
}

// HasPassword reports whether password authentication is available.
func (c Credentials) HasPassword() bool { return c.Password != "" }

// HasIdentity reports whether public-key authentication is available.
func (c Credentials) HasIdentity() bool { return c.Identity != "" }

// Resolve merges global settings and a remote's own fields into effective
// credentials. Remote-specific values win field by field; there is no
// merging within a field.
//
// Identity and passphrase are taken atomically from the same level: when the
// remote declares an identity, the remote's passphrase applies to it even if
// empty, and the global passphrase is ignored. This keeps a key and the
// secret that decrypts it from being mixed across levels.
//
// Returns ErrNoCredentials when neither a password nor an identity is
// resolvable. The returned Credentials still carry the resolved user so
// callers can consult fallback password sources.
func Resolve(settings config.Settings, remote config.Remote) (Credentials, error) {
	creds := Credentials{
		User: remote.GetUser(settings),
	}

	if remote.Password != "" {
		creds.Password = remote.Password
	} else {
		creds.Password = settings.Password
	}

	switch {
	case remote.Identity != "":
		creds.Identity = remote.Identity
		creds.Passphrase = remote.Passphrase
	case settings.Identity != "":
		creds.Identity = settings.Identity
		creds.Passphrase = settings.Passphrase
	}

	if !creds.HasPassword() && !creds.HasIdentity() {
		return creds, ErrNoCredentials
	}

	return creds, nil
}
