package sshauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/crypto/ssh"
)

// DefaultTimeout bounds the TCP dial and the SSH handshake of a single
// authentication attempt.
const DefaultTimeout = 10 * time.Second

// Negotiator drives the client side of the SSH userauth exchange. The zero
// value is usable; Timeout and HostKeyCallback have working defaults.
type Negotiator struct {
	// Timeout bounds dial and handshake. Zero means DefaultTimeout.
	Timeout time.Duration
	// HostKeyCallback verifies the server host key. Nil accepts any key,
	// which matches how remotes are bootstrapped before their keys are known.
	// TODO: support a known_hosts file once remotes can persist host keys.
	HostKeyCallback ssh.HostKeyCallback
}

// Authenticate resolves credentials into a single auth method, performs the
// SSH handshake against addr, and returns an authenticated client.
//
// Exactly one method is submitted per attempt: password when present,
// otherwise public key. Once the server accepts, negotiation stops; no
// further credential is ever tried.
//
// Failure mapping:
//   - rejected credential (password or correctly decrypted key) -> ErrAuthFail
//   - identity whose passphrase did not decrypt a usable key -> ErrUserauthFail
//   - malformed key material -> ErrDecodeKey
//   - no credential at all -> ErrNoCredentials
//   - dial or handshake deadline -> ErrTimeout
//
// The TCP connection is closed on every failure path.
func (n *Negotiator) Authenticate(ctx context.Context, addr string, creds Credentials) (*ssh.Client, error) {
	method, err := n.authMethod(creds)
	if err != nil {
		return nil, err
	}

	timeout := n.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	hostKeyCallback := n.HostKeyCallback
	if hostKeyCallback == nil {
		hostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // see HostKeyCallback doc
	}

	clientConfig := &ssh.ClientConfig{
		User:            creds.User,
		Auth:            []ssh.AuthMethod{method},
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	}

	dialer := net.Dialer{Timeout: timeout}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := dialer.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, classifyDial(err))
	}

	// Bound the handshake itself; x/crypto's Timeout only covers the dial.
	_ = conn.SetDeadline(time.Now().Add(timeout))

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("authenticating %s@%s: %w", creds.User, addr, classifyHandshake(err))
	}

	_ = conn.SetDeadline(time.Time{})

	return ssh.NewClient(sshConn, chans, reqs), nil
}

// authMethod turns resolved credentials into the single ssh.AuthMethod this
// attempt will submit. Password wins over public key when both resolved.
func (n *Negotiator) authMethod(creds Credentials) (ssh.AuthMethod, error) {
	if creds.HasPassword() {
		return ssh.Password(creds.Password), nil
	}

	if !creds.HasIdentity() {
		return nil, ErrNoCredentials
	}

	material, err := LoadKeyMaterial(creds.Identity, creds.Passphrase)
	if err != nil {
		if errors.Is(err, ErrBadPassphrase) {
			// The public half of this key may well be authorized server-side;
			// the failure belongs to the userauth layer, not the server's
			// credential check.
			return nil, fmt.Errorf("%w: %v", ErrUserauthFail, err)
		}
		return nil, err
	}

	return ssh.PublicKeys(material.Signer), nil
}

// Authenticate is a convenience wrapper using a zero-value Negotiator.
func Authenticate(ctx context.Context, addr string, creds Credentials) (*ssh.Client, error) {
	n := Negotiator{}
	return n.Authenticate(ctx, addr, creds)
}
