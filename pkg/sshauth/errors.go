package sshauth

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Authentication failure taxonomy.
//
// The literal "Auth fail" and "USERAUTH fail" messages are part of the
// caller-facing contract and must not be reworded: "Auth fail" means the
// server rejected the submitted credential during the userauth exchange,
// "USERAUTH fail" means the credential could not be produced because the
// identity's passphrase did not decrypt a usable private key.
var (
	ErrAuthFail      = errors.New("Auth fail")
	ErrUserauthFail  = errors.New("USERAUTH fail")
	ErrNoCredentials = errors.New("no usable credentials: neither password nor identity resolvable")
	ErrDecodeKey     = errors.New("unable to decode key material")
	ErrBadPassphrase = errors.New("passphrase does not decrypt key material")
	ErrTimeout       = errors.New("connection timed out")
)

// IsAuthFail reports whether err represents a credential rejected by the server.
func IsAuthFail(err error) bool {
	return errors.Is(err, ErrAuthFail)
}

// IsUserauthFail reports whether err represents a post-acceptance userauth
// failure caused by a bad passphrase or mismatched key.
func IsUserauthFail(err error) bool {
	return errors.Is(err, ErrUserauthFail)
}

// IsTimeout reports whether err represents a dial or handshake timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// classifyDial maps transport-level dial errors. Timeouts get their own
// failure kind and are never folded into ErrAuthFail.
func classifyDial(err error) error {
	if isTimeout(err) {
		return ErrTimeout
	}
	return err
}

// classifyHandshake maps errors returned by the SSH handshake into the
// failure taxonomy. x/crypto/ssh does not export a typed client-side auth
// error, so rejection is recognized by the well-known message the userauth
// layer produces.
func classifyHandshake(err error) error {
	if isTimeout(err) {
		return ErrTimeout
	}
	msg := err.Error()
	if strings.Contains(msg, "unable to authenticate") ||
		strings.Contains(msg, "no supported methods remain") {
		return ErrAuthFail
	}
	return err
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
