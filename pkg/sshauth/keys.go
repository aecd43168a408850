package sshauth

import (
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/ssh"
)

// Algorithm identifies the key algorithm detected from parsed key material.
type Algorithm string

const (
	AlgorithmRSA     Algorithm = "RSA"
	AlgorithmEC      Algorithm = "EC"
	AlgorithmEd25519 Algorithm = "Ed25519"
	AlgorithmUnknown Algorithm = "unknown"
)

// KeyMaterial is a decoded, ready-to-use private key. The signer is always
// decrypted: encrypted sources are decrypted eagerly at load time so that
// passphrase problems surface before any network traffic.
type KeyMaterial struct {
	Algorithm Algorithm
	Signer    ssh.Signer
	Encrypted bool // true if the source required a passphrase
}

// LoadKeyMaterial decodes a private key from an identity source, which is
// either a filesystem path or raw in-memory PEM content. Both forms produce
// equivalent KeyMaterial.
//
// Encrypted keys are decrypted with the supplied passphrase immediately.
// A wrong or missing passphrase yields ErrBadPassphrase; structurally
// invalid key material yields ErrDecodeKey.
func LoadKeyMaterial(identity, passphrase string) (KeyMaterial, error) {
	if identity == "" {
		return KeyMaterial{}, fmt.Errorf("%w: empty identity source", ErrDecodeKey)
	}

	raw := []byte(identity)
	if !isRawKey(identity) {
		data, err := os.ReadFile(identity)
		if err != nil {
			return KeyMaterial{}, fmt.Errorf("%w: reading identity file %s: %v", ErrDecodeKey, identity, err)
		}
		raw = data
	}

	signer, encrypted, err := parseKey(raw, passphrase)
	if err != nil {
		return KeyMaterial{}, err
	}

	return KeyMaterial{
		Algorithm: detectAlgorithm(signer),
		Signer:    signer,
		Encrypted: encrypted,
	}, nil
}

// parseKey parses PEM-encoded private key bytes, trying passphrase
// decryption first when a passphrase was supplied. A key that turns out not
// to be encrypted is reparsed as plaintext.
func parseKey(raw []byte, passphrase string) (ssh.Signer, bool, error) {
	if passphrase != "" {
		signer, err := ssh.ParsePrivateKeyWithPassphrase(raw, []byte(passphrase))
		if err == nil {
			return signer, true, nil
		}
		// The key may not be encrypted at all; a successful plaintext
		// parse settles it and the unused passphrase is ignored.
		if signer, plainErr := ssh.ParsePrivateKey(raw); plainErr == nil {
			return signer, false, nil
		}
		if errors.Is(err, x509.IncorrectPasswordError) {
			return nil, true, fmt.Errorf("%w: %v", ErrBadPassphrase, err)
		}
		return nil, true, fmt.Errorf("%w: %v", ErrDecodeKey, err)
	}

	signer, err := ssh.ParsePrivateKey(raw)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return nil, true, fmt.Errorf("%w: key is encrypted and no passphrase given", ErrBadPassphrase)
		}
		return nil, false, fmt.Errorf("%w: %v", ErrDecodeKey, err)
	}
	return signer, false, nil
}

// isRawKey reports whether the identity source is inline PEM content rather
// than a path. PEM armor never appears in a filename.
func isRawKey(identity string) bool {
	return strings.Contains(identity, "-----BEGIN") && strings.Contains(identity, "PRIVATE KEY-----")
}

func detectAlgorithm(signer ssh.Signer) Algorithm {
	keyType := signer.PublicKey().Type()
	switch {
	case keyType == ssh.KeyAlgoRSA:
		return AlgorithmRSA
	case strings.HasPrefix(keyType, "ecdsa-sha2-"):
		return AlgorithmEC
	case keyType == ssh.KeyAlgoED25519:
		return AlgorithmEd25519
	default:
		return AlgorithmUnknown
	}
}
