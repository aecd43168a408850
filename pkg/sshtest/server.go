// Package sshtest provides an in-process SSH server for exercising the
// client-side authentication and session code against real protocol
// traffic. The server records every authentication attempt and every
// executed command so tests can assert on what the server observed; in
// particular, that nothing executes after a failed authentication. It also
// serves the sftp subsystem so file transfer paths can be tested end to end.
package sshtest

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// Response is the canned outcome the server produces for an exec request.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Config holds the authentication policy for a test server.
type Config struct {
	// PasswordCallback authenticates password attempts. Optional.
	PasswordCallback func(conn ssh.ConnMetadata, password []byte) (*ssh.Permissions, error)

	// PublicKeyCallback authenticates public-key attempts. Optional.
	PublicKeyCallback func(conn ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error)

	// HostKey is the server host key. A throwaway RSA key is generated
	// when nil.
	HostKey ssh.Signer

	// Responses maps commands to canned responses. Commands without an
	// entry succeed with empty output and exit code 0.
	Responses map[string]Response
}

// Server is a minimal SSH server bound to a loopback port. It accepts
// session channels, answers exec requests with canned responses, and
// records observed commands and offered public key types.
type Server struct {
	listener net.Listener
	config   *ssh.ServerConfig

	responses map[string]Response

	mu       sync.Mutex
	commands []string
	keyTypes []string
	wg       sync.WaitGroup
}

// NewServer starts a server on 127.0.0.1:0 and begins serving until Close.
func NewServer(cfg Config) (*Server, error) {
	if cfg.PasswordCallback == nil && cfg.PublicKeyCallback == nil {
		return nil, errors.New("sshtest: at least one auth callback required")
	}

	hostKey := cfg.HostKey
	if hostKey == nil {
		var err error
		hostKey, err = GenerateHostKey()
		if err != nil {
			return nil, fmt.Errorf("sshtest: host key: %w", err)
		}
	}

	s := &Server{
		responses: cfg.Responses,
	}

	sshConfig := &ssh.ServerConfig{
		PasswordCallback: cfg.PasswordCallback,
	}
	if cfg.PublicKeyCallback != nil {
		// Wrap to record the offered key algorithm before the policy runs.
		inner := cfg.PublicKeyCallback
		sshConfig.PublicKeyCallback = func(conn ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			s.mu.Lock()
			s.keyTypes = append(s.keyTypes, key.Type())
			s.mu.Unlock()
			return inner(conn, key)
		}
	}
	sshConfig.AddHostKey(hostKey)
	s.config = sshConfig

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("sshtest: listen: %w", err)
	}
	s.listener = ln

	s.wg.Add(1)
	go s.serve()

	return s, nil
}

// Addr returns the server's listen address in host:port form.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Commands returns every command the server executed, in order.
func (s *Server) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// OfferedKeyTypes returns the SSH algorithm names of every public key
// offered during authentication, in order.
func (s *Server) OfferedKeyTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.keyTypes...)
}

// Close stops accepting connections and waits for in-flight handlers.
func (s *Server) Close() error {
	err := s.listener.Close()
	s.wg.Wait()
	return err
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	sshConn, chans, reqs, err := ssh.NewServerConn(conn, s.config)
	if err != nil {
		// Failed handshake or rejected credentials. Nothing to record:
		// no channel was ever opened, so no command can have run.
		return
	}
	defer sshConn.Close()

	go ssh.DiscardRequests(reqs)

	for newChan := range chans {
		if newChan.ChannelType() != "session" {
			_ = newChan.Reject(ssh.UnknownChannelType, "unsupported channel type")
			continue
		}

		channel, requests, err := newChan.Accept()
		if err != nil {
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleSession(channel, requests)
		}()
	}
}

// handleSession answers channel requests for one session. Exec and the
// sftp subsystem are implemented; everything else is NAKed.
func (s *Server) handleSession(channel ssh.Channel, requests <-chan *ssh.Request) {
	defer channel.Close()

	for req := range requests {
		switch req.Type {
		case "subsystem":
			var payload struct{ Name string }
			if err := ssh.Unmarshal(req.Payload, &payload); err != nil || payload.Name != "sftp" {
				_ = req.Reply(false, nil)
				continue
			}
			if req.WantReply {
				_ = req.Reply(true, nil)
			}

			server, err := sftp.NewServer(channel)
			if err != nil {
				return
			}
			_ = server.Serve()
			_ = server.Close()
			return
		case "exec":
			var payload struct{ Command string }
			if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
				_ = req.Reply(false, nil)
				continue
			}
			if req.WantReply {
				_ = req.Reply(true, nil)
			}

			s.mu.Lock()
			s.commands = append(s.commands, payload.Command)
			s.mu.Unlock()

			resp := s.responses[payload.Command]
			if resp.Stdout != "" {
				_, _ = channel.Write([]byte(resp.Stdout))
			}
			if resp.Stderr != "" {
				_, _ = channel.Stderr().Write([]byte(resp.Stderr))
			}

			_, _ = channel.SendRequest("exit-status", false, marshalExitStatus(resp.ExitCode))
			return
		default:
			if req.WantReply {
				_ = req.Reply(false, nil)
			}
		}
	}
}

func marshalExitStatus(code int) []byte {
	return ssh.Marshal(&struct{ Status uint32 }{uint32(code)})
}

// GenerateHostKey generates a random RSA host key for the server.
func GenerateHostKey() (ssh.Signer, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	return ssh.NewSignerFromKey(key)
}

// PasswordAuth returns a PasswordCallback that authenticates a single
// username/password pair.
func PasswordAuth(username, password string) func(ssh.ConnMetadata, []byte) (*ssh.Permissions, error) {
	return func(conn ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
		if conn.User() != username || string(pass) != password {
			return nil, errors.New("invalid credentials")
		}
		return &ssh.Permissions{}, nil
	}
}

// PublicKeyAuth returns a PublicKeyCallback that authenticates any of the
// given authorized public keys.
func PublicKeyAuth(authorized ...ssh.PublicKey) func(ssh.ConnMetadata, ssh.PublicKey) (*ssh.Permissions, error) {
	marshaled := make([][]byte, len(authorized))
	for i, key := range authorized {
		marshaled[i] = key.Marshal()
	}
	return func(conn ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
		offered := key.Marshal()
		for _, want := range marshaled {
			if bytes.Equal(want, offered) {
				return &ssh.Permissions{}, nil
			}
		}
		return nil, errors.New("public key is not authorized")
	}
}
