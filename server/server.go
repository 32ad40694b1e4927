// Package server implements the coordination side of the threshold
// decryption service: the user and userset registries, the update delivery
// queues, the decryption operation state machine and the per-connection
// request loops.
package server

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/quorumseal/quorumseal/crypto/ecc"
	"github.com/quorumseal/quorumseal/log"
	"github.com/quorumseal/quorumseal/wire"
)

// DefaultPort is the default TCP listen port.
const DefaultPort = 4435

// Config configures a Server.
type Config struct {
	// Addr is the TCP listen address, e.g. ":4435".
	Addr string

	// Curve is the prototype point of the curve in use.
	Curve ecc.Point

	// Mode selects the packet codec flavor (encrypted or inline).
	Mode wire.Mode

	// Storage is the user/userset registry backend.
	Storage Storage
}

// Server accepts client connections and serves the protocol, one goroutine
// per connection.
type Server struct {
	cfg         Config
	storage     Storage
	updates     *UpdateManager
	decryptions *DecryptionsManager

	ln      net.Listener
	running atomic.Bool
	done    chan struct{}
	group   *errgroup.Group

	// open sockets, kept only to force-close on Stop
	muConns sync.Mutex
	conns   map[uuid.UUID]net.Conn
}

// New creates a server from the configuration. Start must be called to
// begin serving.
func New(cfg Config) *Server {
	return &Server{
		cfg:         cfg,
		storage:     cfg.Storage,
		updates:     NewUpdateManager(),
		decryptions: NewDecryptionsManager(),
		conns:       make(map[uuid.UUID]net.Conn),
	}
}

// Start binds the listen socket and launches the accept loop.
func (s *Server) Start() error {
	if s.running.Swap(true) {
		return errors.New("server: already running")
	}
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		s.running.Store(false)
		return fmt.Errorf("server: cannot listen on %q: %w", s.cfg.Addr, err)
	}
	s.ln = ln
	s.done = make(chan struct{})
	s.group = &errgroup.Group{}
	s.group.Go(s.acceptLoop)
	log.Infow("server listening", "addr", ln.Addr().String(),
		"curve", s.cfg.Curve.Type(), "mode", string(s.cfg.Mode))
	return nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Stop closes the listener and every client socket, then joins all
// per-connection goroutines.
func (s *Server) Stop() error {
	if !s.running.Swap(false) {
		return errors.New("server: not running")
	}
	_ = s.ln.Close()

	s.muConns.Lock()
	for _, conn := range s.conns {
		_ = conn.Close()
	}
	s.conns = make(map[uuid.UUID]net.Conn)
	s.muConns.Unlock()

	_ = s.group.Wait()
	close(s.done)
	log.Info("server stopped")
	return nil
}

// Wait blocks until the server has stopped.
func (s *Server) Wait() {
	<-s.done
}

func (s *Server) acceptLoop() error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if !s.running.Load() {
				return nil
			}
			// transient accept failure; keep serving
			log.Warnw("accept failed", "error", err)
			continue
		}
		connID := uuid.New()
		s.muConns.Lock()
		s.conns[connID] = conn
		s.muConns.Unlock()
		if !s.running.Load() {
			// lost the race with Stop; it may have missed this socket
			_ = conn.Close()
		}
		s.group.Go(func() error {
			defer func() {
				s.muConns.Lock()
				delete(s.conns, connID)
				s.muConns.Unlock()
				_ = conn.Close()
			}()
			s.handleConn(conn)
			return nil
		})
	}
}

// handleConn runs a connection through handshake, the unauthenticated stage
// and the authenticated request loop.
func (s *Server) handleConn(conn net.Conn) {
	remote := conn.RemoteAddr().String()
	log.Debugw("client connected", "remote", remote)

	codec, err := wire.ServerHandshake(conn, s.cfg.Curve, s.cfg.Mode)
	if err != nil {
		log.Debugw("handshake failed", "remote", remote, "error", err)
		return
	}

	h := &clientHandler{
		codec:       codec,
		curve:       s.cfg.Curve,
		storage:     s.storage,
		updates:     s.updates,
		decryptions: s.decryptions,
	}
	username, ok, err := h.connect()
	if err != nil || !ok {
		log.Debugw("client disconnected before login", "remote", remote)
		return
	}
	h.username = username
	log.Infow("client logged in", "remote", remote, "user", username)

	if err := h.serve(); err != nil {
		if s.running.Load() {
			log.Debugw("connection lost", "remote", remote, "user", username, "error", err)
		}
		return
	}
	log.Infow("client logged out", "remote", remote, "user", username)
}
