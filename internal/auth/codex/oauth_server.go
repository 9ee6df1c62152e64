package codex

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/router-for-me/codex-switcher/internal/config"
	"github.com/router-for-me/codex-switcher/internal/logging"
	log "github.com/sirupsen/logrus"
)

const (
	stateListening int32 = iota
	stateTerminal
)

// shutdownGrace bounds how long in-flight responses may take once the flow has ended.
const shutdownGrace = 5 * time.Second

// ServerConfig configures a loopback callback listener.
type ServerConfig struct {
	// Port is the preferred port. 0 binds an ephemeral port directly.
	Port int
	// Timeout is the wall-clock deadline measured from Start.
	Timeout time.Duration
	// PollInterval is how often cancellation and the deadline are checked. Always sub-second.
	PollInterval time.Duration
	// FlowID tags log lines of this listener.
	FlowID string
}

// OAuthServer is a single-use HTTP listener on 127.0.0.1 that waits for the provider's
// authorization redirect. It ends on the first of: a callback request, Cancel, the
// deadline, or a serve failure. The port is released before the result is published.
type OAuthServer struct {
	cfg ServerConfig

	listener net.Listener
	server   *http.Server
	port     int
	deadline time.Time

	// flowCtx carries the flow ID to the token exchange and is cancelled when the flow ends.
	flowCtx    context.Context
	flowCancel context.CancelFunc

	state     atomic.Int32
	cancelled atomic.Bool
	started   atomic.Bool
	running   atomic.Bool

	// handleMu serializes callback requests.
	handleMu sync.Mutex
	handled  chan struct{}
	serveErr chan error

	outcomeAccount *Account
	outcomeErr     error

	done    chan struct{}
	account *Account
	err     error
}

// NewOAuthServer creates a callback listener. Zero timeout and out of range poll
// intervals fall back to the defaults.
func NewOAuthServer(cfg ServerConfig) *OAuthServer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultLoginTimeout
	}
	if cfg.PollInterval <= 0 || cfg.PollInterval >= time.Second {
		cfg.PollInterval = config.DefaultPollInterval
	}
	flowCtx, flowCancel := context.WithCancel(logging.WithRequestID(context.Background(), cfg.FlowID))
	return &OAuthServer{
		cfg:        cfg,
		flowCtx:    flowCtx,
		flowCancel: flowCancel,
		handled:    make(chan struct{}),
		serveErr:   make(chan error, 1),
		done:       make(chan struct{}),
	}
}

// Start binds 127.0.0.1 on the preferred port, falling back to an ephemeral port when the
// preferred one is unavailable. ErrServerStartFailed is returned when both binds fail.
func (s *OAuthServer) Start() error {
	if !s.started.CompareAndSwap(false, true) {
		return fmt.Errorf("oauth callback server already started")
	}
	entry := log.WithField("request_id", s.cfg.FlowID)

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", s.cfg.Port))
	if err != nil {
		if s.cfg.Port == 0 {
			return NewAuthenticationError(ErrServerStartFailed, err)
		}
		fallback, errFallback := net.Listen("tcp", "127.0.0.1:0")
		if errFallback != nil {
			return NewAuthenticationError(ErrServerStartFailed, errors.Join(err, errFallback))
		}
		ln = fallback
		entry.WithFields(log.Fields{
			"port":          s.cfg.Port,
			"fallback_port": listenerPort(ln),
		}).Warnf("preferred callback port unavailable (%v); using an ephemeral port, the provider may reject this redirect URI", err)
	}

	s.listener = ln
	s.port = listenerPort(ln)
	s.deadline = time.Now().Add(s.cfg.Timeout)
	entry.WithField("port", s.port).Debug("OAuth callback server bound")
	return nil
}

// Run serves callback requests for session and starts the polling loop. It returns at once;
// use Wait or Done to observe the outcome.
func (s *OAuthServer) Run(session *CallbackSession) error {
	if s.listener == nil {
		return fmt.Errorf("oauth callback server not started")
	}
	if session == nil || session.Exchanger == nil {
		_ = s.listener.Close()
		return fmt.Errorf("oauth callback session requires a token exchanger")
	}
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("oauth callback server already running")
	}
	if session.FlowID == "" {
		session.FlowID = s.cfg.FlowID
	}

	engine := gin.New()
	engine.Use(logging.GinLogrusLogger(s.cfg.FlowID), logging.GinLogrusRecovery())
	engine.Any(CallbackPath, s.handleCallback(session))
	engine.NoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, "Not Found")
	})

	s.server = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.serveErr <- err
		}
	}()
	go s.loop()
	return nil
}

func (s *OAuthServer) handleCallback(session *CallbackSession) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.handleMu.Lock()
		defer s.handleMu.Unlock()

		if s.state.Load() != stateListening {
			c.String(http.StatusGone, "Login is no longer pending")
			return
		}

		log.WithField("request_id", s.cfg.FlowID).Debug("Received OAuth callback")
		account, resp, err := session.Handle(s.flowCtx, c.Request.URL.Query())

		// Cancel or timeout may have won while the code was being exchanged.
		if !s.state.CompareAndSwap(stateListening, stateTerminal) {
			c.String(http.StatusGone, "Login is no longer pending")
			return
		}
		s.outcomeAccount, s.outcomeErr = account, err
		c.Data(resp.status, resp.contentType, []byte(resp.body))
		close(s.handled)
	}
}

func (s *OAuthServer) loop() {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	entry := log.WithField("request_id", s.cfg.FlowID)

	for {
		select {
		case <-s.handled:
			s.finish(s.outcomeAccount, s.outcomeErr)
			return
		case err := <-s.serveErr:
			if s.state.CompareAndSwap(stateListening, stateTerminal) {
				entry.Errorf("OAuth callback server failed: %v", err)
				s.finish(nil, NewAuthenticationError(ErrCallbackServerFailed, err))
				return
			}
		case now := <-ticker.C:
			if s.cancelled.Load() && s.state.CompareAndSwap(stateListening, stateTerminal) {
				entry.Info("login cancelled")
				s.finish(nil, ErrLoginCancelled)
				return
			}
			if !now.Before(s.deadline) && s.state.CompareAndSwap(stateListening, stateTerminal) {
				entry.Warnf("no OAuth callback received within %s", s.cfg.Timeout)
				s.finish(nil, ErrCallbackTimeout)
				return
			}
		}
	}
}

// finish releases the port and then publishes the result.
func (s *OAuthServer) finish(account *Account, err error) {
	s.flowCancel()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if errShutdown := s.server.Shutdown(ctx); errShutdown != nil {
		log.WithField("request_id", s.cfg.FlowID).Debugf("OAuth callback server shutdown: %v", errShutdown)
		_ = s.server.Close()
	}
	_ = s.listener.Close()

	s.account, s.err = account, err
	close(s.done)
}

// Cancel asks the listener to stop. It is idempotent and has no effect once the flow has ended.
func (s *OAuthServer) Cancel() {
	s.cancelled.Store(true)
}

// Done is closed once the flow has ended and the port is released.
func (s *OAuthServer) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the flow ends or ctx is done. A ctx error leaves the flow running.
func (s *OAuthServer) Wait(ctx context.Context) (*Account, error) {
	select {
	case <-s.done:
		return s.account, s.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Port returns the bound port, or 0 before Start.
func (s *OAuthServer) Port() int {
	return s.port
}

// RedirectURI returns the redirect URI matching the bound port.
func (s *OAuthServer) RedirectURI() string {
	return RedirectURIForPort(s.port)
}

func listenerPort(ln net.Listener) int {
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}
