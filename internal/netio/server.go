package netio

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/wyrmwatch/core/internal/netio/packet"
)

// Metrics is a plain counters snapshot of the server's dispatch
// activity, logged periodically rather than exported through a
// metrics library.
type Metrics struct {
	Dispatched uint64
	Unknown    uint64
	Unhandled  uint64
	Errors     uint64
}

// Server accepts TCP connections on up to three listeners
// (auth/realm/world), creates a Session per connection, and dispatches
// decoded packets through a shared Registry.
type Server struct {
	listeners map[packet.PortCategory]net.Listener
	registry  *packet.Registry

	nextID atomic.Uint64

	inSize, outSize int
	readTO, writeTO time.Duration
	rateLimit       *tokenBucketConfig

	sessions     sync.Map // uint64 -> *Session
	onDisconnect func(*Session)
	dispatched   atomic.Uint64
	unknown      atomic.Uint64
	unhandled    atomic.Uint64
	errs         atomic.Uint64

	log *zap.Logger
}

// ListenSpec binds one PortCategory to an address.
type ListenSpec struct {
	Category packet.PortCategory
	Address  string
}

// NewServer binds every address in specs and returns a Server ready
// for AcceptLoop. Any bind failure closes listeners already opened
// and returns the error.
func NewServer(specs []ListenSpec, registry *packet.Registry, inSize, outSize int, readTO, writeTO time.Duration, rateLimit *tokenBucketConfig, log *zap.Logger) (*Server, error) {
	s := &Server{
		listeners: make(map[packet.PortCategory]net.Listener, len(specs)),
		registry:  registry,
		inSize:    inSize,
		outSize:   outSize,
		readTO:    readTO,
		writeTO:   writeTO,
		rateLimit: rateLimit,
		log:       log,
	}
	for _, spec := range specs {
		ln, err := net.Listen("tcp", spec.Address)
		if err != nil {
			s.closeAll()
			return nil, fmt.Errorf("listen %s on %s: %w", categoryName(spec.Category), spec.Address, err)
		}
		s.listeners[spec.Category] = ln
	}
	return s, nil
}

func (s *Server) closeAll() {
	for _, ln := range s.listeners {
		ln.Close()
	}
}

// Run accepts connections on every bound listener until ctx is
// canceled. Each listener runs its own accept loop in a goroutine.
func (s *Server) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for cat, ln := range s.listeners {
		wg.Add(1)
		go func(cat packet.PortCategory, ln net.Listener) {
			defer wg.Done()
			s.acceptLoop(ctx, cat, ln)
		}(cat, ln)
	}
	<-ctx.Done()
	s.closeAll()
	wg.Wait()
}

func (s *Server) acceptLoop(ctx context.Context, cat packet.PortCategory, ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			s.log.Error("accept failed", zap.String("port", categoryName(cat)), zap.Error(err))
			continue
		}
		id := s.nextID.Add(1)
		sess := newSession(conn, id, cat, s.inSize, s.outSize, s.rateLimit, s.log)
		s.sessions.Store(id, sess)
		s.log.Info("connection accepted", zap.String("port", categoryName(cat)), zap.Uint64("session", id), zap.String("remote", conn.RemoteAddr().String()))

		go sess.writeLoop(s.writeTO)
		go func() {
			sess.readLoop(s.dispatch, s.readTO)
			s.sessions.Delete(id)
			if s.onDisconnect != nil {
				s.onDisconnect(sess)
			}
		}()
	}
}

func (s *Server) dispatch(sess *Session, data []byte) {
	s.dispatched.Add(1)
	outcome, _ := s.registry.Dispatch(sess, sess.Category(), sess.Stage(), data)
	switch outcome {
	case packet.OutcomeUnknownOpcode:
		s.unknown.Add(1)
	case packet.OutcomeUnhandled:
		s.unhandled.Add(1)
	case packet.OutcomeHandlerError:
		s.errs.Add(1)
	}
}

// SetDisconnectHandler installs fn to run once per session after its
// read loop has ended, whether by orderly quit or dropped socket. Set
// it before Run; it is not synchronized against the accept loop.
func (s *Server) SetDisconnectHandler(fn func(*Session)) {
	s.onDisconnect = fn
}

// Session looks up a live session by id, for code (e.g. zone
// broadcast hooks) that only has a numeric session id to work with.
func (s *Server) Session(id uint64) (*Session, bool) {
	v, ok := s.sessions.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

// Metrics returns a snapshot of dispatch counters.
func (s *Server) Metrics() Metrics {
	return Metrics{
		Dispatched: s.dispatched.Load(),
		Unknown:    s.unknown.Load(),
		Unhandled:  s.unhandled.Load(),
		Errors:     s.errs.Load(),
	}
}

func categoryName(c packet.PortCategory) string {
	switch c {
	case packet.PortAuth:
		return "auth"
	case packet.PortRealm:
		return "realm"
	case packet.PortWorld:
		return "world"
	default:
		return "unknown"
	}
}

// NewRateLimitConfig constructs the netio-local rate limit config from
// plain values, so callers in cmd/ don't need to import an internal
// type from config directly.
func NewRateLimitConfig(enabled bool, perSecond int) *tokenBucketConfig {
	return &tokenBucketConfig{enabled: enabled, perSecond: perSecond}
}
