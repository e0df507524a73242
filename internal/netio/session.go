// Package netio implements the connection server: the TCP accept
// loop, per-connection Session state machine, and opcode dispatch.
// Each session runs dedicated reader/writer goroutines with a
// non-blocking send queue; a client too slow to drain its queue is
// disconnected rather than allowed to block the sender.
package netio

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/wyrmwatch/core/internal/netio/packet"
	"github.com/wyrmwatch/core/internal/zone"
)

// ZoneRef identifies the zone instance a world-stage session is bound
// to.
type ZoneRef = zone.Ref

// Session is one per-connection state machine.
// Network I/O runs in dedicated goroutines; stage/identity fields are
// only ever mutated by the goroutine that owns the session's command
// processing (handlers run synchronously from readLoop's dispatch
// call), so no locking is needed on them beyond the atomics used for
// fields readable from other goroutines (Stage, via atomic int32).
type Session struct {
	ID    uint64
	conn  net.Conn
	stage atomic.Int32
	cat   packet.PortCategory

	AccountName string
	CharacterID int64
	CharName    string
	PlayerGUID  uint64
	AccessLevel int
	ZoneRef     ZoneRef
	HasZoneRef  bool

	inQueue  chan []byte
	outQueue chan []byte

	limiter *tokenBucket

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	log *zap.Logger
}

func newSession(conn net.Conn, id uint64, cat packet.PortCategory, inSize, outSize int, rateLimit *tokenBucketConfig, log *zap.Logger) *Session {
	s := &Session{
		ID:       id,
		conn:     conn,
		cat:      cat,
		inQueue:  make(chan []byte, inSize),
		outQueue: make(chan []byte, outSize),
		closeCh:  make(chan struct{}),
		log:      log.With(zap.Uint64("session", id)),
	}
	s.stage.Store(int32(packet.StageUnauthenticated))
	if rateLimit != nil && rateLimit.enabled {
		s.limiter = newTokenBucket(rateLimit.perSecond)
	}
	return s
}

// Stage returns the session's current lifecycle stage. Safe from any
// goroutine.
func (s *Session) Stage() packet.Stage { return packet.Stage(s.stage.Load()) }

// Category reports which listener port accepted this connection.
func (s *Session) Category() packet.PortCategory { return s.cat }

// Advance moves the session to the next forward stage; stage
// transitions are strictly forward except on error.
func (s *Session) Advance(next packet.Stage) {
	s.stage.Store(int32(next))
}

// Disconnect forces the session into the terminal stage and closes the
// connection; this is the sole permitted backward transition.
func (s *Session) Disconnect(reason string) {
	s.stage.Store(int32(packet.StageDisconnecting))
	if reason != "" {
		s.log.Info("session disconnecting", zap.String("reason", reason))
	}
	s.Close()
}

// BindZone sets the session's zone_ref once it has entered a world.
func (s *Session) BindZone(ref ZoneRef) {
	s.ZoneRef = ref
	s.HasZoneRef = true
}

// Send enqueues an already-encoded frame body (opcode||payload). Non-
// blocking: a full out queue means the client is too slow to keep up,
// so the session is disconnected rather than blocking the sender.
func (s *Session) Send(data []byte) {
	if s.closed.Load() {
		return
	}
	select {
	case s.outQueue <- data:
	default:
		s.log.Warn("send queue full, disconnecting slow client")
		s.Close()
	}
}

func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.closeCh)
		s.conn.Close()
	})
}

func (s *Session) IsClosed() bool { return s.closed.Load() }

func (s *Session) readLoop(dispatch func(sess *Session, data []byte), readTimeout time.Duration) {
	defer s.Close()
	for {
		select {
		case <-s.closeCh:
			return
		default:
		}
		if readTimeout > 0 {
			s.conn.SetReadDeadline(time.Now().Add(readTimeout))
		}
		body, err := packet.ReadFrame(s.conn)
		if err != nil {
			if !s.closed.Load() {
				s.log.Debug("frame read ended", zap.Error(err))
			}
			return
		}
		if s.limiter != nil && !s.limiter.Allow() {
			s.log.Debug("rate limit exceeded, dropping packet")
			continue
		}
		dispatch(s, body)
	}
}

func (s *Session) writeLoop(writeTimeout time.Duration) {
	defer s.Close()
	for {
		select {
		case data := <-s.outQueue:
			if writeTimeout > 0 {
				s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			}
			if err := packet.WriteFrame(s.conn, data); err != nil {
				if !s.closed.Load() {
					s.log.Debug("frame write failed", zap.Error(err))
				}
				return
			}
		case <-s.closeCh:
			return
		}
	}
}

// tokenBucketConfig mirrors config.RateLimitConfig without importing
// the config package (avoids a netio -> config -> netio cycle risk).
type tokenBucketConfig struct {
	enabled   bool
	perSecond int
}

// tokenBucket implements the per-session inbound packet rate limit.
type tokenBucket struct {
	mu       sync.Mutex
	tokens   float64
	capacity float64
	rate     float64 // tokens per second
	last     time.Time
}

func newTokenBucket(perSecond int) *tokenBucket {
	if perSecond <= 0 {
		perSecond = 60
	}
	return &tokenBucket{
		tokens:   float64(perSecond),
		capacity: float64(perSecond),
		rate:     float64(perSecond),
		last:     time.Now(),
	}
}

func (b *tokenBucket) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	elapsed := now.Sub(b.last).Seconds()
	b.last = now
	b.tokens += elapsed * b.rate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}
