package distance

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"
)

// TCPSensor accepts the ultrasonic sender's TCP connection and retains
// the latest pushed reading. Wire protocol: one decimal centimeter
// value per line ("47.25\n"). One sender at a time; after a disconnect
// the listener goes back to accepting, so the sequence is restartable.
type TCPSensor struct {
	addr       string
	staleAfter time.Duration
	logger     *slog.Logger

	mu     sync.RWMutex
	latest Reading
	seen   bool

	ln net.Listener
}

// NewTCPSensor creates a sensor source listening on addr.
func NewTCPSensor(addr string, staleAfter time.Duration, logger *slog.Logger) *TCPSensor {
	if logger == nil {
		logger = slog.Default()
	}
	return &TCPSensor{
		addr:       addr,
		staleAfter: staleAfter,
		logger:     logger.With("component", "tcpsensor"),
	}
}

// Listen binds the listening socket. Call before Run.
func (s *TCPSensor) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("distance: listen %s: %w", s.addr, err)
	}
	s.ln = ln
	s.logger.Info("waiting for distance sender", "addr", s.addr)
	return nil
}

// Addr returns the bound listener address (useful when addr used port 0).
func (s *TCPSensor) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Run accepts sender connections until ctx is cancelled.
func (s *TCPSensor) Run(ctx context.Context) error {
	if s.ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	go func() {
		<-ctx.Done()
		s.ln.Close()
	}()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("distance: accept: %w", err)
		}
		s.logger.Info("distance sender connected", "remote", conn.RemoteAddr().String())
		s.serve(ctx, conn)
		s.logger.Warn("distance sender disconnected", "remote", conn.RemoteAddr().String())
	}
}

// serve consumes readings from one sender connection until it drops.
func (s *TCPSensor) serve(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cm, err := strconv.ParseFloat(line, 64)
		if err != nil {
			s.logger.Debug("ignoring malformed reading", "line", line)
			continue
		}
		s.mu.Lock()
		s.latest = Reading{DistanceCM: cm, Time: time.Now()}
		s.seen = true
		s.mu.Unlock()
	}
}

// Read returns the latest pushed reading.
// Stale or out-of-range values are reported as sensor faults.
func (s *TCPSensor) Read() (Reading, error) {
	s.mu.RLock()
	r, seen := s.latest, s.seen
	s.mu.RUnlock()

	if !seen {
		return Reading{}, ErrNoReading
	}
	if time.Since(r.Time) > s.staleAfter {
		return Reading{}, ErrStale
	}
	if r.DistanceCM < MinRangeCM || r.DistanceCM > MaxRangeCM {
		return Reading{}, ErrOutOfRange
	}
	return r, nil
}
