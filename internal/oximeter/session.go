package oximeter

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/oxistream/oxistream/internal/logging"
	"github.com/oxistream/oxistream/internal/protocol"
)

var (
	// ErrNoData indicates no reading arrived before the context expired.
	ErrNoData = errors.New("no reading received")
	// ErrClosed indicates the session has ended.
	ErrClosed = errors.New("session closed")
)

// Session is one logical connection to an oximeter. It owns the decoder
// for the lifetime of the connection and distributes readings to
// consumers in decode order.
type Session struct {
	src io.Reader
	dec *protocol.Decoder

	mu         sync.RWMutex
	latest     *protocol.Reading
	minSignal  int
	collecting bool
	collected  []protocol.Reading
	subs       map[int]func(protocol.Reading)
	nextSubID  int
	err        error

	notify    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewSession starts a session over an arbitrary transport byte stream.
// The pump goroutine runs until src reports an error (io.EOF included) or
// the session is closed.
func NewSession(src io.Reader) *Session {
	s := &Session{
		src:    src,
		dec:    protocol.NewDecoder(),
		subs:   make(map[int]func(protocol.Reading)),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go s.pump()
	return s
}

// pump is the only caller of Decoder.Feed, preserving the decoder's
// single-writer discipline and the arrival order of chunks.
func (s *Session) pump() {
	defer close(s.done)

	buf := make([]byte, 256)
	for {
		n, err := s.src.Read(buf)
		if n > 0 {
			logging.LogRawChunk("transport chunk", buf[:n])
			for _, r := range s.dec.Feed(buf[:n]) {
				s.dispatch(r)
			}
		}
		if err != nil {
			if err != io.EOF {
				logging.Debug("transport closed", zap.Error(err))
			}
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
			return
		}
	}
}

func (s *Session) dispatch(r protocol.Reading) {
	s.mu.Lock()
	if r.SignalStrength < s.minSignal {
		s.mu.Unlock()
		return
	}
	s.latest = &r
	if s.collecting {
		s.collected = append(s.collected, r)
	}
	subs := make([]func(protocol.Reading), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
	for _, fn := range subs {
		fn(r)
	}
}

// Latest returns the most recent reading, waiting for the first one if
// none has arrived yet. It returns ErrNoData when ctx expires first and
// ErrClosed when the session ends while waiting.
func (s *Session) Latest(ctx context.Context) (protocol.Reading, error) {
	for {
		s.mu.RLock()
		r := s.latest
		s.mu.RUnlock()
		if r != nil {
			return *r, nil
		}

		select {
		case <-s.notify:
		case <-ctx.Done():
			return protocol.Reading{}, ErrNoData
		case <-s.done:
			return protocol.Reading{}, ErrClosed
		}
	}
}

// Collect gathers every reading produced during d. It returns early, with
// whatever was collected, if ctx is cancelled or the session ends.
func (s *Session) Collect(ctx context.Context, d time.Duration) []protocol.Reading {
	s.mu.Lock()
	s.collected = nil
	s.collecting = true
	s.mu.Unlock()

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	case <-s.done:
	}

	s.mu.Lock()
	s.collecting = false
	readings := s.collected
	s.collected = nil
	s.mu.Unlock()
	return readings
}

// Subscribe registers fn to be called with every reading, in decode
// order, from the session's dispatch goroutine. The callback must not
// block. It returns an id for Unsubscribe.
func (s *Session) Subscribe(fn func(protocol.Reading)) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	return id
}

// Unsubscribe removes a callback registered with Subscribe.
func (s *Session) Unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

// SetMinSignalStrength drops readings whose signal strength is below n
// (0 disables filtering). Matches the signal scale of 0-8.
func (s *Session) SetMinSignalStrength(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.minSignal = n
}

// Err returns the transport error that ended the session, if any.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err == io.EOF {
		return nil
	}
	return s.err
}

// Done is closed when the pump goroutine exits.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close tears the session down. If the transport is closeable it is
// closed, unblocking the pump; Close waits for the pump to exit.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if c, ok := s.src.(io.Closer); ok {
			err = c.Close()
		}
		<-s.done
	})
	return err
}
