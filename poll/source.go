package poll

import (
	"bufio"
	"io"
	"sync"
)

// ByteSource yields input bytes without blocking. Poll reports ok=false when
// no byte is waiting. io.EOF means the source is exhausted.
type ByteSource interface {
	Poll() (b byte, ok bool, err error)
	Close() error
}

// blocker is implemented by sources whose Poll waits for input on its own,
// so the input task need not pause between empty polls.
type blocker interface {
	Blocking() bool
}

// ReaderSource adapts a blocking io.Reader, such as standard input, to
// ByteSource by reading on a helper goroutine.
type ReaderSource struct {
	bytes chan byte
	done  chan struct{}

	mu  sync.Mutex
	err error

	closeOnce sync.Once
	closer    io.Closer
}

// NewReaderSource starts reading r. If r is an io.Closer, Close closes it.
func NewReaderSource(r io.Reader) *ReaderSource {
	s := &ReaderSource{
		bytes: make(chan byte, 256),
		done:  make(chan struct{}),
	}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	go s.pump(bufio.NewReader(r))
	return s
}

func (s *ReaderSource) pump(r *bufio.Reader) {
	defer close(s.bytes)
	for {
		b, err := r.ReadByte()
		if err != nil {
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
			return
		}
		select {
		case s.bytes <- b:
		case <-s.done:
			return
		}
	}
}

// Poll returns the next buffered byte, if any.
func (s *ReaderSource) Poll() (byte, bool, error) {
	select {
	case b, open := <-s.bytes:
		if open {
			return b, true, nil
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.err == nil {
			return 0, false, io.EOF
		}
		return 0, false, s.err
	default:
		return 0, false, nil
	}
}

// Close stops the helper goroutine.
func (s *ReaderSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		if s.closer != nil {
			err = s.closer.Close()
		}
	})
	return err
}
