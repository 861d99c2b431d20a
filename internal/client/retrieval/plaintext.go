package retrieval

import (
	"errors"
	"io"
	"sync"

	cryptoDomain "github.com/allisson/filevault/internal/crypto/domain"
)

// ErrPlaintextClosed is returned by a Plaintext used after Close.
var ErrPlaintextClosed = errors.New("plaintext already closed")

// Plaintext is a decrypted file held in memory. Close wipes the buffer.
type Plaintext struct {
	Name     string
	MIMEType string
	Size     int64

	mu     sync.Mutex
	buf    []byte
	closed bool
}

// NewPlaintext takes ownership of buf. Close wipes it.
func NewPlaintext(name, mimeType string, buf []byte) *Plaintext {
	return &Plaintext{Name: name, MIMEType: mimeType, Size: int64(len(buf)), buf: buf}
}

// Bytes returns the plaintext. The slice is wiped by Close and must not be kept past it.
// After Close it returns nil.
func (p *Plaintext) Bytes() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	return p.buf
}

// WriteTo writes the plaintext to w.
func (p *Plaintext) WriteTo(w io.Writer) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, ErrPlaintextClosed
	}
	n, err := w.Write(p.buf)
	return int64(n), err
}

// Close wipes the plaintext. It is safe to call more than once.
func (p *Plaintext) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	cryptoDomain.Zero(p.buf)
	p.closed = true
	return nil
}
