package stream

import (
	"io"

	"github.com/WhileEndless/go-httpmessage/pkg/errors"
)

// memory is a growable, seekable, read-write byte buffer.
// Writes past the end extend the buffer; writes inside it overwrite.
type memory struct {
	data   []byte
	pos    int64
	closed bool
}

func newMemory(content []byte) *memory {
	data := make([]byte, len(content))
	copy(data, content)
	return &memory{data: data}
}

func (m *memory) Read(p []byte) (int, error) {
	if m.closed {
		return 0, io.ErrClosedPipe
	}
	if m.pos >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *memory) Write(p []byte) (int, error) {
	if m.closed {
		return 0, io.ErrClosedPipe
	}
	end := m.pos + int64(len(p))
	if end > int64(len(m.data)) {
		if end > int64(cap(m.data)) {
			grown := make([]byte, end, end*2)
			copy(grown, m.data)
			m.data = grown
		} else {
			m.data = m.data[:end]
		}
	}
	copy(m.data[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

func (m *memory) Seek(offset int64, whence int) (int64, error) {
	if m.closed {
		return 0, io.ErrClosedPipe
	}
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = m.pos + offset
	case io.SeekEnd:
		abs = int64(len(m.data)) + offset
	default:
		return 0, errors.InvalidArgument("invalid whence", "memory.Seek")
	}
	if abs < 0 {
		return 0, errors.InvalidArgument("negative position", "memory.Seek")
	}
	m.pos = abs
	return abs, nil
}

// Size returns the buffer length
func (m *memory) Size() int64 {
	return int64(len(m.data))
}

func (m *memory) Close() error {
	m.closed = true
	m.data = nil
	return nil
}
