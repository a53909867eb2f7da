// Package stream wraps a byte source (an in-memory buffer, an open file or
// any reader/writer) behind one readable/writable/seekable abstraction with
// an explicit lifecycle: a Stream owns its handle until Close or Detach.
//
// A Stream is not safe for concurrent use; its position is mutable state.
package stream

import (
	"io"
	"os"

	"github.com/WhileEndless/go-httpmessage/pkg/errors"
)

// Sizer is implemented by handles that know their length
type Sizer interface {
	Size() int64
}

// Stater is implemented by handles backed by a file
type Stater interface {
	Stat() (os.FileInfo, error)
}

// Stream is a body stream over an owned handle
type Stream struct {
	handle any

	reader io.Reader
	writer io.Writer
	seeker io.Seeker

	readable bool
	writable bool
	seekable bool

	pos  int64 // Position for handles that cannot Seek
	eof  bool  // A read hit the end
	mode string
	uri  string
}

// New creates an empty in-memory read-write stream
func New() *Stream {
	return FromBytes(nil)
}

// FromString creates an in-memory stream holding content, positioned at 0
func FromString(content string) *Stream {
	return FromBytes([]byte(content))
}

// FromBytes creates an in-memory stream holding a copy of content, positioned at 0
func FromBytes(content []byte) *Stream {
	s := FromHandle(newMemory(content))
	s.mode = "w+b"
	s.uri = "memory"
	return s
}

// FromHandle wraps an already-open handle. Capabilities are taken from the
// interfaces the handle implements (io.Reader, io.Writer, io.Seeker); the
// handle's open mode is not validated, so a read on a write-only file
// surfaces as a stream I/O error at read time.
func FromHandle(handle any) *Stream {
	s := &Stream{handle: handle}

	if r, ok := handle.(io.Reader); ok {
		s.reader = r
		s.readable = true
	}
	if w, ok := handle.(io.Writer); ok {
		s.writer = w
		s.writable = true
	}
	if sk, ok := handle.(io.Seeker); ok {
		// Pipes and sockets implement Seek but fail it
		if _, err := sk.Seek(0, io.SeekCurrent); err == nil {
			s.seeker = sk
			s.seekable = true
		}
	}
	if f, ok := handle.(*os.File); ok {
		s.uri = f.Name()
	}

	return s
}

// Open opens path with an fopen-style mode and wraps the file.
// See ParseMode for the accepted modes.
func Open(path, mode string) (*Stream, error) {
	m, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, m.Flag, 0o644)
	if err != nil {
		return nil, errors.StreamIO("unable to open file: "+path, "stream.Open", err)
	}

	s := FromHandle(f)
	s.readable = m.Readable
	s.writable = m.Writable
	s.mode = mode
	return s, nil
}

func (s *Stream) detached() bool {
	return s == nil || s.handle == nil
}

// Read implements io.Reader. Returns io.EOF at the end of the stream.
func (s *Stream) Read(p []byte) (int, error) {
	if s.detached() {
		return 0, errors.StreamUnusable("stream is detached", "stream.Read")
	}
	if !s.readable {
		return 0, errors.StreamUnusable("stream is not readable", "stream.Read")
	}

	n, err := s.reader.Read(p)
	s.pos += int64(n)
	if err == io.EOF {
		s.eof = true
		return n, io.EOF
	}
	if err != nil {
		return n, errors.StreamIO("unable to read from stream", "stream.Read", err)
	}
	return n, nil
}

// ReadN reads up to length bytes. At the end of the stream it returns an
// empty slice and no error; EOF reports the condition.
func (s *Stream) ReadN(length int) ([]byte, error) {
	if length < 0 {
		return nil, errors.InvalidArgument("length must not be negative", "stream.ReadN")
	}

	buf := make([]byte, length)
	total := 0
	for total < length {
		n, err := s.Read(buf[total:])
		total += n
		if err == io.EOF {
			break
		}
		if err != nil {
			return buf[:total], err
		}
		if n == 0 {
			break
		}
	}
	return buf[:total], nil
}

// Write implements io.Writer
func (s *Stream) Write(p []byte) (int, error) {
	if s.detached() {
		return 0, errors.StreamUnusable("stream is detached", "stream.Write")
	}
	if !s.writable {
		return 0, errors.StreamUnusable("stream is not writable", "stream.Write")
	}

	n, err := s.writer.Write(p)
	s.pos += int64(n)
	s.eof = false
	if err != nil {
		return n, errors.StreamIO("unable to write to stream", "stream.Write", err)
	}
	return n, nil
}

// WriteString writes str
func (s *Stream) WriteString(str string) (int, error) {
	return s.Write([]byte(str))
}

// Seek implements io.Seeker
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	if s.detached() {
		return 0, errors.StreamUnusable("stream is detached", "stream.Seek")
	}
	if !s.seekable {
		return 0, errors.StreamUnusable("stream is not seekable", "stream.Seek")
	}

	abs, err := s.seeker.Seek(offset, whence)
	if err != nil {
		return 0, errors.StreamIO("unable to seek in stream", "stream.Seek", err)
	}
	s.pos = abs
	s.eof = false
	return abs, nil
}

// Rewind seeks to the beginning
func (s *Stream) Rewind() error {
	_, err := s.Seek(0, io.SeekStart)
	return err
}

// Tell returns the current position
func (s *Stream) Tell() (int64, error) {
	if s.detached() {
		return 0, errors.StreamUnusable("stream is detached", "stream.Tell")
	}
	if s.seekable {
		abs, err := s.seeker.Seek(0, io.SeekCurrent)
		if err != nil {
			return 0, errors.StreamIO("unable to determine stream position", "stream.Tell", err)
		}
		return abs, nil
	}
	return s.pos, nil
}

// EOF reports whether the stream is detached or at its end
func (s *Stream) EOF() bool {
	if s.detached() {
		return true
	}
	if s.eof {
		return true
	}
	if s.seekable {
		if size, ok := s.Size(); ok {
			pos, err := s.Tell()
			return err == nil && pos >= size
		}
	}
	return false
}

// Size returns the length of the stream if it can be determined
func (s *Stream) Size() (int64, bool) {
	if s.detached() {
		return 0, false
	}
	switch h := s.handle.(type) {
	case Sizer:
		return h.Size(), true
	case Stater:
		fi, err := h.Stat()
		if err != nil || !fi.Mode().IsRegular() {
			return 0, false
		}
		return fi.Size(), true
	}
	return 0, false
}

// Contents returns everything from the current position to the end
func (s *Stream) Contents() (string, error) {
	if s.detached() {
		return "", errors.StreamUnusable("stream is detached", "stream.Contents")
	}
	if !s.readable {
		return "", errors.StreamUnusable("stream is not readable", "stream.Contents")
	}

	data, err := io.ReadAll(readerFunc(s.Read))
	if err != nil {
		return string(data), err
	}
	s.eof = true
	return string(data), nil
}

// String rewinds (when seekable) and returns the whole content.
// Any failure yields "" so rendering a message never fails.
func (s *Stream) String() string {
	if s.detached() {
		return ""
	}
	if s.seekable {
		if err := s.Rewind(); err != nil {
			return ""
		}
	}
	content, err := s.Contents()
	if err != nil {
		return ""
	}
	return content
}

// Close releases the handle and leaves the stream detached
func (s *Stream) Close() error {
	if s.detached() {
		return nil
	}
	handle := s.Detach()
	if c, ok := handle.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return errors.StreamIO("unable to close stream", "stream.Close", err)
		}
	}
	return nil
}

// Detach relinquishes the handle without closing it and returns it.
// Every later operation except Size and Metadata fails.
func (s *Stream) Detach() any {
	if s == nil {
		return nil
	}
	handle := s.handle
	s.handle = nil
	s.reader = nil
	s.writer = nil
	s.seeker = nil
	s.readable = false
	s.writable = false
	s.seekable = false
	return handle
}

// IsReadable reports whether Read may succeed
func (s *Stream) IsReadable() bool { return !s.detached() && s.readable }

// IsWritable reports whether Write may succeed
func (s *Stream) IsWritable() bool { return !s.detached() && s.writable }

// IsSeekable reports whether Seek may succeed
func (s *Stream) IsSeekable() bool { return !s.detached() && s.seekable }

// Metadata returns stream metadata: "mode", "uri", "seekable", "eof".
// A detached stream has no metadata.
func (s *Stream) Metadata() map[string]any {
	if s.detached() {
		return map[string]any{}
	}
	return map[string]any{
		"mode":     s.mode,
		"uri":      s.uri,
		"seekable": s.seekable,
		"eof":      s.EOF(),
	}
}

// MetadataValue returns one metadata entry
func (s *Stream) MetadataValue(key string) (any, bool) {
	v, ok := s.Metadata()[key]
	return v, ok
}

type readerFunc func(p []byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }
