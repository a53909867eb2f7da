// Package compression encodes and decodes HTTP content-codings (gzip,
// deflate, br, zstd) and negotiates one from an Accept-Encoding header.
package compression

import (
	"bytes"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"

	"github.com/WhileEndless/go-httpmessage/pkg/errors"
)

// Coding is a content-coding
type Coding int

const (
	Identity Coding = iota
	Gzip
	Deflate
	Brotli
	Zstd
)

// DefaultLevel selects each coding's default compression level
const DefaultLevel = -1

// ParseCoding maps a Content-Encoding token to a Coding.
// Accepts: gzip, x-gzip, deflate, br, zstd, identity. Unknown tokens
// report false.
func ParseCoding(token string) (Coding, bool) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "gzip", "x-gzip":
		return Gzip, true
	case "deflate":
		return Deflate, true
	case "br":
		return Brotli, true
	case "zstd":
		return Zstd, true
	case "identity", "":
		return Identity, true
	}
	return Identity, false
}

// String returns the Content-Encoding token
func (c Coding) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Deflate:
		return "deflate"
	case Brotli:
		return "br"
	case Zstd:
		return "zstd"
	default:
		return "identity"
	}
}

// Supported lists the codings this package can produce, in server
// preference order
func Supported() []Coding {
	return []Coding{Brotli, Zstd, Gzip, Deflate}
}

// Negotiate picks the coding to use for a response given the request's
// Accept-Encoding value. Among codings the client accepts with the highest
// q-value, the one listed first in offered wins. "*" matches any offered
// coding not named explicitly. Returns Identity when nothing matches or the
// header is empty.
func Negotiate(acceptEncoding string, offered []Coding) Coding {
	if strings.TrimSpace(acceptEncoding) == "" {
		return Identity
	}

	weights := make(map[string]float64)
	wildcard, hasWildcard := 0.0, false
	for _, part := range strings.Split(acceptEncoding, ",") {
		name, q := parseWeighted(part)
		if name == "" {
			continue
		}
		if name == "*" {
			wildcard, hasWildcard = q, true
			continue
		}
		if c, ok := ParseCoding(name); ok {
			weights[c.String()] = q
		}
	}

	type candidate struct {
		coding Coding
		q      float64
		rank   int
	}
	candidates := make([]candidate, 0, len(offered))
	for i, c := range offered {
		q, named := weights[c.String()]
		if !named {
			if !hasWildcard {
				continue
			}
			q = wildcard
		}
		if q > 0 {
			candidates = append(candidates, candidate{coding: c, q: q, rank: i})
		}
	}
	if len(candidates) == 0 {
		return Identity
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].q != candidates[j].q {
			return candidates[i].q > candidates[j].q
		}
		return candidates[i].rank < candidates[j].rank
	})
	return candidates[0].coding
}

// parseWeighted splits "gzip;q=0.8" into ("gzip", 0.8). A missing or
// unparsable q counts as 1.
func parseWeighted(part string) (string, float64) {
	name, params, _ := strings.Cut(part, ";")
	name = strings.ToLower(strings.TrimSpace(name))

	q := 1.0
	for _, p := range strings.Split(params, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
		if !ok || strings.ToLower(strings.TrimSpace(k)) != "q" {
			continue
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && f >= 0 && f <= 1 {
			q = f
		}
	}
	return name, q
}

// Encode compresses data with coding at level (DefaultLevel for the coding's
// default). Level ranges: gzip/deflate 1-9, br 0-11, zstd 1-22.
func Encode(data []byte, coding Coding, level int) ([]byte, error) {
	if coding == Identity || len(data) == 0 {
		return data, nil
	}

	var buf bytes.Buffer
	w, err := NewWriter(&buf, coding, level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, errors.StreamIO("failed to write "+coding.String()+" data", "compression.Encode", err)
	}
	if err := w.Close(); err != nil {
		return nil, errors.StreamIO("failed to finish "+coding.String()+" data", "compression.Encode", err)
	}
	return buf.Bytes(), nil
}

// Decode decompresses data encoded with coding
func Decode(data []byte, coding Coding) ([]byte, error) {
	if coding == Identity || len(data) == 0 {
		return data, nil
	}

	r, err := NewReader(bytes.NewReader(data), coding)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.StreamIO("failed to decompress "+coding.String()+" data", "compression.Decode", err)
	}
	return out, nil
}

// NewWriter returns a writer that compresses into w. Close must be called
// to flush the final block; it does not close w.
func NewWriter(w io.Writer, coding Coding, level int) (io.WriteCloser, error) {
	switch coding {
	case Identity:
		return nopWriteCloser{w}, nil
	case Gzip:
		if level == DefaultLevel {
			level = gzip.DefaultCompression
		}
		gw, err := gzip.NewWriterLevel(w, level)
		if err != nil {
			return nil, errors.NewError(errors.ErrorTypeInvalidArgument, "invalid gzip level", "compression.NewWriter", err)
		}
		return gw, nil
	case Deflate:
		if level == DefaultLevel {
			level = zlib.DefaultCompression
		}
		zw, err := zlib.NewWriterLevel(w, level)
		if err != nil {
			return nil, errors.NewError(errors.ErrorTypeInvalidArgument, "invalid deflate level", "compression.NewWriter", err)
		}
		return zw, nil
	case Brotli:
		if level == DefaultLevel {
			level = brotli.DefaultCompression
		}
		return brotli.NewWriterLevel(w, level), nil
	case Zstd:
		opts := []zstd.EOption{}
		if level != DefaultLevel {
			opts = append(opts, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
		}
		zw, err := zstd.NewWriter(w, opts...)
		if err != nil {
			return nil, errors.NewError(errors.ErrorTypeInvalidArgument, "failed to create zstd writer", "compression.NewWriter", err)
		}
		return zw, nil
	}
	return nil, errors.InvalidArgument("unsupported coding "+coding.String(), "compression.NewWriter")
}

// NewReader returns a reader that decompresses r
func NewReader(r io.Reader, coding Coding) (io.ReadCloser, error) {
	switch coding {
	case Identity:
		return io.NopCloser(r), nil
	case Gzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.StreamIO("failed to create gzip reader", "compression.NewReader", err)
		}
		return gr, nil
	case Deflate:
		zr, err := zlib.NewReader(r)
		if err != nil {
			return nil, errors.StreamIO("failed to create deflate reader", "compression.NewReader", err)
		}
		return zr, nil
	case Brotli:
		return io.NopCloser(brotli.NewReader(r)), nil
	case Zstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, errors.StreamIO("failed to create zstd reader", "compression.NewReader", err)
		}
		return zstdReadCloser{zr}, nil
	}
	return nil, errors.InvalidArgument("unsupported coding "+coding.String(), "compression.NewReader")
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// zstdReadCloser adapts zstd.Decoder, whose Close has no error result
type zstdReadCloser struct {
	*zstd.Decoder
}

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}
