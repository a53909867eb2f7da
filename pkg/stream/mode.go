package stream

import (
	"os"
	"strings"

	"github.com/WhileEndless/go-httpmessage/pkg/errors"
)

// Mode is a parsed fopen-style open mode
type Mode struct {
	Flag     int
	Readable bool
	Writable bool
}

// ParseMode converts an fopen-style mode into os.OpenFile flags.
// Accepted: r, r+, w, w+, a, a+, x, x+, c, c+, each optionally carrying
// the "b" or "t" modifiers, which are ignored.
func ParseMode(mode string) (Mode, error) {
	base := strings.NewReplacer("b", "", "t", "").Replace(mode)

	switch base {
	case "r":
		return Mode{Flag: os.O_RDONLY, Readable: true}, nil
	case "r+":
		return Mode{Flag: os.O_RDWR, Readable: true, Writable: true}, nil
	case "w":
		return Mode{Flag: os.O_WRONLY | os.O_CREATE | os.O_TRUNC, Writable: true}, nil
	case "w+":
		return Mode{Flag: os.O_RDWR | os.O_CREATE | os.O_TRUNC, Readable: true, Writable: true}, nil
	case "a":
		return Mode{Flag: os.O_WRONLY | os.O_CREATE | os.O_APPEND, Writable: true}, nil
	case "a+":
		return Mode{Flag: os.O_RDWR | os.O_CREATE | os.O_APPEND, Readable: true, Writable: true}, nil
	case "x":
		return Mode{Flag: os.O_WRONLY | os.O_CREATE | os.O_EXCL, Writable: true}, nil
	case "x+":
		return Mode{Flag: os.O_RDWR | os.O_CREATE | os.O_EXCL, Readable: true, Writable: true}, nil
	case "c":
		return Mode{Flag: os.O_WRONLY | os.O_CREATE, Writable: true}, nil
	case "c+":
		return Mode{Flag: os.O_RDWR | os.O_CREATE, Readable: true, Writable: true}, nil
	}

	return Mode{}, errors.InvalidArgument("invalid stream mode: "+mode, "stream.ParseMode")
}
