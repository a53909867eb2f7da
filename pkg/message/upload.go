package message

import (
	"io"
	"os"

	"github.com/WhileEndless/go-httpmessage/pkg/errors"
	"github.com/WhileEndless/go-httpmessage/pkg/stream"
)

// Upload error codes for a received file part. 5 is unused.
const (
	UploadOK        = 0
	UploadIniSize   = 1
	UploadFormSize  = 2
	UploadPartial   = 3
	UploadNoFile    = 4
	UploadNoTmpDir  = 6
	UploadCantWrite = 7
	UploadExtension = 8
)

// UploadedFile is one file received in a multipart request
type UploadedFile struct {
	Stream          *stream.Stream
	Size            int64
	Error           int
	ClientFilename  string
	ClientMediaType string
}

// MoveTo copies the upload to path and closes its stream. A file can be
// moved once; afterwards its stream is detached.
func (f UploadedFile) MoveTo(path string) error {
	if f.Error != UploadOK {
		return errors.InvalidArgument("cannot move a failed upload", "UploadedFile.MoveTo")
	}
	if f.Stream == nil || !f.Stream.IsReadable() {
		return errors.StreamUnusable("upload stream is not available", "UploadedFile.MoveTo")
	}

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.StreamIO("unable to create target file: "+path, "UploadedFile.MoveTo", err)
	}
	defer dst.Close()

	if f.Stream.IsSeekable() {
		if err := f.Stream.Rewind(); err != nil {
			return err
		}
	}
	if _, err := io.Copy(dst, f.Stream); err != nil {
		return errors.StreamIO("unable to write target file: "+path, "UploadedFile.MoveTo", err)
	}

	return f.Stream.Close()
}
