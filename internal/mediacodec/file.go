package mediacodec

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
)

// File is one uploaded blob. Open is called at most once per encode.
type File struct {
	Name     string
	MIMEType string
	Open     func() (io.ReadCloser, error)
}

// FromBytes wraps an in-memory payload.
func FromBytes(name, mimeType string, data []byte) File {
	return File{
		Name:     name,
		MIMEType: mimeType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// FromPath opens path lazily. An empty mimeType is sniffed at encode time.
func FromPath(path, mimeType string) File {
	return File{
		Name:     filepath.Base(path),
		MIMEType: mimeType,
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}
