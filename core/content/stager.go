package content

import (
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/labstack/gommon/bytes"
	"github.com/pkg/errors"

	"github.com/trezcool/etudes/core"
)

var (
	ErrUploadInProgress = errors.New("an upload is already in progress")

	readFileFunc = os.ReadFile // mockable
)

// Upload is a file accepted for staging, encoded as a data URL.
type Upload struct {
	Name     string
	MimeType string
	Size     int64
	DataURL  string
}

// SizeLabel is the human readable size of the upload (e.g. "1.50MB").
func (u Upload) SizeLabel() string {
	return bytes.Format(u.Size)
}

// StageResult is delivered once the staged file is read and encoded.
type StageResult struct {
	Upload Upload
	Err    error
}

// Stager reads and encodes files in the background, one at a time.
type Stager struct {
	maxSize   int64
	uploading atomic.Bool
}

func NewStager(maxSize int64) *Stager {
	return &Stager{maxSize: maxSize}
}

// MaxSize is the largest accepted file, in bytes (0: unlimited).
func (s *Stager) MaxSize() int64 { return s.maxSize }

// Uploading reports whether a staged file is still being read.
func (s *Stager) Uploading() bool { return s.uploading.Load() }

// CheckSize returns a *core.ValidationError if size is over the limit.
func (s *Stager) CheckSize(size int64) error {
	return CheckSize(size, s.maxSize)
}

// CheckSize returns a *core.ValidationError if size is over max (0: unlimited).
func CheckSize(size, max int64) error {
	if max > 0 && size > max {
		msg := "file too large, max " + bytes.Format(max)
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: msg})
	}
	return nil
}

// Stage checks the file at path against the size limit, then reads and encodes it in a goroutine.
// The result is sent on the returned channel, which is closed afterwards.
// A file over the limit is rejected before anything is read.
func (s *Stager) Stage(path string) (<-chan StageResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, core.NewValidationError(err, core.FieldError{Field: "file", Error: "file not found"})
	}
	if info.IsDir() {
		return nil, core.NewValidationError(nil, core.FieldError{Field: "file", Error: "not a regular file"})
	}
	if err := s.CheckSize(info.Size()); err != nil {
		return nil, err
	}
	if !s.uploading.CompareAndSwap(false, true) {
		return nil, ErrUploadInProgress
	}

	done := make(chan StageResult, 1)
	go func() {
		res := s.read(path)
		// the gate opens before the result is delivered
		s.uploading.Store(false)
		done <- res
		close(done)
	}()
	return done, nil
}

func (s *Stager) read(path string) StageResult {
	data, err := readFileFunc(path)
	if err != nil {
		return StageResult{Err: errors.Wrapf(err, "reading %s", path)}
	}
	// the file may have grown since it was checked
	if err := s.CheckSize(int64(len(data))); err != nil {
		return StageResult{Err: err}
	}
	mimeType := DetectMimeType(path, data)
	return StageResult{Upload: Upload{
		Name:     filepath.Base(path),
		MimeType: mimeType,
		Size:     int64(len(data)),
		DataURL:  Encode(mimeType, data),
	}}
}

// DetectMimeType uses the file extension, then the content.
func DetectMimeType(name string, data []byte) string {
	if mimeType := mime.TypeByExtension(filepath.Ext(name)); mimeType != "" {
		return mimeType
	}
	return http.DetectContentType(data)
}
