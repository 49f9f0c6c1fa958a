package content

import (
	"encoding/hex"
	"errors"
	"strconv"
	"sync"

	"github.com/zeebo/blake3"
)

var ErrReleased = errors.New("content view released")

// View exposes decoded content through a transient reference until it is released.
type View struct {
	ref      string
	mimeType string

	mu   sync.Mutex
	data []byte
}

// Ref is the transient reference of the view: blob:<digest>#<seq>.
func (vw *View) Ref() string      { return vw.ref }
func (vw *View) MimeType() string { return vw.mimeType }

// Bytes returns the decoded content, or ErrReleased.
func (vw *View) Bytes() ([]byte, error) {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if vw.data == nil {
		return nil, ErrReleased
	}
	return vw.data, nil
}

func (vw *View) Released() bool {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	return vw.data == nil
}

func (vw *View) release() {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	vw.data = nil
}

// Viewer holds at most one open View: opening another one or closing the viewer
// releases the previous one.
type Viewer struct {
	mu      sync.Mutex
	seq     uint64
	current *View
}

func NewViewer() *Viewer {
	return &Viewer{}
}

// Open decodes dataURL and returns its View, releasing the previously open one.
// A malformed payload releases the previous View too, and returns ErrUnavailable.
func (v *Viewer) Open(dataURL string) (*View, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.releaseCurrent()
	payload, err := Decode(dataURL)
	if err != nil {
		return nil, err
	}
	data := payload.Data
	if data == nil {
		data = []byte{}
	}

	v.seq++
	digest := blake3.Sum256(data)
	v.current = &View{
		ref:      "blob:" + hex.EncodeToString(digest[:]) + "#" + strconv.FormatUint(v.seq, 10),
		mimeType: payload.MimeType,
		data:     data,
	}
	return v.current, nil
}

// Current returns the open View, if any.
func (v *Viewer) Current() *View {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Close releases the open View.
func (v *Viewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.releaseCurrent()
}

func (v *Viewer) releaseCurrent() {
	if v.current != nil {
		v.current.release()
		v.current = nil
	}
}
