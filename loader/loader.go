// ABOUTME: Pluggable wire-format loader interface and registry
// ABOUTME: Buffers a detection prefix with io.ReadFull and replays it via io.MultiReader for the winning Loader

package loader

import (
	"bytes"
	"errors"
	"io"
	"sync"

	"github.com/prateek/heapsnap/snapshot"
)

// ErrNoLoader is returned when no registered Loader's CanLoad accepts the
// input.
var ErrNoLoader = errors.New("no loader found for this dump format")

// Loader turns a heap snapshot dump's bytes into a snapshot.Raw. CanLoad is
// a cheap format sniff: implementations must only read from the reader they
// are given, never assume it can be rewound.
type Loader interface {
	CanLoad(r io.Reader) bool
	Load(r io.Reader) (*snapshot.Raw, error)
}

type registry struct {
	mu      sync.RWMutex
	loaders []Loader
}

var global = &registry{}

// Register adds a Loader to the global registry. Loaders are tried in
// registration order; import a loader sub-package for its side-effecting
// init() to take part.
func Register(l Loader) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.loaders = append(global.loaders, l)
}

// detectPrefixSize is how much of the stream CanLoad gets to look at.
const detectPrefixSize = 4096

// Open tries each registered Loader against r, in order, and returns the
// first one's Load result. The detection prefix is buffered and replayed so
// the winning Loader sees the full stream from the start.
func Open(r io.Reader) (*snapshot.Raw, error) {
	prefix := make([]byte, detectPrefixSize)
	n, err := io.ReadFull(r, prefix)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	prefix = prefix[:n]

	global.mu.RLock()
	defer global.mu.RUnlock()
	for _, l := range global.loaders {
		if l.CanLoad(bytes.NewReader(prefix)) {
			return l.Load(io.MultiReader(bytes.NewReader(prefix), r))
		}
	}
	return nil, ErrNoLoader
}
