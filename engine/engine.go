// Package engine implements the edit-transaction core: diff computation,
// baseline and lifecycle management, streaming reconciliation, the
// transaction executor and the undo/redo snapshot coordinator.
//
// All state is owned by an Engine instance; there are no package-level
// registries, so tests construct isolated engines. Every operation on a
// file is serialized through that file's lock: computation, streaming
// reconciliation and transaction execution never interleave on one URI,
// while different URIs proceed concurrently.
package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fwojciec/redline"
)

const (
	defaultAdapterTimeout = 5 * time.Second
	defaultHistoryLimit   = 64
	eventBufferSize       = 128
)

// Engine owns every DiffArea, Diff and Transaction record and mutates the
// buffer only through its single write path.
type Engine struct {
	buf            redline.Buffer
	differ         redline.Differ
	log            *slog.Logger
	adapterTimeout time.Duration
	historyLimit   int

	// mu guards the uri indexes below. The per-file locks in fileState
	// serialize all real work; mu is only ever taken after a file lock,
	// never the other way around.
	mu    sync.Mutex
	files map[string]*fileState
	diffs map[string]string // diff id -> uri
	areas map[string]string // area id -> uri
	txns  map[string]string // transaction id -> uri

	events chan redline.AreaEvent
	seq    atomic.Uint64
}

// fileState is all engine state for one URI, guarded by its own mutex.
type fileState struct {
	mu    sync.Mutex
	uri   string
	areas map[string]*redline.DiffArea
	txns  map[string]*redline.Transaction
	undo  []*redline.Snapshot
	redo  []*redline.Snapshot
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithAdapterTimeout bounds each call into the line-diff adapter.
func WithAdapterTimeout(d time.Duration) Option {
	return func(e *Engine) { e.adapterTimeout = d }
}

// WithHistoryLimit caps the per-file undo stack depth.
func WithHistoryLimit(n int) Option {
	return func(e *Engine) { e.historyLimit = n }
}

// New creates an engine over the given buffer and line-diff adapter.
func New(buf redline.Buffer, differ redline.Differ, opts ...Option) *Engine {
	e := &Engine{
		buf:            buf,
		differ:         differ,
		log:            slog.Default(),
		adapterTimeout: defaultAdapterTimeout,
		historyLimit:   defaultHistoryLimit,
		files:          make(map[string]*fileState),
		diffs:          make(map[string]string),
		areas:          make(map[string]string),
		txns:           make(map[string]string),
		events:         make(chan redline.AreaEvent, eventBufferSize),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Events returns the area change stream. Events are dropped, not blocked
// on, when the subscriber falls behind.
func (e *Engine) Events() <-chan redline.AreaEvent {
	return e.events
}

func (e *Engine) emit(ev redline.AreaEvent) {
	select {
	case e.events <- ev:
	default:
		e.log.Debug("dropping area event", "uri", ev.URI, "area", ev.AreaID, "reason", ev.Reason)
	}
}

func (e *Engine) nextID(prefix string) string {
	return fmt.Sprintf("%s%06d", prefix, e.seq.Add(1))
}

// state returns the fileState for a URI, creating it on first use.
func (e *Engine) state(uri string) *fileState {
	e.mu.Lock()
	defer e.mu.Unlock()
	fs, ok := e.files[uri]
	if !ok {
		fs = &fileState{
			uri:   uri,
			areas: make(map[string]*redline.DiffArea),
			txns:  make(map[string]*redline.Transaction),
		}
		e.files[uri] = fs
	}
	return fs
}

func (e *Engine) diffOwner(diffID string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	uri, ok := e.diffs[diffID]
	return uri, ok
}

func (e *Engine) areaOwner(areaID string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	uri, ok := e.areas[areaID]
	return uri, ok
}

func (e *Engine) txnOwner(txnID string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	uri, ok := e.txns[txnID]
	return uri, ok
}

// indexArea records an area and its diffs in the uri indexes.
func (e *Engine) indexArea(area *redline.DiffArea) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.areas[area.ID] = area.URI
	for id := range area.Diffs {
		e.diffs[id] = area.URI
	}
}

// unindexArea removes an area and its diffs from the uri indexes.
func (e *Engine) unindexArea(area *redline.DiffArea) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.areas, area.ID)
	for id := range area.Diffs {
		delete(e.diffs, id)
	}
}

func (e *Engine) indexDiff(id, uri string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.diffs[id] = uri
}

func (e *Engine) unindexDiff(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.diffs, id)
}

func (e *Engine) indexTxn(id, uri string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.txns[id] = uri
}

func (e *Engine) unindexTxn(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.txns, id)
}

// sortedAreas returns the file's areas in ascending start-line order.
// Caller holds fs.mu.
func (fs *fileState) sortedAreas() []*redline.DiffArea {
	areas := make([]*redline.DiffArea, 0, len(fs.areas))
	for _, a := range fs.areas {
		areas = append(areas, a)
	}
	sort.Slice(areas, func(i, j int) bool { return areas[i].StartLine < areas[j].StartLine })
	return areas
}

// findDiff locates a diff by id across the file's areas. Caller holds fs.mu.
func (fs *fileState) findDiff(diffID string) *redline.Diff {
	for _, area := range fs.areas {
		if d, ok := area.Diffs[diffID]; ok {
			return d
		}
	}
	return nil
}

// sortedUnresolved returns an area's unresolved diffs in ascending buffer
// order, so earlier writes never invalidate later line numbers.
func sortedUnresolved(area *redline.DiffArea) []*redline.Diff {
	var diffs []*redline.Diff
	for _, d := range area.Diffs {
		if !d.State.Resolved() {
			diffs = append(diffs, d)
		}
	}
	sort.Slice(diffs, func(i, j int) bool {
		if diffs[i].Modified.Start != diffs[j].Modified.Start {
			return diffs[i].Modified.Start < diffs[j].Modified.Start
		}
		return diffs[i].Original.Start < diffs[j].Original.Start
	})
	return diffs
}

// DiffAreas returns summaries of every diff area for a URI, in ascending
// start-line order.
func (e *Engine) DiffAreas(uri string) []redline.AreaSummary {
	fs := e.state(uri)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var out []redline.AreaSummary
	for _, area := range fs.sortedAreas() {
		s := redline.AreaSummary{
			AreaID:    area.ID,
			URI:       area.URI,
			StartLine: area.StartLine,
			EndLine:   area.EndLine,
			CreatedAt: area.CreatedAt,
		}
		for _, d := range area.Diffs {
			if d.State == redline.Accepted {
				s.Accepted++
			} else if !d.State.Resolved() {
				s.Pending++
			}
		}
		out = append(out, s)
	}
	return out
}

// DiffCount returns the number of unresolved diffs for a URI, for
// pre-flight blast-radius checks by an approval gate.
func (e *Engine) DiffCount(uri string) int {
	fs := e.state(uri)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	n := 0
	for _, area := range fs.areas {
		n += area.Unresolved()
	}
	return n
}

// Owner returns the URI owning a diff id.
func (e *Engine) Owner(diffID string) (string, bool) {
	return e.diffOwner(diffID)
}

// DiffByID returns a copy of the identified diff.
func (e *Engine) DiffByID(diffID string) (*redline.Diff, error) {
	uri, ok := e.diffOwner(diffID)
	if !ok {
		return nil, redline.Errorf(redline.ENOTFOUND, "diff %q", diffID)
	}
	fs := e.state(uri)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	d := fs.findDiff(diffID)
	if d == nil {
		return nil, redline.Errorf(redline.ENOTFOUND, "diff %q", diffID)
	}
	return d.Clone(), nil
}

// Diffs returns copies of every diff for a URI in ascending buffer order.
func (e *Engine) Diffs(uri string) []*redline.Diff {
	fs := e.state(uri)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var out []*redline.Diff
	for _, area := range fs.sortedAreas() {
		for _, d := range sortedUnresolved(area) {
			out = append(out, d.Clone())
		}
	}
	return out
}
