// Package loader runs the streaming pipeline that turns a cloud id into a
// render-ready artifact: download with progress, parse, colorize, and
// optionally build decimation levels. Loads are cancellable at every stage
// and starting a new load on a Loader supersedes the previous one.
package loader

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.viam.com/utils"

	"github.com/treescape/lidarview/coloring"
	"github.com/treescape/lidarview/las"
	"github.com/treescape/lidarview/lod"
	"github.com/treescape/lidarview/pointcloud"
	lvutils "github.com/treescape/lidarview/utils"
)

// Stage names where in the pipeline a load currently is.
type Stage int

// Pipeline stages in order, plus the three terminal states.
const (
	StageIdle Stage = iota
	StageDownloading
	StageParsing
	StageProcessing
	StageComplete
	StageFailed
	StageCancelled
)

// String returns a human readable stage name.
func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageDownloading:
		return "downloading"
	case StageParsing:
		return "parsing"
	case StageProcessing:
		return "processing"
	case StageComplete:
		return "complete"
	case StageFailed:
		return "failed"
	case StageCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Progress is one tick of load feedback.
type Progress struct {
	Stage       Stage
	BytesLoaded int64
	// BytesTotal is negative while the source has not reported a size; the
	// final tick of the download always carries the true byte count.
	BytesTotal int64
	// Percent is in [0, 100]. It stays 0 while the total is unknown and
	// reaches 100 with the final chunk.
	Percent float64
}

// ProgressFunc receives progress ticks. It is called from the goroutine
// running the load.
type ProgressFunc func(Progress)

const (
	defaultProgressInterval = 50 * time.Millisecond
	defaultChunkSize        = 64 * 1024
)

// Options tune a single load.
type Options struct {
	// OnProgress, when set, receives throttled progress ticks.
	OnProgress ProgressFunc
	// MinProgressInterval is the shortest gap between two ticks within the
	// same stage. Stage transitions and the last tick of a stage always get
	// through. Defaults to 50ms.
	MinProgressInterval time.Duration
	// ChunkSize is the download read size. Defaults to 64 KiB.
	ChunkSize int
	// ColorPolicy picks the coloring pass applied after parsing. The zero
	// value colors by height.
	ColorPolicy coloring.Policy
	// ColorOptions tune the coloring pass.
	ColorOptions []coloring.Option
	// LODFactors, when non-empty, builds a decimation pyramid with these
	// stride factors.
	LODFactors []int
}

// Result is a finished load.
type Result struct {
	Cloud  *pointcloud.Data
	Levels []lod.Level
}

// Footprint returns the memory the result pins in bytes, for cache
// accounting.
func (r *Result) Footprint() int64 {
	if r == nil || r.Cloud == nil {
		return 0
	}
	n := r.Cloud.Footprint()
	for _, lv := range r.Levels {
		n += int64(len(lv.Positions))*4 + int64(len(lv.Colors))*4
	}
	return n
}

// A Loader runs loads against one Source. It is safe for concurrent use;
// starting a load while another is running cancels the older one, so a
// viewer skipping between flights only ever pays for the newest.
type Loader struct {
	source Source
	logger golog.Logger
	clock  clock.Clock

	bytesLoaded atomic.Int64
	bytesTotal  atomic.Int64

	mu      sync.Mutex
	current uuid.UUID
	cancel  context.CancelFunc
	stage   Stage
}

// NewLoader returns a Loader reading from source.
func NewLoader(source Source, logger golog.Logger) *Loader {
	return &Loader{source: source, logger: logger, clock: clock.New()}
}

// State returns the stage of the most recent load.
func (l *Loader) State() Stage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stage
}

// Bytes returns the byte counters of the most recent load: bytes fetched so
// far and the total size, negative while the source has not reported one.
// This is the polling counterpart to the OnProgress callback.
func (l *Loader) Bytes() (loaded, total int64) {
	return l.bytesLoaded.Load(), l.bytesTotal.Load()
}

// Cancel aborts the load in flight, if any. It is safe to call at any time
// and from any goroutine, and calling it again is a no-op.
func (l *Loader) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
}

// Load fetches, parses, and processes the cloud with the given id. On
// cancellation it returns context.Canceled wrapped for IsCancelled; parse
// failures surface as las.FormatError and fetch failures as TransportError.
func (l *Loader) Load(ctx context.Context, id string, opts Options) (res *Result, err error) {
	ctx, token := l.begin(ctx)
	defer func() {
		switch {
		case err == nil:
			l.finish(token, StageComplete)
		case IsCancelled(err):
			l.finish(token, StageCancelled)
		default:
			l.finish(token, StageFailed)
		}
	}()

	rep := l.newReporter(ctx, token, opts)

	raw, total, err := l.download(ctx, id, rep, opts)
	if err != nil {
		return nil, err
	}

	rep.report(StageParsing, int64(len(raw)), total, true)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pd, err := las.Parse(raw)
	if err != nil {
		return nil, err
	}

	rep.report(StageProcessing, int64(len(raw)), total, true)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cloud := pointcloud.NewFromLAS(pd, l.logger)
	colors, err := coloring.Colorize(cloud, opts.ColorPolicy, opts.ColorOptions...)
	if err != nil {
		return nil, err
	}
	if err := cloud.SetColors(colors); err != nil {
		return nil, err
	}

	out := &Result{Cloud: cloud}
	if len(opts.LODFactors) > 0 {
		levels, err := lod.BuildLevels(ctx, cloud, opts.LODFactors)
		if err != nil {
			return nil, err
		}
		out.Levels = levels
	}

	rep.report(StageComplete, int64(len(raw)), total, true)
	return out, nil
}

// begin supersedes any load in flight and registers a new one.
func (l *Loader) begin(ctx context.Context) (context.Context, uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	token := uuid.New()
	l.current = token
	l.cancel = cancel
	l.stage = StageDownloading
	l.bytesLoaded.Store(0)
	l.bytesTotal.Store(-1)
	return ctx, token
}

// finish records the terminal stage, unless a newer load took over.
func (l *Loader) finish(token uuid.UUID, stage Stage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current != token {
		return
	}
	l.stage = stage
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

func (l *Loader) isCurrent(token uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current == token
}

func (l *Loader) download(ctx context.Context, id string, rep *reporter, opts Options) ([]byte, int64, error) {
	rc, total, err := l.source.Open(ctx, id)
	if err != nil {
		return nil, 0, &TransportError{ID: id, Err: err}
	}
	defer utils.UncheckedErrorFunc(rc.Close)

	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	var raw []byte
	if total > 0 {
		raw = make([]byte, 0, total)
	}
	chunk := make([]byte, chunkSize)

	rep.report(StageDownloading, 0, total, true)
	for {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		n, err := rc.Read(chunk)
		if n > 0 {
			raw = append(raw, chunk[:n]...)
			rep.report(StageDownloading, int64(len(raw)), total, false)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, &TransportError{ID: id, Err: err}
		}
	}
	if total < 0 {
		// the stream is done, so the size is no longer unknown
		total = int64(len(raw))
	}
	rep.report(StageDownloading, int64(len(raw)), total, true)
	return raw, total, nil
}

// reporter throttles progress ticks and silences flights that have been
// superseded or cancelled. Ticks never go backwards and exact repeats are
// dropped.
type reporter struct {
	loader *Loader
	token  uuid.UUID
	ctx    context.Context
	fn     ProgressFunc
	min    time.Duration

	last       time.Time
	haveLast   bool
	lastStage  Stage
	lastLoaded int64
	lastTotal  int64
}

func (l *Loader) newReporter(ctx context.Context, token uuid.UUID, opts Options) *reporter {
	min := opts.MinProgressInterval
	if min <= 0 {
		min = defaultProgressInterval
	}
	return &reporter{loader: l, token: token, ctx: ctx, fn: opts.OnProgress, min: min}
}

func (r *reporter) report(stage Stage, loaded, total int64, force bool) {
	if !r.loader.isCurrent(r.token) {
		return
	}
	// A read that was already blocked when the flight was cancelled can
	// still hand over a late chunk; nothing from it may surface.
	if r.ctx.Err() != nil {
		return
	}
	r.loader.bytesLoaded.Store(loaded)
	r.loader.bytesTotal.Store(total)
	if r.fn == nil {
		return
	}
	if r.haveLast {
		if loaded < r.lastLoaded {
			return
		}
		if stage == r.lastStage && loaded == r.lastLoaded && total == r.lastTotal {
			return
		}
		if !force && stage == r.lastStage && r.loader.clock.Now().Sub(r.last) < r.min {
			return
		}
	}
	r.last = r.loader.clock.Now()
	r.haveLast = true
	r.lastStage = stage
	r.lastLoaded = loaded
	r.lastTotal = total

	pct := float64(0)
	if total > 0 {
		pct = lvutils.Clamp(100*float64(loaded)/float64(total), 0, 100)
	}
	r.fn(Progress{Stage: stage, BytesLoaded: loaded, BytesTotal: total, Percent: pct})
}
