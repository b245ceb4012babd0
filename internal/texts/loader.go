// Package texts serves the number texts shown to users. The resource is read
// at most once per process; a failed read leaves an empty resource for the
// rest of the process lifetime.
package texts

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/m3rciful/numerobot/core/logger"
	"github.com/m3rciful/numerobot/core/paths"
)

const component = "texts"

// DefaultName is the bundled resource used when no path is configured.
const DefaultName = "data/numbers.json"

//go:embed data/numbers.json
var bundled embed.FS

// Loader lazily loads and memoizes a Resource.
type Loader struct {
	name string
	read func() ([]byte, error)
	log  *slog.Logger

	once  sync.Once
	res   *Resource
	reads atomic.Int64
}

// Option customises a Loader.
type Option func(*Loader)

// WithLogger sends load events to l instead of the global logger.
func WithLogger(l *slog.Logger) Option {
	return func(ld *Loader) { ld.log = l }
}

// NewLoader reads name from fsys on first use.
func NewLoader(fsys fs.FS, name string, opts ...Option) *Loader {
	l := &Loader{
		name: name,
		read: func() ([]byte, error) { return fs.ReadFile(fsys, name) },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewBundledLoader serves the resource compiled into the binary.
func NewBundledLoader(opts ...Option) *Loader {
	return NewLoader(bundled, DefaultName, opts...)
}

// NewFileLoader serves the resource at p. A relative p is resolved against
// the install root, so the working directory never matters. An empty p
// selects the bundled resource.
func NewFileLoader(p string, opts ...Option) *Loader {
	if p == "" {
		return NewBundledLoader(opts...)
	}
	l := &Loader{
		name: filepath.Base(p),
		read: func() ([]byte, error) {
			resolved, err := paths.Resolve(p)
			if err != nil {
				return nil, err
			}
			return os.ReadFile(resolved)
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Get returns the resource, loading it on the first call. It never fails:
// any load error is logged once and yields an empty resource.
func (l *Loader) Get(ctx context.Context) *Resource {
	l.once.Do(func() { l.res = l.load(ctx) })
	return l.res
}

// Reads reports how many times the underlying file was read.
func (l *Loader) Reads() int64 {
	return l.reads.Load()
}

func (l *Loader) load(ctx context.Context) *Resource {
	start := time.Now()
	format, err := formatOf(l.name)
	if err != nil {
		l.fail(ctx, "", err)
		return Empty()
	}

	l.reads.Inc()
	data, err := l.read()
	if err != nil {
		l.fail(ctx, format, err)
		return Empty()
	}
	res, err := decode(format, data)
	if err != nil {
		l.fail(ctx, format, err)
		return Empty()
	}

	logger.LogEvent(ctx, l.eventLogger(), slog.LevelInfo, "texts.load",
		slog.String("status", "ok"),
		slog.String("path", l.name),
		slog.String("format", format),
		slog.Int("entries", res.Len()),
		slog.Duration("duration", time.Since(start)),
	)
	return res
}

func (l *Loader) fail(ctx context.Context, format string, err error) {
	logger.LogEvent(ctx, l.eventLogger(), slog.LevelError, "texts.load",
		slog.String("status", "fail"),
		slog.String("path", l.name),
		slog.String("format", format),
		slog.String("err", err.Error()),
	)
}

func (l *Loader) eventLogger() *slog.Logger {
	if l.log != nil {
		return l.log
	}
	return logger.Component(component)
}
