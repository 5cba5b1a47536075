package dump

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"yatranslator/internal/resource"
	"yatranslator/internal/textutil"

	"github.com/rs/zerolog/log"
)

// AllLevels in the allowed level list lets entries from every level through.
const AllLevels = -1

// Entry is one untranslated string, texture or asset name.
type Entry struct {
	Kind  resource.Type
	Level int
	Line  string
}

// Sink stores dump entries.
type Sink interface {
	Write(ctx context.Context, e Entry) error
	Close() error
}

// OpenFunc opens the sink on first use.
type OpenFunc func(ctx context.Context) (Sink, error)

// Options configures a Dumper.
type Options struct {
	// Types selects which resource kinds are dumped.
	Types resource.Type
	// Levels restricts dumping to these levels; empty or containing
	// AllLevels means every level.
	Levels []int
	// Open creates the sink the first time an entry is written.
	Open OpenFunc
}

// Dumper records overrides the host asked for but the memory could not
// provide, each distinct line once.
type Dumper struct {
	ctx context.Context

	mu     sync.Mutex
	types  resource.Type
	levels []int
	open   OpenFunc
	sink   Sink
	failed bool
	seen   map[string]bool
}

// New creates a Dumper. ctx bounds sink I/O.
func New(ctx context.Context, opts Options) *Dumper {
	return &Dumper{
		ctx:    ctx,
		types:  opts.Types,
		levels: opts.Levels,
		open:   opts.Open,
		seen:   make(map[string]bool),
	}
}

// Enabled reports whether entries of kind are dumped at all.
func (d *Dumper) Enabled(kind resource.Type) bool {
	return d != nil && d.types.Has(kind) && d.open != nil
}

func (d *Dumper) levelAllowed(level int) bool {
	return len(d.levels) == 0 || slices.Contains(d.levels, AllLevels) || slices.Contains(d.levels, level)
}

// String dumps an untranslated string seen on level.
func (d *Dumper) String(level int, text string) {
	d.write(Entry{
		Kind:  resource.Strings,
		Level: level,
		Line:  fmt.Sprintf("[STRING][LEVEL %d] %s", level, textutil.Escape(text)),
	})
}

// Texture dumps a texture name without an override.
func (d *Dumper) Texture(name string) {
	d.write(Entry{
		Kind:  resource.Textures,
		Level: AllLevels,
		Line:  "[TEXTURE] " + name,
	})
}

// Asset dumps an asset texture without an override.
func (d *Dumper) Asset(hash string, level int, name string) {
	d.write(Entry{
		Kind:  resource.Assets,
		Level: level,
		Line:  fmt.Sprintf("[ASSET][HASH %s][BUILDINDEX %d] %s", hash, level, name),
	})
}

func (d *Dumper) write(e Entry) {
	if !d.Enabled(e.Kind) {
		return
	}
	if e.Level != AllLevels && !d.levelAllowed(e.Level) {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.seen[e.Line] || !d.ensureSink() {
		return
	}
	d.seen[e.Line] = true

	if err := d.sink.Write(d.ctx, e); err != nil {
		log.Error().Err(err).Str("line", textutil.Truncate(e.Line, 60)).Msg("Failed to write dump entry")
	}
}

func (d *Dumper) ensureSink() bool {
	if d.sink != nil {
		return true
	}
	if d.failed {
		return false
	}

	sink, err := d.open(d.ctx)
	if err != nil {
		d.failed = true
		log.Error().Err(err).Msg("Failed to open translation dump, dumping disabled")
		return false
	}
	d.sink = sink
	return true
}

// Count returns the number of distinct lines dumped so far.
func (d *Dumper) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// Close flushes and closes the sink if it was opened.
func (d *Dumper) Close() error {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.sink == nil {
		return nil
	}
	err := d.sink.Close()
	d.sink = nil
	return err
}
