package dump

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

const dumpFilePrefix = "TRANSLATION_DUMP"

// FileSink appends dump lines to a timestamped text file.
type FileSink struct {
	path string
	f    *os.File
}

// OpenFile returns an OpenFunc creating a new dump file under dir.
func OpenFile(dir string) OpenFunc {
	return func(ctx context.Context) (Sink, error) {
		return NewFileSink(dir, time.Now())
	}
}

// NewFileSink creates dir if needed and a dump file named after now.
func NewFileSink(dir string, now time.Time) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create dump directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s.%s.txt", dumpFilePrefix, now.Format("2006-01-02-150405")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("create dump file: %w", err)
	}

	log.Info().Str("path", path).Msg("Dumping untranslated content")
	return &FileSink{path: path, f: f}, nil
}

// Path returns the dump file location.
func (s *FileSink) Path() string { return s.path }

func (s *FileSink) Write(ctx context.Context, e Entry) error {
	if _, err := fmt.Fprintln(s.f, e.Line); err != nil {
		return fmt.Errorf("write dump line: %w", err)
	}
	return nil
}

func (s *FileSink) Close() error {
	if err := s.f.Sync(); err != nil {
		s.f.Close()
		return fmt.Errorf("sync dump file: %w", err)
	}
	return s.f.Close()
}
