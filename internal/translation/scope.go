package translation

import (
	"context"
	"path/filepath"

	"yatranslator/internal/parser"
	"yatranslator/internal/worker"

	"github.com/rs/zerolog/log"
)

// GlobalLevel is the level of the scope that is active on every level.
const GlobalLevel = -1

// StringTranslations holds the rules of one scope and the table files they
// are loaded from. Rules may be dropped and reloaded while the file
// associations are kept.
type StringTranslations struct {
	level  int
	parser *parser.TableParser
	pool   *worker.Pool[string, *parser.ParseResult]

	files  []string
	known  map[string]bool
	parsed map[string]bool

	exact    map[string]string
	patterns []parser.Pattern
	loaded   bool
}

// NewStringTranslations creates an empty scope for level. workers bounds
// how many files are parsed concurrently during a full load.
func NewStringTranslations(level, workers int) *StringTranslations {
	p := parser.NewTableParser()
	return &StringTranslations{
		level:  level,
		parser: p,
		pool: worker.NewPool[string, *parser.ParseResult](workers,
			func(ctx context.Context, path string) (*parser.ParseResult, error) {
				return p.Parse(path)
			},
		),
		known:  make(map[string]bool),
		parsed: make(map[string]bool),
		exact:  make(map[string]string),
	}
}

func (s *StringTranslations) Level() int { return s.level }

// Loaded reports whether every registered file has been read into memory.
func (s *StringTranslations) Loaded() bool { return s.loaded }

func (s *StringTranslations) StringCount() int { return len(s.exact) }

func (s *StringTranslations) RegexCount() int { return len(s.patterns) }

func (s *StringTranslations) RuleCount() int { return len(s.exact) + len(s.patterns) }

func (s *StringTranslations) FileCount() int { return len(s.files) }

// Files returns the registered files in registration order.
func (s *StringTranslations) Files() []string {
	out := make([]string, len(s.files))
	copy(out, s.files)
	return out
}

// AddFile registers a table file with the scope. When load is set the file
// is parsed right away.
func (s *StringTranslations) AddFile(path string, load bool) {
	if !s.known[path] {
		s.known[path] = true
		s.files = append(s.files, path)
	}

	if !load {
		s.loaded = false
		return
	}

	if !s.parsed[path] {
		if err := s.loadFile(path); err != nil {
			log.Error().Err(err).Str("file", path).Msg("Failed to load translation file")
		}
	}
	s.loaded = s.allParsed()
}

// loadFile parses one file synchronously and merges it.
func (s *StringTranslations) loadFile(path string) error {
	res, err := s.parser.Parse(path)
	if err != nil {
		return err
	}
	s.merge(res)
	return nil
}

// LoadAll parses every registered file that is not in memory yet and
// reports whether the scope holds any rule afterwards.
func (s *StringTranslations) LoadAll() bool {
	var pending []string
	for _, path := range s.files {
		if !s.parsed[path] {
			pending = append(pending, path)
		}
	}

	if len(pending) > 0 {
		for _, task := range s.pool.Execute(context.Background(), pending) {
			if task.Err != nil {
				log.Error().Err(task.Err).Str("file", task.Input).Msg("Failed to load translation file")
				continue
			}
			s.merge(task.Result)
		}
	}

	s.loaded = true
	return s.RuleCount() > 0
}

// merge adds the rules of res, keeping the first definition of every
// original string. A file without usable rules is unregistered.
func (s *StringTranslations) merge(res *parser.ParseResult) {
	s.parsed[res.FilePath] = true

	if res.Count() == 0 {
		log.Debug().
			Str("file", filepath.Base(res.FilePath)).
			Int("level", s.level).
			Msg("Translation file has no rules, dropping it")
		s.removeFile(res.FilePath)
		return
	}

	for _, r := range res.Exact {
		if _, ok := s.exact[r.Original]; !ok {
			s.exact[r.Original] = r.Replacement
		}
	}
	s.patterns = append(s.patterns, res.Patterns...)
}

func (s *StringTranslations) removeFile(path string) {
	if !s.known[path] {
		return
	}
	delete(s.known, path)
	delete(s.parsed, path)
	for i, p := range s.files {
		if p == path {
			s.files = append(s.files[:i], s.files[i+1:]...)
			break
		}
	}
}

func (s *StringTranslations) allParsed() bool {
	for _, path := range s.files {
		if !s.parsed[path] {
			return false
		}
	}
	return true
}

// TryTranslate looks original up, loading the scope first if needed.
// Exact rules win over patterns; patterns are tried in load order.
func (s *StringTranslations) TryTranslate(original string) (string, bool) {
	if !s.loaded {
		s.LoadAll()
	}

	if v, ok := s.exact[original]; ok {
		return v, true
	}

	for _, p := range s.patterns {
		if p.Expr.MatchString(original) {
			return p.Replace(original), true
		}
	}

	return "", false
}

// ClearRules drops the loaded rules but keeps the file associations.
func (s *StringTranslations) ClearRules() {
	s.exact = make(map[string]string)
	s.patterns = nil
	s.parsed = make(map[string]bool)
	s.loaded = false
}

// ClearFilePaths forgets every registered file.
func (s *StringTranslations) ClearFilePaths() {
	s.files = nil
	s.known = make(map[string]bool)
	s.parsed = make(map[string]bool)
}
