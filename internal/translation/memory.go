package translation

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"yatranslator/internal/cache"
	"yatranslator/internal/filewalker"
	"yatranslator/internal/resource"
	"yatranslator/internal/texture"
	"yatranslator/internal/textutil"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	assetsFolder   = "Assets"
	stringsFolder  = "Strings"
	texturesFolder = "Textures"
)

// Options configures a Memory.
type Options struct {
	// Root is the translations directory holding Assets, Strings and Textures.
	Root string
	// Load selects which resource kinds LoadTranslations reads.
	Load resource.Type
	// Optimizations selects the level load/unload policy.
	Optimizations Optimizations
	// Retranslate re-resolves translation outputs from their source text.
	Retranslate bool
	// Verbosity enables per-item trace logging for the selected kinds.
	Verbosity resource.Type
	// Workers bounds concurrent file parsing.
	Workers int
}

// Memory resolves text, texture and asset overrides from the files under
// a translations directory.
type Memory struct {
	mu sync.Mutex

	load        resource.Type
	opts        Optimizations
	retranslate bool
	verbosity   resource.Type
	workers     int

	root         string
	assetsPath   string
	stringsPath  string
	texturesPath string
	dirsChecked  bool

	global *StringTranslations
	groups map[int]*StringTranslations
	active *StringTranslations

	translated *cache.Registry
	textures   *cache.PathCache[texture.Replacement]
	assets     *cache.PathCache[string]
}

// NewMemory creates a Memory. No files are read until LoadTranslations.
func NewMemory(opts Options) *Memory {
	m := &Memory{
		groups:     make(map[int]*StringTranslations),
		translated: cache.NewRegistry(),
		textures:   cache.NewPathCache[texture.Replacement](),
		assets:     cache.NewPathCache[string](),
	}
	m.configure(opts)
	m.global = NewStringTranslations(GlobalLevel, m.workers)
	return m
}

// configure applies opts. Loaded data is kept until the next
// LoadTranslations.
func (m *Memory) configure(opts Options) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.load = opts.Load
	m.opts = opts.Optimizations
	m.retranslate = opts.Retranslate
	m.verbosity = opts.Verbosity
	m.workers = opts.Workers
	if m.workers < 1 {
		m.workers = 1
	}
	if opts.Root != m.root || m.stringsPath == "" {
		m.setRoot(opts.Root)
	}
}

// SetTranslationsRoot points the memory at a new translations directory.
func (m *Memory) SetTranslationsRoot(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setRoot(path)
}

func (m *Memory) setRoot(path string) {
	m.root = path
	m.assetsPath = filepath.Join(path, assetsFolder)
	m.stringsPath = filepath.Join(path, stringsFolder)
	m.texturesPath = filepath.Join(path, texturesFolder)
	m.dirsChecked = false
}

// TranslationsRoot returns the configured translations directory.
func (m *Memory) TranslationsRoot() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.root
}

// trace returns a log event when verbose logging is on for rt, nil otherwise.
func (m *Memory) trace(rt resource.Type, level zerolog.Level) *zerolog.Event {
	if !m.verbosity.Has(rt) {
		return nil
	}
	return log.WithLevel(level)
}

// LoadTranslations rebuilds the caches of every enabled resource kind.
func (m *Memory) LoadTranslations() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.checkDirectories()
	if m.load.Has(resource.Assets) {
		m.loadAssets()
	}
	if m.load.Has(resource.Textures) {
		m.loadTextures()
	}
	if m.load.Has(resource.Strings) {
		m.loadStrings()
	}
}

func (m *Memory) checkDirectories() {
	if m.dirsChecked {
		return
	}
	m.dirsChecked = true

	for _, dir := range []string{m.stringsPath, m.texturesPath, m.assetsPath} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Error().Err(err).Str("path", dir).Msg("Failed to create translation directory")
		}
	}
}

func (m *Memory) loadAssets() {
	b := cache.NewBuilder[string]()

	entries, err := filewalker.NewWalker(".png").Walk(m.assetsPath)
	if err != nil {
		log.Error().Err(err).Str("path", m.assetsPath).Msg("Failed to scan assets")
	}
	for _, e := range entries {
		m.trace(resource.Assets, zerolog.InfoLevel).Str("asset", e.Stem).Msg("CacheAsset")
		b.Set(e.Stem, e.Path)
	}

	m.assets.Replace(b)
	log.Info().Int("count", m.assets.Len()).Msg("Cached assets")
}

func (m *Memory) loadTextures() {
	b := cache.NewBuilder[texture.Replacement]()

	entries, err := filewalker.NewWalker().Walk(m.texturesPath)
	if err != nil {
		log.Error().Err(err).Str("path", m.texturesPath).Msg("Failed to scan textures")
	}
	for _, e := range entries {
		typ, ok := texture.ParseType(e.Ext)
		if !ok {
			continue
		}

		if existing, added := b.Add(e.Stem, texture.Replacement{Type: typ, Path: e.Path}); !added {
			log.Warn().
				Str("texture", e.Stem).
				Str("using", existing.Type.String()).
				Str("ignored", e.Path).
				Msg("Duplicate texture in Textures folder")
			continue
		}
		m.trace(resource.Textures, zerolog.InfoLevel).Str("texture", e.Stem).Msg("CacheTexture")
	}

	m.textures.Replace(b)
	log.Info().Int("count", m.textures.Len()).Msg("Cached textures")
}

// ParseLevels returns the levels a table file applies to, derived from its
// name without extension. An empty result means the file is global.
func ParseLevels(stem string) []int {
	parts := strings.Split(stem, ".")
	if len(parts) == 1 {
		return nil
	}

	var levels []int
	seen := make(map[int]bool)
	for _, tok := range strings.Split(parts[1], "-") {
		n, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true
		levels = append(levels, n)
	}
	return levels
}

func (m *Memory) loadStrings() {
	m.global.ClearRules()
	m.global.ClearFilePaths()
	for _, group := range m.groups {
		group.ClearRules()
		group.ClearFilePaths()
	}

	entries, err := filewalker.NewWalker(".txt").Walk(m.stringsPath)
	if err != nil {
		log.Error().Err(err).Str("path", m.stringsPath).Msg("Failed to scan string translations")
	}

	loadContents := !m.opts.Enabled(OptLazyLoad)
	loadedStrings, loadedFiles := 0, 0

	for _, e := range entries {
		levels := ParseLevels(e.Stem)
		m.trace(resource.Strings, zerolog.InfoLevel).
			Str("file", e.Stem).
			Ints("levels", levels).
			Msg("CacheString")

		if len(levels) == 0 {
			prev := m.global.RuleCount()
			m.global.AddFile(e.Path, true)
			loadedStrings += m.global.RuleCount() - prev
			loadedFiles++
			continue
		}

		for i, level := range levels {
			group, ok := m.groups[level]
			if !ok {
				group = NewStringTranslations(level, m.workers)
				m.groups[level] = group
			}

			prev := group.RuleCount()
			group.AddFile(e.Path, loadContents)
			if i == 0 {
				loadedStrings += group.RuleCount() - prev
			}
			loadedFiles++
		}
	}

	if loadContents {
		log.Info().Int("translations", loadedStrings).Msg("Loaded string translations")
	} else {
		log.Info().Int("files", loadedFiles).Msg("Pre-cached translation files")
	}
}

// ActivateLevelTranslations makes level's rules the active scope. With
// clearCache the already-translated registry is emptied.
func (m *Memory) ActivateLevelTranslations(level int, clearCache bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if clearCache {
		m.translated.Clear()
	}
	if !m.load.Has(resource.Strings) {
		return
	}

	if m.active != nil && m.opts.Enabled(OptLazyLoad) && m.opts.Enabled(OptUnloadOnLevelChange) {
		m.active.ClearRules()
	}

	m.active = m.groups[level]
	if m.active != nil && m.opts.Enabled(OptLoadOnLevelChange) {
		m.active.LoadAll()
	}

	if m.opts.Enabled(OptLoadOnTranslate) {
		files := m.global.FileCount()
		if m.active != nil {
			files += m.active.FileCount()
		}
		log.Info().Int("level", level).Int("files", files).Msg("Cached translation files for level")
		return
	}

	strs, regexes := m.global.StringCount(), m.global.RegexCount()
	if m.active != nil {
		strs += m.active.StringCount()
		regexes += m.active.RegexCount()
	}
	log.Info().Int("level", level).Int("strings", strs).Int("regexes", regexes).Msg("Cached strings for level")
}

// GetTextTranslation resolves original against the active level and the
// global scope. Outputs of earlier lookups are not translated again unless
// retranslation is on, in which case their source text is used instead.
func (m *Memory) GetTextTranslation(original string) TextTranslation {
	m.mu.Lock()
	defer m.mu.Unlock()

	source, wasTranslated := m.translated.Original(original)
	untranslated := original
	if m.retranslate {
		if wasTranslated {
			untranslated = source
		}
	} else if wasTranslated {
		m.trace(resource.Strings, zerolog.DebugLevel).Str("text", original).Msg("Skip, already translated")
		return TextTranslation{Text: original, Result: ResultTranslated}
	}

	input := textutil.NormalizeQuery(untranslated)
	m.trace(resource.Strings, zerolog.DebugLevel).Str("text", untranslated).Msg("FindString")
	if input == "" {
		return TextTranslation{Text: untranslated, Result: ResultNotFound}
	}

	first, second := m.active, m.global
	if m.opts.Enabled(OptLoadOnTranslate) && m.active != nil && !m.active.Loaded() {
		first, second = m.global, m.active
	}

	for _, scope := range []*StringTranslations{first, second} {
		if scope == nil {
			continue
		}
		if translation, ok := scope.TryTranslate(input); ok {
			m.trace(resource.Strings, zerolog.InfoLevel).
				Str("from", untranslated).
				Str("to", translation).
				Int("level", scope.Level()).
				Msg("String")
			m.translated.Record(translation, untranslated)
			return TextTranslation{Text: translation, Result: ResultOK}
		}
	}

	return TextTranslation{Text: untranslated, Result: ResultNotFound}
}

// Translate returns the translation of original, if one was produced.
func (m *Memory) Translate(original string) (string, bool) {
	res := m.GetTextTranslation(original)
	return res.Text, res.Found()
}

// TryGetOriginal returns the source text a displayed translation came from.
func (m *Memory) TryGetOriginal(translation string) (string, bool) {
	return m.translated.Original(translation)
}

// WasTranslated reports whether text is the output of an earlier lookup.
func (m *Memory) WasTranslated(text string) bool {
	return m.translated.Contains(text)
}

// GetTexture returns the override registered for a texture name. The zero
// Replacement means none.
func (m *Memory) GetTexture(name string) texture.Replacement {
	r, _ := m.textures.Get(name)
	return r
}

// GetTexturePath returns the override file for a texture name.
func (m *Memory) GetTexturePath(name string) (string, bool) {
	r, ok := m.textures.Get(name)
	return r.Path, ok
}

// GetAssetPath returns the override file for an asset name.
func (m *Memory) GetAssetPath(name string) (string, bool) {
	return m.assets.Get(name)
}

// Stats summarises what is loaded for a level.
type Stats struct {
	Level          int  `json:"level"`
	LevelActive    bool `json:"level_active"`
	LevelLoaded    bool `json:"level_loaded"`
	LevelFiles     int  `json:"level_files"`
	LevelStrings   int  `json:"level_strings"`
	LevelRegexes   int  `json:"level_regexes"`
	GlobalFiles    int  `json:"global_files"`
	GlobalStrings  int  `json:"global_strings"`
	GlobalRegexes  int  `json:"global_regexes"`
	Levels         int  `json:"levels"`
	Textures       int  `json:"textures"`
	Assets         int  `json:"assets"`
	TranslatedSeen int  `json:"translated_seen"`
}

// Stats reports counts for level without loading anything.
func (m *Memory) Stats(level int) Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Stats{
		Level:          level,
		GlobalFiles:    m.global.FileCount(),
		GlobalStrings:  m.global.StringCount(),
		GlobalRegexes:  m.global.RegexCount(),
		Levels:         len(m.groups),
		Textures:       m.textures.Len(),
		Assets:         m.assets.Len(),
		TranslatedSeen: m.translated.Len(),
	}
	if group, ok := m.groups[level]; ok {
		st.LevelActive = group == m.active
		st.LevelLoaded = group.Loaded()
		st.LevelFiles = group.FileCount()
		st.LevelStrings = group.StringCount()
		st.LevelRegexes = group.RegexCount()
	}
	return st
}
