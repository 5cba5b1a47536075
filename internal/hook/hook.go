// Package hook adapts a translation memory to the callbacks a host fires
// when it displays text or loads textures.
package hook

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf16"

	"yatranslator/internal/dump"
	"yatranslator/internal/resource"
	"yatranslator/internal/texture"
	"yatranslator/internal/translation"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Translator is the lookup side of a translation memory.
type Translator interface {
	GetTextTranslation(original string) translation.TextTranslation
	WasTranslated(text string) bool
	GetTexture(name string) texture.Replacement
	GetAssetPath(name string) (string, bool)
}

const (
	hashSeed       = uint64(3074457345618258791)
	hashMultiplier = uint64(3074457345618258799)
)

// MetaHash is the 64-bit multiplicative hash over the UTF-16 code units of s.
func MetaHash(s string) uint64 {
	h := hashSeed
	for _, u := range utf16.Encode([]rune(s)) {
		h += uint64(u)
		h *= hashMultiplier
	}
	return h
}

// TextureName normalises a texture name the way lookups key it.
func TextureName(name string) string {
	return strings.ReplaceAll(name, ".", "-")
}

// CompoundHash identifies a texture by its metadata and name.
func CompoundHash(name, meta string) string {
	if meta == "" || meta == name {
		return fmt.Sprintf("%016X", MetaHash(name))
	}
	return fmt.Sprintf("%016X", MetaHash(meta+":"+name))
}

// AssetCandidates lists the names tried for an asset texture, most specific
// first.
func AssetCandidates(name, hash string, level int) []string {
	return []string{
		fmt.Sprintf("%s@%d", hash, level),
		fmt.Sprintf("%s@%d", name, level),
		hash,
		name,
	}
}

// Handler answers host callbacks from a Translator and reports misses to
// an optional Dumper.
type Handler struct {
	memory    Translator
	dumper    *dump.Dumper
	verbosity resource.Type

	mu                sync.Mutex
	lastFoundAsset    string
	lastLoadedAsset   string
	lastFoundTexture  string
	lastLoadedTexture string
}

// NewHandler wires memory to the host callbacks. dumper may be nil.
func NewHandler(memory Translator, dumper *dump.Dumper, verbosity resource.Type) *Handler {
	return &Handler{memory: memory, dumper: dumper, verbosity: verbosity}
}

func (h *Handler) trace(rt resource.Type) *zerolog.Event {
	if !h.verbosity.Has(rt) {
		return nil
	}
	return log.Debug()
}

// OnTranslateString returns the text to display instead of text, if any.
func (h *Handler) OnTranslateString(text string, level int) (string, bool) {
	if text == "" {
		return "", false
	}
	h.trace(resource.Strings).Str("text", text).Msg("Find string")

	res := h.memory.GetTextTranslation(text)
	if !res.Found() && !h.memory.WasTranslated(text) {
		h.dumper.String(level, text)
	}
	if !res.Found() {
		return "", false
	}
	return res.Text, true
}

// OnArcTextureLoad resolves a texture loaded from a game archive.
func (h *Handler) OnArcTextureLoad(name string) (*texture.Resource, bool) {
	name = TextureName(strings.ReplaceAll(name, ".tex", ""))

	h.mu.Lock()
	if h.lastFoundTexture != name {
		h.lastFoundTexture = name
		h.trace(resource.Textures).Str("name", name).Msg("Find texture")
	}
	h.mu.Unlock()

	repl := h.memory.GetTexture(name)
	if repl.None() {
		h.dumper.Texture(name)
		return nil, false
	}

	res, err := texture.Load(repl)
	if err != nil {
		log.Error().Err(err).Str("name", name).Msg("Failed to load texture replacement")
		return nil, false
	}

	h.mu.Lock()
	if h.lastLoadedTexture != name {
		log.Info().Str("name", name).Str("path", repl.Path).Msg("Loaded texture")
	}
	h.lastLoadedTexture = name
	h.mu.Unlock()

	return res, true
}

// OnAssetTextureLoad resolves a texture owned by a scene asset. meta is the
// asset's material or atlas name and may be empty.
func (h *Handler) OnAssetTextureLoad(name, meta string, level int) (*texture.Resource, bool) {
	name = TextureName(name)
	hash := CompoundHash(name, meta)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.lastFoundAsset != name {
		h.lastFoundAsset = name
		h.trace(resource.Assets).Str("name", name).Str("meta", meta).Str("hash", hash).Msg("Find asset")
	}

	for _, candidate := range AssetCandidates(name, hash, level) {
		if h.lastFoundAsset != candidate {
			h.lastFoundAsset = candidate
			h.trace(resource.Assets).Str("name", candidate).Msg("Try asset")
		}

		path, ok := h.memory.GetAssetPath(candidate)
		if !ok {
			continue
		}

		res, err := texture.Load(texture.Replacement{Type: texture.TypePNG, Path: path})
		if err != nil {
			log.Error().Err(err).Str("name", candidate).Msg("Failed to load asset replacement")
			continue
		}

		if h.lastLoadedAsset != candidate {
			log.Info().Str("name", candidate).Str("path", path).Msg("Loaded asset")
		}
		h.lastLoadedAsset = candidate
		return res, true
	}

	h.dumper.Asset(hash, level, name)
	return nil, false
}
