package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"yatranslator/internal/resource"
	"yatranslator/internal/translation"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const envPrefix = "YAT_"

type Config struct {
	TranslationsPath        string
	Load                    resource.Type
	MemoryOptimizations     translation.Optimizations
	RetranslateText         bool
	EnableTranslationReload bool
	Dump                    resource.Type
	DumpLevels              []int
	DumpPath                string
	DumpDatabaseURL         string
	Verbosity               resource.Type
	LogLevel                zerolog.Level
	Workers                 int

	// dumpPathSet records whether DumpPath came from the settings rather
	// than from the translations path.
	dumpPathSet bool
}

// Load reads .env, the optional file named by YAT_CONFIG and the YAT_*
// environment. Environment values override the file.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	file, err := readFile(os.Getenv(envPrefix + "CONFIG"))
	if err != nil {
		log.Warn().Err(err).Msg("Ignoring config file")
		file = nil
	}
	return build(source{file: file})
}

// LoadFile reads settings from path only, ignoring the environment.
func LoadFile(path string) (*Config, error) {
	file, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return build(source{file: file, noEnv: true}), nil
}

func readFile(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}

	values := make(map[string]any)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("decode yaml config: %w", err)
		}
	case ".toml":
		if _, err := toml.DecodeFile(path, &values); err != nil {
			return nil, fmt.Errorf("decode toml config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file type %q", ext)
	}
	return values, nil
}

// source resolves a setting from the environment first, then the file.
// File keys are the snake_case setting names, env keys the same name in
// upper case with the YAT_ prefix.
type source struct {
	file  map[string]any
	noEnv bool
}

func (s source) get(key string) string {
	if !s.noEnv {
		if v := os.Getenv(envPrefix + strings.ToUpper(key)); v != "" {
			return v
		}
	}
	v, ok := s.file[key]
	if !ok || v == nil {
		return ""
	}
	if list, ok := v.([]any); ok {
		parts := make([]string, len(list))
		for i, item := range list {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, "|")
	}
	return fmt.Sprint(v)
}

func build(s source) *Config {
	cfg := &Config{
		TranslationsPath:        getString(s, "translations_path", "Translations"),
		Load:                    getTypes(s, "load", resource.All),
		MemoryOptimizations:     getOptimizations(s, "memory_optimizations", translation.OptNone),
		RetranslateText:         getBool(s, "retranslate", false),
		EnableTranslationReload: getBool(s, "enable_reload", false),
		Dump:                    getTypes(s, "dump", resource.None),
		DumpLevels:              getLevels(s, "dump_levels"),
		DumpDatabaseURL:         getString(s, "dump_database_url", ""),
		Verbosity:               getTypes(s, "verbosity", resource.None),
		LogLevel:                getLogLevel(s, "log_level", zerolog.InfoLevel),
		Workers:                 getInt(s, "workers", 4),
	}
	cfg.DumpPath = getString(s, "dump_path", defaultDumpPath(cfg.TranslationsPath))
	cfg.dumpPathSet = s.get("dump_path") != ""

	if cfg.Workers < 1 {
		log.Warn().Int("workers", cfg.Workers).Msg("Invalid worker count, using 1")
		cfg.Workers = 1
	}
	return cfg
}

func defaultDumpPath(translationsPath string) string {
	return filepath.Join(filepath.Dir(filepath.Clean(translationsPath)), "TranslationDumps")
}

// SetTranslationsPath overrides the translations root. A DumpPath that was
// not configured explicitly follows the new root.
func (c *Config) SetTranslationsPath(path string) {
	c.TranslationsPath = path
	if !c.dumpPathSet {
		c.DumpPath = defaultDumpPath(path)
	}
}

// MemoryOptions maps the settings onto translation memory options.
func (c *Config) MemoryOptions() translation.Options {
	return translation.Options{
		Root:          c.TranslationsPath,
		Load:          c.Load,
		Optimizations: c.MemoryOptimizations,
		Retranslate:   c.RetranslateText,
		Verbosity:     c.Verbosity,
		Workers:       c.Workers,
	}
}

func invalid(key, value string, err error) {
	log.Warn().Err(err).Str("key", key).Str("value", value).Msg("Invalid config value, using default")
}

func getString(s source, key, fallback string) string {
	if v := s.get(key); v != "" {
		return v
	}
	return fallback
}

func getInt(s source, key string, fallback int) int {
	v := s.get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		invalid(key, v, err)
		return fallback
	}
	return n
}

func getBool(s source, key string, fallback bool) bool {
	v := s.get(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		invalid(key, v, err)
		return fallback
	}
	return b
}

func getTypes(s source, key string, fallback resource.Type) resource.Type {
	v := s.get(key)
	if v == "" {
		return fallback
	}
	t, err := resource.Parse(v)
	if err != nil {
		invalid(key, v, err)
		return fallback
	}
	return t
}

func getOptimizations(s source, key string, fallback translation.Optimizations) translation.Optimizations {
	v := s.get(key)
	if v == "" {
		return fallback
	}
	o, err := translation.ParseOptimizations(v)
	if err != nil {
		invalid(key, v, err)
		return fallback
	}
	return o
}

func getLogLevel(s source, key string, fallback zerolog.Level) zerolog.Level {
	v := s.get(key)
	if v == "" {
		return fallback
	}
	l, err := zerolog.ParseLevel(strings.ToLower(v))
	if err != nil {
		invalid(key, v, err)
		return fallback
	}
	return l
}

// getLevels parses a pipe or comma separated level list. Invalid entries
// are skipped; an empty result means every level.
func getLevels(s source, key string) []int {
	v := s.get(key)
	var levels []int
	for _, part := range strings.FieldsFunc(v, func(r rune) bool { return r == '|' || r == ',' }) {
		part = strings.TrimSpace(part)
		n, err := strconv.Atoi(part)
		if err != nil {
			invalid(key, part, err)
			continue
		}
		levels = append(levels, n)
	}
	if len(levels) == 0 {
		return []int{-1}
	}
	return levels
}
