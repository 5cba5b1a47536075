package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"yatranslator/internal/config"
	"yatranslator/internal/dump"
	"yatranslator/internal/hook"
	"yatranslator/internal/resource"
	"yatranslator/internal/texture"
	"yatranslator/internal/textutil"
	"yatranslator/internal/translation"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	levelCommand  = ":level"
	reloadCommand = ":reload"
)

// Execute runs the CLI application.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd := &cobra.Command{
		Use:          "yatranslator",
		Short:        "Runtime text and texture override engine",
		Long:         "Resolves displayed strings, textures and asset images against a directory of translation tables and override files.",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("translations", "", "Translations root (overrides YAT_TRANSLATIONS_PATH)")

	rootCmd.AddCommand(lookupCmd())
	rootCmd.AddCommand(translateCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(textureCmd())
	rootCmd.AddCommand(assetCmd())

	return rootCmd
}

func lookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <text>",
		Short: "Translate a single string on a level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, _ := cmd.Flags().GetInt("level")
			asJSON, _ := cmd.Flags().GetBool("json")
			return runLookup(cmd, args[0], level, asJSON)
		},
	}
	cmd.Flags().Int("level", 0, "Level to activate before the lookup")
	cmd.Flags().Bool("json", false, "Print the result as JSON")
	return cmd
}

func translateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate lines read from stdin",
		Long: `Reads one escaped string per line from stdin and prints its translation,
or the input when none exists. Control lines:
  :level N   switch to level N
  :reload    reload the translations (needs YAT_ENABLE_RELOAD)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			level, _ := cmd.Flags().GetInt("level")
			return runTranslate(cmd, level)
		},
	}
	cmd.Flags().Int("level", 0, "Initial level")
	return cmd
}

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show what is cached for a level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			level, _ := cmd.Flags().GetInt("level")
			asJSON, _ := cmd.Flags().GetBool("json")
			return runStats(cmd, level, asJSON)
		},
	}
	cmd.Flags().Int("level", 0, "Level to activate")
	cmd.Flags().Bool("json", false, "Print the counts as JSON")
	return cmd
}

func textureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "texture",
		Short: "Inspect texture overrides",
	}

	resolve := &cobra.Command{
		Use:   "resolve <name>",
		Short: "Show the override for an archive texture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTextureResolve(cmd, args[0])
		},
	}

	preview := &cobra.Command{
		Use:   "preview <name> <out.png>",
		Short: "Write a scaled PNG preview of a texture override",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, _ := cmd.Flags().GetUint("size")
			return runTexturePreview(cmd, args[0], args[1], size)
		},
	}
	preview.Flags().Uint("size", 256, "Maximum preview width and height")

	cmd.AddCommand(resolve, preview)
	return cmd
}

func assetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "asset",
		Short: "Inspect asset overrides",
	}

	resolve := &cobra.Command{
		Use:   "resolve <name>",
		Short: "Show which override an asset texture resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, _ := cmd.Flags().GetString("meta")
			level, _ := cmd.Flags().GetInt("level")
			return runAssetResolve(cmd, args[0], meta, level)
		},
	}
	resolve.Flags().String("meta", "", "Material or atlas name of the asset")
	resolve.Flags().Int("level", 0, "Level the asset is shown on")

	cmd.AddCommand(resolve)
	return cmd
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Warn().Msg("Received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

// session bundles the memory with the hook handler and dumper around it.
type session struct {
	cfg     *config.Config
	memory  *translation.Memory
	dumper  *dump.Dumper
	handler *hook.Handler
}

// newSession loads the configuration and every enabled translation.
func newSession(ctx context.Context, cmd *cobra.Command) *session {
	cfg := config.Load()
	if root, _ := cmd.Flags().GetString("translations"); root != "" {
		cfg.SetTranslationsPath(root)
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	memory := translation.NewMemory(cfg.MemoryOptions())
	memory.LoadTranslations()

	dumper := newDumper(ctx, cfg)
	return &session{
		cfg:     cfg,
		memory:  memory,
		dumper:  dumper,
		handler: hook.NewHandler(memory, dumper, cfg.Verbosity),
	}
}

func newDumper(ctx context.Context, cfg *config.Config) *dump.Dumper {
	if cfg.Dump == resource.None {
		return nil
	}

	open := dump.OpenFile(cfg.DumpPath)
	if cfg.DumpDatabaseURL != "" {
		open = dump.OpenPostgres(cfg.DumpDatabaseURL)
	}
	return dump.New(ctx, dump.Options{
		Types:  cfg.Dump,
		Levels: cfg.DumpLevels,
		Open:   open,
	})
}

func (rt *session) close() {
	if err := rt.dumper.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close translation dump")
	}
}

type lookupOutput struct {
	Text        string `json:"text"`
	Translation string `json:"translation"`
	Result      string `json:"result"`
	Level       int    `json:"level"`
}

func runLookup(cmd *cobra.Command, text string, level int, asJSON bool) error {
	ctx, cancel := setupContext()
	defer cancel()

	rt := newSession(ctx, cmd)
	defer rt.close()

	rt.memory.ActivateLevelTranslations(level, true)
	res := rt.memory.GetTextTranslation(textutil.Unescape(text))

	if asJSON {
		return writeJSON(cmd.OutOrStdout(), lookupOutput{
			Text:        text,
			Translation: res.Text,
			Result:      res.Result.String(),
			Level:       level,
		})
	}

	if !res.Found() {
		return fmt.Errorf("no translation for %q on level %d", text, level)
	}
	fmt.Fprintln(cmd.OutOrStdout(), textutil.Escape(res.Text))
	return nil
}

func runTranslate(cmd *cobra.Command, level int) error {
	ctx, cancel := setupContext()
	defer cancel()

	rt := newSession(ctx, cmd)
	defer rt.close()

	rt.memory.ActivateLevelTranslations(level, true)
	return rt.translateLines(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), level)
}

// translateLines plays the host loop: every input line is a displayed
// string, control lines switch level or reload.
func (rt *session) translateLines(ctx context.Context, in io.Reader, out io.Writer, level int) error {
	w := bufio.NewWriter(out)
	defer w.Flush()

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	lines, translated := 0, 0
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, levelCommand+" "):
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, levelCommand)))
			if err != nil {
				log.Warn().Str("line", line).Msg("Invalid level command")
				continue
			}
			level = n
			rt.memory.ActivateLevelTranslations(level, true)
			continue
		case line == reloadCommand:
			if !rt.cfg.EnableTranslationReload {
				log.Warn().Msg("Translation reload is disabled")
				continue
			}
			log.Info().Msg("Reloading translations")
			rt.memory.LoadTranslations()
			rt.memory.ActivateLevelTranslations(level, true)
			continue
		}

		lines++
		text := textutil.Unescape(line)
		if tr, ok := rt.handler.OnTranslateString(text, level); ok {
			text = tr
			translated++
		}
		if _, err := fmt.Fprintln(w, textutil.Escape(text)); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	log.Info().Int("lines", lines).Int("translated", translated).Msg("Translation complete")
	return nil
}

func runStats(cmd *cobra.Command, level int, asJSON bool) error {
	ctx, cancel := setupContext()
	defer cancel()

	rt := newSession(ctx, cmd)
	defer rt.close()

	rt.memory.ActivateLevelTranslations(level, true)
	st := rt.memory.Stats(level)

	if asJSON {
		return writeJSON(cmd.OutOrStdout(), st)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "root:      %s\n", rt.memory.TranslationsRoot())
	fmt.Fprintf(out, "global:    %d files, %d strings, %d regexes\n", st.GlobalFiles, st.GlobalStrings, st.GlobalRegexes)
	fmt.Fprintf(out, "level %d:   %d files, %d strings, %d regexes (loaded: %v)\n",
		st.Level, st.LevelFiles, st.LevelStrings, st.LevelRegexes, st.LevelLoaded)
	fmt.Fprintf(out, "levels:    %d\n", st.Levels)
	fmt.Fprintf(out, "textures:  %d\n", st.Textures)
	fmt.Fprintf(out, "assets:    %d\n", st.Assets)
	return nil
}

func runTextureResolve(cmd *cobra.Command, name string) error {
	ctx, cancel := setupContext()
	defer cancel()

	rt := newSession(ctx, cmd)
	defer rt.close()

	key := hook.TextureName(strings.ReplaceAll(name, ".tex", ""))
	repl := rt.memory.GetTexture(key)
	res, ok := rt.handler.OnArcTextureLoad(name)
	if !ok {
		return fmt.Errorf("no texture override for %q", key)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%dx%d\n", key, repl.Type, repl.Path, res.Width, res.Height)
	return nil
}

func runTexturePreview(cmd *cobra.Command, name, outPath string, size uint) error {
	ctx, cancel := setupContext()
	defer cancel()

	rt := newSession(ctx, cmd)
	defer rt.close()

	key := hook.TextureName(strings.ReplaceAll(name, ".tex", ""))
	repl := rt.memory.GetTexture(key)
	if repl.None() {
		return fmt.Errorf("no texture override for %q", key)
	}

	img, err := texture.Thumbnail(repl, size, size)
	if err != nil {
		return fmt.Errorf("preview %s: %w", key, err)
	}
	if err := texture.SavePNG(outPath, img); err != nil {
		return err
	}

	b := img.Bounds()
	log.Info().Str("texture", key).Str("out", outPath).Int("width", b.Dx()).Int("height", b.Dy()).Msg("Preview written")
	return nil
}

func runAssetResolve(cmd *cobra.Command, name, meta string, level int) error {
	ctx, cancel := setupContext()
	defer cancel()

	rt := newSession(ctx, cmd)
	defer rt.close()

	key := hook.TextureName(name)
	hash := hook.CompoundHash(key, meta)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "hash:\t%s\n", hash)

	for _, candidate := range hook.AssetCandidates(key, hash, level) {
		path, ok := rt.memory.GetAssetPath(candidate)
		if !ok {
			fmt.Fprintf(out, "miss:\t%s\n", candidate)
			continue
		}
		fmt.Fprintf(out, "hit:\t%s\t%s\n", candidate, path)
		break
	}

	if _, ok := rt.handler.OnAssetTextureLoad(name, meta, level); !ok {
		return fmt.Errorf("no asset override for %q", key)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
