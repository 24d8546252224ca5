// Package main provides the CLI entrypoint for shortwave.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/e-frolov/shortwave/internal/config"
	"github.com/e-frolov/shortwave/internal/freq"
	"github.com/e-frolov/shortwave/internal/infer"
	"github.com/e-frolov/shortwave/internal/message"
	"github.com/e-frolov/shortwave/internal/render"
	"github.com/e-frolov/shortwave/internal/seenlog"
	"github.com/e-frolov/shortwave/internal/session"
	"github.com/e-frolov/shortwave/internal/vocab"
)

var (
	flagVerbose    bool
	flagGroupCount int
	flagDBPath     string
	flagSeenPath   string
	flagVocabPath  string

	processConfirm string

	topNamespace string
	topCount     int

	fetchURL string

	logger *zap.Logger
)

func main() {
	rootCmd := newRootCmd()
	defer func() {
		if logger != nil {
			// Best-effort flush of buffered log entries.
			_ = logger.Sync()
		}
	}()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "shortwave",
		Short:         "Substitution-cipher decoding assistant for intercepted radio traffic",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg := zap.NewProductionConfig()
			if flagVerbose {
				cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = cfg.Build()
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")
	rootCmd.PersistentFlags().IntVar(&flagGroupCount, "group-count", infer.DefaultGroupCount, "corroborating words required for a full candidate")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", config.DefaultDBPath(), "frequency database path")
	rootCmd.PersistentFlags().StringVar(&flagSeenPath, "seen", config.DefaultSeenLogPath(), "seen-message log path")
	rootCmd.PersistentFlags().StringVar(&flagVocabPath, "vocab", config.DefaultVocabPath(), "dictionary word list path")

	rootCmd.AddCommand(newProcessCmd())
	rootCmd.AddCommand(newTopCmd())
	rootCmd.AddCommand(newVocabCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func newProcessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process [TEXT]",
		Short: "Process one corrected message (argument or stdin)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runProcessCmd,
	}
	cmd.Flags().StringVar(&processConfirm, "confirm", "", "confirmed key (e.g. 2-2-2-2-2) to feed the decode back")
	return cmd
}

func runProcessCmd(cmd *cobra.Command, args []string) error {
	if err := applyFileConfig(cmd); err != nil {
		return err
	}

	text, err := readMessageText(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("message text is empty")
	}

	dict, err := loadDictionary()
	if err != nil {
		return err
	}
	coord, closeStores, err := openCoordinator(dict)
	if err != nil {
		return err
	}
	defer closeStores()

	ctx := context.Background()
	var outcome session.Outcome
	if processConfirm != "" {
		key, err := parseKey(processConfirm)
		if err != nil {
			return err
		}
		// The seen gate does not apply to confirmations; the message
		// was already processed once.
		msg := message.Parse(text, dict)
		outcome, err = coord.ConfirmKey(ctx, msg, key)
		if err != nil {
			return err
		}
	} else {
		outcome, err = coord.Process(ctx, text)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	return render.Outcome(out, outcome, render.ShouldUseColor(out, false))
}

func newTopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Show the most frequent known words",
		Args:  cobra.NoArgs,
		RunE:  runTopCmd,
	}
	cmd.Flags().StringVar(&topNamespace, "ns", "body", "namespace: body, sender or receiver")
	cmd.Flags().IntVar(&topCount, "n", 20, "number of words")
	return cmd
}

func runTopCmd(cmd *cobra.Command, _ []string) error {
	if err := applyFileConfig(cmd); err != nil {
		return err
	}
	ns, err := parseNamespace(topNamespace)
	if err != nil {
		return err
	}

	store, err := freq.Open(flagDBPath)
	if err != nil {
		return fmt.Errorf("failed to open frequency db: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logErrf("failed to close frequency db: %v\n", cerr)
		}
	}()

	return render.TopTable(cmd.OutOrStdout(), ns, store.Top(ns, topCount))
}

func newVocabCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Manage the dictionary word list",
	}
	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the dictionary word list",
		Args:  cobra.NoArgs,
		RunE:  runVocabFetchCmd,
	}
	fetchCmd.Flags().StringVar(&fetchURL, "url", vocab.DefaultURL, "word list URL")
	cmd.AddCommand(fetchCmd)
	return cmd
}

func runVocabFetchCmd(cmd *cobra.Command, _ []string) error {
	if err := applyFileConfig(cmd); err != nil {
		return err
	}
	res, err := vocab.Fetch(context.Background(), fetchURL, flagVocabPath)
	if err != nil {
		return fmt.Errorf("failed to fetch word list: %w", err)
	}
	if res.Cached {
		logErrf("Using cached word list %s\n", res.Path)
	} else {
		logErrf("Downloaded word list to %s\n", res.Path)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyFileConfig(cmd *cobra.Command) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "group-count", &flagGroupCount, fileCfg.Decoder.GroupCount)
	applyStringConfig(cmd, "db", &flagDBPath, fileCfg.Decoder.DBPath)
	applyStringConfig(cmd, "seen", &flagSeenPath, fileCfg.Decoder.SeenPath)
	applyStringConfig(cmd, "vocab", &flagVocabPath, fileCfg.Decoder.VocabPath)
	if cmd.Flags().Lookup("url") != nil {
		applyStringConfig(cmd, "url", &fetchURL, fileCfg.Decoder.VocabURL)
	}
	if flagGroupCount <= 0 {
		return fmt.Errorf("--group-count must be > 0")
	}
	return nil
}

func loadDictionary() (*vocab.Dictionary, error) {
	dict, err := vocab.Load(flagVocabPath)
	if err != nil {
		lines := []string{
			fmt.Sprintf("failed to load dictionary: %v", err),
			fmt.Sprintf("expected word list at: %s", flagVocabPath),
			"Download: shortwave vocab fetch",
		}
		return nil, fmt.Errorf("%s", strings.Join(lines, "\n"))
	}
	return dict, nil
}

func openCoordinator(dict *vocab.Dictionary) (*session.Coordinator, func(), error) {
	store, err := freq.Open(flagDBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open frequency db: %w", err)
	}
	seen, err := seenlog.Open(flagSeenPath)
	if err != nil {
		if cerr := store.Close(); cerr != nil {
			logErrf("failed to close frequency db: %v\n", cerr)
		}
		return nil, nil, fmt.Errorf("failed to open seen log: %w", err)
	}
	closeStores := func() {
		if cerr := seen.Close(); cerr != nil {
			logErrf("failed to close seen log: %v\n", cerr)
		}
		if cerr := store.Close(); cerr != nil {
			logErrf("failed to close frequency db: %v\n", cerr)
		}
	}
	coord := session.New(dict, store, seen, logger, session.Options{GroupCount: flagGroupCount})
	return coord, closeStores, nil
}

func readMessageText(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read message from stdin: %w", err)
	}
	return string(data), nil
}

func parseKey(value string) ([]int, error) {
	parts := strings.Split(value, "-")
	key := make([]int, 0, len(parts))
	for _, part := range parts {
		off, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || off < 0 {
			return nil, fmt.Errorf("invalid key %q: offsets are dash-joined non-negative numbers", value)
		}
		key = append(key, off)
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("key is empty")
	}
	return key, nil
}

func parseNamespace(value string) (freq.Namespace, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "body":
		return freq.Body, nil
	case "sender":
		return freq.Sender, nil
	case "receiver":
		return freq.Receiver, nil
	}
	return "", fmt.Errorf("unknown namespace %q (body, sender or receiver)", value)
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# shortwave configuration
# Uncomment a value to enable it. CLI flags override config values.

[decoder]
# group-count = %d        # Corroborating words required for a full candidate
# vocab-url = %q
# vocab-path = %q
# db-path = %q
# seen-path = %q
`,
		infer.DefaultGroupCount,
		vocab.DefaultURL,
		config.DefaultVocabPath(),
		config.DefaultDBPath(),
		config.DefaultSeenLogPath(),
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
