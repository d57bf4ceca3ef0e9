package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/forPelevin/recut/internal/types"
)

func slogReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.SourceKey {
		if source, ok := a.Value.Any().(*slog.Source); ok && source.File != "" {
			source.File = filepath.Base(source.File)
		}
	}
	return a
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		AddSource:   verbose,
		Level:       level,
		ReplaceAttr: slogReplaceAttr,
	}))
}

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := newRootCmd()
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "recut",
		Short:         "Transcript-driven audio cleanup and shorts cutting",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.String("out", "out", "Output directory")
	pf.String("cache", ".cache", "Cache directory for audio, transcripts and downloads")
	pf.String("policy", "", "YAML policy file")
	pf.String("asr", getenvDefault("RECUT_ASR", "whispercpp"), "Speech recognizer: whispercpp, deepgram or openai")
	pf.String("whisper-bin", getenvDefault("WHISPER_BIN", ".cache/bin/whisper-cli"), "whisper.cpp binary")
	pf.String("whisper-model", getenvDefault("WHISPER_MODEL", ".cache/models/ggml-base.bin"), "whisper.cpp model")
	pf.BoolP("verbose", "v", false, "Debug logging")

	dedupe := &cobra.Command{
		Use:   "dedupe <input>",
		Short: "Drop repeated words and phrases, keeping the clean take of each",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, types.ModeDedupe, args[0])
		},
	}

	clean := &cobra.Command{
		Use:   "clean <input>",
		Short: "Remove fillers and long pauses and beep profanity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, types.ModeClean, args[0])
		},
	}
	clean.Flags().StringSlice("profanity", nil, "Extra words or phrases to beep")
	clean.Flags().Bool("llm", false, "Also ask the language model for duplicated utterances")

	shorts := &cobra.Command{
		Use:   "shorts <input or URL>",
		Short: "Cut vertical short clips with burned-in captions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, types.ModeShorts, args[0])
		},
	}
	shorts.Flags().Int("count", 0, "Number of shorts (policy default when 0)")
	shorts.Flags().Int("min", 0, "Min short duration seconds (policy default when 0)")
	shorts.Flags().Int("max", 0, "Max short duration seconds (policy default when 0)")

	root.AddCommand(dedupe, clean, shorts)
	return root
}
