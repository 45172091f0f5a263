package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/nwocg/internal/compiler"
	"github.com/roach88/nwocg/internal/ir"
	"github.com/roach88/nwocg/internal/reader"
	"github.com/roach88/nwocg/internal/store"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Prefix  string
	OutDir  string
	Header  bool
	Stdout  bool
	History string // SQLite history database; empty disables recording
}

// GenerateResult describes one generate invocation.
type GenerateResult struct {
	Model  string         `json:"model"`
	Prefix string         `json:"prefix"`
	Files  []string       `json:"files,omitempty"`
	Source string         `json:"source,omitempty"` // only with --stdout
	Stats  compiler.Stats `json:"stats"`
	Run    *store.Run     `json:"run,omitempty"`

	// Unchanged is set when the previous recorded run of the same model
	// produced identical artifacts.
	Unchanged bool `json:"unchanged,omitempty"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <model>",
		Short: "Generate C code from a model",
		Long: `Generate C code from a block-diagram model.

Reads the model, builds the dataflow graph, schedules it and writes
<prefix>.c (and unless --header=false, <prefix>_run.h) into --out-dir.
The model format is chosen by extension: .xml .json .yaml .yml .cue .hcl.

Examples:
  nwocg generate model.xml
  nwocg generate model.xml --prefix motor --out-dir gen/
  nwocg generate model.yaml --stdout
  nwocg generate model.xml --history nwocg.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.merge(cmd)
			return runGenerate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Prefix, "prefix", "", "identifier prefix for generated symbols (default "+compiler.DefaultPrefix+")")
	cmd.Flags().StringVarP(&opts.OutDir, "out-dir", "o", ".", "directory for generated files")
	cmd.Flags().BoolVar(&opts.Header, "header", true, "also write the companion header")
	cmd.Flags().BoolVar(&opts.Stdout, "stdout", false, "print the source instead of writing files")
	cmd.Flags().StringVar(&opts.History, "history", "", "record the run in this SQLite database")

	return cmd
}

// merge fills flags the user did not set from the config file.
func (o *GenerateOptions) merge(cmd *cobra.Command) {
	cfg := o.settings()
	flags := cmd.Flags()
	if !flags.Changed("prefix") {
		o.Prefix = cfg.Prefix
	}
	if !flags.Changed("out-dir") && cfg.OutputDir != "" {
		o.OutDir = cfg.OutputDir
	}
	if !flags.Changed("header") {
		o.Header = cfg.WantHeader()
	}
	if !flags.Changed("history") {
		o.History = cfg.HistoryDB
	}
}

func runGenerate(opts *GenerateOptions, modelPath string, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, opts.RootOptions)

	records, err := loadModel(modelPath)
	if err != nil {
		return outputModelError(formatter, classifyError(modelPath, err))
	}

	gen, err := compiler.Generate(records, compiler.Options{
		Prefix: opts.Prefix,
		Header: opts.Header && !opts.Stdout,
	})
	if err != nil {
		return outputModelError(formatter, classifyError(modelPath, err))
	}

	result := &GenerateResult{
		Model:  modelPath,
		Prefix: gen.Prefix,
		Stats:  gen.Stats,
	}

	if opts.Stdout {
		result.Source = string(gen.Source)
	} else {
		files, err := writeArtifacts(opts.OutDir, gen)
		if err != nil {
			return outputModelError(formatter, ModelError{
				Code:    reader.ErrCodeWriteFailed,
				Message: err.Error(),
				Path:    opts.OutDir,
			})
		}
		result.Files = files
	}

	if opts.History != "" {
		if err := recordHistory(cmd.Context(), opts.History, modelPath, records, gen, result); err != nil {
			return WrapExitError(ExitCommandError, "failed to record history", err)
		}
	}

	return outputGenerateSuccess(formatter, result)
}

// writeArtifacts writes the source and optional header, returning their
// paths. Both files are staged under temporary names and renamed into place
// only after every write succeeded, so a failure leaves no new artifact.
func writeArtifacts(dir string, gen *compiler.Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	artifacts := []artifact{{kind: "source", name: compiler.SourceFileName(gen.Prefix), data: gen.Source}}
	if gen.Header != nil {
		artifacts = append(artifacts, artifact{kind: "header", name: compiler.HeaderFileName(gen.Prefix), data: gen.Header})
	}

	staged := make([]string, 0, len(artifacts))
	discard := func(paths []string) {
		for _, p := range paths {
			_ = os.Remove(p)
		}
	}
	for _, a := range artifacts {
		tmp, err := stageFile(dir, a)
		if err != nil {
			discard(staged)
			return nil, fmt.Errorf("writing %s: %w", a.kind, err)
		}
		staged = append(staged, tmp)
	}

	files := make([]string, 0, len(artifacts))
	for i, a := range artifacts {
		path := filepath.Join(dir, a.name)
		if err := os.Rename(staged[i], path); err != nil {
			discard(files)
			discard(staged[i:])
			return nil, fmt.Errorf("writing %s: %w", a.kind, err)
		}
		files = append(files, path)
	}

	slog.Debug("artifacts written", "files", files)
	return files, nil
}

type artifact struct {
	kind string
	name string
	data []byte
}

// stageFile writes a.data to a hidden temporary file in dir.
func stageFile(dir string, a artifact) (string, error) {
	f, err := os.CreateTemp(dir, "."+a.name+".*.tmp")
	if err != nil {
		return "", err
	}
	_, werr := f.Write(a.data)
	cerr := f.Close()
	if err := errors.Join(werr, cerr, os.Chmod(f.Name(), 0644)); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// recordHistory appends the run and compares it with the previous run of
// the same model.
func recordHistory(ctx context.Context, dbPath, modelPath string, records ir.ModelRecords, gen *compiler.Result, result *GenerateResult) error {
	if ctx == nil {
		ctx = context.Background()
	}

	modelHash, err := ir.ModelHash(records)
	if err != nil {
		return err
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	prev, err := st.LatestRun(ctx, modelHash)
	if err != nil {
		return err
	}

	run := store.Run{
		ModelPath:        modelPath,
		ModelHash:        modelHash,
		Prefix:           gen.Prefix,
		SourceHash:       ir.ArtifactHash(gen.Source),
		Blocks:           gen.Stats.Blocks,
		Operations:       gen.Stats.Operations,
		Delays:           gen.Stats.Delays,
		GeneratorVersion: ir.GeneratorVersion,
		RecordVersion:    ir.RecordVersion,
	}
	if gen.Header != nil {
		run.HeaderHash = ir.ArtifactHash(gen.Header)
	}

	stored, err := st.RecordRun(ctx, run)
	if err != nil {
		return err
	}
	result.Run = &stored
	result.Unchanged = prev != nil &&
		prev.Prefix == stored.Prefix &&
		prev.SourceHash == stored.SourceHash &&
		prev.GeneratorVersion == stored.GeneratorVersion

	slog.Info("run recorded", "seq", stored.Seq, "model_hash", modelHash, "unchanged", result.Unchanged)
	return nil
}

// outputGenerateSuccess outputs the generation result.
func outputGenerateSuccess(formatter *Formatter, result *GenerateResult) error {
	if formatter.JSON() {
		return writeSuccess(formatter, result)
	}

	w := formatter.Writer
	if result.Source != "" {
		fmt.Fprint(w, result.Source)
		return nil
	}

	fmt.Fprintf(w, "✓ Generated %s: %d block(s), %d operation(s), %d delay(s)\n",
		result.Prefix, result.Stats.Blocks, result.Stats.Operations, result.Stats.Delays)
	if result.Stats.Unreached > 0 {
		fmt.Fprintf(w, "  %d unreached block(s) got no statement\n", result.Stats.Unreached)
	}
	for _, f := range result.Files {
		fmt.Fprintf(w, "  wrote %s\n", f)
	}
	if result.Run != nil {
		fmt.Fprintf(w, "  recorded run %d (%s)\n", result.Run.Seq, truncateID(result.Run.ID))
		if result.Unchanged {
			fmt.Fprintln(w, "  output unchanged since the previous run of this model")
		}
	}
	return nil
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
