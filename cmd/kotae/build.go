package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/corpus"
	"github.com/hyperjump/kotae/internal/index"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vector"
)

type buildOptions struct {
	corpusPath string
	outPath    string
	pruneCache bool
}

func newBuildCmd(opts *globalOptions) *cobra.Command {
	var bo buildOptions
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the offline index artifact from the corpus",
		Long: `Build the offline index artifact from the corpus.

Without --corpus the corpus named by index.corpus_name is looked up in
storage.data_dir (CSV, then XLSX, then SQuAD JSON). The artifact is written
atomically, so a running server keeps serving the previous one until it
reloads.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, opts, bo)
		},
	}
	cmd.Flags().StringVar(&bo.corpusPath, "corpus", "", "corpus file (.csv, .xlsx or .json); default: locate in data_dir")
	cmd.Flags().StringVar(&bo.outPath, "out", "", "artifact path; default: storage.artifact_path")
	cmd.Flags().BoolVar(&bo.pruneCache, "prune-cache", false, "drop cached embeddings from other encoders after the build")
	return cmd
}

func runBuild(cmd *cobra.Command, opts *globalOptions, bo buildOptions) error {
	cfg, logger, err := setup(opts)
	if err != nil {
		return err
	}
	defer logger.Sync()

	outPath := bo.outPath
	if outPath == "" {
		outPath = cfg.Storage.ArtifactPath
	}

	embedder, store, err := newEmbedder(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = embedder.Close()
		if store != nil {
			_ = store.Close()
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	builder := index.NewBuilder(embedder, &cfg.Index, index.WithLogger(logger))
	var artifact *vector.Artifact
	if bo.corpusPath != "" {
		src, srcErr := corpus.SourceFromPath(bo.corpusPath)
		if srcErr != nil {
			return srcErr
		}
		artifact, err = builder.Build(ctx, src, outPath)
	} else {
		artifact, err = builder.BuildFromDir(ctx, cfg.Storage.DataDir, outPath)
	}
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	if bo.pruneCache && store != nil {
		n, err := store.Prune(ctx, embedder.ID())
		if err != nil {
			logger.Warn("embedding cache prune failed", zap.Error(err))
		} else {
			logger.Info("embedding cache pruned", zap.Int64("removed", n))
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Index written to %s\n", outPath)
	fmt.Fprintf(out, "  passages:   %d\n", artifact.Len())
	fmt.Fprintf(out, "  dimensions: %d\n", artifact.Dim())
	fmt.Fprintf(out, "  encoder:    %s\n", artifact.EncoderID)
	fmt.Fprintf(out, "  size:       %.2f MB\n", float64(storage.FileSize(outPath))/(1024*1024))
	return nil
}
