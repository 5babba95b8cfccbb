package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/cli"
	"github.com/hyperjump/kotae/internal/index"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vector"
)

type statusOptions struct {
	serverURL string
	output    string
}

// statusResponse is the subset of GET /api/v1/status the command prints.
type statusResponse struct {
	Index          index.Status `json:"index"`
	DiskUsageBytes *int64       `json:"disk_usage_bytes,omitempty"`
}

func newStatusCmd(opts *globalOptions) *cobra.Command {
	var so statusOptions
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index artifact status",
		Long: `Show index artifact status: encoder, passage count, dimensions, file size
and disk usage. With --server "" the artifact is read from disk directly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, opts, so)
		},
	}
	cmd.Flags().StringVar(&so.serverURL, "server", "", "server URL (empty = read the artifact from disk)")
	cmd.Flags().StringVarP(&so.output, "output", "o", "text", "output format: text or json")
	return cmd
}

func runStatus(cmd *cobra.Command, opts *globalOptions, so statusOptions) error {
	format, err := cli.ParseOutputFormat(so.output)
	if err != nil {
		return err
	}
	var status statusResponse
	if so.serverURL != "" {
		res, err := statusViaHTTP(cmd.Context(), so.serverURL)
		if err != nil {
			return fmt.Errorf("status failed: %w", err)
		}
		status = *res
	} else {
		cfg, logger, err := setup(opts)
		if err != nil {
			return err
		}
		defer logger.Sync()
		status, err = localStatus(cfg.Storage.ArtifactPath, cfg.Storage.EmbeddingCachePath, logger)
		if err != nil {
			return err
		}
	}
	return cli.WriteStatus(cmd.OutOrStdout(), status.Index, status.DiskUsageBytes, format)
}

// localStatus reads the artifact without an encoder. A missing artifact is reported as not
// loaded; a corrupt one is an error (and is removed by the loader).
func localStatus(artifactPath, cachePath string, logger *zap.Logger) (statusResponse, error) {
	var a *vector.Artifact
	loaded, err := index.Load(artifactPath)
	switch {
	case err == nil:
		a = loaded
	case errors.Is(err, index.ErrMissingArtifact):
		logger.Debug("no index artifact", zap.String("path", artifactPath))
	default:
		return statusResponse{}, err
	}
	res := statusResponse{Index: index.StatusOf(artifactPath, a)}
	paths := append([]string{artifactPath}, storage.SQLiteFiles(cachePath)...)
	if usage, err := storage.DiskUsageBytes(paths...); err == nil {
		res.DiskUsageBytes = &usage
	}
	return res, nil
}

func statusViaHTTP(ctx context.Context, serverURL string) (*statusResponse, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(serverURL, "/")+"/api/v1/status", nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}
