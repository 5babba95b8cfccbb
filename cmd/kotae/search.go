package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperjump/kotae/internal/cli"
	"github.com/hyperjump/kotae/internal/models"
)

type searchOptions struct {
	serverURL string
	direct    bool
	limit     int
	offline   bool
	live      bool
	output    string
}

func newSearchCmd(opts *globalOptions) *cobra.Command {
	var so searchOptions
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the offline index and live web snippets",
		Long: `Search the offline index and live web snippets.

The query is all arguments joined by spaces. Results from both sources are
merged by score. Use --offline or --live to restrict to one source.

Examples:
  kotae search who designed the eiffel tower
  kotae search --offline --limit 5 "when was the colosseum built"
  kotae search --direct --output json "capital of australia"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := buildSearchQuery(args)
			if query == "" {
				return errors.New("query cannot be empty")
			}
			return runSearch(cmd, opts, so, query)
		},
	}
	cmd.Flags().StringVar(&so.serverURL, "server", defaultServerURL, "server URL")
	cmd.Flags().BoolVar(&so.direct, "direct", false, "load the index in-process instead of calling the server")
	cmd.Flags().IntVarP(&so.limit, "limit", "n", models.DefaultLimit, "number of results")
	cmd.Flags().BoolVar(&so.offline, "offline", false, "search the offline index only")
	cmd.Flags().BoolVar(&so.live, "live", false, "search live snippets only")
	cmd.Flags().StringVarP(&so.output, "output", "o", "text", "output format: text, compact or json")
	return cmd
}

func runSearch(cmd *cobra.Command, opts *globalOptions, so searchOptions, query string) error {
	format, err := cli.ParseOutputFormat(so.output)
	if err != nil {
		return err
	}
	searchQuery := &models.SearchQuery{
		Query:          query,
		Limit:          so.limit,
		OfflineEnabled: so.offline,
		LiveEnabled:    so.live,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var response *models.SearchResponse
	if so.direct || so.serverURL == "" {
		cfg, logger, err := setup(opts)
		if err != nil {
			return err
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			return err
		}
		defer components.Close()
		response, err = components.Engine.Search(ctx, searchQuery)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
	} else {
		response, err = searchViaHTTP(ctx, so.serverURL, searchQuery)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
	}
	return cli.WriteSearchResults(cmd.OutOrStdout(), response, format)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func searchViaHTTP(ctx context.Context, serverURL string, query *models.SearchQuery) (*models.SearchResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(serverURL, "/")+"/api/v1/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}
