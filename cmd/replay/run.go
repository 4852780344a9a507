package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gyaneshwarpardhi/logreplay/internal/analyzer/builtin"
	"github.com/gyaneshwarpardhi/logreplay/internal/api"
	"github.com/gyaneshwarpardhi/logreplay/internal/config"
	"github.com/gyaneshwarpardhi/logreplay/internal/engine"
	"github.com/gyaneshwarpardhi/logreplay/internal/log"
)

type runOptions struct {
	configPath string
	parallel   int
	failFast   bool
}

// fileResult is one line of the run output.
type fileResult struct {
	File   string         `json:"file"`
	Report *engine.Report `json:"report,omitempty"`
	Error  string         `json:"error,omitempty"`
}

func newRunCmd() *cobra.Command {
	opts := runOptions{}
	cmd := &cobra.Command{
		Use:   "run <file...>",
		Short: "Replay parse files and print one JSON report per file",
		Long: `Each file holds one parse in the same JSON shape the HTTP API accepts:
fight, combatant, an optional inline build and the sorted event list.
Files without an inline build use the build configured for the
combatant's class and spec.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFiles(cmd, opts, args)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "build configuration YAML")
	cmd.Flags().IntVarP(&opts.parallel, "parallel", "p", 4, "parses replayed concurrently")
	cmd.Flags().BoolVar(&opts.failFast, "fail-fast", false, "stop at the first failing file")
	return cmd
}

func runFiles(cmd *cobra.Command, opts runOptions, files []string) error {
	var cfg *config.BuildConfig
	if opts.configPath != "" {
		loader, err := config.NewLoader(opts.configPath)
		if err != nil {
			return err
		}
		cfg = loader.Config()
	}

	reg := builtin.Registry()
	if cfg != nil {
		if err := config.CheckTypes(cfg, reg.Has); err != nil {
			return err
		}
	}
	eng := engine.New(reg)
	logger := log.WithComponent("replay")

	results := make([]fileResult, len(files))
	g, ctx := errgroup.WithContext(cmd.Context())
	if opts.parallel > 0 {
		g.SetLimit(opts.parallel)
	}
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			rep, err := replayFile(ctx, eng, cfg, file)
			results[i] = fileResult{File: file, Report: rep}
			if err != nil {
				results[i].Error = err.Error()
				logger.Warn().Err(err).Str(log.FieldPath, file).Msg("replay failed")
				if opts.failFast {
					return fmt.Errorf("%s: %w", file, err)
				}
			}
			return nil
		})
	}
	runErr := g.Wait()

	enc := json.NewEncoder(cmd.OutOrStdout())
	failed := 0
	for _, r := range results {
		if r.File == "" {
			continue // not started before a fail-fast stop
		}
		if r.Error != "" {
			failed++
		}
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

func replayFile(ctx context.Context, eng *engine.Engine, cfg *config.BuildConfig, file string) (*engine.Report, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var req api.ParseRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("decode %s: %w", file, err)
	}
	p, err := req.Parse()
	if err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	}
	p, err = engine.ResolveBuild(cfg, p)
	if err != nil {
		return nil, err
	}
	return eng.Run(ctx, p)
}

func newModulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List registered module types and their dependencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := builtin.Registry()
			out := cmd.OutOrStdout()
			for _, t := range reg.Types() {
				deps := reg.Dependencies(t)
				if len(deps) == 0 {
					fmt.Fprintln(out, t)
					continue
				}
				fmt.Fprintf(out, "%s (reads %s)\n", t, strings.Join(deps, ", "))
			}
			return nil
		},
	}
}
