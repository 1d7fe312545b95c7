package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Conceptual-Machines/bidrohi/internal/app"
	"github.com/Conceptual-Machines/bidrohi/internal/config"
	"github.com/Conceptual-Machines/bidrohi/internal/generator"
	"github.com/Conceptual-Machines/bidrohi/internal/metrics"
	"github.com/Conceptual-Machines/bidrohi/internal/observability"
	"github.com/Conceptual-Machines/bidrohi/internal/presenter"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

type poemOptions struct {
	seed        string
	maxTokens   int
	temperature float64
	interval    time.Duration
	plain       bool
}

// shownError wraps a cycle error the terminal renderer has already displayed
type shownError struct {
	err error
}

func (e shownError) Error() string { return e.err.Error() }

func (e shownError) Unwrap() error { return e.err }

func main() {
	if err := newRootCommand().Execute(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints err unless the renderer already showed it
func reportError(w io.Writer, err error) {
	var shown shownError
	if errors.As(err, &shown) {
		return
	}
	fmt.Fprintf(w, "❌ %v\n", err)
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "bidrohi",
		Short:         "Generate Nazrul-style Bengali poems from a seed line",
		Version:       releaseVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newPoemCommand())
	return root
}

func newPoemCommand() *cobra.Command {
	opts := poemOptions{}

	cmd := &cobra.Command{
		Use:   "poem",
		Short: "Generate a poem and reveal it line by line",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()
			cfg := config.Load()
			if cmd.Flags().Changed("interval") {
				cfg.RevealInterval = opts.interval
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			core, err := app.BuildCore(ctx, cfg, metrics.NoopRecorder{}, observability.NewLangfuseClient(ctx, cfg))
			if err != nil {
				return err
			}

			return runPoem(ctx, core.Presenter, opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.seed, "seed", "s", "", "first line of the poem")
	cmd.Flags().IntVar(&opts.maxTokens, "max-tokens", generator.DefaultMaxTokens, "length of the poem (100-500)")
	cmd.Flags().Float64Var(&opts.temperature, "temperature", generator.DefaultTemperature, "creativity (0.0-1.0)")
	cmd.Flags().DurationVar(&opts.interval, "interval", presenter.DefaultRevealInterval, "pause between revealed lines")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "print each new line instead of redrawing the block")
	return cmd
}

func runPoem(ctx context.Context, p *presenter.Presenter, opts poemOptions, cmd *cobra.Command) error {
	renderer := newTerminalRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts.plain)
	outcome := p.Run(ctx, presenter.NewSession("cli"), presenter.Input{
		SeedLine:    opts.seed,
		MaxTokens:   opts.maxTokens,
		Temperature: opts.temperature,
	}, renderer)
	if outcome.Err != nil {
		return shownError{err: outcome.Err}
	}
	return nil
}
