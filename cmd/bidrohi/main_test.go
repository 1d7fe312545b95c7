package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/Conceptual-Machines/bidrohi/internal/config"
	"github.com/Conceptual-Machines/bidrohi/internal/generator"
	"github.com/Conceptual-Machines/bidrohi/internal/presenter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	result generator.Result
	got    generator.GenerationRequest
}

func (s *stubGenerator) Generate(_ context.Context, req generator.GenerationRequest) generator.Result {
	s.got = req
	return s.result
}

func TestTerminalRendererPlain(t *testing.T) {
	var out, errOut bytes.Buffer
	r := newTerminalRenderer(&out, &errOut, true)
	ctx := context.Background()

	require.NoError(t, r.Render(ctx, "এক\n"))
	require.NoError(t, r.Render(ctx, "এক\nদুই\n"))
	require.NoError(t, r.Notify(ctx, presenter.Notice{Kind: presenter.NoticeSuccess, Message: "done"}))

	assert.Equal(t, "এক\nদুই\n", out.String())
	assert.Equal(t, "✅ done\n", errOut.String())
}

func TestTerminalRendererRedraws(t *testing.T) {
	var out bytes.Buffer
	r := newTerminalRenderer(&out, &bytes.Buffer{}, false)
	ctx := context.Background()

	require.NoError(t, r.Render(ctx, "a\n"))
	require.NoError(t, r.Render(ctx, "a\nb\n"))

	assert.Equal(t, "a\n\033[1A\033[Ja\nb\n", out.String())
}

func TestRunPoemCommand(t *testing.T) {
	gen := &stubGenerator{result: generator.Result{Text: "প্রথম\n\nদ্বিতীয়"}}
	p := presenter.NewPresenter(gen, presenter.WithInterval(0))

	var out, errOut bytes.Buffer
	cmd := newPoemCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	err := runPoem(context.Background(), p, poemOptions{seed: "বল বীর", maxTokens: 9999, temperature: 0.5, plain: true}, cmd)

	require.NoError(t, err)
	assert.Equal(t, "প্রথম\nদ্বিতীয়\n", out.String())
	assert.True(t, strings.HasSuffix(errOut.String(), "✅ "+presenter.MessageComplete+"\n"))
	assert.Equal(t, 500, gen.got.MaxTokens)
	assert.Equal(t, 0.5, gen.got.Temperature)
}

func TestRunPoemCommandEmptySeed(t *testing.T) {
	gen := &stubGenerator{}
	p := presenter.NewPresenter(gen, presenter.WithInterval(0))

	var errOut bytes.Buffer
	cmd := newPoemCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&errOut)

	err := runPoem(context.Background(), p, poemOptions{seed: " "}, cmd)

	var vErr *presenter.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, errOut.String(), presenter.MessageEmptySeed)
}

func TestReportError(t *testing.T) {
	var out bytes.Buffer
	reportError(&out, fmt.Errorf("failed to create gemini provider: %w", errors.New("dial tcp: refused")))
	assert.Equal(t, "❌ failed to create gemini provider: dial tcp: refused\n", out.String())

	out.Reset()
	reportError(&out, &config.ConfigurationError{Key: "GEMINI_API_KEY", Message: "API key not found"})
	assert.Contains(t, out.String(), "GEMINI_API_KEY")

	out.Reset()
	reportError(&out, shownError{err: &presenter.ValidationError{Field: "seed_line", Message: "empty"}})
	assert.Empty(t, out.String(), "errors already shown by the renderer are not repeated")
}

func TestPoemCommandReportsStartupErrors(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "")

	cmd := newPoemCommand()
	cmd.SetArgs([]string{"--seed", "বল বীর"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()

	var cfgErr *config.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))

	var out bytes.Buffer
	reportError(&out, err)
	assert.Contains(t, out.String(), "GEMINI_API_KEY")
}

func TestPoemCommandFlags(t *testing.T) {
	cmd := newPoemCommand()

	maxTokens, err := cmd.Flags().GetInt("max-tokens")
	require.NoError(t, err)
	assert.Equal(t, 300, maxTokens)

	temp, err := cmd.Flags().GetFloat64("temperature")
	require.NoError(t, err)
	assert.Equal(t, 0.8, temp)
}
