package quizgen

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"quiz-tutor/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// stubModel answers each GenerateContent call with the next scripted reply.
type stubModel struct {
	replies []func(ctx context.Context) (string, error)
	calls   atomic.Int32
	prompts []string
}

func (s *stubModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	n := int(s.calls.Add(1)) - 1
	for _, m := range messages {
		for _, p := range m.Parts {
			if tp, ok := p.(llms.TextContent); ok {
				s.prompts = append(s.prompts, tp.Text)
			}
		}
	}
	if n >= len(s.replies) {
		return nil, errors.New("unexpected call")
	}
	text, err := s.replies[n](ctx)
	if err != nil {
		return nil, err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: text}}}, nil
}

func (s *stubModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, s, prompt, options...)
}

func reply(text string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) { return text, nil }
}

func fail(err error) func(context.Context) (string, error) {
	return func(context.Context) (string, error) { return "", err }
}

func hang() func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("recursion", 15)
	assert.Contains(t, p, `"recursion"`)
	assert.Contains(t, p, "create 15 multiple choice")
	assert.Contains(t, p, "Answer: [A/B/C/D]")
}

func TestGenerateQuizText_FirstAttempt(t *testing.T) {
	model := &stubModel{replies: []func(context.Context) (string, error){reply("Q: one")}}
	gen := NewLLMQuizGenerator(model, Options{Timeout: time.Second, MaxRetries: 1})

	text, err := gen.GenerateQuizText(context.Background(), "go")
	require.NoError(t, err)
	assert.Equal(t, "Q: one", text)
	assert.EqualValues(t, 1, model.calls.Load())
	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], `"go"`)
}

func TestGenerateQuizText_RetriesOnce(t *testing.T) {
	tests := []struct {
		name    string
		replies []func(context.Context) (string, error)
		wantErr bool
	}{
		{"error then success", []func(context.Context) (string, error){fail(errors.New("502")), reply("Q: x")}, false},
		{"empty then success", []func(context.Context) (string, error){reply("  \n"), reply("Q: x")}, false},
		{"timeout then success", []func(context.Context) (string, error){hang(), reply("Q: x")}, false},
		{"two failures", []func(context.Context) (string, error){fail(errors.New("502")), fail(errors.New("503"))}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &stubModel{replies: tt.replies}
			gen := NewLLMQuizGenerator(model, Options{Timeout: 50 * time.Millisecond, MaxRetries: 1})

			text, err := gen.GenerateQuizText(context.Background(), "go")
			if tt.wantErr {
				assert.ErrorContains(t, err, "after 2 attempts")
				assert.ErrorContains(t, err, "503")
				assert.Empty(t, text)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "Q: x", text)
			}
			assert.EqualValues(t, 2, model.calls.Load())
		})
	}
}

func TestGenerateQuizText_CancelledContextStops(t *testing.T) {
	model := &stubModel{replies: []func(context.Context) (string, error){reply("Q: x")}}
	gen := NewLLMQuizGenerator(model, Options{Timeout: time.Second, MaxRetries: 3})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gen.GenerateQuizText(ctx, "go")
	assert.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 0, model.calls.Load())
}

func TestNewLLMQuizGenerator_Defaults(t *testing.T) {
	gen := NewLLMQuizGenerator(&stubModel{}, Options{MaxRetries: -2})
	assert.Equal(t, 60*time.Second, gen.opts.Timeout)
	assert.Equal(t, 0, gen.opts.MaxRetries)
	assert.Equal(t, 15, gen.opts.Questions)
}

func TestNewModel(t *testing.T) {
	ctx := context.Background()

	m, err := NewModel(ctx, config.LLMConfig{Provider: config.ProviderOllama, Server: "http://localhost:11434", Model: "llama3"})
	require.NoError(t, err)
	assert.NotNil(t, m)

	_, err = NewModel(ctx, config.LLMConfig{Provider: config.ProviderOpenAI})
	assert.ErrorContains(t, err, "api_key")

	_, err = NewModel(ctx, config.LLMConfig{Provider: config.ProviderGoogleAI})
	assert.ErrorContains(t, err, "api_key")

	_, err = NewModel(ctx, config.LLMConfig{Provider: "anthropic"})
	assert.Error(t, err)
}
