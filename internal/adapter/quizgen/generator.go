package quizgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quiz-tutor/internal/domain"
	"quiz-tutor/internal/logger"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

const promptTemplate = `You are a coding tutor. For the topic "%s", create %d multiple choice quiz questions.
Each question must have:
- Question text
- 4 options labeled A), B), C), D)
- Correct Answer (just the letter)

Format:
For each question:
Q: [question]
A) ...
B) ...
C) ...
D) ...
Answer: [A/B/C/D]

Make sure they are clear and concise.`

var errEmptyResponse = errors.New("model returned an empty response")

// BuildPrompt renders the fixed instruction for a topic.
func BuildPrompt(topic string, questions int) string {
	return fmt.Sprintf(promptTemplate, topic, questions)
}

// Options tune an LLMQuizGenerator.
type Options struct {
	Timeout     time.Duration // per attempt
	MaxRetries  int           // extra attempts after the first failure
	Temperature float64
	Questions   int
}

// LLMQuizGenerator implements domain.QuizGenerator over any langchaingo model.
type LLMQuizGenerator struct {
	model llms.Model
	opts  Options
}

func NewLLMQuizGenerator(model llms.Model, opts Options) *LLMQuizGenerator {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Questions <= 0 {
		opts.Questions = domain.MaxQuizQuestions
	}
	return &LLMQuizGenerator{model: model, opts: opts}
}

// GenerateQuizText asks the model for a quiz on topic. Each attempt has its own deadline; a
// failed or empty attempt is retried up to MaxRetries times unless ctx itself is done.
func (g *LLMQuizGenerator) GenerateQuizText(ctx context.Context, topic string) (string, error) {
	l := logger.Get()
	prompt := BuildPrompt(topic, g.opts.Questions)

	var lastErr error
	attempts := g.opts.MaxRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		start := time.Now()
		text, err := g.call(ctx, prompt)
		if err == nil {
			l.Debug("Quiz text generated",
				zap.String("topic", topic),
				zap.Int("attempt", attempt),
				zap.Duration("elapsed", time.Since(start)),
				zap.Int("length", len(text)))
			return text, nil
		}

		lastErr = err
		l.Warn("Quiz generation attempt failed",
			zap.String("topic", topic),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
	}

	return "", fmt.Errorf("quiz generation failed after %d attempts: %w", attempts, lastErr)
}

func (g *LLMQuizGenerator) call(ctx context.Context, prompt string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	text, err := llms.GenerateFromSinglePrompt(attemptCtx, g.model, prompt, llms.WithTemperature(g.opts.Temperature))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("LLM request timed out after %s: %w", g.opts.Timeout, err)
		}
		return "", fmt.Errorf("LLM call failed: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", errEmptyResponse
	}
	return text, nil
}

var _ domain.QuizGenerator = (*LLMQuizGenerator)(nil)
