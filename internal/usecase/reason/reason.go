// Package reason wraps the external generative model behind a contract
// that never fails: every failure mode collapses into a deterministic
// fallback answer.
package reason

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Fallback answers. These are part of the public behavior and are matched
// verbatim by callers and tests.
const (
	InsufficientInfoAnswer = "I don't have enough information to answer that question accurately."
	ProcessingErrorAnswer  = "I encountered an error while processing your question. Please try again."
)

const systemPreamble = "You are a hotel analytics assistant that provides accurate " +
	"information about hotel bookings and data.\n" +
	"Answer the following question based on the provided context and additional data."

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Factory constructs the underlying generator. Invoked at most once, on
// first use; a failure here permanently switches the reasoner to echoing
// the retrieved context instead of being retried per call.
type Factory func() (Generator, error)

// Reasoner turns a question plus retrieved context into a natural-language
// answer. Safe for concurrent use: initialization is once-guarded and the
// generator is stateless per call.
type Reasoner struct {
	factory Factory
	timeout time.Duration
	logger  *zap.Logger

	once sync.Once
	gen  Generator // nil after a failed init
}

// New creates a lazily-initialized reasoner. timeout bounds a single
// generation call; zero means unbounded, matching the original contract.
func New(factory Factory, timeout time.Duration, logger *zap.Logger) *Reasoner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reasoner{factory: factory, timeout: timeout, logger: logger}
}

// Generate builds the prompt and invokes the model. It never returns an
// error: provider failures yield ProcessingErrorAnswer, an empty
// completion yields InsufficientInfoAnswer, and a reasoner whose
// initialization failed echoes the joined context snippets.
func (r *Reasoner) Generate(ctx context.Context, question string, contexts []string, metadata map[string]string) string {
	r.once.Do(r.init)

	if r.gen == nil {
		return strings.TrimSpace(strings.Join(contexts, " "))
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	out, err := r.gen.Generate(ctx, BuildPrompt(question, contexts, metadata))
	if err != nil {
		r.logger.Error("generation failed", zap.Error(err))
		return ProcessingErrorAnswer
	}

	answer := strings.TrimSpace(out)
	if answer == "" {
		return InsufficientInfoAnswer
	}
	return answer
}

func (r *Reasoner) init() {
	gen, err := r.factory()
	if err != nil {
		r.logger.Error("generator initialization failed, echoing context from now on", zap.Error(err))
		return
	}
	r.gen = gen
}

// BuildPrompt renders the question, itemized context snippets, and
// itemized metadata followed by the fixed instruction suffix. Metadata is
// rendered in sorted key order so identical inputs produce identical
// prompts.
func BuildPrompt(question string, contexts []string, metadata map[string]string) string {
	var sb strings.Builder
	sb.WriteString(systemPreamble)
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(question)
	sb.WriteString("\n\nContext:\n")
	for _, c := range contexts {
		sb.WriteString("- ")
		sb.WriteString(c)
		sb.WriteString("\n")
	}

	if len(metadata) > 0 {
		keys := make([]string, 0, len(metadata))
		for k := range metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString("\nAdditional data:\n")
		for _, k := range keys {
			sb.WriteString("- ")
			sb.WriteString(k)
			sb.WriteString(": ")
			sb.WriteString(metadata[k])
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\nBased on the above information, the answer is:")
	return sb.String()
}
