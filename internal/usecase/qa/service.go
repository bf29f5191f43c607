// Package qa orchestrates the question-answering pipeline: metric
// extraction, retrieval, confidence scoring, generative answering, and a
// deterministic template fallback.
package qa

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bookinsight/bookinsight/internal/domain"
	"github.com/bookinsight/bookinsight/internal/index"
	"github.com/bookinsight/bookinsight/internal/metrics"
	"github.com/bookinsight/bookinsight/internal/usecase/extract"
)

const (
	// retrievalK is the retrieval depth for the primary path.
	retrievalK = 5
	// maxContexts caps the snippets returned in an answer.
	maxContexts = 3
	// maxSampleRecords caps the full records merged into prompt metadata.
	maxSampleRecords = 2
	// confidenceEpsilon keeps the max-normalized distance strictly below 1.
	confidenceEpsilon = 1e-6
)

// errorAnswer is the last-resort text when even the fallback path fails.
const errorAnswer = "I was unable to process your question at this time. Please try again."

// Retriever is the index contract the orchestrator depends on.
type Retriever interface {
	Query(ctx context.Context, text string, k int) ([]index.Result, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Reasoner produces the generative answer. It must not fail; failure
// handling lives inside the reasoner itself.
type Reasoner interface {
	Generate(ctx context.Context, question string, contexts []string, metadata map[string]string) string
}

// Service answers questions over the read-only dataset. All dependencies
// are constructor-injected so tests can substitute fakes.
type Service struct {
	ds       *domain.Dataset
	index    Retriever
	reasoner Reasoner
	catalog  *Catalog
	perf     *PerfMetrics
	logger   *zap.Logger
}

// New creates the orchestrator.
func New(ds *domain.Dataset, idx Retriever, reasoner Reasoner, catalog *Catalog, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		ds:       ds,
		index:    idx,
		reasoner: reasoner,
		catalog:  catalog,
		perf:     NewPerfMetrics(),
		logger:   logger,
	}
}

// Perf exposes the process-wide performance accumulator.
func (s *Service) Perf() *PerfMetrics { return s.perf }

// Answer runs the full pipeline for one question. It never returns an
// error: any failure in the primary path falls back to template matching,
// and any failure there degrades to a generic answer.
func (s *Service) Answer(ctx context.Context, question string) (ans domain.Answer) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("answer pipeline panicked",
				zap.Any("panic", r), zap.Stack("stacktrace"))
			ans = domain.Answer{Text: errorAnswer}
			metrics.QuestionsTotal.WithLabelValues("error").Inc()
		}
		ans.Elapsed = time.Since(start)
		metrics.QuestionLatency.Observe(ans.Elapsed.Seconds())
	}()

	ans, err := s.primary(ctx, question)
	if err == nil {
		s.perf.RecordSuccess(time.Since(start))
		metrics.QuestionsTotal.WithLabelValues("primary").Inc()
		return ans
	}

	s.logger.Warn("primary answer path failed, trying template fallback",
		zap.String("question", question), zap.Error(err))
	s.perf.RecordFailure(time.Since(start))

	return s.legacy(ctx, question)
}

// primary implements the RAG path: extract metrics, retrieve context,
// score confidence, merge sample records, and generate.
func (s *Service) primary(ctx context.Context, question string) (domain.Answer, error) {
	meta := extract.FromQuestion(question, s.ds)

	results, err := s.index.Query(ctx, question, retrievalK)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("retrieve context: %w", err)
	}

	contexts := make([]string, len(results))
	for i, r := range results {
		contexts[i] = r.Text
	}

	metadata := make(map[string]string, len(meta)+maxSampleRecords)
	for k, v := range meta {
		metadata[k] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	for i, r := range results {
		if i >= maxSampleRecords {
			break
		}
		metadata[fmt.Sprintf("sample_booking_%d", i+1)] = s.ds.Bookings()[r.Record].Describe()
	}

	text := s.reasoner.Generate(ctx, question, contexts, metadata)

	if len(contexts) > maxContexts {
		contexts = contexts[:maxContexts]
	}

	return domain.Answer{
		Text:       text,
		Confidence: confidence(results),
		Contexts:   contexts,
	}, nil
}

// legacy matches the question against the canonical template catalogue
// and runs the matched aggregation, or degrades to a generic answer.
func (s *Service) legacy(ctx context.Context, question string) domain.Answer {
	// Best-effort context even on the fallback path; retrieval failure
	// here just leaves the context empty.
	var contexts []string
	var contextText string
	if results, err := s.index.Query(ctx, question, maxContexts); err == nil {
		for _, r := range results {
			contexts = append(contexts, r.Text)
		}
		contextText = strings.Join(contexts, " ")
	}

	if tpl, sim, ok := s.catalog.Match(ctx, question); ok {
		metrics.QuestionsTotal.WithLabelValues("template").Inc()
		return domain.Answer{
			Text:       tpl.Answer(s.ds, contextText),
			Confidence: clamp01(sim),
			Contexts:   contexts,
		}
	}

	metrics.QuestionsTotal.WithLabelValues("generic").Inc()
	return domain.Answer{
		Text:     "Based on our data: " + contextText,
		Contexts: contexts,
	}
}

// confidence averages max-normalized pseudo-similarities over the
// retrieved batch. A heuristic retrieval-quality score, not a calibrated
// probability; 0.0 when nothing was retrieved.
func confidence(results []index.Result) float64 {
	if len(results) == 0 {
		return 0
	}
	var maxDist float64
	for _, r := range results {
		if r.Distance > maxDist {
			maxDist = r.Distance
		}
	}
	var sum float64
	for _, r := range results {
		sum += 1 - r.Distance/(maxDist+confidenceEpsilon)
	}
	return clamp01(sum / float64(len(results)))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
