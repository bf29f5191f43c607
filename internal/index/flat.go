// Package index provides an in-memory exact nearest-neighbor index over
// per-record summary embeddings. The corpus is small enough that
// exhaustive L2 search beats any approximate structure, and exactness
// keeps retrieval deterministic.
package index

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/bookinsight/bookinsight/internal/domain"
)

// buildBatchSize caps the number of texts sent per embedding API call.
const buildBatchSize = 256

// Result is one retrieval hit: the indexed summary, the position of its
// record in the dataset, and the raw L2 distance (lower is closer).
type Result struct {
	Text     string
	Record   int
	Distance float64
}

// Flat is an exhaustive L2 index. Build once, then read-only queries;
// no locking is needed because nothing mutates after Build returns.
type Flat struct {
	embedder domain.Embedder
	vectors  [][]float32
	texts    []string
	dim      int
	logger   *zap.Logger
}

// New creates an empty index that embeds with the given embedder.
func New(embedder domain.Embedder, logger *zap.Logger) *Flat {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Flat{embedder: embedder, logger: logger}
}

// Build embeds one summary per record and stores the vectors. Vector i
// always corresponds to record i. Batch embedding is used when the
// provider supports it, falling back to per-text calls otherwise.
func (f *Flat) Build(ctx context.Context, records []domain.Booking, summarize func(domain.Booking) string) error {
	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = summarize(r)
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += buildBatchSize {
		end := min(start+buildBatchSize, len(texts))

		batch, err := f.embedBatch(ctx, texts[start:end])
		if err != nil {
			return fmt.Errorf("embed records [%d:%d]: %w", start, end, err)
		}
		vectors = append(vectors, batch...)
	}

	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), dim)
		}
	}

	f.vectors = vectors
	f.texts = texts
	f.dim = dim

	f.logger.Info("embedding index built",
		zap.Int("vectors", len(vectors)),
		zap.Int("dimensions", dim),
	)
	return nil
}

// Len returns the number of indexed vectors.
func (f *Flat) Len() int { return len(f.vectors) }

// Embed vectorizes arbitrary text with the index's embedder. Exposed so
// the caller can reuse the same model for query-side similarity work.
func (f *Flat) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := f.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}
	return res.Embedding, nil
}

// Query embeds text and returns the k nearest stored vectors by ascending
// L2 distance. Ties break toward the lower record index. k larger than
// the corpus returns everything; an empty index is an error because it
// means Build never ran.
func (f *Flat) Query(ctx context.Context, text string, k int) ([]Result, error) {
	if len(f.vectors) == 0 {
		return nil, domain.ErrIndexEmpty
	}

	res, err := f.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	q := res.Embedding

	results := make([]Result, len(f.vectors))
	for i, v := range f.vectors {
		results[i] = Result{
			Text:     f.texts[i],
			Record:   i,
			Distance: l2(q, v),
		}
	}

	// Stable sort over the record-ordered slice keeps equal distances in
	// index order.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

func (f *Flat) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if be, ok := f.embedder.(domain.BatchEmbedder); ok {
		res, err := be.BatchEmbed(ctx, texts)
		if err != nil {
			return nil, err
		}
		return res.Embeddings, nil
	}
	res, err := domain.BatchFallback(ctx, f.embedder, texts)
	if err != nil {
		return nil, err
	}
	return res.Embeddings, nil
}

// l2 computes the Euclidean distance between two vectors. A length
// mismatch contributes the full magnitude of the unmatched tail.
func l2(a, b []float32) float64 {
	n := min(len(a), len(b))
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	for i := n; i < len(a); i++ {
		sum += float64(a[i]) * float64(a[i])
	}
	for i := n; i < len(b); i++ {
		sum += float64(b[i]) * float64(b[i])
	}
	return math.Sqrt(sum)
}

// Cosine computes cosine similarity between two vectors, 0 when either
// has zero magnitude.
func Cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
