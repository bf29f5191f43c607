package qa

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bookinsight/bookinsight/internal/domain"
	"github.com/bookinsight/bookinsight/internal/index"
)

// templateThreshold gates the legacy dispatch: below this cosine
// similarity the catalogue is considered unrelated to the question.
const templateThreshold = 0.5

// Template pairs a canonical question with a deterministic aggregation
// over the dataset. The handler receives the retrieved context so the
// formatted answer can embed it.
type Template struct {
	ID       string
	Question string
	Answer   func(ds *domain.Dataset, context string) string
}

// Embedding is the narrow vectorization contract the catalogue needs.
type Embedding interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Catalog matches questions against the canonical templates by cosine
// similarity of embeddings. Template embeddings are computed once, on
// first match; an embedding failure there disables template dispatch for
// the process lifetime rather than failing the question.
type Catalog struct {
	entries []Template
	embed   Embedding

	once sync.Once
	vecs [][]float32
	err  error
}

// NewCatalog builds the catalogue over the fixed canonical questions.
func NewCatalog(embed Embedding) *Catalog {
	return &Catalog{entries: templates(), embed: embed}
}

// Entries exposes the templates for per-entry testing.
func (c *Catalog) Entries() []Template { return c.entries }

// Match returns the most similar template and its similarity. ok is false
// when embeddings are unavailable or the best similarity is below the
// threshold.
func (c *Catalog) Match(ctx context.Context, question string) (Template, float64, bool) {
	c.once.Do(func() { c.vecs, c.err = c.embedAll(ctx) })
	if c.err != nil {
		return Template{}, 0, false
	}

	qvec, err := c.embed.Embed(ctx, question)
	if err != nil {
		return Template{}, 0, false
	}

	best, bestSim := -1, -1.0
	for i, v := range c.vecs {
		if sim := index.Cosine(qvec, v); sim > bestSim {
			best, bestSim = i, sim
		}
	}
	if best < 0 || bestSim < templateThreshold {
		return Template{}, bestSim, false
	}
	return c.entries[best], bestSim, true
}

func (c *Catalog) embedAll(ctx context.Context) ([][]float32, error) {
	vecs := make([][]float32, len(c.entries))
	for i, t := range c.entries {
		v, err := c.embed.Embed(ctx, t.Question)
		if err != nil {
			return nil, fmt.Errorf("embed template %s: %w", t.ID, err)
		}
		vecs[i] = v
	}
	return vecs, nil
}

// templates returns the fixed catalogue of canonical questions and their
// aggregations.
func templates() []Template {
	return []Template{
		{
			ID:       "revenue_july_2017",
			Question: "Show me total revenue for July 2017",
			Answer: func(ds *domain.Dataset, context string) string {
				if !ds.Has(domain.ColArrivalYear) || !ds.Has(domain.ColArrivalMonth) {
					return "Date information not available. Context: " + context
				}
				var revenue float64
				for _, b := range ds.Bookings() {
					if b.ArrivalMonth == "July" && b.ArrivalYear == 2017 {
						revenue += b.TotalPrice
					}
				}
				return fmt.Sprintf("The total revenue for July 2017 was $%s. Context: %s",
					formatMoney(revenue), context)
			},
		},
		{
			ID:       "top_cancellation_countries",
			Question: "Which locations had the highest booking cancellations?",
			Answer: func(ds *domain.Dataset, context string) string {
				if !ds.Has(domain.ColIsCanceled) || !ds.Has(domain.ColCountry) {
					return "Cancellation or country data not available. Context: " + context
				}
				counts := make(map[string]int)
				var order []string
				for _, b := range ds.Bookings() {
					if !b.Canceled {
						continue
					}
					if _, ok := counts[b.Country]; !ok {
						order = append(order, b.Country)
					}
					counts[b.Country]++
				}
				// Desc by count, ties by first-encountered country.
				sort.SliceStable(order, func(i, j int) bool {
					return counts[order[i]] > counts[order[j]]
				})
				if len(order) > 5 {
					order = order[:5]
				}
				parts := make([]string, len(order))
				for i, c := range order {
					parts[i] = fmt.Sprintf("%s (%d)", c, counts[c])
				}
				return fmt.Sprintf("Top 5 countries with highest cancellations: %s. Context: %s",
					strings.Join(parts, ", "), context)
			},
		},
		{
			ID:       "average_booking_price",
			Question: "What is the average price of a hotel booking?",
			Answer: func(ds *domain.Dataset, context string) string {
				if ds.Len() == 0 {
					return "Booking data not available. Context: " + context
				}
				var sum float64
				for _, b := range ds.Bookings() {
					sum += b.ADR
				}
				return fmt.Sprintf("The average price per night is $%.2f. Context: %s",
					sum/float64(ds.Len()), context)
			},
		},
		{
			ID:       "common_length_of_stay",
			Question: "What is the most common length of stay?",
			Answer: func(ds *domain.Dataset, context string) string {
				if !ds.Has(domain.ColWeekendNights) || !ds.Has(domain.ColWeekNights) {
					return "Length of stay data not available. Context: " + context
				}
				nights, ok := modeInt(ds.Bookings(), func(b domain.Booking) int { return b.TotalNights })
				if !ok {
					return "Length of stay data not available. Context: " + context
				}
				return fmt.Sprintf("The most common length of stay is %d nights. Context: %s",
					nights, context)
			},
		},
		{
			ID:       "busiest_month",
			Question: "Which month has the highest number of bookings?",
			Answer: func(ds *domain.Dataset, context string) string {
				if !ds.Has(domain.ColArrivalMonth) {
					return "Month data not available. Context: " + context
				}
				month, ok := modeString(ds.Bookings(), func(b domain.Booking) string { return b.ArrivalMonth })
				if !ok {
					return "Month data not available. Context: " + context
				}
				return fmt.Sprintf("The month with the highest number of bookings is %s. Context: %s",
					month, context)
			},
		},
		{
			ID:       "cancellation_percentage",
			Question: "What percentage of bookings are cancelled?",
			Answer: func(ds *domain.Dataset, context string) string {
				if ds.Len() == 0 || !ds.Has(domain.ColIsCanceled) {
					return "Cancellation data not available. Context: " + context
				}
				var canceled float64
				for _, b := range ds.Bookings() {
					if b.Canceled {
						canceled++
					}
				}
				return fmt.Sprintf("%.1f%% of bookings are cancelled. Context: %s",
					canceled/float64(ds.Len())*100, context)
			},
		},
		{
			ID:       "adr_by_room_type",
			Question: "What is the average daily rate for each room type?",
			Answer: func(ds *domain.Dataset, context string) string {
				if !ds.Has(domain.ColRoomType) {
					return "Room type data not available. Context: " + context
				}
				sums := make(map[string]float64)
				counts := make(map[string]float64)
				for _, b := range ds.Bookings() {
					sums[b.RoomType] += b.ADR
					counts[b.RoomType]++
				}
				parts := make([]string, 0, len(sums))
				for _, room := range sortedKeys(sums) {
					parts = append(parts, fmt.Sprintf("%s: $%.2f", room, sums[room]/counts[room]))
				}
				return fmt.Sprintf("Average daily rates by room type: %s. Context: %s",
					strings.Join(parts, ", "), context)
			},
		},
		{
			ID:       "revenue_by_market_segment",
			Question: "Which market segment generates the most revenue?",
			Answer: func(ds *domain.Dataset, context string) string {
				if !ds.Has(domain.ColMarketSegment) {
					return "Market segment data not available. Context: " + context
				}
				revenue := make(map[string]float64)
				var order []string
				for _, b := range ds.Bookings() {
					if _, ok := revenue[b.MarketSegment]; !ok {
						order = append(order, b.MarketSegment)
					}
					revenue[b.MarketSegment] += b.TotalPrice
				}
				sort.SliceStable(order, func(i, j int) bool {
					return revenue[order[i]] > revenue[order[j]]
				})
				parts := make([]string, len(order))
				for i, seg := range order {
					parts[i] = fmt.Sprintf("%s: $%s", seg, formatMoney(revenue[seg]))
				}
				return fmt.Sprintf("Revenue by market segment: %s. Context: %s",
					strings.Join(parts, ", "), context)
			},
		},
		{
			ID:       "customer_type_distribution",
			Question: "What is the distribution of customer types?",
			Answer: func(ds *domain.Dataset, context string) string {
				if ds.Len() == 0 || !ds.Has(domain.ColCustomerType) {
					return "Customer type data not available. Context: " + context
				}
				counts := make(map[string]float64)
				var order []string
				for _, b := range ds.Bookings() {
					if _, ok := counts[b.CustomerType]; !ok {
						order = append(order, b.CustomerType)
					}
					counts[b.CustomerType]++
				}
				sort.SliceStable(order, func(i, j int) bool {
					return counts[order[i]] > counts[order[j]]
				})
				total := float64(ds.Len())
				parts := make([]string, len(order))
				for i, ct := range order {
					parts[i] = fmt.Sprintf("%s: %.1f%%", ct, counts[ct]/total*100)
				}
				return fmt.Sprintf("Customer type distribution: %s. Context: %s",
					strings.Join(parts, ", "), context)
			},
		},
		{
			ID:       "bookings_with_children",
			Question: "How many bookings include children or babies?",
			Answer: func(ds *domain.Dataset, context string) string {
				if ds.Len() == 0 || !ds.Has(domain.ColChildren) || !ds.Has(domain.ColBabies) {
					return "Children or babies data not available. Context: " + context
				}
				var withKids int
				for _, b := range ds.Bookings() {
					if b.Children > 0 || b.Babies > 0 {
						withKids++
					}
				}
				pct := float64(withKids) / float64(ds.Len()) * 100
				return fmt.Sprintf("%.1f%% of bookings (%d bookings) include children or babies. Context: %s",
					pct, withKids, context)
			},
		},
	}
}

// modeInt returns the most frequent value; ties break toward the value
// seen first in record order.
func modeInt(bookings []domain.Booking, key func(domain.Booking) int) (int, bool) {
	counts := make(map[int]int)
	var order []int
	for _, b := range bookings {
		k := key(b)
		if _, ok := counts[k]; !ok {
			order = append(order, k)
		}
		counts[k]++
	}
	if len(order) == 0 {
		return 0, false
	}
	best := order[0]
	for _, k := range order {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return best, true
}

func modeString(bookings []domain.Booking, key func(domain.Booking) string) (string, bool) {
	counts := make(map[string]int)
	var order []string
	for _, b := range bookings {
		k := key(b)
		if _, ok := counts[k]; !ok {
			order = append(order, k)
		}
		counts[k]++
	}
	if len(order) == 0 {
		return "", false
	}
	best := order[0]
	for _, k := range order {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return best, true
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatMoney renders an amount with two decimals and comma thousands
// grouping: 400.5 -> "400.50", 1234567.8 -> "1,234,567.80".
func formatMoney(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	for i, d := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(d)
	}
	sb.WriteByte('.')
	sb.WriteString(frac)
	return sb.String()
}
