package qa

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bookinsight/bookinsight/internal/domain"
)

func TestTemplate_RevenueJuly2017(t *testing.T) {
	ds := testDataset(t)
	tpl := findTemplate(t, NewCatalog(nil), "revenue_july_2017")

	got := tpl.Answer(ds, "some context")
	want := "The total revenue for July 2017 was $400.50. Context: some context"
	if got != want {
		t.Errorf("answer = %q, want %q", got, want)
	}
}

func TestTemplate_RevenueJuly2017_MissingColumns(t *testing.T) {
	ds := domain.NewDataset(testDataset(t).Bookings(), []domain.Column{domain.ColADR})
	tpl := findTemplate(t, NewCatalog(nil), "revenue_july_2017")

	got := tpl.Answer(ds, "ctx")
	if got != "Date information not available. Context: ctx" {
		t.Errorf("expected degraded answer, got %q", got)
	}
}

func TestTemplate_AverageBookingPrice(t *testing.T) {
	ds := testDataset(t)
	tpl := findTemplate(t, NewCatalog(nil), "average_booking_price")

	// (100 + 100.25 + 80) / 3 = 93.4166...
	got := tpl.Answer(ds, "")
	if !strings.HasPrefix(got, "The average price per night is $93.42.") {
		t.Errorf("unexpected answer: %q", got)
	}
}

func TestTemplate_CancellationPercentage(t *testing.T) {
	ds := testDataset(t)
	tpl := findTemplate(t, NewCatalog(nil), "cancellation_percentage")

	got := tpl.Answer(ds, "")
	if !strings.HasPrefix(got, "33.3% of bookings are cancelled.") {
		t.Errorf("unexpected answer: %q", got)
	}
}

func TestTemplate_TopCancellationCountries(t *testing.T) {
	bookings := []domain.Booking{
		{Country: "PRT", Canceled: true},
		{Country: "GBR", Canceled: true},
		{Country: "GBR", Canceled: true},
		{Country: "ESP", Canceled: false},
		{Country: "FRA", Canceled: true},
	}
	ds := domain.NewDataset(bookings, []domain.Column{domain.ColIsCanceled, domain.ColCountry})
	tpl := findTemplate(t, NewCatalog(nil), "top_cancellation_countries")

	got := tpl.Answer(ds, "")
	want := "Top 5 countries with highest cancellations: GBR (2), PRT (1), FRA (1). Context: "
	if got != want {
		t.Errorf("answer = %q, want %q", got, want)
	}
}

func TestTemplate_BookingsWithChildren(t *testing.T) {
	ds := testDataset(t)
	tpl := findTemplate(t, NewCatalog(nil), "bookings_with_children")

	got := tpl.Answer(ds, "")
	if !strings.HasPrefix(got, "33.3% of bookings (1 bookings) include children or babies.") {
		t.Errorf("unexpected answer: %q", got)
	}
}

func TestTemplate_BusiestMonth(t *testing.T) {
	ds := testDataset(t)
	tpl := findTemplate(t, NewCatalog(nil), "busiest_month")

	got := tpl.Answer(ds, "")
	if !strings.HasPrefix(got, "The month with the highest number of bookings is July.") {
		t.Errorf("unexpected answer: %q", got)
	}
}

func TestCatalog_TenCanonicalQuestions(t *testing.T) {
	c := NewCatalog(nil)
	if len(c.Entries()) != 10 {
		t.Fatalf("expected 10 templates, got %d", len(c.Entries()))
	}
	seen := make(map[string]struct{})
	for _, tpl := range c.Entries() {
		if tpl.ID == "" || tpl.Question == "" || tpl.Answer == nil {
			t.Errorf("incomplete template: %+v", tpl)
		}
		if _, dup := seen[tpl.ID]; dup {
			t.Errorf("duplicate template id %s", tpl.ID)
		}
		seen[tpl.ID] = struct{}{}
	}
}

func TestCatalog_DisabledAfterEmbedFailure(t *testing.T) {
	var calls int
	idx := &fakeIndex{
		embedFn: func(context.Context, string) ([]float32, error) {
			calls++
			return nil, errors.New("provider down")
		},
	}
	c := NewCatalog(idx)

	if _, _, ok := c.Match(context.Background(), "anything"); ok {
		t.Fatal("expected no match while embeddings are unavailable")
	}
	failedCalls := calls

	// Even once the provider recovers, the catalogue stays disabled for
	// the process lifetime.
	idx.embedFn = func(context.Context, string) ([]float32, error) {
		return []float32{1, 0}, nil
	}
	if _, _, ok := c.Match(context.Background(), "anything"); ok {
		t.Fatal("catalogue must stay disabled after a failed initialization")
	}
	if calls != failedCalls {
		t.Errorf("template embedding must not be retried, got %d extra calls", calls-failedCalls)
	}
}

func TestCatalog_BelowThreshold(t *testing.T) {
	idx := &fakeIndex{
		embedFn: func(_ context.Context, text string) ([]float32, error) {
			if text == "unrelated" {
				return []float32{0, 1}, nil
			}
			return []float32{1, 0}, nil
		},
	}
	c := NewCatalog(idx)

	_, sim, ok := c.Match(context.Background(), "unrelated")
	if ok {
		t.Fatal("expected no match below the similarity threshold")
	}
	if sim != 0 {
		t.Errorf("similarity = %v, want 0", sim)
	}
}

func TestModeInt_TieBreaksTowardFirstSeen(t *testing.T) {
	bookings := []domain.Booking{
		{TotalNights: 3}, {TotalNights: 1}, {TotalNights: 1}, {TotalNights: 3},
	}
	got, ok := modeInt(bookings, func(b domain.Booking) int { return b.TotalNights })
	if !ok || got != 3 {
		t.Errorf("mode = %d (ok=%v), want 3", got, ok)
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{400.5, "400.50"},
		{999, "999.00"},
		{1000, "1,000.00"},
		{1234567.8, "1,234,567.80"},
		{-1234.5, "-1,234.50"},
	}
	for _, tt := range tests {
		if got := formatMoney(tt.in); got != tt.want {
			t.Errorf("formatMoney(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
