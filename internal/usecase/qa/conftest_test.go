package qa

import (
	"context"
	"testing"

	"github.com/bookinsight/bookinsight/internal/domain"
	"github.com/bookinsight/bookinsight/internal/index"
)

// fakeIndex satisfies both Retriever and Embedding.
type fakeIndex struct {
	queryFn func(ctx context.Context, text string, k int) ([]index.Result, error)
	embedFn func(ctx context.Context, text string) ([]float32, error)
}

func (f *fakeIndex) Query(ctx context.Context, text string, k int) ([]index.Result, error) {
	return f.queryFn(ctx, text, k)
}

func (f *fakeIndex) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.embedFn(ctx, text)
}

type fakeReasoner struct {
	generateFn func(ctx context.Context, question string, contexts []string, metadata map[string]string) string
}

func (f *fakeReasoner) Generate(ctx context.Context, question string, contexts []string, metadata map[string]string) string {
	return f.generateFn(ctx, question, contexts, metadata)
}

// testDataset holds three prepared bookings: two July 2017 arrivals from
// Portugal (one canceled) and one August 2016 arrival from Spain.
func testDataset(t *testing.T) *domain.Dataset {
	t.Helper()
	bookings := []domain.Booking{
		{
			Country: "PRT", ArrivalYear: 2017, ArrivalMonth: "July",
			ADR: 100, WeekendNights: 0, WeekNights: 2, TotalNights: 2, TotalPrice: 200,
			CustomerType: "Transient", RoomType: "A", MarketSegment: "Online TA",
			LeadTime: 10,
		},
		{
			Country: "PRT", ArrivalYear: 2017, ArrivalMonth: "July",
			ADR: 100.25, WeekendNights: 2, WeekNights: 0, TotalNights: 2, TotalPrice: 200.5,
			Canceled: true, CustomerType: "Transient", RoomType: "B", MarketSegment: "Direct",
			LeadTime: 30, Children: 1,
		},
		{
			Country: "ESP", ArrivalYear: 2016, ArrivalMonth: "August",
			ADR: 80, WeekendNights: 1, WeekNights: 0, TotalNights: 1, TotalPrice: 80,
			CustomerType: "Contract", RoomType: "A", MarketSegment: "Online TA",
			LeadTime: 5,
		},
	}
	return domain.NewDataset(bookings, []domain.Column{
		domain.ColCountry, domain.ColArrivalYear, domain.ColArrivalMonth,
		domain.ColADR, domain.ColIsCanceled,
		domain.ColWeekendNights, domain.ColWeekNights, domain.ColLeadTime,
		domain.ColCustomerType, domain.ColRoomType, domain.ColMarketSegment,
		domain.ColChildren, domain.ColBabies,
	})
}

func findTemplate(t *testing.T, c *Catalog, id string) Template {
	t.Helper()
	for _, tpl := range c.Entries() {
		if tpl.ID == id {
			return tpl
		}
	}
	t.Fatalf("template %s not in catalogue", id)
	return Template{}
}
