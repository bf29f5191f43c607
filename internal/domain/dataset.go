package domain

// Column identifies an input column by its CSV header name.
type Column string

// Known dataset columns. The first group is required at load time; the
// second degrades per report field when absent.
const (
	ColCountry       Column = "country"
	ColArrivalYear   Column = "arrival_date_year"
	ColArrivalMonth  Column = "arrival_date_month"
	ColADR           Column = "adr"
	ColIsCanceled    Column = "is_canceled"
	ColWeekendNights Column = "stays_in_weekend_nights"
	ColWeekNights    Column = "stays_in_week_nights"
	ColLeadTime      Column = "lead_time"
	ColCustomerType  Column = "customer_type"
	ColRoomType      Column = "reserved_room_type"
	ColMarketSegment Column = "market_segment"
	ColChildren      Column = "children"
	ColBabies        Column = "babies"
)

// RequiredColumns must be present in the input file or loading fails.
var RequiredColumns = []Column{
	ColCountry, ColArrivalYear, ColArrivalMonth, ColADR, ColIsCanceled,
}

// Dataset is the ordered, read-only sequence of bookings held for the
// process lifetime. It also records which input columns were present so
// consumers can degrade explicitly instead of reporting silent zeros.
type Dataset struct {
	bookings []Booking
	columns  map[Column]struct{}
}

// NewDataset wraps prepared bookings and the set of columns seen in the input.
func NewDataset(bookings []Booking, present []Column) *Dataset {
	cols := make(map[Column]struct{}, len(present))
	for _, c := range present {
		cols[c] = struct{}{}
	}
	return &Dataset{bookings: bookings, columns: cols}
}

// Bookings returns the underlying records. Callers must not mutate them.
func (d *Dataset) Bookings() []Booking { return d.bookings }

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.bookings) }

// Has reports whether the input file carried the given column.
func (d *Dataset) Has(c Column) bool {
	_, ok := d.columns[c]
	return ok
}

// Countries returns distinct country values in first-seen order.
func (d *Dataset) Countries() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, b := range d.bookings {
		if _, ok := seen[b.Country]; ok {
			continue
		}
		seen[b.Country] = struct{}{}
		out = append(out, b.Country)
	}
	return out
}
