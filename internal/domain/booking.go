package domain

import "fmt"

// MonthNames lists calendar months in the form the dataset uses
// (full English names, as found in arrival_date_month).
var MonthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// Booking is a single booking record. Records are immutable after dataset
// preparation; the whole dataset is loaded once at startup and shared
// read-only across requests.
type Booking struct {
	Country       string
	ArrivalYear   int
	ArrivalMonth  string // full month name, e.g. "July"
	ADR           float64
	WeekendNights int
	WeekNights    int
	TotalNights   int     // derived: weekend + week nights
	TotalPrice    float64 // derived: ADR * TotalNights
	Canceled      bool
	CustomerType  string
	RoomType      string
	LeadTime      int // days between booking and arrival
	Children      int
	Babies        int
	MarketSegment string
}

// Summary renders the booking as the text that gets embedded and returned
// as a retrieval snippet. One summary per record, generated at index build.
func (b Booking) Summary() string {
	return fmt.Sprintf("Booking from %s with ADR $%.2f and total nights %d.",
		b.Country, b.ADR, b.TotalNights)
}

// Describe renders the booking's structured fields for prompt metadata.
func (b Booking) Describe() string {
	canceled := "kept"
	if b.Canceled {
		canceled = "canceled"
	}
	return fmt.Sprintf("%s %d arrival from %s, ADR $%.2f, %d nights, total $%.2f, %s",
		b.ArrivalMonth, b.ArrivalYear, b.Country, b.ADR, b.TotalNights, b.TotalPrice, canceled)
}
