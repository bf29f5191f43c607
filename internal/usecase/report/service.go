// Package report computes the fixed aggregate analytics over the dataset.
// Every call recomputes from scratch; nothing is cached.
package report

import (
	"math"
	"sort"

	"github.com/bookinsight/bookinsight/internal/domain"
)

// NotAvailable marks a report field whose source column is absent from
// the dataset. Degradation is per-field and always explicit, never a
// silent zero.
const NotAvailable = "Not available"

// RevenuePoint is the revenue total for one (year, month) bucket.
type RevenuePoint struct {
	Year    int     `json:"arrival_date_year"`
	Month   string  `json:"arrival_date_month"`
	Revenue float64 `json:"total_price"`
}

// LeadTimeStats summarizes booking lead times in days.
type LeadTimeStats struct {
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Mean   float64 `json:"mean"`
	Median int     `json:"median"`
}

// Report is the aggregate analytics payload. Fields degrade to the
// NotAvailable marker when their source columns were not loaded.
type Report struct {
	TotalBookings            int            `json:"total_bookings"`
	AverageDailyRate         float64        `json:"average_daily_rate"`
	CancellationRatePercent  any            `json:"cancellation_rate_percent"`
	RevenueTrends            any            `json:"revenue_trends"`
	GeographicalDistribution any            `json:"geographical_distribution"`
	LeadTimeStats            any            `json:"lead_time_stats"`
	MostCommonCustomerType   string         `json:"most_common_customer_type"`
	MostBookedRoomType       string         `json:"most_booked_room_type"`
	AverageLengthOfStay      any            `json:"average_length_of_stay"`
}

// Service computes reports over the shared read-only dataset.
type Service struct {
	ds *domain.Dataset
}

// New creates a report service.
func New(ds *domain.Dataset) *Service { return &Service{ds: ds} }

// Generate computes the full report.
func (s *Service) Generate() Report {
	ds := s.ds
	bookings := ds.Bookings()
	n := len(bookings)

	r := Report{
		TotalBookings:            n,
		CancellationRatePercent:  NotAvailable,
		RevenueTrends:            NotAvailable,
		GeographicalDistribution: NotAvailable,
		LeadTimeStats:            NotAvailable,
		MostCommonCustomerType:   NotAvailable,
		MostBookedRoomType:       NotAvailable,
		AverageLengthOfStay:      NotAvailable,
	}

	if n == 0 {
		return r
	}

	var adrSum float64
	for _, b := range bookings {
		adrSum += b.ADR
	}
	r.AverageDailyRate = round2(adrSum / float64(n))

	if ds.Has(domain.ColIsCanceled) {
		var canceled float64
		for _, b := range bookings {
			if b.Canceled {
				canceled++
			}
		}
		r.CancellationRatePercent = round2(canceled / float64(n) * 100)
	}

	if ds.Has(domain.ColArrivalYear) && ds.Has(domain.ColArrivalMonth) {
		r.RevenueTrends = revenueTrends(bookings)
	}

	if ds.Has(domain.ColCountry) {
		byCountry := make(map[string]int)
		for _, b := range bookings {
			byCountry[b.Country]++
		}
		r.GeographicalDistribution = byCountry
	}

	if ds.Has(domain.ColLeadTime) {
		r.LeadTimeStats = leadTimeStats(bookings)
	}

	if ds.Has(domain.ColCustomerType) {
		r.MostCommonCustomerType = mode(bookings, func(b domain.Booking) string { return b.CustomerType })
	}
	if ds.Has(domain.ColRoomType) {
		r.MostBookedRoomType = mode(bookings, func(b domain.Booking) string { return b.RoomType })
	}

	if ds.Has(domain.ColWeekendNights) && ds.Has(domain.ColWeekNights) {
		var nights float64
		for _, b := range bookings {
			nights += float64(b.TotalNights)
		}
		r.AverageLengthOfStay = round2(nights / float64(n))
	}

	return r
}

// revenueTrends sums total price per (year, month), ordered by year then
// calendar month.
func revenueTrends(bookings []domain.Booking) []RevenuePoint {
	type bucket struct {
		year  int
		month string
	}
	sums := make(map[bucket]float64)
	for _, b := range bookings {
		sums[bucket{b.ArrivalYear, b.ArrivalMonth}] += b.TotalPrice
	}

	monthOrder := make(map[string]int, len(domain.MonthNames))
	for i, m := range domain.MonthNames {
		monthOrder[m] = i
	}

	points := make([]RevenuePoint, 0, len(sums))
	for k, v := range sums {
		points = append(points, RevenuePoint{Year: k.year, Month: k.month, Revenue: round2(v)})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Year != points[j].Year {
			return points[i].Year < points[j].Year
		}
		return monthOrder[points[i].Month] < monthOrder[points[j].Month]
	})
	return points
}

func leadTimeStats(bookings []domain.Booking) LeadTimeStats {
	times := make([]int, len(bookings))
	var sum float64
	for i, b := range bookings {
		times[i] = b.LeadTime
		sum += float64(b.LeadTime)
	}
	sort.Ints(times)

	n := len(times)
	median := times[n/2]
	if n%2 == 0 {
		median = (times[n/2-1] + times[n/2]) / 2
	}

	return LeadTimeStats{
		Min:    times[0],
		Max:    times[n-1],
		Mean:   round2(sum / float64(n)),
		Median: median,
	}
}

// mode returns the most frequent value, ties broken by first encounter in
// record order.
func mode(bookings []domain.Booking, key func(domain.Booking) string) string {
	counts := make(map[string]int)
	var order []string
	for _, b := range bookings {
		k := key(b)
		if _, ok := counts[k]; !ok {
			order = append(order, k)
		}
		counts[k]++
	}
	best := order[0]
	for _, k := range order {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return best
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
