// Package extract computes targeted aggregate metrics for a question by
// scanning it for keyword and entity cues. It is a pure function over the
// dataset snapshot: same question, same metrics.
package extract

import (
	"math"
	"strings"

	"github.com/bookinsight/bookinsight/internal/domain"
)

// revenueTerms trigger a total-revenue sum when any appears in the question.
var revenueTerms = []string{"revenue", "income", "earnings"}

// years covered by the dataset; each triggers a per-year booking count.
var years = []struct {
	label string
	value int
}{
	{"2015", 2015},
	{"2016", 2016},
	{"2017", 2017},
}

// Metrics maps stable metric names to their computed values. Fractional
// values are rounded to two decimal places.
type Metrics map[string]float64

// FromQuestion scans the question for cues and computes matching aggregates.
// When fewer than two cues match, three generic dataset-level metrics are
// returned instead, so the result is never empty.
func FromQuestion(question string, ds *domain.Dataset) Metrics {
	q := strings.ToLower(question)
	m := Metrics{}

	if containsAny(q, revenueTerms) {
		var total float64
		for _, b := range ds.Bookings() {
			total += b.TotalPrice
		}
		m["total_revenue"] = round2(total)
	}

	for _, month := range domain.MonthNames {
		if !strings.Contains(q, strings.ToLower(month)) {
			continue
		}
		var count float64
		for _, b := range ds.Bookings() {
			if b.ArrivalMonth == month {
				count++
			}
		}
		m["bookings_in_"+strings.ToLower(month)] = count
	}

	for _, y := range years {
		if !strings.Contains(q, y.label) {
			continue
		}
		var count float64
		for _, b := range ds.Bookings() {
			if b.ArrivalYear == y.value {
				count++
			}
		}
		m["bookings_in_"+y.label] = count
	}

	// Country names match as case-insensitive substrings. This can fire on
	// coincidental text; preserved deliberately (see DESIGN.md).
	for _, country := range ds.Countries() {
		if country == "" || !strings.Contains(q, strings.ToLower(country)) {
			continue
		}
		var count, revenue, canceled float64
		for _, b := range ds.Bookings() {
			if b.Country != country {
				continue
			}
			count++
			revenue += b.TotalPrice
			if b.Canceled {
				canceled++
			}
		}
		key := strings.ToLower(country)
		m[key+"_bookings"] = count
		m[key+"_revenue"] = round2(revenue)
		if count > 0 {
			m[key+"_cancellation_rate"] = round2(canceled / count)
		}
	}

	if len(m) < 2 {
		return generic(ds)
	}
	return m
}

// generic returns the three dataset-level fallback metrics.
func generic(ds *domain.Dataset) Metrics {
	var adrSum, canceled float64
	n := float64(ds.Len())
	for _, b := range ds.Bookings() {
		adrSum += b.ADR
		if b.Canceled {
			canceled++
		}
	}

	m := Metrics{"total_bookings": n}
	if n > 0 {
		m["average_daily_rate"] = round2(adrSum / n)
		m["cancellation_rate"] = round2(canceled / n)
	}
	return m
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
