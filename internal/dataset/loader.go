// Package dataset loads and prepares the hotel-booking table the rest of
// the service runs on. The file is read once at startup; the resulting
// Dataset is immutable.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/bookinsight/bookinsight/internal/domain"
)

// Load reads a bookings CSV from path and prepares it. It fails fast when
// the file cannot be read or a required column is absent.
func Load(path string, logger *zap.Logger) (*domain.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrDatasetUnavailable, path, err)
	}
	defer f.Close()

	ds, err := Read(f, logger)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return ds, nil
}

// Read parses and prepares bookings from CSV data:
// missing children/babies become 0, missing country becomes "unknown",
// total nights and total price are derived, and rows with non-positive
// ADR or non-positive total nights are dropped.
func Read(r io.Reader, logger *zap.Logger) (*domain.Dataset, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %w", domain.ErrDatasetUnavailable, err)
	}

	idx := make(map[domain.Column]int, len(header))
	present := make([]domain.Column, 0, len(header))
	for i, name := range header {
		col := domain.Column(strings.TrimSpace(name))
		idx[col] = i
		present = append(present, col)
	}

	for _, col := range domain.RequiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrColumnMissing, col)
		}
	}

	var (
		records []domain.Booking
		dropped int
		line    int
	)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read row: %w", domain.ErrDatasetUnavailable, err)
		}
		line++

		b, err := parseRow(row, idx)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}

		// Non-positive ADR or nights carry no revenue signal.
		if b.ADR <= 0 || b.TotalNights <= 0 {
			dropped++
			continue
		}
		records = append(records, b)
	}

	logger.Info("dataset prepared",
		zap.Int("rows", len(records)),
		zap.Int("dropped", dropped),
		zap.Int("columns", len(present)),
	)

	return domain.NewDataset(records, present), nil
}

func parseRow(row []string, idx map[domain.Column]int) (domain.Booking, error) {
	get := func(c domain.Column) (string, bool) {
		i, ok := idx[c]
		if !ok || i >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[i]), true
	}

	var b domain.Booking

	country, _ := get(domain.ColCountry)
	if country == "" {
		country = "unknown"
	}
	b.Country = country

	year, _ := get(domain.ColArrivalYear)
	y, err := strconv.Atoi(year)
	if err != nil {
		return b, fmt.Errorf("parse %s %q: %w", domain.ColArrivalYear, year, err)
	}
	b.ArrivalYear = y

	b.ArrivalMonth, _ = get(domain.ColArrivalMonth)

	adr, _ := get(domain.ColADR)
	b.ADR, err = strconv.ParseFloat(adr, 64)
	if err != nil {
		return b, fmt.Errorf("parse %s %q: %w", domain.ColADR, adr, err)
	}

	canceled, _ := get(domain.ColIsCanceled)
	b.Canceled = canceled == "1"

	b.WeekendNights = optionalInt(get(domain.ColWeekendNights))
	b.WeekNights = optionalInt(get(domain.ColWeekNights))
	b.LeadTime = optionalInt(get(domain.ColLeadTime))
	b.Children = optionalInt(get(domain.ColChildren))
	b.Babies = optionalInt(get(domain.ColBabies))

	b.CustomerType, _ = get(domain.ColCustomerType)
	b.RoomType, _ = get(domain.ColRoomType)
	b.MarketSegment, _ = get(domain.ColMarketSegment)

	b.TotalNights = b.WeekendNights + b.WeekNights
	b.TotalPrice = b.ADR * float64(b.TotalNights)

	return b, nil
}

// optionalInt parses an optional integer cell; blank, absent, or
// unparseable values (like pandas NA) become 0.
func optionalInt(s string, ok bool) int {
	if !ok || s == "" || s == "NA" || s == "NULL" {
		return 0
	}
	// Some numeric columns arrive as floats ("2.0") after upstream cleaning.
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}
