package freight

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"megan-waseller/internal/domain"
)

// Band prices every parcel up to Max kilograms.
type Band struct {
	Max   float64 `json:"max"`
	Price float64 `json:"price"`
}

// Table holds weight bands per region, with an optional "DEFAULT" entry.
type Table map[string][]Band

var defaultBands = []Band{
	{Max: 1, Price: 29.9},
	{Max: 5, Price: 39.9},
	{Max: 999, Price: 89.9},
}

// ParseTable decodes the JSON rate table. A blank input yields an empty table.
func ParseTable(raw string) (Table, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Table{}, nil
	}
	var t Table
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return nil, fmt.Errorf("freight: decode rate table: %w", err)
	}
	if t == nil {
		return nil, errors.New("freight: rate table is null")
	}
	for region, bands := range t {
		for _, b := range bands {
			if b.Price < 0 {
				return nil, fmt.Errorf("freight: negative price in region %q", region)
			}
		}
	}
	return t, nil
}

func (t Table) bands(r Region) []Band {
	if b := t[string(r)]; len(b) > 0 {
		return b
	}
	if b := t[string(RegionDefault)]; len(b) > 0 {
		return b
	}
	return defaultBands
}

// Quote prices weight for region r: the first band whose Max covers the
// weight, else the last band.
func (t Table) Quote(r Region, weightKg float64) domain.FreightQuote {
	bands := t.bands(r)
	band := bands[len(bands)-1]
	for _, b := range bands {
		if weightKg <= b.Max {
			band = b
			break
		}
	}
	return domain.FreightQuote{
		Price:        domain.MoneyFromFloat(band.Price),
		LeadTimeDays: LeadTime(r),
	}
}
