// Package serviceline models the bookable units attached to a booking: hotel stays,
// transfers, vehicle rentals, tours, guides, restaurants, entrance fees and extras.
//
// Every line shares one cost shape. The family-specific references live in a Detail
// value, so a line carries only the ids that matter for its family.
package serviceline

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Kilat-Travel/service-booking/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Cost is the cost shape shared by every service line.
type Cost struct {
	ServiceDate        time.Time       `json:"serviceDate"`
	Quantity           int             `json:"quantity"`
	CostAmount         decimal.Decimal `json:"costAmount"`
	CostCurrency       string          `json:"costCurrency"`
	ExchangeRate       decimal.Decimal `json:"exchangeRate"`
	CostInBaseCurrency decimal.Decimal `json:"costInBaseCurrency"`
	SellingPrice       decimal.Decimal `json:"sellingPrice"`
	SellingCurrency    string          `json:"sellingCurrency"`
	ServiceNotes       string          `json:"serviceNotes,omitempty"`
	ServiceDescription string          `json:"serviceDescription,omitempty"`
}

// Line is one priced bookable item.
type Line struct {
	Cost
	Detail Detail `json:"-"`
}

// NewLine validates the cost shape and derives CostInBaseCurrency.
func NewLine(detail Detail, cost Cost) (Line, error) {
	l := Line{Cost: cost, Detail: detail}
	if err := l.Validate(); err != nil {
		return Line{}, err
	}
	l.normalize()
	return l, nil
}

// Type returns the family of the line.
func (l Line) Type() ServiceType {
	if l.Detail == nil {
		return ""
	}
	return l.Detail.ServiceType()
}

// TotalCost is the base-currency cost of all units.
func (l Line) TotalCost() decimal.Decimal {
	return l.CostInBaseCurrency.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// TotalSelling is the selling price of all units.
func (l Line) TotalSelling() decimal.Decimal {
	return l.SellingPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Profit is TotalSelling minus TotalCost.
func (l Line) Profit() decimal.Decimal {
	return l.TotalSelling().Sub(l.TotalCost())
}

// Validate checks the common cost shape.
func (l Line) Validate() error {
	if l.Detail == nil || !l.Type().IsValid() {
		return domain.NewValidationError("service line requires a known service type")
	}
	if l.Quantity < 1 {
		return domain.NewValidationError("quantity must be at least 1")
	}
	if l.CostAmount.IsNegative() {
		return domain.NewValidationError("cost amount cannot be negative")
	}
	if !l.ExchangeRate.IsPositive() {
		return domain.NewValidationError("exchange rate must be positive")
	}
	if l.SellingPrice.IsNegative() {
		return domain.NewValidationError("selling price cannot be negative")
	}
	if err := ValidateCurrency(l.CostCurrency); err != nil {
		return err
	}
	if err := ValidateCurrency(l.SellingCurrency); err != nil {
		return err
	}
	return nil
}

func (l *Line) normalize() {
	l.CostInBaseCurrency = l.CostAmount.Mul(l.ExchangeRate)
	l.CostCurrency = strings.ToUpper(l.CostCurrency)
	l.SellingCurrency = strings.ToUpper(l.SellingCurrency)
}

// ValidateCurrency checks that code is an ISO 4217 currency code.
func ValidateCurrency(code string) error {
	if code == "" {
		return domain.NewValidationError("currency is required")
	}
	if _, err := currency.ParseISO(code); err != nil {
		return domain.NewValidationError(fmt.Sprintf("invalid currency code: %s", code))
	}
	return nil
}

type lineJSON struct {
	ServiceType ServiceType `json:"serviceType"`
	Cost
	Detail json.RawMessage `json:"detail"`
}

// MarshalJSON encodes the line with its family tag.
func (l Line) MarshalJSON() ([]byte, error) {
	detail, err := json.Marshal(l.Detail)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s detail: %w", l.Type(), err)
	}
	return json.Marshal(lineJSON{ServiceType: l.Type(), Cost: l.Cost, Detail: detail})
}

// UnmarshalJSON decodes a tagged line and re-derives CostInBaseCurrency.
func (l *Line) UnmarshalJSON(data []byte) error {
	var raw lineJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d, ok := newDetail(raw.ServiceType)
	if !ok {
		return fmt.Errorf("invalid service type: %q", raw.ServiceType)
	}
	if len(raw.Detail) > 0 && string(raw.Detail) != "null" {
		if err := json.Unmarshal(raw.Detail, d); err != nil {
			return fmt.Errorf("failed to unmarshal %s detail: %w", raw.ServiceType, err)
		}
	}
	l.Cost = raw.Cost
	l.Detail = deref(d)
	l.normalize()
	return nil
}

// Collection is the ordered list of service lines of a booking.
type Collection []Line

// Add appends a line. Identical lines are kept as separate entries.
func (c *Collection) Add(l Line) error {
	if err := l.Validate(); err != nil {
		return err
	}
	l.normalize()
	*c = append(*c, l)
	return nil
}

// Remove deletes the line at index.
func (c *Collection) Remove(index int) error {
	if index < 0 || index >= len(*c) {
		return domain.NewValidationError(fmt.Sprintf("service index %d out of range", index))
	}
	*c = append((*c)[:index:index], (*c)[index+1:]...)
	return nil
}

// TotalCost sums TotalCost over all lines.
func (c Collection) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c {
		total = total.Add(l.TotalCost())
	}
	return total
}

// TotalSelling sums TotalSelling over all lines.
func (c Collection) TotalSelling() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c {
		total = total.Add(l.TotalSelling())
	}
	return total
}
