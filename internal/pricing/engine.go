package pricing

import (
	"cmp"
	"slices"
)

// Line describes a purchased item used for order calculation.
type Line struct {
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  float64 `json:"quantity"`
}

// Rule is a single discount tier: Percentage (0-1) applies once a line subtotal reaches Threshold.
type Rule struct {
	Threshold  float64 `json:"threshold"`
	Percentage float64 `json:"percentage"`
}

// LineCalculation holds the computed figures for one order line.
type LineCalculation struct {
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  float64 `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
	Discount  float64 `json:"discount"`
	Total     float64 `json:"total"`
}

// OrderCalculation aggregates computed line figures.
type OrderCalculation struct {
	Lines         []LineCalculation `json:"lines"`
	TotalQuantity float64           `json:"totalQuantity"`
	TotalPrice    float64           `json:"totalPrice"`
	TotalDiscount float64           `json:"totalDiscount"`
	FinalTotal    float64           `json:"finalTotal"`
}

// DefaultRules returns the standard tiers: 20% from 200 and 10% from 100.
func DefaultRules() []Rule {
	return []Rule{
		{Threshold: 200, Percentage: 0.2},
		{Threshold: 100, Percentage: 0.1},
	}
}

// Engine applies tiered discounts. It is immutable once constructed.
type Engine struct {
	rules []Rule
}

// NewEngine copies rules into an engine-owned slice ordered by threshold, highest first.
// Rules sharing a threshold keep their input order.
func NewEngine(rules []Rule) *Engine {
	owned := slices.Clone(rules)
	slices.SortStableFunc(owned, func(a, b Rule) int {
		return cmp.Compare(b.Threshold, a.Threshold)
	})
	return &Engine{rules: owned}
}

// Rules returns a copy of the configured tiers, highest threshold first.
func (e *Engine) Rules() []Rule {
	if e == nil {
		return nil
	}
	return slices.Clone(e.rules)
}

// Percentage returns the fraction of the highest tier whose threshold does not exceed subtotal.
func (e *Engine) Percentage(subtotal float64) float64 {
	if e == nil {
		return 0
	}
	for _, rule := range e.rules {
		if subtotal >= rule.Threshold {
			return rule.Percentage
		}
	}
	return 0
}

// Discount computes the discount amount for subtotal.
func (e *Engine) Discount(subtotal float64) float64 {
	pct := e.Percentage(subtotal)
	if pct == 0 {
		return 0
	}
	return subtotal * pct
}

// CalculateLine computes subtotal, discount and total for a single line.
func (e *Engine) CalculateLine(line Line) LineCalculation {
	subtotal := line.UnitPrice * line.Quantity
	discount := e.Discount(subtotal)
	return LineCalculation{
		Name:      line.Name,
		UnitPrice: line.UnitPrice,
		Quantity:  line.Quantity,
		Subtotal:  subtotal,
		Discount:  discount,
		Total:     subtotal - discount,
	}
}

// CalculateOrder computes every line in input order and sums the results.
func (e *Engine) CalculateOrder(lines []Line) OrderCalculation {
	out := OrderCalculation{Lines: make([]LineCalculation, 0, len(lines))}
	for _, line := range lines {
		calc := e.CalculateLine(line)
		out.Lines = append(out.Lines, calc)
		out.TotalQuantity += calc.Quantity
		out.TotalPrice += calc.Subtotal
		out.TotalDiscount += calc.Discount
	}
	out.FinalTotal = out.TotalPrice - out.TotalDiscount
	return out
}

// CalculateOrder is a convenience wrapper building a one-off engine for rules.
func CalculateOrder(lines []Line, rules []Rule) OrderCalculation {
	return NewEngine(rules).CalculateOrder(lines)
}
