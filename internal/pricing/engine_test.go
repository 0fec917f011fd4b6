package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-receipts/internal/pricing"
)

func standardEngine() *pricing.Engine {
	return pricing.NewEngine(pricing.DefaultRules())
}

func TestCalculateLineTiers(t *testing.T) {
	cases := []struct {
		name     string
		line     pricing.Line
		subtotal float64
		discount float64
		total    float64
	}{
		{name: "below lowest tier", line: pricing.Line{Name: "Widget", UnitPrice: 10, Quantity: 5}, subtotal: 50, discount: 0, total: 50},
		{name: "exactly 100", line: pricing.Line{Name: "Widget", UnitPrice: 50, Quantity: 2}, subtotal: 100, discount: 10, total: 90},
		{name: "exactly 200", line: pricing.Line{Name: "Widget", UnitPrice: 100, Quantity: 2}, subtotal: 200, discount: 40, total: 160},
		{name: "above 200", line: pricing.Line{Name: "Premium Widget", UnitPrice: 150, Quantity: 3}, subtotal: 450, discount: 90, total: 360},
	}
	engine := standardEngine()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := engine.CalculateLine(tc.line)
			require.Equal(t, tc.line.Name, got.Name)
			require.Equal(t, tc.subtotal, got.Subtotal)
			require.Equal(t, tc.discount, got.Discount)
			require.Equal(t, tc.total, got.Total)
		})
	}
}

func TestCalculateLineFloatingPrices(t *testing.T) {
	engine := standardEngine()

	mid := engine.CalculateLine(pricing.Line{Name: "Widget", UnitPrice: 19.99, Quantity: 10})
	require.InDelta(t, 199.9, mid.Subtotal, 0.005)
	require.InDelta(t, 19.99, mid.Discount, 0.005)
	require.InDelta(t, 179.91, mid.Total, 0.005)

	high := engine.CalculateLine(pricing.Line{Name: "Widget", UnitPrice: 19.99, Quantity: 11})
	require.InDelta(t, 219.89, high.Subtotal, 0.005)
	require.InDelta(t, 43.978, high.Discount, 0.005)
	require.InDelta(t, 175.912, high.Total, 0.005)
}

func TestCalculateOrderMixedTiers(t *testing.T) {
	lines := []pricing.Line{
		{Name: "Cheap Item", UnitPrice: 10, Quantity: 5},
		{Name: "Mid Item", UnitPrice: 30, Quantity: 4},
		{Name: "Expensive Item", UnitPrice: 100, Quantity: 3},
	}

	got := standardEngine().CalculateOrder(lines)

	require.Len(t, got.Lines, 3)
	require.Equal(t, "Cheap Item", got.Lines[0].Name)
	require.Equal(t, "Expensive Item", got.Lines[2].Name)
	require.Equal(t, 12.0, got.TotalQuantity)
	require.Equal(t, 470.0, got.TotalPrice)
	require.Equal(t, 72.0, got.TotalDiscount)
	require.Equal(t, 398.0, got.FinalTotal)
}

func TestCalculateOrderEmpty(t *testing.T) {
	got := standardEngine().CalculateOrder(nil)

	require.NotNil(t, got.Lines)
	require.Empty(t, got.Lines)
	require.Zero(t, got.TotalQuantity)
	require.Zero(t, got.TotalPrice)
	require.Zero(t, got.TotalDiscount)
	require.Zero(t, got.FinalTotal)
}

func TestCalculateOrderWithoutRules(t *testing.T) {
	got := pricing.CalculateOrder([]pricing.Line{{Name: "Widget", UnitPrice: 100, Quantity: 3}}, nil)

	require.Equal(t, 300.0, got.TotalPrice)
	require.Zero(t, got.TotalDiscount)
	require.Equal(t, 300.0, got.FinalTotal)
}

func TestCalculateOrderFractionalQuantity(t *testing.T) {
	got := standardEngine().CalculateOrder([]pricing.Line{{Name: "Bulk Item", UnitPrice: 50.50, Quantity: 2.5}})

	require.Equal(t, 2.5, got.TotalQuantity)
	require.InDelta(t, 126.25, got.TotalPrice, 0.005)
	require.InDelta(t, 12.625, got.TotalDiscount, 0.005)
	require.InDelta(t, 113.625, got.FinalTotal, 0.005)
}

func TestAggregatesMatchLineSums(t *testing.T) {
	lines := []pricing.Line{
		{Name: "a", UnitPrice: 12.5, Quantity: 3},
		{Name: "b", UnitPrice: 99.99, Quantity: 1},
		{Name: "c", UnitPrice: 45, Quantity: 5},
		{Name: "d", UnitPrice: 0, Quantity: 9},
		{Name: "e", UnitPrice: 7.25, Quantity: 0.5},
	}
	got := standardEngine().CalculateOrder(lines)

	var qty, price, discount float64
	for _, calc := range got.Lines {
		require.Equal(t, calc.Subtotal-calc.Discount, calc.Total)
		require.GreaterOrEqual(t, calc.Discount, 0.0)
		require.LessOrEqual(t, calc.Discount, calc.Subtotal)
		qty += calc.Quantity
		price += calc.Subtotal
		discount += calc.Discount
	}
	require.Equal(t, qty, got.TotalQuantity)
	require.Equal(t, price, got.TotalPrice)
	require.Equal(t, discount, got.TotalDiscount)
	require.Equal(t, got.TotalPrice-got.TotalDiscount, got.FinalTotal)
}

func TestPercentageBoundaryIsInclusive(t *testing.T) {
	engine := pricing.NewEngine([]pricing.Rule{{Threshold: 200, Percentage: 0.2}, {Threshold: 100, Percentage: 0.1}})

	require.Equal(t, 0.0, engine.Percentage(99.99))
	require.Equal(t, 0.1, engine.Percentage(100))
	require.Equal(t, 10.0, engine.Discount(100))
	require.Equal(t, 0.1, engine.Percentage(199.99))
	require.Equal(t, 0.2, engine.Percentage(200))
}

func TestDiscountIsMonotonic(t *testing.T) {
	engine := pricing.NewEngine([]pricing.Rule{
		{Threshold: 50, Percentage: 0.05},
		{Threshold: 300, Percentage: 0.25},
		{Threshold: 100, Percentage: 0.1},
	})
	prev := engine.Discount(0)
	for s := 0.5; s <= 500; s += 0.5 {
		d := engine.Discount(s)
		require.GreaterOrEqual(t, d, prev, "discount dropped at subtotal %v", s)
		prev = d
	}
}

func TestNewEngineDoesNotMutateCallerRules(t *testing.T) {
	rules := []pricing.Rule{{Threshold: 100, Percentage: 0.1}, {Threshold: 200, Percentage: 0.2}}
	engine := pricing.NewEngine(rules)

	require.Equal(t, []pricing.Rule{{Threshold: 100, Percentage: 0.1}, {Threshold: 200, Percentage: 0.2}}, rules)
	require.Equal(t, []pricing.Rule{{Threshold: 200, Percentage: 0.2}, {Threshold: 100, Percentage: 0.1}}, engine.Rules())

	rules[0].Percentage = 0.9
	require.Equal(t, 0.1, engine.Percentage(150))

	exposed := engine.Rules()
	exposed[0].Percentage = 0.9
	require.Equal(t, 0.2, engine.Percentage(250))
}

func TestCalculateOrderIsIdempotent(t *testing.T) {
	rules := []pricing.Rule{{Threshold: 100, Percentage: 0.1}, {Threshold: 200, Percentage: 0.2}}
	lines := []pricing.Line{{Name: "x", UnitPrice: 60, Quantity: 2}, {Name: "y", UnitPrice: 250, Quantity: 1}}

	first := pricing.CalculateOrder(lines, rules)
	second := pricing.CalculateOrder(lines, rules)

	require.Equal(t, first, second)
}

func TestDuplicateThresholdsKeepInputOrder(t *testing.T) {
	engine := pricing.NewEngine([]pricing.Rule{{Threshold: 100, Percentage: 0.1}, {Threshold: 100, Percentage: 0.15}})
	require.Equal(t, 0.1, engine.Percentage(100))
}

func TestNegativeInputsStayConsistent(t *testing.T) {
	got := standardEngine().CalculateLine(pricing.Line{Name: "refund", UnitPrice: -20, Quantity: 3})

	require.Equal(t, -60.0, got.Subtotal)
	require.Zero(t, got.Discount)
	require.Equal(t, -60.0, got.Total)
}
