package receipt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bojanz/currency"
	"github.com/go-playground/locales"

	"github.com/noah-isme/toko-receipts/internal/pricing"
)

// Rule separates the line blocks from the order summary.
const Rule = "----------------------------"

// Options selects the locale and ISO 4217 currency used for every amount.
type Options struct {
	Locale   string `json:"locale"`
	Currency string `json:"currency"`
}

// DefaultOptions returns en-US with EUR.
func DefaultOptions() Options {
	return Options{Locale: "en-US", Currency: "EUR"}
}

// Formatter renders order calculations as receipt text. It is immutable and safe for concurrent use.
type Formatter struct {
	opts   Options
	trans  locales.Translator
	code   string
	amount *currency.Formatter
}

// NewFormatter resolves locale and currency data, failing with ErrUnsupportedLocale
// or ErrUnsupportedCurrency when either is unknown.
func NewFormatter(opts Options) (*Formatter, error) {
	trans, err := resolveLocale(opts.Locale)
	if err != nil {
		return nil, err
	}
	code, err := resolveCurrency(opts.Currency)
	if err != nil {
		return nil, err
	}
	amount := currency.NewFormatter(cldrLocale(trans))
	digits, _ := currency.GetDigits(code)
	amount.MinDigits = digits
	amount.MaxDigits = digits
	amount.RoundingMode = currency.RoundHalfUp
	return &Formatter{opts: opts, trans: trans, code: code, amount: amount}, nil
}

// Options returns the options the formatter was built with.
func (f *Formatter) Options() Options { return f.opts }

// Locale returns the resolved locale identifier, e.g. "en_US".
func (f *Formatter) Locale() string { return f.trans.Locale() }

// Currency renders amount as locale-specific currency text, rounded half up to
// the currency's standard fraction digits.
func (f *Formatter) Currency(amount float64) string {
	n := strconv.FormatFloat(amount, 'f', -1, 64)
	a, err := currency.NewAmount(n, f.code)
	if err != nil {
		return f.code + " " + n
	}
	return f.amount.Format(a)
}

// FormatLine renders the block for one line. The discount row is omitted when there is no discount.
func (f *Formatter) FormatLine(calc pricing.LineCalculation) string {
	rows := make([]string, 0, 4)
	rows = append(rows, fmt.Sprintf("%s: %s x %s = %s",
		calc.Name, f.Currency(calc.UnitPrice), formatQuantity(calc.Quantity), f.Currency(calc.Subtotal)))
	if calc.Discount > 0 {
		rows = append(rows, "Discount: "+f.Currency(calc.Discount))
	}
	rows = append(rows, "Subtotal: "+f.Currency(calc.Total), "")
	return strings.Join(rows, "\n")
}

// FormatOrder renders every line block followed by the order summary.
func (f *Formatter) FormatOrder(calc pricing.OrderCalculation) string {
	rows := make([]string, 0, len(calc.Lines)+5)
	for _, line := range calc.Lines {
		rows = append(rows, f.FormatLine(line))
	}
	rows = append(rows,
		Rule,
		"Total "+formatQuantity(calc.TotalQuantity)+" items",
		"Total amount "+f.Currency(calc.TotalPrice),
		"Total discount "+f.Currency(calc.TotalDiscount),
		"Total after discount "+f.Currency(calc.FinalTotal),
	)
	return strings.Join(rows, "\n")
}

// Format builds a formatter for opts and renders calc with it.
func Format(calc pricing.OrderCalculation, opts Options) (string, error) {
	f, err := NewFormatter(opts)
	if err != nil {
		return "", err
	}
	return f.FormatOrder(calc), nil
}

func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
