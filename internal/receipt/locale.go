package receipt

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bojanz/currency"
	"github.com/go-playground/locales"
	"github.com/go-playground/locales/de"
	"github.com/go-playground/locales/de_DE"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/en_GB"
	"github.com/go-playground/locales/en_US"
	"github.com/go-playground/locales/es"
	"github.com/go-playground/locales/es_ES"
	"github.com/go-playground/locales/fr"
	"github.com/go-playground/locales/fr_FR"
	"github.com/go-playground/locales/id"
	"github.com/go-playground/locales/id_ID"
	"github.com/go-playground/locales/it"
	"github.com/go-playground/locales/it_IT"
	"github.com/go-playground/locales/ja"
	"github.com/go-playground/locales/ja_JP"
	"github.com/go-playground/locales/nl"
	"github.com/go-playground/locales/nl_NL"
	ut "github.com/go-playground/universal-translator"
	xcurrency "golang.org/x/text/currency"
	"golang.org/x/text/language"
)

var (
	// ErrUnsupportedLocale is returned when no locale data exists for the requested locale.
	ErrUnsupportedLocale = errors.New("unsupported locale")
	// ErrUnsupportedCurrency is returned for codes that are not recognised ISO 4217 currencies
	// or have no symbol data registered.
	ErrUnsupportedCurrency = errors.New("unsupported currency")
)

// currencies lists the ISO 4217 codes receipts can be rendered in.
var currencies = map[string]struct{}{
	"AUD": {},
	"CAD": {},
	"CHF": {},
	"EUR": {},
	"GBP": {},
	"IDR": {},
	"JPY": {},
	"USD": {},
}

type localeRegistry struct {
	uni   *ut.UniversalTranslator
	names []string
}

var registry = sync.OnceValue(func() *localeRegistry {
	supported := []locales.Translator{
		en.New(), en_US.New(), en_GB.New(),
		de.New(), de_DE.New(),
		fr.New(), fr_FR.New(),
		es.New(), es_ES.New(),
		it.New(), it_IT.New(),
		nl.New(), nl_NL.New(),
		id.New(), id_ID.New(),
		ja.New(), ja_JP.New(),
	}
	names := make([]string, 0, len(supported))
	for _, t := range supported {
		names = append(names, t.Locale())
	}
	sort.Strings(names)
	return &localeRegistry{
		uni:   ut.New(supported[1], supported...),
		names: names,
	}
})

// Supported lists the locale identifiers a Formatter can be built for.
func Supported() []string {
	names := registry().names
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// resolveLocale parses a BCP 47 tag and finds locale data for it, falling back
// from language-region to the bare language.
func resolveLocale(raw string) (locales.Translator, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty locale", ErrUnsupportedLocale)
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrUnsupportedLocale, raw, err)
	}
	base, _ := tag.Base()
	candidates := []string{strings.ReplaceAll(tag.String(), "-", "_")}
	if region, conf := tag.Region(); conf == language.Exact {
		candidates = append(candidates, base.String()+"_"+region.String())
	}
	candidates = append(candidates, base.String())

	reg := registry()
	for _, name := range candidates {
		if trans, found := reg.uni.GetTranslator(name); found {
			return trans, nil
		}
	}
	return nil, fmt.Errorf("%w %q", ErrUnsupportedLocale, raw)
}

// resolveCurrency validates an ISO 4217 code and returns it in canonical form.
func resolveCurrency(raw string) (string, error) {
	unit, err := xcurrency.ParseISO(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w %q: %w", ErrUnsupportedCurrency, raw, err)
	}
	code := unit.String()
	if _, ok := currencies[code]; !ok || !currency.IsValid(code) {
		return "", fmt.Errorf("%w %q", ErrUnsupportedCurrency, raw)
	}
	return code, nil
}

// cldrLocale maps a registry name such as "en_US" onto CLDR number and symbol data.
func cldrLocale(trans locales.Translator) currency.Locale {
	return currency.NewLocale(strings.ReplaceAll(trans.Locale(), "_", "-"))
}
