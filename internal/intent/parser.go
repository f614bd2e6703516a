// Package intent extracts a purchase intent from free-form chat text.
package intent

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"megan-waseller/internal/domain"
)

// DefaultProduct is used when no product text survives extraction.
const DefaultProduct = "kit alicate p/ gaxeta inox 3pçs"

const postalCodeLen = 8

var (
	// Longer unit words come first so alternation prefers the full word.
	quantityPattern = regexp.MustCompile(`(\d+)\s?(unidades|unidade|unid|un|peças|pçs|pç|pcs)`)
	digitRun        = regexp.MustCompile(`\d+`)
	postalMarker    = regexp.MustCompile(`cep.*$`)
)

// Parser is a deterministic, case-insensitive order intent extractor.
type Parser struct {
	defaultProduct string
}

// New returns a Parser that falls back to defaultProduct, or DefaultProduct
// when it is blank.
func New(defaultProduct string) *Parser {
	defaultProduct = strings.TrimSpace(defaultProduct)
	if defaultProduct == "" {
		defaultProduct = DefaultProduct
	}
	return &Parser{defaultProduct: defaultProduct}
}

// Parse uses the package default product description.
func Parse(text string) domain.OrderIntent {
	return New("").Parse(text)
}

func (p *Parser) Parse(text string) domain.OrderIntent {
	t := strings.ToLower(text)

	qty := 1
	token := ""
	if digits, match, ok := findQuantity(t); ok {
		token = match
		if n, err := strconv.Atoi(digits); err == nil && n > 0 && n <= domain.MaxQuantity {
			qty = n
		}
	}

	product := t
	if token != "" {
		if i := strings.Index(t, token); i >= 0 {
			product = t[:i]
		}
	}
	product = strings.TrimSpace(postalMarker.ReplaceAllString(product, ""))
	if product == "" {
		product = p.defaultProduct
	}

	return domain.OrderIntent{
		Product:    product,
		Quantity:   qty,
		PostalCode: findPostalCode(t),
	}
}

// findQuantity returns the first "<n> <unit>" token whose unit word is not
// followed by another word character.
func findQuantity(t string) (digits, match string, ok bool) {
	for _, loc := range quantityPattern.FindAllStringSubmatchIndex(t, -1) {
		end := loc[1]
		if end < len(t) {
			r, _ := utf8.DecodeRuneInString(t[end:])
			if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
				continue
			}
		}
		return t[loc[2]:loc[3]], t[loc[0]:loc[1]], true
	}
	return "", "", false
}

// findPostalCode returns the first maximal digit run of exactly eight digits
// once hyphens are removed.
func findPostalCode(t string) string {
	for _, run := range digitRun.FindAllString(strings.ReplaceAll(t, "-", ""), -1) {
		if len(run) == postalCodeLen {
			return run
		}
	}
	return ""
}
