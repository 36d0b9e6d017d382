package scraper

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"scraperofertas/models"
)

var (
	decimalRe  = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	percentRe  = regexp.MustCompile(`(\d{1,3})\s*%`)
	descontoRe = regexp.MustCompile(`(?i)(\d+\s?%|R\$\s?[\d.,]+)`)
)

// ParseDecimalFromText extracts a pt-BR money amount ("R$ 1.234,56") from
// free text. Thousands dots are stripped and the decimal comma becomes a
// point before parsing.
func ParseDecimalFromText(text string) *decimal.Decimal {
	if text == "" {
		return nil
	}
	cleaned := strings.ReplaceAll(text, "R$", "")
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	match := decimalRe.FindString(cleaned)
	if match == "" {
		return nil
	}
	d, err := decimal.NewFromString(match)
	if err != nil {
		return nil
	}
	return &d
}

// ParsePercentFromText extracts the leading percentage from text like
// "35% OFF".
func ParsePercentFromText(text string) *int {
	if text == "" {
		return nil
	}
	match := percentRe.FindStringSubmatch(text)
	if match == nil {
		return nil
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return nil
	}
	return &n
}

// ParseTempo collapses whitespace in a countdown label ("Termina em
// 02: 15: 33" arrives with stray newlines from the DOM).
func ParseTempo(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// ParseCouponCard resolves the scraped discount text into exactly one of
// percentage or absolute value. "35%" wins over "R$"; a card that matches
// neither keeps both nil.
func ParseCouponCard(raw models.RawCoupon) models.ParsedCoupon {
	parsed := models.ParsedCoupon{
		Nome:            strings.TrimSpace(raw.Nome),
		DescontoTexto:   strings.TrimSpace(raw.DescontoTexto),
		LimiteCondicoes: strings.TrimSpace(raw.LimiteCondicoes),
		ImagemURL:       strings.TrimSpace(raw.ImagemURL),
		URLOrigem:       strings.TrimSpace(raw.URLOrigem),
		Status:          strings.TrimSpace(raw.Status),
		Raw:             raw,
	}
	if parsed.Status == "" {
		parsed.Status = models.StatusAtivo
	}

	parsed.DescontoPercentual = ParsePercentFromText(parsed.DescontoTexto)
	if parsed.DescontoPercentual == nil {
		parsed.DescontoValor = ParseDecimalFromText(parsed.DescontoTexto)
	}
	return parsed
}
