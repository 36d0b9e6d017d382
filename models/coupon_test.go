package models

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCouponFromParsed(t *testing.T) {
	pct := 20
	parsed := ParsedCoupon{
		Nome:               " Cupom X ",
		DescontoTexto:      "20%",
		DescontoPercentual: &pct,
		URLOrigem:          "https://www.mercadolivre.com.br/cupons?x=1",
		Raw:                RawCoupon{Nome: "Cupom X", DescontoTexto: "20%"},
	}
	coupon := CouponFromParsed(parsed, "")

	if coupon.Nome != "Cupom X" {
		t.Fatalf("expected trimmed name, got %q", coupon.Nome)
	}
	if coupon.URLOrigem != "https://www.mercadolivre.com.br/cupons" {
		t.Fatalf("expected normalized origin, got %s", coupon.URLOrigem)
	}
	if !strings.HasPrefix(coupon.ChaveDedupe, "coupon:") {
		t.Fatalf("unexpected dedupe key %s", coupon.ChaveDedupe)
	}
	if len(coupon.RawPayload) == 0 {
		t.Fatalf("raw payload must be preserved for audit")
	}
	if !coupon.MinimalRequired() {
		t.Fatalf("coupon with origin and key should satisfy minimal required")
	}
}

func TestCouponFromParsedSourceURLFallback(t *testing.T) {
	coupon := CouponFromParsed(ParsedCoupon{Nome: "Cupom"}, "https://www.mercadolivre.com.br/cupons")
	if coupon.URLOrigem != "https://www.mercadolivre.com.br/cupons" {
		t.Fatalf("expected source url fallback, got %s", coupon.URLOrigem)
	}
}

func TestCouponFromParsedNoOrigin(t *testing.T) {
	coupon := CouponFromParsed(ParsedCoupon{Nome: "Cupom"}, "")
	if coupon.MinimalRequired() {
		t.Fatalf("coupon without origin must fail minimal required")
	}
	if coupon.ChaveDedupe == "" {
		t.Fatalf("dedupe key must still be deterministic and non-empty")
	}
}

func TestCouponDiscountExclusivity(t *testing.T) {
	val := decimal.RequireFromString("25.90")
	coupon := CouponFromParsed(ParsedCoupon{
		Nome:          "Cupom",
		DescontoTexto: "R$ 25,90",
		DescontoValor: &val,
		URLOrigem:     "https://a",
	}, "")
	if coupon.DescontoPercentual != nil {
		t.Fatalf("absolute-value coupon must not carry a percentage")
	}
	if coupon.DescontoValor == nil || !coupon.DescontoValor.Equal(val) {
		t.Fatalf("unexpected desconto_valor %v", coupon.DescontoValor)
	}
}

func TestJobResultCounters(t *testing.T) {
	r := NewJobResult(ScraperOfertas)
	r.Novos = 2
	r.Existentes = 1
	r.AddErro("item sem campos minimos")
	if r.TotalProcessados() != 4 {
		t.Fatalf("expected 4 processed, got %d", r.TotalProcessados())
	}
	if len(r.DetalhesErros) != 1 || r.Erros != 1 {
		t.Fatalf("error accounting mismatch: %d / %v", r.Erros, r.DetalhesErros)
	}
}
