package scraper

import (
	"testing"

	"scraperofertas/models"
)

func TestParseDecimalFromText(t *testing.T) {
	cases := []struct {
		in   string
		want string
		nil_ bool
	}{
		{"R$ 1.234,56", "1234.56", false},
		{"R$ 25,90", "25.9", false},
		{"1.299", "1299", false},
		{"149", "149", false},
		{"", "", true},
		{"sem valor", "", true},
	}
	for _, tc := range cases {
		got := ParseDecimalFromText(tc.in)
		if tc.nil_ {
			if got != nil {
				t.Fatalf("ParseDecimalFromText(%q) = %v, want nil", tc.in, got)
			}
			continue
		}
		if got == nil || got.String() != tc.want {
			t.Fatalf("ParseDecimalFromText(%q) = %v, want %s", tc.in, got, tc.want)
		}
	}
}

func TestParsePercentFromText(t *testing.T) {
	if p := ParsePercentFromText("35% OFF"); p == nil || *p != 35 {
		t.Fatalf("expected 35, got %v", p)
	}
	if p := ParsePercentFromText("10 % de desconto"); p == nil || *p != 10 {
		t.Fatalf("expected 10, got %v", p)
	}
	if p := ParsePercentFromText("R$ 25,90"); p != nil {
		t.Fatalf("money text has no percent, got %v", p)
	}
	if p := ParsePercentFromText(""); p != nil {
		t.Fatalf("empty text has no percent, got %v", p)
	}
}

func TestParseTempo(t *testing.T) {
	if got := ParseTempo("  Termina em\n 02:15:33 "); got != "Termina em 02:15:33" {
		t.Fatalf("got %q", got)
	}
	if got := ParseTempo("   "); got != "" {
		t.Fatalf("blank input should normalize to empty, got %q", got)
	}
}

func TestParseCouponCardPercent(t *testing.T) {
	parsed := ParseCouponCard(models.RawCoupon{
		Nome:          "Cupom Eletrônicos",
		DescontoTexto: "35% OFF",
		URLOrigem:     "https://www.mercadolivre.com.br/cupons",
	})
	if parsed.DescontoPercentual == nil || *parsed.DescontoPercentual != 35 {
		t.Fatalf("expected percentual 35, got %v", parsed.DescontoPercentual)
	}
	if parsed.DescontoValor != nil {
		t.Fatalf("percent coupon must not carry absolute value, got %v", parsed.DescontoValor)
	}
	if parsed.Status != models.StatusAtivo {
		t.Fatalf("expected default status ativo, got %q", parsed.Status)
	}
}

func TestParseCouponCardAbsoluteValue(t *testing.T) {
	parsed := ParseCouponCard(models.RawCoupon{
		Nome:          "Cupom Mercado",
		DescontoTexto: "R$ 25,90",
	})
	if parsed.DescontoPercentual != nil {
		t.Fatalf("value coupon must not carry percentual, got %v", parsed.DescontoPercentual)
	}
	if parsed.DescontoValor == nil || parsed.DescontoValor.String() != "25.9" {
		t.Fatalf("expected valor 25.9, got %v", parsed.DescontoValor)
	}
}

func TestParseCouponCardKeepsRawPayload(t *testing.T) {
	raw := models.RawCoupon{Nome: "Cupom", RawText: "Cupom 10% off minimo R$ 50"}
	parsed := ParseCouponCard(raw)
	if parsed.Raw.RawText != raw.RawText {
		t.Fatalf("raw payload must be preserved verbatim")
	}
}

func TestParseCouponCardNoDiscount(t *testing.T) {
	parsed := ParseCouponCard(models.RawCoupon{Nome: "Frete grátis"})
	if parsed.DescontoPercentual != nil || parsed.DescontoValor != nil {
		t.Fatalf("no discount text should leave both fields nil")
	}
}
