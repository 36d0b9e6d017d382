package models

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
	"scraperofertas/dedupe"
)

// RawCoupon is one coupon card as scraped, before any discount parsing.
type RawCoupon struct {
	Nome            string `json:"nome,omitempty"`
	DescontoTexto   string `json:"desconto_texto,omitempty"`
	LimiteCondicoes string `json:"limite_condicoes,omitempty"`
	ImagemURL       string `json:"imagem_url,omitempty"`
	URLOrigem       string `json:"url_origem,omitempty"`
	RawText         string `json:"raw_text,omitempty"`
	Status          string `json:"status,omitempty"`
}

// ParsedCoupon is a RawCoupon with the discount text resolved into exactly
// one of percentage or absolute value (see scraper.ParseCouponCard).
type ParsedCoupon struct {
	Nome               string           `json:"nome,omitempty"`
	DescontoTexto      string           `json:"desconto_texto,omitempty"`
	DescontoPercentual *int             `json:"desconto_percentual,omitempty"`
	DescontoValor      *decimal.Decimal `json:"desconto_valor,omitempty"`
	LimiteCondicoes    string           `json:"limite_condicoes,omitempty"`
	ImagemURL          string           `json:"imagem_url,omitempty"`
	URLOrigem          string           `json:"url_origem,omitempty"`
	Status             string           `json:"status,omitempty"`
	Raw                RawCoupon        `json:"raw_payload"`
}

// Coupon is a normalized discount coupon, keyed by ChaveDedupe.
type Coupon struct {
	Nome               string           `json:"nome,omitempty"`
	DescontoTexto      string           `json:"desconto_texto,omitempty"`
	DescontoPercentual *int             `json:"desconto_percentual,omitempty"`
	DescontoValor      *decimal.Decimal `json:"desconto_valor,omitempty"`
	LimiteCondicoes    string           `json:"limite_condicoes,omitempty"`
	ImagemURL          string           `json:"imagem_url,omitempty"`
	URLOrigem          string           `json:"url_origem,omitempty"`
	RawPayload         json.RawMessage  `json:"raw_payload,omitempty"`
	Status             string           `json:"status"`
	ChaveDedupe        string           `json:"chave_dedupe"`
}

// CouponFromParsed normalizes a parsed card into a Coupon. sourceURL is the
// page the card was scraped from, used when the card carried no link of its
// own. The original scrape is kept verbatim in RawPayload for audit.
func CouponFromParsed(parsed ParsedCoupon, sourceURL string) Coupon {
	urlOrigem := strings.TrimSpace(parsed.URLOrigem)
	if urlOrigem == "" {
		urlOrigem = strings.TrimSpace(sourceURL)
	}
	if urlOrigem != "" {
		urlOrigem = dedupe.NormalizeURL(urlOrigem)
	}

	rawPayload, _ := json.Marshal(parsed.Raw)

	coupon := Coupon{
		Nome:               strings.TrimSpace(parsed.Nome),
		DescontoTexto:      strings.TrimSpace(parsed.DescontoTexto),
		DescontoPercentual: parsed.DescontoPercentual,
		DescontoValor:      parsed.DescontoValor,
		LimiteCondicoes:    strings.TrimSpace(parsed.LimiteCondicoes),
		ImagemURL:          strings.TrimSpace(parsed.ImagemURL),
		URLOrigem:          urlOrigem,
		RawPayload:         rawPayload,
		Status:             statusOrDefault(parsed.Status),
	}
	coupon.ChaveDedupe = dedupe.BuildCouponKey(coupon.URLOrigem, coupon.Nome, coupon.DescontoTexto)
	return coupon
}

// MinimalRequired reports whether the coupon can be persisted.
func (c Coupon) MinimalRequired() bool {
	return c.ChaveDedupe != "" && c.URLOrigem != ""
}
