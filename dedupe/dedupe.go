package dedupe

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"regexp"
	"strings"
)

// Patterns in priority order; the /p/MLB catalog form wins over loose matches.
var mlbPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/p/MLB(\d{8,12})`),
	regexp.MustCompile(`(?i)MLB-?(\d{8,12})`),
}

const hashLen = 16

// NormalizeURL reduces a product URL to scheme://host/path, lowercased, with
// query string and fragment dropped. Tracking parameters vary between scrapes
// of the same listing; the normalized form does not.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return strings.ToLower(raw)
	}
	normalized := parsed.Scheme + "://" + parsed.Host + parsed.Path
	if strings.HasSuffix(normalized, "/") && parsed.Path != "" && parsed.Path != "/" {
		normalized = normalized[:len(normalized)-1]
	}
	return strings.ToLower(normalized)
}

// ExtractMLBID scans text (usually a URL) for a Mercado Livre item code and
// returns it as MLB<digits>, or "" when no code is present.
func ExtractMLBID(s string) string {
	if s == "" {
		return ""
	}
	for _, pattern := range mlbPatterns {
		if m := pattern.FindStringSubmatch(s); m != nil {
			return "MLB" + m[1]
		}
	}
	return ""
}

// ShortHash returns the first 16 hex chars of the md5 of s. Collision
// resistance at this length is enough for dedupe keys; this is not a
// security boundary.
func ShortHash(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:hashLen]
}

// BuildOfferKey derives the canonical identity of an offer. Priority:
// marketplace ID, then product ID, then a hash of the normalized URL.
// MLB IDs survive affiliate-link churn; URLs drift. Never fails: with no
// usable input it degrades to a fixed fallback key.
func BuildOfferKey(mlbID, productID, urlOriginal string) string {
	if mlbID != "" {
		return "mlb:" + mlbID
	}
	if productID != "" {
		return "pid:" + productID
	}
	if normalized := NormalizeURL(urlOriginal); normalized != "" {
		return "url:" + ShortHash(normalized)
	}
	return "fb:" + ShortHash("offer-fallback")
}

// BuildCouponKey hashes (normalized source URL, name, discount text).
// Pipe-joined so field boundaries cannot collide ("ab"+"c" vs "a"+"bc").
func BuildCouponKey(urlOrigem, nome, descontoTexto string) string {
	joined := strings.Join([]string{
		NormalizeURL(urlOrigem),
		strings.ToLower(strings.TrimSpace(nome)),
		strings.ToLower(strings.TrimSpace(descontoTexto)),
	}, "|")
	return "coupon:" + ShortHash(joined)
}

// CacheKey qualifies a dedupe key with its scraper type so the same listing
// scraped by different job types does not share a cache entry.
func CacheKey(scraperType, dedupeKey string) string {
	return scraperType + ":" + dedupeKey
}
