package scraper

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/playwright-community/playwright-go"
	"scraperofertas/dedupe"
	"scraperofertas/models"
)

const maxOfferPages = 20

// BrowserOptions configures the persistent browser profile. The user data
// dir holds the Mercado Livre session cookies; affiliate link generation
// only works while that profile is logged in.
type BrowserOptions struct {
	Headless    bool
	UserDataDir string
	WaitMs      int
}

// BrowserEngine drives a persistent Chromium context against the Mercado
// Livre site. All page interaction is sequential on a single page; the
// engine is not safe for concurrent use.
type BrowserEngine struct {
	opts    BrowserOptions
	pw      *playwright.Playwright
	browser playwright.BrowserContext
	page    playwright.Page
}

func NewBrowserEngine(opts BrowserOptions) (*BrowserEngine, error) {
	if opts.UserDataDir == "" {
		opts.UserDataDir = "./ml_browser_data"
	}
	if opts.WaitMs <= 0 {
		opts.WaitMs = 1500
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	browser, err := pw.Chromium.LaunchPersistentContext(opts.UserDataDir, playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless:  playwright.Bool(opts.Headless),
		Viewport:  &playwright.Size{Width: 1920, Height: 1080},
		UserAgent: playwright.String("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"),
		Locale:    playwright.String("pt-BR"),
		TimezoneId: playwright.String("America/Sao_Paulo"),
		Geolocation: &playwright.Geolocation{
			Latitude:  -23.5505,
			Longitude: -46.6333,
		},
		Permissions: []string{"geolocation"},
		ColorScheme: playwright.ColorSchemeLight,
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--no-sandbox",
			"--disable-dev-shm-usage",
			"--disable-infobars",
			"--disable-extensions",
			"--disable-gpu",
			"--window-size=1920,1080",
		},
		IgnoreDefaultArgs: []string{"--enable-automation"},
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	page, err := browser.NewPage()
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("create page: %w", err)
	}

	stealth := `
		Object.defineProperty(navigator, 'webdriver', { get: () => false });
		Object.defineProperty(navigator, 'languages', { get: () => ['pt-BR', 'pt', 'en-US', 'en'] });
		window.chrome = window.chrome || { runtime: {} };
	`
	if err := page.AddInitScript(playwright.Script{Content: playwright.String(stealth)}); err != nil {
		log.Printf("init script failed (continuing): %v", err)
	}

	return &BrowserEngine{opts: opts, pw: pw, browser: browser, page: page}, nil
}

func (e *BrowserEngine) Close() error {
	var firstErr error
	if e.browser != nil {
		if err := e.browser.Close(); err != nil {
			firstErr = err
		}
		e.browser = nil
	}
	if e.pw != nil {
		if err := e.pw.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
		e.pw = nil
	}
	e.page = nil
	return firstErr
}

func (e *BrowserEngine) humanDelay(minMs, maxMs int) {
	time.Sleep(time.Duration(minMs+rand.Intn(maxMs-minMs)) * time.Millisecond)
}

func (e *BrowserEngine) smoothScroll(times int) {
	for i := 0; i < times; i++ {
		e.page.Evaluate(`window.scrollBy(0, window.innerHeight * 0.8)`)
		e.humanDelay(250, 650)
	}
	e.page.Evaluate(`window.scrollTo(0, 0)`)
	e.humanDelay(200, 400)
}

func (e *BrowserEngine) navigate(url string) error {
	_, err := e.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(30000),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	return err
}

func (e *BrowserEngine) document() (*goquery.Document, error) {
	content, err := e.page.Content()
	if err != nil {
		return nil, fmt.Errorf("page content: %w", err)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(content))
}

// VerifyLogin reports whether the persistent profile still carries an
// affiliate session.
func (e *BrowserEngine) VerifyLogin(ctx context.Context) bool {
	if err := e.navigate(OffersURL); err != nil {
		return false
	}
	e.humanDelay(1000, 1600)

	selectors := []string{
		"[class*='affiliate']",
		"[class*='nav-affiliate']",
		":text('Afiliados')",
		"[class*='user-name']",
		"[class*='nav-header-user']",
	}
	for _, sel := range selectors {
		if visible, _ := e.page.Locator(sel).First().IsVisible(); visible {
			return true
		}
	}
	return false
}

// CollectOfferLinks paginates the offers listing collecting product links
// until maxProdutos unseen links are found or the pagination runs out.
// Pagination is bounded to keep a broken next button from looping forever.
func (e *BrowserEngine) CollectOfferLinks(ctx context.Context, mode string, maxProdutos int, seen SeenChecker, startURL string) ([]string, error) {
	baseURL := startURL
	if baseURL == "" {
		if mode == models.ScraperOfertasRelampago {
			baseURL = OffersRelampagoURL
		} else {
			baseURL = OffersURL
		}
	}
	if err := e.navigate(baseURL); err != nil {
		return nil, fmt.Errorf("open offers page: %w", err)
	}
	e.humanDelay(1200, 1800)

	if mode == models.ScraperOfertasRelampago {
		e.clickRelampagoFilter()
	}

	var collected []string
	seenLocal := make(map[string]bool)

	for pageNum := 0; pageNum < maxOfferPages; pageNum++ {
		if err := ctx.Err(); err != nil {
			return collected, err
		}

		e.smoothScroll(5)
		pageLinks, err := e.extractLinksFromCurrentPage()
		if err != nil {
			return collected, err
		}
		if len(pageLinks) == 0 {
			break
		}

		for _, link := range pageLinks {
			if seenLocal[link] {
				continue
			}
			seenLocal[link] = true

			if seen != nil {
				alreadySeen, err := seen(ctx, link)
				if err != nil {
					return collected, err
				}
				if alreadySeen {
					continue
				}
			}

			collected = append(collected, link)
			if len(collected) >= maxProdutos {
				return collected[:maxProdutos], nil
			}
		}

		// A page full of already-seen links is not the end of the catalog;
		// keep paginating while there is capacity left.
		if !e.goToNextOffersPage() {
			break
		}
	}

	return collected, nil
}

func (e *BrowserEngine) extractLinksFromCurrentPage() ([]string, error) {
	doc, err := e.document()
	if err != nil {
		return nil, err
	}

	unique := make(map[string]bool)
	var links []string
	doc.Find("a[href*='/p/MLB'], a[href*='produto.mercadolivre']").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		href = strings.SplitN(href, "#", 2)[0]
		href = strings.SplitN(href, "?", 2)[0]
		if !strings.Contains(href, "/p/MLB") && !strings.Contains(href, "produto.mercadolivre") {
			return
		}
		if !unique[href] {
			unique[href] = true
			links = append(links, href)
		}
	})
	return links, nil
}

func (e *BrowserEngine) clickRelampagoFilter() {
	filters := []string{
		"a:has-text('Relâmpago')",
		"button:has-text('Relâmpago')",
		"a:has-text('Ofertas relâmpago')",
	}
	e.humanDelay(1200, 2000)
	for _, sel := range filters {
		el := e.page.Locator(sel).First()
		if visible, _ := el.IsVisible(); visible {
			if err := el.Click(); err == nil {
				e.humanDelay(2200, 3200)
				return
			}
		}
	}
}

func (e *BrowserEngine) goToNextOffersPage() bool {
	nextSelectors := []string{
		".andes-pagination__button--next a",
		"a[title='Seguinte']",
		"li a:has-text('Próxima')",
		"nav[aria-label*='agina'] a:has-text('Seguinte')",
	}
	for _, sel := range nextSelectors {
		btn := e.page.Locator(sel).First()
		visible, _ := btn.IsVisible()
		if !visible {
			continue
		}
		if disabled, _ := btn.GetAttribute("aria-disabled"); disabled == "true" {
			return false
		}
		if err := btn.Click(); err != nil {
			continue
		}
		e.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
			State:   playwright.LoadStateDomcontentloaded,
			Timeout: playwright.Float(15000),
		})
		e.humanDelay(1000, 1500)
		return true
	}
	return false
}

// ExtractProduct opens one product page and scrapes its fields plus the
// affiliate share link. Failures come back inside the RawOffer so one bad
// page never aborts the run.
func (e *BrowserEngine) ExtractProduct(ctx context.Context, url string, includeTempo bool) (models.RawOffer, error) {
	raw := models.RawOffer{URLOriginal: url, Status: "pendente"}

	if err := ctx.Err(); err != nil {
		raw.Status = models.StatusErro
		raw.Erro = err.Error()
		return raw, nil
	}

	if err := e.navigate(url); err != nil {
		raw.Status = models.StatusErro
		raw.Erro = err.Error()
		return raw, nil
	}
	e.humanDelay(900, 1500)
	e.page.Locator("h1, .ui-pdp-title").First().WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(10000),
	})

	raw.MLBID = dedupe.ExtractMLBID(url)

	doc, err := e.document()
	if err != nil {
		raw.Status = models.StatusErro
		raw.Erro = err.Error()
		return raw, nil
	}

	raw.Nome = strings.TrimSpace(doc.Find("h1.ui-pdp-title, .ui-pdp-title, h1").First().Text())
	raw.PrecoAtual = decimalText(doc.Find(".ui-pdp-price__second-line .andes-money-amount__fraction").First().Text())
	raw.PrecoOriginal = decimalText(doc.Find(".ui-pdp-price__original-value .andes-money-amount__fraction, s .andes-money-amount__fraction").First().Text())
	raw.Desconto = strings.TrimSpace(doc.Find(".ui-pdp-price__second-line__label, .andes-money-amount__discount").First().Text())
	raw.FotoURL = firstImageSrc(doc)

	if includeTempo {
		raw.TempoParaAcabar = e.extractTempoParaAcabar()
	}

	if link := e.extractAffiliateLink(); link != "" {
		raw.URLCurta = link
		raw.URLAfiliado = link
		raw.Status = "sucesso"
	} else {
		raw.Status = "sem_link"
	}

	return raw, nil
}

// decimalText canonicalizes a scraped pt-BR amount so the entity layer can
// parse it without locale knowledge.
func decimalText(text string) string {
	d := ParseDecimalFromText(strings.TrimSpace(text))
	if d == nil {
		return ""
	}
	return d.String()
}

func firstImageSrc(doc *goquery.Document) string {
	sel := doc.Find("main figure img, .ui-pdp-gallery figure img, .ui-pdp-gallery__figure img").First()
	if sel.Length() == 0 {
		sel = doc.Find("img[src*='mlstatic'], img[src*='mercadolivre']").First()
	}
	if src, ok := sel.Attr("src"); ok && src != "" {
		return src
	}
	if src, ok := sel.Attr("data-src"); ok {
		return src
	}
	return ""
}

func (e *BrowserEngine) extractTempoParaAcabar() string {
	selectors := []string{
		".ui-pdp-promotions-label",
		"[class*='countdown']",
		"span:has-text('Termina em')",
	}
	for _, sel := range selectors {
		el := e.page.Locator(sel).First()
		if visible, _ := el.IsVisible(); !visible {
			continue
		}
		text, err := el.TextContent()
		if err != nil {
			continue
		}
		if normalized := ParseTempo(text); normalized != "" {
			return normalized
		}
	}
	return ""
}

var shortLinkRe = regexp.MustCompile(`https?://[\w.-]+/sec/[\w-]+|https?://meli\.to/[\w-]+`)

// extractAffiliateLink opens the share modal and hunts for the short
// affiliate URL. Requires a logged-in affiliate profile; returns "" when
// the button or the link never shows up.
func (e *BrowserEngine) extractAffiliateLink() string {
	btn := e.page.Locator("nav button:has-text('Compartilhar'), header button:has-text('Compartilhar'), button:has-text('Compartilhar')").First()
	if err := btn.WaitFor(playwright.LocatorWaitForOptions{Timeout: playwright.Float(5000)}); err != nil {
		return ""
	}
	if err := btn.Click(); err != nil {
		return ""
	}
	e.humanDelay(700, 1400)

	e.page.Locator("input[value*='mercadolivre.com/sec'], input[value*='meli.to']").First().WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(6000),
	})

	link := ""
	inputs := e.page.Locator("input[type='text'], input[readonly]")
	count, _ := inputs.Count()
	for i := 0; i < count; i++ {
		value, err := inputs.Nth(i).GetAttribute("value")
		if err != nil {
			continue
		}
		if strings.Contains(value, "mercadolivre.com/sec/") || strings.Contains(value, "meli.to/") {
			link = strings.TrimSpace(value)
			break
		}
	}

	if link == "" {
		if content, err := e.page.Content(); err == nil {
			link = shortLinkRe.FindString(content)
		}
	}

	closeBtn := e.page.Locator("[class*='close'], button[aria-label='Fechar'], button:has-text('Fechar')").First()
	if visible, _ := closeBtn.IsVisible(); visible {
		closeBtn.Click()
	} else {
		e.page.Keyboard().Press("Escape")
	}
	e.humanDelay(200, 450)

	return link
}

var (
	limiteRe = regexp.MustCompile(`(?i)(mínimo[^.\n;]*|limite[^.\n;]*|válido[^.\n;]*|até[^.\n;]*)`)
	wsRe     = regexp.MustCompile(`\s+`)
)

// ScrapeCoupons reads the coupon cards off the coupons landing page. Cards
// have no stable markup, so extraction is text-first with loose selectors.
func (e *BrowserEngine) ScrapeCoupons(ctx context.Context, maxCupons int) ([]models.RawCoupon, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := e.navigate(CouponsURL); err != nil {
		return nil, fmt.Errorf("open coupons page: %w", err)
	}
	e.humanDelay(1200, 2200)

	filtro := e.page.Locator("button:has-text('Acabam hoje'), a:has-text('Acabam hoje')").First()
	if visible, _ := filtro.IsVisible(); visible {
		if err := filtro.Click(); err == nil {
			e.humanDelay(1800, 2500)
		}
	}
	e.smoothScroll(3)

	doc, err := e.document()
	if err != nil {
		return nil, err
	}

	var cards []models.RawCoupon
	seenText := make(map[string]bool)

	doc.Find("[class*='coupon'], [class*='cupon'], [class*='voucher']").Each(func(_ int, s *goquery.Selection) {
		if len(cards) >= maxCupons {
			return
		}
		rawText := strings.TrimSpace(wsRe.ReplaceAllString(s.Text(), " "))
		if rawText == "" {
			return
		}

		uniqueKey := rawText
		if len(uniqueKey) > 140 {
			uniqueKey = uniqueKey[:140]
		}
		if seenText[uniqueKey] {
			return
		}
		seenText[uniqueKey] = true

		card := models.RawCoupon{RawText: rawText}

		if img := s.Find("img").First(); img.Length() > 0 {
			card.ImagemURL, _ = img.Attr("src")
			if card.ImagemURL == "" {
				card.ImagemURL, _ = img.Attr("data-src")
			}
		}

		nome := strings.TrimSpace(s.Find("h1, h2, h3, strong, [class*='title']").First().Text())
		if nome == "" {
			nome = rawText
			if len(nome) > 120 {
				nome = nome[:120]
			}
		}
		card.Nome = nome
		card.DescontoTexto = descontoRe.FindString(rawText)
		card.LimiteCondicoes = limiteRe.FindString(rawText)

		if href, ok := s.Find("a[href]").First().Attr("href"); ok && href != "" {
			card.URLOrigem = href
		} else {
			card.URLOrigem = CouponsURL
		}

		cards = append(cards, card)
	})

	return cards, nil
}
