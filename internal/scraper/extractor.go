package scraper

import (
	"context"
	"strings"
	"time"
	"unicode"

	"go-leadgen-automation/internal/config"
	"go-leadgen-automation/internal/models"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	profileNameSel     = "main h1, h1.text-heading-xlarge"
	profileHeadlineSel = ".text-body-medium.break-words, .pv-text-details__left-panel .text-body-medium"
	profileLocationSel = "span.text-body-small.inline.t-black--light.break-words, .pv-text-details__left-panel .text-body-small"
	profileCompanySel  = "button[aria-label*=\"Current company\"] span, .pv-text-details__right-panel li:first-child span"
)

// Enricher resolves an outreach email for a name + company pair. Best-effort:
// every error leaves the email blank and nothing else.
type Enricher interface {
	Lookup(ctx context.Context, fullName, company string) (string, error)
}

// Extractor turns one candidate profile URL into a normalized record.
type Extractor struct {
	cfg      *config.Config
	log      *logrus.Logger
	scorer   *Scorer
	enricher Enricher
}

// NewExtractor builds an Extractor. enricher may be nil when no enrichment
// collaborator is configured.
func NewExtractor(cfg *config.Config, log *logrus.Logger, enricher Enricher) *Extractor {
	return &Extractor{
		cfg:      cfg,
		log:      log,
		scorer:   NewScorer(cfg.Scoring),
		enricher: enricher,
	}
}

// Extract navigates to one profile in a fresh tab and parses its visible
// fields. Parse failures come back as *SkipError, never job-fatal. A login
// redirect comes back as ErrSessionExpired so the orchestrator can re-auth.
func (e *Extractor) Extract(ctx context.Context, sess Session, profileURL string, filter *models.FilterModel) (*models.ProfileRecord, error) {
	sess.Pace(ctx)

	tab, err := sess.Page().Context().NewPage()
	if err != nil {
		return nil, &SkipError{ProfileURL: profileURL, Reason: "could not open tab", Err: err}
	}
	defer tab.Close()

	opts := playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(e.cfg.Search.PageTimeoutMs)),
	}
	if _, err := tab.Goto(profileURL, opts); err != nil {
		// One retry for transient network failure, then skip.
		sess.Pace(ctx)
		if _, err := tab.Goto(profileURL, opts); err != nil {
			return nil, &SkipError{ProfileURL: profileURL, Reason: "profile unreachable", Err: err}
		}
	}

	if sessionDropped(tab.URL()) {
		sess.NoteFriction()
		return nil, ErrSessionExpired
	}

	if _, err := tab.WaitForSelector(profileNameSel, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		return nil, &SkipError{ProfileURL: profileURL, Reason: "profile markup not recognized", Err: err}
	}

	name := e.innerText(tab, profileNameSel)
	headline := e.innerText(tab, profileHeadlineSel)
	location := e.innerText(tab, profileLocationSel)
	company := e.innerText(tab, profileCompanySel)

	if name == "" {
		return nil, &SkipError{ProfileURL: profileURL, Reason: "no name on profile"}
	}

	title, headlineCompany := splitHeadline(headline)
	if company == "" {
		company = headlineCompany
	}

	seniority := SeniorityFromTitle(title)
	rec := &models.ProfileRecord{
		ID:            uuid.NewString(),
		FullName:      name,
		JobTitle:      title,
		CompanyName:   company,
		Location:      location,
		ProfileURL:    profileURL,
		Seniority:     seniority,
		DecisionMaker: e.scorer.DecisionMaker(seniority),
		ScrapedAt:     time.Now().UTC(),
	}
	rec.Engagement = e.scorer.Engagement(rec, filter)

	e.enrich(ctx, rec)

	e.log.WithFields(logrus.Fields{
		"name":      rec.FullName,
		"title":     rec.JobTitle,
		"seniority": rec.Seniority,
		"score":     rec.Engagement,
	}).Info("✅ Profile extracted")

	return rec, nil
}

// enrich resolves the email best-effort. A miss just leaves the field blank.
func (e *Extractor) enrich(ctx context.Context, rec *models.ProfileRecord) {
	if e.enricher == nil || rec.CompanyName == "" {
		return
	}
	email, err := e.enricher.Lookup(ctx, rec.FullName, rec.CompanyName)
	if err != nil {
		e.log.Debugf("enrichment miss for %s @ %s: %v", rec.FullName, rec.CompanyName, err)
		return
	}
	rec.Email = email
}

func (e *Extractor) innerText(page playwright.Page, selector string) string {
	loc := page.Locator(selector).First()
	if count, _ := loc.Count(); count == 0 {
		return ""
	}
	text, err := loc.InnerText()
	if err != nil {
		return ""
	}
	return cleanText(text)
}

// splitHeadline breaks "VP of Sales at Acme Corp" into title and company.
// Headlines without a separator are all title.
func splitHeadline(headline string) (title, company string) {
	for _, sep := range []string{" at ", " @ ", " | "} {
		if idx := strings.Index(headline, sep); idx > 0 {
			return strings.TrimSpace(headline[:idx]), strings.TrimSpace(headline[idx+len(sep):])
		}
	}
	return headline, ""
}

// cleanText collapses whitespace and strips combining marks so accented
// variants compare equal downstream.
func cleanText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(folded), " ")
}
