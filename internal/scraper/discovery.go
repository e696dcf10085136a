package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go-leadgen-automation/internal/config"
	"go-leadgen-automation/internal/models"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"
)

const peopleSearchURL = "https://www.linkedin.com/search/results/people/"

// Selector lists carry fallbacks because the target reshuffles class names
// between rollouts.
const (
	resultListSelector = "li.reusable-search__result-container, .search-results-container li"
	noResultsSelector  = ".search-reusables__no-results, .search-no-results__container"
	profileAnchorSel   = "a.app-aware-link[href*=\"/in/\"], .entity-result__title-text a[href*=\"/in/\"]"
)

// Discovery enumerates candidate profile URLs one search page at a time.
// One Discovery per job: the seen set guarantees no URL is yielded twice even
// when the remote side re-ranks results across pages.
type Discovery struct {
	cfg  *config.Config
	log  *logrus.Logger
	seen mapset.Set[string]

	pages     pager
	exhausted bool
}

// pager tracks which search page the next fetch should request. The cursor
// only advances once a page was actually served, so a Next retried after a
// session drop re-requests the page whose candidates were lost.
type pager struct {
	fetched int
	max     int
}

// next returns the page number to request; false once the ceiling is passed.
func (p *pager) next() (int, bool) {
	n := p.fetched + 1
	if p.max > 0 && n > p.max {
		return 0, false
	}
	return n, true
}

func (p *pager) commit(n int) { p.fetched = n }

func NewDiscovery(cfg *config.Config, log *logrus.Logger) *Discovery {
	return &Discovery{
		cfg:   cfg,
		log:   log,
		seen:  mapset.NewSet[string](),
		pages: pager{max: cfg.Search.MaxPages},
	}
}

// Next fetches the next search page and returns the new candidate profile
// URLs on it. A nil, nil return signals exhaustion: either a page yielded
// nothing new or the page ceiling was hit.
func (d *Discovery) Next(ctx context.Context, sess Session, filter *models.FilterModel) ([]string, error) {
	if d.exhausted {
		return nil, nil
	}
	pageNum, ok := d.pages.next()
	if !ok {
		d.log.Warnf("⚠️ Page ceiling (%d) reached, stopping discovery", d.pages.max)
		d.exhausted = true
		return nil, nil
	}

	page := sess.Page()
	target := searchURL(filter, pageNum)
	d.log.Infof("🔍 Search page %d: %s", pageNum, target)

	sess.Pace(ctx)
	if err := d.navigate(ctx, sess, target); err != nil {
		return nil, err
	}

	if sessionDropped(page.URL()) {
		sess.NoteFriction()
		return nil, ErrSessionExpired
	}

	// Scroll so lazily rendered result cards attach to the DOM.
	if err := sess.Scroll(ctx); err != nil {
		d.log.Debugf("scroll failed: %v", err)
	}

	if _, err := page.WaitForSelector(resultListSelector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(float64(d.cfg.Search.PageTimeoutMs)),
	}); err != nil {
		if empty, _ := page.Locator(noResultsSelector).First().IsVisible(); empty {
			d.pages.commit(pageNum)
			d.exhausted = true
			return nil, nil
		}
		return nil, &StructuralError{What: "people search listing", Err: err}
	}
	d.pages.commit(pageNum)

	anchors, err := page.Locator(profileAnchorSel).All()
	if err != nil {
		return nil, &StructuralError{What: "people search listing", Err: err}
	}

	var batch []string
	for _, anchor := range anchors {
		href, err := anchor.GetAttribute("href")
		if err != nil || href == "" {
			continue
		}
		canonical, ok := canonicalProfileURL(href)
		if !ok {
			continue
		}
		// seen.Add reports false for duplicates, which also covers remote
		// re-ranking pushing old results onto later pages.
		if d.seen.Add(canonical) {
			batch = append(batch, canonical)
		}
	}

	if len(batch) == 0 {
		d.log.Infof("📄 Page %d yielded no new candidates, discovery exhausted", pageNum)
		d.exhausted = true
		return nil, nil
	}

	d.log.Infof("📄 Page %d: %d new candidates (%d seen total)", pageNum, len(batch), d.seen.Cardinality())
	return batch, nil
}

// navigate loads a search page with one retry on transient navigation
// failure. Structural and auth failures are classified by the caller.
func (d *Discovery) navigate(ctx context.Context, sess Session, target string) error {
	opts := playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(d.cfg.Search.PageTimeoutMs)),
	}
	if _, err := sess.Page().Goto(target, opts); err != nil {
		d.log.Warnf("⚠️ Search page load failed, retrying once: %v", err)
		sess.NoteFriction()
		sess.Pace(ctx)
		if _, err := sess.Page().Goto(target, opts); err != nil {
			return fmt.Errorf("search page unreachable: %w", err)
		}
	}
	return nil
}

// searchURL builds the people-search URL for one page. Role terms drive the
// keyword query; a filter with no roles falls back to its location terms
// (never both empty, the interpreter guarantees that).
func searchURL(filter *models.FilterModel, pageNum int) string {
	terms := filter.Roles
	if len(terms) == 0 {
		terms = filter.Locations
	}
	keywords := strings.Join(terms, " OR ")
	return fmt.Sprintf("%s?keywords=%s&origin=GLOBAL_SEARCH_HEADER&page=%d",
		peopleSearchURL, url.QueryEscape(keywords), pageNum)
}

// canonicalProfileURL normalizes a result anchor into the profile's natural
// key. Tracking query params (?miniProfileUrn=..., ?trackingId=...) make the
// same profile look like different URLs, so they are stripped.
func canonicalProfileURL(href string) (string, bool) {
	full := href
	if !strings.HasPrefix(href, "http") {
		full = "https://www.linkedin.com" + href
	}
	full = strings.SplitN(full, "?", 2)[0]
	full = strings.TrimSuffix(full, "/")
	if !strings.Contains(full, "/in/") {
		return "", false
	}
	return full, true
}

// sessionDropped reports whether the current URL is a login or authwall
// redirect, meaning the target invalidated our session.
func sessionDropped(current string) bool {
	return strings.Contains(current, "/login") ||
		strings.Contains(current, "/authwall") ||
		strings.Contains(current, "/uas/login")
}
