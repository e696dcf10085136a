package browser

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

var chromiumArgs = []string{
	"--no-sandbox",
	"--disable-dev-shm-usage",
	"--disable-blink-features=AutomationControlled",
	"--disable-gpu",
}

// EngineManager owns one Playwright driver and one launched browser. The
// primary engine is chromium; firefox is the configured fallback, attempted
// once before giving up.
type EngineManager struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	engine  string
}

func NewEngineManager(headless bool) (*EngineManager, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright driver: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
		Args:     chromiumArgs,
	})
	if err == nil {
		return &EngineManager{pw: pw, browser: browser, engine: "chromium"}, nil
	}
	chromiumErr := err

	browser, err = pw.Firefox.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("no browser engine available (chromium: %v, firefox: %v)", chromiumErr, err)
	}
	return &EngineManager{pw: pw, browser: browser, engine: "firefox"}, nil
}

func (em *EngineManager) Engine() string {
	return em.engine
}

// NewContext creates a fresh browsing context carrying the session's
// fingerprint.
func (em *EngineManager) NewContext(fp Fingerprint) (playwright.BrowserContext, error) {
	return em.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(fp.UserAgent),
		Viewport: &playwright.Size{
			Width:  fp.Width,
			Height: fp.Height,
		},
	})
}

func (em *EngineManager) Close() error {
	if em.browser != nil {
		if err := em.browser.Close(); err != nil {
			return err
		}
	}
	if em.pw != nil {
		return em.pw.Stop()
	}
	return nil
}
