package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-leadgen-automation/internal/config"
	"go-leadgen-automation/internal/models"
	"go-leadgen-automation/utils"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"
)

type AuthKind string

const (
	// KindInvalidCredentials: the login form rejected the account.
	KindInvalidCredentials AuthKind = "invalid_credentials"
	// KindChallengeRequired: the target demands extra verification. There is
	// no automated bypass; the job fails and the user must act.
	KindChallengeRequired AuthKind = "challenge_required"
	// KindEngineUnavailable: no browser engine could be initialized, even
	// after the fallback attempt.
	KindEngineUnavailable AuthKind = "engine_unavailable"
)

// AuthError is fatal to the job that triggered it. It is user-actionable:
// fix credentials, clear the verification, or install a browser engine.
type AuthError struct {
	Kind   AuthKind
	Detail string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *AuthError) Unwrap() error { return e.Err }

func authErr(kind AuthKind, detail string, err error) *AuthError {
	return &AuthError{Kind: kind, Detail: detail, Err: err}
}

const (
	loginURL = "https://www.linkedin.com/login"
	feedURL  = "https://www.linkedin.com/feed/"
)

// Manager opens and tears down authenticated sessions. One live session per
// running job; sessions are not safe for concurrent use and are never shared.
type Manager struct {
	cfg    *config.Config
	log    *logrus.Logger
	jitter *JitterPolicy
	shots  *utils.ScreenshotDebugger
}

func NewManager(cfg *config.Config, log *logrus.Logger) *Manager {
	return &Manager{
		cfg:    cfg,
		log:    log,
		jitter: NewJitterPolicy(cfg.Stealth),
		shots:  utils.NewScreenshotDebugger(cfg.ScreenshotDir, log),
	}
}

// Session is one authenticated browsing context. The fingerprint is picked at
// open time and fixed for the session's lifetime; trust age tracks the time
// since the last detected friction and modulates pacing.
type Session struct {
	engine       *EngineManager
	browserCtx   playwright.BrowserContext
	page         playwright.Page
	fingerprint  Fingerprint
	creds        models.TargetCredentials
	jitter       *JitterPolicy
	log          *logrus.Logger
	mgr          *Manager
	lastFriction time.Time
}

func (s *Session) Page() playwright.Page { return s.page }

func (s *Session) TrustAge() time.Duration {
	return time.Since(s.lastFriction)
}

func (s *Session) NoteFriction() {
	s.lastFriction = time.Now()
}

func (s *Session) Pace(ctx context.Context) {
	s.jitter.Wait(ctx, s.TrustAge())
}

func (s *Session) Scroll(ctx context.Context) error {
	return HumanScroll(ctx, s.page, s.jitter)
}

// Relogin re-runs the login flow on the existing browsing context. Used once
// per job when the target invalidates the session mid-run.
func (s *Session) Relogin(ctx context.Context) error {
	s.NoteFriction()
	s.log.Warn("🔐 Session invalidated mid-run, re-authenticating...")
	return s.mgr.login(ctx, s)
}

// Close logs out and destroys the browsing context and engine. Safe to call
// once per session.
func (s *Session) Close() {
	if s.page != nil {
		// Best-effort logout keeps the account tidy; ignore failures.
		_, _ = s.page.Goto("https://www.linkedin.com/m/logout/", playwright.PageGotoOptions{
			Timeout: playwright.Float(10000),
		})
	}
	if s.browserCtx != nil {
		_ = s.browserCtx.Close()
	}
	if s.engine != nil {
		_ = s.engine.Close()
	}
}

// Open launches an engine, picks a fingerprint, and authenticates against
// the target. Every failure maps onto one AuthError kind.
func (m *Manager) Open(ctx context.Context, creds models.TargetCredentials) (*Session, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, authErr(KindInvalidCredentials, "target account not configured", nil)
	}

	engine, err := NewEngineManager(m.cfg.Stealth.Headless)
	if err != nil {
		return nil, authErr(KindEngineUnavailable, "browser engine initialization failed", err)
	}
	m.log.Infof("🧭 Browser engine ready (%s)", engine.Engine())

	fp := m.jitter.PickFingerprint()
	browserCtx, err := engine.NewContext(fp)
	if err != nil {
		engine.Close()
		return nil, authErr(KindEngineUnavailable, "browser context creation failed", err)
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		browserCtx.Close()
		engine.Close()
		return nil, authErr(KindEngineUnavailable, "page creation failed", err)
	}

	sess := &Session{
		engine:       engine,
		browserCtx:   browserCtx,
		page:         page,
		fingerprint:  fp,
		creds:        creds,
		jitter:       m.jitter,
		log:          m.log,
		mgr:          m,
		lastFriction: time.Now().Add(-time.Hour),
	}

	if err := m.login(ctx, sess); err != nil {
		sess.Close()
		return nil, err
	}
	return sess, nil
}

// Close tears down a session. Kept on the manager so callers that only hold
// the interface can still hand sessions back.
func (m *Manager) Close(s *Session) {
	if s != nil {
		s.Close()
	}
}

// login runs the credential flow and classifies the outcome. Human-like
// pacing between field fills; never retried here, retry policy belongs to
// the orchestrator.
func (m *Manager) login(ctx context.Context, s *Session) error {
	timeout := playwright.Float(float64(m.cfg.Search.LoginTimeoutMs))

	if _, err := s.page.Goto(loginURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   timeout,
	}); err != nil {
		return authErr(KindEngineUnavailable, "could not reach login page", err)
	}

	s.Pace(ctx)
	if err := s.page.Locator("#username").Fill(s.creds.Email); err != nil {
		return authErr(KindInvalidCredentials, "login form not found", err)
	}
	s.Pace(ctx)
	if err := s.page.Locator("#password").Fill(s.creds.Password); err != nil {
		return authErr(KindInvalidCredentials, "login form not found", err)
	}
	s.Pace(ctx)

	if err := s.page.Locator("button[type=\"submit\"]").Click(); err != nil {
		return authErr(KindInvalidCredentials, "could not submit login form", err)
	}
	if err := s.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateDomcontentloaded,
		Timeout: timeout,
	}); err != nil {
		return authErr(KindInvalidCredentials, "login navigation timed out", err)
	}

	current := s.page.URL()
	switch {
	case strings.Contains(current, "checkpoint") || strings.Contains(current, "challenge"):
		s.NoteFriction()
		m.shots.CaptureAndLog(s.page, "login-challenge", "🚨 Verification challenge at login")
		return authErr(KindChallengeRequired, "target demands additional verification", nil)
	case strings.Contains(current, "/feed") || strings.Contains(current, "/in/"):
		m.log.Info("✅ Login confirmed")
	default:
		// The nav bar appears on every authenticated page; give it a chance
		// before declaring the credentials bad.
		if _, err := s.page.WaitForSelector("#global-nav", playwright.PageWaitForSelectorOptions{
			Timeout: playwright.Float(10000),
		}); err != nil {
			m.shots.CaptureAndLog(s.page, "login-rejected", "🚨 Login rejected")
			return authErr(KindInvalidCredentials, "login was rejected", nil)
		}
		m.log.Info("✅ Login confirmed")
	}

	// Warm up like a human before doing anything useful.
	s.Pace(ctx)
	MouseJiggle(s.page, s.jitter)
	return nil
}
