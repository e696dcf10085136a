// Shared contracts between the browsing layer and the discovery/extraction
// engines. The browser package implements Session; the orchestrator consumes
// everything through these interfaces so it can be tested without a browser.

package scraper

import (
	"context"
	"errors"
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// Session is one authenticated browsing context with anti-detection posture.
type Session interface {
	// Page is the session's main tab.
	Page() playwright.Page
	// Pace sleeps for one jittered delay, scaled by the session's trust age.
	Pace(ctx context.Context)
	// Scroll performs a human-like scroll on the current page.
	Scroll(ctx context.Context) error
	// NoteFriction resets the trust age after detected friction.
	NoteFriction()
	// Relogin re-authenticates in place after the remote target invalidated
	// the session. One attempt per job; a second failure is fatal.
	Relogin(ctx context.Context) error
	// Close logs out and tears down the browsing context.
	Close()
}

// ErrSessionExpired signals that the remote target dropped the authenticated
// session mid-run (login redirect, authwall). The orchestrator re-opens the
// session once before failing the job.
var ErrSessionExpired = errors.New("session expired")

// StructuralError means the listing markup no longer matches our selectors.
// This is a maintenance problem, not a transient one, so it is never retried
// within a job.
type StructuralError struct {
	What string
	Err  error
}

func (e *StructuralError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("structural change on %s: %v", e.What, e.Err)
	}
	return fmt.Sprintf("structural change on %s", e.What)
}

func (e *StructuralError) Unwrap() error { return e.Err }

// SkipError marks one profile that failed to parse. It is logged and
// swallowed; a single bad profile never fails the job.
type SkipError struct {
	ProfileURL string
	Reason     string
	Err        error
}

func (e *SkipError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("skipping %s: %s: %v", e.ProfileURL, e.Reason, e.Err)
	}
	return fmt.Sprintf("skipping %s: %s", e.ProfileURL, e.Reason)
}

func (e *SkipError) Unwrap() error { return e.Err }
