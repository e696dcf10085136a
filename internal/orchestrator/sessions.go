package orchestrator

import (
	"context"

	"go-leadgen-automation/internal/browser"
	"go-leadgen-automation/internal/models"
	"go-leadgen-automation/internal/scraper"
)

// BrowserSessions adapts the concrete browser manager to SessionManager.
type BrowserSessions struct {
	Manager *browser.Manager
}

func (b BrowserSessions) Open(ctx context.Context, creds models.TargetCredentials) (scraper.Session, error) {
	sess, err := b.Manager.Open(ctx, creds)
	if err != nil {
		return nil, err
	}
	return sess, nil
}
