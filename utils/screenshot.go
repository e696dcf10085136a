// Package utils holds small helpers shared across packages.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"
)

// ScreenshotDebugger saves full-page screenshots of unexpected states, such
// as login challenges, so failures can be diagnosed after the fact.
type ScreenshotDebugger struct {
	dir string
	log *logrus.Logger
}

func NewScreenshotDebugger(dir string, log *logrus.Logger) *ScreenshotDebugger {
	if dir == "" {
		dir = filepath.Join("logs", "screenshots")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Warnf("⚠️ Could not create screenshot dir %s: %v", dir, err)
	}
	return &ScreenshotDebugger{dir: dir, log: log}
}

// CaptureAndLog writes a timestamped screenshot named after the event.
func (s *ScreenshotDebugger) CaptureAndLog(page playwright.Page, name, message string) error {
	file := filepath.Join(s.dir, fmt.Sprintf("%s_%s.png", name, time.Now().Format("2006-01-02_15-04-05")))
	s.log.Warnf("📸 %s", message)

	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(file),
		FullPage: playwright.Bool(true),
	}); err != nil {
		s.log.Warnf("⚠️ Failed to capture screenshot: %v", err)
		return err
	}

	s.log.WithField("file", file).Debug("screenshot saved")
	return nil
}
