package browser

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go-leadgen-automation/internal/config"

	"github.com/playwright-community/playwright-go"
)

// JitterPolicy draws inter-action delays from a bounded distribution. It is
// injected rather than hard-coded so tests can pin the seed and assert exact
// pacing.
type JitterPolicy struct {
	mu  sync.Mutex
	rng *rand.Rand
	min time.Duration
	max time.Duration
}

func NewJitterPolicy(cfg config.StealthConfig) *JitterPolicy {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &JitterPolicy{
		rng: rand.New(rand.NewSource(seed)),
		min: time.Duration(cfg.MinDelayMs) * time.Millisecond,
		max: time.Duration(cfg.MaxDelayMs) * time.Millisecond,
	}
}

// Delay returns one random duration in [min, max].
func (j *JitterPolicy) Delay() time.Duration {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.max <= j.min {
		return j.min
	}
	return j.min + time.Duration(j.rng.Int63n(int64(j.max-j.min)))
}

// ScaledDelay stretches the delay for low-trust sessions. A session that hit
// friction recently paces itself up to twice as slow; after an hour without
// friction the multiplier decays back to 1.
func (j *JitterPolicy) ScaledDelay(trustAge time.Duration) time.Duration {
	d := j.Delay()
	if trustAge >= time.Hour {
		return d
	}
	factor := 2.0 - float64(trustAge)/float64(time.Hour)
	return time.Duration(float64(d) * factor)
}

// Wait sleeps for one jittered delay. It is a suspension point, never a busy
// wait, and returns early on context cancellation.
func (j *JitterPolicy) Wait(ctx context.Context, trustAge time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(j.ScaledDelay(trustAge)):
	}
}

func (j *JitterPolicy) intn(n int) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.rng.Intn(n)
}

// Fingerprint is the viewport/user-agent identity of a session. Picked once
// at session start and fixed for the session's lifetime.
type Fingerprint struct {
	UserAgent string
	Width     int
	Height    int
}

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
}

var viewports = []struct{ w, h int }{
	{1920, 1080},
	{1680, 1050},
	{1536, 864},
	{1440, 900},
}

// PickFingerprint selects a random user agent and viewport pair.
func (j *JitterPolicy) PickFingerprint() Fingerprint {
	ua := userAgents[j.intn(len(userAgents))]
	vp := viewports[j.intn(len(viewports))]
	return Fingerprint{UserAgent: ua, Width: vp.w, Height: vp.h}
}

// HumanScroll simulates human reading behavior: scroll down in steps, then a
// small corrective scroll back up, then to the bottom to trigger lazy loading.
func HumanScroll(ctx context.Context, page playwright.Page, j *JitterPolicy) error {
	for i := 0; i < 3; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := page.Mouse().Wheel(0, 500); err != nil {
			return err
		}
		j.Wait(ctx, time.Hour)
	}
	if err := page.Mouse().Wheel(0, -200); err != nil {
		return err
	}
	_, err := page.Evaluate("window.scrollTo(0, document.body.scrollHeight)")
	return err
}

// MouseJiggle moves the mouse to a few random coordinates to prevent idle
// detection.
func MouseJiggle(page playwright.Page, j *JitterPolicy) {
	viewportSize := page.ViewportSize()
	width, height := 800, 600
	if viewportSize != nil && viewportSize.Width > 0 && viewportSize.Height > 0 {
		width, height = viewportSize.Width, viewportSize.Height
	}
	for i := 0; i < 3; i++ {
		x := float64(j.intn(width))
		y := float64(j.intn(height))
		if err := page.Mouse().Move(x, y); err != nil {
			return
		}
		time.Sleep(time.Duration(100+j.intn(200)) * time.Millisecond)
	}
}
