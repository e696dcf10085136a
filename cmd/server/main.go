package main

import (
	"context"

	"go-leadgen-automation/internal/api"
	"go-leadgen-automation/internal/browser"
	"go-leadgen-automation/internal/config"
	"go-leadgen-automation/internal/database"
	"go-leadgen-automation/internal/enrich"
	"go-leadgen-automation/internal/interpreter"
	"go-leadgen-automation/internal/logging"
	"go-leadgen-automation/internal/orchestrator"
	"go-leadgen-automation/internal/scraper"
	"go-leadgen-automation/internal/telegram"
)

// hunterEnricher resolves the Hunter key from the credential store on every
// lookup, so a key saved through the API takes effect without a restart.
type hunterEnricher struct {
	repo *database.Repository
}

func (h hunterEnricher) Lookup(ctx context.Context, fullName, company string) (string, error) {
	creds, err := h.repo.GetCredentials(ctx)
	if err != nil || creds.HunterKey == "" {
		return "", enrich.ErrNotFound
	}
	return enrich.NewClient(creds.HunterKey).Lookup(ctx, fullName, company)
}

func main() {
	log := logging.New()

	//load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	log.Infof("🔧 Config loaded. Port: %s", cfg.Port)

	//connect database
	repo, err := database.ConnectDB(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect database: %v", err)
	}
	defer repo.Close()
	log.Info("🗄️ Database connected.")

	//init telegram bot (optional)
	var notifier orchestrator.Notifier
	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Warnf("⚠️ Telegram bot unavailable, continuing without: %v", err)
		} else {
			notifier = bot
			log.Info("🤖 Telegram bot initialized.")
		}
	}

	//wire the pipeline
	orch := orchestrator.New(orchestrator.Deps{
		Interpreter: interpreter.New(repo, log),
		Sessions:    orchestrator.BrowserSessions{Manager: browser.NewManager(cfg, log)},
		NewDiscovery: func() orchestrator.Discovery {
			return scraper.NewDiscovery(cfg, log)
		},
		Extractor:   scraper.NewExtractor(cfg, log, hunterEnricher{repo: repo}),
		Store:       repo,
		Credentials: repo,
		Notifier:    notifier,
	}, log)

	srv := api.NewServer(orch, repo, log)

	log.Infof("🚀 Lead generation server listening on port %s", cfg.Port)
	if err := srv.Router().Run(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
