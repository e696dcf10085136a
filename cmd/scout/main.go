// One-shot runner: submit a single query, wait for the job to finish, write
// the leads to a CSV file. Useful for cron runs and manual smoke checks
// without the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go-leadgen-automation/internal/browser"
	"go-leadgen-automation/internal/config"
	"go-leadgen-automation/internal/database"
	"go-leadgen-automation/internal/interpreter"
	"go-leadgen-automation/internal/logging"
	"go-leadgen-automation/internal/models"
	"go-leadgen-automation/internal/orchestrator"
	"go-leadgen-automation/internal/scraper"
	"go-leadgen-automation/internal/telegram"
)

func main() {
	query := flag.String("query", "", "natural language lead query")
	provider := flag.String("provider", "openai", "llm provider: openai, claude or gemini")
	maxResults := flag.Int("max", 0, "result cap (0 = default)")
	flag.Parse()

	log := logging.New()

	if *query == "" {
		log.Fatal("❌ -query is required")
	}

	//load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	//connect database
	repo, err := database.ConnectDB(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect database: %v", err)
	}
	defer repo.Close()

	//init telegram bot (optional)
	var notifier orchestrator.Notifier
	if cfg.TelegramToken != "" {
		if bot, err := telegram.NewBot(cfg.TelegramToken, cfg.TelegramChatID); err == nil {
			notifier = bot
		}
	}

	orch := orchestrator.New(orchestrator.Deps{
		Interpreter: interpreter.New(repo, log),
		Sessions:    orchestrator.BrowserSessions{Manager: browser.NewManager(cfg, log)},
		NewDiscovery: func() orchestrator.Discovery {
			return scraper.NewDiscovery(cfg, log)
		},
		Extractor:   scraper.NewExtractor(cfg, log, nil),
		Store:       repo,
		Credentials: repo,
		Notifier:    notifier,
	}, log)

	log.Infof("🚀 Submitting query: %q", *query)
	job, err := orch.SubmitJob(context.Background(), *query, models.Provider(*provider), *maxResults)
	if err != nil {
		log.Fatalf("❌ Query rejected: %v", err)
	}
	log.Infof("📋 Job %s started (cap %d)", job.ID, job.Filter.ResultCap)

	//poll until the job reaches a terminal state
	for !job.Status.Terminal() {
		time.Sleep(2 * time.Second)
		job, err = orch.GetJob(context.Background(), job.ID)
		if err != nil {
			log.Fatalf("❌ Lost track of job %s: %v", job.ID, err)
		}
	}

	if job.Status == models.StatusFailed {
		log.Fatalf("❌ Job failed: %s", job.ErrorMessage)
	}

	records, err := orch.ExportRecords(context.Background(), job.ID)
	if err != nil {
		log.Fatalf("❌ Export failed: %v", err)
	}

	if err := os.MkdirAll(cfg.ExportDir, 0o755); err != nil {
		log.Fatalf("❌ Could not create export dir: %v", err)
	}
	outPath := filepath.Join(cfg.ExportDir, fmt.Sprintf("leads-%s.csv", time.Now().Format("2006-01-02")))
	f, err := os.Create(outPath)
	if err != nil {
		log.Fatalf("❌ Could not create %s: %v", outPath, err)
	}
	defer f.Close()

	if err := orchestrator.WriteCSV(f, records); err != nil {
		log.Fatalf("❌ CSV write failed: %v", err)
	}

	log.Infof("✅ Done. %d leads written to %s", len(records), outPath)
}
