package telegram

import (
	"fmt"
	"strings"

	"go-leadgen-automation/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot reports terminal jobs to a Telegram chat. Purely informational: send
// failures are logged by callers and never affect job state.
type Bot struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

func NewBot(token string, chatID int64) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return &Bot{
		api:    api,
		chatID: chatID,
	}, nil
}

func (b *Bot) escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
		")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
		"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
		"}", "\\}", ".", "\\.", "!", "\\!",
	)
	return replacer.Replace(text)
}

// JobFinished sends a one-line summary for a terminal job.
func (b *Bot) JobFinished(job models.ScrapeJob) {
	var msgText string
	if job.Status == models.StatusCompleted {
		msgText = fmt.Sprintf("✅ *Lead search finished*\n🔎 %s\n👥 %d profiles collected\n",
			b.escapeMarkdown(job.OriginalQuery), job.ProfilesFound)
	} else {
		msgText = fmt.Sprintf("❌ *Lead search failed*\n🔎 %s\n📝 %s\n",
			b.escapeMarkdown(job.OriginalQuery), b.escapeMarkdown(job.ErrorMessage))
	}

	msg := tgbotapi.NewMessage(b.chatID, msgText)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	//ignore send result: reporting is best-effort
	_, _ = b.api.Send(msg)
}

// SendStatus sends a free-form status line.
func (b *Bot) SendStatus(text string) error {
	msg := tgbotapi.NewMessage(b.chatID, b.escapeMarkdown(text))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send status: %w", err)
	}
	return nil
}
