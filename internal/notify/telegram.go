package notify

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"calendar-scheduler/internal/service"
)

// Notifier posts batch run summaries to an ops chat. Delivery is best
// effort: a failed send is logged and never propagated into the run.
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	log    zerolog.Logger
}

// New builds a Telegram notifier. An empty token or chat id yields a nil
// Notifier, which every method treats as "notifications disabled".
func New(token string, chatID int64, log zerolog.Logger) (*Notifier, error) {
	if token == "" || chatID == 0 {
		return nil, nil
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram api: %w", err)
	}
	return &Notifier{
		api:    api,
		chatID: chatID,
		log:    log.With().Str("component", "notify").Logger(),
	}, nil
}

// BatchFinished sends a short HTML summary of a completed batch run.
func (n *Notifier) BatchFinished(summary *service.BatchSummary) {
	if n == nil || summary == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString("🗓 <b>Scheduling batch finished</b>\n")
	sb.WriteString(fmt.Sprintf("run <code>%s</code>\n\n", summary.RunID))
	sb.WriteString(fmt.Sprintf("workspaces: %d\n", summary.WorkspacesProcessed))
	sb.WriteString(fmt.Sprintf("✅ successful: %d\n", summary.Successful))
	sb.WriteString(fmt.Sprintf("❌ failed: %d\n", summary.Failed))
	sb.WriteString(fmt.Sprintf("events created: %d\n", summary.TotalEventsCreated))

	if summary.Failed > 0 {
		sb.WriteString("\n<b>Failures</b>\n")
		for _, r := range summary.Results {
			if r.Success {
				continue
			}
			sb.WriteString(fmt.Sprintf("• ws %d: %s\n", r.WorkspaceID, r.Err))
		}
	}

	msg := tgbotapi.NewMessage(n.chatID, strings.TrimSpace(sb.String()))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := n.api.Send(msg); err != nil {
		n.log.Warn().Err(err).Msg("batch summary notification failed")
	}
}
