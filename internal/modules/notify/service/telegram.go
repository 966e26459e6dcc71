package service

import (
	"context"
	"fmt"
	"sync"

	"gold_bot/internal/modules/config"
	"gold_bot/pkg/logger"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Controls — управление торговлей из чата; подвешивается после сборки
// графа, чтобы не тянуть движок в конструктор.
type Controls interface {
	Pause()
	Resume()
	StatusText(ctx context.Context) string
}

// Telegram шлёт события в один админский чат и принимает команды
// /status, /pause, /resume. Без токена работает как no-op: бот должен
// торговать и без телеграма.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64

	mu       sync.Mutex
	controls Controls
}

func NewTelegram(cfg *config.Config) (*Telegram, error) {
	if cfg.Telegram.Token == "" {
		logger.Info("telegram: token not set, notifications disabled")
		return &Telegram{}, nil
	}
	b, err := tgbot.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("NewTelegram: %w", err)
	}
	return &Telegram{bot: b, chatID: cfg.Telegram.ChatID}, nil
}

func (t *Telegram) SetControls(c Controls) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.controls = c
}

// Sendf — основной канал уведомлений движка. Ошибки доставки только
// логируем: телеграм не должен влиять на торговлю.
func (t *Telegram) Sendf(format string, args ...any) {
	if t.bot == nil || t.chatID == 0 {
		return
	}
	if _, err := t.bot.Send(tgbot.NewMessage(t.chatID, fmt.Sprintf(format, args...))); err != nil {
		logger.Warn("telegram send: %v", err)
	}
}

// Start поднимает long-poll цикл команд. Не блокирует.
func (t *Telegram) Start(ctx context.Context) {
	if t.bot == nil {
		return
	}
	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				t.bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				t.handleUpdate(ctx, update)
			}
		}
	}()
}

func (t *Telegram) handleUpdate(ctx context.Context, update tgbot.Update) {
	msg := update.Message
	if msg == nil || !msg.IsCommand() {
		return
	}
	// команды принимаем только из админского чата
	if t.chatID != 0 && msg.Chat.ID != t.chatID {
		return
	}

	t.mu.Lock()
	controls := t.controls
	t.mu.Unlock()
	if controls == nil {
		return
	}

	switch msg.Command() {
	case "status":
		t.Sendf("%s", controls.StatusText(ctx))
	case "pause":
		controls.Pause()
		t.Sendf("⏸ Новые входы остановлены")
	case "resume":
		controls.Resume()
		t.Sendf("▶️ Новые входы разрешены")
	default:
		t.Sendf("Команды: /status /pause /resume")
	}
}
