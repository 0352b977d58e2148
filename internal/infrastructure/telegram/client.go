package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	appErrors "notifier/internal/pkg/errors"
	"notifier/internal/pkg/logger"

	tele "gopkg.in/telebot.v4"
)

const requestTimeout = 8 * time.Second

// Client sends notifications to one Telegram chat. It never polls for updates.
type Client struct {
	bot    *tele.Bot
	chatID int64
	log    logger.Logger
}

// Config selects the bot and the chat notifications go to.
type Config struct {
	Token  string
	ChatID int64
	// APIURL overrides the Bot API endpoint, empty means api.telegram.org.
	APIURL string
}

// NewClient creates an offline bot bound to cfg.ChatID.
func NewClient(cfg Config, log logger.Logger) (*Client, error) {
	token, chatID := cfg.Token, cfg.ChatID
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: TELEGRAM_TOKEN must be set", appErrors.ErrInvalidConfig)
	}
	if chatID == 0 {
		return nil, fmt.Errorf("%w: TELEGRAM_CHAT_ID must be set", appErrors.ErrInvalidConfig)
	}
	b, err := tele.NewBot(tele.Settings{
		URL:     cfg.APIURL,
		Token:   token,
		Offline: true,
		Client:  &http.Client{Timeout: requestTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErrors.ErrTelegramAPI, err)
	}
	log.Info("Successfully created Telegram bot client.")
	return &Client{bot: b, chatID: chatID, log: log.With("sink", "telegram")}, nil
}

// Emit sends message to the configured chat.
func (c *Client) Emit(ctx context.Context, sequence int, message string) error {
	err := c.do(ctx, func() error {
		_, err := c.bot.Send(&tele.Chat{ID: c.chatID}, message)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: send #%d: %v", appErrors.ErrTelegramAPI, sequence, err)
	}
	c.log.Debug(fmt.Sprintf("Sent notification #%d to chat %d", sequence, c.chatID))
	return nil
}

// CheckPermission succeeds when the bot can see the configured chat.
func (c *Client) CheckPermission(ctx context.Context) error {
	var chat *tele.Chat
	err := c.do(ctx, func() error {
		var err error
		chat, err = c.bot.ChatByID(c.chatID)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: telegram chat %d is not reachable: %v", appErrors.ErrPermissionDenied, c.chatID, err)
	}
	c.log.Info(fmt.Sprintf("Notifications will be sent to chat %d (%s)", chat.ID, chat.Type))
	return nil
}

// do runs a telebot call, which takes no context, and gives up when ctx ends.
func (c *Client) do(ctx context.Context, call func() error) error {
	errCh := make(chan error, 1)
	go func() { errCh <- call() }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
