package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"notifier/internal/application/service"
	"notifier/internal/domain/constant"
	"notifier/internal/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/line/line-bot-sdk-go/v7/linebot"
)

// LineMessenger is the part of the LINE client the webhook needs.
type LineMessenger interface {
	ParseRequest(r *http.Request) ([]*linebot.Event, error)
	SendMessages(replyToken string, messages ...linebot.SendingMessage) error
	TargetUserID() string
}

// LineHandler lets the notified user change the timer from the chat.
type LineHandler struct {
	lineClient LineMessenger
	settings   service.SettingsService
	host       service.SchedulerHost
	log        logger.Logger
}

// NewLineHandler creates a new LineHandler.
func NewLineHandler(lineClient LineMessenger, settings service.SettingsService, host service.SchedulerHost, log logger.Logger) *LineHandler {
	return &LineHandler{
		lineClient: lineClient,
		settings:   settings,
		host:       host,
		log:        log,
	}
}

// HandleWebhook is the main entry point for webhook requests.
func (h *LineHandler) HandleWebhook(c echo.Context) error {
	ctx := c.Request().Context()
	events, err := h.lineClient.ParseRequest(c.Request())
	if err != nil {
		if errors.Is(err, linebot.ErrInvalidSignature) {
			h.log.Warn("Invalid LINE signature received")
			return c.String(http.StatusBadRequest, "Invalid signature")
		}
		h.log.Error("Failed to parse LINE webhook request", err)
		return c.String(http.StatusInternalServerError, "Error parsing request")
	}

	for _, event := range events {
		h.log.Debug(fmt.Sprintf("Processing event type: %s", event.Type))
		switch event.Type {
		case linebot.EventTypeMessage:
			h.handleMessageEvent(ctx, event)
		case linebot.EventTypeFollow:
			h.sendHowToUse(event.ReplyToken)
		default:
			h.log.Debug(fmt.Sprintf("Unhandled event type: %s", event.Type))
		}
	}

	return c.String(http.StatusOK, "OK")
}

func (h *LineHandler) handleMessageEvent(ctx context.Context, event *linebot.Event) {
	message, ok := event.Message.(*linebot.TextMessage)
	if !ok {
		return
	}
	userID := event.Source.UserID
	replyToken := event.ReplyToken
	if userID != h.lineClient.TargetUserID() {
		h.log.Warn(fmt.Sprintf("Ignoring command from unknown user %s", userID))
		h.replyWithError(replyToken, "This bot only takes commands from its owner.")
		return
	}

	text := strings.TrimSpace(message.Text)
	h.log.Info(fmt.Sprintf("Received command from %s: %s", userID, text))
	switch strings.ToLower(text) {
	case "status":
		h.sendStatus(ctx, replyToken)
		return
	case "now":
		if err := h.host.Kick(); err != nil {
			h.replyWithError(replyToken, "The notifier is not running.")
			return
		}
		h.reply(replyToken, "Sending a notification now.")
		return
	case "help":
		h.sendHowToUse(replyToken)
		return
	}

	opt, err := h.settings.SetTimerOption(ctx, text)
	if err != nil {
		if _, parseErr := constant.ParseTimerOption(text); parseErr != nil {
			h.sendHowToUse(replyToken)
			return
		}
		h.replyWithError(replyToken, "Failed to save the timer setting.")
		return
	}
	if !opt.Cadence().Enabled() {
		h.reply(replyToken, "Notifications disabled.")
		return
	}
	h.reply(replyToken, fmt.Sprintf("Notifications every %s.", opt.Cadence()))
}

// --- Helper methods for message handling ---

func (h *LineHandler) sendHowToUse(replyToken string) {
	howToUse := `Pick how often you want to be notified.

"status" shows the current timer and the next notification.
"now" sends a notification right away.`

	items := make([]*linebot.QuickReplyButton, 0, len(constant.TimerOptions())+1)
	for _, opt := range constant.TimerOptions() {
		items = append(items, linebot.NewQuickReplyButton("", linebot.NewMessageAction(opt.String(), opt.String())))
	}
	items = append(items, linebot.NewQuickReplyButton("", linebot.NewMessageAction("status", "status")))

	message := linebot.NewTextMessage(howToUse).WithQuickReplies(linebot.NewQuickReplyItems(items...))
	if err := h.lineClient.SendMessages(replyToken, message); err != nil {
		h.log.Error("Failed to send 'how to use' message", err)
	}
}

func (h *LineHandler) sendStatus(ctx context.Context, replyToken string) {
	st, err := h.host.Status(ctx)
	if err != nil {
		h.log.Error("Failed to read scheduler status", err)
		h.replyWithError(replyToken, "Failed to read the notifier status.")
		return
	}
	if st.Scheduler == nil {
		h.reply(replyToken, fmt.Sprintf("Notifier is %s.", st.Phase))
		return
	}
	text := fmt.Sprintf("Notifier is %s, timer %s, %d sent.", st.Scheduler.State, st.Scheduler.TimerOption, st.Scheduler.Sequence-1)
	if st.Scheduler.NextFireAt != nil {
		text += fmt.Sprintf("\nNext at %s.", st.Scheduler.NextFireAt.Format(time.Kitchen))
	}
	h.reply(replyToken, text)
}

func (h *LineHandler) reply(replyToken, text string) {
	if err := h.lineClient.SendMessages(replyToken, linebot.NewTextMessage(text)); err != nil {
		h.log.Error("Failed to send reply message", err)
	}
}

// replyWithError sends a generic error message.
func (h *LineHandler) replyWithError(replyToken, userMessage string) {
	if err := h.lineClient.SendMessages(replyToken, linebot.NewTextMessage(userMessage)); err != nil {
		h.log.Error(fmt.Sprintf("Failed to send error reply message: %s", userMessage), err)
	}
}
