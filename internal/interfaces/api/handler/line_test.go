package handler

import (
	"net/http"
	"strings"
	"testing"

	"notifier/internal/application/dto"
	"notifier/internal/domain/constant"
	appErrors "notifier/internal/pkg/errors"
	"notifier/internal/pkg/logger"

	"github.com/line/line-bot-sdk-go/v7/linebot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ownerID = "U-owner"

func textEvent(userID, token, text string) *linebot.Event {
	return &linebot.Event{
		Type:       linebot.EventTypeMessage,
		ReplyToken: token,
		Source:     &linebot.EventSource{Type: linebot.EventSourceTypeUser, UserID: userID},
		Message:    &linebot.TextMessage{Text: text},
	}
}

func TestLineWebhookSetsTimer(t *testing.T) {
	messenger := &fakeMessenger{target: ownerID, events: []*linebot.Event{textEvent(ownerID, "r1", "30 min")}}
	settings := &fakeSettings{}
	h := NewLineHandler(messenger, settings, &fakeHost{}, logger.Nop())

	rec := serve(h.HandleWebhook, http.MethodPost, "/callback", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, constant.Timer30min, settings.option)
	require.Len(t, messenger.replies["r1"], 1)
	assert.Equal(t, "Notifications every 30m0s.", messenger.replies["r1"][0])
}

func TestLineWebhookCommands(t *testing.T) {
	host := &fakeHost{status: dto.HostStatus{
		Phase:     "running",
		Scheduler: &dto.SchedulerStatus{State: "running", TimerOption: "10s", Sequence: 3},
	}}
	messenger := &fakeMessenger{target: ownerID, events: []*linebot.Event{
		textEvent(ownerID, "status", "Status"),
		textEvent(ownerID, "now", "now"),
		textEvent(ownerID, "off", "Disabled"),
		textEvent(ownerID, "junk", "remind me later"),
		textEvent("U-stranger", "stranger", "10s"),
	}}
	settings := &fakeSettings{option: constant.Timer10s}
	h := NewLineHandler(messenger, settings, host, logger.Nop())

	rec := serve(h.HandleWebhook, http.MethodPost, "/callback", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{"Notifier is running, timer 10s, 2 sent."}, messenger.replies["status"])
	assert.Equal(t, 1, host.kicks)
	assert.Equal(t, []string{"Notifications disabled."}, messenger.replies["off"])
	require.Len(t, messenger.replies["junk"], 1)
	assert.True(t, strings.HasPrefix(messenger.replies["junk"][0], "Pick how often"))
	assert.Equal(t, []string{"This bot only takes commands from its owner."}, messenger.replies["stranger"])
	assert.Equal(t, constant.TimerDisabled, settings.option, "strangers must not change the timer")
}

func TestLineWebhookKickWhileStopped(t *testing.T) {
	messenger := &fakeMessenger{target: ownerID, events: []*linebot.Event{textEvent(ownerID, "r", "now")}}
	h := NewLineHandler(messenger, &fakeSettings{}, &fakeHost{kickErr: appErrors.ErrSchedulerStopped}, logger.Nop())

	serve(h.HandleWebhook, http.MethodPost, "/callback", "")
	assert.Equal(t, []string{"The notifier is not running."}, messenger.replies["r"])
}

func TestLineWebhookInvalidSignature(t *testing.T) {
	messenger := &fakeMessenger{target: ownerID, err: linebot.ErrInvalidSignature}
	h := NewLineHandler(messenger, &fakeSettings{}, &fakeHost{}, logger.Nop())

	rec := serve(h.HandleWebhook, http.MethodPost, "/callback", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
