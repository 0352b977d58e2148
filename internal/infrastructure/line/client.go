package line

import (
	"context"
	"fmt"
	"net/http"

	appErrors "notifier/internal/pkg/errors"
	"notifier/internal/pkg/logger"

	"github.com/line/line-bot-sdk-go/v7/linebot"
)

// Client wraps the linebot.Client and pushes notifications to one target user.
type Client struct {
	*linebot.Client
	targetUserID string
	log          logger.Logger
}

// NewClient creates the LINE Bot client used as the notification sink.
func NewClient(channelSecret, channelToken, targetUserID string, log logger.Logger) (*Client, error) {
	if channelSecret == "" || channelToken == "" {
		return nil, fmt.Errorf("%w: CHANNEL_SECRET and CHANNEL_ACCESS_TOKEN must be set", appErrors.ErrInvalidConfig)
	}
	if targetUserID == "" {
		return nil, fmt.Errorf("%w: LINE_TARGET_USER_ID must be set", appErrors.ErrInvalidConfig)
	}
	bot, err := linebot.New(channelSecret, channelToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErrors.ErrLineAPI, err)
	}
	log.Info("Successfully created LINE Bot client.")
	return &Client{
		Client:       bot,
		targetUserID: targetUserID,
		log:          log.With("sink", "line"),
	}, nil
}

// TargetUserID is the user every notification is pushed to.
func (c *Client) TargetUserID() string {
	return c.targetUserID
}

// Emit pushes message to the target user.
func (c *Client) Emit(ctx context.Context, sequence int, message string) error {
	if _, err := c.PushMessage(c.targetUserID, linebot.NewTextMessage(message)).WithContext(ctx).Do(); err != nil {
		return fmt.Errorf("%w: push #%d: %v", appErrors.ErrLineAPI, sequence, err)
	}
	c.log.Debug(fmt.Sprintf("Pushed notification #%d", sequence))
	return nil
}

// CheckPermission succeeds when the target user can be reached, i.e. has not blocked the bot.
func (c *Client) CheckPermission(ctx context.Context) error {
	profile, err := c.GetProfile(c.targetUserID).WithContext(ctx).Do()
	if err != nil {
		return fmt.Errorf("%w: LINE user %s is not reachable: %v", appErrors.ErrPermissionDenied, c.targetUserID, err)
	}
	c.log.Info(fmt.Sprintf("Notifications will be pushed to %s", profile.DisplayName))
	return nil
}

// SendMessages sends one or more messages using the ReplyMessage API.
func (c *Client) SendMessages(replyToken string, messages ...linebot.SendingMessage) error {
	_, err := c.ReplyMessage(replyToken, messages...).Do()
	if err != nil {
		return err
	}
	c.log.Debug("Successfully sent reply message.")
	return nil
}

// ParseRequest parses incoming webhook requests.
func (c *Client) ParseRequest(r *http.Request) ([]*linebot.Event, error) {
	return c.Client.ParseRequest(r)
}
