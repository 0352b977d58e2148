package handler

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"notifier/internal/application/dto"
	"notifier/internal/domain/constant"

	"github.com/line/line-bot-sdk-go/v7/linebot"
)

type fakeSettings struct {
	mu      sync.Mutex
	option  constant.TimerOption
	writeFn func() error
}

func (f *fakeSettings) GetTimerOption(ctx context.Context) (constant.TimerOption, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.option == "" {
		return constant.TimerDisabled, nil
	}
	return f.option, nil
}

func (f *fakeSettings) SetTimerOption(ctx context.Context, label string) (constant.TimerOption, error) {
	opt, err := constant.ParseTimerOption(label)
	if err != nil {
		return constant.TimerDisabled, err
	}
	if f.writeFn != nil {
		if err := f.writeFn(); err != nil {
			return constant.TimerDisabled, fmt.Errorf("persist timer option %s: %w", opt, err)
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.option = opt
	return opt, nil
}

type fakeHost struct {
	mu         sync.Mutex
	dispatched []dto.ReconfigurationMessage
	kicks      int
	kickErr    error
	status     dto.HostStatus
}

func (f *fakeHost) Dispatch(msg dto.ReconfigurationMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dispatched = append(f.dispatched, msg)
}

func (f *fakeHost) Kick() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.kickErr != nil {
		return f.kickErr
	}
	f.kicks++
	return nil
}

func (f *fakeHost) Status(ctx context.Context) (dto.HostStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, nil
}

type fakeMessenger struct {
	target  string
	events  []*linebot.Event
	err     error
	replies map[string][]string
}

func (f *fakeMessenger) ParseRequest(r *http.Request) ([]*linebot.Event, error) {
	return f.events, f.err
}

func (f *fakeMessenger) SendMessages(replyToken string, messages ...linebot.SendingMessage) error {
	if f.replies == nil {
		f.replies = map[string][]string{}
	}
	for _, m := range messages {
		if tm, ok := m.(*linebot.TextMessage); ok {
			f.replies[replyToken] = append(f.replies[replyToken], tm.Text)
		}
	}
	return nil
}

func (f *fakeMessenger) TargetUserID() string { return f.target }
