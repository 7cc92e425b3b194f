// ABOUTME: Shared fake Telegram client for pipeline tests.
// ABOUTME: Records calls and returns scripted results.

package chat

import (
	"context"
	"errors"

	"github.com/lanternworks/telegate/internal/telegram"
)

type fakeTelegramClient struct {
	resolveUsernameCalls int
	resolveIDCalls       int
	historyCalls         int
	searchCalls          int

	lastKeyword string
	lastLimit   int

	entity     *telegram.Entity
	resolveErr error
	messages   []telegram.RawMessage
	fetchErr   error
}

func (f *fakeTelegramClient) Connect(ctx context.Context) error { return nil }
func (f *fakeTelegramClient) Close(ctx context.Context) error   { return nil }
func (f *fakeTelegramClient) Connected() bool                   { return true }

func (f *fakeTelegramClient) ResolveUsername(ctx context.Context, username string) (*telegram.Entity, error) {
	f.resolveUsernameCalls++
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	return f.entity, nil
}

func (f *fakeTelegramClient) ResolveID(ctx context.Context, id int64) (*telegram.Entity, error) {
	f.resolveIDCalls++
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	return f.entity, nil
}

func (f *fakeTelegramClient) HistoryMessages(ctx context.Context, e *telegram.Entity, limit int) ([]telegram.RawMessage, error) {
	f.historyCalls++
	f.lastLimit = limit
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.messages, nil
}

func (f *fakeTelegramClient) SearchMessages(ctx context.Context, e *telegram.Entity, keyword string, limit int) ([]telegram.RawMessage, error) {
	f.searchCalls++
	f.lastKeyword = keyword
	f.lastLimit = limit
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.messages, nil
}

func (f *fakeTelegramClient) SearchDialogs(ctx context.Context, keyword string, limit int) ([]telegram.DialogInfo, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeTelegramClient) Participants(ctx context.Context, e *telegram.Entity, limit int) ([]telegram.Member, error) {
	return nil, errors.New("not implemented")
}
