// ABOUTME: gotd/td-backed implementation of the Client interface.
// ABOUTME: Runs the MTProto engine in a background goroutine for the process lifetime.

package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	gotd "github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
)

// Credentials is the immutable startup configuration for the session.
type Credentials struct {
	AppID        int
	AppHash      string
	SessionToken string

	// Retries bounds per-request retry attempts inside the engine.
	Retries int
}

// dialogPageSize bounds the single dialog-list scan used for numeric-ID
// resolution and dialog search. No pagination beyond this window.
const dialogPageSize = 200

// mtproto implements Client over gotd/td. The engine's Run loop owns the
// connection; Connect starts it and waits for authorization, Close cancels
// it and waits for shutdown.
type mtproto struct {
	creds  Credentials
	logger *slog.Logger

	api     *tg.Client
	cancel  context.CancelFunc
	stopped chan struct{}
	alive   atomic.Bool
}

// NewMTProto returns an unconnected Client backed by gotd/td.
func NewMTProto(creds Credentials, logger *slog.Logger) Client {
	return &mtproto{
		creds:  creds,
		logger: logger.With("component", "mtproto"),
	}
}

// Connect starts the MTProto engine and blocks until the session is
// authorized or the handshake fails. The engine keeps running on a
// background context so the handle outlives the connecting request.
func (c *mtproto) Connect(ctx context.Context) error {
	storage, err := newTokenStorage(c.creds.SessionToken)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnect, err)
	}

	cli := gotd.NewClient(c.creds.AppID, c.creds.AppHash, gotd.Options{
		SessionStorage: storage,
		NoUpdates:      true,
		MaxRetries:     c.creds.Retries,
		RetryInterval:  time.Second,
	})

	runCtx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- cli.Run(runCtx, func(ctx context.Context) error {
			status, err := cli.Auth().Status(ctx)
			if err != nil {
				return err
			}
			if !status.Authorized {
				return ErrNotAuthorized
			}
			c.api = cli.API()
			c.alive.Store(true)
			close(ready)
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	select {
	case <-ready:
		c.cancel = cancel
		c.stopped = make(chan struct{})
		go c.watch(done)
		return nil
	case err := <-done:
		cancel()
		if errors.Is(err, ErrNotAuthorized) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrConnect, err)
	case <-ctx.Done():
		cancel()
		<-done
		return fmt.Errorf("%w: %v", ErrConnect, ctx.Err())
	}
}

// watch marks the handle dead once the engine's Run loop returns, whether
// from Close or a dropped connection.
func (c *mtproto) watch(done <-chan error) {
	err := <-done
	c.alive.Store(false)
	if err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Warn("telegram engine terminated", "error", err)
	}
	close(c.stopped)
}

func (c *mtproto) Connected() bool {
	return c.alive.Load()
}

func (c *mtproto) Close(ctx context.Context) error {
	if c.cancel == nil {
		return nil
	}
	c.cancel()
	select {
	case <-c.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *mtproto) ResolveUsername(ctx context.Context, username string) (*Entity, error) {
	res, err := c.api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{
		Username: username,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: resolving @%s: %v", ErrNotFound, username, err)
	}

	switch peer := res.Peer.(type) {
	case *tg.PeerUser:
		for _, u := range res.Users {
			if usr, ok := u.(*tg.User); ok && usr.ID == peer.UserID {
				return userEntity(usr), nil
			}
		}
	case *tg.PeerChat:
		for _, ch := range res.Chats {
			if chat, ok := ch.(*tg.Chat); ok && chat.ID == peer.ChatID {
				return chatEntity(chat), nil
			}
		}
	case *tg.PeerChannel:
		for _, ch := range res.Chats {
			if channel, ok := ch.(*tg.Channel); ok && channel.ID == peer.ChannelID {
				return channelEntity(channel), nil
			}
		}
	}
	return nil, fmt.Errorf("%w: @%s", ErrNotFound, username)
}

// ResolveID scans the session's dialog list for a peer with the given ID.
// Peers outside the dialog window cannot be addressed without an access
// hash, so they resolve as not found.
func (c *mtproto) ResolveID(ctx context.Context, id int64) (*Entity, error) {
	users, chats, err := c.dialogPeers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: listing dialogs: %v", ErrNotFound, err)
	}

	for _, u := range users {
		if u.ID == id {
			return userEntity(u), nil
		}
	}
	for _, ch := range chats {
		switch chat := ch.(type) {
		case *tg.Chat:
			if chat.ID == id {
				return chatEntity(chat), nil
			}
		case *tg.Channel:
			if chat.ID == id {
				return channelEntity(chat), nil
			}
		}
	}
	return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
}

func (c *mtproto) HistoryMessages(ctx context.Context, e *Entity, limit int) ([]RawMessage, error) {
	res, err := c.api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer:  inputPeer(e),
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching history: %w", err)
	}
	modified, ok := res.AsModified()
	if !ok {
		return nil, nil
	}
	return mapMessages(modified.GetMessages(), modified.GetUsers()), nil
}

func (c *mtproto) SearchMessages(ctx context.Context, e *Entity, keyword string, limit int) ([]RawMessage, error) {
	res, err := c.api.MessagesSearch(ctx, &tg.MessagesSearchRequest{
		Peer:   inputPeer(e),
		Q:      keyword,
		Filter: &tg.InputMessagesFilterEmpty{},
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}
	modified, ok := res.AsModified()
	if !ok {
		return nil, nil
	}
	return mapMessages(modified.GetMessages(), modified.GetUsers()), nil
}

func (c *mtproto) SearchDialogs(ctx context.Context, keyword string, limit int) ([]DialogInfo, error) {
	users, chats, err := c.dialogPeers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing dialogs: %w", err)
	}

	needle := strings.ToLower(keyword)
	var out []DialogInfo
	match := func(title, username string) bool {
		return strings.Contains(strings.ToLower(title), needle) ||
			(username != "" && strings.Contains(strings.ToLower(username), needle))
	}

	for _, u := range users {
		if len(out) >= limit {
			return out, nil
		}
		title := strings.TrimSpace(u.FirstName + " " + u.LastName)
		username, _ := u.GetUsername()
		if match(title, username) {
			out = append(out, DialogInfo{
				ID:       u.ID,
				Title:    title,
				Username: username,
				Kind:     KindUser,
			})
		}
	}
	for _, ch := range chats {
		if len(out) >= limit {
			return out, nil
		}
		switch chat := ch.(type) {
		case *tg.Chat:
			if match(chat.Title, "") {
				out = append(out, DialogInfo{ID: chat.ID, Title: chat.Title, Kind: KindGroup})
			}
		case *tg.Channel:
			username, _ := chat.GetUsername()
			if match(chat.Title, username) {
				kind := KindChannel
				if chat.Megagroup {
					kind = KindGroup
				}
				out = append(out, DialogInfo{
					ID:       chat.ID,
					Title:    chat.Title,
					Username: username,
					Kind:     kind,
					IsPublic: chat.Broadcast || chat.Megagroup || chat.Gigagroup,
				})
			}
		}
	}
	return out, nil
}

// Participants lists recent members. Only channels and supergroups expose
// a member list through this session; plain groups and users do not.
func (c *mtproto) Participants(ctx context.Context, e *Entity, limit int) ([]Member, error) {
	if e.Kind == KindUser || e.AccessHash == 0 {
		return nil, ErrNoMemberList
	}

	res, err := c.api.ChannelsGetParticipants(ctx, &tg.ChannelsGetParticipantsRequest{
		Channel: &tg.InputChannel{ChannelID: e.ID, AccessHash: e.AccessHash},
		Filter:  &tg.ChannelParticipantsRecent{},
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	participants, ok := res.(*tg.ChannelsChannelParticipants)
	if !ok {
		return nil, nil
	}

	members := make([]Member, 0, len(participants.Users))
	for _, u := range participants.Users {
		usr, ok := u.(*tg.User)
		if !ok {
			continue
		}
		username, _ := usr.GetUsername()
		phone, _ := usr.GetPhone()
		members = append(members, Member{
			ID:        usr.ID,
			FirstName: usr.FirstName,
			LastName:  usr.LastName,
			Username:  username,
			Phone:     phone,
			Status:    userStatus(usr.Status),
			IsBot:     usr.Bot,
		})
	}
	return members, nil
}

// dialogPeers fetches one page of the dialog list and returns its peers.
func (c *mtproto) dialogPeers(ctx context.Context) ([]*tg.User, []tg.ChatClass, error) {
	res, err := c.api.MessagesGetDialogs(ctx, &tg.MessagesGetDialogsRequest{
		OffsetPeer: &tg.InputPeerEmpty{},
		Limit:      dialogPageSize,
	})
	if err != nil {
		return nil, nil, err
	}
	modified, ok := res.AsModified()
	if !ok {
		return nil, nil, nil
	}

	var users []*tg.User
	for _, u := range modified.GetUsers() {
		if usr, ok := u.(*tg.User); ok {
			users = append(users, usr)
		}
	}
	return users, modified.GetChats(), nil
}

func userEntity(u *tg.User) *Entity {
	hash, _ := u.GetAccessHash()
	username, _ := u.GetUsername()
	return &Entity{
		Kind:       KindUser,
		ID:         u.ID,
		AccessHash: hash,
		Title:      strings.TrimSpace(u.FirstName + " " + u.LastName),
		Username:   username,
	}
}

func chatEntity(ch *tg.Chat) *Entity {
	return &Entity{Kind: KindGroup, ID: ch.ID, Title: ch.Title}
}

func channelEntity(ch *tg.Channel) *Entity {
	hash, _ := ch.GetAccessHash()
	username, _ := ch.GetUsername()
	kind := KindChannel
	if ch.Megagroup {
		kind = KindGroup
	}
	return &Entity{
		Kind:       kind,
		ID:         ch.ID,
		AccessHash: hash,
		Title:      ch.Title,
		Username:   username,
	}
}

func inputPeer(e *Entity) tg.InputPeerClass {
	switch e.Kind {
	case KindUser:
		return &tg.InputPeerUser{UserID: e.ID, AccessHash: e.AccessHash}
	case KindGroup:
		if e.AccessHash == 0 {
			return &tg.InputPeerChat{ChatID: e.ID}
		}
		return &tg.InputPeerChannel{ChannelID: e.ID, AccessHash: e.AccessHash}
	default:
		return &tg.InputPeerChannel{ChannelID: e.ID, AccessHash: e.AccessHash}
	}
}

// mapMessages converts raw MTProto messages into RawMessage, resolving
// senders through the user list that rides along with the response.
// Service and empty messages are skipped.
func mapMessages(msgs []tg.MessageClass, users []tg.UserClass) []RawMessage {
	index := make(map[int64]*tg.User, len(users))
	for _, u := range users {
		if usr, ok := u.(*tg.User); ok {
			index[usr.ID] = usr
		}
	}

	out := make([]RawMessage, 0, len(msgs))
	for _, m := range msgs {
		msg, ok := m.(*tg.Message)
		if !ok {
			continue
		}

		raw := RawMessage{
			ID:   msg.ID,
			Text: msg.Message,
			Date: int64(msg.Date),
		}
		if views, ok := msg.GetViews(); ok {
			v := views
			raw.Views = &v
		}
		if forwards, ok := msg.GetForwards(); ok {
			f := forwards
			raw.Forwards = &f
		}
		if from, ok := msg.GetFromID(); ok {
			if peer, ok := from.(*tg.PeerUser); ok {
				sender := &RawSender{ID: peer.UserID}
				if usr := index[peer.UserID]; usr != nil {
					sender.Username, _ = usr.GetUsername()
					sender.FirstName = usr.FirstName
					sender.LastName = usr.LastName
				}
				raw.Sender = sender
			}
		}
		out = append(out, raw)
	}
	return out
}

func userStatus(s tg.UserStatusClass) string {
	switch s.(type) {
	case *tg.UserStatusOnline:
		return "online"
	case *tg.UserStatusOffline:
		return "offline"
	case *tg.UserStatusRecently:
		return "recently"
	case *tg.UserStatusLastWeek:
		return "last_week"
	case *tg.UserStatusLastMonth:
		return "last_month"
	default:
		return "unknown"
	}
}
