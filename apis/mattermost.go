package apis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mm "github.com/mattermost/mattermost/server/public/model"
	"go.uber.org/zap"
)

type MattermostSettings struct {
	ServerURL   string `yaml:"url"`
	AccessToken string `yaml:"token"`
	TeamName    string `yaml:"team"`
	ChannelName string `yaml:"channel"`
}

// MattermostState tells whether the watched channel or any direct message has
// unread posts or mentions.
type MattermostState struct {
	HasMessages bool
	HasMentions bool
}

// unreads tracks which channels have unread posts and mentions for one user.
type unreads struct {
	userID    string
	channelID string
	messages  map[string]bool
	mentions  map[string]bool
}

func newUnreads(userID, channelID string) *unreads {
	return &unreads{
		userID:    userID,
		channelID: channelID,
		messages:  make(map[string]bool),
		mentions:  make(map[string]bool),
	}
}

func (u *unreads) state() MattermostState {
	return MattermostState{
		HasMessages: len(u.messages) > 0,
		HasMentions: len(u.mentions) > 0,
	}
}

func (u *unreads) markViewed(channelID string) {
	delete(u.messages, channelID)
	delete(u.mentions, channelID)
}

// handle applies one websocket event.
func (u *unreads) handle(eventType string, data map[string]any) error {
	switch eventType {
	case string(mm.WebsocketEventChannelViewed):
		if channelID, ok := data["channel_id"].(string); ok {
			u.markViewed(channelID)
		}
	case string(mm.WebsocketEventMultipleChannelsViewed):
		times, _ := data["channel_times"].(map[string]any)
		for channelID := range times {
			u.markViewed(channelID)
		}
	case string(mm.WebsocketEventPosted):
		raw, _ := data["post"].(string)
		var post mm.Post
		if err := json.Unmarshal([]byte(raw), &post); err != nil {
			return fmt.Errorf("could not unmarshal post: %w", err)
		}
		channelType, _ := data["channel_type"].(string)
		isDirect := mm.ChannelType(channelType) == mm.ChannelTypeDirect || mm.ChannelType(channelType) == mm.ChannelTypeGroup
		if post.UserId == u.userID || (post.ChannelId != u.channelID && !isDirect) {
			return nil
		}
		u.messages[post.ChannelId] = true
		if mentions, ok := data["mentions"].(string); ok {
			for _, id := range mm.ArrayFromJSON(strings.NewReader(mentions)) {
				if id == u.userID {
					u.mentions[post.ChannelId] = true
					break
				}
			}
		}
	}
	return nil
}

type mattermostWatcher struct {
	settings MattermostSettings
	log      *zap.Logger
	events   chan<- MattermostState
	last     MattermostState
	sent     bool
}

func (w *mattermostWatcher) emit(ctx context.Context, state MattermostState) {
	if w.sent && state == w.last {
		return
	}
	select {
	case w.events <- state:
		w.last = state
		w.sent = true
	case <-ctx.Done():
	}
}

func (w *mattermostWatcher) run(ctx context.Context) {
	for ctx.Err() == nil {
		if err := w.watch(ctx); err != nil {
			w.log.Warn("mattermost watcher stopped", zap.Error(err))
		}
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
		}
	}
}

func (w *mattermostWatcher) watch(ctx context.Context) error {
	client := mm.NewAPIv4Client(w.settings.ServerURL)
	client.SetToken(w.settings.AccessToken)

	me, _, err := client.GetMe(ctx, "")
	if err != nil {
		return fmt.Errorf("could not get user info: %w", err)
	}
	channel, _, err := client.GetChannelByNameForTeamName(ctx, w.settings.ChannelName, w.settings.TeamName, "")
	if err != nil {
		return fmt.Errorf("could not get channel: %w", err)
	}

	u := newUnreads(me.Id, channel.Id)
	if err := w.loadUnreads(ctx, client, u); err != nil {
		w.log.Warn("could not load current unreads", zap.Error(err))
	}
	w.emit(ctx, u.state())

	ws, err := mm.NewWebSocketClient(strings.Replace(w.settings.ServerURL, "http", "ws", 1), client.AuthToken)
	if err != nil {
		return fmt.Errorf("could not connect to websocket: %w", err)
	}
	defer ws.Close()
	ws.Listen()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ws.PingTimeoutChannel:
			return fmt.Errorf("websocket ping timeout")
		case event := <-ws.EventChannel:
			if event == nil {
				return fmt.Errorf("websocket event channel closed")
			}
			if err := u.handle(string(event.EventType()), event.GetData()); err != nil {
				w.log.Warn("could not handle mattermost event", zap.Error(err))
				continue
			}
			w.emit(ctx, u.state())
		}
	}
}

func (w *mattermostWatcher) loadUnreads(ctx context.Context, client *mm.Client4, u *unreads) error {
	team, _, err := client.GetTeamByName(ctx, w.settings.TeamName, "")
	if err != nil {
		return fmt.Errorf("could not get team: %w", err)
	}

	channels, _, err := client.GetChannelsForTeamForUser(ctx, team.Id, "me", false, "")
	if err != nil {
		return fmt.Errorf("could not get channels: %w", err)
	}
	channelsByID := make(map[string]*mm.Channel, len(channels))
	for _, channel := range channels {
		channelsByID[channel.Id] = channel
	}

	// own channel membership carries the unread counts
	members, _, err := client.GetChannelMembersForUser(ctx, "me", team.Id, "")
	if err != nil {
		return fmt.Errorf("could not get unreads: %w", err)
	}
	for _, member := range members {
		channel := channelsByID[member.ChannelId]
		if channel == nil || (channel.Id != u.channelID && !channel.IsGroupOrDirect()) {
			continue
		}
		if channel.TotalMsgCount-member.MsgCount > 0 {
			u.messages[member.ChannelId] = true
		}
		if member.MentionCount > 0 {
			u.mentions[member.ChannelId] = true
		}
	}
	return nil
}

// SubscribeMattermostState watches unread posts and mentions until ctx is done,
// reconnecting after failures. Only changes are sent.
func SubscribeMattermostState(ctx context.Context, settings MattermostSettings, logger *zap.Logger) <-chan MattermostState {
	events := make(chan MattermostState)
	w := &mattermostWatcher{settings: settings, log: logger, events: events}
	go w.run(ctx)
	return events
}
