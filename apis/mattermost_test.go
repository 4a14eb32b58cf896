package apis

import (
	"encoding/json"
	"testing"

	mm "github.com/mattermost/mattermost/server/public/model"
)

func postedEvent(t *testing.T, post *mm.Post, channelType string, mentions []string) map[string]any {
	t.Helper()
	raw, err := json.Marshal(post)
	if err != nil {
		t.Fatal(err)
	}
	data := map[string]any{
		"post":         string(raw),
		"channel_type": channelType,
	}
	if mentions != nil {
		m, err := json.Marshal(mentions)
		if err != nil {
			t.Fatal(err)
		}
		data["mentions"] = string(m)
	}
	return data
}

func TestUnreads(t *testing.T) {
	posted := string(mm.WebsocketEventPosted)
	u := newUnreads("me", "watched")

	steps := []struct {
		name      string
		eventType string
		data      map[string]any
		want      MattermostState
	}{
		{
			name:      "own post is ignored",
			eventType: posted,
			data:      postedEvent(t, &mm.Post{UserId: "me", ChannelId: "watched"}, "O", nil),
		},
		{
			name:      "other channel is ignored",
			eventType: posted,
			data:      postedEvent(t, &mm.Post{UserId: "bob", ChannelId: "random"}, "O", nil),
		},
		{
			name:      "post in watched channel",
			eventType: posted,
			data:      postedEvent(t, &mm.Post{UserId: "bob", ChannelId: "watched"}, "O", nil),
			want:      MattermostState{HasMessages: true},
		},
		{
			name:      "direct message with mention",
			eventType: posted,
			data:      postedEvent(t, &mm.Post{UserId: "bob", ChannelId: "dm"}, string(mm.ChannelTypeDirect), []string{"me"}),
			want:      MattermostState{HasMessages: true, HasMentions: true},
		},
		{
			name:      "dm viewed",
			eventType: string(mm.WebsocketEventMultipleChannelsViewed),
			data:      map[string]any{"channel_times": map[string]any{"dm": float64(1)}},
			want:      MattermostState{HasMessages: true},
		},
		{
			name:      "watched channel viewed",
			eventType: string(mm.WebsocketEventChannelViewed),
			data:      map[string]any{"channel_id": "watched"},
		},
	}

	for _, step := range steps {
		if err := u.handle(step.eventType, step.data); err != nil {
			t.Fatalf("%s: handle() error = %v", step.name, err)
		}
		if got := u.state(); got != step.want {
			t.Errorf("%s: state = %+v, want %+v", step.name, got, step.want)
		}
	}
}

func TestUnreads_BadPost(t *testing.T) {
	u := newUnreads("me", "watched")
	err := u.handle(string(mm.WebsocketEventPosted), map[string]any{"post": "{"})
	if err == nil {
		t.Error("handle() accepted a broken post")
	}
}
