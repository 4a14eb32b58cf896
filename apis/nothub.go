package apis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/thiefmaster/eventsource"
	"go.uber.org/zap"
)

// FeedOffline is reported while the status feed cannot be reached.
const FeedOffline = "offline"

// FeedState is one update of the status feed, e.g. {"state": "alert"}. The state name
// is looked up in the configured light states.
type FeedState struct {
	State string `json:"state"`
}

func parseFeedEvent(data string) (FeedState, error) {
	var state FeedState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return FeedState{}, err
	}
	return state, nil
}

type feedSubscriber struct {
	credentials HTTPCredentials
	log         *zap.Logger
	events      chan<- FeedState
	last        FeedState
	sent        bool
}

// emit forwards state unless it repeats the previous one.
func (s *feedSubscriber) emit(ctx context.Context, state FeedState) {
	if s.sent && state == s.last {
		return
	}
	select {
	case s.events <- state:
		s.last = state
		s.sent = true
	case <-ctx.Done():
	}
}

func (s *feedSubscriber) run(ctx context.Context) {
	for ctx.Err() == nil {
		if err := s.stream(ctx); err != nil {
			s.log.Warn("status feed subscribe failed", zap.Error(err))
			s.emit(ctx, FeedState{State: FeedOffline})
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
			}
		}
	}
}

func (s *feedSubscriber) stream(ctx context.Context) error {
	req, err := newRequest(ctx, "GET", "/updates", nil, s.credentials)
	if err != nil {
		return err
	}
	stream, err := eventsource.SubscribeWithRequest("", req)
	if err != nil {
		return err
	}
	defer stream.Close()

	stream.InitialRetryDelay = 500 * time.Millisecond
	stream.MaxRetryDelay = 5 * time.Second
	stream.Logger = zap.NewStdLog(s.log)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-stream.Events:
			state, err := parseFeedEvent(event.Data())
			if err != nil {
				s.log.Warn("could not unmarshal status feed event", zap.Error(err))
				continue
			}
			s.emit(ctx, state)
		case err := <-stream.Errors:
			s.log.Warn("status feed stream error", zap.Error(err))
			s.emit(ctx, FeedState{State: FeedOffline})
		}
	}
}

// SubscribeStatusFeed follows the server-sent events at <url>/updates until ctx is
// done. Repeated states are dropped; connection problems show up as FeedOffline.
func SubscribeStatusFeed(ctx context.Context, credentials HTTPCredentials, logger *zap.Logger) <-chan FeedState {
	events := make(chan FeedState)
	s := &feedSubscriber{credentials: credentials, log: logger, events: events}
	go s.run(ctx)
	return events
}
