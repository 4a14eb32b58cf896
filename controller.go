// Signallight drives an RGBW indicator light attached to a serial port.
//
// Usage:
//
//	signallight [command] [flags]
//
// One-shot commands such as "color" or "flash" set the light and exit; "run" keeps the
// port open and lets the configured status feed, Mattermost and the websocket remote
// decide what the light shows.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/thiefmaster/signallight/apis"
	"github.com/thiefmaster/signallight/comm"
	"github.com/thiefmaster/signallight/light"
	"github.com/thiefmaster/signallight/logging"
)

type appState struct {
	looks      map[string]look
	feedState  string
	mattermost apis.MattermostState
	current    string
}

func newAppState(looks map[string]look) *appState {
	return &appState{looks: looks}
}

// resolve picks the state to show: mentions beat messages beat the status feed.
func (s *appState) resolve() string {
	switch {
	case s.mattermost.HasMentions:
		return stateMention
	case s.mattermost.HasMessages:
		return stateMessage
	}
	if _, ok := s.looks[s.feedState]; ok {
		return s.feedState
	}
	return stateIdle
}

// update shows the resolved state if it differs from what is shown.
func (s *appState) update(ctrl *light.Controller) error {
	name := s.resolve()
	if name == s.current {
		return nil
	}
	l, ok := s.looks[name]
	if !ok {
		l = s.looks[stateIdle]
	}
	logging.GetLogger().Info("light state", zap.String("state", name))
	if err := applyLook(ctrl, l); err != nil {
		s.current = ""
		return err
	}
	s.current = name
	return nil
}

type sources struct {
	feed       <-chan apis.FeedState
	mattermost <-chan apis.MattermostState
	remote     <-chan apis.RemoteRequest
}

// runLoop owns ctrl: every command, whichever source asked for it, is issued from here.
func runLoop(ctx context.Context, ctrl *light.Controller, state *appState, src sources) error {
	log := logging.GetLogger()
	if err := state.update(ctrl); err != nil {
		return err
	}
	for {
		var err error
		select {
		case <-ctx.Done():
			return nil
		case fs := <-src.feed:
			log.Info("status feed", zap.String("state", fs.State))
			if _, ok := state.looks[fs.State]; !ok && fs.State != "" {
				log.Warn("no light state configured for feed state", zap.String("state", fs.State))
			}
			state.feedState = fs.State
			err = state.update(ctrl)
		case ms := <-src.mattermost:
			log.Info("mattermost", zap.Bool("messages", ms.HasMessages), zap.Bool("mentions", ms.HasMentions))
			state.mattermost = ms
			err = state.update(ctrl)
		case req := <-src.remote:
			log.Info("remote command", zap.String("action", req.Command.Action))
			reply := handleRemote(ctrl, req.Command)
			req.Reply <- reply
			if req.Command.Action != apis.RemoteStatus && req.Command.Action != apis.RemoteReadID {
				// manual override lasts until the next source update
				state.current = ""
			}
		}
		if errors.Is(err, comm.ErrNotOpen) {
			return err
		}
		if err != nil {
			log.Error("could not update light", zap.Error(err))
		}
	}
}

func run(ctx context.Context, cfg appConfig, ctrl *light.Controller) error {
	looks, err := cfg.looks()
	if err != nil {
		return err
	}
	log := logging.GetLogger()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var src sources
	if cfg.NotHub != nil {
		src.feed = apis.SubscribeStatusFeed(ctx, *cfg.NotHub, log.Named("nothub"))
	}
	if cfg.Mattermost != nil {
		src.mattermost = apis.SubscribeMattermostState(ctx, *cfg.Mattermost, log.Named("mattermost"))
	}
	errc := make(chan error, 1)
	if cfg.Remote != nil {
		remote := apis.NewRemoteServer(cfg.Remote.Origins, log.Named("remote"))
		src.remote = remote.Requests()
		go func() {
			if err := remote.ListenAndServe(ctx, cfg.Remote.Port); err != nil {
				errc <- err
				cancel()
			}
		}()
	}
	if err := runLoop(ctx, ctrl, newAppState(looks), src); err != nil {
		return err
	}
	// a source that failed ends the loop like a shutdown does; report it
	select {
	case err := <-errc:
		return err
	default:
		return nil
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
