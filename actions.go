package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/thiefmaster/signallight/apis"
	"github.com/thiefmaster/signallight/light"
	"github.com/thiefmaster/signallight/logging"
	"github.com/thiefmaster/signallight/protocol"
)

func pause(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func showFancyIntro(ctx context.Context, ctrl *light.Controller, delay time.Duration) error {
	for _, color := range protocol.Colors() {
		if color == protocol.Off {
			continue
		}
		if err := ctrl.SetColor(color); err != nil {
			return err
		}
		if err := pause(ctx, delay); err != nil {
			return err
		}
	}
	return ctrl.SetColor(protocol.Off)
}

// showAlert flashes red for d and then goes back to whatever was shown before.
func showAlert(ctx context.Context, ctrl *light.Controller, d time.Duration) error {
	logging.GetLogger().Info("showing alert", zap.Duration("duration", d))
	ctrl.SaveColor()
	if err := ctrl.SetFlashingColors(protocol.Red, protocol.Off); err != nil {
		return err
	}
	if err := ctrl.SetFlashingPeriodDuration(250 * time.Millisecond); err != nil {
		return err
	}
	if err := ctrl.SetFlashing(true); err != nil {
		return err
	}
	waitErr := pause(ctx, d)
	if err := ctrl.SetFlashing(false); err != nil {
		return err
	}
	if err := ctrl.ResumeColor(); err != nil {
		return err
	}
	return waitErr
}

// breathe fades color in and out once.
func breathe(ctx context.Context, ctrl *light.Controller, color protocol.Color, steps int, delay time.Duration) error {
	v, err := color.RGBW()
	if err != nil {
		return err
	}
	for i := 0; i <= 2*steps; i++ {
		level := float64(steps-int(math.Abs(float64(i-steps)))) / float64(steps)
		if err := ctrl.SetColorPercent(
			channelPercent(v.R, level),
			channelPercent(v.G, level),
			channelPercent(v.B, level),
			channelPercent(v.W, level),
		); err != nil {
			return err
		}
		if err := pause(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}

func channelPercent(channel uint8, level float64) float64 {
	return float64(channel) * 100 / 255 * level
}

func runDemo(ctx context.Context, ctrl *light.Controller, delay time.Duration) error {
	log := logging.GetLogger()
	log.Info("demo: color cycle")
	if err := showFancyIntro(ctx, ctrl, delay); err != nil {
		return err
	}
	log.Info("demo: breathe")
	if err := breathe(ctx, ctrl, protocol.Cyan, 10, delay/5); err != nil {
		return err
	}
	if err := ctrl.SetColor(protocol.Green); err != nil {
		return err
	}
	if err := showAlert(ctx, ctrl, 4*delay); err != nil {
		return err
	}
	if err := pause(ctx, delay); err != nil {
		return err
	}
	return ctrl.SetColor(protocol.Off)
}

func applyLook(ctrl *light.Controller, l look) error {
	if !l.flashing {
		if ctrl.State().Flashing {
			if err := ctrl.SetFlashing(false); err != nil {
				return err
			}
		}
		return ctrl.SetColor(l.color)
	}
	if err := ctrl.SetFlashingColors(l.flash[0], l.flash[1]); err != nil {
		return err
	}
	if l.period > 0 {
		if err := ctrl.SetFlashingPeriodDuration(l.period); err != nil {
			return err
		}
	}
	return ctrl.SetFlashing(true)
}

func handleRemote(ctrl *light.Controller, cmd apis.RemoteCommand) apis.RemoteReply {
	var reply apis.RemoteReply
	if err := runRemote(ctrl, cmd, &reply); err != nil {
		reply.Error = err.Error()
	} else {
		reply.OK = true
	}
	state := ctrl.State()
	reply.Color = [4]uint8{state.LastColor.R, state.LastColor.G, state.LastColor.B, state.LastColor.W}
	reply.Saved = [4]uint8{state.SavedColor.R, state.SavedColor.G, state.SavedColor.B, state.SavedColor.W}
	reply.Flashing = state.Flashing
	return reply
}

func runRemote(ctrl *light.Controller, cmd apis.RemoteCommand, reply *apis.RemoteReply) error {
	switch cmd.Action {
	case apis.RemoteSetColor:
		color, err := protocol.ParseColor(cmd.Color)
		if err != nil {
			return err
		}
		return ctrl.SetColor(color)
	case apis.RemoteSetRGBW:
		v, err := rgbwFromValues(cmd.Values)
		if err != nil {
			return err
		}
		return ctrl.SetColorRGBW(v)
	case apis.RemoteSetPercent:
		if len(cmd.Values) != protocol.ChannelCount {
			return fmt.Errorf("%w: need %d values", protocol.ErrInvalidArgument, protocol.ChannelCount)
		}
		return ctrl.SetColorPercent(cmd.Values[0], cmd.Values[1], cmd.Values[2], cmd.Values[3])
	case apis.RemoteSetFlashing:
		return ctrl.SetFlashing(cmd.Flashing)
	case apis.RemoteFlashColors:
		if len(cmd.Colors) != 2 {
			return fmt.Errorf("%w: need 2 colors", protocol.ErrInvalidArgument)
		}
		first, err := protocol.ParseColor(cmd.Colors[0])
		if err != nil {
			return err
		}
		second, err := protocol.ParseColor(cmd.Colors[1])
		if err != nil {
			return err
		}
		return ctrl.SetFlashingColors(first, second)
	case apis.RemoteSetPeriod:
		if cmd.Period == nil {
			return fmt.Errorf("%w: period is required", protocol.ErrInvalidArgument)
		}
		if *cmd.Period < 0 || *cmd.Period > 255 {
			return fmt.Errorf("%w: period %d not in [0,255]", protocol.ErrInvalidArgument, *cmd.Period)
		}
		return ctrl.SetFlashingPeriod(byte(*cmd.Period))
	case apis.RemoteSave:
		ctrl.SaveColor()
		return nil
	case apis.RemoteResume:
		return ctrl.ResumeColor()
	case apis.RemoteReadID:
		id, err := ctrl.ReadID()
		if err != nil {
			return err
		}
		reply.ID = &id
		return nil
	case apis.RemoteStatus:
		return nil
	default:
		return errors.New("unknown action " + cmd.Action)
	}
}

func rgbwFromValues(values []float64) (protocol.RGBW, error) {
	if len(values) != protocol.ChannelCount {
		return protocol.RGBW{}, fmt.Errorf("%w: need %d values", protocol.ErrInvalidArgument, protocol.ChannelCount)
	}
	raw := make([]byte, 0, protocol.ChannelCount)
	for _, v := range values {
		if v < 0 || v > 255 || v != math.Trunc(v) {
			return protocol.RGBW{}, fmt.Errorf("%w: %v is not a byte", protocol.ErrInvalidArgument, v)
		}
		raw = append(raw, byte(v))
	}
	return protocol.RGBWFromBytes(raw)
}
