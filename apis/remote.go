package apis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Remote actions.
const (
	RemoteSetColor    = "setColor"
	RemoteSetRGBW     = "setRGBW"
	RemoteSetPercent  = "setPercent"
	RemoteSetFlashing = "setFlashing"
	RemoteFlashColors = "setFlashingColors"
	RemoteSetPeriod   = "setPeriod"
	RemoteSave        = "save"
	RemoteResume      = "resume"
	RemoteReadID      = "readID"
	RemoteStatus      = "status"
)

// RemoteCommand is one JSON message from a remote control client, for example
// {"action": "setColor", "color": "red"}.
type RemoteCommand struct {
	Action   string    `json:"action"`
	Color    string    `json:"color,omitempty"`
	Colors   []string  `json:"colors,omitempty"`
	Values   []float64 `json:"values,omitempty"`
	Flashing bool      `json:"flashing,omitempty"`
	Period   *int      `json:"period,omitempty"`
}

// RemoteReply answers a RemoteCommand.
type RemoteReply struct {
	OK       bool     `json:"ok"`
	Error    string   `json:"error,omitempty"`
	ID       *int     `json:"id,omitempty"`
	Color    [4]uint8 `json:"color"`
	Saved    [4]uint8 `json:"saved"`
	Flashing bool     `json:"flashing"`
}

// RemoteRequest carries a command to whoever owns the light. Exactly one reply must be
// sent on Reply.
type RemoteRequest struct {
	Command RemoteCommand
	Reply   chan<- RemoteReply
}

// RemoteServer accepts remote control websocket connections on /ws.
type RemoteServer struct {
	requests chan RemoteRequest
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewRemoteServer creates a server that accepts connections without an Origin header
// or from one of origins (scheme://host).
func NewRemoteServer(origins []string, logger *zap.Logger) *RemoteServer {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &RemoteServer{
		requests: make(chan RemoteRequest),
		log:      logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				return allowed[u.Scheme+"://"+u.Host]
			},
		},
	}
}

// Requests delivers commands from all connected clients in arrival order.
func (s *RemoteServer) Requests() <-chan RemoteRequest {
	return s.requests
}

func (s *RemoteServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.ws)
	return mux
}

func (s *RemoteServer) ws(w http.ResponseWriter, r *http.Request) {
	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer c.Close()
	s.log.Info("remote connected", zap.String("remote_addr", r.RemoteAddr))

	for {
		var cmd RemoteCommand
		if err := c.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("websocket read failed", zap.Error(err))
			}
			return
		}

		reply := make(chan RemoteReply, 1)
		select {
		case s.requests <- RemoteRequest{Command: cmd, Reply: reply}:
		case <-r.Context().Done():
			return
		}
		var answer RemoteReply
		select {
		case answer = <-reply:
		case <-r.Context().Done():
			return
		}
		if err := c.WriteJSON(answer); err != nil {
			s.log.Warn("websocket write failed", zap.Error(err))
			return
		}
	}
}

// ListenAndServe serves on 127.0.0.1:port until ctx is done.
func (s *RemoteServer) ListenAndServe(ctx context.Context, port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return fmt.Errorf("could not listen for remote: %w", err)
	}
	srv := &http.Server{Handler: s.Handler()}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	s.log.Info("remote listening", zap.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("remote server exited: %w", err)
	}
	return nil
}
