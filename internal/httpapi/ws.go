package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/charla-im/charla/internal/backend"
	"github.com/charla-im/charla/internal/chat"
	"github.com/charla-im/charla/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is enforced by the CORS layer.
		return true
	},
}

const (
	wsWriteTimeout = 10 * time.Second
	wsReadLimit    = 64 * 1024
)

// streamFrame is one push of conversation state to the client.
type streamFrame struct {
	Counterparty string           `json:"counterparty"`
	Loading      bool             `json:"loading"`
	Profile      *backend.Profile `json:"profile,omitempty"`
	Messages     []store.Message  `json:"messages"`
	Summaries    []chat.Summary   `json:"summaries"`
}

// streamCommand is one message from the client. Only sends are supported;
// read receipts happen server-side when snapshots arrive.
type streamCommand struct {
	Text string `json:"text"`
}

// handleStream upgrades to a WebSocket and binds a conversation client to
// the connection. Every state change pushes a full frame; incoming frames
// send messages into the open conversation.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	counterparty := chi.URLParam(r, "uid")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	client := chat.NewClient(s.messages, s.profiles, *sess, s.logger)
	defer client.CloseChat()
	client.OpenChat(r.Context(), counterparty)

	readerDone := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for {
			select {
			case <-client.Updates():
			case <-readerDone:
				return
			case <-r.Context().Done():
				return
			}
			frame := streamFrame{
				Counterparty: client.Counterparty(),
				Loading:      client.Loading(),
				Profile:      client.Profile(),
				Messages:     client.Messages(),
				Summaries:    client.Summaries(),
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		}
	}()

	conn.SetReadLimit(wsReadLimit)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var cmd streamCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			continue
		}
		if err := client.SendMessage(r.Context(), cmd.Text); err != nil {
			s.logger.Debug("stream send", zap.String("uid", sess.UserID), zap.Error(err))
		}
	}

	close(readerDone)
	<-writerDone
	client.CloseChat()
}
