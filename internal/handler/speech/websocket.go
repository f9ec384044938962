package speech

import (
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/talbothq/talbot/backend/internal/service/gate"
	speechsvc "github.com/talbothq/talbot/backend/internal/service/speech"
)

// WebSocketHandler carries the voice channel: finalized transcripts come
// in, synthesized reply audio goes out.
type WebSocketHandler struct {
	gate     *gate.Gate
	speech   *speechsvc.Service
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates the voice channel handler.
func NewWebSocketHandler(g *gate.Gate, speech *speechsvc.Service) *WebSocketHandler {
	return &WebSocketHandler{
		gate:   g,
		speech: speech,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers the websocket route.
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/voice/ws", h.handleWebSocket)
}

type inboundFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// transcriptFrame is a speech-to-text result from the client. Only
// final transcripts trigger a send; interim ones are acknowledged and
// dropped.
type transcriptFrame struct {
	Text    string `json:"text"`
	IsFinal bool   `json:"isFinal"`
}

type outboundFrame struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[voice] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[voice] client connected from %s", r.RemoteAddr)

	audio, cancel := h.speech.Subscribe()
	defer cancel()

	// Serialize writes: reply audio and transcript acks share the
	// connection.
	writes := make(chan outboundFrame, 8)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case frame := <-writes:
				if err := conn.WriteJSON(frame); err != nil {
					log.Printf("[voice] write failed: %v", err)
					return
				}
			case <-done:
				return
			}
		}
	}()

	go func() {
		for resp := range audio {
			send(writes, done, outboundFrame{
				Type: "audio",
				Data: map[string]string{
					"audio":  base64.StdEncoding.EncodeToString(resp.AudioData),
					"format": resp.Format,
				},
				Timestamp: time.Now().UnixMilli(),
			})
		}
	}()

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[voice] read failed: %v", err)
			}
			return
		}

		switch frame.Type {
		case "transcript":
			var transcript transcriptFrame
			if err := json.Unmarshal(frame.Data, &transcript); err != nil {
				send(writes, done, outboundFrame{Type: "error", Data: "invalid transcript frame", Timestamp: time.Now().UnixMilli()})
				continue
			}
			if !transcript.IsFinal {
				continue
			}

			accepted := h.gate.RequestSend(gate.SourceVoice, transcript.Text)
			send(writes, done, outboundFrame{
				Type:      "send",
				Data:      map[string]bool{"accepted": accepted},
				Timestamp: time.Now().UnixMilli(),
			})
		case "ping":
			send(writes, done, outboundFrame{Type: "pong", Timestamp: time.Now().UnixMilli()})
		default:
			send(writes, done, outboundFrame{Type: "error", Data: "unknown frame type", Timestamp: time.Now().UnixMilli()})
		}
	}
}

func send(writes chan<- outboundFrame, done <-chan struct{}, frame outboundFrame) {
	select {
	case writes <- frame:
	case <-done:
	}
}
