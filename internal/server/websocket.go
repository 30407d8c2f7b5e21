package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/patchbay-sh/patchbay/internal/eventbus"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
	wsSendBuffer   = 64
)

// EventMessage is one event stream frame.
type EventMessage struct {
	Topic     string    `json:"topic"`
	Source    string    `json:"source,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

var eventTopics = []eventbus.Topic{
	eventbus.TopicInstancesChanged,
	eventbus.TopicWiringChanged,
	eventbus.TopicOutputsChanged,
	eventbus.TopicSettingsChanged,
}

// handleEvents upgrades the connection and streams every engine change
// event until the client disconnects. Payloads never carry secret
// values; the bus only transports identifiers.
func (s *APIServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(r.Header.Get("Origin"))
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[APIServer] websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	merged := make(chan eventbus.Envelope, wsSendBuffer)
	done := make(chan struct{})

	subs := make([]*eventbus.Subscription, 0, len(eventTopics))
	for _, topic := range eventTopics {
		sub := s.bus.Subscribe(topic,
			eventbus.WithSubscriptionName("events-ws"),
			eventbus.WithContext(r.Context()),
		)
		subs = append(subs, sub)
		go func(sub *eventbus.Subscription) {
			for env := range sub.C() {
				select {
				case merged <- env:
				case <-done:
					return
				}
			}
		}(sub)
	}
	defer func() {
		close(done)
		for _, sub := range subs {
			sub.Close()
		}
	}()

	// Reader goroutine only detects client close.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				select {
				case <-done:
				default:
					conn.Close()
				}
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case env := <-merged:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			msg := EventMessage{
				Topic:     string(env.Topic),
				Source:    string(env.Source),
				Timestamp: env.Timestamp,
				Payload:   env.Payload,
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}
