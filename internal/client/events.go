package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const websocketHandshakeTimeout = 10 * time.Second

// EventFrame is one message from the daemon's event stream.
type EventFrame struct {
	Topic     string          `json:"topic"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// StreamEvents subscribes to the daemon's change feed. The returned
// channel closes when the connection drops or ctx is cancelled.
func (c *Client) StreamEvents(ctx context.Context) (<-chan EventFrame, error) {
	wsBase := strings.Replace(c.baseURL, "http", "ws", 1)
	target := wsBase + "/events"
	if c.token != "" {
		target += "?token=" + url.QueryEscape(c.token)
	}

	dialer := &websocket.Dialer{HandshakeTimeout: websocketHandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, fmt.Errorf("client: connect event stream: %w", err)
	}

	frames := make(chan EventFrame, 32)
	go func() {
		defer close(frames)
		defer conn.Close()
		for {
			var frame EventFrame
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			select {
			case frames <- frame:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	return frames, nil
}
