package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/saturnino-fabrica-de-software/moodscan/internal/domain"
)

// Analyzer runs the mood pipeline on one image
type Analyzer interface {
	Analyze(ctx context.Context, data []byte) (*domain.EmotionResult, error)
}

// Conn is the subset of *websocket.Conn a session uses
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one streaming session. Frames are analyzed in arrival order.
type Client struct {
	hub      *Hub
	conn     Conn
	analyzer Analyzer
	maxBytes int
	logger   *slog.Logger
	send     chan []byte
	closed   chan struct{}
}

func NewClient(hub *Hub, conn Conn, analyzer Analyzer, maxBytes int, logger *slog.Logger) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		analyzer: analyzer,
		maxBytes: maxBytes,
		logger:   logger,
		send:     make(chan []byte, 16),
		closed:   make(chan struct{}),
	}
}

// ReadPump analyzes incoming frames until the connection fails. It is the
// only sender on c.send and closes it on return.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		close(c.send)
		c.hub.Unregister(c)
	}()

	for seq := uint64(1); ; seq++ {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		payload, err := json.Marshal(c.process(ctx, seq, messageType, data))
		if err != nil {
			c.logger.Error("encode stream frame", slog.Any("error", err))
			return
		}

		select {
		case c.send <- payload:
		case <-c.closed:
			return
		}
	}
}

// WritePump delivers queued replies as text messages
func (c *Client) WritePump() {
	defer func() {
		close(c.closed)
		_ = c.conn.Close()
	}()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

func (c *Client) process(ctx context.Context, seq uint64, messageType int, data []byte) Frame {
	frame := Frame{Seq: seq}

	switch {
	case messageType != websocket.BinaryMessage:
		frame.Error = domain.ErrNotImage
	case len(data) == 0:
		frame.Error = domain.ErrUnreadableUpload
	case len(data) > c.maxBytes:
		frame.Error = domain.ErrPayloadTooLarge
	default:
		result, err := c.analyzer.Analyze(ctx, data)
		if err != nil {
			var appErr *domain.AppError
			if !errors.As(err, &appErr) {
				appErr = domain.ErrInternal
			}
			frame.Error = appErr
		} else {
			frame.Result = result
		}
	}

	frame.Timestamp = time.Now().UTC()
	return frame
}
