package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/zeusync/escape/internal/core/observability/log"
	"github.com/zeusync/escape/internal/core/render"
	"github.com/zeusync/escape/internal/core/systems/input"
)

const (
	writeWait      = 5 * time.Second
	maxMessageSize = 4096

	TypeFrame = "frame"
	TypeError = "error"
	TypeHello = "hello"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// IntentSink accepts intents decoded from clients.
type IntentSink interface {
	Push(intent input.Intent) error
}

// Message is what the feed writes to clients.
type Message struct {
	Type   string        `json:"type"`
	Client string        `json:"client,omitempty"`
	Frame  *render.Frame `json:"frame,omitempty"`
	Error  string        `json:"error,omitempty"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Feed broadcasts frames to every connected websocket client and forwards
// client intents to the simulation. A client that cannot keep up loses
// frames instead of slowing the tick loop.
type Feed struct {
	sink       IntentSink
	sendBuffer int
	maxClients int
	logger     log.Log

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool

	published atomic.Uint64
	dropped   atomic.Uint64
}

func NewFeed(sink IntentSink, sendBuffer, maxClients int, logger log.Log) *Feed {
	return &Feed{
		sink:       sink,
		sendBuffer: sendBuffer,
		maxClients: maxClients,
		logger:     logger.With(log.String("component", "feed")),
		clients:    make(map[*client]struct{}),
	}
}

// Publish sends frame to every client without blocking.
func (f *Feed) Publish(frame render.Frame) {
	data, err := json.Marshal(Message{Type: TypeFrame, Frame: &frame})
	if err != nil {
		f.logger.Error("encode frame", log.Error(err))
		return
	}
	f.published.Add(1)

	f.mu.Lock()
	defer f.mu.Unlock()
	for c := range f.clients {
		select {
		case c.send <- data:
		default:
			f.dropped.Add(1)
		}
	}
}

// Clients returns the number of connected clients.
func (f *Feed) Clients() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

// Dropped counts frames skipped for slow clients.
func (f *Feed) Dropped() uint64 { return f.dropped.Load() }

func (f *Feed) register(c *client) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrServerClosed
	}
	if len(f.clients) >= f.maxClients {
		return ErrMaxClientsReached
	}
	f.clients[c] = struct{}{}
	return nil
}

func (f *Feed) unregister(c *client) {
	f.mu.Lock()
	if _, ok := f.clients[c]; ok {
		delete(f.clients, c)
		c.close()
	}
	f.mu.Unlock()
}

// Close disconnects every client and refuses new ones.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for c := range f.clients {
		delete(f.clients, c)
		c.close()
	}
}

func (f *Feed) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Warn("websocket upgrade failed", log.Error(err))
		return
	}

	c := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, f.sendBuffer+1)}
	hello, _ := json.Marshal(Message{Type: TypeHello, Client: c.id})
	c.send <- hello
	if err := f.register(c); err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	f.logger.Info("client connected", log.String("client", c.id), log.String("remote", conn.RemoteAddr().String()))

	go f.writeLoop(c)
	f.readLoop(c)
}

// writeLoop owns all writes to the connection.
func (f *Feed) writeLoop(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			f.unregister(c)
			break
		}
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (f *Feed) readLoop(c *client) {
	defer func() {
		f.unregister(c)
		f.logger.Info("client disconnected", log.String("client", c.id))
	}()
	c.conn.SetReadLimit(maxMessageSize)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if err := f.handleIntent(data); err != nil {
			f.reply(c, Message{Type: TypeError, Error: err.Error()})
		}
	}
}

func (f *Feed) handleIntent(data []byte) error {
	var in input.Intent
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if err := f.sink.Push(in); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	return nil
}

func (f *Feed) reply(c *client, m Message) {
	data, err := json.Marshal(m)
	if err != nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		f.dropped.Add(1)
	}
}
