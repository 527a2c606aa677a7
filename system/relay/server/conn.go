package server

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/signadot/sharedoc/debug"
	"github.com/signadot/sharedoc/system/relay/api"
)

// conn is one client websocket. Reads happen on the goroutine serving the
// request and writes on writePump.
type conn struct {
	id   string
	ws   *websocket.Conn
	cfg  *Config
	log  *slog.Logger
	send chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func newConn(id string, ws *websocket.Conn, cfg *Config, log *slog.Logger) *conn {
	return &conn{
		id:   id,
		ws:   ws,
		cfg:  cfg,
		log:  log.With("conn", id),
		send: make(chan []byte, cfg.SendBuffer),
		done: make(chan struct{}),
	}
}

// enqueue queues f for writing. A client that does not keep up is
// disconnected; it resynchronizes when it reconnects.
func (c *conn) enqueue(f *api.Frame) {
	d, err := api.Encode(f)
	if err != nil {
		c.log.Error("encode frame", "kind", f.Kind, "error", err)
		return
	}
	select {
	case <-c.done:
	case c.send <- d:
	default:
		c.log.Warn("slow client, disconnecting")
		c.close()
	}
}

func (c *conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *conn) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()
	for {
		select {
		case d := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.BinaryMessage, d); err != nil {
				c.log.Debug("write", "error", err)
				c.close()
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			c.flush()
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.cfg.WriteTimeout))
			return
		}
	}
}

// flush writes what is already queued, such as a final error frame.
func (c *conn) flush() {
	for {
		select {
		case d := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.BinaryMessage, d); err != nil {
				return
			}
		default:
			return
		}
	}
}

// readPump handles frames until the connection fails or is closed.
func (c *conn) readPump(rooms *Rooms, roomName string) error {
	c.ws.SetReadLimit(c.cfg.MaxMessageBytes)
	wait := 2 * c.cfg.PingInterval
	c.ws.SetReadDeadline(time.Now().Add(wait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(wait))
	})

	hello, err := c.readFrame()
	if err != nil {
		return err
	}
	if hello.Kind != api.FrameHello {
		c.fail(api.NewError(api.ErrCodeBadFrame, fmt.Sprintf("expected hello, got %s", hello.Kind)))
		return fmt.Errorf("first frame is %s", hello.Kind)
	}
	room, err := rooms.Get(roomName)
	if err != nil {
		c.fail(api.NewError(api.ErrCodeInternal, "room unavailable"))
		return err
	}
	room.join(c, hello)
	defer room.leave(c)

	for {
		f, err := c.readFrame()
		if err != nil {
			var apiErr *api.Error
			if errors.As(err, &apiErr) {
				c.fail(apiErr)
			}
			return err
		}
		c.ws.SetReadDeadline(time.Now().Add(wait))
		if debug.Sync() {
			debug.Logf("relay %s <- %s %s\n", roomName, c.id, f.Kind)
		}
		switch f.Kind {
		case api.FrameUpdate:
			if err := room.update(c, *f.Update); err != nil {
				c.log.Warn("update", "error", err)
				c.enqueue(&api.Frame{Kind: api.FrameError, Error: api.NewError(api.ErrCodeBadUpdate, err.Error())})
			}
		case api.FramePresence:
			room.presence(c, *f.Presence)
		default:
			c.log.Debug("ignoring frame", "kind", f.Kind)
		}
	}
}

func (c *conn) readFrame() (*api.Frame, error) {
	select {
	case <-c.done:
		return nil, errClosed
	default:
	}
	typ, d, err := c.ws.ReadMessage()
	if err != nil {
		return nil, err
	}
	if typ != websocket.BinaryMessage {
		return nil, api.NewError(api.ErrCodeBadFrame, "text message")
	}
	return api.Decode(d)
}

// fail sends e and closes the connection.
func (c *conn) fail(e *api.Error) {
	c.enqueue(&api.Frame{Kind: api.FrameError, Error: e})
	c.close()
}

var errClosed = errors.New("connection closed")
