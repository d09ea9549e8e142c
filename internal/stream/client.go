// Package stream maintains the live transcript for the room a viewer is
// watching: a websocket subscription that appends entries as translators
// send them, plus backward pagination for older history.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/RiceCakess/holoclips/internal/domain"
	"github.com/RiceCakess/holoclips/pkg/log"
)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	URL          string
	Dialer       *websocket.Dialer
	ReconnectMin time.Duration
	ReconnectMax time.Duration
	PingInterval time.Duration
	PongWait     time.Duration
	WriteWait    time.Duration
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.Dialer == nil {
		out.Dialer = websocket.DefaultDialer
	}
	if out.ReconnectMin <= 0 {
		out.ReconnectMin = time.Second
	}
	if out.ReconnectMax <= 0 {
		out.ReconnectMax = 30 * time.Second
	}
	if out.PingInterval <= 0 {
		out.PingInterval = 30 * time.Second
	}
	if out.PongWait <= 0 {
		out.PongWait = 60 * time.Second
	}
	if out.WriteWait <= 0 {
		out.WriteWait = 10 * time.Second
	}
	return out
}

// Subscriber observes sequence updates. It receives a snapshot of the
// entries and the revision the snapshot belongs to.
type Subscriber func(entries []domain.TranscriptEntry, revision uint64)

// Client is the consumer half of the room protocol. One Client tracks one
// room at a time; switching rooms discards the held sequence and drops any
// late responses that were requested under the old room.
type Client struct {
	opts   Options
	logger zerolog.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	room      domain.Room
	seq       *Sequence
	cursor    string
	exhausted bool
	loading   bool
	running   bool
	cancel    context.CancelFunc

	writeMu sync.Mutex

	subMu   sync.Mutex
	subs    map[int]Subscriber
	nextSub int
}

// NewClient creates a client for the relay at opts.URL. Nothing connects
// until Connect is called.
func NewClient(opts Options) *Client {
	return &Client{
		opts:   opts.withDefaults(),
		logger: log.L().With().Str("component", "stream").Logger(),
		seq:    NewSequence(),
		subs:   make(map[int]Subscriber),
	}
}

// Connect subscribes the client to room. The first call starts the
// connection manager; later calls with a different room perform a full
// context switch: the held sequence is discarded, pagination state resets,
// and the new subscription is sent on the existing connection.
//
// The ctx of the first call owns the connection manager's lifetime; ctx
// arguments on later calls are not retained. Cancel the first ctx or call
// Close to tear the connection down.
func (c *Client) Connect(ctx context.Context, room domain.Room) error {
	if room.VideoID == "" || room.Lang == "" {
		return fmt.Errorf("incomplete room %q", room.Key())
	}

	c.mu.Lock()
	if c.running && room == c.room {
		c.mu.Unlock()
		return nil
	}

	c.beginRoomLocked(room)

	if !c.running {
		c.running = true
		runCtx, cancel := context.WithCancel(ctx)
		c.cancel = cancel
		c.mu.Unlock()
		go c.run(runCtx)
		c.publish()
		return nil
	}

	conn := c.conn
	c.mu.Unlock()
	c.publish()

	if conn != nil {
		return c.writeJSON(conn, domain.SubscribeMessage{
			Type:    domain.MsgTypeSubscribe,
			VideoID: room.VideoID,
			Lang:    room.Lang,
		})
	}
	return nil
}

// beginRoomLocked resets all per-room state. Caller holds c.mu.
//
// The old sequence is abandoned, not reset in place: the read loop captures
// c.seq together with the room key under c.mu, so an entry or page that
// passed the room check just before the switch mutates the discarded
// sequence and is never observable in the new room.
func (c *Client) beginRoomLocked(room domain.Room) {
	c.room = room
	c.seq = newSequenceAt(c.seq.Revision() + 1)
	c.cursor = ""
	c.exhausted = false
	c.loading = false
	c.logger.Info().Str(log.FieldRoom, room.Key()).Msg("room context switch")
}

// LoadMessages requests up to partial older entries. Safe to call
// repeatedly (e.g. from a scroll-top trigger): overlapping responses are
// deduplicated and a request already in flight suppresses new ones.
func (c *Client) LoadMessages(partial int) {
	if partial <= 0 {
		return
	}

	c.mu.Lock()
	if c.room.IsZero() || c.loading || c.exhausted {
		c.mu.Unlock()
		return
	}
	c.loading = true
	req := domain.LoadHistoryMessage{
		Type:    domain.MsgTypeLoadHistory,
		Room:    c.room.Key(),
		Before:  c.cursor,
		Partial: partial,
	}
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		// Not connected yet; the request is retried by the next call
		// once the connection is up.
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
		return
	}

	if err := c.writeJSON(conn, req); err != nil {
		c.logger.Warn().Err(err).Msg("load_history send failed")
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}
}

// Entries returns a snapshot of the current sequence and its revision.
func (c *Client) Entries() ([]domain.TranscriptEntry, uint64) {
	c.mu.Lock()
	seq := c.seq
	c.mu.Unlock()
	return seq.Snapshot()
}

// OnUpdate registers fn to run after every sequence change. The returned
// func cancels the registration.
func (c *Client) OnUpdate(fn Subscriber) func() {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

// Close tears down the connection manager.
func (c *Client) Close() {
	c.mu.Lock()
	cancel := c.cancel
	conn := c.conn
	c.running = false
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close()
	}
}

// run dials and reads until ctx is cancelled, reconnecting with capped
// exponential backoff. History already loaded survives reconnects; the
// sequence's key dedupe absorbs anything redelivered after resume.
func (c *Client) run(ctx context.Context) {
	backoff := c.opts.ReconnectMin

	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := c.opts.Dialer.DialContext(ctx, c.opts.URL, nil)
		if err != nil {
			c.logger.Warn().Err(err).Dur("retry_in", backoff).Msg("relay dial failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff = minDuration(backoff*2, c.opts.ReconnectMax)
			continue
		}
		backoff = c.opts.ReconnectMin

		c.mu.Lock()
		c.conn = conn
		// A request lost with the old connection would wedge pagination.
		c.loading = false
		room := c.room
		c.mu.Unlock()

		if !room.IsZero() {
			if err := c.writeJSON(conn, domain.SubscribeMessage{
				Type:    domain.MsgTypeSubscribe,
				VideoID: room.VideoID,
				Lang:    room.Lang,
			}); err != nil {
				c.logger.Warn().Err(err).Msg("resubscribe failed")
			}
		}

		pingDone := make(chan struct{})
		go c.pingLoop(conn, pingDone)

		c.readLoop(conn)
		close(pingDone)

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.Close()
	}
}

func (c *Client) readLoop(conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn().Err(err).Msg("relay read error")
			}
			return
		}
		c.handleEnvelope(data)
	}
}

func (c *Client) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// handleEnvelope applies one server message to the client state. Messages
// keyed to a room other than the current one are dropped silently; that is
// how a page requested before a room switch is prevented from leaking into
// the new room's sequence.
func (c *Client) handleEnvelope(data []byte) {
	var base domain.BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		c.logger.Warn().Err(err).Msg("malformed relay message")
		return
	}

	switch base.Type {
	case domain.MsgTypeEntry:
		var msg domain.EntryMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn().Err(err).Msg("malformed entry message")
			return
		}
		c.mu.Lock()
		current := c.room.Key()
		seq := c.seq
		c.mu.Unlock()
		if msg.Room != current {
			return
		}
		if seq.Append(msg.Entry) {
			c.publish()
		}

	case domain.MsgTypeHistoryPage:
		var msg domain.HistoryPageMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn().Err(err).Msg("malformed history page")
			return
		}
		c.mu.Lock()
		if msg.Room != c.room.Key() {
			// Stale page from before a room switch.
			c.mu.Unlock()
			c.logger.Debug().Str(log.FieldRoom, msg.Room).Msg("dropping stale history page")
			return
		}
		c.loading = false
		if msg.NextCursor != "" {
			c.cursor = msg.NextCursor
		}
		if !msg.HasMore {
			c.exhausted = true
		}
		seq := c.seq
		c.mu.Unlock()

		if seq.Merge(msg.Entries) > 0 {
			c.publish()
		}

	case domain.MsgTypeSubscribed:
		var msg domain.SubscribedMessage
		if err := json.Unmarshal(data, &msg); err == nil {
			c.logger.Info().Str(log.FieldRoom, msg.Room).Msg("subscribed")
		}

	case domain.MsgTypeError:
		var msg domain.ErrorMessage
		if err := json.Unmarshal(data, &msg); err == nil {
			c.logger.Warn().Str("code", msg.Code).Str("message", msg.Message).Msg("relay error")
		}

	case domain.MsgTypePong:
		// Keepalive acknowledgement.

	default:
		c.logger.Debug().Str("type", base.Type).Msg("ignoring unknown message type")
	}
}

func (c *Client) writeJSON(conn *websocket.Conn, v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
	return conn.WriteJSON(v)
}

func (c *Client) publish() {
	entries, revision := c.Entries()

	c.subMu.Lock()
	fns := make([]Subscriber, 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(entries, revision)
	}
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
