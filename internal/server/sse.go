package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	replayDepth       = 1000
	keepaliveInterval = 15 * time.Second
	streamBuffer      = 64
	reconnectDelay    = 3 * time.Second
)

// streamEvent is one published event as seen by stream clients.
type streamEvent struct {
	Seq   uint64
	Topic string
	Data  []byte
}

// replayLog keeps the most recent events so a reconnecting client can catch
// up from its Last-Event-ID.
type replayLog struct {
	buf   []streamEvent
	start int // index of the oldest entry once buf is full
}

func (l *replayLog) add(e streamEvent) {
	if len(l.buf) < replayDepth {
		l.buf = append(l.buf, e)
		return
	}
	l.buf[l.start] = e
	l.start = (l.start + 1) % replayDepth
}

// after returns the retained events with Seq > seq, oldest first.
func (l *replayLog) after(seq uint64, filter topicFilter) []streamEvent {
	var out []streamEvent
	n := len(l.buf)
	for i := range n {
		e := l.buf[(l.start+i)%n]
		if e.Seq > seq && filter.match(e.Topic) {
			out = append(out, e)
		}
	}
	return out
}

// topicFilter is a list of NATS-style patterns. An empty filter matches
// every topic.
type topicFilter []string

func parseTopicFilter(q string) topicFilter {
	var f topicFilter
	for _, p := range strings.Split(q, ",") {
		if p = strings.TrimSpace(p); p != "" {
			f = append(f, p)
		}
	}
	return f
}

func (f topicFilter) match(topic string) bool {
	if len(f) == 0 {
		return true
	}
	for _, p := range f {
		if matchTopicPattern(p, topic) {
			return true
		}
	}
	return false
}

// matchTopicPattern reports whether a dot-separated topic matches pattern.
// "*" matches exactly one segment and a trailing ">" matches one or more.
func matchTopicPattern(pattern, topic string) bool {
	for {
		p, prest, pmore := strings.Cut(pattern, ".")
		if p == ">" {
			return !pmore && topic != ""
		}
		if topic == "" {
			return false
		}
		t, trest, tmore := strings.Cut(topic, ".")
		if p != "*" && p != t {
			return false
		}
		if !pmore || !tmore {
			return pmore == tmore
		}
		pattern, topic = prest, trest
	}
}

// stream is one connected event-stream client.
type stream struct {
	filter topicFilter
	ch     chan streamEvent
}

// Hub fans board events out to event-stream clients. It is an
// events.Publisher, so a session can publish to it directly.
type Hub struct {
	mu      sync.Mutex
	seq     uint64
	log     replayLog
	streams map[*stream]struct{}
	closed  bool
}

// NewHub returns a hub with no clients.
func NewHub() *Hub {
	return &Hub{streams: make(map[*stream]struct{})}
}

// Publish encodes event as JSON and delivers it under topic.
func (h *Hub) Publish(_ context.Context, topic string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event for %s: %w", topic, err)
	}
	h.deliver(topic, data)
	return nil
}

// Close disconnects every client. Later events are still recorded for
// replay but reach no one.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.streams {
		close(s.ch)
		delete(h.streams, s)
	}
	h.closed = true
	return nil
}

func (h *Hub) deliver(topic string, data []byte) streamEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	e := streamEvent{Seq: h.seq, Topic: topic, Data: data}
	h.log.add(e)
	for s := range h.streams {
		if !s.filter.match(topic) {
			continue
		}
		select {
		case s.ch <- e:
		default:
			// Client is not keeping up; it can recover via Last-Event-ID.
		}
	}
	return e
}

// attach registers a client and returns, under the same lock, the retained
// events it missed since seq. A zero seq replays nothing. On a closed hub the
// returned stream's channel is already closed.
func (h *Hub) attach(filter topicFilter, seq uint64) (*stream, []streamEvent) {
	s := &stream{filter: filter, ch: make(chan streamEvent, streamBuffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	var missed []streamEvent
	if seq > 0 {
		missed = h.log.after(seq, filter)
	}
	if h.closed {
		close(s.ch)
		return s, missed
	}
	h.streams[s] = struct{}{}
	return s, missed
}

func (h *Hub) detach(s *stream) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.streams[s]; ok {
		delete(h.streams, s)
		close(s.ch)
	}
}

// clients reports how many streams are attached.
func (h *Hub) clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.streams)
}

// lastEventID reads the resume point from the Last-Event-ID header, falling
// back to the since query parameter for clients that cannot set headers.
func lastEventID(r *http.Request) uint64 {
	v := r.Header.Get("Last-Event-ID")
	if v == "" {
		v = r.URL.Query().Get("since")
	}
	seq, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0
	}
	return seq
}

// handleEventStream handles GET /v1/events/stream.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	st, missed := s.hub.attach(parseTopicFilter(r.URL.Query().Get("topics")), lastEventID(r))
	defer s.hub.detach(st)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "retry: %d\n\n", reconnectDelay.Milliseconds())
	for _, e := range missed {
		writeStreamEvent(w, e)
	}
	flusher.Flush()

	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case e, ok := <-st.ch:
			if !ok {
				return
			}
			writeStreamEvent(w, e)
			flusher.Flush()
		case <-ticker.C:
			io.WriteString(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

func writeStreamEvent(w io.Writer, e streamEvent) {
	fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", e.Seq, e.Topic, e.Data)
}
