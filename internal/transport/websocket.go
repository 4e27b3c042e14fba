package transport

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/deltafeed/deltafeed/internal/dispatch"
	"github.com/deltafeed/deltafeed/internal/filter"
	"github.com/deltafeed/deltafeed/internal/instrument"
	"github.com/deltafeed/deltafeed/internal/registry"
)

const (
	sendBufferSize = 64
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub owns every connected session and implements dispatch.Transport via
// SendUpdate, mirroring the teacher's Hub/Client/readPump/writePump split.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*wsSession

	store     *instrument.Store
	registry  *registry.Registry
	evaluator *filter.Evaluator
	logger    *zap.Logger
}

// NewHub constructs a Hub wired to the shared store, registry and filter
// evaluator.
func NewHub(store *instrument.Store, reg *registry.Registry, evaluator *filter.Evaluator, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		sessions:  make(map[string]*wsSession),
		store:     store,
		registry:  reg,
		evaluator: evaluator,
		logger:    logger,
	}
}

type wsSession struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// ServeWS upgrades the HTTP connection, assigns a session id and spawns a
// read pump and write pump goroutine for it.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	id := uuid.NewString()
	sess := &wsSession{id: id, conn: conn, send: make(chan []byte, sendBufferSize), hub: h}

	h.mu.Lock()
	h.sessions[id] = sess
	h.mu.Unlock()

	if err := h.registry.Register(id); err != nil {
		h.logger.Warn("session registration failed", zap.String("sessionId", id), zap.Error(err))
	}

	go sess.writePump()
	go sess.readPump()
}

// SendUpdate implements dispatch.Transport. A full send channel is the
// transport-full condition; it is surfaced as an ordinary false return,
// never an error.
func (h *Hub) SendUpdate(sessionID string, update dispatch.Update) bool {
	h.mu.RLock()
	sess, ok := h.sessions[sessionID]
	h.mu.RUnlock()
	if !ok {
		return false
	}

	payload, err := json.Marshal(instrumentUpdateMsg{
		Type:         "instrument-update",
		InstrumentID: update.InstrumentID,
		Timestamp:    update.Timestamp.UnixMilli(),
		Fields:       update.Fields,
	})
	if err != nil {
		h.logger.Warn("instrument-update marshal failed", zap.Error(err))
		return false
	}

	select {
	case sess.send <- payload:
		return true
	default:
		return false
	}
}

func (h *Hub) removeSession(id string) {
	h.mu.Lock()
	delete(h.sessions, id)
	h.mu.Unlock()
	h.registry.Unregister(id)
}

func (s *wsSession) readPump() {
	defer func() {
		s.hub.removeSession(s.id)
		s.conn.Close()
		close(s.send)
	}()

	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		s.handleFrame(raw)
	}
}

func (s *wsSession) handleFrame(raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.writeJSON(ack{Type: "ack", Success: false, Message: "malformed frame"})
		return
	}

	switch env.Action {
	case "subscribe":
		s.handleSubscribe(raw)
	case "unsubscribe":
		s.handleUnsubscribe(raw)
	default:
		s.writeJSON(ack{Type: "ack", Success: false, Message: "unknown action " + env.Action})
	}
}

func (s *wsSession) handleSubscribe(raw []byte) {
	var req subscribeRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.writeJSON(ack{Type: "ack", Success: false, Message: "malformed subscribe request"})
		return
	}
	if len(req.InstrumentIDs) == 0 {
		s.writeJSON(ack{Type: "ack", Success: false, Message: "instrumentIds must be non-empty"})
		return
	}

	subID := req.SubscriptionID
	if subID == "" {
		subID = uuid.NewString()
	}

	sub, err := s.hub.registry.AddSubscription(s.id, subID, req.InstrumentIDs, req.Filter, req.UpdateFrequency)
	if err != nil {
		s.writeJSON(ack{Type: "ack", Success: false, Message: err.Error()})
		return
	}

	s.writeJSON(ack{Type: "ack", Success: true, SubscriptionID: subID, Message: "subscribed"})
	s.sendInitialData(sub)
}

func (s *wsSession) sendInitialData(sub *registry.Subscription) {
	evaluator := s.hub.evaluator
	instruments := make([]instrument.FieldMap, 0, len(sub.InstrumentIDs))
	for _, id := range sub.InstrumentIDs {
		in, err := s.hub.store.Lookup(id)
		if err != nil {
			continue
		}
		fields := in.FieldMap()
		if evaluator.Eval(sub.Filter, fields) {
			instruments = append(instruments, fields)
		}
	}
	s.writeJSON(initialDataMsg{Type: "initial-data", Instruments: instruments})
}

func (s *wsSession) handleUnsubscribe(raw []byte) {
	var req unsubscribeRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.writeJSON(ack{Type: "ack", Success: false, Message: "malformed unsubscribe request"})
		return
	}
	err := s.hub.registry.RemoveSubscription(s.id, req.SubscriptionID)
	if err != nil {
		s.writeJSON(ack{Type: "ack", Success: false, Message: err.Error()})
		return
	}
	s.writeJSON(ack{Type: "ack", Success: true, SubscriptionID: req.SubscriptionID, Message: "unsubscribed"})
}

func (s *wsSession) writeJSON(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		s.hub.logger.Warn("outbound marshal failed", zap.Error(err))
		return
	}
	select {
	case s.send <- payload:
	default:
		s.hub.logger.Debug("session send queue full, dropping control message", zap.String("sessionId", s.id))
	}
}

func (s *wsSession) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
