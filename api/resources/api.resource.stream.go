package resources

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	nuts "github.com/vaudience/go-nuts"

	"github.com/itsatony/trackhub/internal/config"
	"github.com/itsatony/trackhub/internal/errors"
	"github.com/itsatony/trackhub/internal/models"
	"github.com/itsatony/trackhub/internal/stream"
)

// StreamHandlers serves the realtime websocket channel.
type StreamHandlers struct {
	hub          *stream.Hub
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
}

func NewStreamHandlers(hub *stream.Hub, cfg config.StreamConfig) *StreamHandlers {
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &StreamHandlers{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Matches the API's permissive CORS policy.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		writeTimeout: writeTimeout,
	}
}

// @Summary Location update stream
// @Description Push-only websocket; every accepted sample is sent as a location_update message
// @Tags stream
// @Router /ws/locations [get]
func (h *StreamHandlers) HandleLocationStream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		nuts.L.Warnf("[Stream] Upgrade failed: %v", err)
		return
	}

	obs := newWSObserver(conn, h.writeTimeout)
	h.hub.Register(obs)

	// Clients never have to send anything; the read loop only exists
	// to notice the close and deregister promptly.
	go func() {
		defer func() {
			h.hub.Unregister(obs.ID())
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// @Summary Inject a live update
// @Description External producers can broadcast a location update to connected observers without writing to the store
// @Tags stream
// @Accept json
// @Produce json
// @Param update body models.QueuedEvent true "Location update"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.APIError
// @Router /locations/broadcast [post]
func (h *StreamHandlers) PublishUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var event models.QueuedEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}
	if err := event.Validate(); err != nil {
		respondWithError(w, errors.NewValidationError(err.Error(), nil).WithRequestID(requestID))
		return
	}

	h.hub.Broadcast(models.NewLocationUpdate(event.ToSample()))
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "broadcasted"})
}

// wsObserver adapts one websocket connection to the hub's Observer
// interface. Writes are serialized and bounded by a deadline so one
// stalled client cannot block a broadcast indefinitely.
type wsObserver struct {
	id           string
	conn         *websocket.Conn
	mu           sync.Mutex
	writeTimeout time.Duration
}

func newWSObserver(conn *websocket.Conn, writeTimeout time.Duration) *wsObserver {
	return &wsObserver{
		id:           nuts.NID("obs", 12),
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

func (o *wsObserver) ID() string {
	return o.id
}

func (o *wsObserver) Send(update models.LocationUpdate) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.conn.SetWriteDeadline(time.Now().Add(o.writeTimeout)); err != nil {
		return err
	}
	return o.conn.WriteJSON(update)
}

func (o *wsObserver) Close() error {
	return o.conn.Close()
}
