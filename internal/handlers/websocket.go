package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/itinera/internal/common"
	"github.com/ternarybob/itinera/internal/interfaces"
	"github.com/ternarybob/itinera/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WSMessage is the envelope for every message in both directions.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// actionMessage is what a UI client sends back.
type actionMessage struct {
	Action string `json:"action"`
	Text   string `json:"text,omitempty"`
}

// WebSocketHandler bridges the view interfaces to connected UI clients.
// Every view operation becomes a typed broadcast; inbound action messages
// are dispatched to the engine. It implements ChatView, PlannerView,
// BrowserView and MapView.
type WebSocketHandler struct {
	logger      arbor.ILogger
	clients     map[*websocket.Conn]bool
	clientMutex map[*websocket.Conn]*sync.Mutex
	mu          sync.RWMutex

	actions interfaces.SessionActions

	// serverInstanceID changes on every startup so clients can detect a
	// restart and drop stale local state.
	serverInstanceID string
}

// NewWebSocketHandler creates the UI bridge. The engine is attached later
// via SetActions because the engine itself is constructed over this
// handler's view surfaces.
func NewWebSocketHandler(logger arbor.ILogger) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:           logger,
		clients:          make(map[*websocket.Conn]bool),
		clientMutex:      make(map[*websocket.Conn]*sync.Mutex),
		serverInstanceID: uuid.New().String(),
	}
	logger.Info().Str("server_instance_id", h.serverInstanceID).Msg("WebSocket handler initialized")
	return h
}

// SetActions attaches the engine's action surface.
func (h *WebSocketHandler) SetActions(actions interfaces.SessionActions) {
	h.actions = actions
}

// HandleWebSocket upgrades the connection and pumps inbound actions until
// the client goes away.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.clientMutex[conn] = &sync.Mutex{}
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Msgf("WebSocket client connected (total: %d)", clientCount)

	h.sendToClient(conn, WSMessage{Type: "hello", Payload: map[string]string{
		"server_instance_id": h.serverInstanceID,
	}})

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		delete(h.clientMutex, conn)
		remaining := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.Debug().Msgf("WebSocket client disconnected (remaining: %d)", remaining)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			break
		}
		h.dispatchAction(data)
	}
}

// dispatchAction maps one inbound message to an engine operation.
func (h *WebSocketHandler) dispatchAction(data []byte) {
	if h.actions == nil {
		h.logger.Warn().Msg("Dropping UI action, no engine attached")
		return
	}

	var msg actionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.logger.Warn().Err(err).Msg("Dropping malformed UI action")
		return
	}

	switch msg.Action {
	case "submit":
		h.actions.SubmitMessage(msg.Text)
	case "next":
		h.actions.NextAttraction()
	case "previous":
		h.actions.PreviousAttraction()
	case "toggle":
		h.actions.ToggleCurrentAttraction()
	case "confirm":
		h.actions.ConfirmSelections()
	case "reset":
		h.actions.Reset()
	default:
		h.logger.Warn().Str("action", msg.Action).Msg("Unknown UI action")
	}
}

// broadcast sends one message to every connected client.
func (h *WebSocketHandler) broadcast(msgType string, payload interface{}) {
	data, err := json.Marshal(WSMessage{Type: msgType, Payload: payload})
	if err != nil {
		h.logger.Error().Err(err).Str("type", msgType).Msg("Failed to marshal broadcast message")
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	mutexes := make([]*sync.Mutex, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
		mutexes = append(mutexes, h.clientMutex[conn])
	}
	h.mu.RUnlock()

	for i, conn := range conns {
		mutex := mutexes[i]
		mutex.Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		mutex.Unlock()

		if err != nil {
			h.logger.Warn().Err(err).Str("type", msgType).Msg("Failed to send message to client")
		}
	}
}

func (h *WebSocketHandler) sendToClient(conn *websocket.Conn, msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal client message")
		return
	}

	h.mu.RLock()
	mutex := h.clientMutex[conn]
	h.mu.RUnlock()
	if mutex == nil {
		return
	}

	mutex.Lock()
	defer mutex.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to send message to client")
	}
}

// ChatView

func (h *WebSocketHandler) AppendUserMessage(text string) {
	h.broadcast("chat_user", map[string]string{"text": text})
}

func (h *WebSocketHandler) BeginAssistantMessage() string {
	id := common.NewMessageID()
	h.broadcast("chat_assistant_begin", map[string]string{"id": id})
	return id
}

func (h *WebSocketHandler) UpdateAssistantMessage(id, html string) {
	h.broadcast("chat_assistant_update", map[string]string{"id": id, "html": html})
}

func (h *WebSocketHandler) AppendAssistantMessage(html string) {
	h.broadcast("chat_assistant", map[string]string{"html": html})
}

func (h *WebSocketHandler) Clear() {
	h.broadcast("chat_clear", nil)
}

// PlannerView

func (h *WebSocketHandler) HighlightStep(step string) {
	h.broadcast("step_highlight", map[string]string{"step": step})
}

func (h *WebSocketHandler) ShowMissingFields(fields []string) {
	h.broadcast("missing_fields", map[string]interface{}{"fields": fields})
}

func (h *WebSocketHandler) ClearMissingFields() {
	h.broadcast("missing_fields", map[string]interface{}{"fields": []string{}})
}

func (h *WebSocketHandler) ShowItinerary(days []models.ItineraryDay) {
	h.broadcast("itinerary", map[string]interface{}{"days": days})
}

func (h *WebSocketHandler) ShowBudget(budget *models.Budget) {
	h.broadcast("budget", formatBudget(budget))
}

func (h *WebSocketHandler) ShowConfirmation(html string) {
	h.broadcast("confirmation", map[string]string{"html": html})
}

func (h *WebSocketHandler) SetBusy(busy bool) {
	h.broadcast("busy", map[string]bool{"busy": busy})
}

// BrowserView

func (h *WebSocketHandler) ShowAttraction(page models.AttractionPage) {
	h.broadcast("attraction_page", page)
}

func (h *WebSocketHandler) ShowEmpty() {
	h.broadcast("attraction_empty", nil)
}

func (h *WebSocketHandler) SetConfirmVisible(visible bool) {
	h.broadcast("confirm_visible", map[string]bool{"visible": visible})
}

func (h *WebSocketHandler) SetNearbyInfo(attractionID, html string) {
	h.broadcast("nearby_info", map[string]string{"attraction_id": attractionID, "html": html})
}

func (h *WebSocketHandler) SetNearbyError(attractionID, message string) {
	h.broadcast("nearby_error", map[string]string{"attraction_id": attractionID, "message": message})
}

func (h *WebSocketHandler) ShowSelected(selected []models.Attraction) {
	h.broadcast("selected_list", map[string]interface{}{"attractions": selected})
}

// MapView

func (h *WebSocketHandler) AddMarker(m models.Marker) {
	h.broadcast("marker_add", m)
}

func (h *WebSocketHandler) RemoveMarker(attractionID string) {
	h.broadcast("marker_remove", map[string]string{"attraction_id": attractionID})
}

func (h *WebSocketHandler) PlotPoints(points []models.MapPoint) {
	h.broadcast("map_plot", map[string]interface{}{"points": points})
}

func (h *WebSocketHandler) ClearRoute() {
	h.broadcast("route_clear", nil)
}

func (h *WebSocketHandler) DrawRoutePath(path []models.Location) {
	h.broadcast("route_path", map[string]interface{}{"path": path})
}

func (h *WebSocketHandler) AddRouteStop(m models.RouteMarker) {
	h.broadcast("route_stop", m)
}

func (h *WebSocketHandler) FitBounds(b models.Bounds) {
	h.broadcast("map_fit", b)
}

func (h *WebSocketHandler) SetDefaultView() {
	h.broadcast("map_default_view", nil)
}
