package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"tenure.app/internal/identity"
	"tenure.app/internal/obs"
	"tenure.app/internal/property"
	"tenure.app/internal/tenancy"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

// Gateway upgrades authenticated sessions to websocket connections. Room
// membership is checked against the same building and resident rules the
// REST layer enforces.
type Gateway struct {
	hub        *Hub
	sessions   *identity.SessionResolver
	stores     property.Stores
	cookieName string
	upgrader   websocket.Upgrader
}

type GatewayOptions struct {
	Hub        *Hub
	Sessions   *identity.SessionResolver
	Stores     property.Stores
	CookieName string
	Origins    []string
}

func NewGateway(opts GatewayOptions) *Gateway {
	g := &Gateway{
		hub:        opts.Hub,
		sessions:   opts.Sessions,
		stores:     opts.Stores,
		cookieName: opts.CookieName,
	}
	if g.cookieName == "" {
		g.cookieName = "tenure_session"
	}
	allowed := make(map[string]bool, len(opts.Origins))
	for _, o := range opts.Origins {
		allowed[o] = true
	}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			return allowed[origin] || strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")
		},
	}
	return g
}

// ServeHTTP authenticates the session from the cookie, validates the
// requested rooms, then upgrades. Authentication happens before the
// upgrade so a bad session costs a plain 401, not a socket.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var token string
	if c, err := r.Cookie(g.cookieName); err == nil {
		token = c.Value
	}
	actor, err := g.sessions.Resolve(r.Context(), token)
	if err != nil {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	buildingID := strings.TrimSpace(r.URL.Query().Get("buildingId"))
	if buildingID == "" {
		buildingID = actor.HomeBuilding()
	}
	if buildingID == "" {
		http.Error(w, "buildingId is required", http.StatusBadRequest)
		return
	}
	if !g.buildingAllowed(actor, buildingID) {
		http.Error(w, "building access denied", http.StatusForbidden)
		return
	}

	rooms := []string{UserRoom(actor.ID), CommunityRoom(buildingID)}
	for _, threadID := range splitList(r.URL.Query().Get("threads")) {
		thread, terr := g.findThread(r.Context(), actor, buildingID, threadID)
		if terr != nil {
			http.Error(w, "thread access denied", http.StatusForbidden)
			return
		}
		rooms = append(rooms, ThreadRoom(thread.ID))
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	g.serve(r.Context(), conn, actor, buildingID, rooms)
}

func (g *Gateway) buildingAllowed(actor *identity.Identity, buildingID string) bool {
	switch actor.Role {
	case identity.RoleAdmin:
		return true
	case identity.RoleManagement:
		return actor.AssignedTo(buildingID)
	case identity.RoleResident:
		return actor.HomeBuilding() == buildingID
	default:
		return false
	}
}

// findThread loads the thread under the building filter, then applies the
// resident rule: residents may only touch threads carrying their resident
// id or their unit.
func (g *Gateway) findThread(ctx context.Context, actor *identity.Identity, buildingID, threadID string) (*property.Thread, error) {
	filter := tenancy.NewFilter(
		tenancy.Cond{Field: tenancy.FieldBuilding, Value: buildingID},
		tenancy.Cond{Field: "id", Value: threadID},
	)
	thread, err := g.stores.Threads.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if actor.Role == identity.RoleResident {
		if thread.ResidentID != actor.ID && (thread.UnitID == "" || thread.UnitID != actor.UnitID) {
			return nil, property.ErrNotFound
		}
	}
	return thread, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

type inbound struct {
	Type     string `json:"type"`
	ThreadID string `json:"thread_id,omitempty"`
	Body     string `json:"body"`
}

func (g *Gateway) serve(ctx context.Context, conn *websocket.Conn, actor *identity.Identity, buildingID string, rooms []string) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer conn.Close()

	events := g.hub.Subscribe(ctx, rooms...)

	go g.writeLoop(conn, events, cancel)

	conn.SetReadLimit(64 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		if err := g.dispatch(ctx, actor, buildingID, msg); err != nil {
			obs.Logger().Warn("ws message rejected",
				zap.String("type", msg.Type),
				zap.String("user_id", actor.ID),
				zap.Error(err))
		}
	}
}

func (g *Gateway) writeLoop(conn *websocket.Conn, events <-chan Event, cancel context.CancelFunc) {
	defer cancel()
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case evt, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch persists an inbound chat message, then broadcasts it. Persistence
// comes first: a message that fails to store is never fanned out.
func (g *Gateway) dispatch(ctx context.Context, actor *identity.Identity, buildingID string, msg inbound) error {
	body := strings.TrimSpace(msg.Body)
	if body == "" {
		return property.ErrInvalidInput
	}
	switch msg.Type {
	case "community:message":
		senderName := actor.Name
		if senderName == "" {
			senderName = actor.Email
		}
		stored := &property.CommunityMessage{
			BuildingID: buildingID,
			SenderID:   actor.ID,
			SenderName: senderName,
			Body:       body,
		}
		if err := g.stores.CommunityMessages.Create(ctx, stored); err != nil {
			return err
		}
		g.hub.Publish(Event{
			Room: CommunityRoom(buildingID),
			Type: "community:message",
			Data: stored,
		})
		return nil
	case "thread:message":
		thread, err := g.findThread(ctx, actor, buildingID, msg.ThreadID)
		if err != nil {
			return err
		}
		stored := &property.Message{
			BuildingID: thread.BuildingID,
			ThreadID:   thread.ID,
			SenderID:   actor.ID,
			Body:       body,
		}
		if err := g.stores.Messages.Create(ctx, stored); err != nil {
			return err
		}
		now := time.Now().UTC()
		thread.LastMessageAt = &now
		threadFilter := tenancy.NewFilter(tenancy.Cond{Field: tenancy.FieldBuilding, Value: thread.BuildingID})
		if err := g.stores.Threads.Update(ctx, threadFilter, thread); err != nil {
			return err
		}
		g.hub.Publish(Event{
			Room: ThreadRoom(thread.ID),
			Type: "thread:message",
			Data: stored,
		})
		return nil
	default:
		return property.ErrInvalidInput
	}
}
