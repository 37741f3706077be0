package handlers

import (
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/chronograph-app/chronograph/internal/services"
	"github.com/chronograph-app/chronograph/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var (
	calendarClients   = make(map[string]map[*websocket.Conn]bool)
	calendarClientsMu sync.RWMutex
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// BroadcastCalendarRefresh tells every client watching the calendar to
// refetch. Mutation handlers call this after commit.
func BroadcastCalendarRefresh(calendarID string) {
	calendarClientsMu.RLock()
	clients, exists := calendarClients[calendarID]
	if !exists || len(clients) == 0 {
		calendarClientsMu.RUnlock()
		return
	}

	// Copy so the lock is not held while writing to sockets
	clientsCopy := make([]*websocket.Conn, 0, len(clients))
	for conn := range clients {
		clientsCopy = append(clientsCopy, conn)
	}
	calendarClientsMu.RUnlock()

	for _, conn := range clientsCopy {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			log.Printf("Failed to set write deadline for broadcast: %v", err)
			continue
		}

		err := conn.WriteJSON(map[string]string{
			"type":        "refresh",
			"message":     "Calendar data updated",
			"calendar_id": calendarID,
		})

		if err != nil {
			log.Printf("Failed to broadcast refresh to client: %v", err)
			calendarClientsMu.Lock()
			if clients, exists := calendarClients[calendarID]; exists {
				delete(clients, conn)
				if len(clients) == 0 {
					delete(calendarClients, calendarID)
				}
			}
			calendarClientsMu.Unlock()
			conn.Close()
		}
	}
}

type WSHandler struct {
	calendars      *services.CalendarService
	allowedOrigins []string
}

func NewWSHandler(calendars *services.CalendarService, allowedOrigins []string) *WSHandler {
	return &WSHandler{calendars: calendars, allowedOrigins: allowedOrigins}
}

func (h *WSHandler) WebSocket(ctx *gin.Context) {
	calendarID, err := utils.GetCalendarID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	// Broadcasts mirror every mutation of the calendar, so subscribing is a
	// read and goes through the same visibility gate as any other read.
	if _, err := h.calendars.FindByID(calendarID, userID); err != nil {
		respondError(ctx, err)
		return
	}

	key := strconv.FormatUint(uint64(calendarID), 10)

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			for _, allowed := range h.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("Failed to set initial read deadline: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("Failed to set read deadline in pong handler: %v", err)
		}
		return nil
	})

	calendarClientsMu.Lock()
	if calendarClients[key] == nil {
		calendarClients[key] = make(map[*websocket.Conn]bool)
	}
	calendarClients[key][conn] = true
	calendarClientsMu.Unlock()

	defer func() {
		calendarClientsMu.Lock()

		if clients, exists := calendarClients[key]; exists {
			delete(clients, conn)

			if len(clients) == 0 {
				delete(calendarClients, key)
			}
		}

		calendarClientsMu.Unlock()
		conn.Close()

		log.Printf("WebSocket connection closed for calendar %s", key)
	}()

	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		log.Printf("Failed to set write deadline for welcome message: %v", err)
		return
	}

	err = conn.WriteJSON(map[string]string{
		"type":        "connected",
		"message":     "WebSocket connection established",
		"calendar_id": key,
	})

	if err != nil {
		log.Printf("Failed to send welcome message: %v", err)
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	go func() {
		for range ticker.C {
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Printf("Failed to set write deadline for calendar %s: %v", key, err)
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("Ping failed for calendar %s: %v", key, err)
				return
			}
		}
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("Failed to set read deadline for calendar %s: %v", key, err)
			break
		}

		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error for calendar %s: %v", key, err)
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			log.Printf("Received message from client for calendar %s: %s", key, string(message))
		case websocket.PongMessage:
			log.Printf("Received pong for calendar %s", key)
		}
	}
}
