// Copyright (C) 2026 Nydas AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nydas-ai/nydasbot/services/backend/datatypes"
	"github.com/nydas-ai/nydasbot/services/backend/engine"
	"github.com/nydas-ai/nydasbot/services/backend/observability"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,
}

func sendJSON(ws *websocket.Conn, v interface{}) error {
	err := ws.WriteJSON(v)
	if err != nil {
		slog.Warn("Failed to write WebSocket JSON", "error", err)
	}
	return err
}

// HandleChatWebSocket upgrades the connection and serves chat turns.
//
// Messages on one connection are processed sequentially in arrival
// order. A failed turn answers with the error variant and the loop
// continues; only transport-level failures close the connection. The
// session id in each message is the conversation key, so one session
// may span connections and one connection may address many sessions.
func HandleChatWebSocket(eng *engine.ConversationEngine, metrics *observability.ChatMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("failed to upgrade the websocket", "error", err)
			return
		}
		defer ws.Close()
		if metrics != nil {
			metrics.ActiveConnections.Inc()
			defer metrics.ActiveConnections.Dec()
		}
		slog.Info("Websocket client connected")

		// Offer the client a fresh session id. Clients that want their
		// own conversation key simply send a different session_id.
		fallbackID := uuid.New().String()
		if err := sendJSON(ws, map[string]interface{}{
			"action":    "session_created",
			"sessionId": fallbackID,
		}); err != nil {
			return
		}

		for {
			_, raw, err := ws.ReadMessage()
			if err != nil {
				slog.Info("Websocket client disconnected", "error", err.Error())
				return
			}

			var req datatypes.ChatRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				slog.Warn("Failed to decode chat request", "error", err)
				if sendJSON(ws, datatypes.ErrorResponse(err)) != nil {
					return
				}
				continue
			}
			if err := req.Validate(); err != nil {
				slog.Warn("Invalid chat request", "error", err)
				if sendJSON(ws, datatypes.ErrorResponse(err)) != nil {
					return
				}
				continue
			}
			sessionID := req.EnsureSessionId()

			answer, err := eng.Answer(c.Request.Context(), sessionID, req.Input)
			var resp datatypes.ChatResponse
			if err != nil {
				resp = datatypes.ErrorResponse(err)
			} else {
				resp = datatypes.AnswerResponse(answer)
			}
			if sendJSON(ws, resp) != nil {
				return
			}
		}
	}
}
