// Copyright (C) 2026 Nydas AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nydas-ai/nydasbot/services/backend/engine"
	"github.com/nydas-ai/nydasbot/services/backend/handlers"
	"github.com/nydas-ai/nydasbot/services/backend/observability"
)

func SetupRoutes(router *gin.Engine, eng *engine.ConversationEngine, metrics *observability.ChatMetrics) {
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	{
		v1.GET("/chat/ws", handlers.HandleChatWebSocket(eng, metrics))
		// Session administration routes
		sessions := v1.Group("/sessions")
		{
			sessions.GET("", handlers.ListSessions(eng.Store()))
			sessions.GET("/:sessionId/history", handlers.GetSessionHistory(eng.Store()))
			sessions.DELETE("/:sessionId", handlers.DeleteSession(eng.Store()))
		}
	}
}
