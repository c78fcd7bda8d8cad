package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"watch_what/internal/api/handlers"
	"watch_what/internal/middleware"
	"watch_what/internal/service"
)

func SetupRoutes(r *gin.Engine, services *service.Services) {
	// 初始化 handlers
	sessionHandler := handlers.NewSessionHandler(services.Session)
	wsHandler := handlers.NewWebSocketHandler(services.WebSocket, services.Session)

	r.Use(middleware.CORSMiddleware())

	// 處理 404 錯誤
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "找不到該路徑",
		})
	})

	// API 路由群組
	api := r.Group("/api")

	// 基本的健康檢查
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// 選片場次相關
	sessions := api.Group("/sessions")
	{
		// 基本操作
		sessions.POST("", sessionHandler.CreateSession)                // 建立場次
		sessions.GET("/:id", sessionHandler.GetSession)                // 獲取場次信息
		sessions.GET("/code/:code", sessionHandler.GetSessionByCode)   // 用分享代碼查詢
		sessions.GET("/:id/status", sessionHandler.GetSessionStatus)   // 進度摘要
		sessions.PUT("/:id/status", sessionHandler.UpdateStatus)       // 手動切換狀態

		// 場次參與
		sessions.POST("/:id/participants", sessionHandler.JoinSession)    // 加入場次
		sessions.GET("/:id/participants", sessionHandler.ListParticipants) // 參與者列表
		sessions.POST("/:id/movies", sessionHandler.SubmitMovie)          // 提交電影
		sessions.GET("/:id/movies", sessionHandler.ListMovies)            // 電影列表

		// 投票與回合
		sessions.POST("/:id/votes", sessionHandler.CastVote)                      // 投票
		sessions.GET("/:id/votes", sessionHandler.ListVotes)                      // 投票列表
		sessions.GET("/:id/votes/round/:round", sessionHandler.GetRoundResults)   // 回合結果預覽
		sessions.POST("/:id/next-round", sessionHandler.NextRound)                // 推進回合

		// WebSocket 連接點
		sessions.GET("/:id/ws", wsHandler.HandleWebSocket)
	}
}
