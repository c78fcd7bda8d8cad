package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"watch_what/internal/service"
)

// 定義 WebSocket 升級器
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 注意：在生產環境中，應該檢查 origin
	},
}

// WebSocketHandler 處理 WebSocket 連接
type WebSocketHandler struct {
	wsManager      *service.WebSocketManager
	sessionService *service.SessionService
}

// NewWebSocketHandler 創建一個新的 WebSocketHandler 實例
func NewWebSocketHandler(wsManager *service.WebSocketManager, sessionService *service.SessionService) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:      wsManager,
		sessionService: sessionService,
	}
}

// HandleWebSocket 處理 WebSocket 連接請求：確認場次存在後升級連線，
// 註冊到廣播管理器，之後該場次的每個事件都會推送給這條連線。
// 連線中斷時由 HandleClient 負責取消註冊。
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	sessionID, ok := parseID(c, "id")
	if !ok {
		return
	}

	// 先驗證再升級，不讓無效的場次佔住連線
	if _, err := h.sessionService.GetSession(sessionID); err != nil {
		respondError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "升級WebSocket失敗"})
		return
	}

	client := service.NewClient(conn, sessionID)
	h.wsManager.HandleClient(client)
}
