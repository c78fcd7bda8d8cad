package service

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client 代表一個訂閱了某場次的 WebSocket 連線
type Client struct {
	Conn      *websocket.Conn // WebSocket 連線
	SessionID uint            // 訂閱的場次 ID
	SendChan  chan []byte     // 待送出的事件，緩衝滿視同傳送失敗
}

// NewClient 建立一個帶有標準緩衝大小的客戶端
func NewClient(conn *websocket.Conn, sessionID uint) *Client {
	return &Client{
		Conn:      conn,
		SessionID: sessionID,
		SendChan:  make(chan []byte, 256),
	}
}

func (c *Client) closeConn() {
	if c.Conn != nil {
		c.Conn.Close()
	}
}

// WebSocketManager 維護場次與連線的對應，並把事件廣播給訂閱的連線。
// 兩張 map 互為反向索引，全部由同一把讀寫鎖保護；持鎖期間絕不回呼
// SessionService，避免和場次鎖形成死鎖。
type WebSocketManager struct {
	mu       sync.RWMutex
	sessions map[uint]map[*Client]struct{} // sessionID -> 連線集合
	clients  map[*Client]uint              // 連線 -> sessionID，清理時 O(1) 反查
}

// NewWebSocketManager 創建並初始化廣播管理器
func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		sessions: make(map[uint]map[*Client]struct{}),
		clients:  make(map[*Client]uint),
	}
}

// Register 把連線加入它的場次。對同一個連線重複呼叫不會產生重複項，
// 只會覆寫場次的關聯。
func (m *WebSocketManager) Register(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if oldID, ok := m.clients[client]; ok {
		m.removeLocked(client, oldID)
	}

	if m.sessions[client.SessionID] == nil {
		m.sessions[client.SessionID] = make(map[*Client]struct{})
	}
	m.sessions[client.SessionID][client] = struct{}{}
	m.clients[client] = client.SessionID
}

// Unregister 把連線從兩張 map 中移除，對未註冊的連線呼叫是 no-op
func (m *WebSocketManager) Unregister(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessionID, ok := m.clients[client]
	if !ok {
		return
	}
	m.removeLocked(client, sessionID)
}

// removeLocked 需要在持有寫鎖時呼叫
func (m *WebSocketManager) removeLocked(client *Client, sessionID uint) {
	delete(m.clients, client)
	if clients, ok := m.sessions[sessionID]; ok {
		delete(clients, client)
		// 場次沒有任何連線時移除整個項目
		if len(clients) == 0 {
			delete(m.sessions, sessionID)
		}
	}
}

// BroadcastToSession 把事件送給目前訂閱該場次的每一個連線。
// 事件只序列化一次；先在讀鎖下取得連線快照再逐一投遞，
// 投遞失敗的連線收集起來，等整輪結束後再移除。
// 廣播是 fire-and-forget：不重試，也不把失敗回報給呼叫端。
func (m *WebSocketManager) BroadcastToSession(sessionID uint, event interface{}) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("event encoding error: %v", err)
		return
	}

	m.mu.RLock()
	targets := make([]*Client, 0, len(m.sessions[sessionID]))
	for client := range m.sessions[sessionID] {
		targets = append(targets, client)
	}
	m.mu.RUnlock()

	var failed []*Client
	for _, client := range targets {
		select {
		case client.SendChan <- payload:
			// 事件成功加入發送隊列
		default:
			// 發送隊列已滿，視同連線失效
			failed = append(failed, client)
		}
	}

	for _, client := range failed {
		m.Unregister(client)
		client.closeConn()
	}
}

// SessionConnectionCount 回報指定場次目前的連線數
func (m *WebSocketManager) SessionConnectionCount(sessionID uint) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions[sessionID])
}

// TotalConnectionCount 回報所有場次的連線總數
func (m *WebSocketManager) TotalConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.clients)
}

// HandleClient 接手一個剛升級完成的連線，註冊後啟動讀寫處理，
// 直到連線中斷才返回並清理註冊
func (m *WebSocketManager) HandleClient(client *Client) {
	m.Register(client)

	defer func() {
		m.Unregister(client)
		client.closeConn()
	}()

	go m.writePump(client)
	m.readPump(client)
}

// readPump 持續讀取客戶端的訊息。事件流是單向的，
// 收到的內容只記錄不處理，讀取也同時負責偵測連線中斷。
func (m *WebSocketManager) readPump(client *Client) {
	client.Conn.SetReadLimit(4096)
	client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket unexpected close error: %v", err)
			}
			break
		}
		log.Printf("received message from session %d: %s", client.SessionID, message)
	}
}

// writePump 把隊列中的事件依序寫給客戶端，並定期發送心跳
func (m *WebSocketManager) writePump(client *Client) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case payload := <-client.SendChan:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
