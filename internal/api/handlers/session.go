package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"watch_what/internal/models"
	"watch_what/internal/service"
)

// SessionHandler 處理與選片場次相關的請求
type SessionHandler struct {
	sessionService *service.SessionService
}

// NewSessionHandler 創建一個新的 SessionHandler 實例
func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// CreateSession 處理建立新場次的請求
func (h *SessionHandler) CreateSession(c *gin.Context) {
	session, err := h.sessionService.CreateSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "建立場次失敗"})
		return
	}

	c.JSON(http.StatusCreated, session)
}

// GetSession 處理獲取場次訊息的請求，回應包含參與者與電影列表
func (h *SessionHandler) GetSession(c *gin.Context) {
	sessionID, ok := parseID(c, "id")
	if !ok {
		return
	}

	session, err := h.sessionService.GetSession(sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// GetSessionByCode 用分享代碼查詢場次
func (h *SessionHandler) GetSessionByCode(c *gin.Context) {
	session, err := h.sessionService.GetSessionByCode(c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// GetSessionStatus 處理獲取場次進度摘要的請求
func (h *SessionHandler) GetSessionStatus(c *gin.Context) {
	sessionID, ok := parseID(c, "id")
	if !ok {
		return
	}

	summary, err := h.sessionService.GetSessionStatus(sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// JoinSession 處理加入場次的請求
func (h *SessionHandler) JoinSession(c *gin.Context) {
	sessionID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	participant, err := h.sessionService.JoinSession(sessionID, input.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, participant)
}

// ListParticipants 列出場次中的所有參與者
func (h *SessionHandler) ListParticipants(c *gin.Context) {
	sessionID, ok := parseID(c, "id")
	if !ok {
		return
	}

	participants, err := h.sessionService.ListParticipants(sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, participants)
}

// SubmitMovie 處理提交電影的請求
func (h *SessionHandler) SubmitMovie(c *gin.Context) {
	sessionID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input struct {
		ParticipantID uint   `json:"participant_id" binding:"required"`
		Title         string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	movie, err := h.sessionService.SubmitMovie(sessionID, input.ParticipantID, input.Title)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, movie)
}

// ListMovies 列出場次中的所有電影
func (h *SessionHandler) ListMovies(c *gin.Context) {
	sessionID, ok := parseID(c, "id")
	if !ok {
		return
	}

	movies, err := h.sessionService.ListMovies(sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, movies)
}

// CastVote 處理投票的請求
func (h *SessionHandler) CastVote(c *gin.Context) {
	sessionID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input struct {
		ParticipantID uint `json:"participant_id" binding:"required"`
		MovieID       uint `json:"movie_id" binding:"required"`
		Round         int  `json:"round" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vote, err := h.sessionService.CastVote(sessionID, input.ParticipantID, input.MovieID, input.Round)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, vote)
}

// ListVotes 列出場次中的所有投票
func (h *SessionHandler) ListVotes(c *gin.Context) {
	sessionID, ok := parseID(c, "id")
	if !ok {
		return
	}

	votes, err := h.sessionService.ListVotes(sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, votes)
}

// GetRoundResults 處理獲取單一回合結果預覽的請求
func (h *SessionHandler) GetRoundResults(c *gin.Context) {
	sessionID, ok := parseID(c, "id")
	if !ok {
		return
	}

	round, err := strconv.Atoi(c.Param("round"))
	if err != nil || round < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "無效的回合數"})
		return
	}

	results, err := h.sessionService.GetRoundResults(sessionID, round)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// UpdateStatus 處理手動切換場次狀態的請求
func (h *SessionHandler) UpdateStatus(c *gin.Context) {
	sessionID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.sessionService.UpdateStatus(sessionID, models.SessionStatus(input.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// NextRound 處理推進回合的請求
func (h *SessionHandler) NextRound(c *gin.Context) {
	sessionID, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.sessionService.AdvanceRound(sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// parseID 解析路徑中的場次 ID，失敗時直接回應 400
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "無效的場次ID"})
		return 0, false
	}
	return uint(id), true
}

// respondError 把服務層的錯誤類別對應到 HTTP 狀態碼
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrInvalidTarget),
		errors.Is(err, service.ErrDuplicateVote),
		errors.Is(err, service.ErrInvalidValue):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "內部錯誤"})
	}
}
