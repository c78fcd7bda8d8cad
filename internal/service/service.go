package service

import (
	"watch_what/internal/repository"
)

type Services struct {
	Session   *SessionService
	WebSocket *WebSocketManager
}

func NewServices(repos *repository.Repositories) *Services {
	wsManager := NewWebSocketManager()

	sessionService := NewSessionService(repos, wsManager)
	return &Services{
		Session:   sessionService,
		WebSocket: wsManager,
	}
}
