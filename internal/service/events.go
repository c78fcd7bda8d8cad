package service

import (
	"fmt"

	"watch_what/internal/models"
)

// 廣播給客戶端的事件類型。payload 內容原樣轉發，每個事件都帶有 session_id。
const (
	EventParticipantJoined    = "participant_joined"
	EventCandidateSubmitted   = "candidate_submitted"
	EventVoteCast             = "vote_cast"
	EventCandidateEliminated  = "candidate_eliminated"
	EventRoundAdvanced        = "round_advanced"
	EventSessionFinished      = "session_finished"
	EventSessionStatusUpdated = "session_status_updated"
)

// VoteSummary 是單一回合中一部電影的得票摘要
type VoteSummary struct {
	MovieID   uint   `json:"movie_id"`
	Title     string `json:"movie_title"`
	VoteCount int    `json:"vote_count"`
	Round     int    `json:"round"`
}

// EliminatedMovie 記錄一部被淘汰的電影與它最終的得票數
type EliminatedMovie struct {
	MovieID         uint   `json:"movie_id"`
	Title           string `json:"title"`
	VoteCount       int    `json:"vote_count"`
	EliminatedRound int    `json:"eliminated_round"`
}

// Winner 是場次結束時的勝出電影
type Winner struct {
	MovieID uint   `json:"movie_id"`
	Title   string `json:"title"`
}

// ParticipantJoinedEvent 在新參與者加入時廣播
type ParticipantJoinedEvent struct {
	Type        string              `json:"type"`
	SessionID   uint                `json:"session_id"`
	Participant *models.Participant `json:"participant"`
	Message     string              `json:"message"`
}

func NewParticipantJoinedEvent(sessionID uint, participant *models.Participant) *ParticipantJoinedEvent {
	return &ParticipantJoinedEvent{
		Type:        EventParticipantJoined,
		SessionID:   sessionID,
		Participant: participant,
		Message:     fmt.Sprintf("%s 加入了場次", participant.Name),
	}
}

// CandidateSubmittedEvent 在新電影提交時廣播
type CandidateSubmittedEvent struct {
	Type      string        `json:"type"`
	SessionID uint          `json:"session_id"`
	Movie     *models.Movie `json:"movie"`
	Message   string        `json:"message"`
}

func NewCandidateSubmittedEvent(sessionID uint, movie *models.Movie, submitter *models.Participant) *CandidateSubmittedEvent {
	return &CandidateSubmittedEvent{
		Type:      EventCandidateSubmitted,
		SessionID: sessionID,
		Movie:     movie,
		Message:   fmt.Sprintf("%s 提交了《%s》", submitter.Name, movie.Title),
	}
}

// VoteCastEvent 在成功投票後廣播，附上該回合完整的得票快照，
// 讓每個客戶端不管收到的順序如何都能畫出最新的戰況。
type VoteCastEvent struct {
	Type          string        `json:"type"`
	SessionID     uint          `json:"session_id"`
	Vote          *models.Vote  `json:"vote"`
	VoteSummaries []VoteSummary `json:"vote_summaries"`
	Message       string        `json:"message"`
}

func NewVoteCastEvent(sessionID uint, vote *models.Vote, summaries []VoteSummary, voter *models.Participant, movie *models.Movie) *VoteCastEvent {
	return &VoteCastEvent{
		Type:          EventVoteCast,
		SessionID:     sessionID,
		Vote:          vote,
		VoteSummaries: summaries,
		Message:       fmt.Sprintf("%s 投給了《%s》", voter.Name, movie.Title),
	}
}

// CandidateEliminatedEvent 在回合推進時為每一部被淘汰的電影各廣播一則，
// 且保證在 round_advanced 之前送出。
type CandidateEliminatedEvent struct {
	Type      string          `json:"type"`
	SessionID uint            `json:"session_id"`
	Movie     EliminatedMovie `json:"movie"`
	Message   string          `json:"message"`
}

func NewCandidateEliminatedEvent(sessionID uint, movie EliminatedMovie) *CandidateEliminatedEvent {
	return &CandidateEliminatedEvent{
		Type:      EventCandidateEliminated,
		SessionID: sessionID,
		Movie:     movie,
		Message: fmt.Sprintf("《%s》在第 %d 回合以 %d 票遭到淘汰",
			movie.Title, movie.EliminatedRound, movie.VoteCount),
	}
}

// RoundAdvancedEvent 在所有淘汰事件之後、session_finished 之前廣播
type RoundAdvancedEvent struct {
	Type            string `json:"type"`
	SessionID       uint   `json:"session_id"`
	OldRound        int    `json:"old_round"`
	NewRound        int    `json:"new_round"`
	EliminatedCount int    `json:"eliminated_count"`
	Message         string `json:"message"`
}

func NewRoundAdvancedEvent(sessionID uint, oldRound, newRound, eliminatedCount int) *RoundAdvancedEvent {
	message := fmt.Sprintf("進入第 %d 回合", newRound)
	if eliminatedCount > 0 {
		message = fmt.Sprintf("進入第 %d 回合，%d 部電影遭到淘汰", newRound, eliminatedCount)
	}
	return &RoundAdvancedEvent{
		Type:            EventRoundAdvanced,
		SessionID:       sessionID,
		OldRound:        oldRound,
		NewRound:        newRound,
		EliminatedCount: eliminatedCount,
		Message:         message,
	}
}

// SessionFinishedEvent 只在有贏家時廣播，永遠是場次的最後一個事件
type SessionFinishedEvent struct {
	Type      string  `json:"type"`
	SessionID uint    `json:"session_id"`
	Winner    *Winner `json:"winner"`
	Message   string  `json:"message"`
}

func NewSessionFinishedEvent(sessionID uint, winner *Winner) *SessionFinishedEvent {
	return &SessionFinishedEvent{
		Type:      EventSessionFinished,
		SessionID: sessionID,
		Winner:    winner,
		Message:   fmt.Sprintf("《%s》獲勝！", winner.Title),
	}
}

// SessionStatusUpdatedEvent 在手動切換場次狀態時廣播
type SessionStatusUpdatedEvent struct {
	Type      string               `json:"type"`
	SessionID uint                 `json:"session_id"`
	Status    models.SessionStatus `json:"status"`
}

func NewSessionStatusUpdatedEvent(sessionID uint, status models.SessionStatus) *SessionStatusUpdatedEvent {
	return &SessionStatusUpdatedEvent{
		Type:      EventSessionStatusUpdated,
		SessionID: sessionID,
		Status:    status,
	}
}
