package models

import (
	"gorm.io/gorm"
)

// Session 表示一場選片場次
type Session struct {
	gorm.Model
	Code          string        `gorm:"uniqueIndex;not null" json:"code"` // 分享用的場次代碼，例如 "ABCD12"
	Status        SessionStatus `gorm:"not null" json:"status"`
	CurrentRound  int           `gorm:"not null;default:1" json:"current_round"`
	WinnerMovieID *uint         `json:"winner_movie_id"` // 勝出電影，未分出勝負時為 null

	Participants []Participant `gorm:"foreignKey:SessionID" json:"participants,omitempty"`
	Movies       []Movie       `gorm:"foreignKey:SessionID" json:"movies,omitempty"`
}

// SessionStatus 定義場次狀態的類型
type SessionStatus string

const (
	StatusSubmission SessionStatus = "submission" // 提交階段，開放加入與提交電影
	StatusVoting     SessionStatus = "voting"     // 投票階段
	StatusRevote     SessionStatus = "revote"     // 重新投票階段，由主持人手動切換
	StatusFinished   SessionStatus = "finished"   // 已結束，不再接受任何變更
)

// ValidStatus 檢查狀態字串是否為四種合法狀態之一
func ValidStatus(status SessionStatus) bool {
	switch status {
	case StatusSubmission, StatusVoting, StatusRevote, StatusFinished:
		return true
	}
	return false
}
