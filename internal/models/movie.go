package models

import (
	"gorm.io/gorm"
)

// Movie 表示參與者提交的一部候選電影
type Movie struct {
	gorm.Model
	SessionID       uint   `gorm:"index;not null" json:"session_id"`
	Title           string `gorm:"not null" json:"title"`
	SubmittedByID   uint   `gorm:"not null" json:"submitted_by_participant_id"` // 提交者的參與者 ID
	EliminatedRound *int   `json:"eliminated_round"`                            // 遭淘汰的回合，尚未淘汰時為 null，設定後不再變更
}

// Active 回報電影是否仍在競爭中
func (m *Movie) Active() bool {
	return m.EliminatedRound == nil
}
