package models

import (
	"gorm.io/gorm"
)

// Vote 表示某回合中對一部電影的一票。
// (participant_id, movie_id, round) 的唯一索引保證同一參與者
// 在同一回合對同一部電影最多只有一票，重送投票請求是安全的。
type Vote struct {
	gorm.Model
	SessionID     uint `gorm:"index;not null" json:"session_id"`
	ParticipantID uint `gorm:"uniqueIndex:idx_participant_movie_round;not null" json:"participant_id"`
	MovieID       uint `gorm:"uniqueIndex:idx_participant_movie_round;not null" json:"movie_id"`
	Round         int  `gorm:"uniqueIndex:idx_participant_movie_round;not null" json:"round"`
}
