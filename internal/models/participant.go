package models

import (
	"gorm.io/gorm"
)

// Participant 表示場次中的一位參與者
type Participant struct {
	gorm.Model
	SessionID uint   `gorm:"index;not null" json:"session_id"`
	Name      string `gorm:"not null" json:"name"` // 顯示名稱
}
