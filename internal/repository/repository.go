package repository

import (
	"errors"

	"watch_what/internal/storage"
)

// 資料層的哨兵錯誤，gorm 實作負責把底層錯誤轉換成這兩種
var (
	ErrNotFound  = errors.New("找不到紀錄")
	ErrDuplicate = errors.New("違反唯一性限制")
)

type Repositories struct {
	Session     SessionRepository
	Participant ParticipantRepository
	Movie       MovieRepository
	Vote        VoteRepository
}

func NewRepositories(db *storage.PostgresDB) *Repositories {
	return &Repositories{
		Session:     NewSessionRepository(db),
		Participant: NewParticipantRepository(db),
		Movie:       NewMovieRepository(db),
		Vote:        NewVoteRepository(db),
	}
}
