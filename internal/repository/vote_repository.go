package repository

import (
	"watch_what/internal/models"
	"watch_what/internal/storage"
)

type VoteRepository interface {
	Create(vote *models.Vote) error
	FindVote(participantID, movieID uint, round int) (*models.Vote, error)
	FindByRound(sessionID uint, round int) ([]models.Vote, error)
	FindBySession(sessionID uint) ([]models.Vote, error)
}

type voteRepository struct {
	db *storage.PostgresDB
}

func NewVoteRepository(db *storage.PostgresDB) VoteRepository {
	return &voteRepository{db: db}
}

// Create 寫入一票。重複的 (participant, movie, round) 會觸發唯一索引，
// 以 ErrDuplicate 回報給呼叫端。
func (r *voteRepository) Create(vote *models.Vote) error {
	return translate(r.db.Create(vote).Error)
}

func (r *voteRepository) FindVote(participantID, movieID uint, round int) (*models.Vote, error) {
	var vote models.Vote
	err := r.db.Where("participant_id = ? AND movie_id = ? AND round = ?",
		participantID, movieID, round).First(&vote).Error
	if err != nil {
		return nil, translate(err)
	}
	return &vote, nil
}

func (r *voteRepository) FindByRound(sessionID uint, round int) ([]models.Vote, error) {
	var votes []models.Vote
	err := r.db.Where("session_id = ? AND round = ?", sessionID, round).Find(&votes).Error
	return votes, translate(err)
}

func (r *voteRepository) FindBySession(sessionID uint) ([]models.Vote, error) {
	var votes []models.Vote
	err := r.db.Where("session_id = ?", sessionID).Find(&votes).Error
	return votes, translate(err)
}
