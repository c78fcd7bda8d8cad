package repository

import (
	"watch_what/internal/models"
	"watch_what/internal/storage"
)

type ParticipantRepository interface {
	Create(participant *models.Participant) error
	FindByID(id uint) (*models.Participant, error)
	FindBySession(sessionID uint) ([]models.Participant, error)
}

type participantRepository struct {
	db *storage.PostgresDB
}

func NewParticipantRepository(db *storage.PostgresDB) ParticipantRepository {
	return &participantRepository{db: db}
}

func (r *participantRepository) Create(participant *models.Participant) error {
	return translate(r.db.Create(participant).Error)
}

func (r *participantRepository) FindByID(id uint) (*models.Participant, error) {
	var participant models.Participant
	err := r.db.First(&participant, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &participant, nil
}

func (r *participantRepository) FindBySession(sessionID uint) ([]models.Participant, error) {
	var participants []models.Participant
	err := r.db.Where("session_id = ?", sessionID).Order("created_at asc").Find(&participants).Error
	return participants, translate(err)
}
