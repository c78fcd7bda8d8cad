package repository

import (
	"errors"

	"gorm.io/gorm"

	"watch_what/internal/models"
	"watch_what/internal/storage"
)

type SessionRepository interface {
	Create(session *models.Session) error
	FindByID(id uint) (*models.Session, error)
	FindByCode(code string) (*models.Session, error)
	Update(session *models.Session) error
}

type sessionRepository struct {
	db *storage.PostgresDB
}

func NewSessionRepository(db *storage.PostgresDB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(session *models.Session) error {
	return translate(r.db.Create(session).Error)
}

// FindByID 連同參與者與電影一起載入
func (r *sessionRepository) FindByID(id uint) (*models.Session, error) {
	var session models.Session
	err := r.db.Preload("Participants").Preload("Movies").First(&session, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

func (r *sessionRepository) FindByCode(code string) (*models.Session, error) {
	var session models.Session
	err := r.db.Preload("Participants").Preload("Movies").
		Where("code = ?", code).First(&session).Error
	if err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

func (r *sessionRepository) Update(session *models.Session) error {
	return translate(r.db.Save(session).Error)
}

// translate 把 gorm 的錯誤轉換成資料層的哨兵錯誤
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}
