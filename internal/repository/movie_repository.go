package repository

import (
	"watch_what/internal/models"
	"watch_what/internal/storage"
)

type MovieRepository interface {
	Create(movie *models.Movie) error
	FindByID(id uint) (*models.Movie, error)
	FindBySession(sessionID uint) ([]models.Movie, error)
	FindActiveBySession(sessionID uint) ([]models.Movie, error)
	MarkEliminated(movieID uint, round int) error
}

type movieRepository struct {
	db *storage.PostgresDB
}

func NewMovieRepository(db *storage.PostgresDB) MovieRepository {
	return &movieRepository{db: db}
}

func (r *movieRepository) Create(movie *models.Movie) error {
	return translate(r.db.Create(movie).Error)
}

func (r *movieRepository) FindByID(id uint) (*models.Movie, error) {
	var movie models.Movie
	err := r.db.First(&movie, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &movie, nil
}

func (r *movieRepository) FindBySession(sessionID uint) ([]models.Movie, error) {
	var movies []models.Movie
	err := r.db.Where("session_id = ?", sessionID).Order("id asc").Find(&movies).Error
	return movies, translate(err)
}

// FindActiveBySession 只查詢尚未被淘汰的電影
func (r *movieRepository) FindActiveBySession(sessionID uint) ([]models.Movie, error) {
	var movies []models.Movie
	err := r.db.Where("session_id = ? AND eliminated_round IS NULL", sessionID).
		Order("id asc").Find(&movies).Error
	return movies, translate(err)
}

// MarkEliminated 設定電影的淘汰回合。淘汰回合只會被設定一次，
// 已設定過的電影不會再出現在任何淘汰集合裡。
func (r *movieRepository) MarkEliminated(movieID uint, round int) error {
	return translate(r.db.Model(&models.Movie{}).
		Where("id = ? AND eliminated_round IS NULL", movieID).
		Update("eliminated_round", round).Error)
}
