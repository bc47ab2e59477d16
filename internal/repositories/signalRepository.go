package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"ForexTradeBot/internal/models"
)

type SignalRepository struct {
	db *gorm.DB
}

// NewSignalRepository creates a new instance of SignalRepository
func NewSignalRepository(db *gorm.DB) *SignalRepository {
	return &SignalRepository{db: db}
}

// Create adds a new Signal record to the database
func (r *SignalRepository) Create(signal *models.SignalRecord) error {
	if signal == nil {
		return errors.New("signal cannot be nil")
	}
	return r.db.Create(signal).Error
}

// FindByID retrieves a Signal record by its ID
func (r *SignalRepository) FindByID(id uint) (*models.SignalRecord, error) {
	if id == 0 {
		return nil, errors.New("invalid id")
	}
	var signal models.SignalRecord
	err := r.db.First(&signal, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	return &signal, err
}

// FindBySymbol retrieves all Signal records for a specific symbol
func (r *SignalRepository) FindBySymbol(symbol string) ([]models.SignalRecord, error) {
	if symbol == "" {
		return nil, errors.New("invalid symbol")
	}
	var signals []models.SignalRecord
	err := r.db.Where("symbol = ?", symbol).Order("created_at desc").Find(&signals).Error
	return signals, err
}

// FindByTimeRange retrieves all Signal records created within a time range
func (r *SignalRepository) FindByTimeRange(start, end time.Time) ([]models.SignalRecord, error) {
	var signals []models.SignalRecord
	err := r.db.Where("created_at BETWEEN ? AND ?", start, end).Find(&signals).Error
	return signals, err
}

// FindLatest retrieves the most recent Signal record for a symbol and strategy
func (r *SignalRepository) FindLatest(symbol, strategy string) (*models.SignalRecord, error) {
	if symbol == "" {
		return nil, errors.New("invalid symbol")
	}
	var signal models.SignalRecord
	err := r.db.Where("symbol = ? AND strategy = ?", symbol, strategy).
		Order("created_at desc").First(&signal).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	return &signal, err
}
