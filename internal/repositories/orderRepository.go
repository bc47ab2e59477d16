package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"ForexTradeBot/internal/models"
)

type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create adds a new Order record to the database
func (r *OrderRepository) Create(order *models.OrderRecord) error {
	if order == nil {
		return errors.New("order cannot be nil")
	}
	return r.db.Create(order).Error
}

// FindByTicket retrieves an Order record by its broker ticket
func (r *OrderRepository) FindByTicket(ticket int64) (*models.OrderRecord, error) {
	if ticket == 0 {
		return nil, errors.New("invalid ticket")
	}
	var order models.OrderRecord
	err := r.db.Where("ticket = ?", ticket).First(&order).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	return &order, err
}

// FindBySymbol retrieves all Order records for a specific symbol
func (r *OrderRepository) FindBySymbol(symbol string) ([]models.OrderRecord, error) {
	if symbol == "" {
		return nil, errors.New("invalid symbol")
	}
	var orders []models.OrderRecord
	err := r.db.Where("symbol = ?", symbol).Order("created_at desc").Find(&orders).Error
	return orders, err
}

// FindByTimeRange retrieves all Order records created within a time range
func (r *OrderRepository) FindByTimeRange(start, end time.Time) ([]models.OrderRecord, error) {
	var orders []models.OrderRecord
	err := r.db.Where("created_at BETWEEN ? AND ?", start, end).Find(&orders).Error
	return orders, err
}

// CountFailed counts failed Order records since a given time
func (r *OrderRepository) CountFailed(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.OrderRecord{}).
		Where("success = ? AND created_at >= ?", false, since).
		Count(&count).Error
	return count, err
}
