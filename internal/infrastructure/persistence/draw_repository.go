package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rafflehub/backend/internal/domain/raffle"
	"github.com/rafflehub/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormDrawRepository implements DrawRepository using GORM
type GormDrawRepository struct {
	db *gorm.DB
}

// NewGormDrawRepository creates a new GormDrawRepository
func NewGormDrawRepository(db *gorm.DB) *GormDrawRepository {
	return &GormDrawRepository{db: db}
}

// FindByID finds a draw by its ID
func (r *GormDrawRepository) FindByID(ctx context.Context, id uuid.UUID) (*raffle.Draw, error) {
	var draw raffle.Draw
	if err := r.db.WithContext(ctx).First(&draw, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &draw, nil
}

// FindByRequestID finds a draw by its randomness request ID
func (r *GormDrawRepository) FindByRequestID(ctx context.Context, requestID string) (*raffle.Draw, error) {
	var draw raffle.Draw
	if err := r.db.WithContext(ctx).
		Where("randomness_request_id = ?", requestID).
		First(&draw).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &draw, nil
}

// FindByRaffle lists the draws of a raffle, newest first
func (r *GormDrawRepository) FindByRaffle(ctx context.Context, raffleID uuid.UUID) ([]raffle.Draw, error) {
	var draws []raffle.Draw
	if err := r.db.WithContext(ctx).
		Where("raffle_id = ?", raffleID).
		Order("created_at desc").
		Find(&draws).Error; err != nil {
		return nil, err
	}
	return draws, nil
}

// HasNonFailedDraw reports whether the raffle has a draw that is not FAILED
func (r *GormDrawRepository) HasNonFailedDraw(ctx context.Context, raffleID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&raffle.Draw{}).
		Where("raffle_id = ? AND status <> ?", raffleID, raffle.DrawStatusFailed).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ClaimForSettlement moves the draw to PENDING with a conditional update.
// The status predicate makes the claim a compare-and-swap, so concurrent
// deliveries of the same callback cannot both settle the draw.
func (r *GormDrawRepository) ClaimForSettlement(ctx context.Context, draw *raffle.Draw) error {
	result := r.db.WithContext(ctx).
		Model(&raffle.Draw{}).
		Where("id = ? AND status = ?", draw.ID, raffle.DrawStatusRequested).
		Updates(map[string]interface{}{
			"status":     raffle.DrawStatusPending,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return draw.MarkPending()
}

// Save creates or updates a draw
func (r *GormDrawRepository) Save(ctx context.Context, draw *raffle.Draw) error {
	return r.db.WithContext(ctx).Save(draw).Error
}

// Delete removes a draw row
func (r *GormDrawRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&raffle.Draw{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormDrawRepository implements DrawRepository
var _ raffle.DrawRepository = (*GormDrawRepository)(nil)
