package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rafflehub/backend/internal/domain/raffle"
	"github.com/rafflehub/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormRaffleRepository implements RaffleRepository using GORM
type GormRaffleRepository struct {
	db *gorm.DB
}

// NewGormRaffleRepository creates a new GormRaffleRepository
func NewGormRaffleRepository(db *gorm.DB) *GormRaffleRepository {
	return &GormRaffleRepository{db: db}
}

// FindByID finds a raffle by its ID
func (r *GormRaffleRepository) FindByID(ctx context.Context, id uuid.UUID) (*raffle.Raffle, error) {
	var entity raffle.Raffle
	if err := r.db.WithContext(ctx).First(&entity, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &entity, nil
}

// FindAll finds raffles with filtering
func (r *GormRaffleRepository) FindAll(ctx context.Context, filter shared.Filter) ([]raffle.Raffle, error) {
	var raffles []raffle.Raffle
	query := r.applyFilter(r.db.WithContext(ctx).Model(&raffle.Raffle{}), filter).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Order(orderClause(filter))

	if err := query.Find(&raffles).Error; err != nil {
		return nil, err
	}
	return raffles, nil
}

// Count counts raffles matching the filter
func (r *GormRaffleRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&raffle.Raffle{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a raffle
func (r *GormRaffleRepository) Save(ctx context.Context, entity *raffle.Raffle) error {
	return r.db.WithContext(ctx).Save(entity).Error
}

// SaveWithLock updates a raffle with optimistic locking. The version check
// makes every status transition a compare-and-swap, so concurrent
// transitions on the same raffle cannot both win.
func (r *GormRaffleRepository) SaveWithLock(ctx context.Context, entity *raffle.Raffle) error {
	// The map form of Updates bypasses gorm field serializers, so the
	// metadata map has to be serialized by hand before it reaches the driver.
	metadataJSON, err := json.Marshal(entity.Metadata)
	if err != nil {
		return fmt.Errorf("failed to serialize raffle metadata: %w", err)
	}

	priorVersion := entity.Version
	entity.IncrementVersion()

	result := r.db.WithContext(ctx).
		Model(entity).
		Where("id = ? AND version = ?", entity.ID, priorVersion).
		Updates(map[string]interface{}{
			"title":                    entity.Title,
			"description":              entity.Description,
			"image_url":                entity.ImageURL,
			"terms":                    entity.Terms,
			"metadata":                 string(metadataJSON),
			"ticket_price":             entity.TicketPrice,
			"total_tickets":            entity.TotalTickets,
			"max_tickets_per_customer": entity.MaxTicketsPerCustomer,
			"starts_at":                entity.StartsAt,
			"ends_at":                  entity.EndsAt,
			"draw_at":                  entity.DrawAt,
			"status":                   entity.Status,
			"winner_ticket_number":     entity.WinnerTicketNumber,
			"winner_customer_id":       entity.WinnerCustomerID,
			"published_at":             entity.PublishedAt,
			"completed_at":             entity.CompletedAt,
			"cancelled_at":             entity.CancelledAt,
			"cancel_reason":            entity.CancelReason,
			"version":                  entity.Version,
			"updated_at":               entity.UpdatedAt,
		})

	if result.Error != nil {
		entity.Version = priorVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		entity.Version = priorVersion
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// applyFilter applies the status filter
func (r *GormRaffleRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	return query
}

// orderClause builds the ORDER BY clause from the filter, falling back to
// newest first
func orderClause(filter shared.Filter) string {
	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	dir := filter.OrderDir
	if dir != "asc" && dir != "desc" {
		dir = "desc"
	}
	return orderBy + " " + dir
}

// Ensure GormRaffleRepository implements RaffleRepository
var _ raffle.RaffleRepository = (*GormRaffleRepository)(nil)
