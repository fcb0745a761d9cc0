package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rafflehub/backend/internal/domain/raffle"
	"github.com/rafflehub/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTicketRepository implements TicketRepository using GORM
type GormTicketRepository struct {
	db *gorm.DB
}

// NewGormTicketRepository creates a new GormTicketRepository
func NewGormTicketRepository(db *gorm.DB) *GormTicketRepository {
	return &GormTicketRepository{db: db}
}

// AllocateTickets assigns the next ticket numbers of a raffle and persists
// the batch. The raffle row is locked FOR UPDATE for the duration of the
// transaction, so concurrent allocations on the same raffle are serialized
// and never hand out overlapping ranges. Domain failures roll the
// transaction back without consuming any numbers.
func (r *GormTicketRepository) AllocateTickets(ctx context.Context, raffleID, customerID, orderID uuid.UUID, quantity int) ([]raffle.Ticket, error) {
	var allocated []raffle.Ticket

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rf raffle.Raffle
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&rf, "id = ?", raffleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		var highest int64
		if err := tx.Model(&raffle.Ticket{}).
			Where("raffle_id = ?", raffleID).
			Select("COALESCE(MAX(ticket_number), 0)").
			Scan(&highest).Error; err != nil {
			return err
		}

		var held int64
		if err := tx.Model(&raffle.Ticket{}).
			Where("raffle_id = ? AND customer_id = ?", raffleID, customerID).
			Count(&held).Error; err != nil {
			return err
		}

		batch, err := raffle.AllocateBatch(&rf, customerID, orderID, quantity, int(highest)+1, held)
		if err != nil {
			return err
		}

		if err := tx.Create(&batch).Error; err != nil {
			return err
		}

		allocated = batch
		return nil
	})
	if err != nil {
		return nil, err
	}
	return allocated, nil
}

// ReleaseTickets deletes reserved tickets, undoing an allocation
func (r *GormTicketRepository) ReleaseTickets(ctx context.Context, ticketIDs []uuid.UUID) error {
	if len(ticketIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("id IN ? AND status = ?", ticketIDs, raffle.TicketStatusReserved).
		Delete(&raffle.Ticket{}).Error
}

// FindByID finds a ticket by its ID
func (r *GormTicketRepository) FindByID(ctx context.Context, id uuid.UUID) (*raffle.Ticket, error) {
	var ticket raffle.Ticket
	if err := r.db.WithContext(ctx).First(&ticket, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

// FindByNumber finds the ticket holding a number within a raffle
func (r *GormTicketRepository) FindByNumber(ctx context.Context, raffleID uuid.UUID, number int) (*raffle.Ticket, error) {
	var ticket raffle.Ticket
	if err := r.db.WithContext(ctx).
		Where("raffle_id = ? AND ticket_number = ?", raffleID, number).
		First(&ticket).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

// FindByRaffle lists tickets of a raffle with filtering
func (r *GormTicketRepository) FindByRaffle(ctx context.Context, raffleID uuid.UUID, filter shared.Filter) ([]raffle.Ticket, error) {
	var tickets []raffle.Ticket
	query := r.db.WithContext(ctx).Model(&raffle.Ticket{}).Where("raffle_id = ?", raffleID)
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if customerID, ok := filter.Filters["customer_id"]; ok {
		query = query.Where("customer_id = ?", customerID)
	}

	if err := query.
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Order("ticket_number asc").
		Find(&tickets).Error; err != nil {
		return nil, err
	}
	return tickets, nil
}

// FindByOrder lists the tickets of a purchase order, lowest number first
func (r *GormTicketRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]raffle.Ticket, error) {
	var tickets []raffle.Ticket
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("ticket_number asc").
		Find(&tickets).Error; err != nil {
		return nil, err
	}
	return tickets, nil
}

// MarkPaidByOrder marks an order's reserved tickets as paid and returns how
// many rows changed. Zero changed rows on a repeated webhook is a no-op.
func (r *GormTicketRepository) MarkPaidByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&raffle.Ticket{}).
		Where("order_id = ? AND status = ?", orderID, raffle.TicketStatusReserved).
		Update("status", raffle.TicketStatusPaid)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Save updates a single ticket
func (r *GormTicketRepository) Save(ctx context.Context, ticket *raffle.Ticket) error {
	return r.db.WithContext(ctx).Save(ticket).Error
}

// CountByRaffle counts the tickets allocated in a raffle
func (r *GormTicketRepository) CountByRaffle(ctx context.Context, raffleID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&raffle.Ticket{}).
		Where("raffle_id = ?", raffleID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByCustomer counts a customer's tickets within a raffle
func (r *GormTicketRepository) CountByCustomer(ctx context.Context, raffleID, customerID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&raffle.Ticket{}).
		Where("raffle_id = ? AND customer_id = ?", raffleID, customerID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormTicketRepository implements TicketRepository
var _ raffle.TicketRepository = (*GormTicketRepository)(nil)
