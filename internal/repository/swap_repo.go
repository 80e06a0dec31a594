package repository

import (
	"context"
	"errors"
	"time"

	"anoa.com/skillexchange/internal/dto"
	"anoa.com/skillexchange/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrStatusConflict is returned when a guarded status transition finds the
// request no longer in the expected state.
var ErrStatusConflict = errors.New("swap request is not in the expected status")

type SwapRepository interface {
	// CreateIdempotent inserts the request unless the same requester already
	// has a pending one for the same requesting skill, in which case the
	// existing row is returned and created is false. Concurrent identical
	// creates are resolved by the partial unique index on
	// (requesting_user_id, requesting_skill_id) WHERE status = 'pending':
	// the loser of the race gets the winner's row back.
	CreateIdempotent(ctx context.Context, swap *model.SwapRequest) (created bool, result *model.SwapRequest, err error)
	// FindPending returns the requester's pending request for the given
	// requesting skill, if any.
	FindPending(ctx context.Context, requesterID, requestingSkillID uuid.UUID) (*model.SwapRequest, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error)
	FindForUser(ctx context.Context, userID uuid.UUID, filter dto.SwapFilter) ([]model.SwapRequest, int64, error)
	// Transition performs a guarded status flip: the update only applies while
	// the row is still in from. accepted_at is stamped on the first transition
	// into accepted only.
	Transition(ctx context.Context, id uuid.UUID, from, to model.SwapStatus) error
	// Complete atomically flips accepted->completed, stamps completed_at,
	// records the transaction and increments total_swaps on both users.
	Complete(ctx context.Context, swap *model.SwapRequest, txn *model.SwapTransaction) error
	// CreateReview inserts a swap review, enforcing one per (request, reviewer)
	// and recomputing the reviewed user's mean rating in the same transaction.
	CreateReview(ctx context.Context, review *model.SwapReview) error
	HasReviewed(ctx context.Context, swapID, reviewerID uuid.UUID) (bool, error)

	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status model.SwapStatus) (int64, error)
}

type swapRepository struct {
	db *gorm.DB
}

func NewSwapRepository(db *gorm.DB) SwapRepository {
	return &swapRepository{db: db}
}

func (r *swapRepository) CreateIdempotent(ctx context.Context, swap *model.SwapRequest) (bool, *model.SwapRequest, error) {
	existing, err := r.FindPending(ctx, swap.RequestingUserID, swap.RequestingSkillID)
	if err == nil {
		return false, existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil, err
	}

	if err := r.db.WithContext(ctx).Create(swap).Error; err != nil {
		// A concurrent identical create won the race on the partial unique
		// index; hand back the winner's row.
		if isUniqueViolation(err) {
			if existing, ferr := r.FindPending(ctx, swap.RequestingUserID, swap.RequestingSkillID); ferr == nil {
				return false, existing, nil
			}
		}
		return false, nil, err
	}

	return true, swap, nil
}

func (r *swapRepository) FindPending(ctx context.Context, requesterID, requestingSkillID uuid.UUID) (*model.SwapRequest, error) {
	var swap model.SwapRequest
	if err := r.db.WithContext(ctx).
		Where("requesting_user_id = ? AND requesting_skill_id = ? AND status = ?",
			requesterID, requestingSkillID, model.SwapPending).
		First(&swap).Error; err != nil {
		return nil, err
	}
	return &swap, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *swapRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	var swap model.SwapRequest
	if err := r.db.WithContext(ctx).
		Preload("RequestingUser").
		Preload("RequestedUser").
		Preload("RequestingSkill").
		Preload("RequestedSkill").
		Preload("Transaction").
		Preload("Reviews").
		Where("id = ?", id).
		First(&swap).Error; err != nil {
		return nil, err
	}
	return &swap, nil
}

func (r *swapRepository) FindForUser(ctx context.Context, userID uuid.UUID, filter dto.SwapFilter) ([]model.SwapRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.SwapRequest{})

	switch filter.Role {
	case "sent":
		query = query.Where("requesting_user_id = ?", userID)
	case "received":
		query = query.Where("requested_user_id = ?", userID)
	default:
		query = query.Where("requesting_user_id = ? OR requested_user_id = ?", userID, userID)
	}

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var swaps []model.SwapRequest
	if err := query.
		Preload("RequestingUser").
		Preload("RequestedUser").
		Preload("RequestingSkill").
		Preload("RequestedSkill").
		Order("created_at DESC").
		Offset(filter.Offset()).Limit(filter.Limit).
		Find(&swaps).Error; err != nil {
		return nil, 0, err
	}

	return swaps, total, nil
}

func (r *swapRepository) Transition(ctx context.Context, id uuid.UUID, from, to model.SwapStatus) error {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	if to == model.SwapAccepted {
		updates["accepted_at"] = gorm.Expr("COALESCE(accepted_at, NOW())")
	}

	res := r.db.WithContext(ctx).Model(&model.SwapRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

func (r *swapRepository) Complete(ctx context.Context, swap *model.SwapRequest, txn *model.SwapTransaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.SwapRequest{}).
			Where("id = ? AND status = ?", swap.ID, model.SwapAccepted).
			Updates(map[string]interface{}{
				"status":       model.SwapCompleted,
				"completed_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStatusConflict
		}

		txn.SwapRequestID = swap.ID
		if err := tx.Create(txn).Error; err != nil {
			return err
		}

		// Single SQL expression per counter; no read-modify-write.
		if err := tx.Model(&model.User{}).
			Where("id IN ?", []uuid.UUID{swap.RequestingUserID, swap.RequestedUserID}).
			Update("total_swaps", gorm.Expr("total_swaps + 1")).Error; err != nil {
			return err
		}

		return nil
	})
}

func (r *swapRepository) CreateReview(ctx context.Context, review *model.SwapReview) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.SwapReview{}).
			Where("swap_request_id = ? AND reviewer_id = ?", review.SwapRequestID, review.ReviewerID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateReview
		}

		if err := tx.Create(review).Error; err != nil {
			return err
		}

		// The reviewed user's rating is derived at the moment of the write.
		return tx.Model(&model.User{}).
			Where("id = ?", review.ReviewedUserID).
			Update("rating", gorm.Expr(
				"(SELECT COALESCE(AVG(rating), 0) FROM swap_reviews WHERE reviewed_user_id = ?)",
				review.ReviewedUserID,
			)).Error
	})
}

func (r *swapRepository) HasReviewed(ctx context.Context, swapID, reviewerID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.SwapReview{}).
		Where("swap_request_id = ? AND reviewer_id = ?", swapID, reviewerID).
		Count(&count).Error
	return count > 0, err
}

func (r *swapRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.SwapRequest{}).Count(&count).Error
	return count, err
}

func (r *swapRepository) CountByStatus(ctx context.Context, status model.SwapStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.SwapRequest{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
