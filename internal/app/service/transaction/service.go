package transaction

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/extpay/internal/models"
	"github.com/fatflowers/extpay/pkg/apperr"
	"github.com/fatflowers/extpay/pkg/types"
)

var (
	ErrTransactionNotFound  = apperr.NotFound("transaction not found")
	ErrDuplicateTransaction = errors.New("transaction already recorded")
)

const maxScanSize = 100

// Repository stores transactions.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) FindByExternalTransactionID(ctx context.Context, externalID string) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).Where("external_transaction_id = ?", externalID).Take(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	return &txn, nil
}

// Create inserts txn. A second row with the same external transaction id is
// rejected by the unique index and reported as ErrDuplicateTransaction.
func (r *Repository) Create(ctx context.Context, txn *models.Transaction) error {
	err := r.db.WithContext(ctx).Create(txn).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateTransaction
	}
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// Scan lists the transactions of one shop with admin filters.
func (r *Repository) Scan(ctx context.Context, shopID int64, req *ScanTransactionsRequest) (*ScanTransactionsResponse, error) {
	if req == nil {
		return nil, apperr.BadRequest("nil request")
	}
	if err := validateScan(req); err != nil {
		return nil, err
	}
	if req.Size <= 0 {
		req.Size = 10
	}
	req.Size = min(req.Size, maxScanSize)
	if req.From < 0 {
		req.From = 0
	}

	shopMethods := r.db.Model(&models.ShopPaymentMethod{}).Select("id").Where("shop_id = ?", shopID)
	tx := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("payment_method_id IN (?)", shopMethods)
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{types.FiltersAnd(req.Filters)}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	var rows []*models.Transaction

	q := tx.Limit(req.Size)

	if req.From > 0 {
		q = q.Offset(req.From)
	}

	sortBy := lo.Ternary(req.SortBy == "", "created_at", req.SortBy)
	q = q.Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: sortBy}, Desc: req.SortOrder != "asc"}}})
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return &ScanTransactionsResponse{Items: rows, Total: total}, nil
}

func validateScan(req *ScanTransactionsRequest) error {
	verr := &apperr.ValidationError{}
	for _, f := range req.Filters {
		if f == nil {
			verr.Add("filter must not be null")
			continue
		}
		if err := f.Validate(ScannableFields); err != nil {
			verr.Add(err.Error())
		}
	}
	if req.SortBy != "" && !lo.Contains(ScannableFields, req.SortBy) {
		verr.Add(fmt.Sprintf("sorting by %q is not allowed", req.SortBy))
	}
	if req.SortOrder != "" && req.SortOrder != "asc" && req.SortOrder != "desc" {
		verr.Add("sort_order must be asc or desc")
	}
	return verr.Err()
}
