package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/minrafi/invoicer/internal/invoice/domain"
	"github.com/minrafi/invoicer/pkg/db"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func Provide(conn *gorm.DB) domain.Repository {
	return &repo{db: conn}
}

func (r *repo) NextInvoiceNumber(ctx context.Context) (int64, error) {
	// Raw SQL on purpose: the maximum must cover soft-deleted rows too,
	// so a retired number is never recomputed as the next one.
	var next int64
	err := r.db.WithContext(ctx).
		Raw(`SELECT COALESCE(MAX(invoice_number), 0) + 1 FROM invoices`).
		Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (r *repo) InsertProvisional(ctx context.Context, invoice *domain.Invoice) error {
	if err := r.db.WithContext(ctx).Create(invoice).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.ErrDuplicateInvoiceNumber
		}
		return err
	}
	return nil
}

func (r *repo) AttachArtifact(ctx context.Context, id snowflake.ID, artifactID string) (*domain.Invoice, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"artifact_id": artifactID,
			"updated_at":  time.Now().UTC(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := r.db.WithContext(ctx).First(&invoice, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *repo) FindPage(ctx context.Context, filter domain.ListFilter, page, limit int) ([]domain.Invoice, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}

	stmt := r.db.WithContext(ctx).Model(&domain.Invoice{})
	if search := strings.TrimSpace(filter.Search); search != "" {
		stmt = stmt.Where("LOWER(client_name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if month := strings.TrimSpace(filter.Month); month != "" {
		stmt = stmt.Where("month = ?", month)
	}

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var invoices []domain.Invoice
	err := stmt.
		Order("invoice_number DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&invoices).Error
	if err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

func (r *repo) Delete(ctx context.Context, id snowflake.ID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Invoice{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
