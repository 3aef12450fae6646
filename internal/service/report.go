package service

import (
	"bitwise74/expense-api/internal/model"
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	reportSheet       = "Expenses"
	reportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ObjectStore keeps exported reports
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ReportLink is a stored report plus a temporary download URL
type ReportLink struct {
	model.Report
	URL string `json:"url"`
}

// Reports exports a user's expenses to an xlsx workbook in object storage
type Reports struct {
	db       *gorm.DB
	expenses *Expenses
	store    ObjectStore
	linkTTL  time.Duration
}

// NewReports accepts a nil store, every call then fails with ErrReportsDisabled
func NewReports(db *gorm.DB, expenses *Expenses, store ObjectStore, linkTTL time.Duration) *Reports {
	return &Reports{
		db:       db,
		expenses: expenses,
		store:    store,
		linkTTL:  linkTTL,
	}
}

// Export renders every expense of userID, uploads the workbook and records it
func (r *Reports) Export(ctx context.Context, userID string) (*ReportLink, error) {
	if r.store == nil {
		return nil, ErrReportsDisabled
	}

	expenses, total, err := r.expenses.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	buf, err := RenderReport(expenses, total)
	if err != nil {
		return nil, fmt.Errorf("failed to render report, %w", err)
	}

	name, err := gonanoid.Generate(idCharset, 12)
	if err != nil {
		return nil, fmt.Errorf("failed to generate report name, %w", err)
	}

	key := fmt.Sprintf("reports/%s/%s.xlsx", userID, name)

	if err := r.store.Upload(ctx, key, buf, reportContentType); err != nil {
		return nil, err
	}

	report := model.Report{
		UserID:    userID,
		ObjectKey: key,
		Rows:      len(expenses),
	}

	if err := r.db.WithContext(ctx).Create(&report).Error; err != nil {
		return nil, fmt.Errorf("failed to record report, %w", err)
	}

	url, err := r.store.PresignGet(ctx, key, r.linkTTL)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("Report exported", zap.String("userID", userID), zap.String("key", key))

	return &ReportLink{Report: report, URL: url}, nil
}

// List returns previous exports, newest first, each with a fresh link
func (r *Reports) List(ctx context.Context, userID string) ([]ReportLink, error) {
	if r.store == nil {
		return nil, ErrReportsDisabled
	}

	var reports []model.Report

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id desc").
		Find(&reports).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reports, %w", err)
	}

	links := make([]ReportLink, 0, len(reports))
	for _, rep := range reports {
		url, err := r.store.PresignGet(ctx, rep.ObjectKey, r.linkTTL)
		if err != nil {
			return nil, err
		}

		links = append(links, ReportLink{Report: rep, URL: url})
	}

	return links, nil
}

// RenderReport writes one row per expense followed by a total row
func RenderReport(expenses []model.Expense, total decimal.Decimal) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return nil, err
	}

	header := []any{"ID", "Date", "Description", "Category", "Amount", "Running total"}
	if err := f.SetSheetRow(reportSheet, "A1", &header); err != nil {
		return nil, err
	}

	for i, e := range expenses {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}

		row := []any{
			e.ID,
			e.CreatedAt.Format(time.DateOnly),
			e.Description,
			e.Category,
			e.Amount.InexactFloat64(),
			e.TotalExpense.InexactFloat64(),
		}
		if err := f.SetSheetRow(reportSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	cell, err := excelize.CoordinatesToCellName(4, len(expenses)+2)
	if err != nil {
		return nil, err
	}

	footer := []any{"Total", total.InexactFloat64()}
	if err := f.SetSheetRow(reportSheet, cell, &footer); err != nil {
		return nil, err
	}

	return f.WriteToBuffer()
}
