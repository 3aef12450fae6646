package service

import (
	"bitwise74/expense-api/internal/model"
	"bitwise74/expense-api/pkg/validators"
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Expenses owns the per-user expense rows and every aggregate computed over them
type Expenses struct {
	db *gorm.DB
}

func NewExpenses(db *gorm.DB) *Expenses {
	return &Expenses{db: db}
}

// Add stores a new expense together with the owner's running total at
// creation time. The owner's row is locked for the duration of the
// transaction so concurrent adds by the same user can't lose an update.
func (e *Expenses) Add(ctx context.Context, userID string, in validators.ExpenseInput) (*model.Expense, error) {
	if err := validators.ExpenseValidator(&in); err != nil {
		return nil, fmt.Errorf("%w, %w", ErrValidation, err)
	}

	expense := model.Expense{
		UserID:      userID,
		Amount:      in.Amount.Decimal.Round(2),
		Description: in.Description,
		Category:    in.Category,
	}

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner model.User

		// Sqlite drops the FOR UPDATE clause, the immediate transaction lock covers it there
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", userID).
			First(&owner).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}

			return fmt.Errorf("failed to lock expense owner, %w", err)
		}

		prior, err := sumFor(tx, userID)
		if err != nil {
			return err
		}

		expense.TotalExpense = prior.Add(expense.Amount)

		if err := tx.Create(&expense).Error; err != nil {
			return fmt.Errorf("failed to create expense, %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &expense, nil
}

// Edit overwrites the mutable fields of an expense owned by userID. Stored
// running totals are left untouched, on this row and on every other.
// Ownership is checked before the input so a foreign id always reads as
// ErrExpenseNotFound.
func (e *Expenses) Edit(ctx context.Context, userID string, expenseID uint, in validators.ExpenseInput) (*model.Expense, error) {
	var expense model.Expense

	err := e.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", expenseID, userID).
		First(&expense).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExpenseNotFound
		}

		return nil, fmt.Errorf("failed to fetch expense, %w", err)
	}

	if err := validators.ExpenseValidator(&in); err != nil {
		return nil, fmt.Errorf("%w, %w", ErrValidation, err)
	}

	err = e.db.WithContext(ctx).
		Model(&expense).
		Updates(map[string]any{
			"amount":      in.Amount.Decimal.Round(2),
			"description": in.Description,
			"category":    in.Category,
		}).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to update expense, %w", err)
	}

	expense.Amount = in.Amount.Decimal.Round(2)
	expense.Description = in.Description
	expense.Category = in.Category

	return &expense, nil
}

// Delete removes an expense owned by userID. Someone else's expense and a
// missing one are indistinguishable to the caller.
func (e *Expenses) Delete(ctx context.Context, userID string, expenseID uint) error {
	r := e.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", expenseID, userID).
		Delete(&model.Expense{})
	if r.Error != nil {
		return fmt.Errorf("failed to delete expense, %w", r.Error)
	}

	if r.RowsAffected == 0 {
		return ErrExpenseNotFound
	}

	return nil
}

// List returns every expense of a user in creation order along with the live
// total. A user without expenses gets ErrNoExpenses rather than an empty list.
func (e *Expenses) List(ctx context.Context, userID string) ([]model.Expense, decimal.Decimal, error) {
	var expenses []model.Expense

	err := e.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&expenses).
		Error
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to fetch expenses, %w", err)
	}

	if len(expenses) == 0 {
		return nil, decimal.Zero, ErrNoExpenses
	}

	total := decimal.Zero
	for _, ex := range expenses {
		total = total.Add(ex.Amount)
	}

	return expenses, total, nil
}

// Leaderboard ranks every user with at least one expense by the live sum of
// their amounts, highest first. Ties are broken by user ID ascending.
func (e *Expenses) Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	var entries []model.LeaderboardEntry

	err := e.db.WithContext(ctx).
		Model(model.Expense{}).
		Select("expenses.user_id AS user_id, users.name AS user_name, SUM(expenses.amount) AS total_expense").
		Joins("JOIN users ON users.id = expenses.user_id").
		Group("expenses.user_id, users.name").
		Order("total_expense DESC, expenses.user_id ASC").
		Scan(&entries).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute leaderboard, %w", err)
	}

	for i := range entries {
		entries[i].TotalExpense = entries[i].TotalExpense.Round(2)
	}

	return entries, nil
}

// sumFor must run inside the transaction that holds the owner's lock
func sumFor(tx *gorm.DB, userID string) (decimal.Decimal, error) {
	var sum decimal.Decimal

	err := tx.
		Model(model.Expense{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ?", userID).
		Row().
		Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum expenses, %w", err)
	}

	return sum.Round(2), nil
}
