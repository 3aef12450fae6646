// Package expense serves the per-user expense endpoints
package expense

import (
	"bitwise74/expense-api/app/respond"
	"bitwise74/expense-api/internal"
	"bitwise74/expense-api/pkg/validators"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func ExpenseAdd(c *gin.Context, d *internal.Deps) {
	var data validators.ExpenseInput
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	expense, err := d.Expenses.Add(c.Request.Context(), c.GetString("userID"), data)
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.OK(c, http.StatusCreated, gin.H{"expense": expense})
}

func ExpenseEdit(c *gin.Context, d *internal.Deps) {
	id, ok := expenseID(c)
	if !ok {
		return
	}

	var data validators.ExpenseInput
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	expense, err := d.Expenses.Edit(c.Request.Context(), c.GetString("userID"), id, data)
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.OK(c, http.StatusOK, gin.H{"expense": expense})
}

func ExpenseDelete(c *gin.Context, d *internal.Deps) {
	id, ok := expenseID(c)
	if !ok {
		return
	}

	if err := d.Expenses.Delete(c.Request.Context(), c.GetString("userID"), id); err != nil {
		respond.Error(c, err)
		return
	}

	respond.OK(c, http.StatusOK, gin.H{"message": "Expense deleted"})
}

func ExpenseList(c *gin.Context, d *internal.Deps) {
	expenses, total, err := d.Expenses.List(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.OK(c, http.StatusOK, gin.H{
		"expenses": expenses,
		"total":    total,
	})
}

// expenseID parses :id. A malformed id can't belong to anyone so it gets
// the same answer as someone else's expense.
func expenseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respond.Fail(c, http.StatusNotFound, "expense not found or unauthorized")
		return 0, false
	}

	return uint(id), true
}
