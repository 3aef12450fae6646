// Package premium serves the purchase flow and the premium-only features
package premium

import (
	"bitwise74/expense-api/app/respond"
	"bitwise74/expense-api/internal"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type confirmBody struct {
	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id"`
}

// PremiumBuy opens a gateway order for the caller
func PremiumBuy(c *gin.Context, d *internal.Deps) {
	checkout, err := d.Premium.CreateOrder(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, checkout)
}

// PremiumConfirm verifies the payment and hands back a token with the premium flag set
func PremiumConfirm(c *gin.Context, d *internal.Deps) {
	var data confirmBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID := c.GetString("userID")

	upgrade, err := d.Premium.ConfirmPayment(c.Request.Context(), userID, data.PaymentID, data.OrderID)
	if err != nil {
		respond.Error(c, err)
		return
	}

	zap.L().Info("Premium purchased", zap.String("userID", userID), zap.String("orderID", upgrade.Order.OrderID))

	respond.OK(c, http.StatusOK, gin.H{
		"message":   "Transaction successful",
		"token":     upgrade.Session.Token,
		"expiresAt": upgrade.Session.ExpiresAt,
		"order":     upgrade.Order,
	})
}

func PremiumOrders(c *gin.Context, d *internal.Deps) {
	orders, err := d.Premium.Orders(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.OK(c, http.StatusOK, gin.H{"orders": orders})
}
