package service

import (
	"bitwise74/expense-api/internal/model"
	"bitwise74/expense-api/pkg/security"
	"bitwise74/expense-api/razorpay"
	"context"
	"errors"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PaymentGateway is the external service that takes the money
type PaymentGateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*razorpay.Order, error)
	FetchPayment(ctx context.Context, paymentID string) (*razorpay.Payment, error)
}

// Checkout is everything the client needs to open the gateway's payment form
type Checkout struct {
	KeyID string          `json:"key_id"`
	Order *razorpay.Order `json:"order"`
}

// Upgrade is the result of a confirmed purchase. The session replaces the
// caller's old token, which still claims the account isn't premium.
type Upgrade struct {
	Session *security.Session
	Order   *model.Order
}

// Premium runs the one-time purchase that unlocks premium features. Gateway
// failures are never retried, the client starts over from CreateOrder.
type Premium struct {
	db       *gorm.DB
	gateway  PaymentGateway
	tokens   *security.Tokens
	price    int64
	currency string
}

func NewPremium(db *gorm.DB, gateway PaymentGateway, tokens *security.Tokens, price int64, currency string) *Premium {
	return &Premium{
		db:       db,
		gateway:  gateway,
		tokens:   tokens,
		price:    price,
		currency: currency,
	}
}

// CreateOrder opens a gateway order for the fixed premium price
func (p *Premium) CreateOrder(ctx context.Context, userID string) (*Checkout, error) {
	if p.gateway == nil {
		return nil, fmt.Errorf("%w, gateway isn't configured", ErrGateway)
	}

	receiptID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate receipt ID, %w", err)
	}

	order, err := p.gateway.CreateOrder(ctx, p.price, p.currency, "order_rcptid_"+receiptID)
	if err != nil {
		return nil, fmt.Errorf("%w, %w", ErrGateway, err)
	}

	zap.L().Debug("Gateway order created", zap.String("userID", userID), zap.String("orderID", order.ID))

	return &Checkout{
		KeyID: p.gateway.KeyID(),
		Order: order,
	}, nil
}

// ConfirmPayment verifies with the gateway that paymentID was captured and
// then flips the premium flag and records the order in one transaction.
// Confirming the same payment twice returns the order recorded the first time.
func (p *Premium) ConfirmPayment(ctx context.Context, userID, paymentID, orderID string) (*Upgrade, error) {
	if paymentID == "" || orderID == "" {
		return nil, ErrInvalidPayload
	}

	if p.gateway == nil {
		return nil, fmt.Errorf("%w, gateway isn't configured", ErrGateway)
	}

	payment, err := p.gateway.FetchPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("%w, %w", ErrGateway, err)
	}

	if payment.Status != razorpay.StatusCaptured {
		return nil, ErrPaymentNotCaptured
	}

	if payment.OrderID != orderID {
		return nil, fmt.Errorf("%w, payment doesn't belong to this order", ErrInvalidPayload)
	}

	if payment.Amount < p.price {
		return nil, fmt.Errorf("%w, payment amount is below the premium price", ErrInvalidPayload)
	}

	var order model.Order

	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("payment_id = ?", paymentID).First(&order).Error
		if err == nil {
			if order.UserID != userID {
				return fmt.Errorf("%w, payment was already used", ErrInvalidPayload)
			}

			// Replayed confirmation, make sure the flag is set and move on
			return tx.Model(model.User{}).Where("id = ?", userID).Update("is_premium", true).Error
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up order, %w", err)
		}

		var user model.User
		if err := tx.Select("id").Where("id = ?", userID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}

			return fmt.Errorf("failed to fetch user, %w", err)
		}

		if err := tx.Model(&user).Update("is_premium", true).Error; err != nil {
			return fmt.Errorf("failed to update premium status, %w", err)
		}

		order = model.Order{
			OrderID:   orderID,
			PaymentID: paymentID,
			Status:    model.OrderStatusSuccess,
			UserID:    userID,
		}

		if err := tx.Create(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w, order was already recorded", ErrInvalidPayload)
			}

			return fmt.Errorf("failed to record order, %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	session, err := p.tokens.IssueSession(userID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token, %w", err)
	}

	return &Upgrade{
		Session: session,
		Order:   &order,
	}, nil
}

// Orders lists the purchases recorded for a user, newest first
func (p *Premium) Orders(ctx context.Context, userID string) ([]model.Order, error) {
	orders := []model.Order{}

	err := p.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id desc").
		Find(&orders).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders, %w", err)
	}

	return orders, nil
}
