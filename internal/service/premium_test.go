package service

import (
	"bitwise74/expense-api/internal/model"
	"bitwise74/expense-api/razorpay"
	"strings"
)

func (s *ServiceSuite) userPremium(id string) bool {
	var user model.User
	s.Require().NoError(s.db.First(&user, "id = ?", id).Error)
	return user.IsPremium
}

func (s *ServiceSuite) orderCount() int64 {
	var n int64
	s.Require().NoError(s.db.Model(model.Order{}).Count(&n).Error)
	return n
}

func (s *ServiceSuite) TestCreateOrder() {
	id := s.register("Alice", "a@x.com")

	checkout, err := s.premium.CreateOrder(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("rzp_test_key", checkout.KeyID)
	s.EqualValues(50000, checkout.Order.Amount)
	s.Equal("INR", checkout.Order.Currency)
	s.True(strings.HasPrefix(checkout.Order.Receipt, "order_rcptid_"))
}

func (s *ServiceSuite) TestCreateOrderGatewayError() {
	id := s.register("Alice", "a@x.com")
	s.gateway.createErr = errBoom

	_, err := s.premium.CreateOrder(s.ctx, id)
	s.ErrorIs(err, ErrGateway)
}

func (s *ServiceSuite) TestGatewayNotConfigured() {
	id := s.register("Alice", "a@x.com")
	p := NewPremium(s.db, nil, s.tokens, 50000, "INR")

	_, err := p.CreateOrder(s.ctx, id)
	s.ErrorIs(err, ErrGateway)

	_, err = p.ConfirmPayment(s.ctx, id, "pay_1", "order_1")
	s.ErrorIs(err, ErrGateway)
}

func (s *ServiceSuite) TestConfirmPayment() {
	id := s.register("Alice", "a@x.com")

	upgrade, err := s.premium.ConfirmPayment(s.ctx, id, "pay_1", "order_1")
	s.Require().NoError(err)

	s.True(s.userPremium(id))
	s.Equal("pay_1", upgrade.Order.PaymentID)
	s.Equal("order_1", upgrade.Order.OrderID)
	s.Equal(model.OrderStatusSuccess, upgrade.Order.Status)
	s.EqualValues(1, s.orderCount())

	identity, err := s.tokens.ParseSession(upgrade.Session.Token)
	s.Require().NoError(err)
	s.Equal(id, identity.UserID)
	s.True(identity.IsPremium)
}

func (s *ServiceSuite) TestConfirmPaymentIsIdempotent() {
	id := s.register("Alice", "a@x.com")

	first, err := s.premium.ConfirmPayment(s.ctx, id, "pay_1", "order_1")
	s.Require().NoError(err)

	second, err := s.premium.ConfirmPayment(s.ctx, id, "pay_1", "order_1")
	s.Require().NoError(err)

	s.Equal(first.Order.ID, second.Order.ID)
	s.EqualValues(1, s.orderCount())
}

func (s *ServiceSuite) TestConfirmPaymentNotCaptured() {
	id := s.register("Alice", "a@x.com")

	for _, status := range []string{"created", "authorized", "failed", "refunded"} {
		s.gateway.payment.Status = status

		upgrade, err := s.premium.ConfirmPayment(s.ctx, id, "pay_1", "order_1")
		s.ErrorIs(err, ErrPaymentNotCaptured)
		s.Nil(upgrade)
	}

	s.False(s.userPremium(id))
	s.Zero(s.orderCount())
}

func (s *ServiceSuite) TestConfirmPaymentRejectsBadPayload() {
	id := s.register("Alice", "a@x.com")

	_, err := s.premium.ConfirmPayment(s.ctx, id, "", "order_1")
	s.ErrorIs(err, ErrInvalidPayload)

	_, err = s.premium.ConfirmPayment(s.ctx, id, "pay_1", "")
	s.ErrorIs(err, ErrInvalidPayload)

	// Captured, but for another order
	_, err = s.premium.ConfirmPayment(s.ctx, id, "pay_1", "order_2")
	s.ErrorIs(err, ErrInvalidPayload)

	// Gateway didn't say which order the payment belongs to
	s.gateway.payment = &razorpay.Payment{Amount: 50000, Status: razorpay.StatusCaptured}
	_, err = s.premium.ConfirmPayment(s.ctx, id, "pay_1", "order_1")
	s.ErrorIs(err, ErrInvalidPayload)

	s.gateway.payment = &razorpay.Payment{OrderID: "order_1", Amount: 100, Status: razorpay.StatusCaptured}
	_, err = s.premium.ConfirmPayment(s.ctx, id, "pay_1", "order_1")
	s.ErrorIs(err, ErrInvalidPayload)

	s.False(s.userPremium(id))
	s.Zero(s.orderCount())
}

func (s *ServiceSuite) TestConfirmPaymentGatewayError() {
	id := s.register("Alice", "a@x.com")
	s.gateway.fetchErr = errBoom

	_, err := s.premium.ConfirmPayment(s.ctx, id, "pay_1", "order_1")
	s.ErrorIs(err, ErrGateway)
	s.False(s.userPremium(id))
}

func (s *ServiceSuite) TestPaymentCantBeReusedByAnotherUser() {
	alice := s.register("Alice", "a@x.com")
	bob := s.register("Bob", "b@x.com")

	_, err := s.premium.ConfirmPayment(s.ctx, alice, "pay_1", "order_1")
	s.Require().NoError(err)

	_, err = s.premium.ConfirmPayment(s.ctx, bob, "pay_1", "order_1")
	s.ErrorIs(err, ErrInvalidPayload)
	s.False(s.userPremium(bob))
}

func (s *ServiceSuite) TestConfirmPaymentUnknownUser() {
	_, err := s.premium.ConfirmPayment(s.ctx, "ghost", "pay_1", "order_1")
	s.ErrorIs(err, ErrUserNotFound)
	s.Zero(s.orderCount())
}

func (s *ServiceSuite) TestOrders() {
	id := s.register("Alice", "a@x.com")

	orders, err := s.premium.Orders(s.ctx, id)
	s.Require().NoError(err)
	s.Empty(orders)
	s.NotNil(orders)

	_, err = s.premium.ConfirmPayment(s.ctx, id, "pay_1", "order_1")
	s.Require().NoError(err)

	orders, err = s.premium.Orders(s.ctx, id)
	s.Require().NoError(err)
	s.Require().Len(orders, 1)
	s.Equal("pay_1", orders[0].PaymentID)
}
