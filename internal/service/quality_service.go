package service

import (
	"context"
	"time"

	"rmc-erp/internal/apperr"
	"rmc-erp/internal/entity"
	"rmc-erp/internal/quality"
)

type QualityService struct {
	orders OrderStore
	users  UserStore
	now    func() time.Time
}

func NewQualityService(orders OrderStore, users UserStore) *QualityService {
	return &QualityService{orders: orders, users: users, now: time.Now}
}

// ListForUser returns the quality records of the user's produced orders.
func (s *QualityService) ListForUser(ctx context.Context, userID int64) ([]entity.QualityRecord, error) {
	orders, err := s.orders.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return quality.EvaluateAll(orders, s.now()), nil
}

// Certificate renders the quality certificate of one of the user's orders.
func (s *QualityService) Certificate(ctx context.Context, userID int64, orderID string) (string, error) {
	order, err := s.orders.GetOrderByOrderID(ctx, orderID)
	if err != nil {
		return "", err
	}
	if order.UserID != userID {
		return "", apperr.ErrOrderNotFound
	}
	rec, ok := quality.Evaluate(*order, s.now())
	if !ok {
		return "", quality.ErrCertificateUnavailable
	}
	customer, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return quality.RenderCertificate(quality.CertificateInput{Record: rec, Customer: *customer})
}
