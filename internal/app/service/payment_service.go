package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/trisend/trisend/internal/app/model"
	"github.com/trisend/trisend/internal/app/repository"
	"go.uber.org/zap"
)

var (
	ErrPaymentNotConfigured = errors.New("payment service not configured")
	ErrPaymentNotSuccessful = errors.New("payment not successful")
	ErrIncorrectAmount      = errors.New("incorrect payment amount")
)

// PaymentVerifier checks a transaction reference with the payment gateway.
type PaymentVerifier interface {
	Verify(ctx context.Context, reference string) (*model.Transaction, error)
}

// PaymentDeps groups the collaborators of a PaymentService.
type PaymentDeps struct {
	Logger   *zap.Logger
	Verifier PaymentVerifier
	// Users is nil when only the read-only store is available.
	Users     repository.UserRepository
	MinAmount int64
}

// PaymentService upgrades accounts after verified payments.
type PaymentService struct {
	logger    *zap.Logger
	verifier  PaymentVerifier
	users     repository.UserRepository
	minAmount int64
}

// NewPaymentService returns a PaymentService.
func NewPaymentService(deps PaymentDeps) *PaymentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		logger:    logger,
		verifier:  deps.Verifier,
		users:     deps.Users,
		minAmount: deps.MinAmount,
	}
}

// Configured reports whether a gateway verifier is available.
func (s *PaymentService) Configured() bool {
	return s.verifier != nil
}

// VerifyAndUpgrade verifies reference and moves userID to the premium plan.
func (s *PaymentService) VerifyAndUpgrade(ctx context.Context, reference, userID string) (*model.Transaction, error) {
	if s.verifier == nil {
		return nil, ErrPaymentNotConfigured
	}

	tx, err := s.verifier.Verify(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("verify payment: %w", err)
	}
	if tx.Status != model.TransactionSuccess {
		return nil, ErrPaymentNotSuccessful
	}
	if tx.Amount < s.minAmount {
		return nil, ErrIncorrectAmount
	}

	if err := s.upgrade(ctx, userID, reference); err != nil {
		return nil, err
	}

	s.logger.Info("payment verified",
		zap.String("reference", reference),
		zap.String("user_id", userID),
		zap.Int64("amount", tx.Amount),
	)
	return tx, nil
}

// ApplyCharge upgrades the user named in a successful webhook charge.
// Charges below the minimum or without a user id are ignored.
func (s *PaymentService) ApplyCharge(ctx context.Context, tx *model.Transaction) error {
	if tx == nil || tx.UserID == "" || tx.Amount < s.minAmount {
		return nil
	}
	if err := s.upgrade(ctx, tx.UserID, tx.Reference); err != nil {
		return err
	}
	s.logger.Info("premium via webhook", zap.String("user_id", tx.UserID), zap.String("reference", tx.Reference))
	return nil
}

func (s *PaymentService) upgrade(ctx context.Context, userID, reference string) error {
	if s.users == nil {
		s.logger.Warn("no user store, skipping plan upgrade", zap.String("user_id", userID))
		return nil
	}
	if err := s.users.UpgradePlan(ctx, userID, model.PlanPremium, reference); err != nil {
		return fmt.Errorf("upgrade plan: %w", err)
	}
	return nil
}
