package service

import (
	"context"
	"errors"
	"testing"

	"github.com/trisend/trisend/internal/app/model"
)

type mockVerifier struct {
	verifyFn func(ctx context.Context, reference string) (*model.Transaction, error)
}

func (m *mockVerifier) Verify(ctx context.Context, reference string) (*model.Transaction, error) {
	return m.verifyFn(ctx, reference)
}

type mockUsers struct {
	upgrades []string
	err      error
}

func (m *mockUsers) UpgradePlan(_ context.Context, userID, plan, reference string) error {
	m.upgrades = append(m.upgrades, userID+":"+plan+":"+reference)
	return m.err
}

func verifierReturning(tx *model.Transaction, err error) *mockVerifier {
	return &mockVerifier{verifyFn: func(context.Context, string) (*model.Transaction, error) {
		return tx, err
	}}
}

func TestPaymentService_VerifyAndUpgrade(t *testing.T) {
	tests := []struct {
		name         string
		verifier     PaymentVerifier
		wantErr      error
		wantUpgrades int
	}{
		{
			name:     "not configured",
			verifier: nil,
			wantErr:  ErrPaymentNotConfigured,
		},
		{
			name:     "failed charge",
			verifier: verifierReturning(&model.Transaction{Status: "failed", Amount: 200000}, nil),
			wantErr:  ErrPaymentNotSuccessful,
		},
		{
			name:     "amount too low",
			verifier: verifierReturning(&model.Transaction{Status: model.TransactionSuccess, Amount: 199999}, nil),
			wantErr:  ErrIncorrectAmount,
		},
		{
			name:         "success",
			verifier:     verifierReturning(&model.Transaction{Status: model.TransactionSuccess, Amount: 200000, Email: "a@b.c"}, nil),
			wantUpgrades: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &mockUsers{}
			svc := NewPaymentService(PaymentDeps{Verifier: tt.verifier, Users: users, MinAmount: 200000})

			tx, err := svc.VerifyAndUpgrade(context.Background(), "ref_1", "u1")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			} else if err != nil || tx == nil {
				t.Fatalf("VerifyAndUpgrade: tx=%v err=%v", tx, err)
			}
			if len(users.upgrades) != tt.wantUpgrades {
				t.Fatalf("upgrades = %v", users.upgrades)
			}
		})
	}
}

func TestPaymentService_GatewayError(t *testing.T) {
	gatewayErr := errors.New("gateway down")
	svc := NewPaymentService(PaymentDeps{Verifier: verifierReturning(nil, gatewayErr), MinAmount: 1})

	if _, err := svc.VerifyAndUpgrade(context.Background(), "ref_1", "u1"); !errors.Is(err, gatewayErr) {
		t.Fatalf("expected wrapped gateway error, got %v", err)
	}
}

func TestPaymentService_ApplyCharge(t *testing.T) {
	users := &mockUsers{}
	svc := NewPaymentService(PaymentDeps{Users: users, MinAmount: 200000})
	ctx := context.Background()

	charges := []*model.Transaction{
		nil,
		{Reference: "r1", Amount: 500000},
		{Reference: "r2", Amount: 100, UserID: "u1"},
		{Reference: "r3", Amount: 200000, UserID: "u2"},
	}
	for _, tx := range charges {
		if err := svc.ApplyCharge(ctx, tx); err != nil {
			t.Fatalf("ApplyCharge: %v", err)
		}
	}

	if len(users.upgrades) != 1 || users.upgrades[0] != "u2:premium:r3" {
		t.Fatalf("upgrades = %v", users.upgrades)
	}
}

func TestPaymentService_NoUserStore(t *testing.T) {
	svc := NewPaymentService(PaymentDeps{
		Verifier:  verifierReturning(&model.Transaction{Status: model.TransactionSuccess, Amount: 300000}, nil),
		MinAmount: 200000,
	})
	if _, err := svc.VerifyAndUpgrade(context.Background(), "ref_1", "u1"); err != nil {
		t.Fatalf("expected success without a user store, got %v", err)
	}
}
