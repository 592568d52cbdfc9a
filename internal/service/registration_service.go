package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/hackfest/registration-backend/internal/db"
	"github.com/hackfest/registration-backend/internal/model"
	"github.com/hackfest/registration-backend/internal/payment"
	"github.com/hackfest/registration-backend/internal/repository"
	"github.com/hackfest/registration-backend/pkg/logger"
)

const (
	// Entry fee in paise (₹1499). Set server-side, never taken from the client.
	RegistrationAmount int64 = 149900

	RegistrationCurrency = "INR"
)

type RegistrationService struct {
	tx db.Transactor

	registrations repository.RegistrationRepository
	gateway       payment.Gateway

	gatewayKeyID  string
	gatewaySecret string
}

func NewRegistrationService(tx db.Transactor) *RegistrationService {
	return &RegistrationService{tx: tx}
}

// Register persists the team and opens a gateway order for the fixed entry
// fee. The registration row is durable before the gateway is contacted; if
// order creation fails, the row is flagged failed rather than removed.
func (s *RegistrationService) Register(ctx context.Context, reg *model.Registration) (*model.Checkout, *Error) {
	l := logger.FromContext(ctx)

	reg.ID = uuid.NewString()
	reg.RegistrationDate = time.Now().UTC()
	reg.PaymentStatus = model.PaymentStatusPending
	reg.Amount = RegistrationAmount

	l.Info("creating registration",
		zap.String("registration_id", reg.ID),
		zap.String("team_name", reg.TeamName),
		zap.Int("members", len(reg.Members)))

	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.registrations.Create(txCtx, &repository.Registration{
			ID:               reg.ID,
			TeamName:         reg.TeamName,
			RegistrationDate: reg.RegistrationDate,
			PaymentStatus:    reg.PaymentStatus,
			Amount:           reg.Amount,
		}); err != nil {
			l.Error("failed to create registration", zap.String("team_name", reg.TeamName), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to register team")
		}

		for i, member := range reg.Members {
			if err := s.registrations.AddMember(txCtx, &repository.Member{
				RegistrationID: reg.ID,
				Position:       i,
				Name:           member.Name,
				Email:          member.Email,
				Phone:          member.Phone,
				Roll:           member.Roll,
				College:        member.College,
			}); err != nil {
				l.Error("failed to add team member",
					zap.String("registration_id", reg.ID),
					zap.Int("position", i),
					zap.Error(err))
				return NewError(ErrorCodeUnspecified, "failed to register team")
			}
		}

		return nil
	})
	if err != nil {
		var res *Error
		if !errors.As(err, &res) {
			l.Error("registration transaction failed", zap.String("registration_id", reg.ID), zap.Error(err))
			res = NewError(ErrorCodeUnspecified, "failed to register team")
		}
		return nil, res
	}

	receipt := fmt.Sprintf("receipt_%s", reg.ID)

	order, err := s.gateway.CreateOrder(ctx, reg.Amount, RegistrationCurrency, receipt)
	if err != nil {
		l.Error("failed to create gateway order",
			zap.String("registration_id", reg.ID),
			zap.String("receipt", receipt),
			zap.Error(err))

		status := model.PaymentStatusFailed
		if _, patchErr := s.registrations.Patch(ctx, &repository.RegistrationPatch{
			ID:            reg.ID,
			PaymentStatus: &status,
		}); patchErr != nil {
			l.Error("failed to flag registration after gateway error",
				zap.String("registration_id", reg.ID),
				zap.Error(patchErr))
		}

		return nil, NewError(ErrorCodeUnspecified, "failed to register team")
	}

	if _, err := s.registrations.Patch(ctx, &repository.RegistrationPatch{
		ID:      reg.ID,
		OrderID: &order.ID,
	}); err != nil {
		l.Error("failed to store order id",
			zap.String("registration_id", reg.ID),
			zap.String("order_id", order.ID),
			zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to register team")
	}

	reg.OrderID = order.ID

	l.Info("registration created",
		zap.String("registration_id", reg.ID),
		zap.String("order_id", order.ID))

	return &model.Checkout{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Key:      s.gatewayKeyID,
	}, nil
}

// VerifyPayment checks the callback signature and, on a match, transitions
// the matching registration pending→completed. Repeated calls with the same
// valid signature succeed and leave the status completed.
func (s *RegistrationService) VerifyPayment(ctx context.Context, orderID, paymentID, signature string) (*model.PaymentResult, *Error) {
	l := logger.FromContext(ctx)

	if !payment.VerifySignature(s.gatewaySecret, orderID, paymentID, signature) {
		l.Warn("payment signature mismatch", zap.String("order_id", orderID))
		return nil, NewError(ErrorCodeSignatureMismatch, "payment verification failed")
	}

	_, err := s.registrations.CompletePayment(ctx, orderID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		reg, getErr := s.registrations.GetByOrderID(ctx, orderID)
		switch {
		case errors.Is(getErr, repository.ErrNotFound):
			// Valid signature for an order we never stored. Report the
			// cryptographic result but leave a trace.
			l.Warn("verified payment for unknown order", zap.String("order_id", orderID))
		case getErr != nil:
			l.Error("failed to look up registration", zap.String("order_id", orderID), zap.Error(getErr))
			return nil, NewError(ErrorCodeUnspecified, "failed to verify payment")
		case reg.PaymentStatus != model.PaymentStatusCompleted:
			l.Error("registration not payable",
				zap.String("order_id", orderID),
				zap.String("payment_status", string(reg.PaymentStatus)))
			return nil, NewError(ErrorCodeUnspecified, "failed to verify payment")
		}
	case err != nil:
		l.Error("failed to complete payment", zap.String("order_id", orderID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to verify payment")
	}

	l.Info("payment verified", zap.String("order_id", orderID), zap.String("payment_id", paymentID))

	return &model.PaymentResult{
		Verified: true,
		OrderID:  orderID,
	}, nil
}

func (s *RegistrationService) ListRegistrations(ctx context.Context) ([]*model.Registration, *Error) {
	l := logger.FromContext(ctx)

	repoRegs, err := s.registrations.List(ctx)
	if err != nil {
		l.Error("failed to list registrations", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to retrieve registrations")
	}

	regs := make([]*model.Registration, 0, len(repoRegs))
	for _, repoReg := range repoRegs {
		repoMembers, err := s.registrations.GetMembers(ctx, repoReg.ID)
		if err != nil {
			l.Error("failed to get team members", zap.String("registration_id", repoReg.ID), zap.Error(err))
			return nil, NewError(ErrorCodeUnspecified, "failed to retrieve registrations")
		}

		members := make([]*model.TeamMember, 0, len(repoMembers))
		for _, m := range repoMembers {
			members = append(members, &model.TeamMember{
				Name:    m.Name,
				Email:   m.Email,
				Phone:   m.Phone,
				Roll:    m.Roll,
				College: m.College,
			})
		}

		reg := &model.Registration{
			ID:               repoReg.ID,
			TeamName:         repoReg.TeamName,
			Members:          members,
			RegistrationDate: repoReg.RegistrationDate,
			PaymentStatus:    repoReg.PaymentStatus,
			Amount:           repoReg.Amount,
		}
		if repoReg.OrderID != nil {
			reg.OrderID = *repoReg.OrderID
		}
		regs = append(regs, reg)
	}

	return regs, nil
}

func (s *RegistrationService) WithRegistrationRepo(r repository.RegistrationRepository) *RegistrationService {
	s.registrations = r
	return s
}

func (s *RegistrationService) WithGateway(g payment.Gateway) *RegistrationService {
	s.gateway = g
	return s
}

// WithGatewayKeys provides the public key id returned to clients and the
// shared secret used for callback verification. The secret never leaves the
// process.
func (s *RegistrationService) WithGatewayKeys(keyID, secret string) *RegistrationService {
	s.gatewayKeyID = keyID
	s.gatewaySecret = secret
	return s
}
