package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pressrank/pressrank/internal/apperr"
	"github.com/pressrank/pressrank/internal/domain"
	"github.com/pressrank/pressrank/internal/dto"
	"github.com/pressrank/pressrank/internal/events"
	"github.com/pressrank/pressrank/internal/repository"
	"github.com/pressrank/pressrank/pkg/export"
)

type donationService struct {
	donationRepo repository.DonationRepository
	userRepo     repository.UserRepository
	gateway      PaymentGateway
	exporter     *export.ReceiptExporter
	publisher    *events.Publisher
	logger       *zap.Logger
}

// NewDonationService creates the donation service. gateway may be nil when no
// payment provider is configured; donations are then recorded as pending
// without a checkout URL.
func NewDonationService(
	donationRepo repository.DonationRepository,
	userRepo repository.UserRepository,
	gateway PaymentGateway,
	exporter *export.ReceiptExporter,
	publisher *events.Publisher,
	logger *zap.Logger,
) DonationService {
	return &donationService{
		donationRepo: donationRepo,
		userRepo:     userRepo,
		gateway:      gateway,
		exporter:     exporter,
		publisher:    publisher,
		logger:       logger,
	}
}

// CreateDonation records a pending donation and opens a checkout session with
// the payment gateway. The generated reference is the idempotency key the
// gateway echoes back in its webhook.
func (s *donationService) CreateDonation(ctx context.Context, userID int64, req *dto.CreateDonationRequest) (*domain.Donation, error) {
	donation := &domain.Donation{
		UserID:      userID,
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		Status:      domain.DonationPending,
		Reference:   uuid.NewString(),
	}

	if s.gateway != nil {
		checkoutURL, err := s.gateway.CreateCheckout(ctx, donation.Reference, donation.AmountCents, donation.Currency)
		if err != nil {
			return nil, apperr.Wrap(err, apperr.KindInternal, "failed to start checkout")
		}
		donation.CheckoutURL = &checkoutURL
	}

	if err := s.donationRepo.Create(ctx, donation); err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to record donation")
	}

	s.logger.Info("donation created",
		zap.Int64("donation_id", donation.ID),
		zap.Int64("user_id", userID),
		zap.String("reference", donation.Reference))
	return donation, nil
}

// HandleGatewayUpdate applies a gateway status callback. Completed donations
// emit a broker event; replayed callbacks for an already settled donation are
// ignored.
func (s *donationService) HandleGatewayUpdate(ctx context.Context, req *dto.DonationWebhookRequest) error {
	donation, err := s.donationRepo.GetByReference(ctx, req.Reference)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.New(apperr.KindNotFound, "donation not found")
		}
		return apperr.Wrap(err, apperr.KindInternal, "failed to look up donation")
	}

	if donation.Status != domain.DonationPending {
		s.logger.Info("ignoring gateway callback for settled donation",
			zap.String("reference", req.Reference),
			zap.String("status", donation.Status))
		return nil
	}

	if err := s.donationRepo.UpdateStatusByReference(ctx, req.Reference, req.Status); err != nil {
		return apperr.Wrap(err, apperr.KindInternal, "failed to update donation status")
	}

	if req.Status == domain.DonationCompleted {
		event := events.DonationCompletedEvent{
			EventID:     uuid.NewString(),
			DonationID:  donation.ID,
			UserID:      donation.UserID,
			AmountCents: donation.AmountCents,
			Currency:    donation.Currency,
			Reference:   donation.Reference,
			CompletedAt: time.Now().UTC(),
		}
		_ = s.publisher.Publish(ctx, events.QueueDonationCompleted, event)
	}

	s.logger.Info("donation status updated",
		zap.String("reference", req.Reference),
		zap.String("status", req.Status))
	return nil
}

func (s *donationService) ListDonations(ctx context.Context, userID int64) ([]*domain.Donation, error) {
	donations, err := s.donationRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to list donations")
	}
	return donations, nil
}

// Receipt renders a PDF receipt for a completed donation owned by userID.
func (s *donationService) Receipt(ctx context.Context, userID, donationID int64) ([]byte, error) {
	donation, err := s.donationRepo.GetByID(ctx, donationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "donation not found")
		}
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to look up donation")
	}

	if donation.UserID != userID {
		return nil, apperr.ErrForbidden
	}
	if donation.Status != domain.DonationCompleted {
		return nil, apperr.New(apperr.KindValidation, "receipt is only available for completed donations")
	}

	user, err := s.userRepo.GetByID(ctx, donation.UserID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to look up donor")
	}

	pdf, err := s.exporter.Render(export.Receipt{
		Reference:   donation.Reference,
		DonorName:   user.Name,
		DonorEmail:  user.Email,
		AmountCents: donation.AmountCents,
		Currency:    donation.Currency,
		CompletedAt: donation.UpdatedAt,
	})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to render receipt")
	}

	return pdf, nil
}
