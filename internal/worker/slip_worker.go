package worker

// slip_worker.go
// Renders the purchase slip PDF of an approved request and mails it to the
// requester.

import (
	"context"
	"encoding/json"
	"fmt"

	"schoolfood/internal/infra"
	"schoolfood/internal/model"
	"schoolfood/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type SlipJobPayload struct {
	RequestID string `json:"request_id"`
}

// SlipMailer is satisfied by *infra.Mailer.
type SlipMailer interface {
	Enabled() bool
	SendPurchaseSlip(to, subject, body, pdfPath string) error
}

type SlipWorker struct {
	requests    repository.PurchaseRequestRepository
	users       repository.UserRepository
	mailer      SlipMailer
	storagePath string
	// render is swapped in tests.
	render func(req *model.PurchaseRequest, parties infra.SlipParties, storagePath string) (string, error)
}

func NewSlipWorker(
	requests repository.PurchaseRequestRepository,
	users repository.UserRepository,
	mailer SlipMailer,
	storagePath string,
) *SlipWorker {
	return &SlipWorker{
		requests:    requests,
		users:       users,
		mailer:      mailer,
		storagePath: storagePath,
		render:      infra.GeneratePurchaseSlipPDF,
	}
}

func (w *SlipWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload SlipJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("slip_worker: invalid payload")
		return nil
	}
	id, err := uuid.Parse(payload.RequestID)
	if err != nil {
		log.Error().Str("request_id", payload.RequestID).Msg("slip_worker: invalid request_id")
		return nil
	}

	req, err := w.requests.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load purchase request: %w", err)
	}
	if req.Status != model.PurchaseApproved {
		log.Warn().Str("request_id", payload.RequestID).Str("status", req.Status).Msg("slip_worker: request not approved, skipping")
		return nil
	}

	parties := infra.SlipParties{}
	if req.Requester != nil {
		parties.Requester = req.Requester.Username
	}
	if req.ApprovedBy != nil {
		if approver, err := w.users.FindByID(ctx, *req.ApprovedBy); err == nil {
			parties.Approver = approver.Username
		}
	}

	path, err := w.render(req, parties, w.storagePath)
	if err != nil {
		return err
	}
	log.Info().Str("request_id", payload.RequestID).Str("path", path).Msg("slip_worker: slip generated")

	if w.mailer == nil || !w.mailer.Enabled() || req.Requester == nil || req.Requester.Email == nil {
		return nil
	}
	subject := fmt.Sprintf("Purchase approved: %s", req.IngredientName)
	body := fmt.Sprintf("Your request for %s %s of %s was approved. The purchase slip is attached.",
		req.Quantity, req.Unit, req.IngredientName)
	if err := w.mailer.SendPurchaseSlip(*req.Requester.Email, subject, body, path); err != nil {
		log.Warn().Err(err).Str("request_id", payload.RequestID).Msg("slip_worker: e-mail not sent")
	}
	return nil
}
