package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	apperrors "ledgersync/internal/errors"
	"ledgersync/internal/logger"
	"ledgersync/internal/provider"
)

// webhookService decodes provider deliveries and feeds them to the ledger.
type webhookService struct {
	ledger     LedgerServicer
	categories CategoryServicer
	log        *zap.SugaredLogger
}

// NewWebhookService creates a new WebhookServicer.
func NewWebhookService(ledger LedgerServicer, categories CategoryServicer) WebhookServicer {
	return &webhookService{
		ledger:     ledger,
		categories: categories,
		log:        logger.Named("webhook"),
	}
}

// Ingest applies one delivery. Payloads that can never succeed (malformed,
// unknown records) are dropped with a nil error so the provider stops
// redelivering; anything else is returned for the caller to fail the
// delivery.
func (s *webhookService) Ingest(ctx context.Context, bankCode string, body []byte) (*IngestResult, error) {
	bankCode = strings.ToUpper(strings.TrimSpace(bankCode))
	if bankCode == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "bank code is required")
	}

	env, err := provider.ParseEnvelope(body)
	if err != nil {
		return s.drop("", "", err), nil
	}

	switch env.Event {
	case provider.EventTransactionCreated:
		return s.ingestCreated(ctx, bankCode, env)
	case provider.EventTransactionStateChanged:
		return s.ingestStateChanged(ctx, bankCode, env)
	default:
		s.log.Infow("ignoring unsupported webhook event", "event", env.Event, "bank_code", bankCode)
		return &IngestResult{Event: env.Event, EventID: env.ID, Outcome: OutcomeIgnored, Propagate: true}, nil
	}
}

func (s *webhookService) ingestCreated(ctx context.Context, bankCode string, env *provider.Envelope) (*IngestResult, error) {
	data, err := env.DecodeCreated()
	if err != nil {
		return s.drop(env.Event, env.ID, err), nil
	}
	eventID := env.CreatedEventID(data.ID)

	res, err := s.ledger.OnCreatedEvent(ctx, CreatedEvent{EventID: eventID, BankCode: bankCode, Data: data})
	if err != nil {
		if droppable(err) {
			return s.drop(env.Event, eventID, err), nil
		}
		return nil, err
	}

	result := &IngestResult{
		Event:         env.Event,
		EventID:       eventID,
		Outcome:       res.Outcome,
		TransactionID: res.Transaction.ID,
		Propagate:     true,
	}

	// Classification is idempotent, so a redelivery also heals a
	// classification that failed after the transaction was committed.
	classification, err := s.categories.ApplyClassification(ctx, res.Transaction.ID)
	if err != nil {
		return nil, err
	}
	for _, c := range classification.Categories {
		result.Categories = append(result.Categories, c.Name)
	}
	result.Propagate = classification.Propagate
	return result, nil
}

func (s *webhookService) ingestStateChanged(ctx context.Context, bankCode string, env *provider.Envelope) (*IngestResult, error) {
	data, err := env.DecodeStateChanged()
	if err != nil {
		return s.drop(env.Event, env.ID, err), nil
	}
	status := data.Status()
	eventID := env.StateChangedEventID(data.ID, status)

	res, err := s.ledger.OnStateChangedEvent(ctx, StateChangedEvent{
		EventID:     eventID,
		ExternalID:  data.ID,
		BankCode:    bankCode,
		Status:      status,
		CompletedAt: data.CompletedAt,
	})
	if err != nil {
		if droppable(err) {
			return s.drop(env.Event, eventID, err), nil
		}
		return nil, err
	}

	result := &IngestResult{Event: env.Event, EventID: eventID, Outcome: res.Outcome, Propagate: true}
	if res.Transaction != nil {
		result.TransactionID = res.Transaction.ID
		loaded, err := s.ledger.GetTransactionByID(ctx, res.Transaction.ID)
		if err != nil {
			return nil, err
		}
		for _, tc := range loaded.Categories {
			result.Categories = append(result.Categories, tc.Category.Name)
		}
		result.Propagate = loaded.Propagate()
	}
	return result, nil
}

func (s *webhookService) drop(event, eventID string, err error) *IngestResult {
	s.log.Warnw("dropping webhook delivery", "event", event, "event_id", eventID, "error", err)
	return &IngestResult{Event: event, EventID: eventID, Outcome: OutcomeDropped, Reason: err.Error()}
}

// droppable reports errors that redelivery cannot fix.
func droppable(err error) bool {
	return apperrors.IsValidation(err) || apperrors.IsNotFound(err)
}
