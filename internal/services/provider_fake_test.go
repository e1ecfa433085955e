package services

import (
	"context"
	"fmt"
	"sync"

	"ledgersync/internal/provider"
)

// fakeProvider records outbound calls and answers from canned data.
type fakeProvider struct {
	mu sync.Mutex

	counterpartyCalls int
	draftCalls        int
	detailCalls       int

	counterpartyErr error
	draftErr        error
	detailsErr      error

	details map[string][]provider.AccountBankDetails

	lastCounterparty  provider.CounterpartyRequest
	lastDraft         provider.PaymentDraftRequest
	lastDraftResponse *provider.PaymentDraft
}

var _ provider.API = (*fakeProvider)(nil)

func (f *fakeProvider) CreateCounterparty(ctx context.Context, req provider.CounterpartyRequest) (*provider.Counterparty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counterpartyCalls++
	f.lastCounterparty = req
	if f.counterpartyErr != nil {
		return nil, f.counterpartyErr
	}
	return &provider.Counterparty{ID: fmt.Sprintf("cp-%d", f.counterpartyCalls), Name: req.CompanyName}, nil
}

func (f *fakeProvider) CreatePaymentDraft(ctx context.Context, req provider.PaymentDraftRequest) (*provider.PaymentDraft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draftCalls++
	f.lastDraft = req
	if f.draftErr != nil {
		return nil, f.draftErr
	}
	draft := &provider.PaymentDraft{ID: fmt.Sprintf("draft-%d", f.draftCalls)}
	for i := range req.Payments {
		draft.Payments = append(draft.Payments, provider.PaymentRef{ID: fmt.Sprintf("pay-%d-%d", f.draftCalls, i+1)})
	}
	f.lastDraftResponse = draft
	return draft, nil
}

func (f *fakeProvider) GetAccountBankDetails(ctx context.Context, accountID string) ([]provider.AccountBankDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls++
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	return f.details[accountID], nil
}

func (f *fakeProvider) calls() (counterparties, drafts, details int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counterpartyCalls, f.draftCalls, f.detailCalls
}
