// Package app assembles the service graph shared by the HTTP server and the
// sync CLI.
package app

import (
	"context"
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"ledgersync/internal/config"
	"ledgersync/internal/lock"
	"ledgersync/internal/logger"
	"ledgersync/internal/provider"
	"ledgersync/internal/rules"
	"ledgersync/internal/services"
)

// Services is the wired service graph.
type Services struct {
	Provider        provider.API
	Locker          lock.Locker
	Accounts        services.BankAccountServicer
	Audit           services.AuditServicer
	Ledger          services.LedgerServicer
	Categories      services.CategoryServicer
	Webhooks        services.WebhookServicer
	BeneficiarySync services.BeneficiarySyncServicer
	PaymentDrafts   services.PaymentDraftServicer

	closers []func() error
}

// NewServices wires every service on top of db. A configured RedisURL
// selects the distributed locker; without it locks are process-local.
func NewServices(ctx context.Context, cfg *config.Config, db *gorm.DB) (*Services, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.Named("app")
	s := &Services{}

	if cfg.RedisURL != "" {
		opts := lock.DefaultRedisOptions()
		opts.Expiry = cfg.LockExpiry
		locker, client, err := lock.NewRedisLockerFromURL(ctx, cfg.RedisURL, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		s.Locker = locker
		s.closers = append(s.closers, client.Close)
		log.Infow("using redis locks", "expiry", opts.Expiry.String())
	} else {
		s.Locker = lock.NewLocalLocker()
		log.Warn("REDIS_URL not set; using process-local locks, run a single instance only")
	}

	if cfg.ProviderAccessToken == "" {
		log.Warn("PROVIDER_ACCESS_TOKEN not set; provider calls will be rejected")
	}
	s.Provider = provider.NewClient(cfg.ProviderBaseURL, cfg.ProviderAccessToken,
		&http.Client{Timeout: cfg.ProviderTimeout})

	engine := rules.Default()
	s.Accounts = services.NewBankAccountService(db)
	s.Audit = services.NewAuditService(db)
	s.Ledger = services.NewLedgerService(db, s.Locker, s.Accounts, s.Provider)
	s.Categories = services.NewCategoryService(db, engine)
	s.Webhooks = services.NewWebhookService(s.Ledger, s.Categories)
	s.BeneficiarySync = services.NewBeneficiarySyncService(db, s.Provider, s.Locker, s.Accounts, s.Audit, cfg.ProviderBankCode)
	s.PaymentDrafts = services.NewPaymentDraftService(db, s.Provider, s.Locker, s.Accounts, s.Audit, cfg.ProviderBankCode, cfg.PaymentLeadDays)

	return s, nil
}

// Close releases connections opened by NewServices.
func (s *Services) Close() {
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil {
			logger.Get().Warnf("close error: %v", err)
		}
	}
}
