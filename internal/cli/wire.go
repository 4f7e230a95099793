package cli

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/budgettracker/budget-tracker/internal/core/service"
	"github.com/budgettracker/budget-tracker/internal/infrastructure/apiclient"
	"github.com/budgettracker/budget-tracker/internal/infrastructure/gateway"
	"github.com/budgettracker/budget-tracker/internal/infrastructure/tokenstore"
	"github.com/budgettracker/budget-tracker/internal/pkg/config"
)

// Build wires the API client, token store, gateways and services for cfg.
// The returned close func releases the token store.
func Build(ctx context.Context, cfg *config.ClientConfig, log zerolog.Logger, stdin io.Reader, stdout, stderr io.Writer) (*App, func() error, error) {
	baseURL := config.ResolveBaseURL(cfg.RawAPIURL(), log)
	client := apiclient.New(baseURL,
		log.With().Str("component", "apiclient").Logger(),
		apiclient.WithTimeout(cfg.HTTPTimeout),
	)

	tokens, closeStore, err := tokenstore.Open(ctx, cfg, log)
	if err != nil {
		return nil, closeStore, err
	}

	session := service.NewSessionService(tokens,
		gateway.NewAuth(client),
		gateway.NewUsers(client),
		client,
		log.With().Str("component", "session").Logger(),
	)

	log.Debug().Str("base_url", baseURL).Str("token_store", cfg.TokenStore).Msg("client wired")
	return New(Deps{
		Session:      session,
		Transactions: gateway.NewTransactions(client),
		Reports:      gateway.NewReports(client),
		ToastTTL:     cfg.ToastTTL,
		In:           stdin,
		Out:          stdout,
		Err:          stderr,
		Log:          log.With().Str("component", "dashboard").Logger(),
	}), closeStore, nil
}
