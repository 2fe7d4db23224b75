package app

import (
	"context"
	"errors"
	"fmt"

	"tf2automatic/internal/agent"
	"tf2automatic/internal/builder"
	"tf2automatic/internal/cart"
	brcfg "tf2automatic/internal/config"
	"tf2automatic/internal/evaluator"
	"tf2automatic/internal/gateway/notifier"
	"tf2automatic/internal/gateway/reputation"
	"tf2automatic/internal/inventory"
	"tf2automatic/internal/logger"
	"tf2automatic/internal/offer"
	"tf2automatic/internal/pricelist"
	"tf2automatic/internal/store"
	"tf2automatic/internal/store/gormstore"
	"tf2automatic/internal/store/offerlog"
	apihttp "tf2automatic/internal/transport/http/api"
)

// checker answers both partner questions the evaluator and builder ask.
type checker interface {
	evaluator.EscrowChecker
	evaluator.BanChecker
}

type stores struct {
	decisions store.DecisionRepository
	offers    store.OfferLog
}

func (s stores) close() error {
	var errs []error
	if s.decisions != nil {
		errs = append(errs, s.decisions.Close())
	}
	if s.offers != nil {
		errs = append(errs, s.offers.Close())
	}
	return errors.Join(errs...)
}

type AppBuilder struct {
	cfg *brcfg.Config

	catalogFn    func(brcfg.PricelistConfig) (*pricelist.Catalog, error)
	storesFn     func(brcfg.StoreConfig) (stores, error)
	reputationFn func(brcfg.ReputationConfig) checker
	notifierFn   func(brcfg.NotifyConfig) notifier.TextNotifier

	transport offer.Transport
	messenger builder.Messenger
	inventory *inventory.Memory
}

type AppBuilderOption func(*AppBuilder)

// WithTransport sets the trade offer transport used to send built offers.
func WithTransport(t offer.Transport) AppBuilderOption {
	return func(b *AppBuilder) { b.transport = t }
}

// WithMessenger sets where partner chat replies are delivered.
func WithMessenger(m builder.Messenger) AppBuilderOption {
	return func(b *AppBuilder) { b.messenger = m }
}

// WithInventory shares an inventory cache the caller keeps populated.
func WithInventory(inv *inventory.Memory) AppBuilderOption {
	return func(b *AppBuilder) { b.inventory = inv }
}

// WithCatalog replaces the file-backed pricelist.
func WithCatalog(c *pricelist.Catalog) AppBuilderOption {
	return func(b *AppBuilder) {
		b.catalogFn = func(brcfg.PricelistConfig) (*pricelist.Catalog, error) { return c, nil }
	}
}

// WithoutPersistence keeps decisions and offers in memory only.
func WithoutPersistence() AppBuilderOption {
	return func(b *AppBuilder) {
		b.storesFn = func(brcfg.StoreConfig) (stores, error) { return stores{}, nil }
	}
}

func NewAppBuilder(cfg *brcfg.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:          cfg,
		catalogFn:    buildCatalog,
		storesFn:     buildStores,
		reputationFn: buildReputation,
		notifierFn:   buildNotifier,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func buildCatalog(cfg brcfg.PricelistConfig) (*pricelist.Catalog, error) {
	return pricelist.NewCatalog(cfg.Path, cfg.Watch)
}

func buildStores(cfg brcfg.StoreConfig) (stores, error) {
	decisions, err := gormstore.NewGormStore(cfg.DecisionsPath)
	if err != nil {
		return stores{}, fmt.Errorf("open decision store: %w", err)
	}
	offers, err := offerlog.Open(cfg.OffersPath)
	if err != nil {
		_ = decisions.Close()
		return stores{}, fmt.Errorf("open offer log: %w", err)
	}
	return stores{decisions: decisions, offers: offers}, nil
}

func buildReputation(cfg brcfg.ReputationConfig) checker {
	if cfg.Disabled {
		logger.Warnf("Reputation checks are disabled, every partner is treated as clean")
		return reputation.Nop{}
	}
	return reputation.New(reputation.Config{
		APIKey:           cfg.APIKey,
		BackpackKey:      cfg.BackpackKey,
		EscrowURL:        cfg.EscrowURL,
		BackpackURL:      cfg.BackpackURL,
		SteamRepURL:      cfg.SteamRepURL,
		Timeout:          cfg.Timeout(),
		BreakerThreshold: cfg.BreakerThreshold,
		BreakerCooldown:  cfg.BreakerCooldown(),
	})
}

func buildNotifier(cfg brcfg.NotifyConfig) notifier.TextNotifier {
	if !cfg.Telegram.Enabled {
		return notifier.Log{}
	}
	return notifier.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := b.cfg
	logger.SetLevel(cfg.App.LogLevel)

	catalog, err := b.catalogFn(cfg.Pricelist)
	if err != nil {
		return nil, fmt.Errorf("load pricelist: %w", err)
	}
	catalog.Subscribe(func(s pricelist.Snapshot) {
		logger.Infof("Pricelist version %d is live with %d items", s.Version, s.Len())
	})

	inv := b.inventory
	if inv == nil {
		inv = inventory.NewMemory()
	}
	botID := cfg.Bot.SteamID
	stock := func(sku string) int { return inv.Amount(botID, sku) }
	limits := inventory.NewLimits(stock)
	carts := cart.NewStore()
	partners := b.reputationFn(cfg.Reputation)

	eval := evaluator.New(evaluator.Config{
		Admins:       cfg.Bot.Admins,
		GiftPhrases:  cfg.Bot.GiftPhrases,
		AcceptEscrow: cfg.Bot.AcceptEscrow,
	}, catalog, limits, partners, partners, nil)

	trades := builder.New(builder.Config{
		BotID:        botID,
		OfferMessage: cfg.Bot.OfferMessage,
		AcceptEscrow: cfg.Bot.AcceptEscrow,
	}, builder.Deps{
		Prices:    catalog,
		Inventory: inv,
		Capacity:  limits,
		Carts:     carts,
		Transport: b.transport,
		Escrow:    partners,
		Bans:      partners,
		Messenger: b.messenger,
	})
	if !trades.HasTransport() {
		logger.Warnf("No trade offer transport configured, checkout and direct trades will be refused")
	}

	st, err := b.storesFn(cfg.Store)
	if err != nil {
		return nil, err
	}
	textNotifier := b.notifierFn(cfg.Notify)

	svc := agent.NewService(agent.Params{
		Evaluator:   eval,
		Decisions:   st.decisions,
		Offers:      st.offers,
		Notifier:    textNotifier,
		Messenger:   b.messenger,
		Relister:    newStockLogger(catalog, limits, stock),
		Concurrency: cfg.Bot.EvaluationConcurrency,
	})

	server, err := apihttp.NewServer(apihttp.ServerConfig{
		Addr:      cfg.App.HTTPAddr,
		Prices:    catalog,
		Agent:     svc,
		Builder:   trades,
		Carts:     cart.NewHandler(carts, stock),
		Inventory: inv,
	})
	if err != nil {
		_ = st.close()
		return nil, err
	}

	return &App{
		cfg:     cfg,
		catalog: catalog,
		agent:   svc,
		builder: trades,
		server:  server,
		stores:  st,
		Summary: newSummary(cfg, catalog.Snapshot(), trades.HasTransport(), st),
	}, nil
}
