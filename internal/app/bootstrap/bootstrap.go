// Package bootstrap is the composition root: it loads configuration, wires
// the editorial-college modules to their adapters, and builds the API and
// worker processes. An empty POSTGRES_DSN selects the in-memory adapters,
// which keeps local development and the test harness database-free.
package bootstrap

import (
	"context"
	"log/slog"
	"strings"
	"time"

	eligibilityservice "collegium/contexts/editorial-college/eligibility-service"
	eligibilitymemory "collegium/contexts/editorial-college/eligibility-service/adapters/memory"
	eligibilitypostgres "collegium/contexts/editorial-college/eligibility-service/adapters/postgres"
	eligibilitycommands "collegium/contexts/editorial-college/eligibility-service/application/commands"
	eligibilityqueries "collegium/contexts/editorial-college/eligibility-service/application/queries"
	eligibilityentities "collegium/contexts/editorial-college/eligibility-service/domain/entities"
	invitationservice "collegium/contexts/editorial-college/invitation-service"
	invitationmemory "collegium/contexts/editorial-college/invitation-service/adapters/memory"
	invitationpostgres "collegium/contexts/editorial-college/invitation-service/adapters/postgres"
	invitationworkers "collegium/contexts/editorial-college/invitation-service/application/workers"
	nominationengine "collegium/contexts/editorial-college/nomination-engine"
	nominationmemory "collegium/contexts/editorial-college/nomination-engine/adapters/memory"
	nominationpostgres "collegium/contexts/editorial-college/nomination-engine/adapters/postgres"
	nominationworkers "collegium/contexts/editorial-college/nomination-engine/application/workers"
	nominationports "collegium/contexts/editorial-college/nomination-engine/ports"
	"collegium/internal/platform/config"
	"collegium/internal/platform/db"
	"collegium/internal/platform/httpserver"
	"collegium/internal/platform/messaging"
	"collegium/internal/platform/metrics"
)

type Modules struct {
	Eligibility eligibilityservice.Module
	Nominations nominationengine.Module
	Invitations invitationservice.Module
}

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres           *db.Postgres
	bus                *messaging.Bus
	nominationRelay    nominationworkers.OutboxRelay
	invitationRelay    invitationworkers.OutboxRelay
	governanceSweep    nominationworkers.GovernanceSweep
	attentionSweep     invitationworkers.AttentionSweep
	decisionConsumer   invitationworkers.DecisionConsumer
	invitationConsumer nominationworkers.InvitationConsumer
	eligibilityOutbox  eligibilityOutboxRelay
	pollInterval       time.Duration
	logger             *slog.Logger
}

// eligibilityOutboxRelay reuses the nomination relay loop for the
// eligibility outbox; the repositories satisfy the same ports structurally.
type eligibilityOutboxRelay = nominationworkers.OutboxRelay

// eligibilityProvider bridges the nomination engine to the eligibility
// computation.
type eligibilityProvider struct {
	eligibility eligibilityqueries.EligibilityUseCase
}

func (p eligibilityProvider) NominationVoterRoster(
	ctx context.Context,
	collegeID string,
	candidatePersonID string,
) (nominationports.Roster, error) {
	roster, err := p.eligibility.NominationVoters(ctx, collegeID, candidatePersonID)
	if err != nil {
		return nominationports.Roster{}, err
	}
	members := make([]nominationports.RosterMember, 0, len(roster.Members))
	for _, member := range roster.Members {
		members = append(members, nominationports.RosterMember{
			FellowID: member.FellowID,
			PersonID: member.PersonID,
		})
	}
	return nominationports.Roster{
		Members:         members,
		FallbackApplied: roster.FallbackApplied,
	}, nil
}

// fellowshipCreator bridges accepted invitations to Fellowship creation.
type fellowshipCreator struct {
	fellowships eligibilitycommands.FellowshipUseCase
}

func (f fellowshipCreator) CreateFellowship(
	ctx context.Context,
	collegeID string,
	personID string,
	startDate *time.Time,
) error {
	_, err := f.fellowships.CreateFellowship(ctx, eligibilitycommands.CreateFellowshipCommand{
		CollegeID: collegeID,
		PersonID:  personID,
		Tier:      eligibilityentities.FellowTierRegular,
		StartDate: startDate,
	})
	return err
}

// BuildModules wires the three editorial-college modules against either the
// postgres repositories or the shared in-memory stores.
func BuildModules(cfg config.Config, pg *db.Postgres, logger *slog.Logger) Modules {
	policy := cfg.Policy

	var eligibility eligibilityservice.Module
	var nominationDeps nominationengine.Dependencies
	var invitationDeps invitationservice.Dependencies

	if pg != nil {
		eligibilityRepo := eligibilitypostgres.NewRepository(pg.DB, logger)
		nominationRepo := nominationpostgres.NewRepository(pg.DB, logger)
		invitationRepo := invitationpostgres.NewRepository(pg.DB, logger)

		eligibility = eligibilityservice.NewModule(eligibilityservice.Dependencies{
			Fellows:           eligibilityRepo,
			Pools:             eligibilityRepo,
			Directory:         eligibilityRepo,
			Conflicts:         eligibilityRepo,
			Manuscripts:       eligibilityRepo,
			Outbox:            eligibilityRepo,
			Clock:             eligibilitypostgres.SystemClock{},
			IDGen:             eligibilitypostgres.UUIDGenerator{},
			FallbackThreshold: policy.SpecialtyFallbackThreshold,
			Logger:            logger,
		})
		nominationDeps = nominationengine.Dependencies{
			Nominations: nominationRepo,
			Rounds:      nominationRepo,
			Votes:       nominationRepo,
			Decisions:   nominationRepo,
			Declines:    invitationRepo,
			Outbox:      nominationRepo,
			Clock:       nominationpostgres.SystemClock{},
			IDGen:       nominationpostgres.UUIDGenerator{},
		}
		invitationDeps = invitationservice.Dependencies{
			Invitations: invitationRepo,
			Directory:   invitationRepo,
			Outbox:      invitationRepo,
			Clock:       invitationpostgres.SystemClock{},
			IDGen:       invitationpostgres.UUIDGenerator{},
		}
	} else {
		eligibilityStore := eligibilitymemory.NewStore(nil)
		nominationStore := nominationmemory.NewStore()
		invitationStore := invitationmemory.NewStore()

		eligibility = eligibilityservice.NewModule(eligibilityservice.Dependencies{
			Fellows:           eligibilityStore,
			Pools:             eligibilityStore,
			Directory:         eligibilityStore,
			Conflicts:         eligibilityStore,
			Manuscripts:       eligibilityStore,
			Outbox:            eligibilityStore,
			Clock:             eligibilityStore,
			IDGen:             eligibilityStore,
			FallbackThreshold: policy.SpecialtyFallbackThreshold,
			Logger:            logger,
		})
		eligibility.Store = eligibilityStore
		nominationDeps = nominationengine.Dependencies{
			Nominations: nominationStore,
			Rounds:      nominationStore,
			Votes:       nominationStore,
			Decisions:   nominationStore,
			Declines:    invitationStore,
			Outbox:      nominationStore,
			Clock:       nominationStore,
			IDGen:       nominationStore,
		}
		invitationDeps = invitationservice.Dependencies{
			Invitations: invitationStore,
			Directory:   invitationStore,
			Outbox:      invitationStore,
			Clock:       invitationStore,
			IDGen:       invitationStore,
		}
	}

	nominationDeps.Eligibility = eligibilityProvider{eligibility: eligibility.Eligibility}
	nominationDeps.Quorum = policy.Quorum
	nominationDeps.MinRosterSize = policy.MinRosterSize
	nominationDeps.Cooldown = policy.Cooldown()
	nominationDeps.RoundDuration = policy.RoundDuration()
	nominationDeps.Logger = logger
	nominations := nominationengine.NewModule(nominationDeps)

	invitationDeps.Fellowships = fellowshipCreator{fellowships: eligibility.Fellowships}
	invitationDeps.StaleAfter = policy.ReminderStaleAfter()
	invitationDeps.PostponementNotice = policy.PostponementNotice()
	invitationDeps.Logger = logger
	invitations := invitationservice.NewModule(invitationDeps)

	if pg == nil {
		nominations.Store = nominationDeps.Nominations.(*nominationmemory.Store)
		invitations.Store = invitationDeps.Invitations.(*invitationmemory.Store)
	}

	return Modules{
		Eligibility: eligibility,
		Nominations: nominations,
		Invitations: invitations,
	}
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	var pg *db.Postgres
	if strings.TrimSpace(cfg.PostgresDSN) != "" {
		pg, err = db.Connect(cfg.PostgresDSN, cfg.DBPingTimeout)
		if err != nil {
			return nil, err
		}
	}

	m := metrics.New()
	modules := BuildModules(cfg, pg, logger)
	server := httpserver.New(
		modules.Eligibility,
		modules.Nominations,
		modules.Invitations,
		m,
		logger,
		normalizeAddr(cfg.HTTPPort),
	)
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")

	var pg *db.Postgres
	if strings.TrimSpace(cfg.PostgresDSN) != "" {
		pg, err = db.Connect(cfg.PostgresDSN, cfg.DBPingTimeout)
		if err != nil {
			return nil, err
		}
	}

	m := metrics.New()
	bus := messaging.NewBus(logger, m)
	modules := BuildModules(cfg, pg, logger)

	var (
		nominationOutbox  nominationworkers.OutboxRelay
		invitationOutbox  invitationworkers.OutboxRelay
		eligibilityOutbox eligibilityOutboxRelay
	)
	if pg != nil {
		nominationRepo := nominationpostgres.NewRepository(pg.DB, logger)
		invitationRepo := invitationpostgres.NewRepository(pg.DB, logger)
		eligibilityRepo := eligibilitypostgres.NewRepository(pg.DB, logger)
		nominationOutbox = nominationworkers.OutboxRelay{
			Outbox:    nominationRepo,
			Publisher: bus,
			Clock:     nominationpostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		}
		invitationOutbox = invitationworkers.OutboxRelay{
			Outbox:    invitationRepo,
			Publisher: bus,
			Clock:     invitationpostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		}
		eligibilityOutbox = eligibilityOutboxRelay{
			Outbox:    eligibilityRepo,
			Publisher: bus,
			Clock:     nominationpostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		}
	} else {
		nominationOutbox = nominationworkers.OutboxRelay{
			Outbox:    modules.Nominations.Store,
			Publisher: bus,
			BatchSize: 100,
			Logger:    logger,
		}
		invitationOutbox = invitationworkers.OutboxRelay{
			Outbox:    modules.Invitations.Store,
			Publisher: bus,
			BatchSize: 100,
			Logger:    logger,
		}
	}

	return &WorkerApp{
		postgres:          pg,
		bus:               bus,
		nominationRelay:   nominationOutbox,
		invitationRelay:   invitationOutbox,
		eligibilityOutbox: eligibilityOutbox,
		governanceSweep:   modules.Nominations.Sweep,
		attentionSweep:    modules.Invitations.Sweep,
		decisionConsumer: invitationworkers.DecisionConsumer{
			Subscriber:  bus,
			Invitations: modules.Invitations.Invitations,
			Logger:      logger,
		},
		invitationConsumer: nominationworkers.InvitationConsumer{
			Subscriber:  bus,
			Nominations: modules.Nominations.Nominations,
			Logger:      logger,
		},
		pollInterval: cfg.SweepInterval,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if err := w.decisionConsumer.Start(ctx); err != nil {
		return err
	}
	if err := w.invitationConsumer.Start(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.governanceSweep.RunOnce(ctx); err != nil {
			return err
		}
		if err := w.attentionSweep.RunOnce(ctx); err != nil {
			return err
		}
		if err := w.nominationRelay.RunOnce(ctx); err != nil {
			return err
		}
		if err := w.invitationRelay.RunOnce(ctx); err != nil {
			return err
		}
		if w.eligibilityOutbox.Outbox != nil {
			if err := w.eligibilityOutbox.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			w.bus.Wait()
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
