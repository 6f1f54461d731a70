package nominationengine

import (
	"log/slog"
	"time"

	httpadapter "collegium/contexts/editorial-college/nomination-engine/adapters/http"
	"collegium/contexts/editorial-college/nomination-engine/adapters/memory"
	"collegium/contexts/editorial-college/nomination-engine/application/commands"
	"collegium/contexts/editorial-college/nomination-engine/application/queries"
	"collegium/contexts/editorial-college/nomination-engine/application/workers"
	"collegium/contexts/editorial-college/nomination-engine/ports"
)

type Module struct {
	Handler     httpadapter.Handler
	Nominations commands.NominationUseCase
	Rounds      commands.RoundUseCase
	Votes       commands.VoteUseCase
	Decisions   commands.DecisionUseCase
	Status      queries.RoundStatusUseCase
	Sweep       workers.GovernanceSweep
	Store       *memory.Store
}

type Dependencies struct {
	Nominations   ports.NominationRepository
	Rounds        ports.RoundRepository
	Votes         ports.VoteRepository
	Decisions     ports.DecisionRepository
	Eligibility   ports.EligibilityProvider
	Declines      ports.DeclineHistory
	Outbox        ports.OutboxWriter
	Clock         ports.Clock
	IDGen         ports.IDGenerator
	Quorum        int
	MinRosterSize int
	Cooldown      time.Duration
	RoundDuration time.Duration
	Logger        *slog.Logger
}

func NewModule(deps Dependencies) Module {
	nominations := commands.NominationUseCase{
		Nominations: deps.Nominations,
		Decisions:   deps.Decisions,
		Declines:    deps.Declines,
		Outbox:      deps.Outbox,
		Clock:       deps.Clock,
		IDGen:       deps.IDGen,
		Cooldown:    deps.Cooldown,
		Logger:      deps.Logger,
	}
	rounds := commands.RoundUseCase{
		Nominations:   deps.Nominations,
		Rounds:        deps.Rounds,
		Votes:         deps.Votes,
		Eligibility:   deps.Eligibility,
		Outbox:        deps.Outbox,
		Clock:         deps.Clock,
		IDGen:         deps.IDGen,
		MinRosterSize: deps.MinRosterSize,
		RoundDuration: deps.RoundDuration,
		Logger:        deps.Logger,
	}
	votes := commands.VoteUseCase{
		Rounds: deps.Rounds,
		Votes:  deps.Votes,
		Outbox: deps.Outbox,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	decisions := commands.DecisionUseCase{
		Nominations: deps.Nominations,
		Rounds:      deps.Rounds,
		Votes:       deps.Votes,
		Decisions:   deps.Decisions,
		Outbox:      deps.Outbox,
		Clock:       deps.Clock,
		IDGen:       deps.IDGen,
		Quorum:      deps.Quorum,
		Logger:      deps.Logger,
	}
	status := queries.RoundStatusUseCase{
		Nominations: deps.Nominations,
		Rounds:      deps.Rounds,
		Votes:       deps.Votes,
		Decisions:   deps.Decisions,
		Clock:       deps.Clock,
		Quorum:      deps.Quorum,
		Logger:      deps.Logger,
	}
	sweep := workers.GovernanceSweep{
		Nominations: deps.Nominations,
		Rounds:      deps.Rounds,
		Opener:      rounds,
		Clock:       deps.Clock,
		Logger:      deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Nominations: nominations,
			Rounds:      rounds,
			Votes:       votes,
			Decisions:   decisions,
			Status:      status,
			Logger:      deps.Logger,
		},
		Nominations: nominations,
		Rounds:      rounds,
		Votes:       votes,
		Decisions:   decisions,
		Status:      status,
		Sweep:       sweep,
	}
}

func NewInMemoryModule(
	eligibility ports.EligibilityProvider,
	declines ports.DeclineHistory,
	quorum int,
	minRosterSize int,
	cooldown time.Duration,
	roundDuration time.Duration,
	logger *slog.Logger,
) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Nominations:   store,
		Rounds:        store,
		Votes:         store,
		Decisions:     store,
		Eligibility:   eligibility,
		Declines:      declines,
		Outbox:        store,
		Clock:         store,
		IDGen:         store,
		Quorum:        quorum,
		MinRosterSize: minRosterSize,
		Cooldown:      cooldown,
		RoundDuration: roundDuration,
		Logger:        logger,
	})
	module.Store = store
	return module
}
