package eligibilityservice

import (
	"log/slog"

	httpadapter "collegium/contexts/editorial-college/eligibility-service/adapters/http"
	"collegium/contexts/editorial-college/eligibility-service/adapters/memory"
	"collegium/contexts/editorial-college/eligibility-service/application/commands"
	"collegium/contexts/editorial-college/eligibility-service/application/queries"
	"collegium/contexts/editorial-college/eligibility-service/domain/entities"
	"collegium/contexts/editorial-college/eligibility-service/ports"
)

type Module struct {
	Handler     httpadapter.Handler
	Eligibility queries.EligibilityUseCase
	Fellowships commands.FellowshipUseCase
	Pools       commands.PoolUseCase
	Store       *memory.Store
}

type Dependencies struct {
	Fellows           ports.FellowRepository
	Pools             ports.PoolRepository
	Directory         ports.DirectoryReader
	Conflicts         ports.ConflictRegistry
	Manuscripts       ports.ManuscriptReader
	Outbox            ports.OutboxWriter
	Clock             ports.Clock
	IDGen             ports.IDGenerator
	FallbackThreshold int
	Logger            *slog.Logger
}

func NewModule(deps Dependencies) Module {
	eligibility := queries.EligibilityUseCase{
		Fellows:           deps.Fellows,
		Directory:         deps.Directory,
		Conflicts:         deps.Conflicts,
		Manuscripts:       deps.Manuscripts,
		Clock:             deps.Clock,
		FallbackThreshold: deps.FallbackThreshold,
		Logger:            deps.Logger,
	}
	pools := commands.PoolUseCase{
		Eligibility: eligibility,
		Pools:       deps.Pools,
		Fellows:     deps.Fellows,
		Clock:       deps.Clock,
		Logger:      deps.Logger,
	}
	fellowships := commands.FellowshipUseCase{
		Fellows: deps.Fellows,
		Outbox:  deps.Outbox,
		Clock:   deps.Clock,
		IDGen:   deps.IDGen,
		Logger:  deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Eligibility: eligibility,
			Pools:       pools,
			Fellowships: fellowships,
			Logger:      deps.Logger,
		},
		Eligibility: eligibility,
		Fellowships: fellowships,
		Pools:       pools,
	}
}

func NewInMemoryModule(seed []entities.Fellow, fallbackThreshold int, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Fellows:           store,
		Pools:             store,
		Directory:         store,
		Conflicts:         store,
		Manuscripts:       store,
		Outbox:            store,
		Clock:             store,
		IDGen:             store,
		FallbackThreshold: fallbackThreshold,
		Logger:            logger,
	})
	module.Store = store
	return module
}
