package invitationservice

import (
	"log/slog"
	"time"

	httpadapter "collegium/contexts/editorial-college/invitation-service/adapters/http"
	"collegium/contexts/editorial-college/invitation-service/adapters/memory"
	"collegium/contexts/editorial-college/invitation-service/application/commands"
	"collegium/contexts/editorial-college/invitation-service/application/queries"
	"collegium/contexts/editorial-college/invitation-service/application/workers"
	"collegium/contexts/editorial-college/invitation-service/ports"
)

type Module struct {
	Handler     httpadapter.Handler
	Invitations commands.InvitationUseCase
	Attention   queries.AttentionUseCase
	Sweep       workers.AttentionSweep
	Store       *memory.Store
}

type Dependencies struct {
	Invitations        ports.InvitationRepository
	Directory          ports.DirectoryReader
	Fellowships        ports.FellowshipCreator
	Outbox             ports.OutboxWriter
	Clock              ports.Clock
	IDGen              ports.IDGenerator
	StaleAfter         time.Duration
	PostponementNotice time.Duration
	Logger             *slog.Logger
}

func NewModule(deps Dependencies) Module {
	invitations := commands.InvitationUseCase{
		Invitations: deps.Invitations,
		Directory:   deps.Directory,
		Fellowships: deps.Fellowships,
		Outbox:      deps.Outbox,
		Clock:       deps.Clock,
		IDGen:       deps.IDGen,
		Logger:      deps.Logger,
	}
	attention := queries.AttentionUseCase{
		Invitations:        deps.Invitations,
		Clock:              deps.Clock,
		StaleAfter:         deps.StaleAfter,
		PostponementNotice: deps.PostponementNotice,
		Logger:             deps.Logger,
	}
	sweep := workers.AttentionSweep{
		Invitations:        deps.Invitations,
		Outbox:             deps.Outbox,
		Clock:              deps.Clock,
		IDGen:              deps.IDGen,
		StaleAfter:         deps.StaleAfter,
		PostponementNotice: deps.PostponementNotice,
		Logger:             deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Invitations: invitations,
			Attention:   attention,
			Logger:      deps.Logger,
		},
		Invitations: invitations,
		Attention:   attention,
		Sweep:       sweep,
	}
}

func NewInMemoryModule(
	fellowships ports.FellowshipCreator,
	staleAfter time.Duration,
	postponementNotice time.Duration,
	logger *slog.Logger,
) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Invitations:        store,
		Directory:          store,
		Fellowships:        fellowships,
		Outbox:             store,
		Clock:              store,
		IDGen:              store,
		StaleAfter:         staleAfter,
		PostponementNotice: postponementNotice,
		Logger:             logger,
	})
	module.Store = store
	return module
}
