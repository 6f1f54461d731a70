// Package postgresadapter persists nominations, rounds, votes and decisions
// through gorm. Concurrency-sensitive writes (round creation, ballots,
// decisions) lean on database uniqueness instead of read-then-write checks.
package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"collegium/contexts/editorial-college/nomination-engine/domain/entities"
	domainerrors "collegium/contexts/editorial-college/nomination-engine/domain/errors"
	"collegium/contexts/editorial-college/nomination-engine/ports"
	"collegium/internal/shared/events"
	"collegium/internal/shared/outbox"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) SaveNomination(ctx context.Context, nomination entities.Nomination) error {
	row := nominationModelFromEntity(nomination)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"status":     row.Status,
			"comments":   row.Comments,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("nomination_repo_save_failed", create.Error,
			"nomination_id", row.ID,
		)
	}
	return nil
}

func (r *Repository) GetNomination(ctx context.Context, nominationID string) (entities.Nomination, error) {
	var row nominationModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(nominationID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Nomination{}, domainerrors.ErrNominationNotFound
		}
		return entities.Nomination{}, r.logError("nomination_repo_get_failed", err,
			"nomination_id", strings.TrimSpace(nominationID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListNominationsByStatus(
	ctx context.Context,
	status entities.NominationStatus,
) ([]entities.Nomination, error) {
	var rows []nominationModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("nominated_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("nomination_repo_list_by_status_failed", err,
			"status", string(status),
		)
	}
	items := make([]entities.Nomination, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) InsertVeto(ctx context.Context, veto entities.Veto) (bool, error) {
	row := vetoModel{
		NominationID: strings.TrimSpace(veto.NominationID),
		FellowID:     strings.TrimSpace(veto.FellowID),
		Reason:       veto.Reason,
		VetoedAt:     veto.VetoedAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "nomination_id"}, {Name: "fellow_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return false, r.logError("nomination_repo_insert_veto_failed", create.Error,
			"nomination_id", row.NominationID,
			"fellow_id", row.FellowID,
		)
	}
	return create.RowsAffected > 0, nil
}

func (r *Repository) ListVetoes(ctx context.Context, nominationID string) ([]entities.Veto, error) {
	var rows []vetoModel
	if err := r.db.WithContext(ctx).
		Where("nomination_id = ?", strings.TrimSpace(nominationID)).
		Order("vetoed_at ASC, fellow_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("nomination_repo_list_vetoes_failed", err,
			"nomination_id", strings.TrimSpace(nominationID),
		)
	}
	items := make([]entities.Veto, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.Veto{
			NominationID: row.NominationID,
			FellowID:     row.FellowID,
			Reason:       row.Reason,
			VetoedAt:     row.VetoedAt.UTC(),
		})
	}
	return items, nil
}

// CreateRound relies on the partial unique index on (nomination_id) WHERE NOT
// resolved: the losing writer of a concurrent open sees a unique violation.
func (r *Repository) CreateRound(ctx context.Context, round entities.VotingRound) error {
	row := roundModelFromEntity(round)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrOpenRoundExists
		}
		return r.logError("nomination_repo_create_round_failed", err,
			"round_id", row.ID,
			"nomination_id", row.NominationID,
		)
	}
	return nil
}

func (r *Repository) GetRound(ctx context.Context, roundID string) (entities.VotingRound, error) {
	var row roundModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(roundID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.VotingRound{}, domainerrors.ErrRoundNotFound
		}
		return entities.VotingRound{}, r.logError("nomination_repo_get_round_failed", err,
			"round_id", strings.TrimSpace(roundID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetUnresolvedRound(
	ctx context.Context,
	nominationID string,
) (entities.VotingRound, bool, error) {
	var rows []roundModel
	err := r.db.WithContext(ctx).
		Where("nomination_id = ?", strings.TrimSpace(nominationID)).
		Where("resolved = ?", false).
		Find(&rows).
		Error
	if err != nil {
		return entities.VotingRound{}, false, r.logError("nomination_repo_get_unresolved_failed", err,
			"nomination_id", strings.TrimSpace(nominationID),
		)
	}
	switch len(rows) {
	case 0:
		return entities.VotingRound{}, false, nil
	case 1:
		return rows[0].toEntity(), true, nil
	default:
		return entities.VotingRound{}, false, domainerrors.ErrInternalInconsistency
	}
}

func (r *Repository) UpdateRoster(ctx context.Context, roundID string, roster []string, at time.Time) error {
	update := r.db.WithContext(ctx).
		Model(&roundModel{}).
		Where("id = ?", strings.TrimSpace(roundID)).
		Updates(map[string]any{
			"roster":     joinList(roster),
			"updated_at": at.UTC(),
		})
	if update.Error != nil {
		return r.logError("nomination_repo_update_roster_failed", update.Error,
			"round_id", strings.TrimSpace(roundID),
		)
	}
	if update.RowsAffected == 0 {
		return domainerrors.ErrRoundNotFound
	}
	return nil
}

func (r *Repository) MarkRoundResolved(ctx context.Context, roundID string, at time.Time) error {
	update := r.db.WithContext(ctx).
		Model(&roundModel{}).
		Where("id = ?", strings.TrimSpace(roundID)).
		Updates(map[string]any{
			"resolved":   true,
			"updated_at": at.UTC(),
		})
	if update.Error != nil {
		return r.logError("nomination_repo_mark_resolved_failed", update.Error,
			"round_id", strings.TrimSpace(roundID),
		)
	}
	if update.RowsAffected == 0 {
		return domainerrors.ErrRoundNotFound
	}
	return nil
}

// MarkRoundOverdue flags at most once: the WHERE clause on a NULL flag makes
// repeated sweeps report zero affected rows.
func (r *Repository) MarkRoundOverdue(ctx context.Context, roundID string, at time.Time) (bool, error) {
	flaggedAt := at.UTC()
	update := r.db.WithContext(ctx).
		Model(&roundModel{}).
		Where("id = ?", strings.TrimSpace(roundID)).
		Where("overdue_flagged_at IS NULL").
		Updates(map[string]any{
			"overdue_flagged_at": &flaggedAt,
			"updated_at":         flaggedAt,
		})
	if update.Error != nil {
		return false, r.logError("nomination_repo_mark_overdue_failed", update.Error,
			"round_id", strings.TrimSpace(roundID),
		)
	}
	return update.RowsAffected > 0, nil
}

func (r *Repository) ListOverdueRounds(ctx context.Context, before time.Time) ([]entities.VotingRound, error) {
	var rows []roundModel
	if err := r.db.WithContext(ctx).
		Where("resolved = ?", false).
		Where("overdue_flagged_at IS NULL").
		Where("deadline <= ?", before.UTC()).
		Order("deadline ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("nomination_repo_list_overdue_failed", err)
	}
	items := make([]entities.VotingRound, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListRoundsByNomination(
	ctx context.Context,
	nominationID string,
) ([]entities.VotingRound, error) {
	var rows []roundModel
	if err := r.db.WithContext(ctx).
		Where("nomination_id = ?", strings.TrimSpace(nominationID)).
		Order("opens_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("nomination_repo_list_rounds_failed", err,
			"nomination_id", strings.TrimSpace(nominationID),
		)
	}
	items := make([]entities.VotingRound, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// InsertVote is one atomic insert; the composite primary key on
// (round_id, fellow_id) turns a concurrent duplicate into zero affected rows.
func (r *Repository) InsertVote(ctx context.Context, vote entities.Vote) error {
	row := voteModel{
		RoundID:  strings.TrimSpace(vote.RoundID),
		FellowID: strings.TrimSpace(vote.FellowID),
		Value:    string(vote.Value),
		CastAt:   vote.CastAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "round_id"}, {Name: "fellow_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("nomination_repo_insert_vote_failed", create.Error,
			"round_id", row.RoundID,
			"fellow_id", row.FellowID,
		)
	}
	if create.RowsAffected == 0 {
		return domainerrors.ErrDuplicateVote
	}
	return nil
}

func (r *Repository) DeleteVote(ctx context.Context, roundID string, fellowID string) error {
	del := r.db.WithContext(ctx).
		Where("round_id = ?", strings.TrimSpace(roundID)).
		Where("fellow_id = ?", strings.TrimSpace(fellowID)).
		Delete(&voteModel{})
	if del.Error != nil {
		return r.logError("nomination_repo_delete_vote_failed", del.Error,
			"round_id", strings.TrimSpace(roundID),
			"fellow_id", strings.TrimSpace(fellowID),
		)
	}
	if del.RowsAffected == 0 {
		return domainerrors.ErrVoteNotFound
	}
	return nil
}

func (r *Repository) ListVotesByRound(ctx context.Context, roundID string) ([]entities.Vote, error) {
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Where("round_id = ?", strings.TrimSpace(roundID)).
		Order("cast_at ASC, fellow_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("nomination_repo_list_votes_failed", err,
			"round_id", strings.TrimSpace(roundID),
		)
	}
	items := make([]entities.Vote, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.Vote{
			RoundID:  row.RoundID,
			FellowID: row.FellowID,
			Value:    entities.VoteValue(row.Value),
			CastAt:   row.CastAt.UTC(),
		})
	}
	return items, nil
}

// CreateDecision is the decision compare-and-swap: the primary key on
// round_id admits exactly one row per round.
func (r *Repository) CreateDecision(ctx context.Context, decision entities.Decision) error {
	row := decisionModel{
		RoundID:       strings.TrimSpace(decision.RoundID),
		NominationID:  strings.TrimSpace(decision.NominationID),
		Outcome:       string(decision.Outcome),
		Comments:      decision.Comments,
		FixedAt:       decision.FixedAt.UTC(),
		AdminOverride: decision.AdminOverride,
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "round_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("nomination_repo_create_decision_failed", create.Error,
			"round_id", row.RoundID,
		)
	}
	if create.RowsAffected == 0 {
		return domainerrors.ErrRoundDecided
	}
	return nil
}

func (r *Repository) GetDecision(ctx context.Context, roundID string) (entities.Decision, bool, error) {
	var row decisionModel
	err := r.db.WithContext(ctx).
		Where("round_id = ?", strings.TrimSpace(roundID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Decision{}, false, nil
		}
		return entities.Decision{}, false, r.logError("nomination_repo_get_decision_failed", err,
			"round_id", strings.TrimSpace(roundID),
		)
	}
	return entities.Decision{
		RoundID:       row.RoundID,
		NominationID:  row.NominationID,
		Outcome:       entities.Outcome(row.Outcome),
		Comments:      row.Comments,
		FixedAt:       row.FixedAt.UTC(),
		AdminOverride: row.AdminOverride,
	}, true, nil
}

func (r *Repository) LatestRejection(
	ctx context.Context,
	collegeID string,
	candidatePersonID string,
) (time.Time, bool, error) {
	var row decisionModel
	err := r.db.WithContext(ctx).
		Table("round_decisions").
		Joins("JOIN nominations ON nominations.id = round_decisions.nomination_id").
		Where("round_decisions.outcome = ?", string(entities.OutcomeNotElected)).
		Where("nominations.college_id = ?", strings.TrimSpace(collegeID)).
		Where("nominations.candidate_person_id = ?", strings.TrimSpace(candidatePersonID)).
		Order("round_decisions.fixed_at DESC").
		Select("round_decisions.*").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, r.logError("nomination_repo_latest_rejection_failed", err,
			"college_id", strings.TrimSpace(collegeID),
			"candidate_person_id", strings.TrimSpace(candidatePersonID),
		)
	}
	return row.FixedAt.UTC(), true, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope events.Envelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	row := outboxModel{
		OutboxID:     outboxID,
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("nomination_repo_append_outbox_failed", create.Error,
			"outbox_id", outboxID,
		)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]outbox.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("nomination_repo_list_outbox_failed", err)
	}
	items := make([]outbox.Message, 0, len(rows))
	for _, row := range rows {
		items = append(items, outbox.Message{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, at time.Time) error {
	publishedAt := at.UTC()
	return r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": &publishedAt,
		}).Error
}

// SystemClock is the production Clock adapter.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// UUIDGenerator is the production IDGenerator adapter.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "editorial-college/nomination-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("nomination repository operation failed", fields...)
	return err
}

type nominationModel struct {
	ID                string    `gorm:"column:id;primaryKey"`
	CollegeID         string    `gorm:"column:college_id"`
	CandidatePersonID string    `gorm:"column:candidate_person_id"`
	NominatorPersonID string    `gorm:"column:nominator_person_id"`
	Comments          string    `gorm:"column:comments"`
	Status            string    `gorm:"column:status"`
	NominatorAgrees   bool      `gorm:"column:nominator_agrees_on_open"`
	NominatedAt       time.Time `gorm:"column:nominated_at"`
	CreatedAt         time.Time `gorm:"column:created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (nominationModel) TableName() string {
	return "nominations"
}

func nominationModelFromEntity(nomination entities.Nomination) nominationModel {
	row := nominationModel{
		ID:                strings.TrimSpace(nomination.NominationID),
		CollegeID:         strings.TrimSpace(nomination.CollegeID),
		CandidatePersonID: strings.TrimSpace(nomination.CandidatePersonID),
		NominatorPersonID: strings.TrimSpace(nomination.NominatorPersonID),
		Comments:          nomination.Comments,
		Status:            string(nomination.Status),
		NominatorAgrees:   nomination.NominatorAgreesOnOpen,
		NominatedAt:       nomination.NominatedAt.UTC(),
		CreatedAt:         nomination.CreatedAt.UTC(),
		UpdatedAt:         nomination.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m nominationModel) toEntity() entities.Nomination {
	return entities.Nomination{
		NominationID:          m.ID,
		CollegeID:             m.CollegeID,
		CandidatePersonID:     m.CandidatePersonID,
		NominatorPersonID:     m.NominatorPersonID,
		Comments:              m.Comments,
		Status:                entities.NominationStatus(m.Status),
		NominatorAgreesOnOpen: m.NominatorAgrees,
		NominatedAt:           m.NominatedAt.UTC(),
		CreatedAt:             m.CreatedAt.UTC(),
		UpdatedAt:             m.UpdatedAt.UTC(),
	}
}

type vetoModel struct {
	NominationID string    `gorm:"column:nomination_id;primaryKey"`
	FellowID     string    `gorm:"column:fellow_id;primaryKey"`
	Reason       string    `gorm:"column:reason"`
	VetoedAt     time.Time `gorm:"column:vetoed_at"`
}

func (vetoModel) TableName() string {
	return "nomination_vetoes"
}

type roundModel struct {
	ID               string     `gorm:"column:id;primaryKey"`
	NominationID     string     `gorm:"column:nomination_id"`
	Kind             string     `gorm:"column:kind"`
	Roster           string     `gorm:"column:roster"`
	OpensAt          time.Time  `gorm:"column:opens_at"`
	Deadline         time.Time  `gorm:"column:deadline"`
	Resolved         bool       `gorm:"column:resolved"`
	OverdueFlaggedAt *time.Time `gorm:"column:overdue_flagged_at"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
}

func (roundModel) TableName() string {
	return "voting_rounds"
}

func roundModelFromEntity(round entities.VotingRound) roundModel {
	return roundModel{
		ID:               strings.TrimSpace(round.RoundID),
		NominationID:     strings.TrimSpace(round.NominationID),
		Kind:             string(round.Kind),
		Roster:           joinList(round.Roster),
		OpensAt:          round.OpensAt.UTC(),
		Deadline:         round.Deadline.UTC(),
		Resolved:         round.Resolved,
		OverdueFlaggedAt: normalizeOptionalTime(round.OverdueFlaggedAt),
		CreatedAt:        round.CreatedAt.UTC(),
		UpdatedAt:        round.UpdatedAt.UTC(),
	}
}

func (m roundModel) toEntity() entities.VotingRound {
	return entities.VotingRound{
		RoundID:          m.ID,
		NominationID:     m.NominationID,
		Kind:             entities.RoundKind(m.Kind),
		Roster:           splitList(m.Roster),
		OpensAt:          m.OpensAt.UTC(),
		Deadline:         m.Deadline.UTC(),
		Resolved:         m.Resolved,
		OverdueFlaggedAt: normalizeOptionalTime(m.OverdueFlaggedAt),
		CreatedAt:        m.CreatedAt.UTC(),
		UpdatedAt:        m.UpdatedAt.UTC(),
	}
}

type voteModel struct {
	RoundID  string    `gorm:"column:round_id;primaryKey"`
	FellowID string    `gorm:"column:fellow_id;primaryKey"`
	Value    string    `gorm:"column:value"`
	CastAt   time.Time `gorm:"column:cast_at"`
}

func (voteModel) TableName() string {
	return "round_votes"
}

type decisionModel struct {
	RoundID       string    `gorm:"column:round_id;primaryKey"`
	NominationID  string    `gorm:"column:nomination_id"`
	Outcome       string    `gorm:"column:outcome"`
	Comments      string    `gorm:"column:comments"`
	FixedAt       time.Time `gorm:"column:fixed_at"`
	AdminOverride bool      `gorm:"column:admin_override"`
}

func (decisionModel) TableName() string {
	return "round_decisions"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "nomination_outbox"
}

func splitList(value string) []string {
	items := make([]string, 0)
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

func joinList(items []string) string {
	trimmed := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			trimmed = append(trimmed, item)
		}
	}
	return strings.Join(trimmed, ",")
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.NominationRepository = (*Repository)(nil)
var _ ports.RoundRepository = (*Repository)(nil)
var _ ports.VoteRepository = (*Repository)(nil)
var _ ports.DecisionRepository = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
