// Package postgresadapter persists invitations through gorm.
package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"collegium/contexts/editorial-college/invitation-service/domain/entities"
	domainerrors "collegium/contexts/editorial-college/invitation-service/domain/errors"
	"collegium/contexts/editorial-college/invitation-service/ports"
	"collegium/internal/shared/events"
	"collegium/internal/shared/outbox"

	"github.com/google/uuid"
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

func (r *Repository) SaveInvitation(ctx context.Context, invitation entities.Invitation) error {
	row := invitationModelFromEntity(invitation)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"response":             row.Response,
			"invited_at":           row.InvitedAt,
			"last_contact_at":      row.LastContactAt,
			"responded_at":         row.RespondedAt,
			"postponed_until":      row.PostponedUntil,
			"comments":             row.Comments,
			"attention_flagged_at": row.AttentionFlaggedAt,
			"updated_at":           row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("invitation_repo_save_failed", create.Error,
			"invitation_id", row.ID,
		)
	}
	return nil
}

func (r *Repository) GetInvitation(ctx context.Context, invitationID string) (entities.Invitation, error) {
	var row invitationModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(invitationID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Invitation{}, domainerrors.ErrInvitationNotFound
		}
		return entities.Invitation{}, r.logError("invitation_repo_get_failed", err,
			"invitation_id", strings.TrimSpace(invitationID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetInvitationByNomination(
	ctx context.Context,
	nominationID string,
) (entities.Invitation, bool, error) {
	var row invitationModel
	err := r.db.WithContext(ctx).
		Where("nomination_id = ?", strings.TrimSpace(nominationID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Invitation{}, false, nil
		}
		return entities.Invitation{}, false, r.logError("invitation_repo_get_by_nomination_failed", err,
			"nomination_id", strings.TrimSpace(nominationID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListOpenInvitations(ctx context.Context) ([]entities.Invitation, error) {
	finalStates := []string{
		string(entities.ResponseAccepted),
		string(entities.ResponseDeclined),
		string(entities.ResponseUnresponsive),
	}
	var rows []invitationModel
	if err := r.db.WithContext(ctx).
		Where("response NOT IN ?", finalStates).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("invitation_repo_list_open_failed", err)
	}
	items := make([]entities.Invitation, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// MarkAttentionFlagged flags at most once; the WHERE clause on a NULL flag
// makes repeated sweeps report zero affected rows.
func (r *Repository) MarkAttentionFlagged(
	ctx context.Context,
	invitationID string,
	at time.Time,
) (bool, error) {
	flaggedAt := at.UTC()
	update := r.db.WithContext(ctx).
		Model(&invitationModel{}).
		Where("id = ?", strings.TrimSpace(invitationID)).
		Where("attention_flagged_at IS NULL").
		Updates(map[string]any{
			"attention_flagged_at": &flaggedAt,
			"updated_at":           flaggedAt,
		})
	if update.Error != nil {
		return false, r.logError("invitation_repo_mark_attention_failed", update.Error,
			"invitation_id", strings.TrimSpace(invitationID),
		)
	}
	return update.RowsAffected > 0, nil
}

func (r *Repository) LatestDecline(
	ctx context.Context,
	collegeID string,
	candidatePersonID string,
) (time.Time, bool, error) {
	var row invitationModel
	err := r.db.WithContext(ctx).
		Where("college_id = ?", strings.TrimSpace(collegeID)).
		Where("candidate_person_id = ?", strings.TrimSpace(candidatePersonID)).
		Where("response = ?", string(entities.ResponseDeclined)).
		Where("responded_at IS NOT NULL").
		Order("responded_at DESC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, r.logError("invitation_repo_latest_decline_failed", err,
			"college_id", strings.TrimSpace(collegeID),
			"candidate_person_id", strings.TrimSpace(candidatePersonID),
		)
	}
	return row.RespondedAt.UTC(), true, nil
}

func (r *Repository) GetPerson(ctx context.Context, personID string) (ports.PersonProfile, error) {
	var row personProjectionModel
	err := r.db.WithContext(ctx).
		Where("person_id = ?", strings.TrimSpace(personID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.PersonProfile{}, domainerrors.ErrInvalidInvitationInput
		}
		return ports.PersonProfile{}, r.logError("invitation_repo_get_person_failed", err,
			"person_id", strings.TrimSpace(personID),
		)
	}
	return row.toProfile(), nil
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
		return r.logError("invitation_repo_append_outbox_failed", create.Error,
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
		return nil, r.logError("invitation_repo_list_outbox_failed", err)
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

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "editorial-college/invitation-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("invitation repository operation failed", fields...)
	return err
}

type invitationModel struct {
	ID                 string     `gorm:"column:id;primaryKey"`
	NominationID       string     `gorm:"column:nomination_id"`
	CollegeID          string     `gorm:"column:college_id"`
	CandidatePersonID  string     `gorm:"column:candidate_person_id"`
	Response           string     `gorm:"column:response"`
	InvitedAt          *time.Time `gorm:"column:invited_at"`
	LastContactAt      *time.Time `gorm:"column:last_contact_at"`
	RespondedAt        *time.Time `gorm:"column:responded_at"`
	PostponedUntil     *time.Time `gorm:"column:postponed_until"`
	Comments           string     `gorm:"column:comments"`
	AttentionFlaggedAt *time.Time `gorm:"column:attention_flagged_at"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
}

func (invitationModel) TableName() string {
	return "fellowship_invitations"
}

func invitationModelFromEntity(invitation entities.Invitation) invitationModel {
	row := invitationModel{
		ID:                 strings.TrimSpace(invitation.InvitationID),
		NominationID:       strings.TrimSpace(invitation.NominationID),
		CollegeID:          strings.TrimSpace(invitation.CollegeID),
		CandidatePersonID:  strings.TrimSpace(invitation.CandidatePersonID),
		Response:           string(invitation.Response),
		InvitedAt:          normalizeOptionalTime(invitation.InvitedAt),
		LastContactAt:      normalizeOptionalTime(invitation.LastContactAt),
		RespondedAt:        normalizeOptionalTime(invitation.RespondedAt),
		PostponedUntil:     normalizeOptionalTime(invitation.PostponedUntil),
		Comments:           invitation.Comments,
		AttentionFlaggedAt: normalizeOptionalTime(invitation.AttentionFlaggedAt),
		CreatedAt:          invitation.CreatedAt.UTC(),
		UpdatedAt:          invitation.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m invitationModel) toEntity() entities.Invitation {
	return entities.Invitation{
		InvitationID:       m.ID,
		NominationID:       m.NominationID,
		CollegeID:          m.CollegeID,
		CandidatePersonID:  m.CandidatePersonID,
		Response:           entities.ResponseState(m.Response),
		InvitedAt:          normalizeOptionalTime(m.InvitedAt),
		LastContactAt:      normalizeOptionalTime(m.LastContactAt),
		RespondedAt:        normalizeOptionalTime(m.RespondedAt),
		PostponedUntil:     normalizeOptionalTime(m.PostponedUntil),
		Comments:           m.Comments,
		AttentionFlaggedAt: normalizeOptionalTime(m.AttentionFlaggedAt),
		CreatedAt:          m.CreatedAt.UTC(),
		UpdatedAt:          m.UpdatedAt.UTC(),
	}
}

type personProjectionModel struct {
	PersonID      string `gorm:"column:person_id;primaryKey"`
	Specialties   string `gorm:"column:specialties"`
	AcademicField string `gorm:"column:academic_field"`
	HasAccount    bool   `gorm:"column:has_account"`
}

func (personProjectionModel) TableName() string {
	return "person_profiles"
}

func (m personProjectionModel) toProfile() ports.PersonProfile {
	return ports.PersonProfile{
		PersonID:      m.PersonID,
		Specialties:   splitList(m.Specialties),
		AcademicField: m.AcademicField,
		HasAccount:    m.HasAccount,
	}
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
	return "invitation_outbox"
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

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
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

var _ ports.InvitationRepository = (*Repository)(nil)
var _ ports.DirectoryReader = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
