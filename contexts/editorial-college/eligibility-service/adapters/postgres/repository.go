package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"collegium/contexts/editorial-college/eligibility-service/domain/entities"
	domainerrors "collegium/contexts/editorial-college/eligibility-service/domain/errors"
	"collegium/contexts/editorial-college/eligibility-service/ports"
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

func (r *Repository) SaveFellow(ctx context.Context, fellow entities.Fellow) error {
	row := fellowModelFromEntity(fellow)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"start_date": row.StartDate,
			"until_date": row.UntilDate,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("eligibility_repo_save_fellow_failed", create.Error,
			"fellow_id", strings.TrimSpace(fellow.FellowID),
		)
	}
	return nil
}

func (r *Repository) GetFellow(ctx context.Context, fellowID string) (entities.Fellow, error) {
	var row fellowModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(fellowID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Fellow{}, domainerrors.ErrFellowNotFound
		}
		return entities.Fellow{}, r.logError("eligibility_repo_get_fellow_failed", err,
			"fellow_id", strings.TrimSpace(fellowID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListFellowsByCollege(ctx context.Context, collegeID string) ([]entities.Fellow, error) {
	var rows []fellowModel
	if err := r.db.WithContext(ctx).
		Where("college_id = ?", strings.TrimSpace(collegeID)).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("eligibility_repo_list_fellows_failed", err,
			"college_id", strings.TrimSpace(collegeID),
		)
	}
	items := make([]entities.Fellow, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) FindFellowship(
	ctx context.Context,
	collegeID string,
	personID string,
	at time.Time,
) (entities.Fellow, bool, error) {
	var row fellowModel
	err := r.db.WithContext(ctx).
		Where("college_id = ?", strings.TrimSpace(collegeID)).
		Where("person_id = ?", strings.TrimSpace(personID)).
		Where("start_date IS NULL OR start_date <= ?", at.UTC()).
		Where("until_date IS NULL OR until_date > ?", at.UTC()).
		Order("created_at DESC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Fellow{}, false, nil
		}
		return entities.Fellow{}, false, r.logError("eligibility_repo_find_fellowship_failed", err,
			"college_id", strings.TrimSpace(collegeID),
			"person_id", strings.TrimSpace(personID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) UpsertPoolEntry(ctx context.Context, entry entities.PoolEntry) error {
	row := poolEntryModelFromEntity(entry)
	// Existing rows keep their admin-placed source and removal flag; only the
	// refresh timestamp moves.
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "submission_id"}, {Name: "fellow_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("eligibility_repo_upsert_pool_failed", create.Error,
			"submission_id", strings.TrimSpace(entry.SubmissionID),
			"fellow_id", strings.TrimSpace(entry.FellowID),
		)
	}
	if entry.Source == entities.PoolSourceAdminOverride {
		// Admin adds always win over a previous automatic record.
		if err := r.db.WithContext(ctx).
			Model(&poolEntryModel{}).
			Where("submission_id = ?", row.SubmissionID).
			Where("fellow_id = ?", row.FellowID).
			Updates(map[string]any{
				"source":           string(entities.PoolSourceAdminOverride),
				"removed_by_admin": false,
				"updated_at":       row.UpdatedAt,
			}).Error; err != nil {
			return r.logError("eligibility_repo_promote_pool_entry_failed", err,
				"submission_id", row.SubmissionID,
				"fellow_id", row.FellowID,
			)
		}
	}
	return nil
}

func (r *Repository) ListPool(ctx context.Context, submissionID string) ([]entities.PoolEntry, error) {
	var rows []poolEntryModel
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", strings.TrimSpace(submissionID)).
		Order("fellow_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("eligibility_repo_list_pool_failed", err,
			"submission_id", strings.TrimSpace(submissionID),
		)
	}
	items := make([]entities.PoolEntry, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) SetAdminRemoved(
	ctx context.Context,
	submissionID string,
	fellowID string,
	removed bool,
	at time.Time,
) error {
	result := r.db.WithContext(ctx).
		Model(&poolEntryModel{}).
		Where("submission_id = ?", strings.TrimSpace(submissionID)).
		Where("fellow_id = ?", strings.TrimSpace(fellowID)).
		Updates(map[string]any{
			"removed_by_admin": removed,
			"updated_at":       at.UTC(),
		})
	if result.Error != nil {
		return r.logError("eligibility_repo_set_admin_removed_failed", result.Error,
			"submission_id", strings.TrimSpace(submissionID),
			"fellow_id", strings.TrimSpace(fellowID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrPoolEntryNotFound
	}
	return nil
}

func (r *Repository) GetPerson(ctx context.Context, personID string) (ports.PersonProfile, error) {
	var row personProjectionModel
	err := r.db.WithContext(ctx).
		Where("person_id = ?", strings.TrimSpace(personID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.PersonProfile{}, domainerrors.ErrPersonNotFound
		}
		return ports.PersonProfile{}, r.logError("eligibility_repo_get_person_failed", err,
			"person_id", strings.TrimSpace(personID),
		)
	}
	return row.toProfile(), nil
}

func (r *Repository) GetManuscript(ctx context.Context, submissionID string) (ports.ManuscriptTarget, error) {
	var row manuscriptProjectionModel
	err := r.db.WithContext(ctx).
		Where("submission_id = ?", strings.TrimSpace(submissionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ManuscriptTarget{}, domainerrors.ErrManuscriptNotFound
		}
		return ports.ManuscriptTarget{}, r.logError("eligibility_repo_get_manuscript_failed", err,
			"submission_id", strings.TrimSpace(submissionID),
		)
	}
	return row.toTarget()
}

func (r *Repository) HasConflict(ctx context.Context, personA string, personB string) (bool, error) {
	a := strings.TrimSpace(personA)
	b := strings.TrimSpace(personB)
	var count int64
	err := r.db.WithContext(ctx).
		Model(&competingInterestModel{}).
		Where("(person_a = ? AND person_b = ?) OR (person_a = ? AND person_b = ?)", a, b, b, a).
		Count(&count).
		Error
	if err != nil {
		if isUndefinedTable(err) {
			// Conflict registry projection is optional in local development.
			return false, nil
		}
		return false, r.logError("eligibility_repo_has_conflict_failed", err)
	}
	return count > 0, nil
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
		return r.logError("eligibility_repo_append_outbox_failed", create.Error,
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
		return nil, r.logError("eligibility_repo_list_outbox_failed", err)
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
		"module", "editorial-college/eligibility-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("eligibility repository operation failed", fields...)
	return err
}

type fellowModel struct {
	ID        string     `gorm:"column:id;primaryKey"`
	PersonID  string     `gorm:"column:person_id"`
	CollegeID string     `gorm:"column:college_id"`
	Tier      string     `gorm:"column:tier"`
	StartDate *time.Time `gorm:"column:start_date"`
	UntilDate *time.Time `gorm:"column:until_date"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at"`
}

func (fellowModel) TableName() string {
	return "fellows"
}

func fellowModelFromEntity(fellow entities.Fellow) fellowModel {
	row := fellowModel{
		ID:        strings.TrimSpace(fellow.FellowID),
		PersonID:  strings.TrimSpace(fellow.PersonID),
		CollegeID: strings.TrimSpace(fellow.CollegeID),
		Tier:      string(fellow.Tier),
		StartDate: normalizeOptionalTime(fellow.StartDate),
		UntilDate: normalizeOptionalTime(fellow.UntilDate),
		CreatedAt: fellow.CreatedAt.UTC(),
		UpdatedAt: fellow.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m fellowModel) toEntity() entities.Fellow {
	return entities.Fellow{
		FellowID:  m.ID,
		PersonID:  m.PersonID,
		CollegeID: m.CollegeID,
		Tier:      entities.FellowTier(m.Tier),
		StartDate: normalizeOptionalTime(m.StartDate),
		UntilDate: normalizeOptionalTime(m.UntilDate),
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type poolEntryModel struct {
	SubmissionID   string    `gorm:"column:submission_id;primaryKey"`
	FellowID       string    `gorm:"column:fellow_id;primaryKey"`
	Source         string    `gorm:"column:source"`
	RemovedByAdmin bool      `gorm:"column:removed_by_admin"`
	AddedAt        time.Time `gorm:"column:added_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (poolEntryModel) TableName() string {
	return "submission_pools"
}

func poolEntryModelFromEntity(entry entities.PoolEntry) poolEntryModel {
	row := poolEntryModel{
		SubmissionID:   strings.TrimSpace(entry.SubmissionID),
		FellowID:       strings.TrimSpace(entry.FellowID),
		Source:         string(entry.Source),
		RemovedByAdmin: entry.RemovedByAdmin,
		AddedAt:        entry.AddedAt.UTC(),
		UpdatedAt:      entry.UpdatedAt.UTC(),
	}
	if row.AddedAt.IsZero() {
		row.AddedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.AddedAt
	}
	return row
}

func (m poolEntryModel) toEntity() entities.PoolEntry {
	return entities.PoolEntry{
		SubmissionID:   m.SubmissionID,
		FellowID:       m.FellowID,
		Source:         entities.PoolSource(m.Source),
		RemovedByAdmin: m.RemovedByAdmin,
		AddedAt:        m.AddedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
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

type manuscriptProjectionModel struct {
	SubmissionID string `gorm:"column:submission_id;primaryKey"`
	CollegeID    string `gorm:"column:college_id"`
	Specialties  string `gorm:"column:specialties"`
	Authors      string `gorm:"column:author_person_ids"`
	Claimants    string `gorm:"column:claimant_person_ids"`
}

func (manuscriptProjectionModel) TableName() string {
	return "manuscripts"
}

func (m manuscriptProjectionModel) toTarget() (ports.ManuscriptTarget, error) {
	return ports.ManuscriptTarget{
		SubmissionID:      m.SubmissionID,
		CollegeID:         m.CollegeID,
		SpecialtyIDs:      splitList(m.Specialties),
		AuthorPersonIDs:   splitList(m.Authors),
		ClaimantPersonIDs: splitList(m.Claimants),
	}, nil
}

type competingInterestModel struct {
	PersonA string `gorm:"column:person_a"`
	PersonB string `gorm:"column:person_b"`
	Reason  string `gorm:"column:reason"`
}

func (competingInterestModel) TableName() string {
	return "competing_interests"
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
	return "eligibility_outbox"
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

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}

var _ ports.FellowRepository = (*Repository)(nil)
var _ ports.PoolRepository = (*Repository)(nil)
var _ ports.DirectoryReader = (*Repository)(nil)
var _ ports.ConflictRegistry = (*Repository)(nil)
var _ ports.ManuscriptReader = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
