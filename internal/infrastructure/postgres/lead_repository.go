package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sngm3741/revision-landing-services/api/internal/public/domain"
)

const uniqueViolation = "23505"

const leadColumns = `id, name, phone, revision_type_id, revision_type_title, user_agent, ip_address, referrer,
	utm_source, utm_medium, utm_campaign, utm_term, utm_content, status, consent_privacy, created_at`

// LeadRepository stores leads in the leads table.
type LeadRepository struct {
	db *DB
}

func NewLeadRepository(db *DB) *LeadRepository { return &LeadRepository{db: db} }

// NewID returns a fresh uuid string.
func (r *LeadRepository) NewID() string { return uuid.NewString() }

// Create inserts one lead, keeping lead.ID when it is set and assigning a uuid otherwise.
func (r *LeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	id, err := leadUUID(lead.ID)
	if err != nil {
		return &domain.StorageError{Op: "insert lead", Err: err}
	}
	_, err = r.db.Pool.Exec(ctx, `INSERT INTO leads (`+leadColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		id, lead.Name, lead.Phone, lead.RevisionTypeID, lead.RevisionTypeTitle,
		lead.UserAgent, lead.IPAddress, lead.Referrer,
		lead.UTM.Source, lead.UTM.Medium, lead.UTM.Campaign, lead.UTM.Term, lead.UTM.Content,
		lead.Status, lead.ConsentPrivacy, lead.CreatedAt,
	)
	if err != nil {
		return classifyError("insert lead", err)
	}
	lead.ID = id.String()
	return nil
}

func leadUUID(id string) (uuid.UUID, error) {
	if id == "" {
		return uuid.New(), nil
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid lead id %q: %w", id, err)
	}
	return parsed, nil
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*domain.Lead, error) {
	return findLeadByID(ctx, r.db, id)
}

func findLeadByID(ctx context.Context, db *DB, id string) (*domain.Lead, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrLeadNotFound
	}
	row := db.Pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, parsed)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLeadNotFound
		}
		return nil, &domain.StorageError{Op: "find lead", Err: err}
	}
	return lead, nil
}

func scanLead(row pgx.Row) (*domain.Lead, error) {
	var (
		lead domain.Lead
		id   uuid.UUID
	)
	err := row.Scan(
		&id, &lead.Name, &lead.Phone, &lead.RevisionTypeID, &lead.RevisionTypeTitle,
		&lead.UserAgent, &lead.IPAddress, &lead.Referrer,
		&lead.UTM.Source, &lead.UTM.Medium, &lead.UTM.Campaign, &lead.UTM.Term, &lead.UTM.Content,
		&lead.Status, &lead.ConsentPrivacy, &lead.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	lead.ID = id.String()
	lead.CreatedAt = lead.CreatedAt.UTC()
	return &lead, nil
}

// classifyError maps a unique violation to ErrDuplicateLead and wraps anything
// else in a StorageError.
func classifyError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, domain.ErrDuplicateLead)
	}
	return &domain.StorageError{Op: op, Err: err}
}
