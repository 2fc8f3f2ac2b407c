package postgres

import (
	"context"
	"fmt"
	"strings"

	adminapp "github.com/sngm3741/revision-landing-services/api/internal/admin/application"
	admindomain "github.com/sngm3741/revision-landing-services/api/internal/admin/domain"
)

// AdminLeadRepository serves the admin listing from the leads table.
type AdminLeadRepository struct {
	db *DB
}

func NewAdminLeadRepository(db *DB) *AdminLeadRepository { return &AdminLeadRepository{db: db} }

func (r *AdminLeadRepository) Find(ctx context.Context, filter adminapp.LeadFilter, paging adminapp.Paging) ([]admindomain.Lead, error) {
	where, args := buildWhere(filter)
	sql := `SELECT ` + leadColumns + ` FROM leads` + where + ` ORDER BY created_at DESC`
	if paging.Limit > 0 {
		args = append(args, paging.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
		if paging.Page > 1 {
			args = append(args, (paging.Page-1)*paging.Limit)
			sql += fmt.Sprintf(" OFFSET $%d", len(args))
		}
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]admindomain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *lead)
	}
	return leads, rows.Err()
}

func (r *AdminLeadRepository) Count(ctx context.Context, filter adminapp.LeadFilter) (int64, error) {
	where, args := buildWhere(filter)
	var total int64
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM leads`+where, args...).Scan(&total)
	return total, err
}

func (r *AdminLeadRepository) FindByID(ctx context.Context, id string) (*admindomain.Lead, error) {
	return findLeadByID(ctx, r.db, id)
}

func (r *AdminLeadRepository) CountByRevisionType(ctx context.Context) (map[int]int64, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT revision_type_id, count(*) FROM leads GROUP BY revision_type_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int64)
	for rows.Next() {
		var (
			id    int
			count int64
		)
		if err := rows.Scan(&id, &count); err != nil {
			return nil, err
		}
		counts[id] = count
	}
	return counts, rows.Err()
}

func (r *AdminLeadRepository) CountBySource(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT coalesce(utm_source, ''), count(*) FROM leads GROUP BY 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			source string
			count  int64
		)
		if err := rows.Scan(&source, &count); err != nil {
			return nil, err
		}
		counts[source] += count
	}
	return counts, rows.Err()
}

func buildWhere(filter adminapp.LeadFilter) (string, []any) {
	clauses := make([]string, 0, 3)
	args := make([]any, 0, 3)

	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.RevisionTypeID != nil {
		args = append(args, *filter.RevisionTypeID)
		clauses = append(clauses, fmt.Sprintf("revision_type_id = $%d", len(args)))
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		args = append(args, "%"+escapeLike(keyword)+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR phone ILIKE $%d OR revision_type_title ILIKE $%d)", n, n, n))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
