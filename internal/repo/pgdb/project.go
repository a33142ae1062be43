package pgdb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"construction-marketplace-api/internal/entity"
	"construction-marketplace-api/internal/lifecycle"
	"construction-marketplace-api/internal/repo/repo_errors"
	"construction-marketplace-api/pkg/postgres"
)

type ProjectRepo struct {
	*postgres.Postgres
}

func NewProjectRepo(pgdb *postgres.Postgres) *ProjectRepo {
	return &ProjectRepo{pgdb}
}

var projectColumns = []string{
	"id", "client_id", "title", "description",
	"budget_min", "budget_max", "currency", "location",
	"project_type", "project_subtype", "spec", "timeline",
	"visibility", "min_experience", "min_rating",
	"status", "status_history", "views", "last_activity_at", "created_at",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner, extra ...any) (*entity.Project, error) {
	var p entity.Project
	var spec, timeline, history []byte
	var status string

	dest := []any{&p.Id, &p.ClientId, &p.Title, &p.Description,
		&p.Budget.Min, &p.Budget.Max, &p.Budget.Currency, &p.Location,
		&p.Type, &p.Subtype, &spec, &timeline,
		&p.Visibility, &p.Preferences.MinExperienceYears, &p.Preferences.MinRating,
		&status, &history, &p.Views, &p.LastActivityAt, &p.CreatedAt}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	p.Status = lifecycle.ProjectStatus(status)
	if err := unmarshalColumn(spec, &p.Spec); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(timeline, &p.Timeline); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(history, &p.StatusHistory); err != nil {
		return nil, err
	}

	return &p, nil
}

func (r *ProjectRepo) CreateProject(ctx context.Context, p *entity.Project) error {
	spec, err := marshalColumn(p.Spec)
	if err != nil {
		return err
	}
	timeline, err := marshalColumn(p.Timeline)
	if err != nil {
		return err
	}
	history, err := marshalColumn(p.StatusHistory)
	if err != nil {
		return err
	}

	createSql, args, _ := r.SqlBuilder.
		Insert("project").
		Columns(projectColumns...).
		Values(p.Id, p.ClientId, p.Title, p.Description,
			p.Budget.Min, p.Budget.Max, p.Budget.Currency, p.Location,
			p.Type, p.Subtype, spec, timeline,
			p.Visibility, p.Preferences.MinExperienceYears, p.Preferences.MinRating,
			string(p.Status), history, p.Views, p.LastActivityAt, p.CreatedAt).
		ToSql()

	if _, err = r.Database.ExecContext(ctx, createSql, args...); err != nil {
		return err
	}

	return nil
}

func (r *ProjectRepo) GetProjectById(ctx context.Context, id uuid.UUID) (*entity.Project, error) {
	getSql, args, _ := r.SqlBuilder.
		Select(projectColumns...).
		From("project").
		Where("id = ?", id).
		ToSql()

	p, err := scanProject(r.Database.QueryRowContext(ctx, getSql, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo_errors.ErrNotFound
		}

		return nil, err
	}

	return p, nil
}

func (r *ProjectRepo) UpdateProject(ctx context.Context, p *entity.Project) error {
	spec, err := marshalColumn(p.Spec)
	if err != nil {
		return err
	}
	timeline, err := marshalColumn(p.Timeline)
	if err != nil {
		return err
	}
	history, err := marshalColumn(p.StatusHistory)
	if err != nil {
		return err
	}

	updateSql, args, _ := r.SqlBuilder.
		Update("project").
		Set("title", p.Title).
		Set("description", p.Description).
		Set("budget_min", p.Budget.Min).
		Set("budget_max", p.Budget.Max).
		Set("currency", p.Budget.Currency).
		Set("location", p.Location).
		Set("project_subtype", p.Subtype).
		Set("spec", spec).
		Set("timeline", timeline).
		Set("visibility", p.Visibility).
		Set("min_experience", p.Preferences.MinExperienceYears).
		Set("min_rating", p.Preferences.MinRating).
		Set("status", string(p.Status)).
		Set("status_history", history).
		Set("last_activity_at", p.LastActivityAt).
		Where("id = ?", p.Id).
		ToSql()

	res, err := r.Database.ExecContext(ctx, updateSql, args...)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repo_errors.ErrNotFound
	}

	return nil
}

func (r *ProjectRepo) DeleteProjectCascade(ctx context.Context, id uuid.UUID) (bidIds, vendorIds []uuid.UUID, err error) {
	tx, err := r.Database.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}

	deleteBidsSql, args, _ := r.SqlBuilder.
		Delete("bid").
		Where("project_id = ?", id).
		Suffix("RETURNING id, vendor_id").
		ToSql()

	rows, err := tx.QueryContext(ctx, deleteBidsSql, args...)
	if err != nil {
		if e := tx.Rollback(); e != nil {
			return nil, nil, e
		}

		return nil, nil, err
	}

	bidIds = make([]uuid.UUID, 0)
	vendorIds = make([]uuid.UUID, 0)
	seenVendors := make(map[uuid.UUID]struct{})
	for rows.Next() {
		var bidId, vendorId uuid.UUID
		if err := rows.Scan(&bidId, &vendorId); err != nil {
			rows.Close()
			if e := tx.Rollback(); e != nil {
				return nil, nil, e
			}

			return nil, nil, err
		}
		bidIds = append(bidIds, bidId)
		if _, ok := seenVendors[vendorId]; !ok {
			seenVendors[vendorId] = struct{}{}
			vendorIds = append(vendorIds, vendorId)
		}
	}
	if err = rows.Err(); err != nil {
		rows.Close()
		if e := tx.Rollback(); e != nil {
			return nil, nil, e
		}

		return nil, nil, err
	}
	rows.Close()

	deleteProjectSql, args, _ := r.SqlBuilder.
		Delete("project").
		Where("id = ?", id).
		ToSql()

	res, err := tx.ExecContext(ctx, deleteProjectSql, args...)
	if err != nil {
		if e := tx.Rollback(); e != nil {
			return nil, nil, e
		}

		return nil, nil, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		if e := tx.Rollback(); e != nil {
			return nil, nil, e
		}

		return nil, nil, err
	}
	if affected == 0 {
		if e := tx.Rollback(); e != nil {
			return nil, nil, e
		}

		return nil, nil, repo_errors.ErrNotFound
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, err
	}

	return bidIds, vendorIds, nil
}

func (r *ProjectRepo) SearchProjects(ctx context.Context, in *entity.ProjectSearchInput, pg *entity.PaginationInput) ([]entity.Project, int, error) {
	columns := append(append([]string{}, projectColumns...), "count(*) over() as total")
	builder := r.SqlBuilder.
		Select(columns...).
		From("project")

	if len(in.Types) > 0 {
		builder = builder.Where(squirrel.Eq{"project_type": in.Types})
	}
	if len(in.Statuses) > 0 {
		builder = builder.Where(squirrel.Eq{"status": in.Statuses})
	}
	if in.Location != "" {
		builder = builder.Where("location ILIKE ?", "%"+in.Location+"%")
	}
	if in.BudgetMin != nil {
		builder = builder.Where("budget_max >= ?", *in.BudgetMin)
	}
	if in.BudgetMax != nil {
		builder = builder.Where("budget_min <= ?", *in.BudgetMax)
	}
	if in.Query != "" {
		builder = builder.Where("(title ILIKE ? OR description ILIKE ?)",
			"%"+in.Query+"%", "%"+in.Query+"%")
	}

	searchSql, args, _ := builder.
		OrderBy("last_activity_at DESC").
		Offset(uint64(pg.Offset())).
		Limit(uint64(pg.Limit)).
		ToSql()

	rows, err := r.Database.QueryContext(ctx, searchSql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	projects := make([]entity.Project, 0)
	total := 0
	for rows.Next() {
		p, err := scanProject(rows, &total)
		if err != nil {
			return projects, 0, err
		}
		projects = append(projects, *p)
	}
	if err = rows.Err(); err != nil {
		return projects, 0, err
	}

	return projects, total, nil
}

func (r *ProjectRepo) IncrementProjectViews(ctx context.Context, id uuid.UUID) error {
	incSql, args, _ := r.SqlBuilder.
		Update("project").
		Set("views", squirrel.Expr("views + 1")).
		Where("id = ?", id).
		ToSql()

	if _, err := r.Database.ExecContext(ctx, incSql, args...); err != nil {
		return err
	}

	return nil
}
