package pgdb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"construction-marketplace-api/internal/entity"
	"construction-marketplace-api/internal/lifecycle"
	"construction-marketplace-api/internal/repo/repo_errors"
	"construction-marketplace-api/pkg/postgres"
)

type BidRepo struct {
	*postgres.Postgres
}

func NewBidRepo(pgdb *postgres.Postgres) *BidRepo {
	return &BidRepo{pgdb}
}

var bidColumns = []string{
	"id", "project_id", "vendor_id", "total_cost", "currency",
	"breakdown", "timeline", "proposal", "team", "negotiations",
	"status", "status_history", "client_viewed", "competitiveness",
	"submitted_at", "updated_at",
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error

	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func scanBid(row rowScanner, extra ...any) (*entity.Bid, error) {
	var b entity.Bid
	var breakdown, timeline, team, negotiations, history []byte
	var status string
	var competitiveness sql.NullFloat64

	dest := []any{&b.Id, &b.ProjectId, &b.VendorId, &b.TotalCost, &b.Currency,
		&breakdown, &timeline, &b.Proposal, &team, &negotiations,
		&status, &history, &b.ClientViewed, &competitiveness,
		&b.SubmittedAt, &b.UpdatedAt}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	b.Status = lifecycle.BidStatus(status)
	if competitiveness.Valid {
		b.Competitiveness = &competitiveness.Float64
	}
	if err := unmarshalColumn(breakdown, &b.Breakdown); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(timeline, &b.Timeline); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(team, &b.Team); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(negotiations, &b.Negotiations); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(history, &b.StatusHistory); err != nil {
		return nil, err
	}

	return &b, nil
}

type bidColumnValues struct {
	breakdown    []byte
	timeline     []byte
	team         []byte
	negotiations []byte
	history      []byte
}

func encodeBid(b *entity.Bid) (*bidColumnValues, error) {
	var v bidColumnValues
	var err error

	if v.breakdown, err = marshalColumn(b.Breakdown); err != nil {
		return nil, err
	}
	if v.timeline, err = marshalColumn(b.Timeline); err != nil {
		return nil, err
	}
	if v.team, err = marshalColumn(b.Team); err != nil {
		return nil, err
	}
	if v.negotiations, err = marshalColumn(b.Negotiations); err != nil {
		return nil, err
	}
	if v.history, err = marshalColumn(b.StatusHistory); err != nil {
		return nil, err
	}

	return &v, nil
}

func (r *BidRepo) CreateBid(ctx context.Context, b *entity.Bid) error {
	vals, err := encodeBid(b)
	if err != nil {
		return err
	}

	createSql, args, _ := r.SqlBuilder.
		Insert("bid").
		Columns(bidColumns...).
		Values(b.Id, b.ProjectId, b.VendorId, b.TotalCost, b.Currency,
			vals.breakdown, vals.timeline, b.Proposal, vals.team, vals.negotiations,
			string(b.Status), vals.history, b.ClientViewed, b.Competitiveness,
			b.SubmittedAt, b.UpdatedAt).
		ToSql()

	if _, err = r.Database.ExecContext(ctx, createSql, args...); err != nil {
		if isUniqueViolation(err) {
			return repo_errors.ErrConflict
		}

		return err
	}

	return nil
}

func (r *BidRepo) GetBidById(ctx context.Context, id uuid.UUID) (*entity.Bid, error) {
	getSql, args, _ := r.SqlBuilder.
		Select(bidColumns...).
		From("bid").
		Where("id = ?", id).
		ToSql()

	b, err := scanBid(r.Database.QueryRowContext(ctx, getSql, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo_errors.ErrNotFound
		}

		return nil, err
	}

	return b, nil
}

func (r *BidRepo) BidExists(ctx context.Context, projectId, vendorId uuid.UUID) (bool, error) {
	existsSql, args, _ := r.SqlBuilder.
		Select("id").
		From("bid").
		Where("project_id = ?", projectId).
		Where("vendor_id = ?", vendorId).
		ToSql()

	var id uuid.UUID
	err := r.Database.QueryRowContext(ctx, existsSql, args...).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

func (r *BidRepo) updateBidBuilder(b *entity.Bid, vals *bidColumnValues) squirrel.UpdateBuilder {
	return r.SqlBuilder.
		Update("bid").
		Set("total_cost", b.TotalCost).
		Set("currency", b.Currency).
		Set("breakdown", vals.breakdown).
		Set("timeline", vals.timeline).
		Set("proposal", b.Proposal).
		Set("team", vals.team).
		Set("negotiations", vals.negotiations).
		Set("status", string(b.Status)).
		Set("status_history", vals.history).
		Set("client_viewed", b.ClientViewed).
		Set("competitiveness", b.Competitiveness).
		Set("updated_at", b.UpdatedAt).
		Where("id = ?", b.Id)
}

func (r *BidRepo) UpdateBid(ctx context.Context, b *entity.Bid) error {
	vals, err := encodeBid(b)
	if err != nil {
		return err
	}

	updateSql, args, _ := r.updateBidBuilder(b, vals).ToSql()

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

func (r *BidRepo) DeleteBid(ctx context.Context, id uuid.UUID) error {
	deleteSql, args, _ := r.SqlBuilder.
		Delete("bid").
		Where("id = ?", id).
		ToSql()

	res, err := r.Database.ExecContext(ctx, deleteSql, args...)
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

func (r *BidRepo) pagedBids(ctx context.Context, column string, value uuid.UUID, pg *entity.PaginationInput) ([]entity.Bid, int, error) {
	columns := append(append([]string{}, bidColumns...), "count(*) over() as total")
	listSql, args, _ := r.SqlBuilder.
		Select(columns...).
		From("bid").
		Where(column+" = ?", value).
		OrderBy("submitted_at DESC").
		Offset(uint64(pg.Offset())).
		Limit(uint64(pg.Limit)).
		ToSql()

	rows, err := r.Database.QueryContext(ctx, listSql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	bids := make([]entity.Bid, 0)
	total := 0
	for rows.Next() {
		b, err := scanBid(rows, &total)
		if err != nil {
			return bids, 0, err
		}
		bids = append(bids, *b)
	}
	if err = rows.Err(); err != nil {
		return bids, 0, err
	}

	return bids, total, nil
}

func (r *BidRepo) GetProjectBids(ctx context.Context, projectId uuid.UUID, pg *entity.PaginationInput) ([]entity.Bid, int, error) {
	return r.pagedBids(ctx, "project_id", projectId, pg)
}

func (r *BidRepo) GetVendorBids(ctx context.Context, vendorId uuid.UUID, pg *entity.PaginationInput) ([]entity.Bid, int, error) {
	return r.pagedBids(ctx, "vendor_id", vendorId, pg)
}

func (r *BidRepo) GetProjectBidsBatch(ctx context.Context, projectIds []uuid.UUID) (map[uuid.UUID][]entity.Bid, error) {
	ids := make([]string, 0, len(projectIds))
	for _, id := range projectIds {
		ids = append(ids, id.String())
	}

	batchSql, args, _ := r.SqlBuilder.
		Select(bidColumns...).
		From("bid").
		Where("project_id = any(?)", pq.Array(ids)).
		OrderBy("project_id", "submitted_at DESC").
		ToSql()

	rows, err := r.Database.QueryContext(ctx, batchSql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byProject := make(map[uuid.UUID][]entity.Bid, len(projectIds))
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return byProject, err
		}
		byProject[b.ProjectId] = append(byProject[b.ProjectId], *b)
	}
	if err = rows.Err(); err != nil {
		return byProject, err
	}

	return byProject, nil
}

func (r *BidRepo) GetCompetingBids(ctx context.Context, projectId uuid.UUID, excludeBidId uuid.UUID) ([]entity.Bid, error) {
	competingSql, args, _ := r.SqlBuilder.
		Select(bidColumns...).
		From("bid").
		Where("project_id = ?", projectId).
		Where(squirrel.Eq{"status": []string{
			string(lifecycle.BidPending), string(lifecycle.BidInReview),
		}}).
		Where("id <> ?", excludeBidId).
		ToSql()

	rows, err := r.Database.QueryContext(ctx, competingSql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bids := make([]entity.Bid, 0)
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return bids, err
		}
		bids = append(bids, *b)
	}
	if err = rows.Err(); err != nil {
		return bids, err
	}

	return bids, nil
}

// SelectBid is the one multi-entity mutation in the system: the accepted bid,
// the bulk rejection of its competitors and the project status change either
// all commit or none do. The accept itself is a compare-and-swap on the live
// statuses, so a selection racing another selection on the same project
// rolls back with repo_errors.ErrConflict instead of resurrecting a bid the
// winner already rejected.
func (r *BidRepo) SelectBid(ctx context.Context, accepted *entity.Bid, project *entity.Project, rejectReason string) error {
	vals, err := encodeBid(accepted)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	rejectEntry, err := marshalColumn([]entity.StatusChange{{
		Status:    string(lifecycle.BidRejected),
		Timestamp: now,
		Reason:    rejectReason,
	}})
	if err != nil {
		return err
	}

	spec, err := marshalColumn(project.Spec)
	if err != nil {
		return err
	}
	timeline, err := marshalColumn(project.Timeline)
	if err != nil {
		return err
	}
	projectHistory, err := marshalColumn(project.StatusHistory)
	if err != nil {
		return err
	}

	tx, err := r.Database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	acceptSql, args, _ := r.updateBidBuilder(accepted, vals).
		Where(squirrel.Eq{"status": []string{
			string(lifecycle.BidPending), string(lifecycle.BidInReview),
		}}).
		ToSql()
	res, err := tx.ExecContext(ctx, acceptSql, args...)
	if err != nil {
		if e := tx.Rollback(); e != nil {
			return e
		}

		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		if e := tx.Rollback(); e != nil {
			return e
		}

		return err
	}
	if affected == 0 {
		if e := tx.Rollback(); e != nil {
			return e
		}

		return repo_errors.ErrConflict
	}

	// jsonb || concatenates arrays, so the rejection entry is appended to
	// each competitor's history in place.
	rejectSql, args, _ := r.SqlBuilder.
		Update("bid").
		Set("status", string(lifecycle.BidRejected)).
		Set("status_history", squirrel.Expr("status_history || ?::jsonb", rejectEntry)).
		Set("updated_at", now).
		Where("project_id = ?", accepted.ProjectId).
		Where("id <> ?", accepted.Id).
		Where(squirrel.Eq{"status": []string{
			string(lifecycle.BidPending), string(lifecycle.BidInReview),
		}}).
		ToSql()
	if _, err = tx.ExecContext(ctx, rejectSql, args...); err != nil {
		if e := tx.Rollback(); e != nil {
			return e
		}

		return err
	}

	projectSql, args, _ := r.SqlBuilder.
		Update("project").
		Set("spec", spec).
		Set("timeline", timeline).
		Set("status", string(project.Status)).
		Set("status_history", projectHistory).
		Set("last_activity_at", project.LastActivityAt).
		Where("id = ?", project.Id).
		ToSql()
	if _, err = tx.ExecContext(ctx, projectSql, args...); err != nil {
		if e := tx.Rollback(); e != nil {
			return e
		}

		return err
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *BidRepo) SetBidCompetitiveness(ctx context.Context, id uuid.UUID, score float64) error {
	scoreSql, args, _ := r.SqlBuilder.
		Update("bid").
		Set("competitiveness", score).
		Where("id = ?", id).
		ToSql()

	if _, err := r.Database.ExecContext(ctx, scoreSql, args...); err != nil {
		return err
	}

	return nil
}

func (r *BidRepo) MarkBidViewed(ctx context.Context, id uuid.UUID) error {
	viewedSql, args, _ := r.SqlBuilder.
		Update("bid").
		Set("client_viewed", true).
		Where("id = ?", id).
		ToSql()

	if _, err := r.Database.ExecContext(ctx, viewedSql, args...); err != nil {
		return err
	}

	return nil
}
