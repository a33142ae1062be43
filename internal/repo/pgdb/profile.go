package pgdb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"construction-marketplace-api/internal/entity"
	"construction-marketplace-api/internal/repo/repo_errors"
	"construction-marketplace-api/pkg/postgres"
)

type ProfileRepo struct {
	*postgres.Postgres
}

func NewProfileRepo(pgdb *postgres.Postgres) *ProfileRepo {
	return &ProfileRepo{pgdb}
}

func (r *ProfileRepo) GetClientByUserId(ctx context.Context, userId uuid.UUID) (*entity.ClientProfile, error) {
	sqlReq, args, _ := r.SqlBuilder.
		Select("id", "user_id", "name", "company", "created_at").
		From("client_profile").
		Where("user_id = ?", userId).
		ToSql()

	var client entity.ClientProfile
	err := r.Database.QueryRowContext(ctx, sqlReq, args...).
		Scan(&client.Id, &client.UserId, &client.Name, &client.Company, &client.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo_errors.ErrNotFound
		}

		return nil, err
	}

	return &client, nil
}

func (r *ProfileRepo) GetVendorByUserId(ctx context.Context, userId uuid.UUID) (*entity.VendorProfile, error) {
	return r.getVendor(ctx, "user_id", userId)
}

func (r *ProfileRepo) GetVendorById(ctx context.Context, id uuid.UUID) (*entity.VendorProfile, error) {
	return r.getVendor(ctx, "id", id)
}

func (r *ProfileRepo) getVendor(ctx context.Context, column string, value uuid.UUID) (*entity.VendorProfile, error) {
	sqlReq, args, _ := r.SqlBuilder.
		Select("id", "user_id", "company_name", "status", "services",
			"years_in_business", "rating", "verified", "completed_projects", "created_at").
		From("vendor_profile").
		Where(column+" = ?", value).
		ToSql()

	var vendor entity.VendorProfile
	err := r.Database.QueryRowContext(ctx, sqlReq, args...).
		Scan(&vendor.Id, &vendor.UserId, &vendor.CompanyName, &vendor.Status,
			pq.Array(&vendor.Services), &vendor.YearsInBusiness, &vendor.Rating,
			&vendor.Verified, &vendor.CompletedProjects, &vendor.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo_errors.ErrNotFound
		}

		return nil, err
	}

	return &vendor, nil
}
