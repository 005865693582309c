package repository

import (
	"context"
	"database/sql"
	"errors"

	"travel-ledger/internal/apperrors"
	"travel-ledger/internal/domain"
)

const packageColumns = `id, customer_id, client_name, name, start_date, end_date, status, target_margin_percent, created_at, updated_at`

func (s *PostgresStore) CreatePackage(ctx context.Context, pkg *domain.Package) error {
	const op = "repository.CreatePackage"
	if pkg.Status == "" {
		pkg.Status = domain.PackageQuote
	}
	normalizePackage(pkg)
	if err := s.validator.Package(op, pkg); err != nil {
		return err
	}
	if err := checkRef(ctx, s.db, op, "customers", "customer_id", pkg.CustomerID); err != nil {
		return err
	}

	pkg.ID = newID(pkg.ID)
	now := s.now()
	pkg.CreatedAt, pkg.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO packages (`+packageColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, pkg.ID, pkg.CustomerID, pkg.ClientName, pkg.Name, dateParam(pkg.StartDate), dateParam(pkg.EndDate),
		pkg.Status, pkg.TargetMarginPercent, pkg.CreatedAt, pkg.UpdatedAt)
	return mapError(ctx, op, err)
}

func (s *PostgresStore) UpdatePackage(ctx context.Context, pkg *domain.Package) error {
	const op = "repository.UpdatePackage"
	normalizePackage(pkg)
	if err := s.validator.Package(op, pkg); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError(ctx, op, err)
	}
	defer tx.Rollback()

	old, err := scanPackage(tx.QueryRowContext(ctx, `SELECT `+packageColumns+` FROM packages WHERE id = $1 FOR UPDATE`, pkg.ID))
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(op, "package", pkg.ID)
	}
	if err != nil {
		return mapError(ctx, op, err)
	}
	if err := s.validator.PackageTransition(op, old.Status, pkg.Status); err != nil {
		return err
	}
	if err := checkRef(ctx, tx, op, "customers", "customer_id", pkg.CustomerID); err != nil {
		return err
	}

	pkg.CreatedAt = old.CreatedAt
	pkg.UpdatedAt = s.now()
	_, err = tx.ExecContext(ctx, `
		UPDATE packages
		SET customer_id = $2, client_name = $3, name = $4, start_date = $5, end_date = $6,
		    status = $7, target_margin_percent = $8, updated_at = $9
		WHERE id = $1
	`, pkg.ID, pkg.CustomerID, pkg.ClientName, pkg.Name, dateParam(pkg.StartDate), dateParam(pkg.EndDate),
		pkg.Status, pkg.TargetMarginPercent, pkg.UpdatedAt)
	if err != nil {
		return mapError(ctx, op, err)
	}
	return mapError(ctx, op, tx.Commit())
}

func (s *PostgresStore) GetPackage(ctx context.Context, id string) (*domain.Package, error) {
	const op = "repository.GetPackage"
	pkg, err := scanPackage(s.db.QueryRowContext(ctx, `SELECT `+packageColumns+` FROM packages WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound(op, "package", id)
	}
	if err != nil {
		return nil, mapError(ctx, op, err)
	}
	return pkg, nil
}

func (s *PostgresStore) ListPackages(ctx context.Context) ([]domain.Package, error) {
	const op = "repository.ListPackages"
	rows, err := s.db.QueryContext(ctx, `SELECT `+packageColumns+` FROM packages ORDER BY start_date, id`)
	if err != nil {
		return nil, mapError(ctx, op, err)
	}
	defer rows.Close()

	packages := make([]domain.Package, 0)
	for rows.Next() {
		pkg, err := scanPackage(rows)
		if err != nil {
			return nil, mapError(ctx, op, err)
		}
		packages = append(packages, *pkg)
	}
	return packages, mapError(ctx, op, rows.Err())
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPackage(row rowScanner) (*domain.Package, error) {
	var pkg domain.Package
	var customerID sql.NullString
	err := row.Scan(
		&pkg.ID,
		&customerID,
		&pkg.ClientName,
		&pkg.Name,
		&pkg.StartDate,
		&pkg.EndDate,
		&pkg.Status,
		&pkg.TargetMarginPercent,
		&pkg.CreatedAt,
		&pkg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	pkg.CustomerID = nullString(customerID)
	pkg.StartDate = domain.Date(pkg.StartDate)
	pkg.EndDate = domain.Date(pkg.EndDate)
	return &pkg, nil
}
