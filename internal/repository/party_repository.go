package repository

import (
	"context"
	"database/sql"

	"travel-ledger/internal/apperrors"
	"travel-ledger/internal/domain"
)

const partyColumns = `id, name, vat_number, email, phone, address, created_at`

// party is the column set shared by suppliers and customers.
type party struct {
	ID        string
	Name      string
	VATNumber *string
	Email     *string
	Phone     *string
	Address   *string
	CreatedAt sql.NullTime
}

func (s *PostgresStore) insertParty(ctx context.Context, op, table string, p party) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO `+table+` (`+partyColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.Name, p.VATNumber, p.Email, p.Phone, p.Address, p.CreatedAt.Time)
	return mapError(ctx, op, err)
}

func (s *PostgresStore) queryParties(ctx context.Context, op, table, where string, args ...interface{}) ([]party, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+partyColumns+` FROM `+table+` `+where, args...)
	if err != nil {
		return nil, mapError(ctx, op, err)
	}
	defer rows.Close()

	parties := make([]party, 0)
	for rows.Next() {
		var p party
		var vat, email, phone, address sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &vat, &email, &phone, &address, &p.CreatedAt); err != nil {
			return nil, mapError(ctx, op, err)
		}
		p.VATNumber, p.Email, p.Phone, p.Address = nullString(vat), nullString(email), nullString(phone), nullString(address)
		parties = append(parties, p)
	}
	return parties, mapError(ctx, op, rows.Err())
}

func (s *PostgresStore) CreateSupplier(ctx context.Context, sup *domain.Supplier) error {
	const op = "repository.CreateSupplier"
	if err := s.validator.Struct(op, sup); err != nil {
		return err
	}
	sup.ID = newID(sup.ID)
	sup.CreatedAt = s.now()
	return s.insertParty(ctx, op, "suppliers", party{
		ID: sup.ID, Name: sup.Name, VATNumber: sup.VATNumber, Email: sup.Email,
		Phone: sup.Phone, Address: sup.Address, CreatedAt: sql.NullTime{Time: sup.CreatedAt, Valid: true},
	})
}

func (s *PostgresStore) GetSupplier(ctx context.Context, id string) (*domain.Supplier, error) {
	const op = "repository.GetSupplier"
	parties, err := s.queryParties(ctx, op, "suppliers", "WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(parties) == 0 {
		return nil, apperrors.NotFound(op, "supplier", id)
	}
	sup := toSupplier(parties[0])
	return &sup, nil
}

func (s *PostgresStore) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	parties, err := s.queryParties(ctx, "repository.ListSuppliers", "suppliers", "ORDER BY name")
	if err != nil {
		return nil, err
	}
	out := make([]domain.Supplier, len(parties))
	for i, p := range parties {
		out[i] = toSupplier(p)
	}
	return out, nil
}

func (s *PostgresStore) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	const op = "repository.CreateCustomer"
	if err := s.validator.Struct(op, c); err != nil {
		return err
	}
	c.ID = newID(c.ID)
	c.CreatedAt = s.now()
	return s.insertParty(ctx, op, "customers", party{
		ID: c.ID, Name: c.Name, VATNumber: c.VATNumber, Email: c.Email,
		Phone: c.Phone, Address: c.Address, CreatedAt: sql.NullTime{Time: c.CreatedAt, Valid: true},
	})
}

func (s *PostgresStore) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	const op = "repository.GetCustomer"
	parties, err := s.queryParties(ctx, op, "customers", "WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(parties) == 0 {
		return nil, apperrors.NotFound(op, "customer", id)
	}
	c := toCustomer(parties[0])
	return &c, nil
}

func (s *PostgresStore) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	parties, err := s.queryParties(ctx, "repository.ListCustomers", "customers", "ORDER BY name")
	if err != nil {
		return nil, err
	}
	out := make([]domain.Customer, len(parties))
	for i, p := range parties {
		out[i] = toCustomer(p)
	}
	return out, nil
}

func toSupplier(p party) domain.Supplier {
	return domain.Supplier{ID: p.ID, Name: p.Name, VATNumber: p.VATNumber, Email: p.Email,
		Phone: p.Phone, Address: p.Address, CreatedAt: p.CreatedAt.Time}
}

func toCustomer(p party) domain.Customer {
	return domain.Customer{ID: p.ID, Name: p.Name, VATNumber: p.VATNumber, Email: p.Email,
		Phone: p.Phone, Address: p.Address, CreatedAt: p.CreatedAt.Time}
}
