package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"

	"github.com/hackfest/registration-backend/internal/db"
	"github.com/hackfest/registration-backend/internal/model"
)

type Registration struct {
	ID               string              `db:"id"`
	TeamName         string              `db:"team_name"`
	RegistrationDate time.Time           `db:"registration_date"`
	PaymentStatus    model.PaymentStatus `db:"payment_status"`
	Amount           int64               `db:"amount"`
	OrderID          *string             `db:"order_id"`
}

type Member struct {
	RegistrationID string `db:"registration_id"`
	Position       int    `db:"position"`
	Name           string `db:"name"`
	Email          string `db:"email"`
	Phone          string `db:"phone"`
	Roll           string `db:"roll"`
	College        string `db:"college"`
}

type RegistrationPatch struct {
	ID            string               `db:"id"`
	PaymentStatus *model.PaymentStatus `db:"payment_status"`
	OrderID       *string              `db:"order_id"`
}

type RegistrationRepository interface {
	Create(ctx context.Context, reg *Registration) error
	AddMember(ctx context.Context, m *Member) error
	Get(ctx context.Context, id string) (*Registration, error)
	GetByOrderID(ctx context.Context, orderID string) (*Registration, error)
	GetMembers(ctx context.Context, registrationID string) ([]*Member, error)
	List(ctx context.Context) ([]*Registration, error)
	Patch(ctx context.Context, patch *RegistrationPatch) (*Registration, error)
	CompletePayment(ctx context.Context, orderID string) (*Registration, error)
}

type pgxRegistrationRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRegistrationRepository(pool *pgxpool.Pool) RegistrationRepository {
	return &pgxRegistrationRepository{pool: pool}
}

func (p *pgxRegistrationRepository) Create(ctx context.Context, reg *Registration) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("registration", "id", "team_name", "registration_date", "payment_status", "amount"),
		im.Values(
			psql.Arg(reg.ID),
			psql.Arg(reg.TeamName),
			psql.Arg(reg.RegistrationDate),
			psql.Arg(reg.PaymentStatus),
			psql.Arg(reg.Amount),
		),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	_, err = e.Exec(ctx, sql, args...)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyExists
	}

	return err
}

func (p *pgxRegistrationRepository) AddMember(ctx context.Context, m *Member) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("registration_member", "registration_id", "position", "name", "email", "phone", "roll", "college"),
		im.Values(
			psql.Arg(m.RegistrationID),
			psql.Arg(m.Position),
			psql.Arg(m.Name),
			psql.Arg(m.Email),
			psql.Arg(m.Phone),
			psql.Arg(m.Roll),
			psql.Arg(m.College),
		),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	_, err = e.Exec(ctx, sql, args...)
	return err
}

func (p *pgxRegistrationRepository) Get(ctx context.Context, id string) (*Registration, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id", "team_name", "registration_date", "payment_status", "amount", "order_id"),
		sm.From("registration"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	return p.scanOne(e.QueryRow(ctx, sql, args...))
}

func (p *pgxRegistrationRepository) GetByOrderID(ctx context.Context, orderID string) (*Registration, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id", "team_name", "registration_date", "payment_status", "amount", "order_id"),
		sm.From("registration"),
		sm.Where(psql.Quote("order_id").EQ(psql.Arg(orderID))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	return p.scanOne(e.QueryRow(ctx, sql, args...))
}

func (p *pgxRegistrationRepository) GetMembers(ctx context.Context, registrationID string) ([]*Member, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("registration_id", "position", "name", "email", "phone", "roll", "college"),
		sm.From("registration_member"),
		sm.Where(psql.Quote("registration_id").EQ(psql.Arg(registrationID))),
		sm.OrderBy("position"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Member, error) {
		m := &Member{}
		if err = row.Scan(&m.RegistrationID, &m.Position, &m.Name, &m.Email, &m.Phone, &m.Roll, &m.College); err != nil {
			return nil, err
		}
		return m, nil
	})
	if err != nil {
		return nil, err
	}

	return members, nil
}

func (p *pgxRegistrationRepository) List(ctx context.Context) ([]*Registration, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id", "team_name", "registration_date", "payment_status", "amount", "order_id"),
		sm.From("registration"),
		sm.OrderBy("registration_date"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Registration, error) {
		reg := &Registration{}
		if err = row.Scan(&reg.ID, &reg.TeamName, &reg.RegistrationDate, &reg.PaymentStatus, &reg.Amount, &reg.OrderID); err != nil {
			return nil, err
		}
		return reg, nil
	})
	if err != nil {
		return nil, err
	}

	return regs, nil
}

func (p *pgxRegistrationRepository) Patch(ctx context.Context, patch *RegistrationPatch) (*Registration, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Update(
		um.Table("registration"),
		um.Where(psql.Quote("id").EQ(psql.Arg(patch.ID))),
		um.Returning("id", "team_name", "registration_date", "payment_status", "amount", "order_id"),
	)

	if patch.PaymentStatus != nil {
		q.Apply(um.SetCol("payment_status").ToArg(*patch.PaymentStatus))
	}
	if patch.OrderID != nil {
		q.Apply(um.SetCol("order_id").ToArg(*patch.OrderID))
	}

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	return p.scanOne(e.QueryRow(ctx, sql, args...))
}

// CompletePayment is a conditional pending→completed transition keyed by the
// gateway order id. The WHERE on payment_status makes repeated and concurrent
// verifications converge without a read-modify-write race.
func (p *pgxRegistrationRepository) CompletePayment(ctx context.Context, orderID string) (*Registration, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Update(
		um.Table("registration"),
		um.SetCol("payment_status").ToArg(model.PaymentStatusCompleted),
		um.Where(psql.Quote("order_id").EQ(psql.Arg(orderID))),
		um.Where(psql.Quote("payment_status").EQ(psql.Arg(model.PaymentStatusPending))),
		um.Returning("id", "team_name", "registration_date", "payment_status", "amount", "order_id"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	return p.scanOne(e.QueryRow(ctx, sql, args...))
}

func (p *pgxRegistrationRepository) scanOne(row pgx.Row) (*Registration, error) {
	reg := &Registration{}
	if err := row.Scan(
		&reg.ID,
		&reg.TeamName,
		&reg.RegistrationDate,
		&reg.PaymentStatus,
		&reg.Amount,
		&reg.OrderID,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return reg, nil
}
