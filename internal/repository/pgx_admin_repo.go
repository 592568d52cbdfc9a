package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"

	"github.com/hackfest/registration-backend/internal/db"
)

type Admin struct {
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
}

type AdminRepository interface {
	Create(ctx context.Context, admin *Admin) error
	GetByUsername(ctx context.Context, username string) (*Admin, error)
}

type pgxAdminRepository struct {
	pool *pgxpool.Pool
}

func NewPgxAdminRepository(pool *pgxpool.Pool) AdminRepository {
	return &pgxAdminRepository{pool: pool}
}

func (p *pgxAdminRepository) Create(ctx context.Context, admin *Admin) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("admin", "username", "password_hash"),
		im.Values(psql.Arg(admin.Username), psql.Arg(admin.PasswordHash)),
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

func (p *pgxAdminRepository) GetByUsername(ctx context.Context, username string) (*Admin, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("username", "password_hash"),
		sm.From("admin"),
		sm.Where(psql.Quote("username").EQ(psql.Arg(username))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	admin := &Admin{}
	if err = e.QueryRow(ctx, sql, args...).Scan(&admin.Username, &admin.PasswordHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return admin, nil
}
