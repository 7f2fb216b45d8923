package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/Flarenzy/vpc-provisioner/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectNetworkColumns = `SELECT network_id, cidr, tags, subnet_ids, subnets, created_at FROM networks`

// NetworkRepository stores network records in Postgres.
type NetworkRepository struct {
	pool *pgxpool.Pool
}

func NewNetworkRepository(pool *pgxpool.Pool) *NetworkRepository {
	return &NetworkRepository{pool: pool}
}

func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the networks table when it does not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	schema, err := readSchema("postgres.sql")
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply postgres schema: %w", err)
	}
	return nil
}

func (r *NetworkRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *NetworkRepository) List(ctx context.Context) ([]domain.NetworkRecord, error) {
	rows, err := r.pool.Query(ctx, selectNetworkColumns+` ORDER BY created_at, network_id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanNetwork)
}

func (r *NetworkRepository) FindByID(ctx context.Context, networkID string) (domain.NetworkRecord, error) {
	rows, err := r.pool.Query(ctx, selectNetworkColumns+` WHERE network_id = $1`, networkID)
	if err != nil {
		return domain.NetworkRecord{}, err
	}
	record, err := pgx.CollectExactlyOneRow(rows, scanNetwork)
	if err != nil {
		if isNoRows(err) {
			return domain.NetworkRecord{}, domain.ErrNotFound
		}
		return domain.NetworkRecord{}, err
	}
	return record, nil
}

func (r *NetworkRepository) FindByCIDR(ctx context.Context, cidr string) ([]domain.NetworkRecord, error) {
	rows, err := r.pool.Query(ctx, selectNetworkColumns+` WHERE cidr = $1`, cidr)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanNetwork)
}

func (r *NetworkRepository) Create(ctx context.Context, record domain.NetworkRecord) error {
	docs, err := encodeRecord(record)
	if err != nil {
		return err
	}
	subnetIDs := record.SubnetIDs
	if subnetIDs == nil {
		subnetIDs = []string{}
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO networks (network_id, cidr, tags, subnet_ids, subnets, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		record.NetworkID, record.CIDR, docs.tags, subnetIDs, docs.subnets, record.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: network %s already recorded", domain.ErrConflict, record.NetworkID)
		}
		return err
	}
	return nil
}

func (r *NetworkRepository) Delete(ctx context.Context, networkID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM networks WHERE network_id = $1`, networkID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanNetwork(row pgx.CollectableRow) (domain.NetworkRecord, error) {
	var (
		record  domain.NetworkRecord
		tags    []byte
		subnets []byte
	)
	if err := row.Scan(&record.NetworkID, &record.CIDR, &tags, &record.SubnetIDs, &subnets, &record.CreatedAt); err != nil {
		return domain.NetworkRecord{}, err
	}

	var err error
	if record.Tags, err = decodeTags(tags); err != nil {
		return domain.NetworkRecord{}, err
	}
	if record.Subnets, err = decodeSubnets(subnets); err != nil {
		return domain.NetworkRecord{}, err
	}
	if record.SubnetIDs == nil {
		record.SubnetIDs = []string{}
	}
	record.CreatedAt = record.CreatedAt.UTC()
	return record, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
