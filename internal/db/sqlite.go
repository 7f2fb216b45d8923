package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Flarenzy/vpc-provisioner/internal/domain"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Fixed-width UTC timestamps sort lexically in creation order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteNetworkRepository stores network records in a local SQLite file.
type SQLiteNetworkRepository struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// schema. ":memory:" gives a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteNetworkRepository, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps writes serialized and ":memory:" shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	schema, err := readSchema("sqlite.sql")
	if err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &SQLiteNetworkRepository{db: db}, nil
}

func (r *SQLiteNetworkRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteNetworkRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteNetworkRepository) List(ctx context.Context) ([]domain.NetworkRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectNetworkColumns+` ORDER BY created_at, network_id`)
	if err != nil {
		return nil, fmt.Errorf("querying networks: %w", err)
	}
	return scanSQLiteNetworks(rows)
}

func (r *SQLiteNetworkRepository) FindByID(ctx context.Context, networkID string) (domain.NetworkRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectNetworkColumns+` WHERE network_id = ?`, networkID)
	if err != nil {
		return domain.NetworkRecord{}, fmt.Errorf("querying network: %w", err)
	}
	records, err := scanSQLiteNetworks(rows)
	if err != nil {
		return domain.NetworkRecord{}, err
	}
	if len(records) == 0 {
		return domain.NetworkRecord{}, domain.ErrNotFound
	}
	return records[0], nil
}

func (r *SQLiteNetworkRepository) FindByCIDR(ctx context.Context, cidr string) ([]domain.NetworkRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectNetworkColumns+` WHERE cidr = ? ORDER BY created_at, network_id`, cidr)
	if err != nil {
		return nil, fmt.Errorf("querying networks by cidr: %w", err)
	}
	return scanSQLiteNetworks(rows)
}

func (r *SQLiteNetworkRepository) Create(ctx context.Context, record domain.NetworkRecord) error {
	docs, err := encodeRecord(record)
	if err != nil {
		return err
	}
	subnetIDs := record.SubnetIDs
	if subnetIDs == nil {
		subnetIDs = []string{}
	}
	ids, err := json.Marshal(subnetIDs)
	if err != nil {
		return fmt.Errorf("encode subnet ids: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO networks (network_id, cidr, tags, subnet_ids, subnets, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		record.NetworkID, record.CIDR, string(docs.tags), string(ids), string(docs.subnets),
		record.CreatedAt.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		if isSQLitePrimaryKeyViolation(err) {
			return fmt.Errorf("%w: network %s already recorded", domain.ErrConflict, record.NetworkID)
		}
		return fmt.Errorf("inserting network: %w", err)
	}
	return nil
}

func (r *SQLiteNetworkRepository) Delete(ctx context.Context, networkID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM networks WHERE network_id = ?`, networkID)
	if err != nil {
		return false, fmt.Errorf("deleting network: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanSQLiteNetworks(rows *sql.Rows) ([]domain.NetworkRecord, error) {
	defer rows.Close()

	records := []domain.NetworkRecord{}
	for rows.Next() {
		var (
			record                   domain.NetworkRecord
			tags, ids, subnets, when string
		)
		if err := rows.Scan(&record.NetworkID, &record.CIDR, &tags, &ids, &subnets, &when); err != nil {
			return nil, fmt.Errorf("scanning network: %w", err)
		}

		var err error
		if record.Tags, err = decodeTags([]byte(tags)); err != nil {
			return nil, err
		}
		if record.Subnets, err = decodeSubnets([]byte(subnets)); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(ids), &record.SubnetIDs); err != nil {
			return nil, fmt.Errorf("decode subnet ids: %w", err)
		}
		if record.CreatedAt, err = time.Parse(sqliteTimeLayout, when); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func isSQLitePrimaryKeyViolation(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
