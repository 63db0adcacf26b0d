// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

package maintenance

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
)

// BinRecordsTable is the table whose identifier indexes are repaired.
const BinRecordsTable = "bin_records"

// Error codes returned by RepairBinIndexes.
const (
	CodeBinIndexDuplicates = "BIN_INDEX_DUPLICATES"
	CodeBinRecordsMissing  = "BIN_RECORDS_MISSING"
	CodeBinIndexRepair     = "BIN_INDEX_REPAIR_FAILED"
)

// BinIndex pairs a legacy full unique index with its replacement, which
// only constrains rows where the column is set.
type BinIndex struct {
	Column string
	Legacy string
	Sparse string
}

// BinIndexes are the indexes repaired, in order.
var BinIndexes = []BinIndex{
	{Column: "qr_code", Legacy: "bin_records_qr_code_key", Sparse: "bin_records_qr_code_sparse_key"},
	{Column: "rfid_tag", Legacy: "bin_records_rfid_tag_key", Sparse: "bin_records_rfid_tag_sparse_key"},
}

// DB begins the transaction the repair runs in. *pgxpool.Pool satisfies it.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// RepairReport lists what RepairBinIndexes changed.
type RepairReport struct {
	Dropped []string
	Created []string
	// Present lists replacement indexes that already existed.
	Present []string
}

// Changed reports whether the repair modified the schema.
func (r *RepairReport) Changed() bool {
	return len(r.Dropped) > 0 || len(r.Created) > 0
}

const lookupIndexSQL = `SELECT
	EXISTS (SELECT 1 FROM pg_indexes
		WHERE schemaname = current_schema() AND tablename = $1 AND indexname = $2),
	EXISTS (SELECT 1 FROM pg_constraint c
		JOIN pg_class t ON t.oid = c.conrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE n.nspname = current_schema() AND t.relname = $1 AND c.conname = $2)`

// RepairBinIndexes replaces the full unique indexes on bin_records.qr_code
// and bin_records.rfid_tag with partial unique indexes that ignore NULLs, so
// any number of bins may lack a QR code or RFID tag. It is idempotent and
// runs in a single transaction: either every index is repaired or nothing
// changes.
func RepairBinIndexes(ctx context.Context, db DB, logger *slog.Logger) (*RepairReport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "maintenance", "table", BinRecordsTable)

	tx, err := db.Begin(ctx)
	if err != nil {
		return nil, oops.Code(CodeBinIndexRepair).With("operation", "begin").Wrap(err)
	}
	defer func() {
		// No-op after a successful commit.
		_ = tx.Rollback(ctx) //nolint:errcheck // rollback error is secondary
	}()

	report := &RepairReport{}
	for _, idx := range BinIndexes {
		if err := repairIndex(ctx, tx, logger, idx, report); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, oops.Code(CodeBinIndexRepair).With("operation", "commit").Wrap(err)
	}

	logger.InfoContext(ctx, "bin index repair complete",
		"dropped", report.Dropped,
		"created", report.Created,
		"present", report.Present)
	return report, nil
}

func repairIndex(ctx context.Context, tx pgx.Tx, logger *slog.Logger, idx BinIndex, report *RepairReport) error {
	log := logger.With("column", idx.Column)

	indexExists, isConstraint, err := lookupIndex(ctx, tx, idx.Legacy)
	if err != nil {
		return err
	}
	switch {
	case isConstraint:
		stmt := "ALTER TABLE " + quote(BinRecordsTable) + " DROP CONSTRAINT IF EXISTS " + quote(idx.Legacy)
		if err := exec(ctx, tx, stmt, idx); err != nil {
			return err
		}
		report.Dropped = append(report.Dropped, idx.Legacy)
		log.InfoContext(ctx, "dropped legacy unique constraint", "index", idx.Legacy)
	case indexExists:
		if err := exec(ctx, tx, "DROP INDEX IF EXISTS "+quote(idx.Legacy), idx); err != nil {
			return err
		}
		report.Dropped = append(report.Dropped, idx.Legacy)
		log.InfoContext(ctx, "dropped legacy unique index", "index", idx.Legacy)
	default:
		log.DebugContext(ctx, "legacy index not present", "index", idx.Legacy)
	}

	sparseExists, _, err := lookupIndex(ctx, tx, idx.Sparse)
	if err != nil {
		return err
	}
	if sparseExists {
		report.Present = append(report.Present, idx.Sparse)
		log.DebugContext(ctx, "replacement index already present", "index", idx.Sparse)
		return nil
	}

	stmt := "CREATE UNIQUE INDEX IF NOT EXISTS " + quote(idx.Sparse) +
		" ON " + quote(BinRecordsTable) + " (" + quote(idx.Column) + ")" +
		" WHERE " + quote(idx.Column) + " IS NOT NULL"
	if err := exec(ctx, tx, stmt, idx); err != nil {
		return err
	}
	report.Created = append(report.Created, idx.Sparse)
	log.InfoContext(ctx, "created partial unique index", "index", idx.Sparse)
	return nil
}

func lookupIndex(ctx context.Context, tx pgx.Tx, name string) (indexExists, isConstraint bool, err error) {
	err = tx.QueryRow(ctx, lookupIndexSQL, BinRecordsTable, name).Scan(&indexExists, &isConstraint)
	if err != nil {
		return false, false, oops.Code(CodeBinIndexRepair).
			With("operation", "lookup index").
			With("index", name).
			Wrap(err)
	}
	return indexExists, isConstraint, nil
}

func exec(ctx context.Context, tx pgx.Tx, stmt string, idx BinIndex) error {
	if _, err := tx.Exec(ctx, stmt); err != nil {
		return classify(err, idx)
	}
	return nil
}

func classify(err error, idx BinIndex) error {
	builder := oops.With("column", idx.Column).With("index", idx.Sparse)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return builder.Code(CodeBinIndexDuplicates).
				With("detail", pgErr.Detail).
				Wrapf(err, "duplicate non-null %s values in %s", idx.Column, BinRecordsTable)
		case pgerrcode.UndefinedTable:
			return builder.Code(CodeBinRecordsMissing).
				Wrapf(err, "table %s does not exist; run migrations first", BinRecordsTable)
		}
	}
	return builder.Code(CodeBinIndexRepair).Wrap(err)
}

func quote(ident string) string {
	return pgx.Identifier{ident}.Sanitize()
}
