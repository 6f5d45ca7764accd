package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/billsync/internal/models"
)

// DefaultCacheSize is the number of bills kept in the read-through cache.
const DefaultCacheSize = 1024

// SQLiteStorage implements BillStore using SQLite.
type SQLiteStorage struct {
	db    *sql.DB
	cache *lru.Cache[models.BaseBillID, *models.Bill]

	// cacheMu orders cache fills against invalidations. gen is bumped by every write, and a read
	// only fills the cache when no write completed while it was reading.
	cacheMu sync.Mutex
	gen     uint64

	// afterRead runs between the row scan and the cache fill in GetBill. Tests only.
	afterRead func()
}

// Option configures a SQLiteStorage.
type Option func(*storageOptions)

type storageOptions struct {
	cacheSize int
}

// WithCacheSize sets the bill cache size. Values <= 0 use DefaultCacheSize.
func WithCacheSize(n int) Option {
	return func(o *storageOptions) { o.cacheSize = n }
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist. ":memory:" opens a private in-memory database.
func NewSQLiteStorage(dbPath string, opts ...Option) (*SQLiteStorage, error) {
	o := storageOptions{cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cacheSize <= 0 {
		o.cacheSize = DefaultCacheSize
	}

	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	cache, err := lru.New[models.BaseBillID, *models.Bill](o.cacheSize)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bill cache: %w", err)
	}
	return &SQLiteStorage{db: db, cache: cache}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS bills (
		print_no TEXT NOT NULL,
		session_year INTEGER NOT NULL,
		title TEXT,
		summary TEXT,
		sponsor TEXT,
		status TEXT,
		amendments TEXT,
		base_published INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (print_no, session_year)
	);

	CREATE INDEX IF NOT EXISTS idx_bills_session ON bills(session_year, print_no);
	`
	_, err := db.Exec(schema)
	return err
}

// ActiveSessionRange returns the lowest and highest sessions present in the store.
func (s *SQLiteStorage) ActiveSessionRange(ctx context.Context) (models.SessionRange, bool, error) {
	var lower, upper sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MIN(session_year), MAX(session_year) FROM bills`,
	).Scan(&lower, &upper)
	if err != nil {
		return models.SessionRange{}, false, fmt.Errorf("failed to query session range: %w", err)
	}
	if !lower.Valid || !upper.Valid {
		return models.SessionRange{}, false, nil
	}
	return models.SessionRange{
		Lower: models.SessionYear(lower.Int64),
		Upper: models.SessionYear(upper.Int64),
	}, true, nil
}

// BillIDs returns one page of bill ids for the session ordered by print number.
func (s *SQLiteStorage) BillIDs(ctx context.Context, session models.SessionYear, limOff models.LimitOffset) ([]models.BaseBillID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT print_no FROM bills WHERE session_year = ?
		 ORDER BY print_no LIMIT ? OFFSET ?`,
		int(session), limOff.Limit, limOff.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bill ids: %w", err)
	}
	defer rows.Close()

	ids := make([]models.BaseBillID, 0, limOff.Limit)
	for rows.Next() {
		var printNo string
		if err := rows.Scan(&printNo); err != nil {
			return nil, err
		}
		ids = append(ids, models.BaseBillID{PrintNo: printNo, Session: session})
	}
	return ids, rows.Err()
}

// GetBill returns a bill by id. A missing bill yields an error wrapping ErrBillNotFound.
func (s *SQLiteStorage) GetBill(ctx context.Context, id models.BaseBillID) (*models.Bill, error) {
	id = models.NewBaseBillID(id.PrintNo, int(id.Session))
	if cached, ok := s.cache.Get(id); ok {
		return cloneBill(cached), nil
	}
	s.cacheMu.Lock()
	gen := s.gen
	s.cacheMu.Unlock()

	var (
		bill           models.Bill
		amendmentsJSON sql.NullString
		title, summary sql.NullString
		sponsor, stat  sql.NullString
		session        int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT print_no, session_year, title, summary, sponsor, status, amendments, updated_at
		 FROM bills WHERE print_no = ? AND session_year = ?`,
		id.PrintNo, int(id.Session),
	).Scan(&bill.ID.PrintNo, &session, &title, &summary, &sponsor, &stat, &amendmentsJSON, &bill.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrBillNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	bill.ID.Session = models.SessionYear(session)
	bill.Title, bill.Summary, bill.Sponsor, bill.Status = title.String, summary.String, sponsor.String, stat.String
	if amendmentsJSON.String != "" {
		if err := json.Unmarshal([]byte(amendmentsJSON.String), &bill.Amendments); err != nil {
			return nil, fmt.Errorf("failed to unmarshal amendments: %w", err)
		}
	}

	if s.afterRead != nil {
		s.afterRead()
	}
	s.cacheMu.Lock()
	if s.gen == gen {
		s.cache.Add(id, cloneBill(&bill))
	}
	s.cacheMu.Unlock()
	return &bill, nil
}

// PutBill inserts the bill or replaces the stored record with the same id.
func (s *SQLiteStorage) PutBill(ctx context.Context, bill *models.Bill) error {
	return s.PutBills(ctx, []*models.Bill{bill})
}

// PutBills upserts bills in a single transaction. Ids are normalized in place, so an even
// session year is stored as the session that contains it.
func (s *SQLiteStorage) PutBills(ctx context.Context, bills []*models.Bill) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO bills (print_no, session_year, title, summary, sponsor, status, amendments, base_published, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(print_no, session_year) DO UPDATE SET
			title = excluded.title,
			summary = excluded.summary,
			sponsor = excluded.sponsor,
			status = excluded.status,
			amendments = excluded.amendments,
			base_published = excluded.base_published,
			updated_at = excluded.updated_at`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, bill := range bills {
		if bill == nil || bill.ID.IsZero() {
			return fmt.Errorf("bill without id cannot be stored")
		}
		bill.ID = models.NewBaseBillID(bill.ID.PrintNo, int(bill.ID.Session))
		amendmentsJSON, err := json.Marshal(bill.Amendments)
		if err != nil {
			return fmt.Errorf("failed to marshal amendments: %w", err)
		}
		bill.UpdatedAt = now
		if _, err := stmt.ExecContext(ctx,
			bill.ID.PrintNo, int(bill.ID.Session), bill.Title, bill.Summary, bill.Sponsor, bill.Status,
			string(amendmentsJSON), bill.IsBaseVersionPublished(), bill.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to store bill %s: %w", bill.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	ids := make([]models.BaseBillID, len(bills))
	for i, bill := range bills {
		ids[i] = bill.ID
	}
	s.invalidate(ids...)
	return nil
}

func (s *SQLiteStorage) invalidate(ids ...models.BaseBillID) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.gen++
	for _, id := range ids {
		s.cache.Remove(id)
	}
}

// DeleteBill removes a bill by id. Deleting a missing bill is not an error.
func (s *SQLiteStorage) DeleteBill(ctx context.Context, id models.BaseBillID) error {
	id = models.NewBaseBillID(id.PrintNo, int(id.Session))
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM bills WHERE print_no = ? AND session_year = ?`, id.PrintNo, int(id.Session))
	s.invalidate(id)
	return err
}

// CountBills returns the total number of bills.
func (s *SQLiteStorage) CountBills(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bills`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	s.cache.Purge()
	return s.db.Close()
}

func cloneBill(b *models.Bill) *models.Bill {
	c := *b
	c.Amendments = append([]models.BillAmendment(nil), b.Amendments...)
	return &c
}
