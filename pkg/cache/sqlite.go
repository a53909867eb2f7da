package cache

import (
	"database/sql"
	stderrors "errors"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/rs/xid"

	"github.com/WhileEndless/go-httpmessage/pkg/errors"
)

// SQLiteCache is a Provider backed by a SQLite database
type SQLiteCache struct {
	db         *sql.DB
	writeMutex *sync.Mutex
	now        func() time.Time
}

// NewSQLiteCache opens the database at filename and creates the cache table.
// An empty filename opens an in-memory database private to this cache.
func NewSQLiteCache(filename string) (*SQLiteCache, error) {
	if filename == "" {
		filename = "file:" + xid.New().String() + "?mode=memory&cache=shared"
	}
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, errors.StreamIO("failed to open cache database", "cache.NewSQLiteCache", err)
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS cache (
			key TEXT PRIMARY KEY,
			expires INTEGER,
			bytes BLOB
		)`,
		"CREATE INDEX IF NOT EXISTS expires_idx ON cache (expires)",
		"PRAGMA journal_mode=WAL",
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, errors.StreamIO("failed to initialize cache database", "cache.NewSQLiteCache", err)
		}
	}

	return &SQLiteCache{
		db:         db,
		writeMutex: &sync.Mutex{},
		now:        time.Now,
	}, nil
}

// Get returns the value for key. An expired entry is purged and reported
// as missing.
func (s *SQLiteCache) Get(key string) ([]byte, bool, error) {
	if err := ValidateKey(key); err != nil {
		return nil, false, err
	}

	var expires int64
	var value []byte
	err := s.db.QueryRow("SELECT expires, bytes FROM cache WHERE key = ?", key).Scan(&expires, &value)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.StreamIO("failed to read cache entry", "cache.SQLiteCache.Get", err)
	}

	if expired(s.now(), unixOrZero(expires)) {
		return nil, false, s.Delete(key)
	}
	return value, true, nil
}

// Put stores value under key
func (s *SQLiteCache) Put(key string, value []byte, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	var expires int64
	if e := expiry(s.now(), ttl); !e.IsZero() {
		expires = e.Unix()
	}

	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	if _, err := s.db.Exec("INSERT OR REPLACE INTO cache (key, expires, bytes) VALUES (?, ?, ?)", key, expires, value); err != nil {
		return errors.StreamIO("failed to write cache entry", "cache.SQLiteCache.Put", err)
	}
	return nil
}

// Delete removes key
func (s *SQLiteCache) Delete(key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	if _, err := s.db.Exec("DELETE FROM cache WHERE key = ?", key); err != nil {
		return errors.StreamIO("failed to delete cache entry", "cache.SQLiteCache.Delete", err)
	}
	return nil
}

// Has reports whether a live entry exists for key
func (s *SQLiteCache) Has(key string) (bool, error) {
	_, ok, err := s.Get(key)
	return ok, err
}

// Clear removes every entry
func (s *SQLiteCache) Clear() error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	if _, err := s.db.Exec("DELETE FROM cache"); err != nil {
		return errors.StreamIO("failed to clear cache", "cache.SQLiteCache.Clear", err)
	}
	return nil
}

// Purge removes every expired entry and returns how many were removed
func (s *SQLiteCache) Purge() (int64, error) {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	result, err := s.db.Exec("DELETE FROM cache WHERE expires > 0 AND expires < ?", s.now().Unix())
	if err != nil {
		return 0, errors.StreamIO("failed to purge cache", "cache.SQLiteCache.Purge", err)
	}
	return result.RowsAffected()
}

// Close closes the database
func (s *SQLiteCache) Close() error {
	return s.db.Close()
}

func unixOrZero(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}
