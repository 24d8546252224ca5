// Package freq handles SQLite persistence for the word frequency model.
package freq

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/e-frolov/shortwave/internal/message"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Namespace separates body, sender and receiver vocabularies.
type Namespace string

// The three frequency namespaces.
const (
	Body     Namespace = "body"
	Sender   Namespace = "sender"
	Receiver Namespace = "receiver"
)

// Entry is one (word, count) pair from a namespace.
type Entry struct {
	Word  string
	Count int64
}

// Store wraps SQLite access for the frequency model. The full mapping
// is mirrored in memory at open so candidate lookups never touch disk.
type Store struct {
	db     *sql.DB
	counts map[Namespace]map[string]int64
}

// Open opens or creates the SQLite database, applies migrations and
// loads the mapping into memory.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Single writer, and the synchronous pragma is per-connection.
	db.SetMaxOpenConns(1)
	store := &Store{
		db: db,
		counts: map[Namespace]map[string]int64{
			Body:     {},
			Sender:   {},
			Receiver: {},
		},
	}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	if err := store.loadAll(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on load failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		// Every update commits before returning, so a crash after a
		// processed message never loses its contribution.
		`PRAGMA synchronous = FULL;`,
		`CREATE TABLE IF NOT EXISTS word_counts (
			ns TEXT NOT NULL,
			word TEXT NOT NULL,
			count INTEGER NOT NULL,
			PRIMARY KEY (ns, word)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) loadAll() error {
	rows, err := s.db.Query(`SELECT ns, word, count FROM word_counts`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	for rows.Next() {
		var ns, word string
		var count int64
		if err := rows.Scan(&ns, &word, &count); err != nil {
			return err
		}
		bucket, ok := s.counts[Namespace(ns)]
		if !ok {
			bucket = map[string]int64{}
			s.counts[Namespace(ns)] = bucket
		}
		bucket[word] = count
	}
	return rows.Err()
}

// Update applies one clear message to the model in a single
// transaction: +1 per body word, +1 for the sender and receiver names
// when those fields are present. The commit completes before Update
// returns; the in-memory mirror changes only after a successful commit.
func (s *Store) Update(ctx context.Context, m message.Message) error {
	if m.Class != message.Clear {
		return fmt.Errorf("refusing to count a %s message", m.Class)
	}

	type increment struct {
		ns   Namespace
		word string
	}
	incs := make([]increment, 0, len(m.Body)+2)
	for _, word := range m.Body {
		incs = append(incs, increment{Body, word})
	}
	if m.Sender.Present {
		incs = append(incs, increment{Sender, m.Sender.Word})
	}
	if m.Receiver.Present {
		incs = append(incs, increment{Receiver, m.Receiver.Word})
	}
	if len(incs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO word_counts (ns, word, count) VALUES (?, ?, 1)
		 ON CONFLICT(ns, word) DO UPDATE SET count = count + 1`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for _, inc := range incs {
		if _, err = stmt.ExecContext(ctx, string(inc.ns), inc.word); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}

	for _, inc := range incs {
		s.counts[inc.ns][inc.word]++
	}
	return nil
}

// CandidatesOfLength returns every stored word in the namespace whose
// length equals the target length n, ordered by count descending then
// word ascending.
func (s *Store) CandidatesOfLength(ns Namespace, n int) []Entry {
	if n <= 0 {
		return nil
	}
	var entries []Entry
	for word, count := range s.counts[ns] {
		if len(word) == n {
			entries = append(entries, Entry{Word: word, Count: count})
		}
	}
	sortEntries(entries)
	return entries
}

// Top returns the n most frequent words in the namespace.
func (s *Store) Top(ns Namespace, n int) []Entry {
	if n <= 0 {
		return nil
	}
	entries := make([]Entry, 0, len(s.counts[ns]))
	for word, count := range s.counts[ns] {
		entries = append(entries, Entry{Word: word, Count: count})
	}
	sortEntries(entries)
	if n > len(entries) {
		n = len(entries)
	}
	return entries[:n]
}

// Count returns the stored count for a word, zero when unseen.
func (s *Store) Count(ns Namespace, word string) int64 {
	return s.counts[ns][word]
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count == entries[j].Count {
			return entries[i].Word < entries[j].Word
		}
		return entries[i].Count > entries[j].Count
	})
}
