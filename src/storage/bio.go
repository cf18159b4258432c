package storage

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"
)

// ErrNotFound is returned when an entry id does not exist.
var ErrNotFound = errors.New("bio entry not found")

// Entry is one remembered fact about the user.
type Entry struct {
	ID        string    `db:"id" json:"id"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// BioStore reads and writes bio entries.
type BioStore struct {
	db ExecQuerier
}

// NewBioStore creates a store over an open database.
func NewBioStore(db *DB) *BioStore {
	return &BioStore{db: db.DB()}
}

// Add inserts a new entry and returns it.
func (s *BioStore) Add(ctx context.Context, content string) (*Entry, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.New("bio entry content cannot be empty")
	}
	entry := &Entry{
		ID:        uuid.New().String(),
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	query := `INSERT INTO bio_entries (id, content, created_at) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, entry.ID, entry.Content, entry.CreatedAt); err != nil {
		return nil, err
	}
	return entry, nil
}

// Delete removes an entry by id.
func (s *BioStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bio_entries WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all entries, oldest first.
func (s *BioStore) List(ctx context.Context) ([]*Entry, error) {
	var entries []*Entry
	query := `SELECT id, content, created_at FROM bio_entries ORDER BY created_at ASC, id ASC`
	if err := sqlscan.Select(ctx, s.db, &entries, query); err != nil {
		return nil, err
	}
	return entries, nil
}

// Search ranks entries by how many query tokens they share and returns up to
// limit of them, best first. The corpus is small (a personal bio) so scoring
// happens in memory rather than in SQL.
func (s *BioStore) Search(ctx context.Context, query string, limit int) ([]*Entry, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	type scored struct {
		entry *Entry
		score int
	}
	var hits []scored
	for _, e := range entries {
		score := overlap(queryTokens, tokenize(e.Content))
		if score > 0 {
			hits = append(hits, scored{entry: e, score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].entry.CreatedAt.After(hits[j].entry.CreatedAt)
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]*Entry, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.entry)
	}
	return out, nil
}

func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		tokens[tok] = struct{}{}
	}
	return tokens
}

func overlap(a, b map[string]struct{}) int {
	n := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			n++
		}
	}
	return n
}
