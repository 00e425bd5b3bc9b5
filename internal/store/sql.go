package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"powertools/internal/shared"
)

// Dialect captures the few SQL differences between the sqlite and
// postgres backends.
type Dialect struct {
	Name string
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
	// JSONField renders an expression extracting a top-level string
	// field from the body column.
	JSONField func(field string) string
}

var (
	SQLite = Dialect{
		Name:        "sqlite",
		Placeholder: func(int) string { return "?" },
		JSONField:   func(field string) string { return "json_extract(body, '$." + field + "')" },
	}
	Postgres = Dialect{
		Name:        "postgres",
		Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
		JSONField:   func(field string) string { return "(body::jsonb ->> '" + field + "')" },
	}
)

var fieldName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// SQLStore keeps each collection in its own table of
// (id, body JSON, created_at) rows.
type SQLStore struct {
	DB      *sql.DB
	Dialect Dialect
}

func NewSQLStore(db *sql.DB, d Dialect) *SQLStore {
	return &SQLStore{DB: db, Dialect: d}
}

func (s *SQLStore) Find(ctx context.Context, c Collection, f Filter, out any) error {
	where, args, err := s.where(f)
	if err != nil {
		return err
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, body FROM `+table(c)+where+` ORDER BY created_at, id`, args...)
	if err != nil {
		return fmt.Errorf("find %s: %w", c, err)
	}
	defer rows.Close()

	found := []map[string]any{}
	for rows.Next() {
		doc, err := scanDoc(rows)
		if err != nil {
			return fmt.Errorf("find %s: %w", c, err)
		}
		found = append(found, doc)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("find %s: %w", c, err)
	}
	return decodeInto(found, out)
}

func (s *SQLStore) FindOne(ctx context.Context, c Collection, f Filter, out any) error {
	where, args, err := s.where(f)
	if err != nil {
		return err
	}
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, body FROM `+table(c)+where+` ORDER BY created_at, id LIMIT 1`, args...)
	doc, err := scanDoc(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("find %s: %w", c, err)
	}
	return decodeInto(doc, out)
}

func (s *SQLStore) Insert(ctx context.Context, c Collection, doc any) (shared.InsertResult, error) {
	body, err := toDocument(doc)
	if err != nil {
		return shared.InsertResult{}, err
	}
	delete(body, IDField)

	id := newUUID()
	if err := s.insertRow(ctx, s.DB, c, id, body); err != nil {
		return shared.InsertResult{}, err
	}
	return shared.InsertResult{Acknowledged: true, InsertedID: id}, nil
}

func (s *SQLStore) Update(ctx context.Context, c Collection, f Filter, set map[string]any, upsert bool) (shared.UpdateResult, error) {
	where, args, err := s.where(f)
	if err != nil {
		return shared.UpdateResult{}, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return shared.UpdateResult{}, fmt.Errorf("update %s: %w", c, err)
	}
	defer func() { _ = tx.Rollback() }()

	res := shared.UpdateResult{Acknowledged: true}
	row := tx.QueryRowContext(ctx,
		`SELECT id, body FROM `+table(c)+where+` ORDER BY created_at, id LIMIT 1`, args...)
	doc, err := scanDoc(row)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if !upsert {
			return res, nil
		}
		body := seedFromFilter(f)
		if _, err := applySet(body, set); err != nil {
			return shared.UpdateResult{}, err
		}
		id := f[IDField]
		if id == "" {
			id = newUUID()
		}
		if err := s.insertRow(ctx, tx, c, id, body); err != nil {
			return shared.UpdateResult{}, err
		}
		res.UpsertedCount = 1
		res.UpsertedID = id
	case err != nil:
		return shared.UpdateResult{}, fmt.Errorf("update %s: %w", c, err)
	default:
		id, _ := doc[IDField].(string)
		delete(doc, IDField)
		changed, err := applySet(doc, set)
		if err != nil {
			return shared.UpdateResult{}, err
		}
		res.MatchedCount = 1
		if changed {
			b, err := json.Marshal(doc)
			if err != nil {
				return shared.UpdateResult{}, err
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE `+table(c)+` SET body = `+s.Dialect.Placeholder(1)+` WHERE id = `+s.Dialect.Placeholder(2),
				string(b), id,
			); err != nil {
				return shared.UpdateResult{}, fmt.Errorf("update %s: %w", c, err)
			}
			res.ModifiedCount = 1
		}
	}

	if err := tx.Commit(); err != nil {
		return shared.UpdateResult{}, fmt.Errorf("update %s: %w", c, err)
	}
	return res, nil
}

func (s *SQLStore) Delete(ctx context.Context, c Collection, f Filter) (shared.DeleteResult, error) {
	where, args, err := s.where(f)
	if err != nil {
		return shared.DeleteResult{}, err
	}
	t := table(c)
	out, err := s.DB.ExecContext(ctx,
		`DELETE FROM `+t+` WHERE id IN (SELECT id FROM `+t+where+` ORDER BY created_at, id LIMIT 1)`, args...)
	if err != nil {
		return shared.DeleteResult{}, fmt.Errorf("delete %s: %w", c, err)
	}
	n, err := out.RowsAffected()
	if err != nil {
		return shared.DeleteResult{}, fmt.Errorf("delete %s: %w", c, err)
	}
	return shared.DeleteResult{Acknowledged: true, DeletedCount: n}, nil
}

func (s *SQLStore) Close(context.Context) error { return s.DB.Close() }

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLStore) insertRow(ctx context.Context, db execer, c Collection, id string, body map[string]any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	p := s.Dialect.Placeholder
	_, err = db.ExecContext(ctx,
		`INSERT INTO `+table(c)+` (id, body, created_at) VALUES (`+p(1)+`, `+p(2)+`, `+p(3)+`)`,
		id, string(b), time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert %s: %w", c, err)
	}
	return nil
}

// where renders f as a WHERE clause. Keys are sorted so the generated
// SQL is stable.
func (s *SQLStore) where(f Filter) (string, []any, error) {
	if len(f) == 0 {
		return "", nil, nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for i, k := range keys {
		var expr string
		switch {
		case k == IDField:
			expr = "id"
		case fieldName.MatchString(k):
			expr = s.Dialect.JSONField(k)
		default:
			return "", nil, fmt.Errorf("invalid filter field %q", k)
		}
		conds = append(conds, expr+" = "+s.Dialect.Placeholder(i+1))
		args = append(args, f[k])
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDoc(row scanner) (map[string]any, error) {
	var id, body string
	if err := row.Scan(&id, &body); err != nil {
		return nil, err
	}
	doc := map[string]any{}
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	doc[IDField] = id
	return doc, nil
}

// table is only ever called with the Collection constants.
func table(c Collection) string { return string(c) }

func newUUID() string { return uuid.NewString() }
