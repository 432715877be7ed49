package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/xh3b4sd/tracer"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/xh3b4sd/relboost/registry"
	"github.com/xh3b4sd/relboost/table"
)

// maxVariables bounds the number of bound parameters of a single insert
// statement. SQLite builds may be compiled with a limit as low as 999.
const maxVariables = 999

// Layout is the text form timestamps are stored in. SQLite's date and time
// functions understand it, and Table decodes it back to time.Time whatever the
// declared column type, e.g. for columns of tables created by CREATE TABLE AS.
const Layout = "2006-01-02 15:04:05.999999999"

type Config struct {
	Log *zap.Logger
	// Pat is the required file path of the SQLite database. Use ":memory:" for
	// a database living as long as the store.
	Pat string
}

// Store is the local analytical database dataset tables, label tables and
// generated feature tables live in.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

func New(c Config) (*Store, error) {
	if c.Log == nil {
		c.Log = zap.NewNop()
	}
	if c.Pat == "" {
		return nil, tracer.Maskf(invalidConfigError, "%T.Pat must not be empty", c)
	}

	var err error

	var db *sql.DB
	{
		db, err = sql.Open("sqlite", c.Pat)
		if err != nil {
			return nil, tracer.Mask(err)
		}

		// A single connection keeps ":memory:" databases consistent across
		// calls and serializes writers.
		db.SetMaxOpenConns(1)
	}

	{
		_, err = db.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`)
		if err != nil {
			_ = db.Close()
			return nil, tracer.Mask(err)
		}
	}

	s := &Store{
		db:  db,
		log: c.Log,
	}

	return s, nil
}

func (s *Store) Close() error {
	err := s.db.Close()
	if err != nil {
		return tracer.Mask(err)
	}

	return nil
}

// Exec runs the given SQL script. Scripts may consist of multiple statements,
// e.g. a rendered feature template dropping and recreating a table.
func (s *Store) Exec(ctx context.Context, que string) error {
	sta := time.Now()

	_, err := s.db.ExecContext(ctx, que)
	if err != nil {
		return tracer.Mask(err)
	}

	s.log.Debug("executed query", zap.Int("bytes", len(que)), zap.Duration("duration", time.Since(sta)))

	return nil
}

// Create replaces the table nam with the columns and rows of tab. Column types
// are inferred from the first non-null value of every column.
func (s *Store) Create(ctx context.Context, nam string, tab table.Table) error {
	if !registry.Identifier(nam) {
		return tracer.Maskf(invalidTableError, "%q", nam)
	}
	if len(tab.Col) == 0 {
		return tracer.Maskf(invalidTableError, "%s must have columns", nam)
	}

	var err error

	var tx *sql.Tx
	{
		tx, err = s.db.BeginTx(ctx, nil)
		if err != nil {
			return tracer.Mask(err)
		}
		defer tx.Rollback() // nolint:errcheck
	}

	{
		_, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quote(nam))
		if err != nil {
			return tracer.Mask(err)
		}

		_, err = tx.ExecContext(ctx, schema(nam, tab))
		if err != nil {
			return tracer.Mask(err)
		}
	}

	var col []string
	for _, c := range tab.Col {
		col = append(col, quote(c))
	}

	bat := maxVariables / len(col)
	if bat == 0 {
		bat = 1
	}

	for i := 0; i < len(tab.Row); i += bat {
		j := i + bat
		if j > len(tab.Row) {
			j = len(tab.Row)
		}

		ins := sq.Insert(quote(nam)).Columns(col...)
		for _, r := range tab.Row[i:j] {
			ins = ins.Values(encode(r)...)
		}

		que, arg, err := ins.ToSql()
		if err != nil {
			return tracer.Mask(err)
		}

		_, err = tx.ExecContext(ctx, que, arg...)
		if err != nil {
			return tracer.Mask(err)
		}
	}

	{
		err = tx.Commit()
		if err != nil {
			return tracer.Mask(err)
		}
	}

	s.log.Debug("created table", zap.String("table", nam), zap.Int("rows", tab.Len()), zap.Int("columns", len(tab.Col)))

	return nil
}

// Table reads all rows of the table nam in insertion order.
func (s *Store) Table(ctx context.Context, nam string) (table.Table, error) {
	if !registry.Identifier(nam) {
		return table.Table{}, tracer.Maskf(invalidTableError, "%q", nam)
	}

	que, arg, err := sq.Select("*").From(quote(nam)).OrderBy("rowid").ToSql()
	if err != nil {
		return table.Table{}, tracer.Mask(err)
	}

	var row *sql.Rows
	{
		row, err = s.db.QueryContext(ctx, que, arg...)
		if err != nil {
			return table.Table{}, tracer.Mask(err)
		}
		defer row.Close()
	}

	var out table.Table
	{
		out.Col, err = row.Columns()
		if err != nil {
			return table.Table{}, tracer.Mask(err)
		}
	}

	for row.Next() {
		val := make([]any, len(out.Col))
		ptr := make([]any, len(out.Col))
		for i := range val {
			ptr[i] = &val[i]
		}

		err := row.Scan(ptr...)
		if err != nil {
			return table.Table{}, tracer.Mask(err)
		}

		for i := range val {
			val[i] = decode(val[i])
		}

		out.Row = append(out.Row, val)
	}

	{
		err := row.Err()
		if err != nil {
			return table.Table{}, tracer.Mask(err)
		}
	}

	return out, nil
}

// Exists returns whether a table or view named nam exists.
func (s *Store) Exists(ctx context.Context, nam string) (bool, error) {
	que, arg, err := sq.Select("count(*)").
		From("sqlite_master").
		Where(sq.Eq{"type": []string{"table", "view"}, "name": nam}).
		ToSql()
	if err != nil {
		return false, tracer.Mask(err)
	}

	var cou int
	{
		err = s.db.QueryRowContext(ctx, que, arg...).Scan(&cou)
		if err != nil {
			return false, tracer.Mask(err)
		}
	}

	return cou > 0, nil
}

func (s *Store) Drop(ctx context.Context, nam string) error {
	if !registry.Identifier(nam) {
		return tracer.Maskf(invalidTableError, "%q", nam)
	}

	_, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quote(nam))
	if err != nil {
		return tracer.Mask(err)
	}

	return nil
}

func schema(nam string, tab table.Table) string {
	var col []string

	for i, c := range tab.Col {
		typ := affinity(tab, i)
		if typ == "" {
			col = append(col, quote(c))
		} else {
			col = append(col, quote(c)+" "+typ)
		}
	}

	return "CREATE TABLE " + quote(nam) + " (" + strings.Join(col, ", ") + ")"
}

func affinity(tab table.Table, i int) string {
	for _, r := range tab.Row {
		switch r[i].(type) {
		case nil:
			continue
		case int, int8, int16, int32, int64, uint8, uint16, uint32, uint64, bool:
			return "INTEGER"
		case float32, float64:
			return "REAL"
		case string:
			return "TEXT"
		case []byte:
			return "BLOB"
		case time.Time:
			return "TIMESTAMP"
		}
	}

	return ""
}

// encode returns a copy of row with timestamps in their stored text form.
func encode(row []any) []any {
	out := make([]any, len(row))

	for i, v := range row {
		t, ok := v.(time.Time)
		if ok {
			out[i] = t.UTC().Format(Layout)
		} else {
			out[i] = v
		}
	}

	return out
}

// decode turns stored timestamps into UTC time.Time values. Text not in the
// form of Layout is returned as is.
func decode(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.UTC()
	case string:
		if !timelike(x) {
			return x
		}

		t, err := time.Parse(Layout, x)
		if err != nil {
			return x
		}

		return t
	}

	return v
}

func timelike(s string) bool {
	return len(s) >= len("2006-01-02 15:04:05") && s[4] == '-' && s[7] == '-' && s[10] == ' ' && s[13] == ':' && s[16] == ':'
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
