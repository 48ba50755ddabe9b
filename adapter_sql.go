package pydapter

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/aarondl/null/v8"
	boilertypes "github.com/aarondl/sqlboiler/v4/types"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteAdapter persists model instances in a SQLite table. Column names are
// the model's external field names; scalar bases map onto native column
// types, UUID and timestamp values travel as TEXT, and complex values as
// JSON-encoded TEXT.
type SQLiteAdapter struct {
	db    *sql.DB
	table string
}

// NewSQLiteAdapter creates an adapter bound to a database handle and table.
func NewSQLiteAdapter(db *sql.DB, table string) (*SQLiteAdapter, error) {
	if db == nil {
		return nil, compositionErrorf("NewSQLiteAdapter", "database handle must not be nil")
	}
	if table == "" {
		return nil, compositionErrorf("NewSQLiteAdapter", "table name must not be empty")
	}
	return &SQLiteAdapter{db: db, table: table}, nil
}

// Key returns "sqlite".
func (a *SQLiteAdapter) Key() string { return "sqlite" }

// CreateTableSQL renders a CREATE TABLE IF NOT EXISTS statement matching the
// model schema. Non-nullable fields get NOT NULL; an "id" field becomes the
// primary key.
func (a *SQLiteAdapter) CreateTableSQL(model *ModelType) string {
	var cols []string
	for _, f := range model.Fields() {
		if f.IsExcluded() {
			continue
		}
		col := quoteIdent(f.ExternalName()) + " " + sqliteColumnType(f.Annotation())
		if f.Name() == "id" {
			col += " PRIMARY KEY"
		} else if !f.Annotation().Nullable {
			col += " NOT NULL"
		}
		cols = append(cols, col)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(a.table), strings.Join(cols, ", "))
}

// EnsureTable creates the backing table when it does not exist yet.
func (a *SQLiteAdapter) EnsureTable(ctx context.Context, model *ModelType) error {
	_, err := a.db.ExecContext(ctx, a.CreateTableSQL(model))
	if err != nil {
		return fmt.Errorf("pydapter: sqlite adapter: create table %s: %w", a.table, err)
	}
	return nil
}

// Insert writes instances as rows. All instances must share one ModelType.
func (a *SQLiteAdapter) Insert(ctx context.Context, insts []*Instance) error {
	if len(insts) == 0 {
		return nil
	}
	model := insts[0].Model()
	var cols []*Field
	var names []string
	var marks []string
	for _, f := range model.Fields() {
		if f.IsExcluded() {
			continue
		}
		cols = append(cols, f)
		names = append(names, quoteIdent(f.ExternalName()))
		marks = append(marks, "?")
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(a.table), strings.Join(names, ", "), strings.Join(marks, ", "))

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pydapter: sqlite adapter: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("pydapter: sqlite adapter: %w", err)
	}
	defer stmt.Close()

	for _, inst := range insts {
		if inst.Model() != model {
			return fmt.Errorf("pydapter: sqlite adapter: mixed model types %q and %q", model.Name(), inst.Model().Name())
		}
		args := make([]any, len(cols))
		for i, f := range cols {
			v, err := inst.Get(f.Name())
			if err != nil {
				return err
			}
			args[i], err = toColumnValue(f, v)
			if err != nil {
				return err
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("pydapter: sqlite adapter: insert into %s: %w", a.table, err)
		}
	}
	return tx.Commit()
}

// Select reads rows back into validated instances. where is an optional SQL
// fragment without the WHERE keyword; empty selects everything.
func (a *SQLiteAdapter) Select(ctx context.Context, model *ModelType, where string, args ...any) ([]*Instance, error) {
	var cols []*Field
	var names []string
	for _, f := range model.Fields() {
		if f.IsExcluded() {
			continue
		}
		cols = append(cols, f)
		names = append(names, quoteIdent(f.ExternalName()))
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(names, ", "), quoteIdent(a.table))
	if where != "" {
		query += " WHERE " + where
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pydapter: sqlite adapter: select from %s: %w", a.table, err)
	}
	defer rows.Close()

	var insts []*Instance
	for rows.Next() {
		raw := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("pydapter: sqlite adapter: %w", err)
		}
		values := make(map[string]any, len(cols))
		for i, f := range cols {
			v, err := fromColumnValue(f, raw[i])
			if err != nil {
				return nil, err
			}
			if v == nil {
				continue
			}
			values[f.Name()] = v
		}
		inst, err := model.New(values)
		if err != nil {
			return nil, err
		}
		insts = append(insts, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pydapter: sqlite adapter: %w", err)
	}
	return insts, nil
}

// ToObj inserts the instances and returns the row count. The table is created
// on first use.
func (a *SQLiteAdapter) ToObj(insts []*Instance) (any, error) {
	if len(insts) == 0 {
		return nil, fmt.Errorf("pydapter: sqlite adapter: no instances given")
	}
	ctx := context.Background()
	if err := a.EnsureTable(ctx, insts[0].Model()); err != nil {
		return nil, err
	}
	if err := a.Insert(ctx, insts); err != nil {
		return nil, err
	}
	return int64(len(insts)), nil
}

// FromObj selects rows into instances. obj is an optional WHERE fragment
// (string); nil selects everything.
func (a *SQLiteAdapter) FromObj(model *ModelType, obj any) ([]*Instance, error) {
	where := ""
	switch v := obj.(type) {
	case nil:
	case string:
		where = v
	default:
		return nil, fmt.Errorf("pydapter: sqlite adapter: unsupported selector type %T, want string or nil", obj)
	}
	return a.Select(context.Background(), model, where)
}

func sqliteColumnType(ct *CompositeType) string {
	if ct.Listable {
		return "TEXT"
	}
	switch ct.Base {
	case reflect.TypeOf(uuid.UUID{}), reflect.TypeOf(time.Time{}):
		return "TEXT"
	}
	switch ct.Base.Kind() {
	case reflect.Bool:
		return "BOOLEAN"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "INTEGER"
	case reflect.Float32, reflect.Float64:
		return "REAL"
	case reflect.String:
		return "TEXT"
	}
	return "TEXT"
}

// toColumnValue flattens a validated field value into a driver value. Nullable
// scalars ride on the null wrappers so a Go nil round-trips as SQL NULL.
func toColumnValue(f *Field, v any) (any, error) {
	nullable := f.Annotation().Nullable
	if v == nil {
		if !nullable {
			return nil, validationErrorf(f.Name(), nil, "nil value for non-nullable column")
		}
		return nil, nil
	}
	switch val := v.(type) {
	case uuid.UUID:
		if nullable {
			return null.StringFrom(val.String()), nil
		}
		return val.String(), nil
	case time.Time:
		if nullable {
			return null.StringFrom(val.UTC().Format(time.RFC3339Nano)), nil
		}
		return val.UTC().Format(time.RFC3339Nano), nil
	case string:
		if nullable {
			return null.StringFrom(val), nil
		}
		return val, nil
	case bool:
		if nullable {
			return null.BoolFrom(val), nil
		}
		return val, nil
	case int:
		if nullable {
			return null.Int64From(int64(val)), nil
		}
		return int64(val), nil
	case int64:
		if nullable {
			return null.Int64From(val), nil
		}
		return val, nil
	case float64:
		if nullable {
			return null.Float64From(val), nil
		}
		return val, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, validationErrorf(f.Name(), v, "encoding column value: %v", err)
	}
	return boilertypes.JSON(data), nil
}

// fromColumnValue lifts a scanned driver value back into field space. String
// bases pass through so the field's validators rebuild UUID and timestamp
// values; complex columns decode from JSON.
func fromColumnValue(f *Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	ct := f.Annotation()
	if ct.Listable || ct.Base.Kind() == reflect.Slice || ct.Base.Kind() == reflect.Map {
		var data []byte
		switch s := v.(type) {
		case []byte:
			data = s
		case string:
			data = []byte(s)
		default:
			return nil, validationErrorf(f.Name(), v, "unexpected column type %T for json column", v)
		}
		var out any
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, validationErrorf(f.Name(), v, "decoding json column: %v", err)
		}
		return out, nil
	}
	switch val := v.(type) {
	case []byte:
		return string(val), nil
	case int64:
		if ct.Base.Kind() == reflect.Bool {
			return val != 0, nil
		}
		return val, nil
	case bool, float64, string:
		return val, nil
	case time.Time:
		return val, nil
	}
	return v, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
