package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Filter values with special meaning: anything else is a case-sensitive
// substring match on the field's text representation.
const (
	FilterIsNull  = "isNull"
	FilterNotNull = "notNull"
)

// Order describes result ordering by a declared field
type Order struct {
	Field string
	Desc  bool
}

// lookupOrder is the fixed priority used when resolving an opaque id
// without a kind hint. Tracks are the most numerous and the most
// frequently looked up, so they are probed first.
var lookupOrder = []*Kind{Media, Album, Artist, Playlist}

// Query returns the entities of a kind matching every filter
// conjunctively, optionally ordered. With no filters it returns all rows
// of the kind in natural storage order.
func (s *Store) Query(kind *Kind, filters map[string]string, order *Order) ([]*Entity, error) {
	var result []*Entity
	err := s.withRead("query "+kindName(kind), func(tx *sql.Tx) error {
		var err error
		result, err = queryTx(tx, kind, filters, order)
		return err
	})
	return result, err
}

// QueryID returns the single entity of a kind with the given identity,
// or ErrNotFound
func (s *Store) QueryID(kind *Kind, id string) (*Entity, error) {
	var result *Entity
	err := s.withRead("query "+kindName(kind)+" by id", func(tx *sql.Tx) error {
		var err error
		result, err = queryIDTx(tx, kind, id)
		return err
	})
	return result, err
}

// QueryFormat is Query returning serialized mappings instead of entities.
// The serialized copies are detached from the store and must never be
// used for mutation.
func (s *Store) QueryFormat(kind *Kind, filters map[string]string, order *Order) ([]map[string]any, error) {
	entities, err := s.Query(kind, filters, order)
	if err != nil {
		return nil, err
	}
	return formatAll(entities), nil
}

// QueryIDFormat is QueryID returning the serialized mapping
func (s *Store) QueryIDFormat(kind *Kind, id string) (map[string]any, error) {
	e, err := s.QueryID(kind, id)
	if err != nil {
		return nil, err
	}
	return e.Public(), nil
}

// QueryTop returns the limit highest-valued rows by field, descending,
// in serialized form
func (s *Store) QueryTop(kind *Kind, field string, limit int) ([]map[string]any, error) {
	var result []map[string]any
	err := s.withRead("query top "+kindName(kind), func(tx *sql.Tx) error {
		entities, err := queryTopTx(tx, kind, field, limit)
		if err != nil {
			return err
		}
		result = formatAll(entities)
		return nil
	})
	return result, err
}

// FindByID resolves an opaque entity id to its row. With a kind hint only
// that kind is searched; otherwise kinds are probed in fixed priority
// order (Media, Album, Artist, Playlist) and the first match wins.
func (s *Store) FindByID(id string, kind *Kind) (*Entity, error) {
	var result *Entity
	err := s.withRead("find by id", func(tx *sql.Tx) error {
		var err error
		result, err = findByIDTx(tx, id, kind)
		return err
	})
	return result, err
}

func kindName(kind *Kind) string {
	if kind == nil {
		return "<nil>"
	}
	return kind.Name
}

// queryTx builds and runs the generic filter/order query
func queryTx(tx *sql.Tx, kind *Kind, filters map[string]string, order *Order) ([]*Entity, error) {
	if kind == nil {
		return nil, fmt.Errorf("kind must not be nil")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", strings.Join(kind.Fields, ", "), kind.Table)

	var (
		clauses []string
		args    []any
	)
	for field, value := range filters {
		if !kind.HasField(field) {
			return nil, fmt.Errorf("filter field %q not declared on %s", field, kind.Name)
		}
		switch value {
		case FilterIsNull:
			clauses = append(clauses, field+" IS NULL")
		case FilterNotNull:
			clauses = append(clauses, field+" IS NOT NULL")
		default:
			clauses = append(clauses, field+" LIKE ?")
			args = append(args, "%"+value+"%")
		}
	}
	if len(clauses) > 0 {
		sb.WriteString(" WHERE " + strings.Join(clauses, " AND "))
	}

	if order != nil {
		if !kind.HasField(order.Field) {
			return nil, fmt.Errorf("order field %q not declared on %s", order.Field, kind.Name)
		}
		sb.WriteString(" ORDER BY " + order.Field)
		if order.Desc {
			sb.WriteString(" DESC")
		}
	}

	rows, err := tx.Query(sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntities(rows, kind)
}

// queryIDTx is the exactly-one lookup by identity field
func queryIDTx(tx *sql.Tx, kind *Kind, id string) (*Entity, error) {
	if kind == nil {
		return nil, fmt.Errorf("kind must not be nil")
	}
	if id == "" {
		return nil, fmt.Errorf("id must not be empty")
	}

	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		strings.Join(kind.Fields, ", "), kind.Table, kind.IDField())
	rows, err := tx.Query(q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entities, err := scanEntities(rows, kind)
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, kind.Name, id)
	}
	return entities[0], nil
}

// queryTopTx returns the limit highest-field rows, descending
func queryTopTx(tx *sql.Tx, kind *Kind, field string, limit int) ([]*Entity, error) {
	if kind == nil {
		return nil, fmt.Errorf("kind must not be nil")
	}
	if !kind.HasField(field) {
		return nil, fmt.Errorf("top field %q not declared on %s", field, kind.Name)
	}

	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s DESC LIMIT ?",
		strings.Join(kind.Fields, ", "), kind.Table, field)
	rows, err := tx.Query(q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntities(rows, kind)
}

// findByIDTx probes entity kinds for an id, honouring the fixed priority
// order when no kind hint is given
func findByIDTx(tx *sql.Tx, id string, kind *Kind) (*Entity, error) {
	if id == "" {
		return nil, fmt.Errorf("id must not be empty")
	}

	kinds := lookupOrder
	if kind != nil {
		kinds = []*Kind{kind}
	}
	for _, k := range kinds {
		e, err := queryIDTx(tx, k, id)
		if err == nil {
			return e, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: id %s in any kind", ErrNotFound, id)
}

// mergeTx performs the idempotent insert-or-replace by identity field
func mergeTx(tx *sql.Tx, e *Entity) error {
	if e == nil {
		return fmt.Errorf("entity must not be nil")
	}
	if e.ID() == "" {
		return fmt.Errorf("entity %s has no id", e.kind.Name)
	}

	kind := e.kind
	placeholders := make([]string, len(kind.Fields))
	args := make([]any, len(kind.Fields))
	for i, field := range kind.Fields {
		placeholders[i] = "?"
		if v, ok := e.Lookup(field); ok {
			args[i] = v
		} else {
			args[i] = nil
		}
	}

	q := fmt.Sprintf("INSERT OR REPLACE INTO %s (%s) VALUES (%s)",
		kind.Table, strings.Join(kind.Fields, ", "), strings.Join(placeholders, ", "))
	_, err := tx.Exec(q, args...)
	return err
}

// deleteTx removes a row by identity, reporting ErrNotFound when nothing
// was deleted
func deleteTx(tx *sql.Tx, kind *Kind, id string) error {
	if id == "" {
		return fmt.Errorf("id must not be empty")
	}
	result, err := tx.Exec(
		fmt.Sprintf("DELETE FROM %s WHERE %s = ?", kind.Table, kind.IDField()), id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %s", ErrNotFound, kind.Name, id)
	}
	return nil
}

// scanEntities reads a result set into entities, skipping NULL columns so
// absent fields stay absent
func scanEntities(rows *sql.Rows, kind *Kind) ([]*Entity, error) {
	var entities []*Entity
	for rows.Next() {
		values := make([]sql.NullString, len(kind.Fields))
		dest := make([]any, len(kind.Fields))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", kind.Name, err)
		}

		e := NewEntity(kind)
		for i, field := range kind.Fields {
			if values[i].Valid {
				e.attrs[field] = values[i].String
			}
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}
