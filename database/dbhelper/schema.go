package dbhelper

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/ray-remotestate/tableside/models"
)

// Row is one remote record keyed by column name.
type Row map[string]any

// Schema describes how a collection's records map onto a remote table.
type Schema struct {
	Collection string
	Table      string
	Key        string
	OrderBy    string
	Columns    []string

	// Renames maps internal field names to remote column names.
	Renames       map[string]string
	JSONFields    []string
	NumericFields []string
	DateFields    []string
}

var (
	OrdersSchema = Schema{
		Collection:    "orders",
		Table:         "orders",
		Key:           "id",
		OrderBy:       "created_at DESC",
		Columns:       []string{"id", "customer_name", "table_number", "items", "total_amount", "status", "created_at", "order_date"},
		Renames:       map[string]string{"total": "total_amount", "date": "order_date"},
		JSONFields:    []string{"items"},
		NumericFields: []string{"total_amount"},
		DateFields:    []string{"order_date"},
	}

	ManualOrdersSchema = Schema{
		Collection:    "manual_orders",
		Table:         "manual_orders",
		Key:           "id",
		OrderBy:       "created_at DESC",
		Columns:       []string{"id", "customer_name", "table_number", "items_description", "total_amount", "notes", "type", "created_at", "order_date"},
		Renames:       map[string]string{"total": "total_amount", "date": "order_date"},
		NumericFields: []string{"total_amount"},
		DateFields:    []string{"order_date"},
	}

	DailyTotalsSchema = Schema{
		Collection:    "daily_totals",
		Table:         "daily_totals",
		Key:           "date",
		OrderBy:       "date DESC",
		Columns:       []string{"date", "digital_orders", "manual_orders", "digital_revenue", "manual_revenue", "total_orders", "total_revenue", "updated_at"},
		NumericFields: []string{"digital_revenue", "manual_revenue", "total_revenue"},
		DateFields:    []string{"date"},
	}

	MenuItemsSchema = Schema{
		Collection:    "menu_items",
		Table:         "menu_items",
		Key:           "id",
		OrderBy:       "category, name",
		Columns:       []string{"id", "name", "description", "price", "image_url", "category", "available"},
		Renames:       map[string]string{"image": "image_url"},
		NumericFields: []string{"price"},
	}
)

func (s Schema) remoteName(field string) string {
	if col, ok := s.Renames[field]; ok {
		return col
	}
	return field
}

func (s Schema) internalName(col string) string {
	for field, c := range s.Renames {
		if c == col {
			return field
		}
	}
	return col
}

func (s Schema) hasColumn(col string) bool { return contains(s.Columns, col) }

// ToRemote renames fields to their remote columns, encodes JSON fields as
// strings and drops anything the table has no column for.
func ToRemote(s Schema, fields map[string]any) (Row, error) {
	row := Row{}
	for field, v := range fields {
		col := s.remoteName(field)
		if !s.hasColumn(col) {
			continue
		}
		if contains(s.JSONFields, col) {
			encoded, err := encodeJSONField(v)
			if err != nil {
				return nil, fmt.Errorf("encoding %s.%s: %w", s.Table, col, err)
			}
			v = encoded
		}
		row[col] = v
	}
	return row, nil
}

// FromRemote is the inverse of ToRemote. It also normalises driver values
// (byte slices, NUMERIC text, timestamps) into their JSON shapes. Timestamps
// come back in the local zone, as the file store keeps them.
func FromRemote(s Schema, row Row) (map[string]any, error) {
	fields := make(map[string]any, len(row))
	for col, v := range row {
		switch {
		case contains(s.JSONFields, col):
			decoded, err := decodeJSONField(v)
			if err != nil {
				return nil, fmt.Errorf("decoding %s.%s: %w", s.Table, col, err)
			}
			v = decoded
		case contains(s.NumericFields, col):
			n, err := toFloat(v)
			if err != nil {
				return nil, fmt.Errorf("decoding %s.%s: %w", s.Table, col, err)
			}
			v = n
		default:
			v = normalize(v, contains(s.DateFields, col))
		}
		fields[s.internalName(col)] = v
	}
	return fields, nil
}

// ItemsToRemote encodes order items the way the items column stores them.
func ItemsToRemote(items []models.OrderItem) (string, error) {
	return encodeJSONField(items)
}

// ItemsFromRemote accepts the items column as text, bytes or already-decoded
// JSON.
func ItemsFromRemote(v any) ([]models.OrderItem, error) {
	decoded, err := decodeJSONField(v)
	if err != nil {
		return nil, err
	}
	items := []models.OrderItem{}
	if decoded == nil {
		return items, nil
	}
	raw, err := json.Marshal(decoded)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("items are not a list of order items: %w", err)
	}
	return items, nil
}

// EncodeRecord flattens a record into its internal field map.
func EncodeRecord[T any](rec T) (map[string]any, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func DecodeRecord[T any](fields map[string]any) (T, error) {
	var rec T
	raw, err := json.Marshal(fields)
	if err != nil {
		return rec, err
	}
	err = json.Unmarshal(raw, &rec)
	return rec, err
}

func encodeJSONField(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeJSONField(v any) (any, error) {
	var raw []byte
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		raw = []byte(t)
	case []byte:
		raw = t
	default:
		return v, nil
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func toFloat(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case float64:
		return t, nil
	case int64:
		return float64(t), nil
	case []byte:
		return strconv.ParseFloat(string(t), 64)
	case string:
		return strconv.ParseFloat(t, 64)
	default:
		return nil, fmt.Errorf("unexpected numeric value %T", v)
	}
}

func normalize(v any, date bool) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case time.Time:
		if date {
			return t.Format(time.DateOnly)
		}
		return t.In(time.Local).Format(time.RFC3339Nano)
	case int64:
		return float64(t)
	default:
		return v
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
