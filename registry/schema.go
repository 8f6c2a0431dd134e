package registry

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// =============================================================================
// SCHEMA RESOLVER - header labels -> canonical fields
// =============================================================================

// Field is a canonical semantic column.
type Field string

const (
	FieldName         Field = "name"
	FieldPlate        Field = "plate"
	FieldEmail        Field = "email"
	FieldPhone        Field = "phone"
	FieldLastService  Field = "lastService"
	FieldNextReminder Field = "nextReminder"
	FieldContactFlag  Field = "contactFlag"
	FieldStatus       Field = "status"
	FieldNotifiedDate Field = "notifiedDate"
	FieldNotifiedTier Field = "notifiedTier"
)

// DerivedFields are written by the engine. When the source header lacks one
// of them a column is appended for it, in this order.
var DerivedFields = []Field{FieldNextReminder, FieldContactFlag, FieldNotifiedDate, FieldNotifiedTier}

// FieldSynonyms lists the header labels accepted for one field, highest
// priority first. The first entry doubles as the label of an appended column.
type FieldSynonyms struct {
	Field   Field    `yaml:"field"`
	Headers []string `yaml:"headers"`
}

// KnownField reports whether f is one of the recognised fields.
func KnownField(f Field) bool {
	for _, fs := range DefaultSynonyms() {
		if fs.Field == f {
			return true
		}
	}
	return false
}

// Synonyms is the ordered resolution table. Fields earlier in the table claim
// columns first.
type Synonyms []FieldSynonyms

// DefaultSynonyms is the built-in table.
func DefaultSynonyms() Synonyms {
	return Synonyms{
		{Field: FieldName, Headers: []string{"Name", "Customer", "Customer Name", "Client", "Nombre", "Cliente"}},
		{Field: FieldPlate, Headers: []string{"Plate", "License Plate", "Plate/ID", "ID", "Vehicle", "Placa", "Patente"}},
		{Field: FieldEmail, Headers: []string{"Email", "E-mail", "Email Address", "Mail", "Correo", "Correo Electronico"}},
		{Field: FieldPhone, Headers: []string{"Phone", "Phone Number", "Mobile", "Cell", "Telefono", "Teléfono", "Celular"}},
		{Field: FieldLastService, Headers: []string{"Last Service", "Last Service Date", "Last Visit", "Service Date", "Ultimo Servicio", "Último Servicio", "Fecha Servicio"}},
		{Field: FieldNextReminder, Headers: []string{"Next Reminder", "Next Service", "Next Reminder Date", "Due Date", "Proximo Recordatorio", "Próximo Recordatorio"}},
		{Field: FieldContactFlag, Headers: []string{"Contact Status", "Contact", "Contact Flag", "Estado Contacto"}},
		{Field: FieldStatus, Headers: []string{"Status", "Subscription", "Estado"}},
		{Field: FieldNotifiedDate, Headers: []string{"Last Notified", "Last Notified Date", "Notified On", "Ultimo Aviso"}},
		{Field: FieldNotifiedTier, Headers: []string{"Last Notified Tier", "Notified Tier", "Tipo Aviso"}},
	}
}

// Merge returns s with the entries of override replacing same-field entries.
// Fields only present in override are appended.
func (s Synonyms) Merge(override Synonyms) Synonyms {
	out := make(Synonyms, len(s))
	copy(out, s)
	for _, o := range override {
		replaced := false
		for i := range out {
			if out[i].Field == o.Field {
				out[i] = o
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, o)
		}
	}
	return out
}

func (s Synonyms) label(f Field) string {
	for _, fs := range s {
		if fs.Field == f && len(fs.Headers) > 0 {
			return fs.Headers[0]
		}
	}
	return string(f)
}

// SchemaMap is the per-run mapping from field to zero-based column index.
type SchemaMap struct {
	header []string
	fields []Field
	index  map[Field]int
}

// Resolution is the outcome of resolving a header row.
type Resolution struct {
	Schema   SchemaMap
	Appended []Field
}

// Extended reports whether columns were appended to the header.
func (r Resolution) Extended() bool { return len(r.Appended) > 0 }

// ResolveSchema maps header to canonical fields. Matching is exact after
// trimming and case folding. Each field takes the leftmost unclaimed header
// equal to any of its synonyms; a column belongs to at most one field.
// Unresolved derived fields get new trailing columns.
func ResolveSchema(header []string, synonyms Synonyms) Resolution {
	m := SchemaMap{
		header: append([]string(nil), header...),
		index:  make(map[Field]int, len(synonyms)),
	}

	folded := make([]string, len(header))
	for i, h := range header {
		folded[i] = fold(h)
	}
	claimed := make(map[int]bool, len(header))

	for _, fs := range synonyms {
		if _, done := m.index[fs.Field]; done {
			continue
		}
		accepted := make(map[string]bool, len(fs.Headers))
		for _, h := range fs.Headers {
			accepted[fold(h)] = true
		}
		for col, h := range folded {
			if h == "" || claimed[col] || !accepted[h] {
				continue
			}
			m.set(fs.Field, col)
			claimed[col] = true
			break
		}
	}

	var appended []Field
	for _, f := range DerivedFields {
		if _, ok := m.index[f]; ok {
			continue
		}
		m.header = append(m.header, synonyms.label(f))
		m.set(f, len(m.header)-1)
		appended = append(appended, f)
	}

	return Resolution{Schema: m, Appended: appended}
}

func (m *SchemaMap) set(f Field, col int) {
	m.index[f] = col
	m.fields = append(m.fields, f)
}

// Index returns the column of f.
func (m SchemaMap) Index(f Field) (int, bool) {
	i, ok := m.index[f]
	return i, ok
}

// Header returns the (possibly extended) header row.
func (m SchemaMap) Header() []string {
	return append([]string(nil), m.header...)
}

// Fields returns resolved fields in resolution order.
func (m SchemaMap) Fields() []Field {
	return append([]Field(nil), m.fields...)
}

// Width is the number of columns including appended ones.
func (m SchemaMap) Width() int { return len(m.header) }

// Cell returns the raw value of f in row. Short rows and unresolved fields
// read as nil.
func (m SchemaMap) Cell(row []any, f Field) any {
	i, ok := m.index[f]
	if !ok || i >= len(row) {
		return nil
	}
	return row[i]
}

// Text returns the trimmed textual value of f in row.
func (m SchemaMap) Text(row []any, f Field) string {
	return CellText(m.Cell(row, f))
}

// CellText renders a cell as trimmed text.
func CellText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case Date:
		return val.String()
	case time.Time:
		return DateOf(val).String()
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
