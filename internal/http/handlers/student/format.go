package student

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/aanand-mishra/student-webserver/internal/config"
	"github.com/aanand-mishra/student-webserver/internal/types"
	"github.com/aanand-mishra/student-webserver/internal/utils/response"
)

// ─────────────────────────────────────────────────────────────────────────────
// Format renders student rows into response bodies.
//
//	json   → [{"id":1,"firstname":"John","lastname":"Smith","dept":"Tech"}]
//	legacy → {\r\n{"id":1 ,\r\n"firstname":"John",\r\n...\r\n}}
//
// legacy is byte-compatible with the bodies older clients parse by hand.
// It is not valid JSON and does not escape quotes inside values.
// ─────────────────────────────────────────────────────────────────────────────
type Format string

// ParseFormat maps the response.format config value to a Format.
// Anything but "legacy" renders JSON.
func ParseFormat(s string) Format {
	if s == config.FormatLegacy {
		return Format(config.FormatLegacy)
	}
	return Format(config.FormatJSON)
}

// ContentType of the bodies produced by f.
func (f Format) ContentType() string {
	if f == config.FormatLegacy {
		return response.ContentTypeText
	}
	return response.ContentTypeJSON
}

// ─────────────────────────────────────────────────────────────────────────────
// List renders every row, in the order given.
// ─────────────────────────────────────────────────────────────────────────────
func (f Format) List(students []types.Student) ([]byte, error) {
	if f != config.FormatLegacy {
		if students == nil {
			students = []types.Student{}
		}
		return json.Marshal(students)
	}

	var b strings.Builder
	b.WriteString("{")
	for _, s := range students {
		b.WriteString("\r\n")
		writeLegacy(&b, s)
		b.WriteString(",")
	}
	// drops the last comma, or the opening brace when there were no rows
	out := b.String()
	out = out[:len(out)-1] + "}"
	return []byte(out), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Record renders a single row.
// ─────────────────────────────────────────────────────────────────────────────
func (f Format) Record(s types.Student) ([]byte, error) {
	if f != config.FormatLegacy {
		return json.Marshal(s)
	}

	var b strings.Builder
	writeLegacy(&b, s)
	return []byte(b.String()), nil
}

func writeLegacy(b *strings.Builder, s types.Student) {
	b.WriteString(`{"id":`)
	b.WriteString(strconv.FormatInt(s.ID, 10))
	b.WriteString(" ,\r\n")
	b.WriteString(`"firstname":"` + s.FirstName + "\",\r\n")
	b.WriteString(`"lastname":"` + s.LastName + "\",\r\n")
	b.WriteString(`"dept":"` + s.Dept + "\"\r\n}")
}
