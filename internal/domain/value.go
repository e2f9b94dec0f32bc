package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind is the closed set of value types a column or value can carry
type ValueKind int

const (
	KindUnknown ValueKind = iota
	KindScalar            // numbers
	KindRecord            // ordered compound of other values
	KindBoolean
	KindEntityRef // reference to another subject
	KindText
)

func (k ValueKind) String() string {
	switch k {
	case KindScalar:
		return "Number"
	case KindRecord:
		return "Record"
	case KindBoolean:
		return "Boolean"
	case KindEntityRef:
		return "Page"
	case KindText:
		return "Text"
	default:
		return "Unknown"
	}
}

// ParseValueKind maps a declared type name to its ValueKind.
// "Monolingual text" is a record of text and language.
func ParseValueKind(name string) ValueKind {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "number", "quantity", "scalar":
		return KindScalar
	case "record", "monolingual text":
		return KindRecord
	case "boolean":
		return KindBoolean
	case "page", "entity":
		return KindEntityRef
	case "text", "string":
		return KindText
	default:
		return KindUnknown
	}
}

// Value is a single datum attached to a subject
type Value struct {
	Kind   ValueKind `json:"kind"`
	Number float64   `json:"num,omitempty"`
	Raw    string    `json:"raw,omitempty"` // lexical form of a scalar
	Text   string    `json:"text,omitempty"`
	Lang   string    `json:"lang,omitempty"`
	Bool   bool      `json:"bool,omitempty"`
	Entity EntityID  `json:"entity,omitzero"`
	Fields []Value   `json:"fields,omitempty"`
}

// NumberValue creates a scalar value
func NumberValue(n float64) Value {
	return Value{Kind: KindScalar, Number: n, Raw: strconv.FormatFloat(n, 'f', -1, 64)}
}

// TextValue creates a text value
func TextValue(s string) Value {
	return Value{Kind: KindText, Text: s}
}

// LangTextValue creates a language-tagged text value
func LangTextValue(s, lang string) Value {
	return Value{Kind: KindText, Text: s, Lang: strings.ToLower(strings.TrimSpace(lang))}
}

// BoolValue creates a boolean value
func BoolValue(b bool) Value {
	return Value{Kind: KindBoolean, Bool: b}
}

// EntityValue creates a reference to another subject
func EntityValue(id EntityID) Value {
	return Value{Kind: KindEntityRef, Entity: id}
}

// RecordValue creates a compound value from its ordered fields
func RecordValue(fields ...Value) Value {
	return Value{Kind: KindRecord, Fields: fields}
}

// IsEntity reports whether the value references a subject
func (v Value) IsEntity() bool {
	return v.Kind == KindEntityRef && !v.Entity.IsZero()
}

// Field returns the record field at index i
func (v Value) Field(i int) (Value, bool) {
	if v.Kind != KindRecord || i < 0 || i >= len(v.Fields) {
		return Value{}, false
	}
	return v.Fields[i], true
}

// TextForLang returns the first language-tagged text field matching lang
func (v Value) TextForLang(lang string) (Value, bool) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if v.Kind == KindText && v.Lang != "" {
		return v, v.Lang == lang
	}
	for _, f := range v.Fields {
		if f.Kind == KindText && f.Lang == lang {
			return f, true
		}
	}
	return Value{}, false
}

// HasLangText reports whether the value carries any language-tagged text
func (v Value) HasLangText() bool {
	if v.Kind == KindText {
		return v.Lang != ""
	}
	for _, f := range v.Fields {
		if f.Kind == KindText && f.Lang != "" {
			return true
		}
	}
	return false
}

// String renders the value for display
func (v Value) String() string {
	switch v.Kind {
	case KindScalar:
		if v.Raw != "" {
			return v.Raw
		}
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindBoolean:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindEntityRef:
		return v.Entity.String()
	case KindText:
		if v.Lang != "" {
			return v.Text + "@" + v.Lang
		}
		return v.Text
	case KindRecord:
		parts := make([]string, len(v.Fields))
		for i, f := range v.Fields {
			parts[i] = f.String()
		}
		return strings.Join(parts, ";")
	default:
		return ""
	}
}

// ParseValue reads the lexical form of a value of the given kind.
// Record values use fieldKinds to parse their ";"-separated components;
// a record declared without field kinds is treated as text@lang.
func ParseValue(kind ValueKind, raw string, fieldKinds []ValueKind) (Value, error) {
	raw = strings.TrimSpace(raw)
	switch kind {
	case KindScalar:
		n, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q: %w", raw, err)
		}
		return Value{Kind: KindScalar, Number: n, Raw: raw}, nil
	case KindBoolean:
		switch strings.ToLower(raw) {
		case "true", "yes", "1":
			return BoolValue(true), nil
		case "false", "no", "0":
			return BoolValue(false), nil
		}
		return Value{}, fmt.Errorf("invalid boolean %q", raw)
	case KindEntityRef:
		id, err := ParseEntityID(raw)
		if err != nil {
			return Value{}, err
		}
		return EntityValue(id), nil
	case KindRecord:
		if len(fieldKinds) == 0 {
			return RecordValue(parseTaggedText(raw)), nil
		}
		parts := strings.Split(raw, ";")
		fields := make([]Value, 0, len(parts))
		for i, part := range parts {
			fk := KindText
			if i < len(fieldKinds) {
				fk = fieldKinds[i]
			}
			if fk == KindText {
				fields = append(fields, parseTaggedText(part))
				continue
			}
			f, err := ParseValue(fk, part, nil)
			if err != nil {
				return Value{}, fmt.Errorf("record field %d: %w", i, err)
			}
			fields = append(fields, f)
		}
		return RecordValue(fields...), nil
	default:
		return TextValue(raw), nil
	}
}

// parseTaggedText reads "text@lang"; values without a tag stay plain text
func parseTaggedText(raw string) Value {
	raw = strings.TrimSpace(raw)
	if i := strings.LastIndexByte(raw, '@'); i > 0 && i < len(raw)-1 && !strings.ContainsAny(raw[i+1:], " ;.") {
		return LangTextValue(raw[:i], raw[i+1:])
	}
	return TextValue(raw)
}
