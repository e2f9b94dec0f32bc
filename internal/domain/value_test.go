package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		name       string
		kind       ValueKind
		raw        string
		fieldKinds []ValueKind
		want       Value
		wantErr    bool
	}{
		{"number with separators", KindScalar, "2,148,000", nil, Value{Kind: KindScalar, Number: 2148000, Raw: "2,148,000"}, false},
		{"bad number", KindScalar, "many", nil, Value{}, true},
		{"boolean yes", KindBoolean, "Yes", nil, BoolValue(true), false},
		{"boolean zero", KindBoolean, "0", nil, BoolValue(false), false},
		{"bad boolean", KindBoolean, "maybe", nil, Value{}, true},
		{"page", KindEntityRef, "france", nil, EntityValue(Page("France")), false},
		{"text keeps at sign", KindText, "info@example.org", nil, TextValue("info@example.org"), false},
		{"monolingual", KindRecord, "Paris@fr", nil, RecordValue(LangTextValue("Paris", "fr")), false},
		{"record fields", KindRecord, "9;nine@en", []ValueKind{KindScalar, KindText},
			RecordValue(Value{Kind: KindScalar, Number: 9, Raw: "9"}, LangTextValue("nine", "en")), false},
		{"record bad field", KindRecord, "x;y", []ValueKind{KindScalar, KindText}, Value{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseValue(tt.kind, tt.raw, tt.fieldKinds)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValue_TextForLang(t *testing.T) {
	rec := RecordValue(LangTextValue("Londres", "fr"), LangTextValue("London", "en"))

	got, ok := rec.TextForLang("EN")
	require.True(t, ok)
	assert.Equal(t, "London", got.Text)

	_, ok = rec.TextForLang("de")
	assert.False(t, ok)
	assert.True(t, rec.HasLangText())
	assert.False(t, RecordValue(NumberValue(1)).HasLangText())
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "10;b", RecordValue(NumberValue(10), TextValue("b")).String())
	assert.Equal(t, "Category:Town", EntityValue(CategoryPage("Town")).String())
	assert.Equal(t, "Paris@fr", LangTextValue("Paris", "FR").String())
	assert.Equal(t, "false", BoolValue(false).String())
}

func TestParseValueKind(t *testing.T) {
	assert.Equal(t, KindRecord, ParseValueKind("Monolingual text"))
	assert.Equal(t, KindEntityRef, ParseValueKind("page"))
	assert.Equal(t, KindScalar, ParseValueKind("Number"))
	assert.Equal(t, KindUnknown, ParseValueKind("Geographic coordinate"))
}
