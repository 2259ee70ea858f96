package format

import (
	"testing"

	"github.com/midbel/xlcalc/value"
	"golang.org/x/text/language"
)

func TestText(t *testing.T) {
	tests := []struct {
		Value   value.ScalarValue
		Pattern string
		Want    string
	}{
		{value.Float(3.14159), "0.00", "3.14"},
		{value.Float(-2.5), "0.00", "-2.50"},
		{value.Float(1234567), "#,##0", "1,234,567"},
		{value.Float(1234.5), "#,##0.00", "1,234.50"},
		{value.Float(1234.5), "$#,##0.00", "$1,234.50"},
		{value.Float(0.256), "0%", "26%"},
		{value.Float(12345), "0.0E+00", "1.2E+04"},
		{value.Float(7), "000", "007"},
		{value.Float(0.5), "#.##", ".5"},
		{value.Float(12000), "0,", "12"},
		{value.Float(-5), "0;(0)", "(5)"},
		{value.Float(0), "0;(0);\"zero\"", "zero"},
		{value.Float(1.5), "General", "1.5"},
		{value.Float(42), "0 \"units\"", "42 units"},
		{value.Text("12"), "000", "012"},
		{value.Text("abc"), "\"<\"@\">\"", "<abc>"},
		{value.Text("abc"), "0.00", "abc"},
		{value.Boolean(true), "0.0", "1.0"},
	}
	for _, c := range tests {
		got, err := Text(c.Value, c.Pattern, DefaultOptions())
		if err != nil {
			t.Errorf("%s: unexpected error: %s", c.Pattern, err)
			continue
		}
		if got != c.Want {
			t.Errorf("%s: result mismatched! want %s - got %s", c.Pattern, c.Want, got)
		}
	}
}

func TestTextError(t *testing.T) {
	_, err := Text(value.ErrDiv0, "0.00", DefaultOptions())
	if err != value.ErrDiv0 {
		t.Errorf("error mismatched! want %s - got %v", value.ErrDiv0, err)
	}
}

func TestTextCulture(t *testing.T) {
	opts := DefaultOptions()
	opts.Decimal = ','
	opts.Group = '.'
	opts.Locale = language.German

	tests := []struct {
		Value   float64
		Pattern string
		Want    string
	}{
		{1.5, "0.0", "1,5"},
		{1234.5, "#,##0.00", "1.234,50"},
		{2.25, "General", "2,25"},
	}
	for _, c := range tests {
		got, err := Text(value.Float(c.Value), c.Pattern, opts)
		if err != nil {
			t.Errorf("%s: unexpected error: %s", c.Pattern, err)
			continue
		}
		if got != c.Want {
			t.Errorf("%s: result mismatched! want %s - got %s", c.Pattern, c.Want, got)
		}
	}
}

func TestFixed(t *testing.T) {
	tests := []struct {
		Value    float64
		Decimals int
		Grouping bool
		Tag      language.Tag
		Want     string
	}{
		{1234.567, 1, true, language.AmericanEnglish, "1,234.6"},
		{1234.567, 1, false, language.AmericanEnglish, "1234.6"},
		{1234.567, -2, true, language.AmericanEnglish, "1,200"},
		{-0.5, 2, true, language.AmericanEnglish, "-0.50"},
		{1234.5, 2, true, language.German, "1.234,50"},
	}
	for _, c := range tests {
		got := Fixed(c.Value, c.Decimals, c.Grouping, c.Tag)
		if got != c.Want {
			t.Errorf("%f: result mismatched! want %s - got %s", c.Value, c.Want, got)
		}
	}
}

func TestSplitSections(t *testing.T) {
	tests := []struct {
		Code string
		Want int
	}{
		{"0.00", 1},
		{"0;(0)", 2},
		{"0;-0;\"zero\";@", 4},
		{"\"a;b\"0", 1},
		{`0\;0`, 1},
		{"[Red]0;[Blue]0", 2},
	}
	for _, c := range tests {
		got := splitSections(c.Code)
		if len(got) != c.Want {
			t.Errorf("%s: sections mismatched! want %d - got %d", c.Code, c.Want, len(got))
		}
	}
}
