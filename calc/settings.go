package calc

import (
	"github.com/midbel/xlcalc/formula/parse"
	"github.com/midbel/xlcalc/layout"
	"github.com/midbel/xlcalc/value"
	"golang.org/x/text/language"
)

const (
	DefaultMaxIterations = 100
	DefaultTolerance     = 0.001
)

// Settings controls how formulas are read and computed for a workbook.
type Settings struct {
	Culture          language.Tag
	ArgSeparator     rune
	DecimalSeparator rune
	Reference        parse.RefMode
	Dates            value.DateSystem

	Iterative     bool
	MaxIterations int
	Tolerance     float64
	Manual        bool

	Telemetry Telemetry
}

func DefaultSettings() Settings {
	return Settings{
		Culture:          language.AmericanEnglish,
		ArgSeparator:     ',',
		DecimalSeparator: '.',
		Reference:        parse.ModeA1,
		Dates:            value.Date1900,
		MaxIterations:    DefaultMaxIterations,
		Tolerance:        DefaultTolerance,
	}
}

func (s Settings) ParseOptions() parse.Options {
	opts := parse.CultureOptions(s.ArgSeparator, s.DecimalSeparator)
	opts.Mode = s.Reference
	return opts
}

func (s Settings) FormatOptions(origin layout.Position) parse.FormatOptions {
	return parse.FormatOptions{
		LeadingEqual: true,
		Options:      s.ParseOptions(),
		Origin:       origin,
	}
}

func (s Settings) withDefaults() Settings {
	def := DefaultSettings()
	if s.ArgSeparator == 0 {
		s.ArgSeparator = def.ArgSeparator
	}
	if s.DecimalSeparator == 0 {
		s.DecimalSeparator = def.DecimalSeparator
	}
	if s.Culture == language.Und {
		s.Culture = def.Culture
	}
	if s.MaxIterations <= 0 {
		s.MaxIterations = def.MaxIterations
	}
	if s.Tolerance <= 0 {
		s.Tolerance = def.Tolerance
	}
	return s
}
