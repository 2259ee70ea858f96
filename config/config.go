// Package config reads the settings of a workbook from a YAML file.
//
// The document is flattened into dotted paths (calc.iterative.max, ...)
// and each path is applied by the directive registered for it.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/midbel/xlcalc/calc"
	"github.com/midbel/xlcalc/formula/parse"
	"github.com/midbel/xlcalc/internal/ds"
	"github.com/midbel/xlcalc/value"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

var (
	ErrOption = errors.New("unknown option")
	ErrValue  = errors.New("invalid value")
)

type Directive func(*calc.Settings, any) error

var directives *ds.Trie[Directive]

func init() {
	directives = ds.NewTrie[Directive]()
	directives.Register([]string{"calc", "culture"}, configureCulture)
	directives.Register([]string{"calc", "separators", "argument"}, configureArgSeparator)
	directives.Register([]string{"calc", "separators", "decimal"}, configureDecimalSeparator)
	directives.Register([]string{"calc", "reference"}, configureReference)
	directives.Register([]string{"calc", "dates"}, configureDates)
	directives.Register([]string{"calc", "iterative", "enabled"}, configureIterative)
	directives.Register([]string{"calc", "iterative", "max"}, configureMaxIterations)
	directives.Register([]string{"calc", "iterative", "tolerance"}, configureTolerance)
	directives.Register([]string{"calc", "mode"}, configureMode)
}

// Options lists the paths understood by Apply.
func Options() []string {
	var list []string
	directives.Walk(nil, func(path []string, _ Directive) {
		list = append(list, strings.Join(path, "."))
	})
	return list
}

func Load(file string) (calc.Settings, error) {
	r, err := os.Open(file)
	if err != nil {
		return calc.Settings{}, err
	}
	defer r.Close()
	return Read(r)
}

// Read decodes a YAML document on top of the default settings.
func Read(r io.Reader) (calc.Settings, error) {
	settings := calc.DefaultSettings()

	var doc map[string]any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return settings, err
	}
	flat := make(map[string]any)
	flatten(nil, doc, flat)

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if err := Apply(&settings, k, flat[k]); err != nil {
			return settings, err
		}
	}
	return settings, nil
}

// Apply sets the option at the dotted path to v.
func Apply(settings *calc.Settings, path string, v any) error {
	fn, ok := directives.Get(strings.Split(strings.ToLower(path), "."))
	if !ok {
		return fmt.Errorf("%s: %w", path, ErrOption)
	}
	if err := fn(settings, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func flatten(prefix []string, doc map[string]any, flat map[string]any) {
	for k, v := range doc {
		path := append(slices.Clone(prefix), strings.ToLower(k))
		if sub, ok := v.(map[string]any); ok {
			flatten(path, sub, flat)
			continue
		}
		flat[strings.Join(path, ".")] = v
	}
}

func configureCulture(cfg *calc.Settings, v any) error {
	str, err := toString(v)
	if err != nil {
		return err
	}
	tag, err := language.Parse(str)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValue, err)
	}
	cfg.Culture = tag
	return nil
}

func configureArgSeparator(cfg *calc.Settings, v any) error {
	r, err := toRune(v)
	if err == nil {
		cfg.ArgSeparator = r
	}
	return err
}

func configureDecimalSeparator(cfg *calc.Settings, v any) error {
	r, err := toRune(v)
	if err == nil {
		cfg.DecimalSeparator = r
	}
	return err
}

func configureReference(cfg *calc.Settings, v any) error {
	str, err := toString(v)
	if err != nil {
		return err
	}
	switch strings.ToUpper(str) {
	case "A1":
		cfg.Reference = parse.ModeA1
	case "R1C1":
		cfg.Reference = parse.ModeR1C1
	default:
		return fmt.Errorf("%w: reference style %s", ErrValue, str)
	}
	return nil
}

func configureDates(cfg *calc.Settings, v any) error {
	n, err := toNumber(v)
	if err != nil {
		return err
	}
	switch n {
	case 1900:
		cfg.Dates = value.Date1900
	case 1904:
		cfg.Dates = value.Date1904
	default:
		return fmt.Errorf("%w: date system %v", ErrValue, n)
	}
	return nil
}

func configureIterative(cfg *calc.Settings, v any) error {
	b, ok := v.(bool)
	if !ok {
		return fmt.Errorf("%w: boolean expected", ErrValue)
	}
	cfg.Iterative = b
	return nil
}

func configureMaxIterations(cfg *calc.Settings, v any) error {
	n, err := toNumber(v)
	if err != nil {
		return err
	}
	if n < 1 {
		return fmt.Errorf("%w: iterations should be positive", ErrValue)
	}
	cfg.MaxIterations = int(n)
	return nil
}

func configureTolerance(cfg *calc.Settings, v any) error {
	n, err := toNumber(v)
	if err != nil {
		return err
	}
	if n <= 0 {
		return fmt.Errorf("%w: tolerance should be positive", ErrValue)
	}
	cfg.Tolerance = n
	return nil
}

func configureMode(cfg *calc.Settings, v any) error {
	str, err := toString(v)
	if err != nil {
		return err
	}
	switch strings.ToLower(str) {
	case "automatic", "auto":
		cfg.Manual = false
	case "manual":
		cfg.Manual = true
	default:
		return fmt.Errorf("%w: calculation mode %s", ErrValue, str)
	}
	return nil
}

func toString(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	default:
		return "", fmt.Errorf("%w: string expected", ErrValue)
	}
}

func toRune(v any) (rune, error) {
	str, err := toString(v)
	if err != nil {
		return 0, err
	}
	if utf8.RuneCountInString(str) != 1 {
		return 0, fmt.Errorf("%w: %q: single character expected", ErrValue, str)
	}
	r, _ := utf8.DecodeRuneInString(str)
	return r, nil
}

func toNumber(v any) (float64, error) {
	switch v := v.(type) {
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrValue, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: number expected", ErrValue)
	}
}
