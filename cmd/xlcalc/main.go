package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/midbel/cli"
	"github.com/midbel/log"
	"github.com/midbel/xlcalc/calc"
	"github.com/midbel/xlcalc/config"
	"github.com/midbel/xlcalc/doc"
	"github.com/midbel/xlcalc/formula/parse"
	"github.com/midbel/xlcalc/layout"
	"github.com/midbel/xlcalc/store"
)

var errFail = errors.New("fail")

var (
	summary = "xlcalc"
	help    = "evaluate spreadsheet formulas and recalculate workbook descriptions"
)

func main() {
	var (
		set  = cli.NewFlagSet("xlcalc")
		root = prepare()
	)
	root.SetSummary(summary)
	root.SetHelp(help)
	if err := set.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			root.Help()
			os.Exit(2)
		}
	}
	err := root.Execute(set.Args())
	if err != nil {
		if s, ok := err.(cli.SuggestionError); ok && len(s.Others) > 0 {
			fmt.Fprintln(os.Stderr, "similar command(s)")
			for _, n := range s.Others {
				fmt.Fprintln(os.Stderr, "-", n)
			}
		}
		if !errors.Is(err, errFail) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func prepare() *cli.CommandTrie {
	root := cli.New()
	root.Register([]string{"eval"}, &evalCmd)
	root.Register([]string{"calc"}, &calcCmd)
	root.Register([]string{"deps"}, &depsCmd)
	root.Register([]string{"lint"}, &lintCmd)
	root.Register([]string{"tokens"}, &tokensCmd)
	root.Register([]string{"repl"}, &replCmd)
	root.Register([]string{"options"}, &optionsCmd)
	return root
}

var evalCmd = cli.Command{
	Name:    "eval",
	Summary: "evaluate a formula, optionally against a workbook",
	Usage:   "eval [-f workbook] [-s sheet] [-c config] <formula>",
	Handler: &EvalCommand{},
}

var calcCmd = cli.Command{
	Name:    "calc",
	Alias:   []string{"recalc", "run"},
	Summary: "recalculate a workbook and print the value of its cells",
	Usage:   "calc [-db file] [-o file] [-s columns] [-c config] [-v [-j]] <workbook>",
	Handler: &CalcCommand{},
}

var depsCmd = cli.Command{
	Name:    "deps",
	Alias:   []string{"dependencies"},
	Summary: "print the precedents and dependents of a cell",
	Usage:   "deps [-c config] <workbook> <cell>",
	Handler: &DepsCommand{},
}

var lintCmd = cli.Command{
	Name:    "lint",
	Alias:   []string{"check"},
	Summary: "report unknown functions used by formulas",
	Usage:   "lint [-c config] <formula> [<formula>...]",
	Handler: &LintCommand{},
}

var tokensCmd = cli.Command{
	Name:    "tokens",
	Alias:   []string{"scan"},
	Summary: "print the tokens of a formula",
	Usage:   "tokens [-c config] <formula>",
	Handler: &TokensCommand{},
}

var replCmd = cli.Command{
	Name:    "repl",
	Alias:   []string{"shell"},
	Summary: "start an interactive session",
	Usage:   "repl [-f workbook] [-db file] [-c config]",
	Handler: &ReplCommand{},
}

var optionsCmd = cli.Command{
	Name:    "options",
	Summary: "list the options accepted in settings files",
	Usage:   "options",
	Handler: &OptionsCommand{},
}

// engineFlags are shared by the commands that build an engine.
type engineFlags struct {
	Config   string
	File     string
	Database string
	Verbose  bool
	Fields   bool
	Manual   bool
}

type flagSet interface {
	StringVar(*string, string, string, string)
	BoolVar(*bool, string, bool, string)
}

func (f *engineFlags) bind(set flagSet, file bool) {
	set.StringVar(&f.Config, "c", "", "settings file")
	set.StringVar(&f.Database, "db", "", "keep cells in given sqlite database")
	set.BoolVar(&f.Verbose, "v", false, "verbose logging")
	set.BoolVar(&f.Fields, "j", false, "print recalculation reports as name=value fields")
	set.BoolVar(&f.Manual, "m", false, "manual calculation")
	if file {
		set.StringVar(&f.File, "f", "", "workbook description (xml or yaml)")
	}
}

func (f *engineFlags) settings() (calc.Settings, error) {
	settings := calc.DefaultSettings()
	if f.Config != "" {
		s, err := config.Load(f.Config)
		if err != nil {
			return settings, err
		}
		settings = s
	}
	if f.Manual {
		settings.Manual = true
	}
	return settings, nil
}

func (f *engineFlags) logger() *slog.Logger {
	level := slog.LevelWarn
	if f.Verbose {
		level = slog.LevelDebug
	}
	opts := slog.HandlerOptions{
		Level: level,
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &opts))
}

const reportPattern = "%t %l %n: %m"

// telemetry prints every recalculation report in verbose mode. Otherwise only
// the reports with a cycle that did not converge reach the logger.
func (f *engineFlags) telemetry(logger *slog.Logger) (calc.Telemetry, error) {
	if !f.Verbose {
		return calc.LogTelemetry(logger), nil
	}
	var (
		w   log.Writer
		err error
	)
	if f.Fields {
		w, err = log.Structured(os.Stderr, reportPattern)
	} else {
		w, err = log.Text(os.Stderr, reportPattern)
	}
	if err != nil {
		return nil, err
	}
	return calc.WriterTelemetry(w), nil
}

// engine creates an engine, loads the workbook found in file when given and
// returns a function releasing the underlying store.
func (f *engineFlags) engine(file string) (*calc.Engine, func() error, error) {
	settings, err := f.settings()
	if err != nil {
		return nil, nil, err
	}
	logger := f.logger()
	settings.Telemetry, err = f.telemetry(logger)
	if err != nil {
		return nil, nil, err
	}

	var (
		options = []calc.Option{calc.WithSettings(settings), calc.WithLogger(logger)}
		closer  = func() error { return nil }
	)
	if f.Database != "" {
		db, err := store.NewSQLite(f.Database)
		if err != nil {
			return nil, nil, err
		}
		options = append(options, calc.WithStore(db))
		closer = db.Close
	} else if file == "" {
		options = append(options, calc.WithStore(store.NewMemory("Sheet1")))
	}
	if file == "" {
		e, err := calc.New(options...)
		if err != nil {
			closer()
			return nil, nil, err
		}
		return e, closer, nil
	}
	wb, err := doc.Open(file)
	if err != nil {
		closer()
		return nil, nil, err
	}
	e, err := wb.Engine(options...)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return e, closer, nil
}

type EvalCommand struct {
	engineFlags
	Sheet string
}

func (c EvalCommand) Run(args []string) error {
	set := cli.NewFlagSet("eval")
	c.bind(set, true)
	set.StringVar(&c.Sheet, "s", "", "sheet used to resolve unqualified references")
	if err := set.Parse(args); err != nil {
		return err
	}
	e, closer, err := c.engine(c.File)
	if err != nil {
		return err
	}
	defer closer()
	if _, err := e.RecalculateAll(); err != nil {
		return err
	}
	sheet := c.Sheet
	if sheet == "" {
		if sheets := e.Sheets(); len(sheets) > 0 {
			sheet = sheets[0]
		}
	}
	for _, a := range set.Args() {
		v, err := e.Evaluate(sheet, a)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, v)
	}
	return nil
}

type CalcCommand struct {
	engineFlags
	OutFile string
	Formula bool
	Columns string
}

func (c CalcCommand) Run(args []string) error {
	set := cli.NewFlagSet("calc")
	c.bind(set, false)
	set.StringVar(&c.OutFile, "o", "", "write the recalculated workbook to file (yaml)")
	set.BoolVar(&c.Formula, "k", false, "keep formulas in output file")
	set.StringVar(&c.Columns, "s", "", "only print the selected columns (A;C:E)")
	if err := set.Parse(args); err != nil {
		return err
	}
	var sel layout.Selection
	if c.Columns != "" {
		s, err := layout.ParseSelection(c.Columns)
		if err != nil {
			return err
		}
		sel = s
	}
	e, closer, err := c.engine(set.Arg(0))
	if err != nil {
		return err
	}
	defer closer()

	res, err := e.RecalculateAll()
	if err != nil {
		return err
	}
	if res.HasCycle && !res.Converged {
		fmt.Fprintln(os.Stderr, "circular references did not converge")
	}
	if c.OutFile != "" {
		return c.write(e)
	}
	for _, sheet := range e.Sheets() {
		cells, err := e.Cells(sheet)
		if err != nil {
			return err
		}
		for _, pos := range cells {
			if sel != nil && !sel.Match(pos.Column) {
				continue
			}
			v, err := e.Value(pos)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "%-16s %s", pos, v)
			if f, _ := e.Formula(pos); f != "" {
				fmt.Fprintf(os.Stdout, "\t%s", f)
			}
			fmt.Fprintln(os.Stdout)
		}
	}
	return nil
}

func (c CalcCommand) write(e *calc.Engine) error {
	wb, err := doc.Snapshot(e, !c.Formula)
	if err != nil {
		return err
	}
	w, err := os.Create(c.OutFile)
	if err != nil {
		return err
	}
	defer w.Close()
	return doc.WriteYAML(w, wb)
}

type DepsCommand struct {
	engineFlags
}

func (c DepsCommand) Run(args []string) error {
	set := cli.NewFlagSet("deps")
	c.bind(set, false)
	if err := set.Parse(args); err != nil {
		return err
	}
	if set.NArg() < 2 {
		return fmt.Errorf("workbook and cell expected")
	}
	e, closer, err := c.engine(set.Arg(0))
	if err != nil {
		return err
	}
	defer closer()
	for i := 1; i < set.NArg(); i++ {
		pos, err := layout.ParsePosition(set.Arg(i))
		if err != nil {
			return err
		}
		if sheets := e.Sheets(); pos.Sheet == "" && len(sheets) > 0 {
			pos.Sheet = sheets[0]
		}
		fmt.Fprintln(os.Stdout, pos)
		for _, p := range e.Dependencies(pos) {
			fmt.Fprintln(os.Stdout, "  <-", p)
		}
		for _, p := range e.Dependents(pos) {
			fmt.Fprintln(os.Stdout, "  ->", p)
		}
	}
	return nil
}

type LintCommand struct {
	engineFlags
}

func (c LintCommand) Run(args []string) error {
	set := cli.NewFlagSet("lint")
	c.bind(set, false)
	if err := set.Parse(args); err != nil {
		return err
	}
	e, closer, err := c.engine("")
	if err != nil {
		return err
	}
	defer closer()

	var failed bool
	for _, a := range set.Args() {
		issues, err := e.Lint(a)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", a, err)
			failed = true
			continue
		}
		for _, i := range issues {
			failed = true
			fmt.Fprintf(os.Stdout, "%s: unknown function %s", a, i.Function)
			if len(i.Suggestions) > 0 {
				fmt.Fprintf(os.Stdout, " (did you mean %s?)", strings.Join(i.Suggestions, ", "))
			}
			fmt.Fprintln(os.Stdout)
		}
	}
	if failed {
		return errFail
	}
	return nil
}

type TokensCommand struct {
	engineFlags
}

func (c TokensCommand) Run(args []string) error {
	set := cli.NewFlagSet("tokens")
	c.bind(set, false)
	if err := set.Parse(args); err != nil {
		return err
	}
	settings, err := c.settings()
	if err != nil {
		return err
	}
	for _, a := range set.Args() {
		tokens, err := parse.Tokenize(a, settings.ParseOptions())
		if err != nil {
			return err
		}
		for _, t := range tokens {
			fmt.Fprintf(os.Stdout, "%s %s\n", t.Position, t)
		}
	}
	return nil
}

type OptionsCommand struct{}

func (c OptionsCommand) Run(args []string) error {
	set := cli.NewFlagSet("options")
	if err := set.Parse(args); err != nil {
		return err
	}
	for _, o := range config.Options() {
		fmt.Fprintln(os.Stdout, o)
	}
	return nil
}
