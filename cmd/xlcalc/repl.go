package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/midbel/cli"
	"github.com/midbel/xlcalc/calc"
	"github.com/midbel/xlcalc/doc"
	"github.com/midbel/xlcalc/layout"
	"golang.org/x/term"
)

var errQuit = errors.New("quit")

type ReplCommand struct {
	engineFlags
}

func (c ReplCommand) Run(args []string) error {
	set := cli.NewFlagSet("repl")
	c.bind(set, true)
	if err := set.Parse(args); err != nil {
		return err
	}
	e, closer, err := c.engine(c.File)
	if err != nil {
		return err
	}
	defer closer()

	s := newSession(e, os.Stdout)
	if _, err := e.RecalculateAll(); err != nil {
		return err
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return s.runBasic(os.Stdin)
	}
	p := prompt.New(
		func(in string) {
			err := s.exec(in)
			if errors.Is(err, errQuit) {
				closer()
				os.Exit(0)
			}
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		},
		s.complete,
		prompt.OptionTitle("xlcalc"),
		prompt.OptionPrefix("xlcalc> "),
		prompt.OptionLivePrefix(func() (string, bool) {
			return fmt.Sprintf("%s> ", s.sheet), true
		}),
	)
	p.Run()
	return nil
}

type session struct {
	engine *calc.Engine
	sheet  string
	out    io.Writer

	suggests []prompt.Suggest
}

func newSession(e *calc.Engine, w io.Writer) *session {
	s := session{
		engine: e,
		out:    w,
	}
	if sheets := e.Sheets(); len(sheets) > 0 {
		s.sheet = sheets[0]
	}
	for _, name := range e.Registry().Names() {
		s.suggests = append(s.suggests, prompt.Suggest{Text: name})
	}
	for _, cmd := range []string{"set", "get", "sheet", "sheets", "recalc", "deps", "lint", "insert", "delete", "name", "quit"} {
		s.suggests = append(s.suggests, prompt.Suggest{Text: cmd, Description: "command"})
	}
	return &s
}

func (s *session) complete(d prompt.Document) []prompt.Suggest {
	word := d.GetWordBeforeCursor()
	if word == "" {
		return nil
	}
	if ix := strings.LastIndexAny(word, "=(+-*/,&"); ix >= 0 {
		word = word[ix+1:]
	}
	return prompt.FilterHasPrefix(s.suggests, word, true)
}

// runBasic reads commands line by line when the input is not a terminal.
func (s *session) runBasic(r io.Reader) error {
	scan := bufio.NewScanner(r)
	for scan.Scan() {
		err := s.exec(scan.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintln(s.out, "error:", err)
		}
	}
	return scan.Err()
}

func (s *session) exec(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	switch strings.ToLower(cmd) {
	case "quit", "exit":
		return errQuit
	case "sheets":
		for _, name := range s.engine.Sheets() {
			fmt.Fprintln(s.out, name)
		}
		return nil
	case "sheet":
		return s.switchSheet(rest)
	case "set":
		return s.set(rest)
	case "get":
		return s.get(rest)
	case "recalc":
		return s.recalc()
	case "deps":
		return s.deps(rest)
	case "lint":
		return s.lint(rest)
	case "insert", "delete":
		return s.structure(strings.ToLower(cmd), rest)
	case "name":
		ident, text, _ := strings.Cut(rest, " ")
		text = strings.TrimSpace(text)
		if !strings.HasPrefix(text, "=") {
			text = "=" + text
		}
		if err := s.engine.DefineName("", ident, text); err != nil {
			return err
		}
		return s.recalc()
	default:
		return s.eval(line)
	}
}

func (s *session) switchSheet(name string) error {
	if name == "" {
		fmt.Fprintln(s.out, s.sheet)
		return nil
	}
	for _, sheet := range s.engine.Sheets() {
		if layout.SameSheet(sheet, name) {
			s.sheet = sheet
			return nil
		}
	}
	if err := s.engine.AddSheet(name); err != nil {
		return err
	}
	s.sheet = name
	return nil
}

func (s *session) position(addr string) (layout.Position, error) {
	pos, err := layout.ParsePosition(addr)
	if err != nil {
		return pos, err
	}
	if pos.Sheet == "" {
		pos.Sheet = s.sheet
	}
	return pos, nil
}

func (s *session) set(rest string) error {
	addr, content, _ := strings.Cut(rest, " ")
	pos, err := s.position(addr)
	if err != nil {
		return err
	}
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "=") {
		err = s.engine.SetCellFormula(pos.Sheet, pos.Line, pos.Column, content)
	} else {
		err = s.engine.SetCellValue(pos.Sheet, pos.Line, pos.Column, doc.GuessValue(content))
	}
	if err != nil {
		return err
	}
	_, err = s.engine.RecalculateIfAutomatic()
	if err != nil {
		return err
	}
	return s.get(addr)
}

func (s *session) get(addr string) error {
	pos, err := s.position(addr)
	if err != nil {
		return err
	}
	v, err := s.engine.Value(pos)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s = %s\n", pos, v)
	return nil
}

func (s *session) recalc() error {
	res, err := s.engine.Recalculate()
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%d cell(s) evaluated\n", res.Evaluated)
	if res.HasCycle {
		fmt.Fprintf(s.out, "circular reference: %d cell(s)\n", len(res.Cycle))
	}
	return nil
}

func (s *session) deps(addr string) error {
	pos, err := s.position(addr)
	if err != nil {
		return err
	}
	for _, p := range s.engine.Dependencies(pos) {
		fmt.Fprintln(s.out, "<-", p)
	}
	for _, p := range s.engine.Dependents(pos) {
		fmt.Fprintln(s.out, "->", p)
	}
	return nil
}

func (s *session) lint(text string) error {
	issues, err := s.engine.Lint(text)
	if err != nil {
		return err
	}
	for _, i := range issues {
		fmt.Fprintf(s.out, "unknown function %s: %s\n", i.Function, strings.Join(i.Suggestions, ", "))
	}
	return nil
}

// structure runs commands such as "insert row 2" or "delete cols 3 2".
func (s *session) structure(cmd, rest string) error {
	parts := strings.Fields(rest)
	if len(parts) < 2 || len(parts) > 3 {
		return fmt.Errorf("usage: %s row|col <at> [<count>]", cmd)
	}
	at, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return err
	}
	count := int64(1)
	if len(parts) == 3 {
		if count, err = strconv.ParseInt(parts[2], 10, 64); err != nil {
			return err
		}
	}
	var fn func(string, int64, int64) error
	switch axis := strings.ToLower(parts[0]); {
	case cmd == "insert" && strings.HasPrefix(axis, "row"):
		fn = s.engine.InsertRows
	case cmd == "insert" && strings.HasPrefix(axis, "col"):
		fn = s.engine.InsertColumns
	case cmd == "delete" && strings.HasPrefix(axis, "row"):
		fn = s.engine.DeleteRows
	case cmd == "delete" && strings.HasPrefix(axis, "col"):
		fn = s.engine.DeleteColumns
	default:
		return fmt.Errorf("%s: unknown axis", parts[0])
	}
	if err := fn(s.sheet, at, count); err != nil {
		return err
	}
	_, err = s.engine.RecalculateIfAutomatic()
	return err
}

func (s *session) eval(text string) error {
	if !strings.HasPrefix(text, "=") {
		text = "=" + text
	}
	v, err := s.engine.Evaluate(s.sheet, text)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, v)
	return nil
}
