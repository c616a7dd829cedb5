// Package codegen emits Go source for a compiled graph.
//
// The generated file declares the graph's automaton.Table as a package
// level variable and a loader that rebuilds and validates the graph at
// run time, so a program can ship a pattern without compiling it:
//
//	f, err := codegen.Generate(g, codegen.Config{Package: "proto", Name: "Greeting"})
//	// var GreetingTable = automaton.Table{...}
//	// func LoadGreeting() (*automaton.Graph, error)
package codegen

import (
	"bytes"
	"errors"
	"fmt"
	"go/token"

	"github.com/coregx/patc/automaton"
	"github.com/dave/jennifer/jen"
)

const automatonPath = "github.com/coregx/patc/automaton"

// ErrInvalidConfig is returned for a bad package or declaration name.
var ErrInvalidConfig = errors.New("codegen: invalid config")

// Config names the generated declarations.
type Config struct {
	// Package is the package clause of the generated file.
	Package string

	// Name prefixes the generated declarations: <Name>Table and
	// Load<Name>. It must be an exported Go identifier.
	Name string
}

// Validate checks that both names are usable identifiers.
func (c Config) Validate() error {
	if !token.IsIdentifier(c.Package) {
		return fmt.Errorf("%w: package %q is not an identifier", ErrInvalidConfig, c.Package)
	}
	if !token.IsIdentifier(c.Name) || !token.IsExported(c.Name) {
		return fmt.Errorf("%w: name %q is not an exported identifier", ErrInvalidConfig, c.Name)
	}
	return nil
}

// Generate builds the Go file for g.
func Generate(g *automaton.Graph, config Config) (*jen.File, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil graph", ErrInvalidConfig)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	table := g.Table()
	tableName := config.Name + "Table"

	f := jen.NewFile(config.Package)
	f.HeaderComment("Code generated by patc. DO NOT EDIT.")
	f.ImportName(automatonPath, "automaton")

	f.Commentf("%s is the compiled graph %q: %d units, %d states.",
		tableName, table.Name, len(table.Units), len(table.States))
	f.Var().Id(tableName).Op("=").Qual(automatonPath, "Table").Values(jen.Dict{
		jen.Id("Name"):    jen.Lit(table.Name),
		jen.Id("Partial"): jen.Lit(table.Partial),
		jen.Id("Start"):   jen.Lit(int(table.Start)),
		jen.Id("Accept"):  jen.Lit(int(table.Accept)),
		jen.Id("Reject"):  jen.Lit(int(table.Reject)),
		jen.Id("Root"):    jen.Lit(int(table.Root)),
		jen.Id("Units"):   units(table.Units),
		jen.Id("States"):  states(table.States),
	})

	f.Line()
	f.Commentf("Load%s rebuilds and validates the graph declared by %s.", config.Name, tableName)
	f.Func().Id("Load"+config.Name).Params().Params(
		jen.Op("*").Qual(automatonPath, "Graph"),
		jen.Error(),
	).Block(
		jen.Return(jen.Qual(automatonPath, "Load").Call(jen.Id(tableName))),
	)

	return f, nil
}

// Render generates the file for g and returns its formatted source.
func Render(g *automaton.Graph, config Config) ([]byte, error) {
	f, err := Generate(g, config)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("codegen: render: %w", err)
	}
	return buf.Bytes(), nil
}

func units(us []automaton.TableUnit) jen.Code {
	return jen.Index().Qual(automatonPath, "TableUnit").ValuesFunc(func(g *jen.Group) {
		for _, u := range us {
			g.Values(jen.Dict{
				jen.Id("Start"):   jen.Lit(int(u.Start)),
				jen.Id("Success"): jen.Lit(int(u.Success)),
				jen.Id("Failure"): jen.Lit(int(u.Failure)),
				jen.Id("Label"):   jen.Lit(u.Label),
			})
		}
	})
}

func states(ss []automaton.TableState) jen.Code {
	return jen.Index().Qual(automatonPath, "TableState").ValuesFunc(func(g *jen.Group) {
		for _, s := range ss {
			d := jen.Dict{
				jen.Id("Unit"):    jen.Lit(int(s.Unit)),
				jen.Id("Frame"):   frame(s.Frame),
				jen.Id("Input"):   jen.Qual(automatonPath, inputName(s.Input)),
				jen.Id("Context"): jen.Qual(automatonPath, contextName(s.Context)),
			}
			if len(s.Transitions) > 0 {
				d[jen.Id("Transitions")] = transitions(s.Transitions)
			}
			g.Values(d)
		}
	})
}

func transitions(ts []automaton.TableTransition) jen.Code {
	return jen.Index().Qual(automatonPath, "TableTransition").ValuesFunc(func(g *jen.Group) {
		for _, t := range ts {
			g.Values(jen.Dict{
				jen.Id("Context"): stateRef(t.Context),
				jen.Id("Symbol"):  symbol(t.Symbol),
				jen.Id("Next"):    jen.Lit(int(t.Next)),
			})
		}
	})
}

// frame renders a TableState.Frame value.
func frame(v uint32) jen.Code {
	if automaton.UnitID(v) == automaton.InvalidUnit {
		return jen.Uint32().Call(jen.Qual(automatonPath, "InvalidUnit"))
	}
	return jen.Lit(int(v))
}

// stateRef renders a transition context, naming the special ids.
func stateRef(v uint32) jen.Code {
	switch automaton.StateID(v) {
	case automaton.AnyContext:
		return jen.Uint32().Call(jen.Qual(automatonPath, "AnyContext"))
	case automaton.NoContext:
		return jen.Uint32().Call(jen.Qual(automatonPath, "NoContext"))
	case automaton.InvalidState:
		return jen.Uint32().Call(jen.Qual(automatonPath, "InvalidState"))
	}
	return jen.Lit(int(v))
}

// symbol renders a transition symbol: printable bytes as rune literals,
// the wildcards by name.
func symbol(v int16) jen.Code {
	switch automaton.Symbol(v) {
	case automaton.EndOfInput:
		return jen.Int16().Call(jen.Qual(automatonPath, "EndOfInput"))
	case automaton.AnySymbol:
		return jen.Int16().Call(jen.Qual(automatonPath, "AnySymbol"))
	}
	if v >= 0x20 && v < 0x7f {
		return jen.LitRune(rune(v))
	}
	return jen.Lit(int(v))
}

func inputName(a automaton.InputAction) string {
	return "Input" + a.String()
}

func contextName(a automaton.ContextAction) string {
	return "Context" + a.String()
}
