package patc_test

import (
	"fmt"

	"github.com/coregx/patc"
	"github.com/coregx/patc/pattern"
)

// ExampleCompile demonstrates compiling a choice and matching whole inputs.
func ExampleCompile() {
	m, err := patc.Compile(pattern.Choice(
		pattern.Literal("hello"),
		pattern.Literal("informal"),
		pattern.Literal("world"),
	))
	if err != nil {
		panic(err)
	}

	fmt.Println(m.MatchString("informal"))
	fmt.Println(m.MatchString("info"))
	// Output:
	// true
	// false
}

// ExampleMatcher_Find demonstrates unanchored search.
func ExampleMatcher_Find() {
	m := patc.MustCompile(pattern.Literal("world"))

	input := "hello, world"
	start, end, ok := m.Find(input)
	fmt.Println(ok, input[start:end])
	// Output: true world
}

// ExampleMatcher_FindAll demonstrates extracting delimited values.
func ExampleMatcher_FindAll() {
	m := patc.MustCompile(pattern.Sequence(
		pattern.Literal("key="),
		pattern.AnyUntil(";"),
	))

	fmt.Println(m.FindAll("a key=v; key=w", -1))
	// Output: [[2 7]]
}

// ExampleMatcher_MatchAt demonstrates reading the bytes an Any consumed.
func ExampleMatcher_MatchAt() {
	m := patc.MustCompile(pattern.Sequence(
		pattern.Literal("name:"),
		pattern.AnyUntil(","),
	))

	res, err := m.MatchAt("name:gopher,age:13", 0)
	if err != nil {
		panic(err)
	}
	fmt.Println(res.Matched, res.Tokens, res.End)
	// Output: true gopher 11
}
