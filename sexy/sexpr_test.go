package sexy

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestParseSymbol(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello", "hello"},
		{"test_var", "test_var"},
		{"for-range", "for-range"},
		{"i32", "i32"},
		{"+", "+"},
		{"-", "-"},
	}

	for _, test := range tests {
		result, err := Parse(test.input)
		be.Err(t, err, nil)

		be.Equal(t, result.Type, NodeSymbol)
		be.Equal(t, result.Text, test.expected)
		be.Equal(t, result.String(), test.expected)
	}
}

func TestParseString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		output   string
	}{
		{`"hello"`, "hello", `"hello"`},
		{`"then.10"`, "then.10", `"then.10"`},
		{`""`, "", `""`},
		{`"test\"quote"`, `test"quote`, `"test\"quote"`},
		{`"test\\backslash"`, `test\backslash`, `"test\\backslash"`},
	}

	for _, test := range tests {
		result, err := Parse(test.input)
		be.Err(t, err, nil)

		be.Equal(t, result.Type, NodeString)
		be.Equal(t, result.Text, test.expected)
		be.Equal(t, result.String(), test.output)
	}
}

func TestParseNumbers(t *testing.T) {
	tests := []struct {
		input string
		typ   NodeType
	}{
		{"42", NodeInteger},
		{"0", NodeInteger},
		{"-123", NodeInteger},
		{"+456", NodeInteger},
		{"1.5", NodeFloat},
		{"-0.25", NodeFloat},
		{"1e3", NodeFloat},
		{"2.5E-2", NodeFloat},
	}

	for _, test := range tests {
		result, err := Parse(test.input)
		be.Err(t, err, nil)

		be.Equal(t, result.Type, test.typ)
		be.Equal(t, result.Text, test.input)
		be.Equal(t, result.String(), test.input)
	}
}

func TestParseList(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"()", "()"},
		{"(hello)", "(hello)"},
		{"(1 2.5 3)", "(1 2.5 3)"},
		{"(binary \"+\" 1 2)", "(binary \"+\" 1 2)"},
		{"(nested (list here))", "(nested (list here))"},
	}

	for _, test := range tests {
		result, err := Parse(test.input)
		be.Err(t, err, nil)

		be.Equal(t, result.Type, NodeList)
		be.Equal(t, result.String(), test.expected)
	}
}

func TestParseMap(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"{}", "{}"},
		{"{key: value}", "{key: value}"},
		{"{a: 1, b: 2}", "{a: 1, b: 2}"},
		{"{triple: \"x86_64-pc-linux-gnu\"}", "{triple: \"x86_64-pc-linux-gnu\"}"},
	}

	for _, test := range tests {
		result, err := Parse(test.input)
		be.Err(t, err, nil)

		be.Equal(t, result.Type, NodeMap)
		be.Equal(t, result.String(), test.expected)
	}
}

func TestParseMeta(t *testing.T) {
	result, err := Parse(`(prototype "f" i32 ^{scope: local})`)
	be.Err(t, err, nil)
	be.Equal(t, result.String(), `(^{scope: local} prototype "f" i32)`)
	be.Equal(t, result.Meta("scope").Text, "local")
	be.True(t, result.Meta("missing") == nil)
}

func TestParseMetaMerging(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			"Multiple metadata merged",
			"(^{a: 1} ^{b: 2} foo ^{c: 3})",
			"(^{a: 1, b: 2, c: 3} foo)",
		},
		{
			"Metadata with overlapping keys - later wins",
			"(^{key: \"first\"} ^{key: \"second\"} item)",
			"(^{key: \"second\"} item)",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result, err := Parse(test.input)
			be.Err(t, err, nil)

			be.Equal(t, result.Type, NodeList)
			be.Equal(t, result.String(), test.expected)
			be.Equal(t, len(result.MetaKeys), len(result.MetaItems))
		})
	}
}

func TestHeadAndArgs(t *testing.T) {
	result, err := Parse(`(call "f" 1 2)`)
	be.Err(t, err, nil)
	be.Equal(t, result.Head(), "call")
	be.Equal(t, len(result.Args()), 3)

	result, err = Parse(`("not a head")`)
	be.Err(t, err, nil)
	be.Equal(t, result.Head(), "")

	be.Equal(t, NewSymbol("x").Head(), "")
	be.True(t, NewSymbol("x").Args() == nil)
}

func TestRoundTripParsing(t *testing.T) {
	tests := []string{
		"hello",
		`"world"`,
		"42",
		"1.25",
		"()",
		"(test)",
		"(1 2 3)",
		"{}",
		"{key: value}",
		"(binary \"+\" 1 2)",
		"(list ^{meta: data})",
	}

	for _, test := range tests {
		t.Run(test, func(t *testing.T) {
			result1, err := Parse(test)
			be.Err(t, err, nil)

			output := result1.String()

			result2, err := Parse(output)
			be.Err(t, err, nil)

			be.Equal(t, result2.String(), output)
			be.True(t, result1.Equal(result2))
		})
	}
}

func TestParseComments(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"; comment\nhello", "hello"},
		{"hello ; trailing comment", "hello"},
		{"(test ; inline comment\n world)", "(test world)"},
	}

	for _, test := range tests {
		result, err := Parse(test.input)
		be.Err(t, err, nil)
		be.Equal(t, result.String(), test.expected)
	}
}

func TestLineNumbers(t *testing.T) {
	result, err := Parse("(module\n  (a)\n\n  (b))")
	be.Err(t, err, nil)
	be.Equal(t, result.Line, 1)
	be.Equal(t, result.Items[1].Line, 2)
	be.Equal(t, result.Items[2].Line, 4)
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"unterminated string`, "line 1: unterminated string"},
		{`"invalid \escape"`, "line 1: invalid escape sequence: \\e"},
		{".", "line 1: unexpected character '.'"},
		{"@", "line 1: unexpected character '@'"},
		{"(1 2\n3 . 4)", "line 2: unexpected character '.'"},
	}

	for _, test := range tests {
		result, err := Parse(test.input)
		be.Err(t, err)
		be.Equal(t, err.Error(), test.expected)
		be.True(t, result == nil)
	}
}

func TestParserErrors(t *testing.T) {
	tests := []string{
		"(",           // unclosed list
		"{",           // unclosed map
		"(hello",      // unclosed list with content
		"^",           // meta outside a list
		"(^hello)",    // meta without a map
		"{a 1}",       // map key without colon
		"hello world", // extra tokens after main expression
		"(test) more", // extra tokens after list
	}

	for _, test := range tests {
		_, err := Parse(test)
		be.Err(t, err)
	}
}

func TestEqualIgnoresLines(t *testing.T) {
	a, err := Parse("(block\n \"entry\" ret)")
	be.Err(t, err, nil)
	b := NewList(NewSymbol("block"), NewString("entry"), NewSymbol("ret"))
	be.True(t, a.Equal(b))

	c := NewList(NewSymbol("block"), NewString("entry"))
	be.True(t, !a.Equal(c))
}

func TestNodeTypeHelpers(t *testing.T) {
	be.True(t, NewSymbol("test").IsAtom())
	be.True(t, NewString("hello").IsAtom())
	be.True(t, NewInteger("42").IsAtom())
	be.True(t, NewFloat("4.2").IsAtom())
	be.True(t, !NewList().IsAtom())
	be.True(t, !NewMap(nil, nil).IsAtom())
	be.Equal(t, NodeFloat.String(), "float")
}
