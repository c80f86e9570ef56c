package sexy

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestExtractTestCases_BasicTest(t *testing.T) {
	markdown := `# Returns

## Test: return zero
` + "```irx-body" + `
(return 0)
` + "```" + `
` + "```cfg" + `
(func "main" (block "entry" ret))
` + "```" + `

## Test: return one
` + "```irx-body" + `
(return 1)
` + "```" + `
` + "```exit-code" + `
1
` + "```"

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 2)

	tc1 := testCases[0]
	be.Equal(t, tc1.Name, "return zero")
	be.Equal(t, tc1.Input, "(return 0)")
	be.Equal(t, tc1.InputType, InputTypeBody)
	be.Equal(t, tc1.Line, 5)
	be.Equal(t, len(tc1.Assertions), 1)
	be.Equal(t, tc1.Assertions[0].Type, AssertionTypeCFG)
	be.Equal(t, tc1.Assertions[0].ParsedSexy.String(), `(func "main" (block "entry" ret))`)

	tc2 := testCases[1]
	be.Equal(t, tc2.Name, "return one")
	be.Equal(t, tc2.Assertions[0].Type, AssertionTypeExitCode)
	be.Equal(t, tc2.Assertions[0].Content, "1")
	be.True(t, tc2.Assertions[0].ParsedSexy == nil)
}

func TestExtractTestCases_MultipleAssertions(t *testing.T) {
	markdown := `## Test: multiple assertions
` + "```irx" + `
(module "m" (function (prototype "f" i32) (block (return 7))))
` + "```" + `
` + "```ir" + `
define dso_local i32 @f()

  ret i32 7
` + "```" + `
` + "```stdout" + `
` + "```"

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 1)

	tc := testCases[0]
	be.Equal(t, tc.InputType, InputTypeModule)
	be.Equal(t, len(tc.Assertions), 2)
	be.Equal(t, tc.Assertions[0].Type, AssertionTypeIR)
	be.Equal(t, tc.Assertions[0].IRLines(), []string{"define dso_local i32 @f()", "ret i32 7"})
	be.Equal(t, tc.Assertions[1].Type, AssertionTypeStdout)
	be.Equal(t, tc.Assertions[1].Content, "")
}

func TestExtractTestCases_EmptyFile(t *testing.T) {
	testCases, err := ExtractTestCases("")
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 0)
}

func TestExtractTestCases_NoTestCases(t *testing.T) {
	markdown := `# Some document

This is just regular markdown content.

## Regular heading

No test cases here.`

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 0)
}

func TestExtractTestCases_InvalidCFGAssertion(t *testing.T) {
	markdown := `## Test: invalid cfg
` + "```irx-body" + `
(return 0)
` + "```" + `
` + "```cfg" + `
(unclosed list
` + "```"

	_, err := ExtractTestCases(markdown)
	be.Err(t, err, "failed to parse cfg assertion")
	be.Err(t, err, "line")
}

func TestExtractTestCases_FenceOutsideTestCase(t *testing.T) {
	tests := []struct {
		name      string
		markdown  string
		fenceType string
	}{
		{
			"irx fence outside test",
			"# Document\n\n```irx\n(module \"m\")\n```\n",
			"irx",
		},
		{
			"irx-body fence outside test",
			"# Document\n\n```irx-body\n(return 0)\n```\n",
			"irx-body",
		},
		{
			"cfg fence outside test",
			"# Document\n\n```cfg\n(func \"main\")\n```\n",
			"cfg",
		},
		{
			"compile-error fence outside test",
			"# Document\n\n```compile-error\nunbound name\n```\n",
			"compile-error",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ExtractTestCases(test.markdown)
			be.Err(t, err, test.fenceType+" fence found outside of test case")
			be.Err(t, err, "line 4")
		})
	}
}

func TestExtractTestCases_UnknownFenceLanguage(t *testing.T) {
	outside := "# Document\n\n```go\nfunc main() {}\n```\n"
	_, err := ExtractTestCases(outside)
	be.Err(t, err, "unknown fence language 'go' found outside of test case")

	inside := `## Test: with unknown fence
` + "```python" + `
print("hello")
` + "```" + `
` + "```irx-body" + `
(return 0)
` + "```" + `
` + "```exit-code" + `
0
` + "```"
	_, err = ExtractTestCases(inside)
	be.Err(t, err, "unknown fence language 'python'")
}

func TestExtractTestCases_MissingFences(t *testing.T) {
	noInput := `## Test: no input
` + "```exit-code" + `
0
` + "```"
	_, err := ExtractTestCases(noInput)
	be.Err(t, err, "test 'no input' has no input fence")

	noAssertions := `## Test: no assertions
` + "```irx-body" + `
(return 0)
` + "```"
	_, err = ExtractTestCases(noAssertions)
	be.Err(t, err, "test 'no assertions' has no assertion fences")
}

func TestExtractTestCases_MultipleInputFences(t *testing.T) {
	markdown := `## Test: multiple inputs
` + "```irx-body" + `
(return 0)
` + "```" + `
` + "```irx-body" + `
(return 1)
` + "```" + `
` + "```exit-code" + `
0
` + "```"

	_, err := ExtractTestCases(markdown)
	be.Err(t, err, "multiple input fences found")
}

func TestExtractTestCases_AllowFencesWithoutLanguage(t *testing.T) {
	markdown := `# Document with generic code block

` + "```" + `
some notes
` + "```" + `

## Test: valid test
` + "```irx-body" + `
(return 0)
` + "```" + `
` + "```exit-code" + `
0
` + "```"

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 1)
	be.Equal(t, testCases[0].Name, "valid test")
}

func TestExtractTestCases_ErrorInSecondTest(t *testing.T) {
	markdown := `## Test: first test
` + "```irx-body" + `
(return 0)
` + "```" + `
` + "```exit-code" + `
0
` + "```" + `

## Test: second test missing input
` + "```exit-code" + `
0
` + "```"

	_, err := ExtractTestCases(markdown)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "test 'second test missing input' has no input fence"))
}
