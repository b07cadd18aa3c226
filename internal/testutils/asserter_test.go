package testutils

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// recorder captures assertion failures instead of failing the test
type recorder struct {
	errors []string
}

func (r *recorder) Helper() {}

func (r *recorder) Errorf(format string, args ...interface{}) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func TestTextAsserter(t *testing.T) {
	tests := []struct {
		name     string
		opts     []TextOption
		actual   string
		expected string
		pass     bool
	}{
		{"identical", nil, "a\nb", "a\nb", true},
		{"surrounding space trimmed", nil, "\n a\nb \n", "a\nb", true},
		{"trailing whitespace ignored", nil, "a  \nb\t", "a\nb", true},
		{"trailing whitespace kept", []TextOption{WithIgnoreTrailingWhitespace(false)}, "a  \nb", "a\nb", false},
		{"empty lines ignored", []TextOption{WithIgnoreEmptyLines(true)}, "a\n\nb", "a\nb", true},
		{"empty lines kept", nil, "a\n\nb", "a\nb", false},
		{"ansi stripped", []TextOption{WithStripANSI(true)}, "\x1b[31ma\x1b[0m", "a", true},
		{"different text", nil, "a\nc", "a\nb", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &recorder{}
			ok := NewTextAsserter(r).WithOptions(tt.opts...).Assert(tt.actual, tt.expected)
			assert.Equal(t, tt.pass, ok)
			assert.Equal(t, tt.pass, len(r.errors) == 0)
		})
	}
}

func TestTextAsserterDiff(t *testing.T) {
	diff := NewTextAsserter(t).Diff("a\nc", "a\nb")
	assert.Contains(t, diff, "--- expected")
	assert.Contains(t, diff, "+++ actual")
	assert.Contains(t, diff, "-b")
	assert.Contains(t, diff, "+c")

	colored := NewTextAsserter(t).WithOptions(WithEnableColors(true)).Diff("a c", "a b")
	assert.Contains(t, colored, "\x1b[")
	assert.Contains(t, StripANSI(colored), "+a·c", "changed lines MUST show whitespace")
}

func TestJSONAsserter(t *testing.T) {
	r := &recorder{}
	ja := NewJSONAsserter(r)

	assert.True(t, ja.Assert(`{"a": 1, "b": [1, 2]}`, `{"b": [1, 2], "a": 1}`), "key order MUST NOT matter")
	assert.False(t, ja.Assert(`{"a": 2}`, `{"a": 1}`))
	assert.Len(t, r.errors, 1)

	assert.True(t, NewJSONAsserter(t).WithOptions(WithIgnoredFields("at")).
		Assert(`{"a": 1, "at": "now"}`, `{"a": 1, "at": "then"}`))
	assert.True(t, NewJSONAsserter(t).WithOptions(WithIgnoreExtraKeys(true)).
		Assert(`{"a": 1, "extra": true}`, `{"a": 1}`))

	assert.True(t, NewJSONAsserter(t).AssertLines("{\"n\":1}\n\n{\"n\":2}\n", `[{"n": 1}, {"n": 2}]`))

	r = &recorder{}
	assert.False(t, NewJSONAsserter(r).Assert(`not json`, `{}`))
	assert.Contains(t, r.errors[0], "invalid actual JSON")
}
