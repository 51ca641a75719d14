package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes the generated text to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	SQL      string // Generated text, if any
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.SQL != "" {
		fmt.Fprintf(&buf, "\nGenerated SQL:\n  %s\n", e.SQL)
	}
	return buf.String()
}

// CompareExpectation checks a result against the scenario's expect block.
// genErr is the generator's error, nil on success.
// Returns one message per mismatch.
func CompareExpectation(result *Result, expect Expectation, genErr error) []string {
	var errs []string

	if expect.Error != "" {
		if result.ErrorCode != expect.Error {
			actual := "success"
			if genErr != nil {
				actual = genErr.Error()
			}
			errs = append(errs, (&AssertionError{
				Type:     "error",
				Expected: expect.Error,
				Actual:   actual,
				SQL:      result.SQL,
			}).Error())
		}
		return errs
	}

	if genErr != nil {
		return append(errs, (&AssertionError{
			Type:     "sql",
			Expected: expect.SQL,
			Actual:   genErr.Error(),
		}).Error())
	}
	if result.SQL != expect.SQL {
		errs = append(errs, (&AssertionError{
			Type:     "sql",
			Expected: expect.SQL,
			Actual:   result.SQL,
		}).Error())
	}
	if expect.Params != nil {
		if err := compareParams(result.Params, expect.Params); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

// compareParams checks parameters position by position. An expected param
// without a type matches any type.
func compareParams(actual []ParamSnapshot, expected []ExpectedParam) error {
	if len(actual) != len(expected) {
		return &AssertionError{
			Type:     "params",
			Expected: fmt.Sprintf("%d parameters", len(expected)),
			Actual:   fmt.Sprintf("%d parameters %v", len(actual), actual),
		}
	}
	for i, want := range expected {
		got := actual[i]
		wantValue := formatValue(want.Value)
		if got.Name != want.Name || got.Value != wantValue || (want.Type != "" && got.Type != want.Type) {
			return &AssertionError{
				Type:     "params",
				Expected: fmt.Sprintf("[%d] @%s %s = %q", i, want.Name, want.Type, wantValue),
				Actual:   fmt.Sprintf("[%d] @%s %s = %q", i, got.Name, got.Type, got.Value),
			}
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertSQLContains:
			if !strings.Contains(result.SQL, assertion.Text) {
				err = &AssertionError{
					Type:     assertion.Type,
					Expected: fmt.Sprintf("text containing %q", assertion.Text),
					Actual:   "not found",
					SQL:      result.SQL,
				}
			}
		case AssertSQLNotContains:
			if strings.Contains(result.SQL, assertion.Text) {
				err = &AssertionError{
					Type:     assertion.Type,
					Expected: fmt.Sprintf("text without %q", assertion.Text),
					Actual:   "found",
					SQL:      result.SQL,
				}
			}
		case AssertParamCount:
			if len(result.Params) != assertion.Count {
				err = &AssertionError{
					Type:     assertion.Type,
					Expected: fmt.Sprintf("%d parameters", assertion.Count),
					Actual:   fmt.Sprintf("%d parameters", len(result.Params)),
					SQL:      result.SQL,
				}
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}
