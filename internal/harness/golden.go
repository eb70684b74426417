package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders the parts of a result that golden files pin down:
// the view, each step's outcome and the compiled statement.
func Snapshot(result *Result) []byte {
	var buf strings.Builder

	fmt.Fprintf(&buf, "-- view: %s\n", strings.Join(result.View, ", "))
	for _, s := range result.Steps {
		if s.OK {
			fmt.Fprintf(&buf, "-- with %s: ok\n", s.Name)
		} else {
			fmt.Fprintf(&buf, "-- with %s: %s\n", s.Name, s.Code)
		}
	}
	if result.SQL != "" {
		fmt.Fprintf(&buf, "-- params: %v\n", result.Params)
		buf.WriteString(result.SQL)
		buf.WriteString("\n")
	}
	return []byte(buf.String())
}

// AssertGolden compares the result's snapshot against
// testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(result))
}
