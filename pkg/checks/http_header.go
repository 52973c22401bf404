package checks

import (
	"fmt"
	"strings"

	"airprobe/pkg/suite"
)

// headerAssertion requires the response header named by path. When value is
// set the header must contain it, compared case-insensitively.
func headerAssertion(_ interface{}, a *suite.Assertion, in *Input) error {
	if a.Path == "" {
		return fmt.Errorf("header assertion needs 'path' naming the header")
	}
	got := in.Header.Get(a.Path)
	if got == "" {
		return fmt.Errorf("header %s is missing", a.Path)
	}
	if a.Value == nil {
		return nil
	}
	want := fmt.Sprintf("%v", a.Value)
	if !strings.Contains(strings.ToLower(got), strings.ToLower(want)) {
		return fmt.Errorf("header %s is %q, expected it to contain %q", a.Path, got, want)
	}
	return nil
}

func init() {
	MustRegisterAssertion("header", headerAssertion)
}
