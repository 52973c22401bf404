package reporter

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"

	"github.com/antchfx/xmlquery"

	"airprobe/pkg/executor"
)

type junitTestSuites struct {
	XMLName xml.Name         `xml:"testsuites"`
	Name    string           `xml:"name,attr"`
	Tests   int              `xml:"tests,attr"`
	Failure int              `xml:"failures,attr"`
	Suites  []junitTestSuite `xml:"testsuite"`
}

type junitTestSuite struct {
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Time      string          `xml:"time,attr"`
	Timestamp string          `xml:"timestamp,attr"`
	Cases     []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
	SystemOut string        `xml:"system-out,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Text    string `xml:",chardata"`
}

// WriteJUnit writes the report as JUnit XML, one testsuite per target.
func WriteJUnit(path string, report *executor.Report) error {
	doc := junitTestSuites{Name: "airprobe " + report.Suite}
	for _, t := range report.Targets {
		ts := junitTestSuite{
			Name:      t.Target,
			Tests:     t.Total(),
			Failures:  t.Total() - t.Passed(),
			Time:      strconv.FormatFloat(t.EndTime.Sub(t.StartTime).Seconds(), 'f', 3, 64),
			Timestamp: t.StartTime.Format("2006-01-02T15:04:05"),
		}
		for _, r := range t.Checks {
			tc := junitTestCase{
				Name:      r.Name,
				ClassName: report.Suite + "." + t.Target,
				Time:      strconv.FormatFloat(r.Duration, 'f', 3, 64),
			}
			if r.Passed {
				tc.SystemOut = r.Details
			} else {
				tc.Failure = &junitFailure{Message: r.Details, Text: r.Snapshot}
			}
			ts.Cases = append(ts.Cases, tc)
		}
		doc.Tests += ts.Tests
		doc.Failure += ts.Failures
		doc.Suites = append(doc.Suites, ts)
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JUnit report: %w", err)
	}
	out := append([]byte(xml.Header), data...)
	if err := os.WriteFile(path, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write JUnit report '%s': %w", path, err)
	}
	return nil
}

// JUnitCase is one test case read back from a JUnit file.
type JUnitCase struct {
	Suite   string
	Name    string
	Failed  bool
	Message string
}

// ReadJUnit reads the test cases of a JUnit XML file in document order.
func ReadJUnit(path string) ([]JUnitCase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open JUnit report '%s': %w", path, err)
	}
	defer f.Close()

	doc, err := xmlquery.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JUnit report '%s': %w", path, err)
	}

	var cases []JUnitCase
	for _, suiteNode := range xmlquery.Find(doc, "//testsuite") {
		suiteName := suiteNode.SelectAttr("name")
		for _, tc := range xmlquery.Find(suiteNode, "testcase") {
			c := JUnitCase{Suite: suiteName, Name: tc.SelectAttr("name")}
			if failure := xmlquery.FindOne(tc, "failure"); failure != nil {
				c.Failed = true
				c.Message = failure.SelectAttr("message")
			}
			cases = append(cases, c)
		}
	}
	return cases, nil
}
