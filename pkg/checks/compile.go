package checks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"airprobe/pkg/client"
	execContext "airprobe/pkg/context"
	"airprobe/pkg/extractors"
	"airprobe/pkg/suite"
)

// snapshotLimit bounds the response text kept on results and in failure details.
const snapshotLimit = 500

// Compile turns a declared check into a runnable handler. Go-coded checks
// are looked up by name; request checks are validated against the
// registered assertion types.
func (r *CheckRegistry) Compile(check *suite.Check) (Handler, error) {
	if check == nil {
		return nil, fmt.Errorf("cannot compile nil check")
	}

	var inner Handler
	if check.Handler != "" {
		h, err := r.Handler(check.Handler)
		if err != nil {
			return nil, fmt.Errorf("check '%s': %w", check.Name, err)
		}
		inner = h
	} else {
		h, err := r.compileRequest(check)
		if err != nil {
			return nil, fmt.Errorf("check '%s': %w", check.Name, err)
		}
		inner = h
	}

	if len(check.Requires) == 0 {
		return inner, nil
	}

	requires := append([]string(nil), check.Requires...)
	return func(ctx context.Context, execCtx *execContext.ExecutionContext) (*Verdict, error) {
		for _, name := range requires {
			if !execCtx.HasVariable(name) {
				return &Verdict{
					Passed:  false,
					Details: fmt.Sprintf("requires variable %q which was not set by an earlier check", name),
				}, nil
			}
		}
		return inner(ctx, execCtx)
	}, nil
}

type compiledAssertion struct {
	spec suite.Assertion
	fn   AssertionFunc
}

func (r *CheckRegistry) compileRequest(check *suite.Check) (Handler, error) {
	req := check.Request
	if req == nil {
		return nil, fmt.Errorf("no request to compile")
	}

	method := strings.ToUpper(req.Method)
	var timeout time.Duration
	if req.Timeout != "" {
		d, err := time.ParseDuration(req.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout '%s': %w", req.Timeout, err)
		}
		timeout = d
	}

	expected := http.StatusOK
	var accepted []int
	var assertions []compiledAssertion
	if check.Expect != nil {
		if check.Expect.Status != 0 {
			expected = check.Expect.Status
		}
		accepted = check.Expect.AcceptStatus
		for i, a := range check.Expect.Assertions {
			fn, err := r.Assertion(a.Type)
			if err != nil {
				return nil, fmt.Errorf("assertions[%d]: %w", i, err)
			}
			assertions = append(assertions, compiledAssertion{spec: a, fn: fn})
		}
	}

	extracts := check.Extract
	summary := check.Summary

	return func(ctx context.Context, execCtx *execContext.ExecutionContext) (*Verdict, error) {
		path, err := execCtx.Substitute(req.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve request path: %w", err)
		}
		body, err := execCtx.SubstituteValue(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve request body: %w", err)
		}
		headers := make(map[string]string, len(req.Headers))
		for k, v := range req.Headers {
			resolved, err := execCtx.Substitute(v)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve header '%s': %w", k, err)
			}
			headers[k] = resolved
		}

		url := execCtx.URL(path)
		resp, err := execCtx.GetHTTPClient().Do(ctx, &client.Request{
			Method:  method,
			URL:     url,
			Headers: headers,
			Body:    body,
			Timeout: timeout,
		})
		if err != nil {
			return nil, err
		}
		execCtx.SetLastResponse(resp.StatusCode, resp.Body)

		verdict := &Verdict{
			StatusCode: resp.StatusCode,
			Snapshot:   resp.Text(snapshotLimit),
		}

		if resp.StatusCode != expected && !containsStatus(accepted, resp.StatusCode) {
			verdict.Details = (&StatusError{
				StatusCode: resp.StatusCode,
				Expected:   append([]int{expected}, accepted...),
				Method:     method,
				URL:        url,
				Body:       resp.Text(snapshotLimit),
			}).Error()
			return verdict, nil
		}

		primary := resp.StatusCode == expected
		applicable := make([]compiledAssertion, 0, len(assertions))
		for _, a := range assertions {
			if a.spec.WhenStatus != 0 && a.spec.WhenStatus != resp.StatusCode {
				continue
			}
			applicable = append(applicable, a)
		}

		needsBody := len(applicable) > 0 || (primary && (len(extracts) > 0 || summary != ""))
		var decoded interface{}
		if needsBody {
			decoded, err = resp.JSON()
			if err != nil {
				verdict.Details = fmt.Sprintf("invalid JSON response (status %d): %v", resp.StatusCode, err)
				return verdict, nil
			}
		}

		in := &Input{RequestBody: body, StatusCode: resp.StatusCode, Header: resp.Header}
		for _, a := range applicable {
			aerr := a.fn(decoded, &a.spec, in)
			if aerr == nil {
				continue
			}
			failure := &AssertionError{Type: a.spec.Type, Path: a.spec.Path, Reason: a.spec.Reason, Message: aerr.Error()}
			if a.spec.Soft {
				slog.Warn("Soft assertion failed", "check", execCtx.GetLastCheck(), "assertion", a.spec.Type, "error", failure.Error())
				verdict.Warnings = append(verdict.Warnings, failure.Error())
				continue
			}
			verdict.Details = failure.Error()
			return verdict, nil
		}

		if !primary {
			verdict.Passed = true
			verdict.Details = fmt.Sprintf("accepted status %d from %s %s", resp.StatusCode, method, url)
			return verdict, nil
		}

		if err := extractors.Apply(execCtx, decoded, extracts); err != nil {
			verdict.Details = err.Error()
			return verdict, nil
		}

		verdict.Passed = true
		if summary != "" {
			verdict.Details = extractors.Render(summary, decoded)
		} else {
			verdict.Details = fmt.Sprintf("status %d, %d assertion(s) passed", resp.StatusCode, len(applicable)-len(verdict.Warnings))
		}
		return verdict, nil
	}, nil
}

func containsStatus(list []int, status int) bool {
	for _, s := range list {
		if s == status {
			return true
		}
	}
	return false
}
