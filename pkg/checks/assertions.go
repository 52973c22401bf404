// Package checks implements check handlers for airprobe.
// This file contains the assertion types a declared check can apply to a
// decoded JSON response body.
package checks

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"airprobe/pkg/extractors"
	"airprobe/pkg/suite"
)

// target resolves the assertion path inside the body.
func target(body interface{}, a *suite.Assertion) (interface{}, error) {
	return extractors.Lookup(body, a.Path)
}

func pathLabel(a *suite.Assertion) string {
	if a.Path == "" {
		return "response"
	}
	return "'" + a.Path + "'"
}

func asObject(v interface{}, a *suite.Assertion) (map[string]interface{}, error) {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%s is %s, expected object", pathLabel(a), extractors.TypeName(v))
	}
	return obj, nil
}

func asArray(v interface{}, a *suite.Assertion) ([]interface{}, error) {
	arr, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s is %s, expected array", pathLabel(a), extractors.TypeName(v))
	}
	return arr, nil
}

func missingKeys(obj map[string]interface{}, keys []string) []string {
	var missing []string
	for _, k := range keys {
		if _, ok := obj[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}

// statusAssertion compares the response status with value.
func statusAssertion(_ interface{}, a *suite.Assertion, in *Input) error {
	want, ok := toFloat(a.Value)
	if !ok {
		return fmt.Errorf("status assertion needs a numeric value, got %s", describe(a.Value))
	}
	if in.StatusCode != int(want) {
		return fmt.Errorf("status %d, expected %d", in.StatusCode, int(want))
	}
	return nil
}

// requiredKeysAssertion requires every key to be present in the object at path.
func requiredKeysAssertion(body interface{}, a *suite.Assertion, _ *Input) error {
	v, err := target(body, a)
	if err != nil {
		return err
	}
	obj, err := asObject(v, a)
	if err != nil {
		return err
	}
	if missing := missingKeys(obj, a.Keys); len(missing) > 0 {
		return fmt.Errorf("missing keys [%s] in %s", strings.Join(missing, ", "), pathLabel(a))
	}
	return nil
}

// anyKeyAssertion requires at least one of the keys.
func anyKeyAssertion(body interface{}, a *suite.Assertion, _ *Input) error {
	v, err := target(body, a)
	if err != nil {
		return err
	}
	obj, err := asObject(v, a)
	if err != nil {
		return err
	}
	for _, k := range a.Keys {
		if _, ok := obj[k]; ok {
			return nil
		}
	}
	return fmt.Errorf("none of [%s] present in %s", strings.Join(a.Keys, ", "), pathLabel(a))
}

// atLeastKeysAssertion requires min of the listed keys, all of them when min is unset.
func atLeastKeysAssertion(body interface{}, a *suite.Assertion, _ *Input) error {
	v, err := target(body, a)
	if err != nil {
		return err
	}
	obj, err := asObject(v, a)
	if err != nil {
		return err
	}
	want := len(a.Keys)
	if a.Min != nil {
		want = *a.Min
	}
	present := len(a.Keys) - len(missingKeys(obj, a.Keys))
	if present < want {
		return fmt.Errorf("only %d of [%s] present in %s, expected at least %d", present, strings.Join(a.Keys, ", "), pathLabel(a), want)
	}
	return nil
}

func equalsAssertion(body interface{}, a *suite.Assertion, _ *Input) error {
	v, err := target(body, a)
	if err != nil {
		return err
	}
	if !deepEquals(v, a.Value) {
		return fmt.Errorf("%s is %s, expected %s", pathLabel(a), describe(v), describe(a.Value))
	}
	return nil
}

func truthyAssertion(body interface{}, a *suite.Assertion, _ *Input) error {
	v, err := target(body, a)
	if err != nil {
		return err
	}
	if !truthy(v) {
		return fmt.Errorf("%s is %s, expected a truthy value", pathLabel(a), describe(v))
	}
	return nil
}

func typeAssertion(body interface{}, a *suite.Assertion, _ *Input) error {
	v, err := target(body, a)
	if err != nil {
		return err
	}
	want, _ := a.Value.(string)
	if !validateType(v, want) {
		return fmt.Errorf("%s is %s, expected %s", pathLabel(a), extractors.TypeName(v), want)
	}
	return nil
}

func lengthAssertion(body interface{}, a *suite.Assertion, _ *Input) error {
	if a.Length == nil {
		return fmt.Errorf("length assertion needs 'length'")
	}
	v, err := target(body, a)
	if err != nil {
		return err
	}
	arr, err := asArray(v, a)
	if err != nil {
		return err
	}
	if len(arr) != *a.Length {
		return fmt.Errorf("%s has %d items, expected %d", pathLabel(a), len(arr), *a.Length)
	}
	return nil
}

func minLengthAssertion(body interface{}, a *suite.Assertion, _ *Input) error {
	want := 1
	if a.Min != nil {
		want = *a.Min
	}
	v, err := target(body, a)
	if err != nil {
		return err
	}
	n := 0
	switch val := v.(type) {
	case []interface{}:
		n = len(val)
	case string:
		n = len(val)
	case map[string]interface{}:
		n = len(val)
	default:
		return fmt.Errorf("%s is %s, expected array", pathLabel(a), extractors.TypeName(v))
	}
	if n < want {
		return fmt.Errorf("%s has %d items, expected at least %d", pathLabel(a), n, want)
	}
	return nil
}

// nonDecreasingAssertion requires the numbers at path (or each item's field)
// to be sorted ascending.
func nonDecreasingAssertion(body interface{}, a *suite.Assertion, _ *Input) error {
	v, err := target(body, a)
	if err != nil {
		return err
	}
	arr, err := asArray(v, a)
	if err != nil {
		return err
	}

	label := "item"
	if a.Field != "" {
		label = a.Field
	}

	prev := 0.0
	for i, item := range arr {
		value := item
		if a.Field != "" {
			value, err = extractors.Lookup(item, a.Field)
			if err != nil {
				return fmt.Errorf("%s[%d]: %w", pathLabel(a), i, err)
			}
		}
		f, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("%s[%d].%s is %s, expected number", pathLabel(a), i, label, extractors.TypeName(value))
		}
		if i > 0 && f < prev {
			return fmt.Errorf("%s %s at index %d is lower than %s at index %d", label, describe(f), i, describe(prev), i-1)
		}
		prev = f
	}
	return nil
}

// echoAssertion requires response fields to repeat what the request sent.
func echoAssertion(body interface{}, a *suite.Assertion, in *Input) error {
	v, err := target(body, a)
	if err != nil {
		return err
	}

	respFields := make([]string, 0, len(a.Echo))
	for f := range a.Echo {
		respFields = append(respFields, f)
	}
	sort.Strings(respFields)

	for _, respField := range respFields {
		reqField := a.Echo[respField]
		sent, err := extractors.Lookup(in.RequestBody, reqField)
		if err != nil {
			return fmt.Errorf("request field '%s': %w", reqField, err)
		}
		got, err := extractors.Lookup(v, respField)
		if err != nil {
			return fmt.Errorf("%s: %w", pathLabel(a), err)
		}
		if !deepEquals(got, sent) {
			return fmt.Errorf("%s.%s is %s, request sent %s", pathLabel(a), respField, describe(got), describe(sent))
		}
	}
	return nil
}

// eachHasKeysAssertion requires every object of the array to carry the keys.
func eachHasKeysAssertion(body interface{}, a *suite.Assertion, _ *Input) error {
	v, err := target(body, a)
	if err != nil {
		return err
	}
	arr, err := asArray(v, a)
	if err != nil {
		return err
	}
	for i, item := range arr {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return fmt.Errorf("%s[%d] is %s, expected object", pathLabel(a), i, extractors.TypeName(item))
		}
		if missing := missingKeys(obj, a.Keys); len(missing) > 0 {
			return fmt.Errorf("%s[%d] is missing keys [%s]", pathLabel(a), i, strings.Join(missing, ", "))
		}
	}
	return nil
}

func uuidAssertion(body interface{}, a *suite.Assertion, _ *Input) error {
	v, err := target(body, a)
	if err != nil {
		return err
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("%s is %s, expected UUID string", pathLabel(a), extractors.TypeName(v))
	}
	if _, err := uuid.Parse(s); err != nil {
		return fmt.Errorf("%s is not a UUID: %q", pathLabel(a), s)
	}
	return nil
}

// htmlContainsAssertion requires min (default 1) of the values to appear in
// the HTML fragment at path.
func htmlContainsAssertion(body interface{}, a *suite.Assertion, _ *Input) error {
	v, err := target(body, a)
	if err != nil {
		return err
	}
	html, ok := v.(string)
	if !ok {
		return fmt.Errorf("%s is %s, expected HTML string", pathLabel(a), extractors.TypeName(v))
	}

	needles := make([]string, 0, len(a.Values))
	for _, n := range a.Values {
		needles = append(needles, fmt.Sprintf("%v", n))
	}
	found, err := extractors.FindIndicators(html, needles)
	if err != nil {
		return err
	}

	want := 1
	if a.Min != nil {
		want = *a.Min
	}
	if len(found) < want {
		return fmt.Errorf("found %d of [%s] in %s, expected at least %d", len(found), strings.Join(needles, ", "), pathLabel(a), want)
	}
	return nil
}

func init() {
	MustRegisterAssertion("status", statusAssertion)
	MustRegisterAssertion("required_keys", requiredKeysAssertion)
	MustRegisterAssertion("any_key", anyKeyAssertion)
	MustRegisterAssertion("at_least_keys", atLeastKeysAssertion)
	MustRegisterAssertion("equals", equalsAssertion)
	MustRegisterAssertion("truthy", truthyAssertion)
	MustRegisterAssertion("type", typeAssertion)
	MustRegisterAssertion("length", lengthAssertion)
	MustRegisterAssertion("min_length", minLengthAssertion)
	MustRegisterAssertion("non_decreasing", nonDecreasingAssertion)
	MustRegisterAssertion("echo", echoAssertion)
	MustRegisterAssertion("each_has_keys", eachHasKeysAssertion)
	MustRegisterAssertion("uuid", uuidAssertion)
	MustRegisterAssertion("html_contains", htmlContainsAssertion)
}
