package context

import (
	"math"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndResolveVariable(t *testing.T) {
	c := NewExecutionContext("Local", "http://localhost:3000/")

	require.NoError(t, c.SetVariable("watch_id", "abc"))
	require.NoError(t, c.SetVariable("search.cheapest.price", 300.0))

	v, err := c.ResolveVariable("watch_id")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	v, err = c.ResolveVariable("search.cheapest.price")
	require.NoError(t, err)
	assert.Equal(t, 300.0, v)

	assert.True(t, c.HasVariable("watch_id"))
	assert.False(t, c.HasVariable("missing"))

	_, err = c.ResolveVariable("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'missing' is not set")

	err = c.SetVariable("watch_id.nested", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflicts with existing non-map value")
}

func TestURL(t *testing.T) {
	c := NewExecutionContext("Local", "http://localhost:3000/")
	assert.Equal(t, "http://localhost:3000", c.BaseURL())
	assert.Equal(t, "http://localhost:3000/api/watchlist", c.URL("/api/watchlist"))
	assert.Equal(t, "http://localhost:3000/api/", c.URL("api/"))
	assert.Equal(t, "https://other.example/x", c.URL("https://other.example/x"))
}

func TestSubstitute(t *testing.T) {
	c := NewExecutionContext("Local", "http://localhost:3000")
	require.NoError(t, c.SetVariable("watch_id", "w-1"))
	require.NoError(t, c.SetVariable("route", map[string]interface{}{"from": "AMM"}))

	out, err := c.Substitute("/api/watch/{{watch_id}}?from={{ route.from }}")
	require.NoError(t, err)
	assert.Equal(t, "/api/watch/w-1?from=AMM", out)

	out, err = c.Substitute(`{{upper(concat(route.from, "-", "lhr"))}}`)
	require.NoError(t, err)
	assert.Equal(t, "AMM-LHR", out)

	out, err = c.Substitute("no patterns here")
	require.NoError(t, err)
	assert.Equal(t, "no patterns here", out)

	_, err = c.Substitute("{{watch_id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unclosed substitution pattern")

	_, err = c.Substitute("{{nope()}}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined function: nope")

	_, err = c.Substitute("{{unset_var}}")
	require.Error(t, err)
}

func TestSubstituteValueKeepsTypes(t *testing.T) {
	c := NewExecutionContext("Local", "http://localhost:3000")
	require.NoError(t, c.SetVariable("price", 450.0))
	require.NoError(t, c.SetVariable("watch_id", "w-1"))

	in := map[string]interface{}{
		"watchId": "{{watch_id}}",
		"price":   "{{price}}",
		"label":   "price {{price}}",
		"active":  false,
		"flights": []interface{}{"{{watch_id}}", 3},
	}
	out, err := c.SubstituteValue(in)
	require.NoError(t, err)

	m := out.(map[string]interface{})
	assert.Equal(t, "w-1", m["watchId"])
	assert.Equal(t, 450.0, m["price"])
	assert.Equal(t, "price 450", m["label"])
	assert.Equal(t, false, m["active"])
	assert.Equal(t, []interface{}{"w-1", 3}, m["flights"])

	// the input is left untouched
	assert.Equal(t, "{{watch_id}}", in["watchId"])

	nilOut, err := c.SubstituteValue(nil)
	require.NoError(t, err)
	assert.Nil(t, nilOut)
}

func TestFunctions(t *testing.T) {
	c := NewExecutionContext("Local", "http://localhost:3000")

	out, err := c.Substitute(`{{format_date(30, "2006-01-02")}}`)
	require.NoError(t, err)
	assert.Equal(t, time.Now().AddDate(0, 0, 30).Format("2006-01-02"), out)

	out, err = c.Substitute("{{random_string(12)}}")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[a-z0-9]{12}$`), out)

	out, err = c.Substitute("{{random_int(5, 7)}}")
	require.NoError(t, err)
	n, err := strconv.Atoi(out)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 5)
	assert.LessOrEqual(t, n, 7)

	out, err = c.Substitute("{{uuid()}}")
	require.NoError(t, err)
	assert.Len(t, out, 36)

	out, err = c.Substitute("{{lower('AMM')}}")
	require.NoError(t, err)
	assert.Equal(t, "amm", out)

	_, err = c.Substitute("{{random_int(9, 1)}}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "less than min")

	_, err = c.Substitute("{{random_int(-1, 9223372036854775807)}}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")

	_, err = randomInt(math.MinInt, math.MaxInt)
	require.Error(t, err)
	_, err = randomInt(0, math.MaxInt)
	require.Error(t, err)
	top, err := randomInt(math.MaxInt-1, math.MaxInt)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, top.(int), math.MaxInt-1)

	_, err = c.Substitute("{{timestamp(1)}}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expects 0 argument(s)")

	require.Error(t, RegisterFunction("uuid", newUUID))
}

func TestSplitArgs(t *testing.T) {
	assert.Equal(t, []string{"a", `concat(b, "c,d")`, "e"}, splitArgs(`a, concat(b, "c,d"), e`))
	assert.Equal(t, []string{"30", `"2006-01-02"`}, splitArgs(`30, "2006-01-02"`))
	assert.Nil(t, splitArgs(""))
}

func TestLastResponse(t *testing.T) {
	c := NewExecutionContext("Local", "http://localhost:3000")
	c.SetLastCheck("health_check")
	c.SetLastResponse(200, []byte(`{"ok":true}`))

	assert.Equal(t, "health_check", c.GetLastCheck())
	assert.Equal(t, 200, c.GetLastStatusCode())
	assert.Equal(t, `{"ok":true}`, string(c.GetLastResponse()))
	assert.NotNil(t, c.GetHTTPClient())
}
