package extractors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airprobe/pkg/context"
	"airprobe/pkg/suite"
)

func sampleBody() interface{} {
	return map[string]interface{}{
		"success": true,
		"flights": []interface{}{
			map[string]interface{}{"id": "f1", "price": 300.0},
			map[string]interface{}{"id": "f2", "price": 350.5},
		},
		"watch": map[string]interface{}{"id": "w-1", "note": nil},
	}
}

func TestLookup(t *testing.T) {
	body := sampleBody()

	tests := []struct {
		path string
		want interface{}
	}{
		{"success", true},
		{"flights[0].id", "f1"},
		{"flights[-1].price", 350.5},
		{"$.watch.id", "w-1"},
		{"watch.note", nil},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := Lookup(body, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	root, err := Lookup(body, "$")
	require.NoError(t, err)
	assert.Equal(t, body, root)
}

func TestLookupErrors(t *testing.T) {
	body := sampleBody()

	_, err := Lookup(body, "watch.email")
	var missing *MissingError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "watch.email", missing.Path)
	assert.Equal(t, "'watch.email' not found", err.Error())

	_, err = Lookup(body, "flights[5]")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "array index 5 out of bounds")

	_, err = Lookup(body, "success.value")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected object at 'success', got boolean")

	_, err = Lookup(body, "flights[x]")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid array index")

	assert.True(t, Exists(body, "flights[1]"))
	assert.False(t, Exists(body, "flights[2]"))
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "null", TypeName(nil))
	assert.Equal(t, "object", TypeName(map[string]interface{}{}))
	assert.Equal(t, "array", TypeName([]interface{}{}))
	assert.Equal(t, "string", TypeName(""))
	assert.Equal(t, "boolean", TypeName(false))
	assert.Equal(t, "number", TypeName(1.5))
	assert.Equal(t, "number", TypeName(3))
}

func TestRender(t *testing.T) {
	body := sampleBody()

	assert.Equal(t, "found 2 flights, cheapest $300",
		Render("found {{len(flights)}} flights, cheapest ${{flights[0].price}}", body))
	assert.Equal(t, "created watch w-1", Render("created watch {{ watch.id }}", body))
	assert.Equal(t, "price 350.5", Render("price {{flights[1].price}}", body))
	assert.Equal(t, "note ?", Render("note {{watch.note}}", body))
	assert.Equal(t, "? items", Render("{{len(missing)}} items", body))
	assert.Equal(t, "plain", Render("plain", body))
	assert.Equal(t, "broken {{x", Render("broken {{x", body))
}

func TestApply(t *testing.T) {
	execCtx := context.NewExecutionContext("Local", "http://localhost:3000")
	body := sampleBody()

	err := Apply(execCtx, body, []suite.Extract{
		{Variable: "watch_id", Path: "watch.id"},
		{Variable: "cheapest", Path: "flights[0].price"},
	})
	require.NoError(t, err)

	v, err := execCtx.ResolveVariable("watch_id")
	require.NoError(t, err)
	assert.Equal(t, "w-1", v)
	v, err = execCtx.ResolveVariable("cheapest")
	require.NoError(t, err)
	assert.Equal(t, 300.0, v)

	err = Apply(execCtx, body, []suite.Extract{{Variable: "note", Path: "watch.note"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'watch.note' is null")

	err = Apply(execCtx, body, []suite.Extract{{Variable: "email", Path: "watch.email"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extract 'email'")
	assert.False(t, execCtx.HasVariable("email"))
}

func TestFindIndicators(t *testing.T) {
	html := `<html><body>
<h1>AI-Powered Price Alert</h1>
<div class="packing-recommendations"><p>Bring a jacket</p></div>
<section id="travel-tips">Tips</section>
</body></html>`

	found, err := FindIndicators(html, []string{"ai-powered", "packing-recommendations", "travel-tips", "time-budget"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ai-powered", "packing-recommendations", "travel-tips"}, found)

	found, err = FindIndicators(`<p data-section="Time-Budget">Leave early</p><!-- ai enhanced -->`+
		`<a href="https://airease.example/travel-tips">More</a>`, []string{"time-budget", "AI Enhanced", "travel-tips", "packing"})
	require.NoError(t, err)
	assert.Equal(t, []string{"time-budget", "AI Enhanced", "travel-tips"}, found)

	found, err = FindIndicators("<p>plain email</p>", []string{"AI-Powered"})
	require.NoError(t, err)
	assert.Empty(t, found)
}
