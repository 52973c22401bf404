package checks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"airprobe/pkg/client"
	execContext "airprobe/pkg/context"
)

// aiEndpoints are the endpoints whose responses say whether a language
// model produced them.
var aiEndpoints = []struct {
	name string
	path string
	body map[string]interface{}
}{
	{"packing", "/api/ai/packing", map[string]interface{}{"tripType": "leisure", "duration": "3-5 days"}},
	{"travel-tips", "/api/ai/travel-tips", map[string]interface{}{"tripType": "leisure"}},
	{"time-budget", "/api/ai/time-budget", map[string]interface{}{"userLocation": "city_center"}},
}

func sampleFlight() map[string]interface{} {
	return map[string]interface{}{
		"from":          "AMM",
		"to":            "LHR",
		"airline":       "Qatar Airways",
		"flightNumber":  "QR123",
		"departureTime": "08:30",
		"duration":      "6h 15m",
		"price":         450,
	}
}

// aiIntegrationHandler passes when at least one AI endpoint reports
// aiGenerated: true. Failing endpoints are listed but do not fail the check
// on their own.
func aiIntegrationHandler(ctx context.Context, execCtx *execContext.ExecutionContext) (*Verdict, error) {
	hc := execCtx.GetHTTPClient()

	var generated, problems []string
	for _, ep := range aiEndpoints {
		body := map[string]interface{}{"flightData": sampleFlight()}
		for k, v := range ep.body {
			body[k] = v
		}

		resp, err := hc.Do(ctx, &client.Request{
			Method: "POST",
			URL:    execCtx.URL(ep.path),
			Body:   body,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			problems = append(problems, fmt.Sprintf("%s: %v", ep.name, err))
			continue
		}
		execCtx.SetLastResponse(resp.StatusCode, resp.Body)

		if resp.StatusCode != 200 {
			problems = append(problems, fmt.Sprintf("%s: status %d", ep.name, resp.StatusCode))
			continue
		}
		decoded, err := resp.JSON()
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", ep.name, err))
			continue
		}
		obj, _ := decoded.(map[string]interface{})
		if flag, _ := obj["aiGenerated"].(bool); flag {
			generated = append(generated, ep.name)
		}
		slog.Debug("AI endpoint checked", "endpoint", ep.name, "aiGenerated", obj["aiGenerated"])
	}

	verdict := &Verdict{Warnings: problems}
	if len(generated) == 0 {
		verdict.Details = fmt.Sprintf("no AI endpoint reported aiGenerated=true (0/%d)", len(aiEndpoints))
		if len(problems) > 0 {
			verdict.Details += "; " + strings.Join(problems, "; ")
		}
		return verdict, nil
	}

	verdict.Passed = true
	verdict.Details = fmt.Sprintf("AI used by %d/%d endpoints: %s", len(generated), len(aiEndpoints), strings.Join(generated, ", "))
	return verdict, nil
}

func init() {
	MustRegisterHandler("ai_integration", aiIntegrationHandler)
}
