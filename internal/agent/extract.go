package agent

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/bv-juan-bedoya/search-agent-tool/internal/fecha"
)

var jsonObjectPattern = regexp.MustCompile(`\{[^{}]*\}`)

// extractResolution pulls a date resolution out of a model reply. A clean
// JSON object is taken as-is; otherwise the first {...} in the text is tried,
// which tolerates replies wrapped in prose or markdown fences.
func extractResolution(reply string) (fecha.Resolution, error) {
	reply = strings.TrimSpace(reply)

	var res fecha.Resolution
	if strings.HasPrefix(reply, "{") && strings.HasSuffix(reply, "}") {
		if err := json.Unmarshal([]byte(reply), &res); err != nil {
			return fecha.Resolution{}, fmt.Errorf("agent reply is not a date shape: %w", err)
		}
		return res, nil
	}

	match := jsonObjectPattern.FindString(reply)
	if match == "" {
		return fecha.Resolution{}, fmt.Errorf("no JSON object in agent reply")
	}
	if err := json.Unmarshal([]byte(match), &res); err != nil {
		return fecha.Resolution{}, fmt.Errorf("agent reply is not a date shape: %w", err)
	}
	return res, nil
}
