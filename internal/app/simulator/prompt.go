package simulator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/talentops/recruiter-agent/internal/domain"
)

const systemPrompt = "You are a helpful assistant that generates mock JSON responses for an ATS GraphQL API."

const strictSystemPrompt = "You generate mock JSON responses for an ATS GraphQL API. " +
	"Reply with EXACTLY one JSON object and nothing else: no prose, no markdown fences, no comments. " +
	"Every value must have the type its field name implies."

// buildPrompt assembles the fabrication prompt: the operation's schema and
// description, the validated arguments, and the session's known entities
// so identifiers stay stable across calls.
func buildPrompt(def domain.FunctionDefinition, call domain.FunctionCall, simCtx domain.SimulationContext) string {
	var b strings.Builder

	b.WriteString("Generate a realistic mock JSON response for an ATS (Applicant Tracking System) GraphQL query.\n")
	fmt.Fprintf(&b, "Function: %s\n", def.Name)
	fmt.Fprintf(&b, "Description: %s\n", def.Description)
	fmt.Fprintf(&b, "Parameters: %s\n", indentJSON(call.Arguments))

	if len(def.Returns) > 0 {
		b.WriteString("The response object must contain exactly these fields:\n")
		for name, spec := range def.Returns {
			fmt.Fprintf(&b, "  - %s (%s)\n", name, spec.Type)
		}
	}

	if len(simCtx.Entities) > 0 {
		b.WriteString("\nEntities already known in this session. Reuse their identifiers and names ")
		b.WriteString("whenever the response refers to the same records:\n")
		for _, e := range simCtx.Entities {
			if e.Name != "" {
				fmt.Fprintf(&b, "  - %s id=%s name=%q\n", e.Kind, e.ID, e.Name)
			} else {
				fmt.Fprintf(&b, "  - %s id=%s\n", e.Kind, e.ID)
			}
		}
	}

	if len(simCtx.RecentResults) > 0 {
		b.WriteString("\nMost recent backend responses in this session, for consistency:\n")
		for _, res := range simCtx.RecentResults {
			fmt.Fprintf(&b, "  %s -> %s\n", res.Name, truncate(mustJSON(res.Payload), 400))
		}
	}

	b.WriteString("\nThe response should be valid JSON and should represent what an actual ATS system would return.\n")
	b.WriteString("Include realistic data for all relevant fields.\n\nResponse:")
	return b.String()
}

func indentJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
