package interpreter

import (
	"context"
	"fmt"
	"strings"
)

// Client is the interface for natural-language backends. Providers differ
// only in request/response shaping and authentication; the parsing contract
// lives entirely in the Interpreter.
type Client interface {
	// Complete submits a prompt and returns the raw model output.
	Complete(ctx context.Context, prompt string) (string, error)
}

// buildParsePrompt creates the instruction for turning a free-text lead query
// into the constrained JSON structure of a filter.
func buildParsePrompt(query string) string {
	return fmt.Sprintf(`Parse this natural language query for professional-network lead generation into structured search parameters.
Query: %q

Extract and return ONLY a JSON object with these fields:
- roles: list of job titles/roles to search for
- locations: list of geographic locations
- company_size_min: minimum company size (number of employees) or null
- industries: list of industry names
- seniority_levels: list of seniority levels among: entry, mid, senior, director, vp, c-level

Example output:
{
  "roles": ["Head of Digital Transformation"],
  "locations": ["United States"],
  "company_size_min": 500,
  "industries": [],
  "seniority_levels": ["director"]
}

Do NOT wrap the JSON in markdown blocks. Output just the literal JSON object starting with { and ending with }.`, query)
}

// buildCorrectivePrompt asks the backend to repair its own malformed output.
// One shot only; a second failure surfaces as a malformed-response error.
func buildCorrectivePrompt(query, badOutput string) string {
	return fmt.Sprintf(`Your previous answer was not a valid JSON object and could not be parsed.

Previous answer:
%s

Try again for the query %q. Respond with ONLY the JSON object described before, no commentary, no markdown.`, badOutput, query)
}

// cleanMarkdownJSON removes backticks and "json" prefix if the model tries to
// be helpful, then trims everything outside the outermost braces.
func cleanMarkdownJSON(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}
