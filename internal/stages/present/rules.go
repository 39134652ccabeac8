// internal/stages/present/rules.go
package present

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// defaultQuery is used when no rule matches the summary text.
const defaultQuery = "US stock market chart today"

// ChartRule maps summary keywords to one image-search query. Rules are
// evaluated in order; a rule contributes its query once no matter how many
// of its keywords appear.
type ChartRule struct {
	Keywords []string `json:"keywords"`
	Query    string   `json:"query"`
}

//go:embed chart-rules.json
var defaultRulesJSON string

const rulesSchema = `{
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "required": ["keywords", "query"],
    "additionalProperties": false,
    "properties": {
      "keywords": {
        "type": "array",
        "minItems": 1,
        "items": { "type": "string", "minLength": 1 }
      },
      "query": { "type": "string", "minLength": 1 }
    }
  }
}`

// LoadRules validates and parses the embedded chart-selection policy.
func LoadRules() ([]ChartRule, error) {
	return ParseRules(defaultRulesJSON)
}

// ParseRules validates rule JSON against the schema before unmarshaling.
func ParseRules(rulesJSON string) ([]ChartRule, error) {
	schemaLoader := gojsonschema.NewStringLoader(rulesSchema)
	documentLoader := gojsonschema.NewStringLoader(rulesJSON)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("validate chart rules: %w", err)
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, fmt.Errorf("invalid chart rules: %s", strings.Join(problems, "; "))
	}

	var rules []ChartRule
	if err := json.Unmarshal([]byte(rulesJSON), &rules); err != nil {
		return nil, fmt.Errorf("parse chart rules: %w", err)
	}
	return rules, nil
}

// selectQueries walks the rules in order and collects one query per matched
// rule. A summary that matches nothing gets exactly the default query.
func selectQueries(rules []ChartRule, summary string) []string {
	var queries []string
	for _, rule := range rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(summary, keyword) {
				queries = append(queries, rule.Query)
				break
			}
		}
	}

	if len(queries) == 0 {
		queries = append(queries, defaultQuery)
	}
	return queries
}
