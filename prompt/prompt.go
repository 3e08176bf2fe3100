// Package prompt builds the instructions sent to language model backends.
// Every function is pure.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/HimashaHerath/webextract"
)

// ToolName is the function name used in tool-call mode.
const ToolName = "extract_structured_data"

// ToolDescription describes the extraction tool to the model.
const ToolDescription = "Extract structured information from web content"

// SummaryContentLimit caps how much content is sent for summarization.
const SummaryContentLimit = 2000

const defaultStructure = `{
  "summary": "string - A clear, concise summary (2-3 sentences, required)",
  "topics": "array - Main topics discussed",
  "category": "string - Primary category (technology/business/news/education/entertainment/other)",
  "sentiment": "string - Overall tone (positive/negative/neutral)",
  "entities": {
    "people": "array - Person names mentioned",
    "organizations": "array - Organization/company names",
    "locations": "array - Locations/places mentioned"
  },
  "key_facts": "array - Important facts or claims",
  "important_dates": "array - Dates mentioned with context",
  "statistics": "array - Numbers, percentages, or metrics"
}`

const defaultExample = `{
  "summary": "This is a clear summary of the content.",
  "topics": ["topic1", "topic2"],
  "category": "technology",
  "sentiment": "positive",
  "entities": {
    "people": ["John Smith"],
    "organizations": ["Company ABC"],
    "locations": ["New York"]
  },
  "key_facts": ["Important fact 1", "Important fact 2"],
  "important_dates": ["2024-01-15: Product launch"],
  "statistics": ["50% increase", "1000 users"]
}`

// Build returns the extraction instructions for schema. A nil schema
// yields the default instructions, which name every default field.
func Build(schema *webextract.Schema) string {
	if schema == nil {
		return buildDefault()
	}
	return buildSchema(schema)
}

func buildDefault() string {
	var sb strings.Builder
	sb.WriteString("Extract structured information from the content and return it as valid JSON.\n\n")
	sb.WriteString("CRITICAL INSTRUCTIONS:\n")
	sb.WriteString("1. Return ONLY valid JSON - no explanations, no markdown, no extra text\n")
	sb.WriteString("2. Use double quotes for all strings and keys\n")
	sb.WriteString("3. All fields are required - use empty arrays [] or empty strings \"\" if no data\n")
	sb.WriteString("4. Do not include trailing commas\n")
	sb.WriteString("5. Ensure proper JSON formatting\n\n")
	sb.WriteString("Required JSON structure:\n")
	sb.WriteString(defaultStructure)
	sb.WriteString("\n\nExample valid response:\n")
	sb.WriteString(defaultExample)
	sb.WriteString("\n\nExtract information from the content and return JSON in exactly this format.")
	return sb.String()
}

func buildSchema(schema *webextract.Schema) string {
	echo, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		echo = []byte(strings.Join(schema.Names(), ", "))
	}

	var sb strings.Builder
	sb.WriteString("Extract information from the content and return valid JSON matching this exact schema:\n\n")
	sb.Write(echo)
	sb.WriteString("\n\nCRITICAL REQUIREMENTS:\n")
	sb.WriteString("- Return ONLY valid JSON matching the schema above\n")
	sb.WriteString("- No explanations, comments, or extra text\n")
	sb.WriteString("- Use double quotes for strings and keys\n")
	sb.WriteString("- Include all required fields from schema\n")
	sb.WriteString("- Use appropriate data types (string, number, boolean, array, object)\n\n")
	sb.WriteString("Extract the information and return properly formatted JSON.")
	return sb.String()
}

// Generation frames content and instructions with the strict output rules
// used for plain-text completions.
func Generation(content, instructions string) string {
	return fmt.Sprintf(`Analyze the following content and return ONLY a valid JSON object.

CONTENT TO ANALYZE:
%s

EXTRACTION INSTRUCTIONS:
%s

CRITICAL RULES:
1. Return ONLY the JSON object - no explanatory text before or after
2. Start with { and end with }
3. Use double quotes for ALL strings (no single quotes)
4. Ensure all required fields are present
5. Use empty arrays [] for missing list data
6. Use empty strings "" for missing text data
7. Escape any quotes inside string values with \"`, content, instructions)
}

// Tool returns the message used in tool-call mode.
func Tool(content, instructions string) string {
	return fmt.Sprintf("Extract structured information from the following web content.\n\n%s\n\nCONTENT:\n%s", instructions, content)
}

// Summary returns the summarization prompt. Content beyond
// SummaryContentLimit characters is dropped.
func Summary(content string, maxLength int) string {
	return fmt.Sprintf(
		"Provide a clear, concise summary of this content in no more than %d characters. "+
			"Focus on the main points and key takeaways.\n\nContent: %s\n\nSummary (max %d chars):",
		maxLength, Truncate(content, SummaryContentLimit), maxLength)
}

// PrepareContent lays out the page fields the model sees.
func PrepareContent(c *webextract.ExtractedContent) string {
	var parts []string
	if c.Title != "" {
		parts = append(parts, "TITLE: "+c.Title)
	}
	if c.Description != "" {
		parts = append(parts, "DESCRIPTION: "+c.Description)
	}
	parts = append(parts, "CONTENT: "+c.MainContent)
	return strings.Join(parts, "\n\n")
}

// ToolSchema returns the input schema declared in tool-call mode.
func ToolSchema(schema *webextract.Schema) map[string]any {
	if schema != nil {
		return schema.ToolSchema()
	}
	stringList := func(desc string) map[string]any {
		return map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": desc,
		}
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			webextract.FieldSummary: map[string]any{
				"type":        "string",
				"description": "Clear, concise summary of the main content (2-3 sentences)",
			},
			webextract.FieldTopics: stringList("Main topics or themes"),
			webextract.FieldCategory: map[string]any{
				"type":        "string",
				"description": "Primary category (technology, business, news, education, etc.)",
			},
			webextract.FieldSentiment: map[string]any{
				"type":        "string",
				"enum":        []string{"positive", "negative", "neutral"},
				"description": "Overall tone",
			},
			webextract.FieldEntities: map[string]any{
				"type": "object",
				"properties": map[string]any{
					webextract.EntityPeople:        stringList("Names of people mentioned"),
					webextract.EntityOrganizations: stringList("Companies, institutions, groups"),
					webextract.EntityLocations:     stringList("Places, cities, countries"),
				},
			},
			webextract.FieldKeyFacts:       stringList("Important facts or claims"),
			webextract.FieldImportantDates: stringList("Significant dates mentioned"),
			webextract.FieldStatistics:     stringList("Numbers, percentages, metrics"),
		},
		"required": []string{webextract.FieldSummary, webextract.FieldTopics, webextract.FieldCategory, webextract.FieldSentiment},
	}
}

// Truncate returns the first n characters of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
