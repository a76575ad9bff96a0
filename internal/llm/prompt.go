package llm

import "fmt"

// BuildSystemPrompt constructs the system prompt grounding SQL
// generation in the WCA schema.
func BuildSystemPrompt(schema string) string {
	return fmt.Sprintf(`You are a SQL expert for the World Cube Association (WCA) results database (MySQL).

%s

RULES:
1. Output ONLY a single SQL query - no explanations, no markdown code blocks, no comments
2. Use only SELECT statements - never INSERT, UPDATE, DELETE, DROP, ALTER, CREATE, TRUNCATE, GRANT or any other modifying statement
3. Use only the tables and columns listed above; do not guess names that are not in the schema
4. Include a reasonable LIMIT clause for potentially large result sets
5. Remember that time columns hold centiseconds and that -1 means DNF, -2 means DNS

If the question cannot be answered with SQL over this schema, respond with exactly:
ERROR: Cannot be answered with SQL`, schema)
}

// BuildUserPrompt wraps the user's question for the model.
func BuildUserPrompt(question string) string {
	return fmt.Sprintf(`User Question: %s

Generate a SQL query that answers this question. Return ONLY the SQL query, no explanations.

SQL Query:`, question)
}
