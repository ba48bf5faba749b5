// Package prompt builds the texts the user copy-pastes into an external LLM
// chat. The service itself never calls a model; the prompts only have to be
// deterministic so the same inputs always produce the same text.
package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// PromptBuilder produces the article-generation prompt from already-validated
// inputs. It assumes the categories passed the category validator.
type PromptBuilder struct {
	ArticleTopic        string
	SensitiveCategories []string
	NumWords            int
}

// GetPrompt renders the full article-generation prompt, including the literal
// JSON output schema the LLM is asked to follow.
func (b PromptBuilder) GetPrompt() string {
	categoriesJSON, _ := json.MarshalIndent(b.SensitiveCategories, "", "  ")

	var sb strings.Builder
	sb.WriteString("You will help me generate some data for a content moderation experiment.\n")
	fmt.Fprintf(&sb, "Write a long (~ %d words) article about %s,\n", b.NumWords, b.ArticleTopic)
	sb.WriteString("containing examples of the following (synthetic) sensitive information:\n\n")
	sb.Write(categoriesJSON)
	sb.WriteString("\n\n")
	sb.WriteString("For each of the aforementioned categories, map it to the corresponding entities\n")
	sb.WriteString("in the text that you generated.\n\n")
	sb.WriteString("Of course, there is no need to explain that all of the \"sensitive information\"\n")
	sb.WriteString("is entirely fictional and synthetic.\n\n")
	sb.WriteString("Provide your output in the following JSON format:\n\n")
	sb.WriteString("```json\n")
	sb.WriteString(b.schemaJSON())
	sb.WriteString("\n```")
	return sb.String()
}

// schemaJSON renders the example output schema with the category keys in the
// order the user defined them. Built by hand because encoding/json sorts map
// keys.
func (b PromptBuilder) schemaJSON() string {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	buf.WriteString("  \"article_text\": \"string\",\n")
	buf.WriteString("  \"sensitive_category_to_instances\": {\n")
	for i, category := range b.SensitiveCategories {
		key, _ := json.Marshal(category)
		buf.WriteString("    ")
		buf.Write(key)
		buf.WriteString(": \"string[]\"")
		if i < len(b.SensitiveCategories)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("  }\n}")
	return buf.String()
}

// BuildQAPrompt renders the prompt requesting numQuestions question/answer
// pairs about the article, embedding the article text verbatim.
func BuildQAPrompt(articleText string, numQuestions int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate %d interesting question and answer pairs about the following article.\n\n", numQuestions)
	sb.WriteString("Provide your output as a JSON list, each element having the following structure\n\n")
	sb.WriteString("{\n  \"question_text\": \"str\",\n  \"answer_text\": \"str\"\n}")
	sb.WriteString("\n\n")
	sb.WriteString("The article:\n\n")
	sb.WriteString(articleText)
	return sb.String()
}
