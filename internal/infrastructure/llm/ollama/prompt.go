package ollama

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rightsdesk/clipline/internal/core/domain"
)

func buildOCRPrompt() string {
	return `You are an OCR (Optical Character Recognition) expert.
Extract all text from the attached image of a news clipping.
Return the text exactly as it appears, preserving paragraph breaks.
Do not add commentary or markdown.`
}

func buildSegmentationPrompt(text string) string {
	return `You are an AI analyst for a human rights commission.
Your task is to analyze text from a newspaper page and identify ALL relevant articles concerning potential human rights violations.

Instructions:
1. Read the entire text and find every article discussing a potential human rights issue. Ignore advertisements, stock prices, and articles on topics like general politics, sports, or economics unless they directly involve a human rights concern.
2. For EACH relevant article, create a JSON object with these fields:
   extractedArticle: the full text of the article, exactly as it appears, not shortened or altered.
   summary: a concise 2-4 sentence summary of the article.
   containsViolation: true.
3. If no part of the text discusses anything related to human rights, return an empty list for "articles".

Return strict JSON: a single object with one key "articles" holding the list.
No markdown, no extra keys.

Text:
` + text
}

func buildClassificationPrompt(text string, categories []string) string {
	const maxSnippet = 8000
	snippet := text
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet]
	}

	return fmt.Sprintf(`You are an expert in categorizing news articles about human rights violations.

The available categories are: %s.

Analyze the news clipping below and determine the most appropriate category.
Also provide a confidence level between 0 and 1 for your categorization.

Return strict JSON object with keys: category (string), confidence (number from 0 to 1).
No markdown, no extra keys.

News clipping text:
%s`, strings.Join(categories, ", "), snippet)
}

func buildDuplicatePrompt(articleText string, recent []domain.RecentReportRef) (string, error) {
	recentJSON, err := json.Marshal(recent)
	if err != nil {
		return "", fmt.Errorf("marshal recent reports: %w", err)
	}

	return fmt.Sprintf(`You are an AI analyst specializing in identifying duplicate news reports about human rights violations.
Decide whether the new article reports the same core incident (what happened, to whom, where, when) as any of the recent reports, even if wording, details, or source differ.

If it is a duplicate, set isDuplicate to true and put the id of the matching report in duplicateReportId.
If it is not a duplicate, set isDuplicate to false.
In reasoning, give a short one-sentence explanation of the decision.

Return strict JSON object with keys: isDuplicate (boolean), duplicateReportId (string, empty if not a duplicate), reasoning (string).
No markdown, no extra keys.

New article text:
%s

Recent reports to check against (JSON):
%s`, articleText, string(recentJSON)), nil
}
