package ocr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"campusid/internal/models"
)

const fieldPrompt = `You are an expert data extraction assistant. Your job is to extract specific fields from the raw OCR text of a university student ID card (front and back sides) and return the data in a clean JSON format.

Here are the rules:
1. The required fields are: "name", "register_number", "university", "department", "course", "validity_date", "date_of_issue", "date_of_birth", "blood_group", "email", "contact_number", "address", "permanent_address" and "emergency_contact".
2. If a field cannot be found in the text, its value in the JSON must be null.
3. Your entire response must be ONLY the JSON object. Do not include any explanations, apologies, or any text before or after the JSON.
4. Keep the extracted values exactly as they appear on the card apart from removing unnecessary newline characters.

Here is the raw text:
"""
[INSERT RAW OCR TEXT HERE]
"""`

// parseFields structures raw OCR text into the card field map via
// Gemini. Values come back verbatim; canonicalization happens in the
// normalizer, downstream.
func (p *GoogleProvider) parseFields(ctx context.Context, ocrText string) (map[string]string, error) {
	if strings.TrimSpace(p.geminiAPIKey) == "" {
		return nil, errors.New("missing GEMINI_API_KEY")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(p.geminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to init Gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel("gemini-2.0-flash-lite")
	model.GenerationConfig = genai.GenerationConfig{ResponseMIMEType: "application/json"}

	prompt := strings.Replace(fieldPrompt, "[INSERT RAW OCR TEXT HERE]", ocrText, 1)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generation failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return nil, errors.New("empty response from Gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		} else {
			sb.WriteString(fmt.Sprint(part))
		}
	}
	jsonStr := strings.TrimSpace(sb.String())
	if jsonStr == "" {
		return nil, errors.New("no text in Gemini response")
	}

	jsonStr = stripCodeFences(jsonStr)
	if candidate, ok := extractFirstJSON(jsonStr); ok {
		jsonStr = candidate
	}

	// Tolerate nulls and stray types by decoding into a loose map first.
	var tmp map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &tmp); err != nil {
		return nil, fmt.Errorf("failed to parse Gemini JSON: %w", err)
	}
	fields := make(map[string]string, len(tmp))
	for k, v := range tmp {
		if v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				fields[k] = s
			}
		default:
			b, _ := json.Marshal(t)
			fields[k] = strings.TrimSpace(string(b))
		}
	}

	if fields[models.FieldRegisterNumber] == "" {
		return nil, errors.New("register number not found on card")
	}
	return fields, nil
}

// stripCodeFences removes surrounding Markdown code fences like ```json ... ```.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSpace(s)
		// remove a possible language tag at the start of the fence
		if i := strings.IndexByte(s, '\n'); i != -1 {
			first := strings.TrimSpace(s[:i])
			if len(first) > 0 && len(first) < 20 {
				s = s[i+1:]
			}
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}

// extractFirstJSON attempts to extract the first balanced JSON object or array.
func extractFirstJSON(s string) (string, bool) {
	if obj, ok := extractBalanced(s, '{', '}'); ok {
		return obj, true
	}
	if arr, ok := extractBalanced(s, '[', ']'); ok {
		return arr, true
	}
	return "", false
}

func extractBalanced(s string, open, close rune) (string, bool) {
	start := -1
	depth := 0
	for i, r := range s {
		if r == open {
			if depth == 0 {
				start = i
			}
			depth++
		} else if r == close {
			if depth > 0 {
				depth--
				if depth == 0 && start != -1 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}
