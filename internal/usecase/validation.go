package usecase

import (
	"fmt"
	"strconv"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ParseQuizSubmission converte o corpo solto do front. Campos ausentes viram
// string vazia; números e booleanos são convertidos para texto.
func ParseQuizSubmission(body map[string]any) QuizSubmissionInput {
	input := QuizSubmissionInput{
		Email:   strings.TrimSpace(coerceString(body["email"])),
		Name:    strings.TrimSpace(coerceString(body["name"])),
		Phone:   strings.TrimSpace(coerceString(body["phone"])),
		FBP:     coerceString(body["fbp"]),
		FBC:     coerceString(body["fbc"]),
		Answers: make(map[string]string, len(QuizAnswerFields)),
	}

	// Variante do front que agrupa as respostas.
	if nested, ok := body["quizResponses"].(map[string]any); ok {
		for k, v := range nested {
			input.Answers[k] = coerceString(v)
		}
	}

	for _, field := range QuizAnswerFields {
		if v, ok := body[field]; ok {
			input.Answers[field] = coerceString(v)
			continue
		}
		if _, ok := input.Answers[field]; !ok {
			input.Answers[field] = ""
		}
	}

	return input
}

// ValidateQuizSubmission só reprova a ausência de email.
func ValidateQuizSubmission(input QuizSubmissionInput) []ValidationError {
	var errors []ValidationError

	if input.Email == "" {
		errors = append(errors, ValidationError{"email", "Email is required"})
	}

	return errors
}

func coerceString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, coerceString(p))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(t)
	}
}
