package batch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/astrodocs/missionqa/models"
	"github.com/astrodocs/missionqa/services"
)

var validate = validator.New()

// LoadQuestions reads a question set from path. Two formats are supported:
// a JSON array of {id?, question} records, or plain text with one question
// per line (blank lines ignored).
func LoadQuestions(path string) ([]models.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.NewConfigurationError("read question set", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return parseJSONQuestions(trimmed)
	}
	return parseTextQuestions(string(trimmed)), nil
}

func parseJSONQuestions(data []byte) ([]models.Question, error) {
	var questions []models.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, services.NewConfigurationError("parse question set", err)
	}

	for i, q := range questions {
		if err := validate.Struct(q); err != nil {
			return nil, services.NewValidationError(
				fmt.Sprintf("question record %d is invalid", i), err)
		}
	}
	return questions, nil
}

func parseTextQuestions(data string) []models.Question {
	var questions []models.Question
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		questions = append(questions, models.Question{Question: line})
	}
	return questions
}
