// Package importer turns the quiz generator's raw output into questions.
package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/stemsi/smartquiz-backend/internal/model"
)

// ErrInvalidDocument is returned for any document that cannot be imported.
var ErrInvalidDocument = errors.New("invalid quiz document")

// Fences are only recognised at the very start and end of the output, so
// backticks inside question text survive.
var (
	openingFence = regexp.MustCompile("(?i)^```(?:json)?")
	closingFence = regexp.MustCompile("```$")
)

const schemaURL = "schema://quiz-document.json"

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	def, err := jsonschema.UnmarshalJSON(strings.NewReader(documentSchema))
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, def); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	return c.Compile(schemaURL)
})

// Item is one generated question.
type Item struct {
	Question      string   `json:"question"`
	Choices       []string `json:"choices"`
	CorrectAnswer string   `json:"correct_answer"`
}

// Document is a generated quiz, one list of items per tier.
type Document struct {
	Easy   []Item `json:"easy"`
	Medium []Item `json:"medium"`
	Hard   []Item `json:"hard"`
}

// Tier returns the items of t.
func (d *Document) Tier(t model.Tier) []Item {
	switch t {
	case model.TierEasy:
		return d.Easy
	case model.TierMedium:
		return d.Medium
	case model.TierHard:
		return d.Hard
	}
	return nil
}

// Total is the number of questions across tiers.
func (d *Document) Total() int {
	return len(d.Easy) + len(d.Medium) + len(d.Hard)
}

// Questions converts the document into questions of quizID, numbered per tier.
func (d *Document) Questions(quizID uuid.UUID) []model.Question {
	out := make([]model.Question, 0, d.Total())
	for _, t := range model.Tiers {
		for i, it := range d.Tier(t) {
			out = append(out, model.Question{
				ID:            uuid.New(),
				QuizID:        quizID,
				Tier:          t,
				Text:          strings.TrimSpace(it.Question),
				Choices:       it.Choices,
				CorrectAnswer: it.CorrectAnswer,
				OrderNum:      i + 1,
			})
		}
	}
	return out
}

// StripFences removes markdown code fences around generator output.
func StripFences(raw string) string {
	text := strings.TrimSpace(raw)
	text = strings.TrimSpace(openingFence.ReplaceAllString(text, ""))
	return strings.TrimSpace(closingFence.ReplaceAllString(text, ""))
}

// Parse validates raw generator output and decodes it.
func Parse(raw string) (*Document, error) {
	text := StripFences(raw)
	if text == "" {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidDocument)
	}

	inst, err := jsonschema.UnmarshalJSON(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile document schema: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	var doc Document
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	for _, t := range model.Tiers {
		for i, it := range doc.Tier(t) {
			q := model.Question{Choices: it.Choices, CorrectAnswer: it.CorrectAnswer}
			if !q.Valid() {
				return nil, fmt.Errorf("%w: %s[%d]: correct_answer %q is not one of the choices", ErrInvalidDocument, t, i, it.CorrectAnswer)
			}
		}
	}

	return &doc, nil
}
