package importer

const documentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["easy", "medium", "hard"],
  "properties": {
    "easy":   { "$ref": "#/$defs/tier" },
    "medium": { "$ref": "#/$defs/tier", "minItems": 1 },
    "hard":   { "$ref": "#/$defs/tier" }
  },
  "$defs": {
    "tier": {
      "type": "array",
      "items": { "$ref": "#/$defs/question" }
    },
    "question": {
      "type": "object",
      "required": ["question", "choices", "correct_answer"],
      "properties": {
        "question": { "type": "string", "minLength": 1 },
        "choices": {
          "type": "array",
          "minItems": 4,
          "maxItems": 4,
          "items": { "type": "string", "minLength": 1 }
        },
        "correct_answer": { "type": "string", "minLength": 1 }
      }
    }
  }
}`
