package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Persona describes the author the story is written as.
// WritingTone and WritingToneDescription are filled by the server from the tone catalog.
type Persona struct {
	Age                    string `json:"age,omitempty"`
	Gender                 string `json:"gender,omitempty"`
	WritingTone            string `json:"writing_tone,omitempty"`
	WritingToneDescription string `json:"writing_tone_description,omitempty"`
}

// UnmarshalJSON accepts age as a JSON number or a string.
func (p *Persona) UnmarshalJSON(data []byte) error {
	var raw struct {
		Age                    json.RawMessage `json:"age"`
		Gender                 string          `json:"gender"`
		WritingTone            string          `json:"writing_tone"`
		WritingToneDescription string          `json:"writing_tone_description"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	age, err := parseAge(raw.Age)
	if err != nil {
		return err
	}

	*p = Persona{
		Age:                    age,
		Gender:                 raw.Gender,
		WritingTone:            raw.WritingTone,
		WritingToneDescription: raw.WritingToneDescription,
	}
	return nil
}

func parseAge(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "", nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("invalid age: %w", err)
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("invalid age %s: must be a number or a string", trimmed)
	}
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10), nil
	}
	return n.String(), nil
}
