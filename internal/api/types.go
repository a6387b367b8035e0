package api

import (
	"fmt"

	"github.com/goccy/go-json"
)

type EncodeRequest struct {
	Input        *InputValue `json:"input,omitempty"`
	AddSpecial   *bool       `json:"add_special,omitempty"`
	ReturnTokens bool        `json:"return_tokens,omitempty"`
}

// InputValue accepts either a single string or an array of strings.
type InputValue struct {
	String *string
	Items  []string
}

func (v *InputValue) UnmarshalJSON(b []byte) error {
	if v == nil {
		return fmt.Errorf("input value: nil receiver")
	}
	if len(b) == 0 || string(b) == "null" {
		*v = InputValue{}
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("input value: %w", err)
		}
		v.String = &s
		v.Items = nil
		return nil
	case '[':
		var items []string
		if err := json.Unmarshal(b, &items); err != nil {
			return fmt.Errorf("input value: expected array of strings")
		}
		v.Items = items
		v.String = nil
		return nil
	default:
		return fmt.Errorf("input value: expected string or array")
	}
}

// Texts flattens the input into the list to encode.
func (v *InputValue) Texts() []string {
	if v == nil {
		return nil
	}
	if v.String != nil {
		return []string{*v.String}
	}
	return v.Items
}

type Encoding struct {
	Object string   `json:"object"`
	Index  int      `json:"index"`
	IDs    []int    `json:"ids"`
	Tokens []string `json:"tokens,omitempty"`
}

type Usage struct {
	TotalTokens int `json:"total_tokens"`
}

type EncodeResponse struct {
	ID        string     `json:"id"`
	Object    string     `json:"object"`
	CreatedAt int64      `json:"created_at"`
	Data      []Encoding `json:"data"`
	Usage     Usage      `json:"usage"`
}

type DecodeRequest struct {
	IDs         []int `json:"ids"`
	SkipSpecial bool  `json:"skip_special,omitempty"`
}

type DecodeResponse struct {
	ID        string `json:"id"`
	Object    string `json:"object"`
	CreatedAt int64  `json:"created_at"`
	Text      string `json:"text"`
}

type SpecialToken struct {
	Role  string `json:"role"`
	Token string `json:"token"`
	ID    int    `json:"id"`
}

type ModelResponse struct {
	Object        string         `json:"object"`
	Merges        int            `json:"merges"`
	VocabSize     int            `json:"vocab_size"`
	EndOfWord     string         `json:"end_of_word"`
	SpecialTokens []SpecialToken `json:"special_tokens"`
}

type VocabEntry struct {
	Object string `json:"object"`
	Token  string `json:"token"`
	ID     int    `json:"id"`
}

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}
