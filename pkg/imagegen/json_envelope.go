package imagegen

import (
	"encoding/json"
	"fmt"
)

type jsonBlob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type jsonPart struct {
	Text       string    `json:"text,omitempty"`
	InlineData *jsonBlob `json:"inlineData,omitempty"`
	// REST の snake_case 表記も受け付けます。
	InlineDataSnake *struct {
		MIMEType string `json:"mime_type"`
		Data     string `json:"data"`
	} `json:"inline_data,omitempty"`
}

type jsonCandidate struct {
	Content struct {
		Parts []*jsonPart `json:"parts"`
	} `json:"content"`
	FinishReason string `json:"finishReason,omitempty"`
}

// JSONEnvelope は generateContent の REST 応答 JSON を読むエンベロープです。
// インラインデータは base64 のまま保持します。
type JSONEnvelope struct {
	Raw struct {
		Candidates []*jsonCandidate `json:"candidates"`
	}
}

// ParseJSONEnvelope は REST 応答の JSON を解析します。
func ParseJSONEnvelope(b []byte) (*JSONEnvelope, error) {
	env := &JSONEnvelope{}
	if err := json.Unmarshal(b, &env.Raw); err != nil {
		return nil, fmt.Errorf("invalid image response envelope: %w", err)
	}
	return env, nil
}

func (e *JSONEnvelope) Candidates() []Candidate {
	out := make([]Candidate, 0, len(e.Raw.Candidates))
	for _, c := range e.Raw.Candidates {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

func (e *JSONEnvelope) Parts(c Candidate) []Part {
	jc, ok := c.(*jsonCandidate)
	if !ok {
		return nil
	}
	out := make([]Part, 0, len(jc.Content.Parts))
	for _, p := range jc.Content.Parts {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (e *JSONEnvelope) InlineImage(p Part) (InlineData, bool) {
	jp, ok := p.(*jsonPart)
	if !ok {
		return InlineData{}, false
	}
	switch {
	case jp.InlineData != nil:
		return InlineData{MIMEType: jp.InlineData.MIMEType, Data: []byte(jp.InlineData.Data), Base64: true}, true
	case jp.InlineDataSnake != nil:
		return InlineData{MIMEType: jp.InlineDataSnake.MIMEType, Data: []byte(jp.InlineDataSnake.Data), Base64: true}, true
	default:
		return InlineData{}, false
	}
}
