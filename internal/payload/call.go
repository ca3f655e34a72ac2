package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// CallingMessage is the outer envelope of a call event. Content holds the
// signaling document, either as a JSON string (usually escaped once more by
// the sending client) or, from newer clients, as an embedded object.
type CallingMessage struct {
	MessageBase
	Content json.RawMessage `json:"content"`
}

// CallContent is the inner signaling document.
type CallContent struct {
	Version string `json:"version"`
	Type    string `json:"type"`
	SessID  string `json:"sessid"`
	Resp    bool   `json:"resp"`
}

// Call is a decoded call event: envelope plus parsed content.
type Call struct {
	CallingMessage
	Signal CallContent
}

// DecodeCall parses a call event in two stages: the envelope first, then the
// signaling content inside it.
func DecodeCall(raw json.RawMessage) (*Call, error) {
	var envelope CallingMessage
	if err := unmarshal(raw, &envelope); err != nil {
		return nil, err
	}
	content, err := ParseCallContent(envelope.Content)
	if err != nil {
		return nil, err
	}
	return &Call{CallingMessage: envelope, Signal: *content}, nil
}

// ParseCallContent decodes the inner signaling document. A string value is
// unwrapped (and unescaped again when the client double-escaped it) before
// being parsed; as a last resort the document is run through jsonrepair.
func ParseCallContent(content json.RawMessage) (*CallContent, error) {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("%w: call content missing", ErrMalformed)
	}

	doc := string(trimmed)
	if trimmed[0] == '"' {
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("%w: call content: %v", ErrMalformed, err)
		}
	}

	for _, candidate := range candidates(doc) {
		var cc CallContent
		if err := json.Unmarshal([]byte(candidate), &cc); err != nil {
			continue
		}
		if cc.Type == "" {
			return nil, fmt.Errorf("%w: call content has no type", ErrMalformed)
		}
		return &cc, nil
	}
	return nil, fmt.Errorf("%w: call content is not a JSON document", ErrMalformed)
}

// candidates yields the inner document as given, once more unescaped, and the
// jsonrepair rendition of the unescaped form.
func candidates(doc string) []string {
	doc = strings.TrimSpace(doc)
	out := []string{doc}

	unescaped := doc
	if strings.Contains(doc, `\"`) {
		if s, err := strconv.Unquote(`"` + doc + `"`); err == nil {
			unescaped = s
			out = append(out, s)
		}
	}
	if repaired, err := jsonrepair.JSONRepair(unescaped); err == nil {
		out = append(out, repaired)
	}
	return out
}
