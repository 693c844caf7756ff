package insight

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformedReply is wrapped by every error caused by a reply that is not
	// a JSON object of the expected shape.
	ErrMalformedReply = errors.New("malformed model reply")
	// ErrEmptyReply means the model returned no content at all.
	ErrEmptyReply = fmt.Errorf("%w: empty content", ErrMalformedReply)
)

// Keys of the reply object.
const (
	KeyRootReasons = "root_reasons"
	KeyActionables = "actionables"
	KeyBrief       = "brief"
	KeyDetails     = "details"
)

// itemKind records which of the accepted item shapes a reply item used.
type itemKind int

const (
	itemObject itemKind = iota // {"brief": "...", "details": "..."}
	itemText                   // "..." (single-value variant)
)

func (k itemKind) String() string {
	if k == itemText {
		return "text"
	}
	return "object"
}

// replyItem is one entry of root_reasons/actionables, resolved at decode time.
type replyItem struct {
	kind    itemKind
	brief   string
	details string
}

func (it *replyItem) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return errors.New("empty item")
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*it = replyItem{kind: itemText, brief: s}
		return nil
	case '{':
		var obj struct {
			Brief   string `json:"brief"`
			Details string `json:"details"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		*it = replyItem{kind: itemObject, brief: obj.Brief, details: obj.Details}
		return nil
	default:
		return fmt.Errorf("item must be a string or an object, got %s", truncate(b, 32))
	}
}

func (it replyItem) insight() Insight {
	return Insight{Brief: it.brief, Details: it.details}
}

type reply struct {
	RootReasons []replyItem `json:"root_reasons"`
	Actionables []replyItem `json:"actionables"`
}

// FromJSON builds a Set from a raw model reply. Missing or null lists become
// empty lists and missing brief/details become empty strings; anything that is
// not a JSON object of that shape is an ErrMalformedReply. Values are not normalized.
func FromJSON(data []byte) (*Set, error) {
	set, _, err := decodeReply(data)
	return set, err
}

// decodeReply is FromJSON plus the item shape the reply used:
// "object", "text", "mixed", or "" when both lists are empty.
func decodeReply(data []byte) (*Set, string, error) {
	data = stripCodeFence(bytes.TrimSpace(data))
	if len(data) == 0 {
		return nil, "", ErrEmptyReply
	}
	if data[0] != '{' {
		return nil, "", fmt.Errorf("%w: expected a JSON object, got %s", ErrMalformedReply, truncate(data, 32))
	}

	var r reply
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}

	set := NewSet()
	kinds := map[itemKind]bool{}
	for _, it := range r.RootReasons {
		kinds[it.kind] = true
		set.RootReasons = append(set.RootReasons, it.insight())
	}
	for _, it := range r.Actionables {
		kinds[it.kind] = true
		set.Actionables = append(set.Actionables, it.insight())
	}

	shape := ""
	switch {
	case len(kinds) > 1:
		shape = "mixed"
	case kinds[itemText]:
		shape = itemText.String()
	case kinds[itemObject]:
		shape = itemObject.String()
	}
	return set, shape, nil
}

// stripCodeFence removes a surrounding ``` or ```json fence some providers
// emit even in JSON mode.
func stripCodeFence(b []byte) []byte {
	if !bytes.HasPrefix(b, []byte("```")) {
		return b
	}
	b = b[3:]
	if nl := bytes.IndexByte(b, '\n'); nl >= 0 {
		b = b[nl+1:]
	} else {
		return nil
	}
	b = bytes.TrimSpace(b)
	b = bytes.TrimSuffix(b, []byte("```"))
	return bytes.TrimSpace(b)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return fmt.Sprintf("%q", b)
	}
	return fmt.Sprintf("%q...", b[:n])
}
