package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrMalformedInput is wrapped by every error caused by the log contents.
var ErrMalformedInput = errors.New("malformed input")

// MalformedInputError locates a structural problem in the log.
// Index is the top-level element (-1 when the document itself is broken),
// Msg the position inside a notify batch (-1 for top-level records) and
// Field the dotted path below that.
type MalformedInputError struct {
	Index  int
	Msg    int
	Field  string
	Reason string
}

func (e *MalformedInputError) Error() string {
	if p := e.Path(); p != "" {
		return fmt.Sprintf("malformed input at %s: %s", p, e.Reason)
	}
	return "malformed input: " + e.Reason
}

func (e *MalformedInputError) Unwrap() error {
	return ErrMalformedInput
}

// Path renders the location as [i].msg[j].field.
func (e *MalformedInputError) Path() string {
	var b strings.Builder
	if e.Index >= 0 {
		fmt.Fprintf(&b, "[%d]", e.Index)
	}
	if e.Msg >= 0 {
		fmt.Fprintf(&b, ".msg[%d]", e.Msg)
	}
	if e.Field != "" {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(e.Field)
	}
	return b.String()
}

func malformed(index, msg int, field, format string, args ...any) *MalformedInputError {
	return &MalformedInputError{Index: index, Msg: msg, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// fromValidation turns the most specific schema violation into a
// MalformedInputError.
func fromValidation(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return malformed(-1, -1, "", "%v", err)
	}

	leaf := deepest(ve)
	out := &MalformedInputError{Index: -1, Msg: -1, Reason: leaf.Message}

	tokens := pointerTokens(leaf.InstanceLocation)
	if missing, ok := missingProperty(leaf.Message); ok {
		tokens = append(tokens, missing)
	}

	if len(tokens) > 0 {
		if i, err := strconv.Atoi(tokens[0]); err == nil {
			out.Index = i
			tokens = tokens[1:]
		}
	}
	if len(tokens) > 1 && tokens[0] == "msg" {
		if j, err := strconv.Atoi(tokens[1]); err == nil {
			out.Msg = j
			tokens = tokens[2:]
		}
	}
	out.Field = strings.Join(tokens, ".")
	return out
}

// deepest returns the cause with the longest instance location, preferring
// the first one found on ties.
func deepest(ve *jsonschema.ValidationError) *jsonschema.ValidationError {
	best := ve
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			if best == ve || len(e.InstanceLocation) > len(best.InstanceLocation) {
				best = e
			}
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return best
}

func pointerTokens(ptr string) []string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return nil
	}
	parts := strings.Split(ptr, "/")
	for i, p := range parts {
		p = strings.ReplaceAll(p, "~1", "/")
		parts[i] = strings.ReplaceAll(p, "~0", "~")
	}
	return parts
}

func missingProperty(msg string) (string, bool) {
	const prefix = "missing properties:"
	if !strings.HasPrefix(msg, prefix) {
		return "", false
	}
	first := strings.TrimSpace(strings.Split(strings.TrimPrefix(msg, prefix), ",")[0])
	return strings.Trim(first, `"'`), true
}
