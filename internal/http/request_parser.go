package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"budgify/internal/core"
)

// MaxBodyBytes caps every request body.
const MaxBodyBytes = 1 << 20

var errEmptyBody = errors.New("request body is empty")

// RequestBodyParser reads a JSON body once, within MaxBodyBytes, and decodes
// it into either a struct or a loose map. Numbers stay json.Number so amount
// coercion sees the client's digits.
type RequestBodyParser struct {
	r   *http.Request
	w   http.ResponseWriter
	raw []byte
}

func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	return &RequestBodyParser{r: r, w: w}
}

func (p *RequestBodyParser) read() error {
	if p.raw != nil {
		return nil
	}
	if ct := p.r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil || (mt != "application/json" && !strings.HasSuffix(mt, "+json")) {
			return &core.ValidationError{Reason: "content type must be application/json"}
		}
	}
	body, err := io.ReadAll(http.MaxBytesReader(p.w, p.r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &core.ValidationError{Reason: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), Err: tooLarge}
		}
		return fmt.Errorf("read request body: %w", err)
	}
	p.raw = bytes.TrimSpace(body)
	return nil
}

// Empty reports whether the body carried no JSON at all.
func (p *RequestBodyParser) Empty() (bool, error) {
	if err := p.read(); err != nil {
		return false, err
	}
	return len(p.raw) == 0, nil
}

// Decode unmarshals the body into dst. An empty body is an error unless
// allowEmpty is set, in which case dst is left untouched.
func (p *RequestBodyParser) Decode(dst any, allowEmpty bool) error {
	if err := p.read(); err != nil {
		return err
	}
	if len(p.raw) == 0 {
		if allowEmpty {
			return nil
		}
		return &core.ValidationError{Reason: errEmptyBody.Error(), Err: errEmptyBody}
	}
	dec := json.NewDecoder(bytes.NewReader(p.raw))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return &core.ValidationError{Reason: "malformed JSON body", Err: err}
	}
	if dec.More() {
		return &core.ValidationError{Reason: "body must hold a single JSON value"}
	}
	return nil
}

// Object decodes the body as a JSON object.
func (p *RequestBodyParser) Object() (map[string]any, error) {
	var out map[string]any
	if err := p.Decode(&out, false); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, &core.ValidationError{Reason: "body must be a JSON object"}
	}
	return out, nil
}

// stringValue reads an optional string field. Numbers are accepted in their
// text form; other types are rejected.
func stringValue(field string, v any) (string, error) {
	switch s := v.(type) {
	case nil:
		return "", nil
	case string:
		return s, nil
	case json.Number:
		return s.String(), nil
	}
	return "", &core.ValidationError{Field: field, Reason: "must be a string"}
}

// intValue reads an optional whole number, given as a number or numeric
// string.
func intValue(field string, v any) (*int, error) {
	var f float64
	switch n := v.(type) {
	case nil:
		return nil, nil
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return nil, &core.ValidationError{Field: field, Reason: "must be an integer", Err: err}
		}
		f = parsed
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil, &core.ValidationError{Field: field, Reason: "must be an integer", Err: err}
		}
		f = parsed
	default:
		return nil, &core.ValidationError{Field: field, Reason: "must be an integer"}
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return nil, &core.ValidationError{Field: field, Reason: "must be an integer"}
	}
	i := int(f)
	return &i, nil
}

// amountValue reads an optional money amount with the strict rules used for
// client input.
func amountValue(field string, v any) (*float64, error) {
	if v == nil {
		return nil, nil
	}
	amount, err := core.ParseAmount(v)
	if err != nil {
		return nil, &core.ValidationError{
			Field:  field,
			Reason: fmt.Sprintf("must be between 0 and %d", core.MaxAmount),
			Err:    err,
		}
	}
	return &amount, nil
}
