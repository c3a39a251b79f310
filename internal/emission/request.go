package emission

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Brownie44l1/carbon-api/internal/category"
)

// Request is a validated prediction request.
type Request struct {
	Category string
	Code     int
	Weight   float64
}

// Result is the body returned for a successful prediction.
type Result struct {
	PredictedEmission float64 `json:"predicted_emission"`
	Category          string  `json:"category"`
}

// ParseRequest validates a raw JSON body. Checks run in a fixed order and
// the first failure is returned: body, then category, then weight presence,
// then weight conversion.
func ParseRequest(body []byte, labels *category.Set) (Request, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Request{}, ErrMalformedRequest
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	if len(fields) == 0 {
		return Request{}, ErrMalformedRequest
	}

	var label string
	if raw, ok := fields["category"]; ok {
		// A non-string category is simply not a member of the set.
		_ = json.Unmarshal(raw, &label)
	}
	code, ok := labels.Code(label)
	if !ok {
		return Request{}, ErrInvalidCategory
	}

	raw, ok := fields["weight"]
	if !ok || isNull(raw) {
		return Request{}, ErrMissingWeight
	}
	weight, err := parseWeight(raw)
	if err != nil {
		return Request{}, err
	}

	return Request{Category: label, Code: code, Weight: weight}, nil
}

// parseWeight accepts a JSON number or a string holding one.
func parseWeight(raw json.RawMessage) (float64, error) {
	trimmed := bytes.TrimSpace(raw)

	var weight float64
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidWeight, err)
		}
		v, err := parseDecimal(s)
		if err != nil {
			return 0, fmt.Errorf("%w: could not convert string to float: %q", ErrInvalidWeight, s)
		}
		weight = v
	} else if err := json.Unmarshal(trimmed, &weight); err != nil {
		return 0, fmt.Errorf("%w: could not convert %s to float", ErrInvalidWeight, trimmed)
	}

	if math.IsNaN(weight) || math.IsInf(weight, 0) {
		return 0, fmt.Errorf("%w: weight must be finite, got %v", ErrInvalidWeight, weight)
	}
	return weight, nil
}

// parseDecimal parses a decimal float string. Hex floats such as "0x1p4"
// are rejected even though strconv accepts them.
func parseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	unsigned := strings.TrimLeft(s, "+-")
	if len(unsigned) > 1 && unsigned[0] == '0' && (unsigned[1] == 'x' || unsigned[1] == 'X') {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseFloat(s, 64)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
