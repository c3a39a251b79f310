package emission

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Brownie44l1/carbon-api/internal/category"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    Request
		wantErr error
	}{
		{
			name: "numeric weight",
			body: `{"category": "Plastic", "weight": 2.5}`,
			want: Request{Category: "Plastic", Code: 0, Weight: 2.5},
		},
		{
			name: "integer weight",
			body: `{"category": "Chemical", "weight": 4}`,
			want: Request{Category: "Chemical", Code: 5, Weight: 4},
		},
		{
			name: "string weight",
			body: `{"category": "Glass", "weight": " 12.75 "}`,
			want: Request{Category: "Glass", Code: 2, Weight: 12.75},
		},
		{
			name: "negative weight is accepted",
			body: `{"category": "Steel", "weight": -3}`,
			want: Request{Category: "Steel", Code: 4, Weight: -3},
		},
		{name: "empty body", body: ``, wantErr: ErrMalformedRequest},
		{name: "whitespace body", body: "  \n", wantErr: ErrMalformedRequest},
		{name: "empty object", body: `{}`, wantErr: ErrMalformedRequest},
		{name: "null", body: `null`, wantErr: ErrMalformedRequest},
		{name: "array", body: `[1, 2]`, wantErr: ErrMalformedRequest},
		{name: "broken json", body: `{"category": "Metal"`, wantErr: ErrMalformedRequest},
		{name: "unknown category", body: `{"category": "Wood", "weight": 1}`, wantErr: ErrInvalidCategory},
		{name: "lowercase category", body: `{"category": "metal", "weight": 1}`, wantErr: ErrInvalidCategory},
		{name: "numeric category", body: `{"category": 1, "weight": 1}`, wantErr: ErrInvalidCategory},
		{name: "missing category", body: `{"weight": 1}`, wantErr: ErrInvalidCategory},
		{name: "bad category wins over missing weight", body: `{"category": "Wood"}`, wantErr: ErrInvalidCategory},
		{name: "missing weight", body: `{"category": "Metal"}`, wantErr: ErrMissingWeight},
		{name: "null weight", body: `{"category": "Metal", "weight": null}`, wantErr: ErrMissingWeight},
		{name: "non-numeric string", body: `{"category": "Metal", "weight": "abc"}`, wantErr: ErrInvalidWeight},
		{name: "boolean weight", body: `{"category": "Metal", "weight": true}`, wantErr: ErrInvalidWeight},
		{name: "object weight", body: `{"category": "Metal", "weight": {"kg": 1}}`, wantErr: ErrInvalidWeight},
		{name: "hex float string", body: `{"category": "Metal", "weight": "0x1p4"}`, wantErr: ErrInvalidWeight},
		{name: "negative hex float string", body: `{"category": "Metal", "weight": "-0X10"}`, wantErr: ErrInvalidWeight},
		{
			name: "signed decimal string",
			body: `{"category": "Metal", "weight": "+1e2"}`,
			want: Request{Category: "Metal", Code: 1, Weight: 100},
		},
		{name: "nan string", body: `{"category": "Metal", "weight": "NaN"}`, wantErr: ErrInvalidWeight},
		{name: "infinite string", body: `{"category": "Metal", "weight": "inf"}`, wantErr: ErrInvalidWeight},
	}

	labels := category.Waste()
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ParseRequest([]byte(test.body), labels)
			if test.wantErr != nil {
				if !errors.Is(err, test.wantErr) {
					t.Fatalf("ParseRequest(%s) error = %v, want %v", test.body, err, test.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRequest(%s) returned unexpected error: %v", test.body, err)
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("ParseRequest returned unexpected request, diff(-want, +got): %v", diff)
			}
		})
	}
}
