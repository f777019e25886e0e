// Package intake checks public swarm reports before they reach the
// lifecycle service: the payload must match a JSON schema, and free-text
// fields lose any markup.
package intake

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/swarmhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/swarmhub/internal/domain/models"
	"github.com/qri-io/jsonschema"
)

//go:embed inquiry.schema.json
var inquirySchema []byte

// FieldError is one schema violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Payload is the intake request body after validation.
type Payload struct {
	Address             string              `json:"address"`
	City                string              `json:"city"`
	LocationDescription string              `json:"location_description"`
	FullName            string              `json:"full_name"`
	PhoneNumber         string              `json:"phone_number"`
	AppearanceDate      string              `json:"appearance_date"`
	Status              string              `json:"status"`
	OnBehalf            bool                `json:"on_behalf"`
	Coordinates         *models.Coordinates `json:"coordinates"`
}

// Validator holds the compiled schema.
type Validator struct {
	schema *jsonschema.Schema
}

// New compiles the embedded inquiry schema.
func New() (*Validator, error) {
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal(inquirySchema, rs); err != nil {
		return nil, fmt.Errorf("intake schema: %w", err)
	}
	return &Validator{schema: rs}, nil
}

// Decode validates body and returns the sanitized payload. A non-empty
// []FieldError means the body was rejected; err reports a malformed body.
func (v *Validator) Decode(ctx context.Context, body []byte) (Payload, []FieldError, error) {
	verrs, err := v.schema.ValidateBytes(ctx, body)
	if err != nil {
		return Payload{}, nil, fmt.Errorf("invalid json: %w", err)
	}
	if len(verrs) > 0 {
		out := make([]FieldError, 0, len(verrs))
		for _, ke := range verrs {
			out = append(out, FieldError{
				Field:   strings.TrimPrefix(ke.PropertyPath, "/"),
				Message: ke.Message,
			})
		}
		return Payload{}, out, nil
	}

	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return Payload{}, nil, fmt.Errorf("invalid json: %w", err)
	}
	p.Address = htmlsanitize.PlainText(p.Address)
	p.City = htmlsanitize.PlainText(p.City)
	p.LocationDescription = htmlsanitize.PlainText(p.LocationDescription)
	p.FullName = htmlsanitize.PlainText(p.FullName)
	p.PhoneNumber = strings.TrimSpace(p.PhoneNumber)

	var fe []FieldError
	if p.Address == "" {
		fe = append(fe, FieldError{Field: "address", Message: "address is required"})
	}
	if p.City == "" {
		fe = append(fe, FieldError{Field: "city", Message: "city is required"})
	}
	if _, err := p.Appearance(); err != nil {
		fe = append(fe, FieldError{Field: "appearance_date", Message: "use RFC 3339 or YYYY-MM-DD"})
	}
	return p, fe, nil
}

// Appearance parses AppearanceDate. An empty value yields nil.
func (p Payload) Appearance() (*time.Time, error) {
	s := strings.TrimSpace(p.AppearanceDate)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("appearance_date %q: unrecognised format", s)
}
