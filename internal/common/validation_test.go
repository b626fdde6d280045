package common

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestValidatorRules(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		rules   []ValidationRule
		wantErr bool
	}{
		{"required ok", "x", []ValidationRule{Required}, false},
		{"required blank", "  ", []ValidationRule{Required}, true},
		{"positive int", 3, []ValidationRule{Positive}, false},
		{"positive zero", 0, []ValidationRule{Positive}, true},
		{"one of ok", "gcs", []ValidationRule{OneOf("s3", "gcs")}, false},
		{"one of miss", "ftp", []ValidationRule{OneOf("s3", "gcs")}, true},
		{"uuid ok", uuid.NewString(), []ValidationRule{UUID}, false},
		{"uuid bad", "job-42", []ValidationRule{UUID}, true},
		{"uuid wrong type", 42, []ValidationRule{UUID}, true},
		{"shorter than ok", time.Minute, []ValidationRule{ShorterThan("LIMIT", time.Hour)}, false},
		{"shorter than equal", time.Hour, []ValidationRule{ShorterThan("LIMIT", time.Hour)}, true},
		{"shorter than wrong type", 5, []ValidationRule{ShorterThan("LIMIT", time.Hour)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator().Field("f", tt.value, tt.rules...)
			assert.Equal(t, tt.wantErr, v.HasErrors(), v.ErrorMessage())
		})
	}
}

func TestValidatorCollectsAllErrors(t *testing.T) {
	v := NewValidator().
		Field("a", "", Required).
		Field("b", "nope", UUID)

	assert.Len(t, v.Errors(), 2)
	assert.Contains(t, v.ErrorMessage(), "a")
	assert.Contains(t, v.ErrorMessage(), "b")
}
