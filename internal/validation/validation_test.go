package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateRecordID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr string
	}{
		{"uuid", "3f1c2a9e-5b1d-4c7a-9e2f-0a1b2c3d4e5f", ""},
		{"opaque provider id", "hc:steps/2024-03-01T08:00:00Z#1", ""},
		{"unicode at limit", strings.Repeat("é", MaxRecordIDLength), ""},
		{"empty", "", "is required"},
		{"whitespace", "   ", "is required"},
		{"invalid utf8", "abc\xff", "must be valid UTF-8"},
		{"nul byte", "abc\x00def", "must not contain null bytes"},
		{"too long", strings.Repeat("a", MaxRecordIDLength+1), "exceeds maximum length of 256"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecordID(tt.id)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateRecordID() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateRecordID() = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRecordID_ReportsEveryProblem(t *testing.T) {
	err := ValidateRecordID(strings.Repeat("\x00", MaxRecordIDLength+1))

	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "id" {
		t.Fatalf("error = %v, want a *ValidationError for id", err)
	}
	for _, want := range []string{"null bytes", "maximum length"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestValidateULID(t *testing.T) {
	tests := []struct {
		value   string
		wantErr string
	}{
		{"01ARYZ6S41TSV4RRFFQ69G5FAV", ""},
		{"01hgw2n5e56f2zxqwrr78yqrz8", ""},
		{"00000000000000000000000000", ""},
		{"7ZZZZZZZZZZZZZZZZZZZZZZZZZ", ""},
		{"01ARYZ6S41", "26 characters"},
		{"01ARYZ6S41TSV4RRFFQ69G5FAVX", "26 characters"},
		{"", "26 characters"},
		{"01ARYZ6S41TSV4RRFFQ69GILOU", "invalid character"},
		{"01ARYZ6S41TSV4RRFFQ69G5FA!", "invalid character"},
		{"8ZZZZZZZZZZZZZZZZZZZZZZZZZ", "overflow"},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			err := ValidateULID("id", tt.value)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateULID(%q) = %v, want nil", tt.value, err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateULID(%q) = nil, want error", tt.value)
			}
			if err.Field != "id" || !strings.Contains(err.Message, tt.wantErr) {
				t.Errorf("ValidateULID(%q) = %+v, want %q", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestValidateEnum(t *testing.T) {
	modes := []string{"auto", "backfill", "reconcile"}

	if err := ValidateEnum("mode", "backfill", modes); err != nil {
		t.Errorf("ValidateEnum(backfill) = %v", err)
	}
	err := ValidateEnum("mode", "Backfill", modes)
	if err == nil {
		t.Fatal("ValidateEnum is case-insensitive, want exact match")
	}
	if err.Message != "must be one of: auto, backfill, reconcile" {
		t.Errorf("message = %q", err.Message)
	}
}

func TestValidateRange(t *testing.T) {
	tests := []struct {
		value float64
		ok    bool
	}{
		{1, true}, {20, true}, {100, true}, {0, false}, {101, false}, {-5, false},
	}
	for _, tt := range tests {
		err := ValidateRange("limit", tt.value, 1, 100)
		if (err == nil) != tt.ok {
			t.Errorf("ValidateRange(%v) = %v, want ok=%v", tt.value, err, tt.ok)
		}
		if err != nil && err.Message != "must be between 1.0 and 100.0" {
			t.Errorf("message = %q", err.Message)
		}
	}
}

func TestCollector(t *testing.T) {
	var c Collector
	c.Add(nil)
	if c.HasErrors() || c.Err() != nil || len(c.Errors()) != 0 {
		t.Fatal("empty collector reports errors")
	}

	c.Add(ValidateRequired("mode", ""))
	c.Add(ValidateRange("limit", 0, 1, 100))
	c.Add(ValidateEnum("mode", "auto", []string{"auto"}))

	if !c.HasErrors() {
		t.Fatal("HasErrors() = false")
	}
	errs := c.Errors()
	if len(errs) != 2 || errs[0].Field != "mode" || errs[1].Field != "limit" {
		t.Errorf("Errors() = %+v", errs)
	}
	if got := c.Err().Error(); got != "mode is required\nlimit must be between 1.0 and 100.0" {
		t.Errorf("Err() = %q", got)
	}
}
