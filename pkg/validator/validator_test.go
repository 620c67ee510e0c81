package validator

import (
	"errors"
	"testing"

	"participa/internal/apperrors"
)

type voteRequest struct {
	ProposalID uint   `json:"proposal_id" validate:"required,gt=0"`
	VoteType   string `json:"vote_type" validate:"required,oneof=support oppose neutral"`
}

type proposalRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=10"`
	Description string `json:"description" validate:"max=20"`
	ProcessID   *uint  `json:"process_id" validate:"omitempty,gt=0"`
}

func TestValidateStruct(t *testing.T) {
	zero := uint(0)
	seven := uint(7)

	tests := []struct {
		name    string
		input   any
		wantKey string
	}{
		{
			name:  "valid vote",
			input: voteRequest{ProposalID: 3, VoteType: "support"},
		},
		{
			name:    "missing proposal",
			input:   voteRequest{VoteType: "support"},
			wantKey: "proposal_id",
		},
		{
			name:    "unknown vote type",
			input:   voteRequest{ProposalID: 3, VoteType: "maybe"},
			wantKey: "vote_type",
		},
		{
			name:    "blank vote type",
			input:   voteRequest{ProposalID: 3, VoteType: "   "},
			wantKey: "vote_type",
		},
		{
			name:  "valid proposal without process",
			input: &proposalRequest{Title: "Benches"},
		},
		{
			name:  "valid proposal with process",
			input: &proposalRequest{Title: "Benches", ProcessID: &seven},
		},
		{
			name:    "title too short",
			input:   &proposalRequest{Title: "ab"},
			wantKey: "title",
		},
		{
			name:    "title too long counts runes",
			input:   &proposalRequest{Title: "ääääääääääää"},
			wantKey: "title",
		},
		{
			name:  "multibyte title within limit",
			input: &proposalRequest{Title: "äääääääääá"},
		},
		{
			name:    "description too long",
			input:   &proposalRequest{Title: "Benches", Description: "this description is too long"},
			wantKey: "description",
		},
		{
			name:    "zero optional process",
			input:   &proposalRequest{Title: "Benches", ProcessID: &zero},
			wantKey: "process_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if tt.wantKey == "" {
				if err != nil {
					t.Errorf("ValidateStruct() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateStruct() expected error for %s", tt.wantKey)
			}
			if got := apperrors.KindName(err); got != "validation_failure" {
				t.Errorf("kind = %s, want validation_failure", got)
			}
			if got := apperrors.Key(err); got != tt.wantKey {
				t.Errorf("key = %s, want %s", got, tt.wantKey)
			}
		})
	}
}

func TestValidateStructRejectsNonStruct(t *testing.T) {
	if err := ValidateStruct("nope"); err == nil {
		t.Error("expected error for non-struct input")
	}
}

func TestValidateStructUndefinedRulePanics(t *testing.T) {
	type bad struct {
		Name string `validate:"no_such_rule"`
	}
	defer func() {
		if recover() == nil {
			t.Error("expected panic for undefined rule")
		}
	}()
	_ = ValidateStruct(bad{Name: "x"})
}

func TestValidateStructReportsFirstFieldInOrder(t *testing.T) {
	err := ValidateStruct(voteRequest{VoteType: "maybe"})
	if got := apperrors.Key(err); got != "proposal_id" {
		t.Errorf("key = %s, want proposal_id", got)
	}
}

func TestValidateStructMessages(t *testing.T) {
	tests := []struct {
		input any
		want  string
	}{
		{voteRequest{VoteType: "support"}, "is required"},
		{voteRequest{ProposalID: 1, VoteType: "maybe"}, "must be one of support, oppose, neutral"},
		{&proposalRequest{Title: "ab"}, "must be at least 3 characters"},
	}
	for _, tt := range tests {
		var appErr *apperrors.Error
		if !errors.As(ValidateStruct(tt.input), &appErr) {
			t.Fatalf("expected *apperrors.Error for %+v", tt.input)
		}
		if appErr.Message != tt.want {
			t.Errorf("message = %q, want %q", appErr.Message, tt.want)
		}
	}
}

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  hello  ", "hello"},
		{"hel\x00lo", "hello"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SanitizeString(tt.input); got != tt.expected {
			t.Errorf("SanitizeString(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
