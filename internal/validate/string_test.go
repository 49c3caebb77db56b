package validate

import (
	"errors"
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		constraints StringConstraints
		want        string
		wantErr     error
	}{
		{
			name:        "valid within bounds",
			input:       "2 bed flat in Hackney",
			constraints: StringConstraints{MinLength: 1, MaxLength: 100},
			want:        "2 bed flat in Hackney",
		},
		{
			name:        "empty not allowed",
			input:       "",
			constraints: StringConstraints{MinLength: 1},
			wantErr:     ErrEmpty,
		},
		{
			name:        "empty allowed",
			input:       "",
			constraints: StringConstraints{AllowEmpty: true},
			want:        "",
		},
		{
			name:        "trims whitespace",
			input:       "  hello  ",
			constraints: StringConstraints{TrimSpace: true},
			want:        "hello",
		},
		{
			name:        "too long",
			input:       strings.Repeat("x", 11),
			constraints: StringConstraints{MaxLength: 10},
			wantErr:     ErrStringTooLong,
		},
		{
			name:        "too short",
			input:       "ab",
			constraints: StringConstraints{MinLength: 3},
			wantErr:     ErrStringTooShort,
		},
		{
			name:        "multibyte counted as runes",
			input:       "日本語テキスト",
			constraints: StringConstraints{MaxLength: 6},
			want:        "日本語テキスト",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := String(tt.input, tt.constraints)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("String() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("String() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGroupName(t *testing.T) {
	if _, err := GroupName("Autumn House Hunt 2026"); err != nil {
		t.Errorf("GroupName unexpected error: %v", err)
	}
	if _, err := GroupName("bad<script>"); err == nil {
		t.Error("GroupName with markup expected error")
	}
	if _, err := GroupName(""); err == nil {
		t.Error("GroupName empty expected error")
	}
}

func TestListingTitleSanitizes(t *testing.T) {
	got, err := ListingTitle("Bright & airy studio")
	if err != nil {
		t.Fatalf("ListingTitle unexpected error: %v", err)
	}
	if strings.Contains(got, "&") && !strings.Contains(got, "&amp;") {
		t.Errorf("ListingTitle did not escape HTML: %q", got)
	}
}
