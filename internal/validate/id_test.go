package validate

import (
	"strings"
	"testing"
)

func TestUserID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"uuid", "b3f1c9e2-4a6d-4f0b-9c1e-8d2a5b7c9e11", false},
		{"simple", "alice", false},
		{"provider scoped", "auth0:alice.smith-01", false},
		{"empty", "", true},
		{"whitespace", "alice smith", true},
		{"path separator", "users/alice", true},
		{"too long", strings.Repeat("a", 129), true},
		{"max length", strings.Repeat("a", 128), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := UserID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("UserID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestGroupIDAndListingID(t *testing.T) {
	if err := GroupID("group-1"); err != nil {
		t.Errorf("GroupID(group-1) unexpected error: %v", err)
	}
	if err := GroupID(""); err == nil {
		t.Error("GroupID(\"\") expected error")
	}
	if err := ListingID("rightmove:142385906"); err != nil {
		t.Errorf("ListingID unexpected error: %v", err)
	}
	if err := ListingID("bad id"); err == nil {
		t.Error("ListingID with space expected error")
	}
}
