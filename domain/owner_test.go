package domain

import "testing"

func strPtr(s string) *string { return &s }

func TestOwnerDisplayName(t *testing.T) {
	cases := []struct {
		name  string
		owner Owner
		want  string
	}{
		{"farm name wins", Owner{FarmName: strPtr("Bluegrass Farm"), FirstName: strPtr("Ann"), LastName: strPtr("Smith")}, "Bluegrass Farm"},
		{"empty farm name falls through", Owner{FarmName: strPtr(""), FirstName: strPtr("Ann"), LastName: strPtr("Smith")}, "Ann Smith"},
		{"first and last", Owner{FirstName: strPtr("Ann"), LastName: strPtr("Smith")}, "Ann Smith"},
		{"last only", Owner{LastName: strPtr("Smith")}, "Smith"},
		{"first only", Owner{FirstName: strPtr("Ann")}, "Ann"},
		{"nothing set", Owner{}, "Unnamed Owner"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.owner.DisplayName(); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
