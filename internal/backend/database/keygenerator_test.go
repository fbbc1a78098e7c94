package database

import (
	"regexp"
	"testing"
)

func Test_generateID_IsUniqueUUIDv4(t *testing.T) {
	// 8-4-4-4-12 lowercase hex, version nibble 4, variant 10xx
	uuidV4Pattern := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

	const n = 512
	seen := make(map[string]struct{}, n)

	for i := 0; i < n; i++ {
		got, err := generateID()
		if err != nil {
			t.Fatalf("generateID() returned error: %v", err)
		}
		if !uuidV4Pattern.MatchString(got) {
			t.Fatalf("generateID() returned invalid catalog id: %q", got)
		}
		if _, dup := seen[got]; dup {
			t.Fatalf("generateID() returned duplicate id: %q", got)
		}
		seen[got] = struct{}{}
	}
}
