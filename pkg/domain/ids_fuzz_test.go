//go:build go1.18

package domain

import (
	"testing"
)

// FuzzParseUserID checks that parsing never panics and that accepted ids round-trip.
func FuzzParseUserID(f *testing.F) {
	f.Add("")
	f.Add("user_2bXkP9aQ")
	f.Add("auth0|64f1c2")
	f.Add("'; DROP TABLE users;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		parsed, err := ParseUserID(input)
		if err != nil {
			return
		}
		again, err := ParseUserID(parsed.String())
		if err != nil {
			t.Errorf("valid id failed round-trip: %v", err)
		}
		if again != parsed {
			t.Error("round-trip changed id value")
		}
	})
}

// FuzzParseOpportunityID checks that parsing never panics and never yields the nil UUID.
func FuzzParseOpportunityID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")

	f.Fuzz(func(t *testing.T, input string) {
		parsed, err := ParseOpportunityID(input)
		if err == nil && parsed.IsNil() {
			t.Error("nil UUID accepted")
		}
	})
}
