package domain

import "testing"

// FuzzParseAddress checks that parsing never panics and that accepted inputs
// round-trip to the same address.
func FuzzParseAddress(f *testing.F) {
	f.Add("")
	f.Add("z11111111111111111111111111111111")
	f.Add(Address{1, 2, 3}.String())
	f.Add("'; DROP TABLE identities;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		a, err := ParseAddress(input)
		if err != nil {
			return
		}
		again, err := ParseAddress(a.String())
		if err != nil {
			t.Fatalf("valid address failed round-trip: %v", err)
		}
		if again != a {
			t.Fatal("round-trip changed address")
		}
	})
}

func FuzzParseOwnerID(f *testing.F) {
	f.Add("wallet-1")
	f.Add("")
	f.Add("a b")
	f.Add("​zero-width")

	f.Fuzz(func(t *testing.T, input string) {
		o, err := ParseOwnerID(input)
		if err != nil {
			return
		}
		if o.IsZero() {
			t.Fatal("accepted empty owner")
		}
		if len(o) > MaxOwnerIDLength {
			t.Fatal("accepted oversized owner")
		}
	})
}
