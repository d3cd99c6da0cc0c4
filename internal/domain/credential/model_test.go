package credential

import "testing"

func TestNormalizeSWID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want string
	}{
		{raw: "{ABCD-1234}", want: "{ABCD-1234}"},
		{raw: "abcd-1234", want: "{ABCD-1234}"},
		{raw: "  {abcd-1234}  ", want: "{ABCD-1234}"},
		{raw: "{AAA-BBB-CCC-DDD}", want: "{AAA-BBB-CCC-DDD}"},
		{raw: "", want: ""},
		{raw: "   ", want: ""},
		{raw: "{}", want: ""},
	}

	for _, tc := range cases {
		if got := NormalizeSWID(tc.raw); got != tc.want {
			t.Fatalf("NormalizeSWID(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestHashIsStable(t *testing.T) {
	t.Parallel()

	a := Hash("{AAA-BBB}")
	b := Hash("{AAA-BBB}")
	if a != b {
		t.Fatalf("hash not deterministic: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected hex sha256 digest, got %d chars", len(a))
	}
	if a == Hash("{AAA-BBC}") {
		t.Fatal("distinct inputs produced identical digests")
	}
}

func TestResolveBinding(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		stored   string
		incoming string
		want     string
	}{
		{name: "empty claims incoming", stored: "", incoming: "M1", want: "M1"},
		{name: "empty stays empty", stored: "", incoming: "", want: ""},
		{name: "real keeps itself on repeat", stored: "M1", incoming: "M1", want: "M1"},
		{name: "real survives anonymous refresh", stored: "M1", incoming: "", want: "M1"},
		{name: "real never displaced", stored: "M1", incoming: "M2", want: "M1"},
		{name: "ghost yields to real", stored: "GHOST001", incoming: "M2", want: "M2"},
		{name: "ghost survives anonymous refresh", stored: "GHOST001", incoming: "", want: "GHOST001"},
		{name: "incoming ghost never binds", stored: "", incoming: "GHOST009", want: ""},
		{name: "incoming ghost never displaces", stored: "M1", incoming: "GHOST009", want: "M1"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := ResolveBinding(tc.stored, tc.incoming); got != tc.want {
				t.Fatalf("ResolveBinding(%q, %q) = %q, want %q", tc.stored, tc.incoming, got, tc.want)
			}
		})
	}
}

func TestHasMember(t *testing.T) {
	t.Parallel()

	if (Credential{MemberID: "M1"}).HasMember() != true {
		t.Fatal("real member should count")
	}
	if (Credential{MemberID: "GHOST001"}).HasMember() {
		t.Fatal("ghost binding should not count as a member")
	}
	if (Credential{}).HasMember() {
		t.Fatal("empty binding should not count as a member")
	}
}
