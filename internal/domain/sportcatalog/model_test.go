package sportcatalog

import "testing"

func TestSanitizeCharCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want string
	}{
		{raw: "ffl", want: "ffl"},
		{raw: "FFL", want: "ffl"},
		{raw: "  fhl  ", want: "fhl"},
		{raw: "sport_2", want: "sport_2"},
		{raw: "", want: "unk"},
		{raw: "drop table", want: "unk"},
		{raw: "ffl;--", want: "unk"},
		{raw: "waytoolongforatablename12345", want: "unk"},
		{raw: "FFL-1", want: "unk"},
	}

	for _, tc := range cases {
		if got := SanitizeCharCode(tc.raw); got != tc.want {
			t.Fatalf("SanitizeCharCode(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestTableName(t *testing.T) {
	t.Parallel()

	if got := TableName("ffl"); got != "ff_sport_ffl" {
		t.Fatalf("TableName(ffl) = %q", got)
	}
	if got := TableName("bad name"); got != "ff_sport_unk" {
		t.Fatalf("TableName(bad name) = %q", got)
	}
}
