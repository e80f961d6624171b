package render

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formcollect/pkg/collect"
)

func TestSanitizeText(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"Ada", "Ada"},
		{"a@b.com", "a@b.com"},
		{"Tom & Jerry", "Tom & Jerry"},
		{"<b>Ada</b>", "Ada"},
		{`<script>alert("x")</script>Ada`, "Ada"},
		{`<img src=x onerror=alert(1)>Lovelace`, "Lovelace"},
		{"&lt;script&gt;alert(1)&lt;/script&gt;", ""},
		{"&lt;b&gt;Ada&lt;/b&gt;", "Ada"},
		{"&lt;img src=x onerror=alert(1)&gt;Lovelace", "Lovelace"},
		{"&amp;lt;img src=x onerror=alert(1)&amp;gt;Ada", "Ada"},
		{"&#60;i&#62;Ada&#60;/i&#62;", "Ada"},
		{"Tom &amp; Jerry", "Tom & Jerry"},
	}
	for _, tc := range cases {
		got := SanitizeText(tc.input)
		if got != tc.want {
			t.Fatalf("SanitizeText(%q): want %q, got %q", tc.input, tc.want, got)
		}
		if again := SanitizeText(got); again != got {
			t.Fatalf("SanitizeText(%q) is not stable: %q then %q", tc.input, got, again)
		}
	}
}

func TestSanitizeRecord_SkipsSecrets(t *testing.T) {
	record := collect.Record{
		"first-name":  collect.Single("<em>Ada</em>"),
		"password":    collect.Single("<b>pw</b>"),
		"acquisition": collect.Multi("<i>google</i>", "friend"),
		"terms":       collect.Multi(),
	}

	got := SanitizeRecord(record, collect.NewNames("password"))
	want := collect.Record{
		"first-name":  collect.Single("Ada"),
		"password":    collect.Single("<b>pw</b>"),
		"acquisition": collect.Multi("google", "friend"),
		"terms":       collect.Multi(),
	}
	if !want.Equal(got) {
		t.Fatalf("sanitized record mismatch (-want +got):\n%s", cmp.Diff(want.Map(), got.Map()))
	}
	if record.String("first-name") != "<em>Ada</em>" {
		t.Fatalf("input record mutated")
	}
}
