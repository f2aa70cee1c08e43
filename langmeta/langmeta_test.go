package langmeta

import "testing"

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "pt_br", want: "pt-BR"},
		{in: " EN-us ", want: "en-US"},
		{in: "ru", want: "ru"},
		{in: "", want: ""},
	}

	for _, tc := range cases {
		got := canonicalize(tc.in)
		if got != tc.want {
			t.Fatalf("canonicalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFlagFromRegion(t *testing.T) {
	if got := FlagFromRegion("us"); got != "\U0001F1FA\U0001F1F8" {
		t.Fatalf("FlagFromRegion(us) = %q", got)
	}
	if got := FlagFromRegion("USA"); got != "" {
		t.Fatalf("FlagFromRegion(USA) = %q, want empty", got)
	}
	if got := FlagFromRegion("1A"); got != "" {
		t.Fatalf("FlagFromRegion(1A) = %q, want empty", got)
	}
}

func TestResolve(t *testing.T) {
	t.Run("native name", func(t *testing.T) {
		got := Resolve("fr")
		if got.Name != "français" {
			t.Fatalf("Resolve(fr).Name = %q", got.Name)
		}
	})

	t.Run("explicit region flag", func(t *testing.T) {
		got := Resolve("pt_BR")
		if got.Flag != FlagFromRegion("BR") {
			t.Fatalf("Resolve(pt_BR).Flag = %q", got.Flag)
		}
	})

	t.Run("likely region flag", func(t *testing.T) {
		got := Resolve("de")
		if got.Flag != FlagFromRegion("DE") {
			t.Fatalf("Resolve(de).Flag = %q", got.Flag)
		}
	})

	t.Run("invalid passthrough", func(t *testing.T) {
		got := Resolve("!!")
		if got.Name != "!!" || got.Flag != "" {
			t.Fatalf("unexpected invalid result: %#v", got)
		}
	})
}
