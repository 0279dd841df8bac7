package address

import (
	"errors"
	"testing"
)

func TestParseAndString(t *testing.T) {
	tests := []struct {
		in    string
		slots int
		want  Address
	}{
		{"ign:proj", 1, Address{Project: "proj"}},
		{"ign:proj:shots", 2, Address{Project: "proj", Group: "shots"}},
		{"ign:proj:shots:sq010/sh020", 3, Address{Project: "proj", Group: "shots", Context: "sq010/sh020"}},
		{"ign:proj:shots:sq010/sh020:lighting", 4, Address{Project: "proj", Group: "shots", Context: "sq010/sh020", Task: "lighting"}},
		{"ign:proj:shots::lighting", 4, Address{Project: "proj", Group: "shots", Task: "lighting"}},
		{"ign:proj:shots:sq010:lookdev:shader_v@v003", 5, Address{Project: "proj", Group: "shots", Context: "sq010", Task: "lookdev", Name: "shader_v", Version: "v003"}},
		{"ign:proj:shots:sq010:lookdev:shader_v@best", 5, Address{Project: "proj", Group: "shots", Context: "sq010", Task: "lookdev", Name: "shader_v", Alias: "best"}},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.in, err)
		}
		if got.Slots() != tt.slots {
			t.Fatalf("Parse(%q) slots = %d, want %d", tt.in, got.Slots(), tt.slots)
		}
		tt.want.slots = tt.slots
		if got != tt.want {
			t.Fatalf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
		if got.String() != tt.in {
			t.Fatalf("String() = %q, want %q", got.String(), tt.in)
		}
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	inputs := []string{
		"",
		"proj:shots",
		"ign:",
		"ign:proj:",
		"ign:proj:shots:",
		"ign:proj:shots:a:b:c:d",
		"ign:proj:shots:../x:task",
		"ign:proj:shots:ctx:task@v001",
		"ign:proj:shots:ctx:task:name@v",
		"ign:proj:shots:ctx:task:name@v000",
		"ign:proj:shots:ctx:task:name@newest",
		"ign:proj:shots:ctx:task:name@",
		"ign:proj:shots:ctx:task:name@v1@v2",
		"ign:proj:shots:ctx:task:a/b",
	}
	for _, in := range inputs {
		if _, err := Parse(in); !errors.Is(err, ErrInvalid) {
			t.Fatalf("Parse(%q) expected ErrInvalid, got %v", in, err)
		}
	}
}

func TestVersionHelpers(t *testing.T) {
	if got := VersionName(7, 3); got != "v007" {
		t.Fatalf("VersionName = %q", got)
	}
	if got := VersionName(1234, 3); got != "v1234" {
		t.Fatalf("VersionName overflow = %q", got)
	}
	if n, ok := ParseVersion("v012"); !ok || n != 12 {
		t.Fatalf("ParseVersion(v012) = %d, %v", n, ok)
	}
	for _, bad := range []string{"v", "012", "v0", "version1", "v01a"} {
		if _, ok := ParseVersion(bad); ok {
			t.Fatalf("ParseVersion(%q) should fail", bad)
		}
	}
}
