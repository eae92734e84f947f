package testutil

import "testing"

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"TestFoo/bar_baz", "TestFoo-bar-baz"},
		{"a b!c", "abc"},
		{"TestAVeryLongNameThatKeepsGoingAndGoing", "TestAVeryLongNameThatKeepsGoin"},
	}
	for _, tt := range tests {
		if got := sanitizeName(tt.in); got != tt.want {
			t.Errorf("sanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFindFreePort(t *testing.T) {
	port, err := FindFreePort()
	if err != nil {
		t.Fatalf("FindFreePort() error = %v", err)
	}
	if port == "" || port == "0" {
		t.Errorf("unexpected port %q", port)
	}
}
