package cli

import "testing"

func TestFirstNonEmpty(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   string
	}{
		{name: "all empty", values: []string{"", ""}, want: ""},
		{name: "first wins", values: []string{"a", "b"}, want: "a"},
		{name: "skips empty", values: []string{"", "b", "c"}, want: "b"},
		{name: "no values", values: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := firstNonEmpty(tt.values...); got != tt.want {
				t.Errorf("firstNonEmpty(%v) = %q, want %q", tt.values, got, tt.want)
			}
		})
	}
}
