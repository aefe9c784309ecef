package format

import "testing"

func TestEscapeMarkdown(t *testing.T) {
	cases := []struct{ in, out string }{
		{"", ""},
		{"plain text", "plain text"},
		{"snake_case", "snake\\_case"},
		{"*bold* `code` [link", "\\*bold\\* \\`code\\` \\[link"},
		{"₹100 Voucher", "₹100 Voucher"},
	}
	for _, tc := range cases {
		if got := EscapeMarkdown(tc.in); got != tc.out {
			t.Fatalf("escape(%q) = %q, expected %q", tc.in, got, tc.out)
		}
	}
}
