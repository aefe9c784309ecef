package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		data    string
		key     string
		payload string
	}{
		{"\fbuy|flipkart", "buy", "flipkart"},
		{"\fapprove|ord-123", "approve", "ord-123"},
		{"\fnoop", "noop", ""},
		{"plain", "plain", ""},
		{"", "", ""},
	}
	for _, tc := range cases {
		key, payload := ParseCallbackData(&tele.Callback{Data: tc.data})
		if key != tc.key || payload != tc.payload {
			t.Fatalf("parse(%q) = (%q, %q), expected (%q, %q)", tc.data, key, payload, tc.key, tc.payload)
		}
	}
}

func TestParseCallbackDataNil(t *testing.T) {
	key, payload := ParseCallbackData(nil)
	if key != "" || payload != "" {
		t.Fatalf("expected empty result for nil callback, got (%q, %q)", key, payload)
	}
}
