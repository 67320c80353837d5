package hanconv

import "testing"

func TestReplaceQuotes(t *testing.T) {
	tests := []struct {
		name   string
		policy QuotationPolicy
		input  string
		want   string
	}{
		{
			name:   "no change",
			policy: QuotesNoChange,
			input:  "「你好」『世界』“hi”",
			want:   "「你好」『世界』“hi”",
		},
		{
			name:   "east asian to western",
			policy: QuotesWestern,
			input:  "「你好，『朋友』」",
			want:   "“你好，‘朋友’”",
		},
		{
			name:   "western to east asian",
			policy: QuotesEastAsian,
			input:  "“你好，‘朋友’”",
			want:   "「你好，『朋友』」",
		},
		{
			name:   "text without quotes",
			policy: QuotesWestern,
			input:  "沒有引號的句子。",
			want:   "沒有引號的句子。",
		},
		{
			name:   "empty text",
			policy: QuotesEastAsian,
			input:  "",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := replaceQuotes(tt.policy, tt.input)
			if got != tt.want {
				t.Errorf("replaceQuotes(%s, %q) = %q, want %q", tt.policy, tt.input, got, tt.want)
			}
		})
	}
}

func TestReplaceQuotes_RoundTrip(t *testing.T) {
	original := "「外層『內層』外層」"
	west := replaceQuotes(QuotesWestern, original)
	back := replaceQuotes(QuotesEastAsian, west)
	if back != original {
		t.Errorf("round trip = %q, want %q", back, original)
	}
}

func TestReplaceQuotes_SinglePass(t *testing.T) {
	// A replacement result must never be replaced again within the
	// same call, even though 「 maps to “ and “ maps back to 「.
	input := "「a」“b”"
	got := replaceQuotes(QuotesEastAsian, input)
	want := "「a」「b」"
	if got != want {
		t.Errorf("replaceQuotes = %q, want %q", got, want)
	}
}
