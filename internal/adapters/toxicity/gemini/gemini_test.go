package gemini

import "testing"

func TestParseVerdict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    float64
		wantErr bool
	}{
		{raw: `{"toxic": 0.93}`, want: 0.93},
		{raw: "```json\n{\"toxic\": 0.1}\n```", want: 0.1},
		{raw: `{"score": 0.5}`, wantErr: true},
		{raw: `{"toxic": 3}`, wantErr: true},
		{raw: `toxic`, wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseVerdict(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error, got %#v", tt.raw, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tt.raw, err)
		}
		if len(got) != 1 || got[0].Score != tt.want {
			t.Fatalf("%q: unexpected scores %#v", tt.raw, got)
		}
	}
}
