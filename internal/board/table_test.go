package board

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableIsBijection(t *testing.T) {
	tbl := Default()
	require.Equal(t, len(tokenValues), tbl.Len(), "every listed token MUST be in the table")

	seen := make(map[ScoreValue]string, tbl.Len())
	tbl.Each(func(token string, v ScoreValue) bool {
		other, dup := seen[v]
		assert.False(t, dup, "tokens %q and %q MUST NOT share value %s", other, token, v)
		seen[v] = token

		back, ok := tbl.Token(v)
		assert.True(t, ok)
		assert.Equal(t, token, back, "reverse lookup MUST return the original token")
		return true
	})
	assert.Len(t, seen, tbl.Len())
}

func TestTranslateEveryToken(t *testing.T) {
	for _, pair := range tokenValues {
		token, want := pair[0], pair[1]
		t.Run(token, func(t *testing.T) {
			got := Translate(token)
			assert.NotEqual(t, KindUnknown, got.Kind)
			assert.Equal(t, want, got.String())
		})
	}
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		token string
		want  ScoreValue
	}{
		{"4.0@", ScoreValue{Kind: KindScore, Segment: 25, Multiplier: 2}},
		{"8.0@", ScoreValue{Kind: KindScore, Segment: 25, Multiplier: 0}},
		{"3.4@", ScoreValue{Kind: KindScore, Segment: 20, Multiplier: 3}},
		{"4.6@", ScoreValue{Kind: KindScore, Segment: 5, Multiplier: 2}},
		{"10.0@", ScoreValue{Kind: KindScore, Segment: 17, Multiplier: 3}},
		{"BTN@", ButtonPressValue},
		{"OUT@", OutOfBoundsValue},
		{"not-a-real-token", UnknownValue},
		{"", UnknownValue},
		{"4.0", UnknownValue},
		{" 4.0@", UnknownValue},
		{"4.0@\n", UnknownValue},
		{"btn@", UnknownValue},
		{"BTN", UnknownValue},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Equal(t, tt.want, Translate(tt.token))
			})
		})
	}
}

func TestTranslatePayload(t *testing.T) {
	assert.Equal(t, ScoreValue{Kind: KindScore, Segment: 25, Multiplier: 2}, TranslatePayload([]byte("4.0@")))
	assert.Equal(t, UnknownValue, TranslatePayload(nil))
	assert.Equal(t, UnknownValue, TranslatePayload([]byte{0xff, 0x00}))
}

func TestOutOfBoundsIsDistinct(t *testing.T) {
	out := Translate("OUT@")
	assert.NotEqual(t, ButtonPressValue, out)
	assert.Equal(t, KindOutOfBounds, out.Kind)

	dart, ok := out.Dart()
	require.True(t, ok, "out-of-bounds MUST convert to a dart")
	assert.Equal(t, Dart{Segment: 0, Multiplier: 0}, dart)

	token, ok := Token(ScoreValue{Kind: KindScore, Segment: 0, Multiplier: 0})
	assert.False(t, ok, "no scoring token MAY collide with the out-of-bounds pair, got %q", token)
}

func TestTokensOrder(t *testing.T) {
	tokens := Tokens()
	require.Len(t, tokens, len(tokenValues))
	assert.Equal(t, "4.0@", tokens[0])
	assert.Equal(t, "OUT@", tokens[len(tokens)-1])
	for i, pair := range tokenValues {
		assert.Equal(t, pair[0], tokens[i])
	}
}

func TestBuildTableRejectsDuplicates(t *testing.T) {
	t.Run("duplicate token", func(t *testing.T) {
		_, err := buildTable([][2]string{{"4.0@", "25-2"}, {"4.0@", "25-0"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate token")
	})

	t.Run("duplicate value", func(t *testing.T) {
		_, err := buildTable([][2]string{{"4.0@", "25-2"}, {"9.9@", "25-2"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "both map to 25-2")
	})

	t.Run("invalid value", func(t *testing.T) {
		_, err := buildTable([][2]string{{"4.0@", "twenty"}})
		assert.Error(t, err)
	})
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in      string
		want    ScoreValue
		wantErr string
	}{
		{in: "20-3", want: ScoreValue{Kind: KindScore, Segment: 20, Multiplier: 3}},
		{in: "25-0", want: ScoreValue{Kind: KindScore, Segment: 25, Multiplier: 0}},
		{in: "BTN", want: ButtonPressValue},
		{in: "OUT", want: OutOfBoundsValue},
		{in: "20", wantErr: "not <segment>-<multiplier>"},
		{in: "x-1", wantErr: "segment"},
		{in: "1-y", wantErr: "multiplier"},
		{in: "26-1", wantErr: "segment out of range"},
		{in: "20-4", wantErr: "multiplier out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseValue(tt.in)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, strings.Contains(err.Error(), tt.wantErr), "error %q MUST mention %q", err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestScoreValueDart(t *testing.T) {
	_, ok := ButtonPressValue.Dart()
	assert.False(t, ok, "button press MUST NOT become a dart")

	_, ok = UnknownValue.Dart()
	assert.False(t, ok, "unknown MUST NOT become a dart")

	dart, ok := Translate("3.4@").Dart()
	require.True(t, ok)
	assert.Equal(t, 60, dart.Score())
	assert.Equal(t, "T20", dart.String())
	assert.False(t, dart.IsBull())

	bull, _ := Translate("4.0@").Dart()
	assert.True(t, bull.IsBull())
	assert.Equal(t, "D25", bull.String())
	assert.Equal(t, 50, bull.Score())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "score", KindScore.String())
	assert.Equal(t, "button", KindButtonPress.String())
	assert.Equal(t, "out", KindOutOfBounds.String())
	assert.Equal(t, "unknown", KindUnknown.String())
	assert.Equal(t, "ERROR", UnknownValue.String())
}
