package board

// Translate maps a raw board token to its value. The match is exact: no
// trimming, no case folding. Anything outside the table is UnknownValue.
func Translate(token string) ScoreValue {
	if v, ok := table.Lookup(token); ok {
		return v
	}
	return UnknownValue
}

// TranslatePayload translates a notification payload.
func TranslatePayload(payload []byte) ScoreValue {
	return Translate(string(payload))
}

// Token returns the board token that produces v.
func Token(v ScoreValue) (string, bool) {
	return table.Token(v)
}

// Tokens returns every known token in table order.
func Tokens() []string {
	return table.Tokens()
}
