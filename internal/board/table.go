package board

import (
	"fmt"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// tokenValues pairs every board token with its vendor value string
// "<segment>-<multiplier>". Order follows the board firmware listing.
var tokenValues = [...][2]string{
	{"4.0@", "25-2"}, {"8.0@", "25-0"},
	{"3.3@", "20-0"}, {"3.4@", "20-3"}, {"3.5@", "20-1"}, {"3.6@", "20-2"},
	{"2.3@", "1-0"}, {"2.4@", "1-3"}, {"2.5@", "1-1"}, {"2.6@", "1-2"},
	{"1.2@", "18-0"}, {"1.4@", "18-3"}, {"1.5@", "18-1"}, {"1.6@", "18-2"},
	{"0.1@", "4-0"}, {"0.3@", "4-3"}, {"0.5@", "4-1"}, {"0.6@", "4-2"},
	{"0.0@", "13-0"}, {"0.2@", "13-3"}, {"0.4@", "13-1"}, {"4.5@", "13-2"},
	{"1.0@", "6-0"}, {"1.1@", "6-3"}, {"1.3@", "6-1"}, {"4.4@", "6-2"},
	{"2.0@", "10-0"}, {"2.1@", "10-3"}, {"2.2@", "10-1"}, {"4.3@", "10-2"},
	{"3.0@", "15-0"}, {"3.1@", "15-3"}, {"3.2@", "15-1"}, {"4.2@", "15-2"},
	{"9.1@", "2-0"}, {"9.0@", "2-3"}, {"9.2@", "2-1"}, {"8.2@", "2-2"},
	{"10.1@", "17-0"}, {"10.0@", "17-3"}, {"10.2@", "17-1"}, {"8.3@", "17-2"},
	{"7.1@", "3-0"}, {"7.0@", "3-3"}, {"7.2@", "3-1"}, {"8.4@", "3-2"},
	{"6.1@", "19-0"}, {"6.0@", "19-3"}, {"6.3@", "19-1"}, {"8.5@", "19-2"},
	{"11.1@", "7-0"}, {"11.2@", "7-3"}, {"11.4@", "7-1"}, {"8.6@", "7-2"},
	{"11.0@", "16-0"}, {"11.3@", "16-3"}, {"11.5@", "16-1"}, {"11.6@", "16-2"},
	{"6.2@", "8-0"}, {"6.4@", "8-3"}, {"6.5@", "8-1"}, {"6.6@", "8-2"},
	{"7.3@", "11-0"}, {"7.4@", "11-3"}, {"7.5@", "11-1"}, {"7.6@", "11-2"},
	{"10.3@", "14-0"}, {"10.4@", "14-3"}, {"10.5@", "14-1"}, {"10.6@", "14-2"},
	{"9.3@", "9-0"}, {"9.4@", "9-3"}, {"9.5@", "9-1"}, {"9.6@", "9-2"},
	{"5.0@", "12-0"}, {"5.3@", "12-3"}, {"5.5@", "12-1"}, {"5.6@", "12-2"},
	{"5.1@", "5-0"}, {"5.2@", "5-3"}, {"5.4@", "5-1"}, {"4.6@", "5-2"},
	{"BTN@", "BTN"}, {"OUT@", "OUT"},
}

// Table is the immutable token/value bijection.
type Table struct {
	forward *orderedmap.OrderedMap[string, ScoreValue]
	reverse map[ScoreValue]string
}

// table is built once at init; a broken listing panics before main runs.
var table = mustBuildTable()

func mustBuildTable() *Table {
	t, err := buildTable(tokenValues[:])
	if err != nil {
		panic(fmt.Sprintf("board: invalid token table: %v", err))
	}
	return t
}

func buildTable(pairs [][2]string) (*Table, error) {
	t := &Table{
		forward: orderedmap.New[string, ScoreValue](),
		reverse: make(map[ScoreValue]string, len(pairs)),
	}
	for _, p := range pairs {
		token, raw := p[0], p[1]
		value, err := ParseValue(raw)
		if err != nil {
			return nil, fmt.Errorf("token %q: %w", token, err)
		}
		if _, dup := t.forward.Get(token); dup {
			return nil, fmt.Errorf("duplicate token %q", token)
		}
		if other, dup := t.reverse[value]; dup {
			return nil, fmt.Errorf("tokens %q and %q both map to %s", other, token, value)
		}
		t.forward.Set(token, value)
		t.reverse[value] = token
	}
	return t, nil
}

// ParseValue parses a vendor value string: "<segment>-<multiplier>",
// "BTN" or "OUT".
func ParseValue(s string) (ScoreValue, error) {
	switch s {
	case buttonValue:
		return ButtonPressValue, nil
	case outValue:
		return OutOfBoundsValue, nil
	}

	seg, mul, ok := strings.Cut(s, "-")
	if !ok {
		return UnknownValue, fmt.Errorf("value %q is not <segment>-<multiplier>", s)
	}
	segment, err := strconv.Atoi(seg)
	if err != nil {
		return UnknownValue, fmt.Errorf("value %q: segment: %w", s, err)
	}
	multiplier, err := strconv.Atoi(mul)
	if err != nil {
		return UnknownValue, fmt.Errorf("value %q: multiplier: %w", s, err)
	}
	if segment < 0 || segment > MaxSegment {
		return UnknownValue, fmt.Errorf("value %q: segment out of range", s)
	}
	if multiplier < 0 || multiplier > MaxMultiplier {
		return UnknownValue, fmt.Errorf("value %q: multiplier out of range", s)
	}
	return ScoreValue{Kind: KindScore, Segment: segment, Multiplier: multiplier}, nil
}

// Lookup returns the value for token, exact match only.
func (t *Table) Lookup(token string) (ScoreValue, bool) {
	return t.forward.Get(token)
}

// Token returns the token mapped to v.
func (t *Table) Token(v ScoreValue) (string, bool) {
	token, ok := t.reverse[v]
	return token, ok
}

// Len returns the number of tokens.
func (t *Table) Len() int {
	return t.forward.Len()
}

// Tokens returns every token in table order.
func (t *Table) Tokens() []string {
	tokens := make([]string, 0, t.forward.Len())
	t.Each(func(token string, _ ScoreValue) bool {
		tokens = append(tokens, token)
		return true
	})
	return tokens
}

// Each calls fn for every entry in table order until fn returns false.
func (t *Table) Each(fn func(token string, v ScoreValue) bool) {
	for pair := t.forward.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// Default returns the Granboard token table.
func Default() *Table {
	return table
}
