// Package scoring holds the pure point rules applied when answers are judged.
package scoring

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// MaxBet is the largest accepted wager
const MaxBet = 2

// Score returns the signed points awarded for a judged answer.
//
// With a wager (bet > 0) a correct answer earns points*bet*multiplier and a
// wrong one loses the same amount. Without a wager a correct answer earns the
// question's points and a wrong one earns nothing.
func Score(points, betMultiplier int, correct bool, bet int) int {
	if betMultiplier < 1 {
		betMultiplier = 1
	}
	if bet > 0 {
		stake := points * bet * betMultiplier
		if correct {
			return stake
		}
		return -stake
	}
	if correct {
		return points
	}
	return 0
}

// ClampBet normalises a client supplied wager.
// Questions without wagering always store no bet. Otherwise the raw value is
// coerced to an integer and anything outside 0..MaxBet becomes 0.
func ClampBet(allowBet bool, raw json.RawMessage) *int {
	if !allowBet {
		return nil
	}
	bet := coerceBet(raw)
	if bet < 0 || bet > MaxBet {
		bet = 0
	}
	return &bet
}

func coerceBet(raw json.RawMessage) int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return truncate(n)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	s = strings.TrimSpace(s)
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return truncate(f)
	}
	return 0
}

func truncate(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt32 || f < math.MinInt32 {
		return -1
	}
	return int(f)
}

// BetValue returns the wager to score with; a missing bet counts as none
func BetValue(bet *int) int {
	if bet == nil {
		return 0
	}
	return *bet
}

// MatchesChoice compares a submitted answer against the answer key,
// ignoring case and surrounding whitespace
func MatchesChoice(submitted, correct string) bool {
	return strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(correct))
}
