// Package dice evaluates arithmetic dice-notation expressions such as
// "2d6+1d4-3": terms separated by + or -, each term either an integer
// literal or <count>d<sides> notation.
package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Guard rails against adversarial expressions. A single expression may not
// roll more dice, use bigger dice, or chain more terms than these allow.
const (
	MaxTerms = 32
	MaxCount = 100
	MaxSides = 10000
)

// Term is the evaluated form of a single expression term.
type Term struct {
	// Expression is the raw term text, e.g. "2d6" or "3".
	Expression string `json:"expression"`
	// Sign is +1 or -1 depending on the operator preceding the term.
	Sign int `json:"sign"`
	// Rolls holds the individual die results; empty for literal terms.
	Rolls []int `json:"rolls,omitempty"`
	// Value is the signed contribution of the term to the total.
	Value int `json:"value"`
}

// Result holds the full breakdown of an evaluated expression.
// Invariant: Total == sum of Terms[i].Value.
type Result struct {
	Expression string `json:"expression"`
	Total      int    `json:"total"`
	Terms      []Term `json:"terms"`
}

// Evaluate tokenizes the expression on sign boundaries and rolls every dice
// term using src. Malformed terms are skipped rather than rejected, matching
// the forgiving behavior users rely on when typing roll shorthand. Errors are
// returned only when an expression exceeds the size guard rails.
func Evaluate(expression string, src Source) (Result, error) {
	result := Result{Expression: expression}

	sign := 1
	termCount := 0
	for _, part := range splitTerms(expression) {
		part = strings.TrimSpace(part)

		switch part {
		case "":
			continue
		case "+":
			sign = 1
			continue
		case "-":
			sign = -1
			continue
		}

		// Sign separators don't count against the cap, only terms do.
		termCount++
		if termCount > MaxTerms {
			return Result{}, fmt.Errorf("dice: expression %q has more than %d terms", expression, MaxTerms)
		}

		term, ok, err := evaluateTerm(part, sign, src)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			continue
		}

		result.Terms = append(result.Terms, term)
		result.Total += term.Value
	}

	return result, nil
}

// splitTerms breaks "2d6+1d4-3" into ["2d6", "+", "1d4", "-", "3"].
func splitTerms(expression string) []string {
	var parts []string
	start := 0
	for i, c := range expression {
		if c == '+' || c == '-' {
			parts = append(parts, expression[start:i], string(c))
			start = i + 1
		}
	}
	return append(parts, expression[start:])
}

func evaluateTerm(part string, sign int, src Source) (Term, bool, error) {
	lower := strings.ToLower(part)

	dIdx := strings.Index(lower, "d")
	if dIdx < 0 {
		value, err := strconv.Atoi(lower)
		if err != nil {
			// Not a number, not dice notation - skip it.
			return Term{}, false, nil
		}
		return Term{Expression: part, Sign: sign, Value: sign * value}, true, nil
	}

	count := 1
	if countStr := lower[:dIdx]; countStr != "" {
		var err error
		count, err = strconv.Atoi(countStr)
		if err != nil || count < 1 {
			return Term{}, false, nil
		}
	}

	sides, err := strconv.Atoi(lower[dIdx+1:])
	if err != nil || sides < 1 {
		return Term{}, false, nil
	}

	if count > MaxCount {
		return Term{}, false, fmt.Errorf("dice: term %q rolls more than %d dice", part, MaxCount)
	}
	if sides > MaxSides {
		return Term{}, false, fmt.Errorf("dice: term %q exceeds %d sides", part, MaxSides)
	}

	term := Term{Expression: part, Sign: sign, Rolls: make([]int, count)}
	for i := range term.Rolls {
		roll := src.Intn(sides) + 1
		term.Rolls[i] = roll
		term.Value += sign * roll
	}

	return term, true, nil
}

// String returns a human-readable audit line, e.g. "2d6+3 = 12".
func (r Result) String() string {
	return fmt.Sprintf("%s = %d", r.Expression, r.Total)
}
