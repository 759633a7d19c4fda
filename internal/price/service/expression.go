package service

import (
	"regexp"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

var propertyToken = regexp.MustCompile(`^property\((\d+)\)$`)

// evaluateMultiplier evaluates a whitespace separated price calculation left
// to right, e.g. "property(12) * property(13) / 1000". Anything it cannot
// evaluate yields a multiplier of 1.
func evaluateMultiplier(expr string, values map[snowflake.ID]string) decimal.Decimal {
	tokens := strings.Fields(expr)
	if len(tokens) == 0 || len(tokens)%2 == 0 {
		return decimal.NewFromInt(1)
	}

	acc, ok := operand(tokens[0], values)
	if !ok {
		return decimal.NewFromInt(1)
	}
	for i := 1; i < len(tokens); i += 2 {
		rhs, ok := operand(tokens[i+1], values)
		if !ok {
			return decimal.NewFromInt(1)
		}
		switch tokens[i] {
		case "*":
			acc = acc.Mul(rhs)
		case "/":
			if rhs.IsZero() {
				return decimal.NewFromInt(1)
			}
			acc = acc.Div(rhs)
		case "+":
			acc = acc.Add(rhs)
		case "-":
			acc = acc.Sub(rhs)
		default:
			return decimal.NewFromInt(1)
		}
	}
	return acc
}

func operand(token string, values map[snowflake.ID]string) (decimal.Decimal, bool) {
	if m := propertyToken.FindStringSubmatch(token); m != nil {
		id, err := snowflake.ParseString(m[1])
		if err != nil {
			return decimal.Zero, false
		}
		raw, ok := values[id]
		if !ok {
			return decimal.Zero, false
		}
		token = strings.TrimSpace(raw)
	}
	d, err := decimal.NewFromString(token)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
