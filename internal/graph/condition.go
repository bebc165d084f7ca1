package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/skyward-ai/skyward/internal/device"
	"github.com/skyward-ai/skyward/internal/types"
)

// Condition evaluation for mission graph edges.
//
// Edge conditions are predicates over live device telemetry, written by the
// upstream editor in a deliberately small grammar:
//
//	battery < 30
//	battery >= 50%
//	BATTERY == 100
//
// The subject is case-insensitive, the percent sign is optional, and no
// boolean composition is supported. An empty condition is unconditional.
// Unparseable text is rejected at graph submission by the validator rather
// than silently treated as true at evaluation time.

// compareOp is a comparison operator in an edge condition.
type compareOp int

const (
	opLT compareOp = iota
	opLE
	opGT
	opGE
	opEQ
)

func (op compareOp) String() string {
	switch op {
	case opLT:
		return "<"
	case opLE:
		return "<="
	case opGT:
		return ">"
	case opGE:
		return ">="
	case opEQ:
		return "=="
	default:
		return "?"
	}
}

// Condition is a parsed edge predicate. The zero value is not usable; obtain
// instances through ParseCondition.
type Condition struct {
	raw       string
	op        compareOp
	threshold int
}

// String returns the original condition text.
func (c *Condition) String() string {
	return c.raw
}

// Evaluate applies the predicate to the given telemetry snapshot.
// A nil condition is unconditional and evaluates true.
func (c *Condition) Evaluate(state device.State) bool {
	if c == nil {
		return true
	}
	switch c.op {
	case opLT:
		return state.Battery < c.threshold
	case opLE:
		return state.Battery <= c.threshold
	case opGT:
		return state.Battery > c.threshold
	case opGE:
		return state.Battery >= c.threshold
	case opEQ:
		return state.Battery == c.threshold
	default:
		return false
	}
}

// ParseCondition parses edge condition text. Empty or blank text yields a nil
// condition (unconditional). Anything that is not a recognized battery
// predicate is an error.
func ParseCondition(text string) (*Condition, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}

	tokens := tokenizeCondition(trimmed)
	if len(tokens) != 3 {
		return nil, types.NewError(types.GRAPH_BAD_CONDITION,
			fmt.Sprintf("unrecognized condition %q: expected <subject> <op> <number>", text))
	}

	if !strings.EqualFold(tokens[0], "battery") {
		return nil, types.NewError(types.GRAPH_BAD_CONDITION,
			fmt.Sprintf("unrecognized condition subject %q: only battery is supported", tokens[0]))
	}

	var op compareOp
	switch tokens[1] {
	case "<":
		op = opLT
	case "<=":
		op = opLE
	case ">":
		op = opGT
	case ">=":
		op = opGE
	case "==", "=":
		op = opEQ
	default:
		return nil, types.NewError(types.GRAPH_BAD_CONDITION,
			fmt.Sprintf("unrecognized operator %q in condition %q", tokens[1], text))
	}

	threshold, err := strconv.Atoi(strings.TrimSuffix(tokens[2], "%"))
	if err != nil {
		return nil, types.WrapError(types.GRAPH_BAD_CONDITION,
			fmt.Sprintf("invalid threshold %q in condition %q", tokens[2], text), err)
	}
	if threshold < 0 || threshold > 100 {
		return nil, types.NewError(types.GRAPH_BAD_CONDITION,
			fmt.Sprintf("battery threshold %d out of range 0..100", threshold))
	}

	return &Condition{raw: trimmed, op: op, threshold: threshold}, nil
}

// Evaluate parses and evaluates condition text against a telemetry snapshot.
// Empty text evaluates true (unconditional edge).
func Evaluate(text string, state device.State) (bool, error) {
	cond, err := ParseCondition(text)
	if err != nil {
		return false, err
	}
	return cond.Evaluate(state), nil
}

// tokenizeCondition splits condition text into subject, operator, and value
// tokens. Operators need not be whitespace-separated: "battery<30" is three
// tokens.
func tokenizeCondition(expr string) []string {
	var tokens []string
	i := 0

	for i < len(expr) {
		switch {
		case expr[i] == ' ' || expr[i] == '\t':
			i++

		case expr[i] == '<' || expr[i] == '>':
			if i+1 < len(expr) && expr[i+1] == '=' {
				tokens = append(tokens, expr[i:i+2])
				i += 2
			} else {
				tokens = append(tokens, expr[i:i+1])
				i++
			}

		case expr[i] == '=':
			if i+1 < len(expr) && expr[i+1] == '=' {
				tokens = append(tokens, "==")
				i += 2
			} else {
				tokens = append(tokens, "=")
				i++
			}

		default:
			start := i
			for i < len(expr) && !strings.ContainsRune(" \t<>=", rune(expr[i])) {
				i++
			}
			tokens = append(tokens, expr[start:i])
		}
	}

	return tokens
}
