package sortedset

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

const (
	negativeInf int8 = -1
	positiveInf int8 = 1
)

// ScoreBorder represents a range boundary for ZRANGEBYSCORE style queries.
// A border may be a finite Value, possibly Exclude-d, or +inf/-inf.
type ScoreBorder struct {
	Inf     int8
	Value   float64
	Exclude bool
}

// greater returns whether the given value is less than the border (so the
// border is an upper bound satisfied by the value)
func (border *ScoreBorder) greater(value float64) bool {
	if border.Inf == negativeInf {
		return false
	} else if border.Inf == positiveInf {
		return true
	}
	if border.Exclude {
		return border.Value > value
	}
	return border.Value >= value
}

// less returns whether the given value is greater than the border (so the
// border is a lower bound satisfied by the value)
func (border *ScoreBorder) less(value float64) bool {
	if border.Inf == negativeInf {
		return true
	} else if border.Inf == positiveInf {
		return false
	}
	if border.Exclude {
		return border.Value < value
	}
	return border.Value <= value
}

// ParseScoreBorder parses a ZRANGEBYSCORE-style boundary token: "-inf",
// "+inf", "(1.5" (exclusive) or "1.5" (inclusive).
func ParseScoreBorder(s string) (*ScoreBorder, error) {
	if s == "inf" || s == "+inf" {
		return &ScoreBorder{Inf: positiveInf}, nil
	}
	if s == "-inf" {
		return &ScoreBorder{Inf: negativeInf}, nil
	}
	if strings.HasPrefix(s, "(") {
		value, err := strconv.ParseFloat(s[1:], 64)
		if err != nil {
			return nil, errors.New("ERR min or max is not a float")
		}
		return &ScoreBorder{Value: value, Exclude: true}, nil
	}
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, errors.New("ERR min or max is not a float")
	}
	return &ScoreBorder{Value: value}, nil
}

// NegativeInfBorder is the -inf boundary
var NegativeInfBorder = &ScoreBorder{Inf: negativeInf, Value: math.Inf(-1)}

// PositiveInfBorder is the +inf boundary
var PositiveInfBorder = &ScoreBorder{Inf: positiveInf, Value: math.Inf(1)}

// LexBorder represents a range boundary for ZRANGEBYLEX style queries. Lex
// ranges only make sense when every member shares the same score, since the
// skiplist breaks score ties by comparing members lexicographically; that
// tie-break is what RangeByLex below relies on.
type LexBorder struct {
	Inf     int8
	Value   string
	Exclude bool
}

func (border *LexBorder) greater(value string) bool {
	if border.Inf == negativeInf {
		return false
	} else if border.Inf == positiveInf {
		return true
	}
	if border.Exclude {
		return border.Value > value
	}
	return border.Value >= value
}

func (border *LexBorder) less(value string) bool {
	if border.Inf == negativeInf {
		return true
	} else if border.Inf == positiveInf {
		return false
	}
	if border.Exclude {
		return border.Value < value
	}
	return border.Value <= value
}

// ParseLexBorder parses a ZRANGEBYLEX-style boundary token: "-" and "+" for
// the unbounded ends, "[member" (inclusive) or "(member" (exclusive).
func ParseLexBorder(s string) (*LexBorder, error) {
	if s == "-" {
		return &LexBorder{Inf: negativeInf}, nil
	}
	if s == "+" {
		return &LexBorder{Inf: positiveInf}, nil
	}
	if strings.HasPrefix(s, "(") {
		return &LexBorder{Value: s[1:], Exclude: true}, nil
	}
	if strings.HasPrefix(s, "[") {
		return &LexBorder{Value: s[1:], Exclude: false}, nil
	}
	return nil, errors.New("ERR min or max not valid string range item")
}
