// Package transformer coerces raw CSV cell text into typed cells according to
// the canonical field it belongs to.
//
// The policy is a pure function of (field, raw text):
//
//  1. Blank text (after trimming) or "nan" in any case is Null, whatever the
//     field.
//  2. Otherwise the field's Rule decides. A value the rule cannot parse is
//     Null, never an error: upstream data is routinely dirty at the cell
//     level.
//
// Fields with no specific rule pass through unchanged as Text.
package transformer

import (
	"math"
	"strconv"
	"strings"
	"time"

	"samfdw/internal/cell"
)

// Rule enumerates the coercion applied to a field.
type Rule uint8

const (
	RuleText     Rule = iota // pass-through
	RuleDateTime             // "2006-01-02 15:04:05", UTC
	RuleDate                 // "2006-01-02", midnight UTC
	RuleCurrency             // "$1,234.50" -> 1234.5
	RuleCode                 // numeric-looking codes rendered as integers, kept as text
	RuleBool                 // yes / no
)

const (
	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

var rules = map[string]Rule{
	"posted_date":       RuleDateTime,
	"response_deadline": RuleDateTime,
	"archive_date":      RuleDate,
	"award_date":        RuleDate,
	"award_amount":      RuleCurrency,
	"naics_code":        RuleCode,
	"cgac":              RuleCode,
	"active":            RuleBool,
}

// RuleFor returns the rule applied to field.
func RuleFor(field string) Rule {
	return rules[field]
}

// KindFor returns the cell kind a non-null value of field will have.
func KindFor(field string) cell.Kind {
	switch RuleFor(field) {
	case RuleDateTime, RuleDate:
		return cell.KindTimestamp
	case RuleCurrency:
		return cell.KindNumeric
	case RuleBool:
		return cell.KindBool
	default:
		return cell.KindText
	}
}

// Transform coerces raw for field.
func Transform(field, raw string) cell.Cell {
	return apply(RuleFor(field), raw)
}

func apply(r Rule, raw string) cell.Cell {
	if isNullText(raw) {
		return cell.Null{}
	}
	switch r {
	case RuleDateTime:
		return parseTimestamp(layoutDateTime, raw)
	case RuleDate:
		return parseTimestamp(layoutDate, raw)
	case RuleCurrency:
		return parseCurrency(raw)
	case RuleCode:
		return normalizeCode(raw)
	case RuleBool:
		return parseYesNo(raw)
	default:
		return cell.Text(raw)
	}
}

func isNullText(s string) bool {
	return strings.TrimSpace(s) == "" || strings.EqualFold(s, "nan")
}

// parseTimestamp parses s strictly against layout as a naive UTC time.
// time.Parse tolerates fractional seconds and one-digit hours, so the value
// must also format back to itself.
func parseTimestamp(layout, s string) cell.Cell {
	t, err := time.ParseInLocation(layout, s, time.UTC)
	if err != nil || t.Format(layout) != s {
		return cell.Null{}
	}
	return cell.Timestamp(t.Unix())
}

var currencyStripper = strings.NewReplacer("$", "", ",", "")

func parseCurrency(s string) cell.Cell {
	f, err := strconv.ParseFloat(currencyStripper.Replace(s), 64)
	if err != nil {
		return cell.Null{}
	}
	return cell.Numeric(f)
}

// normalizeCode renders numeric-looking codes ("541511.0") as integers and
// leaves anything else untouched. The result is always Text.
func normalizeCode(s string) cell.Cell {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return cell.Text(s)
	}
	return cell.Text(strconv.FormatFloat(math.Trunc(f), 'f', -1, 64))
}

func parseYesNo(s string) cell.Cell {
	switch {
	case strings.EqualFold(s, "yes"):
		return cell.Bool(true)
	case strings.EqualFold(s, "no"):
		return cell.Bool(false)
	default:
		return cell.Null{}
	}
}
