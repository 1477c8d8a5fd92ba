// Package schedule decides which trading days trigger a rebalance.
//
// Days are observed from the bar stream itself: a trading day is any UTC
// calendar day on which at least one bar arrives. The first observed day
// never triggers, since no boundary has been seen yet.
package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Frequency is how often a rule fires.
type Frequency string

// Frequencies
const (
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// MonthStart is the only anchor accepted for monthly rules.
const MonthStart = "month_start"

// Schedule errors
var (
	ErrUnknownFrequency = errors.New("unknown schedule frequency")
	ErrInvalidAnchor    = errors.New("invalid schedule anchor")
)

// Rule is a parsed schedule rule.
type Rule struct {
	Frequency Frequency
	Weekday   time.Weekday // weekly only
}

// ParseRule parses a frequency with its anchor: a weekday name for weekly
// rules, "month_start" for monthly ones.
func ParseRule(frequency, anchor string) (Rule, error) {
	anchor = strings.ToLower(strings.TrimSpace(anchor))

	switch Frequency(strings.ToLower(frequency)) {
	case Weekly:
		for d := time.Sunday; d <= time.Saturday; d++ {
			if strings.ToLower(d.String()) == anchor {
				return Rule{Frequency: Weekly, Weekday: d}, nil
			}
		}
		return Rule{}, fmt.Errorf("%w: %q is not a weekday", ErrInvalidAnchor, anchor)
	case Monthly:
		if anchor != MonthStart && anchor != "" {
			return Rule{}, fmt.Errorf("%w: monthly rules only support %q", ErrInvalidAnchor, MonthStart)
		}
		return Rule{Frequency: Monthly}, nil
	default:
		return Rule{}, fmt.Errorf("%w: %q", ErrUnknownFrequency, frequency)
	}
}

// String renders the rule in its configuration form.
func (r Rule) String() string {
	if r.Frequency == Weekly {
		return fmt.Sprintf("weekly/%s", strings.ToLower(r.Weekday.String()))
	}
	return string(r.Frequency) + "/" + MonthStart
}

// Schedule tracks day boundaries for one rule. Not safe for concurrent use.
type Schedule struct {
	rule      Rule
	lastDay   time.Time
	hasLast   bool
	firedWeek int // year*100 + ISO week of the last weekly trigger
}

// New creates a schedule for rule.
func New(rule Rule) *Schedule {
	return &Schedule{rule: rule}
}

// Rule returns the schedule rule.
func (s *Schedule) Rule() Rule { return s.rule }

// Observe is called with the timestamp of every bar, in order, before the
// bar is ingested. It returns the UTC day of at and whether that day opens
// with a trigger. A trigger fires at most once per day, on the first bar
// of the day.
//
// Weekly rules fire on the first trading day of an ISO week that falls on
// or after the anchor weekday, so a holiday on the anchor day moves the
// trigger to the next trading day of the same week. Monthly rules fire on
// the first trading day of each month.
func (s *Schedule) Observe(at time.Time) (day time.Time, fire bool) {
	day = truncateDay(at)

	if !s.hasLast {
		s.lastDay = day
		s.hasLast = true
		s.firedWeek = weekKey(day)
		return day, false
	}
	if !day.After(s.lastDay) {
		return day, false
	}

	prev := s.lastDay
	s.lastDay = day

	switch s.rule.Frequency {
	case Monthly:
		return day, day.Year() != prev.Year() || day.Month() != prev.Month()
	case Weekly:
		wk := weekKey(day)
		if wk == s.firedWeek || isoWeekday(day.Weekday()) < isoWeekday(s.rule.Weekday) {
			return day, false
		}
		s.firedWeek = wk
		return day, true
	}
	return day, false
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func weekKey(t time.Time) int {
	y, w := t.ISOWeek()
	return y*100 + w
}

// isoWeekday maps Monday..Sunday to 0..6.
func isoWeekday(d time.Weekday) int {
	return (int(d) + 6) % 7
}
