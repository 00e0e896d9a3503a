package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xhit/go-str2duration/v2"
)

// Timeframe is a bar granularity such as "1m", "4h" or "1M" (one month).
// Values outside SupportedTimeframes are custom granularities.
type Timeframe string

const (
	Timeframe1m  Timeframe = "1m"
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
	Timeframe30m Timeframe = "30m"
	Timeframe1h  Timeframe = "1h"
	Timeframe4h  Timeframe = "4h"
	Timeframe1d  Timeframe = "1d"
	Timeframe1w  Timeframe = "1w"
	Timeframe1M  Timeframe = "1M"
)

const monthDuration = 30 * 24 * time.Hour

// SupportedTimeframes lists the granularities with first-class support
var SupportedTimeframes = []Timeframe{
	Timeframe1m, Timeframe5m, Timeframe15m, Timeframe30m,
	Timeframe1h, Timeframe4h, Timeframe1d, Timeframe1w, Timeframe1M,
}

// ParseTimeframe validates s and returns it as a Timeframe
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(strings.TrimSpace(s))
	if _, err := tf.parse(); err != nil {
		return "", err
	}
	return tf, nil
}

// IsCustom reports whether the timeframe is not one of SupportedTimeframes
func (t Timeframe) IsCustom() bool {
	for _, s := range SupportedTimeframes {
		if s == t {
			return false
		}
	}
	return true
}

// Duration returns the nominal bar length; months count as 30 days.
// Invalid timeframes return zero.
func (t Timeframe) Duration() time.Duration {
	d, err := t.parse()
	if err != nil {
		return 0
	}
	return d
}

func (t Timeframe) String() string { return string(t) }

func (t Timeframe) parse() (time.Duration, error) {
	s := string(t)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidTimeframe)
	}

	// str2duration reads "m" as minutes, so months need their own suffix
	if n, ok := strings.CutSuffix(s, "M"); ok {
		months, err := strconv.Atoi(n)
		if err != nil || months <= 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeframe, s)
		}
		return time.Duration(months) * monthDuration, nil
	}

	d, err := str2duration.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidTimeframe, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %q is not positive", ErrInvalidTimeframe, s)
	}
	return d, nil
}
