package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// PeriodKind tags the two shapes a block period can take.
type PeriodKind string

const (
	PeriodSingle PeriodKind = "single"
	PeriodRange  PeriodKind = "range"
)

// ParsePeriodKind validates a kind string.
func ParsePeriodKind(s string) (PeriodKind, error) {
	switch k := PeriodKind(s); k {
	case PeriodSingle, PeriodRange:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidPeriod, s)
}

// Period is either a single calendar day or an inclusive date range. The
// zero value is invalid; build one with SingleDay or DateRange.
type Period struct {
	kind  PeriodKind
	start time.Time
	end   time.Time
}

// SingleDay returns a period covering exactly one date.
func SingleDay(date time.Time) Period {
	d := DateOf(date)
	return Period{kind: PeriodSingle, start: d, end: d}
}

// DateRange returns a period covering start through end inclusive.
func DateRange(start, end time.Time) (Period, error) {
	s, e := DateOf(start), DateOf(end)
	if s.After(e) {
		return Period{}, fmt.Errorf("%w: start %s is after end %s", ErrInvalidInterval, FormatDate(s), FormatDate(e))
	}
	return Period{kind: PeriodRange, start: s, end: e}, nil
}

// ParsePeriod builds a period from wire fields: date for a single day, or
// startDate and endDate for a range. Supplying both shapes is rejected.
func ParsePeriod(date, startDate, endDate string) (Period, error) {
	switch {
	case date != "" && (startDate != "" || endDate != ""):
		return Period{}, fmt.Errorf("%w: date cannot be combined with startDate/endDate", ErrInvalidPeriod)
	case date != "":
		d, err := ParseDate(date)
		if err != nil {
			return Period{}, err
		}
		return SingleDay(d), nil
	case startDate != "" && endDate != "":
		s, err := ParseDate(startDate)
		if err != nil {
			return Period{}, err
		}
		e, err := ParseDate(endDate)
		if err != nil {
			return Period{}, err
		}
		return DateRange(s, e)
	default:
		return Period{}, fmt.Errorf("%w: either date or startDate and endDate are required", ErrInvalidPeriod)
	}
}

// RehydratePeriod rebuilds a stored period, re-checking its invariant.
func RehydratePeriod(kind PeriodKind, start, end time.Time) (Period, error) {
	switch kind {
	case PeriodSingle:
		if !DateOf(start).Equal(DateOf(end)) {
			return Period{}, fmt.Errorf("%w: single period spans several days", ErrInvalidPeriod)
		}
		return SingleDay(start), nil
	case PeriodRange:
		return DateRange(start, end)
	}
	return Period{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidPeriod, kind)
}

func (p Period) Kind() PeriodKind { return p.kind }
func (p Period) Start() time.Time { return p.start }
func (p Period) End() time.Time   { return p.end }

// Date returns the day of a single-day period and false for ranges.
func (p Period) Date() (time.Time, bool) {
	if p.kind != PeriodSingle {
		return time.Time{}, false
	}
	return p.start, true
}

// IsZero reports whether p was never initialised.
func (p Period) IsZero() bool { return p.kind == "" }

// Interval normalises the period into an inclusive date interval.
func (p Period) Interval() DateInterval {
	return DateInterval{Start: p.start, End: p.end}
}

// Days returns the number of calendar days covered.
func (p Period) Days() int {
	return p.Interval().Days()
}

// Equal reports whether both periods have the same shape and dates.
func (p Period) Equal(other Period) bool {
	return p.kind == other.kind && p.start.Equal(other.start) && p.end.Equal(other.end)
}

func (p Period) String() string {
	if p.kind == PeriodSingle {
		return FormatDate(p.start)
	}
	return FormatDate(p.start) + ".." + FormatDate(p.end)
}

type periodJSON struct {
	Kind      PeriodKind `json:"kind"`
	Date      string     `json:"date,omitempty"`
	StartDate string     `json:"startDate,omitempty"`
	EndDate   string     `json:"endDate,omitempty"`
}

// MarshalJSON writes {kind:"single",date} or {kind:"range",startDate,endDate}.
func (p Period) MarshalJSON() ([]byte, error) {
	out := periodJSON{Kind: p.kind}
	switch p.kind {
	case PeriodSingle:
		out.Date = FormatDate(p.start)
	case PeriodRange:
		out.StartDate = FormatDate(p.start)
		out.EndDate = FormatDate(p.end)
	default:
		return nil, ErrInvalidPeriod
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the tagged form. A missing kind is inferred from
// which date fields are present.
func (p *Period) UnmarshalJSON(data []byte) error {
	var in periodJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch in.Kind {
	case PeriodSingle:
		if in.StartDate != "" || in.EndDate != "" {
			return fmt.Errorf("%w: single period carries range fields", ErrInvalidPeriod)
		}
	case PeriodRange:
		if in.Date != "" {
			return fmt.Errorf("%w: range period carries a date", ErrInvalidPeriod)
		}
	case "":
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidPeriod, in.Kind)
	}
	parsed, err := ParsePeriod(in.Date, in.StartDate, in.EndDate)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// DateInterval is an inclusive [Start, End] span of calendar dates.
type DateInterval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether the two inclusive intervals share at least one day.
func (i DateInterval) Overlaps(other DateInterval) bool {
	return !i.Start.After(other.End) && !other.Start.After(i.End)
}

// Contains reports whether date falls inside the interval.
func (i DateInterval) Contains(date time.Time) bool {
	d := DateOf(date)
	return !d.Before(i.Start) && !d.After(i.End)
}

// Days returns the inclusive day count.
func (i DateInterval) Days() int {
	return int(i.End.Sub(i.Start).Hours()/24) + 1
}
