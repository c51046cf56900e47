package tables

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/okian/handicap/internal/domain/model"
)

var dateLayouts = []string{"2006-01-02", "20060102", "01/02/2006", "1/2/2006", time.RFC3339, "2006-01-02 15:04:05"}

var wideColumn = regexp.MustCompile(`^(.+)_(\d{1,2})$`)

// missing cell spellings.
var missing = map[string]struct{}{
	"": {}, "na": {}, "n/a": {}, "nan": {}, "null": {}, "none": {},
}

func isMissing(s string) bool {
	_, ok := missing[strings.ToLower(s)]
	return ok
}

type cellError struct {
	row    int
	column string
	err    error
}

func (e *cellError) Error() string {
	return fmt.Sprintf("row %d column %s: %v", e.row+2, e.column, e.err)
}

func (e *cellError) Unwrap() error { return e.err }

func parseNum(s string) (model.Num, error) {
	if isMissing(s) {
		return model.None(), nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return model.None(), fmt.Errorf("%w: %q", ErrMalformedNumber, s)
	}
	return model.Some(v), nil
}

// parseOdds accepts decimal odds or fractional odds such as "5/2" or "5-2".
func parseOdds(s string) (model.Num, error) {
	for _, sep := range []string{"/", "-"} {
		num, den, ok := strings.Cut(s, sep)
		if !ok || num == "" {
			continue
		}
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return model.None(), fmt.Errorf("%w: %q", ErrMalformedNumber, s)
		}
		return model.Some(n / d), nil
	}
	return parseNum(s)
}

func parseInt(s string) (int, error) {
	n, err := parseNum(s)
	if err != nil {
		return 0, err
	}
	if !n.OK {
		return 0, nil
	}
	if n.V != math.Trunc(n.V) {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrMalformedNumber, s)
	}
	return int(n.V), nil
}

func parseDate(s string) (time.Time, error) {
	if isMissing(s) {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
}

func text(s string) string {
	if isMissing(s) {
		return ""
	}
	return strings.ToUpper(s)
}

// index maps canonical column names to header positions. The first header
// mapping to a name wins.
func index(headers []string, canon func(string) string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		c := canon(h)
		if _, dup := idx[c]; !dup {
			idx[c] = i
		}
	}
	return idx
}

func columnsOf(idx map[string]int, known []string) model.Columns {
	cols := model.NewColumns()
	for _, k := range known {
		if _, ok := idx[k]; ok {
			cols[k] = struct{}{}
		}
	}
	return cols
}

type decoder struct {
	t   Table
	idx map[string]int
	row int
	err error
}

func (d *decoder) raw(col string) string {
	i, ok := d.idx[col]
	if !ok {
		return ""
	}
	return d.t.Cell(d.row, i)
}

func (d *decoder) fail(col string, err error) {
	if d.err == nil {
		d.err = &cellError{row: d.row, column: col, err: err}
	}
}

func (d *decoder) num(col string) model.Num {
	n, err := parseNum(d.raw(col))
	if err != nil {
		d.fail(col, err)
	}
	return n
}

func (d *decoder) odds(col string) model.Num {
	n, err := parseOdds(d.raw(col))
	if err != nil {
		d.fail(col, err)
	}
	return n
}

func (d *decoder) integer(col string) int {
	n, err := parseInt(d.raw(col))
	if err != nil {
		d.fail(col, err)
	}
	return n
}

func (d *decoder) date(col string) time.Time {
	t, err := parseDate(d.raw(col))
	if err != nil {
		d.fail(col, err)
	}
	return t
}

// DecodeField decodes the field table.
func DecodeField(t Table) (model.Field, error) {
	d := &decoder{t: t, idx: index(t.Headers, FieldColumn)}
	f := model.Field{Columns: columnsOf(d.idx, model.FieldColumnNames)}
	for d.row = range t.Rows {
		e := model.Entry{
			Track:            strings.ToUpper(d.raw(model.ColTrack)),
			RaceNumber:       d.integer(model.ColRaceNumber),
			ProgramNumber:    d.raw(model.ColProgramNumber),
			HorseName:        d.raw(model.ColHorseName),
			PrimePower:       d.num(model.ColPrimePower),
			PedDirt:          d.num(model.ColPedDirt),
			PedTurf:          d.num(model.ColPedTurf),
			PedMud:           d.num(model.ColPedMud),
			RunStyle:         text(d.raw(model.ColRunStyle)),
			Surface:          text(d.raw(model.ColSurface)),
			MorningLineOdds:  d.odds(model.ColMorningLineOdds),
			TJComboROI365:    d.num(model.ColTJComboROI),
			TJComboStarts365: d.num(model.ColTJComboStarts),
			DistanceYards:    d.num(model.ColDistanceYards),
			RaceType:         d.raw(model.ColRaceType),
		}
		if d.err != nil {
			return model.Field{}, fmt.Errorf("field: %w", d.err)
		}
		f.Entries = append(f.Entries, e)
	}
	return f, nil
}

// DecodePastStarts decodes a long past-starts table, one row per start.
func DecodePastStarts(t Table) (model.PastStarts, error) {
	d := &decoder{t: t, idx: index(t.Headers, PastStartColumn)}
	ps := model.PastStarts{Columns: columnsOf(d.idx, model.PastStartColumnNames)}
	for d.row = range t.Rows {
		s := d.start(func(col string) string { return col })
		if d.err != nil {
			return model.PastStarts{}, fmt.Errorf("past starts: %w", d.err)
		}
		ps.Rows = append(ps.Rows, s)
	}
	return ps, nil
}

// start decodes one past start, resolving each canonical column through name.
func (d *decoder) start(name func(string) string) model.PastStart {
	return model.PastStart{
		Track:          strings.ToUpper(d.raw(model.ColTrack)),
		RaceNumber:     d.integer(model.ColRaceNumber),
		ProgramNumber:  d.raw(model.ColProgramNumber),
		Date:           d.date(name(model.ColRaceDate)),
		Surface:        text(d.raw(name(model.ColPPSurface))),
		TrackCondition: text(d.raw(name(model.ColTrackCondition))),
		Speed:          d.num(name(model.ColSpeed)),
		Pace2F:         d.num(name(model.ColPace2F)),
		Pace4F:         d.num(name(model.ColPace4F)),
		LatePace:       d.num(name(model.ColLatePace)),
	}
}

// DecodeWidePastStarts unpivots the numbered past-performance columns of a
// field table (e.g. "pp_bris_speed_1" .. "pp_bris_speed_10") into a long
// past-starts table. Slots without a race date are skipped.
func DecodeWidePastStarts(t Table) (model.PastStarts, error) {
	idx := index(t.Headers, FieldColumn)
	slots := map[int]struct{}{}
	for i, h := range t.Headers {
		m := wideColumn.FindStringSubmatch(strings.TrimSpace(h))
		if m == nil {
			continue
		}
		canon, ok := widePrefixes[m[1]]
		if !ok {
			continue
		}
		n, _ := strconv.Atoi(m[2])
		slots[n] = struct{}{}
		idx[fmt.Sprintf("%s#%d", canon, n)] = i
	}

	cols := model.NewColumns()
	for _, k := range []string{model.ColTrack, model.ColRaceNumber, model.ColProgramNumber} {
		if _, ok := idx[k]; ok {
			cols[k] = struct{}{}
		}
	}
	for n := range slots {
		for _, k := range []string{model.ColRaceDate, model.ColPPSurface, model.ColTrackCondition, model.ColSpeed, model.ColPace2F, model.ColPace4F, model.ColLatePace} {
			if _, ok := idx[fmt.Sprintf("%s#%d", k, n)]; ok {
				cols[k] = struct{}{}
			}
		}
	}

	nums := make([]int, 0, len(slots))
	for n := range slots {
		nums = append(nums, n)
	}
	// slot 1 is the most recent start; emit oldest first
	slices.Sort(nums)
	slices.Reverse(nums)

	d := &decoder{t: t, idx: idx}
	ps := model.PastStarts{Columns: cols}
	for d.row = range t.Rows {
		for _, n := range nums {
			name := func(col string) string { return fmt.Sprintf("%s#%d", col, n) }
			if isMissing(d.raw(name(model.ColRaceDate))) {
				continue
			}
			s := d.start(name)
			if d.err != nil {
				return model.PastStarts{}, fmt.Errorf("past starts: %w", d.err)
			}
			ps.Rows = append(ps.Rows, s)
		}
	}
	return ps, nil
}
