package contender_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/handicap/internal/domain/contender"
	"github.com/okian/handicap/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleField() model.Field {
	names := []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo", "Foxtrot"}
	prime := []float64{145, 142, 140, 135, 130, 128}
	surface := []string{"D", "D", "T", "M", "D", "T"}
	dirt := []float64{100, 105, 90, 85, 95, 80}
	turf := []float64{80, 85, 110, 80, 90, 95}
	mud := []float64{90, 85, 80, 115, 70, 75}

	f := model.Field{Columns: model.NewColumns(model.FieldColumnNames...)}
	for i := range names {
		f.Entries = append(f.Entries, model.Entry{
			Track:         "TEST",
			RaceNumber:    5,
			ProgramNumber: string(rune('1' + i)),
			HorseName:     names[i],
			PrimePower:    model.Some(prime[i]),
			Surface:       surface[i],
			PedDirt:       model.Some(dirt[i]),
			PedTurf:       model.Some(turf[i]),
			PedMud:        model.Some(mud[i]),
		})
	}
	return f
}

func sampleStarts(withPace bool) model.PastStarts {
	ids := []string{"1", "1", "1", "2", "2", "2", "3", "3", "4", "4", "5", "5", "6", "6"}
	dates := []string{"2024-01-01", "2024-02-01", "2024-03-01", "2024-01-15", "2024-02-15", "2024-03-15", "2024-01-20", "2024-02-20", "2024-01-10", "2024-02-10", "2024-01-25", "2024-02-25", "2024-01-18", "2024-02-18"}
	speed := []float64{95, 92, 98, 90, 94, 91, 85, 88, 89, 92, 80, 82, 70, 75}
	p2 := []float64{90, 92, 91, 99, 86, 84, 80, 82, 81, 83, 75, 76, 98, 97}
	p4 := []float64{88, 89, 90, 92, 93, 91, 95, 96, 94, 95, 85, 86, 88, 87}
	late := []float64{93, 94, 95, 85, 86, 87, 98, 99, 90, 91, 92, 93, 80, 81}
	cond := []string{"FT", "FT", "FT", "FT", "FT", "FT", "FT", "FT", "FT", "FT", "FT", "FT", "SY", "M"}

	cols := []string{model.ColProgramNumber, model.ColRaceDate, model.ColSpeed, model.ColPPSurface, model.ColTrackCondition}
	if withPace {
		cols = append(cols, model.ColPace2F, model.ColPace4F, model.ColLatePace)
	}
	ps := model.PastStarts{Columns: model.NewColumns(cols...)}
	for i, id := range ids {
		d, _ := time.Parse("2006-01-02", dates[i])
		row := model.PastStart{
			ProgramNumber:  id,
			Date:           d,
			Surface:        "D",
			TrackCondition: cond[i],
			Speed:          model.Some(speed[i]),
		}
		if withPace {
			row.Pace2F = model.Some(p2[i])
			row.Pace4F = model.Some(p4[i])
			row.LatePace = model.Some(late[i])
		}
		ps.Rows = append(ps.Rows, row)
	}
	return ps
}

func TestIsolate(t *testing.T) {
	ctx := context.Background()

	Convey("Given the six-horse reference field", t, func() {
		field := sampleField()

		Convey("When past starts carry no pace figures", func() {
			out, err := contender.New().Isolate(ctx, field, sampleStarts(false))

			Convey("Then the contenders are the top four plus the turf pedigree switch", func() {
				So(err, ShouldBeNil)
				So(out.IDs(), ShouldResemble, []string{"1", "2", "3", "4", "6"})
			})
		})

		Convey("When past starts carry pace figures", func() {
			out, err := contender.New().Isolate(ctx, field, sampleStarts(true))

			Convey("Then the late-pace leader joins as well", func() {
				So(err, ShouldBeNil)
				So(out.IDs(), ShouldResemble, []string{"1", "2", "3", "4", "5", "6"})
			})
		})

		Convey("When the filter runs twice on the same input", func() {
			f := contender.New()
			a, _ := f.Isolate(ctx, field, sampleStarts(true))
			b, _ := f.Isolate(ctx, field, sampleStarts(true))
			So(a, ShouldResemble, b)
		})

		Convey("When the pedigree threshold is lowered", func() {
			starts := sampleStarts(false)
			base, _ := contender.New().Isolate(ctx, field, starts)
			th := contender.DefaultThresholds()
			th.PedigreeEdge = 3
			lower, _ := contender.New(contender.WithThresholds(th)).Isolate(ctx, field, starts)

			Convey("Then no contender is lost", func() {
				got := map[string]bool{}
				for _, id := range lower.IDs() {
					got[id] = true
				}
				for _, id := range base.IDs() {
					So(got[id], ShouldBeTrue)
				}
			})
		})
	})

	Convey("Given a field where only speed qualifies", t, func() {
		field := model.Field{Columns: model.NewColumns(model.FieldColumnNames...)}
		for i, id := range []string{"1", "2", "3", "4", "5", "6"} {
			field.Entries = append(field.Entries, model.Entry{
				ProgramNumber: id,
				PrimePower:    model.Some(float64(100 + i)),
				Surface:       "D",
			})
		}
		d := func(s string) time.Time { t, _ := time.Parse("2006-01-02", s); return t }
		starts := model.PastStarts{
			Columns: model.NewColumns(model.PastStartColumnNames...),
			Rows: []model.PastStart{
				{ProgramNumber: "1", Date: d("2024-01-01"), Speed: model.Some(97)},
				{ProgramNumber: "1", Date: d("2024-02-01"), Speed: model.Some(70)},
				{ProgramNumber: "1", Date: d("2024-03-01"), Speed: model.Some(71)},
				{ProgramNumber: "1", Date: d("2024-04-01"), Speed: model.Some(72)},
				{ProgramNumber: "2", Date: d("2024-04-01"), Speed: model.Some(100)},
				{ProgramNumber: "2", Date: d("2024-04-01"), Speed: model.Some(90)},
				{ProgramNumber: "3", Date: d("2024-04-01"), Speed: model.Some(86)},
			},
		}
		th := contender.Thresholds{PrimePowerTop: 1, SpeedMargin: 5, RecentStarts: 3, PaceTop: 1, PedigreeEdge: 5}
		out, err := contender.New(contender.WithThresholds(th)).Isolate(ctx, field, starts)

		Convey("Then the benchmark uses the last row of each horse's latest date", func() {
			// benchmark 90 from horse 2, threshold 85; horse 1's 97 is outside its last three starts
			So(err, ShouldBeNil)
			So(out.IDs(), ShouldResemble, []string{"2", "3", "6"})
		})
	})

	Convey("Given degenerate inputs", t, func() {
		f := contender.New()

		Convey("When the field is empty", func() {
			out, err := f.Isolate(ctx, model.Field{}, sampleStarts(false))
			So(errors.Is(err, model.ErrEmptyInput), ShouldBeTrue)
			So(out.Len(), ShouldEqual, 0)
		})

		Convey("When a required field column is absent", func() {
			field := sampleField()
			field.Columns = model.NewColumns(model.ColProgramNumber, model.ColPrimePower, model.ColSurface, model.ColPedTurf)
			_, err := f.Isolate(ctx, field, sampleStarts(false))
			So(errors.Is(err, model.ErrMissingColumn), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, model.ColPedMud)
		})

		Convey("When a required past-starts column is absent", func() {
			starts := sampleStarts(false)
			starts.Columns = model.NewColumns(model.ColProgramNumber, model.ColRaceDate)
			_, err := f.Isolate(ctx, sampleField(), starts)
			So(errors.Is(err, model.ErrMissingColumn), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, model.ColSpeed)
		})

		Convey("When no rule selects anyone", func() {
			field := model.Field{
				Columns: model.NewColumns(model.FieldColumnNames...),
				Entries: []model.Entry{{ProgramNumber: "1", Surface: "D"}},
			}
			out, err := f.Isolate(ctx, field, model.PastStarts{Columns: model.NewColumns(model.PastStartColumnNames...)})
			So(errors.Is(err, model.ErrNoContenders), ShouldBeTrue)
			So(out.Len(), ShouldEqual, 0)
		})
	})
}

func TestWetPedigree(t *testing.T) {
	Convey("Given a sloppy track where only mud pedigree can separate the field", t, func() {
		field := model.Field{Columns: model.NewColumns(model.FieldColumnNames...)}
		for i, id := range []string{"1", "2", "3"} {
			field.Entries = append(field.Entries, model.Entry{
				ProgramNumber: id,
				PrimePower:    model.Some(float64(130 - 10*i)),
				Surface:       model.SurfaceSlop,
				PedDirt:       model.Some(80),
				PedMud:        model.Some(90),
			})
		}
		d, _ := time.Parse("2006-01-02", "2024-02-01")
		starts := model.PastStarts{
			Columns: model.NewColumns(model.ColProgramNumber, model.ColRaceDate, model.ColSpeed, model.ColPPSurface, model.ColTrackCondition),
			Rows:    []model.PastStart{{ProgramNumber: "2", Date: d, Surface: "D", TrackCondition: "SY"}},
		}
		th := contender.DefaultThresholds()
		th.PrimePowerTop = 1

		out, err := contender.New(contender.WithThresholds(th)).Isolate(context.Background(), field, starts)

		Convey("Then the first-time wet runner joins the prime power leader", func() {
			So(err, ShouldBeNil)
			So(out.IDs(), ShouldResemble, []string{"1", "3"})
		})

		Convey("Then a horse with a prior sloppy start gets no wet edge", func() {
			So(out.IDs(), ShouldNotContain, "2")
			So(model.FirstSurfaceEdges(field.Entries[1], starts.History(field.IDs())), ShouldBeEmpty)
			edges := model.FirstSurfaceEdges(field.Entries[2], starts.History(field.IDs()))
			So(len(edges), ShouldEqual, 1)
			So(edges[0].Change, ShouldEqual, model.FirstWet)
			So(edges[0].Edge, ShouldEqual, 10.0)
		})
	})
}
