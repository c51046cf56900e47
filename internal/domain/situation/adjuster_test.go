package situation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/handicap/internal/domain/model"
	"github.com/okian/handicap/internal/domain/situation"
	"github.com/smartystreets/goconvey/convey"
)

func styles(s ...string) model.Field {
	f := model.Field{Columns: model.NewColumns(model.FieldColumnNames...)}
	for i, rs := range s {
		f.Entries = append(f.Entries, model.Entry{ProgramNumber: string(rune('1' + i)), RunStyle: rs, Surface: "D"})
	}
	return f
}

func noStarts() model.PastStarts {
	return model.PastStarts{Columns: model.NewColumns(model.PastStartColumnNames...)}
}

func scenario() (model.Field, model.PastStarts) {
	runStyles := []string{"E", "P", "S", "E/P", "P"}
	surfaces := []string{"D", "T", "D", "D", "M"}
	dirt := []float64{100, 80, 95, 90, 85}
	turf := []float64{85, 105, 90, 88, 80}
	mud := []float64{90, 85, 92, 91, 110}
	roi := []float64{1.5, 0.8, 2.5, -0.5, 1.2}
	starts := []float64{10, 12, 15, 20, 5}

	field := model.Field{Columns: model.NewColumns(model.FieldColumnNames...)}
	past := noStarts()
	for i := range runStyles {
		id := string(rune('1' + i))
		field.Entries = append(field.Entries, model.Entry{
			Track:            "TEST",
			RaceNumber:       7,
			ProgramNumber:    id,
			RunStyle:         runStyles[i],
			Surface:          surfaces[i],
			PedDirt:          model.Some(dirt[i]),
			PedTurf:          model.Some(turf[i]),
			PedMud:           model.Some(mud[i]),
			TJComboROI365:    model.Some(roi[i]),
			TJComboStarts365: model.Some(starts[i]),
		})
		for d := 1; d <= 2; d++ {
			past.Rows = append(past.Rows, model.PastStart{
				ProgramNumber:  id,
				Date:           time.Date(2024, time.Month(d), 1, 0, 0, 0, 0, time.UTC),
				Surface:        "D",
				TrackCondition: "FT",
			})
		}
	}
	return field, past
}

func TestClassifyPace(t *testing.T) {
	convey.Convey("Given run-style mixes", t, func() {
		convey.So(situation.ClassifyPace(styles("E", "P", "S", "E/P", "P")), convey.ShouldEqual, model.LoneSpeed)
		convey.So(situation.ClassifyPace(styles("E", "E", "P")), convey.ShouldEqual, model.PaceDuel)
		convey.So(situation.ClassifyPace(styles("E/P", "E/P", "S")), convey.ShouldEqual, model.PaceDuel)
		convey.So(situation.ClassifyPace(styles("S", "E/P")), convey.ShouldEqual, model.LoneSpeed)
		convey.So(situation.ClassifyPace(styles("P", "S")), convey.ShouldEqual, model.Unclear)
	})
}

func TestAdjust(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given the reference situation", t, func() {
		field, past := scenario()
		initial := model.NewTiers([]string{"1", "4"}, []string{"2"}, []string{"3", "5"})
		res, err := situation.New().Adjust(ctx, initial, field, past)

		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then the pace is a lone speed", func() {
			convey.So(res.Pace, convey.ShouldEqual, model.LoneSpeed)
		})

		convey.Convey("Then upgrades move each horse up one tier", func() {
			convey.So(res.Tiers[model.Group1], convey.ShouldResemble, []string{"1", "2", "4"})
			convey.So(res.Tiers[model.Group2], convey.ShouldResemble, []string{"3", "5"})
			convey.So(res.Tiers[model.Group3], convey.ShouldResemble, []string{})
		})

		convey.Convey("Then each upgrade carries its reason", func() {
			convey.So(res.Adjustments.Reason(model.Upgrade, "1"), convey.ShouldEqual, situation.ReasonLoneSpeed)
			convey.So(res.Adjustments.Reason(model.Upgrade, "2"), convey.ShouldEqual, "Strong turf pedigree (105) for first turf start")
			convey.So(res.Adjustments.Reason(model.Upgrade, "3"), convey.ShouldEqual, "High ROI T/J Combo (2.5)")
			convey.So(res.Adjustments.Reason(model.Upgrade, "5"), convey.ShouldEqual, "Strong mud pedigree (110) for first wet track start")
			convey.So(res.Adjustments.Len(model.Downgrade), convey.ShouldEqual, 0)
		})

		convey.Convey("Then membership is conserved and the input is untouched", func() {
			convey.So(res.Tiers.Members(), convey.ShouldResemble, initial.Members())
			convey.So(initial[model.Group1], convey.ShouldResemble, []string{"1", "4"})
		})

		convey.Convey("Then a second pass over the same input is identical", func() {
			again, err := situation.New().Adjust(ctx, initial, field, past)
			convey.So(err, convey.ShouldBeNil)
			convey.So(again.Tiers, convey.ShouldResemble, res.Tiers)
			convey.So(again.Adjustments.Notes(), convey.ShouldResemble, res.Adjustments.Notes())
		})
	})

	convey.Convey("Given an early horse that also has a hot combo", t, func() {
		field, past := scenario()
		field.Entries[0].TJComboROI365 = model.Some(3.1)

		convey.Convey("When the last reason wins", func() {
			adj := situation.New().Signals(model.LoneSpeed, field, past)
			convey.So(adj.Reasons(model.Upgrade, "1"), convey.ShouldResemble, []string{"High ROI T/J Combo (3.1)"})
		})

		convey.Convey("When every reason is kept", func() {
			adj := situation.New(situation.WithReasonPolicy(model.KeepAll)).Signals(model.LoneSpeed, field, past)
			convey.So(adj.Reasons(model.Upgrade, "1"), convey.ShouldResemble, []string{situation.ReasonLoneSpeed, "High ROI T/J Combo (3.1)"})
			convey.So(adj.Reason(model.Upgrade, "1"), convey.ShouldEqual, situation.ReasonLoneSpeed+"; High ROI T/J Combo (3.1)")
		})
	})

	convey.Convey("Given a pace duel", t, func() {
		field := styles("E", "E", "P", "S")
		field.Entries[0].TJComboROI365 = model.Some(4)
		field.Entries[0].TJComboStarts365 = model.Some(12)
		initial := model.NewTiers([]string{"2"}, []string{"3"}, []string{"1", "4"})
		res, err := situation.New().Adjust(ctx, initial, field, noStarts())

		convey.So(err, convey.ShouldBeNil)
		convey.So(res.Pace, convey.ShouldEqual, model.PaceDuel)

		convey.Convey("Then closers move up and speed moves down", func() {
			convey.So(res.Tiers[model.Group1], convey.ShouldResemble, []string{"3"})
			convey.So(res.Tiers[model.Group2], convey.ShouldResemble, []string{"2", "4"})
		})

		convey.Convey("Then a horse with both signals goes up before it comes down", func() {
			g, _ := res.Tiers.Where("1")
			convey.So(g, convey.ShouldEqual, model.Group3)
			convey.So(res.Adjustments.Has(model.Upgrade, "1"), convey.ShouldBeTrue)
			convey.So(res.Adjustments.Has(model.Downgrade, "1"), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a turf horse that already raced on turf", t, func() {
		field, past := scenario()
		past.Rows[2].Surface = model.SurfaceTurf
		adj := situation.New().Signals(model.Unclear, field, past)
		convey.So(adj.Has(model.Upgrade, "2"), convey.ShouldBeFalse)
	})

	convey.Convey("Given invalid input", t, func() {
		a := situation.New()

		convey.Convey("When there are no contenders", func() {
			_, err := a.Adjust(ctx, model.NewTiers(nil, nil, nil), model.Field{}, noStarts())
			convey.So(errors.Is(err, model.ErrEmptyInput), convey.ShouldBeTrue)
		})

		convey.Convey("When the run style column is absent", func() {
			field, past := scenario()
			field.Columns = model.NewColumns(model.ColProgramNumber, model.ColSurface)
			_, err := a.Adjust(ctx, model.NewTiers(field.IDs(), nil, nil), field, past)
			convey.So(errors.Is(err, model.ErrMissingColumn), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, model.ColRunStyle)
		})
	})
}
