package tables_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/handicap/internal/adapters/tables"
	"github.com/okian/handicap/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"
)

const fieldCSV = `Track,Race_#,Program_Number_(if_available),Horse_Name,BRIS_Prime_Power_Rating,surface,bris_ped_turf,bris_ped_mud,BRIS_Run_Style_designation,Morn._Line_Odds(if_available),tj_combo_roi_365d
aqu,5,1,Alpha,145.5,d,80,90,e/p,5/2,
AQU,5,2,Bravo,NA,T,95,85,S,4.0,2.25

AQU,6,1,Charlie,130,D,,,P,3-1,N/A
`

func TestDecodeField(t *testing.T) {
	Convey("Given a field CSV with feed column names", t, func() {
		tbl, err := tables.ReadCSV(strings.NewReader(fieldCSV))
		So(err, ShouldBeNil)
		field, err := tables.DecodeField(tbl)
		So(err, ShouldBeNil)

		Convey("Then blank lines are skipped and columns are canonical", func() {
			So(field.Len(), ShouldEqual, 3)
			So(field.Columns.Has(model.ColPrimePower), ShouldBeTrue)
			So(field.Columns.Has(model.ColRunStyle), ShouldBeTrue)
			So(field.Columns.Has(model.ColPedDirt), ShouldBeFalse)
		})

		Convey("Then cells are typed", func() {
			e := field.Entries[0]
			So(e.Key(), ShouldResemble, model.RaceKey{Track: "AQU", Race: 5})
			So(e.PrimePower, ShouldResemble, model.Some(145.5))
			So(e.Surface, ShouldEqual, "D")
			So(e.RunStyle, ShouldEqual, "E/P")
			So(e.MorningLineOdds, ShouldResemble, model.Some(2.5))
			So(e.TJComboROI365.OK, ShouldBeFalse)
		})

		Convey("Then missing spellings become absent values", func() {
			So(field.Entries[1].PrimePower.OK, ShouldBeFalse)
			So(field.Entries[2].PedTurf.OK, ShouldBeFalse)
			So(field.Entries[2].MorningLineOdds, ShouldResemble, model.Some(3))
			So(field.Races(), ShouldResemble, []model.RaceKey{{Track: "AQU", Race: 5}, {Track: "AQU", Race: 6}})
		})
	})

	Convey("Given a field CSV with a malformed number", t, func() {
		tbl, err := tables.ReadCSV(strings.NewReader("program_number,bris_prime_power\n1,fast\n"))
		So(err, ShouldBeNil)
		_, err = tables.DecodeField(tbl)

		Convey("Then the error names the row and column", func() {
			So(errors.Is(err, tables.ErrMalformedNumber), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "row 2 column bris_prime_power")
		})
	})

	Convey("Given an empty CSV", t, func() {
		_, err := tables.ReadCSV(strings.NewReader(""))
		So(errors.Is(err, tables.ErrEmptyTable), ShouldBeTrue)
	})
}

func TestDecodePastStarts(t *testing.T) {
	Convey("Given a long past-starts CSV", t, func() {
		csv := "program_number,Race_Date,Surface,Track_Condition,pp_bris_speed,pp_bris_pace_2f\n" +
			"1,2024-03-01,D,ft,98,91\n" +
			"1,02/01/2024,T,SY,,\n"
		tbl, err := tables.ReadCSV(strings.NewReader(csv))
		So(err, ShouldBeNil)
		ps, err := tables.DecodePastStarts(tbl)
		So(err, ShouldBeNil)

		So(len(ps.Rows), ShouldEqual, 2)
		So(ps.Columns.Has(model.ColPPSurface), ShouldBeTrue)
		So(ps.Columns.Has(model.ColLatePace), ShouldBeFalse)
		So(ps.Rows[0].TrackCondition, ShouldEqual, "FT")
		So(ps.Rows[1].Date, ShouldEqual, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
		So(ps.Rows[1].Speed.OK, ShouldBeFalse)
	})

	Convey("Given a malformed date", t, func() {
		tbl, _ := tables.ReadCSV(strings.NewReader("program_number,pp_race_date\n1,yesterday\n"))
		_, err := tables.DecodePastStarts(tbl)
		So(errors.Is(err, tables.ErrMalformedDate), ShouldBeTrue)
	})
}

func TestDecodeWidePastStarts(t *testing.T) {
	Convey("Given a field table with numbered past-performance columns", t, func() {
		csv := "track_code,race_number,program_number,Race_Date_1,BRIS_Speed_Rating_1,Surface_1,Race_Date_2,BRIS_Speed_Rating_2,Surface_2\n" +
			"AQU,3,1,2024-03-01,95,D,2024-02-01,90,T\n" +
			"AQU,3,2,2024-03-05,88,D,,,\n"
		tbl, err := tables.ReadCSV(strings.NewReader(csv))
		So(err, ShouldBeNil)
		ps, err := tables.DecodeWidePastStarts(tbl)
		So(err, ShouldBeNil)

		Convey("Then each dated slot becomes one start, oldest first", func() {
			So(len(ps.Rows), ShouldEqual, 3)
			So(ps.Rows[0].Speed, ShouldResemble, model.Some(90))
			So(ps.Rows[0].Surface, ShouldEqual, "T")
			So(ps.Rows[1].Speed, ShouldResemble, model.Some(95))
			So(ps.Rows[2].ProgramNumber, ShouldEqual, "2")
			So(ps.Rows[2].Track, ShouldEqual, "AQU")
			So(ps.Columns.Has(model.ColSpeed), ShouldBeTrue)
			So(ps.Columns.Has(model.ColPace4F), ShouldBeFalse)
		})
	})
}

func TestFromRecords(t *testing.T) {
	Convey("Given JSON-style records", t, func() {
		tbl := tables.FromRecords([]map[string]any{
			{"program_number": "1", "bris_prime_power": 140.0},
			{"program_number": "2", "surface": "T"},
		})
		field, err := tables.DecodeField(tbl)

		So(err, ShouldBeNil)
		So(tbl.Headers, ShouldResemble, []string{"bris_prime_power", "program_number", "surface"})
		So(field.Entries[0].PrimePower, ShouldResemble, model.Some(140))
		So(field.Entries[1].PrimePower.OK, ShouldBeFalse)
		So(field.Entries[1].Surface, ShouldEqual, "T")
	})
}

func TestReadFile(t *testing.T) {
	Convey("Given table files on disk", t, func() {
		dir := t.TempDir()

		Convey("When reading a workbook", func() {
			path := filepath.Join(dir, "field.xlsx")
			wb := excelize.NewFile()
			So(wb.SetSheetRow("Sheet1", "A1", &[]any{"program_number", "bris_prime_power"}), ShouldBeNil)
			So(wb.SetSheetRow("Sheet1", "A2", &[]any{"7", 133.5}), ShouldBeNil)
			So(wb.SaveAs(path), ShouldBeNil)
			So(wb.Close(), ShouldBeNil)

			tbl, err := tables.ReadFile(path, "")
			So(err, ShouldBeNil)
			field, err := tables.DecodeField(tbl)
			So(err, ShouldBeNil)
			So(field.Entries[0].ProgramNumber, ShouldEqual, "7")
			So(field.Entries[0].PrimePower, ShouldResemble, model.Some(133.5))
		})

		Convey("When reading JSON records", func() {
			path := filepath.Join(dir, "field.json")
			So(os.WriteFile(path, []byte(`[{"program_number":"3","bris_prime_power":120}]`), 0o600), ShouldBeNil)
			tbl, err := tables.ReadFile(path, "")
			So(err, ShouldBeNil)
			So(tbl.Rows, ShouldResemble, [][]string{{"120", "3"}})
		})

		Convey("When the format is unknown", func() {
			_, err := tables.ReadFile(filepath.Join(dir, "field.parquet"), "")
			So(errors.Is(err, tables.ErrUnsupportedFormat), ShouldBeTrue)
		})
	})
}
