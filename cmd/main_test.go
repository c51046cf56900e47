package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/handicap/internal/adapters/repository"
	service "github.com/okian/handicap/internal/app"
	"github.com/okian/handicap/internal/config"
	"github.com/okian/handicap/internal/domain/model"
	"github.com/okian/handicap/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const fieldCSV = `track_code,race_number,program_number,horse_name,bris_prime_power,surface,bris_ped_dirt,bris_ped_turf,bris_ped_mud,bris_run_style,morning_line_odds,tj_combo_roi_365d,tj_combo_starts_365d,distance_yards,race_type
TEST,5,1,Alpha,145,D,100,80,90,,2,,,1320,
TEST,5,2,Bravo,142,D,105,85,85,,3,,,1320,
TEST,5,3,Charlie,140,T,90,110,80,,5,,,1320,
TEST,5,4,Delta,135,M,85,80,115,,8,,,1320,
TEST,5,5,Echo,130,D,95,90,70,,1.5,,,1320,
TEST,5,6,Foxtrot,128,T,80,95,75,,10,,,1320,
TEST,6,1,,,D,,,,,,,,,
`

const pastStartsCSV = `track_code,race_number,program_number,pp_race_date,pp_bris_speed,pp_surface,pp_track_condition
TEST,5,1,2024-01-01,95,D,FT
TEST,5,1,2024-02-01,92,D,FT
TEST,5,1,2024-03-01,98,D,FT
TEST,5,2,2024-01-15,90,D,FT
TEST,5,2,2024-02-15,94,D,FT
TEST,5,2,2024-03-15,91,D,FT
TEST,5,3,2024-01-20,85,D,FT
TEST,5,3,2024-02-20,88,D,FT
TEST,5,4,2024-01-10,89,D,FT
TEST,5,4,2024-02-10,92,D,FT
TEST,5,5,2024-01-25,80,D,FT
TEST,5,5,2024-02-25,82,D,FT
TEST,5,6,2024-01-18,70,D,SY
TEST,5,6,2024-02-18,75,D,M
`

func writeCard(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	field := filepath.Join(dir, "field.csv")
	starts := filepath.Join(dir, "past_starts.csv")
	if err := os.WriteFile(field, []byte(fieldCSV), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(starts, []byte(pastStartsCSV), 0o600); err != nil {
		t.Fatal(err)
	}
	return field, starts
}

func run(args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAnalyzeCommand(t *testing.T) {
	convey.Convey("Given a two-race card on disk", t, func() {
		field, starts := writeCard(t)

		convey.Convey("When analysing into the file store", func() {
			reports := filepath.Join(t.TempDir(), "reports")
			out, err := run("analyze", "--field", field, "--past-starts", starts, "--store", "file", "--out", reports)

			convey.Convey("Then each race is printed and the report is written", func() {
				convey.So(err, convey.ShouldBeNil)
				lines := strings.Split(strings.TrimSpace(out), "\n")
				convey.So(len(lines), convey.ShouldEqual, 2)
				convey.So(lines[0], convey.ShouldStartWith, "TEST-R5\treported\t")
				convey.So(lines[1], convey.ShouldStartWith, "TEST-R6\tskipped\t")
				_, statErr := os.Stat(filepath.Join(reports, "TEST", "race_5_report.json"))
				convey.So(statErr, convey.ShouldBeNil)
				_, statErr = os.Stat(filepath.Join(reports, "TEST", "race_6_report.json"))
				convey.So(os.IsNotExist(statErr), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When analysing into the sqlite store", func() {
			db := filepath.Join(t.TempDir(), "reports.db")
			_, err := run("analyze", "--field", field, "--past-starts", starts, "--store", "sqlite", "--out", db)
			convey.So(err, convey.ShouldBeNil)

			store, err := repository.NewSQLiteStore(context.Background(), db)
			convey.So(err, convey.ShouldBeNil)
			defer store.Close()
			rep, err := store.Get(context.Background(), model.RaceKey{Track: "TEST", Race: 5})
			convey.So(err, convey.ShouldBeNil)
			convey.So(rep.Race.RaceNumber, convey.ShouldEqual, 5)
		})

		convey.Convey("When the configuration file selects the memory store", func() {
			cfgPath := filepath.Join(t.TempDir(), "handicap.yaml")
			convey.So(os.WriteFile(cfgPath, []byte("report_store: memory\nworker_count: 2\n"), 0o600), convey.ShouldBeNil)
			defer func() { _ = os.Unsetenv(config.EnvFile) }()

			out, err := run("--config", cfgPath, "analyze", "--field", field, "--past-starts", starts)
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "TEST-R5\treported")
		})

		convey.Convey("When the store is unknown", func() {
			_, err := run("analyze", "--field", field, "--store", "s3")
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given no field file", t, func() {
		_, err := run("analyze")
		convey.So(errors.Is(err, errNoFieldFile), convey.ShouldBeTrue)
	})

	convey.Convey("Given a field file in an unsupported format", t, func() {
		path := filepath.Join(t.TempDir(), "field.txt")
		convey.So(os.WriteFile(path, []byte(fieldCSV), 0o600), convey.ShouldBeNil)
		_, err := run("analyze", "--field", path, "--store", "memory")
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestOpenStore(t *testing.T) {
	convey.Convey("Given each report store kind", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.ReportsDir = t.TempDir()
		cfg.SQLitePath = filepath.Join(t.TempDir(), "reports.db")

		for _, kind := range []string{config.StoreMemory, config.StoreFile, config.StoreSQLite} {
			cfg.ReportStore = kind
			store, err := openStore(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
			convey.So(store.Count(ctx), convey.ShouldEqual, 0)
			convey.So(store.Close(), convey.ShouldBeNil)
		}
	})
}

func TestServiceMetricsUpdater(t *testing.T) {
	convey.Convey("Given a service", t, func() {
		svc := service.New(service.WithLogger(logger.Nop()))

		convey.Convey("When updating service metrics", func() {
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("When the updater context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			done := make(chan struct{})
			go func() {
				startServiceMetricsUpdater(ctx, svc)
				close(done)
			}()

			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("updater did not stop")
			}
		})
	})
}
