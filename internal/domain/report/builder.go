package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"

	"github.com/okian/handicap/internal/domain/factor"
	"github.com/okian/handicap/internal/domain/model"
)

const yardsPerFurlong = 220

// Input is everything the analysis produced for one race.
type Input struct {
	Contenders  model.Field
	Starts      model.PastStarts
	Tiers       model.Tiers
	Adjustments *model.Adjustments
	Pace        model.PaceScenario
}

// Option configures a Builder.
type Option func(*Builder)

// WithFactors sets the factor configuration shared with the grouper.
func WithFactors(cfg *factor.Config) Option {
	return func(b *Builder) {
		if cfg != nil {
			b.factors = cfg
		}
	}
}

// WithClock sets the time source for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// WithIDs sets the report id generator.
func WithIDs(next func() string) Option {
	return func(b *Builder) {
		if next != nil {
			b.nextID = next
		}
	}
}

// WithProcess sets the process name recorded in the metadata.
func WithProcess(name string) Option {
	return func(b *Builder) {
		if name != "" {
			b.process = name
		}
	}
}

// Builder turns analysis results into reports.
type Builder struct {
	factors *factor.Config
	now     func() time.Time
	nextID  func() string
	process string
}

// NewBuilder creates a report builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		factors: factor.NewConfig(),
		now:     time.Now,
		nextID:  uuid.NewString,
		process: DefaultProcess,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build assembles the report. in.Contenders must not be empty.
func (b *Builder) Build(in Input) Report {
	first := in.Contenders.Entries[0]
	tiers := in.Tiers.Clone()
	tiers.Normalize()

	var r Report
	r.Race = RaceIdentification{
		Track:           first.Track,
		RaceNumber:      first.RaceNumber,
		DistanceFurlong: factor.Round2(first.DistanceYards.Or(0) / yardsPerFurlong),
		Surface:         first.Surface,
		RaceType:        first.RaceType,
	}

	r.Summary.Groups = tiers
	r.Summary.PaceScenario = in.Pace
	r.Summary.WinContenders = []string{}
	favID := ""
	if fav, ok := in.Contenders.Favorite(); ok {
		favID = fav.ProgramNumber
		r.Summary.Favorite = &Favorite{
			ProgramNumber:  fav.ProgramNumber,
			Name:           fav.HorseName,
			Classification: classify(tiers, fav.ProgramNumber),
		}
	}
	for _, id := range tiers[model.Group1] {
		if id != favID {
			r.Summary.WinContenders = append(r.Summary.WinContenders, id)
		}
	}
	if len(r.Summary.WinContenders) > 0 {
		key := r.Summary.WinContenders[0]
		r.Summary.KeyHorse = &key
	}

	m := b.factors.Build(in.Contenders, in.Starts)
	r.Data.FactorMatrix = m.Render(NotAvailable)
	r.Data.FieldProfile = profile(m)
	if in.Adjustments != nil {
		r.Data.AdjustmentNotes = in.Adjustments.Notes()
	} else {
		r.Data.AdjustmentNotes = model.NewAdjustments(model.LastWins).Notes()
	}

	r.Metadata = Metadata{
		ReportID:    b.nextID(),
		GeneratedAt: b.now().UTC(),
		Process:     b.process,
	}
	return r
}

func classify(tiers model.Tiers, id string) string {
	tier, _ := tiers.Where(id)
	switch tier {
	case model.Group1:
		return Legitimate
	case model.Group2:
		return Vulnerable
	default:
		return False
	}
}

func profile(m factor.Matrix) map[string]Profile {
	out := make(map[string]Profile, len(m.Factors))
	for _, f := range m.Factors {
		values := m.Column(f.Name)
		if len(values) == 0 {
			continue
		}
		best, _ := m.Best(f)
		mean, _ := stats.Mean(values)
		median, _ := stats.Median(values)
		sd, _ := stats.StandardDeviation(values)
		out[f.Name] = Profile{
			Count:  len(values),
			Best:   factor.Round2(best),
			Mean:   factor.Round2(mean),
			Median: factor.Round2(median),
			StdDev: factor.Round2(sd),
		}
	}
	return out
}
