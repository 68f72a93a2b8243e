package insights

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	types "github.com/yungbote/neurobridge-personalization/internal/domain"
	"github.com/yungbote/neurobridge-personalization/internal/domain/personalization"
)

const (
	DimensionTimeOfDay = "time_of_day"
	DimensionWeekday   = "weekday"
	DimensionTool      = "tool"
)

type Config struct {
	// MinSamples is the smallest bucket that may produce an insight.
	MinSamples int
	// FullConfidenceSamples is the bucket size at which sample confidence saturates.
	FullConfidenceSamples int
	// FullConfidenceDeviation is the deviation, in standard deviations, at which
	// magnitude confidence saturates.
	FullConfidenceDeviation float64
	// SessionGap joins events without a session id into one window when they are
	// at most this far apart.
	SessionGap time.Duration
}

func DefaultConfig() Config {
	return Config{
		MinSamples:              5,
		FullConfidenceSamples:   20,
		FullConfidenceDeviation: 2.0,
		SessionGap:              30 * time.Minute,
	}
}

func (c Config) Validate() error {
	if c.MinSamples < 1 {
		return fmt.Errorf("min_samples must be positive, got %d", c.MinSamples)
	}
	if c.FullConfidenceSamples < 1 {
		return fmt.Errorf("full_confidence_samples must be positive, got %d", c.FullConfidenceSamples)
	}
	if c.FullConfidenceDeviation <= 0 {
		return fmt.Errorf("full_confidence_deviation must be positive, got %f", c.FullConfidenceDeviation)
	}
	if c.SessionGap < 0 {
		return fmt.Errorf("session_gap must be non-negative, got %s", c.SessionGap)
	}
	return nil
}

// Finding is one bucket whose signal deviates from the learner's overall mean.
type Finding struct {
	Type        types.InsightType
	Dimension   string
	Bucket      string
	BucketKey   string
	SampleCount int
	BucketMean  float64
	OverallMean float64
	StdDev      float64
	Deviation   float64
	Confidence  float64
	Priority    types.Priority
	Title       string
	Message     string
}

// Analyzer turns a usage history into findings. It is pure and safe for concurrent use.
type Analyzer struct {
	cfg Config
}

func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{cfg: cfg}, nil
}

type sample struct {
	dimension string
	bucket    string
	label     string
	value     float64
}

type metric struct {
	name      string
	peak, dip types.InsightType
	unit      string
}

var (
	energyMetric  = metric{name: "energy", peak: personalization.InsightEnergyPeak, dip: personalization.InsightEnergyDip, unit: "self-reported energy"}
	successMetric = metric{name: "success", peak: personalization.InsightSuccessPeak, dip: personalization.InsightSuccessDip, unit: "completion rate"}
)

// Analyze buckets events by time of day, weekday and tool, and reports every
// bucket with enough samples whose mean sits more than one population standard
// deviation from the overall mean. Output order is deterministic.
func (a *Analyzer) Analyze(events []*types.UsageEvent) []Finding {
	if len(events) == 0 {
		return nil
	}
	sorted := make([]*types.UsageEvent, 0, len(events))
	for _, ev := range events {
		if ev != nil {
			sorted = append(sorted, ev)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].OccurredAt.Before(sorted[j].OccurredAt) })

	completed := a.completedWindows(sorted)

	var energy, success []sample
	for i, ev := range sorted {
		for _, b := range bucketsFor(ev) {
			if ev.EnergyLevel > 0 {
				energy = append(energy, sample{b.dimension, b.key, b.label, float64(ev.EnergyLevel)})
			}
			v := 0.0
			if completed[i] {
				v = 1
			}
			success = append(success, sample{b.dimension, b.key, b.label, v})
		}
	}

	var out []Finding
	out = append(out, a.findings(energyMetric, energy)...)
	out = append(out, a.findings(successMetric, success)...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].BucketKey < out[j].BucketKey
	})
	return out
}

// completedWindows reports, per event, whether its session window contains a
// completion. Events with a session id share a window with that id; the rest
// chain together while consecutive gaps stay within SessionGap.
func (a *Analyzer) completedWindows(events []*types.UsageEvent) []bool {
	windowOf := make([]string, len(events))
	windowDone := map[string]bool{}
	anon := 0
	var lastAnon time.Time
	for i, ev := range events {
		key := strings.TrimSpace(ev.SessionID)
		if key != "" {
			key = "s:" + key
		} else {
			if anon == 0 || ev.OccurredAt.Sub(lastAnon) > a.cfg.SessionGap {
				anon++
			}
			lastAnon = ev.OccurredAt
			key = fmt.Sprintf("w:%d", anon)
		}
		windowOf[i] = key
		if ev.Kind == personalization.UsageCompleted {
			windowDone[key] = true
		}
	}
	out := make([]bool, len(events))
	for i, key := range windowOf {
		out[i] = windowDone[key]
	}
	return out
}

type bucket struct {
	dimension string
	key       string
	label     string
}

func bucketsFor(ev *types.UsageEvent) []bucket {
	tod := ev.TimeOfDay
	if tod == "" {
		tod = personalization.TimeOfDayForHour(ev.OccurredAt.Hour())
	}
	weekday := time.Weekday(ev.Weekday)
	if ev.Weekday < 0 || ev.Weekday > 6 {
		weekday = ev.OccurredAt.Weekday()
	}
	out := []bucket{
		{DimensionTimeOfDay, DimensionTimeOfDay + ":" + string(tod), "in the " + tod.Label()},
		{DimensionWeekday, DimensionWeekday + ":" + strings.ToLower(weekday.String()), "on " + weekday.String() + "s"},
	}
	if tool := strings.ToLower(strings.TrimSpace(ev.ToolName)); tool != "" {
		out = append(out, bucket{DimensionTool, DimensionTool + ":" + tool, "when using " + tool})
	}
	return out
}

func (a *Analyzer) findings(m metric, samples []sample) []Finding {
	var out []Finding
	for _, dim := range []string{DimensionTimeOfDay, DimensionWeekday, DimensionTool} {
		var values []float64
		groups := map[string][]float64{}
		labels := map[string]string{}
		for _, s := range samples {
			if s.dimension != dim {
				continue
			}
			values = append(values, s.value)
			groups[s.bucket] = append(groups[s.bucket], s.value)
			labels[s.bucket] = s.label
		}
		mean, sd := meanStd(values)
		if sd == 0 {
			continue
		}
		for key, vals := range groups {
			if len(vals) < a.cfg.MinSamples {
				continue
			}
			bmean, _ := meanStd(vals)
			dev := bmean - mean
			if math.Abs(dev) <= sd {
				continue
			}
			z := math.Abs(dev) / sd
			conf := clamp01(
				math.Min(1, float64(len(vals))/float64(a.cfg.FullConfidenceSamples)) *
					math.Min(1, z/a.cfg.FullConfidenceDeviation),
			)
			f := Finding{
				Dimension:   dim,
				Bucket:      strings.TrimPrefix(key, dim+":"),
				BucketKey:   key,
				SampleCount: len(vals),
				BucketMean:  bmean,
				OverallMean: mean,
				StdDev:      sd,
				Deviation:   z,
				Confidence:  conf,
				Priority:    personalization.PriorityFor(conf),
			}
			if dev > 0 {
				f.Type = m.peak
			} else {
				f.Type = m.dip
			}
			f.Title, f.Message = phrase(m, f, labels[key])
			out = append(out, f)
		}
	}
	return out
}

func phrase(m metric, f Finding, label string) (string, string) {
	higher := f.BucketMean > f.OverallMean
	switch m.name {
	case "energy":
		if higher {
			return "Your energy peaks " + label,
				fmt.Sprintf("Your %s averages %.1f %s compared with %.1f overall. Consider scheduling demanding work then.", m.unit, f.BucketMean, label, f.OverallMean)
		}
		return "Your energy dips " + label,
			fmt.Sprintf("Your %s averages %.1f %s compared with %.1f overall. Lighter tasks or breaks may fit better then.", m.unit, f.BucketMean, label, f.OverallMean)
	default:
		if higher {
			return "You finish more " + label,
				fmt.Sprintf("Your %s is %.0f%% %s compared with %.0f%% overall.", m.unit, f.BucketMean*100, label, f.OverallMean*100)
		}
		return "You finish less " + label,
			fmt.Sprintf("Your %s is %.0f%% %s compared with %.0f%% overall.", m.unit, f.BucketMean*100, label, f.OverallMean*100)
	}
}

// meanStd returns the mean and population standard deviation.
func meanStd(vals []float64) (float64, float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	mean := sum / float64(len(vals))
	var sq float64
	for _, v := range vals {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(vals)))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
