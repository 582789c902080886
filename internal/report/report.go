// Package report writes human-readable summaries of predictions and
// viability estimates.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/thrash-lab/viability-test/internal/domain"
	"github.com/thrash-lab/viability-test/internal/pkg/theme"
	"github.com/thrash-lab/viability-test/internal/util"
)

// Prediction writes the summary of a forward prediction.
func Prediction(w io.Writer, rec domain.BootstrapRecord, workers int) error {
	s := theme.Default()

	var b strings.Builder
	fmt.Fprintln(&b, s.Title.Render(PredictionTitle))
	fmt.Fprintln(&b, s.Muted.Render(fmt.Sprintf(
		"Predicting outcome of a DTE experiment using %d processors and %d bootstraps", workers, rec.Experiments)))
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, s.Body.Render(fmt.Sprintf(
		"You simulated a DTE where you inoculated %d wells with an average of %s cells per well.",
		rec.Wells, util.FormatFloat(rec.Inoculum))))

	lines := [][2]string{
		{"Your estimated relative abundance for your taxon of interest was:", util.FormatPercent(rec.RelAbundance)},
		{"Your estimated viability of your taxon of interest was:", util.FormatPercent(rec.Viability)},
	}
	writeLines(&b, s, lines)

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, s.Body.Render(fmt.Sprintf("After %d simulations (%s simulated wells):",
		rec.Experiments, util.FormatNumber(int64(rec.Experiments)*int64(rec.Wells)))))
	writeLines(&b, s, [][2]string{
		{"The median number of positive (not taxon-specific) wells was:", util.FormatWells(rec.Positive)},
		{"The median number of wells inoculated with one cell was:", util.FormatWells(rec.Single)},
		{"The median number of wells containing your taxon of interest was:", util.FormatWells(rec.TaxonPositive)},
		{"The median number of pure wells for your taxon of interest was:", util.FormatWells(rec.Pure)},
	})

	_, err := fmt.Fprintln(w, s.Card.Render(strings.TrimRight(b.String(), "\n")))
	return err
}

// Estimate writes the summary of a viability estimate, with a warning first
// when the observation was implausible.
func Estimate(w io.Writer, est domain.Estimate) error {
	s := theme.Default()

	if est.Implausible() {
		if _, err := fmt.Fprintln(w, s.Error.Render(ImplausibleWarning(est))); err != nil {
			return err
		}
	}

	q := est.Query
	var b strings.Builder
	fmt.Fprintln(&b, s.Title.Render(EstimateTitle))
	fmt.Fprintln(&b, s.Body.Render(fmt.Sprintf(
		"You simulated a DTE where you inoculated %d wells with an average of %s cells per well.",
		q.Wells, util.FormatFloat(q.Inoculum))))
	fmt.Fprintln(&b, s.Body.Render(fmt.Sprintf(
		"A range of decreasing viability was tested using %d bootstraps per experiment.", est.Baseline.Experiments)))
	fmt.Fprintln(&b)
	writeLines(&b, s, [][2]string{
		{"Your estimated relative abundance for your taxon of interest was:", util.FormatPercent(q.RelAbundance)},
		{"You observed:", fmt.Sprintf("%d wells of interest", q.Observed)},
		{"If viability of your taxon had been 100%, you would have expected:", util.FormatWells(est.Baseline.Pure)},
	})
	fmt.Fprintln(&b)

	bounds := util.FormatPercent(est.Range.Min) + " - " + util.FormatPercent(est.Range.Max)
	switch {
	case est.Implausible():
		writeLines(&b, s, [][2]string{{RangeLabel, bounds}})
	case est.Range.Resolved():
		fmt.Fprintln(&b, s.Label.Render(RangeLabel)+s.Success.Render(bounds))
	default:
		fmt.Fprintln(&b, s.Warning.Render(UnresolvedMessage))
	}
	fmt.Fprintln(&b, s.Info.Render(fmt.Sprintf("(the whole process took %s seconds, run %s)",
		util.FormatSeconds(est.Elapsed), est.RunID)))

	_, err := fmt.Fprintln(w, s.Card.Render(strings.TrimRight(b.String(), "\n")))
	return err
}

// Report headings.
const (
	PredictionTitle = "DTE prediction"
	EstimateTitle   = "Viability estimate"
)

// RangeLabel introduces the estimated viability range.
const RangeLabel = "The viability estimates that explain your observed counts is between:"

// UnresolvedMessage is shown when no viability explains the observation.
const UnresolvedMessage = "No viability down to 0.001% explains your observed counts: viability is very low."

// ImplausibleWarning explains why the search was skipped.
func ImplausibleWarning(est domain.Estimate) string {
	return fmt.Sprintf(
		"Your number of observed wells (%d) is at least 10%% greater than the 95%%CI maximum if viability were 100%% (%.0f).\n"+
			"Consequently, it makes little sense to try and estimate viability >100%%, so min,max values are set to Inf.\n"+
			"I advise caution in interpreting such extreme values.",
		est.Query.Observed, est.Baseline.Pure.High)
}

// PredictionTSV writes the record as a header row and a value row of
// tab-separated columns.
func PredictionTSV(w io.Writer, rec domain.BootstrapRecord) error {
	vals := rec.Values()
	cells := make([]string, len(vals))
	for i, v := range vals {
		cells[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n", strings.Join(rec.Columns(), "\t"), strings.Join(cells, "\t"))
	return err
}

func writeLines(b *strings.Builder, s *theme.Styles, lines [][2]string) {
	for _, l := range lines {
		fmt.Fprintln(b, s.Label.Render(l[0])+s.Value.Render(l[1]))
	}
}
