package main

import (
	"fmt"
	"io"
	"strconv"

	"cleancut/internal/editplan"
	"cleancut/internal/interval"
)

// planReport is the --json shape: the plan plus its audio edits mapped onto
// the output timeline.
type planReport struct {
	editplan.EditPlan
	OutputAudioEdits []editplan.AudioEdit `json:"output_audio_edits"`
}

func newPlanReport(plan editplan.EditPlan) planReport {
	return planReport{EditPlan: plan, OutputAudioEdits: editplan.AdjustEditsForCuts(plan)}
}

func printPlan(out io.Writer, plan editplan.EditPlan) {
	fmt.Fprintln(out, plan.Summary().String())
	if plan.IsNoop() {
		fmt.Fprintln(out, "Nothing to edit; the source would be copied unchanged.")
		return
	}

	if len(plan.CutIntervals) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Cuts")
		fmt.Fprintln(out, renderTable(
			[]column{right("#"), right("Start"), right("End"), right("Length"), left("Reasons")},
			intervalRows(plan.CutIntervals),
		))
	}

	if len(plan.AudioEdits) > 0 {
		shifted := editplan.AdjustEditsForCuts(plan)
		rows := make([][]string, 0, len(plan.AudioEdits))
		for i, e := range plan.AudioEdits {
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				formatTimestamp(e.Start),
				formatTimestamp(e.End),
				formatTimestamp(shifted[i].Start),
				formatSeconds(e.Duration()),
				string(e.Type),
				interval.Interval{Reasons: e.Reasons}.Describe(),
			})
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Audio edits")
		fmt.Fprintln(out, renderTable(
			[]column{right("#"), right("Start"), right("End"), right("Output at"), right("Length"), left("Type"), left("Reasons")},
			rows,
		))
	}
}

func intervalRows(list []interval.Interval) [][]string {
	rows := make([][]string, 0, len(list))
	for i, iv := range list {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			formatTimestamp(iv.Start),
			formatTimestamp(iv.End),
			formatSeconds(iv.Duration()),
			iv.Describe(),
		})
	}
	return rows
}
