// Package report summarizes simulation runs as tables, JSON and database
// rows.
package report

import (
	"context"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/sugawarayuuta/sonnet"

	"github.com/sarchlab/fdprefetch/cachesim"
	"github.com/sarchlab/fdprefetch/datarecording"
	"github.com/sarchlab/fdprefetch/prefetcher"
)

const summaryTableName = "run_summary"

// Summary is the outcome of one run. The fields are flat so that a Summary
// can be stored as a database row.
type Summary struct {
	Name       string `json:"name"`
	Prefetcher bool   `json:"prefetcher"`

	Accesses       uint64  `json:"accesses"`
	L2Hits         uint64  `json:"l2_hits"`
	L2Misses       uint64  `json:"l2_misses"`
	L2MissRate     float64 `json:"l2_miss_rate"`
	AverageLatency float64 `json:"average_latency"`
	Cycles         uint64  `json:"cycles"`

	NearIssued uint64  `json:"near_issued"`
	NearDenied uint64  `json:"near_denied"`
	FarIssued  uint64  `json:"far_issued"`
	Useful     uint64  `json:"useful"`
	Late       uint64  `json:"late"`
	Polluting  uint64  `json:"polluting"`
	Accuracy   float64 `json:"accuracy"`
	Coverage   float64 `json:"coverage"`

	Folds      uint64 `json:"folds"`
	FinalLevel int    `json:"final_level"`
	FoldsAtL1  uint64 `json:"folds_at_l1"`
	FoldsAtL2  uint64 `json:"folds_at_l2"`
	FoldsAtL3  uint64 `json:"folds_at_l3"`
	FoldsAtL4  uint64 `json:"folds_at_l4"`
	FoldsAtL5  uint64 `json:"folds_at_l5"`
}

// NewSummary collects the counts of a run. The engine is nil for runs without
// a prefetcher.
func NewSummary(
	name string,
	cache cachesim.Stats,
	engine *prefetcher.Engine,
) Summary {
	s := Summary{
		Name:           name,
		Accesses:       cache.Accesses,
		L2Hits:         cache.L2Hits,
		L2Misses:       cache.L2Misses,
		L2MissRate:     cache.L2MissRate(),
		AverageLatency: cache.AverageDemandLatency(),
		Cycles:         cache.Cycles,
	}

	if engine == nil {
		return s
	}

	ps := engine.Stats()
	s.Prefetcher = true
	s.NearIssued = ps.NearIssued
	s.NearDenied = ps.NearDenied
	s.FarIssued = ps.FarIssued
	s.Useful = ps.Useful
	s.Late = ps.Late
	s.Polluting = ps.Polluting
	s.Accuracy = ps.Accuracy()
	s.Coverage = ps.Coverage()
	s.Folds = ps.Folds
	s.FinalLevel = int(engine.Level())
	s.FoldsAtL1 = ps.FoldsAtLevel[1]
	s.FoldsAtL2 = ps.FoldsAtLevel[2]
	s.FoldsAtL3 = ps.FoldsAtLevel[3]
	s.FoldsAtL4 = ps.FoldsAtLevel[4]
	s.FoldsAtL5 = ps.FoldsAtLevel[5]

	return s
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	return tablewriter.NewWriter(w).Options(tablewriter.WithRendition(tw.Rendition{
		Borders: tw.Border{
			Left:   tw.On,
			Top:    tw.Off,
			Right:  tw.On,
			Bottom: tw.Off,
		},
	}), tablewriter.WithHeader(header))
}

// WriteTable prints one row per summary.
func WriteTable(w io.Writer, summaries ...Summary) error {
	t := newTable(w, []string{
		"Run", "Accesses", "L2 Miss Rate", "Avg Latency",
		"Near", "Far", "Accuracy", "Coverage", "Late", "Polluting", "Level",
	})

	for _, s := range summaries {
		level := "-"
		if s.Prefetcher {
			level = fmt.Sprintf("%d", s.FinalLevel)
		}

		err := t.Append(
			s.Name,
			fmt.Sprintf("%d", s.Accesses),
			fmt.Sprintf("%0.4f", s.L2MissRate),
			fmt.Sprintf("%0.2f", s.AverageLatency),
			fmt.Sprintf("%d", s.NearIssued),
			fmt.Sprintf("%d", s.FarIssued),
			fmt.Sprintf("%0.2f", s.Accuracy),
			fmt.Sprintf("%0.2f", s.Coverage),
			fmt.Sprintf("%d", s.Late),
			fmt.Sprintf("%d", s.Polluting),
			level,
		)
		if err != nil {
			return err
		}
	}

	return t.Render()
}

// WriteLevels prints how many folds of each run ended at each level.
func WriteLevels(w io.Writer, summaries ...Summary) error {
	t := newTable(w, []string{"Run", "Folds", "L1", "L2", "L3", "L4", "L5"})

	for _, s := range summaries {
		if !s.Prefetcher {
			continue
		}

		row := []any{s.Name, s.Folds}
		for _, n := range []uint64{
			s.FoldsAtL1, s.FoldsAtL2, s.FoldsAtL3, s.FoldsAtL4, s.FoldsAtL5,
		} {
			row = append(row, n)
		}

		if err := t.Append(row...); err != nil {
			return err
		}
	}

	return t.Render()
}

// WriteJSON writes the summaries as a JSON array.
func WriteJSON(w io.Writer, summaries ...Summary) error {
	if summaries == nil {
		summaries = []Summary{}
	}

	data, err := sonnet.Marshal(summaries)
	if err != nil {
		return fmt.Errorf("marshal summaries: %w", err)
	}

	data = append(data, '\n')
	_, err = w.Write(data)

	return err
}

// ReadJSON reads summaries written by WriteJSON.
func ReadJSON(r io.Reader) ([]Summary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var summaries []Summary
	if err := sonnet.Unmarshal(data, &summaries); err != nil {
		return nil, fmt.Errorf("unmarshal summaries: %w", err)
	}

	return summaries, nil
}

// Recorder stores summaries in a data recorder.
type Recorder struct {
	recorder datarecording.DataRecorder
}

// NewRecorder creates the summary table in recorder.
func NewRecorder(recorder datarecording.DataRecorder) *Recorder {
	recorder.CreateTable(summaryTableName, Summary{})
	return &Recorder{recorder: recorder}
}

// Record inserts the summaries.
func (r *Recorder) Record(summaries ...Summary) {
	for _, s := range summaries {
		r.recorder.InsertData(summaryTableName, s)
	}
}

// ReadSummaries returns the summaries stored by a Recorder.
func ReadSummaries(
	ctx context.Context,
	reader datarecording.DataReader,
) ([]Summary, error) {
	reader.MapTable(summaryTableName, Summary{})

	results, _, err := reader.Query(ctx, summaryTableName,
		datarecording.QueryParams{OrderBy: "Name"})
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(results))
	for _, r := range results {
		summaries = append(summaries, *r.(*Summary))
	}

	return summaries, nil
}
