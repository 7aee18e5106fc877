package scenario

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Result summarizes one scenario run.
type Result struct {
	RunID    uuid.UUID     `json:"run_id"`
	Scenario string        `json:"scenario"`
	Steps    int           `json:"steps"`
	Duration time.Duration `json:"duration"`
	// StateHash fingerprints the final state; equal inputs give equal hashes.
	StateHash   uint64         `json:"state_hash"`
	EventCounts map[string]int `json:"event_counts"`
	Probes      []ProbeResult  `json:"probes,omitempty"`
	Bodies      []BodyState    `json:"bodies"`
}

type ProbeResult struct {
	Name     string  `json:"name"`
	Kind     string  `json:"kind"`
	Step     int     `json:"step"`
	Hit      bool    `json:"hit"`
	Entity   string  `json:"entity,omitempty"`
	Point    Vec     `json:"point"`
	Normal   Vec     `json:"normal"`
	Distance float64 `json:"distance"`
}

type BodyState struct {
	Name     string `json:"name"`
	Position Vec    `json:"position"`
	Velocity Vec    `json:"velocity"`
}

func (r *Result) TotalEvents() int {
	total := 0
	for _, n := range r.EventCounts {
		total += n
	}
	return total
}

// WriteSummary prints a human readable report.
func (r *Result) WriteSummary(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s  run=%s steps=%d hash=%016x took=%s\n",
		r.Scenario, r.RunID, r.Steps, r.StateHash, r.Duration.Round(time.Microsecond)); err != nil {
		return err
	}

	types := make([]string, 0, len(r.EventCounts))
	for typ := range r.EventCounts {
		types = append(types, typ)
	}
	slices.Sort(types)
	for _, typ := range types {
		if _, err := fmt.Fprintf(w, "  %-16s %d\n", typ, r.EventCounts[typ]); err != nil {
			return err
		}
	}

	for _, p := range r.Probes {
		var err error
		if p.Hit {
			_, err = fmt.Fprintf(w, "  probe %-10s step %d hit %s at %s dist %.4f normal %s\n",
				p.Name, p.Step, p.Entity, p.Point, p.Distance, p.Normal)
		} else {
			_, err = fmt.Fprintf(w, "  probe %-10s step %d miss\n", p.Name, p.Step)
		}
		if err != nil {
			return err
		}
	}

	for _, b := range r.Bodies {
		if _, err := fmt.Fprintf(w, "  body  %-10s pos %s vel %s\n", b.Name, b.Position, b.Velocity); err != nil {
			return err
		}
	}
	return nil
}
