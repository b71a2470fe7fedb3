// Package rollup holds the pure aggregation math of the tracking engine:
// time rollups, status derivation, progress percentages and efficiency
// ratios. Everything here operates on already-fetched snapshots and has no
// side effects, so the same functions serve the HTTP layer, the status
// cascade and the reconciliation jobs.
package rollup

// Task is the leaf snapshot. TimerSeconds is the sum of finalized timer
// sessions attributed to the task; ManualSeconds the cached ledger total.
type Task struct {
	Id            int64
	Completed     bool
	TimerSeconds  int64
	ManualSeconds int64
}

// Deliverable snapshot with its tasks. TimerSeconds holds time from
// deliverable-owned sessions that could not be attributed to any task
// (the deliverable had none when the session was finalized).
type Deliverable struct {
	Id              int64
	DeclarableHours float64
	ManualSeconds   int64
	TimerSeconds    int64
	Tasks           []Task
}

// Phase snapshot with its deliverables
type Phase struct {
	Id            int64
	ManualSeconds int64
	Deliverables  []Deliverable
}

// Project snapshot. Standalone holds deliverables not assigned to any phase.
type Project struct {
	Id            int64
	BudgetedHours float64
	HourlyRate    float64
	Phases        []Phase
	Standalone    []Deliverable
}

// TaskSeconds is timer time plus manual time for one task
func TaskSeconds(t Task) int64 {
	return t.TimerSeconds + t.ManualSeconds
}

// DeliverableSeconds sums task times and adds the deliverable's own manual
// time on top. Manual time at a level is extra time not attributable to any
// child, never a replacement for the child rollup.
func DeliverableSeconds(d Deliverable) int64 {
	total := d.ManualSeconds + d.TimerSeconds
	for _, t := range d.Tasks {
		total += TaskSeconds(t)
	}
	return total
}

// PhaseSeconds sums deliverable times plus the phase's own manual time
func PhaseSeconds(p Phase) int64 {
	total := p.ManualSeconds
	for _, d := range p.Deliverables {
		total += DeliverableSeconds(d)
	}
	return total
}

// ProjectSeconds sums phase times and standalone deliverable times
func ProjectSeconds(p Project) int64 {
	var total int64
	for _, ph := range p.Phases {
		total += PhaseSeconds(ph)
	}
	for _, d := range p.Standalone {
		total += DeliverableSeconds(d)
	}
	return total
}

// Hours converts tracked seconds to fractional hours
func Hours(seconds int64) float64 {
	return float64(seconds) / 3600
}
