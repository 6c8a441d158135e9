package roster

import (
	"slices"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"
)

// Fingerprint hashes the plan's content (week, columns, tasks, equipment,
// provenance) independent of map iteration order. Version is excluded, so
// two plans with the same content share a fingerprint.
func (p *WeekPlan) Fingerprint() uint64 {
	var b strings.Builder
	b.WriteString(string(p.Week))
	for _, s := range Priority {
		b.WriteString("|")
		b.WriteString(s.Code())
		for _, id := range p.Columns[s] {
			b.WriteString(";")
			b.WriteString(string(id))
			b.WriteString("=")
			b.WriteString(string(p.Tasks[id]))
			b.WriteString("/")
			b.WriteString(string(p.Equipment[id]))
			b.WriteString("/")
			b.WriteString(string(p.Provenance[id]))
		}
	}
	// Entries for workers not on the board still count as content.
	b.WriteString("|orphans")
	for _, id := range orphanKeys(p) {
		b.WriteString(";")
		b.WriteString(string(id))
		b.WriteString("=")
		b.WriteString(string(p.Tasks[id]))
		b.WriteString("/")
		b.WriteString(string(p.Equipment[id]))
	}
	return xxh3.HashString(b.String())
}

func orphanKeys(p *WeekPlan) []WorkerID {
	placed := p.History()
	var ids []WorkerID
	for id := range p.Tasks {
		if _, ok := placed[id]; !ok {
			ids = append(ids, id)
		}
	}
	for id := range p.Equipment {
		if _, ok := placed[id]; !ok && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Fingerprint hashes the report's tree, totals and warnings.
func (r *Report) Fingerprint() uint64 {
	var b strings.Builder
	b.WriteString(string(r.Week))
	b.WriteString("|")
	b.WriteString(strconv.Itoa(r.Total))
	for _, t := range r.Totals {
		b.WriteString("|" + t.Shift.String() + ":" + strconv.Itoa(t.Count) + ":" + t.Share.String())
	}
	for _, n := range r.Tree {
		b.WriteString("|" + n.Shift.String())
		for _, g := range n.Groups {
			b.WriteString(">" + g.Name)
			for _, t := range g.Tasks {
				b.WriteString(">" + t.Label + "=" + strconv.Itoa(t.Count))
			}
		}
	}
	for _, w := range r.Warnings {
		b.WriteString("|" + string(w.Code) + ":" + w.Message)
	}
	return xxh3.HashString(b.String())
}
