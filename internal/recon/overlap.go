package recon

import (
	"sort"
	"strings"

	"github.com/crestline-group/recon-cli/internal/model"
)

// Overlap computes the cross-source overlap analysis: for every combination
// of two or more sources that contributed rows, the number of distinct
// digests present in all of them. Results are ordered by combination size,
// then count descending, then source names.
func Overlap(report *model.ReconciliationReport) []model.OverlapRow {
	perSource := make(map[string]map[string]struct{})
	var order []string
	for _, row := range report.Rows {
		set, ok := perSource[row.Source]
		if !ok {
			set = make(map[string]struct{})
			perSource[row.Source] = set
			order = append(order, row.Source)
		}
		set[row.Digest] = struct{}{}
	}

	var out []model.OverlapRow
	for size := 2; size <= len(order); size++ {
		for _, combo := range combinations(order, size) {
			count := intersectionSize(perSource, combo)
			if count == 0 {
				continue
			}
			out = append(out, model.OverlapRow{Sources: combo, Size: size, Count: count})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Size != out[j].Size {
			return out[i].Size < out[j].Size
		}
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return strings.Join(out[i].Sources, "+") < strings.Join(out[j].Sources, "+")
	})

	return out
}

// combinations returns all k-element combinations of items, preserving order.
func combinations(items []string, k int) [][]string {
	if k <= 0 || k > len(items) {
		return nil
	}

	var out [][]string
	combo := make([]string, k)
	var walk func(start, depth int)
	walk = func(start, depth int) {
		if depth == k {
			out = append(out, append([]string(nil), combo...))
			return
		}
		for i := start; i <= len(items)-(k-depth); i++ {
			combo[depth] = items[i]
			walk(i+1, depth+1)
		}
	}
	walk(0, 0)
	return out
}

func intersectionSize(perSource map[string]map[string]struct{}, combo []string) int {
	// Iterate the smallest member set and probe the rest.
	smallest := combo[0]
	for _, name := range combo[1:] {
		if len(perSource[name]) < len(perSource[smallest]) {
			smallest = name
		}
	}

	count := 0
	for digest := range perSource[smallest] {
		inAll := true
		for _, name := range combo {
			if name == smallest {
				continue
			}
			if _, ok := perSource[name][digest]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			count++
		}
	}
	return count
}
