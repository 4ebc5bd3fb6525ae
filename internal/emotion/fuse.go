package emotion

import (
	"fmt"
	"sort"
)

// Strategy selects how disagreeing modality proposals are reconciled
type Strategy string

const (
	// StrategyWeighted rewards cross-modal agreement over single-modality
	// frequency. Default.
	StrategyWeighted Strategy = "weighted"
	// StrategyMax keeps the proposal list of whichever single modality
	// proposed the most labels.
	StrategyMax Strategy = "max"
	// StrategyIntersect prefers labels every modality agrees on, falling
	// back to the union when the intersection is empty.
	StrategyIntersect Strategy = "intersect"
)

// ParseStrategy validates a configured strategy name. "average" is accepted
// as a legacy alias for intersect.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyWeighted, StrategyMax, StrategyIntersect:
		return Strategy(s), nil
	case "average":
		return StrategyIntersect, nil
	case "":
		return StrategyWeighted, nil
	}
	return "", fmt.Errorf("unknown fusion strategy: %q", s)
}

// MaxFusedLabels caps the fused set size
const MaxFusedLabels = 3

// Fuse combines zero or more per-modality label proposals into one ranked,
// deduplicated label set of length 1..MaxFusedLabels. Pure and deterministic:
// ties are broken by modality evaluation order (audio, text, image), then by
// proposal order within a modality, never by map iteration order. An empty
// contribution list yields [neutral].
func Fuse(contribs []Contribution, strategy Strategy) []string {
	perModality := groupByModality(contribs)
	if len(perModality) == 0 {
		return []string{NeutralLabel}
	}

	var fused []string
	switch strategy {
	case StrategyMax:
		fused = fuseMax(perModality)
	case StrategyIntersect:
		fused = fuseIntersect(perModality)
	default:
		fused = fuseWeighted(perModality)
	}

	if len(fused) == 0 {
		return []string{NeutralLabel}
	}
	if len(fused) > MaxFusedLabels {
		fused = fused[:MaxFusedLabels]
	}
	return fused
}

// modalityProposals is one modality's deduplicated labels in proposal order
type modalityProposals struct {
	modality Modality
	labels   []string
}

// groupByModality splits contributions per modality, dropping empty labels
// and collapsing repeats within a modality so repetition cannot inflate a
// label's weight. The returned slice is sorted by evaluation order.
func groupByModality(contribs []Contribution) []modalityProposals {
	byModality := make(map[Modality]*modalityProposals)
	var order []Modality
	for _, c := range contribs {
		if c.Label == "" {
			continue
		}
		mp, ok := byModality[c.Source]
		if !ok {
			mp = &modalityProposals{modality: c.Source}
			byModality[c.Source] = mp
			order = append(order, c.Source)
		}
		if !containsLabel(mp.labels, c.Label) {
			mp.labels = append(mp.labels, c.Label)
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].rank() < order[j].rank()
	})

	out := make([]modalityProposals, 0, len(order))
	for _, m := range order {
		out = append(out, *byModality[m])
	}
	return out
}

func containsLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

// fuseWeighted scores each label by the number of modalities proposing it,
// doubled when two or more modalities independently agree on it.
func fuseWeighted(groups []modalityProposals) []string {
	type ranked struct {
		label string
		score int
		// first proposer's modality rank, then position within it
		modalityRank int
		position     int
	}

	byLabel := make(map[string]*ranked)
	var order []string
	for mi, g := range groups {
		for pos, label := range g.labels {
			r, ok := byLabel[label]
			if !ok {
				r = &ranked{label: label, modalityRank: mi, position: pos}
				byLabel[label] = r
				order = append(order, label)
			}
			r.score++
		}
	}

	// Cross-modal agreement counts double per proposing modality
	for _, r := range byLabel {
		if r.score >= 2 {
			r.score *= 2
		}
	}

	all := make([]*ranked, 0, len(order))
	for _, label := range order {
		all = append(all, byLabel[label])
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		if all[i].modalityRank != all[j].modalityRank {
			return all[i].modalityRank < all[j].modalityRank
		}
		return all[i].position < all[j].position
	})

	out := make([]string, 0, len(all))
	for _, r := range all {
		out = append(out, r.label)
	}
	return out
}

// fuseMax returns the labels of the single modality with the longest
// proposal list, earlier evaluation order winning ties.
func fuseMax(groups []modalityProposals) []string {
	best := groups[0]
	for _, g := range groups[1:] {
		if len(g.labels) > len(best.labels) {
			best = g
		}
	}
	return append([]string(nil), best.labels...)
}

// fuseIntersect returns labels proposed by every modality; when no label is
// shared by all, it falls back to the union in evaluation order.
func fuseIntersect(groups []modalityProposals) []string {
	var intersection []string
	for _, label := range groups[0].labels {
		inAll := true
		for _, g := range groups[1:] {
			if !containsLabel(g.labels, label) {
				inAll = false
				break
			}
		}
		if inAll {
			intersection = append(intersection, label)
		}
	}
	if len(intersection) > 0 {
		return intersection
	}

	var union []string
	for _, g := range groups {
		for _, label := range g.labels {
			if !containsLabel(union, label) {
				union = append(union, label)
			}
		}
	}
	return union
}
