package oioproxy

import "math/rand"

// orderRandom returns candidates in a uniformly shuffled order.
// Adapted from the teacher's Random resolver group (random.go), which
// picked a uniformly random index into its active-resolver slice; here
// the whole candidate set is shuffled up front so pickDistinct can walk
// it in order while enforcing distance and count constraints.
func orderRandom(candidates []ServiceDescriptor) []ServiceDescriptor {
	ordered := make([]ServiceDescriptor, len(candidates))
	copy(ordered, candidates)
	rand.Shuffle(len(ordered), func(i, j int) {
		ordered[i], ordered[j] = ordered[j], ordered[i]
	})
	return ordered
}

// orderWeighted returns candidates ordered for a weighted draw, where a
// service's weight is its score (spec §4.4: "weighted variants favor
// higher-scored services without ever starving a live low-scored one").
// Every candidate with Score > 0 is included, with repeats shuffled in
// proportion to score, followed by any zero-scored services shuffled at
// the tail so they are still reachable once higher-scored services are
// exhausted by pickDistinct's distance/dedup constraints.
func orderWeighted(candidates []ServiceDescriptor) []ServiceDescriptor {
	var weighted, zero []ServiceDescriptor
	for _, c := range candidates {
		if c.Score > 0 {
			weighted = append(weighted, c)
		} else {
			zero = append(zero, c)
		}
	}

	var expanded []ServiceDescriptor
	for _, c := range weighted {
		for i := 0; i < c.Score; i++ {
			expanded = append(expanded, c)
		}
	}
	rand.Shuffle(len(expanded), func(i, j int) {
		expanded[i], expanded[j] = expanded[j], expanded[i]
	})

	// Deduplicate while preserving the shuffled weighted precedence, then
	// append the shuffled zero-scored tail.
	seen := make(map[string]struct{}, len(expanded))
	ordered := make([]ServiceDescriptor, 0, len(candidates))
	for _, c := range expanded {
		if _, ok := seen[c.Key()]; ok {
			continue
		}
		seen[c.Key()] = struct{}{}
		ordered = append(ordered, c)
	}

	rand.Shuffle(len(zero), func(i, j int) {
		zero[i], zero[j] = zero[j], zero[i]
	})
	ordered = append(ordered, zero...)
	return ordered
}
