package panel

// SelectLeastLoaded returns the configured panel with the fewest active server
// users. Ties are broken with pick(n), which must return a value in [0, n).
// It returns nil when no candidate is configured.
func SelectLeastLoaded(candidates []*Panel, load map[uint]int64, pick func(n int) int) *Panel {
	var best []*Panel
	var lowest int64 = -1
	for _, p := range candidates {
		if p == nil || !p.IsConfigured() {
			continue
		}
		n := load[p.ID()]
		switch {
		case lowest < 0 || n < lowest:
			lowest = n
			best = append(best[:0], p)
		case n == lowest:
			best = append(best, p)
		}
	}
	if len(best) == 0 {
		return nil
	}
	if len(best) == 1 {
		return best[0]
	}
	return best[pick(len(best))]
}
