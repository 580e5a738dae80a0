package repo

// mergeItems layers own (the repository's own item set) over items
// inherited from its chain of directory-parent repositories: own always
// dominates, and each ancestor only fills in paths none of its
// descendants already defined. This mirrors Local.items in the original:
// own items are collected first, then the parent chain is walked filling
// gaps, never overwriting what a child already has.
func mergeItems(own []ItemInfo, r Repository) []ItemInfo {
	seen := make(map[string]bool, len(own))
	merged := make([]ItemInfo, 0, len(own))
	for _, it := range own {
		seen[it.Path] = true
		merged = append(merged, it)
	}

	parent, err := r.Parent()
	for err == nil && parent != nil {
		parentItems, ierr := parent.Items("")
		if ierr != nil {
			break
		}
		for _, it := range parentItems {
			if !seen[it.Path] {
				seen[it.Path] = true
				merged = append(merged, it)
			}
		}
		parent, err = parent.Parent()
	}
	return merged
}
