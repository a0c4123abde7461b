package sections

// diffChangedHeadings returns the set of headings whose body hash differs
// between the initial snapshot and the current document. Headings present
// in only one of the two are also reported as changed (created/deleted).
func diffChangedHeadings(initial, current *Document) map[string]bool {
	changed := map[string]bool{}
	if initial == nil {
		return changed
	}

	initialByHeading := map[string]string{}
	for _, s := range initial.Sections {
		initialByHeading[s.Heading] = s.Hash
	}
	currentByHeading := map[string]string{}
	for _, s := range current.Sections {
		currentByHeading[s.Heading] = s.Hash
	}

	for heading, hash := range initialByHeading {
		if currentHash, ok := currentByHeading[heading]; !ok || currentHash != hash {
			changed[heading] = true
		}
	}
	for heading := range currentByHeading {
		if _, ok := initialByHeading[heading]; !ok {
			changed[heading] = true
		}
	}

	return changed
}
