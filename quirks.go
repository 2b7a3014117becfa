package zmachine

type storyRelease struct {
	release uint16
	serial  string
}

// quirk describes a story that breaks a rule the interpreter checks.
type quirk struct {
	name     string
	releases []storyRelease
	// Attribute numbers past the version's range that the story uses and
	// that are ignored without a report.
	ignoredAttributes []uint16
}

var quirks = []quirk{
	{
		name:              "Sherlock",
		releases:          []storyRelease{{21, "871214"}, {26, "880127"}},
		ignoredAttributes: []uint16{48},
	},
}

func lookupQuirk(release uint16, serial [6]byte) *quirk {
	for i := range quirks {
		for _, r := range quirks[i].releases {
			if r.release == release && r.serial == string(serial[:]) {
				return &quirks[i]
			}
		}
	}
	return nil
}

func (q *quirk) ignoresAttribute(attribute uint16) bool {
	if q == nil {
		return false
	}
	for _, a := range q.ignoredAttributes {
		if a == attribute {
			return true
		}
	}
	return false
}
