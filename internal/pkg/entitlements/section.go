package entitlements

import "strconv"

// SectionID identifies one step of the planning binder. The intro and
// conclusion are pseudo-sections that bracket the sixteen numbered sections.
type SectionID int

const (
	SectionIntro      SectionID = 0
	SectionConclusion SectionID = 17

	FirstNumberedSection SectionID = 1
	LastNumberedSection  SectionID = 16

	// Sections whose file-upload capability is gated separately from
	// plain section access.
	SectionShortLetters SectionID = 12
	SectionFileUploads  SectionID = 16
)

var sectionTitles = map[SectionID]string{
	SectionIntro:      "Introduction",
	1:                 "Personal Information",
	2:                 "Medical Information",
	3:                 "Legal & Estate Planning",
	4:                 "Finance & Business",
	5:                 "Beneficiaries & Inheritance",
	6:                 "Personal Property & Real Estate",
	7:                 "Digital Life, Subscriptions & Passwords",
	8:                 "Key Contacts",
	9:                 "Funeral & Final Arrangements",
	10:                "Accounts & Memberships",
	11:                "Pets & Animal Care",
	12:                "Short Letters to Loved Ones",
	13:                "Final Wishes & Legacy Planning",
	14:                "Bucket List & Unfinished Business",
	15:                "Formal Letters",
	16:                "File Uploads & Multimedia Memories",
	SectionConclusion: "Conclusion",
}

// AllSections returns every section in binder order.
func AllSections() []SectionID {
	out := make([]SectionID, 0, 18)
	out = append(out, SectionIntro)
	for s := FirstNumberedSection; s <= LastNumberedSection; s++ {
		out = append(out, s)
	}
	out = append(out, SectionConclusion)
	return out
}

// ParseSectionID accepts the wire forms used by the client: "intro",
// "conclusion", or a numbered section "1".."16".
func ParseSectionID(raw string) (SectionID, bool) {
	switch raw {
	case "intro":
		return SectionIntro, true
	case "conclusion":
		return SectionConclusion, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	s := SectionID(n)
	if s < FirstNumberedSection || s > LastNumberedSection {
		return 0, false
	}
	return s, true
}

// Title returns the display title for a section, or "" for invalid IDs.
func (s SectionID) Title() string {
	return sectionTitles[s]
}

// IsValid reports whether s names an existing section or pseudo-section.
func (s SectionID) IsValid() bool {
	_, ok := sectionTitles[s]
	return ok
}

// IsNumbered reports whether s is one of the sixteen content sections.
func (s SectionID) IsNumbered() bool {
	return s >= FirstNumberedSection && s <= LastNumberedSection
}

// String renders the wire form of the section ID.
func (s SectionID) String() string {
	switch s {
	case SectionIntro:
		return "intro"
	case SectionConclusion:
		return "conclusion"
	default:
		return strconv.Itoa(int(s))
	}
}
