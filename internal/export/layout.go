package export

import (
	"fmt"
	"strings"

	"github.com/amanthanvi/markbook/internal/storage"
)

const (
	detailsHeading    = "Schülerdetails:"
	workTitlesHeading = "Arbeitstitel:"
)

// Snapshot is everything needed to render one student. Details is nil when
// the student had no stored details row.
type Snapshot struct {
	Student    storage.Student
	Details    *storage.Assessment
	WorkTitles []storage.WorkTitle
}

// Layout is the renderer-independent structure of an exported document.
type Layout struct {
	Title    string
	Sections []Section
}

type Section struct {
	Heading string
	Tables  []Table
}

type Table struct {
	Heading string
	Rows    []Row
}

type Row struct {
	Label string
	Value string
}

// Section returns the section with the given heading, if present.
func (l Layout) Section(heading string) (Section, bool) {
	for _, section := range l.Sections {
		if section.Heading == heading {
			return section, true
		}
	}
	return Section{}, false
}

func BuildLayout(snap Snapshot) Layout {
	layout := Layout{
		Title: fmt.Sprintf("Schülerdaten: %s %s, Klasse: %s", snap.Student.FirstName, snap.Student.LastName, snap.Student.Class),
	}

	var details storage.Assessment
	if snap.Details != nil {
		details = *snap.Details
	}
	layout.Sections = append(layout.Sections, Section{
		Heading: detailsHeading,
		Tables: []Table{{
			Rows: []Row{
				{Label: "Soziale Kompetenz", Value: details.SocialCompetence},
				{Label: "Aktive Mitarbeit", Value: details.ActiveParticipation},
				{Label: "Sauberkeit", Value: details.Cleanliness},
				{Label: "Material", Value: details.Material},
				{Label: "Pünktlichkeit", Value: details.Punctuality},
				{Label: "Kommentar", Value: details.Comment},
			},
		}},
	})

	if len(snap.WorkTitles) == 0 {
		return layout
	}

	works := Section{Heading: workTitlesHeading}
	for i, work := range snap.WorkTitles {
		works.Tables = append(works.Tables, Table{
			Heading: workHeading(i, work.Title),
			Rows: []Row{
				{Label: "Titel", Value: work.Title},
				{Label: "Note", Value: work.Note},
				{Label: "Konzept", Value: work.SocialCompetence},
				{Label: "Ausführung", Value: work.ActiveParticipation},
				{Label: "Technik", Value: work.Cleanliness},
				{Label: "Selbstbeurteilung", Value: work.Material},
				{Label: "Hat mir gefallen/Nicht gefallen", Value: work.Punctuality},
				{Label: "Kommentar", Value: work.Comment},
			},
		})
	}
	layout.Sections = append(layout.Sections, works)
	return layout
}

func workHeading(index int, title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Sprintf("Arbeitstitel %d", index+1)
	}
	return fmt.Sprintf("Arbeitstitel %d: %s", index+1, title)
}

var filenameReplacer = strings.NewReplacer(" ", "_", "/", "_", `\`, "_")

// Filename derives the export file name. Distinct students that normalize
// to the same name share a file; the last export wins.
func Filename(firstName, lastName, class string) string {
	return fmt.Sprintf("%s_%s_%s.pdf",
		filenameReplacer.Replace(firstName),
		filenameReplacer.Replace(lastName),
		filenameReplacer.Replace(class),
	)
}
