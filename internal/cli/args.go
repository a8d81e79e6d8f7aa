package cli

import (
	"strconv"
	"strings"

	"github.com/amanthanvi/markbook/internal/storage"
	"github.com/spf13/cobra"
)

func parseIDArg(command, field, raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, usageErrorf("%s: %s must be an integer, got %q", command, field, raw)
	}
	return id, nil
}

// assessmentFlag binds one of the six rubric fields to a command-line flag.
type assessmentFlag struct {
	name   string
	usage  string
	target func(*storage.Assessment) *string
}

var studentAssessmentFlags = []assessmentFlag{
	{name: "social", usage: "Social competence (Soziale Kompetenz)", target: func(a *storage.Assessment) *string { return &a.SocialCompetence }},
	{name: "participation", usage: "Active participation (Aktive Mitarbeit)", target: func(a *storage.Assessment) *string { return &a.ActiveParticipation }},
	{name: "cleanliness", usage: "Cleanliness (Sauberkeit)", target: func(a *storage.Assessment) *string { return &a.Cleanliness }},
	{name: "material", usage: "Material", target: func(a *storage.Assessment) *string { return &a.Material }},
	{name: "punctuality", usage: "Punctuality (Pünktlichkeit)", target: func(a *storage.Assessment) *string { return &a.Punctuality }},
	{name: "comment", usage: "Comment (Kommentar)", target: func(a *storage.Assessment) *string { return &a.Comment }},
}

var workAssessmentFlags = []assessmentFlag{
	{name: "concept", usage: "Concept (Konzept)", target: func(a *storage.Assessment) *string { return &a.SocialCompetence }},
	{name: "execution", usage: "Execution (Ausführung)", target: func(a *storage.Assessment) *string { return &a.ActiveParticipation }},
	{name: "technique", usage: "Technique (Technik)", target: func(a *storage.Assessment) *string { return &a.Cleanliness }},
	{name: "self-assessment", usage: "Self-assessment (Selbstbeurteilung)", target: func(a *storage.Assessment) *string { return &a.Material }},
	{name: "liked", usage: "Liked/disliked (Hat mir gefallen/Nicht gefallen)", target: func(a *storage.Assessment) *string { return &a.Punctuality }},
	{name: "comment", usage: "Comment (Kommentar)", target: func(a *storage.Assessment) *string { return &a.Comment }},
}

type assessmentFlagSet struct {
	flags  []assessmentFlag
	values map[string]*string
}

func bindAssessmentFlags(cmd *cobra.Command, flags []assessmentFlag) *assessmentFlagSet {
	set := &assessmentFlagSet{flags: flags, values: map[string]*string{}}
	for _, flag := range flags {
		set.values[flag.name] = cmd.Flags().String(flag.name, "", flag.usage)
	}
	return set
}

// overlay copies every flag the user set onto base.
func (s *assessmentFlagSet) overlay(cmd *cobra.Command, base storage.Assessment) storage.Assessment {
	for _, flag := range s.flags {
		if cmd.Flags().Changed(flag.name) {
			*flag.target(&base) = *s.values[flag.name]
		}
	}
	return base
}

func (s *assessmentFlagSet) anyChanged(cmd *cobra.Command) bool {
	for _, flag := range s.flags {
		if cmd.Flags().Changed(flag.name) {
			return true
		}
	}
	return false
}
