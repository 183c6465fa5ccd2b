package relevance

import (
	"regexp"

	"letraz-jobboard/pkg/models"
)

type levelPattern struct {
	level models.ExperienceLevel
	re    *regexp.Regexp
}

// Checked in order; the first level whose keywords appear wins
var levelPatterns = []levelPattern{
	// "executive" alone is a sales title (account executive); only the
	// seniority forms count
	{models.ExperienceExecutive, regexp.MustCompile(`(?i)\b(?:chief|vp|svp|evp|vice president|president|director|head of|cto|ceo|cfo|coo|cio|c-level|c-suite|executive (?:director|vice president|officer))\b`)},
	{models.ExperienceSenior, regexp.MustCompile(`(?i)\b(?:senior|sr|lead|principal|staff|architect)\b`)},
	{models.ExperienceMid, regexp.MustCompile(`(?i)\b(?:mid|mid-level|intermediate|ii|iii)\b`)},
	{models.ExperienceEntry, regexp.MustCompile(`(?i)\b(?:junior|jr|entry|entry-level|graduate|grad|intern|internship|trainee|apprentice)\b`)},
}

// DetectLevel infers the seniority a posting implies, looking at the title
// before the description. An empty result means the posting is ambiguous.
func DetectLevel(title, description string) models.ExperienceLevel {
	if level := detect(title); level != "" {
		return level
	}
	return detect(description)
}

func detect(text string) models.ExperienceLevel {
	if text == "" {
		return ""
	}
	for _, p := range levelPatterns {
		if p.re.MatchString(text) {
			return p.level
		}
	}
	return ""
}

// LevelCompatible rejects only postings more senior than the profile allows:
// entry profiles reject mid, senior and executive postings, mid profiles
// reject executive ones. Everything else passes, including ambiguous postings.
func LevelCompatible(profile, posting models.ExperienceLevel) bool {
	switch profile {
	case models.ExperienceEntry:
		return posting != models.ExperienceMid && posting != models.ExperienceSenior && posting != models.ExperienceExecutive
	case models.ExperienceMid:
		return posting != models.ExperienceExecutive
	default:
		return true
	}
}
