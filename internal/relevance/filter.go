// Package relevance scores extracted jobs against a career profile.
package relevance

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"letraz-jobboard/pkg/models"
)

const (
	// TitleMatchThreshold is the minimum token overlap for a direct title match
	TitleMatchThreshold = 0.5
	// CategoryScore is awarded to category matches aligned with the profile's industries
	CategoryScore = 70
	// MaxResults caps the filtered list
	MaxResults = 15
)

type category struct {
	name       string
	keywords   *regexp.Regexp
	industries []string
}

// keywordPattern matches any keyword as whole words, allowing plural and
// -ing forms (engineer, engineers, engineering)
func keywordPattern(keywords ...string) *regexp.Regexp {
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = regexp.QuoteMeta(k)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)(?:s|ing)?\b`)
}

// categories are checked in this order. Aligning every category with its
// own industries, not only software with tech, is a deliberate extension.
var categories = []category{
	{"software", keywordPattern("software", "developer", "engineer", "programmer", "frontend", "front-end", "backend", "back-end", "full stack", "fullstack", "devops", "sre"), []string{"tech", "software", "saas", "internet"}},
	{"product", keywordPattern("product manager", "product owner", "product lead", "product"), []string{"product", "tech"}},
	{"data", keywordPattern("data", "analyst", "analytics", "machine learning", "scientist", "bi"), []string{"data", "analytics", "tech"}},
	{"design", keywordPattern("designer", "design", "ux", "ui/ux", "user experience"), []string{"design", "creative"}},
	{"marketing", keywordPattern("marketing", "seo", "content", "growth", "brand"), []string{"marketing", "advertising", "media"}},
	{"sales", keywordPattern("sales", "account executive", "business development", "account manager"), []string{"sales", "retail"}},
}

// Match describes why a job passed the filter
type Match struct {
	Score    int
	Category string
	Reason   string
}

// Tokens splits a title into lower-cased words longer than two characters
func Tokens(title string) []string {
	var tokens []string
	for _, w := range strings.Fields(strings.ToLower(title)) {
		if len(w) > 2 {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

// TitleOverlap returns the best fraction of any target's tokens found as
// substrings of title, and the target that produced it.
func TitleOverlap(title string, targets []string) (float64, string) {
	lower := strings.ToLower(title)
	best, bestTarget := 0.0, ""

	for _, target := range targets {
		tokens := Tokens(target)
		if len(tokens) == 0 {
			continue
		}
		hits := 0
		for _, tok := range tokens {
			if strings.Contains(lower, tok) {
				hits++
			}
		}
		if f := float64(hits) / float64(len(tokens)); f > best {
			best, bestTarget = f, target
		}
	}
	return best, bestTarget
}

// Score matches one job against the profile. ok is false when neither a
// direct title match nor an industry-aligned category match applies.
func Score(job models.JobRecord, profile models.CareerProfile) (Match, bool) {
	if fraction, target := TitleOverlap(job.Title, profile.JobTitles); fraction >= TitleMatchThreshold {
		return Match{
			Score:    int(math.Round(fraction * 100)),
			Category: models.CategoryDirectTitleMatch,
			Reason:   fmt.Sprintf("title matches %.0f%% of %q", fraction*100, target),
		}, true
	}

	for _, c := range categories {
		if !c.keywords.MatchString(job.Title) {
			continue
		}
		if industry, ok := alignedIndustry(c, profile.Industries); ok {
			return Match{
				Score:    CategoryScore,
				Category: c.name,
				Reason:   fmt.Sprintf("%s role aligned with %s industry", c.name, industry),
			}, true
		}
	}
	return Match{}, false
}

// Filter keeps jobs matching the profile at a compatible experience level,
// sorted by score descending (stable) and capped at MaxResults. The input is not modified.
func Filter(jobs []models.JobRecord, profile models.CareerProfile) []models.JobRecord {
	out := make([]models.JobRecord, 0, len(jobs))

	for _, job := range jobs {
		m, ok := Score(job, profile)
		if !ok {
			continue
		}
		if !LevelCompatible(profile.ExperienceLevel, DetectLevel(job.Title, job.Description)) {
			continue
		}

		reason := m.Reason
		if skills := matchedSkills(job, profile.KeySkills); len(skills) > 0 {
			reason += "; skills: " + strings.Join(skills, ", ")
		}

		score, relevant := m.Score, true
		job.MatchScore = &score
		job.MatchReason = reason
		job.Category = m.Category
		job.IsRelevant = &relevant
		out = append(out, job)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return *out[i].MatchScore > *out[j].MatchScore
	})
	if len(out) > MaxResults {
		out = out[:MaxResults]
	}
	return out
}

func alignedIndustry(c category, industries []string) (string, bool) {
	for _, industry := range industries {
		if containsAny(strings.ToLower(industry), c.industries) {
			return industry, true
		}
	}
	return "", false
}

func matchedSkills(job models.JobRecord, skills []string) []string {
	text := strings.ToLower(job.Title + " " + job.Description)
	var hits []string
	for _, s := range skills {
		if s = strings.TrimSpace(s); s != "" && strings.Contains(text, strings.ToLower(s)) {
			hits = append(hits, s)
		}
	}
	return hits
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
