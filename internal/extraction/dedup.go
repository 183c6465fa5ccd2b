package extraction

import "letraz-jobboard/pkg/models"

// Dedup drops records whose title and company (case-insensitive) were already
// seen. The first occurrence wins and its fields are kept as they are.
func Dedup(jobs []models.JobRecord) []models.JobRecord {
	seen := make(map[string]struct{}, len(jobs))
	out := make([]models.JobRecord, 0, len(jobs))
	for _, job := range jobs {
		key := job.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, job)
	}
	return out
}

// Cap truncates jobs to at most max entries
func Cap(jobs []models.JobRecord, max int) []models.JobRecord {
	if max >= 0 && len(jobs) > max {
		return jobs[:max]
	}
	return jobs
}
