package models

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// ExperienceLevel is the seniority band used by search criteria and career profiles
type ExperienceLevel string

const (
	ExperienceEntry     ExperienceLevel = "entry"
	ExperienceMid       ExperienceLevel = "mid"
	ExperienceSenior    ExperienceLevel = "senior"
	ExperienceExecutive ExperienceLevel = "executive"
)

// Defaults applied to an ExtractRequest before validation
const (
	DefaultLocation        = "Remote"
	DefaultExperienceLevel = ExperienceMid
	DefaultMaxJobs         = 10
)

// DefaultBoards is used when a request names no boards
var DefaultBoards = []string{"indeed", "linkedin", "glassdoor"}

// ExtractRequest represents the search criteria for one extraction run
type ExtractRequest struct {
	JobTitle        string          `json:"jobTitle" yaml:"job_title" validate:"required"`
	Location        string          `json:"location,omitempty" yaml:"location"`
	ExperienceLevel ExperienceLevel `json:"experienceLevel,omitempty" yaml:"experience_level" validate:"omitempty,oneof=entry mid senior executive"`
	MaxJobs         int             `json:"maxJobs,omitempty" yaml:"max_jobs" validate:"gt=0"`
	Boards          []string        `json:"boards,omitempty" yaml:"boards" validate:"min=1,dive,required,board"`

	// maxJobsSet records that a decoded request carried maxJobs, so an
	// explicit zero is validated instead of defaulted
	maxJobsSet bool
}

// UnmarshalJSON decodes the request and notes whether maxJobs was present
func (r *ExtractRequest) UnmarshalJSON(data []byte) error {
	type plain ExtractRequest
	if err := json.Unmarshal(data, (*plain)(r)); err != nil {
		return err
	}
	var presence struct {
		MaxJobs *int `json:"maxJobs"`
	}
	if err := json.Unmarshal(data, &presence); err != nil {
		return err
	}
	r.maxJobsSet = presence.MaxJobs != nil
	return nil
}

// UnmarshalYAML is the yaml counterpart of UnmarshalJSON
func (r *ExtractRequest) UnmarshalYAML(node *yaml.Node) error {
	type plain ExtractRequest
	if err := node.Decode((*plain)(r)); err != nil {
		return err
	}
	var presence struct {
		MaxJobs *int `yaml:"max_jobs"`
	}
	if err := node.Decode(&presence); err != nil {
		return err
	}
	r.maxJobsSet = presence.MaxJobs != nil
	return nil
}

// WithDefaults returns a copy of the request with unset optional fields filled in.
// MaxJobs is only defaulted when it was omitted; an explicit zero or a
// negative value is left for validation to reject.
func (r ExtractRequest) WithDefaults(defaultBoards []string) ExtractRequest {
	if r.Location == "" {
		r.Location = DefaultLocation
	}
	if r.ExperienceLevel == "" {
		r.ExperienceLevel = DefaultExperienceLevel
	}
	if r.MaxJobs == 0 && !r.maxJobsSet {
		r.MaxJobs = DefaultMaxJobs
	}
	if r.Boards == nil {
		if len(defaultBoards) == 0 {
			defaultBoards = DefaultBoards
		}
		r.Boards = append([]string(nil), defaultBoards...)
	}
	return r
}

// CareerProfile holds the user's targets used for relevance scoring
type CareerProfile struct {
	JobTitles       []string        `json:"jobTitles" validate:"omitempty,dive,required"`
	Industries      []string        `json:"industries,omitempty"`
	ExperienceLevel ExperienceLevel `json:"experienceLevel,omitempty" validate:"omitempty,oneof=entry mid senior executive"`
	KeySkills       []string        `json:"keySkills,omitempty"`
}

// CareerPageRequest asks the engine to extract and filter jobs from a company career page
type CareerPageRequest struct {
	URL     string        `json:"url" validate:"required,url"`
	Profile CareerProfile `json:"profile"`
}

// URLRequest carries a single URL for classification or validation
type URLRequest struct {
	URL string `json:"url" validate:"required,url"`
}
