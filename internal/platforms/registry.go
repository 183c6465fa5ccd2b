// Package platforms holds the static job board registry and search URL builder.
package platforms

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"letraz-jobboard/pkg/utils"
)

//go:embed platforms.yaml
var builtinPlatforms []byte

// Field names an extractable part of a job card
type Field string

const (
	FieldJobCard     Field = "job_card"
	FieldTitle       Field = "title"
	FieldCompany     Field = "company"
	FieldLocation    Field = "location"
	FieldDescription Field = "description"
	FieldURL         Field = "url"
	FieldSalary      Field = "salary"
	FieldPostedDate  Field = "posted_date"
)

// CardFields are extracted within each job card, in this order
var CardFields = []Field{FieldTitle, FieldCompany, FieldLocation, FieldDescription, FieldURL, FieldSalary, FieldPostedDate}

// SelectorSet maps every field to its ordered fallback list of CSS selectors
type SelectorSet struct {
	JobCard     []string `yaml:"job_card" json:"jobCard"`
	Title       []string `yaml:"title" json:"title"`
	Company     []string `yaml:"company" json:"company"`
	Location    []string `yaml:"location" json:"location,omitempty"`
	Description []string `yaml:"description" json:"description,omitempty"`
	URL         []string `yaml:"url" json:"url,omitempty"`
	Salary      []string `yaml:"salary" json:"salary,omitempty"`
	PostedDate  []string `yaml:"posted_date" json:"postedDate,omitempty"`
}

// For returns the selector list configured for a field
func (s SelectorSet) For(field Field) []string {
	switch field {
	case FieldJobCard:
		return s.JobCard
	case FieldTitle:
		return s.Title
	case FieldCompany:
		return s.Company
	case FieldLocation:
		return s.Location
	case FieldDescription:
		return s.Description
	case FieldURL:
		return s.URL
	case FieldSalary:
		return s.Salary
	case FieldPostedDate:
		return s.PostedDate
	default:
		return nil
	}
}

// Validate enforces at least one selector for job_card, title and company
func (s SelectorSet) Validate() error {
	for _, f := range []Field{FieldJobCard, FieldTitle, FieldCompany} {
		if len(s.For(f)) == 0 {
			return fmt.Errorf("missing selectors for %s", f)
		}
	}
	return nil
}

// PlatformConfig is an immutable registry entry
type PlatformConfig struct {
	Name              string            `yaml:"name"`
	BaseURL           string            `yaml:"base_url"`
	SearchPath        string            `yaml:"search_path"`
	QueryParam        string            `yaml:"query_param"`
	LocationParam     string            `yaml:"location_param"`
	Params            map[string]string `yaml:"params"`
	RateLimitInterval time.Duration     `yaml:"rate_limit_interval"`
	PreferHTTP        bool              `yaml:"prefer_http"`
	Selectors         SelectorSet       `yaml:"selectors"`
}

func (p PlatformConfig) validate() error {
	if p.Name == "" {
		return fmt.Errorf("platform without name")
	}
	u, err := url.Parse(p.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("platform %s: invalid base_url %q", p.Name, p.BaseURL)
	}
	if p.QueryParam == "" {
		return fmt.Errorf("platform %s: query_param is required", p.Name)
	}
	if p.RateLimitInterval < 0 {
		return fmt.Errorf("platform %s: negative rate_limit_interval", p.Name)
	}
	if err := p.Selectors.Validate(); err != nil {
		return fmt.Errorf("platform %s: %w", p.Name, err)
	}
	return nil
}

// SearchURL builds the platform's search URL. Parameters are encoded in
// sorted key order so identical inputs always yield identical URLs.
func (p PlatformConfig) SearchURL(jobTitle, location string) string {
	values := url.Values{}
	for k, v := range p.Params {
		values.Set(k, v)
	}
	values.Set(p.QueryParam, jobTitle)
	if p.LocationParam != "" && location != "" {
		values.Set(p.LocationParam, location)
	}

	return strings.TrimRight(p.BaseURL, "/") + "/" + strings.TrimLeft(p.SearchPath, "/") + "?" + values.Encode()
}

// Registry is the read-only set of known platforms
type Registry struct {
	platforms map[string]PlatformConfig
}

type registryFile struct {
	Platforms []PlatformConfig `yaml:"platforms"`
}

// NewRegistry validates and indexes platform configs
func NewRegistry(configs ...PlatformConfig) (*Registry, error) {
	r := &Registry{platforms: make(map[string]PlatformConfig, len(configs))}
	for _, c := range configs {
		c.Name = strings.ToLower(strings.TrimSpace(c.Name))
		if err := c.validate(); err != nil {
			return nil, err
		}
		if _, dup := r.platforms[c.Name]; dup {
			return nil, fmt.Errorf("platform %s registered twice", c.Name)
		}
		r.platforms[c.Name] = c
	}
	return r, nil
}

// Parse builds a registry from YAML
func Parse(data []byte) (*Registry, error) {
	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse platform registry: %w", err)
	}
	if len(f.Platforms) == 0 {
		return nil, fmt.Errorf("platform registry is empty")
	}
	return NewRegistry(f.Platforms...)
}

// Load returns the registry from path, or the built-in one when path is empty
func Load(path string) (*Registry, error) {
	if path == "" {
		return Builtin()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read platform registry: %w", err)
	}
	return Parse(data)
}

// Builtin returns the registry compiled into the binary
func Builtin() (*Registry, error) {
	return Parse(builtinPlatforms)
}

// Get looks up a platform by name
func (r *Registry) Get(name string) (PlatformConfig, error) {
	p, ok := r.platforms[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return PlatformConfig{}, utils.NewUnsupportedPlatformError(name)
	}
	return p, nil
}

// Has reports whether name is registered
func (r *Registry) Has(name string) bool {
	_, err := r.Get(name)
	return err == nil
}

// Names returns all platform names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.platforms))
	for name := range r.platforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildSearchURL composes the search URL for a registered platform
func (r *Registry) BuildSearchURL(platform, jobTitle, location string) (string, error) {
	p, err := r.Get(platform)
	if err != nil {
		return "", err
	}
	return p.SearchURL(jobTitle, location), nil
}
