// Package sweep applies retention policies to workflow run histories,
// either once or on cron schedules.
package sweep

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/korosuke613/ghasweep/github"
	"github.com/korosuke613/ghasweep/prune"
)

// Policy is one retention rule: which workflow's runs to prune, by what
// criterion, on what schedule. Exactly one of Conclusion, Actor and
// OlderThanDays must be set.
type Policy struct {
	Owner         string `yaml:"owner" json:"owner"`
	Repo          string `yaml:"repo" json:"repo"`
	Workflow      string `yaml:"workflow" json:"workflow"`
	Schedule      string `yaml:"schedule,omitempty" json:"schedule,omitempty"`
	Conclusion    string `yaml:"conclusion,omitempty" json:"conclusion,omitempty"`
	Actor         string `yaml:"actor,omitempty" json:"actor,omitempty"`
	OlderThanDays int    `yaml:"older_than_days,omitempty" json:"older_than_days,omitempty"`
}

type policyFile struct {
	Policies []Policy `yaml:"policies"`
}

// LoadPolicies reads and validates a YAML policy file.
func LoadPolicies(path string) ([]Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}

	var file policyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse policy file %s: %w", path, err)
	}
	if len(file.Policies) == 0 {
		return nil, fmt.Errorf("policy file %s defines no policies", path)
	}

	for i := range file.Policies {
		if err := file.Policies[i].Validate(); err != nil {
			return nil, fmt.Errorf("policy %d (%s): %w", i+1, file.Policies[i].Key(), err)
		}
	}

	return file.Policies, nil
}

// Validate checks required fields and criterion exclusivity.
func (p *Policy) Validate() error {
	if p.Owner == "" || p.Repo == "" {
		return errors.New("owner and repo are required")
	}
	if p.Workflow == "" {
		return errors.New("workflow is required")
	}
	if p.OlderThanDays < 0 {
		return fmt.Errorf("older_than_days must be positive, got %d", p.OlderThanDays)
	}

	criteria := 0
	if p.Conclusion != "" {
		if _, err := github.ParseConclusion(p.Conclusion); err != nil {
			return err
		}
		criteria++
	}
	if p.Actor != "" {
		criteria++
	}
	if p.OlderThanDays > 0 {
		criteria++
	}

	switch {
	case criteria == 0:
		return errors.New("one of conclusion, actor, older_than_days is required")
	case criteria > 1:
		return errors.New("conclusion, actor and older_than_days are mutually exclusive")
	}
	return nil
}

// Criterion converts the policy's selection fields to a prune.Criterion.
func (p *Policy) Criterion() prune.Criterion {
	switch {
	case p.Conclusion != "":
		return prune.ByConclusion(github.Conclusion(p.Conclusion))
	case p.Actor != "":
		return prune.ByActor(p.Actor)
	case p.OlderThanDays > 0:
		return prune.ByOlderThan(p.OlderThanDays)
	}
	return prune.Criterion{}
}

// Key uniquely identifies a policy target.
func (p *Policy) Key() string {
	return fmt.Sprintf("%s/%s/%s", p.Owner, p.Repo, p.Workflow)
}
