package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/anhhoangdev/ldpctl/internal/helm"
	"github.com/anhhoangdev/ldpctl/internal/orchestrate"
	"github.com/anhhoangdev/ldpctl/internal/secrets"
)

// validCheckTargets is the accepted set for readiness check targets.
var validCheckTargets = map[orchestrate.CheckTarget]bool{
	orchestrate.TargetDeployment:  true,
	orchestrate.TargetStatefulSet: true,
	orchestrate.TargetPods:        true,
	orchestrate.TargetEndpoints:   true,
	orchestrate.TargetCRD:         true,
	orchestrate.TargetSecret:      true,
	orchestrate.TargetApplication: true,
}

// Validate checks the configuration and returns every problem found,
// joined. Graph-level validation (cycles, dangling dependencies) happens
// in internal/graph when the plan is built.
func (c *Config) Validate() error {
	var errs []error

	if c.Platform.Name == "" {
		errs = append(errs, errors.New("platform.name is required"))
	} else if !isValidDNSName(c.Platform.Name) {
		errs = append(errs, errors.New("platform.name must be DNS-safe (lowercase alphanumeric and hyphens, starting with a letter)"))
	}

	if !c.Platform.Environment.IsValid() {
		errs = append(errs, fmt.Errorf("platform.environment must be one of: %v", ValidEnvironments()))
	}

	if err := validateEndpoint("vault.address", c.Vault.Address); err != nil {
		errs = append(errs, err)
	}
	if err := validateEndpoint("warehouse.endpoint", c.Warehouse.Endpoint); err != nil {
		errs = append(errs, err)
	}

	for _, bucket := range c.Warehouse.Buckets {
		if !isValidBucketName(bucket) {
			errs = append(errs, fmt.Errorf("warehouse bucket %q must be 3-63 lowercase alphanumeric characters, hyphens, or dots", bucket))
		}
	}

	errs = append(errs, c.validateConsumers()...)
	errs = append(errs, c.validateCharts()...)
	errs = append(errs, c.validatePhases()...)

	return errors.Join(errs...)
}

func (c *Config) validateConsumers() []error {
	var errs []error

	seen := make(map[string]bool, len(c.Consumers))
	for _, cc := range c.Consumers {
		if cc.Name == "" {
			errs = append(errs, errors.New("consumers: entry with empty name"))
			continue
		}
		if seen[cc.Name] {
			errs = append(errs, fmt.Errorf("consumers: duplicate consumer %s", cc.Name))
		}
		seen[cc.Name] = true

		if !isValidDuration(cc.RefreshInterval) {
			errs = append(errs, fmt.Errorf("consumer %s: invalid refreshInterval %q", cc.Name, cc.RefreshInterval))
		}
	}

	// Field-level and cross-binding checks run on the defaulted view, so
	// an entry that only names a consumer still passes.
	if err := secrets.ValidateBindings(c.Bindings()); err != nil {
		errs = append(errs, fmt.Errorf("consumers: %w", err))
	}

	return errs
}

func (c *Config) validateCharts() []error {
	var errs []error
	for service := range c.Charts {
		if _, ok := helm.DefaultChartSpecs[service]; !ok {
			errs = append(errs, fmt.Errorf("charts: unknown platform service %q", service))
		}
	}
	return errs
}

func (c *Config) validatePhases() []error {
	var errs []error

	seen := make(map[string]bool, len(c.Phases))
	for _, p := range c.Phases {
		if p.Name == "" {
			errs = append(errs, errors.New("phases: entry with empty name"))
			continue
		}
		if !isValidDNSName(p.Name) {
			errs = append(errs, fmt.Errorf("phase %s: name must be DNS-safe", p.Name))
		}
		if seen[p.Name] {
			errs = append(errs, fmt.Errorf("phases: duplicate phase %s", p.Name))
		}
		seen[p.Name] = true

		for _, dep := range p.DependsOn {
			if dep == p.Name {
				errs = append(errs, fmt.Errorf("phase %s: depends on itself", p.Name))
			}
		}

		if !isValidDuration(p.Timeout) {
			errs = append(errs, fmt.Errorf("phase %s: invalid timeout %q", p.Name, p.Timeout))
		}

		if p.Retry != nil {
			if p.Retry.MaxAttempts < 0 {
				errs = append(errs, fmt.Errorf("phase %s: retry.maxAttempts must not be negative", p.Name))
			}
			if !isValidDuration(p.Retry.InitialDelay) {
				errs = append(errs, fmt.Errorf("phase %s: invalid retry.initialDelay %q", p.Name, p.Retry.InitialDelay))
			}
			if !isValidDuration(p.Retry.MaxDelay) {
				errs = append(errs, fmt.Errorf("phase %s: invalid retry.maxDelay %q", p.Name, p.Retry.MaxDelay))
			}
			if p.Retry.Multiplier < 0 {
				errs = append(errs, fmt.Errorf("phase %s: retry.multiplier must not be negative", p.Name))
			}
		}

		if len(p.Manifests) == 0 && len(p.Charts) == 0 && len(p.Checks) == 0 {
			errs = append(errs, fmt.Errorf("phase %s: declares no manifests, charts, or checks", p.Name))
		}

		for _, chart := range p.Charts {
			if chart.Repository == "" || chart.Name == "" || chart.Version == "" {
				errs = append(errs, fmt.Errorf("phase %s: chart entries need repository, name, and version", p.Name))
			}
			if chart.Namespace == "" {
				errs = append(errs, fmt.Errorf("phase %s: chart %s needs a namespace", p.Name, chart.Name))
			}
		}

		for _, check := range p.Checks {
			label := check.Name
			if label == "" {
				label = check.Selector
			}
			if !validCheckTargets[orchestrate.CheckTarget(strings.ToLower(check.Target))] {
				errs = append(errs, fmt.Errorf("phase %s: check %s has unknown target %q", p.Name, label, check.Target))
			}
			if check.Selector == "" {
				errs = append(errs, fmt.Errorf("phase %s: check %s needs a selector", p.Name, label))
			}
			if !isValidDuration(check.Timeout) {
				errs = append(errs, fmt.Errorf("phase %s: check %s has invalid timeout %q", p.Name, label, check.Timeout))
			}
		}
	}

	return errs
}

// isValidDuration reports whether a duration string is empty or parses
// to a non-negative value.
func isValidDuration(s string) bool {
	if s == "" {
		return true
	}
	d, err := time.ParseDuration(s)
	return err == nil && d >= 0
}

// validateEndpoint checks that an address parses as an http(s) URL.
func validateEndpoint(field, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(value)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%s must be an http(s) URL, got %q", field, value)
	}
	return nil
}

// isValidDNSName checks if a string is a valid DNS label.
// Must be lowercase, alphanumeric with hyphens, start with a letter,
// max 63 chars, no consecutive hyphens.
func isValidDNSName(name string) bool {
	if len(name) == 0 || len(name) > 63 {
		return false
	}
	if name[0] < 'a' || name[0] > 'z' {
		return false
	}
	last := name[len(name)-1]
	if (last < 'a' || last > 'z') && (last < '0' || last > '9') {
		return false
	}
	for _, c := range name {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' {
			return false
		}
	}
	return !strings.Contains(name, "--")
}

// isValidBucketName checks S3 bucket naming rules, simplified to the
// subset the platform generates: lowercase alphanumerics, hyphens, dots.
func isValidBucketName(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	first, last := name[0], name[len(name)-1]
	if !isLowerAlnum(first) || !isLowerAlnum(last) {
		return false
	}
	for _, c := range name {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' && c != '.' {
			return false
		}
	}
	return true
}

func isLowerAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
