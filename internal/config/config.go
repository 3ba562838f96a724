// Package config loads and validates the TOML run-configuration file that
// drives a verification run.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// RunConfiguration is the full contents of a run-configuration file. It is
// loaded once and treated as immutable for the lifetime of the run.
type RunConfiguration struct {
	// VerusGitURL is the upstream source URL of the verifier. It is recorded
	// in every report and used as the second patch-source key during
	// dependency injection.
	VerusGitURL string `toml:"verus_git_url" json:"verus_git_url"`

	// VerusRefspec is the verifier revision this run claims to exercise.
	VerusRefspec string `toml:"verus_refspec" json:"verus_refspec"`

	// VerusFeatures lists the feature set the verifier build was produced
	// with; recorded in reports for provenance.
	VerusFeatures []string `toml:"verus_features" json:"verus_features"`

	// VerusExtraArgs are flags passed to every verifier invocation, before
	// any per-project flags.
	VerusExtraArgs []string `toml:"verus_extra_args" json:"verus_extra_args,omitempty"`

	// Projects are processed strictly in file order.
	Projects []Project `toml:"project" json:"project"`
}

// Project is one project entry of the run configuration. It is cloned into
// output records for provenance, so every field carries a JSON tag.
type Project struct {
	Name   string `toml:"name" json:"name"`
	GitURL string `toml:"git_url" json:"git_url"`

	// Refspec is a branch, tag, or commit-like reference, resolved to a
	// concrete commit at checkout time.
	Refspec string `toml:"refspec" json:"refspec"`

	// CrateRoot is a convenience for projects with a single build target.
	// Validate folds it into CrateRoots.
	CrateRoot  string   `toml:"crate_root" json:"-"`
	CrateRoots []string `toml:"crate_roots" json:"crate_roots"`

	// ExtraArgs are appended after the run-level flags, so a project can
	// override or extend them.
	ExtraArgs []string `toml:"extra_args" json:"extra_args,omitempty"`

	// PrepareScript, when set, runs as a single shell invocation after
	// checkout and before the first target. A non-zero exit fails the
	// project.
	PrepareScript string `toml:"prepare_script" json:"prepare_script,omitempty"`

	// CargoProject selects the library-integrated invocation mode: the
	// verifier runs through its cargo wrapper inside the target crate, with
	// verifier-library dependencies patched to the local checkout.
	CargoProject bool `toml:"cargo_project" json:"cargo_project,omitempty"`

	// Ignore marks the project as skippable by default; --run-ignored
	// overrides it.
	Ignore bool `toml:"ignore" json:"ignore,omitempty"`
}

// Targets returns the project's build targets in configuration order.
func (p *Project) Targets() []string {
	return p.CrateRoots
}

// Load reads and validates a run-configuration file.
func Load(path string) (*RunConfiguration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read configuration file %s: %w", path, err)
	}
	var cfg RunConfiguration
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("cannot parse run configuration %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run configuration %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate normalizes the configuration and rejects entries the run driver
// cannot act on.
func (c *RunConfiguration) Validate() error {
	if c.VerusGitURL == "" {
		return errors.New("verus_git_url must be set")
	}
	if c.VerusRefspec == "" {
		return errors.New("verus_refspec must be set")
	}
	if len(c.Projects) == 0 {
		return errors.New("at least one [[project]] entry is required")
	}

	seen := make(map[string]struct{}, len(c.Projects))
	for i := range c.Projects {
		p := &c.Projects[i]
		if p.Name == "" {
			return fmt.Errorf("project %d: name must be set", i)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("project %q: duplicate name", p.Name)
		}
		seen[p.Name] = struct{}{}

		if p.GitURL == "" {
			return fmt.Errorf("project %q: git_url must be set", p.Name)
		}
		if p.Refspec == "" {
			return fmt.Errorf("project %q: refspec must be set", p.Name)
		}

		if p.CrateRoot != "" {
			if len(p.CrateRoots) > 0 {
				return fmt.Errorf("project %q: crate_root and crate_roots are mutually exclusive", p.Name)
			}
			p.CrateRoots = []string{p.CrateRoot}
			p.CrateRoot = ""
		}
		if len(p.CrateRoots) == 0 {
			return fmt.Errorf("project %q: at least one crate root is required", p.Name)
		}
	}
	return nil
}
