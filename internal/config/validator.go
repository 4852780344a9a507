package config

import (
	"fmt"
	"strings"
)

// Validate checks the config for:
//   - Required fields (version, class, spec, module type)
//   - Duplicate builds for the same class and spec
//   - Duplicate module ids within a build
//   - Negative engine settings
//
// Dependency cycles and unknown module types are reported when a build is
// resolved, since they depend on the module registry.
func Validate(cfg *BuildConfig) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	var errs []string

	e := cfg.Engine
	for _, f := range []struct {
		name string
		v    int
	}{
		{"workers", e.Workers},
		{"queue_depth", e.QueueDepth},
		{"parse_timeout_ms", e.ParseTimeoutMs},
		{"max_jobs", e.MaxJobs},
	} {
		if f.v < 0 {
			errs = append(errs, fmt.Sprintf("engine.%s must not be negative", f.name))
		}
	}

	builds := make(map[string]int) // key → index
	for i, b := range cfg.Builds {
		loc := fmt.Sprintf("builds[%d]", i)
		if b.Class == "" || b.Spec == "" {
			errs = append(errs, fmt.Sprintf("%s: class and spec are required", loc))
			continue
		}
		loc = fmt.Sprintf("build %s", b.Key())
		if prev, ok := builds[b.Key()]; ok {
			errs = append(errs, fmt.Sprintf("duplicate build %q (builds[%d] and builds[%d])", b.Key(), prev, i))
		} else {
			builds[b.Key()] = i
		}
		validateModules(b.Modules, loc, &errs)
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func validateModules(mods []ModuleRef, parent string, errs *[]string) {
	ids := make(map[string]int) // id → index
	for j, m := range mods {
		if m.Type == "" {
			*errs = append(*errs, fmt.Sprintf("%s.modules[%d]: type is required", parent, j))
			continue
		}
		id := m.Name()
		if prev, ok := ids[id]; ok {
			*errs = append(*errs, fmt.Sprintf("%s: duplicate module id %q (modules[%d] and modules[%d])", parent, id, prev, j))
		} else {
			ids[id] = j
		}
		for _, d := range m.DependsOn {
			if d == id {
				*errs = append(*errs, fmt.Sprintf("%s: module %s depends on itself", parent, id))
			}
		}
	}
}

// CheckTypes reports every module whose type known rejects.
func CheckTypes(cfg *BuildConfig, known func(moduleType string) bool) error {
	var errs []string
	for _, b := range cfg.Builds {
		for _, m := range b.Modules {
			if !known(m.Type) {
				errs = append(errs, fmt.Sprintf("build %s: module %s has unknown type %q", b.Key(), m.Name(), m.Type))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config type errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
