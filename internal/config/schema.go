package config

import "strings"

// BuildConfig is the top-level YAML structure.
type BuildConfig struct {
	Version string     `yaml:"version" json:"version"`
	Engine  EngineConf `yaml:"engine" json:"engine"`
	Builds  []Build    `yaml:"builds" json:"builds"`
}

// EngineConf holds tunable concurrency settings.
type EngineConf struct {
	Workers        int `yaml:"workers" json:"workers"`
	QueueDepth     int `yaml:"queue_depth" json:"queue_depth"`
	ParseTimeoutMs int `yaml:"parse_timeout_ms" json:"parse_timeout_ms"`
	MaxJobs        int `yaml:"max_jobs" json:"max_jobs"` // finished async jobs kept for lookup
}

// Build is the module set analyzed for one class and specialization.
type Build struct {
	Class   string      `yaml:"class" json:"class"`
	Spec    string      `yaml:"spec" json:"spec"`
	Modules []ModuleRef `yaml:"modules" json:"modules"`
}

// Key identifies a build; class and spec are matched case-insensitively.
func (b Build) Key() string {
	return BuildKey(b.Class, b.Spec)
}

// BuildKey normalizes a class/spec pair.
func BuildKey(class, spec string) string {
	return strings.ToLower(strings.TrimSpace(class)) + "/" + strings.ToLower(strings.TrimSpace(spec))
}

// ModuleRef declares one module instance.
type ModuleRef struct {
	ID        string                 `yaml:"id,omitempty" json:"id,omitempty"` // defaults to Type
	Type      string                 `yaml:"type" json:"type"`
	Disabled  bool                   `yaml:"disabled,omitempty" json:"disabled,omitempty"`
	DependsOn []string               `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
	Params    map[string]interface{} `yaml:"params,omitempty" json:"params,omitempty"`
}

// Name is the module identifier: ID when set, Type otherwise.
func (m ModuleRef) Name() string {
	if m.ID != "" {
		return m.ID
	}
	return m.Type
}

// Enabled returns the build's modules that are not disabled, in declaration order.
func (b Build) Enabled() []ModuleRef {
	out := make([]ModuleRef, 0, len(b.Modules))
	for _, m := range b.Modules {
		if !m.Disabled {
			out = append(out, m)
		}
	}
	return out
}

// Lookup returns the build for class/spec.
func (c *BuildConfig) Lookup(class, spec string) (Build, bool) {
	key := BuildKey(class, spec)
	for _, b := range c.Builds {
		if b.Key() == key {
			return b, true
		}
	}
	return Build{}, false
}
