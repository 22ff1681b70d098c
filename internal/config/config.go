package config

// Strategy actions accepted under 'strategies'.
const (
	ActionNull = "null"
	ActionSame = "same"
)

// Accessor names accepted under 'accessor'.
const (
	AccessorAuto       = "auto"
	AccessorOffset     = "offset"
	AccessorReflection = "reflection"
)

// Policy is a clone policy document. It configures switches and type
// registrations of an engine without code changes. Boolean switches are
// pointers so that an absent key leaves the engine's current value alone.
type Policy struct {
	SchemaVersion string `yaml:"schemaVersion"`

	Enabled         *bool  `yaml:"enabled,omitempty"`
	NullTransient   *bool  `yaml:"nullTransient,omitempty"`
	CloneSynthetics *bool  `yaml:"cloneSynthetics,omitempty"`
	CloneOuterRefs  *bool  `yaml:"cloneOuterRefs,omitempty"`
	Accessor        string `yaml:"accessor,omitempty"`

	// Type lists hold names known to a TypeRegistry, e.g.
	// "time.Time" or "*github.com/acme/app.Session".
	Immutable        []string `yaml:"immutable,omitempty"`
	Ignore           []string `yaml:"ignore,omitempty"`
	IgnoreInstanceOf []string `yaml:"ignoreInstanceOf,omitempty"`
	NullInstead      []string `yaml:"nullInstead,omitempty"`
	RootAncestors    []string `yaml:"rootAncestors,omitempty"`

	// NullTags lists struct tag keys whose fields are zeroed in clones.
	NullTags []string `yaml:"nullTags,omitempty"`
	// Strategies maps a struct tag key to ActionNull or ActionSame.
	Strategies map[string]string `yaml:"strategies,omitempty"`

	// FilePath records where the policy was loaded from. Not parsed from YAML.
	FilePath string `yaml:"-"`
}
