package loamsource

// SectionMetadata is the frontmatter of a workspace document. It uses
// "mapstructure" tags to match the YAML keys Loam decodes.
type SectionMetadata struct {
	Role  string `json:"role" mapstructure:"role"`
	Title string `json:"title" mapstructure:"title"`

	// Order sorts siblings; lower comes first, ties break on name.
	Order int `json:"order" mapstructure:"order"`

	// Hold parks the built element under this handle until released.
	Hold string `json:"hold" mapstructure:"hold"`

	Attrs map[string]any `json:"attrs" mapstructure:"attrs"`
}
