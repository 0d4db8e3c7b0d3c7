package report

// Config holds configuration for report artifacts.
type Config struct {
	// Dir is the directory run artifacts are written to.
	Dir string `mapstructure:"dir" default:"logs"`
}
