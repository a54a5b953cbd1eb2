package config

import (
	"fmt"
	"os"
)

const exampleConfig = `# Site configuration
root: .

output:
  directory: output
  # graph: true   # write dependency-graph.dot per build
  # styles: true  # write the bundled syntax stylesheet per build

serve:
  port: 8080
  # metrics: true

watch:
  debounce: 500ms
  sleep: 200ms
  # full_rebuild_interval: 30m

# events:
#   nats_url: nats://localhost:4222

# link_check: true
# state_path: .sitegen.db

global:
  title: My Site
`

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
