package config

import (
	"fmt"
	"os"

	ferrors "github.com/atopile/dashsync/internal/foundation/errors"
)

const exampleConfig = `# dashsync configuration
backend:
  url: ws://127.0.0.1:8721/ws
  # origin: http://localhost
  # dial_timeout: 5s
  # ping_interval: 30s

store:
  # How long backend errors stay visible before self-clearing.
  error_ttl: 8s

journal:
  enabled: false
  # path: dashsync-journal.db

mirror:
  enabled: false
  # url: nats://127.0.0.1:4222

metrics:
  enabled: false
  # listen: :9821

refresh:
  enabled: true
  projects: 30s
  packages: 5m

logging:
  level: info
  format: text
`

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ValidationError(
			fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).Build()
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o644); err != nil {
		return ferrors.ConfigError("write configuration file").WithCause(err).Build()
	}
	return nil
}
