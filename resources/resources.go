package resources

import "embed"

//go:embed migrations i18n policies.yml
var FS embed.FS
