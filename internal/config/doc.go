// Package config manages user-level settings stored at
// ~/.mernbuilder/config.yaml and MERNBUILDER_* environment variables: the
// default ports, API prefix and database URI baked into generated projects,
// the template set directory, and logging. Settings are validated before
// use and before any write.
package config
