// Package config turns viper settings into the site settings that drive
// provider selection, automatic translation, group restrictions and the
// storage backends.
package config
