// Package cli provides the command-line interface: the cobra command tree,
// its flags, and the viper configuration they are bound to.
package cli
