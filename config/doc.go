// Package config loads the arimabt configuration file.
package config
