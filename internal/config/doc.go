// Package config provides configuration structures and utilities for
// the website audit tool. It defines the main options for crawling,
// audit behavior, and report generation preferences.
package config
