// Package schema has configs, models and shared constants for all parts of teamscope.
package schema
