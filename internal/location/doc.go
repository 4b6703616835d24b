// Package location provides the location sources used by the alert pipeline.
package location
