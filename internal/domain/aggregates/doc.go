// Package aggregates holds the error vocabulary shared by aggregate writes and
// the boundaries those writes guard. Nothing here knows about gorm or HTTP.
package aggregates
