// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks a missing or invalid construction-time setting.
	// It is always fatal.
	ErrConfiguration = errors.New("configuration error")

	// ErrServiceUnavailable marks an unreachable or failing scoring endpoint.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrSearchFailed marks a route search failure for a single variant.
	ErrSearchFailed = errors.New("route search failed")
)

// ConfigError lists every missing setting of one component.
type ConfigError struct {
	Component string
	Missing   []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: missing required configuration: %s",
		e.Component, strings.Join(e.Missing, ", "))
}

// Is makes errors.Is(err, ErrConfiguration) true for any *ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

// CheckRequired returns a *ConfigError naming every empty value in fields,
// or nil when all are set. Keys are reported in the order given by names.
func CheckRequired(component string, names []string, fields map[string]string) error {
	var missing []string
	for _, name := range names {
		if strings.TrimSpace(fields[name]) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &ConfigError{Component: component, Missing: missing}
}

// SearchError carries the variant whose route search failed.
type SearchError struct {
	SMILES string
	Err    error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("searching routes for %s: %v", e.SMILES, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrSearchFailed) true for any *SearchError.
func (e *SearchError) Is(target error) bool {
	return target == ErrSearchFailed
}
