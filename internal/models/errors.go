package models

import (
	"fmt"
	"strings"
)

// ValidationError represents a per-row data validation error raised
// while parsing raw input.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}

// OrphanedReferenceError reports fact rows whose foreign key does not
// resolve to any dimension row. Any nonzero count aborts the run.
type OrphanedReferenceError struct {
	Table  string
	Column string
	Count  int64
}

func (e *OrphanedReferenceError) Error() string {
	return fmt.Sprintf("%d fact rows reference %s.%s values that do not exist", e.Count, e.Table, e.Column)
}

// IsTransient returns false as referential violations are permanent
func (e *OrphanedReferenceError) IsTransient() bool {
	return false
}

// DomainViolationError reports fact measures outside their value domain
// (negative distance, duration or fare).
type DomainViolationError struct {
	Field string
	Count int64
}

func (e *DomainViolationError) Error() string {
	return fmt.Sprintf("%d fact rows carry a negative %s", e.Count, e.Field)
}

// IsTransient returns false as domain violations are permanent
func (e *DomainViolationError) IsTransient() bool {
	return false
}

// NullFieldError reports required fact columns containing null values.
// All offending columns are listed in one error.
type NullFieldError struct {
	Fields []string
}

func (e *NullFieldError) Error() string {
	return fmt.Sprintf("fact rows contain null values in required columns: %s", strings.Join(e.Fields, ", "))
}

// IsTransient returns false as null violations are permanent
func (e *NullFieldError) IsTransient() bool {
	return false
}
