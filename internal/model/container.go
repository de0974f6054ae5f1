package model

import (
	"fmt"
	"strings"
)

// Container identifies a board column
type Container string

const (
	Master    Container = "master"
	Monday    Container = "monday"
	Tuesday   Container = "tuesday"
	Wednesday Container = "wednesday"
	Thursday  Container = "thursday"
	Friday    Container = "friday"
	Weekend   Container = "weekend"
)

var containers = []Container{Master, Monday, Tuesday, Wednesday, Thursday, Friday, Weekend}

// Containers returns every column in display order, master first
func Containers() []Container {
	return append([]Container(nil), containers...)
}

// Days returns the day columns in display order
func Days() []Container {
	return append([]Container(nil), containers[1:]...)
}

// Valid reports whether c names a known column
func (c Container) Valid() bool {
	for _, known := range containers {
		if c == known {
			return true
		}
	}
	return false
}

// IsDay reports whether c is one of the day columns
func (c Container) IsDay() bool {
	return c != Master && c.Valid()
}

// Label returns the column heading
func (c Container) Label() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

// ParseContainer parses a column name case-insensitively ("Monday", "master")
func ParseContainer(s string) (Container, error) {
	c := Container(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown container %q", s)
	}
	return c, nil
}
