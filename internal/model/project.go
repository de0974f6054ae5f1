package model

import "strings"

// Project groups tasks inside the master column
type Project struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Color      string `json:"color"`
	OrderIndex int    `json:"orderIndex"`
}

// Color is one entry of the project palette
type Color struct {
	Name  string
	Value string
}

// Palette lists every color a project may use, in picker order
var Palette = []Color{
	{Name: "Red", Value: "#ef4444"},
	{Name: "Orange", Value: "#f97316"},
	{Name: "Blue", Value: "#3b82f6"},
	{Name: "Green", Value: "#22c55e"},
	{Name: "Purple", Value: "#8b5cf6"},
	{Name: "Pink", Value: "#ec4899"},
	{Name: "Teal", Value: "#14b8a6"},
	{Name: "Yellow", Value: "#facc15"},
	{Name: "Lime", Value: "#a3e635"},
	{Name: "Cyan", Value: "#22d3ee"},
	{Name: "Indigo", Value: "#6366f1"},
}

// DefaultColor is used when a project is created without a color
func DefaultColor() string {
	return Palette[0].Value
}

// ResolveColor accepts a palette value or name (case-insensitive) and returns
// the palette value. Empty input resolves to the default color.
func ResolveColor(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultColor(), true
	}
	for _, c := range Palette {
		if strings.EqualFold(c.Value, s) || strings.EqualFold(c.Name, s) {
			return c.Value, true
		}
	}
	return "", false
}

// ColorName returns the palette name for a color value, or the value itself
func ColorName(value string) string {
	for _, c := range Palette {
		if strings.EqualFold(c.Value, value) {
			return c.Name
		}
	}
	return value
}
