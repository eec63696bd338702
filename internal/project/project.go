// Package project provides project file handling and persistence.
package project

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"layout-verifier/internal/grid"
	"layout-verifier/internal/roi"
)

// File represents a layout verification project file (.lvproj).
type File struct {
	Version     int       `json:"version"`
	Name        string    `json:"name"`
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`
	Description string    `json:"description,omitempty"`

	// Source layout path (relative to project file)
	LayoutPath string `json:"layout,omitempty"`

	// Grid configuration, present once a grid has been generated
	Grid    *grid.Config `json:"grid,omitempty"`
	Regions []roi.Region `json:"regions,omitempty"`

	// Export record path (relative to project file)
	ExportPath string `json:"export,omitempty"`

	// User settings
	Settings Settings `json:"settings,omitempty"`
}

// Settings holds user preferences for the project.
type Settings struct {
	Workers       int  `json:"workers,omitempty"`
	CacheCapacity int  `json:"cache_capacity,omitempty"`
	UseFallback   bool `json:"use_fallback"`
}

// New creates a new project file with default settings.
func New(name string) *File {
	now := time.Now()
	return &File{
		Version:  1,
		Name:     name,
		Created:  now,
		Modified: now,
		Settings: Settings{
			CacheCapacity: 50,
			UseFallback:   true,
		},
	}
}

// Load loads a project from a .lvproj file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var proj File
	if err := json.Unmarshal(data, &proj); err != nil {
		return nil, err
	}

	return &proj, nil
}

// Save saves the project to a file.
func (p *File) Save(path string) error {
	p.Modified = time.Now()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SetLayout sets the layout path (relative to project).
func (p *File) SetLayout(projectPath, layoutPath string) {
	rel, err := filepath.Rel(filepath.Dir(projectPath), layoutPath)
	if err != nil {
		p.LayoutPath = layoutPath
	} else {
		p.LayoutPath = rel
	}
	p.Modified = time.Now()
}

// GetLayoutPath returns the absolute path to the layout file.
func (p *File) GetLayoutPath(projectPath string) string {
	if p.LayoutPath == "" {
		return ""
	}
	if filepath.IsAbs(p.LayoutPath) {
		return p.LayoutPath
	}
	return filepath.Join(filepath.Dir(projectPath), p.LayoutPath)
}

// GetExportPath returns the absolute path to the export record, defaulting
// to <project>_results.json next to the project file.
func (p *File) GetExportPath(projectPath string) string {
	if p.ExportPath == "" {
		base := projectPath[:len(projectPath)-len(filepath.Ext(projectPath))]
		return base + "_results.json"
	}
	if filepath.IsAbs(p.ExportPath) {
		return p.ExportPath
	}
	return filepath.Join(filepath.Dir(projectPath), p.ExportPath)
}
