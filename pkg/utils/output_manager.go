package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OutputManager lays out exported files, one directory per run.
type OutputManager struct {
	BaseOutputDir string
}

// NewOutputManager creates a new output manager
func NewOutputManager(baseOutputDir string) *OutputManager {
	if baseOutputDir == "" {
		baseOutputDir = "exports"
	}
	return &OutputManager{
		BaseOutputDir: baseOutputDir,
	}
}

// RunDir creates the run's output directory if needed and returns it.
func (om *OutputManager) RunDir(runID string) (string, error) {
	runDir := filepath.Join(om.BaseOutputDir, filepath.Base(runID))

	err := os.MkdirAll(runDir, 0755)
	if err != nil {
		return "", fmt.Errorf("failed to create run output directory: %w", err)
	}

	return runDir, nil
}

// FilePath returns the path of an output file inside the run directory.
func (om *OutputManager) FilePath(runID, fileName string) (string, error) {
	runDir, err := om.RunDir(runID)
	if err != nil {
		return "", err
	}

	// no path separators from table names
	cleanFileName := filepath.Base(fileName)

	return filepath.Join(runDir, cleanFileName), nil
}

// Lookup returns the path of an existing output file, or an error if it is missing.
func (om *OutputManager) Lookup(runID, fileName string) (string, error) {
	path := filepath.Join(om.BaseOutputDir, filepath.Base(runID), filepath.Base(fileName))
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	return path, nil
}

// OutputFile describes an exported file of a run.
type OutputFile struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"downloadUrl"`
}

// Files lists the exported files of a run, sorted by name.
// A run that exported nothing has no directory and yields an empty list.
func (om *OutputManager) Files(runID string) ([]OutputFile, error) {
	files := make([]OutputFile, 0)
	entries, err := os.ReadDir(filepath.Join(om.BaseOutputDir, filepath.Base(runID)))
	if os.IsNotExist(err) {
		return files, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list run output directory: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", e.Name(), err)
		}
		files = append(files, OutputFile{
			Name:        e.Name(),
			Type:        om.FileType(e.Name()),
			Size:        info.Size(),
			DownloadURL: om.DownloadURL(runID, e.Name()),
		})
	}
	return files, nil
}

// DownloadURL is where the API serves an exported file.
func (om *OutputManager) DownloadURL(runID, fileName string) string {
	return fmt.Sprintf("/api/v1/analyses/%s/files/%s", runID, filepath.Base(fileName))
}

// FileType determines the file type based on extension
func (om *OutputManager) FileType(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return "csv"
	case ".json":
		return "json"
	default:
		return "unknown"
	}
}
