package extract

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/parlaplate/pkg/model"
)

// LoadMenu reads and validates a menu document from a JSON file
func LoadMenu(path string) (*model.Menu, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read menu file", goerr.V("path", path))
	}

	var menu model.Menu
	if err := json.Unmarshal(data, &menu); err != nil {
		return nil, goerr.Wrap(err, "menu file is not valid JSON", goerr.V("path", path))
	}
	if err := menu.Validate(); err != nil {
		return nil, err
	}

	return &menu, nil
}

// SaveMenu writes a menu document as indented JSON, creating parent
// directories as needed
func SaveMenu(menu *model.Menu, path string) error {
	data, err := json.MarshalIndent(menu, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to encode menu")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return goerr.Wrap(err, "failed to create output directory", goerr.V("dir", dir))
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return goerr.Wrap(err, "failed to write menu file", goerr.V("path", path))
	}

	return nil
}

var (
	unsafeNameRe     = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)
	repeatedScoresRe = regexp.MustCompile(`_+`)
)

// CleanName derives a filesystem-safe lowercase name from a source file
// name, dropping the extension
func CleanName(filename string) string {
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	name = unsafeNameRe.ReplaceAllString(name, "_")
	name = repeatedScoresRe.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	if name == "" {
		return "menu"
	}
	return strings.ToLower(name)
}
