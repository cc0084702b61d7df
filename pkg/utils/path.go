/*
Copyright © 2026 masteryyh <yyh991013@163.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package utils

import (
	"errors"
	"path/filepath"
	"strings"
)

// GetCleanPath returns the absolute, cleaned form of path.
func GetCleanPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("path cannot be empty")
	}
	return filepath.Abs(filepath.Clean(path))
}

// PathContained reports whether targetPath lies inside one of basePaths. An empty
// list contains nothing.
func PathContained(basePaths []string, targetPath string) (bool, error) {
	for _, base := range basePaths {
		rel, err := filepath.Rel(base, targetPath)
		if err != nil {
			return false, err
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true, nil
		}
	}
	return false, nil
}
