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

package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/masteryyh/vidtube/pkg/config"
	"github.com/masteryyh/vidtube/pkg/utils"
)

// LocalStore keeps assets in a directory, for development and single node setups.
// Writers in all processes sharing the directory serialize on a lock file.
type LocalStore struct {
	dir       string
	publicURL string
	lock      *flock.Flock
}

func NewLocalStore(cfg *config.LocalMediaConfig) (*LocalStore, error) {
	dir, err := utils.GetCleanPath(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("invalid media directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &LocalStore{
		dir:       dir,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
		lock:      flock.New(filepath.Join(dir, ".lock")),
	}, nil
}

func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Upload(ctx context.Context, src *Source) (*Asset, error) {
	file, err := src.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", src.Name, err)
	}
	defer file.Close()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	name := id.String() + strings.ToLower(filepath.Ext(src.Name))

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	_, copyErr := io.Copy(tmp, file)
	closeErr := tmp.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", src.Name, err)
	}

	if err := s.withLock(ctx, func() error {
		return os.Rename(tmp.Name(), filepath.Join(s.dir, name))
	}); err != nil {
		return nil, err
	}

	return &Asset{URL: s.publicURL + "/" + name, ID: name}, nil
}

func (s *LocalStore) Delete(ctx context.Context, id string) error {
	target, err := s.resolve(id)
	if err != nil {
		return err
	}
	return s.withLock(ctx, func() error {
		if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	})
}

// resolve maps an asset id onto a file inside the store directory.
func (s *LocalStore) resolve(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("invalid asset id %q", id)
	}
	target := filepath.Join(s.dir, id)
	contained, err := utils.PathContained([]string{s.dir}, target)
	if err != nil || !contained {
		return "", fmt.Errorf("invalid asset id %q", id)
	}
	return target, nil
}

func (s *LocalStore) withLock(ctx context.Context, fn func() error) error {
	locked, err := s.lock.TryLockContext(ctx, 20*time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to lock media directory: %w", err)
	}
	if !locked {
		return fmt.Errorf("failed to lock media directory")
	}
	defer s.lock.Unlock()
	return fn()
}
