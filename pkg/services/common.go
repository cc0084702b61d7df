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

package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/masteryyh/vidtube/pkg/customerrors"
	"github.com/masteryyh/vidtube/pkg/models"
	"github.com/masteryyh/vidtube/pkg/query"
	"gorm.io/gorm"
)

// Owned is implemented by every resource that belongs to a user.
type Owned interface {
	GetOwnerID() uuid.UUID
}

// IsOwner is the single authorization predicate for mutating owned resources.
func IsOwner(resource Owned, userID uuid.UUID) bool {
	return resource != nil && userID != uuid.Nil && resource.GetOwnerID() == userID
}

// findActive loads a resource that has not been soft deleted.
func findActive[T any](ctx context.Context, db *gorm.DB, id uuid.UUID, notFound error) (*T, error) {
	row, err := gorm.G[T](db).Where("id = ? AND deleted_at IS NULL", id).First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound
		}
		return nil, customerrors.FromStore(err)
	}
	return &row, nil
}

// findVisibleVideo loads a live video the viewer may see. Another user's draft is
// reported as not found so its existence does not leak.
func findVisibleVideo(ctx context.Context, db *gorm.DB, videoID, viewerID uuid.UUID) (*models.Video, error) {
	visible := visibleTo(viewerID)
	row, err := gorm.G[models.Video](db).
		Where("videos.id = ? AND videos.deleted_at IS NULL", videoID).
		Where("("+visible.SQL+")", visible.Args...).
		First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, customerrors.ErrVideoNotFound
		}
		return nil, customerrors.FromStore(err)
	}
	return &row, nil
}

// findOwned runs the lookup and ownership steps that precede every mutation:
// a missing resource is notFound, someone else's resource is forbidden.
func findOwned[T any, PT interface {
	*T
	Owned
}](ctx context.Context, db *gorm.DB, id, userID uuid.UUID, notFound, forbidden error) (*T, error) {
	row, err := findActive[T](ctx, db, id, notFound)
	if err != nil {
		return nil, err
	}
	if !IsOwner(PT(row), userID) {
		return nil, forbidden
	}
	return row, nil
}

func softDelete[T any](ctx context.Context, db *gorm.DB, id uuid.UUID) error {
	if _, err := gorm.G[T](db).Where("id = ? AND deleted_at IS NULL", id).Update(ctx, "deleted_at", time.Now()); err != nil {
		return customerrors.FromStore(err)
	}
	return nil
}

// toggle flips the relation identified by key and reports whether it exists afterwards.
// An existing relation is removed, a missing one is created with create.
func toggle[T any](ctx context.Context, db *gorm.DB, key query.Cond, create func() *T) (bool, error) {
	removed, err := gorm.G[T](db).Where(key.SQL, key.Args...).Delete(ctx)
	if err != nil {
		return false, customerrors.FromStore(err)
	}
	if removed > 0 {
		return false, nil
	}
	if err := switchOn(ctx, db, create()); err != nil {
		return false, err
	}
	return true, nil
}

// switchOn creates a relation. Losing the race against a concurrent toggle shows up
// as a unique violation, the relation is on either way.
func switchOn[T any](ctx context.Context, db *gorm.DB, row *T) error {
	if err := gorm.G[T](db).Create(ctx, row); err != nil {
		if customerrors.IsDuplicate(err) {
			return nil
		}
		return customerrors.FromStore(err)
	}
	return nil
}

// requireUser fails with notFound unless the user exists.
func requireUser(ctx context.Context, db *gorm.DB, userID uuid.UUID, notFound error) error {
	count, err := gorm.G[models.User](db).Where("id = ?", userID).Count(ctx, "id")
	if err != nil {
		return customerrors.FromStore(err)
	}
	if count == 0 {
		return notFound
	}
	return nil
}
