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

package models

import (
	"github.com/google/uuid"
)

// assignID gives a new row a time-ordered identifier unless the caller already set one.
func assignID(id *uuid.UUID) error {
	if *id != uuid.Nil {
		return nil
	}
	v, err := uuid.NewV7()
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// OwnerColumns is the denormalized user subset produced by query.Pipeline.WithOwner.
// Embed it into a row struct to scan the joined owner.
type OwnerColumns struct {
	OwnerID       uuid.UUID
	OwnerUsername string
	OwnerFullName string
	OwnerAvatar   string
}

func (o OwnerColumns) Owner() *OwnerDto {
	return &OwnerDto{
		ID:       o.OwnerID,
		Username: o.OwnerUsername,
		FullName: o.OwnerFullName,
		Avatar:   o.OwnerAvatar,
	}
}

type OwnerDto struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	FullName string    `json:"fullName"`
	Avatar   string    `json:"avatar"`
}

// AllModels lists every table managed by migrations.
func AllModels() []any {
	return []any{
		&User{},
		&Video{},
		&Comment{},
		&Tweet{},
		&Playlist{},
		&PlaylistVideo{},
		&Like{},
		&Subscription{},
		&WatchHistory{},
	}
}
