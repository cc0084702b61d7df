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
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"sync"

	"github.com/masteryyh/vidtube/pkg/config"
)

// Asset is a file held by the media host.
type Asset struct {
	URL string
	// ID is what Delete needs to remove the asset again.
	ID string
	// Duration in seconds, zero for images or when the host does not report it.
	Duration float64
}

type Store interface {
	Upload(ctx context.Context, src *Source) (*Asset, error)
	Delete(ctx context.Context, id string) error
}

// Source is an uploaded file that can be opened for reading.
type Source struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

func FromFileHeader(fh *multipart.FileHeader) *Source {
	if fh == nil {
		return nil
	}
	return &Source{
		Name: fh.Filename,
		Size: fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func FromBytes(name string, data []byte) *Source {
	return &Source{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// DeleteQuietly removes an asset and only logs a failure. An empty id is a no-op.
func DeleteQuietly(ctx context.Context, store Store, id string) {
	if id == "" {
		return
	}
	if err := store.Delete(context.WithoutCancel(ctx), id); err != nil {
		slog.WarnContext(ctx, "failed to delete media asset", "error", err, "assetId", id)
	}
}

// Batch tracks the assets uploaded for one operation so they can be removed
// together when a later step of that operation fails.
type Batch struct {
	store    Store
	uploaded []*Asset
}

func NewBatch(store Store) *Batch {
	return &Batch{store: store}
}

func (b *Batch) Upload(ctx context.Context, src *Source) (*Asset, error) {
	asset, err := b.store.Upload(ctx, src)
	if err != nil {
		return nil, err
	}
	b.uploaded = append(b.uploaded, asset)
	return asset, nil
}

// Rollback deletes every asset uploaded through the batch, even if ctx is done.
func (b *Batch) Rollback(ctx context.Context) {
	for _, asset := range b.uploaded {
		DeleteQuietly(ctx, b.store, asset.ID)
	}
	b.uploaded = nil
}

func (b *Batch) Uploaded() []*Asset {
	return b.uploaded
}

func NewStore(cfg *config.MediaConfig) (Store, error) {
	switch cfg.Driver {
	case config.MediaDriverCloudinary:
		return NewCloudinaryStore(cfg.Cloudinary, cfg.Timeout), nil
	case config.MediaDriverLocal:
		return NewLocalStore(cfg.Local)
	default:
		return nil, fmt.Errorf("unsupported media driver %q", cfg.Driver)
	}
}

var (
	store     Store
	storeOnce sync.Once
)

func InitStore(cfg *config.MediaConfig) error {
	var err error
	storeOnce.Do(func() {
		store, err = NewStore(cfg)
	})
	return err
}

func GetStore() Store {
	if store == nil {
		panic("media store not initialized, call InitStore first")
	}
	return store
}
