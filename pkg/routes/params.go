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

package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/masteryyh/vidtube/pkg/customerrors"
	"github.com/masteryyh/vidtube/pkg/media"
	"github.com/masteryyh/vidtube/pkg/query"
	"github.com/masteryyh/vidtube/pkg/utils/response"
)

// pathID parses a path parameter and writes the error response itself when it is
// missing or malformed.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := query.ParseID(c.Param(name), name)
	if err != nil {
		response.Failed(c, err)
		return uuid.Nil, false
	}
	return id, true
}

// formFile returns nil without error when the field was not sent.
func formFile(c *gin.Context, field string, maxSize int64) (*media.Source, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, customerrors.ErrInvalidParams
	}
	if fh.Size > maxSize {
		return nil, customerrors.InvalidInput(field + " is too large")
	}
	return media.FromFileHeader(fh), nil
}
