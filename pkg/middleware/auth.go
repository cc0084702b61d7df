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

package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/masteryyh/vidtube/pkg/consts"
	"github.com/masteryyh/vidtube/pkg/customerrors"
	"github.com/masteryyh/vidtube/pkg/models"
	"github.com/masteryyh/vidtube/pkg/utils/response"
)

// Authenticator resolves an access token to the user it was issued to.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

// AuthMiddleware reads the access token from the cookie first and falls back to
// an "Authorization: Bearer" header. The resolved user is stored on the context
// with its credential fields cleared.
func AuthMiddleware(authenticator Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := AccessToken(c)
		if token == "" {
			response.Abort(c, customerrors.ErrUnauthorized)
			return
		}

		user, err := authenticator.Authenticate(c, token)
		if err != nil {
			response.Abort(c, err)
			return
		}

		c.Set(consts.CurrentUserKey, user.WithoutCredentials())
		c.Next()
	}
}

func AccessToken(c *gin.Context) string {
	if cookie, err := c.Cookie(consts.AccessTokenCookie); err == nil && strings.TrimSpace(cookie) != "" {
		return strings.TrimSpace(cookie)
	}
	header := c.GetHeader("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

func CurrentUser(c *gin.Context) *models.User {
	value, ok := c.Get(consts.CurrentUserKey)
	if !ok {
		return nil
	}
	user, _ := value.(*models.User)
	return user
}

// CurrentUserID is uuid.Nil on routes without AuthMiddleware.
func CurrentUserID(c *gin.Context) uuid.UUID {
	if user := CurrentUser(c); user != nil {
		return user.ID
	}
	return uuid.Nil
}
