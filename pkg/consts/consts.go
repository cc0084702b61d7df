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

package consts

// Cookies carrying the tokens issued at login and refresh.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// Gin context keys.
const (
	CurrentUserKey = "currentUser"
	RequestIDKey   = "requestId"
)

const RequestIDHeader = "X-Request-ID"

// Default page sizes per listing, the ceiling is pagination.MaxLimit.
const (
	DefaultVideoLimit        = 10
	DefaultCommentLimit      = 10
	DefaultTweetLimit        = 10
	DefaultPlaylistLimit     = 30
	DefaultSubscriptionLimit = 20
	DefaultLikedVideoLimit   = 10
	DefaultWatchHistoryLimit = 20
)

// Upload size ceilings for multipart requests.
const (
	MaxVideoSize = 512 << 20
	MaxImageSize = 10 << 20
)
