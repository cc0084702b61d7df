package customerrors

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"net/http"

	"gorm.io/gorm"
)

type Kind string

const (
	KindInvalidInput   Kind = "invalid_input"
	KindUnauthorized   Kind = "unauthorized"
	KindForbidden      Kind = "forbidden"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindRateLimited    Kind = "rate_limited"
	KindTransientInfra Kind = "transient_infra"
	KindInternal       Kind = "internal"
)

var kindStatus = map[Kind]int{
	KindInvalidInput:   http.StatusBadRequest,
	KindUnauthorized:   http.StatusUnauthorized,
	KindForbidden:      http.StatusForbidden,
	KindNotFound:       http.StatusNotFound,
	KindConflict:       http.StatusConflict,
	KindRateLimited:    http.StatusTooManyRequests,
	KindTransientInfra: http.StatusServiceUnavailable,
	KindInternal:       http.StatusInternalServerError,
}

type BusinessError struct {
	Kind    Kind   `json:"-"`
	Code    int    `json:"status"`
	Message string `json:"message"`
}

func (e *BusinessError) Error() string {
	return fmt.Sprintf("code: %d, message: %s", e.Code, e.Message)
}

// Is matches on kind and message so wrapped sentinels compare equal.
func (e *BusinessError) Is(target error) bool {
	t, ok := target.(*BusinessError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func New(kind Kind, message string) *BusinessError {
	code, ok := kindStatus[kind]
	if !ok {
		code = http.StatusInternalServerError
	}
	return &BusinessError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

func InvalidInput(message string) *BusinessError {
	return New(KindInvalidInput, message)
}

func NotFound(message string) *BusinessError {
	return New(KindNotFound, message)
}

func Forbidden(message string) *BusinessError {
	return New(KindForbidden, message)
}

func Conflict(message string) *BusinessError {
	return New(KindConflict, message)
}

var (
	ErrUnauthorized        = New(KindUnauthorized, "unauthorized")
	ErrInvalidToken        = New(KindUnauthorized, "invalid or expired token")
	ErrInvalidCredentials  = New(KindUnauthorized, "invalid credentials")
	ErrForbidden           = New(KindForbidden, "forbidden")
	ErrInvalidParams       = New(KindInvalidInput, "invalid params")
	ErrTooManyRequests     = New(KindRateLimited, "too many requests")
	ErrStoreUnavailable    = New(KindTransientInfra, "service temporarily unavailable")
	ErrMediaUnavailable    = New(KindTransientInfra, "media service temporarily unavailable")
	ErrInternalServerError = New(KindInternal, "internal server error")

	ErrUserNotFound      = NotFound("user not found")
	ErrChannelNotFound   = NotFound("channel not found")
	ErrUserAlreadyExists = Conflict("user with this email or username already exists")
	ErrAvatarRequired    = InvalidInput("avatar file is required")
	ErrCoverRequired     = InvalidInput("cover image file is required")

	ErrVideoNotFound        = NotFound("video not found")
	ErrVideoFileRequired    = InvalidInput("video file is required")
	ErrThumbnailRequired    = InvalidInput("thumbnail file is required")
	ErrNotVideoOwner        = Forbidden("you can only modify your own videos")
	ErrCommentNotFound      = NotFound("comment not found")
	ErrNotCommentOwner      = Forbidden("you can only modify your own comments")
	ErrTweetNotFound        = NotFound("tweet not found")
	ErrNotTweetOwner        = Forbidden("you can only modify your own tweets")
	ErrPlaylistNotFound     = NotFound("playlist not found")
	ErrNotPlaylistOwner     = Forbidden("you can only modify your own playlists")
	ErrVideoAlreadyInList   = Conflict("video already exists in playlist")
	ErrVideoNotInList       = NotFound("video does not exist in playlist")
	ErrSelfSubscription     = InvalidInput("you cannot subscribe to your own channel")
	ErrUploadFailed         = New(KindInternal, "failed to upload media")
	ErrOldPasswordIncorrect = InvalidInput("old password is incorrect")
)

func GetBusinessError(err error) *BusinessError {
	if err == nil {
		return nil
	}
	var businessErr *BusinessError
	if errors.As(err, &businessErr) {
		return businessErr
	}
	return nil
}

// FromStore classifies an error returned by the data store. Business errors pass
// through untouched, unreachable or timed out stores become transient, anything
// else is internal.
func FromStore(err error) error {
	if err == nil {
		return nil
	}
	if GetBusinessError(err) != nil {
		return err
	}
	if IsTransient(err) {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return err
}

func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
