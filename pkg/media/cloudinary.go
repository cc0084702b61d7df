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
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/masteryyh/vidtube/pkg/config"
	"github.com/masteryyh/vidtube/pkg/customerrors"
)

const maxResponseSize = 1 << 20

// CloudinaryStore talks to the Cloudinary upload API, or any host speaking the same
// signed multipart protocol.
type CloudinaryStore struct {
	baseURL   string
	cloudName string
	apiKey    string
	apiSecret string
	client    *http.Client
	now       func() time.Time
}

func NewCloudinaryStore(cfg *config.CloudinaryConfig, timeout time.Duration) *CloudinaryStore {
	return &CloudinaryStore{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		cloudName: cfg.CloudName,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		client:    &http.Client{Timeout: timeout},
		now:       time.Now,
	}
}

type uploadResult struct {
	SecureURL    string  `json:"secure_url"`
	PublicID     string  `json:"public_id"`
	ResourceType string  `json:"resource_type"`
	Duration     float64 `json:"duration"`
}

type destroyResult struct {
	Result string `json:"result"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (s *CloudinaryStore) Upload(ctx context.Context, src *Source) (*Asset, error) {
	file, err := src.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", src.Name, err)
	}
	defer file.Close()

	params := s.signedParams(nil)
	body, contentType := streamMultipart(params, src.Name, file)
	defer body.Close()

	var result uploadResult
	if err := s.post(ctx, s.endpoint("auto", "upload"), contentType, body, &result); err != nil {
		return nil, err
	}
	if result.SecureURL == "" || result.PublicID == "" {
		return nil, fmt.Errorf("%w: empty upload response", customerrors.ErrUploadFailed)
	}

	return &Asset{
		URL:      result.SecureURL,
		ID:       result.ResourceType + "/" + result.PublicID,
		Duration: result.Duration,
	}, nil
}

// Delete expects the id produced by Upload, "<resource type>/<public id>".
func (s *CloudinaryStore) Delete(ctx context.Context, id string) error {
	resourceType, publicID, ok := strings.Cut(id, "/")
	if !ok || resourceType == "" || publicID == "" {
		return fmt.Errorf("invalid asset id %q", id)
	}

	form := s.signedParams(map[string]string{"public_id": publicID})
	values := url.Values{}
	for k, v := range form {
		values.Set(k, v)
	}

	var result destroyResult
	err := s.post(ctx, s.endpoint(resourceType, "destroy"), "application/x-www-form-urlencoded",
		io.NopCloser(strings.NewReader(values.Encode())), &result)
	if err != nil {
		return err
	}
	if result.Result != "ok" && result.Result != "not found" {
		return fmt.Errorf("unexpected destroy result %q for %s", result.Result, id)
	}
	return nil
}

func (s *CloudinaryStore) endpoint(resourceType, action string) string {
	return fmt.Sprintf("%s/%s/%s/%s", s.baseURL, url.PathEscape(s.cloudName), resourceType, action)
}

// signedParams adds timestamp, api_key and the SHA-1 signature over the sorted
// parameters followed by the secret.
func (s *CloudinaryStore) signedParams(extra map[string]string) map[string]string {
	params := map[string]string{"timestamp": strconv.FormatInt(s.now().Unix(), 10)}
	for k, v := range extra {
		params[k] = v
	}
	params["signature"] = sign(params, s.apiSecret)
	params["api_key"] = s.apiKey
	return params
}

func sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	digest := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(digest[:])
}

// streamMultipart encodes the form without buffering the file in memory.
func streamMultipart(params map[string]string, name string, file io.Reader) (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		err := func() error {
			for k, v := range params {
				if err := writer.WriteField(k, v); err != nil {
					return err
				}
			}
			part, err := writer.CreateFormFile("file", name)
			if err != nil {
				return err
			}
			if _, err := io.Copy(part, file); err != nil {
				return err
			}
			return writer.Close()
		}()
		pw.CloseWithError(err)
	}()

	return pr, writer.FormDataContentType()
}

func (s *CloudinaryStore) post(ctx context.Context, endpoint, contentType string, body io.ReadCloser, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.client.Do(req)
	if err != nil {
		if customerrors.IsTransient(err) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", customerrors.ErrMediaUnavailable, err)
		}
		return fmt.Errorf("%w: %w", customerrors.ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", customerrors.ErrMediaUnavailable, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: media host returned %d", customerrors.ErrMediaUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr apiError
		_ = sonic.Unmarshal(payload, &apiErr)
		return fmt.Errorf("%w: media host returned %d: %s", customerrors.ErrUploadFailed, resp.StatusCode, apiErr.Error.Message)
	}

	if err := sonic.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %w", customerrors.ErrUploadFailed, err)
	}
	return nil
}
