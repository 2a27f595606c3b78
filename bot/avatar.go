// Copyright 2026 The smsbot Authors
// SPDX-License-Identifier: Apache-2.0

package bot

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// defaultImageType is assumed when neither the file name nor the
// content identifies an image type.
const defaultImageType = "image/jpeg"

// UploadAvatar uploads image to the media repository and sets it as the
// account's avatar. Returns the mxc:// URI of the upload.
func (b *Bot) UploadAvatar(ctx context.Context, image []byte, mimeType string) (string, error) {
	if err := b.requireSession(); err != nil {
		return "", err
	}
	if len(image) == 0 {
		return "", fmt.Errorf("bot: avatar image is empty")
	}
	if mimeType == "" {
		mimeType = defaultImageType
	}

	contentURI, err := b.session.UploadMedia(ctx, mimeType, bytes.NewReader(image))
	if err != nil {
		return "", fmt.Errorf("bot: %w", err)
	}
	b.logger.Info("uploaded avatar", "content_uri", contentURI, "content_type", mimeType, "size", len(image))

	if err := b.session.SetAvatarURL(ctx, contentURI); err != nil {
		return contentURI, fmt.Errorf("bot: %w", err)
	}
	b.logger.Info("updated profile avatar", "content_uri", contentURI)
	return contentURI, nil
}

// UpdateProfileImage reads the image at path and sets it as the
// account's avatar.
func (b *Bot) UpdateProfileImage(ctx context.Context, path string) error {
	if err := b.requireSession(); err != nil {
		return err
	}
	image, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("bot: reading avatar image: %w", err)
	}
	_, err = b.UploadAvatar(ctx, image, guessImageType(path, image))
	return err
}

// guessImageType infers the MIME type of an image from its file
// extension, then from its leading bytes. Falls back to image/jpeg.
func guessImageType(path string, content []byte) string {
	if extension := strings.ToLower(filepath.Ext(path)); extension != "" {
		if mimeType := mime.TypeByExtension(extension); strings.HasPrefix(mimeType, "image/") {
			mediaType, _, err := mime.ParseMediaType(mimeType)
			if err == nil {
				return mediaType
			}
			return mimeType
		}
	}
	if detected := http.DetectContentType(content); strings.HasPrefix(detected, "image/") {
		return detected
	}
	return defaultImageType
}
