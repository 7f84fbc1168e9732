package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"pagebuilder/internal/domain"
)

// ContentHash returns the hex sha256 of v's JSON encoding. Map keys encode in
// sorted order so equal content always hashes equal.
func ContentHash(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("hash content: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ChromeKey addresses a rendered header or footer by its content. Any
// settings edit yields a new key, so chrome entries are never invalidated
// explicitly.
func ChromeKey(themeID string, slot domain.ChromeSlot, list domain.SectionList) (string, error) {
	if list == nil {
		list = domain.SectionList{}
	}
	hash, err := ContentHash(list)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("theme:%s:%s:%s", themeID, slot, hash), nil
}

// PageKey addresses a page lookup by slug.
func PageKey(slug string) string {
	return "page:" + slug
}

// RouteKey addresses a resolved route by slug.
func RouteKey(slug string) string {
	return "route:" + slug
}

// VersionKey holds a token replaced every time the page with slug changes.
func VersionKey(slug string) string {
	return "pagever:" + slug
}

// ContextKey addresses a cacheable context fetch.
func ContextKey(contextKey, identifier string, params any) (string, error) {
	hash, err := ContentHash(params)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ctx:%s:%s:%s", contextKey, identifier, hash), nil
}
