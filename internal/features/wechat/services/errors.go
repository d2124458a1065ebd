package services

import "errors"

var (
	// ErrUpstreamAuth means no access token could be obtained; it ends a sync pass
	ErrUpstreamAuth = errors.New("wechat token request failed")
	// ErrUpstreamFetch means a content listing call failed; the pass treats it as empty
	ErrUpstreamFetch = errors.New("wechat content fetch failed")
	// ErrImageImport means a remote cover image could not be stored
	ErrImageImport = errors.New("remote image import failed")
	// ErrSanitize is reserved; the HTML parser accepts malformed input
	ErrSanitize = errors.New("html sanitize failed")
	// ErrNoImportInput means a manual import carried neither a URL nor HTML
	ErrNoImportInput = errors.New("no url or html provided")
	// ErrPageUnreachable means the article page for a manual import could not be fetched
	ErrPageUnreachable = errors.New("article page unreachable")
	// ErrImportExtraction means no title or body could be found in the article page
	ErrImportExtraction = errors.New("article title or body not found")
)
