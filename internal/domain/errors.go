package domain

import "errors"

// ErrNotConfigured marks a collaborator whose credentials or settings are absent.
var ErrNotConfigured = errors.New("not configured")
