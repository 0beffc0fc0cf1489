// Package ui provides the terminal user interface for tasklist.
// This file defines message types. Store mutations run synchronously inside
// Update; their outcome is reported back through storeChangedMsg so that
// status handling lives in one place. File writes that do not touch the
// store (backups, exports) run as commands and report their own messages.
package ui

import "time"

// storeChangedMsg is sent after a store mutation, successful or not.
type storeChangedMsg struct {
	status string // shown on success; empty for silent changes
	err    error
}

// backupDoneMsg is sent when a backup file has been written.
type backupDoneMsg struct {
	name string
	err  error
}

// exportDoneMsg is sent when an export file has been written.
type exportDoneMsg struct {
	path string
	err  error
}

// tickMsg is sent every second to expire status messages.
type tickMsg time.Time

// frameMsg advances running animations.
type frameMsg time.Time
