// Package ui provides the terminal user interface for tasklist.
// This file contains tea.Cmd factories. Backups and exports write files
// from a snapshot taken in Update, so they can run off the event loop
// without touching the store.
package ui

import (
	"time"

	"tasklist/internal/anim"
	"tasklist/internal/backup"
	"tasklist/internal/importer"
	"tasklist/internal/storage"

	tea "github.com/charmbracelet/bubbletea"
)

// changed reports the outcome of a store mutation.
func changed(status string, err error) tea.Cmd {
	return func() tea.Msg {
		return storeChangedMsg{status: status, err: err}
	}
}

// backupCmd returns a command that writes doc as a new backup file.
func backupCmd(m *backup.Manager, doc *storage.Document) tea.Cmd {
	return func() tea.Msg {
		name, err := m.Create(doc)
		return backupDoneMsg{name: name, err: err}
	}
}

// exportCmd returns a command that writes doc to path.
func exportCmd(path string, doc *storage.Document) tea.Cmd {
	return func() tea.Msg {
		err := importer.Export(path, doc)
		return exportDoneMsg{path: path, err: err}
	}
}

// tickCmd returns a command that sends a tick every second.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// frameCmd schedules the next animation frame.
func frameCmd() tea.Cmd {
	return tea.Tick(anim.FrameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}
