// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a two-view workflow for browsing sync run history:
//  1. [RunListView] : Browse recorded runs, most recent first
//  2. [RunDetailView] : Inspect one run's counts and failure notes
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Run history is loaded from the local store via a command on Init and on refresh.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
