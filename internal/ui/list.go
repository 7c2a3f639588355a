package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/kelarin/rosync/internal/models"
)

var _ list.Item = runItem{}

// runItem wraps [models.SyncRun] to implement [list.Item].
type runItem struct {
	run *models.SyncRun
}

func (i runItem) FilterValue() string { return i.run.ID() }

func (i runItem) Title() string {
	marker := "✓"
	if !i.run.Succeeded() {
		marker = "✗"
	}
	title := fmt.Sprintf("%s %s", marker, i.run.StartedAt.Format("2006-01-02 15:04"))
	if i.run.DryRun {
		title += " (dry run)"
	}
	return title
}

func (i runItem) Description() string {
	return fmt.Sprintf("%d created • %d updated • %d failed • %d exported",
		i.run.Created, i.run.Updated, i.run.Failed, i.run.Exported)
}
