package main

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"ncmirtools/internal/catalog"
)

const (
	projectNameWidth        = 32
	projectDescriptionWidth = 60
	settingValueWidth       = 60
)

// renderProjectTable lays out catalog matches with the id right aligned and
// long names and descriptions wrapped.
func renderProjectTable(projects []catalog.Project) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Footer = text.FormatDefault
	tw.AppendHeader(table.Row{"ID", "Name", "Description"})
	for _, p := range projects {
		tw.AppendRow(table.Row{strconv.FormatInt(p.ID, 10), p.Name, p.Description})
	}
	tw.AppendFooter(table.Row{"", fmt.Sprintf("%d project(s)", len(projects)), ""})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 2, WidthMax: projectNameWidth, WidthMaxEnforcer: text.WrapSoft},
		{Number: 3, WidthMax: projectDescriptionWidth, WidthMaxEnforcer: text.WrapSoft},
	})
	return tw.Render()
}

type settingRow struct {
	section string
	option  string
	value   string
}

// renderSettingsTable prints resolved options grouped by config section, one
// section name per block.
func renderSettingsTable(rows []settingRow) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Section", "Option", "Value"})
	for i, row := range rows {
		if i > 0 && rows[i-1].section != row.section {
			tw.AppendSeparator()
		}
		value := row.value
		if value == "" {
			value = "-"
		}
		tw.AppendRow(table.Row{"[" + row.section + "]", row.option, value})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AutoMerge: true, VAlign: text.VAlignTop},
		{Number: 3, WidthMax: settingValueWidth, WidthMaxEnforcer: text.WrapHard},
	})
	return tw.Render()
}
