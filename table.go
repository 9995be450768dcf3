package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/samber/lo"

	"github.com/xeptore/tubecast/strategy"
)

func renderStrategies(ladder strategy.Ladder, credentialsLoaded bool) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Name", "Client", "Cookies", "Status"})

	for i, s := range ladder {
		skipped := s.UseCredentials && !credentialsLoaded
		tw.AppendRow(table.Row{
			strconv.Itoa(i + 1),
			s.Name,
			lo.Ternary(s.Client == "", "(default)", s.Client),
			lo.Ternary(s.UseCredentials, "yes", "no"),
			lo.Ternary(skipped, "skipped: no cookies loaded", "planned"),
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft}, //nolint:exhaustruct
	})

	return tw.Render()
}
