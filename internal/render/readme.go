package render

import (
	"fmt"
	"html"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/starford/wallhub/internal/archive"
	"github.com/starford/wallhub/internal/catalog"
)

// ReadmeTable renders the dates-by-sources table. It returns "" when no
// source has a displayable entry.
func ReadmeTable(snap catalog.Snapshot, prefix string, maxItems int) string {
	cells := make(map[string]map[string]catalog.Item)
	dates := mapset.NewThreadUnsafeSet[string]()
	for _, s := range snap.Sources {
		for _, it := range snap.Entries[s.Name] {
			if !it.HasThumb {
				continue
			}
			if cells[it.Date] == nil {
				cells[it.Date] = make(map[string]catalog.Item)
			}
			cells[it.Date][s.Name] = it
			dates.Add(it.Date)
		}
	}
	if dates.Cardinality() == 0 || len(snap.Sources) == 0 {
		return ""
	}

	rows := dates.ToSlice()
	sort.Sort(sort.Reverse(sort.StringSlice(rows)))
	if maxItems > 0 && len(rows) > maxItems {
		rows = rows[:maxItems]
	}

	lines := []string{`<table width="100%">`}

	var header strings.Builder
	header.WriteString(`<tr><th width="15%">Date</th>`)
	width := 85 / len(snap.Sources)
	for _, s := range snap.Sources {
		fmt.Fprintf(&header, `<th width="%d%%">%s</th>`, width, html.EscapeString(s.DisplayName))
	}
	header.WriteString(`</tr>`)
	lines = append(lines, header.String())

	for _, date := range rows {
		lines = append(lines, "<tr>", fmt.Sprintf(`<td align="center"><b>%s</b></td>`, date))
		for _, s := range snap.Sources {
			it, ok := cells[date][s.Name]
			if !ok {
				lines = append(lines, `<td align="center" valign="top"><small>-</small></td>`)
				continue
			}
			lines = append(lines, readmeCell(it, prefix))
		}
		lines = append(lines, "</tr>")
	}
	lines = append(lines, "</table>")
	return strings.Join(lines, "\n")
}

func readmeCell(it catalog.Item, prefix string) string {
	title := html.EscapeString(it.Meta.TitleOr(it.Date))
	titleHTML := fmt.Sprintf(`<small>%s</small>`, title)
	if it.HasStory {
		titleHTML = fmt.Sprintf(`<a href="%s"><small>%s 📖</small></a>`, entryPath(prefix, it.Key, archive.StoryFile), title)
	}
	return fmt.Sprintf(`<td align="center" valign="top"><a href="%s"><img src="%s" width="100%%" style="border-radius:10px;"></a><br />%s</td>`,
		entryPath(prefix, it.Key, archive.ImageFile), entryPath(prefix, it.Key, archive.ThumbFile), titleHTML)
}
