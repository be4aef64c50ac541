package render

import (
	"fmt"
	"html"
	"path"
	"sort"
	"strings"

	"github.com/starford/wallhub/internal/archive"
	"github.com/starford/wallhub/internal/catalog"
)

// Gallery renders the card grid: per source the newest MaxItems complete
// entries, merged newest first.
func Gallery(snap catalog.Snapshot, prefix string) string {
	var items []catalog.Item
	for _, s := range snap.Sources {
		n := 0
		for _, it := range snap.Entries[s.Name] {
			if s.MaxItems > 0 && n >= s.MaxItems {
				break
			}
			if !it.HasThumb || !it.HasImage {
				continue
			}
			items = append(items, it)
			n++
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Date > items[j].Date })

	cards := make([]string, 0, len(items))
	for _, it := range items {
		cards = append(cards, card(it, prefix))
	}
	return strings.Join(cards, "\n")
}

func card(it catalog.Item, prefix string) string {
	title := html.EscapeString(it.Meta.TitleOr(it.Date))
	titleHTML := fmt.Sprintf(`<span class="title">%s</span>`, title)
	if it.HasStory {
		titleHTML = fmt.Sprintf(`<a href="%s" class="story-link"><span class="title">%s 📖</span></a>`,
			entryPath(prefix, it.Key, archive.StoryFile), title)
	}

	var b strings.Builder
	b.WriteString("        <div class=\"card\">\n")
	fmt.Fprintf(&b, "            <a href=\"%s\" target=\"_blank\">\n", entryPath(prefix, it.Key, archive.ImageFile))
	fmt.Fprintf(&b, "                <img src=\"%s\" alt=\"%s\" loading=\"lazy\">\n", entryPath(prefix, it.Key, archive.ThumbFile), title)
	b.WriteString("            </a>\n")
	fmt.Fprintf(&b, "            <p>%s · %s</p>\n", it.Date, html.EscapeString(it.DisplayName))
	fmt.Fprintf(&b, "            %s\n", titleHTML)
	b.WriteString("        </div>")
	return b.String()
}

func entryPath(prefix string, k archive.Key, name string) string {
	p := path.Join(k.Source, k.Date, name)
	if prefix == "" {
		return p
	}
	return strings.TrimRight(prefix, "/") + "/" + p
}
