package mcpserver

// MetaSchema documents meta.json and the archive layout for MCP clients.
const MetaSchema = `# wallhub entry format

Every wallpaper lives in its own directory:

` + "```" + `
<wallpapers-root>/<source>/<YYYY-MM-DD>/
    image.jpg    full-size image
    thumb.jpg    JPEG thumbnail, fixed width
    meta.json    metadata, described below
    story.md     optional Markdown story about the image
` + "```" + `

## meta.json

` + "```" + `json
{
  "date": "2025-12-10",
  "title": "Winter lake at dawn",
  "copyright": "Lake Bled, Slovenia (© Photographer/Agency)",
  "image_url": "https://www.bing.com/th?id=...",
  "photographer": "Jane Doe",
  "has_story": true
}
` + "```" + `

| field | required | notes |
|---|---|---|
| date | yes | calendar date, same as the directory name |
| title | no | may be empty for some sources |
| copyright | no | caption or attribution line |
| image_url | yes | upstream page or image |
| photographer | no | only written by sources that report one |
| has_story | yes | true exactly when story.md exists |

The file is UTF-8, indented with two spaces, and keeps non-ASCII text verbatim.

## Tools

- ` + "`" + `list_sources` + "`" + ` lists the enabled sources in display order.
- ` + "`" + `list_wallpapers` + "`" + ` lists entries newest first, optionally for one source.
- ` + "`" + `get_wallpaper` + "`" + ` returns one entry.
- ` + "`" + `read_story` + "`" + ` returns story.md of one entry.
`
