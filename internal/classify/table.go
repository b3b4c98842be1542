package classify

import (
	"sort"
	"strings"

	"go.klb.dev/shotcast/internal/item"
)

// extensionTable maps lowercase file extensions (without the dot) to their
// category. It is the union of every extension list the history format has
// ever recognized. Where older lists disagreed, the earlier-matching list
// wins: csv/xlsx are spreadsheets, json/xml/yaml are code, dmg/pkg are
// archives, deb/rpm are installers and db/sqlite are data.
var extensionTable = buildTable(map[item.Category][]string{
	item.Image: {
		"jpg", "jpeg", "png", "gif", "heic", "heif", "bmp", "tiff", "tif",
		"webp", "svg", "ico",
	},
	item.PDF:  {"pdf"},
	item.Text: {"txt", "rtf", "log", "readme", "md", "markdown"},
	item.Word: {"doc", "docx", "odt"},
	item.Excel: {
		"xls", "xlsx", "csv", "ods",
	},
	item.PowerPoint: {"ppt", "pptx", "odp"},
	item.Pages:      {"pages"},
	item.Numbers:    {"numbers"},
	item.Keynote:    {"key", "keynote"},
	item.Code: {
		// Web
		"html", "htm", "css", "scss", "sass", "less", "js", "javascript",
		"jsx", "ts", "typescript", "tsx", "vue", "svelte",
		// Mobile
		"swift", "kt", "kotlin", "java", "dart", "flutter",
		// Backend and systems
		"py", "python", "rb", "ruby", "php", "go", "rs", "rust", "cpp", "cc",
		"c", "h", "hpp", "m", "mm", "cs",
		// Config and markup
		"json", "xml", "yaml", "yml", "toml", "ini", "env",
		// Shell and scripts
		"sh", "bash", "zsh", "fish", "ps1", "bat", "cmd",
		// Query
		"sql",
		// Other
		"r", "pl", "scala", "clj", "elm", "haskell", "lua",
	},
	item.Audio: {
		"mp3", "wav", "aac", "flac", "m4a", "ogg", "wma", "aiff", "ape",
		"opus", "alac", "dsd",
	},
	item.Video: {
		"mp4", "mov", "avi", "mkv", "webm", "flv", "wmv", "m4v", "mpg",
		"mpeg", "3gp", "ogv", "mxf", "prores", "dnxhd",
	},
	item.Design: {"psd", "ai", "sketch", "fig", "xd", "indd", "eps", "affinity"},
	item.Font:   {"ttf", "otf", "woff", "woff2", "eot", "fon"},
	item.Archive: {
		"zip", "rar", "7z", "tar", "gz", "bz2", "xz", "cab", "dmg", "pkg",
	},
	item.Installer: {"app", "msi", "exe", "deb", "rpm", "appx"},
	item.ThreeDModel: {
		"obj", "fbx", "dae", "3ds", "blend", "max", "maya", "c4d",
	},
	item.Data: {"tsv", "db", "sqlite", "plist"},
})

func buildTable(groups map[item.Category][]string) map[string]item.Category {
	table := make(map[string]item.Category)
	for category, exts := range groups {
		for _, ext := range exts {
			if prev, dup := table[ext]; dup {
				panic("classify: extension " + ext + " mapped to both " + prev.String() + " and " + category.String())
			}
			table[ext] = category
		}
	}
	return table
}

// ExtensionCategory looks up ext (case-insensitive, leading dot optional).
// Unrecognized or empty extensions map to item.File.
func ExtensionCategory(ext string) item.Category {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if c, ok := extensionTable[ext]; ok {
		return c
	}
	return item.File
}

// Extensions returns a copy of the extension table.
func Extensions() map[string]item.Category {
	out := make(map[string]item.Category, len(extensionTable))
	for ext, c := range extensionTable {
		out[ext] = c
	}
	return out
}

// SortedExtensions returns the recognized extensions in lexical order.
func SortedExtensions() []string {
	out := make([]string, 0, len(extensionTable))
	for ext := range extensionTable {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}
