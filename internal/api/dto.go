package api

import (
	"github.com/starford/wallhub/internal/catalog"
	"github.com/starford/wallhub/internal/models"
)

// WallpaperItem is one archive entry in API responses.
type WallpaperItem struct {
	Source       string `json:"source" example:"bing"`
	Date         string `json:"date" example:"2025-12-10"`
	DisplayName  string `json:"display_name" example:"Bing"`
	Title        string `json:"title"`
	Copyright    string `json:"copyright"`
	Photographer string `json:"photographer,omitempty"`
	// ImageURL is the upstream page or image.
	ImageURL string `json:"image_url"`
	HasStory bool   `json:"has_story"`
	// Image and Thumb are local paths served by the preview server.
	Image string `json:"image,omitempty" example:"/wallpapers/bing/2025-12-10/image.jpg"`
	Thumb string `json:"thumb,omitempty"`
}

// SourceListResponse wraps the enabled sources.
type SourceListResponse struct {
	Sources []catalog.Source `json:"sources"`
}

// WallpaperListResponse wraps a listing.
type WallpaperListResponse struct {
	Wallpapers []WallpaperItem `json:"wallpapers"`
	Total      int             `json:"total"`
}

// RunListResponse wraps recent ledger runs.
type RunListResponse struct {
	Runs []models.Run `json:"runs"`
}

// IndexResponse reports which documents changed.
type IndexResponse struct {
	Gallery bool `json:"gallery"`
	Readme  bool `json:"readme"`
}
