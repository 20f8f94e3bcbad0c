package persist

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"gocatalog_api/internal/catalog/business/models"
	"gocatalog_api/internal/catalog/business/models/dto/response"
)

func (p *Persister) persistImages(ctx context.Context, localID string, detail *response.ProductDetail) error {
	images := p.extractImages(localID, detail.Images)

	meta := detail.ImageMeta
	if meta == nil && len(images) > 0 && p.imageMeta != nil {
		fetched, err := p.imageMeta.FetchImageMeta(ctx, detail.ID)
		if err != nil {
			p.log.Debug("image metadata unavailable", zap.String("remote_id", detail.ID), zap.Error(err))
		}
		meta = fetched
	}
	p.matchAltTexts(images, meta)

	if err := p.store.ReplaceImages(ctx, localID, images); err != nil {
		return fmt.Errorf("images: %w", err)
	}
	return nil
}

// extractImages orders images by position, drops duplicate paths and marks
// exactly one image as main: the first flagged one, else the first.
func (p *Persister) extractImages(localID string, remote []response.Image) []models.Image {
	sorted := make([]response.Image, 0, len(remote))
	for _, img := range remote {
		if strings.TrimSpace(img.Path) != "" {
			sorted = append(sorted, img)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	seen := make(map[string]bool, len(sorted))
	images := make([]models.Image, 0, len(sorted))
	mainIdx := -1
	for _, img := range sorted {
		path := strings.TrimSpace(img.Path)
		norm := p.text.NormalizePath(path)
		if seen[norm] {
			continue
		}
		seen[norm] = true
		if img.Main && mainIdx < 0 {
			mainIdx = len(images)
		}
		images = append(images, models.Image{
			ProductLocalID: localID,
			RemotePath:     path,
			URL:            p.resolveURL(path),
			SortOrder:      len(images),
			AltTextStatus:  models.AltTextPending,
		})
	}
	if len(images) > 0 {
		if mainIdx < 0 {
			mainIdx = 0
		}
		images[mainIdx].IsMain = true
	}
	return images
}

func (p *Persister) matchAltTexts(images []models.Image, meta []response.ImageMeta) {
	if len(meta) == 0 {
		return
	}
	alts := make(map[string]string, len(meta))
	for _, m := range meta {
		if alt := strings.TrimSpace(m.AltText); alt != "" {
			alts[p.text.NormalizePath(m.Path)] = alt
		}
	}
	for i := range images {
		if alt, ok := alts[p.text.NormalizePath(images[i].RemotePath)]; ok {
			images[i].AltText = &alt
			images[i].AltTextStatus = models.AltTextSynced
		}
	}
}

func (p *Persister) resolveURL(path string) string {
	lower := strings.ToLower(path)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || p.imageBaseURL == "" {
		return path
	}
	return p.imageBaseURL + "/" + strings.TrimLeft(strings.ReplaceAll(path, `\`, "/"), "/")
}
