package persist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"gocatalog_api/internal/catalog/business/models"
	"gocatalog_api/internal/catalog/business/models/dto/response"
)

const (
	maxMetaTitle       = 255
	maxMetaDescription = 512
)

// persistDescriptions applies the smart merge: an existing description is only
// rewritten when forced or when its stored body is empty.
func (p *Persister) persistDescriptions(ctx context.Context, localID string, remote []response.Description, force bool) error {
	var errs error
	for _, d := range remote {
		lang := p.text.LanguageCode(d.Language)
		if lang == "" {
			errs = multierr.Append(errs, fmt.Errorf("description %s: missing language", d.ID))
			continue
		}

		existing, err := p.store.FindDescription(ctx, localID, lang)
		switch {
		case errors.Is(err, models.ErrNotFound):
		case err != nil:
			errs = multierr.Append(errs, fmt.Errorf("description %s: %w", lang, err))
			continue
		case !force && strings.TrimSpace(existing.Description) != "":
			continue
		}

		desc := &models.Description{
			ProductLocalID:      localID,
			LanguageCode:        lang,
			RemoteDescriptionID: d.ID,
			Name:                p.text.CleanName(d.Name),
			MetaTitle:           p.text.ReduceToLength(d.MetaTitle, maxMetaTitle),
			MetaDescription:     p.text.ReduceToLength(d.MetaDescription, maxMetaDescription),
			MetaKeywords:        strings.TrimSpace(d.MetaKeywords),
			ShortDescription:    d.ShortDescription,
			Description:         d.Description,
		}
		if err := p.store.UpsertDescription(ctx, desc); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("description %s: %w", lang, err))
		}
	}
	return errs
}
