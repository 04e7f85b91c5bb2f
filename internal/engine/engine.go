// Package engine orchestrates one run: load and resolve ad definitions,
// validate them, apply the selection policy, derive computed fields and hand
// the survivors to the browser driver, writing results back through the
// definition store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"ad-lifecycle-engine/internal/ads"
	"ad-lifecycle-engine/internal/category"
	"ad-lifecycle-engine/internal/config"
	"ad-lifecycle-engine/internal/defaults"
	"ad-lifecycle-engine/internal/images"
)

// downloadDirName is where extracted ads are stored, relative to the config file.
const downloadDirName = "downloaded-ads"

// defaultRepublicationInterval is assigned to downloaded ads, in days.
const defaultRepublicationInterval = 7

// Engine drives a single run. Construction wires the read-only defaults
// layers and category table; everything else is per-call state.
type Engine struct {
	cfg        config.Config
	browser    Browser
	store      *ads.Store
	resolver   *ads.Resolver
	categories category.Table

	// KeepOld skips deleting the previously published ad on republication.
	KeepOld bool

	// Now is the clock used by the selection policy and timestamping.
	Now func() time.Time
}

// New builds an engine from the global config and a browser driver.
func New(cfg config.Config, browser Browser) (*Engine, error) {
	categories, err := category.Load(cfg.Categories)
	if err != nil {
		return nil, err
	}
	log.Info().Int("count", len(categories)).Msg(" -> found categories")

	prefix, suffix := cfg.DescriptionAffixes()
	resolver := &ads.Resolver{
		Layers: []defaults.Layer{
			ads.AdDefaultsLayer(cfg.AdDefaults),
			ads.SchemaLayer(),
		},
		DescriptionPrefix: prefix,
		DescriptionSuffix: suffix,
	}

	return &Engine{
		cfg:        cfg,
		browser:    browser,
		store:      ads.NewStore(cfg.BaseDir(), cfg.AdFiles),
		resolver:   resolver,
		categories: categories,
		Now:        time.Now,
	}, nil
}

type loadOptions struct {
	// includeInactive disables the active=false filter; used by the
	// download "new" check which must see every locally saved ad.
	includeInactive bool
}

// loadAds runs discovery, resolution, validation, selection and derived
// field computation, in that order. With collect_validation_errors unset
// (the default) the first per-ad failure aborts the run; otherwise failing
// ads are skipped and their errors returned alongside the survivors.
func (e *Engine) loadAds(mode ads.Mode, opts loadOptions) ([]*ads.Entry, []error, error) {
	entries, err := e.store.LoadAll(e.resolver)
	if err != nil {
		return nil, nil, err
	}

	now := e.Now().UTC()
	var selected []*ads.Entry
	var collected []error
	for _, entry := range entries {
		if err := e.checkAd(entry); err != nil {
			if !e.cfg.CollectValidationErrors {
				return nil, nil, err
			}
			log.Error().Err(err).Str("file", entry.Path).Msg(" -> INVALID: ad definition rejected")
			collected = append(collected, err)
			continue
		}

		if !opts.includeInactive && !entry.Resolved.Active {
			log.Info().Str("file", entry.Path).Msg(" -> SKIPPED: inactive ad")
			continue
		}
		if ok, reason := mode.Decide(entry.Resolved, now); !ok {
			log.Info().Str("file", entry.Path).Str("reason", reason).Msg(" -> SKIPPED")
			continue
		}

		if err := e.deriveFields(entry); err != nil {
			if !e.cfg.CollectValidationErrors {
				return nil, nil, err
			}
			log.Error().Err(err).Str("file", entry.Path).Msg(" -> INVALID: ad resources rejected")
			collected = append(collected, err)
			continue
		}
		selected = append(selected, entry)
	}

	log.Info().Int("count", len(selected)).Msg("loaded ads")
	return selected, collected, nil
}

func (e *Engine) checkAd(entry *ads.Entry) error {
	return ads.Validate(entry.Resolved)
}

// deriveFields populates the computed fields on a selected ad: the category
// code and the expanded image list.
func (e *Engine) deriveFields(entry *ads.Entry) error {
	d := entry.Resolved
	if d.Category != "" {
		d.Category = e.categories.Resolve(d.Category)
	}
	if len(d.Images) > 0 {
		resolved, err := images.Resolve(d.Images, filepath.Dir(entry.Path), entry.Path)
		if err != nil {
			return err
		}
		d.Images = resolved
	}
	return nil
}

// Verify loads, resolves and validates every ad selected by mode and fails
// on configuration errors.
func (e *Engine) Verify(mode ads.Mode) error {
	_, collected, err := e.loadAds(mode, loadOptions{})
	if err != nil {
		return err
	}
	if len(collected) > 0 {
		return fmt.Errorf("%d ad definition(s) failed validation", len(collected))
	}
	log.Info().Msg("DONE: no configuration errors found")
	return nil
}

// Publish (re-)publishes all ads selected by mode, one at a time in
// path-sorted order. A fatal action error aborts the remaining batch; other
// per-ad failures are logged and the loop continues.
func (e *Engine) Publish(ctx context.Context, mode ads.Mode) error {
	entries, _, err := e.loadAds(mode, loadOptions{})
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		log.Info().Msg("DONE: no new/outdated ads found")
		return nil
	}

	published := 0
	for i, entry := range entries {
		log.Info().
			Str("title", entry.Resolved.Title).
			Str("file", entry.Path).
			Msgf("processing %d/%d", i+1, len(entries))

		if err := e.publishAd(ctx, entry); err != nil {
			var actionErr *ActionError
			if errors.As(err, &actionErr) && actionErr.Fatal {
				return fmt.Errorf("publish batch aborted: %w", err)
			}
			log.Error().Err(err).Str("file", entry.Path).Msg("publishing ad failed")
			continue
		}
		published++
	}
	log.Info().Int("count", published).Msg("DONE: (re-)published ads")
	return nil
}

func (e *Engine) publishAd(ctx context.Context, entry *ads.Entry) error {
	if !e.KeepOld && entry.Resolved.ID != 0 {
		if _, err := e.browser.Delete(ctx, entry.Resolved); err != nil {
			log.Warn().Err(err).Str("file", entry.Path).Msg("deleting old ad before republication failed")
		}
	}

	log.Info().Str("title", entry.Resolved.Title).Msg("publishing ad...")
	id, err := e.browser.Publish(ctx, entry.Resolved)
	if err != nil {
		return err
	}

	now := e.Now().UTC().Format(ads.TimeLayout)
	entry.Raw["updated_on"] = now
	if entry.Resolved.CreatedOn == "" && entry.Resolved.ID == 0 {
		// first publication
		entry.Raw["created_on"] = now
	}
	entry.Raw["id"] = id

	if err := e.store.Persist(entry.Path, entry.Raw); err != nil {
		return err
	}
	log.Info().Int64("id", id).Msg(" -> SUCCESS: ad published")
	return nil
}

// Delete removes all ads selected by mode from the marketplace and clears
// their persisted ids.
func (e *Engine) Delete(ctx context.Context, mode ads.Mode) error {
	entries, _, err := e.loadAds(mode, loadOptions{})
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		log.Info().Msg("DONE: no ads to delete found")
		return nil
	}

	deleted := 0
	for i, entry := range entries {
		log.Info().
			Str("title", entry.Resolved.Title).
			Str("file", entry.Path).
			Msgf("processing %d/%d", i+1, len(entries))

		if err := e.deleteAd(ctx, entry); err != nil {
			var actionErr *ActionError
			if errors.As(err, &actionErr) && actionErr.Fatal {
				return fmt.Errorf("delete batch aborted: %w", err)
			}
			log.Error().Err(err).Str("file", entry.Path).Msg("deleting ad failed")
			continue
		}
		deleted++
	}
	log.Info().Int("count", deleted).Msg("DONE: deleted ads")
	return nil
}

func (e *Engine) deleteAd(ctx context.Context, entry *ads.Entry) error {
	removed, err := e.browser.Delete(ctx, entry.Resolved)
	if err != nil {
		return err
	}
	if !removed {
		return nil
	}
	entry.Raw["id"] = nil
	return e.store.Persist(entry.Path, entry.Raw)
}

// Download extracts ads from the account into local definition files.
// Supported modes: an explicit id set, all, or new (only ads not saved
// locally yet).
func (e *Engine) Download(ctx context.Context, mode ads.Mode) error {
	var ids []int64
	switch mode.Kind {
	case ads.ModeByID:
		ids = mode.IDs
	case ads.ModeAll, ads.ModeNew:
		log.Info().Msg("scanning your ad overview...")
		own, err := e.browser.OwnAds(ctx)
		if err != nil {
			return err
		}
		log.Info().Int("count", len(own)).Msg(" -> ads found on the account")
		ids = own
		if mode.Kind == ads.ModeNew {
			known, err := e.knownIDs()
			if err != nil {
				return err
			}
			ids = make([]int64, 0, len(own))
			for _, id := range own {
				if _, saved := known[id]; saved {
					log.Info().Int64("id", id).Msg(" -> SKIPPED: ad is already saved locally")
					continue
				}
				ids = append(ids, id)
			}
		}
	default:
		return fmt.Errorf("selector %q is not supported for download", mode)
	}

	downloaded := 0
	for _, id := range ids {
		if err := e.downloadAd(ctx, id); err != nil {
			var actionErr *ActionError
			if errors.As(err, &actionErr) && actionErr.Fatal {
				return fmt.Errorf("download batch aborted: %w", err)
			}
			log.Error().Err(err).Int64("id", id).Msg("downloading ad failed")
			continue
		}
		downloaded++
	}
	log.Info().Int("count", downloaded).Msg("DONE: downloaded ads")
	return nil
}

// knownIDs collects the external ids of all locally saved ads, including
// inactive ones.
func (e *Engine) knownIDs() (map[int64]struct{}, error) {
	entries, _, err := e.loadAds(ads.Mode{Kind: ads.ModeAll}, loadOptions{includeInactive: true})
	if err != nil {
		return nil, err
	}
	known := make(map[int64]struct{}, len(entries))
	for _, entry := range entries {
		if entry.Resolved.ID != 0 {
			known[entry.Resolved.ID] = struct{}{}
		}
	}
	return known, nil
}

func (e *Engine) downloadAd(ctx context.Context, id int64) error {
	raw, err := e.browser.Extract(ctx, id)
	if err != nil {
		return err
	}

	// fill bot-managed metadata the extraction cannot know
	if _, ok := raw["active"]; !ok {
		raw["active"] = true
	}
	if v, ok := raw["republication_interval"]; !ok || v == nil || v == "" {
		raw["republication_interval"] = defaultRepublicationInterval
	}
	raw["id"] = id

	dir := filepath.Join(e.cfg.BaseDir(), downloadDirName, fmt.Sprintf("ad_%d", id))
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clear ad directory %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create ad directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("ad_%d.yaml", id))
	if err := e.store.Persist(path, raw); err != nil {
		return err
	}
	log.Info().Int64("id", id).Str("file", path).Msg("downloaded ad")
	return nil
}
