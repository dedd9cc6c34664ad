package poller

import (
	"context"
	"slices"
	"time"

	"github.com/proton2025/widgetd/pkg/models"
)

const saveTimeout = 5 * time.Second

// Watched returns a copy of the watch list.
func (p *Poller) Watched() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return slices.Clone(p.watched)
}

func (p *Poller) isWatchedLocked(name string) bool {
	return slices.Contains(p.watched, name)
}

// AddWatched adds a service to the watch list and schedules a check. It
// returns false for invalid or already watched names.
func (p *Poller) AddWatched(name string) bool {
	if !models.IsValidServiceName(name) {
		return false
	}

	p.mu.Lock()

	if p.stopped.Load() || p.isWatchedLocked(name) {
		p.mu.Unlock()

		return false
	}

	p.watched = append(p.watched, name)
	delete(p.statuses, name)
	delete(p.actions, name)
	names := slices.Clone(p.watched)
	p.mu.Unlock()

	p.persist(names)
	p.logger.Info().Str("service", name).Msg("Service added to watch list")
	p.logActivity(p.translate("Added") + ": " + name)
	p.requestCheck()

	return true
}

// RemoveWatched removes a service and drops everything cached about it.
func (p *Poller) RemoveWatched(name string) bool {
	p.mu.Lock()

	idx := slices.Index(p.watched, name)
	if p.stopped.Load() || idx < 0 {
		p.mu.Unlock()

		return false
	}

	p.watched = slices.Delete(p.watched, idx, idx+1)
	delete(p.statuses, name)
	delete(p.actions, name)
	names := slices.Clone(p.watched)
	p.mu.Unlock()

	p.persist(names)
	p.logger.Info().Str("service", name).Msg("Service removed from watch list")
	p.logActivity(p.translate("Removed") + ": " + name)

	return true
}

func (p *Poller) persist(names []string) {
	ctx, cancel := context.WithTimeout(p.ctx, saveTimeout)
	defer cancel()

	if err := p.store.SaveWatchList(ctx, names); err != nil {
		p.logger.Error().Err(err).Msg("Failed to save watch list")
	}
}
