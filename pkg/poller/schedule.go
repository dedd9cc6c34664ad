package poller

import (
	"time"
)

// requestCheck runs a full cycle soon. If one is already running it is
// repeated once that cycle completes.
func (p *Poller) requestCheck() {
	p.recheck.Store(true)
	p.spawn(func() { p.CheckAll(p.ctx) })
}

// scheduleRetry arms the next back-off retry unless one is pending or the
// schedule is exhausted.
func (p *Poller) scheduleRetry() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped.Load() || p.retryTimer != nil {
		return
	}

	delays := p.cfg.RetryDelays
	if p.retryAttempts >= len(delays) {
		return
	}

	delay := time.Duration(delays[p.retryAttempts])
	p.retryAttempts++

	p.detail().Int("attempt", p.retryAttempts).Dur("delay", delay).Msg("Scheduling backend retry")
	p.logActivity(p.translate("Waiting for LuCI API...") + " " + formatElapsed(delay))
	p.recorder.RetryScheduled(p.retryAttempts)

	var timer Timer

	timer = p.clock.AfterFunc(delay, func() {
		p.mu.Lock()
		if p.retryTimer == timer {
			p.retryTimer = nil
		}
		p.mu.Unlock()

		if p.stopped.Load() || p.busy.Load() {
			return
		}

		p.spawn(func() { p.CheckAll(p.ctx) })
	})

	p.retryTimer = timer
}

// clearRetry cancels a pending retry and resets the back-off.
func (p *Poller) clearRetry() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.retryTimer != nil {
		p.retryTimer.Stop()
		p.retryTimer = nil
	}

	p.retryAttempts = 0
}

// RetryPending reports whether a back-off retry is armed.
func (p *Poller) RetryPending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.retryTimer != nil
}

// schedulePoll re-arms the periodic poll, if enabled.
func (p *Poller) schedulePoll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pollTimer != nil {
		p.pollTimer.Stop()
		p.pollTimer = nil
	}

	interval := p.cfg.pollInterval(p.execMode)
	if p.stopped.Load() || interval <= 0 {
		return
	}

	var timer Timer

	timer = p.clock.AfterFunc(interval, func() {
		p.mu.Lock()
		if p.pollTimer != timer {
			p.mu.Unlock()

			return
		}

		p.pollTimer = nil
		visible := p.visible
		p.mu.Unlock()

		// hidden or already running: only re-arm
		if !visible || p.busy.Load() {
			p.schedulePoll()

			return
		}

		p.spawn(func() { p.CheckAll(p.ctx) })
	})

	p.pollTimer = timer
}

// SetVisible reports whether the dashboard is currently shown. Becoming
// visible after being hidden longer than the visibility threshold triggers a check.
func (p *Poller) SetVisible(visible bool) {
	if p.stopped.Load() {
		return
	}

	now := p.clock.Now()

	p.mu.Lock()

	if !visible {
		if p.visible {
			p.hiddenAt = now
		}

		p.visible = false
		p.mu.Unlock()

		return
	}

	wasHidden := !p.visible
	hiddenFor := now.Sub(p.hiddenAt)
	p.visible = true
	p.mu.Unlock()

	if wasHidden && hiddenFor > time.Duration(p.cfg.VisibilityThreshold) {
		p.detail().Dur("hidden_for", hiddenFor).Msg("Visible again, rechecking")
		p.spawn(func() { p.CheckAll(p.ctx) })
	}
}

// Visible reports the last visibility passed to SetVisible.
func (p *Poller) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.visible
}
