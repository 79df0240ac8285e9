package led

import "time"

// tickReport carries what a tick observed out of the critical section so it
// can be logged without holding the lock.
type tickReport struct {
	malformed Action
	dropped   bool
	exhausted bool
	writeErr  error
}

// run is the scheduler loop of one indicator. The virtual clock advances by
// exactly one quantum per iteration however late the wake-up was. The loop
// ends when the handle stops resolving.
func (r *Registry) run(h Handle) {
	defer loopsRunning.Dec()

	quantum := r.cfg.TickQuantum
	var now time.Duration
	for r.tick(h, now) {
		r.sleep(quantum)
		now += quantum
	}
	r.logger.Info("Indicator loop stopped", "handle", h.String())
}

// tick runs one scheduler iteration at virtual time now and reports whether
// the handle is still valid.
func (r *Registry) tick(h Handle, now time.Duration) bool {
	var rep tickReport

	r.mu.Lock()
	ind := r.lookup(h)
	if ind == nil {
		r.mu.Unlock()
		return false
	}
	switch {
	case ind.dirty:
		rep = r.initAction(ind, now)
	case ind.running.index < 0:
	case now >= ind.running.deadline:
		rep = r.updateAction(ind, now)
	}
	r.mu.Unlock()

	r.report(h, rep)
	return true
}

// initAction re-derives the running state from the queue head. Superseded
// heads (unbounded or spent) are dropped while a newer action waits behind
// them. Caller holds r.mu.
func (r *Registry) initAction(ind *indicator, now time.Duration) tickReport {
	q := &ind.queue
	if q.length == 0 {
		return tickReport{}
	}

	for q.length > 1 && q.front().repeats.skippable() {
		q.dropFront()
	}

	ind.dirty = false
	if q.front().repeats.state == repeatsExhausted {
		// The last action already finished; hold the current level.
		ind.running.index = -1
		return tickReport{}
	}

	ind.running.index = q.head
	ind.running.phase = 0
	return r.updateAction(ind, now)
}

// updateAction advances the running action and writes the pin. Caller
// holds r.mu.
func (r *Registry) updateAction(ind *indicator, now time.Duration) tickReport {
	if ind.running.index < 0 {
		return tickReport{}
	}

	c := &ind.queue.cells[ind.running.index]
	tr := r.cfg.Timings.advance(c.action, ind.running.phase, c.repeats, now)

	if tr.malformed {
		bad := c.action
		ind.queue.dropFront()
		ind.dirty = true
		ind.running.index = -1
		droppedTotal.WithLabelValues("malformed").Inc()
		return tickReport{malformed: bad, dropped: true}
	}

	c.repeats = tr.repeats
	ind.running.phase = tr.phase
	ind.running.deadline = tr.deadline

	var rep tickReport
	if tr.exhausted {
		ind.dirty = true
		ind.running.index = -1
		rep.exhausted = true
		exhaustedTotal.Inc()
	}

	ind.lit = tr.on
	writesTotal.Inc()
	if err := ind.pin.Set(tr.on == ind.activeLevel); err != nil {
		writeErrors.Inc()
		rep.writeErr = err
	}
	return rep
}

func (r *Registry) report(h Handle, rep tickReport) {
	if rep.dropped {
		r.logger.Warn("Dropped malformed indicator action", "handle", h.String(), "action", int(rep.malformed))
	}
	if rep.exhausted {
		r.logger.Debug("Indicator action finished its repeats", "handle", h.String())
	}
	if rep.writeErr != nil {
		r.logger.Warn("Failed to write indicator pin", "handle", h.String(), "error", rep.writeErr)
	}
}
