// Package orchestrator is the C7 component: it wires the downloader,
// normalizer, reference resolver, and writer into one scrape attempt per
// (source, date), and drives the date-range and recent-days variants the
// scheduler and CLI call into.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/fetch"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/jobs"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/normalize"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/refdata"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/registry"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/store"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/telemetry"
)

type Orchestrator struct {
	registry *registry.Registry
	client   *fetch.Client
	tracker  *jobs.Tracker
	resolver *refdata.Resolver
	store    *store.Store
	tel      *telemetry.Registry
	log      zerolog.Logger
}

// New builds an Orchestrator. tel may be nil, in which case job-outcome
// metrics are silently skipped.
func New(reg *registry.Registry, client *fetch.Client, tracker *jobs.Tracker, resolver *refdata.Resolver, st *store.Store, tel *telemetry.Registry, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{registry: reg, client: client, tracker: tracker, resolver: resolver, store: st, tel: tel, log: log}
}

// ScrapeOne performs one scrape attempt for source on date, implementing
// the five steps of spec.md §4.7.
func (o *Orchestrator) ScrapeOne(ctx context.Context, source registry.Source, date time.Time, force bool) (jobs.Job, error) {
	job, err := o.tracker.Begin(ctx, source.Code, date, force)
	if err != nil {
		return jobs.Job{}, fmt.Errorf("orchestrator: begin: %w", err)
	}
	if job.Status == jobs.StatusSkipped {
		return job, nil
	}

	directURL, archiveURL, err := o.registry.Resolve(source.Code, date)
	if err != nil {
		o.finish(ctx, job, source.Code, jobs.StatusFailed, 0, 0, "", err)
		return job, err
	}

	body, urlUsed, err := o.client.FetchOrArchive(ctx, source.Code, directURL, archiveURL, date, source.FilenameStem)
	if err != nil {
		var notFound *fetch.NotFoundError
		if errors.As(err, &notFound) {
			if source.IsSnapshot() {
				o.finish(ctx, job, source.Code, jobs.StatusSucceeded, 0, 0, urlUsed, nil)
				job.Status = jobs.StatusSucceeded
				return job, nil
			}
			o.finish(ctx, job, source.Code, jobs.StatusFailed, 0, 0, urlUsed, err)
			job.Status = jobs.StatusFailed
			return job, err
		}
		o.finish(ctx, job, source.Code, jobs.StatusFailed, 0, 0, urlUsed, err)
		job.Status = jobs.StatusFailed
		return job, err
	}

	scrapeStart := job.StartedAt
	normCtx := normalize.Context{
		SourceCode:     source.Code,
		TransformerTag: string(source.Category),
		TargetDate:     date,
		ScrapeStart:    scrapeStart,
		IsSnapshot:     source.IsSnapshot(),
	}
	rows, warnings, err := normalize.Normalize(normCtx, body)
	if err != nil {
		o.finish(ctx, job, source.Code, jobs.StatusFailed, 0, 0, urlUsed, err)
		job.Status = jobs.StatusFailed
		return job, err
	}
	for _, w := range warnings {
		o.log.Warn().Str("source", source.Code).Int("row", w.Row).Str("reason", w.Reason).Msg("skipped unparseable row")
	}

	if source.IsSnapshot() {
		for i := range rows {
			rows[i].Ts = scrapeStart
		}
	}

	inserted, updated, err := o.writeRows(ctx, source, rows)
	if err != nil {
		o.finish(ctx, job, source.Code, jobs.StatusFailed, 0, 0, urlUsed, err)
		job.Status = jobs.StatusFailed
		return job, err
	}

	if err := o.tracker.Finish(ctx, job, jobs.StatusSucceeded, inserted, updated, urlUsed, nil); err != nil {
		return job, err
	}
	o.tel.RecordJob(source.Code, string(jobs.StatusSucceeded), inserted, updated)
	job.Status = jobs.StatusSucceeded
	job.RowsInserted = inserted
	job.RowsUpdated = updated
	return job, nil
}

// finish writes the job's terminal state and records the outcome in
// telemetry; the tracker write error is logged rather than propagated
// since the scrape outcome itself has already been decided by the caller.
func (o *Orchestrator) finish(ctx context.Context, job jobs.Job, sourceCode string, status jobs.Status, inserted, updated int, urlUsed string, finishErr error) {
	if err := o.tracker.Finish(ctx, job, status, inserted, updated, urlUsed, finishErr); err != nil {
		o.log.Error().Err(err).Str("source", sourceCode).Msg("failed to record job outcome")
	}
	o.tel.RecordJob(sourceCode, string(status), inserted, updated)
}

// writeRows resolves zone/interface references and upserts rows, all
// inside one transaction so the job commits atomically (spec.md §4.5).
func (o *Orchestrator) writeRows(ctx context.Context, source registry.Source, rows []normalize.Row) (inserted, updated int, err error) {
	if len(rows) == 0 {
		return 0, 0, nil
	}

	tx, err := o.store.DB.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("orchestrator: begin tx: %w", err)
	}
	defer tx.Rollback()

	family := rows[0].Family
	records := make([]store.Record, 0, len(rows))
	for _, row := range rows {
		zoneID, interfaceID, err := o.resolveRefs(ctx, tx, row)
		if err != nil {
			return 0, 0, err
		}
		records = append(records, store.BuildRecord(row, zoneID, interfaceID))
	}

	ins, upd, err := o.store.UpsertFamily(ctx, tx, store.FamilyFor(family), records)
	if err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("orchestrator: commit: %w", err)
	}
	return ins, upd, nil
}

func (o *Orchestrator) resolveRefs(ctx context.Context, tx *sqlx.Tx, row normalize.Row) (zoneID, interfaceID *int64, err error) {
	switch row.Family {
	case normalize.FamilyRTLBMP, normalize.FamilyDALBMP, normalize.FamilyTWLBMP,
		normalize.FamilyRTLoad, normalize.FamilyLoadForecast, normalize.FamilyAncillary:
		id, err := o.resolver.ZoneID(ctx, tx, row.ZoneName)
		if err != nil {
			return nil, nil, err
		}
		return &id, nil, nil
	case normalize.FamilyInterfaceFlow, normalize.FamilyATCTTC:
		id, err := o.resolver.InterfaceID(ctx, tx, row.InterfaceName)
		if err != nil {
			return nil, nil, err
		}
		return nil, &id, nil
	default:
		return nil, nil, nil
	}
}

// ScrapeRange scrapes every date in [start, end] inclusive for source,
// continuing past per-date failures so one bad day does not block the rest.
func (o *Orchestrator) ScrapeRange(ctx context.Context, source registry.Source, start, end time.Time, force bool) ([]jobs.Job, error) {
	var results []jobs.Job
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		job, err := o.ScrapeOne(ctx, source, d, force)
		results = append(results, job)
		if err != nil {
			o.log.Warn().Str("source", source.Code).Time("date", d).Err(err).Msg("scrape failed")
		}
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
	}
	return results, nil
}

// ScrapeRecent scrapes the last n days (inclusive of today) for every
// enabled source in the registry.
func (o *Orchestrator) ScrapeRecent(ctx context.Context, n int, force bool) ([]jobs.Job, error) {
	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -(n - 1))

	var results []jobs.Job
	for _, source := range o.registry.All() {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		if source.IsSnapshot() {
			job, err := o.ScrapeOne(ctx, source, end, force)
			results = append(results, job)
			if err != nil {
				o.log.Warn().Str("source", source.Code).Err(err).Msg("scrape failed")
			}
			continue
		}
		rangeJobs, _ := o.ScrapeRange(ctx, source, start, end, force)
		results = append(results, rangeJobs...)
	}
	return results, nil
}
