// Package worker refreshes the metrics cache for every user with a stored
// credential. Users are processed one at a time.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/insightboard/insightboard/internal/metricscache"
	"github.com/insightboard/insightboard/internal/models"
	"github.com/insightboard/insightboard/pkg/logger"
	"github.com/insightboard/insightboard/pkg/metrics"
	"go.uber.org/zap"
)

type CredentialLister interface {
	ListCredentials(ctx context.Context) ([]models.CredentialRecord, error)
}

type Decrypter interface {
	Decrypt(blob string) (string, error)
}

type RepositoryLister interface {
	ListRepositories(ctx context.Context, accessToken string, perPage int) ([]models.Repository, error)
}

type Options struct {
	PageSize     int
	FetchTimeout time.Duration
}

// Job is a single aggregation sweep.
type Job struct {
	creds    CredentialLister
	cipher   Decrypter
	provider RepositoryLister
	cache    metricscache.Repository
	opts     Options
	now      func() time.Time
	log      *zap.Logger
}

func NewJob(creds CredentialLister, cipher Decrypter, provider RepositoryLister, cache metricscache.Repository, opts Options) *Job {
	if opts.PageSize <= 0 {
		opts.PageSize = 100
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}
	return &Job{
		creds:    creds,
		cipher:   cipher,
		provider: provider,
		cache:    cache,
		opts:     opts,
		now:      time.Now,
		log:      logger.Named("worker"),
	}
}

// Aggregate computes the cached metrics from one repository listing.
func Aggregate(repos []models.Repository) map[string]models.MetricValue {
	var stars int64
	for _, r := range repos {
		stars += r.StargazersCount
	}
	return map[string]models.MetricValue{
		models.MetricTotalRepos: {"count": int64(len(repos))},
		models.MetricTotalStars: {"count": stars},
	}
}

// metricOrder fixes the write order so runs are reproducible.
var metricOrder = []string{models.MetricTotalRepos, models.MetricTotalStars}

// Run sweeps all users. Decrypt and fetch failures skip the user; failing to
// list credentials or to write the cache aborts the run.
func (j *Job) Run(ctx context.Context) RunOutcome {
	out := RunOutcome{Users: map[int64]UserOutcome{}, StartedAt: j.now()}
	defer func() {
		out.FinishedAt = j.now()
		metrics.AggregationRuns.WithLabelValues(out.Status.String()).Inc()
		metrics.AggregationRunDuration.Observe(out.FinishedAt.Sub(out.StartedAt).Seconds())
	}()

	recs, err := j.creds.ListCredentials(ctx)
	if err != nil {
		j.log.Error("aggregation run aborted: cannot list credentials", zap.Error(err))
		return j.abort(out, fmt.Errorf("list credentials: %w", err))
	}
	j.log.Info("aggregation run started", zap.Int("users", len(recs)))

	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return j.abort(out, err)
		}
		uo, err := j.processUser(ctx, rec)
		if err != nil {
			j.log.Error("aggregation run aborted: cache write failed", zap.Int64("user_id", rec.UserID), zap.Error(err))
			return j.abort(out, err)
		}
		out.Users[rec.UserID] = uo
		metrics.AggregationUsers.WithLabelValues(uo.String()).Inc()
	}

	out.Status = RunCompleted
	j.log.Info("aggregation run completed",
		zap.Int("refreshed", out.Count(UserRefreshed)),
		zap.Int("skipped_decrypt", out.Count(UserSkippedDecrypt)),
		zap.Int("skipped_fetch", out.Count(UserSkippedFetch)))
	return out
}

func (j *Job) abort(out RunOutcome, cause error) RunOutcome {
	out.Status = RunAborted
	out.Cause = cause
	return out
}

// processUser returns a non-nil error only for cache write failures.
func (j *Job) processUser(ctx context.Context, rec models.CredentialRecord) (UserOutcome, error) {
	log := j.log.With(zap.Int64("user_id", rec.UserID), zap.String("username", rec.Username))

	accessToken, err := j.cipher.Decrypt(rec.EncryptedSecret)
	if err != nil {
		log.Warn("skipping user: stored credential unusable")
		return UserSkippedDecrypt, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, j.opts.FetchTimeout)
	repos, err := j.provider.ListRepositories(fetchCtx, accessToken, j.opts.PageSize)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn("skipping user: repository listing timed out", zap.Duration("timeout", j.opts.FetchTimeout))
		} else {
			log.Warn("skipping user: repository listing failed", zap.Error(err))
		}
		return UserSkippedFetch, nil
	}

	values := Aggregate(repos)
	refreshedAt := j.now()
	for _, key := range metricOrder {
		if err := j.cache.Upsert(ctx, rec.UserID, key, values[key], refreshedAt); err != nil {
			return UserRefreshed, fmt.Errorf("user %d: %w", rec.UserID, err)
		}
	}
	log.Debug("user metrics refreshed", zap.Int("repos", len(repos)))
	return UserRefreshed, nil
}
