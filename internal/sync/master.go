// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package sync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tomtom215/storyspot/internal/logging"
	"github.com/tomtom215/storyspot/internal/models"
	"github.com/tomtom215/storyspot/internal/recognition"
)

// MasterSync runs Phase A then Phase B. Phase B runs even when Phase A
// fails, since videos mirrored by earlier cycles still need registering.
// The returned error joins both phase errors.
func (o *Orchestrator) MasterSync(ctx context.Context, today time.Time) (CycleReport, error) {
	report := CycleReport{
		CorrelationID: logging.CorrelationIDFromContext(ctx),
		Today:         today.Format(models.DateLayout),
		StartedAt:     o.now().UTC(),
	}
	start := time.Now()
	logging.Ctx(ctx).Info().Str("today", report.Today).Msg("Starting master sync")

	phaseA, errA := o.SyncUserStories(ctx, today)
	report.PhaseA = phaseA
	if errA != nil {
		logging.Ctx(ctx).Error().Err(errA).Msg("Story mirroring phase failed")
	}
	if ctx.Err() != nil {
		report.Duration = time.Since(start)
		report.Error = ctx.Err().Error()
		return report, ctx.Err()
	}

	phaseB, errB := o.SyncStoriesToRecognize(ctx)
	report.PhaseB = phaseB
	if errB != nil {
		logging.Ctx(ctx).Error().Err(errB).Msg("Recognition registration phase failed")
	}

	report.Duration = time.Since(start)
	err := errors.Join(errA, errB)
	if err != nil {
		report.Error = err.Error()
	}
	logging.Ctx(ctx).Info().
		Dur("duration", report.Duration).
		Int("mirrored", report.PhaseA.Mirrored).
		Int("registered", report.PhaseB.Registered).
		Int("failed", report.Failed()).
		Msg("Done master sync")
	return report, err
}

// RecognizeStory downloads a mirrored video and identifies its audio.
// Only decode failures are retried, up to RecognizeAttempts calls in total;
// other outcomes are returned as soon as they arrive.
func (o *Orchestrator) RecognizeStory(ctx context.Context, fileID string) (recognition.Result, error) {
	if o.recognizer == nil {
		return recognition.Result{}, ErrNoRecognizer
	}

	// A private directory, since a starting cycle clears the shared scratch.
	dir, err := os.MkdirTemp("", "storyspot-recognize-")
	if err != nil {
		return recognition.Result{}, fmt.Errorf("create recognition scratch: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()
	localPath := filepath.Join(dir, filepath.Base(fileID)+".mp4")

	if err := o.store.DownloadFile(ctx, fileID, localPath); err != nil {
		return recognition.Result{}, err
	}
	audio, err := os.ReadFile(localPath)
	if err != nil {
		return recognition.Result{}, fmt.Errorf("read %s: %w", localPath, err)
	}

	log := logging.Ctx(ctx).With().Str("file_id", fileID).Logger()
	var result recognition.Result
	for attempt := 1; attempt <= o.opts.RecognizeAttempts; attempt++ {
		result = o.recognizer.Identify(ctx, audio)
		if !result.Retryable() {
			break
		}
		log.Debug().Int("attempt", attempt).Str("detail", result.Detail).Msg("Fingerprint could not be generated, retrying")
		if err := ctx.Err(); err != nil {
			return result, err
		}
	}

	log.Info().
		Str("outcome", result.Outcome.String()).
		Str("reason", result.Reason.String()).
		Msg("Story recognized")
	return result, nil
}
