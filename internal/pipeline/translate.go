// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"reviewlens/internal/analysis"
	"reviewlens/internal/batchio"
	"reviewlens/internal/language"
	"reviewlens/internal/parallel"
	"reviewlens/internal/review"
)

// Columns added by translation.
const (
	ColumnLanguage       = "language"
	ColumnOriginalReview = "originalReview"
)

// DefaultMaxTranslationChars is the longest text sent to the translator.
// Longer reviews are cut.
const DefaultMaxTranslationChars = 5000

// TranslateOptions configures a translation run.
type TranslateOptions struct {
	ReviewType   string
	ChunkSize    int
	Workers      int
	MaxChars     int
	SkipExisting bool
	Detector     language.Detector
	Translator   analysis.Classifier
}

// Translate tags every review of the pre-translation batches with its
// language and translates the non-English ones into English. Each output row
// keeps the text it came with in originalReview. Reviews that are English or
// whose language is unknown are left as they are.
func Translate(ctx context.Context, env Env, opts TranslateOptions) (*RunReport, error) {
	reviewType, err := review.ParseReviewType(opts.ReviewType)
	if err != nil {
		return nil, err
	}
	if opts.Detector == nil {
		return nil, errors.New("translation requires a language detector")
	}
	if opts.Translator == nil {
		return nil, errors.New("translation requires a translator")
	}
	if opts.Workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", opts.Workers)
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = DefaultMaxTranslationChars
	}

	in := stageInput{
		dir:    env.Layout.PreTranslationDir(reviewType),
		prefix: batchio.BatchPrefix(reviewType, StagePreTranslation),
	}
	run, report, release, err := prepareModelStage(env, reviewType, StageTranslated, in, env.Layout.TranslatedDir(reviewType), opts.SkipExisting)
	if err != nil {
		return nil, err
	}
	defer release()

	dispatcher := parallel.NewDispatcher(opts.Workers, env.Observer)
	tagger := parallel.RedactorFunc(func(reviews []review.Review) (map[string]string, error) {
		out := make(map[string]string, len(reviews))
		for _, r := range reviews {
			out[r.RowID] = opts.Detector.Detect(r.Text)
		}
		return out, nil
	})

	err = run.run(ctx, report, func(ctx context.Context, b batchio.Batch, output string) (int, *parallel.DispatchStats, error) {
		return translateBatch(ctx, env, dispatcher, tagger, opts, b.Path, output)
	})
	return report, err
}

func translateBatch(ctx context.Context, env Env, d *parallel.Dispatcher, tagger parallel.PartitionRedactor,
	opts TranslateOptions, input, output string) (int, *parallel.DispatchStats, error) {
	records, err := batchio.ReadRecords(input)
	if err != nil {
		return 0, nil, err
	}
	if len(records) > 0 {
		if col, err := batchio.TextColumn(input, records); err != nil || col != batchio.ColumnText {
			return 0, nil, &batchio.MissingColumnError{Path: input, Expected: []string{batchio.ColumnText}}
		}
	}
	reviews, err := batchio.ExtractReviews(input, records)
	if err != nil {
		return 0, nil, err
	}

	langs, stats, err := d.Dispatch(reviews, tagger)
	if err != nil {
		return 0, stats, err
	}

	var pending []int
	var texts []string
	for i, r := range reviews {
		if language.NeedsTranslation(langs[r.RowID]) {
			pending = append(pending, i)
			texts = append(texts, truncateRunes(r.Text, opts.MaxChars))
		}
	}

	log := env.logger()
	translated := make(map[int]string, len(pending))
	if len(texts) > 0 {
		results, err := analysis.RunChunked(ctx, opts.Translator, texts, opts.ChunkSize, chunkLogger(env, input))
		if err != nil {
			return 0, stats, err
		}
		for j, idx := range pending {
			if results[j].Text == "" {
				log.Warn("empty translation, keeping original text",
					zap.String("input", input),
					zap.String("review_id", reviews[idx].ReviewID))
				continue
			}
			translated[idx] = results[j].Text
		}
	}

	out := make([]batchio.Record, len(records))
	for i, rec := range records {
		text := reviews[i].Text
		if t, ok := translated[i]; ok {
			text = t
		}
		if out[i], err = withTranslation(rec, text, langs[reviews[i].RowID]); err != nil {
			return 0, stats, fmt.Errorf("row %d: %w", i, err)
		}
	}

	log.Info("languages detected",
		zap.String("input", input),
		zap.Int("reviews", len(reviews)),
		zap.Int("translated", len(translated)))
	return len(out), stats, batchio.WriteRecords(output, out)
}

// withTranslation copies rec with reviewText replaced by text. The previous
// reviewText moves to originalReview, and language follows it.
func withTranslation(rec batchio.Record, text, lang string) (batchio.Record, error) {
	out := batchio.NewRecord()
	for _, key := range rec.Keys() {
		if key == ColumnOriginalReview || key == ColumnLanguage {
			continue
		}
		raw, _ := rec.Raw(key)
		if key != batchio.ColumnText {
			if err := out.Set(key, raw); err != nil {
				return out, err
			}
			continue
		}
		for _, f := range []struct {
			key string
			v   interface{}
		}{
			{batchio.ColumnText, text},
			{ColumnOriginalReview, raw},
			{ColumnLanguage, lang},
		} {
			if err := out.Set(f.key, f.v); err != nil {
				return out, err
			}
		}
	}
	return out, nil
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	for i := range s {
		if n == 0 {
			return s[:i]
		}
		n--
	}
	return s
}
