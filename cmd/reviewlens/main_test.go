// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewlens/internal/batchio"
	"reviewlens/internal/paths"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv(paths.ConfigDirEnv, t.TempDir())

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func seedCleanBatch(t *testing.T, root string) {
	t.Helper()
	writeFile(t, filepath.Join(root, "Rotten Tomatoes Reviews", "Critic Reviews Clean", "rt_critic_reviews_clean_0.json"), `[
  {"reviewId": 1, "id": "heat", "title": "Heat", "reviewText": "Heat is a masterpiece"},
  {"reviewId": 2, "id": "up", "title": "Up", "reviewText": "I loved Up so much"}
]`)
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCLI(t, "version", "--full")
	require.NoError(t, err)
	assert.Contains(t, out, "reviewlens ")
	assert.Contains(t, out, "platform:")
}

func TestConfigValidateDefaults(t *testing.T) {
	out, _, err := runCLI(t, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid (built-in defaults)")
}

func TestConfigRejectsUnknownProfile(t *testing.T) {
	_, _, err := runCLI(t, "--profile", "nightly", "config", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown profile "nightly"`)
}

func TestConfigShowAppliesFlags(t *testing.T) {
	out, _, err := runCLI(t, "--workers", "3", "--format", "json", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "workers: 3")
	assert.Contains(t, out, "format: json")
}

func TestPreprocessCommand(t *testing.T) {
	root := t.TempDir()
	seedCleanBatch(t, root)

	out, stderr, err := runCLI(t, "--data-root", root, "--format", "json", "--workers", "2",
		"preprocess", "--review-type", "critic", "--replace", "movies")
	require.NoError(t, err, stderr)

	var doc struct {
		Title string                   `json:"title"`
		Rows  []map[string]interface{} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc), out)
	require.Len(t, doc.Rows, 1)
	assert.Equal(t, "rt_critic_reviews_preprocessed_0.json", doc.Rows[0]["Output"])
	assert.Contains(t, stderr, "preprocessed finished: 2 reviews written")

	records, err := batchio.ReadRecords(filepath.Join(root, "Rotten Tomatoes Reviews",
		"Critic Reviews Preprocessed for NLP", "rt_critic_reviews_preprocessed_0.json"))
	require.NoError(t, err)
	cleaned, err := records[0].Text(batchio.ColumnCleaned)
	require.NoError(t, err)
	assert.Equal(t, "[movie] is a masterpiece", cleaned)

	out, _, err = runCLI(t, "--data-root", root, "--format", "csv", "history", "--stage", "preprocessed")
	require.NoError(t, err)
	assert.Contains(t, out, "rt_critic_reviews_clean_0.json")
	assert.Contains(t, out, "done")
}

func TestPreprocessRejectsUnknownReplaceType(t *testing.T) {
	_, _, err := runCLI(t, "--data-root", t.TempDir(), "preprocess", "--replace", "directors")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid replace type "directors"`)
}

func TestAnalyzeCommandAgainstModelServer(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Rotten Tomatoes Reviews", "Critic Reviews Preprocessed for NLP", "rt_critic_reviews_preprocessed_0.json"), `[
  {"reviewId": 1, "id": "heat", "title": "Heat", "reviewText": "x", "cleanedReviews": "[movie] is a masterpiece"}
]`)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"label": "LABEL_1", "score": 0.75}]`))
	}))
	defer server.Close()

	_, stderr, err := runCLI(t, "--data-root", root, "--format", "yaml",
		"analyze", "--analysis", "sentiment", "--endpoint", server.URL)
	require.NoError(t, err, stderr)

	out, _, err := runCLI(t, "--data-root", root, "--format", "csv", "aggregate", "valence")
	require.NoError(t, err)
	assert.Contains(t, out, "heat,0.7500,1")
	assert.FileExists(t, filepath.Join(root, "NLP Data", "Critic Sentiment Data", "rt_critic_valence_aggregated.json"))
}

func TestAnalyzeRejectsUnknownAnalysis(t *testing.T) {
	_, _, err := runCLI(t, "--data-root", t.TempDir(), "analyze", "--analysis", "sentiment,toxicity", "--endpoint", "http://127.0.0.1:1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid analysis type "toxicity"`)
}

func TestTranslateCommand(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Rotten Tomatoes Reviews", "Critic Reviews pre Translation", "rt_critic_reviews_pre_translation_0.json"), `[
  {"id": "heat", "reviewId": 1, "title": "Heat", "reviewText": "This film was a tense and brilliant masterpiece from start to finish."},
  {"id": "heat", "reviewId": 2, "title": "Heat", "reviewText": "Dieser Film war wirklich großartig und ich habe jede einzelne Minute genossen."}
]`)

	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		var req struct {
			Inputs []string `json:"inputs"`
			Task   string   `json:"task"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Task != "translation" || len(req.Inputs) != 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`[{"translation_text": "This film was really great and I enjoyed every single minute."}]`))
	}))
	defer server.Close()

	_, stderr, err := runCLI(t, "--data-root", root, "--workers", "2",
		"translate", "--endpoint", server.URL, "--languages", "en,de")
	require.NoError(t, err, stderr)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
	assert.Contains(t, stderr, "translated finished: 2 reviews written")

	records, err := batchio.ReadRecords(filepath.Join(root, "Rotten Tomatoes Reviews", "Critic Reviews Translated", "rt_critic_reviews_translated_0.json"))
	require.NoError(t, err)
	require.Len(t, records, 2)
	text, err := records[1].Text(batchio.ColumnText)
	require.NoError(t, err)
	assert.Equal(t, "This film was really great and I enjoyed every single minute.", text)
	lang, err := records[1].Text("language")
	require.NoError(t, err)
	assert.Equal(t, "de", lang)
	lang, err = records[0].Text("language")
	require.NoError(t, err)
	assert.Equal(t, "en", lang)
}

func TestTranslateRejectsUnknownLanguage(t *testing.T) {
	_, _, err := runCLI(t, "--data-root", t.TempDir(), "translate", "--endpoint", "http://127.0.0.1:1", "--languages", "en,zz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported language code "zz"`)
}

func TestInferTopicsCommand(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "NLP Data", "Critic Aspects Data", "rt_critic_reviews_aspects_0.json"), `[
  {"reviewId": 1, "sentence": "great acting", "aspect": ["acting"], "sentiment": ["Positive"], "confidence": [0.9], "id": "heat"}
]`)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"topic": 2, "label": "Performances", "probability": 0.8}]`))
	}))
	defer server.Close()

	_, stderr, err := runCLI(t, "--data-root", root, "infer-topics", "--endpoint", server.URL)
	require.NoError(t, err, stderr)

	out, _, err := runCLI(t, "--data-root", root, "--format", "csv", "aggregate", "topics")
	require.NoError(t, err)
	assert.Contains(t, out, "2,Performances,1")
}

func TestActorsBuildMergesSources(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "celebrities.txt")
	second := filepath.Join(dir, "imdb.csv")
	writeFile(t, first, "Al Pacino\nPenélope Cruz\n")
	writeFile(t, second, ",name\n0,Robert De Niro\n1,al pacino\n")

	out, _, err := runCLI(t, "actors", "build", first, second)
	require.NoError(t, err)
	assert.Equal(t, "al pacino\npenelope cruz\nrobert de niro\n", out)
}
