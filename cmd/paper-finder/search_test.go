// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NikkiXIV/sci-paper-finder/internal/history"
	"github.com/NikkiXIV/sci-paper-finder/internal/output"
	"github.com/NikkiXIV/sci-paper-finder/pkg/types"
)

const arxivFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2301.07041v1</id>
    <title>Deep Learning for Protein Folding</title>
    <summary>Deep learning predicts protein structure. We train a large model. Results improve on prior work.</summary>
    <published>2023-01-17T18:59:59Z</published>
    <author><name>Ada Lovelace</name></author>
  </entry>
</feed>`

const pubmedSearch = `<?xml version="1.0"?>
<eSearchResult><Count>1</Count><IdList><Id>111</Id></IdList></eSearchResult>`

const pubmedFetch = `<?xml version="1.0"?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <PMID>111</PMID>
      <Article>
        <Journal><JournalIssue><PubDate><Year>2022</Year><Month>Mar</Month></PubDate></JournalIssue></Journal>
        <ArticleTitle>Clinical applications of learning systems</ArticleTitle>
        <Abstract><AbstractText>Learning systems help clinicians.</AbstractText></Abstract>
        <AuthorList><Author><ForeName>Alan</ForeName><LastName>Turing</LastName></Author></AuthorList>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

type backends struct {
	arxiv  *httptest.Server
	pubmed *httptest.Server
}

func newBackends(t *testing.T, arxivStatus, pubmedStatus int) backends {
	t.Helper()
	arxiv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if arxivStatus != http.StatusOK {
			w.WriteHeader(arxivStatus)
			return
		}
		fmt.Fprint(w, arxivFeed)
	}))
	pubmed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if pubmedStatus != http.StatusOK {
			w.WriteHeader(pubmedStatus)
			return
		}
		switch r.URL.Path {
		case "/esearch.fcgi":
			fmt.Fprint(w, pubmedSearch)
		case "/efetch.fcgi":
			fmt.Fprint(w, pubmedFetch)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(arxiv.Close)
	t.Cleanup(pubmed.Close)
	return backends{arxiv: arxiv, pubmed: pubmed}
}

// setupEnv points the CLI at the test backends and a scratch directory.
func setupEnv(t *testing.T, b backends) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PAPER_FINDER_SOURCES_ARXIV_BASE_URL", b.arxiv.URL)
	t.Setenv("PAPER_FINDER_SOURCES_PUBMED_BASE_URL", b.pubmed.URL)
	t.Setenv("PAPER_FINDER_SOURCES_ARXIV_RATE", "100")
	t.Setenv("PAPER_FINDER_SOURCES_PUBMED_RATE", "100")
	t.Setenv("PAPER_FINDER_RETRY_MAX_ATTEMPTS", "2")
	t.Setenv("PAPER_FINDER_RETRY_BASE_DELAY", "1ms")
	t.Setenv("PAPER_FINDER_RETRY_ATTEMPT_TIMEOUT", "5s")
	t.Setenv("PAPER_FINDER_OUTPUT_DIR", filepath.Join(dir, "processed"))
	t.Setenv("PAPER_FINDER_HISTORY_DB_PATH", filepath.Join(dir, "history.db"))
	t.Setenv("PAPER_FINDER_LOGGING_FILE", filepath.Join(dir, "logs", "test.log"))
	t.Setenv("PAPER_FINDER_LOGGING_LEVEL", "disabled")
	return dir
}

// resetFlags restores every scalar flag to its default so state does not
// leak between executions of the shared command tree.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if _, isSlice := f.Value.(pflag.SliceValue); isSlice {
			return
		}
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := run()
	return stdout.String(), stderr.String(), err
}

// openFDs counts this process's file descriptors open on path. It skips
// the test where /proc is unavailable.
func openFDs(t *testing.T, path string) int {
	t.Helper()
	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		t.Skip("no /proc/self/fd on this platform")
	}
	want, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)

	n := 0
	for _, e := range entries {
		target, err := os.Readlink(filepath.Join("/proc/self/fd", e.Name()))
		if err == nil && target == want {
			n++
		}
	}
	return n
}

func TestSearchCommandEndToEnd(t *testing.T) {
	dir := setupEnv(t, newBackends(t, http.StatusOK, http.StatusOK))
	queryFile := filepath.Join(dir, "saved", "ml.yaml")

	stdout, stderr, err := execute(t, "search", "-s", "learning", "-m", "3", "--save-query", queryFile)
	require.NoError(t, err, stderr)

	assert.Contains(t, stdout, "Found 2 papers:")
	assert.Contains(t, stdout, "Deep Learning for Protein Folding")
	assert.Contains(t, stdout, "Clinical applications of learning systems")
	assert.Contains(t, stderr, "Results saved to")
	assert.NotContains(t, stderr, "warning:")

	records, err := filepath.Glob(filepath.Join(dir, "processed", "search_learning_*.json"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	data, err := os.ReadFile(records[0])
	require.NoError(t, err)
	var papers []types.Paper
	require.NoError(t, json.Unmarshal(data, &papers))
	assert.Len(t, papers, 2)
	for _, p := range papers {
		assert.NotEmpty(t, p.Keywords, "every paper with an abstract gets keywords")
	}

	qf, err := output.ReadQueryFile(queryFile)
	require.NoError(t, err)
	assert.Equal(t, "learning", qf.Query.Query)
	assert.Equal(t, 2, qf.Summary.Total)

	store, err := history.NewStore(filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.List(t.Context(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].PaperCount)

	assert.FileExists(t, filepath.Join(dir, "logs", "test.log"))
}

func TestSearchCommandPartialFailure(t *testing.T) {
	dir := setupEnv(t, newBackends(t, http.StatusOK, http.StatusServiceUnavailable))

	stdout, stderr, err := execute(t, "search", "-s", "learning", "--format", "json", "--no-save", "--no-history")
	require.NoError(t, err, stderr)

	assert.Contains(t, stderr, "warning: pubmed: unavailable after 2 attempt(s)")
	var papers []types.Paper
	require.NoError(t, json.Unmarshal([]byte(stdout), &papers))
	require.Len(t, papers, 1)
	assert.Equal(t, types.SourceArxiv, papers[0].Source)

	_, statErr := os.Stat(filepath.Join(dir, "processed"))
	assert.True(t, os.IsNotExist(statErr), "--no-save must not create the output directory")
	assert.NoFileExists(t, filepath.Join(dir, "history.db"))
}

func TestSearchCommandAllSourcesFailed(t *testing.T) {
	setupEnv(t, newBackends(t, http.StatusInternalServerError, http.StatusServiceUnavailable))

	_, stderr, err := execute(t, "search", "-s", "learning", "--no-save", "--no-history")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrAllSourcesFailed))
	assert.Contains(t, stderr, "error: arxiv: unavailable")
	assert.Contains(t, stderr, "error: pubmed: unavailable")
}

func TestFailedCommandClosesLogFile(t *testing.T) {
	dir := setupEnv(t, newBackends(t, http.StatusInternalServerError, http.StatusServiceUnavailable))
	t.Setenv("PAPER_FINDER_LOGGING_LEVEL", "warn")
	logPath := filepath.Join(dir, "logs", "test.log")

	_, _, err := execute(t, "search", "-s", "learning", "--no-save", "--no-history")
	require.Error(t, err)
	require.True(t, errors.Is(err, types.ErrAllSourcesFailed))

	assert.Nil(t, logCloser, "log closer must be released after a failed command")
	assert.Equal(t, 0, openFDs(t, logPath), "log file must be closed after a failed command")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "arxiv")
}

func TestSearchCommandInvalidRequest(t *testing.T) {
	setupEnv(t, newBackends(t, http.StatusOK, http.StatusOK))

	_, _, err := execute(t, "search", "-s", "   ", "--no-save", "--no-history")
	require.Error(t, err)
}

func TestLoadAndHistoryCommands(t *testing.T) {
	dir := setupEnv(t, newBackends(t, http.StatusOK, http.StatusOK))
	queryFile := filepath.Join(dir, "q.yaml")

	_, stderr, err := execute(t, "search", "-s", "protein", "--no-save", "--save-query", queryFile)
	require.NoError(t, err, stderr)

	stdout, _, err := execute(t, "load", queryFile, "--format", "table")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Deep Learning for Protein Folding")
	assert.Contains(t, stdout, "2 papers")

	stdout, _, err = execute(t, "history")
	require.NoError(t, err)
	assert.Contains(t, stdout, "protein")
	assert.Contains(t, stdout, "1 runs")

	stdout, _, err = execute(t, "history", "--json")
	require.NoError(t, err)
	var runs []history.Run
	require.NoError(t, json.Unmarshal([]byte(stdout), &runs))
	require.Len(t, runs, 1)

	stdout, _, err = execute(t, "history", "show", runs[0].ID[:8], "--format", "json")
	require.NoError(t, err)
	var papers []types.Paper
	require.NoError(t, json.Unmarshal([]byte(stdout), &papers))
	assert.Len(t, papers, 2)

	stdout, _, err = execute(t, "history", "search", "clinical")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Clinical applications of learning systems")

	_, _, err = execute(t, "history", "show", "does-not-exist")
	assert.True(t, errors.Is(err, history.ErrNotFound))
}

func TestVersionCommand(t *testing.T) {
	t.Setenv("PAPER_FINDER_LOGGING_LEVEL", "disabled")
	t.Setenv("PAPER_FINDER_LOGGING_FILE", filepath.Join(t.TempDir(), "v.log"))

	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "paper-finder dev\n", stdout)
}
