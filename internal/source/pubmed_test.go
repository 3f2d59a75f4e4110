// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NikkiXIV/sci-paper-finder/pkg/types"
)

const esearchTwo = `<?xml version="1.0" encoding="UTF-8"?>
<eSearchResult>
  <Count>2</Count>
  <RetMax>2</RetMax>
  <IdList><Id>111</Id><Id>222</Id></IdList>
</eSearchResult>`

const efetchTwo = `<?xml version="1.0" encoding="UTF-8"?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <PMID Version="1">111</PMID>
      <Article>
        <Journal>
          <JournalIssue><PubDate><Year>2021</Year><Month>Mar</Month></PubDate></JournalIssue>
        </Journal>
        <ArticleTitle>CRISPR editing of <i>E. coli</i> genomes.</ArticleTitle>
        <Abstract>
          <AbstractText Label="BACKGROUND">Gene editing is useful.</AbstractText>
          <AbstractText Label="RESULTS">We edited <b>10</b> genes &amp; more.</AbstractText>
        </Abstract>
        <AuthorList>
          <Author ValidYN="Y"><LastName>Doudna</LastName><ForeName>Jennifer</ForeName></Author>
          <Author ValidYN="N"><LastName>Invalid</LastName><ForeName>Person</ForeName></Author>
          <Author><CollectiveName>CRISPR Consortium</CollectiveName></Author>
        </AuthorList>
        <ArticleDate DateType="Electronic"><Year>2021</Year><Month>02</Month><Day>14</Day></ArticleDate>
      </Article>
    </MedlineCitation>
    <PubmedData>
      <ArticleIdList>
        <ArticleId IdType="pubmed">111</ArticleId>
        <ArticleId IdType="doi">10.1038/s41586-021-03819-2</ArticleId>
        <ArticleId IdType="pmc">PMC8371605</ArticleId>
      </ArticleIdList>
    </PubmedData>
  </PubmedArticle>
  <PubmedArticle>
    <MedlineCitation>
      <PMID Version="1">222</PMID>
      <Article>
        <Journal>
          <JournalIssue><PubDate><MedlineDate>2019 Jan-Feb</MedlineDate></PubDate></JournalIssue>
        </Journal>
        <ArticleTitle>Plain title</ArticleTitle>
        <Abstract><AbstractText>Single unlabelled abstract.</AbstractText></Abstract>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

// pubmedServer serves esearch and efetch responses and records the query
// parameters of each request by endpoint.
type pubmedServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests map[string][]url.Values
}

func newPubMedServer(t *testing.T, esearch, efetch string) *pubmedServer {
	t.Helper()
	s := &pubmedServer{requests: make(map[string][]url.Values)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests[r.URL.Path] = append(s.requests[r.URL.Path], r.URL.Query())
		s.mu.Unlock()

		switch {
		case strings.HasSuffix(r.URL.Path, "/esearch.fcgi"):
			fmt.Fprint(w, esearch)
		case strings.HasSuffix(r.URL.Path, "/efetch.fcgi"):
			fmt.Fprint(w, efetch)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *pubmedServer) calls(path string) []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

func testPubMed(s *pubmedServer, apiKey string) *PubMedAdapter {
	return &PubMedAdapter{
		BaseURL: s.URL,
		APIKey:  apiKey,
		HTTP:    NewHTTPClient(s.Client(), "test/0.1", 0),
	}
}

func TestPubMedSearchTwoStep(t *testing.T) {
	s := newPubMedServer(t, esearchTwo, efetchTwo)

	papers, err := testPubMed(s, "").Search(context.Background(), "crispr gene editing", 5)
	require.NoError(t, err)
	require.Len(t, papers, 2)

	search := s.calls("/esearch.fcgi")
	require.Len(t, search, 1)
	assert.Equal(t, "pubmed", search[0].Get("db"))
	assert.Equal(t, "crispr gene editing", search[0].Get("term"))
	assert.Equal(t, "5", search[0].Get("retmax"))
	assert.Equal(t, "xml", search[0].Get("retmode"))
	assert.Empty(t, search[0].Get("api_key"))

	fetch := s.calls("/efetch.fcgi")
	require.Len(t, fetch, 1)
	assert.Equal(t, "111,222", fetch[0].Get("id"))
	assert.Equal(t, "abstract", fetch[0].Get("rettype"))
}

func TestPubMedSearchMapsArticles(t *testing.T) {
	s := newPubMedServer(t, esearchTwo, efetchTwo)

	papers, err := testPubMed(s, "").Search(context.Background(), "crispr", 5)
	require.NoError(t, err)
	require.Len(t, papers, 2)

	p := papers[0]
	assert.Equal(t, "CRISPR editing of E. coli genomes.", p.Title)
	assert.Equal(t, "BACKGROUND: Gene editing is useful. RESULTS: We edited 10 genes & more.", p.Abstract)
	assert.Equal(t, []string{"Jennifer Doudna", "CRISPR Consortium"}, p.Authors)
	assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/111/", p.URL)
	assert.Equal(t, "111", p.ExternalID)
	assert.Equal(t, types.SourcePubMed, p.Source)
	assert.Equal(t, time.Date(2021, 2, 14, 0, 0, 0, 0, time.UTC), p.Published)
	assert.Equal(t, "10.1038/s41586-021-03819-2", p.DOI)

	q := papers[1]
	assert.Equal(t, "Single unlabelled abstract.", q.Abstract)
	assert.Empty(t, q.Authors)
	assert.Equal(t, time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC), q.Published)
	assert.Empty(t, q.DOI)
}

func TestPubMedSearchSendsAPIKey(t *testing.T) {
	s := newPubMedServer(t, esearchTwo, efetchTwo)

	_, err := testPubMed(s, "secret-key").Search(context.Background(), "crispr", 5)
	require.NoError(t, err)

	assert.Equal(t, "secret-key", s.calls("/esearch.fcgi")[0].Get("api_key"))
	assert.Equal(t, "secret-key", s.calls("/efetch.fcgi")[0].Get("api_key"))
}

func TestPubMedSearchNoMatches(t *testing.T) {
	tests := []struct {
		name    string
		esearch string
	}{
		{"empty id list", `<eSearchResult><Count>0</Count><IdList></IdList></eSearchResult>`},
		{
			"phrase not found",
			`<eSearchResult><Count>0</Count><IdList/><ErrorList><PhraseNotFound>qwxyz</PhraseNotFound></ErrorList></eSearchResult>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newPubMedServer(t, tt.esearch, efetchTwo)

			papers, err := testPubMed(s, "").Search(context.Background(), "qwxyz", 5)
			require.NoError(t, err)
			assert.NotNil(t, papers)
			assert.Empty(t, papers)
			assert.Empty(t, s.calls("/efetch.fcgi"), "efetch must not be called without ids")
		})
	}
}

func TestPubMedSearchRespectsLimit(t *testing.T) {
	// Servers sometimes ignore retmax; the adapter must still cap results.
	s := newPubMedServer(t, esearchTwo, efetchTwo)

	papers, err := testPubMed(s, "").Search(context.Background(), "crispr", 1)
	require.NoError(t, err)
	require.Len(t, papers, 1)
	assert.Equal(t, "111", s.calls("/efetch.fcgi")[0].Get("id"))
}

func TestPubMedSearchParseFailures(t *testing.T) {
	tests := []struct {
		name    string
		esearch string
		efetch  string
	}{
		{"bad esearch xml", "<eSearchResult><IdList>", efetchTwo},
		{"esearch error element", `<eSearchResult><ERROR>Invalid query</ERROR></eSearchResult>`, efetchTwo},
		{"bad efetch xml", esearchTwo, "<PubmedArticleSet><PubmedArticle>"},
		{"wrong efetch root", esearchTwo, "<html></html>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newPubMedServer(t, tt.esearch, tt.efetch)

			papers, err := testPubMed(s, "").Search(context.Background(), "crispr", 5)
			require.Error(t, err)
			assert.Nil(t, papers)
			assert.True(t, errors.Is(err, ErrParse), "got %v", err)
			assert.Equal(t, types.KindParse, KindOf(err))
		})
	}
}

func TestPubMedSearchServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusTooManyRequests)
	}))
	defer ts.Close()

	a := &PubMedAdapter{BaseURL: ts.URL, HTTP: NewHTTPClient(ts.Client(), "", 0)}
	_, err := a.Search(context.Background(), "crispr", 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestPubMedDateFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		article pubmedArticleT
		want    time.Time
		wantNil bool
	}{
		{
			name: "pub date with numeric month",
			article: pubmedArticleT{Journal: pubmedJournal{JournalIssue: pubmedJournalIssue{PubDate: pubmedPubDate{Year: "2020", Month: "07", Day: "3"}}}},
			want: time.Date(2020, 7, 3, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "pub date with named month",
			article: pubmedArticleT{Journal: pubmedJournal{JournalIssue: pubmedJournalIssue{PubDate: pubmedPubDate{Year: "2018", Month: "Dec"}}}},
			want: time.Date(2018, 12, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "medline date range",
			article: pubmedArticleT{Journal: pubmedJournal{JournalIssue: pubmedJournalIssue{PubDate: pubmedPubDate{MedlineDate: "1998-1999"}}}},
			want: time.Date(1998, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{name: "no date", article: pubmedArticleT{}, wantNil: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pubMedDate(tt.article)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestStripMarkup(t *testing.T) {
	assert.Equal(t, "H2O and CO2", stripMarkup("H<sub>2</sub>O and CO<sub>2</sub>"))
	assert.Equal(t, "a < b & c", stripMarkup(" a &lt; b &amp; c "))
	assert.Equal(t, "", stripMarkup(""))
}
