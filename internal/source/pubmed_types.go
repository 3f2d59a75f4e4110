// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import "encoding/xml"

// E-utilities XML structures. Only the fields the adapter maps are declared.

type eSearchResult struct {
	XMLName   xml.Name        `xml:"eSearchResult"`
	Count     int             `xml:"Count"`
	IDList    eSearchIDList   `xml:"IdList"`
	ErrorList *eSearchErrList `xml:"ErrorList,omitempty"`
	ERROR     string          `xml:"ERROR,omitempty"`
}

type eSearchIDList struct {
	IDs []string `xml:"Id"`
}

type eSearchErrList struct {
	PhraseNotFound []string `xml:"PhraseNotFound,omitempty"`
	FieldNotFound  []string `xml:"FieldNotFound,omitempty"`
}

type pubmedArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation   medlineCitation   `xml:"MedlineCitation"`
	ArticleIDs []pubmedArticleID `xml:"PubmedData>ArticleIdList>ArticleId"`
}

type pubmedArticleID struct {
	IDType string `xml:"IdType,attr"`
	Value  string `xml:",chardata"`
}

type medlineCitation struct {
	PMID    string         `xml:"PMID"`
	Article pubmedArticleT `xml:"Article"`
}

type pubmedArticleT struct {
	Journal      pubmedJournal      `xml:"Journal"`
	ArticleTitle innerText          `xml:"ArticleTitle"`
	Abstract     *pubmedAbstract    `xml:"Abstract,omitempty"`
	AuthorList   *pubmedAuthorList  `xml:"AuthorList,omitempty"`
	ArticleDate  []pubmedArticleDay `xml:"ArticleDate,omitempty"`
}

type pubmedJournal struct {
	JournalIssue pubmedJournalIssue `xml:"JournalIssue"`
}

type pubmedJournalIssue struct {
	PubDate pubmedPubDate `xml:"PubDate"`
}

type pubmedPubDate struct {
	Year        string `xml:"Year,omitempty"`
	Month       string `xml:"Month,omitempty"`
	Day         string `xml:"Day,omitempty"`
	MedlineDate string `xml:"MedlineDate,omitempty"`
}

type pubmedArticleDay struct {
	DateType string `xml:"DateType,attr,omitempty"`
	Year     string `xml:"Year"`
	Month    string `xml:"Month,omitempty"`
	Day      string `xml:"Day,omitempty"`
}

type pubmedAbstract struct {
	Texts []pubmedAbstractText `xml:"AbstractText"`
}

// pubmedAbstractText is one (possibly labelled) abstract section. Sections
// may contain inline markup such as <i> or <sup>, hence innerxml.
type pubmedAbstractText struct {
	Label string `xml:"Label,attr,omitempty"`
	Inner string `xml:",innerxml"`
}

type pubmedAuthorList struct {
	Authors []pubmedAuthor `xml:"Author"`
}

type pubmedAuthor struct {
	ValidYN        string `xml:"ValidYN,attr,omitempty"`
	LastName       string `xml:"LastName,omitempty"`
	ForeName       string `xml:"ForeName,omitempty"`
	CollectiveName string `xml:"CollectiveName,omitempty"`
}

// innerText captures an element's raw inner XML so inline markup in titles
// can be stripped rather than truncating the text at the first child element.
type innerText struct {
	Inner string `xml:",innerxml"`
}
