package loader

import "sort"

// Document is one entry of a Corpus.
type Document struct {
	ID   string
	Text string
}

// Corpus maps document ids (file names) to cleaned text. It is read-only once
// built and iterates in lexicographic id order.
type Corpus struct {
	docs map[string]string
	ids  []string
}

func newCorpus() *Corpus {
	return &Corpus{docs: make(map[string]string)}
}

// NewCorpus builds a Corpus from a map, mainly for callers that already hold the text.
func NewCorpus(docs map[string]string) *Corpus {
	c := newCorpus()
	for id, text := range docs {
		c.add(id, text)
	}
	sort.Strings(c.ids)
	return c
}

// add appends a document. Callers add ids in lexicographic order or sort afterwards.
func (c *Corpus) add(id, text string) {
	if _, ok := c.docs[id]; !ok {
		c.ids = append(c.ids, id)
	}
	c.docs[id] = text
}

// Len returns the number of documents.
func (c *Corpus) Len() int {
	return len(c.ids)
}

// IDs returns the document ids in iteration order.
func (c *Corpus) IDs() []string {
	return append([]string(nil), c.ids...)
}

// Get returns the text of one document.
func (c *Corpus) Get(id string) (string, bool) {
	text, ok := c.docs[id]
	return text, ok
}

// Documents returns all documents in iteration order.
func (c *Corpus) Documents() []Document {
	out := make([]Document, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, Document{ID: id, Text: c.docs[id]})
	}
	return out
}
