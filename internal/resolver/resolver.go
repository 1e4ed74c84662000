// Package resolver decides whether an incoming listing is a book the
// store already knows.
//
// Stages run in order and stop at the first hit:
//
//  1. exact normalized ISBN; a hit here is final.
//  2. fuzzy title/author: a bounded candidate set from the store, the
//     first candidate whose title and author both contain, or are
//     contained in, the listing's wins. Candidates are not ranked.
//  3. no match; the caller creates a product.
//
// Very short titles or authors can match unrelated books in stage 2.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"bookhub/internal/books"
	"bookhub/internal/normalize"
	"bookhub/pkg/models"
)

type Stage string

const (
	StageNone  Stage = "none"
	StageISBN  Stage = "isbn"
	StageFuzzy Stage = "fuzzy"
)

type Match struct {
	ProductID int64
	Stage     Stage
}

func (m Match) Found() bool {
	return m.Stage != StageNone
}

type Resolver struct {
	// CandidateLimit bounds the fuzzy lookup; 0 means books.DefaultCandidateLimit.
	CandidateLimit int
}

func New(candidateLimit int) *Resolver {
	return &Resolver{CandidateLimit: candidateLimit}
}

// Resolve only fails when the store does. Missing fields just move the
// listing on to the next stage.
func (r *Resolver) Resolve(ctx context.Context, f books.Finder, l models.Listing) (Match, error) {
	if isbn := normalize.ISBN(l); isbn != "" {
		p, err := f.FindByISBN(ctx, isbn)
		if err != nil {
			return Match{Stage: StageNone}, fmt.Errorf("isbn stage: %w", err)
		}
		if p != nil {
			return Match{ProductID: p.ID, Stage: StageISBN}, nil
		}
	}

	title := normalize.Text(l.Title.String())
	author := normalize.AuthorKey(l.Author.String())
	if title == "" || author == "" {
		return Match{Stage: StageNone}, nil
	}

	limit := r.CandidateLimit
	if limit <= 0 {
		limit = books.DefaultCandidateLimit
	}
	candidates, err := f.FindCandidatesByTitle(ctx, title, limit)
	if err != nil {
		return Match{Stage: StageNone}, fmt.Errorf("fuzzy stage: %w", err)
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	for _, c := range candidates {
		if SameBook(title, author, normalize.Text(c.Title), normalize.AuthorKey(c.Author)) {
			return Match{ProductID: c.ID, Stage: StageFuzzy}, nil
		}
	}
	return Match{Stage: StageNone}, nil
}

// SameBook is the fuzzy acceptance test on normalized values. It is
// symmetric: swapping the listing and the candidate gives the same answer.
func SameBook(titleA, authorA, titleB, authorB string) bool {
	return containsEither(titleA, titleB) && containsEither(authorA, authorB)
}

func containsEither(a, b string) bool {
	return strings.Contains(b, a) || strings.Contains(a, b)
}
