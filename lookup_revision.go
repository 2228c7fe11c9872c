package termcache

import (
	"context"

	"github.com/pkg/errors"
)

// LatestRevision describes the newest revision of an entity. RedirectTarget is
// set when that revision is a redirect to another entity.
type LatestRevision struct {
	Revision       Revision
	RedirectTarget *EntityID
}

// EntityRevisionSource returns ErrEntityNotFound for unknown or deleted entities.
type EntityRevisionSource interface {
	LatestRevision(ctx context.Context, id EntityID) (LatestRevision, error)
}

type RevisionLookupFunc func(ctx context.Context, id EntityID) (Revision, EntityID, error)

func (f RevisionLookupFunc) LookupLatestRevisionResolvingRedirect(ctx context.Context, id EntityID) (Revision, EntityID, error) {
	return f(ctx, id)
}

const DefaultMaxRedirects = 1

type RedirectResolvingRevisionLookup struct {
	source       EntityRevisionSource
	maxRedirects int
}

func NewRedirectResolvingRevisionLookup(source EntityRevisionSource) *RedirectResolvingRevisionLookup {
	return &RedirectResolvingRevisionLookup{
		source:       source,
		maxRedirects: DefaultMaxRedirects,
	}
}

// WithMaxRedirects sets how many redirect hops are followed before the
// entity is considered not found.
func (l *RedirectResolvingRevisionLookup) WithMaxRedirects(n int) *RedirectResolvingRevisionLookup {
	if n < 0 {
		n = 0
	}
	l.maxRedirects = n

	return l
}

func (l *RedirectResolvingRevisionLookup) LookupLatestRevisionResolvingRedirect(
	ctx context.Context,
	id EntityID,
) (Revision, EntityID, error) {
	current := id
	visited := map[EntityID]struct{}{}

	for hops := 0; ; hops++ {
		visited[current] = struct{}{}

		latest, err := l.source.LatestRevision(ctx, current)
		if err != nil {
			if errors.Is(err, ErrEntityNotFound) {
				return 0, "", errors.Wrapf(ErrEntityNotFound, "%s", current)
			}

			return 0, "", errors.Wrapf(err, "can not get latest revision of %s", current)
		}

		if latest.RedirectTarget == nil {
			return latest.Revision, current, nil
		}

		target := *latest.RedirectTarget

		if hops >= l.maxRedirects {
			return 0, "", errors.Wrapf(ErrEntityNotFound, "%s redirects too deep", id)
		}

		if _, ok := visited[target]; ok {
			return 0, "", errors.Wrapf(ErrEntityNotFound, "%s is part of a redirect loop", id)
		}

		current = target
	}
}
