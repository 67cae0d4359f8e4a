package render

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/jcdickinson/crystalref/internal/docs"
	"golang.org/x/sync/errgroup"
)

// Site renders every page of a tree.
type Site struct {
	Renderer *Renderer
	// Workers bounds concurrent page renders; zero means GOMAXPROCS.
	Workers int
}

// RenderAll renders the root and every type beneath it. Pages come back in
// depth-first order regardless of which finished first.
func (s *Site) RenderAll(ctx context.Context) ([]Page, error) {
	tree := s.Renderer.Tree()
	items := []*docs.Item{tree.Root()}
	for typ := range tree.Root().WalkTypes() {
		items = append(items, typ)
	}

	workers := s.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	pages := make([]Page, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, it := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := s.Renderer.Page(tree.View(it, s.Renderer.Options().Collect))
			if err != nil {
				return err
			}
			pages[i] = p
			slog.Debug("rendered page", "id", p.AbsID, "path", p.Path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}
