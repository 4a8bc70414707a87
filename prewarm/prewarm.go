// Package prewarm fills the variant cache at startup by rendering a fixed
// set of sizes for every catalog image with a bounded worker pool.
package prewarm

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/pixelforge/pixelforge/catalog"
	"github.com/pixelforge/pixelforge/logging"
	"github.com/pixelforge/pixelforge/render"
)

// Prewarmer renders variants ahead of demand.
type Prewarmer struct {
	Catalog  catalog.Provider
	Renderer *render.Renderer
	Log      logging.Logger

	// Workers bounds concurrent renders; values below one mean one.
	Workers int

	// Sizes are the square variant sizes rendered per image.
	Sizes []int
}

type job struct {
	img  catalog.Image
	task render.Task
}

// Run renders every image at every configured size. It returns the number
// of successful renders; cancellation of ctx stops scheduling and returns
// the context error.
func (p *Prewarmer) Run(ctx context.Context) (int, error) {
	if len(p.Sizes) == 0 {
		return 0, nil
	}

	images, err := p.Catalog.ListAll()
	if err != nil {
		return 0, err
	}

	workers := p.Workers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan job)
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if _, err := p.Renderer.Render(ctx, j.img, j.task); err != nil {
					p.log().WithError(err).Warn("prewarm render failed",
						zap.String("image", j.img.ID),
						zap.Int("size", j.task.Width),
					)
					continue
				}
				mu.Lock()
				done++
				mu.Unlock()
			}
		}()
	}

	var ctxErr error
schedule:
	for _, img := range images {
		for _, size := range p.Sizes {
			if size < 1 {
				continue
			}
			if ctxErr = ctx.Err(); ctxErr != nil {
				break schedule
			}
			select {
			case jobs <- job{img: img, task: render.Task{Width: size, Height: size}}:
			case <-ctx.Done():
				ctxErr = ctx.Err()
				break schedule
			}
		}
	}
	close(jobs)
	wg.Wait()

	return done, ctxErr
}

func (p *Prewarmer) log() logging.Logger {
	if p.Log != nil {
		return p.Log
	}
	return logging.Global()
}
