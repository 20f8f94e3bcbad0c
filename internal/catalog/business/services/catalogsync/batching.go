package catalogsync

import (
	"context"
	"fmt"

	"gocatalog_api/internal/catalog/pkg/clients"
)

// Lister is the listing half of the remote catalog client.
type Lister interface {
	ListIDs(ctx context.Context, page, pageSize int) ([]string, bool, error)
}

// listAll собирает все ID товаров постранично. Повторяющиеся ID отбрасываются.
func listAll(ctx context.Context, lister Lister, pageSize int) ([]string, error) {
	var ids []string
	seen := make(map[string]struct{})
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pageIDs, hasMore, err := lister.ListIDs(ctx, page, pageSize)
		if err != nil {
			return nil, fmt.Errorf("listing page %d: %w", page, err)
		}
		added := 0
		for _, id := range pageIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
			added++
		}
		// страница без новых ID означает, что сервер зациклился
		if !hasMore || added == 0 {
			return ids, nil
		}
	}
}

// Batch splits ids into chunks of at most size, capped at the remote batch capacity.
func Batch(ids []string, size int) [][]string {
	if size <= 0 || size > clients.MaxBatchSize {
		size = clients.MaxBatchSize
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		chunks = append(chunks, ids[start:min(start+size, len(ids))])
	}
	return chunks
}

// groups splits chunk indexes into consecutive groups processed concurrently.
func groups(chunks int, concurrency int) [][2]int {
	if concurrency <= 0 {
		concurrency = 1
	}
	var out [][2]int
	for start := 0; start < chunks; start += concurrency {
		out = append(out, [2]int{start, min(start+concurrency, chunks)})
	}
	return out
}
