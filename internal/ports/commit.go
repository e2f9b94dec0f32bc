package ports

import "context"

// CommitHook defers work until the current unit of work commits
type CommitHook interface {
	OnCommit(fn func(ctx context.Context))
}
