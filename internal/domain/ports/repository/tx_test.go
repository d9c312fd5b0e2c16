//go:build !integration

package repository

import (
	"context"
	"testing"
)

func TestAfterCommit(t *testing.T) {
	t.Run("without hooks the caller keeps the callback", func(t *testing.T) {
		if AfterCommit(context.Background(), func(context.Context) {}) {
			t.Fatal("expected false outside a managed transaction")
		}
	})

	t.Run("callbacks run once, in order, when the hooks run", func(t *testing.T) {
		ctx, run := WithCommitHooks(context.Background())
		var got []int
		for i := 1; i <= 2; i++ {
			i := i
			if !AfterCommit(ctx, func(context.Context) { got = append(got, i) }) {
				t.Fatal("expected the callback to be kept")
			}
		}
		if len(got) != 0 {
			t.Fatal("callbacks ran before commit")
		}
		run(ctx)
		run(ctx)
		if len(got) != 2 || got[0] != 1 || got[1] != 2 {
			t.Fatalf("expected [1 2], got %v", got)
		}
	})
}
