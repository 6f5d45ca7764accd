package billsearch

import (
	"context"
	"fmt"
	"testing"

	"github.com/hyperjump/billsync/internal/models"
)

func seedBench(b *testing.B, n int) *fixture {
	f := newFixture(b, WithBatchSize(200))
	bills := make([]*models.Bill, n)
	for i := range bills {
		bills[i] = makeBill(fmt.Sprintf("S%d", i+1), 2019+2*(i%3), i%10 != 0,
			fmt.Sprintf("An act relating to budget item %d", i))
	}
	f.put(b, bills...)
	return f
}

func BenchmarkRebuildIndex(b *testing.B) {
	f := seedBench(b, 1000)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := f.svc.RebuildIndex(ctx); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSearchByTextAndSession(b *testing.B) {
	f := seedBench(b, 1000)
	ctx := context.Background()
	if _, err := f.svc.RebuildIndex(ctx); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := f.svc.SearchByTextAndSession(ctx, "budget", 2021, "_score:DESC", nil); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkUpdateIndexBatch(b *testing.B) {
	f := newFixture(b)
	ctx := context.Background()
	bills := make([]*models.Bill, 100)
	for i := range bills {
		bills[i] = makeBill(fmt.Sprintf("A%d", i+1), 2021, i%2 == 0, "Highway maintenance")
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := f.svc.UpdateIndexBatch(ctx, bills); err != nil {
			b.Fatal(err)
		}
	}
}
