package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/booking-api/pkg/errors"
)

func TestCacheRepositoryWithoutClientAlwaysMisses(t *testing.T) {
	repo := NewCacheRepository(nil)
	ctx := context.Background()

	assert.NoError(t, repo.Set(ctx, "slots:emp-1:svc-1:2024-06-03", []string{"09:00"}, time.Minute))

	var dest []string
	err := repo.Get(ctx, "slots:emp-1:svc-1:2024-06-03", &dest)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.Empty(t, dest)

	assert.NoError(t, repo.DeleteByPattern(ctx, "slots:emp-1:*"))
}
