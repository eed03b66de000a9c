package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-import-api/pkg/jobs"
)

type sweeperStub struct {
	retention time.Duration
	err       error
}

func (s *sweeperStub) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	s.retention = ttl
	return []string{"batch-1/problems.csv"}, s.err
}

func TestReportCleanupUsesRetention(t *testing.T) {
	stub := &sweeperStub{}
	handler := reportCleanup(stub, 72*time.Hour, zap.NewNop())

	assert.NoError(t, handler(context.Background(), jobs.Job{ID: "batch-2", Type: jobs.TypeReportCleanup}))
	assert.Equal(t, 72*time.Hour, stub.retention)

	stub.err = errors.New("permission denied")
	assert.Error(t, handler(context.Background(), jobs.Job{ID: "batch-3"}))
}
