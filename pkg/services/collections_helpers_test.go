package services

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/realtime"
	"github.com/zenarog/zenarog-engine/pkg/repositories"
)

// fixedNow is Wednesday 2024-05-15 09:30 UTC.
var fixedNow = time.Date(2024, 5, 15, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newTestCollections(t *testing.T) *repositories.Collections {
	t.Helper()
	return repositories.NewCollections(repositories.NewMemoryDocumentStore(), realtime.NewLocalBus(), zap.NewNop())
}
