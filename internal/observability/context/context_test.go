package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrelationValues(t *testing.T) {
	ctx := WithActor(WithRequestID(context.Background(), "req-1"), "filer@example.com")

	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Equal(t, "filer@example.com", ActorFromContext(ctx))
	assert.Empty(t, ActorFromContext(context.Background()))
}

func TestResourceFields(t *testing.T) {
	params := map[string]string{"id": " 42 ", "number": "FTZ-000001"}
	lookup := func(key string) string { return params[key] }

	assert.Equal(t, map[string]string{"preshipment_id": "42", "entry_summary_number": "FTZ-000001"},
		ResourceFields("/api/preshipments/:id/signoff", lookup))
	assert.Equal(t, map[string]string{"entry_group_id": "42", "entry_summary_number": "FTZ-000001"},
		ResourceFields("/api/entry-groups/:id/approve", lookup))
	assert.Empty(t, ResourceFields("/health", func(string) string { return "" }))
}
