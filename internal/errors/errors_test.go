package errors

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderDefaults(t *testing.T) {
	t.Parallel()

	ee := Newf("something broke").Build()

	assert.Equal(t, ComponentUnknown, ee.Component)
	assert.Equal(t, CategoryGeneric, ee.Category)
	assert.False(t, ee.Timestamp.IsZero())
}

func TestBuilderFields(t *testing.T) {
	t.Parallel()

	base := NewStd("query failed")
	ee := New(base).
		Component("datastore").
		Category(CategoryDatabase).
		Context("operation", "find_similar_events").
		Timing("query", 150*time.Millisecond).
		Build()

	assert.Equal(t, "datastore", ee.Component)
	assert.Equal(t, CategoryDatabase, ee.Category)
	assert.Equal(t, "find_similar_events", ee.Context["operation"])
	assert.Equal(t, int64(150), ee.Context["duration_ms"])
	assert.Equal(t, "query failed", ee.Error())
}

func TestUnwrapChain(t *testing.T) {
	t.Parallel()

	sentinel := NewStd("record not found")
	wrapped := fmt.Errorf("loading event: %w", sentinel)
	ee := New(wrapped).Category(CategoryNotFound).Build()

	require.ErrorIs(t, ee, sentinel)
}

func TestCategoryMatching(t *testing.T) {
	t.Parallel()

	a := Newf("a").Category(CategoryDetection).Build()
	b := Newf("b").Category(CategoryDetection).Build()
	c := Newf("c").Category(CategoryDatabase).Build()

	assert.True(t, Is(a, b), "same category should match via Is")
	assert.False(t, Is(a, c), "different categories should not match")
	assert.True(t, HasCategory(a, CategoryDetection))
	assert.Equal(t, CategoryDatabase, CategoryOf(c))
	assert.Equal(t, CategoryGeneric, CategoryOf(NewStd("plain")))
}

func TestCategoryOfWrapped(t *testing.T) {
	t.Parallel()

	ee := Newf("store down").Category(CategoryDetection).Build()
	wrapped := fmt.Errorf("check failed: %w", ee)

	assert.Equal(t, CategoryDetection, CategoryOf(wrapped))
}
