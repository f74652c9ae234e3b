package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/astrodocs/missionqa/services"
	"github.com/astrodocs/missionqa/services/vectorstore"
)

type fakeStore struct {
	result *vectorstore.QueryResult
	err    error

	gotText   string
	gotTopK   int
	gotFilter map[string]string
	calls     int
}

func (f *fakeStore) Query(ctx context.Context, text string, topK int, filter map[string]string) (*vectorstore.QueryResult, error) {
	f.calls++
	f.gotText = text
	f.gotTopK = topK
	f.gotFilter = filter
	return f.result, f.err
}

func TestGateway_Retrieve(t *testing.T) {
	store := &fakeStore{
		result: &vectorstore.QueryResult{
			Documents: []string{"doc one", "doc two", "doc three"},
			Metadatas: []map[string]interface{}{
				{"doc_id": "apollo_11", "source": "ignored", "mission": "apollo 11"},
				{"source": "voyager_notes", "category": "probe"},
				{},
			},
		},
	}
	logger, _ := zap.NewDevelopment()
	gateway := NewGateway(store, logger)

	passages, err := gateway.Retrieve(context.Background(), "moon landing", 3, "apollo 11")
	require.NoError(t, err)
	require.Len(t, passages, 3)

	// doc_id takes priority over source; missing metadata leaves SourceID empty.
	assert.Equal(t, "apollo_11", passages[0].SourceID)
	assert.Equal(t, "apollo 11", passages[0].Mission)
	assert.Equal(t, "voyager_notes", passages[1].SourceID)
	assert.Equal(t, "probe", passages[1].Category)
	assert.Empty(t, passages[2].SourceID)

	assert.Equal(t, map[string]string{"mission": "apollo 11"}, store.gotFilter)
	assert.Equal(t, 3, store.gotTopK)
}

func TestGateway_Retrieve_WildcardFilter(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	tests := []struct {
		name    string
		mission string
	}{
		{name: "empty", mission: ""},
		{name: "all", mission: "all"},
		{name: "any uppercase", mission: "ANY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{result: &vectorstore.QueryResult{}}
			gateway := NewGateway(store, logger)

			_, err := gateway.Retrieve(context.Background(), "q", 1, tt.mission)
			require.NoError(t, err)
			assert.Nil(t, store.gotFilter)
		})
	}
}

func TestGateway_Retrieve_InvalidInput(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	store := &fakeStore{}
	gateway := NewGateway(store, logger)

	_, err := gateway.Retrieve(context.Background(), "   ", 3, "")
	require.Error(t, err)
	assert.True(t, services.IsType(err, services.ErrorTypeValidation))

	_, err = gateway.Retrieve(context.Background(), "q", 0, "")
	require.Error(t, err)
	assert.True(t, services.IsType(err, services.ErrorTypeValidation))

	// Input validation happens before any store call.
	assert.Equal(t, 0, store.calls)
}

func TestGateway_Retrieve_StoreErrorYieldsEmpty(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	store := &fakeStore{err: errors.New("backend unreachable")}
	gateway := NewGateway(store, logger)

	passages, err := gateway.Retrieve(context.Background(), "q", 3, "")
	require.NoError(t, err)
	assert.Empty(t, passages)
}

func TestGateway_Retrieve_MisalignedMetadata(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	store := &fakeStore{
		result: &vectorstore.QueryResult{
			Documents: []string{"a", "b"},
			Metadatas: []map[string]interface{}{{"source": "only_one"}},
		},
	}
	gateway := NewGateway(store, logger)

	passages, err := gateway.Retrieve(context.Background(), "q", 2, "")
	require.NoError(t, err)
	require.Len(t, passages, 2)
	assert.Equal(t, "only_one", passages[0].SourceID)
	assert.Empty(t, passages[1].SourceID)
}
