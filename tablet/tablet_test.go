package tablet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tabletstore/bootstrap/fsutil"
	"github.com/tabletstore/bootstrap/logentry"
)

func TestMetadataLoadOrCreateFreshTablet(t *testing.T) {
	fs := fsutil.NewLocal(t.TempDir())
	m, err := LoadOrCreateMetadata(fs, "t1")
	require.NoError(t, err)
	assert.EqualValues(t, -1, m.LastDurableMRSID())
	assert.Equal(t, 0, m.NumRowSets())
}

func TestMetadataFlushLoadRoundTrip(t *testing.T) {
	fs := fsutil.NewLocal(t.TempDir())
	m, err := LoadOrCreateMetadata(fs, "t1")
	require.NoError(t, err)

	m.SetLastDurableMRSID(4)
	m.PutRowSetMetadata(RowSetMetadata{RSID: 1, LastDurableRedoDMSID: 2})
	require.NoError(t, m.Flush())

	reloaded, err := LoadOrCreateMetadata(fs, "t1")
	require.NoError(t, err)
	assert.EqualValues(t, 4, reloaded.LastDurableMRSID())
	rs, ok := reloaded.GetRowSetMetadata(1)
	require.True(t, ok)
	assert.EqualValues(t, 2, rs.LastDurableRedoDMSID)
}

func TestMetadataTableInfoRoundTrip(t *testing.T) {
	fs := fsutil.NewLocal(t.TempDir())
	m, err := LoadOrCreateMetadata(fs, "t1")
	require.NoError(t, err)

	m.SetTableInfo("widgets", []byte("a"), []byte("z"))
	require.NoError(t, m.Flush())

	reloaded, err := LoadOrCreateMetadata(fs, "t1")
	require.NoError(t, err)
	assert.Equal(t, "widgets", reloaded.TableName())
	assert.Equal(t, []byte("a"), reloaded.StartKey())
	assert.Equal(t, []byte("z"), reloaded.EndKey())
}

func TestApplyRowOperationInsertUpdateDelete(t *testing.T) {
	fs := fsutil.NewLocal(t.TempDir())
	m, err := LoadOrCreateMetadata(fs, "t1")
	require.NoError(t, err)
	tab := New(m)

	var tx WriteTxState
	req := &logentry.WriteRequest{RowOperations: []logentry.RowOperation{
		{Type: logentry.RowInsert, Key: []byte("k1"), Value: []byte("v1")},
	}}
	require.NoError(t, tab.DecodeWriteOperations(&tx, req))
	require.NoError(t, tab.AcquireRowLocks(&tx))
	require.NoError(t, tab.ApplyRowOperation(&tx, tx.RowOps[0]))
	assert.False(t, tx.RowOps[0].Result.Failed)

	v, ok := tab.Row([]byte("k1"))
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), v)

	var tx2 WriteTxState
	req2 := &logentry.WriteRequest{RowOperations: []logentry.RowOperation{
		{Type: logentry.RowUpdate, Key: []byte("missing"), Value: []byte("v2")},
	}}
	require.NoError(t, tab.DecodeWriteOperations(&tx2, req2))
	require.NoError(t, tab.ApplyRowOperation(&tx2, tx2.RowOps[0]))
	assert.True(t, tx2.RowOps[0].Result.Failed)
}

func TestAlterSchema(t *testing.T) {
	fs := fsutil.NewLocal(t.TempDir())
	m, err := LoadOrCreateMetadata(fs, "t1")
	require.NoError(t, err)
	tab := New(m)

	var tx AlterSchemaTxState
	schema := logentry.SchemaDescriptor{Version: 1, Columns: []logentry.ColumnDescriptor{{Name: "c1", Type: "int64"}}}
	require.NoError(t, tab.CreatePreparedAlterSchema(&tx, schema))
	require.NoError(t, tab.AlterSchema(&tx))
	assert.Equal(t, 1, tab.SchemaUnlocked().Version)
}
