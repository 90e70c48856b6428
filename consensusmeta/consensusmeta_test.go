package consensusmeta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tabletstore/bootstrap/fsutil"
	"github.com/tabletstore/bootstrap/logentry"
)

func TestLoadMissingIsError(t *testing.T) {
	fs := fsutil.NewLocal(t.TempDir())
	_, err := Load(fs, "t1")
	assert.Error(t, err)
}

func TestCreateFlushLoadRoundTrip(t *testing.T) {
	fs := fsutil.NewLocal(t.TempDir())

	m, err := Create(fs, "t1", logentry.QuorumConfig{SeqNo: 3, Members: []string{"a", "b"}})
	require.NoError(t, err)
	assert.EqualValues(t, 3, m.CommittedQuorumSeqNo())

	m.SetCommittedQuorum(logentry.QuorumConfig{SeqNo: 4, Members: []string{"a", "b", "c"}})
	assert.EqualValues(t, 4, m.CommittedQuorumSeqNo())
	require.NoError(t, m.Flush())

	reloaded, err := Load(fs, "t1")
	require.NoError(t, err)
	assert.EqualValues(t, 4, reloaded.CommittedQuorumSeqNo())
}
