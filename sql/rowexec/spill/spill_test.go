package spill_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/rowexec/spill"
)

func TestRowFileWriteAndRead(t *testing.T) {
	rf, err := spill.NewRowFile()
	require.NoError(t, err)

	want := []sql.Row{
		{int64(1), "alice"},
		{int64(2), "bob"},
		{nil, "carol"},
	}
	for _, row := range want {
		require.NoError(t, rf.Write(row))
	}

	r, err := rf.Reader()
	require.NoError(t, err)

	var got []sql.Row
	for {
		row, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, row)
	}
	require.NoError(t, r.Close())
	require.Equal(t, want, got)
}

func TestRowFileEmpty(t *testing.T) {
	rf, err := spill.NewRowFile()
	require.NoError(t, err)

	r, err := rf.Reader()
	require.NoError(t, err)
	_, err = r.Next()
	require.ErrorIs(t, err, io.EOF)
	require.NoError(t, r.Close())
}

func TestEstimateRowBytes(t *testing.T) {
	small := spill.EstimateRowBytes(sql.Row{int64(1)})
	big := spill.EstimateRowBytes(sql.Row{"a long string value that is much bigger"})
	require.Greater(t, big, small)
}
