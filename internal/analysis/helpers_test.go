package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/telefilter/internal/table"
)

const bankCSV = "age;job;marital;y\n" +
	"30;admin;married;no\n" +
	"40;services;single;yes\n" +
	"50;admin;single;yes\n" +
	"20;technician;married;no\n"

func bank(t *testing.T) *table.Dataset {
	t.Helper()
	ds, err := table.Load("bank.csv", []byte(bankCSV), table.FormatCSV, table.DefaultOptions())
	require.NoError(t, err)
	return ds
}

func records(ds *table.Dataset) [][]string {
	out := make([][]string, ds.Len())
	for i := range out {
		out[i] = ds.Record(i)
	}
	return out
}
