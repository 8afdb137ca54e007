package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound(t *testing.T) {
	assert.Equal(t, 121.45, Round(121.4450001, 2))
	assert.Equal(t, 1.3, Round(1.25, 1))
	assert.Equal(t, -1.3, Round(-1.25, 1))
	assert.Equal(t, 120.0, Round(120, 2))
}

func TestNewDataset(t *testing.T) {
	records := []DayRecord{{Date: "2024-10-23"}, {Date: "2024-10-24"}}
	ds := NewDataset(records, "2024-10-24 08:00:00")

	assert.Equal(t, 2, ds.Total)
	require.NotNil(t, ds.DateRange.Start)
	require.NotNil(t, ds.DateRange.End)
	assert.Equal(t, "2024-10-23", *ds.DateRange.Start)
	assert.Equal(t, "2024-10-24", *ds.DateRange.End)
	assert.Equal(t, DatasetDescription, ds.Description)
	assert.Equal(t, "9类农产品价格", ds.DataQuality.Products)
}

func TestNewDatasetEmpty(t *testing.T) {
	ds := NewDataset(nil, "2024-10-24 08:00:00")

	assert.Equal(t, 0, ds.Total)
	assert.Nil(t, ds.DateRange.Start)
	assert.NotNil(t, ds.Data)
}

func TestLookupProduct(t *testing.T) {
	p, ok := LookupProduct(DefaultCatalog, "beef")
	require.True(t, ok)
	assert.Equal(t, "牛肉", p.Name)
	assert.Equal(t, 76.8, p.BasePrice)

	_, ok = LookupProduct(DefaultCatalog, "rice")
	assert.False(t, ok)
	assert.Len(t, ProductKeys(DefaultCatalog), 9)
}
