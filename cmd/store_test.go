package main

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/medpanel/internal/model"
)

func TestParseRegions(t *testing.T) {
	ids, err := parseRegions("1,2,5")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 5}, ids)

	ids, err = parseRegions(" 3 , 4 ")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, ids)

	ids, err = parseRegions("")
	require.NoError(t, err)
	assert.Nil(t, ids)

	_, err = parseRegions("1,x")
	assert.True(t, errors.Is(err, model.ErrInvalidArgument))
}

func TestParsePanelFilter(t *testing.T) {
	f, err := parsePanelFilter("1,2", "2023-01-05", "2023-02-01")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, f.Regions)
	assert.Equal(t, time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC), f.From)
	assert.Equal(t, time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC), f.To)

	f, err = parsePanelFilter("", "", "")
	require.NoError(t, err)
	assert.Nil(t, f.Regions)
	assert.True(t, f.From.IsZero())
	assert.True(t, f.To.IsZero())

	_, err = parsePanelFilter("", "05-01-2023", "")
	assert.True(t, errors.Is(err, model.ErrInvalidArgument))

	_, err = parsePanelFilter("", "", "bogus")
	assert.True(t, errors.Is(err, model.ErrInvalidArgument))
}
