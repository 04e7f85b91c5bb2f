package ads

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) string {
	return testNow.Add(-time.Duration(n) * 24 * time.Hour).Format(TimeLayout)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		selector string
		wantKind ModeKind
		wantIDs  []int64
		wantErr  bool
	}{
		{"all", ModeAll, nil, false},
		{"due", ModeDue, nil, false},
		{"NEW", ModeNew, nil, false},
		{" due ", ModeDue, nil, false},
		{"1,2,3", ModeByID, []int64{1, 2, 3}, false},
		{"42", ModeByID, []int64{42}, false},
		{"7,7,8", ModeByID, []int64{7, 8}, false},
		{"everything", 0, nil, true},
		{"1,foo", 0, nil, true},
		{"", 0, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			mode, err := ParseMode(tt.selector)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, mode.Kind)
			assert.Equal(t, tt.wantIDs, mode.IDs)
		})
	}
}

func TestMode_Due(t *testing.T) {
	tests := []struct {
		name string
		ad   *ResolvedDefinition
		want bool
	}{
		{
			"updated 8 days ago with interval 7 is due",
			&ResolvedDefinition{UpdatedOn: daysAgo(8), RepublicationInterval: 7},
			true,
		},
		{
			"updated 7 days ago with interval 7 is not due",
			&ResolvedDefinition{UpdatedOn: daysAgo(7), RepublicationInterval: 7},
			false,
		},
		{
			"never published is always due",
			&ResolvedDefinition{RepublicationInterval: 7},
			true,
		},
		{
			"falls back to created_on when updated_on is unset",
			&ResolvedDefinition{CreatedOn: daysAgo(10), RepublicationInterval: 7},
			true,
		},
		{
			"updated_on wins over an old created_on",
			&ResolvedDefinition{CreatedOn: daysAgo(30), UpdatedOn: daysAgo(1), RepublicationInterval: 7},
			false,
		},
	}

	mode := Mode{Kind: ModeDue}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mode.Selects(tt.ad, testNow))
		})
	}
}

func TestMode_New(t *testing.T) {
	mode := Mode{Kind: ModeNew}

	assert.True(t, mode.Selects(&ResolvedDefinition{}, testNow))

	// an assigned id excludes the ad regardless of dates
	withID := &ResolvedDefinition{ID: 1234, UpdatedOn: daysAgo(100), RepublicationInterval: 1}
	assert.False(t, mode.Selects(withID, testNow))
}

func TestMode_ByID(t *testing.T) {
	mode, err := ParseMode("11,22")
	require.NoError(t, err)

	assert.True(t, mode.Selects(&ResolvedDefinition{ID: 11}, testNow))
	assert.True(t, mode.Selects(&ResolvedDefinition{ID: 22}, testNow))
	assert.False(t, mode.Selects(&ResolvedDefinition{ID: 33}, testNow))
	assert.False(t, mode.Selects(&ResolvedDefinition{}, testNow))
}

func TestMode_AllSelectsEverything(t *testing.T) {
	mode := Mode{Kind: ModeAll}
	assert.True(t, mode.Selects(&ResolvedDefinition{ID: 5, UpdatedOn: daysAgo(1)}, testNow))
	assert.True(t, mode.Selects(&ResolvedDefinition{}, testNow))
}
