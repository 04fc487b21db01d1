package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrationTransitions(t *testing.T) {
	cases := []struct {
		from, to MigrationStatus
		ok       bool
	}{
		{MigrationStatusPending, MigrationStatusMigrated, true},
		{MigrationStatusPending, MigrationStatusFailed, true},
		{MigrationStatusFailed, MigrationStatusMigrated, true},
		{MigrationStatusMigrated, MigrationStatusFailed, true},
		{MigrationStatusMigrated, MigrationStatusPending, false},
		{MigrationStatusFailed, MigrationStatusPending, false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.ok, CanTransitionMigration(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestValidateMigrationTransition_SameStatusIsNoop(t *testing.T) {
	require.NoError(t, ValidateMigrationTransition(MigrationStatusFailed, MigrationStatusFailed))
	require.Error(t, ValidateMigrationTransition(MigrationStatusMigrated, MigrationStatusPending))
}
