package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMigrateCommand(t *testing.T) {
	cmd := NewMigrateCommand()

	require.NotNil(t, cmd)
	assert.Equal(t, "migrate", cmd.Use)
	assert.NotNil(t, cmd.RunE)
	assert.Nil(t, cmd.Run)
}
