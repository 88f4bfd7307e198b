package vibration

import (
	"encoding/json"
	"testing"

	"phmagent/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultColumnPolicy_Resolves(t *testing.T) {
	roles, err := DefaultColumnPolicy()([]string{"id", "Device_Time", "VibrationX"})
	require.NoError(t, err)
	assert.Equal(t, "Device_Time", roles.Time)
	assert.Equal(t, "VibrationX", roles.Value)
}

func TestDefaultColumnPolicy_FirstMatchWins(t *testing.T) {
	columns := []string{"UpdateDate", "Time", "vibration_rms", "Vibration_Peak"}
	roles, err := DefaultColumnPolicy()(columns)
	require.NoError(t, err)
	assert.Equal(t, "UpdateDate", roles.Time)
	assert.Equal(t, "vibration_rms", roles.Value)
}

func TestDefaultColumnPolicy_NoMatch(t *testing.T) {
	_, err := DefaultColumnPolicy()([]string{"id", "reading"})
	require.Error(t, err)
	assert.True(t, core.IsSchemaDetectionError(err))
	assert.False(t, core.IsNoDataError(err))
}

func TestDefaultColumnPolicy_MissingTimeOnly(t *testing.T) {
	_, err := DefaultColumnPolicy()([]string{"id", "vibration"})
	require.Error(t, err)
	assert.True(t, core.IsSchemaDetectionError(err))
	assert.Contains(t, err.Error(), "time")
}

func TestSubstringPolicy_Adversarial(t *testing.T) {
	// "timestamp_vibration" satisfies both roles; each role still takes the first match.
	policy := SubstringPolicy([]string{"time"}, []string{"vibration"})
	roles, err := policy([]string{"timestamp_vibration", "vibration"})
	require.NoError(t, err)
	assert.Equal(t, "timestamp_vibration", roles.Time)
	assert.Equal(t, "timestamp_vibration", roles.Value)
}

func TestExplicitPolicy(t *testing.T) {
	policy := ExplicitPolicy("ts", "accel")
	roles, err := policy([]string{"ts", "accel"})
	require.NoError(t, err)
	assert.Equal(t, ColumnRoles{Time: "ts", Value: "accel"}, roles)

	_, err = policy([]string{"ts", "Vibration"})
	assert.True(t, core.IsSchemaDetectionError(err))
}

func TestTimeLikeColumns(t *testing.T) {
	got := TimeLikeColumns([]string{"id", "Time", "CreateDate", "Vibration"})
	assert.Equal(t, []string{"Time", "CreateDate"}, got)
}

func TestRow_MarshalJSONKeepsOrder(t *testing.T) {
	row := Row{{Name: "z", Value: 1}, {Name: "a", Value: []byte("dev-1")}, {Name: "m", Value: nil}}
	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":"dev-1","m":null}`, string(data))
}
