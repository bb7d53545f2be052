package event

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_WireFieldNames(t *testing.T) {
	id := uuid.MustParse("5f9c6af4-2b9a-4a91-9c3e-1a5740f0f0aa")
	env := Envelope{
		DeviceID: id,
		Kind:     KindRegistered,
		Details: &RegisteredDetails{
			DeviceType:    "sensor",
			Name:          "hallway thermometer",
			Model:         "TH-200",
			DeviceAddress: "10.0.0.12",
			SerialNumber:  "SN-0042",
			Status:        "active",
			UserID:        "9a1de1a1-0db8-4d38-9f6a-3e5b2c4c7a01",
			HomeID:        "2c3b9f6e-7d10-47ab-8f27-0f3d9f2a6b55",
		},
	}

	data, err := Encode(env)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))

	// Stable wire names, enum as its symbolic name.
	assert.Equal(t, id.String(), wire["deviceId"])
	assert.Equal(t, "Registered", wire["deviceEvent"])
	details, ok := wire["details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "sensor", details["deviceType"])
	assert.Equal(t, "10.0.0.12", details["deviceAddress"])
	assert.Equal(t, "SN-0042", details["serialNumber"])
}

func TestEncode_DeletedOmitsDetails(t *testing.T) {
	data, err := Encode(Envelope{DeviceID: uuid.New(), Kind: KindDeleted})
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))
	assert.Equal(t, "Deleted", wire["deviceEvent"])
	assert.NotContains(t, wire, "details")
}

func TestDecode_RoundTrip(t *testing.T) {
	original := Envelope{
		DeviceID: uuid.New(),
		Kind:     KindRegistered,
		Details:  &RegisteredDetails{DeviceType: "sensor", Name: "n", UserID: uuid.NewString(), HomeID: uuid.NewString()},
	}
	data, err := Encode(original)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestDecode_Failures(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{"malformed JSON", `{"deviceId": "abc`},
		{"missing event kind", `{"deviceId": "5f9c6af4-2b9a-4a91-9c3e-1a5740f0f0aa"}`},
		{"invalid device id", `{"deviceId": "not-a-uuid", "deviceEvent": "Registered"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.data))
			var decodeErr *DecodeError
			assert.ErrorAs(t, err, &decodeErr)
		})
	}
}

func TestDecode_UnknownKindIsAccepted(t *testing.T) {
	data := []byte(`{"deviceId": "5f9c6af4-2b9a-4a91-9c3e-1a5740f0f0aa", "deviceEvent": "Suspended"}`)

	env, err := Decode(data)

	require.NoError(t, err)
	assert.Equal(t, Kind("Suspended"), env.Kind)
}

func TestDecode_CrossFieldMismatchPassesThrough(t *testing.T) {
	// A Registered event without details and a Deleted event with details are
	// both decodable; the apply handler owns that constraint.
	env, err := Decode([]byte(`{"deviceId": "5f9c6af4-2b9a-4a91-9c3e-1a5740f0f0aa", "deviceEvent": "Registered"}`))
	require.NoError(t, err)
	assert.Nil(t, env.Details)

	env, err = Decode([]byte(`{"deviceId": "5f9c6af4-2b9a-4a91-9c3e-1a5740f0f0aa", "deviceEvent": "Deleted", "details": {"name": "ghost"}}`))
	require.NoError(t, err)
	require.NotNil(t, env.Details)
	assert.Equal(t, "ghost", env.Details.Name)
}
