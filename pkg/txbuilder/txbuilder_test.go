package txbuilder

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJupiterLegAssemblesSetupSwapCleanup(t *testing.T) {
	programID := "11111111111111111111111111111111"
	account := "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	data := base64.StdEncoding.EncodeToString([]byte{0x01, 0x02, 0x03})

	raw := []byte(`{
		"setupInstructions": [{
			"programId": "` + programID + `",
			"data": "` + data + `",
			"accounts": [{"pubkey": "` + account + `", "isSigner": false, "isWritable": true}]
		}],
		"swapInstruction": {
			"programId": "` + programID + `",
			"data": "` + data + `",
			"accounts": [{"pubkey": "` + account + `", "isSigner": true, "isWritable": false}]
		},
		"cleanupInstruction": {
			"programId": "` + programID + `",
			"data": "` + data + `",
			"accounts": []
		},
		"addressLookupTableAddresses": ["` + account + `"]
	}`)

	instrs, alts, err := decodeJupiterLeg(raw)
	require.NoError(t, err)
	assert.Len(t, instrs, 3, "setup + swap + cleanup")
	assert.Equal(t, []string{account}, alts)
}

func TestDecodeJupiterLegWithoutCleanup(t *testing.T) {
	programID := "11111111111111111111111111111111"
	data := base64.StdEncoding.EncodeToString([]byte{0xAA})

	raw := []byte(`{
		"setupInstructions": [],
		"swapInstruction": {
			"programId": "` + programID + `",
			"data": "` + data + `",
			"accounts": []
		}
	}`)

	instrs, alts, err := decodeJupiterLeg(raw)
	require.NoError(t, err)
	assert.Len(t, instrs, 1)
	assert.Empty(t, alts)
}

func TestDecodeJupiterLegRejectsInvalidJSON(t *testing.T) {
	_, _, err := decodeJupiterLeg([]byte("not json"))
	assert.Error(t, err)
}

func TestJupiterInstructionPayloadRejectsBadProgramID(t *testing.T) {
	p := jupiterInstructionPayload{ProgramID: "not-base58!!"}
	_, err := p.toInstruction()
	assert.Error(t, err)
}
