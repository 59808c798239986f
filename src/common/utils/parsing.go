package utils

import (
	"encoding/json"

	"github.com/nrdp-rail/gtfs-engine/src/common/types"
)

func UnmarshalTrustMessages(data string) ([]types.TrustMessage, error) {
	var messages []types.TrustMessage
	err := json.Unmarshal([]byte(data), &messages)
	return messages, err
}

func UnmarshalVSTP(jsonStr string) (*types.VSTPMessage, error) {
	var vstpMsg types.VSTPMessage
	err := json.Unmarshal([]byte(jsonStr), &vstpMsg)
	if err != nil {
		return nil, err
	}
	return &vstpMsg, nil
}
