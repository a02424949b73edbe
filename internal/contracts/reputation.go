package contracts

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const reputationABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint256", "name": "agentId", "type": "uint256"},
      {"indexed": true, "internalType": "address", "name": "clientAddress", "type": "address"},
      {"indexed": false, "internalType": "uint64", "name": "feedbackIndex", "type": "uint64"},
      {"indexed": false, "internalType": "int128", "name": "value", "type": "int128"},
      {"indexed": false, "internalType": "uint8", "name": "valueDecimals", "type": "uint8"},
      {"indexed": false, "internalType": "string", "name": "tag1", "type": "string"},
      {"indexed": false, "internalType": "string", "name": "tag2", "type": "string"},
      {"indexed": false, "internalType": "string", "name": "endpoint", "type": "string"},
      {"indexed": false, "internalType": "string", "name": "feedbackURI", "type": "string"},
      {"indexed": false, "internalType": "bytes32", "name": "feedbackHash", "type": "bytes32"}
    ],
    "name": "NewFeedback",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint256", "name": "agentId", "type": "uint256"},
      {"indexed": true, "internalType": "address", "name": "clientAddress", "type": "address"},
      {"indexed": false, "internalType": "uint64", "name": "feedbackIndex", "type": "uint64"}
    ],
    "name": "FeedbackRevoked",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint256", "name": "agentId", "type": "uint256"},
      {"indexed": true, "internalType": "address", "name": "clientAddress", "type": "address"},
      {"indexed": false, "internalType": "uint64", "name": "feedbackIndex", "type": "uint64"},
      {"indexed": false, "internalType": "address", "name": "responder", "type": "address"},
      {"indexed": false, "internalType": "string", "name": "responseURI", "type": "string"},
      {"indexed": false, "internalType": "bytes32", "name": "responseHash", "type": "bytes32"}
    ],
    "name": "ResponseAppended",
    "type": "event"
  }
]`

var (
	reputationOnce sync.Once
	reputationABI  abi.ABI
	reputationErr  error
)

// ReputationABI returns the parsed reputation registry ABI.
func ReputationABI() (abi.ABI, error) {
	reputationOnce.Do(func() {
		reputationABI, reputationErr = abi.JSON(strings.NewReader(reputationABIJSON))
	})
	return reputationABI, reputationErr
}
