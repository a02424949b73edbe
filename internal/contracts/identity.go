package contracts

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const identityABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint256", "name": "agentId", "type": "uint256"},
      {"indexed": true, "internalType": "address", "name": "owner", "type": "address"},
      {"indexed": false, "internalType": "string", "name": "agentURI", "type": "string"}
    ],
    "name": "Registered",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint256", "name": "agentId", "type": "uint256"},
      {"indexed": true, "internalType": "address", "name": "updatedBy", "type": "address"},
      {"indexed": false, "internalType": "string", "name": "newURI", "type": "string"}
    ],
    "name": "URIUpdated",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint256", "name": "agentId", "type": "uint256"},
      {"indexed": false, "internalType": "string", "name": "metadataKey", "type": "string"},
      {"indexed": false, "internalType": "string", "name": "metadataValue", "type": "string"}
    ],
    "name": "MetadataSet",
    "type": "event"
  }
]`

var (
	identityOnce sync.Once
	identityABI  abi.ABI
	identityErr  error
)

// IdentityABI returns the parsed identity registry ABI.
func IdentityABI() (abi.ABI, error) {
	identityOnce.Do(func() {
		identityABI, identityErr = abi.JSON(strings.NewReader(identityABIJSON))
	})
	return identityABI, identityErr
}
