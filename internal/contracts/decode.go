package contracts

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
)

// Event is a decoded log: the event name plus all inputs, indexed and
// non-indexed, keyed by argument name.
type Event struct {
	Name   string
	Fields map[string]interface{}
}

// DecodeLog matches a raw log against the contract ABI by topic0 and
// decodes every argument.
func DecodeLog(contractABI abi.ABI, log types.Log) (*Event, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("log has no topics")
	}

	event, err := contractABI.EventByID(log.Topics[0])
	if err != nil {
		return nil, fmt.Errorf("unknown topic0 %s: %w", log.Topics[0].Hex(), err)
	}

	indexed := indexedArguments(event.Inputs)
	if len(log.Topics)-1 != len(indexed) {
		return nil, fmt.Errorf("%s: expected %d topics, got %d", event.Name, len(indexed)+1, len(log.Topics))
	}

	fields := make(map[string]interface{}, len(event.Inputs))
	if len(indexed) > 0 {
		if err := abi.ParseTopicsIntoMap(fields, indexed, log.Topics[1:]); err != nil {
			return nil, fmt.Errorf("parse topics %s: %w", event.Name, err)
		}
	}
	if err := contractABI.UnpackIntoMap(fields, event.Name, log.Data); err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.Name, err)
	}

	return &Event{Name: event.Name, Fields: fields}, nil
}

// EventIDs returns the topic0 hash of every event in the ABI.
func EventIDs(contractABI abi.ABI) []common.Hash {
	ids := make([]common.Hash, 0, len(contractABI.Events))
	for _, event := range contractABI.Events {
		ids = append(ids, event.ID)
	}
	return ids
}

// Address returns a named address argument as a checksummed hex string.
func (e *Event) Address(name string) (string, error) {
	value, ok := e.Fields[name]
	if !ok {
		return "", fmt.Errorf("%s: missing field %s", e.Name, name)
	}
	addr, err := asAddress(value)
	if err != nil {
		return "", fmt.Errorf("%s.%s: %w", e.Name, name, err)
	}
	return addr.Hex(), nil
}

// BigInt returns a named integer argument as a big.Int.
func (e *Event) BigInt(name string) (*big.Int, error) {
	value, ok := e.Fields[name]
	if !ok {
		return nil, fmt.Errorf("%s: missing field %s", e.Name, name)
	}
	n, err := asBigInt(value)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", e.Name, name, err)
	}
	return n, nil
}

// Int64 returns a named integer argument as int64, failing on overflow.
func (e *Event) Int64(name string) (int64, error) {
	n, err := e.BigInt(name)
	if err != nil {
		return 0, err
	}
	if !n.IsInt64() {
		return 0, fmt.Errorf("%s.%s: %s does not fit in int64", e.Name, name, n)
	}
	return n.Int64(), nil
}

// Decimal returns a named integer argument as an exact decimal.
func (e *Event) Decimal(name string) (decimal.Decimal, error) {
	n, err := e.BigInt(name)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromBigInt(n, 0), nil
}

// String returns a named string argument.
func (e *Event) String(name string) (string, error) {
	value, ok := e.Fields[name]
	if !ok {
		return "", fmt.Errorf("%s: missing field %s", e.Name, name)
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%s.%s: unsupported string type %T", e.Name, name, value)
	}
	return s, nil
}

// Hash returns a named bytes32 argument as a hex string.
func (e *Event) Hash(name string) (string, error) {
	value, ok := e.Fields[name]
	if !ok {
		return "", fmt.Errorf("%s: missing field %s", e.Name, name)
	}
	switch v := value.(type) {
	case [32]byte:
		return common.BytesToHash(v[:]).Hex(), nil
	case common.Hash:
		return v.Hex(), nil
	default:
		return "", fmt.Errorf("%s.%s: unsupported bytes32 type %T", e.Name, name, value)
	}
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}
