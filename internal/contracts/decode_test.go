package contracts

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

func addrTopic(addr common.Address) common.Hash {
	return common.BytesToHash(common.LeftPadBytes(addr.Bytes(), 32))
}

func TestDecodeRegisteredLog(t *testing.T) {
	contractABI, err := IdentityABI()
	if err != nil {
		t.Fatalf("identity abi: %v", err)
	}

	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	event := contractABI.Events["Registered"]
	data, err := event.Inputs.NonIndexed().Pack("ipfs://QmDoc")
	if err != nil {
		t.Fatalf("pack data: %v", err)
	}

	decoded, err := DecodeLog(contractABI, types.Log{
		Topics: []common.Hash{event.ID, common.BigToHash(big.NewInt(7)), addrTopic(owner)},
		Data:   data,
	})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if decoded.Name != "Registered" {
		t.Errorf("name = %s, want Registered", decoded.Name)
	}
	agentID, err := decoded.Int64("agentId")
	if err != nil || agentID != 7 {
		t.Errorf("agentId = %d (%v), want 7", agentID, err)
	}
	got, err := decoded.Address("owner")
	if err != nil || got != owner.Hex() {
		t.Errorf("owner = %s (%v), want %s", got, err, owner.Hex())
	}
	uri, err := decoded.String("agentURI")
	if err != nil || uri != "ipfs://QmDoc" {
		t.Errorf("agentURI = %s (%v), want ipfs://QmDoc", uri, err)
	}
}

func TestDecodeNewFeedbackLog(t *testing.T) {
	contractABI, err := ReputationABI()
	if err != nil {
		t.Fatalf("reputation abi: %v", err)
	}

	client := common.HexToAddress("0x2222222222222222222222222222222222222222")
	var hash [32]byte
	hash[0] = 0xab

	event := contractABI.Events["NewFeedback"]
	data, err := event.Inputs.NonIndexed().Pack(
		uint64(3), big.NewInt(-150), uint8(1), "quality", "", "chat", "ipfs://fb", hash,
	)
	if err != nil {
		t.Fatalf("pack data: %v", err)
	}

	decoded, err := DecodeLog(contractABI, types.Log{
		Topics: []common.Hash{event.ID, common.BigToHash(big.NewInt(9)), addrTopic(client)},
		Data:   data,
	})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	value, err := decoded.Decimal("value")
	if err != nil || value.String() != "-150" {
		t.Errorf("value = %s (%v), want -150", value, err)
	}
	decimals, err := decoded.Int64("valueDecimals")
	if err != nil || decimals != 1 {
		t.Errorf("valueDecimals = %d (%v), want 1", decimals, err)
	}
	index, err := decoded.Int64("feedbackIndex")
	if err != nil || index != 3 {
		t.Errorf("feedbackIndex = %d (%v), want 3", index, err)
	}
	gotHash, err := decoded.Hash("feedbackHash")
	if err != nil || gotHash != common.BytesToHash(hash[:]).Hex() {
		t.Errorf("feedbackHash = %s (%v)", gotHash, err)
	}
}

func TestDecodeRejectsUnknownTopic(t *testing.T) {
	contractABI, err := IdentityABI()
	if err != nil {
		t.Fatalf("identity abi: %v", err)
	}

	_, err = DecodeLog(contractABI, types.Log{
		Topics: []common.Hash{common.HexToHash("0xdeadbeef")},
	})
	if err == nil {
		t.Fatalf("expected error for unknown topic0")
	}
}

func TestDecodeRejectsTopicCountMismatch(t *testing.T) {
	contractABI, err := IdentityABI()
	if err != nil {
		t.Fatalf("identity abi: %v", err)
	}

	event := contractABI.Events["Registered"]
	_, err = DecodeLog(contractABI, types.Log{
		Topics: []common.Hash{event.ID, common.BigToHash(big.NewInt(7))},
	})
	if err == nil {
		t.Fatalf("expected error for missing indexed topic")
	}
}

func TestInt64Overflow(t *testing.T) {
	event := &Event{
		Name: "Listed",
		Fields: map[string]interface{}{
			"tokenId": new(big.Int).Lsh(big.NewInt(1), 70),
		},
	}
	if _, err := event.Int64("tokenId"); err == nil {
		t.Fatalf("expected overflow error")
	}
	n, err := event.BigInt("tokenId")
	if err != nil {
		t.Fatalf("BigInt failed: %v", err)
	}
	if n.BitLen() != 71 {
		t.Errorf("bit length = %d, want 71", n.BitLen())
	}
	value, err := event.Decimal("tokenId")
	if err != nil {
		t.Fatalf("Decimal failed: %v", err)
	}
	if value.String() != n.String() {
		t.Errorf("decimal = %s, want %s", value, n)
	}
}

func TestEventIDsCoverEveryEvent(t *testing.T) {
	identity, err := IdentityABI()
	if err != nil {
		t.Fatalf("identity abi: %v", err)
	}
	if got := len(EventIDs(identity)); got != len(identity.Events) {
		t.Errorf("identity ids = %d, want %d", got, len(identity.Events))
	}

	marketplace, err := MarketplaceABI()
	if err != nil {
		t.Fatalf("marketplace abi: %v", err)
	}
	if got := len(EventIDs(marketplace)); got != len(marketplace.Events) {
		t.Errorf("marketplace ids = %d, want %d", got, len(marketplace.Events))
	}
	if len(marketplace.Events) != 27 {
		t.Errorf("marketplace events = %d, want 27", len(marketplace.Events))
	}
}
