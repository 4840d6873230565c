// vectorgen emits deterministic message vectors for cross-checking other
// implementations: a node-signed message and a section-signed message with
// a one-link proof chain, both from fixed seeds.
package main

import (
	"encoding/hex"
	"fmt"

	"github.com/sectormesh/routing/identity"
	"github.com/sectormesh/routing/location"
	"github.com/sectormesh/routing/messages"
	"github.com/sectormesh/routing/section"
	"github.com/sectormesh/routing/xorname"
)

func seedOf(b byte) []byte {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = b
	}
	return seed
}

func main() {
	dst := location.SectionDst(xorname.FromContent([]byte("vector destination")))

	// Vector 1: node authority.
	id, err := identity.FromSeed(seedOf(0xA1))
	if err != nil {
		panic(err)
	}
	nodeMsg, err := messages.SingleSrc(id, dst, nil, messages.UserMessage{Content: []byte("node vector")})
	if err != nil {
		panic(err)
	}
	fmt.Printf("node.name=%s\n", id.Public().Name().Hex())
	fmt.Printf("node.hash=%s\n", nodeMsg.Hash().Hex())
	fmt.Printf("node.wire=%s\n", hex.EncodeToString(nodeMsg.ToBytes()))

	// Vector 2: section authority after one key transition.
	genesis, err := section.GenerateKeySet(2, 3, seedOf(0xB1))
	if err != nil {
		panic(err)
	}
	current, err := section.GenerateKeySet(2, 3, seedOf(0xB2))
	if err != nil {
		panic(err)
	}
	chain, err := section.NewProofChain(genesis.PublicKey())
	if err != nil {
		panic(err)
	}
	newKeyBytes, err := section.MarshalKey(current.PublicKey())
	if err != nil {
		panic(err)
	}
	transition, err := genesis.SignCollective(newKeyBytes)
	if err != nil {
		panic(err)
	}
	if err := chain.Extend(current.PublicKey(), transition); err != nil {
		panic(err)
	}

	prefix, err := xorname.ParsePrefix("01")
	if err != nil {
		panic(err)
	}
	signing, err := messages.SerializeForSigning(dst, nil, messages.UserMessage{Content: []byte("section vector")})
	if err != nil {
		panic(err)
	}
	sig, err := current.SignCollective(signing)
	if err != nil {
		panic(err)
	}
	sectionMsg, err := messages.NewSectionSigned(prefix, chain, sig, dst, nil, messages.UserMessage{Content: []byte("section vector")})
	if err != nil {
		panic(err)
	}

	genesisKey, err := section.MarshalKey(genesis.PublicKey())
	if err != nil {
		panic(err)
	}
	fmt.Printf("section.prefix=%s\n", prefix)
	fmt.Printf("section.genesis_key=%s\n", hex.EncodeToString(genesisKey))
	fmt.Printf("section.hash=%s\n", sectionMsg.Hash().Hex())
	fmt.Printf("section.wire=%s\n", hex.EncodeToString(sectionMsg.ToBytes()))
}
