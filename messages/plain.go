package messages

import (
	"fmt"

	"go.dedis.ch/kyber/v4"

	"github.com/sectormesh/routing/location"
)

// PlainMessage is the unsigned precursor of a section-authority message:
// the fields the elders agree on before any of them contributes a
// signature share. Two plain messages with equal fields have equal signing
// bytes, which is what lets shares from different elders accumulate
// against the same state.
type PlainMessage struct {
	Dst     location.DstLocation
	DstKey  kyber.Point
	Variant Variant
}

// SigningBytes returns the canonical bytes every elder signs a share over.
func (p PlainMessage) SigningBytes() ([]byte, error) {
	return SerializeForSigning(p.Dst, p.DstKey, p.Variant)
}

func (p PlainMessage) String() string {
	kind := VariantKind(0)
	if p.Variant != nil {
		kind = p.Variant.Kind()
	}
	return fmt.Sprintf("PlainMessage{dst: %s, variant: %d}", p.Dst, kind)
}
