package messages

import (
	"errors"
	"fmt"

	"go.dedis.ch/kyber/v4"
	"go.dedis.ch/protobuf"

	"github.com/sectormesh/routing/identity"
	"github.com/sectormesh/routing/location"
	"github.com/sectormesh/routing/section"
	"github.com/sectormesh/routing/xorname"
)

// Wire forms. The envelope must be self-describing: everything needed to
// re-derive the canonical signing bytes travels with it, and the optional
// dst key round-trips as present/absent rather than as a default key.
type wireMessage struct {
	Dst     []byte
	Src     wireSrcAuthority
	Variant wireVariant
	DstKey  []byte
}

const (
	wireSrcNode    = 1
	wireSrcSection = 2
)

type wireSrcAuthority struct {
	Kind      uint32
	PublicKey []byte
	Prefix    []byte
	Signature []byte
	Proof     *wireProofChain
}

type wireProofChain struct {
	Head []byte
	Tail []wireProofLink
}

type wireProofLink struct {
	Key       []byte
	Signature []byte
}

type wireVariant struct {
	Kind uint32
	Body []byte
}

// The canonical signing bytes cover (dst, dst_key, variant) only. The
// source authority and the cached wire bytes are excluded: a signature
// never covers its own field, and never covers a malleable rendering of
// itself.
type wireSigning struct {
	Dst     []byte
	DstKey  []byte
	Variant wireVariant
}

// SerializeForSigning produces the canonical signing bytes for a message
// with the given destination, optional destination key and payload.
func SerializeForSigning(dst location.DstLocation, dstKey kyber.Point, v Variant) ([]byte, error) {
	wv, err := marshalWireVariant(v)
	if err != nil {
		return nil, err
	}
	var keyBytes []byte
	if dstKey != nil {
		keyBytes, err = section.MarshalKey(dstKey)
		if err != nil {
			return nil, err
		}
	}
	out, err := protobuf.Encode(&wireSigning{Dst: dst.Marshal(), DstKey: keyBytes, Variant: wv})
	if err != nil {
		return nil, fmt.Errorf("messages: signing serialization: %w", err)
	}
	return out, nil
}

func marshalWireVariant(v Variant) (wireVariant, error) {
	if v == nil {
		return wireVariant{}, errors.New("messages: nil variant")
	}
	body, err := marshalVariantBody(v)
	if err != nil {
		return wireVariant{}, err
	}
	return wireVariant{Kind: uint32(v.Kind()), Body: body}, nil
}

func marshalWireSrc(src SrcAuthority) (wireSrcAuthority, error) {
	switch src := src.(type) {
	case NodeAuthority:
		return wireSrcAuthority{
			Kind:      wireSrcNode,
			PublicKey: src.PublicID.Key(),
			Signature: src.Signature,
		}, nil
	case SectionAuthority:
		if src.Proof == nil {
			return wireSrcAuthority{}, errors.New("messages: section authority without proof chain")
		}
		head, err := section.MarshalKey(src.Proof.HeadKey())
		if err != nil {
			return wireSrcAuthority{}, err
		}
		links := src.Proof.Links()
		tail := make([]wireProofLink, 0, len(links))
		for _, link := range links {
			keyBytes, err := section.MarshalKey(link.Key)
			if err != nil {
				return wireSrcAuthority{}, err
			}
			tail = append(tail, wireProofLink{Key: keyBytes, Signature: link.Signature})
		}
		return wireSrcAuthority{
			Kind:      wireSrcSection,
			Prefix:    src.Prefix.Marshal(),
			Signature: src.Signature,
			Proof:     &wireProofChain{Head: head, Tail: tail},
		}, nil
	default:
		return wireSrcAuthority{}, fmt.Errorf("messages: unencodable src authority %T", src)
	}
}

func unmarshalWireSrc(w wireSrcAuthority) (SrcAuthority, error) {
	switch w.Kind {
	case wireSrcNode:
		id, err := identity.NewPublicID(w.PublicKey)
		if err != nil {
			return nil, err
		}
		return NodeAuthority{PublicID: id, Signature: w.Signature}, nil
	case wireSrcSection:
		prefix, err := xorname.UnmarshalPrefix(w.Prefix)
		if err != nil {
			return nil, err
		}
		if w.Proof == nil {
			return nil, errors.New("messages: section authority without proof chain")
		}
		head, err := section.UnmarshalKey(w.Proof.Head)
		if err != nil {
			return nil, err
		}
		links := make([]section.ProofLink, 0, len(w.Proof.Tail))
		for _, wl := range w.Proof.Tail {
			key, err := section.UnmarshalKey(wl.Key)
			if err != nil {
				return nil, err
			}
			links = append(links, section.ProofLink{Key: key, Signature: wl.Signature})
		}
		proof, err := section.ProofChainFromParts(head, links)
		if err != nil {
			return nil, err
		}
		return SectionAuthority{Prefix: prefix, Signature: w.Signature, Proof: proof}, nil
	default:
		return nil, fmt.Errorf("messages: unknown src authority kind %d", w.Kind)
	}
}

func encodeWire(dst location.DstLocation, src SrcAuthority, v Variant, dstKey kyber.Point) ([]byte, error) {
	ws, err := marshalWireSrc(src)
	if err != nil {
		return nil, err
	}
	wv, err := marshalWireVariant(v)
	if err != nil {
		return nil, err
	}
	var keyBytes []byte
	if dstKey != nil {
		keyBytes, err = section.MarshalKey(dstKey)
		if err != nil {
			return nil, err
		}
	}
	out, err := protobuf.Encode(&wireMessage{Dst: dst.Marshal(), Src: ws, Variant: wv, DstKey: keyBytes})
	if err != nil {
		return nil, fmt.Errorf("messages: wire serialization: %w", err)
	}
	return out, nil
}

type decodedWire struct {
	dst     location.DstLocation
	src     SrcAuthority
	variant Variant
	dstKey  kyber.Point
}

func decodeWire(b []byte) (decodedWire, error) {
	var w wireMessage
	if err := protobuf.Decode(b, &w); err != nil {
		return decodedWire{}, err
	}
	dst, err := location.UnmarshalDst(w.Dst)
	if err != nil {
		return decodedWire{}, err
	}
	src, err := unmarshalWireSrc(w.Src)
	if err != nil {
		return decodedWire{}, err
	}
	v, err := unmarshalVariant(VariantKind(w.Variant.Kind), w.Variant.Body)
	if err != nil {
		return decodedWire{}, err
	}
	var dstKey kyber.Point
	if len(w.DstKey) > 0 {
		dstKey, err = section.UnmarshalKey(w.DstKey)
		if err != nil {
			return decodedWire{}, err
		}
	}
	return decodedWire{dst: dst, src: src, variant: v, dstKey: dstKey}, nil
}
