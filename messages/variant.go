package messages

import (
	"fmt"

	"go.dedis.ch/protobuf"

	"github.com/sectormesh/routing/xorname"
)

// VariantKind discriminates message payloads on the wire.
type VariantKind uint32

const (
	KindPing VariantKind = iota + 1
	KindJoinRequest
	KindBootstrapResponse
	KindUserMessage
)

// Variant is the message payload. The set of variants is closed; payload
// content is opaque to verification except that it participates in the
// canonical signing bytes.
type Variant interface {
	Kind() VariantKind
	sealedVariant()
}

// Ping probes a peer for liveness.
type Ping struct{}

func (Ping) Kind() VariantKind { return KindPing }
func (Ping) sealedVariant()    {}

// JoinRequest asks a section to admit the sender. SectionKey is the
// collective key the joiner believes the section currently uses.
type JoinRequest struct {
	Name       xorname.XorName
	SectionKey []byte
}

func (JoinRequest) Kind() VariantKind { return KindJoinRequest }
func (JoinRequest) sealedVariant()    {}

// BootstrapResponse redirects a bootstrapping node to peers closer to its
// target section.
type BootstrapResponse struct {
	Addresses []string
}

func (BootstrapResponse) Kind() VariantKind { return KindBootstrapResponse }
func (BootstrapResponse) sealedVariant()    {}

// UserMessage carries application payload bytes end to end.
type UserMessage struct {
	Content []byte
}

func (UserMessage) Kind() VariantKind { return KindUserMessage }
func (UserMessage) sealedVariant()    {}

type wireJoinRequest struct {
	Name       []byte
	SectionKey []byte
}

type wireBootstrapResponse struct {
	Addresses []string
}

type wireUserMessage struct {
	Content []byte
}

func marshalVariantBody(v Variant) ([]byte, error) {
	switch v := v.(type) {
	case Ping:
		return nil, nil
	case JoinRequest:
		return protobuf.Encode(&wireJoinRequest{Name: v.Name.Bytes(), SectionKey: v.SectionKey})
	case BootstrapResponse:
		return protobuf.Encode(&wireBootstrapResponse{Addresses: v.Addresses})
	case UserMessage:
		return protobuf.Encode(&wireUserMessage{Content: v.Content})
	default:
		return nil, fmt.Errorf("messages: unencodable variant %T", v)
	}
}

func unmarshalVariant(kind VariantKind, body []byte) (Variant, error) {
	switch kind {
	case KindPing:
		if len(body) != 0 {
			return nil, fmt.Errorf("messages: ping carries a body")
		}
		return Ping{}, nil
	case KindJoinRequest:
		var w wireJoinRequest
		if err := protobuf.Decode(body, &w); err != nil {
			return nil, err
		}
		name, err := xorname.FromBytes(w.Name)
		if err != nil {
			return nil, err
		}
		return JoinRequest{Name: name, SectionKey: w.SectionKey}, nil
	case KindBootstrapResponse:
		var w wireBootstrapResponse
		if len(body) > 0 {
			if err := protobuf.Decode(body, &w); err != nil {
				return nil, err
			}
		}
		return BootstrapResponse{Addresses: w.Addresses}, nil
	case KindUserMessage:
		var w wireUserMessage
		if len(body) > 0 {
			if err := protobuf.Decode(body, &w); err != nil {
				return nil, err
			}
		}
		return UserMessage{Content: w.Content}, nil
	default:
		return nil, fmt.Errorf("messages: unknown variant kind %d", kind)
	}
}
