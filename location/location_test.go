package location

import (
	"testing"

	"github.com/sectormesh/routing/xorname"
)

func TestDstMarshalRoundTrip(t *testing.T) {
	name := xorname.FromContent([]byte("target"))
	for _, d := range []DstLocation{NodeDst(name), SectionDst(name), DirectDst()} {
		got, err := UnmarshalDst(d.Marshal())
		if err != nil {
			t.Fatalf("UnmarshalDst(%s): %v", d, err)
		}
		if !got.Equal(d) {
			t.Fatalf("round trip changed dst: got %s want %s", got, d)
		}
	}
}

func TestUnmarshalDstRejectsUnknownKind(t *testing.T) {
	enc := NodeDst(xorname.XorName{}).Marshal()
	enc[3] = 0x7f
	if _, err := UnmarshalDst(enc); err == nil {
		t.Fatalf("expected unknown kind rejection")
	}
}

func TestUnmarshalDstRejectsNamedDirect(t *testing.T) {
	enc := DirectDst().Marshal()
	enc[4] = 1
	if _, err := UnmarshalDst(enc); err == nil {
		t.Fatalf("expected rejection of direct dst with a name")
	}
}

func TestDstContains(t *testing.T) {
	me := xorname.FromContent([]byte("me"))
	other := xorname.FromContent([]byte("other"))
	myPrefix := xorname.NewPrefix(me, 4)

	if !NodeDst(me).Contains(me, myPrefix) {
		t.Fatalf("node dst must contain the named node")
	}
	if NodeDst(other).Contains(me, myPrefix) {
		t.Fatalf("node dst must not contain other nodes")
	}
	inSection := me
	inSection[xorname.Size-1] ^= 0xff
	if !SectionDst(inSection).Contains(me, myPrefix) {
		t.Fatalf("section dst under my prefix must contain me")
	}
	if !DirectDst().Contains(me, myPrefix) {
		t.Fatalf("direct dst contains the receiving peer")
	}
}

func TestSrcLocationAccessors(t *testing.T) {
	name := xorname.FromContent([]byte("node"))
	src := NodeSrc(name)
	if src.IsSection() {
		t.Fatalf("node src reported as section")
	}
	if got, ok := src.NodeName(); !ok || got != name {
		t.Fatalf("NodeName: got %v ok=%v", got, ok)
	}

	prefix, _ := xorname.ParsePrefix("011")
	ssrc := SectionSrc(prefix)
	if !ssrc.IsSection() {
		t.Fatalf("section src reported as node")
	}
	if got, ok := ssrc.SectionPrefix(); !ok || !got.Equal(prefix) {
		t.Fatalf("SectionPrefix: got %v ok=%v", got, ok)
	}
}
